// Package hsmsss provides an implementation of HSMS-SS (High-Speed SECS Message Services - Single Session)
// for communication with semiconductor manufacturing equipment according to the SEMI E37 standard.
// It builds upon the message layer of the hsms package and checks every data message against the
// stream/function schemas of the schema package.
//
// Key Features:
//   - HSMS-SS Connection Management: active (connecting) and passive (listening) modes, with automatic
//     re-establishment of lost connections until Close is called.
//   - Select, Deselect, Linktest and Separate procedures, and the T3, T5, T6, T7 and T8 timers.
//   - Typed Messages: outbound messages are refused locally when they violate their schema, inbound
//     ones are answered with Reject.req and, in the equipment role, a stream 9 error report.
//   - Reply Correlation: concurrent senders wait for their own reply, matched by system bytes.
//   - Metrics: counters of sent, received, rejected and failed messages.
//
// Connection Establishment:
//   - Create a ConnectionConfig with `NewConnectionConfig()` and the desired options.
//   - Create the connection with `NewConnection` and add the session with `AddSession`.
//   - Call `Open` to start connecting or listening.
//
// Message Sending:
//   - `Session.Send` builds a primary message from its schema and returns the typed reply.
//   - `Session.SendMessage`, `SendSECS2Message` and `SendDataMessage` send prebuilt messages and
//     go through the same checks.
//
// Message Receiving:
//   - `Session.AddMessageHandler` registers a handler of typed primary messages. Each handler runs
//     in its own goroutine and sees the messages in receive order.
//   - Replies are sent with `Session.Reply`.
//
// Usage Example:
//
//	func onlineHandler(msg *schema.Message, session *hsmsss.Session) {
//	    if msg.Key() == (schema.Key{Stream: 1, Function: 1}) {
//	        _ = session.Reply(msg, secs2.L(secs2.A("ETCH-01"), secs2.A("1.0.0")))
//	    }
//	}
//
//	func main() {
//	    cfg, err := hsmsss.NewConnectionConfig("127.0.0.1", 5000,
//	        hsmsss.WithPassive(),
//	        hsmsss.WithEquipRole(),
//	        hsmsss.WithT3Timeout(30*time.Second),
//	    )
//	    // ... handle error ...
//	    conn, err := hsmsss.NewConnection(ctx, cfg)
//	    // ... handle error ...
//	    defer conn.Close()
//
//	    conn.AddSession(1000)
//	    conn.Session().AddMessageHandler(onlineHandler)
//
//	    // open and wait for the selected state
//	    err = conn.Open(true)
//	    // ... handle error ...
//
//	    reply, err := conn.Session().Send(6, 11, eventReport)
//	    // ... handle error and process the reply ...
//	}
package hsmsss
