// Package sml parses SML (SECS Message Language) text into SECS-II items and HSMS data messages.
//
// SML is the human-readable notation printed by Item.ToSML and DataMessage.ToSML, so text produced
// by those methods parses back to an equal item or message.
//
// Items:
//
//	<L[2]
//	  <A "LOT-01" 0x0A>    // quoted strings and character codes are concatenated
//	  <U4[..4] 1 0x10 0b11> /* numbers accept 0x, 0o and 0b prefixes */
//	>
//
// The type token is case-insensitive and BOOL is accepted for BOOLEAN. An optional size hint
// `[n]`, `[min..max]`, `[min..]` or `[..max]` is checked against the number of parsed elements.
//
// Messages are a header, an optional body and a terminating dot:
//
//	AreYouThere: S1F1 W
//	.
//	'S1F2'
//	<L <A "ETCH-01"> <A "1.0.0">>
//	.
//
// Usage Example:
//
//	msgs, err := sml.ParseHSMS(text)
//	// ... handle error ...
//	for _, msg := range msgs {
//	    reply, err := session.SendDataMessage(msg)
//	    // ...
//	}
//
// ParseTyped checks a parsed message against the schema registry of a schema.Dispatcher.
//
// Errors are reported as *SyntaxError with the byte offset of the failure.
package sml
