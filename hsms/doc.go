// Package hsms provides the message layer of the High-Speed SECS Message Services (HSMS)
// protocol, SEMI E37, shared by the HSMS connection implementations.
//
// Message Types:
// HSMS frames consist of a 4-byte length, a 10-byte header and an optional SECS-II body.
// The header SType selects the message type:
//   - DataMsgType: data message containing a SECS-II body.
//   - SelectReqType, SelectRspType: session establishment.
//   - DeselectReqType, DeselectRspType: session termination.
//   - LinkTestReqType, LinkTestRspType: link testing.
//   - RejectReqType: rejection of a received message, with a reason code.
//   - SeparateReqType: immediate termination.
//
// The package also provides:
//   - Header, ParseHeader: the decoded 10-byte header.
//   - DecodeHSMSMessage, DecodeMessage: the frame decoder. Bodies are decoded with secs2.DecodeAll.
//   - ConnStateMgr: the NOT-CONNECTED / NOT-SELECTED / SELECTED state machine with change handlers.
//   - TaskManager: goroutine lifecycle management for connection tasks.
//   - GenerateMsgSystemBytes: system byte allocation for outbound messages.
package hsms
