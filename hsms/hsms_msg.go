package hsms

import (
	"github.com/arloliu/go-secsgem/secs2"
)

// Session type (SType) constants of HSMS messages.
const (
	UndefinedMsgType = -1 // Undefined session type
	DataMsgType      = 0  // Data message containing SECS-II data
	SelectReqType    = 1  // Select request control message
	SelectRspType    = 2  // Select response control message
	DeselectReqType  = 3  // Deselect request control message
	DeselectRspType  = 4  // Deselect response control message
	LinkTestReqType  = 5  // Linktest request control message
	LinkTestRspType  = 6  // Linktest response control message
	RejectReqType    = 7  // Reject request control message
	SeparateReqType  = 9  // Separate request control message
)

var hsmsMsgTypeMap = map[int]string{
	DataMsgType:      "data.msg",
	SelectReqType:    "select.req",
	SelectRspType:    "select.rsp",
	DeselectReqType:  "deselect.req",
	DeselectRspType:  "deselect.rsp",
	LinkTestReqType:  "linktest.req",
	LinkTestRspType:  "linktest.rsp",
	RejectReqType:    "reject.req",
	SeparateReqType:  "separate.req",
	UndefinedMsgType: "undefined",
}

// MsgTypeName returns the log name of an HSMS session type.
func MsgTypeName(msgType int) string {
	if name, ok := hsmsMsgTypeMap[msgType]; ok {
		return name
	}

	return "undefined"
}

// HSMSMessage represents a message in the HSMS (High-Speed SECS Message Services) protocol.
// It extends the SECS2Message interface with HSMS-specific attributes.
//
// HSMS messages are categorized into:
//   - Data Message: Used for exchanging SECS-II data between the host and equipment.
//   - Control Message: Used for managing the HSMS connection itself (e.g., select, link testing).
type HSMSMessage interface {
	secs2.SECS2Message

	// Type returns the HSMS message type, one of the hsms.*Type constants.
	Type() int

	// SessionID returns the session ID for the HSMS message.
	SessionID() uint16

	// SetSessionID sets the session ID for the HSMS message.
	SetSessionID(sessionID uint16)

	// ID returns a numeric representation of the system bytes (message ID).
	ID() uint32

	// SystemBytes returns the 4-byte system bytes (message ID).
	SystemBytes() []byte

	// SetSystemBytes sets the system bytes (message ID) for the HSMS message.
	// It returns an error if systemBytes is not 4 bytes long.
	SetSystemBytes(systemBytes []byte) error

	// Header returns the decoded HSMS message header.
	Header() Header

	// ToBytes serializes the message into a complete frame, including the 4-byte length field.
	ToBytes() []byte

	// IsControlMessage returns if the message is control message.
	IsControlMessage() bool
	// ToControlMessage converts the message to an HSMS control message if applicable.
	ToControlMessage() (*ControlMessage, bool)

	// IsDataMessage returns if the message is data message.
	IsDataMessage() bool
	// ToDataMessage converts the message to an HSMS data message if applicable.
	ToDataMessage() (*DataMessage, bool)

	// Clone creates a deep copy of the message.
	Clone() HSMSMessage
}

// MsgInfo returns structured message information without the SML body, for use as logger key/values.
func MsgInfo(msg HSMSMessage, keyValues ...any) []any {
	return msgInfo(msg, false, keyValues...)
}

// MsgInfoSML returns structured message information including the SML body.
func MsgInfoSML(msg HSMSMessage, keyValues ...any) []any {
	return msgInfo(msg, true, keyValues...)
}

func msgInfo(msg HSMSMessage, sml bool, keyValues ...any) []any { //nolint:revive
	info := []any{
		"id", msg.ID(),
		"type", MsgTypeName(msg.Type()),
		"s", msg.StreamCode(),
		"f", msg.FunctionCode(),
	}

	if sml && msg.Item() != nil {
		info = append(info, "sml", msg.Item().ToSML())
	}

	result := make([]any, 0, len(keyValues)+len(info))
	result = append(result, keyValues...)
	result = append(result, info...)

	return result
}
