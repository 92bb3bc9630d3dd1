package hsms

import (
	"errors"
	"fmt"

	"github.com/arloliu/go-secsgem/secs2"
)

// ControlMessage represents a HSMS control message.
//
// It implements the HSMSMessage and secs2.SECS2Message interfaces. Control messages carry no
// body; bytes 2 and 3 of the header hold status or reason codes.
type ControlMessage struct {
	header        Header
	replyExpected bool
}

var (
	_ HSMSMessage        = (*ControlMessage)(nil)
	_ secs2.SECS2Message = (*ControlMessage)(nil)
)

// NewControlMessage creates a control message from a decoded header.
func NewControlMessage(header Header, replyExpected bool) *ControlMessage {
	return &ControlMessage{header: header, replyExpected: replyExpected}
}

// Type returns the HSMS message type, or UndefinedMsgType for an unknown session type.
func (msg *ControlMessage) Type() int {
	stype := int(msg.header.SType)
	if _, ok := hsmsMsgTypeMap[stype]; !ok || stype == DataMsgType {
		return UndefinedMsgType
	}

	return stype
}

// ID returns a numeric representation of the system bytes (message ID).
func (msg *ControlMessage) ID() uint32 {
	return msg.header.ID()
}

// SessionID returns the session id of the message.
func (msg *ControlMessage) SessionID() uint16 {
	return msg.header.SessionID
}

// SetSessionID sets the session id of the message.
func (msg *ControlMessage) SetSessionID(sessionID uint16) {
	msg.header.SessionID = sessionID
}

// SystemBytes returns the system bytes of the message.
func (msg *ControlMessage) SystemBytes() []byte {
	return msg.header.SystemBytes[:]
}

// SetSystemBytes sets the system bytes, it returns an error if systemBytes is not 4 bytes.
func (msg *ControlMessage) SetSystemBytes(systemBytes []byte) error {
	if len(systemBytes) != 4 {
		return ErrInvalidSystemBytes
	}

	copy(msg.header.SystemBytes[:], systemBytes)

	return nil
}

// Header returns the HSMS message header.
func (msg *ControlMessage) Header() Header {
	return msg.header
}

// Status returns header byte 3: the select/deselect status or the reject reason code.
func (msg *ControlMessage) Status() byte {
	return msg.header.Function
}

// ToBytes returns the HSMS frame of the message.
func (msg *ControlMessage) ToBytes() []byte {
	result := make([]byte, MinHSMSSize)
	result[3] = HeaderSize
	msg.header.put(result[4:])

	return result
}

// StreamCode returns header byte 2.
func (msg *ControlMessage) StreamCode() uint8 {
	return msg.header.Stream
}

// FunctionCode returns header byte 3.
func (msg *ControlMessage) FunctionCode() uint8 {
	return msg.header.Function
}

// WaitBit reports whether the control message expects a response.
func (msg *ControlMessage) WaitBit() bool {
	return msg.replyExpected
}

// Item returns an empty item.
func (msg *ControlMessage) Item() secs2.Item {
	return secs2.NewEmptyItem()
}

// IsControlMessage returns true.
func (msg *ControlMessage) IsControlMessage() bool {
	return true
}

// ToControlMessage returns the message itself.
func (msg *ControlMessage) ToControlMessage() (*ControlMessage, bool) {
	return msg, true
}

// IsDataMessage returns false.
func (msg *ControlMessage) IsDataMessage() bool {
	return false
}

// ToDataMessage always returns nil and false.
func (msg *ControlMessage) ToDataMessage() (*DataMessage, bool) {
	return nil, false
}

// Clone returns a copy of the message.
func (msg *ControlMessage) Clone() HSMSMessage {
	cloned := *msg
	return &cloned
}

func (msg *ControlMessage) String() string {
	return msg.header.String()
}

func newControlHeader(sessionID uint16, stype byte, systemBytes []byte) Header {
	h := Header{SessionID: sessionID, SType: stype}
	copy(h.SystemBytes[:], systemBytes)

	return h
}

// NewSelectReq creates HSMS Select.req control message.
// systemBytes should have length of 4.
func NewSelectReq(sessionID uint16, systemBytes []byte) *ControlMessage {
	return &ControlMessage{newControlHeader(sessionID, SelectReqType, systemBytes), true}
}

// Select status codes of Select.rsp.
const (
	SelectStatusSuccess     = 0 // Communication established
	SelectStatusActived     = 1 // Communication already active
	SelectStatusNotReady    = 2 // Connection not ready
	SelectStatusAlreadyUsed = 3 // Connection exhausted, the entity is selected by another connection
)

// NewSelectRsp creates HSMS Select.rsp control message from a Select.req message.
func NewSelectRsp(selectReq HSMSMessage, selectStatus byte) (*ControlMessage, error) {
	if selectReq.Type() != SelectReqType {
		return nil, errors.New("expected select.req message")
	}

	h := newControlHeader(selectReq.SessionID(), SelectRspType, selectReq.SystemBytes())
	h.Function = selectStatus

	return &ControlMessage{h, false}, nil
}

// Deselect status codes of Deselect.rsp.
const (
	DeselectStatusSuccess        = 0 // Communication ended
	DeselectStatusNotEstablished = 1 // Communication not established
	DeselectStatusBusy           = 2 // Communication busy
)

// NewDeselectReq creates HSMS Deselect.req control message.
// systemBytes should have length of 4.
func NewDeselectReq(sessionID uint16, systemBytes []byte) *ControlMessage {
	return &ControlMessage{newControlHeader(sessionID, DeselectReqType, systemBytes), true}
}

// NewDeselectRsp creates HSMS Deselect.rsp control message from a Deselect.req message.
func NewDeselectRsp(deselectReq HSMSMessage, deselectStatus byte) (*ControlMessage, error) {
	if deselectReq.Type() != DeselectReqType {
		return nil, errors.New("expected deselect.req message")
	}

	h := newControlHeader(deselectReq.SessionID(), DeselectRspType, deselectReq.SystemBytes())
	h.Function = deselectStatus

	return &ControlMessage{h, false}, nil
}

// NewLinktestReq creates HSMS Linktest.req control message.
// systemBytes should have length of 4.
func NewLinktestReq(systemBytes []byte) *ControlMessage {
	return &ControlMessage{newControlHeader(0xFFFF, LinkTestReqType, systemBytes), true}
}

// NewLinktestRsp creates HSMS Linktest.rsp control message from Linktest.req message.
func NewLinktestRsp(linktestReq HSMSMessage) (*ControlMessage, error) {
	if linktestReq.Type() != LinkTestReqType {
		return nil, errors.New("expected linktest.req message")
	}

	return &ControlMessage{newControlHeader(0xFFFF, LinkTestRspType, linktestReq.SystemBytes()), false}, nil
}

// Reject reason codes of Reject.req.
//
// Codes 1 to 4 are defined by HSMS; the remaining codes are local to this implementation
// and let the peer tell apart why a data message was refused.
const (
	RejectSTypeNotSupported  = 1 // received message's sType is not supported
	RejectPTypeNotSupported  = 2 // received message's pType is not supported
	RejectTransactionNotOpen = 3 // a reply was received without an open transaction
	RejectNotSelected        = 4 // data message is received in non-selected state
	RejectUnknownSF          = 5 // stream/function is not recognized
	RejectIllegalData        = 6 // message body does not conform to the message definition
)

var rejectReasonNames = map[byte]string{
	RejectSTypeNotSupported:  "sType not supported",
	RejectPTypeNotSupported:  "pType not supported",
	RejectTransactionNotOpen: "transaction not open",
	RejectNotSelected:        "entity not selected",
	RejectUnknownSF:          "stream/function not recognized",
	RejectIllegalData:        "illegal data",
}

// RejectReasonName returns a readable name of a reject reason code.
func RejectReasonName(reason byte) string {
	if name, ok := rejectReasonNames[reason]; ok {
		return name
	}

	return fmt.Sprintf("reason %d", reason)
}

// NewRejectReq creates HSMS Reject.req control message for the received message.
//
// Header byte 2 carries the rejected message's pType for reason 2 and its sType otherwise.
func NewRejectReq(recvMsg HSMSMessage, reasonCode byte) *ControlMessage {
	h := recvMsg.Header()

	return NewRejectReqRaw(h.SessionID, h.PType, h.SType, h.SystemBytes[:], reasonCode)
}

// NewRejectReqRaw creates HSMS Reject.req control message from the fields of the rejected header.
// systemBytes should have length of 4.
func NewRejectReqRaw(sessionID uint16, pType, sType byte, systemBytes []byte, reasonCode byte) *ControlMessage {
	h := newControlHeader(sessionID, RejectReqType, systemBytes)
	if reasonCode == RejectPTypeNotSupported {
		h.Stream = pType
	} else {
		h.Stream = sType
	}
	h.Function = reasonCode

	return &ControlMessage{h, false}
}

// NewSeparateReq creates HSMS Separate.req control message.
// systemBytes should have length of 4.
func NewSeparateReq(sessionID uint16, systemBytes []byte) *ControlMessage {
	return &ControlMessage{newControlHeader(sessionID, SeparateReqType, systemBytes), false}
}
