package hsms

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/arloliu/go-secsgem/secs2"
)

// DataMessage represents a HSMS data message.
//
// It implements the HSMSMessage and secs2.SECS2Message interfaces.
type DataMessage struct {
	name   string
	item   secs2.Item
	header Header
}

var (
	_ HSMSMessage        = (*DataMessage)(nil)
	_ secs2.SECS2Message = (*DataMessage)(nil)
)

// NewDataMessage creates a new data message.
//
// stream should be in range of [0, 127]. replyExpected sets the W-bit and cannot be true for a
// reply (even function) message. systemBytes should have 4 bytes. A nil item is an empty
// (header only) body.
func NewDataMessage(stream byte, function byte, replyExpected bool, sessionID uint16, systemBytes []byte, item secs2.Item) (*DataMessage, error) {
	if item == nil {
		item = secs2.NewEmptyItem()
	}

	msg := &DataMessage{
		item: item,
		header: Header{
			SessionID: sessionID,
			Stream:    stream,
			Function:  function,
			WaitBit:   replyExpected,
			PType:     PTypeSECS2,
			SType:     DataMsgType,
		},
	}

	if err := msg.SetSystemBytes(systemBytes); err != nil {
		return nil, err
	}

	if err := msg.sanityCheck(); err != nil {
		return nil, err
	}

	return msg, nil
}

// NewDataMessageFromHeader creates a data message from a decoded header and body.
func NewDataMessageFromHeader(header Header, item secs2.Item) (*DataMessage, error) {
	if header.PType != PTypeSECS2 {
		return nil, ErrInvalidPType
	}

	if header.SType != DataMsgType {
		return nil, ErrInvalidDataMsgSType
	}

	if item == nil {
		item = secs2.NewEmptyItem()
	}

	return &DataMessage{header: header, item: item}, nil
}

// Type returns HSMS message type.
func (msg *DataMessage) Type() int {
	return DataMsgType
}

// SessionID returns the session id of the message.
func (msg *DataMessage) SessionID() uint16 {
	return msg.header.SessionID
}

// SetSessionID sets the session id of the message.
func (msg *DataMessage) SetSessionID(sessionID uint16) {
	msg.header.SessionID = sessionID
}

// ID returns a numeric representation of the system bytes (message ID).
func (msg *DataMessage) ID() uint32 {
	return msg.header.ID()
}

// SystemBytes returns the system bytes of the message.
func (msg *DataMessage) SystemBytes() []byte {
	return msg.header.SystemBytes[:]
}

// SetSystemBytes sets system bytes to the data message.
//
// It will return error if the systemBytes is not 4 bytes.
func (msg *DataMessage) SetSystemBytes(systemBytes []byte) error {
	if len(systemBytes) != 4 {
		return ErrInvalidSystemBytes
	}

	copy(msg.header.SystemBytes[:], systemBytes)

	return nil
}

// Header returns the HSMS message header.
func (msg *DataMessage) Header() Header {
	return msg.header
}

// Name returns the optional message name, e.g. "Are You There".
func (msg *DataMessage) Name() string {
	return msg.name
}

// SetName sets the optional message name.
func (msg *DataMessage) SetName(name string) {
	msg.name = name
}

// StreamCode returns the stream code of the message.
func (msg *DataMessage) StreamCode() uint8 {
	return msg.header.Stream
}

// FunctionCode returns the function code of the message.
func (msg *DataMessage) FunctionCode() uint8 {
	return msg.header.Function
}

// WaitBit reports whether the W-bit is set.
func (msg *DataMessage) WaitBit() bool {
	return msg.header.WaitBit
}

// Item returns the message body. A header-only message has an empty item.
func (msg *DataMessage) Item() secs2.Item {
	return msg.item
}

// IsPrimary reports whether the message is a primary message (odd function code).
func (msg *DataMessage) IsPrimary() bool {
	return msg.header.Function%2 == 1
}

// SMLHeader returns the message header in SML notation, e.g. "S6F11 W".
func (msg *DataMessage) SMLHeader() string {
	header := fmt.Sprintf("S%dF%d", msg.header.Stream, msg.header.Function)
	if msg.header.WaitBit {
		header += " W"
	}

	return header
}

// ToBytes returns the HSMS frame of the message, including the 4-byte length field.
func (msg *DataMessage) ToBytes() []byte {
	var itemBytes []byte
	if msg.item != nil {
		itemBytes = msg.item.ToBytes()
	}

	result := make([]byte, MinHSMSSize, MinHSMSSize+len(itemBytes))
	binary.BigEndian.PutUint32(result[0:4], uint32(HeaderSize+len(itemBytes))) //nolint:gosec
	msg.header.put(result[4:MinHSMSSize])

	return append(result, itemBytes...)
}

// IsControlMessage returns false.
func (msg *DataMessage) IsControlMessage() bool {
	return false
}

// ToControlMessage always returns nil and false.
func (msg *DataMessage) ToControlMessage() (*ControlMessage, bool) {
	return nil, false
}

// IsDataMessage returns true.
func (msg *DataMessage) IsDataMessage() bool {
	return true
}

// ToDataMessage returns the message itself.
func (msg *DataMessage) ToDataMessage() (*DataMessage, bool) {
	return msg, true
}

// ToSML returns SML representation of data message.
func (msg *DataMessage) ToSML() string {
	var sb strings.Builder

	if msg.name != "" {
		sb.WriteString(msg.name)
		sb.WriteString(":")
	}
	sb.WriteString(msg.SMLHeader())

	if msg.item != nil && !msg.item.IsEmpty() {
		sb.WriteString("\n")
		sb.WriteString(msg.item.ToSML())
	}
	sb.WriteString("\n.")

	return sb.String()
}

// Clone returns a deep copy of the message.
func (msg *DataMessage) Clone() HSMSMessage {
	cloned := &DataMessage{name: msg.name, header: msg.header}
	if msg.item == nil {
		cloned.item = secs2.NewEmptyItem()
	} else {
		cloned.item = msg.item.Clone()
	}

	return cloned
}

func (msg *DataMessage) sanityCheck() error {
	if msg.header.Stream > 127 {
		return ErrInvalidStreamCode
	}

	if msg.header.WaitBit && msg.header.Function%2 == 0 {
		return ErrInvalidReplyWaitBit
	}

	return nil
}
