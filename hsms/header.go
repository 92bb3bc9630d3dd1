package hsms

import (
	"encoding/binary"
	"fmt"
)

const (
	// HeaderSize is the size of the HSMS message header in bytes.
	HeaderSize = 10
	// LengthFieldSize is the size of the message length field in bytes.
	LengthFieldSize = 4
	// MinHSMSSize is the minimum size of an HSMS frame (length field + header).
	MinHSMSSize = LengthFieldSize + HeaderSize
	// MaxMessageLength is the largest accepted value of the message length field.
	MaxMessageLength = HeaderSize + 1<<24 + 8
)

// PTypeSECS2 is the only presentation type defined by HSMS.
const PTypeSECS2 = 0

// Header is the decoded 10-byte HSMS message header.
//
// For data messages byte 2 carries the W-bit and the stream code and byte 3 the function code.
// Control messages reuse bytes 2 and 3 for status and reason codes, exposed here as Stream and
// Function without interpretation.
type Header struct {
	SessionID   uint16
	Stream      byte
	Function    byte
	WaitBit     bool
	PType       byte
	SType       byte
	SystemBytes [4]byte
}

// ParseHeader decodes a 10-byte header.
func ParseHeader(b []byte) (Header, error) {
	if len(b) != HeaderSize {
		return Header{}, fmt.Errorf("%w: %d", ErrInvalidHeaderLength, len(b))
	}

	h := Header{
		SessionID: binary.BigEndian.Uint16(b[0:2]),
		Function:  b[3],
		PType:     b[4],
		SType:     b[5],
	}

	if h.SType == DataMsgType {
		h.WaitBit = b[2]&0x80 != 0
		h.Stream = b[2] & 0x7f
	} else {
		h.Stream = b[2]
	}
	copy(h.SystemBytes[:], b[6:10])

	return h, nil
}

// Bytes encodes the header into its 10-byte wire form.
func (h Header) Bytes() []byte {
	b := make([]byte, HeaderSize)
	h.put(b)

	return b
}

func (h Header) put(b []byte) {
	binary.BigEndian.PutUint16(b[0:2], h.SessionID)
	b[2] = h.Stream
	if h.SType == DataMsgType {
		b[2] &= 0x7f
		if h.WaitBit {
			b[2] |= 0x80
		}
	}
	b[3] = h.Function
	b[4] = h.PType
	b[5] = h.SType
	copy(b[6:10], h.SystemBytes[:])
}

// ID returns the system bytes as a number.
func (h Header) ID() uint32 {
	return binary.BigEndian.Uint32(h.SystemBytes[:])
}

// IsPrimary reports whether the header belongs to a primary data message (odd function).
func (h Header) IsPrimary() bool {
	return h.SType == DataMsgType && h.Function%2 == 1
}

func (h Header) String() string {
	if h.SType == DataMsgType {
		w := ""
		if h.WaitBit {
			w = " W"
		}

		return fmt.Sprintf("S%dF%d%s session=%d id=%d", h.Stream, h.Function, w, h.SessionID, h.ID())
	}

	return fmt.Sprintf("%s session=%d id=%d", MsgTypeName(int(h.SType)), h.SessionID, h.ID())
}
