package hsms

import (
	"encoding/binary"
	"fmt"

	"github.com/arloliu/go-secsgem/secs2"
)

// DecodeHSMSMessage decodes an HSMS message from a complete frame, including the 4-byte
// length field.
func DecodeHSMSMessage(data []byte) (HSMSMessage, error) {
	if len(data) < MinHSMSSize {
		return nil, fmt.Errorf("%w: %d", ErrInvalidFrameLength, len(data))
	}

	msgLen := binary.BigEndian.Uint32(data)
	if msgLen > MaxMessageLength {
		return nil, fmt.Errorf("%w: message length %d exceeds maximum", ErrInvalidFrameLength, msgLen)
	}

	return DecodeMessage(msgLen, data[LengthFieldSize:])
}

// DecodeMessage decodes an HSMS message from the bytes following the length field.
//
// msgLen is the value of the length field and must equal len(input).
//
// The errors returned tell the caller how to react:
//   - *UnsupportedTypeError: the header is well formed, answer with Reject.req
//   - *secs2.MalformedItemError: the data message body is malformed, the stream can't be trusted
//   - any other error: the frame itself is invalid
func DecodeMessage(msgLen uint32, input []byte) (HSMSMessage, error) {
	if len(input) != int(msgLen) || msgLen < HeaderSize {
		return nil, fmt.Errorf("%w: expected %d, actual %d", ErrInvalidFrameLength, msgLen, len(input))
	}

	header, err := ParseHeader(input[:HeaderSize])
	if err != nil {
		return nil, err
	}

	if header.PType != PTypeSECS2 {
		return nil, &UnsupportedTypeError{Header: header, Reason: RejectPTypeNotSupported}
	}

	switch header.SType {
	case DataMsgType:
		item, err := secs2.DecodeAll(input[HeaderSize:])
		if err != nil {
			return nil, err
		}

		return NewDataMessageFromHeader(header, item)

	case SelectReqType, DeselectReqType, LinkTestReqType:
		if len(input) != HeaderSize {
			return nil, fmt.Errorf("%w: control message with body", ErrInvalidFrameLength)
		}
		return NewControlMessage(header, true), nil

	case SelectRspType, DeselectRspType, LinkTestRspType, RejectReqType, SeparateReqType:
		if len(input) != HeaderSize {
			return nil, fmt.Errorf("%w: control message with body", ErrInvalidFrameLength)
		}
		return NewControlMessage(header, false), nil

	default:
		return nil, &UnsupportedTypeError{Header: header, Reason: RejectSTypeNotSupported}
	}
}

// DecodeSECS2Item decodes the body of a data message.
func DecodeSECS2Item(data []byte) (secs2.Item, error) {
	return secs2.DecodeAll(data)
}
