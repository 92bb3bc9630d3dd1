package gem

import (
	"errors"

	"github.com/arloliu/go-secsgem/dataitem"
	"github.com/arloliu/go-secsgem/hsms"
	"github.com/arloliu/go-secsgem/schema"
	"github.com/arloliu/go-secsgem/secs2"
)

// s9fx creates a stream 9 message carrying the 10-byte header of the offending message.
func s9fx(f uint8, di *dataitem.DataItem, header hsms.Header) *Message {
	return NewMessage(9, f, false, di.MustBuild(header.Bytes()))
}

// S9F1 creates an S9F1 (Unrecognized Device ID) message.
//
// SEMI E5 Description: the device ID in the message block header did not correspond to any
// known device ID.
func S9F1(mhead hsms.Header) *Message { return s9fx(1, dataitem.MHEAD, mhead) }

// S9F3 creates an S9F3 (Unrecognized Stream Type) message.
//
// SEMI E5 Description: the equipment does not recognize the stream type of the message.
func S9F3(mhead hsms.Header) *Message { return s9fx(3, dataitem.MHEAD, mhead) }

// S9F5 creates an S9F5 (Unrecognized Function Type) message.
//
// SEMI E5 Description: the function of the message is not recognized by the equipment.
func S9F5(mhead hsms.Header) *Message { return s9fx(5, dataitem.MHEAD, mhead) }

// S9F7 creates an S9F7 (Illegal Data) message.
//
// SEMI E5 Description: the stream and function were recognized but the data was not.
func S9F7(mhead hsms.Header) *Message { return s9fx(7, dataitem.MHEAD, mhead) }

// S9F9 creates an S9F9 (Transaction Timer Timeout) message.
//
// SEMI E5 Description: a transaction (receive) timer has expired and the corresponding
// transaction has been terminated. shead is the header of the primary message.
func S9F9(shead hsms.Header) *Message { return s9fx(9, dataitem.SHEAD, shead) }

// S9F11 creates an S9F11 (Data Too Long) message.
//
// SEMI E5 Description: the equipment has been sent more data than it can handle.
func S9F11(mhead hsms.Header) *Message { return s9fx(11, dataitem.MHEAD, mhead) }

// S9F13 creates an S9F13 (Conversation Timeout) message.
//
// SEMI E5 Description: the equipment was expecting data but none arrived within the
// conversation timeout. mexp is the expected message, e.g. "S7F3", edid the expected data
// identifier.
func S9F13(mexp string, edid secs2.Item) *Message {
	if edid == nil {
		edid = secs2.A("")
	}

	return NewMessage(9, 13, false, secs2.L(secs2.A(mexp), edid))
}

// ErrorReport returns the stream 9 message reporting err for the message whose header is header,
// or nil when err has no stream 9 report.
//
//   - unknown stream: S9F3
//   - unknown function: S9F5
//   - single block size exceeded: S9F11
//   - body or direction violation: S9F7
func ErrorReport(err error, header hsms.Header) *Message {
	var (
		unknown   *schema.UnknownStreamFunctionError
		blockSize *schema.BlockSizeViolationError
	)

	switch {
	case err == nil:
		return nil
	case errors.As(err, &unknown):
		if unknown.StreamKnown {
			return S9F5(header)
		}
		return S9F3(header)
	case errors.As(err, &blockSize):
		return S9F11(header)
	case schema.Classify(err) == schema.ClassValidation:
		return S9F7(header)
	default:
		return nil
	}
}
