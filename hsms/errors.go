package hsms

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidStreamCode indicates that an invalid stream code was provided.
	// Valid stream codes are in the range of 0 to 127.
	ErrInvalidStreamCode = errors.New("invalid stream code, should be in range of [0, 127]")

	// ErrInvalidReplyWaitBit indicates that the W-bit was set on a reply (even function) message.
	ErrInvalidReplyWaitBit = errors.New("wait bit cannot be set on a reply message")

	// ErrInvalidSystemBytes indicates that invalid system bytes were provided.
	// System bytes should be a 4-byte array.
	ErrInvalidSystemBytes = errors.New("invalid system bytes, length is not 4")

	// ErrInvalidHeaderLength indicates that a header is not 10 bytes long.
	ErrInvalidHeaderLength = errors.New("invalid hsms header length")

	// ErrInvalidPType indicates a presentation type other than SECS-II.
	ErrInvalidPType = errors.New("invalid hsms PType")

	// ErrInvalidDataMsgSType indicates a data message header whose SType is not zero.
	ErrInvalidDataMsgSType = errors.New("invalid SType for data message")

	// ErrInvalidFrameLength indicates a frame whose length field is out of range or does not
	// match the frame size.
	ErrInvalidFrameLength = errors.New("invalid hsms frame length")
)

var (
	// ErrConnConfigNil indicates that a nil ConnectionConfig was provided.
	ErrConnConfigNil = errors.New("connection config is nil")

	// ErrSessionNil indicates that a nil Session was encountered.
	ErrSessionNil = errors.New("session is nil")

	// ErrConnClosed indicates that the connection is closed.
	ErrConnClosed = errors.New("connection closed")

	// ErrSelectFailed indicates that the session selection failed.
	ErrSelectFailed = errors.New("select failed")

	// ErrInvalidReqMsg indicates that the message is not a valid request/primary message.
	ErrInvalidReqMsg = errors.New("message is not a valid request/primary message")

	// ErrInvalidRspMsg indicates that the message is not a valid response/secondary message.
	ErrInvalidRspMsg = errors.New("message is not a valid response/secondary message")

	// ErrNotDataMsg indicates that the message is not a data message.
	ErrNotDataMsg = errors.New("message is not a data message")

	// ErrNotControlMsg indicates that the message is not a control message.
	ErrNotControlMsg = errors.New("message is not a control message")

	// ErrLinktestFailed indicates that the peer did not answer linktest requests.
	ErrLinktestFailed = errors.New("linktest failed")

	// ErrRejected indicates that the peer answered a request with Reject.req.
	ErrRejected = errors.New("message rejected")
)

var (
	// ErrInvalidTransition is returned when an attempt is made to transition the connection
	// state to an invalid state.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrNotSelectedState indicates that the current connection state is not the selected state.
	ErrNotSelectedState = errors.New("current state is not the selected state")
)

var (
	// ErrT3Timeout indicates that a reply message was not received within T3 after sending a primary message.
	ErrT3Timeout = errors.New("T3 timeout")

	// ErrT5Timeout indicates that the connect separation time (T5) has elapsed.
	ErrT5Timeout = errors.New("T5 timeout")

	// ErrT6Timeout indicates that a reply to a control message was not received within T6.
	ErrT6Timeout = errors.New("T6 timeout")

	// ErrT7Timeout indicates that the connection was not selected within T7 after being established.
	ErrT7Timeout = errors.New("T7 timeout")

	// ErrT8Timeout indicates that the inter-character timeout (T8) has elapsed while receiving a frame.
	ErrT8Timeout = errors.New("T8 timeout")
)

// UnsupportedTypeError is returned by the frame decoder for a well-formed header whose PType
// or SType is not supported. The connection answers it with Reject.req carrying Reason.
type UnsupportedTypeError struct {
	Header Header
	Reason byte // RejectPTypeNotSupported or RejectSTypeNotSupported
}

func (e *UnsupportedTypeError) Error() string {
	if e.Reason == RejectPTypeNotSupported {
		return fmt.Sprintf("unsupported PType %d", e.Header.PType)
	}

	return fmt.Sprintf("unsupported SType %d", e.Header.SType)
}

// RejectError reports a request answered by the peer with Reject.req.
type RejectError struct {
	Reason byte
}

func (e *RejectError) Error() string {
	return fmt.Sprintf("%s: %s", ErrRejected, RejectReasonName(e.Reason))
}

func (e *RejectError) Unwrap() error {
	return ErrRejected
}
