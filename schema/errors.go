package schema

import (
	"context"
	"errors"
	"fmt"

	"github.com/arloliu/go-secsgem/dataitem"
	"github.com/arloliu/go-secsgem/hsms"
	"github.com/arloliu/go-secsgem/secs2"
)

var (
	// ErrShapeMismatch reports a body whose list structure does not match the schema.
	ErrShapeMismatch = errors.New("body shape mismatch")

	// ErrWaitBitMismatch reports an outbound primary message whose W-bit contradicts the schema.
	ErrWaitBitMismatch = errors.New("wait bit does not match the message definition")

	// ErrInvalidSchema reports a schema that cannot be registered.
	ErrInvalidSchema = errors.New("invalid schema")
)

// UnknownStreamFunctionError reports a stream/function pair absent from the registry.
type UnknownStreamFunctionError struct {
	Stream   byte
	Function byte
	// StreamKnown tells whether any function of the stream is registered, which tells
	// apart an unrecognized stream (S9F3) from an unrecognized function (S9F5).
	StreamKnown bool
}

func (e *UnknownStreamFunctionError) Error() string {
	if e.StreamKnown {
		return fmt.Sprintf("unknown function S%dF%d", e.Stream, e.Function)
	}

	return fmt.Sprintf("unknown stream S%dF%d", e.Stream, e.Function)
}

// DuplicateSchemaError reports an attempt to register a key twice.
type DuplicateSchemaError struct {
	Stream   byte
	Function byte
}

func (e *DuplicateSchemaError) Error() string {
	return fmt.Sprintf("schema S%dF%d already registered", e.Stream, e.Function)
}

// DirectionViolationError reports a message sent or received in a direction its schema forbids.
type DirectionViolationError struct {
	Stream    byte
	Function  byte
	Direction Direction
	Outbound  bool
}

func (e *DirectionViolationError) Error() string {
	verb := "received"
	if e.Outbound {
		verb = "sent"
	}

	return fmt.Sprintf("S%dF%d may not be %s %s", e.Stream, e.Function, verb, e.Direction)
}

// BlockSizeViolationError reports a single-block message whose body exceeds the block size.
type BlockSizeViolationError struct {
	Stream   byte
	Function byte
	Size     int
	Max      int
}

func (e *BlockSizeViolationError) Error() string {
	return fmt.Sprintf("S%dF%d body of %d bytes exceeds the single block size %d", e.Stream, e.Function, e.Size, e.Max)
}

// BodyError locates a body validation failure. Path is "body" for the root and
// "body[1][0]" for the first element of the second root element.
type BodyError struct {
	Path string
	Err  error
}

func (e *BodyError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Err)
}

func (e *BodyError) Unwrap() error {
	return e.Err
}

func isShapeMismatch(err error) bool {
	return errors.Is(err, ErrShapeMismatch)
}

// ErrorClass tells how the connection layer reacts to an error.
type ErrorClass int

const (
	// ClassNone is the class of a nil error.
	ClassNone ErrorClass = iota
	// ClassMalformed is malformed wire data, fatal to the connection.
	ClassMalformed
	// ClassUnknown is an unrecognized stream/function, answered with a reject.
	ClassUnknown
	// ClassValidation is a message level failure, answered with a reject.
	ClassValidation
	// ClassTimeout is a missing reply.
	ClassTimeout
	// ClassState is an operation attempted in the wrong connection state.
	ClassState
	// ClassOther is any other error.
	ClassOther
)

func (c ErrorClass) String() string {
	switch c {
	case ClassNone:
		return "none"
	case ClassMalformed:
		return "malformed"
	case ClassUnknown:
		return "unknown"
	case ClassValidation:
		return "validation"
	case ClassTimeout:
		return "timeout"
	case ClassState:
		return "state"
	default:
		return "other"
	}
}

// Classify returns the class of err.
func Classify(err error) ErrorClass { //nolint:cyclop
	if err == nil {
		return ClassNone
	}

	var (
		malformed   *secs2.MalformedItemError
		unknown     *UnknownStreamFunctionError
		body        *BodyError
		direction   *DirectionViolationError
		blockSize   *BlockSizeViolationError
		disallowed  *secs2.DisallowedTypeError
		unsupported *hsms.UnsupportedTypeError
	)

	switch {
	case errors.As(err, &malformed),
		errors.Is(err, hsms.ErrInvalidFrameLength),
		errors.Is(err, hsms.ErrInvalidHeaderLength):
		return ClassMalformed

	case errors.As(err, &unknown):
		return ClassUnknown

	case errors.As(err, &body),
		errors.As(err, &direction),
		errors.As(err, &blockSize),
		errors.As(err, &disallowed),
		errors.As(err, &unsupported),
		errors.Is(err, ErrShapeMismatch),
		errors.Is(err, ErrWaitBitMismatch),
		errors.Is(err, dataitem.ErrTypeNotAllowed),
		errors.Is(err, dataitem.ErrCountMismatch),
		errors.Is(err, dataitem.ErrInvalidValue):
		return ClassValidation

	case errors.Is(err, hsms.ErrT3Timeout),
		errors.Is(err, hsms.ErrT5Timeout),
		errors.Is(err, hsms.ErrT6Timeout),
		errors.Is(err, hsms.ErrT7Timeout),
		errors.Is(err, hsms.ErrT8Timeout),
		errors.Is(err, hsms.ErrLinktestFailed),
		errors.Is(err, context.DeadlineExceeded):
		return ClassTimeout

	case errors.Is(err, hsms.ErrNotSelectedState),
		errors.Is(err, hsms.ErrInvalidTransition),
		errors.Is(err, hsms.ErrConnClosed):
		return ClassState
	}

	return ClassOther
}
