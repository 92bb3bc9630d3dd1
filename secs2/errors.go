package secs2

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSizeLimitExceeded is returned when an item payload does not fit in 3 length bytes.
var ErrSizeLimitExceeded = errors.New("item size limit exceeded")

// MalformedItemError reports bytes that do not form a well-formed SECS-II item.
//
// A malformed body is unrecoverable at the message level: the byte stream can no longer
// be trusted.
type MalformedItemError struct {
	Offset int    // byte offset of the offending item header within the decoded buffer
	Reason string // what was wrong
}

func (e *MalformedItemError) Error() string {
	return fmt.Sprintf("malformed SECS-II item at offset %d: %s", e.Offset, e.Reason)
}

// DisallowedTypeError reports an item whose kind is not a member of an allowed-type set.
type DisallowedTypeError struct {
	Kind    Kind
	Allowed []Kind
}

func (e *DisallowedTypeError) Error() string {
	names := make([]string, 0, len(e.Allowed))
	for _, k := range e.Allowed {
		names = append(names, k.String())
	}

	return fmt.Sprintf("item type %s not allowed, expected one of [%s]", e.Kind, strings.Join(names, " "))
}
