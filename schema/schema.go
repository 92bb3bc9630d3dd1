package schema

import (
	"fmt"
	"strings"
)

// Direction is the direction a message travels in.
type Direction uint8

const (
	// ToHost is a message sent by the equipment to the host.
	ToHost Direction = iota + 1
	// ToEquipment is a message sent by the host to the equipment.
	ToEquipment
)

func (d Direction) String() string {
	switch d {
	case ToHost:
		return "E->H"
	case ToEquipment:
		return "H->E"
	default:
		return "unknown"
	}
}

// Key identifies a message type by its stream and function codes.
type Key struct {
	Stream   byte
	Function byte
}

func (k Key) String() string {
	return fmt.Sprintf("S%dF%d", k.Stream, k.Function)
}

func (k Key) order() int {
	return int(k.Stream)<<8 | int(k.Function)
}

// Schema describes one stream/function message type.
//
// A Schema is registered once and never mutated afterwards; the registry keeps its own copy.
type Schema struct {
	Stream   byte
	Function byte
	// Name is the SEMI E5 message name, e.g. "Are You There".
	Name string
	// Body is the expected body shape. A nil Body means header-only.
	Body Shape
	// ToHost and ToEquipment tell in which directions the message is legal.
	ToHost      bool
	ToEquipment bool
	// HasReply tells whether a reply message exists. For a primary message, the W-bit may be set
	// only when HasReply is true.
	HasReply bool
	// ReplyRequired tells whether the W-bit must be set. It is false for messages whose reply is
	// optional, such as S5F1 and S6F1.
	ReplyRequired bool
	// MultiBlock tells whether the body may exceed a single block.
	MultiBlock bool
}

// Key returns the stream/function key of the schema.
func (s *Schema) Key() Key {
	return Key{Stream: s.Stream, Function: s.Function}
}

// IsPrimary reports whether the schema describes a primary message (odd function code).
// Abort messages (function 0) are neither primary nor replies.
func (s *Schema) IsPrimary() bool {
	return s.Function%2 == 1
}

// ReplyFunction returns the function code of the reply, or 0 when the message has no reply.
func (s *Schema) ReplyFunction() byte {
	if !s.IsPrimary() || !s.HasReply {
		return 0
	}

	return s.Function + 1
}

// Allows reports whether the message may travel in direction dir.
func (s *Schema) Allows(dir Direction) bool {
	switch dir {
	case ToHost:
		return s.ToHost
	case ToEquipment:
		return s.ToEquipment
	default:
		return false
	}
}

// BodyShape returns the body shape, Empty() for a header-only message.
func (s *Schema) BodyShape() Shape {
	if s.Body == nil {
		return Empty()
	}

	return s.Body
}

func (s *Schema) String() string {
	var dirs []string
	if s.ToEquipment {
		dirs = append(dirs, ToEquipment.String())
	}
	if s.ToHost {
		dirs = append(dirs, ToHost.String())
	}

	w := ""
	switch {
	case s.IsPrimary() && s.ReplyRequired:
		w = " W"
	case s.IsPrimary() && s.HasReply:
		w = " [W]"
	}

	return fmt.Sprintf("%s%s %s (%s) %s", s.Key(), w, s.Name, strings.Join(dirs, ","), s.BodyShape())
}
