package schema

import (
	"github.com/arloliu/go-secsgem/hsms"
	"github.com/arloliu/go-secsgem/secs2"
)

// Message is a data message whose body has been checked against its schema.
//
// The embedded DataMessage carries the header fields and the body item; Message adds the
// schema the body was validated against. A Message is only produced by a Dispatcher, so the
// body of a Message is never partially decoded or of a kind its schema forbids.
type Message struct {
	*hsms.DataMessage
	schema *Schema
}

// Schema returns the schema the message was validated against.
func (m *Message) Schema() *Schema {
	return m.schema
}

// Key returns the stream/function key of the message.
func (m *Message) Key() Key {
	return Key{Stream: m.StreamCode(), Function: m.FunctionCode()}
}

// Body returns the body item, an empty item for a header-only message.
func (m *Message) Body() secs2.Item {
	return m.Item()
}

// Field returns the body element at the given list indices, e.g. Field(2, 0) is the first
// element of the third root element. Field() returns the body itself.
func (m *Message) Field(indices ...int) (secs2.Item, error) {
	return m.Item().Get(indices...)
}

// String returns the SML rendering of the message prefixed by the schema name.
func (m *Message) String() string {
	return m.ToSML()
}

func newMessage(dm *hsms.DataMessage, s *Schema) *Message {
	if dm.Name() == "" {
		dm.SetName(s.Name)
	}

	return &Message{DataMessage: dm, schema: s}
}
