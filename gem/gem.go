package gem

import "github.com/arloliu/go-secsgem/secs2"

// Message represents a message conforming to the SEMI E30 standard, also known as the GEM
// (Generic Equipment Model) standard. It implements the secs2.SECS2Message interface.
type Message struct {
	item secs2.Item
	s    uint8
	f    uint8
	w    bool
}

// ensure Message implements secs2.SECS2Message interface.
var _ secs2.SECS2Message = &Message{}

// NewMessage creates a new Message with the specified stream code (s), function code (f),
// wait bit (w), and SECS-II data item (item). A nil item is a header-only message.
func NewMessage(s uint8, f uint8, w bool, item secs2.Item) *Message {
	if item == nil {
		item = secs2.NewEmptyItem()
	}

	return &Message{s: s & 0x7F, f: f, w: w, item: item}
}

// StreamCode returns the stream code for the SECS-II message.
func (msg *Message) StreamCode() uint8 { return msg.s }

// FunctionCode returns the function code for the SECS-II message.
func (msg *Message) FunctionCode() uint8 { return msg.f }

// WaitBit returns the W-bit of the SECS-II message.
func (msg *Message) WaitBit() bool { return msg.w }

// Item returns the SECS-II data item.
func (msg *Message) Item() secs2.Item { return msg.item }
