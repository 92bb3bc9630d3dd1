package secs2

import (
	"fmt"
	"strings"
)

// ASCIIItem represents an ASCII string in a SECS-II message.
//
// The size of an ASCIIItem is the length of the string, so an ASCIIItem holds exactly one
// string value.
type ASCIIItem struct {
	baseItem
	value string
}

// NewASCIIItem creates a new ASCIIItem containing the given string.
//
// If the string is longer than MaxByteSize or contains characters outside the 7-bit ASCII
// range, an error is set on the item.
func NewASCIIItem(value string) Item {
	item := &ASCIIItem{value: value}

	if len(value) > MaxByteSize {
		item.setErrorMsg("item size limit exceeded")
		return item
	}

	for i := range len(value) {
		if value[i] > 0x7f {
			item.setError(fmt.Errorf("non-ASCII character 0x%02x at position %d", value[i], i))
			return item
		}
	}

	return item
}

// newRawASCIIItem wraps bytes received from the wire. Decoding does not reject 8-bit
// characters, which some equipment sends in free text.
func newRawASCIIItem(data []byte) *ASCIIItem {
	return &ASCIIItem{value: string(data)}
}

func (item *ASCIIItem) Kind() Kind { return ASCIIKind }

func (item *ASCIIItem) Get(indices ...int) (Item, error) {
	if len(indices) != 0 {
		return nil, notListError(item, indices)
	}

	return item, nil
}

// ToASCII retrieves the string stored within the item.
func (item *ASCIIItem) ToASCII() (string, error) {
	return item.value, nil
}

func (item *ASCIIItem) Size() int   { return len(item.value) }
func (item *ASCIIItem) Values() any { return item.value }

func (item *ASCIIItem) ToBytes() []byte {
	if item.itemErr != nil {
		return []byte{}
	}

	result := appendHeader(make([]byte, 0, headerSize(len(item.value))+len(item.value)), ASCIIKind, len(item.value))

	return append(result, item.value...)
}

// ToSML renders the item as <A[n] "text">. Characters that cannot appear inside a quoted
// SML string are written as separate hexadecimal tokens, e.g. <A[3] "ab" 0x0A>.
func (item *ASCIIItem) ToSML() string {
	if len(item.value) == 0 {
		return "<A[0]>"
	}

	var sb strings.Builder
	sb.Grow(len(item.value) + 12)
	fmt.Fprintf(&sb, "<A[%d]", len(item.value))

	inQuote := false
	for i := range len(item.value) {
		ch := item.value[i]
		if ch >= 0x20 && ch < 0x7f && ch != '"' {
			if !inQuote {
				sb.WriteString(` "`)
				inQuote = true
			}
			sb.WriteByte(ch)
			continue
		}

		if inQuote {
			sb.WriteByte('"')
			inQuote = false
		}
		fmt.Fprintf(&sb, " 0x%02X", ch)
	}

	if inQuote {
		sb.WriteByte('"')
	}
	sb.WriteByte('>')

	return sb.String()
}

func (item *ASCIIItem) Clone() Item {
	return &ASCIIItem{baseItem: item.baseItem, value: item.value}
}

func (item *ASCIIItem) Equal(other Item) bool {
	o, ok := other.(*ASCIIItem)
	return ok && o.value == item.value
}
