package secs2

import (
	"bytes"
	"fmt"
	"strings"
)

// BinaryItem represents a sequence of bytes in a SECS-II message.
type BinaryItem struct {
	baseItem
	values []byte
}

// NewBinaryItem creates a new BinaryItem.
//
// Each value can be a byte slice, which is appended as a whole, or any integer (or numeric string)
// in the range 0..255.
func NewBinaryItem(values ...any) Item {
	item := &BinaryItem{values: make([]byte, 0, len(values))}

	for _, value := range values {
		if data, ok := value.([]byte); ok {
			item.values = append(item.values, data...)
			continue
		}

		nums, err := combineUintValues(1, value)
		if err != nil {
			item.setError(err)
			return item
		}
		for _, n := range nums {
			item.values = append(item.values, byte(n))
		}
	}

	if len(item.values) > MaxByteSize {
		item.setErrorMsg("item size limit exceeded")
	}

	return item
}

func (item *BinaryItem) Kind() Kind { return BinaryKind }

func (item *BinaryItem) Get(indices ...int) (Item, error) {
	if len(indices) != 0 {
		return nil, notListError(item, indices)
	}

	return item, nil
}

// ToBinary returns the bytes of the item. The returned slice must not be modified.
func (item *BinaryItem) ToBinary() ([]byte, error) {
	return item.values, nil
}

func (item *BinaryItem) Size() int   { return len(item.values) }
func (item *BinaryItem) Values() any { return item.values }

func (item *BinaryItem) ToBytes() []byte {
	if item.itemErr != nil {
		return []byte{}
	}

	result := appendHeader(make([]byte, 0, headerSize(len(item.values))+len(item.values)), BinaryKind, len(item.values))

	return append(result, item.values...)
}

// ToSML renders the item as <B[n] 0x01 0xFF>.
func (item *BinaryItem) ToSML() string {
	if len(item.values) == 0 {
		return "<B[0]>"
	}

	var sb strings.Builder
	sb.Grow(len(item.values)*5 + 10)
	fmt.Fprintf(&sb, "<B[%d]", len(item.values))
	for _, v := range item.values {
		fmt.Fprintf(&sb, " 0x%02X", v)
	}
	sb.WriteByte('>')

	return sb.String()
}

func (item *BinaryItem) Clone() Item {
	return &BinaryItem{baseItem: item.baseItem, values: bytes.Clone(item.values)}
}

func (item *BinaryItem) Equal(other Item) bool {
	o, ok := other.(*BinaryItem)
	return ok && bytes.Equal(o.values, item.values)
}
