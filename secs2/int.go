package secs2

import (
	"encoding/binary"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// IntItem represents a list of signed integers (I1, I2, I4 or I8) in a SECS-II message.
type IntItem struct {
	baseItem
	byteSize int
	values   []int64
}

// NewIntItem creates a new IntItem whose elements are byteSize (1, 2, 4 or 8) bytes wide.
//
// Values can be any integer or float without fractional part, slices of them, or numeric
// strings (decimal, or 0x/0o/0b prefixed). A value outside the range of the element width is
// an error set on the item.
func NewIntItem(byteSize int, values ...any) Item {
	item := &IntItem{byteSize: byteSize}

	if intKindOfSize(byteSize) == InvalidKind {
		item.setErrorMsg("invalid byte size")
		return item
	}

	var err error
	item.values, err = combineIntValues(byteSize, values...)
	if err != nil {
		item.setError(err)
		return item
	}

	if len(item.values)*byteSize > MaxByteSize {
		item.setErrorMsg("item size limit exceeded")
	}

	return item
}

func (item *IntItem) Kind() Kind { return intKindOfSize(item.byteSize) }

func (item *IntItem) Get(indices ...int) (Item, error) {
	if len(indices) != 0 {
		return nil, notListError(item, indices)
	}

	return item, nil
}

func (item *IntItem) ToInt() ([]int64, error) {
	return item.values, nil
}

func (item *IntItem) Size() int   { return len(item.values) }
func (item *IntItem) Values() any { return item.values }

func (item *IntItem) ToBytes() []byte {
	if item.itemErr != nil {
		return []byte{}
	}

	dataLen := len(item.values) * item.byteSize
	result := appendHeader(make([]byte, 0, headerSize(dataLen)+dataLen), item.Kind(), dataLen)

	switch item.byteSize {
	case 1:
		for _, v := range item.values {
			result = append(result, byte(v))
		}
	case 2:
		for _, v := range item.values {
			result = binary.BigEndian.AppendUint16(result, uint16(v)) //nolint:gosec
		}
	case 4:
		for _, v := range item.values {
			result = binary.BigEndian.AppendUint32(result, uint32(v)) //nolint:gosec
		}
	case 8:
		for _, v := range item.values {
			result = binary.BigEndian.AppendUint64(result, uint64(v)) //nolint:gosec
		}
	}

	return result
}

// ToSML renders the item as <I4[n] 1 -2 3>.
func (item *IntItem) ToSML() string {
	if len(item.values) == 0 {
		return fmt.Sprintf("<I%d[0]>", item.byteSize)
	}

	var sb strings.Builder
	sb.Grow(len(item.values)*8 + 10)
	fmt.Fprintf(&sb, "<I%d[%d]", item.byteSize, len(item.values))

	var buf [20]byte
	for _, v := range item.values {
		sb.WriteByte(' ')
		sb.Write(strconv.AppendInt(buf[:0], v, 10))
	}
	sb.WriteByte('>')

	return sb.String()
}

func (item *IntItem) Clone() Item {
	return &IntItem{baseItem: item.baseItem, byteSize: item.byteSize, values: slices.Clone(item.values)}
}

func (item *IntItem) Equal(other Item) bool {
	o, ok := other.(*IntItem)
	return ok && o.byteSize == item.byteSize && slices.Equal(o.values, item.values)
}
