package secs2

import (
	"encoding/binary"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// UintItem represents a list of unsigned integers (U1, U2, U4 or U8) in a SECS-II message.
type UintItem struct {
	baseItem
	byteSize int
	values   []uint64
}

// NewUintItem creates a new UintItem whose elements are byteSize (1, 2, 4 or 8) bytes wide.
//
// Values can be any non-negative integer or float without fractional part, slices of them, or
// numeric strings (decimal, or 0x/0o/0b prefixed). Negative values and values that overflow the
// element width are errors set on the item.
func NewUintItem(byteSize int, values ...any) Item {
	item := &UintItem{byteSize: byteSize}

	if uintKindOfSize(byteSize) == InvalidKind {
		item.setErrorMsg("invalid byte size")
		return item
	}

	var err error
	item.values, err = combineUintValues(byteSize, values...)
	if err != nil {
		item.setError(err)
		return item
	}

	if len(item.values)*byteSize > MaxByteSize {
		item.setErrorMsg("item size limit exceeded")
	}

	return item
}

func (item *UintItem) Kind() Kind { return uintKindOfSize(item.byteSize) }

func (item *UintItem) Get(indices ...int) (Item, error) {
	if len(indices) != 0 {
		return nil, notListError(item, indices)
	}

	return item, nil
}

func (item *UintItem) ToUint() ([]uint64, error) {
	return item.values, nil
}

func (item *UintItem) Size() int   { return len(item.values) }
func (item *UintItem) Values() any { return item.values }

func (item *UintItem) ToBytes() []byte {
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
			result = binary.BigEndian.AppendUint64(result, v)
		}
	}

	return result
}

// ToSML renders the item as <U4[n] 1 2 3>.
func (item *UintItem) ToSML() string {
	if len(item.values) == 0 {
		return fmt.Sprintf("<U%d[0]>", item.byteSize)
	}

	var sb strings.Builder
	sb.Grow(len(item.values)*10 + 10)
	fmt.Fprintf(&sb, "<U%d[%d]", item.byteSize, len(item.values))

	var buf [20]byte
	for _, v := range item.values {
		sb.WriteByte(' ')
		sb.Write(strconv.AppendUint(buf[:0], v, 10))
	}
	sb.WriteByte('>')

	return sb.String()
}

func (item *UintItem) Clone() Item {
	return &UintItem{baseItem: item.baseItem, byteSize: item.byteSize, values: slices.Clone(item.values)}
}

func (item *UintItem) Equal(other Item) bool {
	o, ok := other.(*UintItem)
	return ok && o.byteSize == item.byteSize && slices.Equal(o.values, item.values)
}
