package secs2

import (
	"encoding/binary"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// FloatItem represents a list of IEEE 754 floating point numbers (F4 or F8) in a SECS-II message.
type FloatItem struct {
	baseItem
	byteSize int
	values   []float64
}

// NewFloatItem creates a new FloatItem whose elements are byteSize (4 or 8) bytes wide.
//
// Values can be any number, slices of numbers, or numeric strings.
func NewFloatItem(byteSize int, values ...any) Item {
	item := &FloatItem{byteSize: byteSize}

	if floatKindOfSize(byteSize) == InvalidKind {
		item.setErrorMsg("invalid byte size")
		return item
	}

	var err error
	item.values, err = combineFloatValues(byteSize, values...)
	if err != nil {
		item.setError(err)
		return item
	}

	if len(item.values)*byteSize > MaxByteSize {
		item.setErrorMsg("item size limit exceeded")
	}

	return item
}

func (item *FloatItem) Kind() Kind { return floatKindOfSize(item.byteSize) }

func (item *FloatItem) Get(indices ...int) (Item, error) {
	if len(indices) != 0 {
		return nil, notListError(item, indices)
	}

	return item, nil
}

func (item *FloatItem) ToFloat() ([]float64, error) {
	return item.values, nil
}

func (item *FloatItem) Size() int   { return len(item.values) }
func (item *FloatItem) Values() any { return item.values }

func (item *FloatItem) ToBytes() []byte {
	if item.itemErr != nil {
		return []byte{}
	}

	dataLen := len(item.values) * item.byteSize
	result := appendHeader(make([]byte, 0, headerSize(dataLen)+dataLen), item.Kind(), dataLen)

	if item.byteSize == 4 {
		for _, v := range item.values {
			result = binary.BigEndian.AppendUint32(result, math.Float32bits(float32(v)))
		}
	} else {
		for _, v := range item.values {
			result = binary.BigEndian.AppendUint64(result, math.Float64bits(v))
		}
	}

	return result
}

// ToSML renders the item as <F8[n] 1.5 -2>.
func (item *FloatItem) ToSML() string {
	if len(item.values) == 0 {
		return fmt.Sprintf("<F%d[0]>", item.byteSize)
	}

	bitSize := item.byteSize * 8

	var sb strings.Builder
	fmt.Fprintf(&sb, "<F%d[%d]", item.byteSize, len(item.values))
	for _, v := range item.values {
		sb.WriteByte(' ')
		sb.WriteString(strconv.FormatFloat(v, 'g', -1, bitSize))
	}
	sb.WriteByte('>')

	return sb.String()
}

func (item *FloatItem) Clone() Item {
	return &FloatItem{baseItem: item.baseItem, byteSize: item.byteSize, values: slices.Clone(item.values)}
}

// Equal compares values bitwise, so NaN payloads compare equal to themselves.
func (item *FloatItem) Equal(other Item) bool {
	o, ok := other.(*FloatItem)
	if !ok || o.byteSize != item.byteSize || len(o.values) != len(item.values) {
		return false
	}

	for i, v := range item.values {
		if math.Float64bits(v) != math.Float64bits(o.values[i]) {
			return false
		}
	}

	return true
}
