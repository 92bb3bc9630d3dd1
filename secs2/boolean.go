package secs2

import (
	"fmt"
	"slices"
	"strings"
)

// BooleanItem represents a list of boolean values in a SECS-II message.
// Each value is encoded as one byte, 0x00 for false and 0x01 for true.
type BooleanItem struct {
	baseItem
	values []bool
}

// NewBooleanItem creates a new BooleanItem.
//
// Values can be bools, bool slices, numbers (non-zero is true) or strings accepted by
// strconv.ParseBool.
func NewBooleanItem(values ...any) Item {
	item := &BooleanItem{}

	var err error
	item.values, err = combineBoolValues(values...)
	if err != nil {
		item.setError(err)
		return item
	}

	if len(item.values) > MaxByteSize {
		item.setErrorMsg("item size limit exceeded")
	}

	return item
}

func (item *BooleanItem) Kind() Kind { return BooleanKind }

func (item *BooleanItem) Get(indices ...int) (Item, error) {
	if len(indices) != 0 {
		return nil, notListError(item, indices)
	}

	return item, nil
}

func (item *BooleanItem) ToBoolean() ([]bool, error) {
	return item.values, nil
}

func (item *BooleanItem) Size() int   { return len(item.values) }
func (item *BooleanItem) Values() any { return item.values }

func (item *BooleanItem) ToBytes() []byte {
	if item.itemErr != nil {
		return []byte{}
	}

	result := appendHeader(make([]byte, 0, headerSize(len(item.values))+len(item.values)), BooleanKind, len(item.values))
	for _, v := range item.values {
		if v {
			result = append(result, 1)
		} else {
			result = append(result, 0)
		}
	}

	return result
}

// ToSML renders the item as <BOOLEAN[n] T F>.
func (item *BooleanItem) ToSML() string {
	if len(item.values) == 0 {
		return "<BOOLEAN[0]>"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "<BOOLEAN[%d]", len(item.values))
	for _, v := range item.values {
		if v {
			sb.WriteString(" T")
		} else {
			sb.WriteString(" F")
		}
	}
	sb.WriteByte('>')

	return sb.String()
}

func (item *BooleanItem) Clone() Item {
	return &BooleanItem{baseItem: item.baseItem, values: slices.Clone(item.values)}
}

func (item *BooleanItem) Equal(other Item) bool {
	o, ok := other.(*BooleanItem)
	return ok && slices.Equal(o.values, item.values)
}
