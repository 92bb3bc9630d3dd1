package secs2

import (
	"errors"
	"fmt"
	"strings"
)

// ListItem represents an ordered list of items in a SECS-II message.
//
// The size of a ListItem is the number of items it contains, counted non-recursively,
// and it is what the length bytes of a list carry on the wire.
type ListItem struct {
	baseItem
	values []Item
}

// NewListItem creates a new ListItem holding values in order. Nil values are skipped.
func NewListItem(values ...Item) Item {
	item := &ListItem{values: make([]Item, 0, len(values))}

	if len(values) > MaxByteSize {
		item.setErrorMsg("item size limit exceeded")
		return item
	}

	for _, value := range values {
		if value == nil {
			continue
		}
		item.values = append(item.values, value)
	}

	return item
}

func (item *ListItem) Kind() Kind { return ListKind }

// Get retrieves the nested item addressed by indices, the list itself when no index is given.
func (item *ListItem) Get(indices ...int) (Item, error) {
	var dataItem Item = item
	for depth, idx := range indices {
		listItem, ok := dataItem.(*ListItem)
		if !ok {
			return nil, &ItemError{err: fmt.Errorf("item at depth %d is not a list", depth)}
		}

		if idx < 0 || idx >= listItem.Size() {
			return nil, &ItemError{err: fmt.Errorf("index %d out of range at depth %d, size is %d", idx, depth, listItem.Size())}
		}
		dataItem = listItem.values[idx]
	}

	return dataItem, nil
}

// ToList returns the items of the list. The returned slice must not be modified.
func (item *ListItem) ToList() ([]Item, error) {
	return item.values, nil
}

func (item *ListItem) Size() int   { return len(item.values) }
func (item *ListItem) Values() any { return item.values }

// ToBytes serializes the list header followed by each child item.
func (item *ListItem) ToBytes() []byte {
	if item.Error() != nil {
		return []byte{}
	}

	result := appendHeader(make([]byte, 0, 4), ListKind, len(item.values))
	for _, value := range item.values {
		result = append(result, value.ToBytes()...)
	}

	return result
}

// ToSML converts the ListItem into its indented SML representation.
func (item *ListItem) ToSML() string {
	return item.formatSML(0)
}

// Clone creates a deep copy of the list and all its children.
func (item *ListItem) Clone() Item {
	values := make([]Item, 0, len(item.values))
	for _, v := range item.values {
		values = append(values, v.Clone())
	}

	return &ListItem{baseItem: item.baseItem, values: values}
}

func (item *ListItem) Equal(other Item) bool {
	o, ok := other.(*ListItem)
	if !ok || len(o.values) != len(item.values) {
		return false
	}

	for i, v := range item.values {
		if !v.Equal(o.values[i]) {
			return false
		}
	}

	return true
}

// Error returns the error of the list joined with the errors of its children.
func (item *ListItem) Error() error {
	errs := item.itemErr
	for _, v := range item.values {
		if err := v.Error(); err != nil {
			errs = errors.Join(errs, err)
		}
	}

	return errs
}

func (item *ListItem) IsList() bool { return true }

// formatSML returns the indented string representation of this list node.
// Each indent level adds 2 spaces as prefix to each line.
func (item *ListItem) formatSML(level int) string {
	indentStr := strings.Repeat("  ", level)
	if item.Size() == 0 {
		return indentStr + "<L[0]>"
	}

	var sb strings.Builder
	sb.Grow(len(item.values) * 20)

	fmt.Fprintf(&sb, "%s<L[%d]\n", indentStr, item.Size())
	for _, value := range item.values {
		if v, ok := value.(*ListItem); ok {
			sb.WriteString(v.formatSML(level + 1))
		} else {
			sb.WriteString(indentStr)
			sb.WriteString("  ")
			sb.WriteString(value.ToSML())
		}
		sb.WriteByte('\n')
	}
	sb.WriteString(indentStr)
	sb.WriteByte('>')

	return sb.String()
}
