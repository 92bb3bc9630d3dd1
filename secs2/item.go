package secs2

import (
	"errors"
	"fmt"
)

// Item represents an immutable data item in a SECS-II message.
//
// Items can hold various data types (e.g., binary, boolean, ASCII, integers, floats) and can
// be nested to form complex structures.
//
// There's a limit on the total size of data an Item can contain, as defined by the SEMI standard:
//
//	n * b <= 16,777,215 (3 bytes)
//	- n: number of data values within the Item
//	- b: byte size to represent each individual data value (varies by Item type)
type Item interface {
	// Kind returns the wire kind of the item.
	Kind() Kind

	// Get retrieves a nested Item at the specified indices.
	// An error is returned if the item doesn't represent a list or if the indices are invalid.
	Get(indices ...int) (Item, error)

	// ToList retrieves a list of items stored within the item.
	// Only available for ListItem.
	ToList() ([]Item, error)

	// ToBinary retrieves binary data as a byte slice data stored within the item.
	// Only available for BinaryItem.
	ToBinary() ([]byte, error)

	// ToBoolean retrieves a list of boolean data stored within the item.
	// Only available for BooleanItem.
	ToBoolean() ([]bool, error)

	// ToASCII retrieves a nested ASCII string data stored within the item.
	// Only available for ASCIIItem.
	ToASCII() (string, error)

	// ToInt retrieves a list of signed 64-bit integer data stored within the item.
	// Only available for IntItem.
	ToInt() ([]int64, error)

	// ToUint retrieves a list of unsigned 64-bit integer data stored within the item.
	// Only available for UintItem.
	ToUint() ([]uint64, error)

	// ToFloat retrieves a list of 64-bit float data stored within the item.
	// Only available for FloatItem
	ToFloat() ([]float64, error)

	// Values returns the value(s) held by the Item.
	// The actual type depends on the item kind, e.g. []uint64 for UintItem, string for ASCIIItem.
	Values() any

	// Size returns the number of elements of the item. For a list it is the number of
	// direct children, for ASCII the number of characters.
	Size() int

	// ToBytes serializes the Item into its byte representation for SECS-II message transmission.
	// An item carrying an error serializes to an empty slice.
	ToBytes() []byte

	// ToSML converts the Item into its SML (SECS Message Language) representation.
	ToSML() string

	// Clone creates a deep copy of the Item.
	Clone() Item

	// Equal reports whether other has the same kind and values, recursively for lists.
	Equal(other Item) bool

	// Error returns any error that occurred during the creation of the Item.
	Error() error

	IsEmpty() bool
	IsList() bool
}

// A ItemError records a failed item creation.
type ItemError struct {
	err error
}

func newItemErrorWithMsg(errMsg string) *ItemError {
	return &ItemError{err: errors.New(errMsg)}
}

func (e *ItemError) Error() string {
	return e.err.Error()
}

func (e *ItemError) Unwrap() error {
	return e.err
}

// EmptyItem represents an absent message body: a header-only SECS-II message.
type EmptyItem struct {
	baseItem
}

// NewEmptyItem creates a new empty item.
func NewEmptyItem() Item {
	return &EmptyItem{}
}

func (item *EmptyItem) Kind() Kind { return InvalidKind }

func (item *EmptyItem) Get(indices ...int) (Item, error) {
	if len(indices) != 0 {
		return nil, notListError(item, indices)
	}

	return item, nil
}

func (item *EmptyItem) Size() int       { return 0 }
func (item *EmptyItem) Values() any     { return nil }
func (item *EmptyItem) ToBytes() []byte { return []byte{} }
func (item *EmptyItem) ToSML() string   { return "" }
func (item *EmptyItem) Clone() Item     { return &EmptyItem{} }
func (item *EmptyItem) IsEmpty() bool   { return true }

func (item *EmptyItem) Equal(other Item) bool {
	return other != nil && other.IsEmpty()
}

// baseItem provides the kind-specific accessor defaults and error bookkeeping
// shared by all concrete items.
type baseItem struct {
	itemErr error
}

func (item *baseItem) ToList() ([]Item, error) {
	return nil, newItemErrorWithMsg("item is not a list")
}

func (item *baseItem) ToBinary() ([]byte, error) {
	return nil, newItemErrorWithMsg("item is not a binary item")
}

func (item *baseItem) ToBoolean() ([]bool, error) {
	return nil, newItemErrorWithMsg("item is not a boolean item")
}

func (item *baseItem) ToASCII() (string, error) {
	return "", newItemErrorWithMsg("item is not an ASCII item")
}

func (item *baseItem) ToInt() ([]int64, error) {
	return nil, newItemErrorWithMsg("item is not a signed integer item")
}

func (item *baseItem) ToUint() ([]uint64, error) {
	return nil, newItemErrorWithMsg("item is not an unsigned integer item")
}

func (item *baseItem) ToFloat() ([]float64, error) {
	return nil, newItemErrorWithMsg("item is not a float item")
}

func (item *baseItem) Error() error {
	return item.itemErr
}

func (item *baseItem) IsEmpty() bool { return false }
func (item *baseItem) IsList() bool  { return false }

func (item *baseItem) setError(err error) {
	item.itemErr = errors.Join(item.itemErr, &ItemError{err: err})
}

func (item *baseItem) setErrorMsg(errMsg string) {
	item.itemErr = errors.Join(item.itemErr, newItemErrorWithMsg(errMsg))
}

func notListError(item Item, indices []int) error {
	return &ItemError{err: fmt.Errorf("item is not a list, item is %s, indices is %v", item.Kind(), indices)}
}

// Encode serializes item, returning the creation error of the item (or of any nested item) instead
// of bytes when there is one.
func Encode(item Item) ([]byte, error) {
	if item == nil {
		return []byte{}, nil
	}

	if err := item.Error(); err != nil {
		return nil, err
	}

	return item.ToBytes(), nil
}

// appendHeader appends the format byte and the length bytes of an item of the given kind
// whose payload is length bytes long (element count for lists).
//
// The narrowest number of length bytes is used.
func appendHeader(dst []byte, kind Kind, length int) []byte {
	lenByteCount := 1
	switch {
	case length > 0xffff:
		lenByteCount = 3
	case length > 0xff:
		lenByteCount = 2
	}

	dst = append(dst, kind.FormatCode()<<2|byte(lenByteCount))
	for i := lenByteCount - 1; i >= 0; i-- {
		dst = append(dst, byte(length>>(8*i)))
	}

	return dst
}

// headerSize returns the number of header bytes appendHeader produces.
func headerSize(length int) int {
	switch {
	case length > 0xffff:
		return 4
	case length > 0xff:
		return 3
	default:
		return 2
	}
}
