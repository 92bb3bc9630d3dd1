package secs2

import (
	"errors"
	"math"
	"slices"
)

var errNoAllowedKinds = errors.New("dynamic item has no allowed kinds")

// DynamicItem is a value whose wire kind is chosen at runtime from a closed set of allowed kinds.
//
// Encoding uses either the kind set explicitly with SetAs, or the narrowest allowed kind able
// to hold the values given to Set. Decoding accepts an item only when its kind is a member of
// the allowed set.
type DynamicItem struct {
	allowed []Kind
	item    Item
	err     error
}

// NewDynamicItem creates a DynamicItem restricted to allowed, in order of preference for ties.
func NewDynamicItem(allowed ...Kind) *DynamicItem {
	d := &DynamicItem{allowed: slices.Clone(allowed)}
	if len(allowed) == 0 {
		d.err = errNoAllowedKinds
	}

	return d
}

// Allowed returns the allowed kinds.
func (d *DynamicItem) Allowed() []Kind {
	return d.allowed
}

// Set resolves values to the narrowest allowed kind that can represent all of them.
//
//   - an Item is taken as-is and must be of an allowed kind
//   - bools resolve to BOOLEAN
//   - a string resolves to A, or to B when A is not allowed
//   - a []byte resolves to B, or to A when B is not allowed
//   - integers resolve to the smallest allowed U* width when all values are non-negative,
//     otherwise to the smallest allowed I* width; F* is used as a last resort
//   - floats resolve to F4 when the values survive float32 rounding, otherwise F8;
//     floats without fractional part may fall back to integer kinds
func (d *DynamicItem) Set(values ...any) error {
	if d.err != nil && errors.Is(d.err, errNoAllowedKinds) {
		return d.err
	}

	if len(values) == 1 {
		if item, ok := values[0].(Item); ok {
			return d.Resolve(item)
		}
	}

	kind, err := d.narrowest(values)
	if err != nil {
		d.item, d.err = nil, err
		return err
	}

	return d.SetAs(kind, values...)
}

// SetAs builds the value with an explicit kind, which must be a member of the allowed set.
func (d *DynamicItem) SetAs(kind Kind, values ...any) error {
	if !ContainsKind(d.allowed, kind) {
		d.item, d.err = nil, &DisallowedTypeError{Kind: kind, Allowed: d.allowed}
		return d.err
	}

	item := NewItemOfKind(kind, values...)
	d.item, d.err = item, item.Error()

	return d.err
}

// Resolve sets an already built item, which must be of an allowed kind.
func (d *DynamicItem) Resolve(item Item) error {
	if err := d.Accept(item); err != nil {
		d.item, d.err = nil, err
		return err
	}

	d.item, d.err = item, item.Error()

	return d.err
}

// Accept checks that a decoded item is of an allowed kind without storing it.
func (d *DynamicItem) Accept(item Item) error {
	if item == nil || !ContainsKind(d.allowed, item.Kind()) {
		kind := InvalidKind
		if item != nil {
			kind = item.Kind()
		}

		return &DisallowedTypeError{Kind: kind, Allowed: d.allowed}
	}

	return nil
}

// Item returns the resolved item, or the error of the last Set, SetAs or Resolve.
func (d *DynamicItem) Item() (Item, error) {
	if d.err != nil {
		return nil, d.err
	}

	if d.item == nil {
		return nil, errors.New("dynamic item has no value")
	}

	return d.item, nil
}

// Kind returns the resolved kind, InvalidKind before a successful Set.
func (d *DynamicItem) Kind() Kind {
	if d.item == nil {
		return InvalidKind
	}

	return d.item.Kind()
}

func (d *DynamicItem) narrowest(values []any) (Kind, error) { //nolint:cyclop
	flat := flattenValues(values)
	if len(flat) == 0 {
		return d.allowed[0], nil
	}

	allItems := true
	for _, v := range flat {
		if _, ok := v.(Item); !ok {
			allItems = false
			break
		}
	}
	if allItems {
		return d.first(ListKind)
	}

	if len(values) == 1 {
		switch values[0].(type) {
		case string:
			return d.first(ASCIIKind, BinaryKind)
		case []byte:
			return d.first(BinaryKind, ASCIIKind)
		}
	}

	var (
		allBool, allInt, allFloat = true, true, true
		minVal, maxVal            = int64(0), uint64(0)
		negative, needF8          = false, false
	)

	for _, v := range flat {
		switch n := v.(type) {
		case bool:
			allInt, allFloat = false, false
			continue
		case float32, float64:
			allBool = false
			f, _ := toFloat(n)
			if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
				allInt = false
			}
			if float64(float32(f)) != f && !math.IsNaN(f) {
				needF8 = true
			}
			if allInt {
				trackRange(int64(f), &minVal, &maxVal, &negative)
			}
			continue
		}

		allBool = false
		if u, err := toUint64(v); err == nil {
			if u > maxVal {
				maxVal = u
			}
			if float64(u) > 1<<24 {
				needF8 = true
			}
			continue
		}
		i, err := toInt64(v)
		if err != nil {
			allInt, allFloat = false, false
			break
		}
		trackRange(i, &minVal, &maxVal, &negative)
		if i < -(1 << 24) {
			needF8 = true
		}
	}

	switch {
	case allBool:
		return d.first(BooleanKind)

	case allInt:
		if k, ok := d.smallestInteger(minVal, maxVal, negative); ok {
			return k, nil
		}
		fallthrough

	case allFloat:
		if !needF8 && ContainsKind(d.allowed, Float32Kind) {
			return Float32Kind, nil
		}
		if ContainsKind(d.allowed, Float64Kind) {
			return Float64Kind, nil
		}
	}

	// small codes such as ACKC5 are commonly given as integers but sent as binary
	if allInt && !negative && maxVal <= math.MaxUint8 && ContainsKind(d.allowed, BinaryKind) {
		return BinaryKind, nil
	}

	return InvalidKind, &DisallowedTypeError{Kind: InvalidKind, Allowed: d.allowed}
}

func (d *DynamicItem) smallestInteger(minVal int64, maxVal uint64, negative bool) (Kind, bool) {
	if !negative {
		for _, k := range UintKinds {
			if ContainsKind(d.allowed, k) && maxVal <= maxUint(k.ByteSize()) {
				return k, true
			}
		}
	}

	for _, k := range IntKinds {
		size := k.ByteSize()
		if ContainsKind(d.allowed, k) && minVal >= minInt(size) && maxVal <= uint64(maxInt(size)) {
			return k, true
		}
	}

	return InvalidKind, false
}

func (d *DynamicItem) first(kinds ...Kind) (Kind, error) {
	for _, k := range kinds {
		if ContainsKind(d.allowed, k) {
			return k, nil
		}
	}

	return InvalidKind, &DisallowedTypeError{Kind: kinds[0], Allowed: d.allowed}
}

// NewItemOfKind creates an item of the given kind from values. List items take Item values.
func NewItemOfKind(kind Kind, values ...any) Item {
	switch {
	case kind == ListKind:
		items := make([]Item, 0, len(values))
		for _, v := range values {
			item, ok := v.(Item)
			if !ok {
				l := &ListItem{}
				l.setErrorMsg("list values must be items")
				return l
			}
			items = append(items, item)
		}
		return NewListItem(items...)

	case kind == ASCIIKind:
		var s string
		for _, v := range values {
			switch v := v.(type) {
			case string:
				s += v
			case []byte:
				s += string(v)
			default:
				a := &ASCIIItem{}
				a.setErrorMsg("ASCII values must be strings")
				return a
			}
		}
		return NewASCIIItem(s)

	case kind == BinaryKind:
		if len(values) == 1 {
			if s, ok := values[0].(string); ok {
				return NewBinaryItem([]byte(s))
			}
		}
		return NewBinaryItem(values...)

	case kind == BooleanKind:
		return NewBooleanItem(values...)

	case kind.IsInt():
		return NewIntItem(kind.ByteSize(), values...)

	case kind.IsUint():
		return NewUintItem(kind.ByteSize(), values...)

	case kind.IsFloat():
		return NewFloatItem(kind.ByteSize(), values...)
	}

	e := &EmptyItem{}
	e.setErrorMsg("invalid item kind")

	return e
}

func trackRange(v int64, minVal *int64, maxVal *uint64, negative *bool) {
	if v < 0 {
		*negative = true
		if v < *minVal {
			*minVal = v
		}
		return
	}

	if uint64(v) > *maxVal {
		*maxVal = uint64(v)
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}

	return 0, false
}

func maxUint(byteSize int) uint64 {
	if byteSize == 8 {
		return math.MaxUint64
	}

	return 1<<(byteSize*8) - 1
}

func minInt(byteSize int) int64 {
	return int64(-1) << (byteSize*8 - 1)
}

func maxInt(byteSize int) int64 {
	return int64(uint64(1)<<(byteSize*8-1) - 1)
}
