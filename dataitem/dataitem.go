package dataitem

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cast"

	"github.com/arloliu/go-secsgem/secs2"
)

var (
	// ErrTypeNotAllowed is returned when a value's kind is not one of the data item's allowed kinds.
	ErrTypeNotAllowed = errors.New("type not allowed")
	// ErrCountMismatch is returned when a value's element count violates the data item's count constraint.
	ErrCountMismatch = errors.New("count mismatch")
	// ErrInvalidValue is returned when a value cannot be built, e.g. a number out of range.
	ErrInvalidValue = errors.New("invalid value")
)

// DataItem is a named SECS-II data item definition, such as ALID or MDLN, restricting the kinds
// and element count a value may have.
//
// A DataItem is immutable and may be shared by any number of schemas.
type DataItem struct {
	// Name is the SEMI E5 mnemonic.
	Name string
	// Allowed lists the kinds the item may be sent as. A kind earlier in the list is preferred
	// when several kinds of the same width can hold a value.
	Allowed []secs2.Kind
	// Count is the exact number of elements required; zero means variable length.
	Count int
	// MaxCount is an upper bound on the number of elements; zero means unbounded.
	MaxCount int
}

// New creates a DataItem definition.
func New(name string, allowed []secs2.Kind, count int) *DataItem {
	return &DataItem{Name: name, Allowed: slices.Clone(allowed), Count: count}
}

// WithMaxCount returns a copy of the definition bounded to maxCount elements.
func (di *DataItem) WithMaxCount(maxCount int) *DataItem {
	cp := *di
	cp.MaxCount = maxCount

	return &cp
}

// IsAny reports whether the item accepts any format, including lists.
func (di *DataItem) IsAny() bool {
	return secs2.ContainsKind(di.Allowed, secs2.ListKind)
}

// Validate checks item against the definition and returns it unchanged when it conforms.
//
// The check is pure: the kind must be allowed, the element count must equal Count when Count is
// set and must not exceed MaxCount when MaxCount is set. Errors are *ValidationError values that
// match ErrTypeNotAllowed, ErrCountMismatch or ErrInvalidValue with errors.Is.
func (di *DataItem) Validate(item secs2.Item) (secs2.Item, error) {
	if item == nil || item.IsEmpty() {
		return nil, di.validationError(secs2.InvalidKind, 0, ErrTypeNotAllowed)
	}

	if err := item.Error(); err != nil {
		return nil, di.validationError(item.Kind(), item.Size(), fmt.Errorf("%w: %w", ErrInvalidValue, err))
	}

	if !secs2.ContainsKind(di.Allowed, item.Kind()) {
		return nil, di.validationError(item.Kind(), item.Size(), ErrTypeNotAllowed)
	}

	// Size is the element count of a vector and the child count of a list
	if di.Count > 0 && item.Size() != di.Count {
		return nil, di.validationError(item.Kind(), item.Size(), ErrCountMismatch)
	}

	if di.MaxCount > 0 && item.Size() > di.MaxCount {
		return nil, di.validationError(item.Kind(), item.Size(), ErrCountMismatch)
	}

	return item, nil
}

// Build creates a value of the narrowest allowed kind able to hold values, then validates it.
//
// Loosely typed inputs are coerced first: numeric strings become numbers when the item has no
// ASCII or binary form, and fmt.Stringer values become strings.
func (di *DataItem) Build(values ...any) (secs2.Item, error) {
	d := secs2.NewDynamicItem(di.Allowed...)
	if err := d.Set(di.coerce(values)...); err != nil {
		return nil, di.buildError(err)
	}

	item, err := d.Item()
	if err != nil {
		return nil, di.buildError(err)
	}

	return di.Validate(item)
}

// BuildAs creates a value of an explicit kind, which must be allowed, then validates it.
func (di *DataItem) BuildAs(kind secs2.Kind, values ...any) (secs2.Item, error) {
	d := secs2.NewDynamicItem(di.Allowed...)
	if err := d.SetAs(kind, di.coerce(values)...); err != nil {
		return nil, di.buildError(err)
	}

	item, err := d.Item()
	if err != nil {
		return nil, di.buildError(err)
	}

	return di.Validate(item)
}

// MustBuild is like Build but panics on error. It is meant for constant values in tables and tests.
func (di *DataItem) MustBuild(values ...any) secs2.Item {
	item, err := di.Build(values...)
	if err != nil {
		panic(err)
	}

	return item
}

func (di *DataItem) String() string {
	names := make([]string, 0, len(di.Allowed))
	for _, k := range di.Allowed {
		names = append(names, k.String())
	}

	s := fmt.Sprintf("%s<%s>", di.Name, strings.Join(names, "|"))
	switch {
	case di.Count > 0:
		s += fmt.Sprintf("[%d]", di.Count)
	case di.MaxCount > 0:
		s += fmt.Sprintf("[..%d]", di.MaxCount)
	}

	return s
}

func (di *DataItem) textual() bool {
	return secs2.ContainsKind(di.Allowed, secs2.ASCIIKind) || secs2.ContainsKind(di.Allowed, secs2.BinaryKind)
}

func (di *DataItem) coerce(values []any) []any {
	result := make([]any, 0, len(values))
	for _, v := range values {
		switch val := v.(type) {
		case fmt.Stringer:
			if _, isItem := v.(secs2.Item); !isItem {
				v = val.String()
			}
		case string:
			if val != "" && !di.textual() {
				if n, err := cast.ToInt64E(val); err == nil {
					v = n
				} else if f, err := cast.ToFloat64E(val); err == nil {
					v = f
				}
			}
		}

		result = append(result, v)
	}

	return result
}

func (di *DataItem) validationError(kind secs2.Kind, count int, err error) *ValidationError {
	return &ValidationError{Name: di.Name, Kind: kind, Count: count, Allowed: di.Allowed, Err: err}
}

func (di *DataItem) buildError(err error) error {
	var disallowed *secs2.DisallowedTypeError
	if errors.As(err, &disallowed) {
		return di.validationError(disallowed.Kind, 0, ErrTypeNotAllowed)
	}

	return di.validationError(secs2.InvalidKind, 0, fmt.Errorf("%w: %w", ErrInvalidValue, err))
}

// ValidationError describes a value that does not conform to a DataItem definition.
type ValidationError struct {
	Name    string
	Kind    secs2.Kind
	Count   int
	Allowed []secs2.Kind
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("data item %s: %s (got %s[%d])", e.Name, e.Err, e.Kind, e.Count)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
