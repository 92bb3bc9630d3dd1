package secs2

import (
	"errors"
	"fmt"
	"math"
	"reflect"

	"github.com/spf13/cast"
)

var (
	errNegativeValue  = errors.New("negative value not allowed for unsigned item")
	errValueOverflow  = errors.New("value overflow")
	errFractionalPart = errors.New("value has a fractional part")
	errEmptyString    = errors.New("empty string is not a number")
)

// flattenValues expands slice and array arguments into their elements so that
// NewUintItem(4, 1, []int{2, 3}) and NewUintItem(4, 1, 2, 3) are equivalent.
// Strings and Items are never expanded.
func flattenValues(values []any) []any {
	result := make([]any, 0, len(values))
	for _, value := range values {
		switch value.(type) {
		case nil, string, Item:
			result = append(result, value)
			continue
		}

		rv := reflect.ValueOf(value)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			result = append(result, value)
			continue
		}

		for i := range rv.Len() {
			result = append(result, rv.Index(i).Interface())
		}
	}

	return result
}

func checkIntegral(value any) error {
	switch v := value.(type) {
	case float32:
		if float64(v) != math.Trunc(float64(v)) {
			return errFractionalPart
		}
	case float64:
		if v != math.Trunc(v) {
			return errFractionalPart
		}
	case string:
		if v == "" {
			return errEmptyString
		}
	}

	return nil
}

func toInt64(value any) (int64, error) {
	if err := checkIntegral(value); err != nil {
		return 0, err
	}

	switch v := value.(type) {
	case uint64:
		if v > math.MaxInt64 {
			return 0, errValueOverflow
		}
	case uint:
		if uint64(v) > math.MaxInt64 {
			return 0, errValueOverflow
		}
	}

	return cast.ToInt64E(value)
}

func toUint64(value any) (uint64, error) {
	if err := checkIntegral(value); err != nil {
		return 0, err
	}

	n, err := cast.ToUint64E(value)
	if err != nil {
		if i, ierr := cast.ToInt64E(value); ierr == nil && i < 0 {
			return 0, errNegativeValue
		}

		return 0, err
	}

	return n, nil
}

// combineIntValues converts values to int64 and checks them against the range of a byteSize integer.
func combineIntValues(byteSize int, values ...any) ([]int64, error) {
	flat := flattenValues(values)
	result := make([]int64, 0, len(flat))

	minVal := int64(-1) << (byteSize*8 - 1)
	maxVal := int64(uint64(1)<<(byteSize*8-1) - 1)

	for _, value := range flat {
		n, err := toInt64(value)
		if err != nil {
			return nil, fmt.Errorf("invalid value %v for I%d: %w", value, byteSize, err)
		}

		if n < minVal || n > maxVal {
			return nil, fmt.Errorf("value %d out of range for I%d: %w", n, byteSize, errValueOverflow)
		}

		result = append(result, n)
	}

	return result, nil
}

// combineUintValues converts values to uint64 and checks them against the range of a byteSize integer.
func combineUintValues(byteSize int, values ...any) ([]uint64, error) {
	flat := flattenValues(values)
	result := make([]uint64, 0, len(flat))

	var maxVal uint64 = math.MaxUint64
	if byteSize < 8 {
		maxVal = 1<<(byteSize*8) - 1
	}

	for _, value := range flat {
		n, err := toUint64(value)
		if err != nil {
			return nil, fmt.Errorf("invalid value %v for U%d: %w", value, byteSize, err)
		}

		if n > maxVal {
			return nil, fmt.Errorf("value %d out of range for U%d: %w", n, byteSize, errValueOverflow)
		}

		result = append(result, n)
	}

	return result, nil
}

// combineFloatValues converts values to float64. Values of an F4 item are rounded to float32
// precision so that the item compares equal to its decoded form.
func combineFloatValues(byteSize int, values ...any) ([]float64, error) {
	flat := flattenValues(values)
	result := make([]float64, 0, len(flat))

	for _, value := range flat {
		f, err := cast.ToFloat64E(value)
		if err != nil {
			return nil, fmt.Errorf("invalid value %v for F%d: %w", value, byteSize, err)
		}

		if byteSize == 4 {
			if !math.IsInf(f, 0) && !math.IsNaN(f) && math.Abs(f) > math.MaxFloat32 {
				return nil, fmt.Errorf("value %v out of range for F4: %w", f, errValueOverflow)
			}
			f = float64(float32(f))
		}

		result = append(result, f)
	}

	return result, nil
}

func combineBoolValues(values ...any) ([]bool, error) {
	flat := flattenValues(values)
	result := make([]bool, 0, len(flat))

	for _, value := range flat {
		b, err := cast.ToBoolE(value)
		if err != nil {
			return nil, fmt.Errorf("invalid value %v for BOOLEAN: %w", value, err)
		}
		result = append(result, b)
	}

	return result, nil
}
