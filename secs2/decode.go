package secs2

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
)

// MaxListDepth is the maximum allowed nesting depth for SECS-II list items.
const MaxListDepth = 64

var decoderPool = sync.Pool{New: func() any { return new(decoder) }}

// Decode decodes one SECS-II item from the start of data.
//
// It returns the item and the number of bytes it occupied. An empty input decodes to an
// EmptyItem consuming zero bytes. Any structural problem is returned as *MalformedItemError.
func Decode(data []byte) (Item, int, error) {
	if len(data) == 0 {
		return NewEmptyItem(), 0, nil
	}

	d, _ := decoderPool.Get().(*decoder)
	d.input = data
	d.pos = 0
	d.depth = 0

	item, err := d.decodeItem()
	n := d.pos

	d.input = nil
	decoderPool.Put(d)

	if err != nil {
		return nil, n, err
	}

	return item, n, nil
}

// DecodeAll decodes data that must contain exactly one SECS-II item, or nothing.
// Trailing bytes after the item are reported as *MalformedItemError.
func DecodeAll(data []byte) (Item, error) {
	item, n, err := Decode(data)
	if err != nil {
		return nil, err
	}

	if n != len(data) {
		return nil, &MalformedItemError{Offset: n, Reason: fmt.Sprintf("%d trailing bytes after item", len(data)-n)}
	}

	return item, nil
}

type decoder struct {
	input []byte
	pos   int
	depth int
}

func (d *decoder) malformed(offset int, format string, args ...any) error {
	return &MalformedItemError{Offset: offset, Reason: fmt.Sprintf(format, args...)}
}

// readHeader reads the format byte and the length bytes of the item at the current position.
func (d *decoder) readHeader() (Kind, int, error) {
	start := d.pos
	if d.pos >= len(d.input) {
		return InvalidKind, 0, d.malformed(start, "unexpected end of data, need format byte")
	}

	formatByte := d.input[d.pos]
	d.pos++

	lenByteCount := int(formatByte & 0x03)
	if lenByteCount == 0 {
		return InvalidKind, 0, d.malformed(start, "number of length bytes is zero")
	}

	kind, ok := KindOf(formatByte >> 2)
	if !ok {
		return InvalidKind, 0, d.malformed(start, "unknown format code 0o%o", formatByte>>2)
	}

	if d.pos+lenByteCount > len(d.input) {
		return InvalidKind, 0, d.malformed(start, "unexpected end of data, need %d length bytes", lenByteCount)
	}

	length := 0
	for _, b := range d.input[d.pos : d.pos+lenByteCount] {
		length = length<<8 | int(b)
	}
	d.pos += lenByteCount

	return kind, length, nil
}

func (d *decoder) readPayload(start int, length int) ([]byte, error) {
	if length > len(d.input)-d.pos {
		return nil, d.malformed(start, "unexpected end of data, need %d bytes, have %d", length, len(d.input)-d.pos)
	}

	payload := d.input[d.pos : d.pos+length]
	d.pos += length

	return payload, nil
}

func (d *decoder) decodeItem() (Item, error) { //nolint:cyclop
	start := d.pos

	kind, length, err := d.readHeader()
	if err != nil {
		return nil, err
	}

	if kind == ListKind {
		return d.decodeList(start, length)
	}

	payload, err := d.readPayload(start, length)
	if err != nil {
		return nil, err
	}

	byteSize := kind.ByteSize()
	if length%byteSize != 0 {
		return nil, d.malformed(start, "%s payload length %d is not a multiple of %d", kind, length, byteSize)
	}

	switch {
	case kind == ASCIIKind:
		return newRawASCIIItem(payload), nil

	case kind == BinaryKind:
		data := make([]byte, length)
		copy(data, payload)
		return &BinaryItem{values: data}, nil

	case kind == BooleanKind:
		values := make([]bool, length)
		for i, b := range payload {
			values[i] = b != 0
		}
		return &BooleanItem{values: values}, nil

	case kind.IsInt():
		values := make([]int64, 0, length/byteSize)
		for i := 0; i < length; i += byteSize {
			values = append(values, decodeInt(payload[i:i+byteSize]))
		}
		return &IntItem{byteSize: byteSize, values: values}, nil

	case kind.IsUint():
		values := make([]uint64, 0, length/byteSize)
		for i := 0; i < length; i += byteSize {
			values = append(values, decodeUint(payload[i:i+byteSize]))
		}
		return &UintItem{byteSize: byteSize, values: values}, nil

	case kind.IsFloat():
		values := make([]float64, 0, length/byteSize)
		for i := 0; i < length; i += byteSize {
			if byteSize == 4 {
				values = append(values, float64(math.Float32frombits(binary.BigEndian.Uint32(payload[i:]))))
			} else {
				values = append(values, math.Float64frombits(binary.BigEndian.Uint64(payload[i:])))
			}
		}
		return &FloatItem{byteSize: byteSize, values: values}, nil
	}

	return nil, d.malformed(start, "unsupported item kind %s", kind)
}

func (d *decoder) decodeList(start int, count int) (Item, error) {
	d.depth++
	defer func() { d.depth-- }()

	if d.depth > MaxListDepth {
		return nil, d.malformed(start, "list nesting depth exceeds %d", MaxListDepth)
	}

	// every child needs at least 2 bytes
	if count > (len(d.input)-d.pos)/2 {
		return nil, d.malformed(start, "list of %d items exceeds remaining %d bytes", count, len(d.input)-d.pos)
	}

	values := make([]Item, 0, count)
	for range count {
		child, err := d.decodeItem()
		if err != nil {
			return nil, err
		}
		values = append(values, child)
	}

	return &ListItem{values: values}, nil
}

func decodeUint(b []byte) uint64 {
	switch len(b) {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(binary.BigEndian.Uint16(b))
	case 4:
		return uint64(binary.BigEndian.Uint32(b))
	default:
		return binary.BigEndian.Uint64(b)
	}
}

func decodeInt(b []byte) int64 {
	switch len(b) {
	case 1:
		return int64(int8(b[0]))
	case 2:
		return int64(int16(binary.BigEndian.Uint16(b))) //nolint:gosec
	case 4:
		return int64(int32(binary.BigEndian.Uint32(b))) //nolint:gosec
	default:
		return int64(binary.BigEndian.Uint64(b)) //nolint:gosec
	}
}
