package secs2

import "strings"

// MaxByteSize defines the maximum allowed size (in bytes) for an Item's data.
const MaxByteSize = 1<<24 - 1

// FormatCode is the 6-bit SECS-II format code carried in the upper bits of an item's format byte.
type FormatCode = byte

const (
	ListFormatCode    FormatCode = 0o00
	BinaryFormatCode  FormatCode = 0o10
	BooleanFormatCode FormatCode = 0o11
	ASCIIFormatCode   FormatCode = 0o20
	Int64FormatCode   FormatCode = 0o30
	Int8FormatCode    FormatCode = 0o31
	Int16FormatCode   FormatCode = 0o32
	Int32FormatCode   FormatCode = 0o34
	Float64FormatCode FormatCode = 0o40
	Float32FormatCode FormatCode = 0o44
	Uint64FormatCode  FormatCode = 0o50
	Uint8FormatCode   FormatCode = 0o51
	Uint16FormatCode  FormatCode = 0o52
	Uint32FormatCode  FormatCode = 0o54
)

// Kind identifies the concrete wire type of an Item.
//
// The zero value is InvalidKind; every item created by this package reports one of the
// other kinds, and the kind always agrees with the Go type of the item's values.
type Kind uint8

const (
	InvalidKind Kind = iota
	ListKind
	BinaryKind
	BooleanKind
	ASCIIKind
	Int8Kind
	Int16Kind
	Int32Kind
	Int64Kind
	Uint8Kind
	Uint16Kind
	Uint32Kind
	Uint64Kind
	Float32Kind
	Float64Kind
)

type kindInfo struct {
	code FormatCode
	size int
	name string
}

var kindTable = [...]kindInfo{
	InvalidKind: {code: 0xff, size: 0, name: "INVALID"},
	ListKind:    {code: ListFormatCode, size: 1, name: "L"},
	BinaryKind:  {code: BinaryFormatCode, size: 1, name: "B"},
	BooleanKind: {code: BooleanFormatCode, size: 1, name: "BOOLEAN"},
	ASCIIKind:   {code: ASCIIFormatCode, size: 1, name: "A"},
	Int8Kind:    {code: Int8FormatCode, size: 1, name: "I1"},
	Int16Kind:   {code: Int16FormatCode, size: 2, name: "I2"},
	Int32Kind:   {code: Int32FormatCode, size: 4, name: "I4"},
	Int64Kind:   {code: Int64FormatCode, size: 8, name: "I8"},
	Uint8Kind:   {code: Uint8FormatCode, size: 1, name: "U1"},
	Uint16Kind:  {code: Uint16FormatCode, size: 2, name: "U2"},
	Uint32Kind:  {code: Uint32FormatCode, size: 4, name: "U4"},
	Uint64Kind:  {code: Uint64FormatCode, size: 8, name: "U8"},
	Float32Kind: {code: Float32FormatCode, size: 4, name: "F4"},
	Float64Kind: {code: Float64FormatCode, size: 8, name: "F8"},
}

// AllKinds lists every valid kind, in format-table order.
var AllKinds = []Kind{
	ListKind, BinaryKind, BooleanKind, ASCIIKind,
	Int8Kind, Int16Kind, Int32Kind, Int64Kind,
	Uint8Kind, Uint16Kind, Uint32Kind, Uint64Kind,
	Float32Kind, Float64Kind,
}

// Convenience kind groups used by data item definitions.
var (
	IntKinds     = []Kind{Int8Kind, Int16Kind, Int32Kind, Int64Kind}
	UintKinds    = []Kind{Uint8Kind, Uint16Kind, Uint32Kind, Uint64Kind}
	FloatKinds   = []Kind{Float32Kind, Float64Kind}
	IntegerKinds = []Kind{Uint8Kind, Uint16Kind, Uint32Kind, Uint64Kind, Int8Kind, Int16Kind, Int32Kind, Int64Kind}
)

// IsValid reports whether k is one of the defined wire kinds.
func (k Kind) IsValid() bool {
	return k > InvalidKind && int(k) < len(kindTable)
}

// FormatCode returns the SEMI E5 format code of the kind.
func (k Kind) FormatCode() FormatCode {
	if !k.IsValid() {
		return 0xff
	}

	return kindTable[k].code
}

// ByteSize returns the size in bytes of one element of the kind.
// A list element is counted as one.
func (k Kind) ByteSize() int {
	if !k.IsValid() {
		return 0
	}

	return kindTable[k].size
}

// String returns the SML token of the kind, e.g. "U4" or "BOOLEAN".
func (k Kind) String() string {
	if !k.IsValid() {
		return kindTable[InvalidKind].name
	}

	return kindTable[k].name
}

func (k Kind) IsInt() bool   { return k >= Int8Kind && k <= Int64Kind }
func (k Kind) IsUint() bool  { return k >= Uint8Kind && k <= Uint64Kind }
func (k Kind) IsFloat() bool { return k == Float32Kind || k == Float64Kind }

// KindOf returns the kind for a wire format code.
func KindOf(code FormatCode) (Kind, bool) {
	for _, k := range AllKinds {
		if kindTable[k].code == code {
			return k, true
		}
	}

	return InvalidKind, false
}

// ParseKind returns the kind named by an SML token. The match is case-insensitive
// and accepts "BOOL" as an alias of "BOOLEAN".
func ParseKind(name string) (Kind, bool) {
	name = strings.ToUpper(name)
	if name == "BOOL" {
		return BooleanKind, true
	}

	for _, k := range AllKinds {
		if kindTable[k].name == name {
			return k, true
		}
	}

	return InvalidKind, false
}

// ContainsKind reports whether kind is a member of kinds.
func ContainsKind(kinds []Kind, kind Kind) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}

	return false
}

func intKindOfSize(byteSize int) Kind {
	switch byteSize {
	case 1:
		return Int8Kind
	case 2:
		return Int16Kind
	case 4:
		return Int32Kind
	case 8:
		return Int64Kind
	}

	return InvalidKind
}

func uintKindOfSize(byteSize int) Kind {
	switch byteSize {
	case 1:
		return Uint8Kind
	case 2:
		return Uint16Kind
	case 4:
		return Uint32Kind
	case 8:
		return Uint64Kind
	}

	return InvalidKind
}

func floatKindOfSize(byteSize int) Kind {
	switch byteSize {
	case 4:
		return Float32Kind
	case 8:
		return Float64Kind
	}

	return InvalidKind
}
