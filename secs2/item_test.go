package secs2

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestItemEncoding(t *testing.T) {
	require := require.New(t)

	tests := []struct {
		description     string
		item            Item
		expectedKind    Kind
		expectedSize    int
		expectedToBytes []byte
		expectedToSML   string
	}{
		{
			description:     "boolean true",
			item:            BOOLEAN(true),
			expectedKind:    BooleanKind,
			expectedSize:    1,
			expectedToBytes: []byte{0x25, 0x01, 0x01},
			expectedToSML:   "<BOOLEAN[1] T>",
		},
		{
			description:     "U4 1337",
			item:            U4(1337),
			expectedKind:    Uint32Kind,
			expectedSize:    1,
			expectedToBytes: []byte{0xb1, 0x04, 0x00, 0x00, 0x05, 0x39},
			expectedToSML:   "<U4[1] 1337>",
		},
		{
			description:     "empty list",
			item:            L(),
			expectedKind:    ListKind,
			expectedSize:    0,
			expectedToBytes: []byte{0x01, 0x00},
			expectedToSML:   "<L[0]>",
		},
		{
			description:     "ASCII",
			item:            A("hi"),
			expectedKind:    ASCIIKind,
			expectedSize:    2,
			expectedToBytes: []byte{0x41, 0x02, 'h', 'i'},
			expectedToSML:   `<A[2] "hi">`,
		},
		{
			description:     "ASCII with control character",
			item:            A("a\n"),
			expectedKind:    ASCIIKind,
			expectedSize:    2,
			expectedToBytes: []byte{0x41, 0x02, 'a', '\n'},
			expectedToSML:   `<A[2] "a" 0x0A>`,
		},
		{
			description:     "binary",
			item:            B(0x01, []byte{0xff}),
			expectedKind:    BinaryKind,
			expectedSize:    2,
			expectedToBytes: []byte{0x21, 0x02, 0x01, 0xff},
			expectedToSML:   "<B[2] 0x01 0xFF>",
		},
		{
			description:     "I1 negative",
			item:            I1(-1),
			expectedKind:    Int8Kind,
			expectedSize:    1,
			expectedToBytes: []byte{0x65, 0x01, 0xff},
			expectedToSML:   "<I1[1] -1>",
		},
		{
			description:     "I2 from slice",
			item:            I2([]int{-2, 1}),
			expectedKind:    Int16Kind,
			expectedSize:    2,
			expectedToBytes: []byte{0x69, 0x04, 0xff, 0xfe, 0x00, 0x01},
			expectedToSML:   "<I2[2] -2 1>",
		},
		{
			description:     "I4 from hex string",
			item:            I4("0x10"),
			expectedKind:    Int32Kind,
			expectedSize:    1,
			expectedToBytes: []byte{0x71, 0x04, 0x00, 0x00, 0x00, 0x10},
			expectedToSML:   "<I4[1] 16>",
		},
		{
			description:     "I8 minimum",
			item:            I8(int64(math.MinInt64)),
			expectedKind:    Int64Kind,
			expectedSize:    1,
			expectedToBytes: []byte{0x61, 0x08, 0x80, 0, 0, 0, 0, 0, 0, 0},
			expectedToSML:   "<I8[1] -9223372036854775808>",
		},
		{
			description:     "U1 multiple values",
			item:            U1(0, 1, 255),
			expectedKind:    Uint8Kind,
			expectedSize:    3,
			expectedToBytes: []byte{0xa5, 0x03, 0x00, 0x01, 0xff},
			expectedToSML:   "<U1[3] 0 1 255>",
		},
		{
			description:     "U2 empty",
			item:            U2(),
			expectedKind:    Uint16Kind,
			expectedSize:    0,
			expectedToBytes: []byte{0xa9, 0x00},
			expectedToSML:   "<U2[0]>",
		},
		{
			description:     "U8 maximum",
			item:            U8(uint64(math.MaxUint64)),
			expectedKind:    Uint64Kind,
			expectedSize:    1,
			expectedToBytes: []byte{0xa1, 0x08, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
			expectedToSML:   "<U8[1] 18446744073709551615>",
		},
		{
			description:     "F4",
			item:            F4(1.5),
			expectedKind:    Float32Kind,
			expectedSize:    1,
			expectedToBytes: []byte{0x91, 0x04, 0x3f, 0xc0, 0x00, 0x00},
			expectedToSML:   "<F4[1] 1.5>",
		},
		{
			description:     "F8",
			item:            F8(-2),
			expectedKind:    Float64Kind,
			expectedSize:    1,
			expectedToBytes: []byte{0x81, 0x08, 0xc0, 0x00, 0, 0, 0, 0, 0, 0},
			expectedToSML:   "<F8[1] -2>",
		},
		{
			description:     "nested list",
			item:            L(U1(1), L()),
			expectedKind:    ListKind,
			expectedSize:    2,
			expectedToBytes: []byte{0x01, 0x02, 0xa5, 0x01, 0x01, 0x01, 0x00},
			expectedToSML:   "<L[2]\n  <U1[1] 1>\n  <L[0]>\n>",
		},
	}

	for i, test := range tests {
		t.Logf("Test #%d: %s", i, test.description)

		require.NoError(test.item.Error())
		require.Equal(test.expectedKind, test.item.Kind())
		require.Equal(test.expectedSize, test.item.Size())
		require.Equal(test.expectedToBytes, test.item.ToBytes())
		require.Equal(test.expectedToSML, test.item.ToSML())
		require.True(test.item.Equal(test.item.Clone()))
	}
}

func TestItemLengthBytes(t *testing.T) {
	require := require.New(t)

	item := A(strings.Repeat("x", 256))
	require.Equal([]byte{0x42, 0x01, 0x00}, item.ToBytes()[:3])

	item = B(make([]byte, 0x10000))
	require.Equal([]byte{0x23, 0x01, 0x00, 0x00}, item.ToBytes()[:4])
}

func TestItemCreationErrors(t *testing.T) {
	require := require.New(t)

	tests := []struct {
		description string
		item        Item
	}{
		{"U1 overflow", U1(256)},
		{"U4 negative", U4(-1)},
		{"U2 negative string", U2("-3")},
		{"I1 overflow", I1(128)},
		{"I1 underflow", I1(-129)},
		{"I8 overflow from uint64", I8(uint64(math.MaxUint64))},
		{"U4 fractional float", U4(1.5)},
		{"I4 invalid string", I4("abc")},
		{"U4 empty string", U4("")},
		{"F4 overflow", F4(math.MaxFloat64)},
		{"invalid uint byte size", NewUintItem(3, 1)},
		{"non-ASCII string", A("caf\xe9")},
		{"boolean from invalid string", BOOLEAN("maybe")},
	}

	for i, test := range tests {
		t.Logf("Test #%d: %s", i, test.description)

		require.Error(test.item.Error())
		require.Empty(test.item.ToBytes())

		_, err := Encode(test.item)
		require.Error(err)
	}

	list := L(U1(1), U1(300))
	require.Error(list.Error())
	require.Empty(list.ToBytes())
}

func TestListGet(t *testing.T) {
	require := require.New(t)

	item := L(
		A("MDLN"),
		L(U4(1), U4(2)),
	)

	nested, err := item.Get(1, 0)
	require.NoError(err)
	require.True(nested.Equal(U4(1)))

	self, err := item.Get()
	require.NoError(err)
	require.Same(item, self)

	_, err = item.Get(2)
	require.Error(err)

	_, err = item.Get(0, 0)
	require.Error(err)

	values, err := item.ToList()
	require.NoError(err)
	require.Len(values, 2)

	_, err = item.ToASCII()
	require.Error(err)
}

func TestItemEqual(t *testing.T) {
	require := require.New(t)

	require.True(U4(1, 2).Equal(U4(1, 2)))
	require.False(U4(1, 2).Equal(U2(1, 2)))
	require.False(U4(1).Equal(I4(1)))
	require.False(L(A("a")).Equal(L(A("b"))))
	require.True(F8(math.NaN()).Equal(F8(math.NaN())))
	require.True(NewEmptyItem().Equal(NewEmptyItem()))
	require.False(NewEmptyItem().Equal(L()))
}

func TestKind(t *testing.T) {
	require := require.New(t)

	for _, k := range AllKinds {
		decoded, ok := KindOf(k.FormatCode())
		require.True(ok)
		require.Equal(k, decoded)

		parsed, ok := ParseKind(strings.ToLower(k.String()))
		require.True(ok)
		require.Equal(k, parsed)
	}

	_, ok := KindOf(0o77)
	require.False(ok)

	k, ok := ParseKind("bool")
	require.True(ok)
	require.Equal(BooleanKind, k)

	require.Equal(4, Uint32Kind.ByteSize())
	require.Equal("INVALID", InvalidKind.String())
	require.False(InvalidKind.IsValid())
}
