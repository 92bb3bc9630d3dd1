package secs2

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeRoundTrip(t *testing.T) {
	require := require.New(t)

	items := []Item{
		L(),
		A(""),
		A("hello world"),
		B(),
		B(0x00, 0x7f, 0xff),
		BOOLEAN(true, false, true),
		I1(math.MinInt8, 0, math.MaxInt8),
		I2(math.MinInt16, math.MaxInt16),
		I4(math.MinInt32, math.MaxInt32),
		I8(int64(math.MinInt64), int64(math.MaxInt64)),
		U1(0, math.MaxUint8),
		U2(math.MaxUint16),
		U4(uint32(math.MaxUint32)),
		U8(uint64(math.MaxUint64)),
		F4(0.1, -3.25, math.Inf(1)),
		F8(math.Pi, math.SmallestNonzeroFloat64),
		L(
			A("MDLN"),
			L(U4(1, 2, 3), L(BOOLEAN(false), L())),
			F8(),
		),
	}

	for i, item := range items {
		t.Logf("Test #%d: %s", i, item.ToSML())

		data := item.ToBytes()
		decoded, n, err := Decode(data)
		require.NoError(err)
		require.Equal(len(data), n)
		require.True(item.Equal(decoded), "decoded %s", decoded.ToSML())
		require.Equal(data, decoded.ToBytes())

		decoded, err = DecodeAll(data)
		require.NoError(err)
		require.True(item.Equal(decoded))
	}
}

func TestDecodeEmpty(t *testing.T) {
	require := require.New(t)

	item, n, err := Decode(nil)
	require.NoError(err)
	require.Zero(n)
	require.True(item.IsEmpty())
}

func TestDecodeConsumesOneItem(t *testing.T) {
	require := require.New(t)

	data := append(U1(7).ToBytes(), A("x").ToBytes()...)

	item, n, err := Decode(data)
	require.NoError(err)
	require.Equal(3, n)
	require.True(item.Equal(U1(7)))

	item, _, err = Decode(data[n:])
	require.NoError(err)
	require.True(item.Equal(A("x")))
}

func TestDecodeMalformed(t *testing.T) {
	require := require.New(t)

	deepList := make([]byte, 0, (MaxListDepth+2)*2)
	for range MaxListDepth + 1 {
		deepList = append(deepList, 0x01, 0x01)
	}
	deepList = append(deepList, 0x01, 0x00)

	tests := []struct {
		description    string
		input          []byte
		expectedOffset int
	}{
		{"zero length bytes", []byte{0xb0, 0x04}, 0},
		{"unknown format code", []byte{0xfd, 0x01, 0x00}, 0},
		{"missing length bytes", []byte{0xb3, 0x00}, 0},
		{"truncated payload", []byte{0x41, 0x05, 'a'}, 0},
		{"U4 payload not multiple of 4", []byte{0xb1, 0x03, 0x00, 0x00, 0x01}, 0},
		{"I2 payload not multiple of 2", []byte{0x69, 0x01, 0x00}, 0},
		{"F8 payload not multiple of 8", []byte{0x81, 0x04, 0, 0, 0, 0}, 0},
		{"list shorter than declared", []byte{0x01, 0x02, 0xa5, 0x01, 0x01}, 0},
		{"malformed nested item", []byte{0x01, 0x02, 0xa5, 0x01, 0x01, 0xa9, 0x01, 0x00}, 5},
		{"list nesting too deep", deepList, (MaxListDepth) * 2},
	}

	for i, test := range tests {
		t.Logf("Test #%d: %s", i, test.description)

		_, _, err := Decode(test.input)
		require.Error(err)

		var malformed *MalformedItemError
		require.True(errors.As(err, &malformed))
		require.Equal(test.expectedOffset, malformed.Offset)
	}
}

func TestDecodeAllTrailingBytes(t *testing.T) {
	require := require.New(t)

	_, err := DecodeAll([]byte{0xa5, 0x01, 0x01, 0x00})
	require.Error(err)

	var malformed *MalformedItemError
	require.ErrorAs(err, &malformed)
	require.Equal(3, malformed.Offset)
}
