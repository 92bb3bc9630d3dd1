package gem

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-secsgem/dataitem"
	"github.com/arloliu/go-secsgem/hsms"
	"github.com/arloliu/go-secsgem/schema"
	"github.com/arloliu/go-secsgem/secs2"
)

func TestS9Messages(t *testing.T) {
	require := require.New(t)

	header := hsms.Header{Stream: 1, Function: 3, WaitBit: true, SType: hsms.DataMsgType, SystemBytes: [4]byte{0, 0, 0, 9}}
	mhead := []byte{0, 0, 0x81, 3, 0, 0, 0, 0, 0, 9}

	tests := []struct {
		description      string
		msg              *Message
		expectedFunction uint8
	}{
		{"unrecognized device id", S9F1(header), 1},
		{"unrecognized stream", S9F3(header), 3},
		{"unrecognized function", S9F5(header), 5},
		{"illegal data", S9F7(header), 7},
		{"transaction timeout", S9F9(header), 9},
		{"data too long", S9F11(header), 11},
	}

	for i, test := range tests {
		t.Logf("Test #%d: %s", i, test.description)

		require.Equal(uint8(9), test.msg.StreamCode())
		require.Equal(test.expectedFunction, test.msg.FunctionCode())
		require.False(test.msg.WaitBit())

		b, err := test.msg.Item().ToBinary()
		require.NoError(err)
		require.Equal(mhead, b)
	}

	msg := S9F13("S7F3", secs2.A("PP-01"))
	require.Equal(uint8(13), msg.FunctionCode())
	require.Equal(`<L[2]
  <A[4] "S7F3">
  <A[5] "PP-01">
>`, msg.Item().ToSML())

	require.True(NewMessage(0x81, 1, true, nil).Item().IsEmpty())
	require.Equal(uint8(1), NewMessage(0x81, 1, true, nil).StreamCode())
}

func TestS9MessagesPassDispatcher(t *testing.T) {
	require := require.New(t)

	d := schema.NewDispatcher(nil, schema.RoleEquipment)
	header := hsms.Header{Stream: 2, Function: 41, WaitBit: true, SType: hsms.DataMsgType}

	for _, msg := range []*Message{
		S9F1(header), S9F3(header), S9F5(header), S9F7(header), S9F9(header), S9F11(header),
		S9F13("S6F11", dataitem.DATAID.MustBuild(1)),
	} {
		_, err := d.NewMessage(msg.StreamCode(), msg.FunctionCode(), msg.Item())
		require.NoError(err)
	}
}

func TestErrorReport(t *testing.T) {
	require := require.New(t)

	header := hsms.Header{Stream: 7, Function: 3, SType: hsms.DataMsgType}

	tests := []struct {
		description      string
		err              error
		expectedFunction uint8
	}{
		{"unknown stream", &schema.UnknownStreamFunctionError{Stream: 99, Function: 1}, 3},
		{"unknown function", &schema.UnknownStreamFunctionError{Stream: 1, Function: 99, StreamKnown: true}, 5},
		{"block size", &schema.BlockSizeViolationError{Stream: 1, Function: 3, Size: 40000, Max: 32768}, 11},
		{"shape", &schema.BodyError{Path: "body", Err: schema.ErrShapeMismatch}, 7},
		{"direction", &schema.DirectionViolationError{Stream: 6, Function: 11, Direction: schema.ToEquipment}, 7},
		{"value", dataitem.ErrCountMismatch, 7},
	}

	for i, test := range tests {
		t.Logf("Test #%d: %s", i, test.description)

		msg := ErrorReport(test.err, header)
		require.NotNil(msg)
		require.Equal(test.expectedFunction, msg.FunctionCode())
	}

	require.Nil(ErrorReport(nil, header))
	require.Nil(ErrorReport(errors.New("boom"), header))
	require.Nil(ErrorReport(hsms.ErrT3Timeout, header))
}
