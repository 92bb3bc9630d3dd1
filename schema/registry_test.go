package schema

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/arloliu/go-secsgem/dataitem"
)

func TestRegistryLookup(t *testing.T) {
	require := require.New(t)

	r := NewRegistry()
	require.NoError(r.Register(&Schema{
		Stream: 2, Function: 16, Name: "New Equipment Constant Acknowledge",
		Body: Item(dataitem.EAC), ToHost: true,
	}))

	s, err := r.Lookup(2, 16)
	require.NoError(err)
	again, err := r.Lookup(2, 16)
	require.NoError(err)
	require.Same(s, again)
	require.True(r.Contains(2, 16))
	require.Equal(1, r.Len())

	tests := []struct {
		description   string
		stream        byte
		function      byte
		expectedKnown bool
		expectedMsg   string
	}{
		{"unknown function of known stream", 2, 34, true, "unknown function S2F34"},
		{"unknown stream", 3, 1, false, "unknown stream S3F1"},
	}

	for i, test := range tests {
		t.Logf("Test #%d: %s", i, test.description)

		s, err := r.Lookup(test.stream, test.function)
		require.Nil(s)

		var unknown *UnknownStreamFunctionError
		require.True(errors.As(err, &unknown))
		require.Equal(test.stream, unknown.Stream)
		require.Equal(test.function, unknown.Function)
		require.Equal(test.expectedKnown, unknown.StreamKnown)
		require.Equal(test.expectedMsg, err.Error())
		require.Equal(ClassUnknown, Classify(err))
		require.False(r.Contains(test.stream, test.function))
	}
}

func TestRegistryRegister(t *testing.T) {
	require := require.New(t)

	r := NewRegistry()
	s := &Schema{Stream: 1, Function: 1, Name: "Are You There Request", ToHost: true, ToEquipment: true, HasReply: true}
	require.NoError(r.Register(s))

	err := r.Register(&Schema{Stream: 1, Function: 1, ToHost: true})
	var dup *DuplicateSchemaError
	require.True(errors.As(err, &dup))
	require.Equal("schema S1F1 already registered", err.Error())

	require.ErrorIs(r.Register(nil), ErrInvalidSchema)
	require.ErrorIs(r.Register(&Schema{Stream: 128, Function: 1, ToHost: true}), ErrInvalidSchema)
	require.ErrorIs(r.Register(&Schema{Stream: 64, Function: 1}), ErrInvalidSchema)

	// the registry keeps its own copy
	s.Name = "changed"
	got, err := r.Lookup(1, 1)
	require.NoError(err)
	require.Equal("Are You There Request", got.Name)
	require.Equal(Empty().String(), got.Body.String())

	require.Panics(func() { r.MustRegister(&Schema{Stream: 1, Function: 1, ToHost: true}) })
}

func TestRegistryConcurrentAccess(t *testing.T) {
	require := require.New(t)

	r := NewRegistry()
	var (
		wg     sync.WaitGroup
		misses atomic.Int32
	)

	for i := 1; i <= 50; i++ {
		wg.Add(2)
		go func(fn byte) {
			defer wg.Done()
			_ = r.Register(&Schema{Stream: 100, Function: fn, ToHost: true})
		}(byte(i))
		go func() {
			defer wg.Done()
			if _, err := r.Lookup(100, 200); err == nil {
				misses.Inc()
			}
		}()
	}
	wg.Wait()

	require.Equal(50, r.Len())
	require.Zero(misses.Load())
	require.Len(r.Stream(100), 50)
}

func TestStandardRegistry(t *testing.T) {
	require := require.New(t)

	std := Standard()
	require.Same(std, Standard())
	require.Equal(len(standardSchemas()), std.Len())

	schemas := std.Schemas()
	require.Len(schemas, std.Len())
	for i := 1; i < len(schemas); i++ {
		require.Less(schemas[i-1].Key().order(), schemas[i].Key().order())
	}
	require.Equal(Key{Stream: 1, Function: 0}, schemas[0].Key())

	require.Equal([]byte{1, 2, 5, 6, 7, 9, 10}, std.Streams())

	var s9 []byte
	for _, s := range std.Stream(9) {
		s9 = append(s9, s.Function)
		require.True(s.ToHost)
		require.False(s.ToEquipment)
		require.False(s.HasReply)
	}
	require.Equal([]byte{1, 3, 5, 7, 9, 11, 13}, s9)

	tests := []struct {
		description      string
		stream           byte
		function         byte
		expectedToHost   bool
		expectedToEquip  bool
		expectedReply    bool
		expectedRequired bool
		expectedMulti    bool
	}{
		{"are you there", 1, 1, true, true, true, true, false},
		{"status request", 1, 3, false, true, true, true, false},
		{"status data", 1, 4, true, false, false, false, true},
		{"define report", 2, 33, false, true, true, true, true},
		{"alarm report", 5, 1, true, false, true, false, false},
		{"enable alarm", 5, 3, false, true, true, false, false},
		{"trace data", 6, 1, true, false, true, false, true},
		{"event report", 6, 11, true, false, true, true, true},
		{"process program send", 7, 3, true, true, true, true, true},
		{"terminal request", 10, 1, true, false, true, false, false},
		{"abort", 6, 0, true, true, false, false, false},
	}

	for i, test := range tests {
		t.Logf("Test #%d: %s", i, test.description)

		s, err := std.Lookup(test.stream, test.function)
		require.NoError(err)
		require.Equal(test.expectedToHost, s.ToHost)
		require.Equal(test.expectedToEquip, s.ToEquipment)
		require.Equal(test.expectedReply, s.HasReply)
		require.Equal(test.expectedRequired, s.ReplyRequired)
		require.Equal(test.expectedMulti, s.MultiBlock)
	}

	// every primary with a reply has its reply registered
	for _, s := range schemas {
		if s.ReplyFunction() != 0 {
			require.True(std.Contains(s.Stream, s.ReplyFunction()), s.Key().String())
		}
	}
}

func TestNewStandardRegistryIsExtensible(t *testing.T) {
	require := require.New(t)

	r := NewStandardRegistry()
	require.NotSame(Standard(), r)

	require.NoError(r.Register(&Schema{
		Stream: 64, Function: 1, Name: "Vendor Status", ToHost: true,
		Body: ListOf(Item(dataitem.SV)),
	}))
	require.True(r.Contains(64, 1))
	require.False(Standard().Contains(64, 1))

	var dup *DuplicateSchemaError
	require.ErrorAs(r.Register(&Schema{Stream: 1, Function: 1, ToHost: true}), &dup)
}

func TestSchema(t *testing.T) {
	require := require.New(t)

	s, err := Standard().Lookup(1, 1)
	require.NoError(err)
	require.True(s.IsPrimary())
	require.Equal(byte(2), s.ReplyFunction())
	require.True(s.Allows(ToHost))
	require.True(s.Allows(ToEquipment))
	require.Equal("S1F1 W Are You There Request (H->E,E->H) <empty>", s.String())

	s, err = Standard().Lookup(5, 1)
	require.NoError(err)
	require.Equal(byte(2), s.ReplyFunction())
	require.Contains(s.String(), "S5F1 [W] Alarm Report Send (E->H)")

	s, err = Standard().Lookup(9, 7)
	require.NoError(err)
	require.Zero(s.ReplyFunction())
	require.False(s.Allows(ToEquipment))
	require.False(s.Allows(Direction(0)))

	s, err = Standard().Lookup(1, 2)
	require.NoError(err)
	require.False(s.IsPrimary())
	require.Zero(s.ReplyFunction())

	require.Equal("E->H", ToHost.String())
	require.Equal("H->E", ToEquipment.String())
	require.Equal("S2F41", Key{Stream: 2, Function: 41}.String())
}
