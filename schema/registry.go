package schema

import (
	"fmt"
	"sync"

	"github.com/ahmetb/go-linq/v3"
	"go.uber.org/atomic"
)

// Registry maps stream/function keys to schemas.
//
// Registration is serialized by a mutex and publishes a new immutable snapshot; lookups read
// the current snapshot without locking.
type Registry struct {
	mu       sync.Mutex
	snapshot atomic.Pointer[map[Key]*Schema]
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	r := &Registry{}
	empty := map[Key]*Schema{}
	r.snapshot.Store(&empty)

	return r
}

// Register adds a copy of s. It returns *DuplicateSchemaError when the key is already registered.
func (r *Registry) Register(s *Schema) error {
	if s == nil {
		return fmt.Errorf("%w: nil schema", ErrInvalidSchema)
	}

	if s.Stream > 127 {
		return fmt.Errorf("%w: stream %d out of range", ErrInvalidSchema, s.Stream)
	}

	if !s.ToHost && !s.ToEquipment {
		return fmt.Errorf("%w: %s has no direction", ErrInvalidSchema, s.Key())
	}

	cp := *s
	if cp.Body == nil {
		cp.Body = Empty()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cur := *r.snapshot.Load()
	if _, ok := cur[cp.Key()]; ok {
		return &DuplicateSchemaError{Stream: s.Stream, Function: s.Function}
	}

	next := make(map[Key]*Schema, len(cur)+1)
	for k, v := range cur {
		next[k] = v
	}
	next[cp.Key()] = &cp
	r.snapshot.Store(&next)

	return nil
}

// MustRegister registers all schemas and panics on the first error.
func (r *Registry) MustRegister(schemas ...*Schema) {
	for _, s := range schemas {
		if err := r.Register(s); err != nil {
			panic(err)
		}
	}
}

// Lookup returns the schema registered for stream and function, or *UnknownStreamFunctionError.
func (r *Registry) Lookup(stream, function byte) (*Schema, error) {
	m := *r.snapshot.Load()
	if s, ok := m[Key{Stream: stream, Function: function}]; ok {
		return s, nil
	}

	known := linq.From(m).AnyWith(func(kv any) bool {
		return kv.(linq.KeyValue).Key.(Key).Stream == stream //nolint:forcetypeassert
	})

	return nil, &UnknownStreamFunctionError{Stream: stream, Function: function, StreamKnown: known}
}

// Contains reports whether stream and function are registered.
func (r *Registry) Contains(stream, function byte) bool {
	_, ok := (*r.snapshot.Load())[Key{Stream: stream, Function: function}]
	return ok
}

// Len returns the number of registered schemas.
func (r *Registry) Len() int {
	return len(*r.snapshot.Load())
}

// Schemas returns all registered schemas ordered by stream and function.
func (r *Registry) Schemas() []*Schema {
	var result []*Schema
	schemaQuery(*r.snapshot.Load()).
		OrderBy(func(s any) any { return s.(*Schema).Key().order() }). //nolint:forcetypeassert
		ToSlice(&result)

	return result
}

// Stream returns the schemas of stream n ordered by function.
func (r *Registry) Stream(n byte) []*Schema {
	var result []*Schema
	schemaQuery(*r.snapshot.Load()).
		Where(func(s any) bool { return s.(*Schema).Stream == n }).    //nolint:forcetypeassert
		OrderBy(func(s any) any { return int(s.(*Schema).Function) }). //nolint:forcetypeassert
		ToSlice(&result)

	return result
}

// Streams returns the distinct registered stream codes in ascending order.
func (r *Registry) Streams() []byte {
	var result []byte
	schemaQuery(*r.snapshot.Load()).
		Select(func(s any) any { return s.(*Schema).Stream }). //nolint:forcetypeassert
		Distinct().
		OrderBy(func(s any) any { return int(s.(byte)) }). //nolint:forcetypeassert
		ToSlice(&result)

	return result
}

func schemaQuery(m map[Key]*Schema) linq.Query {
	return linq.From(m).Select(func(kv any) any {
		return kv.(linq.KeyValue).Value //nolint:forcetypeassert
	})
}

var (
	standardOnce     sync.Once
	standardRegistry *Registry
)

// Standard returns the process-wide registry of the standard messages. It is built on first
// use and must be treated as read-only; use NewStandardRegistry to add messages.
func Standard() *Registry {
	standardOnce.Do(func() {
		standardRegistry = NewStandardRegistry()
	})

	return standardRegistry
}

// NewStandardRegistry returns a new registry holding the standard messages, to which
// application-specific messages can be added.
func NewStandardRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister(standardSchemas()...)

	return r
}
