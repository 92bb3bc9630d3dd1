package schema

import (
	"fmt"
	"strings"

	"github.com/arloliu/go-secsgem/dataitem"
	"github.com/arloliu/go-secsgem/secs2"
)

// Shape describes the expected structure of a message body: a tree whose leaves are data items
// and whose internal nodes are lists.
type Shape interface {
	// Validate checks item against the shape. Errors are *BodyError values locating the
	// offending node, wrapping either ErrShapeMismatch or a data item validation error.
	Validate(item secs2.Item) error

	// String renders an SML-like outline of the shape.
	String() string

	check(item secs2.Item, path string) error
}

const rootPath = "body"

// Item returns a leaf shape holding one value of the data item di.
func Item(di *dataitem.DataItem) Shape {
	return &itemShape{di: di}
}

// List returns a fixed-arity list shape: the body must be a list with exactly one element per child.
// List() with no children matches an empty list only.
func List(children ...Shape) Shape {
	return &listShape{children: children}
}

// ListOf returns a variable-length list shape whose elements all match elem.
func ListOf(elem Shape) Shape {
	return &listOfShape{elem: elem}
}

// OneOf returns a shape matching any of the alternatives, tried in order.
func OneOf(alternatives ...Shape) Shape {
	return &oneOfShape{alternatives: alternatives}
}

// Empty returns the shape of a header-only message.
func Empty() Shape {
	return emptyShape{}
}

type itemShape struct {
	di *dataitem.DataItem
}

func (s *itemShape) Validate(item secs2.Item) error { return s.check(item, rootPath) }
func (s *itemShape) String() string                 { return s.di.String() }

func (s *itemShape) check(item secs2.Item, path string) error {
	if _, err := s.di.Validate(item); err != nil {
		return &BodyError{Path: path, Err: err}
	}

	return nil
}

type listShape struct {
	children []Shape
}

func (s *listShape) Validate(item secs2.Item) error { return s.check(item, rootPath) }

func (s *listShape) String() string {
	parts := make([]string, 0, len(s.children))
	for _, c := range s.children {
		parts = append(parts, c.String())
	}

	if len(parts) == 0 {
		return "<L[0]>"
	}

	return fmt.Sprintf("<L[%d] %s>", len(s.children), strings.Join(parts, " "))
}

func (s *listShape) check(item secs2.Item, path string) error {
	values, err := listValues(item, path)
	if err != nil {
		return err
	}

	if len(values) != len(s.children) {
		return mismatch(path, "expected list of %d, got %d", len(s.children), len(values))
	}

	for i, child := range s.children {
		if err := child.check(values[i], childPath(path, i)); err != nil {
			return err
		}
	}

	return nil
}

type listOfShape struct {
	elem Shape
}

func (s *listOfShape) Validate(item secs2.Item) error { return s.check(item, rootPath) }
func (s *listOfShape) String() string                 { return fmt.Sprintf("<L[n] %s>", s.elem) }

func (s *listOfShape) check(item secs2.Item, path string) error {
	values, err := listValues(item, path)
	if err != nil {
		return err
	}

	for i, v := range values {
		if err := s.elem.check(v, childPath(path, i)); err != nil {
			return err
		}
	}

	return nil
}

type oneOfShape struct {
	alternatives []Shape
}

func (s *oneOfShape) Validate(item secs2.Item) error { return s.check(item, rootPath) }

func (s *oneOfShape) String() string {
	parts := make([]string, 0, len(s.alternatives))
	for _, a := range s.alternatives {
		parts = append(parts, a.String())
	}

	return strings.Join(parts, " | ")
}

// check reports the error of the alternative that matched deepest, so that a body with the
// right structure but a bad leaf value is reported as such instead of as a shape mismatch.
func (s *oneOfShape) check(item secs2.Item, path string) error {
	var best error
	for _, alt := range s.alternatives {
		err := alt.check(item, path)
		if err == nil {
			return nil
		}

		if best == nil || depth(err) > depth(best) {
			best = err
		}
	}

	if best == nil {
		return mismatch(path, "no alternatives")
	}

	return best
}

type emptyShape struct{}

func (emptyShape) Validate(item secs2.Item) error { return emptyShape{}.check(item, rootPath) }
func (emptyShape) String() string                 { return "<empty>" }

func (emptyShape) check(item secs2.Item, path string) error {
	if item != nil && !item.IsEmpty() {
		return mismatch(path, "expected header-only message, got %s", item.Kind())
	}

	return nil
}

func listValues(item secs2.Item, path string) ([]secs2.Item, error) {
	if item == nil || item.IsEmpty() {
		return nil, mismatch(path, "expected list, got empty body")
	}

	if !item.IsList() {
		return nil, mismatch(path, "expected list, got %s", item.Kind())
	}

	return item.ToList()
}

func childPath(path string, i int) string {
	return fmt.Sprintf("%s[%d]", path, i)
}

func mismatch(path string, format string, args ...any) *BodyError {
	return &BodyError{Path: path, Err: fmt.Errorf("%w: %s", ErrShapeMismatch, fmt.Sprintf(format, args...))}
}

// depth ranks a validation error: leaf value errors rank above structural mismatches at the
// same path, and deeper paths rank above shallower ones.
func depth(err error) int {
	be, ok := err.(*BodyError) //nolint:errorlint
	if !ok {
		return 0
	}

	d := 2 * strings.Count(be.Path, "[")
	if !isShapeMismatch(be.Err) {
		d++
	}

	return d
}
