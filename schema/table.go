package schema

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/pior/mpdcmd/wire"
)

var (
	ErrInvalidName   = errors.New("schema: invalid command name")
	ErrDuplicateName = errors.New("schema: duplicate command name")
	ErrInvalidValue  = errors.New("schema: invalid argument value")
)

// Variant is one command of a table: a name, and how to build the command
// from a bare line, from an argument, or both.
type Variant[C any] struct {
	name   string
	shape  wire.Shape
	bare   func() C
	decode wire.ArgumentDecoder[C]
}

// Name returns the command name.
func (v Variant[C]) Name() string {
	return v.name
}

// Shape returns the shape of the argument, or wire.ShapeNone for commands
// that take none.
func (v Variant[C]) Shape() wire.Shape {
	return v.shape
}

// Bare declares a command that takes no argument.
func Bare[C any](name string, build func() C) Variant[C] {
	return Variant[C]{name: name, shape: wire.ShapeNone, bare: build}
}

// Arg declares a command that requires one argument.
func Arg[C, T any](name string, value Value[T], build func(T) C) Variant[C] {
	v := Variant[C]{name: name, shape: value.Shape}
	if value.Decode == nil {
		return v
	}
	v.decode = func(d *wire.Decoder) (C, error) {
		x, err := value.Decode(d)
		if err != nil {
			var zero C
			return zero, err
		}
		return build(x), nil
	}
	return v
}

// OptionalArg declares a command whose argument can be left out, or given
// as null. build receives nil in both cases.
func OptionalArg[C, T any](name string, value Value[T], build func(*T) C) Variant[C] {
	v := Variant[C]{
		name:  name,
		shape: value.Shape,
		bare:  func() C { return build(nil) },
	}
	if value.Decode == nil {
		return v
	}
	v.decode = func(d *wire.Decoder) (C, error) {
		var x T
		present, err := d.DecodeOption(func(d *wire.Decoder) error {
			var err error
			x, err = value.Decode(d)
			return err
		})
		if err != nil {
			var zero C
			return zero, err
		}
		if !present {
			return build(nil), nil
		}
		return build(&x), nil
	}
	return v
}

// Table is a closed set of command variants. It implements
// wire.CommandSet and is safe for concurrent use once built.
type Table[C any] struct {
	variants map[string]Variant[C]
}

// New builds a table from variants.
func New[C any](variants ...Variant[C]) (*Table[C], error) {
	t := &Table[C]{variants: make(map[string]Variant[C], len(variants))}

	for _, v := range variants {
		if err := validate(v); err != nil {
			return nil, err
		}
		if _, ok := t.variants[v.name]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateName, v.name)
		}
		t.variants[v.name] = v
	}

	return t, nil
}

// MustNew is like New but panics on an invalid table.
func MustNew[C any](variants ...Variant[C]) *Table[C] {
	t, err := New(variants...)
	if err != nil {
		panic(err)
	}
	return t
}

func validate[C any](v Variant[C]) error {
	if v.name == "" || strings.ContainsAny(v.name, " \"\n\r") {
		return fmt.Errorf("%w: %q", ErrInvalidName, v.name)
	}
	if v.shape == wire.ShapeNone {
		if v.bare == nil {
			return fmt.Errorf("%w: %q has no constructor", ErrInvalidValue, v.name)
		}
		return nil
	}
	if !v.shape.Supported() {
		return fmt.Errorf("schema: command %q: %w", v.name, &wire.UnsupportedShapeError{Shape: v.shape})
	}
	if v.decode == nil {
		return fmt.Errorf("%w: %q has no decoder", ErrInvalidValue, v.name)
	}
	return nil
}

// Bare implements wire.CommandSet.
func (t *Table[C]) Bare(name string) (C, error) {
	v, ok := t.variants[name]
	if !ok {
		var zero C
		return zero, &wire.UnknownCommandError{Name: name}
	}
	if v.bare == nil {
		var zero C
		return zero, wire.ErrMissingArgument
	}
	return v.bare(), nil
}

// Variant implements wire.CommandSet.
func (t *Table[C]) Variant(name string) (wire.ArgumentDecoder[C], error) {
	v, ok := t.variants[name]
	if !ok {
		return nil, &wire.UnknownCommandError{Name: name}
	}
	if v.decode == nil {
		return nil, wire.ErrUnexpectedArgument
	}
	return v.decode, nil
}

// Unmarshal decodes one command line against the table.
func (t *Table[C]) Unmarshal(line string) (C, error) {
	return wire.Unmarshal[C](line, t)
}

// Has reports whether the table declares a command.
func (t *Table[C]) Has(name string) bool {
	_, ok := t.variants[name]
	return ok
}

// Lookup returns the variant declared for a command.
func (t *Table[C]) Lookup(name string) (Variant[C], bool) {
	v, ok := t.variants[name]
	return v, ok
}

// Names returns the declared command names, sorted.
func (t *Table[C]) Names() []string {
	names := lo.Keys(t.variants)
	slices.Sort(names)
	return names
}

// Len returns the number of declared commands.
func (t *Table[C]) Len() int {
	return len(t.variants)
}
