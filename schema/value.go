package schema

import "github.com/pior/mpdcmd/wire"

// Value describes how one argument type is read from a command line.
type Value[T any] struct {
	Shape  wire.Shape
	Decode func(d *wire.Decoder) (T, error)
}

// Unsigned is the set of unsigned integer types an argument can decode to.
type Unsigned interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uint
}

// Signed is the set of signed integer types an argument can decode to.
type Signed interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~int
}

// Bool decodes "1" or "0".
func Bool() Value[bool] {
	return Value[bool]{
		Shape: wire.ShapeBool,
		Decode: func(d *wire.Decoder) (bool, error) {
			return d.DecodeBool()
		},
	}
}

// Uint decodes a quoted unsigned integer bounded by the width of T.
func Uint[T Unsigned]() Value[T] {
	bits := width[T]()
	return Value[T]{
		Shape: wire.UintShape(bits),
		Decode: func(d *wire.Decoder) (T, error) {
			n, err := d.DecodeUint(bits)
			return T(n), err
		},
	}
}

// Int decodes a quoted signed integer bounded by the width of T.
func Int[T Signed]() Value[T] {
	bits := width[T]()
	return Value[T]{
		Shape: wire.IntShape(bits),
		Decode: func(d *wire.Decoder) (T, error) {
			n, err := d.DecodeInt(bits)
			return T(n), err
		},
	}
}

// String decodes a quoted or unquoted string.
func String() Value[string] {
	return Value[string]{
		Shape: wire.ShapeString,
		Decode: func(d *wire.Decoder) (string, error) {
			return d.DecodeString()
		},
	}
}

// width counts the bits of an integer type by shifting a one out of it.
func width[T Unsigned | Signed]() int {
	n := 0
	for x := T(1); x != 0; x <<= 1 {
		n++
	}
	return n
}
