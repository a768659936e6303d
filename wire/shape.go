package wire

// Shape identifies the kind of value a driver requests from the decoder.
type Shape uint8

const (
	ShapeNone Shape = iota
	ShapeBool
	ShapeUint8
	ShapeUint16
	ShapeUint32
	ShapeUint64
	ShapeInt8
	ShapeInt16
	ShapeInt32
	ShapeInt64
	ShapeString
	ShapeUnit

	// Shapes below have no wire representation.
	ShapeFloat32
	ShapeFloat64
	ShapeChar
	ShapeBytes
	ShapeSeq
	ShapeTuple
	ShapeMap
	ShapeStruct
	ShapeAny
)

var shapeNames = [...]string{
	ShapeNone:    "none",
	ShapeBool:    "bool",
	ShapeUint8:   "uint8",
	ShapeUint16:  "uint16",
	ShapeUint32:  "uint32",
	ShapeUint64:  "uint64",
	ShapeInt8:    "int8",
	ShapeInt16:   "int16",
	ShapeInt32:   "int32",
	ShapeInt64:   "int64",
	ShapeString:  "string",
	ShapeUnit:    "unit",
	ShapeFloat32: "float32",
	ShapeFloat64: "float64",
	ShapeChar:    "char",
	ShapeBytes:   "bytes",
	ShapeSeq:     "seq",
	ShapeTuple:   "tuple",
	ShapeMap:     "map",
	ShapeStruct:  "struct",
	ShapeAny:     "any",
}

func (s Shape) String() string {
	if int(s) < len(shapeNames) {
		return shapeNames[s]
	}
	return "unknown"
}

// Supported reports whether values of this shape can be decoded.
func (s Shape) Supported() bool {
	return s >= ShapeBool && s <= ShapeUnit
}

// UintShape returns the unsigned shape for an integer width in bits.
func UintShape(bits int) Shape {
	switch bits {
	case 8:
		return ShapeUint8
	case 16:
		return ShapeUint16
	case 32:
		return ShapeUint32
	case 64:
		return ShapeUint64
	}
	return ShapeNone
}

// IntShape returns the signed shape for an integer width in bits.
func IntShape(bits int) Shape {
	switch bits {
	case 8:
		return ShapeInt8
	case 16:
		return ShapeInt16
	case 32:
		return ShapeInt32
	case 64:
		return ShapeInt64
	}
	return ShapeNone
}

// Bits returns the width of an integer shape, or 0.
func (s Shape) Bits() int {
	switch s {
	case ShapeUint8, ShapeInt8:
		return 8
	case ShapeUint16, ShapeInt16:
		return 16
	case ShapeUint32, ShapeInt32:
		return 32
	case ShapeUint64, ShapeInt64:
		return 64
	}
	return 0
}
