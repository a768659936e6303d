package wire

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	quote    = '"'
	space    = ' '
	lineFeed = '\n'
	null     = "null"
)

// Decoder is a cursor over one command line.
//
// Every decode operation consumes a prefix of the remaining input and leaves
// the cursor untouched when it fails. Strings returned by the decoder are
// substrings of the line passed to NewDecoder and share its memory.
//
// A Decoder is not safe for concurrent use.
type Decoder struct {
	line string
	pos  int
}

// NewDecoder returns a decoder positioned at the start of line.
func NewDecoder(line string) *Decoder {
	return &Decoder{line: line}
}

// Remaining returns the unconsumed part of the line.
func (d *Decoder) Remaining() string {
	return d.line[d.pos:]
}

// Offset returns the byte position of the cursor.
func (d *Decoder) Offset() int {
	return d.pos
}

// Done reports whether the whole line has been consumed.
func (d *Decoder) Done() bool {
	return d.pos >= len(d.line)
}

// PeekChar returns the next character without consuming it.
func (d *Decoder) PeekChar() (rune, error) {
	if d.Done() {
		return 0, syntaxError(d.pos, ErrEOF)
	}
	r, _ := utf8.DecodeRuneInString(d.line[d.pos:])
	return r, nil
}

// NextChar consumes and returns the next character.
func (d *Decoder) NextChar() (rune, error) {
	if d.Done() {
		return 0, syntaxError(d.pos, ErrEOF)
	}
	r, size := utf8.DecodeRuneInString(d.line[d.pos:])
	d.pos += size
	return r, nil
}

// DecodeBool decodes the quoted literal "1" as true and "0" as false.
func (d *Decoder) DecodeBool() (bool, error) {
	rest := d.Remaining()
	switch {
	case strings.HasPrefix(rest, `"1"`):
		d.pos += 3
		return true, nil
	case strings.HasPrefix(rest, `"0"`):
		d.pos += 3
		return false, nil
	}
	return false, syntaxError(d.pos, ErrExpectedBoolean)
}

// DecodeUint decodes a quoted run of ASCII digits as an unsigned integer that
// fits in the given number of bits (1 to 64).
//
// Format: "<digit>+"
func (d *Decoder) DecodeUint(bits int) (uint64, error) {
	if bits <= 0 || bits > 64 {
		bits = 64
	}
	limit := ^uint64(0) >> (64 - bits)

	rest := d.Remaining()
	if len(rest) == 0 {
		return 0, syntaxError(d.pos, ErrEOF)
	}
	if rest[0] != quote {
		return 0, syntaxError(d.pos, ErrExpectedInteger)
	}
	if len(rest) == 1 {
		return 0, syntaxError(d.pos+1, ErrEOF)
	}
	if !isDigit(rest[1]) {
		return 0, syntaxError(d.pos+1, ErrExpectedInteger)
	}

	var n uint64
	for i := 1; i < len(rest); i++ {
		c := rest[i]
		switch {
		case isDigit(c):
			digit := uint64(c - '0')
			if n > (limit-digit)/10 {
				return 0, syntaxError(d.pos+i, ErrExpectedInteger)
			}
			n = n*10 + digit
		case c == quote:
			d.pos += i + 1
			return n, nil
		default:
			return 0, syntaxError(d.pos+i, ErrExpectedInteger)
		}
	}

	// Missing closing quote
	return 0, syntaxError(d.pos+len(rest), ErrExpectedInteger)
}

// DecodeInt decodes a quoted signed integer literal that fits in the given
// number of bits (1 to 64).
//
// Format: "[-+]<digit>+"
func (d *Decoder) DecodeInt(bits int) (int64, error) {
	if bits <= 0 || bits > 64 {
		bits = 64
	}

	rest := d.Remaining()
	if len(rest) == 0 {
		return 0, syntaxError(d.pos, ErrEOF)
	}
	if rest[0] != quote {
		return 0, syntaxError(d.pos, ErrExpectedString)
	}

	end := strings.IndexByte(rest[1:], quote)
	if end < 0 {
		return 0, syntaxError(d.pos+len(rest), ErrExpectedInteger)
	}

	n, err := strconv.ParseInt(rest[1:1+end], 10, bits)
	if err != nil {
		return 0, syntaxError(d.pos+1, ErrExpectedInteger)
	}

	d.pos += end + 2
	return n, nil
}

// DecodeString decodes a quoted literal, or an unquoted token running to the
// next space or line feed.
//
// A quoted literal ends at the next quote; there is no escaping. The space
// that ends an unquoted token is consumed, a line feed is not.
func (d *Decoder) DecodeString() (string, error) {
	rest := d.Remaining()
	if len(rest) == 0 {
		return "", syntaxError(d.pos, ErrEOF)
	}

	if rest[0] == quote {
		end := strings.IndexByte(rest[1:], quote)
		if end < 0 {
			return "", syntaxError(d.pos+len(rest), ErrEOF)
		}
		d.pos += end + 2
		return rest[1 : 1+end], nil
	}

	end := strings.IndexAny(rest, " \n")
	switch {
	case end < 0:
		d.pos = len(d.line)
		return rest, nil
	case end == 0:
		return "", syntaxError(d.pos, ErrExpectedString)
	case rest[end] == space:
		d.pos += end + 1
	default:
		d.pos += end
	}
	return rest[:end], nil
}

// DecodeIdentifier decodes a command name: the run of characters up to the
// next space or line feed, or to the end of the line. The delimiter is not
// consumed. It never fails; an exhausted input yields an empty name.
func (d *Decoder) DecodeIdentifier() string {
	rest := d.Remaining()
	end := strings.IndexAny(rest, " \n")
	if end < 0 {
		end = len(rest)
	}
	d.pos += end
	return rest[:end]
}

// DecodeOption consumes a bare null and reports the value as absent, or calls
// some to decode the present value and reports it as present.
func (d *Decoder) DecodeOption(some func(*Decoder) error) (bool, error) {
	if d.atNull() {
		d.pos += len(null)
		return false, nil
	}
	if err := some(d); err != nil {
		return false, err
	}
	return true, nil
}

// DecodeUnit consumes a bare null.
func (d *Decoder) DecodeUnit() error {
	if !d.atNull() {
		return syntaxError(d.pos, ErrExpectedNull)
	}
	d.pos += len(null)
	return nil
}

// Decode decodes a value of the given shape. Integers are returned with the
// Go type matching their width, ShapeUnit as struct{}.
//
// Shapes without a wire representation fail with *UnsupportedShapeError and
// leave the cursor untouched.
func (d *Decoder) Decode(s Shape) (any, error) {
	switch s {
	case ShapeBool:
		return d.DecodeBool()
	case ShapeUint8:
		return d.DecodeUint8()
	case ShapeUint16:
		return d.DecodeUint16()
	case ShapeUint32:
		return d.DecodeUint32()
	case ShapeUint64:
		return d.DecodeUint64()
	case ShapeInt8:
		return d.DecodeInt8()
	case ShapeInt16:
		return d.DecodeInt16()
	case ShapeInt32:
		return d.DecodeInt32()
	case ShapeInt64:
		return d.DecodeInt64()
	case ShapeString:
		return d.DecodeString()
	case ShapeUnit:
		if err := d.DecodeUnit(); err != nil {
			return nil, err
		}
		return struct{}{}, nil
	}
	return nil, &UnsupportedShapeError{Shape: s}
}

// DecodeUint8 decodes a quoted unsigned integer that fits in 8 bits.
func (d *Decoder) DecodeUint8() (uint8, error) {
	n, err := d.DecodeUint(8)
	return uint8(n), err
}

// DecodeUint16 is DecodeUint limited to 16 bits.
func (d *Decoder) DecodeUint16() (uint16, error) {
	n, err := d.DecodeUint(16)
	return uint16(n), err
}

// DecodeUint32 is DecodeUint limited to 32 bits.
func (d *Decoder) DecodeUint32() (uint32, error) {
	n, err := d.DecodeUint(32)
	return uint32(n), err
}

// DecodeUint64 decodes a quoted unsigned 64-bit integer.
func (d *Decoder) DecodeUint64() (uint64, error) {
	return d.DecodeUint(64)
}

// DecodeInt8 decodes a quoted signed integer that fits in 8 bits.
func (d *Decoder) DecodeInt8() (int8, error) {
	n, err := d.DecodeInt(8)
	return int8(n), err
}

// DecodeInt16 is DecodeInt limited to 16 bits.
func (d *Decoder) DecodeInt16() (int16, error) {
	n, err := d.DecodeInt(16)
	return int16(n), err
}

// DecodeInt32 is DecodeInt limited to 32 bits.
func (d *Decoder) DecodeInt32() (int32, error) {
	n, err := d.DecodeInt(32)
	return int32(n), err
}

// DecodeInt64 decodes a quoted signed 64-bit integer.
func (d *Decoder) DecodeInt64() (int64, error) {
	return d.DecodeInt(64)
}

// decodeTerminator accepts end of input or consumes a single line feed.
func (d *Decoder) decodeTerminator() error {
	if d.Done() {
		return nil
	}
	if d.line[d.pos] == lineFeed {
		d.pos++
		return nil
	}
	return syntaxError(d.pos, ErrExpectedCommandNewline)
}

// atNull reports whether the cursor is at a null token. The token must end
// at a space, a line feed or the end of the line.
func (d *Decoder) atNull() bool {
	rest := d.Remaining()
	if !strings.HasPrefix(rest, null) {
		return false
	}
	if len(rest) == len(null) {
		return true
	}
	next := rest[len(null)]
	return next == space || next == lineFeed
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
