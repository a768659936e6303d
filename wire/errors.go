package wire

import (
	"errors"
	"fmt"
	"strconv"
)

// Decode errors. Every data error returned by a Decoder wraps exactly one of
// these and can be matched with errors.Is.
var (
	// ErrEOF is returned when the input is exhausted where more was required.
	ErrEOF = errors.New("wire: unexpected end of input")

	ErrExpectedBoolean = errors.New("wire: expected boolean")
	ErrExpectedInteger = errors.New("wire: expected integer")
	ErrExpectedString  = errors.New("wire: expected string")
	ErrExpectedNull    = errors.New("wire: expected null")

	// ErrExpectedCommandSpace is returned when a command name is not followed
	// by exactly one space.
	ErrExpectedCommandSpace = errors.New("wire: expected single space after command name")

	// ErrExpectedCommandNewline is returned when the argument of a command is
	// followed by anything other than end of input or a single line feed.
	ErrExpectedCommandNewline = errors.New("wire: expected end of command")

	// ErrTrailingCharacters is returned by Unmarshal when characters remain
	// after a complete command.
	ErrTrailingCharacters = errors.New("wire: trailing characters")
)

// Command resolution errors, returned by CommandSet implementations.
var (
	ErrUnknownCommand  = errors.New("wire: unknown command")
	ErrMissingArgument = errors.New("wire: missing argument")

	// ErrUnexpectedArgument is returned for an argument given to a command
	// that takes none. It also matches ErrExpectedString: the name was
	// expected to stand alone.
	ErrUnexpectedArgument error = unexpectedArgumentError{}
)

type unexpectedArgumentError struct{}

func (unexpectedArgumentError) Error() string { return "wire: unexpected argument" }
func (unexpectedArgumentError) Unwrap() error { return ErrExpectedString }

// ErrUnsupportedShape is wrapped by UnsupportedShapeError.
var ErrUnsupportedShape = errors.New("wire: unsupported shape")

// SyntaxError is a data error detected while decoding a line.
// Offset is the byte position of the cursor when the failure was detected.
type SyntaxError struct {
	Offset int
	Err    error
}

func (e *SyntaxError) Error() string {
	return e.Err.Error() + " at offset " + strconv.Itoa(e.Offset)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// UnknownCommandError reports a command name that no variant matches.
type UnknownCommandError struct {
	Name string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("wire: unknown command %q", e.Name)
}

func (e *UnknownCommandError) Unwrap() error {
	return ErrUnknownCommand
}

// UnsupportedShapeError is returned when a caller requests a value shape the
// decoder does not implement. It signals a programming error in the command
// schema, not malformed input.
type UnsupportedShapeError struct {
	Shape Shape
}

func (e *UnsupportedShapeError) Error() string {
	return "wire: unsupported shape " + e.Shape.String()
}

func (e *UnsupportedShapeError) Unwrap() error {
	return ErrUnsupportedShape
}

// CommandName returns the name of the command a decode error refers to, if
// the error carries one.
func CommandName(err error) (string, bool) {
	var ce *CommandError
	if errors.As(err, &ce) {
		return ce.Name, true
	}
	var ue *UnknownCommandError
	if errors.As(err, &ue) {
		return ue.Name, true
	}
	return "", false
}

// CommandError attaches the decoded command name to an error raised while
// decoding that command's argument or terminator.
type CommandError struct {
	Name string
	Err  error
}

func (e *CommandError) Error() string {
	return e.Name + ": " + e.Err.Error()
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

func syntaxError(offset int, err error) error {
	return &SyntaxError{Offset: offset, Err: err}
}
