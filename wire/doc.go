// Package wire decodes single-line, space-delimited text commands in the
// style of the Music Player Daemon protocol, and reads and writes the
// responses that answer them.
//
// # Command Lines
//
// A command line is a command name followed by at most one argument:
//
//	status
//	pause "1"
//	setvol "80"
//	volume "-5"
//	listplaylist "Road Trip"
//	listplaylist favorites
//
// Booleans and integers are always quoted. Strings are quoted, or given
// unquoted when they are the last argument and contain no space. The line
// may end with a single line feed.
//
// # Decoding
//
// Decoding is driven by the caller: each Decoder method consumes the value
// shape it is asked for, and nothing else. No intermediate tree is built.
//
//	d := wire.NewDecoder(`"42"`)
//	n, err := d.DecodeUint32() // 42
//
// Commands are decoded against a CommandSet, which maps names to the
// argument decoder of each command variant:
//
//	cmd, err := wire.Unmarshal(line, commands)
//
// Unmarshal classifies the line, resolves the name, requires exactly one
// space before the argument, decodes the argument, then requires the end of
// the line (or one line feed). Package schema provides a CommandSet built
// from a table of variants.
//
// Strings returned by the decoder are substrings of the input line. Nothing
// is copied.
//
// # Errors
//
// Data errors are *SyntaxError values carrying the cursor offset and wrapping
// one sentinel (ErrEOF, ErrExpectedBoolean, ErrExpectedInteger,
// ErrExpectedString, ErrExpectedNull, ErrExpectedCommandSpace,
// ErrExpectedCommandNewline, ErrTrailingCharacters):
//
//	if errors.Is(err, wire.ErrExpectedBoolean) {
//	    ...
//	}
//
// Errors raised while decoding a known command are wrapped in *CommandError
// so the name is available to build the ACK line. Requests for shapes with
// no wire form (floats, bytes, sequences, maps, structs) fail with
// *UnsupportedShapeError.
//
// # Responses
//
// ReadResponse parses "key: value" lines terminated by OK, or an ACK line.
// ResponseWriter writes them on the server side. AckFromError maps decode
// failures to ACK codes.
//
// # Thread Safety
//
// A Decoder belongs to one decode pass. Independent passes share nothing and
// can run concurrently.
package wire
