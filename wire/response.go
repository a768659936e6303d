package wire

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Protocol markers
const (
	// GreetingPrefix starts the line a server sends when a client connects.
	// Format: OK MPD <version>\n
	GreetingPrefix = "OK MPD "

	// OK terminates a successful response.
	OK = "OK"

	// AckPrefix starts an error response.
	// Format: ACK [<code>@<index>] {<command>} <message>\n
	AckPrefix = "ACK "

	// FieldSeparator separates the key and the value of a response field.
	FieldSeparator = ": "
)

// AckCode is the numeric error code of an ACK response.
type AckCode int

const (
	AckNotList       AckCode = 1
	AckArg           AckCode = 2
	AckPassword      AckCode = 3
	AckPermission    AckCode = 4
	AckUnknown       AckCode = 5
	AckNoExist       AckCode = 50
	AckPlaylistMax   AckCode = 51
	AckSystem        AckCode = 52
	AckPlaylistLoad  AckCode = 53
	AckUpdateAlready AckCode = 54
	AckPlayerSync    AckCode = 55
	AckExist         AckCode = 56
)

// AckError is an error response sent by the server.
// The protocol state is intact after an ACK: the connection can be reused.
type AckError struct {
	Code    AckCode
	Index   int    // position of the failing command in a command list, 0 otherwise
	Command string // name of the failing command, empty for unknown commands
	Message string
}

func (e *AckError) Error() string {
	return fmt.Sprintf("ACK [%d@%d] {%s} %s", e.Code, e.Index, e.Command, e.Message)
}

// ShouldCloseConnection returns false - ACK responses don't corrupt protocol state
func (e *AckError) ShouldCloseConnection() bool {
	return false
}

// ResponseError reports a response that could not be parsed.
// The connection should be closed as its state is uncertain.
type ResponseError struct {
	Message string
	Err     error
}

func (e *ResponseError) Error() string {
	if e.Err != nil {
		return "wire: invalid response: " + e.Message + ": " + e.Err.Error()
	}
	return "wire: invalid response: " + e.Message
}

func (e *ResponseError) Unwrap() error {
	return e.Err
}

// ShouldCloseConnection returns true - parse failures leave the stream in an unknown state
func (e *ResponseError) ShouldCloseConnection() bool {
	return true
}

// ConnectionError wraps I/O errors from connection operations.
type ConnectionError struct {
	Op  string // read, write, dial
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("wire: connection error during %s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// ShouldCloseConnection returns true - the connection is already broken
func (e *ConnectionError) ShouldCloseConnection() bool {
	return true
}

// ErrorWithConnectionState is implemented by errors that know whether the
// connection they happened on can be reused.
type ErrorWithConnectionState interface {
	error
	ShouldCloseConnection() bool
}

// ShouldCloseConnection reports whether err leaves the connection unusable.
// Unknown errors are treated conservatively: close.
func ShouldCloseConnection(err error) bool {
	if err == nil {
		return false
	}

	var e ErrorWithConnectionState
	if errors.As(err, &e) {
		return e.ShouldCloseConnection()
	}

	return true
}

// Field is one "key: value" line of a response.
type Field struct {
	Key   string
	Value string
}

// Response is a parsed server response.
type Response struct {
	Fields []Field

	// Ack is set when the server answered with an error line.
	// Fields read before the error line are kept.
	Ack *AckError
}

// Get returns the value of the first field with the given key.
func (r *Response) Get(key string) (string, bool) {
	for _, f := range r.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// All returns the values of every field with the given key, in order.
func (r *Response) All(key string) []string {
	var values []string
	for _, f := range r.Fields {
		if f.Key == key {
			values = append(values, f.Value)
		}
	}
	return values
}

// Err returns the ACK error of the response, or nil.
func (r *Response) Err() error {
	if r.Ack == nil {
		return nil
	}
	return r.Ack
}

// ReadGreeting reads the line a server sends on connect and returns the
// protocol version it announces.
func ReadGreeting(r *bufio.Reader) (string, error) {
	line, err := readLine(r)
	if err != nil {
		return "", err
	}

	version, ok := strings.CutPrefix(string(line), GreetingPrefix)
	if !ok || version == "" {
		return "", &ResponseError{Message: "invalid greeting: " + string(line)}
	}
	return version, nil
}

// ReadResponse reads response lines until OK or an ACK line.
//
// An ACK from the server is not returned as a Go error: it is set on
// Response.Ack. Go errors are I/O failures (*ConnectionError) and malformed
// lines (*ResponseError); in both cases the connection should be closed.
func ReadResponse(r *bufio.Reader) (*Response, error) {
	resp := &Response{}

	for {
		line, err := readLine(r)
		if err != nil {
			return nil, err
		}

		if string(line) == OK {
			return resp, nil
		}

		if bytes.HasPrefix(line, []byte(AckPrefix)) {
			ack, err := ParseAck(string(line))
			if err != nil {
				return nil, err
			}
			resp.Ack = ack
			return resp, nil
		}

		key, value, found := bytes.Cut(line, []byte(FieldSeparator))
		if !found || len(key) == 0 {
			return nil, &ResponseError{Message: "malformed line: " + string(line)}
		}

		resp.Fields = append(resp.Fields, Field{Key: string(key), Value: string(value)})
	}
}

// ParseAck parses an ACK line, with or without its line feed.
func ParseAck(line string) (*AckError, error) {
	line = strings.TrimRight(line, "\r\n")

	rest, ok := strings.CutPrefix(line, AckPrefix)
	if !ok || !strings.HasPrefix(rest, "[") {
		return nil, &ResponseError{Message: "malformed ACK: " + line}
	}

	end := strings.IndexByte(rest, ']')
	if end < 0 {
		return nil, &ResponseError{Message: "malformed ACK: " + line}
	}

	codeStr, indexStr, found := strings.Cut(rest[1:end], "@")
	if !found {
		return nil, &ResponseError{Message: "malformed ACK: " + line}
	}

	code, err := strconv.Atoi(codeStr)
	if err != nil {
		return nil, &ResponseError{Message: "invalid ACK code", Err: err}
	}
	index, err := strconv.Atoi(indexStr)
	if err != nil {
		return nil, &ResponseError{Message: "invalid ACK index", Err: err}
	}

	ack := &AckError{Code: AckCode(code), Index: index}

	rest = strings.TrimPrefix(rest[end+1:], " ")
	if strings.HasPrefix(rest, "{") {
		end := strings.IndexByte(rest, '}')
		if end < 0 {
			return nil, &ResponseError{Message: "malformed ACK: " + line}
		}
		ack.Command = rest[1:end]
		rest = strings.TrimPrefix(rest[end+1:], " ")
	}
	ack.Message = rest

	return ack, nil
}

// readLine reads one line and strips its terminator.
func readLine(r *bufio.Reader) ([]byte, error) {
	line, err := r.ReadSlice('\n')
	if err == bufio.ErrBufferFull {
		// Line exceeds buffer, fall back to ReadBytes (allocates)
		head := append([]byte(nil), line...)
		var tail []byte
		tail, err = r.ReadBytes('\n')
		line = append(head, tail...)
	}
	if err != nil {
		if err == io.EOF && len(line) > 0 {
			return nil, &ResponseError{Message: "truncated line", Err: io.ErrUnexpectedEOF}
		}
		return nil, &ConnectionError{Op: "read", Err: err}
	}

	line = bytes.TrimSuffix(line, []byte{'\n'})
	line = bytes.TrimSuffix(line, []byte{'\r'})
	return line, nil
}

// AckFromError converts a command failure into the ACK sent to the client.
// Decode errors for unknown commands map to AckUnknown, other decode errors
// to AckArg, anything else to AckSystem.
func AckFromError(index int, err error) *AckError {
	var ack *AckError
	if errors.As(err, &ack) {
		return ack
	}

	name, _ := CommandName(err)

	switch {
	case errors.Is(err, ErrUnknownCommand):
		return &AckError{Code: AckUnknown, Index: index, Message: fmt.Sprintf("unknown command %q", name)}
	case errors.Is(err, ErrMissingArgument), errors.Is(err, ErrUnexpectedArgument):
		return &AckError{Code: AckArg, Index: index, Command: name, Message: fmt.Sprintf("wrong number of arguments for %q", name)}
	case isDecodeError(err):
		return &AckError{Code: AckArg, Index: index, Command: name, Message: decodeMessage(err)}
	}

	return &AckError{Code: AckSystem, Index: index, Command: name, Message: err.Error()}
}

func isDecodeError(err error) bool {
	var se *SyntaxError
	return errors.As(err, &se)
}

// decodeMessage returns the sentinel message without its package prefix.
func decodeMessage(err error) string {
	var se *SyntaxError
	if errors.As(err, &se) {
		return strings.TrimPrefix(se.Err.Error(), "wire: ")
	}
	return err.Error()
}

// ResponseWriter writes server responses.
//
// Fields are held until the response is completed with OK, so that a command
// failing halfway only produces its ACK line. Call Flush to send buffered
// responses to the underlying writer.
type ResponseWriter struct {
	w       *bufio.Writer
	pending []byte
}

// NewResponseWriter returns a ResponseWriter writing to w.
func NewResponseWriter(w io.Writer) *ResponseWriter {
	bw, ok := w.(*bufio.Writer)
	if !ok {
		bw = bufio.NewWriter(w)
	}
	return &ResponseWriter{w: bw}
}

// Greeting writes the line sent to a client on connect.
func (rw *ResponseWriter) Greeting(version string) error {
	rw.pending = rw.pending[:0]
	_, err := rw.w.WriteString(GreetingPrefix + version + "\n")
	return err
}

// Field adds a "key: value" line to the current response.
func (rw *ResponseWriter) Field(key, value string) {
	rw.pending = append(rw.pending, key...)
	rw.pending = append(rw.pending, FieldSeparator...)
	rw.pending = append(rw.pending, value...)
	rw.pending = append(rw.pending, '\n')
}

// FieldInt adds a field with an integer value.
func (rw *ResponseWriter) FieldInt(key string, value int64) {
	rw.pending = append(rw.pending, key...)
	rw.pending = append(rw.pending, FieldSeparator...)
	rw.pending = strconv.AppendInt(rw.pending, value, 10)
	rw.pending = append(rw.pending, '\n')
}

// FieldBool adds a field with a 1 or 0 value.
func (rw *ResponseWriter) FieldBool(key string, value bool) {
	if value {
		rw.Field(key, "1")
	} else {
		rw.Field(key, "0")
	}
}

// OK completes the current response successfully.
func (rw *ResponseWriter) OK() error {
	rw.pending = append(rw.pending, OK...)
	rw.pending = append(rw.pending, '\n')
	_, err := rw.w.Write(rw.pending)
	rw.pending = rw.pending[:0]
	return err
}

// Ack discards the fields of the current response and writes an error line.
func (rw *ResponseWriter) Ack(ack *AckError) error {
	rw.pending = rw.pending[:0]
	_, err := rw.w.WriteString(ack.Error() + "\n")
	return err
}

// Flush sends buffered responses.
func (rw *ResponseWriter) Flush() error {
	return rw.w.Flush()
}
