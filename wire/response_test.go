package wire

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reader(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

func TestReadGreeting(t *testing.T) {
	version, err := ReadGreeting(reader("OK MPD 0.23.5\n"))
	require.NoError(t, err)
	assert.Equal(t, "0.23.5", version)

	_, err = ReadGreeting(reader("HELLO\n"))
	var re *ResponseError
	require.ErrorAs(t, err, &re)
	assert.True(t, ShouldCloseConnection(err))

	_, err = ReadGreeting(reader(""))
	var ce *ConnectionError
	require.ErrorAs(t, err, &ce)
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadResponse(t *testing.T) {
	t.Run("fields", func(t *testing.T) {
		resp, err := ReadResponse(reader("volume: 80\nrepeat: 0\nstate: play\nOK\n"))
		require.NoError(t, err)
		require.NoError(t, resp.Err())
		assert.Len(t, resp.Fields, 3)

		state, ok := resp.Get("state")
		assert.True(t, ok)
		assert.Equal(t, "play", state)

		_, ok = resp.Get("song")
		assert.False(t, ok)
	})

	t.Run("empty", func(t *testing.T) {
		resp, err := ReadResponse(reader("OK\n"))
		require.NoError(t, err)
		assert.Empty(t, resp.Fields)
	})

	t.Run("repeated keys", func(t *testing.T) {
		resp, err := ReadResponse(reader("file: a.mp3\nfile: b.mp3\nOK\n"))
		require.NoError(t, err)
		assert.Equal(t, []string{"a.mp3", "b.mp3"}, resp.All("file"))
	})

	t.Run("value with separator", func(t *testing.T) {
		resp, err := ReadResponse(reader("Title: a: b\nOK\n"))
		require.NoError(t, err)
		title, _ := resp.Get("Title")
		assert.Equal(t, "a: b", title)
	})

	t.Run("carriage return", func(t *testing.T) {
		resp, err := ReadResponse(reader("volume: 80\r\nOK\r\n"))
		require.NoError(t, err)
		volume, _ := resp.Get("volume")
		assert.Equal(t, "80", volume)
	})

	t.Run("ack", func(t *testing.T) {
		resp, err := ReadResponse(reader("ACK [50@0] {listplaylist} No such playlist\n"))
		require.NoError(t, err)
		require.NotNil(t, resp.Ack)
		assert.Equal(t, AckNoExist, resp.Ack.Code)
		assert.Equal(t, "listplaylist", resp.Ack.Command)
		assert.Equal(t, "No such playlist", resp.Ack.Message)

		err = resp.Err()
		var ack *AckError
		require.ErrorAs(t, err, &ack)
		assert.False(t, ShouldCloseConnection(err))
	})

	t.Run("malformed line", func(t *testing.T) {
		_, err := ReadResponse(reader("garbage\nOK\n"))
		var re *ResponseError
		require.ErrorAs(t, err, &re)
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := ReadResponse(reader("volume: 80\nstate"))
		require.ErrorIs(t, err, io.ErrUnexpectedEOF)
		assert.True(t, ShouldCloseConnection(err))
	})

	t.Run("long line", func(t *testing.T) {
		long := strings.Repeat("x", 8192)
		r := bufio.NewReaderSize(strings.NewReader("file: "+long+"\nOK\n"), 16)
		resp, err := ReadResponse(r)
		require.NoError(t, err)
		file, _ := resp.Get("file")
		assert.Equal(t, long, file)
	})
}

func TestParseAck(t *testing.T) {
	tests := []struct {
		line string
		want AckError
	}{
		{
			line: "ACK [5@0] {} unknown command \"bogus\"",
			want: AckError{Code: AckUnknown, Message: `unknown command "bogus"`},
		},
		{
			line: "ACK [2@3] {pause} expected boolean\n",
			want: AckError{Code: AckArg, Index: 3, Command: "pause", Message: "expected boolean"},
		},
		{
			line: "ACK [4@0] {status} you don't have permission for \"status\"",
			want: AckError{Code: AckPermission, Command: "status", Message: `you don't have permission for "status"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			ack, err := ParseAck(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, *ack)
		})
	}
}

func TestParseAckMalformed(t *testing.T) {
	lines := []string{
		"ACK",
		"ACK 5@0",
		"ACK [5-0] {x} y",
		"ACK [x@0] {x} y",
		"ACK [5@y] {x} y",
		"ACK [5@0] {x y",
	}

	for _, line := range lines {
		t.Run(line, func(t *testing.T) {
			_, err := ParseAck(line)
			var re *ResponseError
			require.ErrorAs(t, err, &re)
		})
	}
}

func TestAckErrorRoundTrip(t *testing.T) {
	ack := &AckError{Code: AckArg, Index: 0, Command: "setvol", Message: "expected integer"}
	parsed, err := ParseAck(ack.Error())
	require.NoError(t, err)
	assert.Equal(t, ack, parsed)
}

func TestAckFromError(t *testing.T) {
	decode := func(line string) error {
		_, err := Unmarshal[testCommand](line, testCommands)
		require.Error(t, err)
		return err
	}

	tests := []struct {
		name string
		err  error
		want AckError
	}{
		{
			name: "unknown command",
			err:  decode("bogus"),
			want: AckError{Code: AckUnknown, Message: `unknown command "bogus"`},
		},
		{
			name: "missing argument",
			err:  decode("pause"),
			want: AckError{Code: AckArg, Command: "pause", Message: `wrong number of arguments for "pause"`},
		},
		{
			name: "unexpected argument",
			err:  decode("status extra"),
			want: AckError{Code: AckArg, Command: "status", Message: `wrong number of arguments for "status"`},
		},
		{
			name: "bad value",
			err:  decode(`setvol "x"`),
			want: AckError{Code: AckArg, Command: "setvol", Message: "expected integer"},
		},
		{
			name: "ack passthrough",
			err:  &AckError{Code: AckNoExist, Command: "load", Message: "No such playlist"},
			want: AckError{Code: AckNoExist, Command: "load", Message: "No such playlist"},
		},
		{
			name: "other",
			err:  errors.New("disk on fire"),
			want: AckError{Code: AckSystem, Message: "disk on fire"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, *AckFromError(0, tt.err))
		})
	}

	assert.Equal(t, 7, AckFromError(7, decode("bogus")).Index)
}

func TestResponseWriter(t *testing.T) {
	var buf bytes.Buffer
	rw := NewResponseWriter(&buf)

	require.NoError(t, rw.Greeting("0.23.5"))

	rw.Field("state", "play")
	rw.FieldInt("volume", -1)
	rw.FieldBool("repeat", true)
	rw.FieldBool("random", false)
	require.NoError(t, rw.OK())

	rw.Field("dropped", "yes")
	require.NoError(t, rw.Ack(&AckError{Code: AckArg, Command: "pause", Message: "expected boolean"}))

	assert.Empty(t, buf.String(), "nothing is written before Flush")
	require.NoError(t, rw.Flush())

	want := "OK MPD 0.23.5\n" +
		"state: play\nvolume: -1\nrepeat: 1\nrandom: 0\nOK\n" +
		"ACK [2@0] {pause} expected boolean\n"
	assert.Equal(t, want, buf.String())
}

func TestResponseWriterReadBack(t *testing.T) {
	var buf bytes.Buffer
	rw := NewResponseWriter(&buf)
	rw.Field("playlist", "Road Trip")
	rw.FieldInt("songs", 12)
	require.NoError(t, rw.OK())
	require.NoError(t, rw.Flush())

	resp, err := ReadResponse(bufio.NewReader(&buf))
	require.NoError(t, err)
	assert.Equal(t, []Field{{"playlist", "Road Trip"}, {"songs", "12"}}, resp.Fields)
}

func TestShouldCloseConnection(t *testing.T) {
	assert.False(t, ShouldCloseConnection(nil))
	assert.False(t, ShouldCloseConnection(&AckError{}))
	assert.True(t, ShouldCloseConnection(&ResponseError{Message: "x"}))
	assert.True(t, ShouldCloseConnection(&ConnectionError{Op: "read", Err: io.EOF}))
	assert.True(t, ShouldCloseConnection(errors.New("unknown")))
}
