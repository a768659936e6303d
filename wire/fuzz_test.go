package wire

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"
)

// FuzzUnmarshal checks that arbitrary lines never panic and that every
// failure is one of the documented errors.
// Run with: go test -fuzz='^FuzzUnmarshal$' -fuzztime=60s ./wire
func FuzzUnmarshal(f *testing.F) {
	f.Add("status")
	f.Add("status\n")
	f.Add(`pause "1"`)
	f.Add(`pause "0"` + "\n")
	f.Add(`setvol "255"`)
	f.Add(`setvol "256"`)
	f.Add(`volume "-128"`)
	f.Add(`listplaylist "Road Trip"`)
	f.Add("listplaylist tet")
	f.Add(`listplaylist "test`)
	f.Add(`pause  "1"`)
	f.Add("status extra")
	f.Add("play null")
	f.Add(`play "3"`)
	f.Add("")
	f.Add(" ")
	f.Add("\n")
	f.Add("\"")
	f.Add("pause \"1\"\n\n")

	known := []error{
		ErrEOF,
		ErrExpectedBoolean,
		ErrExpectedInteger,
		ErrExpectedString,
		ErrExpectedNull,
		ErrExpectedCommandSpace,
		ErrExpectedCommandNewline,
		ErrTrailingCharacters,
		ErrUnknownCommand,
		ErrMissingArgument,
		ErrUnexpectedArgument,
	}

	f.Fuzz(func(t *testing.T, line string) {
		cmd, err := Unmarshal[testCommand](line, testCommands)
		if err == nil {
			if _, ok := testCommands[cmd.name]; !ok {
				t.Errorf("decoded unknown command %q from %q", cmd.name, line)
			}
			if !strings.HasPrefix(line, cmd.name) {
				t.Errorf("command %q is not a prefix of %q", cmd.name, line)
			}
			return
		}

		for _, k := range known {
			if errors.Is(err, k) {
				return
			}
		}
		t.Errorf("undocumented error for %q: %v", line, err)
	})
}

// FuzzDecodeString checks that decoded strings are always substrings of the
// input and that failures leave the cursor in place.
func FuzzDecodeString(f *testing.F) {
	f.Add(`""`)
	f.Add(`"abc"`)
	f.Add("abc def")
	f.Add("abc\n")
	f.Add(`"unterminated`)
	f.Add(" ")

	f.Fuzz(func(t *testing.T, input string) {
		d := NewDecoder(input)
		s, err := d.DecodeString()
		if err != nil {
			if d.Offset() != 0 {
				t.Errorf("cursor moved to %d on failure for %q", d.Offset(), input)
			}
			return
		}
		if !strings.Contains(input, s) {
			t.Errorf("decoded %q is not part of %q", s, input)
		}
		if d.Offset() == 0 {
			t.Errorf("successful decode of %q consumed nothing", input)
		}
	})
}

// FuzzReadResponse checks that the response reader never panics.
func FuzzReadResponse(f *testing.F) {
	f.Add([]byte("OK\n"))
	f.Add([]byte("volume: 80\nstate: play\nOK\n"))
	f.Add([]byte("ACK [50@0] {load} No such playlist\n"))
	f.Add([]byte("ACK [5@0] {} unknown command \"x\"\n"))
	f.Add([]byte("ACK [\n"))
	f.Add([]byte("ACK [5@0] {x\n"))
	f.Add([]byte("garbage\n"))
	f.Add([]byte("volume: 80"))
	f.Add([]byte(""))

	f.Fuzz(func(t *testing.T, data []byte) {
		resp, err := ReadResponse(bufio.NewReader(bytes.NewReader(data)))
		if err != nil {
			if !ShouldCloseConnection(err) {
				t.Errorf("read error should close the connection: %v", err)
			}
			return
		}
		for _, field := range resp.Fields {
			if field.Key == "" {
				t.Errorf("empty key in %q", data)
			}
		}
	})
}
