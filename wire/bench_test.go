package wire

import (
	"bufio"
	"io"
	"strings"
	"testing"
)

func BenchmarkUnmarshal_Bare(b *testing.B) {
	for b.Loop() {
		if _, err := Unmarshal[testCommand]("status", testCommands); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkUnmarshal_Bool(b *testing.B) {
	for b.Loop() {
		if _, err := Unmarshal[testCommand](`pause "1"`, testCommands); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkUnmarshal_String(b *testing.B) {
	for b.Loop() {
		if _, err := Unmarshal[testCommand](`listplaylist "Road Trip"`, testCommands); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDecodeUint64(b *testing.B) {
	for b.Loop() {
		d := NewDecoder(`"18446744073709551615"`)
		if _, err := d.DecodeUint64(); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkReadResponse(b *testing.B) {
	const status = "volume: 80\nrepeat: 0\nrandom: 1\nsingle: 0\nconsume: 0\nplaylist: 12\nstate: play\nOK\n"
	sr := strings.NewReader(status)
	r := bufio.NewReader(sr)

	for b.Loop() {
		sr.Reset(status)
		r.Reset(sr)
		if _, err := ReadResponse(r); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkResponseWriter(b *testing.B) {
	rw := NewResponseWriter(io.Discard)

	for b.Loop() {
		rw.Field("state", "play")
		rw.FieldInt("volume", 80)
		rw.FieldBool("repeat", false)
		if err := rw.OK(); err != nil {
			b.Fatal(err)
		}
	}
}
