package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pior/mpdcmd/wire"
)

type op struct {
	name string
	arg  any
}

type volume int8

func newTestTable(t *testing.T) *Table[op] {
	t.Helper()
	table, err := New(
		Bare("status", func() op { return op{name: "status"} }),
		Arg("pause", Bool(), func(b bool) op { return op{name: "pause", arg: b} }),
		Arg("setvol", Uint[uint8](), func(n uint8) op { return op{name: "setvol", arg: n} }),
		Arg("volume", Int[volume](), func(n volume) op { return op{name: "volume", arg: n} }),
		Arg("load", String(), func(s string) op { return op{name: "load", arg: s} }),
		OptionalArg("play", Uint[uint32](), func(n *uint32) op {
			if n == nil {
				return op{name: "play"}
			}
			return op{name: "play", arg: *n}
		}),
	)
	require.NoError(t, err)
	return table
}

func TestTableUnmarshal(t *testing.T) {
	table := newTestTable(t)

	tests := []struct {
		line string
		want op
	}{
		{line: "status", want: op{name: "status"}},
		{line: `pause "1"`, want: op{name: "pause", arg: true}},
		{line: `setvol "100"`, want: op{name: "setvol", arg: uint8(100)}},
		{line: `volume "-10"`, want: op{name: "volume", arg: volume(-10)}},
		{line: `load "Road Trip"`, want: op{name: "load", arg: "Road Trip"}},
		{line: "load favorites\n", want: op{name: "load", arg: "favorites"}},
		{line: "play", want: op{name: "play"}},
		{line: "play null", want: op{name: "play"}},
		{line: `play "4"`, want: op{name: "play", arg: uint32(4)}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := table.Unmarshal(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTableUnmarshalErrors(t *testing.T) {
	table := newTestTable(t)

	tests := []struct {
		line    string
		wantErr error
	}{
		{line: "bogus", wantErr: wire.ErrUnknownCommand},
		{line: "status extra", wantErr: wire.ErrUnexpectedArgument},
		{line: "pause", wantErr: wire.ErrMissingArgument},
		{line: `setvol "256"`, wantErr: wire.ErrExpectedInteger},
		{line: `volume "-129"`, wantErr: wire.ErrExpectedInteger},
		{line: `play "x"`, wantErr: wire.ErrExpectedInteger},
		{line: `load "x`, wantErr: wire.ErrEOF},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			_, err := table.Unmarshal(tt.line)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestTableBareCommandWithArgument(t *testing.T) {
	table := newTestTable(t)

	_, err := table.Unmarshal("status extra")
	assert.ErrorIs(t, err, wire.ErrUnexpectedArgument)
	assert.ErrorIs(t, err, wire.ErrExpectedString)

	ack := wire.AckFromError(0, err)
	assert.Equal(t, `wrong number of arguments for "status"`, ack.Message)
}

func TestValueShapes(t *testing.T) {
	assert.Equal(t, wire.ShapeBool, Bool().Shape)
	assert.Equal(t, wire.ShapeString, String().Shape)
	assert.Equal(t, wire.ShapeUint8, Uint[uint8]().Shape)
	assert.Equal(t, wire.ShapeUint16, Uint[uint16]().Shape)
	assert.Equal(t, wire.ShapeUint32, Uint[uint32]().Shape)
	assert.Equal(t, wire.ShapeUint64, Uint[uint64]().Shape)
	assert.Equal(t, wire.ShapeInt8, Int[int8]().Shape)
	assert.Equal(t, wire.ShapeInt16, Int[int16]().Shape)
	assert.Equal(t, wire.ShapeInt32, Int[int32]().Shape)
	assert.Equal(t, wire.ShapeInt64, Int[int64]().Shape)
	assert.Equal(t, wire.ShapeInt8, Int[volume]().Shape)
}

func TestNewRejectsInvalidTables(t *testing.T) {
	status := func() op { return op{} }

	tests := []struct {
		name     string
		variants []Variant[op]
		wantErr  error
	}{
		{
			name:     "empty name",
			variants: []Variant[op]{Bare("", status)},
			wantErr:  ErrInvalidName,
		},
		{
			name:     "name with space",
			variants: []Variant[op]{Bare("list all", status)},
			wantErr:  ErrInvalidName,
		},
		{
			name:     "name with quote",
			variants: []Variant[op]{Bare(`a"b`, status)},
			wantErr:  ErrInvalidName,
		},
		{
			name:     "name with line feed",
			variants: []Variant[op]{Bare("a\n", status)},
			wantErr:  ErrInvalidName,
		},
		{
			name:     "duplicate",
			variants: []Variant[op]{Bare("status", status), Bare("status", status)},
			wantErr:  ErrDuplicateName,
		},
		{
			name: "unsupported shape",
			variants: []Variant[op]{Arg("seek", Value[float64]{
				Shape:  wire.ShapeFloat64,
				Decode: func(*wire.Decoder) (float64, error) { return 0, nil },
			}, func(float64) op { return op{} })},
			wantErr: wire.ErrUnsupportedShape,
		},
		{
			name:     "missing decoder",
			variants: []Variant[op]{Arg("pause", Value[bool]{Shape: wire.ShapeBool}, func(bool) op { return op{} })},
			wantErr:  ErrInvalidValue,
		},
		{
			name:     "missing constructor",
			variants: []Variant[op]{Bare[op]("status", nil)},
			wantErr:  ErrInvalidValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.variants...)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestMustNewPanics(t *testing.T) {
	assert.Panics(t, func() {
		MustNew(Bare("", func() op { return op{} }))
	})
}

func TestTableIntrospection(t *testing.T) {
	table := newTestTable(t)

	assert.Equal(t, []string{"load", "pause", "play", "setvol", "status", "volume"}, table.Names())
	assert.Equal(t, 6, table.Len())
	assert.True(t, table.Has("pause"))
	assert.False(t, table.Has("bogus"))

	v, ok := table.Lookup("setvol")
	require.True(t, ok)
	assert.Equal(t, "setvol", v.Name())
	assert.Equal(t, wire.ShapeUint8, v.Shape())

	v, ok = table.Lookup("status")
	require.True(t, ok)
	assert.Equal(t, wire.ShapeNone, v.Shape())
}

func TestWidth(t *testing.T) {
	assert.Equal(t, 8, width[uint8]())
	assert.Equal(t, 8, width[int8]())
	assert.Equal(t, 16, width[int16]())
	assert.Equal(t, 32, width[uint32]())
	assert.Equal(t, 64, width[int64]())
	assert.Equal(t, 64, width[uint64]())
}
