package mpdcmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pior/mpdcmd/wire"
)

func ptr[T any](v T) *T {
	return &v
}

func TestParse(t *testing.T) {
	tests := []struct {
		line string
		want Command
	}{
		{line: "status", want: Status{}},
		{line: "stats\n", want: Stats{}},
		{line: "currentsong", want: CurrentSong{}},
		{line: "clearerror", want: ClearError{}},
		{line: "next", want: Next{}},
		{line: "previous", want: Previous{}},
		{line: "stop", want: Stop{}},
		{line: "clear", want: Clear{}},
		{line: "ping", want: Ping{}},
		{line: "close", want: Close{}},
		{line: "listplaylists", want: ListPlaylists{}},
		{line: "playlistinfo", want: PlaylistInfo{}},
		{line: "shuffle", want: Shuffle{}},

		{line: `pause "1"`, want: Pause{Paused: true}},
		{line: `pause "0"`, want: Pause{Paused: false}},
		{line: `random "1"`, want: Random{Enabled: true}},
		{line: `repeat "0"`, want: Repeat{Enabled: false}},
		{line: `single "1"`, want: Single{Enabled: true}},
		{line: `consume "1"` + "\n", want: Consume{Enabled: true}},

		{line: "play", want: Play{}},
		{line: "play null", want: Play{}},
		{line: `play "2"`, want: Play{Pos: ptr(uint32(2))}},
		{line: `playid "31"`, want: PlayID{ID: 31}},
		{line: `setvol "80"`, want: SetVol{Volume: 80}},
		{line: `volume "-5"`, want: Volume{Delta: -5}},
		{line: `volume "+5"`, want: Volume{Delta: 5}},
		{line: `crossfade "3"`, want: Crossfade{Seconds: 3}},
		{line: `delete "0"`, want: Delete{Pos: 0}},
		{line: `deleteid "7"`, want: DeleteID{ID: 7}},

		{line: `listplaylist "Road Trip"`, want: ListPlaylist{Playlist: "Road Trip"}},
		{line: "listplaylist favorites", want: ListPlaylist{Playlist: "favorites"}},
		{line: `load "favorites"`, want: Load{Playlist: "favorites"}},
		{line: `save "mix"`, want: Save{Playlist: "mix"}},
		{line: `rm "mix"`, want: Rm{Playlist: "mix"}},
		{line: `add "artist/album/01.flac"`, want: Add{URI: "artist/album/01.flac"}},
		{line: `password "hunter2"`, want: Password{Password: "hunter2"}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := Parse(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		line    string
		wantErr error
	}{
		{line: "", wantErr: wire.ErrUnknownCommand},
		{line: "idle", wantErr: wire.ErrUnknownCommand},
		{line: "status extra", wantErr: wire.ErrUnexpectedArgument},
		{line: "pause", wantErr: wire.ErrMissingArgument},
		{line: `pause "2"`, wantErr: wire.ErrExpectedBoolean},
		{line: `pause  "1"`, wantErr: wire.ErrExpectedCommandSpace},
		{line: `setvol "256"`, wantErr: wire.ErrExpectedInteger},
		{line: `setvol 80`, wantErr: wire.ErrExpectedInteger},
		{line: `volume "-129"`, wantErr: wire.ErrExpectedInteger},
		{line: `volume -5`, wantErr: wire.ErrExpectedString},
		{line: `listplaylist "test`, wantErr: wire.ErrEOF},
		{line: `load "a" "b"`, wantErr: wire.ErrExpectedCommandNewline},
		{line: "ping\n\n", wantErr: wire.ErrTrailingCharacters},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			_, err := Parse(tt.line)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCommandNamesMatchTable(t *testing.T) {
	for _, name := range Commands.Names() {
		v, ok := Commands.Lookup(name)
		require.True(t, ok)

		line := name
		switch v.Shape() {
		case wire.ShapeNone:
		case wire.ShapeBool:
			line += ` "1"`
		case wire.ShapeString:
			line += ` "x"`
		default:
			line += ` "1"`
		}

		cmd, err := Parse(line)
		require.NoError(t, err, line)
		assert.Equal(t, name, cmd.Name())
	}

	assert.Equal(t, 31, Commands.Len())
}
