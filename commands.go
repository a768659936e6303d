package mpdcmd

import (
	"github.com/pior/mpdcmd/schema"
)

// Command is a decoded client command.
type Command interface {
	Name() string
}

// Commands without argument.
type (
	Status        struct{}
	Stats         struct{}
	CurrentSong   struct{}
	ClearError    struct{}
	Next          struct{}
	Previous      struct{}
	Stop          struct{}
	Clear         struct{}
	Ping          struct{}
	Close         struct{}
	ListPlaylists struct{}
	PlaylistInfo  struct{}
	Shuffle       struct{}
)

func (Status) Name() string        { return "status" }
func (Stats) Name() string         { return "stats" }
func (CurrentSong) Name() string   { return "currentsong" }
func (ClearError) Name() string    { return "clearerror" }
func (Next) Name() string          { return "next" }
func (Previous) Name() string      { return "previous" }
func (Stop) Name() string          { return "stop" }
func (Clear) Name() string         { return "clear" }
func (Ping) Name() string          { return "ping" }
func (Close) Name() string         { return "close" }
func (ListPlaylists) Name() string { return "listplaylists" }
func (PlaylistInfo) Name() string  { return "playlistinfo" }
func (Shuffle) Name() string       { return "shuffle" }

// Pause pauses playback when Paused is true, resumes it otherwise.
type Pause struct{ Paused bool }

type Random struct{ Enabled bool }
type Repeat struct{ Enabled bool }
type Single struct{ Enabled bool }
type Consume struct{ Enabled bool }

func (Pause) Name() string   { return "pause" }
func (Random) Name() string  { return "random" }
func (Repeat) Name() string  { return "repeat" }
func (Single) Name() string  { return "single" }
func (Consume) Name() string { return "consume" }

// Play starts playback at queue position Pos, or resumes when Pos is nil.
type Play struct{ Pos *uint32 }

// PlayID starts playback of the queued song with the given id.
type PlayID struct{ ID uint32 }

// SetVol sets the absolute volume. The player accepts 0 to 100.
type SetVol struct{ Volume uint8 }

// Volume changes the volume by a relative amount.
type Volume struct{ Delta int8 }

type Crossfade struct{ Seconds uint32 }

// Delete removes the song at a queue position.
type Delete struct{ Pos uint32 }

// DeleteID removes the queued song with the given id.
type DeleteID struct{ ID uint32 }

func (Play) Name() string      { return "play" }
func (PlayID) Name() string    { return "playid" }
func (SetVol) Name() string    { return "setvol" }
func (Volume) Name() string    { return "volume" }
func (Crossfade) Name() string { return "crossfade" }
func (Delete) Name() string    { return "delete" }
func (DeleteID) Name() string  { return "deleteid" }

// ListPlaylist lists the songs of a stored playlist.
type ListPlaylist struct{ Playlist string }

// Load appends a stored playlist to the queue.
type Load struct{ Playlist string }

// Save stores the queue as a playlist.
type Save struct{ Playlist string }

// Rm deletes a stored playlist.
type Rm struct{ Playlist string }

// Add appends a song to the queue.
type Add struct{ URI string }

// Password authenticates the session.
type Password struct{ Password string }

func (ListPlaylist) Name() string { return "listplaylist" }
func (Load) Name() string         { return "load" }
func (Save) Name() string         { return "save" }
func (Rm) Name() string           { return "rm" }
func (Add) Name() string          { return "add" }
func (Password) Name() string     { return "password" }

// Commands is the table of every command a server accepts.
var Commands = schema.MustNew(
	bare(Status{}),
	bare(Stats{}),
	bare(CurrentSong{}),
	bare(ClearError{}),
	bare(Next{}),
	bare(Previous{}),
	bare(Stop{}),
	bare(Clear{}),
	bare(Ping{}),
	bare(Close{}),
	bare(ListPlaylists{}),
	bare(PlaylistInfo{}),
	bare(Shuffle{}),

	schema.Arg("pause", schema.Bool(), func(b bool) Command { return Pause{Paused: b} }),
	schema.Arg("random", schema.Bool(), func(b bool) Command { return Random{Enabled: b} }),
	schema.Arg("repeat", schema.Bool(), func(b bool) Command { return Repeat{Enabled: b} }),
	schema.Arg("single", schema.Bool(), func(b bool) Command { return Single{Enabled: b} }),
	schema.Arg("consume", schema.Bool(), func(b bool) Command { return Consume{Enabled: b} }),

	schema.OptionalArg("play", schema.Uint[uint32](), func(pos *uint32) Command { return Play{Pos: pos} }),
	schema.Arg("playid", schema.Uint[uint32](), func(id uint32) Command { return PlayID{ID: id} }),
	schema.Arg("setvol", schema.Uint[uint8](), func(v uint8) Command { return SetVol{Volume: v} }),
	schema.Arg("volume", schema.Int[int8](), func(d int8) Command { return Volume{Delta: d} }),
	schema.Arg("crossfade", schema.Uint[uint32](), func(s uint32) Command { return Crossfade{Seconds: s} }),
	schema.Arg("delete", schema.Uint[uint32](), func(pos uint32) Command { return Delete{Pos: pos} }),
	schema.Arg("deleteid", schema.Uint[uint32](), func(id uint32) Command { return DeleteID{ID: id} }),

	schema.Arg("listplaylist", schema.String(), func(s string) Command { return ListPlaylist{Playlist: s} }),
	schema.Arg("load", schema.String(), func(s string) Command { return Load{Playlist: s} }),
	schema.Arg("save", schema.String(), func(s string) Command { return Save{Playlist: s} }),
	schema.Arg("rm", schema.String(), func(s string) Command { return Rm{Playlist: s} }),
	schema.Arg("add", schema.String(), func(s string) Command { return Add{URI: s} }),
	schema.Arg("password", schema.String(), func(s string) Command { return Password{Password: s} }),
)

func bare(cmd Command) schema.Variant[Command] {
	return schema.Bare(cmd.Name(), func() Command { return cmd })
}

// Parse decodes one command line.
func Parse(line string) (Command, error) {
	return Commands.Unmarshal(line)
}
