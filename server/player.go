package server

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/pior/mpdcmd"
	"github.com/pior/mpdcmd/wire"
)

// Playback states, as reported by the status command.
const (
	StatePlay  = "play"
	StatePause = "pause"
	StateStop  = "stop"
)

type song struct {
	id  uint32
	uri string
}

// Player is an in-memory Handler: a queue of song URIs, stored playlists
// and playback settings. Nothing is actually played.
//
// A Player is safe for concurrent use by many sessions.
type Player struct {
	mu sync.Mutex

	state     string
	volume    int
	repeat    bool
	random    bool
	single    bool
	consume   bool
	crossfade uint32
	lastError string

	queue     []song
	current   int // index in queue, -1 when none
	nextID    uint32
	version   uint32
	playlists map[string][]string

	started time.Time
	shuffle func(n int, swap func(i, j int))
}

// NewPlayer returns a stopped player with an empty queue.
func NewPlayer() *Player {
	return &Player{
		state:     StateStop,
		volume:    50,
		current:   -1,
		nextID:    1,
		version:   1,
		playlists: make(map[string][]string),
		started:   time.Now(),
		shuffle:   rand.Shuffle,
	}
}

// Handle implements Handler.
func (p *Player) Handle(_ context.Context, _ *Session, cmd mpdcmd.Command, w *wire.ResponseWriter) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch cmd := cmd.(type) {
	case mpdcmd.Status:
		p.writeStatus(w)
	case mpdcmd.Stats:
		p.writeStats(w)
	case mpdcmd.CurrentSong:
		if p.current >= 0 {
			p.writeSong(w, p.current)
		}
	case mpdcmd.ClearError:
		p.lastError = ""
	case mpdcmd.Ping:
	case mpdcmd.Next:
		p.next()
	case mpdcmd.Previous:
		p.previous()
	case mpdcmd.Stop:
		p.state = StateStop
	case mpdcmd.Clear:
		p.queue = nil
		p.current = -1
		p.state = StateStop
		p.version++
	case mpdcmd.Shuffle:
		p.shuffleQueue()

	case mpdcmd.Pause:
		p.pause(cmd.Paused)
	case mpdcmd.Random:
		p.random = cmd.Enabled
	case mpdcmd.Repeat:
		p.repeat = cmd.Enabled
	case mpdcmd.Single:
		p.single = cmd.Enabled
	case mpdcmd.Consume:
		p.consume = cmd.Enabled
	case mpdcmd.Crossfade:
		p.crossfade = cmd.Seconds

	case mpdcmd.Play:
		return p.play(cmd)
	case mpdcmd.PlayID:
		idx, ok := p.indexOf(cmd.ID)
		if !ok {
			return ack(wire.AckNoExist, cmd, "No such song")
		}
		p.current = idx
		p.state = StatePlay
	case mpdcmd.SetVol:
		if cmd.Volume > 100 {
			return ack(wire.AckArg, cmd, "Invalid volume value")
		}
		p.volume = int(cmd.Volume)
	case mpdcmd.Volume:
		p.volume = min(max(p.volume+int(cmd.Delta), 0), 100)
	case mpdcmd.Delete:
		if int(cmd.Pos) >= len(p.queue) {
			return ack(wire.AckArg, cmd, "Bad song index")
		}
		p.remove(int(cmd.Pos))
	case mpdcmd.DeleteID:
		idx, ok := p.indexOf(cmd.ID)
		if !ok {
			return ack(wire.AckNoExist, cmd, "No such song")
		}
		p.remove(idx)

	case mpdcmd.Add:
		if cmd.URI == "" {
			return ack(wire.AckArg, cmd, "Malformed URI")
		}
		id := p.append(cmd.URI)
		w.FieldInt("Id", int64(id))
	case mpdcmd.ListPlaylists:
		for _, name := range p.playlistNames() {
			w.Field("playlist", name)
		}
	case mpdcmd.PlaylistInfo:
		for i := range p.queue {
			p.writeSong(w, i)
		}
	case mpdcmd.ListPlaylist:
		uris, ok := p.playlists[cmd.Playlist]
		if !ok {
			return ack(wire.AckNoExist, cmd, "No such playlist")
		}
		for _, uri := range uris {
			w.Field("file", uri)
		}
	case mpdcmd.Load:
		uris, ok := p.playlists[cmd.Playlist]
		if !ok {
			return ack(wire.AckNoExist, cmd, "No such playlist")
		}
		for _, uri := range uris {
			p.append(uri)
		}
	case mpdcmd.Save:
		if cmd.Playlist == "" {
			return ack(wire.AckArg, cmd, "Invalid playlist name")
		}
		if _, ok := p.playlists[cmd.Playlist]; ok {
			return ack(wire.AckExist, cmd, "Playlist already exists")
		}
		p.playlists[cmd.Playlist] = lo.Map(p.queue, func(s song, _ int) string { return s.uri })
	case mpdcmd.Rm:
		if _, ok := p.playlists[cmd.Playlist]; !ok {
			return ack(wire.AckNoExist, cmd, "No such playlist")
		}
		delete(p.playlists, cmd.Playlist)

	default:
		return ack(wire.AckUnknown, cmd, fmt.Sprintf("unsupported command %q", cmd.Name()))
	}

	return nil
}

func ack(code wire.AckCode, cmd mpdcmd.Command, message string) *wire.AckError {
	return &wire.AckError{Code: code, Command: cmd.Name(), Message: message}
}

func (p *Player) writeStatus(w *wire.ResponseWriter) {
	w.FieldInt("volume", int64(p.volume))
	w.FieldBool("repeat", p.repeat)
	w.FieldBool("random", p.random)
	w.FieldBool("single", p.single)
	w.FieldBool("consume", p.consume)
	w.FieldInt("playlist", int64(p.version))
	w.FieldInt("playlistlength", int64(len(p.queue)))
	w.FieldInt("xfade", int64(p.crossfade))
	w.Field("state", p.state)
	if p.current >= 0 {
		w.FieldInt("song", int64(p.current))
		w.FieldInt("songid", int64(p.queue[p.current].id))
	}
	if p.lastError != "" {
		w.Field("error", p.lastError)
	}
}

func (p *Player) writeStats(w *wire.ResponseWriter) {
	uris := lo.Map(p.queue, func(s song, _ int) string { return s.uri })
	for _, playlist := range p.playlists {
		uris = append(uris, playlist...)
	}

	w.FieldInt("songs", int64(len(lo.Uniq(uris))))
	w.FieldInt("playlists", int64(len(p.playlists)))
	w.FieldInt("uptime", int64(time.Since(p.started).Seconds()))
}

func (p *Player) writeSong(w *wire.ResponseWriter, idx int) {
	s := p.queue[idx]
	w.Field("file", s.uri)
	w.Field("Pos", strconv.Itoa(idx))
	w.FieldInt("Id", int64(s.id))
}

func (p *Player) playlistNames() []string {
	names := lo.Keys(p.playlists)
	slices.Sort(names)
	return names
}

func (p *Player) play(cmd mpdcmd.Play) error {
	if cmd.Pos != nil {
		if int(*cmd.Pos) >= len(p.queue) {
			return ack(wire.AckArg, cmd, "Bad song index")
		}
		p.current = int(*cmd.Pos)
		p.state = StatePlay
		return nil
	}

	if len(p.queue) == 0 {
		return nil
	}
	if p.current < 0 {
		p.current = 0
	}
	p.state = StatePlay
	return nil
}

func (p *Player) pause(paused bool) {
	switch {
	case p.state == StatePlay && paused:
		p.state = StatePause
	case p.state == StatePause && !paused:
		p.state = StatePlay
	}
}

func (p *Player) next() {
	if p.current < 0 {
		return
	}

	if p.single && !p.repeat {
		p.state = StateStop
		return
	}

	finished := p.current
	p.current++
	if p.current >= len(p.queue) {
		if p.repeat {
			p.current = 0
		} else {
			p.current = -1
			p.state = StateStop
		}
	}

	if p.consume {
		p.remove(finished)
	}
}

func (p *Player) previous() {
	if p.current < 0 {
		return
	}
	if p.current > 0 {
		p.current--
	} else if p.repeat {
		p.current = len(p.queue) - 1
	}
}

func (p *Player) shuffleQueue() {
	var currentID uint32
	if p.current >= 0 {
		currentID = p.queue[p.current].id
	}

	p.shuffle(len(p.queue), func(i, j int) {
		p.queue[i], p.queue[j] = p.queue[j], p.queue[i]
	})

	if p.current >= 0 {
		p.current, _ = p.indexOf(currentID)
	}
	p.version++
}

func (p *Player) append(uri string) uint32 {
	id := p.nextID
	p.nextID++
	p.queue = append(p.queue, song{id: id, uri: uri})
	p.version++
	return id
}

// remove deletes the song at idx and keeps current on the same song.
// Removing the current song stops playback.
func (p *Player) remove(idx int) {
	p.queue = slices.Delete(p.queue, idx, idx+1)
	p.version++

	switch {
	case p.current == idx:
		p.current = -1
		p.state = StateStop
	case p.current > idx:
		p.current--
	}
}

func (p *Player) indexOf(id uint32) (int, bool) {
	idx := slices.IndexFunc(p.queue, func(s song) bool { return s.id == id })
	return idx, idx >= 0
}
