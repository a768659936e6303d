package mpdcmd

import (
	"github.com/zeebo/xxh3"

	"github.com/pior/mpdcmd/internal"
)

// ServerSelector picks the index of the server handling a zone, among
// serverCount servers.
type ServerSelector func(zone string, serverCount int) int

// DefaultServerSelector hashes the zone with xxh3 and maps it with jump
// consistent hashing, so that adding a server moves few zones.
func DefaultServerSelector(zone string, serverCount int) int {
	return internal.JumpHash(xxh3.HashString(zone), serverCount)
}
