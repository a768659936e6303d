// Package server runs the line protocol over TCP: one session per
// connection, one command per line, each answered with OK or ACK.
//
// Commands are decoded with mpdcmd.Parse and executed by a Handler. Player is
// an in-memory Handler implementing the whole command set:
//
//	srv := server.New(server.NewPlayer(), server.Config{Password: "secret"})
//	err := srv.ListenAndServe(ctx, "127.0.0.1:6600")
package server
