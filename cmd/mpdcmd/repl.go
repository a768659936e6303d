package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pior/mpdcmd"
	"github.com/pior/mpdcmd/wire"
)

func newReplCmd(a *app) *cobra.Command {
	var zone string

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Send command lines to the configured servers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.config.Client
			if zone == "" {
				zone = cfg.Zone
			}

			client, err := mpdcmd.NewClient(cfg.Servers, cfg.ClientConfig(a.logger))
			if err != nil {
				return err
			}
			defer client.Close()

			return repl(cmd, client, zone)
		},
	}

	cmd.Flags().StringVar(&zone, "zone", "", "zone used to pick the server (overrides client.zone)")
	return cmd
}

func repl(cmd *cobra.Command, client *mpdcmd.Client, zone string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	scanner := bufio.NewScanner(cmd.InOrStdin())

	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "quit", "exit":
			return nil
		}

		resp, err := client.Exec(ctx, zone, line)
		printResult(out, resp, err)

		if ctx.Err() != nil {
			return nil
		}
	}
}

func printResult(w io.Writer, resp *wire.Response, err error) {
	if resp != nil {
		for _, f := range resp.Fields {
			fmt.Fprintf(w, "%s: %s\n", f.Key, f.Value)
		}
	}

	var ack *wire.AckError
	switch {
	case errors.As(err, &ack):
		fmt.Fprintln(w, ack.Error())
	case err != nil:
		fmt.Fprintln(w, "error:", err)
	default:
		fmt.Fprintln(w, "OK")
	}
}
