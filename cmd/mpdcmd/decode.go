package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/pior/mpdcmd"
)

var errDecodeFailed = errors.New("some lines failed to decode")

func newDecodeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "decode [line...]",
		Short: "Decode command lines and print the typed commands",
		Long: "Decode each argument as one command line, or each line of stdin when no\n" +
			"argument is given, and print the decoded command or the decode error.",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			failed := false

			decode := func(line string) {
				if !decodeLine(out, line) {
					failed = true
				}
			}

			if len(args) > 0 {
				for _, line := range args {
					decode(line)
				}
			} else {
				scanner := bufio.NewScanner(cmd.InOrStdin())
				for scanner.Scan() {
					decode(scanner.Text())
				}
				if err := scanner.Err(); err != nil {
					return err
				}
			}

			if failed {
				return errDecodeFailed
			}
			return nil
		},
	}
}

func decodeLine(w io.Writer, line string) bool {
	cmd, err := mpdcmd.Parse(line)
	if err != nil {
		fmt.Fprintf(w, "%q: %v\n", line, err)
		return false
	}
	fmt.Fprintf(w, "%T %+v\n", cmd, cmd)
	return true
}
