package main

import (
	"crypto/sha256"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adamwoolhether/tusc/client/download"
)

func newDownloadCommand(a *app) *cobra.Command {
	var checksum string
	var skipExisting, quiet bool

	cmd := &cobra.Command{
		Use:   "download <upload-url> <dest>",
		Short: "Download the content of an upload to a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}

			var opts []download.Option
			if checksum != "" {
				opts = append(opts, download.WithChecksum(sha256.New(), checksum))
			}
			if skipExisting {
				opts = append(opts, download.WithSkipExisting())
			}

			h := c.DownloadFile(cmd.Context(), args[0], args[1], opts...)
			if !quiet {
				p := &progressPrinter{w: cmd.ErrOrStderr()}
				h.Subscribe(p.print)
				defer p.done()
			}

			n, err := h.Run()
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s %d\n", args[1], n)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&checksum, "sha256", "", "expected hex SHA-256 of the content")
	flags.BoolVar(&skipExisting, "skip-existing", false, "do nothing when dest already exists")
	flags.BoolVarP(&quiet, "quiet", "q", false, "do not print progress")

	return cmd
}
