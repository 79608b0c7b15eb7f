package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newInfoCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info <endpoint>",
		Short: "Show the protocol versions, extensions and limits of a tus server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}

			info, err := c.ServerInfo(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			maxSize := "unlimited"
			if info.MaxSize > 0 {
				maxSize = humanize.IBytes(uint64(info.MaxSize))
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "version:    %s\n", info.Version)
			fmt.Fprintf(out, "supported:  %s\n", strings.Join(info.SupportedVersions, ", "))
			fmt.Fprintf(out, "extensions: %s\n", strings.Join(info.Extensions, ", "))
			fmt.Fprintf(out, "checksums:  %s\n", strings.Join(info.ChecksumAlgorithms, ", "))
			fmt.Fprintf(out, "max size:   %s\n", maxSize)

			return nil
		},
	}
}
