package main

import (
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/adamwoolhether/tusc/client/protocol"
)

func newHeadCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "head <upload-url>",
		Short: "Show the offset, length and metadata of an upload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}

			resp, err := c.Head(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
				return protocol.UnexpectedStatus("head", resp)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "offset: %s\n", resp.Header.Get(protocol.HeaderUploadOffset))
			if length, ok := protocol.ParseLength(resp); ok {
				fmt.Fprintf(out, "length: %d\n", length)
			}

			if raw := resp.Header.Get(protocol.HeaderUploadMetadata); raw != "" {
				pairs, err := protocol.DecodeMetadata(raw)
				if err != nil {
					return err
				}
				slices.SortFunc(pairs, func(x, y protocol.Pair) int {
					return strings.Compare(x.Key, y.Key)
				})
				for _, p := range pairs {
					fmt.Fprintf(out, "meta:   %s=%s\n", p.Key, p.Value)
				}
			}

			return nil
		},
	}
}
