package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/adamwoolhether/tusc/client/protocol"
)

func newCreateCommand(a *app) *cobra.Command {
	var size string
	var metadata []string

	cmd := &cobra.Command{
		Use:   "create <endpoint>",
		Short: "Create an empty upload and print its URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			length, err := parseSize(size)
			if err != nil {
				return fmt.Errorf("--size: %w", err)
			}

			pairs, err := parseMetadata(metadata)
			if err != nil {
				return err
			}

			c, err := a.client()
			if err != nil {
				return err
			}

			url, err := c.Create(cmd.Context(), args[0], length, pairs...)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), url)
			return nil
		},
	}

	cmd.Flags().StringVarP(&size, "size", "s", "", "upload length, e.g. 10MiB (required)")
	cmd.Flags().StringArrayVarP(&metadata, "metadata", "m", nil, "metadata pair key=value (repeatable)")
	_ = cmd.MarkFlagRequired("size")

	return cmd
}

func parseMetadata(raw []string) ([]protocol.Pair, error) {
	pairs := make([]protocol.Pair, 0, len(raw))
	for _, kv := range raw {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("--metadata %q: want key=value", kv)
		}
		pairs = append(pairs, protocol.Pair{Key: key, Value: value})
	}

	return pairs, nil
}
