package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <upload-url>",
		Short: "Terminate an upload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}

			deleted, err := c.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !deleted {
				return fmt.Errorf("server refused to delete %s", args[0])
			}

			fmt.Fprintln(cmd.OutOrStdout(), "deleted")
			return nil
		},
	}
}
