package main

import (
	"fmt"

	"github.com/odvcencio/plumb/pkg/repo"
	"github.com/spf13/cobra"
)

func newWriteTreeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "write-tree",
		Short: "Serialize the working tree into tree objects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			h, err := r.BuildTree(r.RootDir)
			if err != nil {
				return err
			}
			if h == "" {
				// Nothing to serialize; print nothing rather than an
				// empty hash.
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}
}
