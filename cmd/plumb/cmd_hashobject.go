package main

import (
	"fmt"
	"os"

	"github.com/odvcencio/plumb/pkg/object"
	"github.com/odvcencio/plumb/pkg/repo"
	"github.com/spf13/cobra"
)

func newHashObjectCmd() *cobra.Command {
	var write bool

	cmd := &cobra.Command{
		Use:   "hash-object [-w] <file>",
		Short: "Compute the blob hash of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("hash-object: %w", err)
			}

			h := object.HashObject(object.KindBlob, data)
			if write {
				r, err := repo.Open(".")
				if err != nil {
					return err
				}
				if h, err = r.Store.Write(object.KindBlob, data); err != nil {
					return err
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, "write the object into the object database")
	return cmd
}
