package main

import (
	"fmt"

	"github.com/odvcencio/plumb/pkg/object"
	"github.com/odvcencio/plumb/pkg/repo"
	"github.com/spf13/cobra"
)

func newLsTreeCmd() *cobra.Command {
	var nameOnly bool
	var recurse bool

	cmd := &cobra.Command{
		Use:   "ls-tree [--name-only] [-r] <tree>",
		Short: "List the contents of a tree object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}
			h, err := object.ParseHash(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			if recurse {
				files, err := r.FlattenTree(h)
				if err != nil {
					return err
				}
				for _, f := range files {
					if nameOnly {
						fmt.Fprintln(out, f.Path)
						continue
					}
					fmt.Fprintf(out, "%s %s %s\t%s\n", f.Mode, object.KindBlob, f.Hash, f.Path)
				}
				return nil
			}

			entries, err := r.Store.ReadTree(h)
			if err != nil {
				return err
			}
			for _, e := range entries {
				if nameOnly {
					fmt.Fprintln(out, e.Name)
					continue
				}
				fmt.Fprintf(out, "%s %s %s\t%s\n", e.Mode, e.Kind(), e.Hash, e.Name)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&nameOnly, "name-only", false, "list only entry names")
	cmd.Flags().BoolVarP(&recurse, "recursive", "r", false, "recurse into subtrees, listing files with full paths")
	return cmd
}
