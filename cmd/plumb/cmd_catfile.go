package main

import (
	"fmt"
	"io"

	"github.com/odvcencio/plumb/pkg/object"
	"github.com/odvcencio/plumb/pkg/repo"
	"github.com/spf13/cobra"
)

func newCatFileCmd() *cobra.Command {
	var pretty bool

	cmd := &cobra.Command{
		Use:   "cat-file -p <object>",
		Short: "Show the contents of an object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !pretty {
				return fmt.Errorf("cat-file: only -p output is supported")
			}

			r, err := repo.Open(".")
			if err != nil {
				return err
			}
			h, err := object.ParseHash(args[0])
			if err != nil {
				return err
			}

			kind, _, rc, err := r.Store.Read(h)
			if err != nil {
				return err
			}
			defer rc.Close()

			out := cmd.OutOrStdout()
			switch kind {
			case object.KindBlob, object.KindCommit:
				// Raw payload copy; commit payloads are plain text.
				if _, err := io.Copy(out, rc); err != nil {
					return fmt.Errorf("cat-file %s: %w", h, err)
				}
			case object.KindTree:
				it := object.NewTreeIter(rc)
				for {
					e, err := it.Next()
					if err == io.EOF {
						break
					}
					if err != nil {
						return fmt.Errorf("cat-file %s: %w", h, err)
					}
					fmt.Fprintf(out, "%s %s %s\t%s\n", e.Mode, e.Kind(), e.Hash, e.Name)
				}
			default:
				return fmt.Errorf("cat-file %s: unexpected kind %q", h, kind)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&pretty, "pretty", "p", false, "pretty-print the object's content")
	return cmd
}
