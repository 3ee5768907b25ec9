package main

import (
	"fmt"

	"github.com/odvcencio/plumb/pkg/repo"
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Get and set repository options",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Print the value of a section.key option",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}
			val, err := r.ConfigGet(args[0])
			if err != nil {
				return err
			}
			if val != "" {
				fmt.Fprintln(cmd.OutOrStdout(), val)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a section.key option",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}
			return r.ConfigSet(args[0], args[1])
		},
	})

	return cmd
}
