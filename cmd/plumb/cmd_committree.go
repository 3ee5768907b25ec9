package main

import (
	"fmt"
	"time"

	"github.com/odvcencio/plumb/pkg/object"
	"github.com/odvcencio/plumb/pkg/repo"
	"github.com/spf13/cobra"
)

func newCommitTreeCmd() *cobra.Command {
	var message string
	var parent string
	var signKey string

	cmd := &cobra.Command{
		Use:   "commit-tree <tree> -m <message> [-p <parent>] [--sign-key <path>]",
		Short: "Create a commit object from a tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if message == "" {
				return fmt.Errorf("commit message is required (-m)")
			}

			r, err := repo.Open(".")
			if err != nil {
				return err
			}
			tree, err := object.ParseHash(args[0])
			if err != nil {
				return err
			}

			var parentHash object.Hash
			if parent != "" {
				if parentHash, err = object.ParseHash(parent); err != nil {
					return err
				}
			}

			name, email, err := r.UserIdentity()
			if err != nil {
				return err
			}
			sig := object.Signature{Name: name, Email: email, When: time.Now()}

			commit := &object.Commit{
				Tree:      tree,
				Parent:    parentHash,
				Author:    sig,
				Committer: sig,
				Message:   message,
			}

			if cmd.Flags().Changed("sign-key") {
				signer, keyPath, err := newSSHCommitSigner(signKey)
				if err != nil {
					return err
				}
				sigStr, err := signer(object.SigningPayload(commit))
				if err != nil {
					return fmt.Errorf("sign commit with %q: %w", keyPath, err)
				}
				commit.SigString = sigStr
			}

			h, err := r.Store.Write(object.KindCommit, object.CommitPayload(commit))
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	cmd.Flags().StringVarP(&parent, "parent", "p", "", "parent commit hash")
	cmd.Flags().StringVar(&signKey, "sign-key", "", "SSH private key to sign the commit with (empty: default key)")
	return cmd
}
