package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"coursemerge/internal/sessions"
)

func newCleanCommand(ctx *commandContext) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove the session's packages from the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *sessions.Store) error {
				out := cmd.OutOrStdout()
				if all {
					ids, err := store.SessionIDs(cmd.Context())
					if err != nil {
						return err
					}
					for _, id := range ids {
						if err := store.DeleteSession(cmd.Context(), id); err != nil {
							return err
						}
					}
					fmt.Fprintf(out, "Removed %d session(s)\n", len(ids))
					return nil
				}

				if err := store.DeleteSession(cmd.Context(), ctx.sessionID()); err != nil {
					return err
				}
				fmt.Fprintf(out, "Removed session %s\n", ctx.sessionID())
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Remove every session, not just the current one")
	return cmd
}
