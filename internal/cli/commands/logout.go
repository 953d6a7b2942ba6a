package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd(g *Globals) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(cmd.Context(), g.options()...)
		},
	}
}

func runLogout(ctx context.Context, opts ...Option) error {
	o, err := resolveOptions(opts)
	if err != nil {
		return err
	}

	s := newCLISession(o)
	if _, ok := s.jar.Token(); !ok {
		fmt.Fprintln(o.out, "Not logged in.")
		return nil
	}

	s.ctrl.Logout(ctx)

	// The local session goes even when the backend call failed
	if err := s.jar.Clear(); err != nil {
		return err
	}
	if len(s.failed) > 0 {
		return s.actionError("logout")
	}
	return nil
}
