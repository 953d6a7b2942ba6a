package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roomly-dev/roomly/internal/models"
)

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd(g *Globals) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWhoami(cmd.Context(), g.options()...)
		},
	}
}

func runWhoami(ctx context.Context, opts ...Option) error {
	o, err := resolveOptions(opts)
	if err != nil {
		return err
	}

	user, err := newCLISession(o).requireUser(ctx)
	if err != nil {
		return err
	}

	printUser(o.out, user)
	return nil
}

func printUser(w io.Writer, user *models.User) {
	fmt.Fprintf(w, "  User: %s (%s)\n", user.Name, user.Email)
	if user.PhoneNumber != "" {
		fmt.Fprintf(w, "  Phone: %s\n", user.PhoneNumber)
	}
	if user.IsAdmin() {
		fmt.Fprintln(w, "  Role: Admin")
	}
}
