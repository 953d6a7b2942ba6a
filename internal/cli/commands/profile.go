package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roomly-dev/roomly/internal/models"
)

// NewProfileCmd creates the profile command group
func NewProfileCmd(g *Globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage your profile",
	}

	var name, phone string
	update := &cobra.Command{
		Use:   "update",
		Short: "Change your name or phone number",
		RunE: func(cmd *cobra.Command, args []string) error {
			var u models.ProfileUpdate
			if cmd.Flags().Changed("name") {
				u.Name = &name
			}
			if cmd.Flags().Changed("phone") {
				u.PhoneNumber = &phone
			}
			return runProfileUpdate(cmd.Context(), u, g.options()...)
		},
	}
	update.Flags().StringVar(&name, "name", "", "New display name")
	update.Flags().StringVar(&phone, "phone", "", "New phone number")

	cmd.AddCommand(update)
	return cmd
}

func runProfileUpdate(ctx context.Context, u models.ProfileUpdate, opts ...Option) error {
	if u.Name == nil && u.PhoneNumber == nil {
		return fmt.Errorf("nothing to update (use --name or --phone)")
	}
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if u.PhoneNumber != nil && !models.ValidPhone(*u.PhoneNumber) {
		return fmt.Errorf("invalid phone number: %q", *u.PhoneNumber)
	}

	o, err := resolveOptions(opts)
	if err != nil {
		return err
	}

	s := newCLISession(o)
	if _, err := s.requireUser(ctx); err != nil {
		return err
	}

	user, err := s.ctrl.UpdateProfile(ctx, u)
	if err != nil {
		return err
	}

	fmt.Fprintln(o.out, "✓ Profile updated")
	printUser(o.out, user)
	return nil
}
