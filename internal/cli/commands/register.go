package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roomly-dev/roomly/internal/models"
)

// NewRegisterCmd creates the register command
func NewRegisterCmd(g *Globals) *cobra.Command {
	var req models.RegisterRequest
	var role string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Role = models.Role(role)
			return runRegister(cmd.Context(), req, g.options()...)
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "Full name")
	cmd.Flags().StringVar(&req.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&req.PhoneNumber, "phone", "", "Phone number")
	cmd.Flags().StringVar(&req.Password, "password", "", "Password (will prompt if not provided)")
	cmd.Flags().StringVar(&role, "role", string(models.RoleUser), "Account role (user or admin)")

	return cmd
}

func runRegister(ctx context.Context, req models.RegisterRequest, opts ...Option) error {
	o, err := resolveOptions(opts)
	if err != nil {
		return err
	}

	if req.Password == "" {
		if req.Password, err = promptPassword(); err != nil {
			return err
		}
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Role == "" {
		req.Role = models.RoleUser
	}

	v, err := models.NewValidator()
	if err != nil {
		return err
	}
	if err := v.Struct(req); err != nil {
		return fmt.Errorf("invalid registration details: %w", err)
	}

	s := newCLISession(o)
	fmt.Fprintf(o.out, "Creating account on %s...\n", o.apiURL)

	s.ctrl.Register(ctx, req)

	user := s.ctrl.Store().GetState().User
	if user == nil {
		return s.actionError("registration")
	}
	if err := s.jar.Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	printUser(o.out, user)
	rememberLogin(o, req.Email)
	return nil
}
