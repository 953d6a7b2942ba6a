package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/roomly-dev/roomly/internal/cli/config"
)

// NewLoginCmd creates the login command
func NewLoginCmd(g *Globals) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the booking service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd.Context(), email, password, g.options()...)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set ROOMLY_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set ROOMLY_PASSWORD, will prompt if not provided)")

	return cmd
}

func runLogin(ctx context.Context, email, password string, opts ...Option) error {
	// Check for environment variables (useful for scripts)
	if email == "" {
		email = os.Getenv("ROOMLY_EMAIL")
	}
	if password == "" {
		password = os.Getenv("ROOMLY_PASSWORD")
	}

	o, err := resolveOptions(opts)
	if err != nil {
		return err
	}

	if email == "" {
		email, err = promptEmail(o.savedEmail)
		if err != nil {
			return err
		}
	}
	if password == "" {
		password, err = promptPassword()
		if err != nil {
			return err
		}
	}

	s := newCLISession(o)
	fmt.Fprintf(o.out, "Logging in to %s...\n", o.apiURL)

	s.ctrl.Login(ctx, strings.TrimSpace(email), password)

	user := s.ctrl.Store().GetState().User
	if user == nil {
		return s.actionError("login")
	}
	if err := s.jar.Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	printUser(o.out, user)
	rememberLogin(o, email)
	return nil
}

var emailValidator = validator.New()

func validateEmail(input string) error {
	if err := emailValidator.Var(strings.TrimSpace(input), "required,email"); err != nil {
		return fmt.Errorf("enter a valid email address")
	}
	return nil
}

// promptEmail asks for the email address on a terminal
func promptEmail(suggested string) (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", fmt.Errorf("email is required in non-interactive mode (use --email flag or ROOMLY_EMAIL env var)")
	}

	prompt := promptui.Prompt{
		Label:    "Email",
		Default:  suggested,
		Validate: validateEmail,
	}
	email, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("prompt cancelled: %w", err)
	}
	return strings.TrimSpace(email), nil
}

// promptPassword reads a password without echoing it
func promptPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("password is required in non-interactive mode (use --password flag or ROOMLY_PASSWORD env var)")
	}

	fmt.Print("Password: ")
	bytePassword, err := term.ReadPassword(fd)
	fmt.Println() // New line after password input
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(bytePassword), nil
}

// rememberLogin saves the backend and email for the next login
func rememberLogin(o *runOptions, email string) {
	cfg, err := config.Load()
	if err != nil {
		return
	}
	cfg.APIURL = o.apiURL
	cfg.Email = strings.TrimSpace(email)
	if err := config.Save(cfg); err != nil {
		fmt.Fprintf(o.out, "Warning: failed to save config: %v\n", err)
	}
}
