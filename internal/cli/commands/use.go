package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/roomly-dev/roomly/internal/cli/config"
)

// NewUseCmd creates the use command, which saves the backend URL
func NewUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use [api-url]",
		Short: "Choose the booking backend to talk to",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var apiURL string
			if len(args) == 1 {
				apiURL = args[0]
			} else {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				prompt := promptui.Prompt{
					Label:    "Backend URL",
					Default:  cfg.ResolveAPIURL(""),
					Validate: config.ValidateAPIURL,
				}
				if apiURL, err = prompt.Run(); err != nil {
					return fmt.Errorf("prompt cancelled: %w", err)
				}
			}
			return runUse(apiURL, os.Stdout)
		},
	}
}

func runUse(apiURL string, out io.Writer) error {
	apiURL = strings.TrimRight(strings.TrimSpace(apiURL), "/")
	if err := config.ValidateAPIURL(apiURL); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cfg.APIURL = apiURL
	if err := config.Save(cfg); err != nil {
		return err
	}

	fmt.Fprintf(out, "✓ Using %s\n", apiURL)
	return nil
}
