package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roomly-dev/roomly/internal/cli/commands"
)

var version = "dev" // Will be set during build

var globals commands.Globals

var rootCmd = &cobra.Command{
	Use:   "roomly",
	Short: "Roomly - book co-working rooms from your terminal",
	Long: `Roomly CLI - Browse spaces and manage your room reservations.

Sign in once with 'roomly login'; the session is kept in your OS keychain.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&globals.APIURL, "api-url", "", "Backend URL (or set ROOMLY_API_URL)")
	rootCmd.PersistentFlags().BoolVarP(&globals.Verbose, "verbose", "v", false, "Log backend calls to stderr")

	// Add version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("roomly version %s\n", version)
		},
	})

	// Add all subcommands
	rootCmd.AddCommand(commands.NewLoginCmd(&globals))
	rootCmd.AddCommand(commands.NewRegisterCmd(&globals))
	rootCmd.AddCommand(commands.NewLogoutCmd(&globals))
	rootCmd.AddCommand(commands.NewWhoamiCmd(&globals))
	rootCmd.AddCommand(commands.NewProfileCmd(&globals))
	rootCmd.AddCommand(commands.NewSpacesCmd(&globals))
	rootCmd.AddCommand(commands.NewReservationsCmd(&globals))
	rootCmd.AddCommand(commands.NewUseCmd())
}

// Execute runs the root command
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
