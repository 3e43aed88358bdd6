package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the calmate application
var rootCmd = &cobra.Command{
	Use:   "calmate",
	Short: "Conversational scheduling assistant for Google Calendar and CalDAV",
	Long: `calmate turns classified scheduling requests into calendar operations.
It finds free time across calendars within business hours, proposes slots,
resolves follow-up replies such as "2" or "14時以降", and can undo the last
change.

It can run as:
  - An MCP (Model Context Protocol) server for AI assistants (serve)
  - A command-line tool for one-off searches and intents (slots, intent)`,
	SilenceUsage: true,
	PersistentPreRunE: func(*cobra.Command, []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load .env: %w", err)
		}
		return nil
	},
}

// version will be set by main
var version = "dev"

// Flags shared by all commands.
var (
	configPath         string
	debugMode          bool
	googleClientID     string
	googleClientSecret string
)

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "calmate version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the TOML config file (default: $XDG_CONFIG_HOME/calmate/config.toml)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&googleClientID, "google-client-id", "", "Google OAuth Client ID used to refresh stored tokens. Can also use GOOGLE_CLIENT_ID env var.")
	rootCmd.PersistentFlags().StringVar(&googleClientSecret, "google-client-secret", "", "Google OAuth Client Secret used to refresh stored tokens. Can also use GOOGLE_CLIENT_SECRET env var.")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newSlotsCmd())
	rootCmd.AddCommand(newIntentCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "calmate version %s\n", version)
		},
	}
}
