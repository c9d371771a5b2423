// Command chatcli is a terminal client for the chat API.
package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func main() {
	var opts clientOptions

	rootCmd := &cobra.Command{
		Use:   "chatcli",
		Short: "Terminal client for the easylaw chat API",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.validate()
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.server, "server", envOr("EASYLAW_SERVER", "http://localhost:3000"), "API base URL")
	rootCmd.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("EASYLAW_TOKEN"), "JWT access token")

	rootCmd.AddCommand(
		sessionsCmd(&opts),
		newSessionCmd(&opts),
		closeSessionCmd(&opts),
		historyCmd(&opts),
		chatCmd(&opts),
	)

	if err := rootCmd.Execute(); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
