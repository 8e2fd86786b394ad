// Package cmd provides the CLI commands for the supplier console.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "supplier-console",
	Short: "Supplier Console - session gateway for the supplier dashboard",
	Long: `Supplier Console sits between the supplier dashboard and the marketplace API.

It signs suppliers in against the marketplace, keeps their session in an
httpOnly cookie, guards every dashboard page, forwards authenticated calls
with the session's bearer token and relays realtime notifications.

Configuration is read from the environment:
  NEXT_PUBLIC_API_URL   marketplace REST base URL
  NEXT_PUBLIC_WS_URL    marketplace realtime base URL (default ws://localhost:5000)
  NEXTAUTH_SECRET       session signing secret (required)

Commands:
  serve            Start the HTTP server
  inspect-session  Decode and verify a session cookie value
  version          Print version information`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
