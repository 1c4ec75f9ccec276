package root

import (
	"github.com/spf13/cobra"
)

// RootCmd is the top-level `tt` command.
var RootCmd = &cobra.Command{
	Use:   "tt",
	Short: "Trade Tracker CLI",
	Long: `Command line interface for the Trade Tracker API.

Set TRADE_TRACKER_API_URL to point at a server other than http://localhost:8080.`,
	SilenceUsage: true,
}

// GetRoot returns the RootCmd
func GetRoot() *cobra.Command {
	return RootCmd
}
