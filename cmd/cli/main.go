package main

import (
	"os"

	"github.com/crucial707/trade-tracker/cmd/cli/assets"
	"github.com/crucial707/trade-tracker/cmd/cli/audit"
	"github.com/crucial707/trade-tracker/cmd/cli/auth"
	"github.com/crucial707/trade-tracker/cmd/cli/materials"
	"github.com/crucial707/trade-tracker/cmd/cli/root"
	"github.com/crucial707/trade-tracker/cmd/cli/users"
)

func main() {
	rootCmd := root.GetRoot()
	auth.InitAuth(rootCmd)
	assets.InitAssets(rootCmd)
	materials.InitMaterials(rootCmd)
	audit.InitAudit(rootCmd)
	users.InitUsers(rootCmd)

	// Execute the root Cobra command
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
