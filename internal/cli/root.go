// Package cli implements the BitBond command-line interface using Cobra.
// Each subcommand maps to a ledger operation (create, verify, reclaim)
// or a local daemon concern (serve, status).
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "bitbond",
	Short: "BitBond: accountability contracts with staked escrow",
	Long: `BitBond is a goal-accountability escrow ledger.
Stake funds against a self-declared task, name a buddy to attest the
outcome, and the ledger settles the stake on attestation or expiry.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
