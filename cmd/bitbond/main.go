// Package main is the single-binary entrypoint for BitBond, an escrow
// ledger for goal-accountability contracts.
package main

import "github.com/bitbond-network/bitbond/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
