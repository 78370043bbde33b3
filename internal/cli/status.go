package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bitbond-network/bitbond/internal/daemon"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show ledger status: height, custody balance, next task id",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	custody, err := d.Escrow.ContractBalance()
	if err != nil {
		return err
	}
	nextID, err := d.Escrow.NextTaskID()
	if err != nil {
		return err
	}

	fmt.Printf("Block height:    %d\n", d.Clock.Height())
	fmt.Printf("Custody balance: %d\n", custody)
	fmt.Printf("Next task id:    %d\n", nextID)

	return nil
}
