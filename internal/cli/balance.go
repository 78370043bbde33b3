package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bitbond-network/bitbond/internal/daemon"
	"github.com/bitbond-network/bitbond/internal/domain"
)

func init() {
	rootCmd.AddCommand(balanceCmd)
}

var balanceCmd = &cobra.Command{
	Use:   "balance PRINCIPAL",
	Short: "Show a principal's spendable balance",
	Args:  cobra.ExactArgs(1),
	RunE:  runBalance,
}

func runBalance(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	balance, err := d.Bank.Balance(domain.Principal(args[0]))
	if err != nil {
		return err
	}

	fmt.Println(balance)
	return nil
}
