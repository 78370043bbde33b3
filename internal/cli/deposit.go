package cli

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/bitbond-network/bitbond/internal/daemon"
	"github.com/bitbond-network/bitbond/internal/domain"
)

func init() {
	rootCmd.AddCommand(depositCmd)
}

var depositCmd = &cobra.Command{
	Use:   "deposit PRINCIPAL AMOUNT",
	Short: "Credit a principal's balance from the reserve",
	Args:  cobra.ExactArgs(2),
	RunE:  runDeposit,
}

func runDeposit(cmd *cobra.Command, args []string) error {
	amount, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("parse amount: %w", err)
	}

	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	p := domain.Principal(args[0])
	txid := uuid.New().String()
	if err := d.Bank.Deposit(p, amount, txid); err != nil {
		return err
	}

	balance, err := d.Bank.Balance(p)
	if err != nil {
		return err
	}

	fmt.Printf("Deposited %d to %s (balance now %d)\n", amount, p, balance)
	fmt.Printf("txid: %s\n", txid)
	return nil
}
