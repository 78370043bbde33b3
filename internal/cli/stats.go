package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bitbond-network/bitbond/internal/daemon"
	"github.com/bitbond-network/bitbond/internal/domain"
)

func init() {
	rootCmd.AddCommand(statsCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats PRINCIPAL",
	Short: "Show a principal's lifetime task statistics",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	p := domain.Principal(args[0])
	stats, err := d.Escrow.UserStats(p)
	if err != nil {
		return err
	}
	balance, err := d.Bank.Balance(p)
	if err != nil {
		return err
	}

	fmt.Printf("Principal:       %s\n", p)
	fmt.Printf("Balance:         %d\n", balance)
	fmt.Printf("Tasks created:   %d\n", stats.TasksCreated)
	fmt.Printf("Tasks completed: %d\n", stats.TasksCompleted)
	fmt.Printf("Tasks failed:    %d\n", stats.TasksFailed)
	fmt.Printf("Total staked:    %d\n", stats.TotalStaked)

	return nil
}
