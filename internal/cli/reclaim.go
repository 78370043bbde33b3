package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/bitbond-network/bitbond/internal/daemon"
	"github.com/bitbond-network/bitbond/internal/domain"
)

func init() {
	reclaimCmd.Flags().StringVar(&reclaimAs, "as", "", "Acting principal, must be the task's creator (required)")
	reclaimCmd.MarkFlagRequired("as")
	rootCmd.AddCommand(reclaimCmd)
}

var reclaimAs string

var reclaimCmd = &cobra.Command{
	Use:   "reclaim TASK_ID",
	Short: "Reclaim the stake of an expired, unverified task",
	Long: `Recover your stake after the deadline plus grace period has elapsed
with no buddy attestation.`,
	Args: cobra.ExactArgs(1),
	RunE: runReclaim,
}

func runReclaim(cmd *cobra.Command, args []string) error {
	id, err := parseTaskID(args[0])
	if err != nil {
		return err
	}

	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	txid := uuid.New().String()
	if _, err := d.Escrow.ReclaimExpiredStake(domain.Principal(reclaimAs), id, txid); err != nil {
		return err
	}

	fmt.Printf("Task %d expired, stake returned to creator\n", id)
	fmt.Printf("txid: %s\n", txid)
	return nil
}
