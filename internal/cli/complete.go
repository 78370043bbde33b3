package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bitbond-network/bitbond/internal/daemon"
	"github.com/bitbond-network/bitbond/internal/domain"
)

func init() {
	completeCmd.Flags().StringVar(&completeAs, "as", "", "Acting principal, must be the task's creator (required)")
	completeCmd.MarkFlagRequired("as")
	rootCmd.AddCommand(completeCmd)
}

var completeAs string

var completeCmd = &cobra.Command{
	Use:   "complete TASK_ID",
	Short: "Self-declare a task completed, starting the buddy-response window",
	Long: `Mark your task as completed. No funds move; the task waits for the
buddy's attestation, and becomes reclaimable if the buddy stays silent
for the grace period.`,
	Args: cobra.ExactArgs(1),
	RunE: runComplete,
}

func runComplete(cmd *cobra.Command, args []string) error {
	id, err := parseTaskID(args[0])
	if err != nil {
		return err
	}

	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	if err := d.Escrow.MarkTaskCompleted(domain.Principal(completeAs), id); err != nil {
		return err
	}

	fmt.Printf("Task %d marked completed, awaiting buddy verification\n", id)
	return nil
}
