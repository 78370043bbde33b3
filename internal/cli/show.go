package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bitbond-network/bitbond/internal/daemon"
	"github.com/bitbond-network/bitbond/internal/domain"
)

func init() {
	rootCmd.AddCommand(showCmd)
}

var showCmd = &cobra.Command{
	Use:   "show TASK_ID",
	Short: "Show detailed information about a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	id, err := parseTaskID(args[0])
	if err != nil {
		return err
	}

	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	task, err := d.Escrow.Task(id)
	if err != nil {
		return err
	}
	if task == nil {
		return domain.ErrTaskNotFound
	}

	fmt.Printf("Task:        %d\n", task.ID)
	fmt.Printf("Title:       %s\n", task.Title)
	if task.Description != "" {
		fmt.Printf("Description: %s\n", task.Description)
	}
	fmt.Printf("Creator:     %s\n", task.Creator)
	fmt.Printf("Buddy:       %s\n", task.Buddy)
	fmt.Printf("Stake:       %d\n", task.StakeAmount)
	fmt.Printf("Status:      %s\n", task.Status)
	fmt.Printf("Created at:  height %d\n", task.CreatedAt)
	fmt.Printf("Deadline:    height %d\n", task.Deadline)
	if task.MarkedCompletedAt > 0 {
		fmt.Printf("Marked done: height %d\n", task.MarkedCompletedAt)
	}
	if task.Verified {
		fmt.Printf("Resolved at: height %d\n", task.VerificationTime)
	} else {
		fmt.Printf("Reclaimable: height %d (current %d)\n", task.ReclaimableAt(), d.Clock.Height())
	}

	return nil
}
