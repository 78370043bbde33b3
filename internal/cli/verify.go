package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/bitbond-network/bitbond/internal/daemon"
	"github.com/bitbond-network/bitbond/internal/domain"
)

func init() {
	verifyCmd.Flags().StringVar(&verifyAs, "as", "", "Acting principal, must be the task's buddy (required)")
	verifyCmd.Flags().BoolVar(&verifyFail, "fail", false, "Attest failure: the stake is forfeited")
	verifyCmd.MarkFlagRequired("as")
	rootCmd.AddCommand(verifyCmd)
}

var (
	verifyAs   string
	verifyFail bool
)

var verifyCmd = &cobra.Command{
	Use:   "verify TASK_ID",
	Short: "Attest a task's outcome as its buddy",
	Long: `Attest success (default) or failure (--fail). On success the stake
returns to the creator; on failure it is forfeited. A task can be
verified exactly once.`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func runVerify(cmd *cobra.Command, args []string) error {
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
	success, err := d.Escrow.VerifyTask(domain.Principal(verifyAs), id, !verifyFail, txid)
	if err != nil {
		return err
	}

	if success {
		fmt.Printf("Task %d verified as completed, stake released to creator\n", id)
	} else {
		fmt.Printf("Task %d verified as failed, stake forfeited\n", id)
	}
	fmt.Printf("txid: %s\n", txid)
	return nil
}
