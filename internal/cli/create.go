package cli

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/bitbond-network/bitbond/internal/app/escrow"
	"github.com/bitbond-network/bitbond/internal/daemon"
	"github.com/bitbond-network/bitbond/internal/domain"
	"github.com/bitbond-network/bitbond/internal/infra/chain"
)

func init() {
	createCmd.Flags().StringVar(&createAs, "as", "", "Acting principal (required)")
	createCmd.Flags().StringVar(&createBuddy, "buddy", "", "Principal who attests the outcome (required)")
	createCmd.Flags().StringVar(&createTitle, "title", "", "Task title")
	createCmd.Flags().StringVar(&createDesc, "description", "", "Task description")
	createCmd.Flags().Int64Var(&createStake, "stake", 0, "Stake amount to bond into escrow (required)")
	createCmd.Flags().Uint64Var(&createDeadline, "deadline", 0, "Deadline as an absolute block height")
	createCmd.Flags().DurationVar(&createDeadlineIn, "deadline-in", 0, "Deadline as a duration from now (resolved at 10m/block)")
	createCmd.MarkFlagRequired("as")
	createCmd.MarkFlagRequired("buddy")
	createCmd.MarkFlagRequired("stake")
	rootCmd.AddCommand(createCmd)
}

var (
	createAs         string
	createBuddy      string
	createTitle      string
	createDesc       string
	createStake      int64
	createDeadline   uint64
	createDeadlineIn time.Duration
)

var createCmd = &cobra.Command{
	Use:   "create TITLE",
	Short: "Create an accountability task with a bonded stake",
	Long: `Create a task: the stake is debited from your balance into escrow
until the buddy attests the outcome or the deadline plus grace period
elapses.

Example:
  bitbond create "Run a marathon" --as alice --buddy bob \
    --stake 1000000 --deadline-in 720h`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCreate,
}

func runCreate(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		createTitle = args[0]
	}

	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	deadline := createDeadline
	if deadline == 0 {
		if createDeadlineIn <= 0 {
			return fmt.Errorf("either --deadline or --deadline-in is required")
		}
		now := time.Now()
		deadline = chain.HeightForTime(d.Clock.Height(), now, now.Add(createDeadlineIn))
	}

	txid := uuid.New().String()
	id, err := d.Escrow.CreateTask(domain.Principal(createAs), escrow.CreateTaskParams{
		Buddy:       domain.Principal(createBuddy),
		Title:       createTitle,
		Description: createDesc,
		StakeAmount: createStake,
		Deadline:    deadline,
	}, txid)
	if err != nil {
		return err
	}

	fmt.Printf("Created task %d (stake %d bonded, deadline at height %d)\n", id, createStake, deadline)
	fmt.Printf("txid: %s\n", txid)
	return nil
}
