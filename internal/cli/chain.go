package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/bitbond-network/bitbond/internal/daemon"
)

func init() {
	chainCmd.AddCommand(chainHeightCmd)
	chainCmd.AddCommand(chainAdvanceCmd)
	rootCmd.AddCommand(chainCmd)
}

var chainCmd = &cobra.Command{
	Use:   "chain",
	Short: "Inspect and advance the logical clock",
}

var chainHeightCmd = &cobra.Command{
	Use:   "height",
	Short: "Print the current block height",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := daemon.New()
		if err != nil {
			return err
		}
		defer d.Close()

		fmt.Println(d.Clock.Height())
		return nil
	},
}

var chainAdvanceCmd = &cobra.Command{
	Use:   "advance [BLOCKS]",
	Short: "Advance the clock, default one block",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		blocks := uint64(1)
		if len(args) == 1 {
			n, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil || n == 0 {
				return fmt.Errorf("blocks must be a positive integer")
			}
			blocks = n
		}

		d, err := daemon.New()
		if err != nil {
			return err
		}
		defer d.Close()

		h, err := d.Clock.Advance(blocks)
		if err != nil {
			return err
		}
		fmt.Printf("Advanced to height %d\n", h)
		return nil
	},
}
