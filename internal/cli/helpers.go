package cli

import (
	"fmt"
	"strconv"
)

// parseTaskID parses a positional TASK_ID argument.
func parseTaskID(arg string) (uint64, error) {
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("task id must be a positive integer, got %q", arg)
	}
	return id, nil
}
