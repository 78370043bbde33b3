// Package chain provides the logical clock for deadline arithmetic.
// The ledger never reads wall-clock time. All deadlines are block
// heights against this monotonic counter, persisted across restarts.
package chain

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bitbond-network/bitbond/internal/infra/sqlite"
)

// BlockTime is the modeled real-world duration of one clock unit.
// 10 minutes per block, matching the original chain.
const BlockTime = 10 * time.Minute

const heightKey = "block_height"

// Clock is a persistent, monotonic block-height counter.
type Clock struct {
	mu     sync.RWMutex
	db     *sqlite.DB
	height uint64
}

// Open loads the clock from the store, starting at height 1 on first run.
func Open(db *sqlite.DB) (*Clock, error) {
	v, err := db.GetState(heightKey)
	if err != nil {
		return nil, fmt.Errorf("load block height: %w", err)
	}

	height := uint64(1)
	if v != "" {
		height, err = strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse block height %q: %w", v, err)
		}
	}
	return &Clock{db: db, height: height}, nil
}

// Height returns the current block height.
func (c *Clock) Height() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.height
}

// Advance moves the clock forward by n blocks and persists the new height.
func (c *Clock) Advance(n uint64) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.height + n
	if err := c.db.SetState(heightKey, strconv.FormatUint(next, 10)); err != nil {
		return c.height, fmt.Errorf("persist block height: %w", err)
	}
	c.height = next
	return next, nil
}

// Run advances the clock by one block every interval until ctx is done.
// Call in a goroutine when serving.
func (c *Clock) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h, err := c.Advance(1)
			if err != nil {
				log.Error().Err(err).Msg("block production failed")
				continue
			}
			log.Debug().Uint64("height", h).Msg("block produced")
		}
	}
}

// HeightForTime resolves a calendar deadline into a block height: the
// current height plus the rounded-up number of blocks between now and
// the target. Targets at or before now map to the current height.
func HeightForTime(current uint64, now, target time.Time) uint64 {
	delta := target.Sub(now)
	if delta <= 0 {
		return current
	}
	blocks := uint64(math.Ceil(float64(delta) / float64(BlockTime)))
	return current + blocks
}
