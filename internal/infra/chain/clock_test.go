package chain

import (
	"testing"
	"time"

	"github.com/bitbond-network/bitbond/internal/infra/sqlite"
)

func TestClock_InitialHeight(t *testing.T) {
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer db.Close()

	clock, err := Open(db)
	if err != nil {
		t.Fatalf("chain.Open() error: %v", err)
	}
	if clock.Height() != 1 {
		t.Errorf("initial height = %d, want 1", clock.Height())
	}
}

func TestClock_AdvancePersists(t *testing.T) {
	dir := t.TempDir()
	db, err := sqlite.Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}

	clock, err := Open(db)
	if err != nil {
		t.Fatalf("chain.Open() error: %v", err)
	}

	h, err := clock.Advance(41)
	if err != nil {
		t.Fatalf("Advance() error: %v", err)
	}
	if h != 42 {
		t.Errorf("Advance(41) = %d, want 42", h)
	}
	db.Close()

	// Height survives a restart
	db, err = sqlite.Open(dir)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer db.Close()

	clock, err = Open(db)
	if err != nil {
		t.Fatalf("chain.Open() after reopen error: %v", err)
	}
	if clock.Height() != 42 {
		t.Errorf("height after reopen = %d, want 42", clock.Height())
	}
}

func TestHeightForTime(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		target time.Time
		want   uint64
	}{
		{"past", now.Add(-time.Hour), 100},
		{"now", now, 100},
		{"one block exactly", now.Add(10 * time.Minute), 101},
		{"partial block rounds up", now.Add(11 * time.Minute), 102},
		{"48 hours", now.Add(48 * time.Hour), 100 + 288},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HeightForTime(100, now, tt.target)
			if got != tt.want {
				t.Errorf("HeightForTime() = %d, want %d", got, tt.want)
			}
		})
	}
}
