package id

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// Generator stamps ingestion runs with unique ids so a run's log lines
// and its FetchRun summary can be correlated.
type Generator interface {
	RunID() (string, error)
}

// RunGenerator produces ids like "run-20250601T190000Z-3f2a9c0d". The
// timestamp prefix keeps ids sortable in log searches; the random
// suffix keeps runs started in the same second distinct.
type RunGenerator struct {
	now func() time.Time
}

func NewRunGenerator() *RunGenerator {
	return &RunGenerator{now: time.Now}
}

func (g *RunGenerator) RunID() (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}

	stamp := g.now().UTC().Format("20060102T150405Z")
	return fmt.Sprintf("run-%s-%s", stamp, hex.EncodeToString(buf)), nil
}
