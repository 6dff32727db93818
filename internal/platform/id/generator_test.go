package id

import (
	"strings"
	"testing"
	"time"
)

func TestRunIDCarriesTimestampAndRandomSuffix(t *testing.T) {
	gen := NewRunGenerator()
	gen.now = func() time.Time {
		return time.Date(2025, 6, 1, 19, 0, 0, 0, time.UTC)
	}

	runID, err := gen.RunID()
	if err != nil {
		t.Fatalf("run id: %v", err)
	}

	if !strings.HasPrefix(runID, "run-20250601T190000Z-") {
		t.Fatalf("run id %q missing timestamp prefix", runID)
	}
	if suffix := strings.TrimPrefix(runID, "run-20250601T190000Z-"); len(suffix) != 8 {
		t.Fatalf("run id suffix %q, want 8 hex chars", suffix)
	}

	other, err := gen.RunID()
	if err != nil {
		t.Fatalf("run id: %v", err)
	}
	if other == runID {
		t.Fatalf("two runs in the same second share id %q", runID)
	}
}
