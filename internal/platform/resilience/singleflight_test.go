package resilience

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestSingleFlightCollapsesConcurrentCalls(t *testing.T) {
	var flight SingleFlight
	var calls atomic.Int64

	release := make(chan struct{})
	var wg sync.WaitGroup
	results := make([]any, 10)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			value, err := flight.Do("games:nba:2025-06-01", func() (any, error) {
				calls.Add(1)
				<-release
				return "slice", nil
			})
			if err != nil {
				t.Errorf("do: %v", err)
			}
			results[i] = value
		}(i)
	}

	close(release)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Fatalf("loader ran %d times, want 1", got)
	}
	for i, value := range results {
		if value != "slice" {
			t.Fatalf("result %d = %v, want shared value", i, value)
		}
	}
}

func TestSingleFlightDistinctKeysRunIndependently(t *testing.T) {
	var flight SingleFlight

	first, err := flight.Do("a", func() (any, error) { return 1, nil })
	if err != nil || first != 1 {
		t.Fatalf("first = %v, %v", first, err)
	}
	second, err := flight.Do("b", func() (any, error) { return 2, nil })
	if err != nil || second != 2 {
		t.Fatalf("second = %v, %v", second, err)
	}

	// The key is released once its call finishes.
	again, err := flight.Do("a", func() (any, error) { return 3, nil })
	if err != nil || again != 3 {
		t.Fatalf("again = %v, %v", again, err)
	}
}
