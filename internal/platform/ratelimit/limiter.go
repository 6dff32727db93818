package ratelimit

import (
	"context"
	"sync"
	"time"
)

const window = time.Minute

// Limiter bounds outbound calls per upstream host with a sliding
// one-minute window. Acquire blocks until a slot frees, so the total
// call rate stays bounded regardless of caller fan-out.
type Limiter struct {
	mu    sync.Mutex
	limit int
	hosts map[string]*hostWindow

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

type hostWindow struct {
	mu     sync.Mutex
	stamps []time.Time
}

func New(callsPerMinute int) *Limiter {
	if callsPerMinute < 1 {
		callsPerMinute = 60
	}
	return &Limiter{
		limit: callsPerMinute,
		hosts: make(map[string]*hostWindow),
		now:   time.Now,
		sleep: sleepContext,
	}
}

// Acquire records one call slot for host, blocking while the host's
// window is full. It returns early only when ctx is cancelled.
func (l *Limiter) Acquire(ctx context.Context, host string) error {
	hw := l.hostWindow(host)

	for {
		hw.mu.Lock()
		now := l.now()
		hw.stamps = dropExpired(hw.stamps, now)

		if len(hw.stamps) < l.limit {
			hw.stamps = append(hw.stamps, now)
			hw.mu.Unlock()
			return nil
		}

		wait := hw.stamps[0].Add(window).Sub(now)
		hw.mu.Unlock()

		if wait <= 0 {
			continue
		}
		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

func (l *Limiter) hostWindow(host string) *hostWindow {
	l.mu.Lock()
	defer l.mu.Unlock()

	hw, ok := l.hosts[host]
	if !ok {
		hw = &hostWindow{}
		l.hosts[host] = hw
	}
	return hw
}

func dropExpired(stamps []time.Time, now time.Time) []time.Time {
	cutoff := now.Add(-window)
	idx := 0
	for idx < len(stamps) && !stamps[idx].After(cutoff) {
		idx++
	}
	if idx == 0 {
		return stamps
	}
	return append(stamps[:0], stamps[idx:]...)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
