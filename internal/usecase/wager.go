package usecase

import (
	"context"
	"sync"
)

// ActiveWagerSource reports external game ids that currently carry an
// active wager. Those games are exempt from pruning and tracked by the
// live sync loop.
type ActiveWagerSource interface {
	ActiveGameIDs(ctx context.Context) (map[string]struct{}, error)
}

// NoopWagerSource is used when no wagering system is attached.
type NoopWagerSource struct{}

func (NoopWagerSource) ActiveGameIDs(context.Context) (map[string]struct{}, error) {
	return nil, nil
}

// StaticWagerSource serves a mutable in-process id set. Tests and
// embedded deployments update it directly.
type StaticWagerSource struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

func NewStaticWagerSource(ids ...string) *StaticWagerSource {
	s := &StaticWagerSource{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return s
}

func (s *StaticWagerSource) ActiveGameIDs(context.Context) (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]struct{}, len(s.ids))
	for id := range s.ids {
		out[id] = struct{}{}
	}
	return out, nil
}

func (s *StaticWagerSource) Add(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids[id] = struct{}{}
}

func (s *StaticWagerSource) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ids, id)
}
