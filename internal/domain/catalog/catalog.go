package catalog

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Sport is one upstream provider API, e.g. "basketball" served from
// https://v1.basketball.api-sports.io.
type Sport struct {
	ID           string
	BaseURL      string
	UsesFixtures bool
}

// Host returns the hostname used for rate-limit accounting.
func (s Sport) Host() string {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s.BaseURL), "https://"), "http://")
	if idx := strings.IndexByte(trimmed, '/'); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return trimmed
}

// League is a competition within a sport for one season. Leagues are
// re-derived on every discovery run and never persisted.
type League struct {
	ID      int64
	Key     string
	Name    string
	Country string
	Season  int
	Sport   string
}

func (l League) Validate() error {
	if l.ID <= 0 {
		return fmt.Errorf("league id is required")
	}
	if strings.TrimSpace(l.Sport) == "" {
		return fmt.Errorf("league sport is required")
	}
	return nil
}

// LeagueConfig is one statically mapped league. The curated discovery
// mode builds the catalog from these rows alone.
type LeagueConfig struct {
	Key         string    `validate:"required"`
	Sport       string    `validate:"required"`
	LeagueID    int64     `validate:"required,gt=0"`
	Name        string    `validate:"required"`
	SeasonStart time.Time `validate:"required"`
	SeasonEnd   time.Time `validate:"required,gtfield=SeasonStart"`
}

// Config is the immutable league/sport configuration loaded once at
// startup and passed by reference into discovery and season helpers.
type Config struct {
	sports  map[string]Sport
	leagues []LeagueConfig
}

func NewConfig(sports []Sport, leagues []LeagueConfig) Config {
	byID := make(map[string]Sport, len(sports))
	for _, item := range sports {
		if strings.TrimSpace(item.ID) == "" {
			continue
		}
		byID[item.ID] = item
	}
	out := Config{
		sports:  byID,
		leagues: append([]LeagueConfig(nil), leagues...),
	}
	sort.SliceStable(out.leagues, func(i, j int) bool {
		if out.leagues[i].Sport != out.leagues[j].Sport {
			return out.leagues[i].Sport < out.leagues[j].Sport
		}
		return out.leagues[i].Key < out.leagues[j].Key
	})
	return out
}

func (c Config) SportByID(id string) (Sport, bool) {
	item, ok := c.sports[id]
	return item, ok
}

// Sports returns all configured sports in deterministic order.
func (c Config) Sports() []Sport {
	out := make([]Sport, 0, len(c.sports))
	for _, item := range c.sports {
		out = append(out, item)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (c Config) Leagues() []LeagueConfig {
	return append([]LeagueConfig(nil), c.leagues...)
}

func (c Config) LeagueByKey(key string) (LeagueConfig, bool) {
	for _, item := range c.leagues {
		if strings.EqualFold(item.Key, key) {
			return item, true
		}
	}
	return LeagueConfig{}, false
}
