package catalog

import (
	"testing"
	"time"
)

func TestAutoSeasonYear(t *testing.T) {
	start := time.Date(2025, 3, 27, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 9, 28, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		now  time.Time
		want int
	}{
		{"before window", time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC), 2024},
		{"inside window", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), 2025},
		{"after window", time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC), 2025},
		{"first day", start, 2025},
		{"last day", end, 2025},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := AutoSeasonYear(start, end, tc.now); got != tc.want {
				t.Fatalf("AutoSeasonYear(%s) = %d, want %d", tc.now, got, tc.want)
			}
		})
	}
}

func TestAutoSeasonYearCrossYearWindow(t *testing.T) {
	// NBA-style season spanning the calendar year boundary.
	start := time.Date(2024, 10, 22, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 22, 0, 0, 0, 0, time.UTC)

	if got := AutoSeasonYear(start, end, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)); got != 2024 {
		t.Fatalf("mid-season = %d, want 2024", got)
	}
	if got := AutoSeasonYear(start, end, time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)); got != 2023 {
		t.Fatalf("pre-season = %d, want 2023", got)
	}
	if got := AutoSeasonYear(start, end, time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)); got != 2025 {
		t.Fatalf("post-season = %d, want 2025", got)
	}
}

func TestLeagueConfigLeagueMaterialization(t *testing.T) {
	entry := LeagueConfig{
		Key:         "MLB",
		Sport:       "baseball",
		LeagueID:    1,
		SeasonStart: time.Date(2025, 3, 27, 0, 0, 0, 0, time.UTC),
		SeasonEnd:   time.Date(2025, 9, 28, 0, 0, 0, 0, time.UTC),
	}

	league := entry.League(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	if league.Name != "MLB" {
		t.Fatalf("name falls back to key, got %q", league.Name)
	}
	if league.Season != 2025 {
		t.Fatalf("season = %d, want 2025", league.Season)
	}
	if err := league.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}
