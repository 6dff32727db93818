package catalog

import "time"

// AutoSeasonYear derives the season integer from a league's configured
// start/end dates and the reference time: inside the window the season
// is the start year, before the window it is the previous start year,
// after the window it is the end year.
func AutoSeasonYear(start, end, now time.Time) int {
	now = now.UTC()
	if now.Before(start) {
		return start.Year() - 1
	}
	if now.After(end) {
		return end.Year()
	}
	return start.Year()
}

// CurrentSeason resolves the active season for a mapped league.
func (l LeagueConfig) CurrentSeason(now time.Time) int {
	if l.SeasonStart.IsZero() || l.SeasonEnd.IsZero() {
		return now.UTC().Year()
	}
	return AutoSeasonYear(l.SeasonStart, l.SeasonEnd, now)
}

// League materializes the canonical League row for a mapped entry.
func (l LeagueConfig) League(now time.Time) League {
	name := l.Name
	if name == "" {
		name = l.Key
	}
	return League{
		ID:     l.LeagueID,
		Key:    l.Key,
		Name:   name,
		Season: l.CurrentSeason(now),
		Sport:  l.Sport,
	}
}
