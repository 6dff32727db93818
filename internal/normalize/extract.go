package normalize

import (
	"strconv"
	"strings"
)

// extracted is the provider-agnostic field set pulled out of one raw
// game object before canonical assembly.
type extracted struct {
	ID         string
	Date       string
	Timestamp  int64
	HomeID     string
	HomeName   string
	AwayID     string
	AwayName   string
	HomeScore  *int
	AwayScore  *int
	StatusCode string
	Venue      string
}

// ExtractFunc pulls the raw field set for one sport's payload shape.
type ExtractFunc func(fields map[string]any) extracted

var extractors = map[string]ExtractFunc{
	"football": extractFixture,
}

// extractorFor returns the sport-specific extractor, falling back to
// the generic nested-then-flat one.
func extractorFor(sport string) ExtractFunc {
	if fn, ok := extractors[strings.ToLower(sport)]; ok {
		return fn
	}
	return extractGeneric
}

// extractFixture handles the fixture-terminology shape where the event
// metadata lives under a "fixture" object and scores under "goals".
func extractFixture(fields map[string]any) extracted {
	fixture := digMap(fields, "fixture")

	out := extracted{
		ID:         asID(firstPresent(fixture["id"], fields["id"])),
		Date:       asString(firstPresent(fixture["date"], fields["date"])),
		Timestamp:  asInt64(firstPresent(fixture["timestamp"], fields["timestamp"])),
		StatusCode: asString(firstPresent(dig(fixture, "status", "short"), dig(fields, "status", "short"), fields["status"])),
		Venue:      asString(firstPresent(dig(fixture, "venue", "name"), dig(fields, "venue", "name"), fields["venue"])),
	}
	out.HomeID, out.HomeName = extractTeam(fields, "home")
	out.AwayID, out.AwayName = extractTeam(fields, "away")
	if out.HomeScore = asIntPtr(dig(fields, "goals", "home")); out.HomeScore == nil {
		out.HomeScore = extractScore(fields, "home")
	}
	if out.AwayScore = asIntPtr(dig(fields, "goals", "away")); out.AwayScore == nil {
		out.AwayScore = extractScore(fields, "away")
	}

	return out
}

// extractGeneric handles the games-terminology shape. Nested "game"
// accessors win; flat top-level fields are the fallback.
func extractGeneric(fields map[string]any) extracted {
	nested := digMap(fields, "game")

	out := extracted{
		ID:         asID(firstPresent(nested["id"], fields["id"])),
		Date:       asString(firstPresent(nested["date"], fields["date"], nested["start_time"], fields["start_time"])),
		Timestamp:  asInt64(firstPresent(nested["timestamp"], fields["timestamp"])),
		StatusCode: asString(firstPresent(dig(nested, "status", "short"), dig(fields, "status", "short"), nested["status"], fields["status"])),
		Venue:      asString(firstPresent(dig(nested, "venue", "name"), dig(fields, "venue", "name"), dig(fields, "arena", "name"), fields["venue"])),
	}
	out.HomeID, out.HomeName = extractTeam(fields, "home")
	out.AwayID, out.AwayName = extractTeam(fields, "away")
	out.HomeScore = extractScore(fields, "home")
	out.AwayScore = extractScore(fields, "away")

	return out
}

// extractTeam reads the team object under teams.<side> or <side>_team,
// then falls back to the flat <side>_team_id / <side>_team_name keys.
func extractTeam(fields map[string]any, side string) (id, name string) {
	team := digMap(digMap(fields, "teams"), side)
	if len(team) == 0 {
		team = digMap(fields, side+"_team")
	}

	id = asID(team["id"])
	if id == "" {
		id = asID(fields[side+"_team_id"])
	}
	name = asString(team["name"])
	if name == "" {
		name = asString(fields[side+"_team_name"])
	}

	return id, name
}

// extractScore reads scores.<side> or the flat score.<side>, accepting
// both a bare number and a {"total": n} object. Absent or null values
// stay nil so a missing score is never confused with zero.
func extractScore(fields map[string]any, side string) *int {
	value := dig(fields, "scores", side)
	if value == nil {
		value = dig(fields, "score", side)
	}
	if inner, ok := value.(map[string]any); ok {
		value = inner["total"]
	}
	return asIntPtr(value)
}

func dig(fields map[string]any, path ...string) any {
	var current any = fields
	for _, key := range path {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = m[key]
	}
	return current
}

func digMap(fields map[string]any, key string) map[string]any {
	out, _ := fields[key].(map[string]any)
	return out
}

func firstPresent(values ...any) any {
	for _, v := range values {
		switch value := v.(type) {
		case nil:
			continue
		case string:
			if strings.TrimSpace(value) != "" {
				return value
			}
		default:
			return v
		}
	}
	return nil
}

func asString(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// asID stringifies numeric and string ids alike.
func asID(v any) string {
	switch value := v.(type) {
	case string:
		return strings.TrimSpace(value)
	case float64:
		return strconv.FormatInt(int64(value), 10)
	case int64:
		return strconv.FormatInt(value, 10)
	case int:
		return strconv.Itoa(value)
	default:
		return ""
	}
}

func asInt64(v any) int64 {
	switch value := v.(type) {
	case float64:
		return int64(value)
	case int64:
		return value
	case int:
		return int64(value)
	case string:
		out, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return 0
		}
		return out
	default:
		return 0
	}
}

func asIntPtr(v any) *int {
	switch value := v.(type) {
	case float64:
		out := int(value)
		return &out
	case int64:
		out := int(value)
		return &out
	case int:
		out := value
		return &out
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return nil
		}
		return &parsed
	default:
		return nil
	}
}
