package linkage

import (
	"regexp"
	"strings"
	"time"

	"github.com/hueyfreemancodes/market-signals/internal/model"
)

var (
	// Trailing ISO date in a CLOB slug, e.g. "nba-mia-bos-2025-12-19".
	slugDateRe = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})$`)

	// YYMonDD token after the series delimiter in an event-venue ticker,
	// e.g. "KXNBAGAME-25DEC19MIABOS-MIA".
	tickerDateRe = regexp.MustCompile(`-(\d{2}[A-Z]{3}\d{2})`)
)

// Event-venue titles carry suffix boilerplate that has to go before the
// team split, e.g. "Miami vs Boston Winner?".
var eventTitleSuffixes = []string{" Winner?", ": Total Points", " Matchup"}

// Resolve derives the canonical game key for a market. identifier is the
// venue's opaque market identifier: the slug on the CLOB venue, the ticker
// on the event venue. Returns (zero, false) whenever the title or identifier
// cannot be parsed; the market is then excluded from linking.
func Resolve(venue model.Venue, title, identifier string) (model.GameKey, bool) {
	var (
		team1, team2 string
		ok           bool
		date         time.Time
	)

	switch venue {
	case model.VenueCLOB:
		team1, team2, ok = extractTeamsCLOB(title)
		if !ok {
			return model.GameKey{}, false
		}
		date, ok = parseSlugDate(identifier)
	case model.VenueEvent:
		team1, team2, ok = extractTeamsEvent(title)
		if !ok {
			return model.GameKey{}, false
		}
		date, ok = parseTickerDate(identifier)
	default:
		return model.GameKey{}, false
	}
	if !ok {
		return model.GameKey{}, false
	}

	return model.NewGameKey(date, team1, team2), true
}

// extractTeamsCLOB parses titles like "Heat vs. Celtics" or "Heat at Celtics".
func extractTeamsCLOB(title string) (string, string, bool) {
	return splitTeams(title, []string{" vs. ", " at "})
}

// extractTeamsEvent parses titles like "Miami vs Boston Winner?" after
// stripping the venue's suffix boilerplate.
func extractTeamsEvent(title string) (string, string, bool) {
	clean := title
	for _, suffix := range eventTitleSuffixes {
		clean = strings.ReplaceAll(clean, suffix, "")
	}
	return splitTeams(clean, []string{" vs ", " at ", " vs. "})
}

// splitTeams splits on the first matching separator and resolves both sides
// to canonical codes. Either side failing to resolve drops the whole
// extraction (silent-skip policy).
func splitTeams(title string, separators []string) (string, string, bool) {
	for _, sep := range separators {
		if !strings.Contains(title, sep) {
			continue
		}
		parts := strings.Split(title, sep)
		if len(parts) != 2 {
			return "", "", false
		}
		t1, ok1 := ResolveTeam(parts[0])
		t2, ok2 := ResolveTeam(parts[1])
		if !ok1 || !ok2 {
			return "", "", false
		}
		return t1, t2, true
	}
	return "", "", false
}

// parseSlugDate extracts the trailing YYYY-MM-DD token from a CLOB slug and
// validates it against the calendar.
func parseSlugDate(slug string) (time.Time, bool) {
	m := slugDateRe.FindStringSubmatch(slug)
	if m == nil {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", m[1])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// parseTickerDate extracts the YYMonDD token from an event-venue ticker
// (e.g. "25DEC19") and validates it against the calendar.
func parseTickerDate(ticker string) (time.Time, bool) {
	m := tickerDateRe.FindStringSubmatch(ticker)
	if m == nil {
		return time.Time{}, false
	}
	token := m[1]
	// time.Parse wants mixed-case month names ("Dec"), the venue emits "DEC".
	normalized := token[:2] + strings.ToUpper(token[2:3]) + strings.ToLower(token[3:5]) + token[5:]
	t, err := time.Parse("06Jan02", normalized)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
