package linkage

import (
	"testing"
	"time"

	"github.com/hueyfreemancodes/market-signals/internal/model"
)

func TestResolveTeam(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		want     string
		resolved bool
	}{
		{"exact full name", "Boston Celtics", "BOS", true},
		{"case insensitive", "boston celtics", "BOS", true},
		{"nickname substring", "Celtics", "BOS", true},
		{"city substring", "Memphis", "MEM", true},
		{"whitespace trimmed", "  Miami Heat  ", "MIA", true},
		{"sixers", "76ers", "PHI", true},
		{"unknown team", "Springfield Isotopes", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveTeam(tt.input)
			if ok != tt.resolved {
				t.Fatalf("ResolveTeam(%q) ok = %v, want %v", tt.input, ok, tt.resolved)
			}
			if got != tt.want {
				t.Errorf("ResolveTeam(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidTeamCode(t *testing.T) {
	if !ValidTeamCode("lal") {
		t.Error("ValidTeamCode(lal) = false, want true (case-insensitive)")
	}
	if ValidTeamCode("XXX") {
		t.Error("ValidTeamCode(XXX) = true, want false")
	}
}

func TestExtractTeamsCLOB(t *testing.T) {
	tests := []struct {
		title  string
		t1, t2 string
		ok     bool
	}{
		{"Heat vs. Celtics", "MIA", "BOS", true},
		{"Lakers at Warriors", "LAL", "GSW", true},
		{"Will the Fed cut rates?", "", "", false},
		{"Heat vs. Celtics vs. Knicks", "", "", false},
		{"Heat vs. Isotopes", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			t1, t2, ok := extractTeamsCLOB(tt.title)
			if ok != tt.ok || t1 != tt.t1 || t2 != tt.t2 {
				t.Errorf("extractTeamsCLOB(%q) = (%q, %q, %v), want (%q, %q, %v)",
					tt.title, t1, t2, ok, tt.t1, tt.t2, tt.ok)
			}
		})
	}
}

func TestExtractTeamsEvent(t *testing.T) {
	tests := []struct {
		title  string
		t1, t2 string
		ok     bool
	}{
		{"Miami vs Boston Winner?", "MIA", "BOS", true},
		{"Miami vs Boston: Total Points", "MIA", "BOS", true},
		{"Oklahoma City at Denver Matchup", "OKC", "DEN", true},
		{"Highest temperature in NYC", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			t1, t2, ok := extractTeamsEvent(tt.title)
			if ok != tt.ok || t1 != tt.t1 || t2 != tt.t2 {
				t.Errorf("extractTeamsEvent(%q) = (%q, %q, %v), want (%q, %q, %v)",
					tt.title, t1, t2, ok, tt.t1, tt.t2, tt.ok)
			}
		})
	}
}

func TestParseSlugDate(t *testing.T) {
	tests := []struct {
		slug string
		want string
		ok   bool
	}{
		{"nba-mia-bos-2025-12-19", "2025-12-19", true},
		{"nba-mia-bos", "", false},
		{"nba-mia-bos-2025-13-45", "", false}, // fails calendar validation
		{"2025-12-19-nba-mia-bos", "", false}, // token must be trailing
	}

	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			got, ok := parseSlugDate(tt.slug)
			if ok != tt.ok {
				t.Fatalf("parseSlugDate(%q) ok = %v, want %v", tt.slug, ok, tt.ok)
			}
			if ok && got.Format("2006-01-02") != tt.want {
				t.Errorf("parseSlugDate(%q) = %s, want %s", tt.slug, got.Format("2006-01-02"), tt.want)
			}
		})
	}
}

func TestParseTickerDate(t *testing.T) {
	tests := []struct {
		ticker string
		want   string
		ok     bool
	}{
		{"KXNBAGAME-25DEC19MIABOS-MIA", "2025-12-19", true},
		{"KXNBAGAME-25DEC19", "2025-12-19", true},
		{"KXNBAGAME-25XYZ19MIABOS-MIA", "", false}, // not a month
		{"KXNBAGAME-25FEB31MIABOS-MIA", "", false}, // impossible day
		{"KXNBAGAME", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.ticker, func(t *testing.T) {
			got, ok := parseTickerDate(tt.ticker)
			if ok != tt.ok {
				t.Fatalf("parseTickerDate(%q) ok = %v, want %v", tt.ticker, ok, tt.ok)
			}
			if ok && got.Format("2006-01-02") != tt.want {
				t.Errorf("parseTickerDate(%q) = %s, want %s", tt.ticker, got.Format("2006-01-02"), tt.want)
			}
		})
	}
}

// Canonical keys must come out identical no matter which side is listed
// first on either venue.
func TestResolveSymmetricUnderTeamOrder(t *testing.T) {
	a, okA := Resolve(model.VenueCLOB, "Lakers vs. Celtics", "nba-lal-bos-2025-12-19")
	b, okB := Resolve(model.VenueCLOB, "Celtics vs. Lakers", "nba-bos-lal-2025-12-19")
	if !okA || !okB {
		t.Fatalf("Resolve failed: okA=%v okB=%v", okA, okB)
	}
	if a != b {
		t.Errorf("keys differ under team order: %v vs %v", a, b)
	}
	if a.String() != "2025-12-19|BOS|LAL" {
		t.Errorf("key = %q, want 2025-12-19|BOS|LAL", a.String())
	}
}

func TestResolveCrossVenueEquality(t *testing.T) {
	clob, ok := Resolve(model.VenueCLOB, "Heat vs. Celtics", "nba-mia-bos-2025-12-19")
	if !ok {
		t.Fatal("CLOB resolve failed")
	}
	event, ok := Resolve(model.VenueEvent, "Miami vs Boston Winner?", "KXNBAGAME-25DEC19MIABOS-MIA")
	if !ok {
		t.Fatal("event resolve failed")
	}
	if clob != event {
		t.Errorf("cross-venue keys differ: %v vs %v", clob, event)
	}
}

func TestResolveUnparseableIsNotAnError(t *testing.T) {
	tests := []struct {
		name       string
		venue      model.Venue
		title      string
		identifier string
	}{
		{"clob bad title", model.VenueCLOB, "Rate hike by March?", "rates-2025-03-01"},
		{"clob bad slug", model.VenueCLOB, "Heat vs. Celtics", "nba-mia-bos"},
		{"event bad title", model.VenueEvent, "NYC temperature", "KXHIGHNY-25DEC19"},
		{"event bad ticker", model.VenueEvent, "Miami vs Boston Winner?", "KXNBAGAME"},
		{"unknown venue", model.Venue("other"), "Heat vs. Celtics", "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if key, ok := Resolve(tt.venue, tt.title, tt.identifier); ok {
				t.Errorf("Resolve = (%v, true), want no linkage", key)
			}
		})
	}
}

func TestGameKeyDateFormat(t *testing.T) {
	date := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	key := model.NewGameKey(date, "MIA", "BOS")
	if key.Date != "2026-01-02" {
		t.Errorf("key date = %q, want 2026-01-02", key.Date)
	}
}
