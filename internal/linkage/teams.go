package linkage

import "strings"

// canonicalTeams maps full NBA team names to their standard 3-letter codes.
var canonicalTeams = map[string]string{
	"Atlanta Hawks":          "ATL",
	"Boston Celtics":         "BOS",
	"Brooklyn Nets":          "BKN",
	"Charlotte Hornets":      "CHA",
	"Chicago Bulls":          "CHI",
	"Cleveland Cavaliers":    "CLE",
	"Dallas Mavericks":       "DAL",
	"Denver Nuggets":         "DEN",
	"Detroit Pistons":        "DET",
	"Golden State Warriors":  "GSW",
	"Houston Rockets":        "HOU",
	"Indiana Pacers":         "IND",
	"LA Clippers":            "LAC",
	"Los Angeles Lakers":     "LAL",
	"Memphis Grizzlies":      "MEM",
	"Miami Heat":             "MIA",
	"Milwaukee Bucks":        "MIL",
	"Minnesota Timberwolves": "MIN",
	"New Orleans Pelicans":   "NOP",
	"New York Knicks":        "NYK",
	"Oklahoma City Thunder":  "OKC",
	"Orlando Magic":          "ORL",
	"Philadelphia 76ers":     "PHI",
	"Phoenix Suns":           "PHX",
	"Portland Trail Blazers": "POR",
	"Sacramento Kings":       "SAC",
	"San Antonio Spurs":      "SAS",
	"Toronto Raptors":        "TOR",
	"Utah Jazz":              "UTA",
	"Washington Wizards":     "WAS",
}

// ResolveTeam maps a free-text team name (full name, city, or nickname) to
// its canonical 3-letter code. Match priority: exact full name,
// case-insensitive full name, then substring in either direction.
// Returns ("", false) for anything unrecognized.
func ResolveTeam(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}

	if code, ok := canonicalTeams[name]; ok {
		return code, true
	}

	lower := strings.ToLower(name)
	for full, code := range canonicalTeams {
		if strings.ToLower(full) == lower {
			return code, true
		}
	}

	// Substring pass covers cities ("Memphis") and nicknames ("Grizzlies").
	for full, code := range canonicalTeams {
		fullLower := strings.ToLower(full)
		if strings.Contains(fullLower, lower) || strings.Contains(lower, fullLower) {
			return code, true
		}
	}

	return "", false
}

// ValidTeamCode reports whether code is a known canonical 3-letter code.
func ValidTeamCode(code string) bool {
	code = strings.ToUpper(code)
	for _, c := range canonicalTeams {
		if c == code {
			return true
		}
	}
	return false
}
