package training

import (
	"regexp"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"underwriting-lab/internal/domain"
)

var (
	nonAlnum    = regexp.MustCompile(`[^a-z0-9\s]`)
	spaces      = regexp.MustCompile(`\s+`)
	houseNumber = regexp.MustCompile(`^(\d+)`)

	streetAbbrev = strings.NewReplacer(
		" street ", " st ",
		" avenue ", " ave ",
		" road ", " rd ",
		" drive ", " dr ",
		" boulevard ", " blvd ",
		" lane ", " ln ",
		" court ", " ct ",
	)
)

// NormalizeAddress lowercases, strips punctuation and abbreviates street suffixes.
func NormalizeAddress(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = spaces.ReplaceAllString(s, " ")
	s = nonAlnum.ReplaceAllString(s, "")
	s = streetAbbrev.Replace(s)
	return strings.TrimSpace(spaces.ReplaceAllString(s, " "))
}

// TokenSimilarity is the Jaccard index of the normalized address tokens.
func TokenSimilarity(a, b string) float64 {
	ta := tokenSet(a)
	tb := tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	inter := 0
	for t := range ta {
		if tb[t] {
			inter++
		}
	}
	union := len(ta) + len(tb) - inter
	return float64(inter) / float64(union)
}

func tokenSet(s string) map[string]bool {
	out := map[string]bool{}
	for _, t := range strings.Fields(NormalizeAddress(s)) {
		out[t] = true
	}
	return out
}

// SequenceSimilarity is the difflib ratio of the normalized addresses.
func SequenceSimilarity(a, b string) float64 {
	a, b = NormalizeAddress(a), NormalizeAddress(b)
	if a == "" || b == "" {
		return 0
	}
	return difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, "")).Ratio()
}

// HouseNumber returns the leading street number of an address, or "".
func HouseNumber(s string) string {
	m := houseNumber.FindStringSubmatch(NormalizeAddress(s))
	if m == nil {
		return ""
	}
	return m[1]
}

// Match is the best report found for an outcome.
type Match struct {
	ReportID   string
	Similarity float64
	Confidence float64 // 0 when nothing is close enough
}

// MatchReport finds the report an outcome most likely belongs to. An exact
// listing URL match wins outright; otherwise addresses are compared by token
// overlap and character sequence, with bonuses for a matching house number
// and a similar URL. reports should be newest first so ties keep the newest.
func MatchReport(reports []*domain.Report, address, url string) Match {
	address = strings.TrimSpace(address)
	url = strings.TrimSpace(url)

	if url != "" {
		for _, r := range reports {
			if r.Inputs.ListingURL == url {
				return Match{ReportID: r.ID, Similarity: 1, Confidence: 0.99}
			}
		}
	}

	var best Match
	hn := HouseNumber(address)
	for _, r := range reports {
		sim := 0.65*TokenSimilarity(address, r.Address) + 0.35*SequenceSimilarity(address, r.Address)
		if hn != "" && hn == HouseNumber(r.Address) {
			sim = min(1.0, sim+0.12)
		}
		if similarURL(url, r.Inputs.ListingURL) {
			sim = min(1.0, sim+0.15)
		}
		if sim > best.Similarity {
			best = Match{ReportID: r.ID, Similarity: sim}
		}
	}

	switch {
	case best.Similarity >= 0.85:
		best.Confidence = 0.95
	case best.Similarity >= 0.70:
		best.Confidence = 0.85
	case best.Similarity >= 0.55:
		best.Confidence = 0.70
	case best.Similarity >= 0.40:
		best.Confidence = 0.55
	}
	return best
}

func similarURL(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	stripQuery := func(s string) string {
		if i := strings.IndexByte(s, '?'); i >= 0 {
			return s[:i]
		}
		return s
	}
	return strings.Contains(b, stripQuery(a)) || strings.Contains(a, stripQuery(b))
}
