// Package suggest ranks candidate names against a mistyped query.
//
// It backs every "did you mean" message in shopctl: unknown resources, unknown
// verbs, unknown input fields and unknown type names. Ranking is pure and
// total: any query and candidate list (including empty ones) yields a
// possibly empty result and never an error.
package suggest

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agext/levenshtein"
)

// MaxDistance caps the edit distance considered a plausible typo.
const MaxDistance = 3

// DefaultLimit is the number of suggestions callers show when they have no
// better opinion.
const DefaultLimit = 5

// Mode selects the fallback strategy used once cheap string tests fail.
type Mode int

const (
	// ModeDefault ends with an ordered-subsequence test. Used for command
	// names (resources, verbs).
	ModeDefault Mode = iota
	// ModeField ends with case/separator token matching. Used for schema
	// field and argument names such as "metafieldNamespace".
	ModeField
)

// Score tiers. Higher is better; within a tier, edit distance and token
// overlap adjust the score, and equal scores sort lexicographically.
const (
	scoreExact      = 1000
	scorePlural     = 900
	scorePrefix     = 800
	scoreRevPrefix  = 700
	scoreSubstring  = 600
	scoreDistance   = 500
	scoreFinalToken = 300
	scoreOverlap    = 200
	scoreSubseq     = 100
)

// Options configures a ranking.
type Options struct {
	Limit int
	Mode  Mode
}

// Match is a ranked candidate.
type Match struct {
	Name  string
	Score int
}

// Suggest returns up to limit command-name candidates, best first.
func Suggest(query string, candidates []string, limit int) []string {
	return names(Rank(query, candidates, Options{Limit: limit, Mode: ModeDefault}))
}

// Fields returns up to limit field-name candidates, best first.
func Fields(query string, candidates []string, limit int) []string {
	return names(Rank(query, candidates, Options{Limit: limit, Mode: ModeField}))
}

// Rank scores every candidate against query and returns the plausible ones,
// best first. A non-positive limit means no limit.
func Rank(query string, candidates []string, opts Options) []Match {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" || len(candidates) == 0 {
		return nil
	}

	var qTokens []string
	if opts.Mode == ModeField {
		qTokens = Tokenize(query)
	}

	seen := make(map[string]bool, len(candidates))
	var matches []Match
	for _, cand := range candidates {
		if cand == "" || seen[cand] {
			continue
		}
		seen[cand] = true

		if s := score(q, qTokens, cand, opts.Mode); s > 0 {
			matches = append(matches, Match{Name: cand, Score: s})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Name < matches[j].Name
	})

	if opts.Limit > 0 && len(matches) > opts.Limit {
		matches = matches[:opts.Limit]
	}
	return matches
}

func score(q string, qTokens []string, candidate string, mode Mode) int {
	c := strings.ToLower(candidate)

	switch {
	case c == q:
		return scoreExact
	case c == q+"s" || c == q+"es":
		return scorePlural
	case strings.HasPrefix(c, q):
		return scorePrefix
	case strings.HasPrefix(q, c):
		return scoreRevPrefix
	case strings.Contains(c, q) || strings.Contains(q, c):
		return scoreSubstring
	}

	if d := Distance(q, c, MaxDistance); d <= MaxDistance {
		return scoreDistance - d*10
	}

	if mode == ModeField {
		return tokenScore(qTokens, Tokenize(candidate))
	}

	if isSubsequence(q, c) || isSubsequence(c, q) {
		return scoreSubseq
	}
	return 0
}

func tokenScore(qTokens, cTokens []string) int {
	if len(qTokens) == 0 || len(cTokens) == 0 {
		return 0
	}
	if qTokens[len(qTokens)-1] == cTokens[len(cTokens)-1] {
		return scoreFinalToken
	}

	have := make(map[string]bool, len(cTokens))
	for _, t := range cTokens {
		have[t] = true
	}
	overlap := 0
	for _, t := range qTokens {
		if have[t] {
			overlap++
		}
	}
	if overlap == 0 {
		return 0
	}
	return scoreOverlap + overlap
}

// Distance returns the Levenshtein distance between a and b, or max+1 once
// the distance is known to exceed max. The length difference is checked
// first so wildly different strings cost nothing.
func Distance(a, b string, max int) int {
	if a == b {
		return 0
	}
	if max <= 0 || abs(utf8.RuneCountInString(a)-utf8.RuneCountInString(b)) > max {
		return max + 1
	}
	// With a cost cap the library stops early and may return any bound
	// above the cap.
	if d := levenshtein.Distance(a, b, levenshtein.NewParams().MaxCost(max)); d <= max {
		return d
	}
	return max + 1
}

// isSubsequence reports whether every rune of needle appears in haystack in
// order.
func isSubsequence(needle, haystack string) bool {
	if needle == "" {
		return false
	}
	hr := []rune(haystack)
	i := 0
	for _, r := range needle {
		for i < len(hr) && hr[i] != r {
			i++
		}
		if i == len(hr) {
			return false
		}
		i++
	}
	return true
}

// Tokenize splits a name on case boundaries and separators and lowercases
// the parts: "metafieldNamespace" -> [metafield namespace],
// "HTMLBody" -> [html body], "product-variant_id" -> [product variant id].
func Tokenize(name string) []string {
	var tokens []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			tokens = append(tokens, strings.ToLower(string(cur)))
			cur = cur[:0]
		}
	}

	runes := []rune(name)
	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush()
			continue
		}
		if unicode.IsUpper(r) && len(cur) > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	return tokens
}

func names(matches []Match) []string {
	if len(matches) == 0 {
		return nil
	}
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.Name
	}
	return out
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
