package request

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	ahocorasick "github.com/petar-dambovaliev/aho-corasick"

	"github.com/FACorreiaa/loci-planner/internal/app/models"
)

// budget amounts above this are treated as noise rather than money.
const maxReasonableBudget = 10_000_000

var (
	symbolMoneyRe = regexp.MustCompile(`[$€£]\s?([0-9][0-9,]*(?:\.[0-9]{1,2})?)`)
	wordMoneyRe   = regexp.MustCompile(`(?i)\b([0-9][0-9,]*(?:\.[0-9]{1,2})?)\s*(?:dollars|usd|euros?|eur|pounds|gbp)\b`)
	budgetOfRe    = regexp.MustCompile(`(?i)\bbudget\s*(?:of|is|:)?\s*[$€£]?\s?([0-9][0-9,]*(?:\.[0-9]{1,2})?)`)

	groupSizeRe = regexp.MustCompile(`(?i)\b(\d{1,2})\s+(?:people|guests|travelers|travellers|adults)\b`)
	familyRe    = regexp.MustCompile(`(?i)\bfamily\b`)
	coupleRe    = regexp.MustCompile(`(?i)\bcouple\b`)

	paceRe = regexp.MustCompile(`(?i)\b(relaxed|moderate|intense)\b`)
)

// extractBudget returns the largest reasonable money amount mentioned, with a
// warning when several distinct amounts compete.
func extractBudget(text string) (*float64, []string) {
	var amounts []float64
	for _, re := range []*regexp.Regexp{symbolMoneyRe, wordMoneyRe, budgetOfRe} {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			raw := strings.ReplaceAll(m[1], ",", "")
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil || v <= 0 || v > maxReasonableBudget {
				continue
			}
			amounts = append(amounts, v)
		}
	}
	if len(amounts) == 0 {
		return nil, nil
	}

	distinct := make(map[float64]struct{}, len(amounts))
	best := amounts[0]
	for _, v := range amounts {
		distinct[v] = struct{}{}
		if v > best {
			best = v
		}
	}

	var warnings []string
	if len(distinct) > 1 {
		warnings = append(warnings, fmt.Sprintf("multiple amounts found; using %.2f as budget", best))
	}
	return &best, warnings
}

// extractGroupSize prefers an explicit count over the family/couple words.
func extractGroupSize(text string) *int {
	if m := groupSizeRe.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return &n
		}
	}
	if familyRe.MatchString(text) {
		n := 4
		return &n
	}
	if coupleRe.MatchString(text) {
		n := 2
		return &n
	}
	return nil
}

// extractPace returns the explicitly named pace or the moderate default.
func extractPace(text string) models.Pace {
	if m := paceRe.FindStringSubmatch(text); m != nil {
		return models.Pace(strings.ToLower(m[1]))
	}
	return models.PaceModerate
}

// styleClassifier votes travel styles by keyword hits. Phrases avoid the bare
// word "budget" so money sentences don't read as budget travel.
type styleClassifier struct {
	automaton ahocorasick.AhoCorasick
	styles    []string
}

var styleKeywords = map[string][]string{
	"luxury":    {"luxury", "luxurious", "five-star", "5-star", "upscale", "premium", "high-end", "private villa", "first class"},
	"budget":    {"budget-friendly", "on a budget", "cheap", "affordable", "backpacking", "hostel", "shoestring", "low cost"},
	"family":    {"family", "family-friendly", "kids", "children", "kid-friendly", "toddlers"},
	"adventure": {"adventure", "adventurous", "hiking", "trekking", "rafting", "climbing", "safari", "outdoors"},
}

func newStyleClassifier() *styleClassifier {
	names := make([]string, 0, len(styleKeywords))
	for name := range styleKeywords {
		names = append(names, name)
	}
	sort.Strings(names)

	var patterns []string
	var styles []string
	for _, name := range names {
		for _, kw := range styleKeywords[name] {
			patterns = append(patterns, kw)
			styles = append(styles, name)
		}
	}

	builder := ahocorasick.NewAhoCorasickBuilder(ahocorasick.Opts{
		AsciiCaseInsensitive: true,
		MatchOnlyWholeWords:  true,
		MatchKind:            ahocorasick.LeftMostLongestMatch,
		DFA:                  true,
	})
	return &styleClassifier{
		automaton: builder.Build(patterns),
		styles:    styles,
	}
}

// classify returns the dominant style, or nil on silence or a tie.
func (c *styleClassifier) classify(text string) *string {
	counts := make(map[string]int)
	for _, m := range c.automaton.FindAll(text) {
		counts[c.styles[m.Pattern()]]++
	}
	if len(counts) == 0 {
		return nil
	}

	best, bestCount, tied := "", 0, false
	for _, style := range []string{"adventure", "budget", "family", "luxury"} {
		n := counts[style]
		if n == 0 {
			continue
		}
		switch {
		case n > bestCount:
			best, bestCount, tied = style, n, false
		case n == bestCount:
			tied = true
		}
	}
	if tied || best == "" {
		return nil
	}
	return &best
}

// interestStopwords are function words plus trip boilerplate that never count
// as interests.
var interestStopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "but": {}, "with": {},
	"without": {}, "of": {}, "for": {}, "to": {}, "in": {}, "on": {}, "at": {},
	"by": {}, "from": {}, "into": {}, "near": {}, "is": {}, "are": {}, "was": {},
	"be": {}, "been": {}, "i": {}, "we": {}, "my": {}, "our": {}, "me": {},
	"us": {}, "you": {}, "your": {}, "it": {}, "its": {}, "this": {}, "that": {},
	"need": {}, "needs": {}, "want": {}, "wants": {}, "would": {}, "like": {},
	"please": {}, "some": {}, "any": {}, "also": {}, "there": {}, "have": {},
	"plan": {}, "plans": {}, "planning": {}, "trip": {}, "trips": {},
	"travel": {}, "traveling": {}, "travelling": {}, "vacation": {},
	"holiday": {}, "visit": {}, "visiting": {}, "include": {}, "includes": {},
	"including": {}, "budget": {}, "day": {}, "days": {}, "week": {},
	"weeks": {}, "month": {}, "months": {}, "next": {}, "starting": {},
	"between": {}, "until": {}, "till": {}, "people": {}, "guests": {},
	"travelers": {}, "travellers": {}, "adults": {}, "business": {},
	"local": {}, "nearby": {}, "downtown": {}, "city": {}, "place": {},
	"places": {}, "things": {}, "stuff": {},
}

// lemma applies light plural stripping so "museums" and "museum" dedupe.
func lemma(word string) string {
	switch {
	case strings.HasSuffix(word, "ies") && len(word) > 4:
		return word[:len(word)-3] + "y"
	case strings.HasSuffix(word, "sses"), strings.HasSuffix(word, "xes"),
		strings.HasSuffix(word, "zes"), strings.HasSuffix(word, "ches"),
		strings.HasSuffix(word, "shes"):
		return word[:len(word)-2]
	case strings.HasSuffix(word, "s") && !strings.HasSuffix(word, "ss") && len(word) > 3:
		return word[:len(word)-1]
	}
	return word
}

// extractInterests keeps content tokens outside location and date spans,
// de-duplicated by lemma in first-mention order.
func extractInterests(text string, excluded []span) []string {
	seen := make(map[string]struct{})
	var interests []string

	for _, tok := range tokenizeWithSpans(text) {
		if overlapsAny(tok.span, excluded) {
			continue
		}
		word := strings.ToLower(tok.text)
		if len(word) < 3 || isNumeric(word) {
			continue
		}
		if _, stop := interestStopwords[word]; stop {
			continue
		}
		l := lemma(word)
		if _, stop := interestStopwords[l]; stop {
			continue
		}
		if _, dup := seen[l]; dup {
			continue
		}
		seen[l] = struct{}{}
		interests = append(interests, l)
	}
	return interests
}

type token struct {
	text string
	span span
}

// tokenizeWithSpans splits on non-alphanumerics, keeping byte offsets so
// tokens can be tested against exclusion spans.
func tokenizeWithSpans(text string) []token {
	var tokens []token
	start := -1
	for i, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			tokens = append(tokens, token{text: text[start:i], span: span{start, i}})
			start = -1
		}
	}
	if start >= 0 {
		tokens = append(tokens, token{text: text[start:], span: span{start, len(text)}})
	}
	return tokens
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
