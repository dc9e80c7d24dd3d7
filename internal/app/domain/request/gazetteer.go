package request

import (
	"regexp"
	"sort"
	"strings"

	ahocorasick "github.com/petar-dambovaliev/aho-corasick"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/FACorreiaa/loci-planner/internal/pkg/artifacts"
)

const gazetteerFile = "gazetteer.json"

// gazetteerPlace is one entry of the place-name artifact.
type gazetteerPlace struct {
	Name    string   `json:"name"`
	Aliases []string `json:"aliases,omitempty"`
}

type gazetteerArtifact struct {
	Places []gazetteerPlace `json:"places"`
}

// Gazetteer recognizes known place names (and their aliases) in free text via
// an Aho-Corasick automaton, and falls back to a preposition heuristic for
// places the artifact does not know. Immutable after construction.
type Gazetteer struct {
	automaton ahocorasick.AhoCorasick
	canonical []string
	empty     bool
	caser     cases.Caser
}

// span is a half-open byte range in the original text.
type span struct {
	start, end int
}

func (s span) overlaps(o span) bool {
	return s.start < o.end && o.start < s.end
}

// locationMention is an extracted place with its source span and the
// preposition that introduced it ("" when none).
type locationMention struct {
	name string
	span span
	prep string
}

// NewGazetteer builds the automaton from canonical names and aliases. Every
// alias resolves to its canonical display name.
func NewGazetteer(places []gazetteerPlace) *Gazetteer {
	var patterns []string
	var canonical []string
	for _, p := range places {
		if p.Name == "" {
			continue
		}
		patterns = append(patterns, p.Name)
		canonical = append(canonical, p.Name)
		for _, a := range p.Aliases {
			if a == "" {
				continue
			}
			patterns = append(patterns, a)
			canonical = append(canonical, p.Name)
		}
	}

	g := &Gazetteer{
		canonical: canonical,
		empty:     len(patterns) == 0,
		caser:     cases.Title(language.English),
	}
	if !g.empty {
		builder := ahocorasick.NewAhoCorasickBuilder(ahocorasick.Opts{
			AsciiCaseInsensitive: true,
			MatchOnlyWholeWords:  true,
			MatchKind:            ahocorasick.LeftMostLongestMatch,
			DFA:                  true,
		})
		g.automaton = builder.Build(patterns)
	}
	return g
}

// LoadGazetteer reads the place-name artifact. A missing file degrades to the
// heuristic-only extractor; the planner can still run, it just recognizes
// fewer spellings.
func LoadGazetteer(store *artifacts.Store, logger *zap.Logger) (*Gazetteer, error) {
	if !store.Exists(gazetteerFile) {
		logger.Warn("Gazetteer artifact missing, location extraction is heuristic-only",
			zap.String("path", store.Path(gazetteerFile)))
		return NewGazetteer(nil), nil
	}
	var art gazetteerArtifact
	if err := store.ReadJSON(gazetteerFile, &art); err != nil {
		return nil, err
	}
	logger.Info("Loaded gazetteer", zap.Int("places", len(art.Places)))
	return NewGazetteer(art.Places), nil
}

// prepositions that introduce a place in travel prose. "from" marks an
// origin; the rest mark destinations.
var locationPrepRe = regexp.MustCompile(`(?i)\b(to|in|at|from|near|visiting)\s+((?:[A-Z][A-Za-z'’-]*)(?:\s+[A-Z][A-Za-z'’-]*)*)`)

// capitalized words that the heuristic must never treat as places.
var heuristicStoplist = map[string]struct{}{
	"january": {}, "february": {}, "march": {}, "april": {}, "may": {},
	"june": {}, "july": {}, "august": {}, "september": {}, "october": {},
	"november": {}, "december": {},
	"jan": {}, "feb": {}, "mar": {}, "apr": {}, "jun": {}, "jul": {},
	"aug": {}, "sep": {}, "sept": {}, "oct": {}, "nov": {}, "dec": {},
	"monday": {}, "tuesday": {}, "wednesday": {}, "thursday": {},
	"friday": {}, "saturday": {}, "sunday": {},
	"i": {}, "my": {},
}

// Extract returns place mentions in text order. Gazetteer matches win over
// heuristic captures on overlapping spans. excluded spans (dates, money) are
// never reported as places.
func (g *Gazetteer) Extract(text string, excluded []span) []locationMention {
	var mentions []locationMention

	if !g.empty {
		for _, m := range g.automaton.FindAll(text) {
			sp := span{start: m.Start(), end: m.End()}
			if overlapsAny(sp, excluded) {
				continue
			}
			mentions = append(mentions, locationMention{
				name: g.canonical[m.Pattern()],
				span: sp,
				prep: precedingPreposition(text, sp.start),
			})
		}
	}

	for _, idx := range locationPrepRe.FindAllStringSubmatchIndex(text, -1) {
		sp := span{start: idx[4], end: idx[5]}
		if overlapsAny(sp, excluded) {
			continue
		}
		overlapping := false
		for _, m := range mentions {
			if m.span.overlaps(sp) {
				overlapping = true
				break
			}
		}
		if overlapping {
			continue
		}
		raw := text[sp.start:sp.end]
		raw = g.trimStoplisted(raw, &sp)
		if raw == "" {
			continue
		}
		mentions = append(mentions, locationMention{
			name: g.caser.String(strings.ToLower(raw)),
			span: sp,
			prep: strings.ToLower(text[idx[2]:idx[3]]),
		})
	}

	sort.SliceStable(mentions, func(i, j int) bool {
		return mentions[i].span.start < mentions[j].span.start
	})
	return dedupeMentions(mentions)
}

// trimStoplisted drops stoplisted words from the tail of a capitalized run
// ("New York March" → "New York") and rejects runs that are entirely
// stoplisted ("December").
func (g *Gazetteer) trimStoplisted(raw string, sp *span) string {
	for raw != "" {
		trimmed := strings.TrimRight(raw, " ")
		cut := strings.LastIndex(trimmed, " ")
		last := trimmed[cut+1:]
		if _, stop := heuristicStoplist[strings.ToLower(last)]; !stop {
			raw = trimmed
			break
		}
		if cut < 0 {
			return ""
		}
		raw = trimmed[:cut]
	}
	sp.end = sp.start + len(raw)
	return raw
}

func precedingPreposition(text string, start int) string {
	head := strings.ToLower(strings.TrimRight(text[:start], " \t"))
	for _, prep := range []string{"to", "in", "at", "from", "near", "visiting"} {
		if strings.HasSuffix(head, " "+prep) || head == prep {
			return prep
		}
	}
	return ""
}

func overlapsAny(sp span, spans []span) bool {
	for _, o := range spans {
		if sp.overlaps(o) {
			return true
		}
	}
	return false
}

func dedupeMentions(mentions []locationMention) []locationMention {
	seen := make(map[string]struct{}, len(mentions))
	out := mentions[:0]
	for _, m := range mentions {
		key := strings.ToLower(m.name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, m)
	}
	return out
}
