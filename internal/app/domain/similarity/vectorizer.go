package similarity

import (
	"strings"
	"unicode"
)

// Vectorizer mirrors the offline term-vector training output: a fixed
// vocabulary with IDF weights, a stop-word list, an n-gram range and a
// feature cap. Transform reproduces the training-side query encoding so
// cosine scores against the catalog matrix are comparable.
type Vectorizer struct {
	Vocabulary  map[string]int `json:"vocabulary"`
	IDF         []float64      `json:"idf"`
	StopWords   []string       `json:"stop_words"`
	NgramRange  [2]int         `json:"ngram_range"`
	MaxFeatures int            `json:"max_features"`

	stopSet map[string]struct{}
}

// init builds derived lookups after JSON decoding.
func (v *Vectorizer) init() {
	v.stopSet = make(map[string]struct{}, len(v.StopWords))
	for _, w := range v.StopWords {
		v.stopSet[w] = struct{}{}
	}
	if v.NgramRange[0] == 0 {
		v.NgramRange = [2]int{1, 1}
	}
}

// Normalize lowercases, replaces non-alphanumeric runes with spaces and
// collapses whitespace runs.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Transform encodes text as an L2-normalized sparse TF-IDF vector, returned
// as parallel (column, weight) slices sorted by column.
func (v *Vectorizer) Transform(text string) SparseVector {
	tokens := v.contentTokens(text)

	counts := make(map[int]float64)
	lo, hi := v.NgramRange[0], v.NgramRange[1]
	for n := lo; n <= hi; n++ {
		if n <= 0 || n > len(tokens) {
			continue
		}
		for i := 0; i+n <= len(tokens); i++ {
			term := strings.Join(tokens[i:i+n], " ")
			if col, ok := v.Vocabulary[term]; ok {
				counts[col]++
			}
		}
	}

	vec := make(SparseVector, 0, len(counts))
	for col, tf := range counts {
		w := tf
		if col < len(v.IDF) {
			w *= v.IDF[col]
		}
		vec = append(vec, SparseEntry{Col: col, Val: w})
	}
	vec.sortByCol()
	vec.normalizeL2()
	return vec
}

func (v *Vectorizer) contentTokens(text string) []string {
	fields := strings.Fields(Normalize(text))
	tokens := fields[:0]
	for _, f := range fields {
		if _, stop := v.stopSet[f]; stop {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}
