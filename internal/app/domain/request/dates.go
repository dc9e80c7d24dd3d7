package request

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/FACorreiaa/loci-planner/internal/app/models"
)

// dateResult carries extracted dates plus the byte spans the matches covered
// so interest extraction can skip them.
type dateResult struct {
	dates    *models.TripDates
	spans    []span
	warnings []string
}

var monthsByName = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may":  time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sep": time.September, "sept": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

const monthAlt = `january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sept|sep|oct|nov|dec`

var (
	fromToRe     = regexp.MustCompile(`(?i)\bfrom\s+([^.,;]+?)\s+(?:to|until|till)\s+([^.,;]+?)(?:[.,;]|$)`)
	betweenRe    = regexp.MustCompile(`(?i)\bbetween\s+([^.,;]+?)\s+and\s+([^.,;]+?)(?:[.,;]|$)`)
	monthRangeRe = regexp.MustCompile(`(?i)\b(` + monthAlt + `)\.?\s+(\d{1,2})\s*[-–—]\s*(\d{1,2})(?:,?\s*(\d{4}))?\b`)
	daysStartRe  = regexp.MustCompile(`(?i)\b(\d{1,3})\s*[- ]\s*days?\s+(?:trip\s+)?starting\s+(?:on\s+)?([^.,;]+?)(?:[.,;]|$)`)
	startForRe   = regexp.MustCompile(`(?i)\bstarting\s+(?:on\s+)?([^.,;]+?)\s+for\s+(\d{1,3})\s*[- ]?\s*days?\b`)
	durationRe   = regexp.MustCompile(`(?i)\b(\d{1,3})\s*[- ]\s*days?\b`)

	monthDayRe = regexp.MustCompile(`(?i)\b(` + monthAlt + `)\.?\s+(\d{1,2})(?:st|nd|rd|th)?(?:,?\s*(\d{4}))?\b`)
	dayMonthRe = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\s+(` + monthAlt + `)(?:,?\s*(\d{4}))?\b`)
	isoDateRe  = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	slashRe    = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`)
	relativeRe = regexp.MustCompile(`(?i)\b(today|tomorrow|next\s+(?:week|month|year))\b`)

	ordinalRe = regexp.MustCompile(`(?i)(\d{1,2})(st|nd|rd|th)\b`)
)

// extractDates resolves the travel window from text. All instants are UTC
// midnights; year-less dates prefer the nearest future occurrence.
func extractDates(text string, now time.Time) dateResult {
	now = now.UTC()

	if res, ok := matchExplicitRange(text, now); ok {
		return res
	}

	duration, durSpan := matchDuration(text)
	single, singleSpan, ok := findSingleDate(text, now)

	switch {
	case duration > 0 && ok:
		return dateResult{
			dates: &models.TripDates{Start: single, End: single.AddDate(0, 0, duration-1)},
			spans: []span{durSpan, singleSpan},
		}
	case duration > 0:
		start := defaultStart(now)
		return dateResult{
			dates:    &models.TripDates{Start: start, End: start.AddDate(0, 0, duration-1)},
			spans:    []span{durSpan},
			warnings: []string{fmt.Sprintf("no explicit start date; assuming %s", start.Format("2006-01-02"))},
		}
	case ok:
		return dateResult{
			dates: &models.TripDates{Start: single, End: single},
			spans: []span{singleSpan},
		}
	}

	return dateResult{warnings: []string{"no travel dates found in request"}}
}

// matchExplicitRange tries the range grammars in fixed order.
func matchExplicitRange(text string, now time.Time) (dateResult, bool) {
	if idx := fromToRe.FindStringSubmatchIndex(text); idx != nil {
		startPhrase := text[idx[2]:idx[3]]
		endPhrase := text[idx[4]:idx[5]]
		if start, okA := parseDatePhrase(startPhrase, now); okA {
			if end, okB := parseDatePhrase(endPhrase, now); okB {
				return rangeResult(start, end, span{idx[0], idx[5]}), true
			}
		}
	}

	if idx := betweenRe.FindStringSubmatchIndex(text); idx != nil {
		startPhrase := text[idx[2]:idx[3]]
		endPhrase := text[idx[4]:idx[5]]
		if start, okA := parseDatePhrase(startPhrase, now); okA {
			if end, okB := parseDatePhrase(endPhrase, now); okB {
				return rangeResult(start, end, span{idx[0], idx[5]}), true
			}
		}
	}

	if idx := monthRangeRe.FindStringSubmatchIndex(text); idx != nil {
		month := monthsByName[strings.ToLower(text[idx[2]:idx[3]])]
		d1, _ := strconv.Atoi(text[idx[4]:idx[5]])
		d2, _ := strconv.Atoi(text[idx[6]:idx[7]])
		year := 0
		if idx[8] >= 0 {
			year, _ = strconv.Atoi(text[idx[8]:idx[9]])
		}
		start, ok := resolveDay(year, month, d1, now)
		if ok && d2 >= d1 {
			end := time.Date(start.Year(), month, d2, 0, 0, 0, 0, time.UTC)
			return rangeResult(start, end, span{idx[0], idx[1]}), true
		}
	}

	if idx := daysStartRe.FindStringSubmatchIndex(text); idx != nil {
		n, _ := strconv.Atoi(text[idx[2]:idx[3]])
		if start, ok := parseDatePhrase(text[idx[4]:idx[5]], now); ok && n > 0 {
			return rangeResult(start, start.AddDate(0, 0, n-1), span{idx[0], idx[5]}), true
		}
	}

	if idx := startForRe.FindStringSubmatchIndex(text); idx != nil {
		n, _ := strconv.Atoi(text[idx[4]:idx[5]])
		if start, ok := parseDatePhrase(text[idx[2]:idx[3]], now); ok && n > 0 {
			return rangeResult(start, start.AddDate(0, 0, n-1), span{idx[0], idx[1]}), true
		}
	}

	return dateResult{}, false
}

// rangeResult normalizes an extracted range: a year-less end before the start
// rolls into the next year ("from Dec 28 to Jan 3"); anything still inverted
// gets swapped with a warning.
func rangeResult(start, end time.Time, sp span) dateResult {
	var warnings []string
	if end.Before(start) {
		rolled := end.AddDate(1, 0, 0)
		if !rolled.Before(start) {
			end = rolled
		} else {
			start, end = end, start
			warnings = append(warnings, "date range was inverted; endpoints swapped")
		}
	}
	return dateResult{
		dates:    &models.TripDates{Start: start, End: end},
		spans:    []span{sp},
		warnings: warnings,
	}
}

// matchDuration finds a bare "<N> days"/"<N>-day" mention.
func matchDuration(text string) (int, span) {
	idx := durationRe.FindStringSubmatchIndex(text)
	if idx == nil {
		return 0, span{}
	}
	n, err := strconv.Atoi(text[idx[2]:idx[3]])
	if err != nil || n <= 0 {
		return 0, span{}
	}
	return n, span{idx[0], idx[1]}
}

// findSingleDate scans for the first standalone date mention, skipping
// fragments that are money amounts or bare numbers.
func findSingleDate(text string, now time.Time) (time.Time, span, bool) {
	type candidate struct {
		at    int
		parse func() (time.Time, bool)
		sp    span
	}
	var candidates []candidate

	if idx := monthDayRe.FindStringSubmatchIndex(text); idx != nil {
		candidates = append(candidates, candidate{at: idx[0], sp: span{idx[0], idx[1]}, parse: func() (time.Time, bool) {
			return parseDatePhrase(text[idx[0]:idx[1]], now)
		}})
	}
	if idx := dayMonthRe.FindStringSubmatchIndex(text); idx != nil {
		candidates = append(candidates, candidate{at: idx[0], sp: span{idx[0], idx[1]}, parse: func() (time.Time, bool) {
			return parseDatePhrase(text[idx[0]:idx[1]], now)
		}})
	}
	if idx := isoDateRe.FindStringSubmatchIndex(text); idx != nil {
		candidates = append(candidates, candidate{at: idx[0], sp: span{idx[0], idx[1]}, parse: func() (time.Time, bool) {
			return parseDatePhrase(text[idx[0]:idx[1]], now)
		}})
	}
	if idx := slashRe.FindStringSubmatchIndex(text); idx != nil {
		candidates = append(candidates, candidate{at: idx[0], sp: span{idx[0], idx[1]}, parse: func() (time.Time, bool) {
			return parseDatePhrase(text[idx[0]:idx[1]], now)
		}})
	}
	if idx := relativeRe.FindStringSubmatchIndex(text); idx != nil {
		candidates = append(candidates, candidate{at: idx[0], sp: span{idx[0], idx[1]}, parse: func() (time.Time, bool) {
			return parseDatePhrase(text[idx[0]:idx[1]], now)
		}})
	}

	best := -1
	for i, c := range candidates {
		if best < 0 || c.at < candidates[best].at {
			best = i
		}
	}
	if best < 0 {
		return time.Time{}, span{}, false
	}
	t, ok := candidates[best].parse()
	return t, candidates[best].sp, ok
}

// parseDatePhrase resolves one date phrase (absolute or relative) to a UTC
// midnight.
func parseDatePhrase(phrase string, now time.Time) (time.Time, bool) {
	phrase = strings.TrimSpace(phrase)
	phrase = ordinalRe.ReplaceAllString(phrase, "$1")
	lower := strings.ToLower(phrase)

	switch {
	case lower == "today":
		return midnight(now), true
	case lower == "tomorrow":
		return midnight(now).AddDate(0, 0, 1), true
	case strings.HasPrefix(lower, "next "):
		switch strings.TrimSpace(strings.TrimPrefix(lower, "next")) {
		case "week":
			return midnight(now).AddDate(0, 0, 7), true
		case "month":
			return midnight(now).AddDate(0, 1, 0), true
		case "year":
			return midnight(now).AddDate(1, 0, 0), true
		}
	}

	if m := monthDayRe.FindStringSubmatch(phrase); m != nil && len(m[0]) == len(phrase) {
		month := monthsByName[strings.ToLower(m[1])]
		day, _ := strconv.Atoi(m[2])
		year := 0
		if m[3] != "" {
			year, _ = strconv.Atoi(m[3])
		}
		return resolveDay(year, month, day, now)
	}
	if m := dayMonthRe.FindStringSubmatch(phrase); m != nil && len(m[0]) == len(phrase) {
		day, _ := strconv.Atoi(m[1])
		month := monthsByName[strings.ToLower(m[2])]
		year := 0
		if m[3] != "" {
			year, _ = strconv.Atoi(m[3])
		}
		return resolveDay(year, month, day, now)
	}
	if m := isoDateRe.FindStringSubmatch(phrase); m != nil && len(m[0]) == len(phrase) {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		return resolveDay(year, time.Month(month), day, now)
	}
	if m := slashRe.FindStringSubmatch(phrase); m != nil && len(m[0]) == len(phrase) {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if month >= 1 && month <= 12 {
			return resolveDay(year, time.Month(month), day, now)
		}
	}

	return time.Time{}, false
}

// resolveDay builds a UTC date, preferring the nearest future occurrence when
// the year is omitted.
func resolveDay(year int, month time.Month, day int, now time.Time) (time.Time, bool) {
	if month < time.January || month > time.December || day < 1 || day > 31 {
		return time.Time{}, false
	}
	explicit := year != 0
	if !explicit {
		year = now.Year()
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Month() != month || t.Day() != day {
		return time.Time{}, false
	}
	if !explicit && t.Before(midnight(now)) {
		t = t.AddDate(1, 0, 0)
	}
	return t, true
}

func midnight(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// defaultStart is the assumed departure when a request names a duration but
// no date: tomorrow.
func defaultStart(now time.Time) time.Time {
	return midnight(now).AddDate(0, 0, 1)
}
