package poi

import (
	"regexp"
	"strconv"
	"time"
)

// Default visit window applied to destinations and to activities whose
// opening-hours string is missing or malformed.
const (
	defaultOpenOffset  = 9 * time.Hour
	defaultCloseOffset = 17 * time.Hour

	allDayOpenOffset  = 0
	allDayCloseOffset = 23*time.Hour + 59*time.Minute
)

var openingHoursRe = regexp.MustCompile(`^\s*(\d{1,2}):(\d{2})\s*-\s*(\d{1,2}):(\d{2})\s*$`)

// parseOpeningHours reads the catalog's "HH:MM-HH:MM" grammar into offsets
// from midnight. ok is false for anything else, including inverted windows.
func parseOpeningHours(s string) (open, close time.Duration, ok bool) {
	m := openingHoursRe.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, false
	}
	oh, _ := strconv.Atoi(m[1])
	om, _ := strconv.Atoi(m[2])
	ch, _ := strconv.Atoi(m[3])
	cm, _ := strconv.Atoi(m[4])
	if oh > 23 || om > 59 || ch > 23 || cm > 59 {
		return 0, 0, false
	}
	open = time.Duration(oh)*time.Hour + time.Duration(om)*time.Minute
	close = time.Duration(ch)*time.Hour + time.Duration(cm)*time.Minute
	if close <= open {
		return 0, 0, false
	}
	return open, close, true
}

// windowOn projects midnight offsets onto a calendar day.
func windowOn(day time.Time, open, close time.Duration) (time.Time, time.Time) {
	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return midnight.Add(open), midnight.Add(close)
}
