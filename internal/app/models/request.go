package models

import "time"

// TripDates is the resolved travel window in UTC. A request mentioning a
// single date produces Start == End (a one-day trip).
type TripDates struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Days returns the inclusive day count of the window.
func (d TripDates) Days() int {
	return int(d.End.Sub(d.Start).Hours()/24) + 1
}

// ParsedRequest is the structured intent extracted from free text. Optional
// fields are nil when the text (and caller preferences) said nothing usable;
// Warnings records what was dropped or guessed along the way. RawText keeps
// the original request so later regenerations score against the same query.
type ParsedRequest struct {
	RawText     string     `json:"raw_text,omitempty"`
	Locations   []string   `json:"locations"`
	Dates       *TripDates `json:"dates,omitempty"`
	Interests   []string   `json:"interests"`
	Budget      *float64   `json:"budget,omitempty"`
	Pace        Pace       `json:"pace"`
	GroupSize   *int       `json:"group_size,omitempty"`
	TravelStyle *string    `json:"travel_style,omitempty"`
	Confidence  float64    `json:"confidence"`
	Warnings    []string   `json:"warnings,omitempty"`
}

// Destination returns the trip destination: the last extracted location.
// Earlier locations are treated as origins for transportation lookup.
func (r *ParsedRequest) Destination() string {
	if len(r.Locations) == 0 {
		return ""
	}
	return r.Locations[len(r.Locations)-1]
}

// Origin returns the location preceding the destination, or "" when the
// request named fewer than two places.
func (r *ParsedRequest) Origin() string {
	if len(r.Locations) < 2 {
		return ""
	}
	return r.Locations[len(r.Locations)-2]
}

// UserPreferences fill gaps the request text leaves open. They never
// override values extracted from the text itself.
type UserPreferences struct {
	Interests []string `json:"interests,omitempty"`
	Budget    *float64 `json:"budget,omitempty"`
	Pace      *Pace    `json:"pace,omitempty"`
}

// CallerContext identifies who asked and what they usually like.
type CallerContext struct {
	UserID      string           `json:"user_id,omitempty"`
	Preferences *UserPreferences `json:"preferences,omitempty"`
}

// Overrides are per-call knobs the boundary layer may set.
type Overrides struct {
	UseReorderer *bool    `json:"use_reorderer,omitempty"`
	RadiusKm     *float64 `json:"radius_km,omitempty"`
	Budget       *float64 `json:"budget,omitempty"`
}

// DayConstraints narrow a single-day regeneration.
type DayConstraints struct {
	Pace                Pace     `json:"pace,omitempty"`
	MaxPricePerActivity *float64 `json:"max_price_per_activity,omitempty"`
}
