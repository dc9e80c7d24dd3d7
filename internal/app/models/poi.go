package models

import (
	"time"

	"github.com/google/uuid"
)

// POIClass discriminates the union of schedulable item types.
type POIClass string

const (
	ClassDestination    POIClass = "destination"
	ClassActivity       POIClass = "activity"
	ClassAccommodation  POIClass = "accommodation"
	ClassTransportation POIClass = "transportation"
)

// ScoringClasses is the fixed candidate-retrieval order. Assembly and
// scheduling preserve this order so results are reproducible.
var ScoringClasses = []POIClass{
	ClassDestination,
	ClassActivity,
	ClassAccommodation,
	ClassTransportation,
}

// GeoPoint is a WGS-84 coordinate pair.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// POI is the scheduler's view of any catalog record. OpenAt and CloseAt are
// absolute instants projected onto the first trip day; the router shifts them
// forward one day at a time as the plan advances. Price is zero when the
// catalog has no price for the record.
type POI struct {
	ID        uuid.UUID     `json:"id"`
	Class     POIClass      `json:"class"`
	Name      string        `json:"name"`
	Latitude  float64       `json:"latitude"`
	Longitude float64       `json:"longitude"`
	OpenAt    time.Time     `json:"open_at"`
	CloseAt   time.Time     `json:"close_at"`
	Duration  time.Duration `json:"duration"`
	Price     float64       `json:"price"`
}

// Point returns the POI coordinate for distance math.
func (p POI) Point() GeoPoint {
	return GeoPoint{Latitude: p.Latitude, Longitude: p.Longitude}
}

// Key identifies a POI across classes; the final plan never contains the
// same key twice.
type POIKey struct {
	Class POIClass
	ID    uuid.UUID
}

func (p POI) Key() POIKey {
	return POIKey{Class: p.Class, ID: p.ID}
}

// Pace controls how densely days are packed.
type Pace string

const (
	PaceRelaxed  Pace = "relaxed"
	PaceModerate Pace = "moderate"
	PaceIntense  Pace = "intense"
)

// PacePreset bounds a single day: at most DailyActivities stops and at most
// DailyHours of combined visit and travel time.
type PacePreset struct {
	DailyActivities int
	DailyHours      time.Duration
}

var pacePresets = map[Pace]PacePreset{
	PaceRelaxed:  {DailyActivities: 2, DailyHours: 4 * time.Hour},
	PaceModerate: {DailyActivities: 4, DailyHours: 8 * time.Hour},
	PaceIntense:  {DailyActivities: 6, DailyHours: 12 * time.Hour},
}

// Preset resolves the pace to its daily bounds. Unknown values fall back to
// moderate, matching the parser default.
func (p Pace) Preset() PacePreset {
	if preset, ok := pacePresets[p]; ok {
		return preset
	}
	return pacePresets[PaceModerate]
}

// Valid reports whether p is one of the three recognized paces.
func (p Pace) Valid() bool {
	_, ok := pacePresets[p]
	return ok
}
