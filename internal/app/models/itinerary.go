package models

import (
	"time"

	"github.com/google/uuid"
)

// ScheduledItem is one stop on one day, enriched with catalog display fields.
// StartTime/EndTime are absolute UTC instants inside the owning day.
type ScheduledItem struct {
	ID          uuid.UUID     `json:"id"`
	Class       POIClass      `json:"class"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Category    string        `json:"category,omitempty"`
	Latitude    float64       `json:"latitude"`
	Longitude   float64       `json:"longitude"`
	Rating      *float64      `json:"rating,omitempty"`
	Price       *float64      `json:"price,omitempty"`
	StartTime   time.Time     `json:"start_time"`
	EndTime     time.Time     `json:"end_time"`
	TravelTime  time.Duration `json:"travel_time_from_previous"`
}

// ItineraryDay is an ordered schedule for one calendar day.
type ItineraryDay struct {
	DayNumber int             `json:"day_number"`
	Date      time.Time       `json:"date"`
	Items     []ScheduledItem `json:"items"`
}

// Itinerary is the generated plan. Request is the parsed-intent snapshot the
// plan was built from; day assignments are authoritative and are never
// recomputed on read.
type Itinerary struct {
	ID        uuid.UUID      `json:"id"`
	Name      string         `json:"name"`
	StartDate time.Time      `json:"start_date"`
	EndDate   time.Time      `json:"end_date"`
	Days      []ItineraryDay `json:"days"`
	Budget    *float64       `json:"budget,omitempty"`
	Request   *ParsedRequest `json:"request"`
	CreatedAt time.Time      `json:"created_at"`
}

// TotalItems counts scheduled stops across all days.
func (i *Itinerary) TotalItems() int {
	n := 0
	for _, d := range i.Days {
		n += len(d.Items)
	}
	return n
}
