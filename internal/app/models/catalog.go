package models

import (
	"time"

	"github.com/google/uuid"
)

// Destination is a city-level catalog entry. Latitude/Longitude mark the
// centroid used for radius queries and travel-time estimation.
type Destination struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Rating      *float64  `json:"rating,omitempty"`
	Popularity  *float64  `json:"popularity,omitempty"`
	Country     string    `json:"country,omitempty"`
	Region      string    `json:"region,omitempty"`
	Timezone    string    `json:"timezone,omitempty"`
}

// Activity is a bookable or visitable thing to do. OpeningHours is the raw
// catalog string ("HH:MM-HH:MM"); malformed values fall back to the default
// window at assembly time.
type Activity struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	Latitude        float64   `json:"latitude"`
	Longitude       float64   `json:"longitude"`
	Price           *float64  `json:"price,omitempty"`
	OpeningHours    string    `json:"opening_hours,omitempty"`
	Rating          *float64  `json:"rating,omitempty"`
	Type            string    `json:"type,omitempty"`
	DurationMinutes *int      `json:"duration_minutes,omitempty"`
}

// Accommodation is a lodging option near a destination.
type Accommodation struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	PricePerNight *float64  `json:"price_per_night,omitempty"`
	Rating        *float64  `json:"rating,omitempty"`
	Amenities     []string  `json:"amenities,omitempty"`
	StarRating    *int      `json:"star_rating,omitempty"`
}

// Transportation is a scheduled carrier segment between two areas.
// DepartureTime is always strictly before ArrivalTime.
type Transportation struct {
	ID           uuid.UUID `json:"id"`
	Kind         string    `json:"kind"`
	DepartureLat float64   `json:"departure_lat"`
	DepartureLon float64   `json:"departure_lon"`
	DepartureAt  time.Time `json:"departure_at"`
	ArrivalLat   float64   `json:"arrival_lat"`
	ArrivalLon   float64   `json:"arrival_lon"`
	ArrivalAt    time.Time `json:"arrival_at"`
	Price        *float64  `json:"price,omitempty"`
	Provider     string    `json:"provider,omitempty"`
}
