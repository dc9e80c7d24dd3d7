// Package catalog is the planner's gateway to the curated travel catalog.
// The Repository interface is the boundary contract; the Postgres
// implementation in this package is the reference adapter, not a storage
// engine design. All radius parameters are meters on the WGS-84 great
// circle. Implementations must be safe for concurrent use.
package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/loci-planner/internal/app/models"
)

type Repository interface {
	// FindDestinationByNameLike returns the most popular destination whose
	// name contains the given substring, or nil when nothing matches.
	FindDestinationByNameLike(ctx context.Context, name string) (*models.Destination, error)

	// FindDestinationsByIDsWithinRadius keeps only the candidates inside the
	// great-circle disk around center.
	FindDestinationsByIDsWithinRadius(ctx context.Context, ids []uuid.UUID, center models.GeoPoint, radiusMeters float64) ([]models.Destination, error)

	FindActivitiesByIDsWithinRadius(ctx context.Context, ids []uuid.UUID, center models.GeoPoint, radiusMeters float64) ([]models.Activity, error)

	// FindAccommodationsWithinRadius returns up to limit records rated at
	// least minRating, best-rated first.
	FindAccommodationsWithinRadius(ctx context.Context, center models.GeoPoint, radiusMeters float64, minRating float64, limit int) ([]models.Accommodation, error)

	// FindTransportationBetweenAreas returns carrier segments departing
	// inside the origin disk on or after departAfter and arriving inside the
	// destination disk no later than arriveBefore.
	FindTransportationBetweenAreas(ctx context.Context, origin models.GeoPoint, originRadiusMeters float64, dest models.GeoPoint, destRadiusMeters float64, departAfter, arriveBefore time.Time, limit int) ([]models.Transportation, error)

	FindTransportationByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Transportation, error)

	// Typed record lookups used for display enrichment. A missing id yields
	// (nil, nil).
	GetDestination(ctx context.Context, id uuid.UUID) (*models.Destination, error)
	GetActivity(ctx context.Context, id uuid.UUID) (*models.Activity, error)
	GetAccommodation(ctx context.Context, id uuid.UUID) (*models.Accommodation, error)
	GetTransportation(ctx context.Context, id uuid.UUID) (*models.Transportation, error)
}
