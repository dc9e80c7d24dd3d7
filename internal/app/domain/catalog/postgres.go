package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-planner/internal/app/models"
)

var _ Repository = (*PostgresRepository)(nil)

// DB is the slice of pgxpool the repository needs; pgxmock satisfies it in
// tests.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresRepository struct {
	logger *zap.Logger
	db     DB
	sb     sq.StatementBuilderType
}

func NewPostgresRepository(db DB, logger *zap.Logger) *PostgresRepository {
	return &PostgresRepository{
		logger: logger,
		db:     db,
		sb:     sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *PostgresRepository) FindDestinationByNameLike(ctx context.Context, name string) (*models.Destination, error) {
	ctx, span := otel.Tracer("CatalogRepository").Start(ctx, "FindDestinationByNameLike", trace.WithAttributes(
		attribute.String("destination.name", name),
	))
	defer span.End()

	query := `
        SELECT id, name, description,
               ST_Y(location::geometry) AS latitude,
               ST_X(location::geometry) AS longitude,
               rating, popularity, country, region, timezone
        FROM destinations
        WHERE name ILIKE '%' || $1 || '%'
        ORDER BY popularity DESC NULLS LAST
        LIMIT 1
    `
	var d models.Destination
	var description, country, region, timezone *string
	err := r.db.QueryRow(ctx, query, name).Scan(
		&d.ID, &d.Name, &description, &d.Latitude, &d.Longitude,
		&d.Rating, &d.Popularity, &country, &region, &timezone,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Ok, "No destination found")
			return nil, nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to query destinations")
		return nil, fmt.Errorf("failed to query destinations by name: %w: %w", models.ErrRepositoryUnavailable, err)
	}
	assignString(&d.Description, description)
	assignString(&d.Country, country)
	assignString(&d.Region, region)
	assignString(&d.Timezone, timezone)
	span.SetStatus(codes.Ok, "Destination found")
	return &d, nil
}

func (r *PostgresRepository) FindDestinationsByIDsWithinRadius(ctx context.Context, ids []uuid.UUID, center models.GeoPoint, radiusMeters float64) ([]models.Destination, error) {
	ctx, span := otel.Tracer("CatalogRepository").Start(ctx, "FindDestinationsByIDsWithinRadius", trace.WithAttributes(
		attribute.Int("ids.count", len(ids)),
		attribute.Float64("radius_m", radiusMeters),
	))
	defer span.End()

	if len(ids) == 0 {
		return nil, nil
	}
	query := `
        SELECT id, name, description,
               ST_Y(location::geometry) AS latitude,
               ST_X(location::geometry) AS longitude,
               rating, popularity, country, region, timezone
        FROM destinations
        WHERE id = ANY($1)
        AND ST_DWithin(location::geography, ST_SetSRID(ST_MakePoint($2, $3), 4326)::geography, $4)
        ORDER BY popularity DESC NULLS LAST
    `
	rows, err := r.db.Query(ctx, query, ids, center.Longitude, center.Latitude, radiusMeters)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to query destinations")
		return nil, fmt.Errorf("failed to query destinations in radius: %w: %w", models.ErrRepositoryUnavailable, err)
	}
	defer rows.Close()

	var out []models.Destination
	for rows.Next() {
		var d models.Destination
		var description, country, region, timezone *string
		if err := rows.Scan(
			&d.ID, &d.Name, &description, &d.Latitude, &d.Longitude,
			&d.Rating, &d.Popularity, &country, &region, &timezone,
		); err != nil {
			return nil, fmt.Errorf("failed to scan destination row: %w", err)
		}
		assignString(&d.Description, description)
		assignString(&d.Country, country)
		assignString(&d.Region, region)
		assignString(&d.Timezone, timezone)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to iterate destination rows")
		return nil, fmt.Errorf("error iterating destination rows: %w: %w", models.ErrRepositoryUnavailable, err)
	}
	span.SetAttributes(attribute.Int("results", len(out)))
	span.SetStatus(codes.Ok, "Destinations found")
	return out, nil
}

func (r *PostgresRepository) FindActivitiesByIDsWithinRadius(ctx context.Context, ids []uuid.UUID, center models.GeoPoint, radiusMeters float64) ([]models.Activity, error) {
	ctx, span := otel.Tracer("CatalogRepository").Start(ctx, "FindActivitiesByIDsWithinRadius", trace.WithAttributes(
		attribute.Int("ids.count", len(ids)),
		attribute.Float64("radius_m", radiusMeters),
	))
	defer span.End()

	if len(ids) == 0 {
		return nil, nil
	}
	query := `
        SELECT id, name, description,
               ST_Y(location::geometry) AS latitude,
               ST_X(location::geometry) AS longitude,
               price, opening_hours, rating, activity_type, duration_minutes
        FROM activities
        WHERE id = ANY($1)
        AND ST_DWithin(location::geography, ST_SetSRID(ST_MakePoint($2, $3), 4326)::geography, $4)
        ORDER BY rating DESC NULLS LAST, id
    `
	rows, err := r.db.Query(ctx, query, ids, center.Longitude, center.Latitude, radiusMeters)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to query activities")
		return nil, fmt.Errorf("failed to query activities in radius: %w: %w", models.ErrRepositoryUnavailable, err)
	}
	defer rows.Close()

	var out []models.Activity
	for rows.Next() {
		var a models.Activity
		var description, openingHours, activityType *string
		if err := rows.Scan(
			&a.ID, &a.Name, &description, &a.Latitude, &a.Longitude,
			&a.Price, &openingHours, &a.Rating, &activityType, &a.DurationMinutes,
		); err != nil {
			return nil, fmt.Errorf("failed to scan activity row: %w", err)
		}
		assignString(&a.Description, description)
		assignString(&a.OpeningHours, openingHours)
		assignString(&a.Type, activityType)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to iterate activity rows")
		return nil, fmt.Errorf("error iterating activity rows: %w: %w", models.ErrRepositoryUnavailable, err)
	}
	span.SetAttributes(attribute.Int("results", len(out)))
	span.SetStatus(codes.Ok, "Activities found")
	return out, nil
}

func (r *PostgresRepository) FindAccommodationsWithinRadius(ctx context.Context, center models.GeoPoint, radiusMeters float64, minRating float64, limit int) ([]models.Accommodation, error) {
	ctx, span := otel.Tracer("CatalogRepository").Start(ctx, "FindAccommodationsWithinRadius", trace.WithAttributes(
		attribute.Float64("radius_m", radiusMeters),
		attribute.Float64("min_rating", minRating),
		attribute.Int("limit", limit),
	))
	defer span.End()

	builder := r.sb.Select(
		"id", "name",
		"ST_Y(location::geometry) AS latitude",
		"ST_X(location::geometry) AS longitude",
		"price_per_night", "rating", "amenities", "star_rating",
	).
		From("accommodations").
		Where(sq.Expr(
			"ST_DWithin(location::geography, ST_SetSRID(ST_MakePoint(?, ?), 4326)::geography, ?)",
			center.Longitude, center.Latitude, radiusMeters,
		)).
		Where(sq.GtOrEq{"rating": minRating}).
		OrderBy("rating DESC", "id").
		Limit(uint64(limit))

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build accommodation query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to query accommodations")
		return nil, fmt.Errorf("failed to query accommodations in radius: %w: %w", models.ErrRepositoryUnavailable, err)
	}
	defer rows.Close()

	var out []models.Accommodation
	for rows.Next() {
		var a models.Accommodation
		if err := rows.Scan(
			&a.ID, &a.Name, &a.Latitude, &a.Longitude,
			&a.PricePerNight, &a.Rating, &a.Amenities, &a.StarRating,
		); err != nil {
			return nil, fmt.Errorf("failed to scan accommodation row: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to iterate accommodation rows")
		return nil, fmt.Errorf("error iterating accommodation rows: %w: %w", models.ErrRepositoryUnavailable, err)
	}
	span.SetAttributes(attribute.Int("results", len(out)))
	span.SetStatus(codes.Ok, "Accommodations found")
	return out, nil
}

func (r *PostgresRepository) FindTransportationBetweenAreas(ctx context.Context, origin models.GeoPoint, originRadiusMeters float64, dest models.GeoPoint, destRadiusMeters float64, departAfter, arriveBefore time.Time, limit int) ([]models.Transportation, error) {
	ctx, span := otel.Tracer("CatalogRepository").Start(ctx, "FindTransportationBetweenAreas", trace.WithAttributes(
		attribute.Float64("origin_radius_m", originRadiusMeters),
		attribute.Float64("dest_radius_m", destRadiusMeters),
		attribute.Int("limit", limit),
	))
	defer span.End()

	builder := r.sb.Select(
		"id", "kind",
		"ST_Y(departure_location::geometry) AS departure_lat",
		"ST_X(departure_location::geometry) AS departure_lon",
		"departure_time",
		"ST_Y(arrival_location::geometry) AS arrival_lat",
		"ST_X(arrival_location::geometry) AS arrival_lon",
		"arrival_time", "price", "provider",
	).
		From("transportation").
		Where(sq.Expr(
			"ST_DWithin(departure_location::geography, ST_SetSRID(ST_MakePoint(?, ?), 4326)::geography, ?)",
			origin.Longitude, origin.Latitude, originRadiusMeters,
		)).
		Where(sq.Expr(
			"ST_DWithin(arrival_location::geography, ST_SetSRID(ST_MakePoint(?, ?), 4326)::geography, ?)",
			dest.Longitude, dest.Latitude, destRadiusMeters,
		)).
		Where(sq.GtOrEq{"departure_time": departAfter}).
		Where(sq.LtOrEq{"arrival_time": arriveBefore}).
		OrderBy("departure_time ASC", "id").
		Limit(uint64(limit))

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build transportation query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to query transportation")
		return nil, fmt.Errorf("failed to query transportation between areas: %w: %w", models.ErrRepositoryUnavailable, err)
	}
	defer rows.Close()

	out, err := scanTransportationRows(rows)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to scan transportation rows")
		return nil, err
	}
	span.SetAttributes(attribute.Int("results", len(out)))
	span.SetStatus(codes.Ok, "Transportation found")
	return out, nil
}

func (r *PostgresRepository) FindTransportationByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Transportation, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `
        SELECT id, kind,
               ST_Y(departure_location::geometry) AS departure_lat,
               ST_X(departure_location::geometry) AS departure_lon,
               departure_time,
               ST_Y(arrival_location::geometry) AS arrival_lat,
               ST_X(arrival_location::geometry) AS arrival_lon,
               arrival_time, price, provider
        FROM transportation
        WHERE id = ANY($1)
        ORDER BY departure_time ASC, id
    `
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query transportation by ids: %w: %w", models.ErrRepositoryUnavailable, err)
	}
	defer rows.Close()
	return scanTransportationRows(rows)
}

func scanTransportationRows(rows pgx.Rows) ([]models.Transportation, error) {
	var out []models.Transportation
	for rows.Next() {
		var t models.Transportation
		var provider *string
		if err := rows.Scan(
			&t.ID, &t.Kind,
			&t.DepartureLat, &t.DepartureLon, &t.DepartureAt,
			&t.ArrivalLat, &t.ArrivalLon, &t.ArrivalAt,
			&t.Price, &provider,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transportation row: %w", err)
		}
		assignString(&t.Provider, provider)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transportation rows: %w: %w", models.ErrRepositoryUnavailable, err)
	}
	return out, nil
}

func (r *PostgresRepository) GetDestination(ctx context.Context, id uuid.UUID) (*models.Destination, error) {
	query := `
        SELECT id, name, description,
               ST_Y(location::geometry) AS latitude,
               ST_X(location::geometry) AS longitude,
               rating, popularity, country, region, timezone
        FROM destinations
        WHERE id = $1
    `
	var d models.Destination
	var description, country, region, timezone *string
	err := r.db.QueryRow(ctx, query, id).Scan(
		&d.ID, &d.Name, &description, &d.Latitude, &d.Longitude,
		&d.Rating, &d.Popularity, &country, &region, &timezone,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get destination: %w: %w", models.ErrRepositoryUnavailable, err)
	}
	assignString(&d.Description, description)
	assignString(&d.Country, country)
	assignString(&d.Region, region)
	assignString(&d.Timezone, timezone)
	return &d, nil
}

func (r *PostgresRepository) GetActivity(ctx context.Context, id uuid.UUID) (*models.Activity, error) {
	query := `
        SELECT id, name, description,
               ST_Y(location::geometry) AS latitude,
               ST_X(location::geometry) AS longitude,
               price, opening_hours, rating, activity_type, duration_minutes
        FROM activities
        WHERE id = $1
    `
	var a models.Activity
	var description, openingHours, activityType *string
	err := r.db.QueryRow(ctx, query, id).Scan(
		&a.ID, &a.Name, &description, &a.Latitude, &a.Longitude,
		&a.Price, &openingHours, &a.Rating, &activityType, &a.DurationMinutes,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get activity: %w: %w", models.ErrRepositoryUnavailable, err)
	}
	assignString(&a.Description, description)
	assignString(&a.OpeningHours, openingHours)
	assignString(&a.Type, activityType)
	return &a, nil
}

func (r *PostgresRepository) GetAccommodation(ctx context.Context, id uuid.UUID) (*models.Accommodation, error) {
	query := `
        SELECT id, name,
               ST_Y(location::geometry) AS latitude,
               ST_X(location::geometry) AS longitude,
               price_per_night, rating, amenities, star_rating
        FROM accommodations
        WHERE id = $1
    `
	var a models.Accommodation
	err := r.db.QueryRow(ctx, query, id).Scan(
		&a.ID, &a.Name, &a.Latitude, &a.Longitude,
		&a.PricePerNight, &a.Rating, &a.Amenities, &a.StarRating,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get accommodation: %w: %w", models.ErrRepositoryUnavailable, err)
	}
	return &a, nil
}

func (r *PostgresRepository) GetTransportation(ctx context.Context, id uuid.UUID) (*models.Transportation, error) {
	query := `
        SELECT id, kind,
               ST_Y(departure_location::geometry) AS departure_lat,
               ST_X(departure_location::geometry) AS departure_lon,
               departure_time,
               ST_Y(arrival_location::geometry) AS arrival_lat,
               ST_X(arrival_location::geometry) AS arrival_lon,
               arrival_time, price, provider
        FROM transportation
        WHERE id = $1
    `
	var t models.Transportation
	var provider *string
	err := r.db.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.Kind,
		&t.DepartureLat, &t.DepartureLon, &t.DepartureAt,
		&t.ArrivalLat, &t.ArrivalLon, &t.ArrivalAt,
		&t.Price, &provider,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get transportation: %w: %w", models.ErrRepositoryUnavailable, err)
	}
	assignString(&t.Provider, provider)
	return &t, nil
}

func assignString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
