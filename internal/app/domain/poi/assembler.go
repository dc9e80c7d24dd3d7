// Package poi assembles per-class candidate ids into the typed POI pool the
// router schedules from: it resolves ids through the catalog gateway, projects
// opening windows onto trip day 0, and applies the budget and de-duplication
// filters.
package poi

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/loci-planner/internal/app/domain/catalog"
	"github.com/FACorreiaa/loci-planner/internal/app/models"
	"github.com/FACorreiaa/loci-planner/internal/app/observability/metrics"
)

// minActivitiesPerPool is the adaptive-radius threshold: tiers widen until at
// least this many activities survive filtering or the tiers run out.
const minActivitiesPerPool = 3

// BuildInput carries one assembly request. Day0 is the first trip day in the
// destination's local time; all projected windows are relative to its date.
type BuildInput struct {
	DestinationIDs    []uuid.UUID
	ActivityIDs       []uuid.UUID
	AccommodationIDs  []uuid.UUID
	TransportationIDs []uuid.UUID
	Day0              time.Time
	Center            models.GeoPoint
	RadiusMeters      float64
	Budget            *float64
}

type Assembler interface {
	// BuildPOISet resolves and filters at a single radius. Given identical
	// gateway responses the output is identical.
	BuildPOISet(ctx context.Context, in BuildInput) ([]models.POI, error)

	// BuildPOISetAdaptive walks the widening radius schedule until the pool
	// holds enough activities, settling for the last tier's result.
	BuildPOISetAdaptive(ctx context.Context, in BuildInput, tiersMeters []float64) ([]models.POI, error)
}

type AssemblerImpl struct {
	logger             *zap.Logger
	repo               catalog.Repository
	budgetFraction     float64
	minRating          float64
	accommodationLimit int
}

var _ Assembler = (*AssemblerImpl)(nil)

func NewAssemblerImpl(repo catalog.Repository, budgetFraction, minRating float64, accommodationLimit int, logger *zap.Logger) *AssemblerImpl {
	return &AssemblerImpl{
		logger:             logger,
		repo:               repo,
		budgetFraction:     budgetFraction,
		minRating:          minRating,
		accommodationLimit: accommodationLimit,
	}
}

func (a *AssemblerImpl) BuildPOISet(ctx context.Context, in BuildInput) ([]models.POI, error) {
	ctx, span := otel.Tracer("POIAssembler").Start(ctx, "BuildPOISet")
	defer span.End()
	span.SetAttributes(
		attribute.Float64("assembler.radius_m", in.RadiusMeters),
		attribute.Int("assembler.activity_candidates", len(in.ActivityIDs)),
	)

	l := a.logger.With(zap.String("method", "BuildPOISet"), zap.Float64("radius_m", in.RadiusMeters))

	var (
		destinations   []models.Destination
		activities     []models.Activity
		accommodations []models.Accommodation
		transportation []models.Transportation
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		destinations, err = a.repo.FindDestinationsByIDsWithinRadius(gctx, in.DestinationIDs, in.Center, in.RadiusMeters)
		return err
	})
	g.Go(func() error {
		var err error
		activities, err = a.repo.FindActivitiesByIDsWithinRadius(gctx, in.ActivityIDs, in.Center, in.RadiusMeters)
		return err
	})
	g.Go(func() error {
		var err error
		accommodations, err = a.repo.FindAccommodationsWithinRadius(gctx, in.Center, in.RadiusMeters, a.minRating, a.accommodationLimit)
		return err
	})
	g.Go(func() error {
		var err error
		transportation, err = a.repo.FindTransportationByIDs(gctx, in.TransportationIDs)
		return err
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Catalog fetch failed")
		return nil, fmt.Errorf("failed to assemble poi set: %w", err)
	}

	pool := make([]models.POI, 0, len(destinations)+len(activities)+len(accommodations)+len(transportation))
	for _, d := range destinations {
		openAt, closeAt := windowOn(in.Day0, defaultOpenOffset, defaultCloseOffset)
		pool = append(pool, models.POI{
			ID:       d.ID,
			Class:    models.ClassDestination,
			Name:     d.Name,
			Latitude: d.Latitude, Longitude: d.Longitude,
			OpenAt: openAt, CloseAt: closeAt,
			Duration: 120 * time.Minute,
		})
	}
	pool = append(pool, a.assembleActivities(activities, in, l)...)

	if len(accommodations) == 0 {
		l.Warn("No accommodations met the rating floor", zap.Float64("min_rating", a.minRating))
	}
	for _, acc := range accommodations {
		openAt, closeAt := windowOn(in.Day0, allDayOpenOffset, allDayCloseOffset)
		price := 0.0
		if acc.PricePerNight != nil {
			price = *acc.PricePerNight
		}
		pool = append(pool, models.POI{
			ID:       acc.ID,
			Class:    models.ClassAccommodation,
			Name:     acc.Name,
			Latitude: acc.Latitude, Longitude: acc.Longitude,
			OpenAt: openAt, CloseAt: closeAt,
			Price: price,
		})
	}

	for _, t := range transportation {
		price := 0.0
		if t.Price != nil {
			price = *t.Price
		}
		name := t.Kind
		if t.Provider != "" {
			name = t.Provider + " " + t.Kind
		}
		pool = append(pool, models.POI{
			ID:       t.ID,
			Class:    models.ClassTransportation,
			Name:     name,
			Latitude: t.DepartureLat, Longitude: t.DepartureLon,
			OpenAt: t.DepartureAt, CloseAt: t.ArrivalAt,
			Duration: t.ArrivalAt.Sub(t.DepartureAt),
			Price:    price,
		})
	}

	pool = dedupeByKey(pool)
	span.SetAttributes(attribute.Int("assembler.pool_size", len(pool)))
	span.SetStatus(codes.Ok, "POI set assembled")
	return pool, nil
}

// assembleActivities projects windows, de-duplicates by name and ~100 m cell
// and applies the per-activity budget cap.
func (a *AssemblerImpl) assembleActivities(activities []models.Activity, in BuildInput, l *zap.Logger) []models.POI {
	var priceCap float64
	if in.Budget != nil {
		priceCap = a.budgetFraction * *in.Budget
	}

	seen := make(map[string]struct{}, len(activities))
	out := make([]models.POI, 0, len(activities))
	for _, act := range activities {
		cell := fmt.Sprintf("%s|%.3f|%.3f",
			strings.ToLower(strings.TrimSpace(act.Name)),
			math.Round(act.Latitude*1000)/1000,
			math.Round(act.Longitude*1000)/1000,
		)
		if _, dup := seen[cell]; dup {
			continue
		}
		seen[cell] = struct{}{}

		if in.Budget != nil && act.Price != nil && *act.Price > priceCap {
			continue
		}

		openOff, closeOff := defaultOpenOffset, defaultCloseOffset
		if act.OpeningHours != "" {
			if o, c, ok := parseOpeningHours(act.OpeningHours); ok {
				openOff, closeOff = o, c
			} else {
				l.Warn("Malformed opening hours, using default window",
					zap.String("activity", act.Name),
					zap.String("opening_hours", act.OpeningHours),
				)
			}
		}
		openAt, closeAt := windowOn(in.Day0, openOff, closeOff)

		duration := 60 * time.Minute
		if act.DurationMinutes != nil && *act.DurationMinutes > 0 {
			duration = time.Duration(*act.DurationMinutes) * time.Minute
		}
		price := 0.0
		if act.Price != nil {
			price = *act.Price
		}
		out = append(out, models.POI{
			ID:       act.ID,
			Class:    models.ClassActivity,
			Name:     act.Name,
			Latitude: act.Latitude, Longitude: act.Longitude,
			OpenAt: openAt, CloseAt: closeAt,
			Duration: duration,
			Price:    price,
		})
	}
	return out
}

func (a *AssemblerImpl) BuildPOISetAdaptive(ctx context.Context, in BuildInput, tiersMeters []float64) ([]models.POI, error) {
	ctx, span := otel.Tracer("POIAssembler").Start(ctx, "BuildPOISetAdaptive")
	defer span.End()

	if len(tiersMeters) == 0 {
		tiersMeters = []float64{in.RadiusMeters}
	}

	var pool []models.POI
	for i, tier := range tiersMeters {
		in.RadiusMeters = tier
		var err error
		pool, err = a.BuildPOISet(ctx, in)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Assembly failed")
			return nil, err
		}
		if countActivities(pool) >= minActivitiesPerPool {
			break
		}
		if i < len(tiersMeters)-1 {
			metrics.Get().RadiusEscalationsTotal.Add(ctx, 1)
			a.logger.Info("Too few activities in pool, widening radius",
				zap.Float64("radius_m", tier),
				zap.Float64("next_radius_m", tiersMeters[i+1]),
				zap.Int("activities", countActivities(pool)),
			)
		}
	}
	span.SetAttributes(attribute.Int("assembler.pool_size", len(pool)))
	span.SetStatus(codes.Ok, "POI set assembled")
	return pool, nil
}

func countActivities(pool []models.POI) int {
	n := 0
	for _, p := range pool {
		if p.Class == models.ClassActivity {
			n++
		}
	}
	return n
}

func dedupeByKey(pool []models.POI) []models.POI {
	seen := make(map[models.POIKey]struct{}, len(pool))
	out := pool[:0]
	for _, p := range pool {
		if _, dup := seen[p.Key()]; dup {
			continue
		}
		seen[p.Key()] = struct{}{}
		out = append(out, p)
	}
	return out
}
