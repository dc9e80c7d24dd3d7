// Package planner orchestrates one itinerary generation end to end: parse the
// request, score candidates per class, assemble the POI pool, schedule each
// trip day and enrich the chosen stops with catalog display fields.
package planner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/loci-planner/internal/app/domain/catalog"
	"github.com/FACorreiaa/loci-planner/internal/app/domain/poi"
	"github.com/FACorreiaa/loci-planner/internal/app/domain/request"
	"github.com/FACorreiaa/loci-planner/internal/app/domain/routing"
	"github.com/FACorreiaa/loci-planner/internal/app/models"
	"github.com/FACorreiaa/loci-planner/internal/app/observability/metrics"
	"github.com/FACorreiaa/loci-planner/internal/pkg/config"
)

const (
	centroidCacheTTL = 15 * time.Minute
	recordCacheTTL   = 5 * time.Minute
)

// ClassScorer is the candidate-retrieval contract the planner needs from the
// similarity layer.
type ClassScorer interface {
	TopK(ctx context.Context, text string, k int) ([]uuid.UUID, error)
}

// SequenceReorderer is the optional activity-permutation contract.
type SequenceReorderer interface {
	Enabled() bool
	Reorder(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error)
}

type Service interface {
	// Generate builds a full itinerary from free text. It never returns a
	// partial plan: a deadline or repository failure aborts the whole call.
	Generate(ctx context.Context, text string, caller models.CallerContext, overrides models.Overrides) (*models.Itinerary, error)

	// ReorderPreview exposes the learned permutation directly; identity when
	// the reorderer is disabled.
	ReorderPreview(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error)

	// RegenerateDay rebuilds a single day of an existing itinerary under new
	// constraints, leaving every other day untouched.
	RegenerateDay(ctx context.Context, it *models.Itinerary, dayIndex int, constraints models.DayConstraints) (*models.Itinerary, error)
}

type ServiceImpl struct {
	logger    *zap.Logger
	parser    request.Parser
	scorers   map[models.POIClass]ClassScorer
	repo      catalog.Repository
	assembler poi.Assembler
	router    *routing.Router
	reorderer SequenceReorderer
	cache     *cache.Cache
	cfg       config.PlannerConfig
	now       func() time.Time
}

var _ Service = (*ServiceImpl)(nil)

func NewServiceImpl(
	parser request.Parser,
	scorers map[models.POIClass]ClassScorer,
	repo catalog.Repository,
	assembler poi.Assembler,
	router *routing.Router,
	reorderer SequenceReorderer,
	cfg config.PlannerConfig,
	logger *zap.Logger,
) *ServiceImpl {
	return &ServiceImpl{
		logger:    logger,
		parser:    parser,
		scorers:   scorers,
		repo:      repo,
		assembler: assembler,
		router:    router,
		reorderer: reorderer,
		cache:     cache.New(recordCacheTTL, 10*time.Minute),
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *ServiceImpl) Generate(ctx context.Context, text string, caller models.CallerContext, overrides models.Overrides) (*models.Itinerary, error) {
	ctx, span := otel.Tracer("PlanAssembler").Start(ctx, "Generate")
	defer span.End()

	started := s.now()
	m := metrics.Get()
	outcome := "error"
	defer func() {
		m.GenerationsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
		m.GenerationDuration.Record(ctx, time.Since(started).Seconds())
	}()

	if s.cfg.GenerateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.GenerateTimeout)
		defer cancel()
	}

	l := s.logger.With(zap.String("method", "Generate"), zap.String("user_id", caller.UserID))

	parsed, err := s.parser.Parse(ctx, text)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Parse failed")
		return nil, err
	}
	applyPreferences(parsed, caller.Preferences)
	if overrides.Budget != nil {
		parsed.Budget = overrides.Budget
	}

	dest, err := s.resolveCentroid(ctx, parsed.Destination())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Destination lookup failed")
		return nil, s.wrapDeadline(err)
	}
	if dest == nil {
		err := fmt.Errorf("no destination matches %q: %w", parsed.Destination(), models.ErrDestinationNotFound)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Destination not found")
		return nil, err
	}
	center := models.GeoPoint{Latitude: dest.Latitude, Longitude: dest.Longitude}

	day0Start, tripDays := s.resolveTripWindow(parsed, dest.Timezone)
	radiusKm := s.cfg.DefaultRadiusKm
	if overrides.RadiusKm != nil && *overrides.RadiusKm > 0 {
		radiusKm = *overrides.RadiusKm
	}

	l.Info("Generating itinerary",
		zap.String("destination", dest.Name),
		zap.Int("trip_days", tripDays),
		zap.Float64("radius_km", radiusKm),
	)
	span.SetAttributes(
		attribute.String("plan.destination", dest.Name),
		attribute.Int("plan.trip_days", tripDays),
	)

	candidates, err := s.scoreCandidates(ctx, scoringText(parsed.RawText, parsed))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Scoring failed")
		return nil, s.wrapDeadline(err)
	}
	candidates[models.ClassTransportation] = s.resolveTransportation(
		ctx, parsed, center, radiusKm, day0Start, tripDays, candidates[models.ClassTransportation], l)

	pool, err := s.assembler.BuildPOISetAdaptive(ctx, poi.BuildInput{
		DestinationIDs:    candidates[models.ClassDestination],
		ActivityIDs:       candidates[models.ClassActivity],
		AccommodationIDs:  candidates[models.ClassAccommodation],
		TransportationIDs: candidates[models.ClassTransportation],
		Day0:              day0Start,
		Center:            center,
		RadiusMeters:      radiusKm * 1000,
		Budget:            parsed.Budget,
	}, s.cfg.RadiusTiersMeters(radiusKm))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Assembly failed")
		return nil, s.wrapDeadline(err)
	}
	m.POIPoolSize.Record(ctx, int64(len(pool)))
	if len(pool) == 0 {
		err := fmt.Errorf("no points of interest survived filtering around %q: %w", dest.Name, models.ErrEmptyPlan)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Empty pool")
		return nil, err
	}

	pool = s.applyReorder(ctx, pool, overrides.UseReorderer, l)

	days, err := s.scheduleDays(ctx, pool, center, day0Start, tripDays, parsed.Pace.Preset())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Scheduling failed")
		return nil, s.wrapDeadline(err)
	}

	it := &models.Itinerary{
		ID:        uuid.New(),
		Name:      "Trip to " + dest.Name,
		StartDate: day0Start,
		EndDate:   day0Start.AddDate(0, 0, tripDays-1),
		Days:      days,
		Budget:    parsed.Budget,
		Request:   parsed,
		CreatedAt: s.now().UTC(),
	}

	outcome = "ok"
	span.SetAttributes(attribute.Int("plan.total_items", it.TotalItems()))
	span.SetStatus(codes.Ok, "Itinerary generated")
	l.Info("Generated itinerary",
		zap.String("itinerary_id", it.ID.String()),
		zap.Int("total_items", it.TotalItems()),
	)
	return it, nil
}

func (s *ServiceImpl) ReorderPreview(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	ctx, span := otel.Tracer("PlanAssembler").Start(ctx, "ReorderPreview")
	defer span.End()

	out, err := s.reorderer.Reorder(ctx, ids)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Reorder failed")
		return nil, err
	}
	span.SetStatus(codes.Ok, "Previewed")
	return out, nil
}

func (s *ServiceImpl) RegenerateDay(ctx context.Context, it *models.Itinerary, dayIndex int, constraints models.DayConstraints) (*models.Itinerary, error) {
	ctx, span := otel.Tracer("PlanAssembler").Start(ctx, "RegenerateDay")
	defer span.End()
	span.SetAttributes(attribute.Int("plan.day_index", dayIndex))

	if it == nil || it.Request == nil {
		err := fmt.Errorf("itinerary has no request snapshot: %w", models.ErrInvalidInput)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Missing snapshot")
		return nil, err
	}
	if dayIndex < 0 || dayIndex >= len(it.Days) {
		err := fmt.Errorf("day index %d outside itinerary of %d days: %w", dayIndex, len(it.Days), models.ErrInvalidInput)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Day index out of range")
		return nil, err
	}

	l := s.logger.With(zap.String("method", "RegenerateDay"), zap.Int("day_index", dayIndex))
	parsed := it.Request

	dest, err := s.resolveCentroid(ctx, parsed.Destination())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Destination lookup failed")
		return nil, err
	}
	if dest == nil {
		err := fmt.Errorf("no destination matches %q: %w", parsed.Destination(), models.ErrDestinationNotFound)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Destination not found")
		return nil, err
	}
	center := models.GeoPoint{Latitude: dest.Latitude, Longitude: dest.Longitude}

	day0Start := it.StartDate
	radiusKm := s.cfg.DefaultRadiusKm

	candidates, err := s.scoreCandidates(ctx, scoringText(parsed.RawText, parsed))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Scoring failed")
		return nil, err
	}

	pool, err := s.assembler.BuildPOISetAdaptive(ctx, poi.BuildInput{
		DestinationIDs:    candidates[models.ClassDestination],
		ActivityIDs:       candidates[models.ClassActivity],
		AccommodationIDs:  candidates[models.ClassAccommodation],
		TransportationIDs: candidates[models.ClassTransportation],
		Day0:              day0Start,
		Center:            center,
		RadiusMeters:      radiusKm * 1000,
		Budget:            parsed.Budget,
	}, s.cfg.RadiusTiersMeters(radiusKm))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Assembly failed")
		return nil, err
	}

	// Everything already scheduled on the other days stays off the table.
	taken := make(map[uuid.UUID]struct{})
	for d, day := range it.Days {
		if d == dayIndex {
			continue
		}
		for _, item := range day.Items {
			taken[item.ID] = struct{}{}
		}
	}
	filtered := pool[:0]
	for _, p := range pool {
		if _, used := taken[p.ID]; used {
			continue
		}
		filtered = append(filtered, applyPriceCeiling(p, constraints.MaxPricePerActivity))
	}
	pool = filtered
	if len(pool) == 0 {
		err := fmt.Errorf("no points of interest remain for day %d: %w", dayIndex, models.ErrEmptyPlan)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Empty pool")
		return nil, err
	}

	pace := parsed.Pace
	if constraints.Pace.Valid() {
		pace = constraints.Pace
	}

	// Anchor where the previous day left off, or at the centroid on day 0.
	anchor := center
	if dayIndex > 0 {
		if prev := it.Days[dayIndex-1].Items; len(prev) > 0 {
			last := prev[len(prev)-1]
			anchor = models.GeoPoint{Latitude: last.Latitude, Longitude: last.Longitude}
		}
	}

	preset := pace.Preset()
	dayStart := day0Start.AddDate(0, 0, dayIndex)
	dayEnd := dayStart.Add(preset.DailyHours)

	shifted := make([]models.POI, len(pool))
	for i, p := range pool {
		shifted[i] = routing.ShiftForDay(p, dayIndex)
	}
	stops := s.router.ScheduleDay(anchor, shifted, dayStart, dayEnd)
	if len(stops) > preset.DailyActivities {
		stops = stops[:preset.DailyActivities]
	}

	items, err := s.enrichStops(ctx, stops)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Enrichment failed")
		return nil, err
	}

	out := *it
	out.Days = make([]models.ItineraryDay, len(it.Days))
	copy(out.Days, it.Days)
	out.Days[dayIndex] = models.ItineraryDay{
		DayNumber: dayIndex + 1,
		Date:      dayStart,
		Items:     items,
	}

	span.SetStatus(codes.Ok, "Day regenerated")
	l.Info("Regenerated day", zap.Int("items", len(items)), zap.String("pace", string(pace)))
	return &out, nil
}

// resolveCentroid looks the destination up by name, caching hits so repeated
// generations for the same city skip the round trip.
func (s *ServiceImpl) resolveCentroid(ctx context.Context, name string) (*models.Destination, error) {
	key := "centroid:" + strings.ToLower(strings.TrimSpace(name))
	if hit, ok := s.cache.Get(key); ok {
		return hit.(*models.Destination), nil
	}
	dest, err := s.repo.FindDestinationByNameLike(ctx, name)
	if err != nil {
		metrics.Get().RepositoryErrorsTotal.Add(ctx, 1)
		return nil, err
	}
	if dest != nil {
		s.cache.Set(key, dest, centroidCacheTTL)
	}
	return dest, nil
}

// resolveTripWindow computes the first day's 09:00 start in the destination's
// local time and the capped day count. A request without dates becomes a
// one-day trip starting today.
func (s *ServiceImpl) resolveTripWindow(parsed *models.ParsedRequest, tz string) (time.Time, int) {
	loc := time.UTC
	if tz != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		} else {
			s.logger.Warn("Unknown destination timezone, using UTC", zap.String("timezone", tz))
		}
	}

	start := s.now().UTC()
	days := 1
	if parsed.Dates != nil {
		start = parsed.Dates.Start
		days = parsed.Dates.Days()
		if days < 1 {
			days = 1
		}
	} else {
		parsed.Warnings = append(parsed.Warnings, "no travel dates found; planning a single day starting today")
	}
	if s.cfg.MaxItineraryDays > 0 && days > s.cfg.MaxItineraryDays {
		s.logger.Warn("Trip length capped",
			zap.Int("requested_days", days),
			zap.Int("max_days", s.cfg.MaxItineraryDays),
		)
		days = s.cfg.MaxItineraryDays
	}

	day0 := time.Date(start.Year(), start.Month(), start.Day(), 9, 0, 0, 0, loc)
	return day0, days
}

// scoreCandidates fans out the per-class top-k queries.
func (s *ServiceImpl) scoreCandidates(ctx context.Context, text string) (map[models.POIClass][]uuid.UUID, error) {
	m := metrics.Get()
	out := make(map[models.POIClass][]uuid.UUID, len(models.ScoringClasses))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, class := range models.ScoringClasses {
		scorer, ok := s.scorers[class]
		if !ok {
			return nil, fmt.Errorf("no scorer for class %s: %w", class, models.ErrScoringUnavailable)
		}
		class := class
		g.Go(func() error {
			started := time.Now()
			ids, err := scorer.TopK(gctx, text, s.cfg.CandidatesPerClass)
			m.ScorerQueryDuration.Record(gctx, time.Since(started).Seconds(),
				metric.WithAttributes(attribute.String("class", string(class))))
			if err != nil {
				return fmt.Errorf("scoring class %s: %w", class, err)
			}
			mu.Lock()
			out[class] = ids
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// resolveTransportation prefers concrete carrier segments between the origin
// and destination areas; the scored candidates are the fallback.
func (s *ServiceImpl) resolveTransportation(
	ctx context.Context,
	parsed *models.ParsedRequest,
	center models.GeoPoint,
	radiusKm float64,
	day0Start time.Time,
	tripDays int,
	scored []uuid.UUID,
	l *zap.Logger,
) []uuid.UUID {
	originName := parsed.Origin()
	if originName == "" {
		return scored
	}

	origin, err := s.resolveCentroid(ctx, originName)
	if err != nil || origin == nil {
		l.Warn("Origin could not be resolved, using scored transportation",
			zap.String("origin", originName), zap.Error(err))
		return scored
	}

	segments, err := s.repo.FindTransportationBetweenAreas(ctx,
		models.GeoPoint{Latitude: origin.Latitude, Longitude: origin.Longitude}, radiusKm*1000,
		center, radiusKm*1000,
		day0Start, day0Start.AddDate(0, 0, tripDays),
		s.cfg.CandidatesPerClass,
	)
	if err != nil {
		metrics.Get().RepositoryErrorsTotal.Add(ctx, 1)
		l.Warn("Transportation area query failed, using scored candidates", zap.Error(err))
		return scored
	}
	if len(segments) == 0 {
		return scored
	}
	ids := make([]uuid.UUID, 0, len(segments))
	for _, seg := range segments {
		ids = append(ids, seg.ID)
	}
	return ids
}

// applyReorder runs the learned permutation over the pool's activities and
// resorts the pool so activities lead in model order. Any failure keeps the
// original order; generation never depends on the reorderer.
func (s *ServiceImpl) applyReorder(ctx context.Context, pool []models.POI, override *bool, l *zap.Logger) []models.POI {
	enabled := s.cfg.ReordererEnabled && s.reorderer.Enabled()
	if override != nil {
		enabled = *override && s.reorderer.Enabled()
	}
	if !enabled {
		return pool
	}

	var activityIDs []uuid.UUID
	for _, p := range pool {
		if p.Class == models.ClassActivity {
			activityIDs = append(activityIDs, p.ID)
		}
	}
	if len(activityIDs) < 2 {
		return pool
	}

	reordered, err := s.reorderer.Reorder(ctx, activityIDs)
	if err != nil {
		metrics.Get().ReordererFallbacksTotal.Add(ctx, 1)
		l.Warn("Reorderer failed, keeping original activity order", zap.Error(err))
		return pool
	}

	rank := make(map[uuid.UUID]int, len(reordered))
	for i, id := range reordered {
		rank[id] = i
	}
	sort.SliceStable(pool, func(a, b int) bool {
		pa, pb := pool[a], pool[b]
		aAct, bAct := pa.Class == models.ClassActivity, pb.Class == models.ClassActivity
		if aAct != bAct {
			return aAct
		}
		if aAct && bAct {
			return rank[pa.ID] < rank[pb.ID]
		}
		return false
	})
	return pool
}

// scheduleDays walks the trip one day at a time, consuming the pool.
func (s *ServiceImpl) scheduleDays(
	ctx context.Context,
	pool []models.POI,
	center models.GeoPoint,
	day0Start time.Time,
	tripDays int,
	preset models.PacePreset,
) ([]models.ItineraryDay, error) {
	remaining := make([]models.POI, len(pool))
	copy(remaining, pool)

	anchor := center
	days := make([]models.ItineraryDay, 0, tripDays)
	for d := 0; d < tripDays; d++ {
		if err := ctx.Err(); err != nil {
			return nil, s.wrapDeadline(err)
		}
		dayStart := day0Start.AddDate(0, 0, d)
		dayEnd := dayStart.Add(preset.DailyHours)

		shifted := make([]models.POI, len(remaining))
		for i, p := range remaining {
			shifted[i] = routing.ShiftForDay(p, d)
		}
		stops := s.router.ScheduleDay(anchor, shifted, dayStart, dayEnd)
		if len(stops) > preset.DailyActivities {
			stops = stops[:preset.DailyActivities]
		}

		items, err := s.enrichStops(ctx, stops)
		if err != nil {
			return nil, err
		}

		scheduled := make(map[models.POIKey]struct{}, len(stops))
		for _, stop := range stops {
			scheduled[stop.POI.Key()] = struct{}{}
		}
		kept := remaining[:0]
		for _, p := range remaining {
			if _, used := scheduled[p.Key()]; used {
				continue
			}
			kept = append(kept, p)
		}
		remaining = kept

		if len(stops) > 0 {
			anchor = stops[len(stops)-1].POI.Point()
		}
		days = append(days, models.ItineraryDay{
			DayNumber: d + 1,
			Date:      dayStart,
			Items:     items,
		})
	}
	return days, nil
}

// enrichStops decorates scheduled stops with catalog display fields. Lookups
// fan out and are cached; a missing record keeps the stop with its pool
// fields only.
func (s *ServiceImpl) enrichStops(ctx context.Context, stops []routing.Stop) ([]models.ScheduledItem, error) {
	items := make([]models.ScheduledItem, len(stops))
	g, gctx := errgroup.WithContext(ctx)
	for i, stop := range stops {
		items[i] = models.ScheduledItem{
			ID:         stop.POI.ID,
			Class:      stop.POI.Class,
			Name:       stop.POI.Name,
			Latitude:   stop.POI.Latitude,
			Longitude:  stop.POI.Longitude,
			StartTime:  stop.Start,
			EndTime:    stop.End,
			TravelTime: stop.Travel,
		}
		if stop.POI.Price > 0 {
			price := stop.POI.Price
			items[i].Price = &price
		}
		i := i
		g.Go(func() error {
			return s.enrichItem(gctx, &items[i])
		})
	}
	if err := g.Wait(); err != nil {
		return nil, s.wrapDeadline(err)
	}
	return items, nil
}

func (s *ServiceImpl) enrichItem(ctx context.Context, item *models.ScheduledItem) error {
	key := fmt.Sprintf("record:%s:%s", item.Class, item.ID)
	if hit, ok := s.cache.Get(key); ok {
		hit.(func(*models.ScheduledItem))(item)
		return nil
	}

	var decorate func(*models.ScheduledItem)
	switch item.Class {
	case models.ClassDestination:
		rec, err := s.repo.GetDestination(ctx, item.ID)
		if err != nil {
			return s.recordRepoError(ctx, err)
		}
		if rec == nil {
			return nil
		}
		decorate = func(it *models.ScheduledItem) {
			it.Description = rec.Description
			it.Category = rec.Country
			it.Rating = rec.Rating
		}
	case models.ClassActivity:
		rec, err := s.repo.GetActivity(ctx, item.ID)
		if err != nil {
			return s.recordRepoError(ctx, err)
		}
		if rec == nil {
			return nil
		}
		decorate = func(it *models.ScheduledItem) {
			it.Description = rec.Description
			it.Category = rec.Type
			it.Rating = rec.Rating
			it.Price = rec.Price
		}
	case models.ClassAccommodation:
		rec, err := s.repo.GetAccommodation(ctx, item.ID)
		if err != nil {
			return s.recordRepoError(ctx, err)
		}
		if rec == nil {
			return nil
		}
		decorate = func(it *models.ScheduledItem) {
			it.Category = strings.Join(rec.Amenities, ", ")
			it.Rating = rec.Rating
			it.Price = rec.PricePerNight
		}
	case models.ClassTransportation:
		rec, err := s.repo.GetTransportation(ctx, item.ID)
		if err != nil {
			return s.recordRepoError(ctx, err)
		}
		if rec == nil {
			return nil
		}
		decorate = func(it *models.ScheduledItem) {
			it.Category = rec.Kind
			it.Description = rec.Provider
			it.Price = rec.Price
		}
	default:
		return nil
	}

	decorate(item)
	s.cache.Set(key, decorate, recordCacheTTL)
	return nil
}

func (s *ServiceImpl) recordRepoError(ctx context.Context, err error) error {
	metrics.Get().RepositoryErrorsTotal.Add(ctx, 1)
	return err
}

// wrapDeadline maps context expiry onto the planner's deadline sentinel so
// callers can match it without knowing about context internals.
func (s *ServiceImpl) wrapDeadline(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("generation aborted: %w: %w", models.ErrDeadlineExceeded, err)
	}
	return err
}

// applyPreferences fills fields the text left open; it never overrides what
// the request itself said. A moderate pace is the parser default and counts
// as unset here.
func applyPreferences(parsed *models.ParsedRequest, prefs *models.UserPreferences) {
	if prefs == nil {
		return
	}
	if len(parsed.Interests) == 0 && len(prefs.Interests) > 0 {
		parsed.Interests = append([]string(nil), prefs.Interests...)
	}
	if parsed.Budget == nil && prefs.Budget != nil {
		parsed.Budget = prefs.Budget
	}
	if prefs.Pace != nil && prefs.Pace.Valid() && parsed.Pace == models.PaceModerate {
		parsed.Pace = *prefs.Pace
	}
}

// scoringText enriches the similarity query with the request's interests so
// preference-filled interests influence retrieval too.
func scoringText(text string, parsed *models.ParsedRequest) string {
	parts := make([]string, 0, len(parsed.Interests)+1)
	if text != "" {
		parts = append(parts, text)
	}
	parts = append(parts, parsed.Interests...)
	if len(parts) == 0 {
		parts = append(parts, parsed.Destination())
	}
	return strings.Join(parts, " ")
}

// applyPriceCeiling clamps an activity's effective price for regeneration.
func applyPriceCeiling(p models.POI, maxPrice *float64) models.POI {
	if maxPrice == nil || p.Class != models.ClassActivity {
		return p
	}
	if p.Price > *maxPrice {
		p.Price = *maxPrice
	}
	return p
}
