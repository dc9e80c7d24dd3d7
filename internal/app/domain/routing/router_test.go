package routing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-planner/internal/app/models"
)

var dayStart = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

// fixedEstimator makes travel time proportional to coordinate deltas so tests
// can steer the greedy choice precisely.
type fixedEstimator struct{}

func (fixedEstimator) TravelTime(a, b models.GeoPoint) time.Duration {
	dLat := a.Latitude - b.Latitude
	if dLat < 0 {
		dLat = -dLat
	}
	dLon := a.Longitude - b.Longitude
	if dLon < 0 {
		dLon = -dLon
	}
	return time.Duration((dLat + dLon) * float64(time.Hour))
}

func newTestRouter() *Router {
	return NewRouter(fixedEstimator{}, zap.NewNop())
}

func activityPOI(name string, lat, lon float64, open, close time.Time, duration time.Duration) models.POI {
	return models.POI{
		ID:       uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)),
		Class:    models.ClassActivity,
		Name:     name,
		Latitude: lat, Longitude: lon,
		OpenAt: open, CloseAt: close,
		Duration: duration,
	}
}

func TestScheduleDayEmptyPool(t *testing.T) {
	r := newTestRouter()
	stops := r.ScheduleDay(models.GeoPoint{}, nil, dayStart, dayStart.Add(8*time.Hour))
	assert.Empty(t, stops)
}

func TestScheduleDayRespectsWindows(t *testing.T) {
	r := newTestRouter()
	dayEnd := dayStart.Add(8 * time.Hour)

	pois := []models.POI{
		activityPOI("morning", 0, 0, dayStart, dayStart.Add(3*time.Hour), time.Hour),
		// Opens at 11:00; the router must wait for it.
		activityPOI("late-opener", 0, 0.1, dayStart.Add(2*time.Hour), dayEnd, time.Hour),
	}

	stops := r.ScheduleDay(models.GeoPoint{}, pois, dayStart, dayEnd)
	require.Len(t, stops, 2)
	for _, s := range stops {
		assert.False(t, s.Start.Before(s.POI.OpenAt), "start before opening: %s", s.POI.Name)
		assert.False(t, s.End.After(s.POI.CloseAt), "end after closing: %s", s.POI.Name)
	}
	// Waiting for the late opener: start is the window open, not arrival.
	assert.Equal(t, "late-opener", stops[1].POI.Name)
	assert.Equal(t, dayStart.Add(2*time.Hour), stops[1].Start)
}

func TestScheduleDayOrderingInvariant(t *testing.T) {
	r := newTestRouter()
	dayEnd := dayStart.Add(12 * time.Hour)

	var pois []models.POI
	for i, name := range []string{"a", "b", "c", "d"} {
		pois = append(pois, activityPOI(name, float64(i)*0.2, 0, dayStart, dayEnd, 45*time.Minute))
	}

	stops := r.ScheduleDay(models.GeoPoint{}, pois, dayStart, dayEnd)
	require.NotEmpty(t, stops)
	for i := 1; i < len(stops); i++ {
		gap := fixedEstimator{}.TravelTime(stops[i-1].POI.Point(), stops[i].POI.Point())
		assert.False(t, stops[i].Start.Before(stops[i-1].End.Add(gap)),
			"stop %d starts before previous end plus travel", i)
	}
}

func TestScheduleDayGreedyPicksNearest(t *testing.T) {
	r := newTestRouter()
	dayEnd := dayStart.Add(12 * time.Hour)

	far := activityPOI("far", 1.0, 0, dayStart, dayEnd, time.Hour)
	near := activityPOI("near", 0.1, 0, dayStart, dayEnd, time.Hour)

	stops := r.ScheduleDay(models.GeoPoint{}, []models.POI{far, near}, dayStart, dayEnd)
	require.Len(t, stops, 2)
	assert.Equal(t, "near", stops[0].POI.Name)
	assert.Equal(t, "far", stops[1].POI.Name)
}

func TestScheduleDayTiebreakByOpeningThenID(t *testing.T) {
	r := newTestRouter()
	dayEnd := dayStart.Add(12 * time.Hour)

	// Same coordinates, so equal travel time; the earlier opener wins.
	early := activityPOI("early", 0.5, 0, dayStart, dayEnd, time.Hour)
	late := activityPOI("late", 0.5, 0, dayStart.Add(time.Hour), dayEnd, time.Hour)

	stops := r.ScheduleDay(models.GeoPoint{}, []models.POI{late, early}, dayStart, dayEnd)
	require.Len(t, stops, 2)
	assert.Equal(t, "early", stops[0].POI.Name)

	// Identical windows too: the lexicographically smaller id wins.
	a := activityPOI("x", 0.5, 0, dayStart, dayEnd, time.Hour)
	b := activityPOI("y", 0.5, 0, dayStart, dayEnd, time.Hour)
	lo, hi := a, b
	if hi.ID.String() < lo.ID.String() {
		lo, hi = hi, lo
	}
	stops = r.ScheduleDay(models.GeoPoint{}, []models.POI{hi, lo}, dayStart, dayEnd)
	require.Len(t, stops, 2)
	assert.Equal(t, lo.ID, stops[0].POI.ID)
}

func TestScheduleDayHonorsDayEnd(t *testing.T) {
	r := newTestRouter()
	dayEnd := dayStart.Add(2 * time.Hour)

	pois := []models.POI{
		activityPOI("one", 0, 0, dayStart, dayStart.Add(10*time.Hour), 90*time.Minute),
		activityPOI("two", 0, 0.001, dayStart, dayStart.Add(10*time.Hour), 90*time.Minute),
	}

	stops := r.ScheduleDay(models.GeoPoint{}, pois, dayStart, dayEnd)
	// Only one 90-minute visit fits a two-hour day.
	require.Len(t, stops, 1)
	assert.False(t, stops[0].End.After(dayEnd))
}

func TestScheduleDaySkipsOutOfWindowPOI(t *testing.T) {
	r := newTestRouter()
	dayEnd := dayStart.Add(8 * time.Hour)

	// Window lies entirely after this day; it stays unscheduled today.
	tomorrow := activityPOI("tomorrow", 0, 0, dayStart.AddDate(0, 0, 1), dayEnd.AddDate(0, 0, 1), time.Hour)
	today := activityPOI("today", 0, 0, dayStart, dayEnd, time.Hour)

	stops := r.ScheduleDay(models.GeoPoint{}, []models.POI{tomorrow, today}, dayStart, dayEnd)
	require.Len(t, stops, 1)
	assert.Equal(t, "today", stops[0].POI.Name)
}

func TestScheduleDayTransportationFixedWindow(t *testing.T) {
	r := newTestRouter()
	// Short working day: the flight lands past dayEnd but carrier windows are
	// exempt from the hour cap.
	dayEnd := dayStart.Add(4 * time.Hour)
	depart := dayStart.Add(3 * time.Hour)
	arrive := depart.Add(5 * time.Hour)

	flight := models.POI{
		ID:       uuid.NewSHA1(uuid.NameSpaceOID, []byte("flight")),
		Class:    models.ClassTransportation,
		Name:     "flight",
		Latitude: 0.05, Longitude: 0,
		OpenAt: depart, CloseAt: arrive,
		Duration: 5 * time.Hour,
	}

	stops := r.ScheduleDay(models.GeoPoint{}, []models.POI{flight}, dayStart, dayEnd)
	require.Len(t, stops, 1)
	assert.Equal(t, depart, stops[0].Start)
	assert.Equal(t, arrive, stops[0].End)
}

func TestScheduleDayTransportationCannotBeMoved(t *testing.T) {
	r := newTestRouter()
	dayEnd := dayStart.Add(12 * time.Hour)
	depart := dayStart.Add(time.Hour)

	// Reaching the departure point takes two hours; the carrier leaves in
	// one. The segment is infeasible and must be skipped.
	flight := models.POI{
		ID:       uuid.NewSHA1(uuid.NameSpaceOID, []byte("missed")),
		Class:    models.ClassTransportation,
		Latitude: 2.0, Longitude: 0,
		OpenAt: depart, CloseAt: depart.Add(time.Hour),
		Duration: time.Hour,
	}

	stops := r.ScheduleDay(models.GeoPoint{}, []models.POI{flight}, dayStart, dayEnd)
	assert.Empty(t, stops)
}

func TestScheduleDayZeroDistanceBetweenDistinctPOIs(t *testing.T) {
	r := newTestRouter()
	dayEnd := dayStart.Add(8 * time.Hour)

	a := activityPOI("first", 0.1, 0.1, dayStart, dayEnd, time.Hour)
	b := activityPOI("second", 0.1, 0.1, dayStart, dayEnd, time.Hour)

	stops := r.ScheduleDay(models.GeoPoint{}, []models.POI{a, b}, dayStart, dayEnd)
	require.Len(t, stops, 2)
	assert.Zero(t, stops[1].Travel)
	assert.Equal(t, stops[0].End, stops[1].Start)
}

func TestScheduleDayDeterministic(t *testing.T) {
	r := newTestRouter()
	dayEnd := dayStart.Add(10 * time.Hour)

	var pois []models.POI
	for i, name := range []string{"m", "n", "o", "p", "q"} {
		pois = append(pois, activityPOI(name, float64(i%3)*0.3, float64(i%2)*0.2, dayStart, dayEnd, 30*time.Minute))
	}

	first := r.ScheduleDay(models.GeoPoint{}, pois, dayStart, dayEnd)
	second := r.ScheduleDay(models.GeoPoint{}, pois, dayStart, dayEnd)
	assert.Equal(t, first, second)
}

func TestShiftForDay(t *testing.T) {
	open := dayStart
	p := models.POI{Class: models.ClassActivity, OpenAt: open, CloseAt: open.Add(8 * time.Hour)}

	shifted := ShiftForDay(p, 2)
	assert.Equal(t, open.AddDate(0, 0, 2), shifted.OpenAt)

	carrier := models.POI{Class: models.ClassTransportation, OpenAt: open, CloseAt: open.Add(time.Hour)}
	assert.Equal(t, carrier, ShiftForDay(carrier, 2))
}
