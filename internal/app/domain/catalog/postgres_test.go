package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-planner/internal/app/models"
)

func newTestRepo(t *testing.T) (*PostgresRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresRepository(mock, zap.NewNop()), mock
}

func TestFindDestinationByNameLike(t *testing.T) {
	repo, mock := newTestRepo(t)
	id := uuid.New()
	rating := 4.6
	popularity := 92.0
	paris := "Paris"

	mock.ExpectQuery("SELECT id, name, description").
		WithArgs("Paris").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "name", "description", "latitude", "longitude",
			"rating", "popularity", "country", "region", "timezone",
		}).AddRow(id, paris, ptr("City of Light"), 48.8566, 2.3522, &rating, &popularity, ptr("France"), ptr("Île-de-France"), ptr("Europe/Paris")))

	d, err := repo.FindDestinationByNameLike(context.Background(), "Paris")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, id, d.ID)
	assert.Equal(t, "Paris", d.Name)
	assert.InDelta(t, 48.8566, d.Latitude, 1e-9)
	assert.Equal(t, "Europe/Paris", d.Timezone)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindDestinationByNameLikeNotFound(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery("SELECT id, name, description").
		WithArgs("Ogdenville").
		WillReturnError(errors.New("no rows in result set"))

	// Driver errors other than ErrNoRows surface as repository failures.
	d, err := repo.FindDestinationByNameLike(context.Background(), "Ogdenville")
	assert.Nil(t, d)
	assert.ErrorIs(t, err, models.ErrRepositoryUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindActivitiesByIDsWithinRadiusEmptyIDs(t *testing.T) {
	repo, _ := newTestRepo(t)

	// No ids means no query at all.
	out, err := repo.FindActivitiesByIDsWithinRadius(context.Background(), nil, models.GeoPoint{}, 1000)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestFindActivitiesByIDsWithinRadius(t *testing.T) {
	repo, mock := newTestRepo(t)
	ids := []uuid.UUID{uuid.New(), uuid.New()}
	price := 45.0
	rating := 4.1
	duration := 90

	mock.ExpectQuery("FROM activities").
		WithArgs(ids, 2.3522, 48.8566, 30000.0).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "name", "description", "latitude", "longitude",
			"price", "opening_hours", "rating", "activity_type", "duration_minutes",
		}).
			AddRow(ids[0], "Louvre", ptr("museum"), 48.8606, 2.3376, &price, ptr("09:00-18:00"), &rating, ptr("museum"), &duration).
			AddRow(ids[1], "Seine Cruise", nil, 48.8584, 2.2945, nil, nil, nil, nil, nil))

	out, err := repo.FindActivitiesByIDsWithinRadius(context.Background(), ids, models.GeoPoint{Latitude: 48.8566, Longitude: 2.3522}, 30000)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "Louvre", out[0].Name)
	assert.Equal(t, "09:00-18:00", out[0].OpeningHours)
	require.NotNil(t, out[0].Price)
	assert.Equal(t, 45.0, *out[0].Price)
	assert.Nil(t, out[1].Price)
	assert.Empty(t, out[1].OpeningHours)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindAccommodationsWithinRadius(t *testing.T) {
	repo, mock := newTestRepo(t)
	id := uuid.New()
	price := 210.0
	rating := 4.8
	stars := 5

	mock.ExpectQuery("FROM accommodations").
		WithArgs(2.3522, 48.8566, 30000.0, 3.5).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "name", "latitude", "longitude",
			"price_per_night", "rating", "amenities", "star_rating",
		}).AddRow(id, "Hôtel Rivoli", 48.8570, 2.3500, &price, &rating, []string{"wifi", "spa"}, &stars))

	out, err := repo.FindAccommodationsWithinRadius(context.Background(), models.GeoPoint{Latitude: 48.8566, Longitude: 2.3522}, 30000, 3.5, 30)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Hôtel Rivoli", out[0].Name)
	assert.Equal(t, []string{"wifi", "spa"}, out[0].Amenities)
	require.NotNil(t, out[0].StarRating)
	assert.Equal(t, 5, *out[0].StarRating)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindTransportationBetweenAreas(t *testing.T) {
	repo, mock := newTestRepo(t)
	id := uuid.New()
	price := 320.0
	depart := time.Date(2026, 3, 15, 8, 30, 0, 0, time.UTC)
	arrive := depart.Add(7*time.Hour + 45*time.Minute)

	mock.ExpectQuery("FROM transportation").
		WithArgs(
			-0.1276, 51.5072, 50000.0,
			-74.0060, 40.7128, 50000.0,
			pgxmock.AnyArg(), pgxmock.AnyArg(),
		).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "kind", "departure_lat", "departure_lon", "departure_time",
			"arrival_lat", "arrival_lon", "arrival_time", "price", "provider",
		}).AddRow(id, "flight", 51.4700, -0.4543, depart, 40.6413, -73.7781, arrive, &price, ptr("TransAtlantic")))

	out, err := repo.FindTransportationBetweenAreas(
		context.Background(),
		models.GeoPoint{Latitude: 51.5072, Longitude: -0.1276}, 50000,
		models.GeoPoint{Latitude: 40.7128, Longitude: -74.0060}, 50000,
		depart.Add(-time.Hour), arrive.Add(time.Hour), 10,
	)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "flight", out[0].Kind)
	assert.True(t, out[0].DepartureAt.Before(out[0].ArrivalAt))
	assert.Equal(t, "TransAtlantic", out[0].Provider)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetActivityNotFound(t *testing.T) {
	repo, mock := newTestRepo(t)
	id := uuid.New()

	mock.ExpectQuery("FROM activities").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "name", "description", "latitude", "longitude",
			"price", "opening_hours", "rating", "activity_type", "duration_minutes",
		}))

	a, err := repo.GetActivity(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, a)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetDestinationRepositoryError(t *testing.T) {
	repo, mock := newTestRepo(t)
	id := uuid.New()

	mock.ExpectQuery("FROM destinations").
		WithArgs(id).
		WillReturnError(errors.New("connection refused"))

	d, err := repo.GetDestination(context.Background(), id)
	assert.Nil(t, d)
	assert.ErrorIs(t, err, models.ErrRepositoryUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func ptr[T any](v T) *T { return &v }
