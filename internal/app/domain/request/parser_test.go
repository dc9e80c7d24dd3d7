package request

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-planner/internal/app/models"
)

// testNow pins the clock so future-preferring date resolution is stable.
var testNow = time.Date(2025, time.January, 15, 10, 30, 0, 0, time.UTC)

func newTestParser() *ParserImpl {
	gaz := NewGazetteer([]gazetteerPlace{
		{Name: "Tokyo"},
		{Name: "Paris"},
		{Name: "New York", Aliases: []string{"NYC"}},
		{Name: "London"},
		{Name: "Maldives"},
		{Name: "Kyoto"},
	})
	p := NewParserImpl(gaz, zap.NewNop())
	p.now = func() time.Time { return testNow }
	return p
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseStructuralValidation(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"whitespace only", "   \n\t "},
		{"too long", strings.Repeat("a", 2001)},
		{"script tag", "Plan a trip <script>alert(1)</script>"},
		{"javascript url", "visit javascript:alert(1)"},
		{"data url", "see data:text/html;base64,xxx"},
	}

	p := newTestParser()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			parsed, err := p.Parse(context.Background(), tc.text)
			assert.ErrorIs(t, err, models.ErrInvalidInput)
			assert.Nil(t, parsed)
		})
	}
}

func TestParseMaxLengthBoundary(t *testing.T) {
	p := newTestParser()
	parsed, err := p.Parse(context.Background(), strings.Repeat("a", 2000))
	require.NoError(t, err)
	assert.NotNil(t, parsed)
}

func TestParseSingleDestinationTrip(t *testing.T) {
	p := newTestParser()
	parsed, err := p.Parse(context.Background(),
		"Plan a trip to Paris next month with a budget of $2000. Include sightseeing and local cuisine.")
	require.NoError(t, err)

	assert.Equal(t, []string{"Paris"}, parsed.Locations)
	assert.Equal(t, "Paris", parsed.Destination())
	assert.Empty(t, parsed.Origin())

	require.NotNil(t, parsed.Dates)
	assert.Equal(t, day(2025, time.February, 15), parsed.Dates.Start)
	assert.Equal(t, 1, parsed.Dates.Days())

	require.NotNil(t, parsed.Budget)
	assert.Equal(t, 2000.0, *parsed.Budget)
	assert.Equal(t, models.PaceModerate, parsed.Pace)
	assert.Equal(t, []string{"sightseeing", "cuisine"}, parsed.Interests)
	assert.Nil(t, parsed.TravelStyle)
	assert.Equal(t,
		"Plan a trip to Paris next month with a budget of $2000. Include sightseeing and local cuisine.",
		parsed.RawText)
}

func TestParseOriginAndDestination(t *testing.T) {
	p := newTestParser()
	parsed, err := p.Parse(context.Background(),
		"Business trip to New York from London, March 15-20. Need flights and hotel near downtown. Budget $3000.")
	require.NoError(t, err)

	assert.Equal(t, []string{"London", "New York"}, parsed.Locations)
	assert.Equal(t, "New York", parsed.Destination())
	assert.Equal(t, "London", parsed.Origin())

	require.NotNil(t, parsed.Dates)
	assert.Equal(t, day(2025, time.March, 15), parsed.Dates.Start)
	assert.Equal(t, day(2025, time.March, 20), parsed.Dates.End)
	assert.Equal(t, 6, parsed.Dates.Days())

	require.NotNil(t, parsed.Budget)
	assert.Equal(t, 3000.0, *parsed.Budget)
	assert.Contains(t, parsed.Interests, "flight")
	assert.Contains(t, parsed.Interests, "hotel")
}

func TestParseDurationOnlyTrip(t *testing.T) {
	p := newTestParser()
	parsed, err := p.Parse(context.Background(),
		"Luxury 5-day trip to Maldives. Include private villa, spa treatments, and fine dining. Budget $15000.")
	require.NoError(t, err)

	assert.Equal(t, []string{"Maldives"}, parsed.Locations)
	require.NotNil(t, parsed.Dates)
	// No explicit start date: the trip is assumed to begin tomorrow.
	assert.Equal(t, day(2025, time.January, 16), parsed.Dates.Start)
	assert.Equal(t, 5, parsed.Dates.Days())
	assert.NotEmpty(t, parsed.Warnings)

	require.NotNil(t, parsed.TravelStyle)
	assert.Equal(t, "luxury", *parsed.TravelStyle)
	require.NotNil(t, parsed.Budget)
	assert.Equal(t, 15000.0, *parsed.Budget)
}

func TestParseUnknownPlaceFallsToHeuristic(t *testing.T) {
	p := newTestParser()
	parsed, err := p.Parse(context.Background(), "Plan a 3-day trip to Ogdenville")
	require.NoError(t, err)

	assert.Equal(t, []string{"Ogdenville"}, parsed.Locations)
	require.NotNil(t, parsed.Dates)
	assert.Equal(t, 3, parsed.Dates.Days())
}

func TestParseNoLocationsUsesDefault(t *testing.T) {
	p := newTestParser()
	parsed, err := p.Parse(context.Background(), "somewhere warm with beaches please")
	require.NoError(t, err)

	assert.Equal(t, []string{"My Trip"}, parsed.Locations)
	assert.Contains(t, strings.Join(parsed.Warnings, "; "), "no locations")
}

func TestParseGazetteerAlias(t *testing.T) {
	p := newTestParser()
	parsed, err := p.Parse(context.Background(), "weekend in NYC")
	require.NoError(t, err)
	assert.Equal(t, []string{"New York"}, parsed.Locations)
}

func TestExtractDates(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantStart time.Time
		wantEnd   time.Time
		wantDays  int
	}{
		{"from-to range", "from March 15 to March 20", day(2025, time.March, 15), day(2025, time.March, 20), 6},
		{"between range", "between June 1 and June 5", day(2025, time.June, 1), day(2025, time.June, 5), 5},
		{"month day range", "visiting March 15-20", day(2025, time.March, 15), day(2025, time.March, 20), 6},
		{"days starting", "4 days starting March 3", day(2025, time.March, 3), day(2025, time.March, 6), 4},
		{"starting for days", "starting on June 10 for 3 days", day(2025, time.June, 10), day(2025, time.June, 12), 3},
		{"single iso date", "arriving 2025-07-04", day(2025, time.July, 4), day(2025, time.July, 4), 1},
		{"single slash date", "arriving 07/04/2025", day(2025, time.July, 4), day(2025, time.July, 4), 1},
		{"future preferring", "visiting on January 2", day(2026, time.January, 2), day(2026, time.January, 2), 1},
		{"explicit past year kept", "March 15, 2020 retrospective", day(2020, time.March, 15), day(2020, time.March, 15), 1},
		{"tomorrow", "leaving tomorrow", day(2025, time.January, 16), day(2025, time.January, 16), 1},
		{"year rollover range", "from December 28 to January 3", day(2025, time.December, 28), day(2026, time.January, 3), 7},
		{"ordinal suffix", "from March 1st to March 3rd", day(2025, time.March, 1), day(2025, time.March, 3), 3},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := extractDates(tc.text, testNow)
			require.NotNil(t, res.dates, "expected dates for %q", tc.text)
			assert.Equal(t, tc.wantStart, res.dates.Start)
			assert.Equal(t, tc.wantEnd, res.dates.End)
			assert.Equal(t, tc.wantDays, res.dates.Days())
			assert.NotEmpty(t, res.spans)
		})
	}

	t.Run("money amounts are not dates", func(t *testing.T) {
		res := extractDates("budget of $2000 and 3000 dollars", testNow)
		assert.Nil(t, res.dates)
		assert.NotEmpty(t, res.warnings)
	})
}

func TestExtractBudget(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		want     *float64
		warnings bool
	}{
		{"dollar symbol", "budget $2,500.50 total", ptr(2500.50), false},
		{"word form", "around 3000 dollars", ptr(3000.0), false},
		{"budget of", "a budget of 1200", ptr(1200.0), false},
		{"largest wins with warning", "$500 for food, total budget $4000", ptr(4000.0), true},
		{"no money", "a lovely walk", nil, false},
		{"unreasonable ignored", "$99999999999 please", nil, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, warnings := extractBudget(tc.text)
			if tc.want == nil {
				assert.Nil(t, got)
			} else {
				require.NotNil(t, got)
				assert.Equal(t, *tc.want, *got)
			}
			assert.Equal(t, tc.warnings, len(warnings) > 0)
		})
	}
}

func TestExtractGroupSize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want *int
	}{
		{"explicit people", "4 people visiting", ptr(4)},
		{"travelers", "2 travelers", ptr(2)},
		{"family default", "a family vacation", ptr(4)},
		{"couple default", "a couple getaway", ptr(2)},
		{"explicit beats family", "family of 6 people", ptr(6)},
		{"none", "solo wandering", nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := extractGroupSize(tc.text)
			if tc.want == nil {
				assert.Nil(t, got)
			} else {
				require.NotNil(t, got)
				assert.Equal(t, *tc.want, *got)
			}
		})
	}
}

func TestStyleClassifier(t *testing.T) {
	c := newStyleClassifier()

	tests := []struct {
		name string
		text string
		want *string
	}{
		{"luxury", "luxury resort with a private villa", ptr("luxury")},
		{"adventure", "hiking and rafting adventure", ptr("adventure")},
		{"family", "family-friendly with kids", ptr("family")},
		{"budget style", "cheap backpacking on a budget", ptr("budget")},
		{"money sentence is not budget style", "a budget of $3000", nil},
		{"tie yields nil", "luxury hiking", nil},
		{"none", "ordinary sightseeing", nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := c.classify(tc.text)
			if tc.want == nil {
				assert.Nil(t, got)
			} else {
				require.NotNil(t, got)
				assert.Equal(t, *tc.want, *got)
			}
		})
	}
}

func TestExtractInterestsLemmaDedup(t *testing.T) {
	interests := extractInterests("museums and a museum, temples, temple gardens", nil)
	assert.Equal(t, []string{"museum", "temple", "garden"}, interests)
}

func TestParsePaceExplicit(t *testing.T) {
	p := newTestParser()
	parsed, err := p.Parse(context.Background(), "a relaxed week in Kyoto")
	require.NoError(t, err)
	assert.Equal(t, models.PaceRelaxed, parsed.Pace)
}

func TestParseDeterminism(t *testing.T) {
	p := newTestParser()
	text := "Plan a 5-day family trip to Tokyo in December with a $5000 budget; include museums and sushi"

	first, err := p.Parse(context.Background(), text)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := p.Parse(context.Background(), text)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestParseConfidence(t *testing.T) {
	p := newTestParser()

	rich, err := p.Parse(context.Background(),
		"Family trip to Tokyo from March 15 to March 20 for 4 people, budget $5000, include museums")
	require.NoError(t, err)

	poor, err := p.Parse(context.Background(), "ramen")
	require.NoError(t, err)

	assert.Greater(t, rich.Confidence, poor.Confidence)
	assert.LessOrEqual(t, rich.Confidence, 100.0)
	assert.GreaterOrEqual(t, poor.Confidence, 0.0)
}

func ptr[T any](v T) *T {
	return &v
}
