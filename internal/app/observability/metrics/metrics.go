package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the planner's metric instruments.
type AppMetrics struct {
	GenerationsTotal        metric.Int64Counter
	GenerationDuration      metric.Float64Histogram
	ScorerQueryDuration     metric.Float64Histogram
	RepositoryErrorsTotal   metric.Int64Counter
	ReordererFallbacksTotal metric.Int64Counter
	RadiusEscalationsTotal  metric.Int64Counter
	POIPoolSize             metric.Int64Histogram
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metrics instruments ONLY ONCE.
// It gets the Meter from the globally configured MeterProvider; before
// InitOtelProviders runs the global provider is a no-op, which keeps the
// instruments valid but inert.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("loci-planner")
		var err error
		m := &AppMetrics{}

		m.GenerationsTotal, err = meter.Int64Counter(
			"itinerary_generations_total",
			metric.WithDescription("Total number of itinerary generations by outcome"),
			metric.WithUnit("{generation}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create itinerary_generations_total: %v", err)
		}

		m.GenerationDuration, err = meter.Float64Histogram(
			"itinerary_generation_duration_seconds",
			metric.WithDescription("Duration of full itinerary generations in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create itinerary_generation_duration_seconds: %v", err)
		}

		m.ScorerQueryDuration, err = meter.Float64Histogram(
			"scorer_query_duration_seconds",
			metric.WithDescription("Duration of per-class similarity scoring in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create scorer_query_duration_seconds: %v", err)
		}

		m.RepositoryErrorsTotal, err = meter.Int64Counter(
			"catalog_repository_errors_total",
			metric.WithDescription("Total number of catalog repository failures"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create catalog_repository_errors_total: %v", err)
		}

		m.ReordererFallbacksTotal, err = meter.Int64Counter(
			"reorderer_fallbacks_total",
			metric.WithDescription("Times the sequence reorderer failed and original order was used"),
			metric.WithUnit("{fallback}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create reorderer_fallbacks_total: %v", err)
		}

		m.RadiusEscalationsTotal, err = meter.Int64Counter(
			"radius_escalations_total",
			metric.WithDescription("Times the adaptive radius widened past the caller radius"),
			metric.WithUnit("{escalation}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create radius_escalations_total: %v", err)
		}

		m.POIPoolSize, err = meter.Int64Histogram(
			"poi_pool_size",
			metric.WithDescription("Size of the assembled POI pool per generation"),
			metric.WithUnit("{poi}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create poi_pool_size: %v", err)
		}

		appMetrics = m
	})
}

// Get returns the globally initialized AppMetrics instance, initializing the
// instruments against the current global MeterProvider on first use.
func Get() *AppMetrics {
	InitAppMetrics()
	return appMetrics
}
