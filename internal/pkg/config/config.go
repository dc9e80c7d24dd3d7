package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type PostgresConfig struct {
	Host     string
	Port     string
	DB       string
	Username string
	Password string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

type RepositoriesConfig struct {
	Postgres PostgresConfig
}

type ArtifactsConfig struct {
	Dir string
}

// PlannerConfig carries the generation knobs. Defaults mirror the trained
// pipeline the artifacts were built for; override via environment.
type PlannerConfig struct {
	DefaultRadiusKm         float64
	RadiusEscalationMeters  []float64
	MaxItineraryDays        int
	TravelSpeedKmh          float64
	ItemBudgetFraction      float64
	CandidatesPerClass      int
	AccommodationMinRating  float64
	AccommodationFetchLimit int
	ReordererEnabled        bool
	GenerateTimeout         time.Duration
}

type ServerConfig struct {
	MetricsAddr string
	PprofAddr   string
}

type Config struct {
	Repositories RepositoriesConfig
	Artifacts    ArtifactsConfig
	Planner      PlannerConfig
	Server       ServerConfig
	// DatabaseURL, when set, wins over the discrete POSTGRES_* fields.
	DatabaseURL string
}

func Load() (*Config, error) {
	cfg := &Config{
		Repositories: RepositoriesConfig{
			Postgres: PostgresConfig{
				Host:     getEnvOrDefault("POSTGRES_HOST", "localhost"),
				Port:     getEnvOrDefault("POSTGRES_PORT", "5454"),
				DB:       getEnvOrDefault("POSTGRES_DB", "loci_planner"),
				Username: getEnvOrDefault("POSTGRES_USER", "postgres"),
				Password: getEnvOrDefault("POSTGRES_PASSWORD", ""),
				SSLMode:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
				MaxConns: 30,
				MinConns: 5,
			},
		},
		Artifacts: ArtifactsConfig{
			Dir: getEnvOrDefault("ARTIFACTS_DIR", "./artifacts"),
		},
		Planner: PlannerConfig{
			DefaultRadiusKm:         getEnvFloat("DEFAULT_RADIUS_KM", 30),
			RadiusEscalationMeters:  getEnvFloatList("RADIUS_ESCALATION_M", []float64{50000, 100000}),
			MaxItineraryDays:        getEnvInt("MAX_ITINERARY_DAYS", 30),
			TravelSpeedKmh:          getEnvFloat("TRAVEL_SPEED_KMH", 40),
			ItemBudgetFraction:      getEnvFloat("ITEM_BUDGET_FRACTION", 0.10),
			CandidatesPerClass:      getEnvInt("CANDIDATES_PER_CLASS", 10),
			AccommodationMinRating:  getEnvFloat("ACCOMMODATION_MIN_RATING", 3.5),
			AccommodationFetchLimit: getEnvInt("ACCOMMODATION_FETCH_LIMIT", 30),
			ReordererEnabled:        getEnvBool("REORDERER_ENABLED", true),
			GenerateTimeout:         getEnvDuration("GENERATE_TIMEOUT", 15*time.Second),
		},
		Server: ServerConfig{
			MetricsAddr: getEnvOrDefault("METRICS_ADDR", ":9092"),
			PprofAddr:   getEnvOrDefault("PPROF_ADDR", ":6060"),
		},
		DatabaseURL: getEnvOrDefault("DATABASE_URL", ""),
	}

	if cfg.DatabaseURL == "" && cfg.Repositories.Postgres.Password == "" {
		return nil, fmt.Errorf("POSTGRES_PASSWORD environment variable is required when DATABASE_URL is unset")
	}
	if cfg.Planner.ItemBudgetFraction <= 0 || cfg.Planner.ItemBudgetFraction > 1 {
		return nil, fmt.Errorf("ITEM_BUDGET_FRACTION must be in (0, 1], got %v", cfg.Planner.ItemBudgetFraction)
	}
	if cfg.Planner.CandidatesPerClass <= 0 {
		return nil, fmt.Errorf("CANDIDATES_PER_CLASS must be positive, got %d", cfg.Planner.CandidatesPerClass)
	}

	return cfg, nil
}

// RadiusTiersMeters composes the adaptive-radius schedule: the caller radius
// first, then each configured escalation tier.
func (p PlannerConfig) RadiusTiersMeters(userRadiusKm float64) []float64 {
	tiers := make([]float64, 0, len(p.RadiusEscalationMeters)+1)
	tiers = append(tiers, userRadiusKm*1000)
	tiers = append(tiers, p.RadiusEscalationMeters...)
	return tiers
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvFloatList(key string, defaultValue []float64) []float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return defaultValue
		}
		out = append(out, f)
	}
	return out
}
