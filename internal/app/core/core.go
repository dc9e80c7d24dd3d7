// Package core wires the planner's components together: configuration,
// artifacts, the database pool and the domain services built on top of them.
package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-planner/internal/app/domain/catalog"
	"github.com/FACorreiaa/loci-planner/internal/app/domain/planner"
	"github.com/FACorreiaa/loci-planner/internal/app/domain/poi"
	"github.com/FACorreiaa/loci-planner/internal/app/domain/reorder"
	"github.com/FACorreiaa/loci-planner/internal/app/domain/request"
	"github.com/FACorreiaa/loci-planner/internal/app/domain/routing"
	"github.com/FACorreiaa/loci-planner/internal/app/domain/similarity"
	"github.com/FACorreiaa/loci-planner/internal/app/models"
	"github.com/FACorreiaa/loci-planner/internal/db"
	"github.com/FACorreiaa/loci-planner/internal/pkg/artifacts"
	"github.com/FACorreiaa/loci-planner/internal/pkg/config"
)

// Artifacts holds everything loaded from the read-only artifact directory.
// Scorer load failures are fatal; a broken reorderer downgrades to disabled.
type Artifacts struct {
	Gazetteer *request.Gazetteer
	Scorers   similarity.Set
	Reorderer *reorder.Reorderer
}

// LoadArtifacts reads and validates the model files. Used by both the full
// wiring and the standalone verify command.
func LoadArtifacts(cfg *config.Config, logger *zap.Logger) (*Artifacts, error) {
	store := artifacts.NewStore(cfg.Artifacts.Dir)

	gazetteer, err := request.LoadGazetteer(store, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load gazetteer: %w", err)
	}
	scorers, err := similarity.LoadSet(store, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load scorer artifacts: %w", err)
	}

	reorderer := reorder.Disabled(logger)
	if cfg.Planner.ReordererEnabled {
		reorderer = reorder.Load(store, logger)
	} else {
		logger.Info("Sequence reorderer disabled by configuration")
	}

	return &Artifacts{
		Gazetteer: gazetteer,
		Scorers:   scorers,
		Reorderer: reorderer,
	}, nil
}

// Services is the assembled application: every dependency the commands need.
type Services struct {
	Config    *config.Config
	Logger    *zap.Logger
	Pool      *pgxpool.Pool
	Repo      catalog.Repository
	Parser    request.Parser
	Artifacts *Artifacts
	Planner   planner.Service
}

// New builds the full service graph. The database must be reachable; artifact
// validation failures abort startup except for the reorderer downgrade.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Services, error) {
	arts, err := LoadArtifacts(cfg, logger)
	if err != nil {
		return nil, err
	}

	connURL, err := db.ConnectionURL(cfg, logger)
	if err != nil {
		return nil, err
	}
	pool, err := db.Init(connURL, cfg, logger)
	if err != nil {
		return nil, err
	}
	if !db.WaitForDB(ctx, pool, logger) {
		pool.Close()
		return nil, fmt.Errorf("database is unreachable: %w", models.ErrRepositoryUnavailable)
	}

	repo := catalog.NewPostgresRepository(pool, logger)
	parser := request.NewParserImpl(arts.Gazetteer, logger)
	assembler := poi.NewAssemblerImpl(
		repo,
		cfg.Planner.ItemBudgetFraction,
		cfg.Planner.AccommodationMinRating,
		cfg.Planner.AccommodationFetchLimit,
		logger,
	)
	router := routing.NewRouter(routing.SpeedEstimator{SpeedKmh: cfg.Planner.TravelSpeedKmh}, logger)

	scorers := make(map[models.POIClass]planner.ClassScorer, len(arts.Scorers))
	for class, scorer := range arts.Scorers {
		scorers[class] = scorer
	}

	svc := planner.NewServiceImpl(parser, scorers, repo, assembler, router, arts.Reorderer, cfg.Planner, logger)

	logger.Info("Core services initialized",
		zap.String("artifacts_dir", cfg.Artifacts.Dir),
		zap.Bool("reorderer_enabled", arts.Reorderer.Enabled()),
	)
	return &Services{
		Config:    cfg,
		Logger:    logger,
		Pool:      pool,
		Repo:      repo,
		Parser:    parser,
		Artifacts: arts,
		Planner:   svc,
	}, nil
}

// Close releases held resources.
func (s *Services) Close() {
	if s.Pool != nil {
		s.Pool.Close()
	}
}
