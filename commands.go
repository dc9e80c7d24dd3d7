package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-planner/internal/app/core"
	"github.com/FACorreiaa/loci-planner/internal/app/models"
	"github.com/FACorreiaa/loci-planner/internal/app/observability/tracer"
	"github.com/FACorreiaa/loci-planner/internal/pkg/config"
	"github.com/FACorreiaa/loci-planner/pkg/logger"
)

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "loci-planner",
		Short:         "Personalized travel itinerary planner",
		Long:          "Generates day-by-day travel itineraries from free-text requests using offline-trained similarity models and a curated catalog.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(generateCmd(), reorderCmd(), verifyCmd())
	return root
}

// withServices loads config, starts observability and wires the full service
// graph for the lifetime of one command.
func withServices(ctx context.Context, fn func(ctx context.Context, svcs *core.Services) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	shutdown, err := tracer.InitOtelProviders("loci-planner", cfg.Server.MetricsAddr)
	if err != nil {
		return fmt.Errorf("initializing observability: %w", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Log.Error("Failed to shut down OpenTelemetry", zap.Error(err))
		}
	}()

	pprofSrv := tracer.StartPprofServer(cfg.Server.PprofAddr)
	defer func() {
		if err := pprofSrv.Shutdown(context.Background()); err != nil {
			logger.Log.Error("Failed to shut down pprof server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	svcs, err := core.New(ctx, cfg, logger.Log)
	if err != nil {
		return err
	}
	defer svcs.Close()

	return fn(ctx, svcs)
}

func generateCmd() *cobra.Command {
	var (
		text      string
		userID    string
		radiusKm  float64
		budget    float64
		noReorder bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate an itinerary from a free-text travel request",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withServices(cmd.Context(), func(ctx context.Context, svcs *core.Services) error {
				overrides := models.Overrides{}
				if cmd.Flags().Changed("radius-km") {
					overrides.RadiusKm = &radiusKm
				}
				if cmd.Flags().Changed("budget") {
					overrides.Budget = &budget
				}
				if noReorder {
					off := false
					overrides.UseReorderer = &off
				}

				it, err := svcs.Planner.Generate(ctx, text, models.CallerContext{UserID: userID}, overrides)
				if err != nil {
					return err
				}
				return printJSON(cmd, it)
			})
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "travel request text (required)")
	cmd.Flags().StringVar(&userID, "user", "", "caller user id")
	cmd.Flags().Float64Var(&radiusKm, "radius-km", 0, "search radius override in kilometers")
	cmd.Flags().Float64Var(&budget, "budget", 0, "trip budget override")
	cmd.Flags().BoolVar(&noReorder, "no-reorder", false, "skip the learned activity reordering")
	_ = cmd.MarkFlagRequired("text")
	return cmd
}

func reorderCmd() *cobra.Command {
	var rawIDs string

	cmd := &cobra.Command{
		Use:   "reorder",
		Short: "Preview the learned permutation over a list of activity ids",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ids, err := parseIDList(rawIDs)
			if err != nil {
				return err
			}
			return withServices(cmd.Context(), func(ctx context.Context, svcs *core.Services) error {
				out, err := svcs.Planner.ReorderPreview(ctx, ids)
				if err != nil {
					return err
				}
				return printJSON(cmd, out)
			})
		},
	}

	cmd.Flags().StringVar(&rawIDs, "ids", "", "comma-separated activity ids (required)")
	_ = cmd.MarkFlagRequired("ids")
	return cmd
}

func verifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Load the artifact directory and report model health",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}
			arts, err := core.LoadArtifacts(cfg, logger.Log)
			if err != nil {
				return err
			}

			report := struct {
				ArtifactsDir     string         `json:"artifacts_dir"`
				ScorerRows       map[string]int `json:"scorer_rows"`
				ReordererEnabled bool           `json:"reorderer_enabled"`
			}{
				ArtifactsDir:     cfg.Artifacts.Dir,
				ScorerRows:       make(map[string]int, len(arts.Scorers)),
				ReordererEnabled: arts.Reorderer.Enabled(),
			}
			for class, scorer := range arts.Scorers {
				report.ScorerRows[string(class)] = scorer.Rows()
			}
			return printJSON(cmd, report)
		},
	}
}

func parseIDList(raw string) ([]uuid.UUID, error) {
	parts := strings.Split(raw, ",")
	ids := make([]uuid.UUID, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := uuid.Parse(p)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", p, err)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no ids given")
	}
	return ids, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
