package similarity

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-planner/internal/app/models"
	"github.com/FACorreiaa/loci-planner/internal/pkg/artifacts"
)

// Scorer ranks one catalog class against free text using the offline-built
// term-vector model. Instances are immutable after construction and safe for
// concurrent use.
type Scorer struct {
	class      models.POIClass
	vectorizer *Vectorizer
	matrix     *CSRMatrix
	ids        []uuid.UUID
	logger     *zap.Logger
}

// NewScorer wires a pre-decoded artifact triple, validating shape agreement.
func NewScorer(class models.POIClass, v *Vectorizer, m *CSRMatrix, ids []uuid.UUID, logger *zap.Logger) (*Scorer, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("matrix for class %s: %w", class, err)
	}
	if len(ids) != m.Rows {
		return nil, fmt.Errorf("id map for class %s has %d entries, matrix has %d rows", class, len(ids), m.Rows)
	}
	if len(v.IDF) > 0 && len(v.IDF) != m.Cols {
		return nil, fmt.Errorf("vectorizer for class %s has %d idf weights, matrix has %d columns", class, len(v.IDF), m.Cols)
	}
	for term, col := range v.Vocabulary {
		if col < 0 || col >= m.Cols {
			return nil, fmt.Errorf("vectorizer for class %s maps term %q to column %d, matrix has %d columns", class, term, col, m.Cols)
		}
	}
	v.init()
	return &Scorer{
		class:      class,
		vectorizer: v,
		matrix:     m,
		ids:        ids,
		logger:     logger,
	}, nil
}

func (s *Scorer) Class() models.POIClass {
	return s.class
}

// Rows returns the number of catalog records the scorer covers.
func (s *Scorer) Rows() int {
	return s.matrix.Rows
}

// TopK returns the ids of the k best-scoring records for the query text.
// Ties break by descending score then ascending row index. Zero scores are
// dropped for every class except destinations, which always return the full
// top-k so a weak query can still anchor a trip.
func (s *Scorer) TopK(ctx context.Context, text string, k int) ([]uuid.UUID, error) {
	ctx, span := otel.Tracer("SimilarityScorer").Start(ctx, "TopK")
	defer span.End()
	span.SetAttributes(
		attribute.String("scorer.class", string(s.class)),
		attribute.Int("scorer.k", k),
	)

	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, "Context cancelled")
		return nil, err
	}
	if k <= 0 {
		err := fmt.Errorf("top-k requested with k=%d: %w", k, models.ErrScoringUnavailable)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid k")
		return nil, err
	}

	query := s.vectorizer.Transform(text)
	scores := s.matrix.MulVec(query)

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		ia, ib := order[a], order[b]
		if scores[ia] != scores[ib] {
			return scores[ia] > scores[ib]
		}
		return ia < ib
	})

	if k > len(order) {
		k = len(order)
	}
	out := make([]uuid.UUID, 0, k)
	for _, row := range order[:k] {
		if scores[row] == 0 && s.class != models.ClassDestination {
			continue
		}
		out = append(out, s.ids[row])
	}

	span.SetAttributes(attribute.Int("scorer.results", len(out)))
	span.SetStatus(codes.Ok, "Scored")
	return out, nil
}

// Set holds the four per-class scorers.
type Set map[models.POIClass]*Scorer

// LoadScorer reads one class triple from the artifact store.
func LoadScorer(store *artifacts.Store, class models.POIClass, logger *zap.Logger) (*Scorer, error) {
	var v Vectorizer
	if err := store.ReadJSON(fmt.Sprintf("vectorizer.%s.json", class), &v); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrScoringUnavailable, err)
	}
	var m CSRMatrix
	if err := store.ReadJSON(fmt.Sprintf("matrix.%s.json", class), &m); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrScoringUnavailable, err)
	}
	var ids []uuid.UUID
	if err := store.ReadJSON(fmt.Sprintf("id_map.%s.json", class), &ids); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrScoringUnavailable, err)
	}

	scorer, err := NewScorer(class, &v, &m, ids, logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrScoringUnavailable, err)
	}
	logger.Info("Loaded similarity scorer",
		zap.String("class", string(class)),
		zap.Int("rows", m.Rows),
		zap.Int("terms", m.Cols),
	)
	return scorer, nil
}

// LoadSet loads all four class scorers; any failure is fatal to startup.
func LoadSet(store *artifacts.Store, logger *zap.Logger) (Set, error) {
	set := make(Set, len(models.ScoringClasses))
	for _, class := range models.ScoringClasses {
		scorer, err := LoadScorer(store, class, logger)
		if err != nil {
			return nil, err
		}
		set[class] = scorer
	}
	return set, nil
}
