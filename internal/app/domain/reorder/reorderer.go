// Package reorder is the optional learned permutation over activity ids. A
// load failure downgrades the planner to original ordering; it never blocks
// generation.
package reorder

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-planner/internal/app/models"
	"github.com/FACorreiaa/loci-planner/internal/pkg/artifacts"
)

const (
	vocabFile   = "vocab.json"
	configFile  = "reorder_config.json"
	weightsFile = "model_weights.bin"
)

// vocabArtifact indexes tokens by position: control tokens first, then one
// token per catalog id (the id's string form).
type vocabArtifact struct {
	Tokens []string `json:"tokens"`
}

// Reorderer permutes activity id sequences with a greedy seq2seq decode.
// Immutable after construction and safe for concurrent use. The zero-value
// disabled instance is a valid identity reorderer.
type Reorderer struct {
	logger  *zap.Logger
	enabled bool
	cfg     modelConfig
	weights *modelWeights
	tokenID map[string]int
	tokens  []string
}

// Disabled returns an identity reorderer.
func Disabled(logger *zap.Logger) *Reorderer {
	return &Reorderer{logger: logger}
}

// NewReorderer wires pre-decoded artifacts, validating shape agreement.
func NewReorderer(tokens []string, cfg modelConfig, weights *modelWeights, logger *zap.Logger) (*Reorderer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if len(tokens) != cfg.VocabSize {
		return nil, fmt.Errorf("vocab has %d tokens, config says %d", len(tokens), cfg.VocabSize)
	}
	if err := weights.validate(cfg); err != nil {
		return nil, err
	}
	tokenID := make(map[string]int, len(tokens))
	for i, tok := range tokens {
		tokenID[tok] = i
	}
	return &Reorderer{
		logger:  logger,
		enabled: true,
		cfg:     cfg,
		weights: weights,
		tokenID: tokenID,
		tokens:  tokens,
	}, nil
}

// Load reads the reorderer triple from the artifact store. Any failure
// downgrades to a disabled instance; generation proceeds with original order.
func Load(store *artifacts.Store, logger *zap.Logger) *Reorderer {
	var vocab vocabArtifact
	if err := store.ReadJSON(vocabFile, &vocab); err != nil {
		logger.Warn("Reorderer disabled: vocab unavailable", zap.Error(err))
		return Disabled(logger)
	}
	var cfg modelConfig
	if err := store.ReadJSON(configFile, &cfg); err != nil {
		logger.Warn("Reorderer disabled: config unavailable", zap.Error(err))
		return Disabled(logger)
	}
	blob, err := store.ReadBlob(weightsFile)
	if err != nil {
		logger.Warn("Reorderer disabled: weights unavailable", zap.Error(err))
		return Disabled(logger)
	}
	weights, err := decodeWeights(blob)
	if err != nil {
		logger.Warn("Reorderer disabled: weights undecodable", zap.Error(err))
		return Disabled(logger)
	}
	r, err := NewReorderer(vocab.Tokens, cfg, weights, logger)
	if err != nil {
		logger.Warn("Reorderer disabled: artifact validation failed", zap.Error(err))
		return Disabled(logger)
	}
	logger.Info("Loaded sequence reorderer",
		zap.Int("vocab_size", cfg.VocabSize),
		zap.Int("hidden_dim", cfg.HiddenDim),
	)
	return r
}

func (r *Reorderer) Enabled() bool {
	return r.enabled
}

// Reorder returns a full permutation of ids biased by the learned decode:
// ids the model emits come first in model order, the rest follow in their
// original order. Disabled instances return the input unchanged.
func (r *Reorderer) Reorder(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	_, span := otel.Tracer("SequenceReorderer").Start(ctx, "Reorder")
	defer span.End()
	span.SetAttributes(
		attribute.Bool("reorder.enabled", r.enabled),
		attribute.Int("reorder.input_len", len(ids)),
	)

	if !r.enabled || len(ids) == 0 {
		span.SetStatus(codes.Ok, "Identity")
		return append([]uuid.UUID(nil), ids...), nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	input := make([]int, 0, len(ids))
	unknown := 0
	for _, id := range ids {
		tok, ok := r.tokenID[id.String()]
		if !ok {
			tok = r.cfg.UnkID
			unknown++
		}
		input = append(input, tok)
	}
	if r.cfg.MaxInputLen > 0 && len(input) > r.cfg.MaxInputLen {
		input = input[:r.cfg.MaxInputLen]
	}

	emitted := r.weights.decode(r.cfg, input)

	decoded := make([]uuid.UUID, 0, len(emitted))
	for _, tok := range emitted {
		if tok == r.cfg.PadID || tok == r.cfg.BosID || tok == r.cfg.EosID || tok == r.cfg.UnkID {
			continue
		}
		if tok < 0 || tok >= len(r.tokens) {
			err := fmt.Errorf("decoded token %d outside vocab: %w", tok, models.ErrReordererFailed)
			span.RecordError(err)
			span.SetStatus(codes.Error, "Decode produced invalid token")
			return nil, err
		}
		id, err := uuid.Parse(r.tokens[tok])
		if err != nil {
			continue
		}
		decoded = append(decoded, id)
	}

	out := completePermutation(ids, decoded)
	span.SetAttributes(attribute.Int("reorder.unknown_tokens", unknown))
	span.SetStatus(codes.Ok, "Reordered")
	return out, nil
}

// completePermutation restricts decoded to ids present in the input (first
// occurrence wins) and appends the inputs the decode missed, in their
// original order, so the result is always a permutation of input.
func completePermutation(input, decoded []uuid.UUID) []uuid.UUID {
	inInput := make(map[uuid.UUID]struct{}, len(input))
	for _, id := range input {
		inInput[id] = struct{}{}
	}

	out := make([]uuid.UUID, 0, len(input))
	placed := make(map[uuid.UUID]struct{}, len(input))
	for _, id := range decoded {
		if _, ok := inInput[id]; !ok {
			continue
		}
		if _, dup := placed[id]; dup {
			continue
		}
		placed[id] = struct{}{}
		out = append(out, id)
	}
	for _, id := range input {
		if _, dup := placed[id]; dup {
			continue
		}
		placed[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
