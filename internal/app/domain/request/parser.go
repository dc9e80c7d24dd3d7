// Package request turns free-text travel prose into structured intent:
// locations, travel dates, interests, budget, group size, style and pace.
// Extraction is deterministic; partial failures become warnings, never
// errors.
package request

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-planner/internal/app/models"
)

const maxRequestChars = 2000

// defaultLocation anchors a request that names no place at all.
const defaultLocation = "My Trip"

var activeContentPatterns = []string{"<script", "javascript:", "data:text/html"}

type Parser interface {
	Parse(ctx context.Context, text string) (*models.ParsedRequest, error)
}

type ParserImpl struct {
	logger    *zap.Logger
	gazetteer *Gazetteer
	styles    *styleClassifier
	now       func() time.Time
}

var _ Parser = (*ParserImpl)(nil)

func NewParserImpl(gazetteer *Gazetteer, logger *zap.Logger) *ParserImpl {
	return &ParserImpl{
		logger:    logger,
		gazetteer: gazetteer,
		styles:    newStyleClassifier(),
		now:       time.Now,
	}
}

// Parse extracts a ParsedRequest from raw text. Structural failures (empty,
// oversized, active content) are the only errors; everything else degrades to
// nil fields plus warnings.
func (p *ParserImpl) Parse(ctx context.Context, text string) (*models.ParsedRequest, error) {
	_, traceSpan := otel.Tracer("RequestParser").Start(ctx, "Parse")
	defer traceSpan.End()

	l := p.logger.With(zap.String("method", "Parse"))
	l.Debug("Parsing travel request", zap.Int("text_len", len(text)))

	if err := validateText(text); err != nil {
		traceSpan.RecordError(err)
		traceSpan.SetStatus(codes.Error, "Structural validation failed")
		return nil, err
	}

	var warnings []string

	dates := extractDates(text, p.now())
	warnings = append(warnings, dates.warnings...)

	mentions := p.gazetteer.Extract(text, dates.spans)
	locations, locationSpans := orderLocations(mentions)
	if len(locations) == 0 {
		locations = []string{defaultLocation}
		warnings = append(warnings, "no locations found in request; using default")
	}

	budget, budgetWarnings := extractBudget(text)
	warnings = append(warnings, budgetWarnings...)

	excluded := append(append([]span{}, dates.spans...), locationSpans...)
	interests := extractInterests(text, excluded)

	parsed := &models.ParsedRequest{
		RawText:     text,
		Locations:   locations,
		Dates:       dates.dates,
		Interests:   interests,
		Budget:      budget,
		Pace:        extractPace(text),
		GroupSize:   extractGroupSize(text),
		TravelStyle: p.styles.classify(text),
		Warnings:    warnings,
	}
	parsed.Confidence = confidence(parsed)

	traceSpan.SetAttributes(
		attribute.Int("parse.locations", len(parsed.Locations)),
		attribute.Int("parse.interests", len(parsed.Interests)),
		attribute.Float64("parse.confidence", parsed.Confidence),
	)
	traceSpan.SetStatus(codes.Ok, "Request parsed")
	l.Info("Parsed travel request",
		zap.Strings("locations", parsed.Locations),
		zap.Float64("confidence", parsed.Confidence),
		zap.Int("warnings", len(parsed.Warnings)),
	)
	return parsed, nil
}

func validateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("request text is empty: %w", models.ErrInvalidInput)
	}
	if n := utf8.RuneCountInString(text); n > maxRequestChars {
		return fmt.Errorf("request text is %d characters, maximum is %d: %w", n, maxRequestChars, models.ErrInvalidInput)
	}
	lower := strings.ToLower(text)
	for _, pattern := range activeContentPatterns {
		if strings.Contains(lower, pattern) {
			return fmt.Errorf("request text contains active content: %w", models.ErrInvalidInput)
		}
	}
	return nil
}

// orderLocations arranges mentions so origins ("from X") come first and the
// destination lands last, per the ParsedRequest contract.
func orderLocations(mentions []locationMention) ([]string, []span) {
	var origins, others []locationMention
	for _, m := range mentions {
		if m.prep == "from" {
			origins = append(origins, m)
		} else {
			others = append(others, m)
		}
	}

	ordered := append(origins, others...)
	names := make([]string, 0, len(ordered))
	spans := make([]span, 0, len(ordered))
	for _, m := range ordered {
		names = append(names, m.name)
		spans = append(spans, m.span)
	}
	return names, spans
}

// confidence scores how much structure the text yielded, on [0,100].
func confidence(r *models.ParsedRequest) float64 {
	score := 0.0
	if len(r.Locations) > 0 && r.Locations[0] != defaultLocation {
		score += 25
	}
	if r.Dates != nil {
		score += 20
	}
	if r.Budget != nil {
		score += 20
	}
	if len(r.Interests) > 0 {
		score += 15
	}
	if r.TravelStyle != nil {
		score += 10
	}
	if r.GroupSize != nil {
		score += 10
	}
	return score
}
