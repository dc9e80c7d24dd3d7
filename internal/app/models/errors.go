package models

import "errors"

// Domain specific errors for the planning pipeline. Callers match these
// with errors.Is; the concrete message carries operation context.
var (
	ErrInvalidInput          = errors.New("request text is empty, too long, or contains active content")
	ErrDestinationNotFound   = errors.New("destination could not be matched against the catalog")
	ErrScoringUnavailable    = errors.New("similarity scoring unavailable")
	ErrEmptyPlan             = errors.New("no points of interest survived filtering")
	ErrRepositoryUnavailable = errors.New("catalog repository unavailable")
	ErrDeadlineExceeded      = errors.New("plan generation exceeded its deadline")
	ErrReordererFailed       = errors.New("sequence reorderer failed")
)
