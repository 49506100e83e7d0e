package domain

import "errors"

var (
	// ErrExtractionParseFailure marks one window whose model output was unusable.
	// It is absorbed by the extractor; the window is dropped.
	ErrExtractionParseFailure = errors.New("extraction parse failure")

	// ErrNoTransactionsExtracted is terminal for a statement's ingestion.
	ErrNoTransactionsExtracted = errors.New("no transactions extracted")

	// ErrStatementNotFound is a lookup miss, distinct from a scoring error.
	ErrStatementNotFound = errors.New("statement not found")

	// ErrInsufficientData means aggregates exist but cannot feed the deriver.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrScoringError wraps failures during scaling or classification.
	ErrScoringError = errors.New("scoring error")
)
