package services

import "errors"

// Failure kinds surfaced by the query and ingestion pipelines. Upstream
// errors are wrapped with one of these so callers can classify them with
// errors.Is while the message still carries the cause.
var (
	ErrInvalidInput      = errors.New("question is required")
	ErrRetrievalFailure  = errors.New("retrieval failed")
	ErrNoContextFound    = errors.New("no similar vectors found")
	ErrGenerationFailure = errors.New("answer generation failed")

	ErrInvalidChunkSize = errors.New("chunk size must be positive")
	ErrEmptySource      = errors.New("source text has no non-blank lines")
)

// ErrorKind names the failure class of err for logs.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrNoContextFound):
		return "no_context_found"
	case errors.Is(err, ErrRetrievalFailure):
		return "retrieval_failure"
	case errors.Is(err, ErrGenerationFailure):
		return "generation_failure"
	default:
		return "internal"
	}
}
