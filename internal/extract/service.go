// Package extract provides the client for the external text-extraction
// service that turns raw statement text and document images into structured
// transaction candidates.
package extract

import (
	"context"
	"errors"

	"github.com/contaflux/contaflux/internal/model"
)

// Sentinel errors classifying extraction failures. Callers distinguish
// timeouts, service-reported errors and malformed payloads to decide how much
// of an import run to keep and what to tell the user.
var (
	// ErrTimeout indicates the call exceeded its wall-clock bound.
	ErrTimeout = errors.New("extraction timed out")
	// ErrService indicates the service answered with an explicit error payload.
	ErrService = errors.New("extraction service reported an error")
	// ErrMalformed indicates an empty or unparseable response body.
	ErrMalformed = errors.New("extraction response malformed")
)

// StatementRequest carries one statement batch to the extraction service.
type StatementRequest struct {
	Text          string
	PeriodContext string
}

// DocumentRequest carries one uploaded document image.
type DocumentRequest struct {
	ImageBase64 string
}

// Service is the extraction service contract. Implementations must honor
// context cancellation; the engine relies on it for per-batch timeouts.
type Service interface {
	ExtractStatement(ctx context.Context, req StatementRequest) ([]model.ExtractedCandidate, error)
	ExtractDocument(ctx context.Context, req DocumentRequest) ([]model.ExtractedCandidate, error)
}
