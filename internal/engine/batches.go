package engine

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/contaflux/contaflux/internal/extract"
	"github.com/contaflux/contaflux/internal/model"
	"github.com/contaflux/contaflux/internal/service"
)

// FailureKind classifies why a statement import stopped early.
type FailureKind string

const (
	// FailureTimeout means an extraction call exceeded its wall-clock bound.
	FailureTimeout FailureKind = "timeout"
	// FailureService means the service returned an explicit error payload.
	FailureService FailureKind = "service"
	// FailureMalformed means the response body was empty or unparseable.
	FailureMalformed FailureKind = "malformed"
	// FailureTransport means the network call itself failed.
	FailureTransport FailureKind = "transport"
)

// BatchFailure records the batch that aborted an import run. Batches before
// it completed and their candidates are kept.
type BatchFailure struct {
	Kind       FailureKind `json:"tipo"`
	Message    string      `json:"mensagem"`
	BatchIndex int         `json:"lote"`
}

// UserMessage renders the failure for display, distinct per failure kind.
func (f *BatchFailure) UserMessage() string {
	switch f.Kind {
	case FailureTimeout:
		return "A extração demorou demais e foi interrompida. Os lançamentos já processados foram mantidos; envie o restante do extrato novamente."
	case FailureService:
		return "O serviço de extração retornou um erro: " + f.Message
	case FailureMalformed:
		return "O serviço de extração retornou uma resposta inválida. Os lançamentos já processados foram mantidos."
	default:
		return "Falha de comunicação com o serviço de extração. Os lançamentos já processados foram mantidos."
	}
}

func classifyFailure(index int, err error) *BatchFailure {
	f := &BatchFailure{BatchIndex: index, Message: err.Error()}
	switch {
	case errors.Is(err, extract.ErrTimeout) || errors.Is(err, context.DeadlineExceeded):
		f.Kind = FailureTimeout
	case errors.Is(err, extract.ErrService):
		f.Kind = FailureService
	case errors.Is(err, extract.ErrMalformed):
		f.Kind = FailureMalformed
	default:
		f.Kind = FailureTransport
	}
	return f
}

// splitBatches chunks the statement's non-empty lines into consecutive groups
// of at most limit lines.
func splitBatches(text string, limit int) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}

	var batches []string
	for start := 0; start < len(lines); start += limit {
		end := start + limit
		if end > len(lines) {
			end = len(lines)
		}
		batches = append(batches, strings.Join(lines[start:end], "\n"))
	}
	return batches
}

// runBatches issues one extraction call per batch, strictly sequentially,
// pausing between calls to avoid overloading the service. On failure the
// remaining batches are abandoned without automatic retry; candidates from
// completed batches are preserved.
func (e *Engine) runBatches(ctx context.Context, text, periodContext string, progress ProgressFunc) ([]model.ExtractedCandidate, *ImportResult, error) {
	batches := splitBatches(text, e.cfg.BatchLineLimit)
	result := &ImportResult{
		Reconciled:   []ReconciledEntry{},
		Created:      []model.LedgerEntry{},
		ForReview:    []model.ExtractedCandidate{},
		BatchesTotal: len(batches),
	}

	var candidates []model.ExtractedCandidate
	for i, batch := range batches {
		if i > 0 && e.cfg.BatchPause > 0 {
			select {
			case <-ctx.Done():
				return nil, nil, ctx.Err()
			case <-time.After(e.cfg.BatchPause):
			}
		}

		batchCtx, cancel := context.WithTimeout(ctx, e.cfg.BatchTimeout)
		extracted, err := e.extractor.ExtractStatement(batchCtx, extract.StatementRequest{
			Text:          batch,
			PeriodContext: periodContext,
		})
		cancel()

		if err != nil {
			if ctx.Err() != nil && !errors.Is(err, extract.ErrTimeout) {
				return nil, nil, ctx.Err()
			}
			result.Failure = classifyFailure(i, err)
			slog.Warn("Extraction batch failed, abandoning remaining batches",
				"batch", i+1,
				"total", len(batches),
				"kind", result.Failure.Kind,
				"error", err)
			break
		}

		// A batch yielding zero candidates is not an error.
		for _, c := range extracted {
			c.Paid = true // imports always represent settled movements
			candidates = append(candidates, c)
		}
		result.BatchesRun++

		if progress != nil {
			progress(result.BatchesRun, result.BatchesTotal)
		}
	}

	return candidates, result, nil
}

func retryOptions() service.RetryOptions {
	return service.RetryOptions{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
	}
}
