// Package engine implements the bank-statement reconciliation engine: batch
// extraction orchestration, greedy entry matching against the pending ledger
// pool, and the supplier resolution cascade for unmatched candidates.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/contaflux/contaflux/internal/common"
	"github.com/contaflux/contaflux/internal/extract"
	"github.com/contaflux/contaflux/internal/model"
	"github.com/contaflux/contaflux/internal/pattern"
)

// Config holds configuration options for the reconciliation engine.
type Config struct {
	// BatchLineLimit caps the statement lines sent per extraction call,
	// sized to stay under the service's practical timeout.
	BatchLineLimit int
	// BatchTimeout bounds each extraction call.
	BatchTimeout time.Duration
	// BatchPause is the delay between consecutive extraction calls.
	BatchPause time.Duration
	// MinSimilarity is the bar a fuzzy supplier match must clear.
	MinSimilarity float64
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		BatchLineLimit: 80,
		BatchTimeout:   60 * time.Second,
		BatchPause:     500 * time.Millisecond,
		MinSimilarity:  0.4,
	}
}

// Engine orchestrates statement imports. It is not safe to run two statement
// imports concurrently against the same ledger pool: matching consumes pool
// entries and a second run would double-count them.
type Engine struct {
	extractor extract.Service
	cfg       Config
	importing atomic.Bool
}

// New creates a reconciliation engine backed by the given extraction service.
func New(extractor extract.Service, cfg Config) *Engine {
	if cfg.BatchLineLimit <= 0 {
		cfg.BatchLineLimit = DefaultConfig().BatchLineLimit
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = DefaultConfig().BatchTimeout
	}
	if cfg.MinSimilarity <= 0 {
		cfg.MinSimilarity = DefaultConfig().MinSimilarity
	}
	return &Engine{extractor: extractor, cfg: cfg}
}

// Session carries the mutable reconciliation state for one engine invocation:
// the consumable pool of pending entries, the known suppliers and the learned
// pattern store. The caller loads it from storage before the run and persists
// the results afterwards.
type Session struct {
	Patterns  *pattern.Store
	Suppliers []model.Supplier
	Pool      *Pool
}

// NewSession builds a session over the given pending entries.
func NewSession(pending []model.LedgerEntry, suppliers []model.Supplier, mappings []model.PatternMapping) *Session {
	return &Session{
		Pool:      NewPool(pending),
		Suppliers: suppliers,
		Patterns:  pattern.NewStore(mappings),
	}
}

// ReconciledEntry identifies a pool entry consumed by a statement candidate.
// The candidate description is retained for audit; the entry keeps its own.
type ReconciledEntry struct {
	ID                   string `json:"id"`
	Description          string `json:"descricao"`
	CandidateDescription string `json:"descricaoExtrato"`
}

// ImportResult is the outcome of one statement import run.
type ImportResult struct {
	Failure      *BatchFailure              `json:"falha,omitempty"`
	Reconciled   []ReconciledEntry          `json:"conciliados"`
	Created      []model.LedgerEntry        `json:"novos"`
	ForReview    []model.ExtractedCandidate `json:"paraRevisar"`
	BatchesRun   int                        `json:"lotesExecutados"`
	BatchesTotal int                        `json:"lotesTotal"`
	NothingFound bool                       `json:"nadaEncontrado"`
}

// ProgressFunc reports batch progress during an import.
type ProgressFunc func(done, total int)

// ImportStatement runs the full import pipeline for one raw statement: batch
// extraction, pool matching and supplier resolution. Extraction failures
// abandon the remaining batches; candidates already aggregated are still
// matched and the partial result is returned with the failure attached.
func (e *Engine) ImportStatement(ctx context.Context, text, periodContext string, sess *Session, progress ProgressFunc) (*ImportResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, common.ErrEmptyStatement
	}
	if !e.importing.CompareAndSwap(false, true) {
		return nil, common.ErrImportRunning
	}
	defer e.importing.Store(false)

	candidates, result, err := e.runBatches(ctx, text, periodContext, progress)
	if err != nil {
		return nil, err
	}

	if len(candidates) == 0 && result.Failure == nil {
		result.NothingFound = true
		slog.Info("Statement import found no transactions",
			"batches", result.BatchesTotal)
		return result, nil
	}

	for i := range candidates {
		c := candidates[i]
		if entry, ok := sess.Pool.Take(&c); ok {
			entry.Paid = true
			entry.Reconciled = true
			result.Reconciled = append(result.Reconciled, ReconciledEntry{
				ID:                   entry.ID,
				Description:          entry.Description,
				CandidateDescription: c.Description,
			})
			continue
		}

		entry, queued := e.resolve(&c, sess)
		if queued {
			result.ForReview = append(result.ForReview, c)
			continue
		}
		result.Created = append(result.Created, *entry)
	}

	slog.Info("Statement import complete",
		"candidates", len(candidates),
		"reconciled", len(result.Reconciled),
		"created", len(result.Created),
		"for_review", len(result.ForReview),
		"batches_run", result.BatchesRun,
		"batches_total", result.BatchesTotal)

	return result, nil
}

// ImportDocuments extracts candidates from uploaded document images. Files
// are processed concurrently (they share no reconciliation state) and joined
// before aggregation; transient per-file failures are retried.
func (e *Engine) ImportDocuments(ctx context.Context, images []string) ([]model.ExtractedCandidate, error) {
	if len(images) == 0 {
		return nil, fmt.Errorf("no documents to extract")
	}

	type fileResult struct {
		err        error
		candidates []model.ExtractedCandidate
		index      int
	}

	results := make(chan fileResult, len(images))
	for i, img := range images {
		go func(index int, imageBase64 string) {
			var candidates []model.ExtractedCandidate
			err := common.WithRetry(ctx, func() error {
				callCtx, cancel := context.WithTimeout(ctx, e.cfg.BatchTimeout)
				defer cancel()

				var callErr error
				candidates, callErr = e.extractor.ExtractDocument(callCtx, extract.DocumentRequest{ImageBase64: imageBase64})
				if callErr != nil {
					// Service-reported and malformed responses will not get
					// better on a retry; only transport and timeout failures do.
					retryable := !errors.Is(callErr, extract.ErrService) &&
						!errors.Is(callErr, extract.ErrMalformed)
					return &common.RetryableError{Err: callErr, Retryable: retryable}
				}
				return nil
			}, retryOptions())
			results <- fileResult{index: index, candidates: candidates, err: err}
		}(i, img)
	}

	ordered := make([][]model.ExtractedCandidate, len(images))
	var firstErr error
	for range images {
		r := <-results
		if r.err != nil {
			slog.Warn("Document extraction failed", "document", r.index, "error", r.err)
			if firstErr == nil {
				firstErr = fmt.Errorf("document %d: %w", r.index+1, r.err)
			}
			continue
		}
		ordered[r.index] = r.candidates
	}

	var all []model.ExtractedCandidate
	for _, candidates := range ordered {
		all = append(all, candidates...)
	}

	if len(all) == 0 {
		if firstErr != nil {
			return nil, firstErr
		}
		return nil, common.ErrNothingFound
	}
	return all, nil
}
