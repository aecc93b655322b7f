package extract

import (
	"context"
	"sync"

	"github.com/contaflux/contaflux/internal/model"
)

// MockService is a configurable test double for the extraction service.
type MockService struct {
	// StatementFunc, when set, handles ExtractStatement calls; otherwise
	// Responses are returned in order, one per call.
	StatementFunc func(ctx context.Context, req StatementRequest) ([]model.ExtractedCandidate, error)
	// DocumentFunc handles ExtractDocument calls.
	DocumentFunc func(ctx context.Context, req DocumentRequest) ([]model.ExtractedCandidate, error)

	Responses [][]model.ExtractedCandidate
	Errors    []error

	mu             sync.Mutex
	statementCalls []StatementRequest
	documentCalls  []DocumentRequest
}

// ExtractStatement implements Service.
func (m *MockService) ExtractStatement(ctx context.Context, req StatementRequest) ([]model.ExtractedCandidate, error) {
	m.mu.Lock()
	m.statementCalls = append(m.statementCalls, req)
	call := len(m.statementCalls) - 1
	m.mu.Unlock()

	if m.StatementFunc != nil {
		return m.StatementFunc(ctx, req)
	}
	if call < len(m.Errors) && m.Errors[call] != nil {
		return nil, m.Errors[call]
	}
	if call < len(m.Responses) {
		return m.Responses[call], nil
	}
	return nil, nil
}

// ExtractDocument implements Service.
func (m *MockService) ExtractDocument(ctx context.Context, req DocumentRequest) ([]model.ExtractedCandidate, error) {
	m.mu.Lock()
	m.documentCalls = append(m.documentCalls, req)
	m.mu.Unlock()

	if m.DocumentFunc != nil {
		return m.DocumentFunc(ctx, req)
	}
	return nil, nil
}

// StatementCalls returns the statement requests seen so far.
func (m *MockService) StatementCalls() []StatementRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]StatementRequest, len(m.statementCalls))
	copy(out, m.statementCalls)
	return out
}

// DocumentCalls returns the document requests seen so far.
func (m *MockService) DocumentCalls() []DocumentRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]DocumentRequest, len(m.documentCalls))
	copy(out, m.documentCalls)
	return out
}
