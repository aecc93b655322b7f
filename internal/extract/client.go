package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/contaflux/contaflux/internal/model"
)

// Config holds settings for the HTTP extraction client.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// HTTPClient implements Service against the extraction HTTP API.
type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewHTTPClient creates an extraction client.
func NewHTTPClient(cfg Config) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("extraction service URL is required")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 90 * time.Second
	}

	return &HTTPClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}, nil
}

type statementPayload struct {
	Text          string `json:"texto"`
	PeriodContext string `json:"contextoPeriodo"`
}

type documentPayload struct {
	ImageBase64 string `json:"imagemBase64"`
}

type wireCandidate struct {
	Kind        string `json:"tipo"`
	Subkind     string `json:"subtipo,omitempty"`
	Description string `json:"descricao"`
	AmountText  string `json:"valor"`
	DueDate     string `json:"dataVencimento"`
}

type extractionResponse struct {
	Error      string          `json:"error,omitempty"`
	Candidates []wireCandidate `json:"contas"`
}

// ExtractStatement sends one statement batch for extraction.
func (c *HTTPClient) ExtractStatement(ctx context.Context, req StatementRequest) ([]model.ExtractedCandidate, error) {
	return c.post(ctx, "/v1/extrato", statementPayload{
		Text:          req.Text,
		PeriodContext: req.PeriodContext,
	})
}

// ExtractDocument sends one uploaded document image for extraction.
func (c *HTTPClient) ExtractDocument(ctx context.Context, req DocumentRequest) ([]model.ExtractedCandidate, error) {
	return c.post(ctx, "/v1/documento", documentPayload{ImageBase64: req.ImageBase64})
}

func (c *HTTPClient) post(ctx context.Context, path string, payload any) ([]model.ExtractedCandidate, error) {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(string(jsonBody)))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, fmt.Errorf("extraction request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("extraction service error (status %d): %s", resp.StatusCode, string(body))
	}

	return parseResponse(body)
}

func parseResponse(body []byte) ([]model.ExtractedCandidate, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrMalformed)
	}

	var response extractionResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if response.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrService, response.Error)
	}
	if response.Candidates == nil {
		return nil, fmt.Errorf("%w: missing contas field", ErrMalformed)
	}

	candidates := make([]model.ExtractedCandidate, 0, len(response.Candidates))
	for _, wc := range response.Candidates {
		kind, ok := parseKind(wc.Kind)
		if !ok {
			continue // Unknown kinds are skipped, not fatal
		}
		dueDate, err := parseWireDate(wc.DueDate)
		if err != nil {
			continue
		}
		candidates = append(candidates, model.ExtractedCandidate{
			Kind:        kind,
			Subkind:     wc.Subkind,
			Description: wc.Description,
			AmountText:  wc.AmountText,
			DueDate:     dueDate,
			Paid:        true, // A statement import always carries settled movements
		})
	}
	return candidates, nil
}

// parseKind maps wire kind values (pt-BR and English aliases) to EntryKind.
func parseKind(wire string) (model.EntryKind, bool) {
	switch strings.ToLower(strings.TrimSpace(wire)) {
	case "pagar", "conta_pagar", "payable":
		return model.KindPayable, true
	case "receber", "conta_receber", "receivable":
		return model.KindReceivable, true
	case "intercompanhia", "intercompany":
		return model.KindIntercompany, true
	case "deposito", "deposit":
		return model.KindDeposit, true
	case "saque", "withdrawal":
		return model.KindWithdrawal, true
	case "cartao", "card":
		return model.KindCard, true
	}
	return "", false
}

func parseWireDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "02/01/2006"} {
		if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
