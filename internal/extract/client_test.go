package extract

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contaflux/contaflux/internal/model"
)

func TestNewHTTPClientRequiresURL(t *testing.T) {
	_, err := NewHTTPClient(Config{})
	assert.Error(t, err)
}

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantErr   error
		wantCount int
	}{
		{
			name: "valid payload",
			body: `{"contas": [{"tipo": "pagar", "descricao": "BOLETO XYZ", "valor": "1.234,56", "dataVencimento": "2025-03-10"}]}`,
			wantCount: 1,
		},
		{
			name:    "empty body",
			body:    "   ",
			wantErr: ErrMalformed,
		},
		{
			name:    "invalid json",
			body:    `{"contas": [`,
			wantErr: ErrMalformed,
		},
		{
			name:    "service error payload",
			body:    `{"error": "quota exceeded"}`,
			wantErr: ErrService,
		},
		{
			name:    "missing contas field",
			body:    `{"ok": true}`,
			wantErr: ErrMalformed,
		},
		{
			name:      "empty contas is zero candidates",
			body:      `{"contas": []}`,
			wantCount: 0,
		},
		{
			name: "unknown kind skipped",
			body: `{"contas": [
				{"tipo": "hipoteca", "descricao": "A", "valor": "1,00", "dataVencimento": "2025-03-10"},
				{"tipo": "receber", "descricao": "B", "valor": "2,00", "dataVencimento": "2025-03-10"}
			]}`,
			wantCount: 1,
		},
		{
			name: "unparseable date skipped",
			body: `{"contas": [{"tipo": "pagar", "descricao": "A", "valor": "1,00", "dataVencimento": "10 de março"}]}`,
			wantCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidates, err := parseResponse([]byte(tt.body))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, candidates, tt.wantCount)
		})
	}
}

func TestParseResponseCandidateFields(t *testing.T) {
	body := `{"contas": [{"tipo": "cartao", "subtipo": "credito", "descricao": "FATURA CARTAO", "valor": "2.500,00", "dataVencimento": "15/03/2025"}]}`

	candidates, err := parseResponse([]byte(body))
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	c := candidates[0]
	assert.Equal(t, model.KindCard, c.Kind)
	assert.Equal(t, "credito", c.Subkind)
	assert.Equal(t, "FATURA CARTAO", c.Description)
	assert.Equal(t, "2.500,00", c.AmountText)
	assert.Equal(t, time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), c.DueDate)
	assert.True(t, c.Paid)
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		wire string
		want model.EntryKind
		ok   bool
	}{
		{wire: "pagar", want: model.KindPayable, ok: true},
		{wire: "conta_pagar", want: model.KindPayable, ok: true},
		{wire: "Payable", want: model.KindPayable, ok: true},
		{wire: " receber ", want: model.KindReceivable, ok: true},
		{wire: "intercompanhia", want: model.KindIntercompany, ok: true},
		{wire: "deposito", want: model.KindDeposit, ok: true},
		{wire: "saque", want: model.KindWithdrawal, ok: true},
		{wire: "cartao", want: model.KindCard, ok: true},
		{wire: "hipoteca", ok: false},
		{wire: "", ok: false},
	}

	for _, tt := range tests {
		got, ok := parseKind(tt.wire)
		assert.Equal(t, tt.ok, ok, "wire %q", tt.wire)
		if tt.ok {
			assert.Equal(t, tt.want, got, "wire %q", tt.wire)
		}
	}
}

func TestExtractStatementRequestShape(t *testing.T) {
	var gotPath, gotAuth string
	var gotPayload map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		_, _ = w.Write([]byte(`{"contas": []}`))
	}))
	defer server.Close()

	client, err := NewHTTPClient(Config{BaseURL: server.URL, APIKey: "chave-secreta"})
	require.NoError(t, err)

	candidates, err := client.ExtractStatement(context.Background(), StatementRequest{
		Text:          "10/03 PIX 100,00",
		PeriodContext: "03/2025",
	})
	require.NoError(t, err)
	assert.Empty(t, candidates)

	assert.Equal(t, "/v1/extrato", gotPath)
	assert.Equal(t, "Bearer chave-secreta", gotAuth)
	assert.Equal(t, "10/03 PIX 100,00", gotPayload["texto"])
	assert.Equal(t, "03/2025", gotPayload["contextoPeriodo"])
}

func TestExtractDocumentRequestShape(t *testing.T) {
	var gotPath string
	var gotPayload map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		_, _ = w.Write([]byte(`{"contas": [{"tipo": "pagar", "descricao": "NF 123", "valor": "450,00", "dataVencimento": "2025-03-25"}]}`))
	}))
	defer server.Close()

	client, err := NewHTTPClient(Config{BaseURL: server.URL})
	require.NoError(t, err)

	candidates, err := client.ExtractDocument(context.Background(), DocumentRequest{ImageBase64: "aW1n"})
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "NF 123", candidates[0].Description)

	assert.Equal(t, "/v1/documento", gotPath)
	assert.Equal(t, "aW1n", gotPayload["imagemBase64"])
}

func TestExtractStatementNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := NewHTTPClient(Config{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.ExtractStatement(context.Background(), StatementRequest{Text: "x"})
	assert.Error(t, err)
}

func TestExtractStatementTimeout(t *testing.T) {
	block := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-block
		_, _ = w.Write([]byte(`{"contas": []}`))
	}))
	defer server.Close()
	defer close(block)

	client, err := NewHTTPClient(Config{BaseURL: server.URL})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = client.ExtractStatement(ctx, StatementRequest{Text: "x"})
	assert.ErrorIs(t, err, ErrTimeout)
}
