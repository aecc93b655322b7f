package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contaflux/contaflux/internal/dedup"
	"github.com/contaflux/contaflux/internal/model"
)

func reviewCandidate() model.ExtractedCandidate {
	return model.ExtractedCandidate{
		Kind:        model.KindPayable,
		Description: "BOLETO FORNECEDOR XYZ",
		AmountText:  "980,00",
		DueDate:     time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC),
		Paid:        true,
	}
}

func reviewSuppliers() []model.Supplier {
	return []model.Supplier{
		{ID: "sup-xyz", Name: "Fornecedor XYZ Ltda", Category: "Insumos"},
		{ID: "sup-frete", Name: "Transportadora Norte Sul", Category: "Frete"},
	}
}

func TestReviewCandidateSelectsSupplier(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("1\n\n\n"), &out)

	c := reviewCandidate()
	decision, skip, err := p.ReviewCandidate(context.Background(), &c, reviewSuppliers())
	require.NoError(t, err)
	assert.False(t, skip)

	// Suggestions are ranked by similarity, so [1] is the XYZ supplier.
	assert.Equal(t, "sup-xyz", decision.SupplierID)
	assert.Empty(t, decision.KindOverride)
	assert.Empty(t, decision.NatureOverride)
}

func TestReviewCandidateNoSupplier(t *testing.T) {
	for _, choice := range []string{"0", ""} {
		var out bytes.Buffer
		p := NewPrompter(strings.NewReader(choice+"\n\n\n"), &out)

		c := reviewCandidate()
		decision, skip, err := p.ReviewCandidate(context.Background(), &c, reviewSuppliers())
		require.NoError(t, err)
		assert.False(t, skip)
		assert.Empty(t, decision.SupplierID)
	}
}

func TestReviewCandidateSkip(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("s\n"), &out)

	c := reviewCandidate()
	_, skip, err := p.ReviewCandidate(context.Background(), &c, reviewSuppliers())
	require.NoError(t, err)
	assert.True(t, skip)
}

func TestReviewCandidateInvalidChoiceSkips(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "out of range", input: "9\n"},
		{name: "not a number", input: "xyz\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := NewPrompter(strings.NewReader(tt.input), &out)

			c := reviewCandidate()
			_, skip, err := p.ReviewCandidate(context.Background(), &c, reviewSuppliers())
			require.NoError(t, err)
			assert.True(t, skip)
			assert.Contains(t, out.String(), "Opção inválida")
		})
	}
}

func TestReviewCandidateKindOverride(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("1\nintercompany\n\n"), &out)

	c := reviewCandidate()
	decision, skip, err := p.ReviewCandidate(context.Background(), &c, reviewSuppliers())
	require.NoError(t, err)
	assert.False(t, skip)
	assert.Equal(t, model.KindIntercompany, decision.KindOverride)
}

func TestReviewCandidateInvalidKindKeepsExtracted(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("1\nhipoteca\n\n"), &out)

	c := reviewCandidate()
	decision, skip, err := p.ReviewCandidate(context.Background(), &c, reviewSuppliers())
	require.NoError(t, err)
	assert.False(t, skip)
	assert.Empty(t, decision.KindOverride)
	assert.Contains(t, out.String(), "Tipo inválido")
}

func TestReviewCandidateNatureOverride(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  model.Nature
	}{
		{name: "operational", input: "1\n\no\n", want: model.NatureOperational},
		{name: "working capital", input: "1\n\ng\n", want: model.NatureWorkingCapital},
		{name: "default on enter", input: "1\n\n\n", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := NewPrompter(strings.NewReader(tt.input), &out)

			c := reviewCandidate()
			decision, _, err := p.ReviewCandidate(context.Background(), &c, reviewSuppliers())
			require.NoError(t, err)
			assert.Equal(t, tt.want, decision.NatureOverride)
		})
	}
}

func TestReviewCandidateCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("1\n\n\n"), &out)

	c := reviewCandidate()
	_, _, err := p.ReviewCandidate(ctx, &c, reviewSuppliers())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConfirmDuplicateGroup(t *testing.T) {
	group := &dedup.Group{Entries: []model.LedgerEntry{
		{ID: "a", Description: "BOLETO ALUGUEL", AmountText: "900,00", DueDate: time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC)},
		{ID: "b", Description: "BOLETO ALUGUEL", AmountText: "900,00", DueDate: time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC)},
	}}

	tests := []struct {
		name        string
		input       string
		wantDismiss bool
	}{
		{name: "dismiss lowercase", input: "d\n", wantDismiss: true},
		{name: "dismiss uppercase", input: "D\n", wantDismiss: true},
		{name: "keep", input: "m\n", wantDismiss: false},
		{name: "enter keeps", input: "\n", wantDismiss: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := NewPrompter(strings.NewReader(tt.input), &out)

			dismiss, err := p.ConfirmDuplicateGroup(context.Background(), group)
			require.NoError(t, err)
			assert.Equal(t, tt.wantDismiss, dismiss)
			assert.Contains(t, out.String(), "Possível duplicidade")
		})
	}
}

func TestRankSuppliersOrdersBestFirst(t *testing.T) {
	suppliers := []model.Supplier{
		{ID: "sup-frete", Name: "Transportadora Norte Sul"},
		{ID: "sup-xyz", Name: "Fornecedor XYZ Ltda"},
		{ID: "sup-banco", Name: "Banco Financiamentos SA"},
	}

	ranked := rankSuppliers("BOLETO FORNECEDOR XYZ", suppliers, 2)
	require.Len(t, ranked, 2, "limit caps the suggestion list")
	assert.Equal(t, "sup-xyz", ranked[0].ID)
}
