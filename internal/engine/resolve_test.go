package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contaflux/contaflux/internal/extract"
	"github.com/contaflux/contaflux/internal/model"
	"github.com/contaflux/contaflux/internal/pattern"
	"github.com/contaflux/contaflux/internal/testutil"
)

func TestResolveLearnedMappingWinsOverFuzzyMatch(t *testing.T) {
	fuzzy := testutil.Supplier("Energia Eletrica SA", "Utilidades")
	learned := testutil.Supplier("Distribuidora Luz Ltda", "Energia")

	sess := NewSession(nil, []model.Supplier{fuzzy, learned}, []model.PatternMapping{
		{Pattern: "DEB AUT ENERGIA ELETRICA", SupplierID: learned.ID},
	})
	eng := New(nil, testConfig())

	c := testutil.Candidate(model.KindPayable, "Deb Aut Energia Elétrica", "150,00", testutil.Date(2025, 3, 12))
	entry, queued := eng.resolve(&c, sess)

	require.False(t, queued)
	assert.Equal(t, learned.ID, entry.SupplierID)
	assert.Equal(t, "Energia", entry.Category)
}

func TestResolveFuzzySupplierMatch(t *testing.T) {
	supplier := testutil.Supplier("Fornecedor XYZ Ltda", "Insumos")
	sess := NewSession(nil, []model.Supplier{supplier}, nil)
	eng := New(nil, testConfig())

	c := testutil.Candidate(model.KindPayable, "BOLETO FORNECEDOR XYZ", "980,00", testutil.Date(2025, 3, 20))
	entry, queued := eng.resolve(&c, sess)

	require.False(t, queued)
	assert.Equal(t, supplier.ID, entry.SupplierID)
	assert.Equal(t, "Insumos", entry.Category)
	assert.True(t, entry.Paid)
	assert.True(t, entry.Reconciled)
}

func TestResolveMatchesAgainstAliases(t *testing.T) {
	supplier := testutil.Supplier("Companhia de Saneamento Basico", "Utilidades")
	supplier.Aliases = []string{"SABESP"}
	sess := NewSession(nil, []model.Supplier{supplier}, nil)
	eng := New(nil, testConfig())

	c := testutil.Candidate(model.KindPayable, "PAG SABESP", "89,90", testutil.Date(2025, 3, 5))
	entry, queued := eng.resolve(&c, sess)

	require.False(t, queued)
	assert.Equal(t, supplier.ID, entry.SupplierID)
}

func TestResolveUnmatchedPayableGoesToReview(t *testing.T) {
	sess := NewSession(nil, nil, nil)
	eng := New(nil, testConfig())

	c := testutil.Candidate(model.KindPayable, "TED 104992 SEM CADASTRO", "310,00", testutil.Date(2025, 3, 18))
	entry, queued := eng.resolve(&c, sess)

	assert.True(t, queued)
	assert.Nil(t, entry)
}

func TestResolveUnmatchedNonPayableIsFiledWithoutSupplier(t *testing.T) {
	sess := NewSession(nil, nil, nil)
	eng := New(nil, testConfig())

	for _, kind := range []model.EntryKind{model.KindReceivable, model.KindDeposit, model.KindWithdrawal, model.KindCard, model.KindIntercompany} {
		c := testutil.Candidate(kind, "MOVIMENTO AVULSO 9921", "45,00", testutil.Date(2025, 3, 18))
		entry, queued := eng.resolve(&c, sess)

		require.False(t, queued, "kind %s must not queue for review", kind)
		assert.Empty(t, entry.SupplierID)
		assert.Equal(t, kind, entry.Kind)
		assert.True(t, entry.Reconciled)
	}
}

func TestBestSupplierMatchTieBreaksOnEditDistance(t *testing.T) {
	closer := testutil.Supplier("Padaria Central", "Alimentacao")
	farther := testutil.Supplier("Padaria Central de Distribuicao", "Alimentacao")

	// Both score the same token overlap; the shorter name is the smaller edit.
	got := bestSupplierMatch("PAG PADARIA CENTRAL", []model.Supplier{farther, closer}, 0.4)
	require.NotNil(t, got)
	assert.Equal(t, closer.ID, got.ID)
}

func TestBestSupplierMatchBelowThreshold(t *testing.T) {
	supplier := testutil.Supplier("Transportadora Rapida Norte Sul", "Frete")
	got := bestSupplierMatch("PIX RECEBIDO CLIENTE", []model.Supplier{supplier}, 0.4)
	assert.Nil(t, got)
}

func TestNewEntryNatureDefaults(t *testing.T) {
	operational := testutil.Supplier("Grafica Moderna", "Servicos")

	capitalGoods := testutil.Supplier("Banco Financiamentos SA", "Credito")
	capitalGoods.Modality = "Financiamento"

	stored := testutil.Supplier("Consorcio Nacional", "Credito")
	stored.Modality = "Consórcio"
	stored.DefaultNature = model.NatureOperational

	tests := []struct {
		name     string
		supplier model.Supplier
		want     model.Nature
	}{
		{name: "plain supplier is operational", supplier: operational, want: model.NatureOperational},
		{name: "capital goods modality is working capital", supplier: capitalGoods, want: model.NatureWorkingCapital},
		{name: "stored default wins over modality", supplier: stored, want: model.NatureOperational},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testutil.Candidate(model.KindPayable, "PAGAMENTO", "100,00", testutil.Date(2025, 3, 1))
			entry := newEntryFromCandidate(&c, c.Kind, &tt.supplier, "")
			assert.Equal(t, tt.want, entry.Nature)
		})
	}
}

func TestResolveReviewRecordsPattern(t *testing.T) {
	supplier := testutil.Supplier("Fornecedor XYZ Ltda", "Insumos")
	sess := NewSession(nil, []model.Supplier{supplier}, nil)
	eng := New(nil, testConfig())

	c := testutil.Candidate(model.KindPayable, "Boleto Fornecedor XYZ 00123", "980,00", testutil.Date(2025, 3, 20))
	outcome, err := eng.ResolveReview(&c, ReviewDecision{SupplierID: supplier.ID}, sess)
	require.NoError(t, err)

	assert.True(t, outcome.PatternRecorded)
	assert.Equal(t, supplier.ID, outcome.Entry.SupplierID)
	assert.Nil(t, outcome.NatureUpdate)

	// The learned pattern resolves the same description immediately.
	id, ok := sess.Patterns.Lookup("BOLETO FORNECEDOR XYZ 00123")
	require.True(t, ok)
	assert.Equal(t, supplier.ID, id)

	// Reviewing the same description again learns nothing new.
	again, err := eng.ResolveReview(&c, ReviewDecision{SupplierID: supplier.ID}, sess)
	require.NoError(t, err)
	assert.False(t, again.PatternRecorded)
}

func TestResolveReviewSkipsTooShortPatterns(t *testing.T) {
	supplier := testutil.Supplier("Fornecedor XYZ Ltda", "Insumos")
	sess := NewSession(nil, []model.Supplier{supplier}, nil)
	eng := New(nil, testConfig())

	c := testutil.Candidate(model.KindPayable, "low", "10,00", testutil.Date(2025, 3, 20))
	outcome, err := eng.ResolveReview(&c, ReviewDecision{SupplierID: supplier.ID}, sess)
	require.NoError(t, err)
	assert.False(t, outcome.PatternRecorded)
	assert.Less(t, len(pattern.ExtractPattern("low")), pattern.MinPatternLen)
}

func TestResolveReviewNatureOverrideUpdatesSupplierDefault(t *testing.T) {
	supplier := testutil.Supplier("Banco Financiamentos SA", "Credito")
	sess := NewSession(nil, []model.Supplier{supplier}, nil)
	eng := New(nil, testConfig())

	c := testutil.Candidate(model.KindPayable, "PARCELA FINANCIAMENTO 12/48", "2.350,00", testutil.Date(2025, 3, 10))
	outcome, err := eng.ResolveReview(&c, ReviewDecision{
		SupplierID:     supplier.ID,
		NatureOverride: model.NatureWorkingCapital,
	}, sess)
	require.NoError(t, err)

	assert.Equal(t, model.NatureWorkingCapital, outcome.Entry.Nature)
	require.NotNil(t, outcome.NatureUpdate)
	assert.Equal(t, supplier.ID, outcome.NatureUpdate.SupplierID)
	assert.Equal(t, model.NatureWorkingCapital, outcome.NatureUpdate.Nature)

	// The session supplier carries the new default for later candidates.
	assert.Equal(t, model.NatureWorkingCapital, sess.Suppliers[0].DefaultNature)

	// A second review with the now-matching nature emits no update.
	again, err := eng.ResolveReview(&c, ReviewDecision{
		SupplierID:     supplier.ID,
		NatureOverride: model.NatureWorkingCapital,
	}, sess)
	require.NoError(t, err)
	assert.Nil(t, again.NatureUpdate)
}

func TestResolveReviewKindOverride(t *testing.T) {
	sess := NewSession(nil, nil, nil)
	eng := New(nil, testConfig())
	c := testutil.Candidate(model.KindPayable, "TRANSFERENCIA MATRIZ FILIAL", "5.000,00", testutil.Date(2025, 3, 3))

	outcome, err := eng.ResolveReview(&c, ReviewDecision{KindOverride: model.KindIntercompany}, sess)
	require.NoError(t, err)
	assert.Equal(t, model.KindIntercompany, outcome.Entry.Kind)

	_, err = eng.ResolveReview(&c, ReviewDecision{KindOverride: "mortgage"}, sess)
	assert.Error(t, err)
}

func TestResolveReviewUnknownSupplier(t *testing.T) {
	sess := NewSession(nil, nil, nil)
	eng := New(nil, testConfig())
	c := testutil.Candidate(model.KindPayable, "PAGAMENTO AVULSO", "77,00", testutil.Date(2025, 3, 3))

	_, err := eng.ResolveReview(&c, ReviewDecision{SupplierID: "missing"}, sess)
	assert.Error(t, err)
}

func TestImportStatementEndToEnd(t *testing.T) {
	due := testutil.Date(2025, 3, 10)
	pendingBoleto := testutil.PendingEntry(model.KindPayable, "Aluguel galpão março", "3.200,00", due)
	supplier := testutil.Supplier("Fornecedor XYZ Ltda", "Insumos")

	sess := NewSession([]model.LedgerEntry{pendingBoleto}, []model.Supplier{supplier}, nil)

	mock := &extract.MockService{
		Responses: [][]model.ExtractedCandidate{{
			// Matches the pending entry: same amount, one day apart.
			testutil.Candidate(model.KindPayable, "PAG BOLETO ALUGUEL", "3.200,00", testutil.Date(2025, 3, 11)),
			// Resolves by fuzzy supplier match.
			testutil.Candidate(model.KindPayable, "BOLETO FORNECEDOR XYZ", "980,00", testutil.Date(2025, 3, 20)),
			// No supplier for a payable: review queue.
			testutil.Candidate(model.KindPayable, "TED 104992 SEM CADASTRO", "310,00", testutil.Date(2025, 3, 18)),
			// Non-payable files straight away.
			testutil.Candidate(model.KindDeposit, "DEPOSITO EM DINHEIRO", "500,00", testutil.Date(2025, 3, 19)),
		}},
	}
	eng := New(mock, testConfig())

	result, err := eng.ImportStatement(context.Background(), "extrato bruto de março", "03/2025", sess, nil)
	require.NoError(t, err)

	require.Len(t, result.Reconciled, 1)
	assert.Equal(t, pendingBoleto.ID, result.Reconciled[0].ID)
	assert.Equal(t, "PAG BOLETO ALUGUEL", result.Reconciled[0].CandidateDescription)

	require.Len(t, result.Created, 2)
	assert.Equal(t, supplier.ID, result.Created[0].SupplierID)
	assert.Empty(t, result.Created[1].SupplierID)

	require.Len(t, result.ForReview, 1)
	assert.Equal(t, "TED 104992 SEM CADASTRO", result.ForReview[0].Description)

	assert.Len(t, sess.Pool.Consumed(), 1)
}
