package pattern

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contaflux/contaflux/internal/model"
)

func TestExtractPattern(t *testing.T) {
	tests := []struct {
		name        string
		description string
		want        string
	}{
		{
			name:        "normalized description is the pattern",
			description: "Pix - Fulano de Tal",
			want:        "PIX FULANO DE TAL",
		},
		{
			name:        "too short yields empty",
			description: "TED",
			want:        "",
		},
		{
			name:        "symbols only yields empty",
			description: "---",
			want:        "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractPattern(tt.description))
		})
	}
}

func TestStoreLookup(t *testing.T) {
	store := NewStore([]model.PatternMapping{
		{Pattern: "ENERGIA ELETRICA SA", SupplierID: "sup-energia"},
		{Pattern: "PIX FULANO", SupplierID: "sup-fulano"},
	})

	tests := []struct {
		name        string
		description string
		wantID      string
		wantOK      bool
	}{
		{
			name:        "exact normalized match",
			description: "Energia Elétrica S.A.",
			wantID:      "sup-energia",
			wantOK:      true,
		},
		{
			name:        "pattern contained in longer description",
			description: "PAGTO BOLETO ENERGIA ELETRICA SA REF 03/2025",
			wantID:      "sup-energia",
			wantOK:      true,
		},
		{
			name:        "no stored pattern applies",
			description: "ALUGUEL SALA COMERCIAL",
			wantOK:      false,
		},
		{
			name:        "empty description",
			description: "",
			wantOK:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := store.Lookup(tt.description)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantID, id)
			}
		})
	}
}

func TestStoreRecordIdempotent(t *testing.T) {
	store := NewStore(nil)
	now := time.Now()

	require.True(t, store.Record("ENERGIA ELETRICA SA", "sup-1", now))
	assert.False(t, store.Record("ENERGIA ELETRICA SA", "sup-2", now), "duplicate pattern must not create a second mapping")

	assert.Equal(t, 1, store.Len())
	require.Len(t, store.Appended(), 1)
	assert.Equal(t, "sup-1", store.Appended()[0].SupplierID)

	// The first mapping keeps winning lookups.
	id, ok := store.Lookup("energia eletrica sa")
	require.True(t, ok)
	assert.Equal(t, "sup-1", id)
}

func TestStoreRecordRejectsShortPatterns(t *testing.T) {
	store := NewStore(nil)

	assert.False(t, store.Record("PIX", "sup-1", time.Now()))
	assert.False(t, store.Record("", "sup-1", time.Now()))
	assert.False(t, store.Record("ENERGIA", "", time.Now()), "missing supplier is a no-op")
	assert.Equal(t, 0, store.Len())
}

func TestStoreGrowsMonotonically(t *testing.T) {
	existing := []model.PatternMapping{{Pattern: "ALUGUEL SALA", SupplierID: "sup-imob", CreatedAt: time.Now()}}
	store := NewStore(existing)

	require.True(t, store.Record("ENERGIA ELETRICA", "sup-energia", time.Now()))
	assert.Equal(t, 2, store.Len())

	// Only the new mapping is reported for persistence.
	require.Len(t, store.Appended(), 1)
	assert.Equal(t, "ENERGIA ELETRICA", store.Appended()[0].Pattern)
}
