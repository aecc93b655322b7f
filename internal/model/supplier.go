package model

import "time"

// Supplier is a known counterparty with its classification taxonomy.
// Referenced weakly by LedgerEntry.SupplierID; never owns entries.
type Supplier struct {
	ID            string   `json:"id"`
	Name          string   `json:"nome"`
	Modality      string   `json:"modalidade,omitempty"`
	Group         string   `json:"grupo,omitempty"`
	Category      string   `json:"categoria,omitempty"`
	DefaultNature Nature   `json:"naturezaPadrao,omitempty"`
	Aliases       []string `json:"apelidos,omitempty"`
}

// capitalGoodsModalities are the supplier modalities whose entries default to
// working-capital nature when the supplier carries no explicit default.
var capitalGoodsModalities = map[string]bool{
	"financiamento": true,
	"consorcio":     true,
	"leasing":       true,
	"emprestimo":    true,
}

// DefaultNatureFor resolves the nature for a new entry filed under this
// supplier when the reviewer did not override it: stored default first, then
// working capital for capital-goods modalities, operational otherwise.
func (s *Supplier) DefaultNatureFor() Nature {
	if s == nil {
		return NatureOperational
	}
	if s.DefaultNature != "" {
		return s.DefaultNature
	}
	if capitalGoodsModalities[normalizeModality(s.Modality)] {
		return NatureWorkingCapital
	}
	return NatureOperational
}

func normalizeModality(m string) string {
	out := make([]rune, 0, len(m))
	for _, r := range m {
		switch {
		case r >= 'A' && r <= 'Z':
			out = append(out, r+'a'-'A')
		case r >= 'a' && r <= 'z':
			out = append(out, r)
		case r == 'á' || r == 'â' || r == 'ã':
			out = append(out, 'a')
		case r == 'é' || r == 'ê':
			out = append(out, 'e')
		case r == 'í':
			out = append(out, 'i')
		case r == 'ó' || r == 'ô':
			out = append(out, 'o')
		case r == 'ú':
			out = append(out, 'u')
		case r == 'ç':
			out = append(out, 'c')
		}
	}
	return string(out)
}

// PatternMapping associates a normalized description fragment with a supplier.
// The mapping list is append-only and grows for the life of the dataset.
type PatternMapping struct {
	CreatedAt  time.Time `json:"criadoEm"`
	Pattern    string    `json:"padrao"`
	SupplierID string    `json:"fornecedorId"`
}
