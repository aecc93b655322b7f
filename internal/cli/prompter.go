package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/contaflux/contaflux/internal/dedup"
	"github.com/contaflux/contaflux/internal/engine"
	"github.com/contaflux/contaflux/internal/model"
	"github.com/contaflux/contaflux/internal/textutil"
)

// Prompter drives the interactive review of queued candidates and duplicate
// groups.
type Prompter struct {
	writer io.Writer
	reader *bufio.Reader
}

// NewPrompter creates a prompter over the given reader and writer, defaulting
// to stdin/stdout.
func NewPrompter(reader io.Reader, writer io.Writer) *Prompter {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}
	return &Prompter{
		reader: bufio.NewReader(reader),
		writer: writer,
	}
}

// ReviewCandidate prompts the reviewer to classify one queued candidate.
// Returns skip=true when the reviewer defers the decision.
func (p *Prompter) ReviewCandidate(ctx context.Context, c *model.ExtractedCandidate, suppliers []model.Supplier) (engine.ReviewDecision, bool, error) {
	var decision engine.ReviewDecision

	content := fmt.Sprintf("%s\n%s  venc. %s",
		c.Description,
		SubtleStyle.Render("R$ "+c.AmountText),
		c.DueDate.Format("02/01/2006"))
	fmt.Fprintln(p.writer, RenderBox("Lançamento para revisar", content))

	suggestions := rankSuppliers(c.Description, suppliers, 5)
	for i, s := range suggestions {
		fmt.Fprintf(p.writer, "  [%d] %s %s\n", i+1, s.Name, SubtleStyle.Render(s.Category))
	}
	fmt.Fprintln(p.writer, "  [0] Sem fornecedor")
	fmt.Fprintln(p.writer, "  [S] Pular")

	choice, err := p.readLine(ctx, "Fornecedor")
	if err != nil {
		return decision, false, err
	}

	switch strings.ToLower(choice) {
	case "s":
		return decision, true, nil
	case "0", "":
		// filed without supplier
	default:
		idx, convErr := strconv.Atoi(choice)
		if convErr != nil || idx < 1 || idx > len(suggestions) {
			fmt.Fprintln(p.writer, FormatWarning("Opção inválida, pulando."))
			return decision, true, nil
		}
		decision.SupplierID = suggestions[idx-1].ID
	}

	kind, err := p.readLine(ctx, fmt.Sprintf("Tipo [enter = %s]", c.Kind))
	if err != nil {
		return decision, false, err
	}
	if kind != "" {
		override := model.EntryKind(strings.ToLower(kind))
		if !override.Valid() {
			fmt.Fprintln(p.writer, FormatWarning("Tipo inválido, mantendo o extraído."))
		} else {
			decision.KindOverride = override
		}
	}

	nature, err := p.readLine(ctx, "Natureza [o]peracional / capital de [g]iro / enter = padrão")
	if err != nil {
		return decision, false, err
	}
	switch strings.ToLower(nature) {
	case "o":
		decision.NatureOverride = model.NatureOperational
	case "g":
		decision.NatureOverride = model.NatureWorkingCapital
	}

	return decision, false, nil
}

// ConfirmDuplicateGroup shows one duplicate group and asks whether to dismiss
// it for the session. Returns true to dismiss.
func (p *Prompter) ConfirmDuplicateGroup(ctx context.Context, group *dedup.Group) (bool, error) {
	var b strings.Builder
	for _, e := range group.Entries {
		fmt.Fprintf(&b, "%s  R$ %s  venc. %s\n",
			e.Description, e.AmountText, e.DueDate.Format("02/01/2006"))
	}
	fmt.Fprintln(p.writer, RenderBox(
		fmt.Sprintf("Possível duplicidade (%d lançamentos)", len(group.Entries)),
		strings.TrimRight(b.String(), "\n")))

	choice, err := p.readLine(ctx, "[D]escartar alerta / [M]anter")
	if err != nil {
		return false, err
	}
	return strings.EqualFold(choice, "d"), nil
}

func (p *Prompter) readLine(ctx context.Context, prompt string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	fmt.Fprint(p.writer, FormatPrompt(prompt))
	line, err := p.reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// rankSuppliers orders suppliers by similarity to the description for the
// suggestion list, best first, capped at limit.
func rankSuppliers(description string, suppliers []model.Supplier, limit int) []model.Supplier {
	type scored struct {
		supplier model.Supplier
		score    float64
	}
	ranked := make([]scored, 0, len(suppliers))
	for _, s := range suppliers {
		ranked = append(ranked, scored{supplier: s, score: textutil.Similarity(description, s.Name)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})
	if limit > len(ranked) {
		limit = len(ranked)
	}
	out := make([]model.Supplier, 0, limit)
	for _, r := range ranked[:limit] {
		out = append(out, r.supplier)
	}
	return out
}
