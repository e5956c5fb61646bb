package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/inventorytracker/inventory-tracker/internal/inventory/domain"
	"github.com/inventorytracker/inventory-tracker/pkg/errors"
)

// clearValue typed at a field prompt blanks the field
const clearValue = "-"

// Prompter asks questions on the terminal
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter reads answers from in and writes questions to out
func NewPrompter(in *bufio.Reader, out io.Writer) *Prompter {
	return &Prompter{in: in, out: out}
}

// readLine returns the next trimmed line; end of input cancels
func (p *Prompter) readLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		if err == io.EOF {
			return "", errors.ErrPromptCancelled
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Confirm implements view.Confirmer and workflow.Confirmer
func (p *Prompter) Confirm(ctx context.Context, question string) (bool, error) {
	fmt.Fprintf(p.out, "%s [y/N]: ", question)
	answer, err := p.readLine(ctx)
	if err != nil {
		if errors.Is(err, errors.ErrPromptCancelled) {
			return false, nil
		}
		return false, err
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes", nil
}

// PromptCount implements workflow.Prompter. The range is checked by the
// caller; only non-numeric answers are rejected here.
func (p *Prompter) PromptCount(ctx context.Context, entry domain.CaseEntry, min, max int) (int, error) {
	fmt.Fprintf(p.out, "How many of %d to mark used? (%d-%d, blank to cancel): ", entry.Quantity, min, max)
	answer, err := p.readLine(ctx)
	if err != nil {
		return 0, err
	}
	if answer == "" {
		return 0, errors.ErrPromptCancelled
	}
	n, err := strconv.Atoi(answer)
	if err != nil {
		return 0, errors.Invalid("count_to_use", "must be a number")
	}
	return n, nil
}

// Field asks for one form field. A blank answer keeps current and "-"
// clears it.
func (p *Prompter) Field(ctx context.Context, label, current string) (string, error) {
	if current == "" {
		fmt.Fprintf(p.out, "%s: ", label)
	} else {
		fmt.Fprintf(p.out, "%s [%s]: ", label, current)
	}
	answer, err := p.readLine(ctx)
	if err != nil {
		return "", err
	}
	switch answer {
	case "":
		return current, nil
	case clearValue:
		return "", nil
	}
	return answer, nil
}

// Flag asks a yes/no form field, keeping current on a blank answer
func (p *Prompter) Flag(ctx context.Context, label string, current bool) (bool, error) {
	def := "n"
	if current {
		def = "y"
	}
	answer, err := p.Field(ctx, label+" (y/n)", def)
	if err != nil {
		return false, err
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes", nil
}
