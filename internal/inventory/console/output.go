package console

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/inventorytracker/inventory-tracker/internal/inventory/view"
	"github.com/inventorytracker/inventory-tracker/internal/inventory/workflow"
	"github.com/inventorytracker/inventory-tracker/pkg/errors"
)

// SyncWriter serializes writes from the renderer, the notifier and the
// command loop, which run on different goroutines
type SyncWriter struct {
	mu  sync.Mutex
	out io.Writer
}

// NewSyncWriter wraps out
func NewSyncWriter(out io.Writer) *SyncWriter {
	return &SyncWriter{out: out}
}

func (w *SyncWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.out.Write(p)
}

// Notifier prints failed service calls as they happen
type Notifier struct {
	out io.Writer
}

// NewNotifier creates a notifier writing to out
func NewNotifier(out io.Writer) *Notifier {
	return &Notifier{out: out}
}

// NotifyError implements client.Notifier
func (n *Notifier) NotifyError(err error) {
	fmt.Fprintf(n.out, "error: %v\n", err)
}

// Renderer prints inventory tables and case histories
type Renderer struct {
	out io.Writer
}

// NewRenderer creates a renderer writing to out
func NewRenderer(out io.Writer) *Renderer {
	return &Renderer{out: out}
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

// Render implements view.Renderer
func (r *Renderer) Render(res view.Result) {
	var b strings.Builder

	switch res.State {
	case view.StateError:
		fmt.Fprintf(&b, "Error loading inventory: %v\n", res.Err)
	case view.StateEmpty:
		b.WriteString("No items found.\n")
	case view.StateNoMatch:
		writeTypes(&b, res)
		fmt.Fprintf(&b, "No items of type %q.\n", res.Filter)
	default:
		writeTypes(&b, res)
		writeTable(&b, res.Rows)
	}

	io.WriteString(r.out, b.String())
}

func writeTypes(b *strings.Builder, res view.Result) {
	labels := []string{"All"}
	for _, t := range res.Types {
		labels = append(labels, t.Label)
	}
	filter := "all"
	if res.Filter != "" {
		filter = res.Filter
	}
	fmt.Fprintf(b, "Types: %s (showing %s)\n", strings.Join(labels, ", "), filter)
}

func writeTable(b *strings.Builder, rows []view.DisplayRow) {
	tw := tabwriter.NewWriter(b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCODE\tUPC\tNAME\tBRAND\tTYPE\tCAPACITY\tCASES\tSTOCK")

	degraded := false
	for _, row := range rows {
		it := row.Item
		capacity := ""
		if it.Capacity != nil {
			capacity = *it.Capacity
		}
		cases := strconv.Itoa(row.TotalCases)
		if row.SummaryErr != nil {
			cases += "*"
			degraded = true
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			it.ID, orNA(it.InventoryCode), orNA(it.UPC), orNA(it.Name), orNA(it.Brand), orNA(it.Type),
			capacity, cases, row.Level)
	}
	tw.Flush()

	if degraded {
		b.WriteString("* stock summary unavailable, shown as 0\n")
	}
}

// RenderHistory prints the case history dialog
func (r *Renderer) RenderHistory(st workflow.HistoryState) {
	var b strings.Builder

	switch {
	case st.Loading:
		b.WriteString("Loading case history...\n")
	case st.Err != nil:
		fmt.Fprintf(&b, "Error loading case history: %v\n", st.Err)
	case len(st.Entries) == 0:
		b.WriteString("No case history recorded for this item.\n")
	default:
		tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "CASE\tPURCHASED\tQTY\tUSED\tACTIONS")
		for _, e := range st.Entries {
			purchased := "N/A"
			if e.PurchaseDate != nil {
				purchased = e.PurchaseDate.String()
			}
			used := ""
			if e.Used() {
				used = e.UsedDate.String()
			}
			fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n", e.ID, purchased, e.Quantity, used, actions(e))
		}
		tw.Flush()
	}

	io.WriteString(r.out, b.String())
}

func actions(e workflow.HistoryEntry) string {
	var out []string
	if e.CanMarkUsed {
		out = append(out, "use")
	}
	if e.CanDelete {
		out = append(out, "rmcase")
	}
	return strings.Join(out, ",")
}

// RenderOptions prints the case dialog item selector
func (r *Renderer) RenderOptions(st workflow.CaseDialogState) {
	if st.OptionsErr != nil {
		fmt.Fprintln(r.out, "Error loading items.")
		return
	}
	var b strings.Builder
	for _, opt := range st.Options {
		mark := " "
		if st.ItemID != nil && *st.ItemID == opt.ID {
			mark = ">"
		}
		fmt.Fprintf(&b, "%s %d  %s\n", mark, opt.ID, opt.Label)
	}
	io.WriteString(r.out, b.String())
}

// RenderError prints errors the service notifier has not already shown
func (r *Renderer) RenderError(err error) {
	var verrs errors.ValidationErrors
	var verr *errors.ValidationError
	switch {
	case errors.As(err, &verrs):
		details := verrs.Details()
		for _, f := range verrs.Fields() {
			fmt.Fprintf(r.out, "invalid %s: %s\n", f, details[f])
		}
	case errors.As(err, &verr):
		fmt.Fprintf(r.out, "invalid: %v\n", verr)
	case errors.Is(err, errors.ErrRemote):
		// already surfaced by the notifier
	case errors.Is(err, errors.ErrPromptCancelled):
		fmt.Fprintln(r.out, "cancelled")
	default:
		fmt.Fprintf(r.out, "error: %v\n", err)
	}
}
