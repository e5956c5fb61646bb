package view

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/inventorytracker/inventory-tracker/internal/inventory/client"
	"github.com/inventorytracker/inventory-tracker/internal/inventory/domain"
	"github.com/inventorytracker/inventory-tracker/pkg/errors"
	"github.com/inventorytracker/inventory-tracker/pkg/logger"
)

const defaultConcurrency = 8

// State tells apart the ways a refresh can end up with no rows
type State string

const (
	StateOK      State = "ok"
	StateEmpty   State = "empty"    // the service has no items
	StateNoMatch State = "no_match" // items exist but none match the filter
	StateError   State = "error"    // the item list could not be fetched
)

// DisplayRow is one rendered inventory line
type DisplayRow struct {
	Item       domain.Item
	TotalCases int
	Level      domain.StockLevel
	SummaryErr error
}

// TypeOption is one entry of the type filter control
type TypeOption struct {
	Value string
	Label string
}

// Result is the outcome of one refresh
type Result struct {
	State       State
	Rows        []DisplayRow
	Types       []TypeOption
	Filter      string
	Err         error
	RefreshedAt time.Time
}

// Renderer receives every completed refresh
type Renderer interface {
	Render(Result)
}

// Confirmer asks the user a yes/no question
type Confirmer interface {
	Confirm(ctx context.Context, question string) (bool, error)
}

// Model fetches items and their stock summaries and builds display rows
type Model struct {
	svc         client.Service
	logger      *logger.Logger
	concurrency int
	now         func() time.Time

	refreshMu sync.Mutex // serializes refreshes

	mu        sync.RWMutex
	current   Result
	filter    string
	renderers []Renderer
}

// Option configures a Model
type Option func(*Model)

// WithConcurrency bounds parallel summary fetches
func WithConcurrency(n int) Option {
	return func(m *Model) {
		if n > 0 {
			m.concurrency = n
		}
	}
}

// WithRenderer registers a renderer
func WithRenderer(r Renderer) Option {
	return func(m *Model) { m.renderers = append(m.renderers, r) }
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(m *Model) { m.now = now }
}

// NewModel creates a view model over svc
func NewModel(svc client.Service, log *logger.Logger, opts ...Option) *Model {
	m := &Model{
		svc:         svc,
		logger:      log.WithComponent("view"),
		concurrency: defaultConcurrency,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Current returns the last completed refresh
func (m *Model) Current() Result {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Filter returns the effective type filter of the last refresh
func (m *Model) Filter() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filter
}

// SetFilter refreshes with a new type filter
func (m *Model) SetFilter(ctx context.Context, typeFilter string) Result {
	return m.Refresh(ctx, typeFilter)
}

// Reload refreshes with the remembered filter, falling back to showing all
// when its type is no longer among the items
func (m *Model) Reload(ctx context.Context) Result {
	return m.run(ctx, "", true)
}

// Refresh fetches items, applies typeFilter and computes stock per item.
func (m *Model) Refresh(ctx context.Context, typeFilter string) Result {
	return m.run(ctx, typeFilter, false)
}

func (m *Model) run(ctx context.Context, typeFilter string, preserve bool) Result {
	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()

	if preserve {
		typeFilter = m.Filter()
	}
	result := m.refresh(ctx, typeFilter, preserve)

	m.mu.Lock()
	m.current = result
	m.filter = preservedFilter(result)
	renderers := append([]Renderer(nil), m.renderers...)
	m.mu.Unlock()

	for _, r := range renderers {
		r.Render(result)
	}
	return result
}

func (m *Model) refresh(ctx context.Context, typeFilter string, preserve bool) Result {
	result := Result{RefreshedAt: m.now()}

	items, err := m.svc.ListItems(ctx)
	if err != nil {
		m.logger.Error().Err(err).Msg("failed to load inventory")
		result.State = StateError
		result.Err = err
		result.Filter = typeFilter
		return result
	}

	result.Types = typeOptions(items)
	result.Filter = typeFilter
	if preserve {
		result.Filter = preservedFilter(result)
	}

	if len(items) == 0 {
		result.State = StateEmpty
		return result
	}

	retained := FilterByType(items, result.Filter)
	if len(retained) == 0 {
		result.State = StateNoMatch
		return result
	}

	result.Rows = m.buildRows(ctx, retained)
	result.State = StateOK
	return result
}

// buildRows fetches summaries concurrently. Each goroutine writes only its
// own slot, and a failed summary degrades that row to zero cases.
func (m *Model) buildRows(ctx context.Context, items []domain.Item) []DisplayRow {
	rows := make([]DisplayRow, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)

	for i := range items {
		i := i
		g.Go(func() error {
			item := items[i]
			row := DisplayRow{Item: item}

			summary, err := m.svc.ItemSummary(gctx, item.ID)
			if err != nil {
				m.logger.Warn().Err(err).Int64("item_id", item.ID).Msg("summary unavailable, showing zero cases")
				row.SummaryErr = err
			} else {
				row.TotalCases = domain.TotalCases(summary)
			}
			row.Level = domain.ClassifyItem(item, row.TotalCases)
			rows[i] = row
			return nil
		})
	}
	_ = g.Wait()

	return rows
}

func preservedFilter(r Result) string {
	if r.State == StateError {
		return r.Filter
	}
	for _, opt := range r.Types {
		if opt.Value == r.Filter {
			return r.Filter
		}
	}
	return ""
}

// FilterByType keeps items whose type equals typeFilter, preserving order.
// An empty filter keeps everything.
func FilterByType(items []domain.Item, typeFilter string) []domain.Item {
	if typeFilter == "" {
		return items
	}
	out := make([]domain.Item, 0, len(items))
	for _, it := range items {
		if it.Type == typeFilter {
			out = append(out, it)
		}
	}
	return out
}

// typeOptions lists distinct non-empty types in first-seen order
func typeOptions(items []domain.Item) []TypeOption {
	seen := make(map[string]bool)
	var out []TypeOption
	for _, it := range items {
		if it.Type == "" || seen[it.Type] {
			continue
		}
		seen[it.Type] = true
		out = append(out, TypeOption{Value: it.Type, Label: capitalize(it.Type)})
	}
	return out
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// FindItem returns the item with id from the rows of the last refresh, or
// from the service when the active filter hides it
func (m *Model) FindItem(ctx context.Context, id int64) (domain.Item, error) {
	for _, row := range m.Current().Rows {
		if row.Item.ID == id {
			return row.Item, nil
		}
	}

	items, err := m.svc.ListItems(ctx)
	if err != nil {
		return domain.Item{}, err
	}
	for _, it := range items {
		if it.ID == id {
			return it, nil
		}
	}
	return domain.Item{}, errors.Invalid("id", "no item "+strconv.FormatInt(id, 10))
}

// DeleteItem asks for confirmation, deletes the item and reloads.
// A declined confirmation returns false and no error.
func (m *Model) DeleteItem(ctx context.Context, item domain.Item, confirm Confirmer) (bool, error) {
	name := strings.TrimSpace(item.Name)
	ok, err := confirm.Confirm(ctx, "Are you sure you want to delete item: "+name+"? This action cannot be undone.")
	if err != nil || !ok {
		return false, err
	}

	if err := m.svc.DeleteItem(ctx, item.ID); err != nil {
		return false, err
	}
	m.logger.Info().Int64("item_id", item.ID).Msg("item deleted")

	m.Reload(ctx)
	return true, nil
}
