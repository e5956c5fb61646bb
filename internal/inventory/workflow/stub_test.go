package workflow_test

import (
	"context"
	"net/http"
	"sync"

	"github.com/inventorytracker/inventory-tracker/internal/inventory/client"
	"github.com/inventorytracker/inventory-tracker/internal/inventory/domain"
	"github.com/inventorytracker/inventory-tracker/internal/inventory/view"
	"github.com/inventorytracker/inventory-tracker/pkg/errors"
)

var errServer = &errors.RemoteError{Method: http.MethodPost, Path: "/items", StatusCode: http.StatusInternalServerError, Message: "boom"}

// recorder is an in-memory client.Service that records every call
type recorder struct {
	mu    sync.Mutex
	calls []string

	items        []domain.Item
	itemsErr     error
	packaging    map[int64][]domain.PackagingVersion
	packagingErr error
	gates        map[int64]chan struct{}
	cases        map[int64][]domain.CaseEntry
	casesErr     error
	failWith     error

	created  []domain.ItemFields
	updated  map[int64]domain.ItemFields
	added    map[int64][]domain.NewPackaging
	newCases []domain.NewCase
	usages   map[int64]domain.CaseUsage
	deleted  []int64
}

var _ client.Service = (*recorder)(nil)

func newRecorder() *recorder {
	return &recorder{
		packaging: map[int64][]domain.PackagingVersion{},
		gates:     map[int64]chan struct{}{},
		cases:     map[int64][]domain.CaseEntry{},
		updated:   map[int64]domain.ItemFields{},
		added:     map[int64][]domain.NewPackaging{},
		usages:    map[int64]domain.CaseUsage{},
	}
}

func (r *recorder) record(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, name)
}

func (r *recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *recorder) ListItems(ctx context.Context) ([]domain.Item, error) {
	r.record("ListItems")
	if r.itemsErr != nil {
		return nil, r.itemsErr
	}
	return r.items, nil
}

func (r *recorder) CreateItem(ctx context.Context, fields domain.ItemFields) (*domain.Item, error) {
	r.record("CreateItem")
	if r.failWith != nil {
		return nil, r.failWith
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, fields)
	return &domain.Item{ID: int64(len(r.created)), Name: fields.Name}, nil
}

func (r *recorder) UpdateItem(ctx context.Context, id int64, fields domain.ItemFields) (*domain.Item, error) {
	r.record("UpdateItem")
	if r.failWith != nil {
		return nil, r.failWith
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updated[id] = fields
	return &domain.Item{ID: id, Name: fields.Name}, nil
}

func (r *recorder) DeleteItem(ctx context.Context, id int64) error {
	r.record("DeleteItem")
	return r.failWith
}

func (r *recorder) ItemSummary(ctx context.Context, id int64) ([]domain.SummaryEntry, error) {
	r.record("ItemSummary")
	return []domain.SummaryEntry{}, nil
}

func (r *recorder) ListPackaging(ctx context.Context, itemID int64) ([]domain.PackagingVersion, error) {
	r.mu.Lock()
	gate := r.gates[itemID]
	r.mu.Unlock()
	if gate != nil {
		<-gate
	}
	r.record("ListPackaging")
	if r.packagingErr != nil {
		return nil, r.packagingErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.packaging[itemID], nil
}

func (r *recorder) AddPackaging(ctx context.Context, itemID int64, p domain.NewPackaging) (*domain.PackagingVersion, error) {
	r.record("AddPackaging")
	if r.failWith != nil {
		return nil, r.failWith
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.added[itemID] = append(r.added[itemID], p)
	return &domain.PackagingVersion{ID: int64(len(r.added[itemID])), ItemID: itemID, ItemsPerCase: p.ItemsPerCase, CasesPerBox: p.CasesPerBox}, nil
}

func (r *recorder) DeletePackaging(ctx context.Context, itemID, packagingID int64) error {
	r.record("DeletePackaging")
	return r.failWith
}

func (r *recorder) ListCases(ctx context.Context, itemID int64) ([]domain.CaseEntry, error) {
	r.record("ListCases")
	if r.casesErr != nil {
		return nil, r.casesErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cases[itemID], nil
}

func (r *recorder) CreateCase(ctx context.Context, c domain.NewCase) (*domain.CaseEntry, error) {
	r.record("CreateCase")
	if r.failWith != nil {
		return nil, r.failWith
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.newCases = append(r.newCases, c)
	return &domain.CaseEntry{ID: int64(len(r.newCases)), ItemID: c.ItemID, Quantity: c.Quantity}, nil
}

func (r *recorder) MarkCaseUsed(ctx context.Context, caseID int64, usage domain.CaseUsage) (*domain.CaseEntry, error) {
	r.record("MarkCaseUsed")
	if r.failWith != nil {
		return nil, r.failWith
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.usages[caseID] = usage
	return &domain.CaseEntry{ID: caseID, UsedDate: &usage.UsedDate}, nil
}

func (r *recorder) DeleteCase(ctx context.Context, caseID int64) error {
	r.record("DeleteCase")
	if r.failWith != nil {
		return r.failWith
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, caseID)
	return nil
}

// reloads counts inventory reloads
type reloads struct {
	mu sync.Mutex
	n  int
}

func (r *reloads) Reload(ctx context.Context) view.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.n++
	return view.Result{State: view.StateOK}
}

func (r *reloads) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.n
}

type promptFunc func(ctx context.Context, entry domain.CaseEntry, min, max int) (int, error)

func (f promptFunc) PromptCount(ctx context.Context, entry domain.CaseEntry, min, max int) (int, error) {
	return f(ctx, entry, min, max)
}

func fixedCount(n int) promptFunc {
	return func(ctx context.Context, entry domain.CaseEntry, min, max int) (int, error) { return n, nil }
}

type confirmFunc func(ctx context.Context, question string) (bool, error)

func (f confirmFunc) Confirm(ctx context.Context, question string) (bool, error) {
	return f(ctx, question)
}

type stubCapturer struct {
	code string
	err  error
}

func (s stubCapturer) Name() string { return "stub" }

func (s stubCapturer) Capture(ctx context.Context) (string, error) {
	return s.code, s.err
}

func intPtr(i int) *int { return &i }
