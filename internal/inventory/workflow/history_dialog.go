package workflow

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/inventorytracker/inventory-tracker/internal/inventory/client"
	"github.com/inventorytracker/inventory-tracker/internal/inventory/domain"
	"github.com/inventorytracker/inventory-tracker/pkg/errors"
	"github.com/inventorytracker/inventory-tracker/pkg/logger"
)

// HistoryEntry is one case entry with the actions it allows
type HistoryEntry struct {
	domain.CaseEntry
	CanMarkUsed bool
	CanDelete   bool
}

// HistoryState is a snapshot of the case history dialog
type HistoryState struct {
	Open    bool
	Loading bool
	ItemID  *int64
	Entries []HistoryEntry
	Err     error
}

// HistoryDialog lists the case entries of one item and marks or deletes them
type HistoryDialog struct {
	svc      client.Service
	reloader Reloader
	logger   *logger.Logger
	now      func() time.Time

	mu      sync.Mutex
	open    bool
	loading bool
	itemID  *int64
	entries []HistoryEntry
	err     error
	gen     uint64
	done    chan struct{}
}

// NewHistoryDialog creates a closed history dialog
func NewHistoryDialog(svc client.Service, reloader Reloader, log *logger.Logger, opts ...Option) *HistoryDialog {
	s := newSettings(opts)
	return &HistoryDialog{
		svc:      svc,
		reloader: reloader,
		logger:   log.WithComponent("history_dialog"),
		now:      s.now,
	}
}

// State returns a snapshot of the dialog
func (d *HistoryDialog) State() HistoryState {
	d.mu.Lock()
	defer d.mu.Unlock()

	st := HistoryState{
		Open:    d.open,
		Loading: d.loading,
		Entries: append([]HistoryEntry(nil), d.entries...),
		Err:     d.err,
	}
	if d.itemID != nil {
		st.ItemID = int64Ptr(*d.itemID)
	}
	return st
}

// OpenFor opens immediately in the loading state and fetches the item's
// case entries in the background
func (d *HistoryDialog) OpenFor(ctx context.Context, itemID int64) {
	d.mu.Lock()
	d.gen++
	gen := d.gen
	d.itemID = int64Ptr(itemID)
	d.entries = nil
	d.err = nil
	d.loading = true
	d.open = true
	done := make(chan struct{})
	d.done = done
	d.mu.Unlock()

	go func() {
		defer close(done)
		d.load(ctx, gen, itemID)
	}()
}

// Wait blocks until the load started by the last open finishes
func (d *HistoryDialog) Wait() {
	d.mu.Lock()
	done := d.done
	d.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (d *HistoryDialog) load(ctx context.Context, gen uint64, itemID int64) {
	cases, err := d.svc.ListCases(ctx, itemID)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.gen != gen {
		return
	}
	d.loading = false
	if err != nil {
		d.logger.Error().Err(err).Int64("item_id", itemID).Msg("failed to load case history")
		d.err = err
		return
	}
	d.err = nil
	d.entries = make([]HistoryEntry, 0, len(cases))
	for _, c := range cases {
		d.entries = append(d.entries, HistoryEntry{CaseEntry: c, CanMarkUsed: !c.Used(), CanDelete: true})
	}
}

// Cancel closes the dialog and clears the identity slot
func (d *HistoryDialog) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	d.open = false
	d.loading = false
	d.itemID = nil
}

func (d *HistoryDialog) lookup(caseID int64) (HistoryEntry, int64, uint64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.open || d.itemID == nil {
		return HistoryEntry{}, 0, 0, errors.ErrDialogClosed
	}
	for _, e := range d.entries {
		if e.ID == caseID {
			return e, *d.itemID, d.gen, nil
		}
	}
	return HistoryEntry{}, 0, 0, errors.Invalid("case_id", "no case entry "+strconv.FormatInt(caseID, 10)+" in this list")
}

// MarkUsed sets today's used date on an entry. A single unit entry is
// submitted without prompting; larger entries ask for a count in 1..quantity.
func (d *HistoryDialog) MarkUsed(ctx context.Context, caseID int64, prompt Prompter) error {
	entry, itemID, gen, err := d.lookup(caseID)
	if err != nil {
		return err
	}
	if !entry.CanMarkUsed {
		return errors.Invalid("case_id", "case entry is already used")
	}

	usage := domain.CaseUsage{UsedDate: domain.Today(d.now)}
	if entry.Quantity > 1 {
		count, err := prompt.PromptCount(ctx, entry.CaseEntry, 1, entry.Quantity)
		if err != nil {
			return err
		}
		if count < 1 || count > entry.Quantity {
			return errors.Invalid("count_to_use", fmt.Sprintf("must be between 1 and %d", entry.Quantity))
		}
		usage.CountToUse = &count
	}

	if _, err := d.svc.MarkCaseUsed(ctx, caseID, usage); err != nil {
		return err
	}
	d.logger.Info().Int64("case_id", caseID).Msg("case marked used")

	d.afterMutation(ctx, gen, itemID)
	return nil
}

// DeleteQuestion is the confirmation asked before deleting an entry
func DeleteQuestion(entry domain.CaseEntry) string {
	purchased := "N/A"
	if entry.PurchaseDate != nil {
		purchased = entry.PurchaseDate.String()
	}
	return fmt.Sprintf("Delete this case entry (Purchased: %s, Qty: %d)?", purchased, entry.Quantity)
}

// Delete removes an entry after confirmation. A declined confirmation
// returns false and no error.
func (d *HistoryDialog) Delete(ctx context.Context, caseID int64, confirm Confirmer) (bool, error) {
	entry, itemID, gen, err := d.lookup(caseID)
	if err != nil {
		return false, err
	}

	ok, err := confirm.Confirm(ctx, DeleteQuestion(entry.CaseEntry))
	if err != nil || !ok {
		return false, err
	}

	if err := d.svc.DeleteCase(ctx, caseID); err != nil {
		return false, err
	}
	d.logger.Info().Int64("case_id", caseID).Msg("case deleted")

	d.afterMutation(ctx, gen, itemID)
	return true, nil
}

// afterMutation re-fetches the list when the dialog still shows the same
// open, then reloads the inventory
func (d *HistoryDialog) afterMutation(ctx context.Context, gen uint64, itemID int64) {
	d.mu.Lock()
	current := d.gen == gen
	if current {
		d.loading = true
	}
	d.mu.Unlock()

	if current {
		d.load(ctx, gen, itemID)
	}
	d.reloader.Reload(ctx)
}
