package workflow

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/inventorytracker/inventory-tracker/internal/inventory/client"
	"github.com/inventorytracker/inventory-tracker/internal/inventory/domain"
	"github.com/inventorytracker/inventory-tracker/pkg/errors"
	"github.com/inventorytracker/inventory-tracker/pkg/logger"
)

// CaseForm holds the case dialog fields as typed by the user
type CaseForm struct {
	ItemID       string `json:"item_id" validate:"required"`
	Quantity     string `json:"quantity" validate:"required,number"`
	PurchaseDate string `json:"purchase_date" validate:"omitempty,datetime=2006-01-02"`
}

// Validate checks the form and converts it into the case payload
func (f CaseForm) Validate() (domain.NewCase, error) {
	f.ItemID = strings.TrimSpace(f.ItemID)
	f.Quantity = strings.TrimSpace(f.Quantity)
	f.PurchaseDate = strings.TrimSpace(f.PurchaseDate)

	errs := validateForm(f)

	var itemID int64
	if !has(errs, "item_id") {
		id, err := strconv.ParseInt(f.ItemID, 10, 64)
		if err != nil || id <= 0 {
			errs = append(errs, errors.Invalid("item_id", "select an item"))
		}
		itemID = id
	}
	quantity := positiveField(&errs, "quantity", f.Quantity)

	var purchased *domain.Date
	if f.PurchaseDate != "" && !has(errs, "purchase_date") {
		d, err := domain.ParseDate(f.PurchaseDate)
		if err != nil {
			errs = append(errs, errors.Invalid("purchase_date", "must be a date in YYYY-MM-DD format"))
		}
		purchased = &d
	}

	if len(errs) > 0 {
		return domain.NewCase{}, errs
	}
	return domain.NewCase{ItemID: itemID, Quantity: *quantity, PurchaseDate: purchased}, nil
}

// ItemOption is one entry of the case dialog item selector
type ItemOption struct {
	ID    int64
	Label string
}

// OptionLabel labels an item by inventory code, else UPC, else id, then name
func OptionLabel(item domain.Item) string {
	code := item.InventoryCode
	if code == "" {
		code = item.UPC
	}
	if code == "" {
		code = "ID:" + strconv.FormatInt(item.ID, 10)
	}
	return code + " - " + item.Name
}

// CaseDialogState is a snapshot of the case dialog
type CaseDialogState struct {
	Open       bool
	ItemID     *int64
	Options    []ItemOption
	OptionsErr error
	Form       CaseForm
}

// CaseDialog records purchased case entries
type CaseDialog struct {
	svc      client.Service
	reloader Reloader
	logger   *logger.Logger

	mu         sync.Mutex
	open       bool
	itemID     *int64
	options    []ItemOption
	optionsErr error
	form       CaseForm
	gen        uint64
}

// NewCaseDialog creates a closed case dialog
func NewCaseDialog(svc client.Service, reloader Reloader, log *logger.Logger) *CaseDialog {
	return &CaseDialog{
		svc:      svc,
		reloader: reloader,
		logger:   log.WithComponent("case_dialog"),
	}
}

// State returns a snapshot of the dialog
func (d *CaseDialog) State() CaseDialogState {
	d.mu.Lock()
	defer d.mu.Unlock()

	st := CaseDialogState{
		Open:       d.open,
		Options:    append([]ItemOption(nil), d.options...),
		OptionsErr: d.optionsErr,
		Form:       d.form,
	}
	if d.itemID != nil {
		st.ItemID = int64Ptr(*d.itemID)
	}
	return st
}

// SetForm replaces the typed fields; it is ignored when the dialog is closed
func (d *CaseDialog) SetForm(form CaseForm) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.open {
		d.form = form
	}
}

// OpenFor resets the form, loads the item selector with itemID preselected
// and opens. A failed option load still opens with an empty selector.
func (d *CaseDialog) OpenFor(ctx context.Context, itemID int64) {
	d.mu.Lock()
	d.gen++
	gen := d.gen
	d.itemID = int64Ptr(itemID)
	d.form = CaseForm{ItemID: strconv.FormatInt(itemID, 10)}
	d.options = nil
	d.optionsErr = nil
	d.mu.Unlock()

	items, err := d.svc.ListItems(ctx)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.gen != gen {
		return
	}
	if err != nil {
		d.logger.Warn().Err(err).Msg("failed to load item selector")
		d.optionsErr = err
	} else {
		d.options = make([]ItemOption, 0, len(items))
		for _, it := range items {
			d.options = append(d.options, ItemOption{ID: it.ID, Label: OptionLabel(it)})
		}
	}
	d.open = true
}

// Cancel closes the dialog and clears the identity slot
func (d *CaseDialog) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.close()
}

func (d *CaseDialog) close() {
	d.gen++
	d.open = false
	d.itemID = nil
}

// Submit validates the form and records the case entry. On success the
// dialog closes and the inventory reloads.
func (d *CaseDialog) Submit(ctx context.Context) error {
	d.mu.Lock()
	if !d.open {
		d.mu.Unlock()
		return errors.ErrDialogClosed
	}
	gen := d.gen
	form := d.form
	d.mu.Unlock()

	entry, err := form.Validate()
	if err != nil {
		return err
	}

	created, err := d.svc.CreateCase(ctx, entry)
	if err != nil {
		return err
	}
	if created != nil {
		d.logger.Info().Int64("case_id", created.ID).Int64("item_id", created.ItemID).Int("quantity", created.Quantity).Msg("case recorded")
	}

	d.mu.Lock()
	if d.gen == gen {
		d.close()
	}
	d.mu.Unlock()

	d.reloader.Reload(ctx)
	return nil
}
