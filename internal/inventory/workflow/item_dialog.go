package workflow

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/inventorytracker/inventory-tracker/internal/inventory/client"
	"github.com/inventorytracker/inventory-tracker/internal/inventory/domain"
	"github.com/inventorytracker/inventory-tracker/pkg/errors"
	"github.com/inventorytracker/inventory-tracker/pkg/logger"
)

const defaultPackaging = "1"

// Mode is the item dialog mode, decided by the identity slot at open time
type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

// ItemForm holds the item dialog fields as typed by the user
type ItemForm struct {
	UPC                   string `json:"upc"`
	InventoryCode         string `json:"inventory_code"`
	Name                  string `json:"name"`
	Brand                 string `json:"brand"`
	Type                  string `json:"type"`
	Capacity              string `json:"capacity"`
	ItemsPerCase          string `json:"items_per_case" validate:"required,number"`
	CasesPerBox           string `json:"cases_per_box" validate:"required,number"`
	ThresholdEnabled      bool   `json:"threshold_enabled"`
	HighStockThreshold    string `json:"high_stock_threshold" validate:"omitempty,number"`
	RegularStockThreshold string `json:"regular_stock_threshold" validate:"omitempty,number"`
	LowStockThreshold     string `json:"low_stock_threshold" validate:"omitempty,number"`
}

// NewItemForm returns the defaults of a fresh create form
func NewItemForm() ItemForm {
	return ItemForm{ItemsPerCase: defaultPackaging, CasesPerBox: defaultPackaging}
}

// ItemFormFrom populates a form from an existing item. Unset thresholds stay blank.
func ItemFormFrom(item domain.Item) ItemForm {
	f := ItemForm{
		UPC:                   item.UPC,
		InventoryCode:         item.InventoryCode,
		Name:                  item.Name,
		Brand:                 item.Brand,
		Type:                  item.Type,
		ItemsPerCase:          defaultPackaging,
		CasesPerBox:           defaultPackaging,
		ThresholdEnabled:      item.ThresholdEnabled,
		HighStockThreshold:    intString(item.HighStockThreshold),
		RegularStockThreshold: intString(item.RegularStockThreshold),
		LowStockThreshold:     intString(item.LowStockThreshold),
	}
	if item.Capacity != nil {
		f.Capacity = *item.Capacity
	}
	if item.ItemsPerCase != nil {
		f.ItemsPerCase = strconv.Itoa(*item.ItemsPerCase)
	}
	if item.CasesPerBox != nil {
		f.CasesPerBox = strconv.Itoa(*item.CasesPerBox)
	}
	return f
}

func (f ItemForm) trimmed() ItemForm {
	for _, s := range []*string{
		&f.UPC, &f.InventoryCode, &f.Name, &f.Brand, &f.Type, &f.Capacity,
		&f.ItemsPerCase, &f.CasesPerBox,
		&f.HighStockThreshold, &f.RegularStockThreshold, &f.LowStockThreshold,
	} {
		*s = strings.TrimSpace(*s)
	}
	return f
}

// Validate checks the form and converts it into the item payload
// including packaging fields
func (f ItemForm) Validate() (domain.ItemFields, error) {
	f = f.trimmed()
	errs := validateForm(f)

	itemsPerCase := positiveField(&errs, "items_per_case", f.ItemsPerCase)
	casesPerBox := positiveField(&errs, "cases_per_box", f.CasesPerBox)
	high := thresholdField(&errs, "high_stock_threshold", f.HighStockThreshold)
	regular := thresholdField(&errs, "regular_stock_threshold", f.RegularStockThreshold)
	low := thresholdField(&errs, "low_stock_threshold", f.LowStockThreshold)

	if len(errs) > 0 {
		return domain.ItemFields{}, errs
	}

	fields := domain.ItemFields{
		UPC:                   f.UPC,
		InventoryCode:         f.InventoryCode,
		Name:                  f.Name,
		Brand:                 f.Brand,
		Type:                  f.Type,
		ItemsPerCase:          itemsPerCase,
		CasesPerBox:           casesPerBox,
		ThresholdEnabled:      f.ThresholdEnabled,
		HighStockThreshold:    high,
		RegularStockThreshold: regular,
		LowStockThreshold:     low,
	}
	if f.Capacity != "" {
		capacity := f.Capacity
		fields.Capacity = &capacity
	}
	return fields, nil
}

func positiveField(errs *errors.ValidationErrors, field, value string) *int {
	if has(*errs, field) {
		return nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		*errs = append(*errs, errors.Invalid(field, "must be a number"))
		return nil
	}
	if n <= 0 {
		*errs = append(*errs, errors.Invalid(field, "must be greater than 0"))
		return nil
	}
	return &n
}

func thresholdField(errs *errors.ValidationErrors, field, value string) *int {
	if value == "" || has(*errs, field) {
		return nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		*errs = append(*errs, errors.Invalid(field, "must be a number"))
		return nil
	}
	return &n
}

// ItemDialogState is a snapshot of the item dialog
type ItemDialogState struct {
	Open    bool
	Mode    Mode
	ItemID  *int64
	Title   string
	Form    ItemForm
	Loading bool // packaging prefetch in flight
}

// ItemDialog creates and edits items
type ItemDialog struct {
	svc      client.Service
	reloader Reloader
	logger   *logger.Logger
	now      func() time.Time

	mu       sync.Mutex
	open     bool
	itemID   *int64
	title    string
	form     ItemForm
	gen      uint64
	prefetch chan struct{}
}

// NewItemDialog creates a closed item dialog
func NewItemDialog(svc client.Service, reloader Reloader, log *logger.Logger, opts ...Option) *ItemDialog {
	s := newSettings(opts)
	return &ItemDialog{
		svc:      svc,
		reloader: reloader,
		logger:   log.WithComponent("item_dialog"),
		now:      s.now,
	}
}

// State returns a snapshot of the dialog
func (d *ItemDialog) State() ItemDialogState {
	d.mu.Lock()
	defer d.mu.Unlock()

	st := ItemDialogState{Open: d.open, Mode: ModeCreate, Title: d.title, Form: d.form}
	if d.itemID != nil {
		st.Mode = ModeEdit
		st.ItemID = int64Ptr(*d.itemID)
	}
	if d.prefetch != nil {
		select {
		case <-d.prefetch:
		default:
			st.Loading = true
		}
	}
	return st
}

// SetForm replaces the typed fields; it is ignored when the dialog is closed
func (d *ItemDialog) SetForm(form ItemForm) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.open {
		d.form = form
	}
}

// OpenForCreate clears the identity slot and opens with default fields
func (d *ItemDialog) OpenForCreate() {
	d.openForCreate(NewItemForm())
}

// OpenForCreateWithUPC opens in create mode with the UPC prefilled
func (d *ItemDialog) OpenForCreateWithUPC(upc string) {
	form := NewItemForm()
	form.UPC = upc
	d.openForCreate(form)
}

func (d *ItemDialog) openForCreate(form ItemForm) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.gen++
	d.itemID = nil
	d.title = "Add New Item"
	d.form = form
	d.prefetch = nil
	d.open = true
}

// OpenForEdit opens immediately with the item's fields and fetches its most
// recent packaging version in the background. A missing version or a failed
// fetch leaves packaging at 1/1. A packaging field changed through SetForm
// before the fetch completes keeps the typed value.
func (d *ItemDialog) OpenForEdit(ctx context.Context, item domain.Item) {
	d.mu.Lock()
	d.gen++
	gen := d.gen
	d.itemID = int64Ptr(item.ID)
	d.title = "Edit Item: " + item.Name
	d.form = ItemFormFrom(item)
	openIPC, openCPB := d.form.ItemsPerCase, d.form.CasesPerBox
	done := make(chan struct{})
	d.prefetch = done
	d.open = true
	d.mu.Unlock()

	go func() {
		defer close(done)
		ipc, cpb := defaultPackaging, defaultPackaging

		latest, err := client.LatestPackaging(ctx, d.svc, item.ID)
		switch {
		case err != nil:
			d.logger.Warn().Err(err).Int64("item_id", item.ID).Msg("packaging prefetch failed, using defaults")
		case latest != nil:
			ipc = strconv.Itoa(latest.ItemsPerCase)
			cpb = strconv.Itoa(latest.CasesPerBox)
		}

		d.mu.Lock()
		defer d.mu.Unlock()
		if d.gen != gen {
			return
		}
		// fields typed while the fetch was in flight win
		if d.form.ItemsPerCase == openIPC {
			d.form.ItemsPerCase = ipc
		}
		if d.form.CasesPerBox == openCPB {
			d.form.CasesPerBox = cpb
		}
	}()
}

// WaitPackaging blocks until the packaging prefetch of the current open finishes
func (d *ItemDialog) WaitPackaging() {
	d.mu.Lock()
	done := d.prefetch
	d.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Cancel closes the dialog and clears the identity slot
func (d *ItemDialog) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.close()
}

func (d *ItemDialog) close() {
	d.gen++
	d.open = false
	d.itemID = nil
}

// Submit validates the form and saves the item. Edits patch the item and
// append a packaging version effective today; creates send packaging in the
// item payload. Validation errors never reach the service. On success the
// dialog closes and the inventory reloads; on any error it stays open.
func (d *ItemDialog) Submit(ctx context.Context) error {
	d.mu.Lock()
	if !d.open {
		d.mu.Unlock()
		return errors.ErrDialogClosed
	}
	gen := d.gen
	form := d.form
	var itemID *int64
	if d.itemID != nil {
		itemID = int64Ptr(*d.itemID)
	}
	d.mu.Unlock()

	fields, err := form.Validate()
	if err != nil {
		return err
	}

	if itemID == nil {
		item, err := d.svc.CreateItem(ctx, fields)
		if err != nil {
			return err
		}
		if item != nil {
			d.logger.Info().Int64("item_id", item.ID).Msg("item created")
		}
	} else {
		if err := d.saveEdit(ctx, *itemID, fields); err != nil {
			return err
		}
	}

	d.mu.Lock()
	if d.gen == gen {
		d.close()
	}
	d.mu.Unlock()

	d.reloader.Reload(ctx)
	return nil
}

func (d *ItemDialog) saveEdit(ctx context.Context, id int64, fields domain.ItemFields) error {
	packaging := domain.NewPackaging{
		ItemsPerCase: *fields.ItemsPerCase,
		CasesPerBox:  *fields.CasesPerBox,
	}
	fields.ItemsPerCase = nil
	fields.CasesPerBox = nil

	if _, err := d.svc.UpdateItem(ctx, id, fields); err != nil {
		return err
	}

	today := domain.Today(d.now)
	packaging.EffectiveDate = &today
	version, err := d.svc.AddPackaging(ctx, id, packaging)
	if err != nil {
		return err
	}

	ev := d.logger.Info().Int64("item_id", id)
	if version != nil {
		ev = ev.Int64("packaging_id", version.ID)
	}
	ev.Msg("item updated")
	return nil
}
