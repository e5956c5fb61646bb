package workflow

import (
	"context"

	"github.com/inventorytracker/inventory-tracker/internal/inventory/barcode"
	"github.com/inventorytracker/inventory-tracker/internal/inventory/client"
	"github.com/inventorytracker/inventory-tracker/internal/inventory/domain"
	"github.com/inventorytracker/inventory-tracker/pkg/logger"
)

// Dialog names the dialog that is currently open
type Dialog string

const (
	DialogNone    Dialog = ""
	DialogItem    Dialog = "item"
	DialogCase    Dialog = "case"
	DialogHistory Dialog = "history"
)

// Controller owns the three dialogs and keeps at most one of them open
type Controller struct {
	Item    *ItemDialog
	Case    *CaseDialog
	History *HistoryDialog

	capturer barcode.Capturer
	logger   *logger.Logger
}

// NewController wires the dialogs to the service and the inventory view
func NewController(svc client.Service, reloader Reloader, capturer barcode.Capturer, log *logger.Logger, opts ...Option) *Controller {
	if capturer == nil {
		capturer = barcode.Unavailable{}
	}
	return &Controller{
		Item:     NewItemDialog(svc, reloader, log, opts...),
		Case:     NewCaseDialog(svc, reloader, log),
		History:  NewHistoryDialog(svc, reloader, log, opts...),
		capturer: capturer,
		logger:   log.WithComponent("workflow"),
	}
}

// Active reports which dialog is open
func (c *Controller) Active() Dialog {
	switch {
	case c.Item.State().Open:
		return DialogItem
	case c.Case.State().Open:
		return DialogCase
	case c.History.State().Open:
		return DialogHistory
	}
	return DialogNone
}

func (c *Controller) closeExcept(keep Dialog) {
	if keep != DialogItem {
		c.Item.Cancel()
	}
	if keep != DialogCase {
		c.Case.Cancel()
	}
	if keep != DialogHistory {
		c.History.Cancel()
	}
}

// CloseAll cancels every dialog
func (c *Controller) CloseAll() {
	c.closeExcept(DialogNone)
}

// OpenItemForCreate opens the item dialog in create mode
func (c *Controller) OpenItemForCreate() {
	c.closeExcept(DialogItem)
	c.Item.OpenForCreate()
}

// OpenItemForEdit opens the item dialog in edit mode
func (c *Controller) OpenItemForEdit(ctx context.Context, item domain.Item) {
	c.closeExcept(DialogItem)
	c.Item.OpenForEdit(ctx, item)
}

// OpenCaseFor opens the case dialog for an item
func (c *Controller) OpenCaseFor(ctx context.Context, itemID int64) {
	c.closeExcept(DialogCase)
	c.Case.OpenFor(ctx, itemID)
}

// OpenHistoryFor opens the case history of an item
func (c *Controller) OpenHistoryFor(ctx context.Context, itemID int64) {
	c.closeExcept(DialogHistory)
	c.History.OpenFor(ctx, itemID)
}

// Capturer returns the barcode capture mechanism in use
func (c *Controller) Capturer() barcode.Capturer {
	return c.capturer
}

// Scan captures a UPC and opens the item dialog in create mode with it
// prefilled. Capture failures leave every dialog as it was.
func (c *Controller) Scan(ctx context.Context) (string, error) {
	upc, err := c.capturer.Capture(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Str("capturer", c.capturer.Name()).Msg("barcode capture failed")
		return "", err
	}

	c.logger.Info().Str("upc", upc).Msg("barcode captured")
	c.closeExcept(DialogItem)
	c.Item.OpenForCreateWithUPC(upc)
	return upc, nil
}
