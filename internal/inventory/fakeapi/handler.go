package fakeapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/inventorytracker/inventory-tracker/internal/inventory/domain"
	"github.com/inventorytracker/inventory-tracker/pkg/errors"
	"github.com/inventorytracker/inventory-tracker/pkg/httputil"
	"github.com/inventorytracker/inventory-tracker/pkg/logger"
)

// createItemRequest is the POST /items payload
type createItemRequest struct {
	UPC                   string  `json:"upc"`
	InventoryCode         string  `json:"inventory_code"`
	Name                  string  `json:"name" validate:"required"`
	Brand                 string  `json:"brand"`
	Type                  string  `json:"type"`
	Capacity              *string `json:"capacity"`
	ItemsPerCase          *int    `json:"items_per_case" validate:"omitnil,gt=0"`
	CasesPerBox           *int    `json:"cases_per_box" validate:"omitnil,gt=0"`
	ThresholdEnabled      bool    `json:"threshold_enabled"`
	HighStockThreshold    *int    `json:"high_stock_threshold" validate:"omitnil,gte=0"`
	RegularStockThreshold *int    `json:"regular_stock_threshold" validate:"omitnil,gte=0"`
	LowStockThreshold     *int    `json:"low_stock_threshold" validate:"omitnil,gte=0"`
}

type addPackagingRequest struct {
	ItemsPerCase  int          `json:"items_per_case" validate:"gt=0"`
	CasesPerBox   int          `json:"cases_per_box" validate:"gt=0"`
	EffectiveDate *domain.Date `json:"effective_date"`
}

type createCaseRequest struct {
	ItemID       flexibleID   `json:"item_id" validate:"gt=0"`
	Quantity     int          `json:"quantity" validate:"gt=0"`
	PurchaseDate *domain.Date `json:"purchase_date"`
}

type markUsedRequest struct {
	UsedDate   *domain.Date `json:"used_date" validate:"required"`
	CountToUse *int         `json:"count_to_use" validate:"omitnil,gt=0"`
}

// flexibleID accepts both 7 and "7"; browser forms submit select values as strings
type flexibleID int64

func (f *flexibleID) UnmarshalJSON(data []byte) error {
	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexibleID(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return err
	}
	*f = flexibleID(n)
	return nil
}

// Handler serves the inventory API from a Store
type Handler struct {
	store  *Store
	logger *logger.Logger
}

// NewHandler creates a new handler
func NewHandler(store *Store, log *logger.Logger) *Handler {
	return &Handler{
		store:  store,
		logger: log,
	}
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.BadRequest("invalid " + name)
	}
	return id, nil
}

// ListItems lists all items
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, h.store.ListItems())
}

// GetItem gets an item by ID
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	item, err := h.store.GetItem(id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, item)
}

// CreateItem creates a new item
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	item := h.store.CreateItem(domain.ItemFields(req))
	h.logger.Info().Int64("item_id", item.ID).Str("name", item.Name).Msg("item created")

	httputil.Created(w, item)
}

// UpdateItem merges the fields present in the body into the item
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var patch map[string]json.RawMessage
	if err := httputil.DecodeJSON(r, &patch); err != nil {
		httputil.Error(w, err)
		return
	}
	if raw, ok := patch["name"]; ok {
		var name string
		if json.Unmarshal(raw, &name) != nil || name == "" {
			httputil.Error(w, errors.Validation(map[string]string{"name": "this field is required"}))
			return
		}
	}

	item, err := h.store.PatchItem(id, patch)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, item)
}

// DeleteItem deletes an item and everything it owns
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	if err := h.store.DeleteItem(id); err != nil {
		httputil.Error(w, err)
		return
	}
	h.logger.Info().Int64("item_id", id).Msg("item deleted")

	httputil.NoContent(w)
}

// Summary returns the stock summary of an item
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	summary, err := h.store.Summary(id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, summary)
}

// ListPackaging lists packaging versions, most recent first
func (h *Handler) ListPackaging(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	versions, err := h.store.ListPackaging(id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, versions)
}

// AddPackaging appends a packaging version
func (h *Handler) AddPackaging(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var req addPackagingRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	version, err := h.store.AddPackaging(id, domain.NewPackaging(req))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, version)
}

// DeletePackaging removes one packaging version
func (h *Handler) DeletePackaging(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	pid, err := pathID(r, "pid")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	if err := h.store.DeletePackaging(id, pid); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}

// ListCases lists the case entries of the item named by ?item_id=
func (h *Handler) ListCases(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.ParseInt(r.URL.Query().Get("item_id"), 10, 64)
	if err != nil || itemID <= 0 {
		httputil.Error(w, errors.BadRequest("item_id query parameter is required"))
		return
	}

	httputil.JSON(w, http.StatusOK, h.store.ListCases(itemID))
}

// CreateCase records a case entry
func (h *Handler) CreateCase(w http.ResponseWriter, r *http.Request) {
	var req createCaseRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	entry, err := h.store.CreateCase(domain.NewCase{
		ItemID:       int64(req.ItemID),
		Quantity:     req.Quantity,
		PurchaseDate: req.PurchaseDate,
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, entry)
}

// MarkUsed marks a case entry used, optionally for part of its quantity
func (h *Handler) MarkUsed(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var req markUsedRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	entry, err := h.store.MarkUsed(id, domain.CaseUsage{UsedDate: *req.UsedDate, CountToUse: req.CountToUse})
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, entry)
}

// DeleteCase deletes a case entry
func (h *Handler) DeleteCase(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	if err := h.store.DeleteCase(id); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}
