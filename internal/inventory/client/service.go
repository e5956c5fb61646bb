package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/inventorytracker/inventory-tracker/internal/inventory/domain"
	"github.com/inventorytracker/inventory-tracker/pkg/errors"
)

// Service is the typed surface of the remote inventory service
type Service interface {
	ListItems(ctx context.Context) ([]domain.Item, error)
	CreateItem(ctx context.Context, fields domain.ItemFields) (*domain.Item, error)
	UpdateItem(ctx context.Context, id int64, fields domain.ItemFields) (*domain.Item, error)
	DeleteItem(ctx context.Context, id int64) error
	ItemSummary(ctx context.Context, id int64) ([]domain.SummaryEntry, error)
	ListPackaging(ctx context.Context, itemID int64) ([]domain.PackagingVersion, error)
	AddPackaging(ctx context.Context, itemID int64, p domain.NewPackaging) (*domain.PackagingVersion, error)
	DeletePackaging(ctx context.Context, itemID, packagingID int64) error
	ListCases(ctx context.Context, itemID int64) ([]domain.CaseEntry, error)
	CreateCase(ctx context.Context, c domain.NewCase) (*domain.CaseEntry, error)
	MarkCaseUsed(ctx context.Context, caseID int64, usage domain.CaseUsage) (*domain.CaseEntry, error)
	DeleteCase(ctx context.Context, caseID int64) error
}

var _ Service = (*Gateway)(nil)

func itemPath(id int64) string {
	return "/items/" + strconv.FormatInt(id, 10)
}

func casePath(id int64) string {
	return "/cases/" + strconv.FormatInt(id, 10)
}

// call issues the request and decodes a non-empty body into out
func (g *Gateway) call(ctx context.Context, method, path string, body, out interface{}) error {
	raw, status, err := g.send(ctx, path, RequestOptions{Method: method, Body: body})
	if err != nil {
		return err
	}
	if out == nil || raw == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		remote := &errors.RemoteError{
			Method:     method,
			Path:       path,
			StatusCode: status,
			Message:    "unexpected response format",
			Err:        err,
		}
		g.logger.Error().Err(err).Str("method", method).Str("path", path).Msg("failed to decode inventory service response")
		g.notify(remote)
		return remote
	}
	return nil
}

// ListItems lists all items in service order
func (g *Gateway) ListItems(ctx context.Context) ([]domain.Item, error) {
	items := []domain.Item{}
	if err := g.call(ctx, http.MethodGet, "/items", nil, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Item{}
	}
	return items, nil
}

// CreateItem creates an item; packaging fields are part of the payload.
// The returned item is nil when the service answers with no body.
func (g *Gateway) CreateItem(ctx context.Context, fields domain.ItemFields) (*domain.Item, error) {
	var item *domain.Item
	if err := g.call(ctx, http.MethodPost, "/items", fields, &item); err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateItem patches the fields of an item
func (g *Gateway) UpdateItem(ctx context.Context, id int64, fields domain.ItemFields) (*domain.Item, error) {
	var item *domain.Item
	if err := g.call(ctx, http.MethodPatch, itemPath(id), fields, &item); err != nil {
		return nil, err
	}
	return item, nil
}

// DeleteItem deletes an item; the service cascades its packaging and cases
func (g *Gateway) DeleteItem(ctx context.Context, id int64) error {
	return g.call(ctx, http.MethodDelete, itemPath(id), nil, nil)
}

// ItemSummary fetches the stock summary of an item
func (g *Gateway) ItemSummary(ctx context.Context, id int64) ([]domain.SummaryEntry, error) {
	var summary []domain.SummaryEntry
	if err := g.call(ctx, http.MethodGet, itemPath(id)+"/summary", nil, &summary); err != nil {
		return nil, err
	}
	if summary == nil {
		summary = []domain.SummaryEntry{}
	}
	return summary, nil
}

// ListPackaging lists packaging versions, most recent first
func (g *Gateway) ListPackaging(ctx context.Context, itemID int64) ([]domain.PackagingVersion, error) {
	var versions []domain.PackagingVersion
	if err := g.call(ctx, http.MethodGet, itemPath(itemID)+"/packaging", nil, &versions); err != nil {
		return nil, err
	}
	if versions == nil {
		versions = []domain.PackagingVersion{}
	}
	return versions, nil
}

// LatestPackaging returns the most recent packaging version, or nil when
// the item has none
func LatestPackaging(ctx context.Context, svc Service, itemID int64) (*domain.PackagingVersion, error) {
	versions, err := svc.ListPackaging(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, nil
	}
	latest := versions[0]
	return &latest, nil
}

// AddPackaging appends a packaging version
func (g *Gateway) AddPackaging(ctx context.Context, itemID int64, p domain.NewPackaging) (*domain.PackagingVersion, error) {
	var version *domain.PackagingVersion
	if err := g.call(ctx, http.MethodPost, itemPath(itemID)+"/packaging", p, &version); err != nil {
		return nil, err
	}
	return version, nil
}

// DeletePackaging removes one packaging version
func (g *Gateway) DeletePackaging(ctx context.Context, itemID, packagingID int64) error {
	path := itemPath(itemID) + "/packaging/" + strconv.FormatInt(packagingID, 10)
	return g.call(ctx, http.MethodDelete, path, nil, nil)
}

// ListCases lists the case entries of an item in service order
func (g *Gateway) ListCases(ctx context.Context, itemID int64) ([]domain.CaseEntry, error) {
	q := url.Values{}
	q.Set("item_id", strconv.FormatInt(itemID, 10))

	var cases []domain.CaseEntry
	if err := g.call(ctx, http.MethodGet, "/cases?"+q.Encode(), nil, &cases); err != nil {
		return nil, err
	}
	if cases == nil {
		cases = []domain.CaseEntry{}
	}
	return cases, nil
}

// CreateCase records a purchased case entry
func (g *Gateway) CreateCase(ctx context.Context, c domain.NewCase) (*domain.CaseEntry, error) {
	var entry *domain.CaseEntry
	if err := g.call(ctx, http.MethodPost, "/cases", c, &entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// MarkCaseUsed sets the used date, optionally for part of the entry
func (g *Gateway) MarkCaseUsed(ctx context.Context, caseID int64, usage domain.CaseUsage) (*domain.CaseEntry, error) {
	var entry *domain.CaseEntry
	if err := g.call(ctx, http.MethodPatch, casePath(caseID), usage, &entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// DeleteCase deletes a case entry
func (g *Gateway) DeleteCase(ctx context.Context, caseID int64) error {
	return g.call(ctx, http.MethodDelete, casePath(caseID), nil, nil)
}
