package client_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/inventorytracker/inventory-tracker/internal/inventory/client"
	"github.com/inventorytracker/inventory-tracker/internal/inventory/domain"
	"github.com/inventorytracker/inventory-tracker/pkg/errors"
	"github.com/inventorytracker/inventory-tracker/pkg/httputil"
	"github.com/inventorytracker/inventory-tracker/pkg/logger"
	"github.com/inventorytracker/inventory-tracker/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type notifications struct {
	mu   sync.Mutex
	errs []error
}

func (n *notifications) NotifyError(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errs = append(n.errs, err)
}

func (n *notifications) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.errs)
}

func serve(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRequest_SendsHeadersAndBody(t *testing.T) {
	var got *http.Request
	var payload map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		_ = json.NewDecoder(r.Body).Decode(&payload)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"ok":true}`)
	}))
	defer srv.Close()

	gw := client.New(srv.URL+"/", logger.Nop(), client.WithUserAgent("inventory-tracker-test"))
	raw, err := gw.Request(context.Background(), "/items", client.RequestOptions{
		Method:  http.MethodPost,
		Headers: map[string]string{"X-Extra": "1"},
		Body:    map[string]string{"name": "Cola"},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(raw))

	require.NotNil(t, got)
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "/items", got.URL.Path)
	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
	assert.Equal(t, "application/json", got.Header.Get("Accept"))
	assert.Equal(t, "inventory-tracker-test", got.Header.Get("User-Agent"))
	assert.Equal(t, "1", got.Header.Get("X-Extra"))
	assert.NotEmpty(t, got.Header.Get(httputil.RequestIDHeader))
	assert.Equal(t, "Cola", payload["name"])
}

func TestRequest_DefaultsToGetWithoutBody(t *testing.T) {
	var method, contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		contentType = r.Header.Get("Content-Type")
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	_, err := client.New(srv.URL, logger.Nop()).Request(context.Background(), "/items", client.RequestOptions{})
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, method)
	assert.Empty(t, contentType)
}

func TestRequest_EmptySuccessReturnsNil(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"no content", http.StatusNoContent, ""},
		{"empty ok", http.StatusOK, ""},
		{"whitespace ok", http.StatusOK, "  \n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := serve(t, tt.status, tt.body)
			raw, err := client.New(srv.URL, logger.Nop()).Request(context.Background(), "/x", client.RequestOptions{})
			require.NoError(t, err)
			assert.Nil(t, raw)
		})
	}
}

func TestRequest_ErrorMessages(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"error field", http.StatusBadRequest, `{"error":"name is required","code":"BAD_REQUEST"}`, "name is required"},
		{"message field", http.StatusConflict, `{"message":"duplicate upc"}`, "duplicate upc"},
		{"nested error", http.StatusUnprocessableEntity, `{"error":{"message":"bad quantity"}}`, "bad quantity"},
		{"json string", http.StatusBadRequest, `"plain json string"`, "plain json string"},
		{"raw text", http.StatusInternalServerError, "database exploded\n", "database exploded"},
		{"empty body", http.StatusNotFound, "", "Not Found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := serve(t, tt.status, tt.body)
			n := &notifications{}
			gw := client.New(srv.URL, logger.Nop(), client.WithNotifier(n))

			raw, err := gw.Request(context.Background(), "/items", client.RequestOptions{})
			assert.Nil(t, raw)

			var remote *errors.RemoteError
			require.True(t, errors.As(err, &remote))
			assert.Equal(t, tt.status, remote.StatusCode)
			assert.Equal(t, tt.message, remote.Message)
			assert.Equal(t, "/items", remote.Path)
			assert.True(t, errors.Is(err, errors.ErrRemote))

			assert.Equal(t, 1, n.count(), "failure is surfaced exactly once")
		})
	}
}

func TestRequest_InvalidJSON(t *testing.T) {
	srv := serve(t, http.StatusOK, "<html>")
	_, err := client.New(srv.URL, logger.Nop()).Request(context.Background(), "/items", client.RequestOptions{})

	var remote *errors.RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, http.StatusOK, remote.StatusCode)
}

func TestService_UnexpectedShapeIsNotified(t *testing.T) {
	srv := serve(t, http.StatusOK, `{"items": []}`)
	n := &notifications{}
	gw := client.New(srv.URL, logger.Nop(), client.WithNotifier(n))

	items, err := gw.ListItems(context.Background())
	assert.Nil(t, items)

	var remote *errors.RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, http.StatusOK, remote.StatusCode)
	assert.Equal(t, "/items", remote.Path)
	assert.Equal(t, "unexpected response format", remote.Message)
	assert.True(t, errors.Is(err, errors.ErrRemote))
	assert.Equal(t, 1, n.count())
}

func TestRequest_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	n := &notifications{}
	gw := client.New(srv.URL, logger.Nop(), client.WithTimeout(50*time.Millisecond), client.WithNotifier(n))

	_, err := gw.Request(context.Background(), "/items", client.RequestOptions{})
	var remote *errors.RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, 0, remote.StatusCode)
	assert.Equal(t, "request timed out", remote.Message)
	assert.Contains(t, remote.Error(), "server unreachable")
	assert.Equal(t, 1, n.count())
}

func TestRequest_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := client.New(url, logger.Nop()).Request(context.Background(), "/items", client.RequestOptions{})
	var remote *errors.RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, 0, remote.StatusCode)
}

func TestRequest_NotifierFunc(t *testing.T) {
	srv := serve(t, http.StatusBadGateway, "")
	var seen error
	gw := client.New(srv.URL, logger.Nop(), client.WithNotifier(client.NotifierFunc(func(err error) { seen = err })))

	_, err := gw.Request(context.Background(), "/items", client.RequestOptions{})
	require.Error(t, err)
	assert.Same(t, err, seen)
}

func TestService_NullListsDecodeEmpty(t *testing.T) {
	srv := serve(t, http.StatusOK, "null")
	gw := client.New(srv.URL, logger.Nop())

	items, err := gw.ListItems(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)

	summary, err := gw.ItemSummary(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, summary)
}

func TestService_ItemsRoundTrip(t *testing.T) {
	srv, _ := testutil.NewInventoryServer(t)
	gw := client.New(srv.URL, logger.Nop())
	ctx := testutil.DefaultTestContext(t)

	created, err := gw.CreateItem(ctx, domain.ItemFields{
		UPC:          "012345678905",
		Name:         "Cola",
		Type:         "beverages",
		ItemsPerCase: testutil.PtrInt(24),
		CasesPerBox:  testutil.PtrInt(2),
	})
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "Cola", created.Name)

	updated, err := gw.UpdateItem(ctx, created.ID, domain.ItemFields{
		UPC:                created.UPC,
		Name:               "Cola Zero",
		Type:               "beverages",
		ThresholdEnabled:   true,
		HighStockThreshold: testutil.PtrInt(10),
	})
	require.NoError(t, err)
	assert.Equal(t, "Cola Zero", updated.Name)
	assert.True(t, updated.ThresholdEnabled)
	require.NotNil(t, updated.HighStockThreshold)
	assert.Equal(t, 10, *updated.HighStockThreshold)

	items, err := gw.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)

	require.NoError(t, gw.DeleteItem(ctx, created.ID))
	items, err = gw.ListItems(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	err = gw.DeleteItem(ctx, created.ID)
	var remote *errors.RemoteError
	require.True(t, errors.As(err, &remote))
	assert.True(t, remote.IsNotFound())
}

func TestService_PackagingIsAppendOnly(t *testing.T) {
	srv, _ := testutil.NewInventoryServer(t)
	gw := client.New(srv.URL, logger.Nop())
	ctx := testutil.DefaultTestContext(t)

	item, err := gw.CreateItem(ctx, domain.ItemFields{Name: "Water", ItemsPerCase: testutil.PtrInt(12), CasesPerBox: testutil.PtrInt(1)})
	require.NoError(t, err)

	next := domain.DateOf(testutil.FixedNow().AddDate(0, 0, 1))
	added, err := gw.AddPackaging(ctx, item.ID, domain.NewPackaging{ItemsPerCase: 24, CasesPerBox: 2, EffectiveDate: &next})
	require.NoError(t, err)
	require.NotNil(t, added)

	versions, err := gw.ListPackaging(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, versions, 2, "earlier version is kept")
	assert.Equal(t, 24, versions[0].ItemsPerCase)
	assert.Equal(t, 12, versions[1].ItemsPerCase)

	latest, err := client.LatestPackaging(ctx, gw, item.ID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, added.ID, latest.ID)

	require.NoError(t, gw.DeletePackaging(ctx, item.ID, added.ID))
	versions, err = gw.ListPackaging(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.NotEqual(t, added.ID, versions[0].ID)
}

func TestService_LatestPackagingNone(t *testing.T) {
	srv, _ := testutil.NewInventoryServer(t)
	gw := client.New(srv.URL, logger.Nop())
	ctx := testutil.DefaultTestContext(t)

	item, err := gw.CreateItem(ctx, domain.ItemFields{Name: "Loose"})
	require.NoError(t, err)

	latest, err := client.LatestPackaging(ctx, gw, item.ID)
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestService_CasesLifecycle(t *testing.T) {
	srv, _ := testutil.NewInventoryServer(t)
	n := &notifications{}
	gw := client.New(srv.URL, logger.Nop(), client.WithNotifier(n))
	ctx := testutil.DefaultTestContext(t)

	item, err := gw.CreateItem(ctx, domain.ItemFields{Name: "Cola", ItemsPerCase: testutil.PtrInt(24), CasesPerBox: testutil.PtrInt(1)})
	require.NoError(t, err)

	entry, err := gw.CreateCase(ctx, domain.NewCase{ItemID: item.ID, Quantity: 3})
	require.NoError(t, err)
	require.NotNil(t, entry.PurchaseDate)
	assert.Equal(t, "2026-10-14", entry.PurchaseDate.String())

	summary, err := gw.ItemSummary(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, domain.TotalCases(summary))

	today := domain.Today(testutil.FixedNow)
	_, err = gw.MarkCaseUsed(ctx, entry.ID, domain.CaseUsage{UsedDate: today, CountToUse: testutil.PtrInt(2)})
	require.NoError(t, err)

	summary, err = gw.ItemSummary(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, domain.TotalCases(summary))

	cases, err := gw.ListCases(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, cases, 2)

	for _, c := range cases {
		require.NoError(t, gw.DeleteCase(ctx, c.ID))
	}
	cases, err = gw.ListCases(ctx, item.ID)
	require.NoError(t, err)
	assert.Empty(t, cases)
	assert.Equal(t, 0, n.count())

	_, err = gw.CreateCase(ctx, domain.NewCase{ItemID: item.ID, Quantity: 0})
	require.Error(t, err)
	assert.Equal(t, 1, n.count())
}
