package testutil

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/inventorytracker/inventory-tracker/internal/inventory/fakeapi"
	"github.com/inventorytracker/inventory-tracker/pkg/logger"
)

// FixedNow returns a clock frozen at 2026-10-14 12:00 UTC
func FixedNow() time.Time {
	return time.Date(2026, time.October, 14, 12, 0, 0, 0, time.UTC)
}

// NewInventoryServer starts the reference inventory service for one test.
// The server is closed on test cleanup.
func NewInventoryServer(t *testing.T) (*httptest.Server, *fakeapi.Store) {
	t.Helper()

	store := fakeapi.NewStore(FixedNow)
	srv := httptest.NewServer(fakeapi.NewRouter(store, logger.Nop(), fakeapi.RouterOptions{}))
	t.Cleanup(srv.Close)

	return srv, store
}
