package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/frontdesk/internal/engine"
	"github.com/example/frontdesk/internal/persistence/sqlite"
)

// SQLiteHarness provides repository access backed by a temporary SQLite
// store for integration-style tests.
type SQLiteHarness struct {
	Store *sqlite.Store

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a SQLiteHarness using a temporary file that is
// migrated automatically. Callers may optionally invoke Close, but the helper
// will also register a cleanup callback with the provided testing.TB.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	dir := tb.TempDir()
	path := filepath.Join(dir, "frontdesk.db")

	store, err := sqlite.Open(context.Background(), sqlite.DefaultConfig(path))
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &SQLiteHarness{
		Store: store,
		cleanup: func() {
			_ = store.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}

// SeedRooms stores rooms in the catalog.
func (h *SQLiteHarness) SeedRooms(tb testing.TB, rooms ...engine.Room) {
	tb.Helper()
	for _, room := range rooms {
		if err := h.Store.UpsertRoom(context.Background(), room); err != nil {
			tb.Fatalf("seed room %s: %v", room.ID, err)
		}
	}
}

// SeedReservations stores reservations without daily details.
func (h *SQLiteHarness) SeedReservations(tb testing.TB, reservations ...engine.Reservation) {
	tb.Helper()
	for _, res := range reservations {
		if err := h.Store.CreateReservation(context.Background(), res, nil); err != nil {
			tb.Fatalf("seed reservation %s: %v", res.ID, err)
		}
	}
}
