package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/channasilva/crms-server/internal/persistence/sqlite"
)

// SQLiteHarness provides repository access backed by a temporary SQLite
// database for integration-style persistence tests.
type SQLiteHarness struct {
	Pool          *sqlite.ConnectionPool
	Users         *sqlite.UserRepository
	Resources     *sqlite.ResourceRepository
	Bookings      *sqlite.BookingRepository
	Sessions      *sqlite.SessionRepository
	Notifications *sqlite.NotificationRepository
	Audit         *sqlite.AuditRepository

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness opens a migrated SQLite database in a temporary directory
// and wires every repository to it. The database is removed automatically via
// the testing cleanup hook.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "crms.db")
	pool, err := sqlite.NewConnectionPool("file:" + path + "?_foreign_keys=on")
	if err != nil {
		tb.Fatalf("failed to open database: %v", err)
	}

	if err := pool.Migrate(context.Background()); err != nil {
		_ = pool.Close()
		tb.Fatalf("failed to migrate database: %v", err)
	}

	harness := &SQLiteHarness{
		Pool:          pool,
		Users:         sqlite.NewUserRepository(pool),
		Resources:     sqlite.NewResourceRepository(pool),
		Bookings:      sqlite.NewBookingRepository(pool),
		Sessions:      sqlite.NewSessionRepository(pool),
		Notifications: sqlite.NewNotificationRepository(pool),
		Audit:         sqlite.NewAuditRepository(pool),
		cleanup: func() {
			_ = pool.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}
