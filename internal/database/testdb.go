package database

import (
	"fmt"
	"strings"
	"testing"

	"gorm.io/gorm"
)

// OpenTestDB creates a migrated SQLite in-memory DB unique per test. The
// database is closed when the test ends.
func OpenTestDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsnName := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", dsnName)
	db, err := Connect(dsn)
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
