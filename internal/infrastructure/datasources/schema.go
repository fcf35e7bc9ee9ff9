package datasources

import (
	"fmt"

	"gorm.io/gorm"

	"userstore.backend/internal/infrastructure/models"
)

// EnsureSchema creates the tables backing the given models when they are
// missing. Existing tables are left untouched.
func EnsureSchema(db *gorm.DB, tables ...any) error {
	if len(tables) == 0 {
		tables = models.All()
	}
	m := db.Migrator()
	for _, t := range tables {
		if m.HasTable(t) {
			continue
		}
		if err := m.CreateTable(t); err != nil {
			return fmt.Errorf("failed to create table for %T: %w", t, err)
		}
	}
	return nil
}
