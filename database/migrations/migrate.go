package migrations

import (
	"fmt"

	"gorm.io/gorm"

	"go-photo-gallery/internal/models"
)

// Migrate creates missing tables and columns without touching existing rows.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(models.All()...)
}

// Recreate drops every gallery table and creates it again empty. Run it inside
// a transaction: SQLite DDL is transactional, so a rollback restores the old tables.
func Recreate(tx *gorm.DB) error {
	tables := models.All()
	migrator := tx.Migrator()

	for i := len(tables) - 1; i >= 0; i-- {
		if err := migrator.DropTable(tables[i]); err != nil {
			return fmt.Errorf("failed to drop table: %w", err)
		}
	}
	for _, table := range tables {
		if err := migrator.CreateTable(table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}
