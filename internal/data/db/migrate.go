package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/learnsync/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(
		// =========================
		// Learners + catalogue
		// =========================
		&types.Subject{},
		&types.Activity{},

		// =========================
		// Canonical progress
		// =========================
		&types.Record{},
		&types.GameBlob{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
