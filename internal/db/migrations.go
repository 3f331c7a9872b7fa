package db

import (
	"gorm.io/gorm"
)

// RunMigrations runs all database migrations
func RunMigrations(db *DB) error {
	if err := db.AutoMigrate(&Book{}, &Account{}, &RentalRequest{}); err != nil {
		return err
	}

	if err := createIndexes(db.DB); err != nil {
		return err
	}

	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []string{
		// Admin dashboard lists pending requests oldest first
		`CREATE INDEX IF NOT EXISTS idx_rentals_status_created ON rental_requests(status, created_at)`,
	}

	if db.Dialector.Name() == "postgres" {
		indexes = append(indexes,
			`CREATE INDEX IF NOT EXISTS idx_accounts_email_lower ON accounts(lower(email))`,
		)
	}

	for _, indexSQL := range indexes {
		if err := db.Exec(indexSQL).Error; err != nil {
			return err
		}
	}

	return nil
}
