package database

import (
	"fmt"

	"github.com/jinzhu/gorm"
	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/brydenu/blfs-cafe-sub001/internal/models"
)

// Open connects to the configured database and runs migrations.
// The unique index on orders.public_id is created by the model tag and is
// the arbiter for sequence allocation races, so migration failure is fatal
// to the caller.
func Open(driver, dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate creates or updates the schema for all order-core tables.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Order{},
		&models.OrderItem{},
		&models.ScheduleRule{},
		&models.Product{},
		&models.Ingredient{},
		&models.ProductIngredient{},
	).Error
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
