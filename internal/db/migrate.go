package db

import (
	"fmt"

	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/models"
	"gorm.io/gorm"
)

// Migrate runs schema migrations for all core entities.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	return conn.AutoMigrate(
		&models.User{},
		&models.Address{},
		&models.Zone{},
		&models.Kitchen{},
		&models.MenuItem{},
		&models.Subscription{},
		&models.Voucher{},
		&models.Order{},
		&models.OrderStatusEvent{},
		&models.AutoOrderLog{},
		&models.Setting{},
	)
}
