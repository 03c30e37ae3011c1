package database

import (
	"immoci-backend/internal/domain"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Open opens a GORM DB from DSN. PreferSimpleProtocol disables prepared
// statement caching to avoid 42P05 ("prepared statement already exists")
// when running behind a connection pooler (PgBouncer and friends).
func Open(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
}

// AutoMigrate runs migrations for the full domain model.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.OwnerProfile{},
		&domain.AgencyProfile{},
		&domain.CanvasserProfile{},
		&domain.Listing{},
		&domain.Location{},
		&domain.InteriorFeature{},
		&domain.ExteriorFeature{},
		&domain.ListingDocument{},
		&domain.AccessibilityFeature{},
		&domain.Amenity{},
		&domain.PaymentCondition{},
		&domain.Bonus{},
		&domain.Room{},
		&domain.RoomPhoto{},
		&domain.MainPhoto{},
		&domain.Video{},
		&domain.HistoryRecord{},
		&domain.DeletedAccount{},
	)
}
