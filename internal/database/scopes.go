package database

import (
	"gorm.io/gorm"
)

// OwnedBy restricts a task query to a single owner.
func OwnedBy(ownerID string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("owner_id = ?", ownerID)
	}
}
