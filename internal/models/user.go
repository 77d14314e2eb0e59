package models

import (
	"time"
)

// User is keyed by the identity provider's uid and never deleted here.
type User struct {
	ID          string    `gorm:"primarykey;type:varchar(128)" json:"id"`
	Email       string    `gorm:"type:varchar(255)" json:"email"`
	DisplayName string    `gorm:"type:varchar(255)" json:"displayName"`
	AvatarURL   string    `gorm:"type:varchar(1024)" json:"avatarUrl"`
	CreatedAt   time.Time `json:"createdAt"`
	LastLoginAt time.Time `json:"lastLoginAt"`
}
