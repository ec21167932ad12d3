package models

import (
	"time"

	"gorm.io/gorm"
)

// LoginToken mirrors an issued bearer token. A token authorizes requests
// only while a row with its exact value exists and is unexpired; expiry is
// fixed at issuance and there is no renewal.
type LoginToken struct {
	gorm.Model
	UserID    uint      `gorm:"not null;index"`
	Token     string    `gorm:"not null;uniqueIndex;size:512"`
	ExpiresAt time.Time `gorm:"not null"`
}
