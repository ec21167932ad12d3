package models

import (
	"time"

	"gorm.io/gorm"
)

// UserOTP is a single issued one-time code. Issuing a new code does not
// invalidate earlier unexpired codes for the same user, so several rows
// may be live at once.
type UserOTP struct {
	gorm.Model
	UserID    uint      `gorm:"not null;index"`
	Code      string    `gorm:"not null"`
	ExpiresAt time.Time `gorm:"not null"`
}
