package models

import (
	"gorm.io/gorm"
)

// User represents a registrant identified by a unique email and/or phone.
// At least one of the two must be present; the service layer enforces that.
type User struct {
	gorm.Model
	Email               *string `gorm:"uniqueIndex" json:"email,omitempty"`
	Phone               *string `gorm:"uniqueIndex" json:"phone,omitempty"`
	FailedLoginAttempts int     `gorm:"not null;default:0" json:"-"`
	OTPAttempts         int     `gorm:"not null;default:0" json:"-"`
	IsBlocked           bool    `gorm:"not null;default:false" json:"is_blocked"`
}

// Contact returns the user's email if set, otherwise the phone number.
func (u *User) Contact() string {
	if u.Email != nil && *u.Email != "" {
		return *u.Email
	}
	if u.Phone != nil {
		return *u.Phone
	}
	return ""
}
