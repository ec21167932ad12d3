package models

import (
	"gorm.io/gorm"
)

// UserProfile holds the birth details used for horoscope readings.
// One profile per user.
type UserProfile struct {
	gorm.Model
	UserID       uint   `gorm:"not null;uniqueIndex" json:"user_id"`
	Name         string `json:"name"`
	DateOfBirth  string `json:"date_of_birth"`
	TimeOfBirth  string `json:"time_of_birth"`
	PlaceOfBirth string `json:"place_of_birth"`
	Gender       string `json:"gender"`
	ProfileImage string `json:"profile_image"`
}
