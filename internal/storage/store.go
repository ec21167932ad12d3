package storage

import (
	"context"
	"errors"

	"github.com/astroveda/astro-backend/internal/models"
)

// ErrNotFound is returned by lookups that match no record.
var ErrNotFound = errors.New("record not found")

// Store defines the interface for storage operations
type Store interface {
	// User operations
	FindUserByEmailOrPhone(ctx context.Context, email, phone string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	BlockUser(ctx context.Context, userID uint) error
	// IncrementOTPAttempts and IncrementFailedLogins return the
	// post-increment value. Implementations must apply the increment
	// atomically; concurrent callers must never observe a lost update.
	IncrementOTPAttempts(ctx context.Context, userID uint) (int, error)
	IncrementFailedLogins(ctx context.Context, userID uint) (int, error)
	ResetLoginCounters(ctx context.Context, userID uint) error

	// OTP operations
	CreateOTP(ctx context.Context, otp *models.UserOTP) (*models.UserOTP, error)
	GetActiveOTP(ctx context.Context, userID uint, code string) (*models.UserOTP, error)
	DeleteOTP(ctx context.Context, userID uint, code string) error
	DeleteExpiredOTPs(ctx context.Context) error

	// Login token operations
	CreateLoginToken(ctx context.Context, token *models.LoginToken) (*models.LoginToken, error)
	GetActiveLoginToken(ctx context.Context, token string) (*models.LoginToken, error)
	DeleteLoginToken(ctx context.Context, token string) error
	DeleteExpiredLoginTokens(ctx context.Context) error

	// Profile operations
	GetProfile(ctx context.Context, userID uint) (*models.UserProfile, error)
	SaveProfile(ctx context.Context, profile *models.UserProfile) (*models.UserProfile, error)
}
