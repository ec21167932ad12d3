package services

import "errors"

// Failure signals surfaced by the auth core. Handlers map these to HTTP
// statuses with errors.Is; anything else is a store or I/O failure.
var (
	ErrUserBlocked        = errors.New("user is blocked due to too many failed attempts")
	ErrTooManyOTPRequests = errors.New("user is blocked due to too many OTP requests")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidOTP         = errors.New("invalid or expired OTP")
	ErrNotificationFailed = errors.New("failed to deliver OTP")
	ErrInvalidToken       = errors.New("invalid or expired token")
)
