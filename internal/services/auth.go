package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/astroveda/astro-backend/internal/models"
	"github.com/astroveda/astro-backend/internal/storage"
	"github.com/astroveda/astro-backend/internal/utils"
)

// OTPs are valid for 10 minutes from issuance.
const otpValidity = 10 * time.Minute

// AuthService orchestrates the OTP sign-in flow: code issuance, code
// verification, lockout enforcement and token hand-off.
type AuthService struct {
	store    storage.Store
	tokens   *TokenService
	notifier Notifier
}

// NewAuthService creates the auth service.
func NewAuthService(store storage.Store, tokens *TokenService, notifier Notifier) *AuthService {
	return &AuthService{
		store:    store,
		tokens:   tokens,
		notifier: notifier,
	}
}

func newUser(email, phone string) *models.User {
	user := &models.User{}
	if email != "" {
		user.Email = &email
	}
	if phone != "" {
		user.Phone = &phone
	}
	return user
}

// RequestOTP issues a one-time code for the user identified by email or
// phone, creating the user on first contact. The code is delivered
// out-of-band only and never returned to the caller.
//
// Issuing a new code does not invalidate earlier unexpired codes.
func (s *AuthService) RequestOTP(ctx context.Context, email, phone string) error {
	user, err := s.store.FindUserByEmailOrPhone(ctx, email, phone)
	if errors.Is(err, storage.ErrNotFound) {
		user, err = s.store.CreateUser(ctx, newUser(email, phone))
	}
	if err != nil {
		return err
	}

	if user.IsBlocked {
		return ErrUserBlocked
	}

	if otpRequestsExhausted(user.OTPAttempts) {
		if err := s.store.BlockUser(ctx, user.ID); err != nil {
			return err
		}
		return ErrTooManyOTPRequests
	}

	code, err := utils.GenerateSecureOTP()
	if err != nil {
		return fmt.Errorf("failed to generate OTP: %w", err)
	}

	otp := &models.UserOTP{
		UserID:    user.ID,
		Code:      code,
		ExpiresAt: time.Now().Add(otpValidity),
	}
	if _, err := s.store.CreateOTP(ctx, otp); err != nil {
		return err
	}

	if _, err := s.store.IncrementOTPAttempts(ctx, user.ID); err != nil {
		return err
	}

	// The OTP row stays verifiable even when delivery fails; rolling it
	// back here would desync the attempt counter.
	if err := s.notifier.SendOTP(ctx, user, code); err != nil {
		log.Printf("Failed to deliver OTP to user %d: %v", user.ID, err)
		return ErrNotificationFailed
	}
	return nil
}

// VerifyOTP checks the submitted code for the user identified by
// username (email or phone). On success it resets the lockout counters,
// consumes the matched code and returns a fresh bearer token.
func (s *AuthService) VerifyOTP(ctx context.Context, username, code string) (string, error) {
	user, err := s.store.FindUserByEmailOrPhone(ctx, username, username)
	if errors.Is(err, storage.ErrNotFound) {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", err
	}

	if user.IsBlocked {
		return "", ErrUserBlocked
	}

	otp, err := s.store.GetActiveOTP(ctx, user.ID, code)
	if errors.Is(err, storage.ErrNotFound) {
		failures, ferr := s.store.IncrementFailedLogins(ctx, user.ID)
		if ferr != nil {
			return "", ferr
		}
		if failedLoginsExhausted(failures) {
			if berr := s.store.BlockUser(ctx, user.ID); berr != nil {
				return "", berr
			}
		}
		return "", ErrInvalidOTP
	}
	if err != nil {
		return "", err
	}

	if err := s.store.ResetLoginCounters(ctx, user.ID); err != nil {
		return "", err
	}

	token, err := s.tokens.Issue(ctx, user.ID)
	if err != nil {
		return "", err
	}

	if err := s.store.DeleteOTP(ctx, otp.UserID, otp.Code); err != nil {
		return "", err
	}
	return token, nil
}
