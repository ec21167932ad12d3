package services

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/astroveda/astro-backend/internal/models"
	"github.com/astroveda/astro-backend/internal/storage"
)

// Login tokens are valid for 24 hours from issuance, with no renewal.
const tokenValidity = 24 * time.Hour

// TokenService issues and validates login tokens. A token is an HS256
// JWT, but the stored row is the source of truth for authorization: a
// token authorizes a request only while its exact value exists in the
// store and is unexpired, so deleting the row revokes it immediately.
type TokenService struct {
	store  storage.Store
	secret []byte
}

// NewTokenService creates a token service signing with the given secret.
func NewTokenService(store storage.Store, secret string) *TokenService {
	return &TokenService{
		store:  store,
		secret: []byte(secret),
	}
}

// Issue generates a bearer token bound to the user and persists the
// mirroring login-token row. Multiple live tokens per user are allowed.
func (s *TokenService) Issue(ctx context.Context, userID uint) (string, error) {
	now := time.Now()
	expiresAt := now.Add(tokenValidity)

	claims := jwt.MapClaims{
		"id":  userID,
		"jti": uuid.NewString(),
		"iat": now.Unix(),
		"exp": expiresAt.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", err
	}

	row := &models.LoginToken{
		UserID:    userID,
		Token:     signed,
		ExpiresAt: expiresAt,
	}
	if _, err := s.store.CreateLoginToken(ctx, row); err != nil {
		return "", err
	}
	return signed, nil
}

// Verify resolves a bearer token to its owning user id. Absent, expired
// and revoked tokens all fail with ErrInvalidToken; downstream treats
// them the same.
func (s *TokenService) Verify(ctx context.Context, token string) (uint, error) {
	if token == "" {
		return 0, ErrInvalidToken
	}
	row, err := s.store.GetActiveLoginToken(ctx, token)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, ErrInvalidToken
	}
	if err != nil {
		return 0, err
	}
	return row.UserID, nil
}

// Revoke deletes the token row so later Verify calls fail.
func (s *TokenService) Revoke(ctx context.Context, token string) error {
	return s.store.DeleteLoginToken(ctx, token)
}
