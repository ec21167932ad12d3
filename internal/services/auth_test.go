package services_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/astroveda/astro-backend/internal/models"
	"github.com/astroveda/astro-backend/internal/services"
	"github.com/astroveda/astro-backend/internal/storage"
)

// recordingNotifier captures dispatched codes so tests can submit them.
type recordingNotifier struct {
	codes []string
	fail  bool
}

func (n *recordingNotifier) SendOTP(ctx context.Context, user *models.User, code string) error {
	n.codes = append(n.codes, code)
	if n.fail {
		return fmt.Errorf("delivery down")
	}
	return nil
}

func (n *recordingNotifier) lastCode() string {
	return n.codes[len(n.codes)-1]
}

func newTestAuth(t *testing.T) (*services.AuthService, *services.TokenService, *storage.MemoryStore, *recordingNotifier) {
	t.Helper()
	store := storage.NewMemoryStore()
	notifier := &recordingNotifier{}
	tokens := services.NewTokenService(store, "test-secret")
	auth := services.NewAuthService(store, tokens, notifier)
	return auth, tokens, store, notifier
}

func TestRequestOTPCreatesUserAndIncrementsAttempts(t *testing.T) {
	ctx := context.Background()
	auth, _, store, notifier := newTestAuth(t)

	require.NoError(t, auth.RequestOTP(ctx, "a@x.com", ""))
	require.Len(t, notifier.codes, 1)
	require.Len(t, notifier.lastCode(), 6)

	user, err := store.FindUserByEmailOrPhone(ctx, "a@x.com", "")
	require.NoError(t, err)
	require.Equal(t, 1, user.OTPAttempts)
	require.False(t, user.IsBlocked)

	// A second request adds a code without invalidating the first.
	require.NoError(t, auth.RequestOTP(ctx, "a@x.com", ""))
	user, err = store.FindUserByEmailOrPhone(ctx, "a@x.com", "")
	require.NoError(t, err)
	require.Equal(t, 2, user.OTPAttempts)
}

func TestRequestOTPRateLimitBlocksOnSixthRequest(t *testing.T) {
	ctx := context.Background()
	auth, _, store, _ := newTestAuth(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, auth.RequestOTP(ctx, "a@x.com", ""))
	}

	err := auth.RequestOTP(ctx, "a@x.com", "")
	require.ErrorIs(t, err, services.ErrTooManyOTPRequests)

	user, err := store.FindUserByEmailOrPhone(ctx, "a@x.com", "")
	require.NoError(t, err)
	require.True(t, user.IsBlocked)

	// Once blocked, both operations fail with the blocked signal.
	require.ErrorIs(t, auth.RequestOTP(ctx, "a@x.com", ""), services.ErrUserBlocked)
	_, err = auth.VerifyOTP(ctx, "a@x.com", "123456")
	require.ErrorIs(t, err, services.ErrUserBlocked)
}

func TestVerifyOTPHappyPath(t *testing.T) {
	ctx := context.Background()
	auth, tokens, store, notifier := newTestAuth(t)

	require.NoError(t, auth.RequestOTP(ctx, "a@x.com", ""))
	code := notifier.lastCode()

	token, err := auth.VerifyOTP(ctx, "a@x.com", code)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// Counters reset on success.
	user, err := store.FindUserByEmailOrPhone(ctx, "a@x.com", "")
	require.NoError(t, err)
	require.Zero(t, user.OTPAttempts)
	require.Zero(t, user.FailedLoginAttempts)

	// The issued token authorizes requests.
	userID, err := tokens.Verify(ctx, token)
	require.NoError(t, err)
	require.Equal(t, user.ID, userID)

	// The matched code is consumed; replaying it fails.
	_, err = auth.VerifyOTP(ctx, "a@x.com", code)
	require.ErrorIs(t, err, services.ErrInvalidOTP)
}

func TestVerifyOTPUnknownUser(t *testing.T) {
	ctx := context.Background()
	auth, _, _, _ := newTestAuth(t)

	_, err := auth.VerifyOTP(ctx, "nobody@x.com", "123456")
	require.ErrorIs(t, err, services.ErrUserNotFound)
}

func TestVerifyOTPWrongCodeCountsFailures(t *testing.T) {
	ctx := context.Background()
	auth, _, store, notifier := newTestAuth(t)

	require.NoError(t, auth.RequestOTP(ctx, "a@x.com", ""))
	code := notifier.lastCode()
	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	for i := 1; i <= 5; i++ {
		_, err := auth.VerifyOTP(ctx, "a@x.com", wrong)
		require.ErrorIs(t, err, services.ErrInvalidOTP, "attempt %d", i)
	}

	user, err := store.FindUserByEmailOrPhone(ctx, "a@x.com", "")
	require.NoError(t, err)
	require.Equal(t, 5, user.FailedLoginAttempts)
	require.True(t, user.IsBlocked)

	// The sixth attempt fails blocked even with the correct code.
	_, err = auth.VerifyOTP(ctx, "a@x.com", code)
	require.ErrorIs(t, err, services.ErrUserBlocked)
}

func TestVerifyOTPExpiredCode(t *testing.T) {
	ctx := context.Background()
	auth, _, store, _ := newTestAuth(t)

	user, err := store.CreateUser(ctx, &models.User{Email: ptr("a@x.com")})
	require.NoError(t, err)

	_, err = store.CreateOTP(ctx, &models.UserOTP{
		UserID:    user.ID,
		Code:      "424242",
		ExpiresAt: time.Now().Add(-time.Minute),
	})
	require.NoError(t, err)

	_, err = auth.VerifyOTP(ctx, "a@x.com", "424242")
	require.ErrorIs(t, err, services.ErrInvalidOTP)

	user, err = store.FindUserByEmailOrPhone(ctx, "a@x.com", "")
	require.NoError(t, err)
	require.Equal(t, 1, user.FailedLoginAttempts)
}

func TestVerifyOTPAnyCoexistingCodeIsAccepted(t *testing.T) {
	ctx := context.Background()
	auth, _, _, notifier := newTestAuth(t)

	require.NoError(t, auth.RequestOTP(ctx, "a@x.com", ""))
	first := notifier.codes[0]
	require.NoError(t, auth.RequestOTP(ctx, "a@x.com", ""))

	// The older unexpired code still verifies.
	token, err := auth.VerifyOTP(ctx, "a@x.com", first)
	require.NoError(t, err)
	require.NotEmpty(t, token)
}

func TestRequestOTPNotificationFailureKeepsCodeVerifiable(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	notifier := &recordingNotifier{fail: true}
	tokens := services.NewTokenService(store, "test-secret")
	auth := services.NewAuthService(store, tokens, notifier)

	err := auth.RequestOTP(ctx, "a@x.com", "")
	require.ErrorIs(t, err, services.ErrNotificationFailed)

	// The attempt still counted and the code still verifies.
	user, err := store.FindUserByEmailOrPhone(ctx, "a@x.com", "")
	require.NoError(t, err)
	require.Equal(t, 1, user.OTPAttempts)

	token, err := auth.VerifyOTP(ctx, "a@x.com", notifier.lastCode())
	require.NoError(t, err)
	require.NotEmpty(t, token)
}

func TestRequestOTPByPhone(t *testing.T) {
	ctx := context.Background()
	auth, _, store, notifier := newTestAuth(t)

	require.NoError(t, auth.RequestOTP(ctx, "", "+919876543210"))

	token, err := auth.VerifyOTP(ctx, "+919876543210", notifier.lastCode())
	require.NoError(t, err)
	require.NotEmpty(t, token)

	user, err := store.FindUserByEmailOrPhone(ctx, "", "+919876543210")
	require.NoError(t, err)
	require.Nil(t, user.Email)
}

func ptr(s string) *string { return &s }
