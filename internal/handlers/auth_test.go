package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/astroveda/astro-backend/internal/models"
	"github.com/astroveda/astro-backend/internal/routes"
	"github.com/astroveda/astro-backend/internal/services"
	"github.com/astroveda/astro-backend/internal/storage"
)

type captureNotifier struct {
	codes []string
}

func (n *captureNotifier) SendOTP(ctx context.Context, user *models.User, code string) error {
	n.codes = append(n.codes, code)
	return nil
}

func newTestApp(t *testing.T) (*fiber.App, *captureNotifier) {
	t.Helper()
	store := storage.NewMemoryStore()
	notifier := &captureNotifier{}
	tokens := services.NewTokenService(store, "test-secret")
	auth := services.NewAuthService(store, tokens, notifier)

	app := fiber.New()
	routes.SetupRoutes(app, store, auth, tokens, notifier)
	return app, notifier
}

func postJSON(t *testing.T, app *fiber.App, path string, body interface{}, headers map[string]string) (*http.Response, map[string]interface{}) {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp, decodeBody(t, resp)
}

func getJSON(t *testing.T, app *fiber.App, path string, headers map[string]string) (*http.Response, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp, decodeBody(t, resp)
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]interface{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &body))
	}
	return body
}

func TestSignInFlowEndToEnd(t *testing.T) {
	app, notifier := newTestApp(t)

	// Request a code.
	resp, body := postJSON(t, app, "/auth/signin", map[string]string{"email": "a@x.com"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "OTP has been sent to your email/phone.", body["message"])
	require.Len(t, notifier.codes, 1)

	// The code is never echoed in the response.
	_, hasOTP := body["otp"]
	require.False(t, hasOTP)

	// Submit it.
	resp, body = postJSON(t, app, "/auth/submit-otp", map[string]string{
		"username": "a@x.com",
		"otp":      notifier.codes[0],
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token, _ := body["accessToken"].(string)
	require.NotEmpty(t, token)

	// Replay of the consumed code fails.
	resp, _ = postJSON(t, app, "/auth/submit-otp", map[string]string{
		"username": "a@x.com",
		"otp":      notifier.codes[0],
	}, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// The token opens protected routes.
	authHeaders := map[string]string{"accesstoken": token}
	resp, _ = postJSON(t, app, "/api/profile", map[string]string{
		"name":           "Asha",
		"date_of_birth":  "1990-01-01",
		"place_of_birth": "Chennai",
	}, authHeaders)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = getJSON(t, app, "/api/profile", authHeaders)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "Asha", body["name"])

	// Signing out revokes the token.
	resp, _ = postJSON(t, app, "/auth/signout", nil, authHeaders)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = getJSON(t, app, "/api/profile", authHeaders)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSignInRequiresASelector(t *testing.T) {
	app, _ := newTestApp(t)

	resp, _ := postJSON(t, app, "/auth/signin", map[string]string{}, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = postJSON(t, app, "/auth/signin", map[string]string{"email": "not-an-email"}, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSubmitOTPStatusMapping(t *testing.T) {
	app, notifier := newTestApp(t)

	// Unknown user.
	resp, _ := postJSON(t, app, "/auth/submit-otp", map[string]string{
		"username": "nobody@x.com",
		"otp":      "123456",
	}, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Malformed code shape.
	resp, _ = postJSON(t, app, "/auth/submit-otp", map[string]string{
		"username": "a@x.com",
		"otp":      "12",
	}, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Wrong code after a real sign-in.
	resp, _ = postJSON(t, app, "/auth/signin", map[string]string{"email": "a@x.com"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	wrong := "000000"
	if notifier.codes[0] == wrong {
		wrong = "000001"
	}
	resp, _ = postJSON(t, app, "/auth/submit-otp", map[string]string{
		"username": "a@x.com",
		"otp":      wrong,
	}, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSignInBlockedAfterTooManyRequests(t *testing.T) {
	app, _ := newTestApp(t)

	for i := 0; i < 5; i++ {
		resp, _ := postJSON(t, app, "/auth/signin", map[string]string{"email": "a@x.com"}, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, body := postJSON(t, app, "/auth/signin", map[string]string{"email": "a@x.com"}, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Equal(t, "User is blocked due to too many OTP requests.", body["message"])

	// Blocked users stay out of both endpoints.
	resp, body = postJSON(t, app, "/auth/signin", map[string]string{"email": "a@x.com"}, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Equal(t, "User is blocked due to too many failed attempts.", body["message"])

	resp, _ = postJSON(t, app, "/auth/submit-otp", map[string]string{
		"username": "a@x.com",
		"otp":      "123456",
	}, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestProtectedRoutesRejectMissingOrBogusTokens(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := getJSON(t, app, "/api/profile", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "No token provided!", body["message"])

	resp, body = getJSON(t, app, "/api/profile", map[string]string{"accesstoken": "bogus"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "Unauthorised User!", body["message"])
}
