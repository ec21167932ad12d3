package storage

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/astroveda/astro-backend/internal/models"
)

// RedisStore keeps the auth state in Redis. OTPs and login tokens are
// written with a TTL matching their expiry, so Redis itself enforces the
// validity window and the expired-row purges are no-ops. Counter updates
// use HIncrBy, which is atomic on the server.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a store on the given Redis address.
func NewRedisStore(addr, password string, db int) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisStore{client: client}
}

// NewRedisStoreWithClient wraps an existing client (used by tests).
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func userKey(id uint) string          { return fmt.Sprintf("user:%d", id) }
func emailIdxKey(email string) string { return "user:email:" + email }
func phoneIdxKey(phone string) string { return "user:phone:" + phone }
func otpKey(userID uint, code string) string {
	return fmt.Sprintf("otp:%d:%s", userID, code)
}
func tokenKey(token string) string  { return "token:" + token }
func profileKey(userID uint) string { return fmt.Sprintf("profile:%d", userID) }

func (r *RedisStore) loadUser(ctx context.Context, id uint) (*models.User, error) {
	data, err := r.client.HGetAll(ctx, userKey(id)).Result()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrNotFound
	}

	user := &models.User{}
	user.ID = id
	if email := data["email"]; email != "" {
		user.Email = &email
	}
	if phone := data["phone"]; phone != "" {
		user.Phone = &phone
	}
	user.FailedLoginAttempts, _ = strconv.Atoi(data["failed_login_attempts"])
	user.OTPAttempts, _ = strconv.Atoi(data["otp_attempts"])
	user.IsBlocked = data["is_blocked"] == "1"
	return user, nil
}

func (r *RedisStore) FindUserByEmailOrPhone(ctx context.Context, email, phone string) (*models.User, error) {
	lookups := []string{}
	if email != "" {
		lookups = append(lookups, emailIdxKey(email))
	}
	if phone != "" {
		lookups = append(lookups, phoneIdxKey(phone))
	}

	for _, key := range lookups {
		raw, err := r.client.Get(ctx, key).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, err
		}
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt user index %q: %w", key, err)
		}
		return r.loadUser(ctx, uint(id))
	}
	return nil, ErrNotFound
}

func (r *RedisStore) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	id, err := r.client.Incr(ctx, "user:seq").Result()
	if err != nil {
		return nil, err
	}
	user.ID = uint(id)

	fields := map[string]interface{}{
		"failed_login_attempts": user.FailedLoginAttempts,
		"otp_attempts":          user.OTPAttempts,
		"is_blocked":            boolField(user.IsBlocked),
	}

	// Index keys claimed so far; released on any later failure so a
	// half-created user never wedges its email or phone.
	var claimed []string
	release := func() {
		for _, key := range claimed {
			r.client.Del(ctx, key)
		}
	}

	if user.Email != nil && *user.Email != "" {
		key := emailIdxKey(*user.Email)
		ok, err := r.client.SetNX(ctx, key, id, 0).Result()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("email already registered")
		}
		claimed = append(claimed, key)
		fields["email"] = *user.Email
	}
	if user.Phone != nil && *user.Phone != "" {
		key := phoneIdxKey(*user.Phone)
		ok, err := r.client.SetNX(ctx, key, id, 0).Result()
		if err != nil {
			release()
			return nil, err
		}
		if !ok {
			release()
			return nil, fmt.Errorf("phone already registered")
		}
		claimed = append(claimed, key)
		fields["phone"] = *user.Phone
	}

	if err := r.client.HSet(ctx, userKey(user.ID), fields).Err(); err != nil {
		release()
		return nil, err
	}
	return user, nil
}

func boolField(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func (r *RedisStore) BlockUser(ctx context.Context, userID uint) error {
	return r.client.HSet(ctx, userKey(userID), "is_blocked", "1").Err()
}

func (r *RedisStore) IncrementOTPAttempts(ctx context.Context, userID uint) (int, error) {
	n, err := r.client.HIncrBy(ctx, userKey(userID), "otp_attempts", 1).Result()
	return int(n), err
}

func (r *RedisStore) IncrementFailedLogins(ctx context.Context, userID uint) (int, error) {
	n, err := r.client.HIncrBy(ctx, userKey(userID), "failed_login_attempts", 1).Result()
	return int(n), err
}

func (r *RedisStore) ResetLoginCounters(ctx context.Context, userID uint) error {
	return r.client.HSet(ctx, userKey(userID),
		"failed_login_attempts", 0,
		"otp_attempts", 0,
	).Err()
}

func (r *RedisStore) CreateOTP(ctx context.Context, otp *models.UserOTP) (*models.UserOTP, error) {
	ttl := time.Until(otp.ExpiresAt)
	if ttl <= 0 {
		return nil, fmt.Errorf("OTP expiry is in the past")
	}
	value := strconv.FormatInt(otp.ExpiresAt.Unix(), 10)
	if err := r.client.Set(ctx, otpKey(otp.UserID, otp.Code), value, ttl).Err(); err != nil {
		return nil, err
	}
	return otp, nil
}

func (r *RedisStore) GetActiveOTP(ctx context.Context, userID uint, code string) (*models.UserOTP, error) {
	raw, err := r.client.Get(ctx, otpKey(userID, code)).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	expiry, _ := strconv.ParseInt(raw, 10, 64)
	return &models.UserOTP{
		UserID:    userID,
		Code:      code,
		ExpiresAt: time.Unix(expiry, 0),
	}, nil
}

func (r *RedisStore) DeleteOTP(ctx context.Context, userID uint, code string) error {
	return r.client.Del(ctx, otpKey(userID, code)).Err()
}

// DeleteExpiredOTPs is a no-op: Redis drops OTP keys when their TTL lapses.
func (r *RedisStore) DeleteExpiredOTPs(ctx context.Context) error {
	return nil
}

func (r *RedisStore) CreateLoginToken(ctx context.Context, token *models.LoginToken) (*models.LoginToken, error) {
	ttl := time.Until(token.ExpiresAt)
	if ttl <= 0 {
		return nil, fmt.Errorf("token expiry is in the past")
	}
	// The value carries owner and expiry so the returned row mirrors
	// what the relational store hands back.
	value := fmt.Sprintf("%d:%d", token.UserID, token.ExpiresAt.Unix())
	if err := r.client.Set(ctx, tokenKey(token.Token), value, ttl).Err(); err != nil {
		return nil, err
	}
	return token, nil
}

func (r *RedisStore) GetActiveLoginToken(ctx context.Context, token string) (*models.LoginToken, error) {
	raw, err := r.client.Get(ctx, tokenKey(token)).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	idPart, expiryPart, found := strings.Cut(raw, ":")
	if !found {
		return nil, fmt.Errorf("corrupt token record %q", raw)
	}
	userID, err := strconv.ParseUint(idPart, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt token record: %w", err)
	}
	expiry, err := strconv.ParseInt(expiryPart, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt token record: %w", err)
	}
	return &models.LoginToken{
		UserID:    uint(userID),
		Token:     token,
		ExpiresAt: time.Unix(expiry, 0),
	}, nil
}

func (r *RedisStore) DeleteLoginToken(ctx context.Context, token string) error {
	return r.client.Del(ctx, tokenKey(token)).Err()
}

// DeleteExpiredLoginTokens is a no-op for the same reason as DeleteExpiredOTPs.
func (r *RedisStore) DeleteExpiredLoginTokens(ctx context.Context) error {
	return nil
}

func (r *RedisStore) GetProfile(ctx context.Context, userID uint) (*models.UserProfile, error) {
	data, err := r.client.HGetAll(ctx, profileKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrNotFound
	}
	return &models.UserProfile{
		UserID:       userID,
		Name:         data["name"],
		DateOfBirth:  data["date_of_birth"],
		TimeOfBirth:  data["time_of_birth"],
		PlaceOfBirth: data["place_of_birth"],
		Gender:       data["gender"],
		ProfileImage: data["profile_image"],
	}, nil
}

func (r *RedisStore) SaveProfile(ctx context.Context, profile *models.UserProfile) (*models.UserProfile, error) {
	err := r.client.HSet(ctx, profileKey(profile.UserID), map[string]interface{}{
		"name":           profile.Name,
		"date_of_birth":  profile.DateOfBirth,
		"time_of_birth":  profile.TimeOfBirth,
		"place_of_birth": profile.PlaceOfBirth,
		"gender":         profile.Gender,
		"profile_image":  profile.ProfileImage,
	}).Err()
	if err != nil {
		return nil, err
	}
	return profile, nil
}
