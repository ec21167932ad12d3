package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/astroveda/astro-backend/internal/models"
)

// MemoryStore holds all data in memory for tests and local development.
type MemoryStore struct {
	users    map[uint]*models.User
	emailIdx map[string]uint
	phoneIdx map[string]uint
	otps     map[uint]*models.UserOTP
	tokens   map[string]*models.LoginToken
	profiles map[uint]*models.UserProfile

	// Mutexes for thread safety
	userMu    sync.RWMutex
	otpMu     sync.RWMutex
	tokenMu   sync.RWMutex
	profileMu sync.RWMutex

	// Counters for ID generation
	userCounter    uint
	otpCounter     uint
	tokenCounter   uint
	profileCounter uint
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[uint]*models.User),
		emailIdx: make(map[string]uint),
		phoneIdx: make(map[string]uint),
		otps:     make(map[uint]*models.UserOTP),
		tokens:   make(map[string]*models.LoginToken),
		profiles: make(map[uint]*models.UserProfile),
	}
}

func copyUser(u *models.User) *models.User {
	cp := *u
	return &cp
}

func (m *MemoryStore) FindUserByEmailOrPhone(ctx context.Context, email, phone string) (*models.User, error) {
	m.userMu.RLock()
	defer m.userMu.RUnlock()

	if email != "" {
		if id, ok := m.emailIdx[email]; ok {
			return copyUser(m.users[id]), nil
		}
	}
	if phone != "" {
		if id, ok := m.phoneIdx[phone]; ok {
			return copyUser(m.users[id]), nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	m.userMu.Lock()
	defer m.userMu.Unlock()

	if user.Email != nil && *user.Email != "" {
		if _, exists := m.emailIdx[*user.Email]; exists {
			return nil, fmt.Errorf("email already registered")
		}
	}
	if user.Phone != nil && *user.Phone != "" {
		if _, exists := m.phoneIdx[*user.Phone]; exists {
			return nil, fmt.Errorf("phone already registered")
		}
	}

	m.userCounter++
	user.ID = m.userCounter
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()

	m.users[user.ID] = copyUser(user)
	if user.Email != nil && *user.Email != "" {
		m.emailIdx[*user.Email] = user.ID
	}
	if user.Phone != nil && *user.Phone != "" {
		m.phoneIdx[*user.Phone] = user.ID
	}
	return copyUser(user), nil
}

func (m *MemoryStore) BlockUser(ctx context.Context, userID uint) error {
	m.userMu.Lock()
	defer m.userMu.Unlock()

	user, exists := m.users[userID]
	if !exists {
		return ErrNotFound
	}
	user.IsBlocked = true
	user.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStore) IncrementOTPAttempts(ctx context.Context, userID uint) (int, error) {
	m.userMu.Lock()
	defer m.userMu.Unlock()

	user, exists := m.users[userID]
	if !exists {
		return 0, ErrNotFound
	}
	user.OTPAttempts++
	user.UpdatedAt = time.Now()
	return user.OTPAttempts, nil
}

func (m *MemoryStore) IncrementFailedLogins(ctx context.Context, userID uint) (int, error) {
	m.userMu.Lock()
	defer m.userMu.Unlock()

	user, exists := m.users[userID]
	if !exists {
		return 0, ErrNotFound
	}
	user.FailedLoginAttempts++
	user.UpdatedAt = time.Now()
	return user.FailedLoginAttempts, nil
}

func (m *MemoryStore) ResetLoginCounters(ctx context.Context, userID uint) error {
	m.userMu.Lock()
	defer m.userMu.Unlock()

	user, exists := m.users[userID]
	if !exists {
		return ErrNotFound
	}
	user.FailedLoginAttempts = 0
	user.OTPAttempts = 0
	user.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStore) CreateOTP(ctx context.Context, otp *models.UserOTP) (*models.UserOTP, error) {
	m.otpMu.Lock()
	defer m.otpMu.Unlock()

	m.otpCounter++
	otp.ID = m.otpCounter
	otp.CreatedAt = time.Now()
	otp.UpdatedAt = time.Now()

	cp := *otp
	m.otps[otp.ID] = &cp
	return otp, nil
}

func (m *MemoryStore) GetActiveOTP(ctx context.Context, userID uint, code string) (*models.UserOTP, error) {
	m.otpMu.RLock()
	defer m.otpMu.RUnlock()

	for _, otp := range m.otps {
		if otp.UserID == userID && otp.Code == code && time.Now().Before(otp.ExpiresAt) {
			cp := *otp
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) DeleteOTP(ctx context.Context, userID uint, code string) error {
	m.otpMu.Lock()
	defer m.otpMu.Unlock()

	for id, otp := range m.otps {
		if otp.UserID == userID && otp.Code == code {
			delete(m.otps, id)
		}
	}
	return nil
}

func (m *MemoryStore) DeleteExpiredOTPs(ctx context.Context) error {
	m.otpMu.Lock()
	defer m.otpMu.Unlock()

	for id, otp := range m.otps {
		if !time.Now().Before(otp.ExpiresAt) {
			delete(m.otps, id)
		}
	}
	return nil
}

func (m *MemoryStore) CreateLoginToken(ctx context.Context, token *models.LoginToken) (*models.LoginToken, error) {
	m.tokenMu.Lock()
	defer m.tokenMu.Unlock()

	m.tokenCounter++
	token.ID = m.tokenCounter
	token.CreatedAt = time.Now()
	token.UpdatedAt = time.Now()

	cp := *token
	m.tokens[token.Token] = &cp
	return token, nil
}

func (m *MemoryStore) GetActiveLoginToken(ctx context.Context, token string) (*models.LoginToken, error) {
	m.tokenMu.RLock()
	defer m.tokenMu.RUnlock()

	row, exists := m.tokens[token]
	if !exists || !time.Now().Before(row.ExpiresAt) {
		return nil, ErrNotFound
	}
	cp := *row
	return &cp, nil
}

func (m *MemoryStore) DeleteLoginToken(ctx context.Context, token string) error {
	m.tokenMu.Lock()
	defer m.tokenMu.Unlock()

	delete(m.tokens, token)
	return nil
}

func (m *MemoryStore) DeleteExpiredLoginTokens(ctx context.Context) error {
	m.tokenMu.Lock()
	defer m.tokenMu.Unlock()

	for value, token := range m.tokens {
		if !time.Now().Before(token.ExpiresAt) {
			delete(m.tokens, value)
		}
	}
	return nil
}

func (m *MemoryStore) GetProfile(ctx context.Context, userID uint) (*models.UserProfile, error) {
	m.profileMu.RLock()
	defer m.profileMu.RUnlock()

	for _, profile := range m.profiles {
		if profile.UserID == userID {
			cp := *profile
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) SaveProfile(ctx context.Context, profile *models.UserProfile) (*models.UserProfile, error) {
	m.profileMu.Lock()
	defer m.profileMu.Unlock()

	for id, existing := range m.profiles {
		if existing.UserID == profile.UserID {
			profile.ID = id
			profile.CreatedAt = existing.CreatedAt
			profile.UpdatedAt = time.Now()
			cp := *profile
			m.profiles[id] = &cp
			return profile, nil
		}
	}

	m.profileCounter++
	profile.ID = m.profileCounter
	profile.CreatedAt = time.Now()
	profile.UpdatedAt = time.Now()
	cp := *profile
	m.profiles[profile.ID] = &cp
	return profile, nil
}
