package storage

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/astroveda/astro-backend/internal/models"
)

// DatabaseStore is the PostgreSQL-backed store.
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore creates a store backed by the given gorm connection.
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

func (s *DatabaseStore) FindUserByEmailOrPhone(ctx context.Context, email, phone string) (*models.User, error) {
	q := s.db.WithContext(ctx)
	switch {
	case email != "" && phone != "":
		q = q.Where("email = ? OR phone = ?", email, phone)
	case email != "":
		q = q.Where("email = ?", email)
	case phone != "":
		q = q.Where("phone = ?", phone)
	default:
		return nil, ErrNotFound
	}

	var user models.User
	if err := q.First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *DatabaseStore) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (s *DatabaseStore) BlockUser(ctx context.Context, userID uint) error {
	return s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("is_blocked", true).Error
}

// incrementCounter bumps the named counter under a row lock so that
// concurrent attempts never under-count.
func (s *DatabaseStore) incrementCounter(ctx context.Context, userID uint, column string) (int, error) {
	var value int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if err := tx.Model(&user).
			UpdateColumn(column, gorm.Expr(column+" + 1")).Error; err != nil {
			return err
		}
		switch column {
		case "otp_attempts":
			value = user.OTPAttempts + 1
		case "failed_login_attempts":
			value = user.FailedLoginAttempts + 1
		}
		return nil
	})
	return value, err
}

func (s *DatabaseStore) IncrementOTPAttempts(ctx context.Context, userID uint) (int, error) {
	return s.incrementCounter(ctx, userID, "otp_attempts")
}

func (s *DatabaseStore) IncrementFailedLogins(ctx context.Context, userID uint) (int, error) {
	return s.incrementCounter(ctx, userID, "failed_login_attempts")
}

func (s *DatabaseStore) ResetLoginCounters(ctx context.Context, userID uint) error {
	return s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumns(map[string]interface{}{
			"failed_login_attempts": 0,
			"otp_attempts":          0,
		}).Error
}

func (s *DatabaseStore) CreateOTP(ctx context.Context, otp *models.UserOTP) (*models.UserOTP, error) {
	if err := s.db.WithContext(ctx).Create(otp).Error; err != nil {
		return nil, err
	}
	return otp, nil
}

func (s *DatabaseStore) GetActiveOTP(ctx context.Context, userID uint, code string) (*models.UserOTP, error) {
	var otp models.UserOTP
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND code = ? AND expires_at > ?", userID, code, time.Now()).
		First(&otp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &otp, nil
}

func (s *DatabaseStore) DeleteOTP(ctx context.Context, userID uint, code string) error {
	return s.db.WithContext(ctx).
		Where("user_id = ? AND code = ?", userID, code).
		Delete(&models.UserOTP{}).Error
}

func (s *DatabaseStore) DeleteExpiredOTPs(ctx context.Context) error {
	return s.db.WithContext(ctx).
		Where("expires_at <= ?", time.Now()).
		Delete(&models.UserOTP{}).Error
}

func (s *DatabaseStore) CreateLoginToken(ctx context.Context, token *models.LoginToken) (*models.LoginToken, error) {
	if err := s.db.WithContext(ctx).Create(token).Error; err != nil {
		return nil, err
	}
	return token, nil
}

func (s *DatabaseStore) GetActiveLoginToken(ctx context.Context, token string) (*models.LoginToken, error) {
	var row models.LoginToken
	err := s.db.WithContext(ctx).
		Where("token = ? AND expires_at > ?", token, time.Now()).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &row, nil
}

func (s *DatabaseStore) DeleteLoginToken(ctx context.Context, token string) error {
	return s.db.WithContext(ctx).
		Where("token = ?", token).
		Delete(&models.LoginToken{}).Error
}

func (s *DatabaseStore) DeleteExpiredLoginTokens(ctx context.Context) error {
	return s.db.WithContext(ctx).
		Where("expires_at <= ?", time.Now()).
		Delete(&models.LoginToken{}).Error
}

func (s *DatabaseStore) GetProfile(ctx context.Context, userID uint) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &profile, nil
}

func (s *DatabaseStore) SaveProfile(ctx context.Context, profile *models.UserProfile) (*models.UserProfile, error) {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "date_of_birth", "time_of_birth",
				"place_of_birth", "gender", "profile_image", "updated_at",
			}),
		}).
		Create(profile).Error
	if err != nil {
		return nil, err
	}
	return profile, nil
}
