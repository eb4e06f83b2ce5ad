package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	// ErrDuplicateEmail indicates a signup against an already-registered email.
	ErrDuplicateEmail = errors.New("accounts: email already registered")
	// ErrLoginInvalid covers both unknown email and mismatched password so the
	// response never reveals which field was wrong.
	ErrLoginInvalid = errors.New("accounts: invalid email or password")
	// ErrMissingFields indicates a request without both email and password.
	ErrMissingFields = errors.New("accounts: email and password are required")

	errMissingDatabase   = errors.New("database handle is required")
	errMissingIDProvider = errors.New("id provider is required")
	noOpLogger           = zap.NewNop()
)

// IDProvider issues unique identifiers for new accounts.
type IDProvider interface {
	NewID() (string, error)
}

// ServiceConfig describes the dependencies of the accounts service.
type ServiceConfig struct {
	Database   *gorm.DB
	Clock      func() time.Time
	IDProvider IDProvider
	Logger     *zap.Logger
}

// Service registers and authenticates writers.
type Service struct {
	db         *gorm.DB
	clock      func() time.Time
	idProvider IDProvider
	logger     *zap.Logger
}

// NewService validates the configuration and returns an accounts service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("accounts.service.new: %w", errMissingDatabase)
	}
	if cfg.IDProvider == nil {
		return nil, fmt.Errorf("accounts.service.new: %w", errMissingIDProvider)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	return &Service{db: cfg.Database, clock: clock, idProvider: cfg.IDProvider, logger: logger}, nil
}

// Signup registers a new account. The email comparison is case-insensitive and
// a duplicate creates no record.
func (s *Service) Signup(ctx context.Context, email, password string) (User, error) {
	normalized, err := normalizeCredentials(email, password)
	if err != nil {
		return User{}, err
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&Account{}).
		Where("email = ?", normalized).
		Count(&count).Error; err != nil {
		s.logger.Error("accounts signup lookup failed", zap.Error(err))
		return User{}, fmt.Errorf("accounts.signup.lookup_failed: %w", err)
	}
	if count > 0 {
		return User{}, ErrDuplicateEmail
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("accounts password hash failed", zap.Error(err))
		return User{}, fmt.Errorf("accounts.signup.hash_failed: %w", err)
	}

	accountID, err := s.idProvider.NewID()
	if err != nil {
		return User{}, fmt.Errorf("accounts.signup.id_generation_failed: %w", err)
	}

	account := Account{
		ID:           accountID,
		Email:        normalized,
		PasswordHash: string(hash),
		LastLoginAt:  s.clock().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&account).Error; err != nil {
		s.logger.Error("accounts signup insert failed", zap.Error(err))
		return User{}, fmt.Errorf("accounts.signup.insert_failed: %w", err)
	}

	return User{ID: account.ID, Email: account.Email}, nil
}

// Login authenticates an existing account. Unknown email and wrong password
// yield the same ErrLoginInvalid.
func (s *Service) Login(ctx context.Context, email, password string) (User, error) {
	normalized, err := normalizeCredentials(email, password)
	if err != nil {
		return User{}, err
	}

	var account Account
	err = s.db.WithContext(ctx).Where("email = ?", normalized).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, ErrLoginInvalid
	}
	if err != nil {
		s.logger.Error("accounts login lookup failed", zap.Error(err))
		return User{}, fmt.Errorf("accounts.login.lookup_failed: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return User{}, ErrLoginInvalid
	}

	now := s.clock().UTC()
	if err := s.db.WithContext(ctx).Model(&account).Update("last_login_at", now).Error; err != nil {
		// A failed bookkeeping update must not block the login itself.
		s.logger.Warn("accounts last login update failed", zap.Error(err))
	}

	return User{ID: account.ID, Email: account.Email}, nil
}

func normalizeCredentials(email, password string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" || password == "" {
		return "", ErrMissingFields
	}
	return normalized, nil
}
