// Package auth implements registration, credential verification and the
// login-attempt lockout that guards it.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bankcore/internal/domain"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type UserStore interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
}

type Recorder interface {
	Record(ctx context.Context, action string, actorID *int64, details, origin string) error
}

type Service struct {
	store    UserStore
	tracker  Tracker
	recorder Recorder
	logger   *zap.Logger
}

func NewService(store UserStore, tracker Tracker, recorder Recorder, logger *zap.Logger) *Service {
	return &Service{store: store, tracker: tracker, recorder: recorder, logger: logger}
}

func (s *Service) Register(ctx context.Context, fullName, email, phone, password string) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user := &domain.User{
		FullName:     strings.TrimSpace(fullName),
		Email:        normalizeEmail(email),
		Phone:        phone,
		PasswordHash: string(hash),
		Role:         domain.RoleCustomer,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	if err := s.recorder.Record(ctx, domain.AuditRegisterSuccess, &user.ID, fmt.Sprintf("user_id=%d", user.ID), ""); err != nil {
		s.logger.Warn("registration audit write failed", zap.Int64("user_id", user.ID), zap.Error(err))
	}
	return user, nil
}

// Login verifies credentials under the lockout policy. The lockout key is
// the normalized email, falling back to the origin address when the email is
// empty. Disabled users fail the same way as bad credentials.
func (s *Service) Login(ctx context.Context, email, password, origin string) (*domain.User, error) {
	key := normalizeEmail(email)
	if key == "" {
		key = origin
	}

	if s.tracker.IsLockedOut(key) {
		// Lockout events are safety bookkeeping: failure to record one is
		// surfaced, not shrugged off.
		if err := s.recorder.Record(ctx, domain.AuditLoginLockout, nil, fmt.Sprintf("key=%s", key), origin); err != nil {
			return nil, err
		}
		return nil, domain.ErrLockedOut
	}

	user, err := s.store.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	if err != nil || !user.IsActive || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		count := s.tracker.RecordFailure(key)
		if recErr := s.recorder.Record(ctx, domain.AuditLoginFailure, nil, fmt.Sprintf("email=%s", email), origin); recErr != nil {
			s.logger.Warn("login failure audit write failed", zap.Error(recErr))
		}
		s.logger.Info("login failed", zap.String("key", key), zap.Int("recent_failures", count))
		return nil, domain.ErrInvalidCredentials
	}

	if err := s.recorder.Record(ctx, domain.AuditLoginSuccess, &user.ID, fmt.Sprintf("user_id=%d", user.ID), origin); err != nil {
		s.logger.Warn("login success audit write failed", zap.Int64("user_id", user.ID), zap.Error(err))
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
