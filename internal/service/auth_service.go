package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Treosha1991/jobapp-backend-2026/internal/domain"
	"github.com/Treosha1991/jobapp-backend-2026/internal/observability"
	"github.com/Treosha1991/jobapp-backend-2026/internal/repository"
	"github.com/Treosha1991/jobapp-backend-2026/internal/security"
)

var (
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
)

type AuthResult struct {
	User        *domain.User `json:"user"`
	AccessToken string       `json:"access_token"`
	ExpiresAt   time.Time    `json:"expires_at"`
}

type AuthService struct {
	users     repository.UserRepository
	tokens    *security.JWTManager
	verifier  Verifier
	accessTTL time.Duration
	now       func() time.Time
}

func NewAuthService(users repository.UserRepository, tokens *security.JWTManager, verifier Verifier, accessTTL time.Duration) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		verifier:  verifier,
		accessTTL: accessTTL,
		now:       time.Now,
	}
}

// Register creates an account and signs the first access token.
func (s *AuthService) Register(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, &ValidationError{Fields: map[string]string{"email": "invalid email address"}}
	}
	if len(password) < 8 {
		return nil, ErrWeakPassword
	}

	if _, err := s.users.FindByEmail(email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("check existing email: %w", err)
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &domain.User{Email: email, PasswordHash: hash}
	if err := s.users.Create(user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	observability.RecordRepositoryOperation(ctx, "user", "register", "success")
	return s.issueToken(user)
}

// Login checks credentials and signs an access token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	user, err := s.users.FindByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !security.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	user.LastLoginAt = &now
	if err := s.users.Update(user); err != nil {
		return nil, fmt.Errorf("record login: %w", err)
	}
	return s.issueToken(user)
}

// StartPasswordReset sends a reset code to the account's email. An unknown
// address is reported as success so the endpoint cannot be used to probe for
// accounts.
func (s *AuthService) StartPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if _, err := s.users.FindByEmail(email); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil
		}
		return fmt.Errorf("load user: %w", err)
	}
	return s.verifier.Start(ctx, domain.ChannelEmail, email, domain.PurposeReset)
}

// ConfirmPasswordReset checks the emailed code and stores the new password.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, email, code, newPassword string) error {
	if len(newPassword) < 8 {
		return ErrWeakPassword
	}
	email = strings.TrimSpace(strings.ToLower(email))
	user, err := s.users.FindByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrCodeInvalid
		}
		return fmt.Errorf("load user: %w", err)
	}
	if err := s.verifier.Check(ctx, domain.ChannelEmail, email, domain.PurposeReset, code); err != nil {
		return err
	}
	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.users.SetPasswordHash(user.ID, hash)
}

// StartPhoneVerification sends a code to the phone the user wants to attach.
func (s *AuthService) StartPhoneVerification(ctx context.Context, userID uint, phone string) error {
	phone = strings.TrimSpace(phone)
	if !validPhone(phone) {
		return &ValidationError{Fields: map[string]string{"phone": "expected E.164 format"}}
	}
	if _, err := s.users.FindByID(userID); err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	return s.verifier.Start(ctx, domain.ChannelPhone, phone, domain.PurposeVerifyPhone)
}

// ConfirmPhoneVerification checks the texted code and binds the verified
// phone number to the account.
func (s *AuthService) ConfirmPhoneVerification(ctx context.Context, userID uint, phone, code string) error {
	phone = strings.TrimSpace(phone)
	if err := s.verifier.Check(ctx, domain.ChannelPhone, phone, domain.PurposeVerifyPhone, code); err != nil {
		return err
	}
	if err := s.users.SetPhoneVerified(userID, phone); err != nil {
		return fmt.Errorf("bind phone: %w", err)
	}
	observability.RecordVerificationEvent(ctx, "bind_phone", "success")
	return nil
}

func (s *AuthService) issueToken(user *domain.User) (*AuthResult, error) {
	token, err := s.tokens.SignAccessToken(user.ID, user.IsStaff, s.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	return &AuthResult{
		User:        user,
		AccessToken: token,
		ExpiresAt:   s.now().Add(s.accessTTL),
	}, nil
}

func validPhone(phone string) bool {
	if len(phone) < 8 || len(phone) > 16 || phone[0] != '+' {
		return false
	}
	for _, r := range phone[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
