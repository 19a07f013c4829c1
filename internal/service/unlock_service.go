package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Treosha1991/jobapp-backend-2026/internal/domain"
	"github.com/Treosha1991/jobapp-backend-2026/internal/observability"
	"github.com/Treosha1991/jobapp-backend-2026/internal/repository"
	"github.com/Treosha1991/jobapp-backend-2026/internal/security"
)

// ErrContactsLocked means the caller has not unlocked this vacancy's
// contacts yet.
var ErrContactsLocked = errors.New("contacts are locked for this user")

// UnlockGrant is the outcome of a RequestUnlock call. When AlreadyUnlocked
// is set the contacts were granted earlier and no token is issued.
type UnlockGrant struct {
	AlreadyUnlocked bool      `json:"already_unlocked"`
	Token           string    `json:"token,omitempty"`
	ExpiresAt       time.Time `json:"expires_at,omitzero"`
}

type UnlockService struct {
	unlocks   repository.UnlockRepository
	vacancies repository.VacancyRepository
	tokenTTL  time.Duration
	now       func() time.Time
}

func NewUnlockService(unlocks repository.UnlockRepository, vacancies repository.VacancyRepository, tokenTTL time.Duration) *UnlockService {
	return &UnlockService{
		unlocks:   unlocks,
		vacancies: vacancies,
		tokenTTL:  tokenTTL,
		now:       time.Now,
	}
}

// RequestUnlock issues a short-lived single-use token the caller confirms to
// reveal the contacts. When the pair is already unlocked no token is minted.
func (s *UnlockService) RequestUnlock(ctx context.Context, userID, vacancyID uint) (*UnlockGrant, error) {
	now := s.now()
	if _, err := s.vacancies.FindActiveByID(vacancyID, now); err != nil {
		return nil, err
	}

	unlocked, err := s.unlocks.IsUnlocked(userID, vacancyID)
	if err != nil {
		return nil, fmt.Errorf("check unlock state: %w", err)
	}
	if unlocked {
		observability.RecordUnlockEvent(ctx, "request", "already_unlocked")
		return &UnlockGrant{AlreadyUnlocked: true}, nil
	}

	raw, err := security.RandomToken(24)
	if err != nil {
		return nil, fmt.Errorf("generate unlock token: %w", err)
	}
	token := &domain.ContactUnlockToken{
		UserID:    userID,
		VacancyID: vacancyID,
		Token:     raw,
		ExpiresAt: now.Add(s.tokenTTL),
	}
	if err := s.unlocks.CreateToken(token); err != nil {
		return nil, fmt.Errorf("store unlock token: %w", err)
	}

	observability.RecordUnlockEvent(ctx, "request", "issued")
	return &UnlockGrant{Token: raw, ExpiresAt: token.ExpiresAt}, nil
}

// ConfirmUnlock redeems a token from RequestUnlock. Redemption is atomic:
// the token dies in the same transaction that records the durable unlock,
// so replaying a confirm cannot grant twice.
func (s *UnlockService) ConfirmUnlock(ctx context.Context, userID, vacancyID uint, token string) (domain.ContactDetails, error) {
	now := s.now()
	if err := s.unlocks.Redeem(userID, vacancyID, token, now); err != nil {
		observability.RecordUnlockEvent(ctx, "confirm", "failure")
		return domain.ContactDetails{}, err
	}
	observability.RecordUnlockEvent(ctx, "confirm", "success")
	return s.contactsFor(vacancyID)
}

// DirectUnlock grants the contacts without a token round trip. Kept for
// clients that still post straight to the unlock endpoint; repeated calls
// are no-ops.
func (s *UnlockService) DirectUnlock(ctx context.Context, userID, vacancyID uint) (domain.ContactDetails, error) {
	now := s.now()
	if _, err := s.vacancies.FindActiveByID(vacancyID, now); err != nil {
		return domain.ContactDetails{}, err
	}
	if err := s.unlocks.EnsureUnlocked(userID, vacancyID); err != nil {
		return domain.ContactDetails{}, fmt.Errorf("record unlock: %w", err)
	}
	observability.RecordUnlockEvent(ctx, "direct", "success")
	return s.contactsFor(vacancyID)
}

// Contacts returns the private contact channels, or ErrContactsLocked when
// the caller never unlocked this vacancy.
func (s *UnlockService) Contacts(ctx context.Context, userID, vacancyID uint) (domain.ContactDetails, error) {
	unlocked, err := s.unlocks.IsUnlocked(userID, vacancyID)
	if err != nil {
		return domain.ContactDetails{}, fmt.Errorf("check unlock state: %w", err)
	}
	if !unlocked {
		observability.RecordUnlockEvent(ctx, "read", "locked")
		return domain.ContactDetails{}, ErrContactsLocked
	}
	return s.contactsFor(vacancyID)
}

// PurgeExpiredTokens drops outstanding tokens past their deadline. Run
// periodically; redeemed tokens are already gone.
func (s *UnlockService) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	return s.unlocks.DeleteExpiredTokens(s.now())
}

// contactsFor loads the vacancy without the active filter: a granted
// unlock keeps working after the listing expires or is hidden.
func (s *UnlockService) contactsFor(vacancyID uint) (domain.ContactDetails, error) {
	v, err := s.vacancies.FindByID(vacancyID)
	if err != nil {
		return domain.ContactDetails{}, err
	}
	return v.Contacts(), nil
}
