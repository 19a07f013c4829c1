package domain

import "time"

// ContactUnlockToken is a short-lived single-use credential binding a viewer
// to one vacancy. Several outstanding tokens per pair are allowed; each dies
// on its own expiry or on redemption.
type ContactUnlockToken struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index:idx_unlock_token_pair;not null" json:"user_id"`
	VacancyID uint      `gorm:"index:idx_unlock_token_pair;not null" json:"vacancy_id"`
	Token     string    `gorm:"size:64;uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// UnlockedContact durably records that a viewer has unlocked a vacancy's
// contacts. One row per (user, vacancy), never expires.
type UnlockedContact struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_unlocked_contact_pair;not null" json:"user_id"`
	VacancyID uint      `gorm:"uniqueIndex:idx_unlocked_contact_pair;not null" json:"vacancy_id"`
	CreatedAt time.Time `json:"created_at"`
}
