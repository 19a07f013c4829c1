package domain

import "time"

type User struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Email         string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash  string     `gorm:"size:255;not null" json:"-"`
	IsStaff       bool       `gorm:"default:false" json:"is_staff"`
	Phone         string     `gorm:"size:30;index" json:"phone,omitempty"`
	PhoneVerified bool       `gorm:"default:false" json:"phone_verified"`
	EmailVerified bool       `gorm:"default:false" json:"email_verified"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
