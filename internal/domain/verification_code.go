package domain

import "time"

const (
	ChannelEmail = "email"
	ChannelPhone = "phone"
)

const (
	PurposeRegister    = "register"
	PurposeReset       = "reset"
	PurposeLogin       = "login"
	PurposeVerifyPhone = "verify_phone"
	PurposeLinkEmail   = "link_email"
)

// VerificationPurposes lists every purpose a code may be issued for.
var VerificationPurposes = map[string]bool{
	PurposeRegister:    true,
	PurposeReset:       true,
	PurposeLogin:       true,
	PurposeVerifyPhone: true,
	PurposeLinkEmail:   true,
}

// MaxCodeAttempts caps failed checks of a phone code before it dies.
const MaxCodeAttempts = 5

// VerificationCode is a one-time numeric code proving control of an email
// address or phone number for one purpose. At most one unused, unexpired
// code exists per (subject, purpose); issuing a new one marks the rest used.
type VerificationCode struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Channel string `gorm:"size:10;not null" json:"channel"`
	// Subject is the normalized email address or phone number the code was
	// issued to.
	Subject   string     `gorm:"size:255;index:idx_verification_subject_purpose;not null" json:"subject"`
	Purpose   string     `gorm:"size:32;index:idx_verification_subject_purpose;not null" json:"purpose"`
	Code      string     `gorm:"size:12;not null" json:"-"`
	ExpiresAt time.Time  `gorm:"index;not null" json:"expires_at"`
	Used      bool       `gorm:"default:false" json:"used"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	Attempts  int        `gorm:"default:0" json:"attempts"`
	CreatedAt time.Time  `json:"created_at"`
}

// Valid reports whether the code can still be redeemed.
func (c *VerificationCode) Valid(now time.Time) bool {
	if c.Used || !c.ExpiresAt.After(now) {
		return false
	}
	if c.Channel == ChannelPhone && c.Attempts >= MaxCodeAttempts {
		return false
	}
	return true
}
