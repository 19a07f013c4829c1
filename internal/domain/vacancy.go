package domain

import "time"

const (
	CountryPoland  = "PL"
	CountryBelarus = "BY"
	CountryUkraine = "UA"
	CountryOther   = "OTHER"
)

const (
	CategoryBusiness     = "business"
	CategoryConstruction = "construction"
	CategoryAgriculture  = "agriculture"
	CategoryService      = "service"
	CategoryTourism      = "tourism"
)

const (
	EmploymentFull     = "full"
	EmploymentPart     = "part"
	EmploymentShift    = "shift"
	EmploymentContract = "contract"
)

const (
	SourceDirect = "direct"
	SourceAgency = "agency"
	SourceOther  = "other"
)

// Vacancy is the moderated listing entity. Contact fields are private and
// only revealed through the contact unlock flow.
type Vacancy struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	Title          string `gorm:"size:120;not null" json:"title"`
	Country        string `gorm:"size:10;index;not null" json:"country"`
	City           string `gorm:"size:80;index" json:"city"`
	Category       string `gorm:"size:30;index" json:"category"`
	EmploymentType string `gorm:"size:20;index" json:"employment_type"`
	Salary         string `gorm:"size:80" json:"salary"`
	Description    string `gorm:"size:3000" json:"description"`

	// Private contact channels, gated behind UnlockedContact.
	Phone    string `gorm:"size:30" json:"-"`
	Whatsapp string `gorm:"size:100" json:"-"`
	Viber    string `gorm:"size:100" json:"-"`
	Telegram string `gorm:"size:100" json:"-"`
	Email    string `gorm:"size:255" json:"-"`

	Source       string    `gorm:"size:20" json:"source"`
	CreatedByID  uint      `gorm:"index;not null" json:"created_by_id"`
	CreatorToken string    `gorm:"size:64;index" json:"-"`
	PhotoKey     string    `gorm:"size:255" json:"-"`
	PublishedAt  time.Time `json:"published_at"`
	ExpiresAt    time.Time `gorm:"index;not null" json:"expires_at"`

	IsApproved       bool       `gorm:"index;default:false" json:"is_approved"`
	IsRejected       bool       `gorm:"default:false" json:"is_rejected"`
	RejectionReason  string     `gorm:"size:500" json:"rejection_reason,omitempty"`
	IsEditing        bool       `gorm:"default:false" json:"is_editing"`
	EditingStartedAt *time.Time `json:"editing_started_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ContactDetails carries the private contact channels of a vacancy.
type ContactDetails struct {
	Phone    string `json:"phone,omitempty"`
	Whatsapp string `json:"whatsapp,omitempty"`
	Viber    string `json:"viber,omitempty"`
	Telegram string `json:"telegram,omitempty"`
	Email    string `json:"email,omitempty"`
}

func (v *Vacancy) Contacts() ContactDetails {
	return ContactDetails{
		Phone:    v.Phone,
		Whatsapp: v.Whatsapp,
		Viber:    v.Viber,
		Telegram: v.Telegram,
		Email:    v.Email,
	}
}

// IsActive reports whether the vacancy is publicly listable.
func (v *Vacancy) IsActive(now time.Time) bool {
	return v.IsApproved && v.ExpiresAt.After(now)
}
