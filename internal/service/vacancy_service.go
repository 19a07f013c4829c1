package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/Treosha1991/jobapp-backend-2026/internal/domain"
	"github.com/Treosha1991/jobapp-backend-2026/internal/observability"
	"github.com/Treosha1991/jobapp-backend-2026/internal/repository"
	"github.com/Treosha1991/jobapp-backend-2026/internal/security"
)

var (
	ErrPhoneNotVerified = errors.New("phone number is not verified")
	ErrNotVacancyOwner  = errors.New("caller does not own this vacancy")
	ErrVacancyInactive  = errors.New("vacancy is not active")
)

// ValidationError reports per-field input problems.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "invalid input: " + strings.Join(keys, ", ")
}

var (
	allowedCountries = map[string]bool{
		domain.CountryPoland:  true,
		domain.CountryBelarus: true,
		domain.CountryUkraine: true,
		domain.CountryOther:   true,
	}
	allowedCategories = map[string]bool{
		domain.CategoryBusiness:     true,
		domain.CategoryConstruction: true,
		domain.CategoryAgriculture:  true,
		domain.CategoryService:      true,
		domain.CategoryTourism:      true,
	}
	allowedEmployment = map[string]bool{
		domain.EmploymentFull:     true,
		domain.EmploymentPart:     true,
		domain.EmploymentShift:    true,
		domain.EmploymentContract: true,
	}
	allowedSources = map[string]bool{
		domain.SourceDirect: true,
		domain.SourceAgency: true,
		domain.SourceOther:  true,
	}
)

type VacancyInput struct {
	Title          string `json:"title"`
	Country        string `json:"country"`
	City           string `json:"city"`
	Category       string `json:"category"`
	EmploymentType string `json:"employment_type"`
	Salary         string `json:"salary"`
	Description    string `json:"description"`

	Phone    string `json:"phone"`
	Whatsapp string `json:"whatsapp"`
	Viber    string `json:"viber"`
	Telegram string `json:"telegram"`
	Email    string `json:"email"`
	Source   string `json:"source"`
}

func (in *VacancyInput) validate() error {
	fields := map[string]string{}
	if strings.TrimSpace(in.Title) == "" {
		fields["title"] = "required"
	}
	if !allowedCountries[in.Country] {
		fields["country"] = "unknown country"
	}
	if in.Category != "" && !allowedCategories[in.Category] {
		fields["category"] = "unknown category"
	}
	if in.EmploymentType != "" && !allowedEmployment[in.EmploymentType] {
		fields["employment_type"] = "unknown employment type"
	}
	if in.Source != "" && !allowedSources[in.Source] {
		fields["source"] = "unknown source"
	}
	if in.Phone == "" && in.Whatsapp == "" && in.Viber == "" && in.Telegram == "" && in.Email == "" {
		fields["contacts"] = "at least one contact channel is required"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// VacancyPatch is a partial owner edit: only fields present in the request
// body are validated and written, everything else keeps its stored value.
type VacancyPatch struct {
	Title          *string `json:"title"`
	Country        *string `json:"country"`
	City           *string `json:"city"`
	Category       *string `json:"category"`
	EmploymentType *string `json:"employment_type"`
	Salary         *string `json:"salary"`
	Description    *string `json:"description"`

	Phone    *string `json:"phone"`
	Whatsapp *string `json:"whatsapp"`
	Viber    *string `json:"viber"`
	Telegram *string `json:"telegram"`
	Email    *string `json:"email"`
	Source   *string `json:"source"`
}

func (p *VacancyPatch) validate() error {
	fields := map[string]string{}
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		fields["title"] = "required"
	}
	if p.Country != nil && !allowedCountries[*p.Country] {
		fields["country"] = "unknown country"
	}
	if p.Category != nil && *p.Category != "" && !allowedCategories[*p.Category] {
		fields["category"] = "unknown category"
	}
	if p.EmploymentType != nil && *p.EmploymentType != "" && !allowedEmployment[*p.EmploymentType] {
		fields["employment_type"] = "unknown employment type"
	}
	if p.Source != nil && *p.Source != "" && !allowedSources[*p.Source] {
		fields["source"] = "unknown source"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// content returns only the columns the client actually sent.
func (p *VacancyPatch) content() map[string]any {
	out := map[string]any{}
	set := func(column string, v *string, trim bool) {
		if v == nil {
			return
		}
		val := *v
		if trim {
			val = strings.TrimSpace(val)
		}
		out[column] = val
	}
	set("title", p.Title, true)
	set("country", p.Country, false)
	set("city", p.City, true)
	set("category", p.Category, false)
	set("employment_type", p.EmploymentType, false)
	set("salary", p.Salary, true)
	set("description", p.Description, true)
	set("phone", p.Phone, true)
	set("whatsapp", p.Whatsapp, true)
	set("viber", p.Viber, true)
	set("telegram", p.Telegram, true)
	set("email", p.Email, true)
	set("source", p.Source, false)
	return out
}

type VacancyServiceConfig struct {
	VacancyTTL             time.Duration
	PendingVisibilityDelay time.Duration
	FromEmail              string
}

type VacancyService struct {
	vacancies repository.VacancyRepository
	users     repository.UserRepository
	emails    EmailSender
	storage   StorageService
	cfg       VacancyServiceConfig
	now       func() time.Time
}

func NewVacancyService(
	vacancies repository.VacancyRepository,
	users repository.UserRepository,
	emails EmailSender,
	storage StorageService,
	cfg VacancyServiceConfig,
) *VacancyService {
	return &VacancyService{
		vacancies: vacancies,
		users:     users,
		emails:    emails,
		storage:   storage,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Create stores a new vacancy for user. Regular users must hold a verified
// phone number and start in the moderation queue; staff listings go live
// immediately.
func (s *VacancyService) Create(ctx context.Context, userID uint, in VacancyInput) (*domain.Vacancy, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(userID)
	if err != nil {
		return nil, fmt.Errorf("load creator: %w", err)
	}
	if !user.IsStaff && !user.PhoneVerified {
		return nil, ErrPhoneNotVerified
	}

	creatorToken, err := security.RandomToken(16)
	if err != nil {
		return nil, fmt.Errorf("generate creator token: %w", err)
	}

	now := s.now()
	v := &domain.Vacancy{
		Title:          strings.TrimSpace(in.Title),
		Country:        in.Country,
		City:           strings.TrimSpace(in.City),
		Category:       in.Category,
		EmploymentType: in.EmploymentType,
		Salary:         strings.TrimSpace(in.Salary),
		Description:    strings.TrimSpace(in.Description),
		Phone:          strings.TrimSpace(in.Phone),
		Whatsapp:       strings.TrimSpace(in.Whatsapp),
		Viber:          strings.TrimSpace(in.Viber),
		Telegram:       strings.TrimSpace(in.Telegram),
		Email:          strings.TrimSpace(in.Email),
		Source:         in.Source,
		CreatedByID:    userID,
		CreatorToken:   creatorToken,
		PublishedAt:    now,
		ExpiresAt:      now.Add(s.cfg.VacancyTTL),
		IsApproved:     user.IsStaff,
	}
	if err := s.vacancies.Create(v); err != nil {
		return nil, fmt.Errorf("create vacancy: %w", err)
	}

	observability.RecordModerationEvent(ctx, "create", "success")
	return v, nil
}

// PublicList returns approved, unexpired vacancies matching the filters.
func (s *VacancyService) PublicList(ctx context.Context, q repository.VacancyListQuery) (repository.PageResult[domain.Vacancy], error) {
	return s.vacancies.ListPublic(q, s.now())
}

// Detail returns one active vacancy. Contacts stay hidden; the unlock flow
// is the only way to read them.
func (s *VacancyService) Detail(ctx context.Context, id uint) (*domain.Vacancy, error) {
	v, err := s.vacancies.FindActiveByID(id, s.now())
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Mine lists the caller's own vacancies, pending and rejected first.
func (s *VacancyService) Mine(ctx context.Context, userID uint) ([]domain.Vacancy, error) {
	return s.vacancies.ListMine(userID)
}

// PendingQueue lists vacancies awaiting a moderation decision. Listings whose
// owner recently entered edit mode are held back until the edit session ages
// out.
func (s *VacancyService) PendingQueue(ctx context.Context) ([]domain.Vacancy, error) {
	return s.vacancies.ListPending(s.now(), s.cfg.PendingVisibilityDelay)
}

// Approve publishes a pending vacancy.
func (s *VacancyService) Approve(ctx context.Context, id uint) (*domain.Vacancy, error) {
	v, err := s.vacancies.ApplyModeration(id, domain.ActionApprove, "")
	if err != nil {
		observability.RecordModerationEvent(ctx, "approve", "failure")
		return nil, err
	}
	observability.RecordModerationEvent(ctx, "approve", "success")
	return v, nil
}

// Reject declines a pending vacancy and notifies the owner with the reason.
func (s *VacancyService) Reject(ctx context.Context, id uint, reason string) (*domain.Vacancy, error) {
	v, err := s.vacancies.ApplyModeration(id, domain.ActionReject, strings.TrimSpace(reason))
	if err != nil {
		observability.RecordModerationEvent(ctx, "reject", "failure")
		return nil, err
	}
	observability.RecordModerationEvent(ctx, "reject", "success")

	// Notification is best effort: the decision is already committed and a
	// broken mail provider must not undo it.
	if owner, uerr := s.users.FindByID(v.CreatedByID); uerr == nil && owner.Email != "" {
		_ = s.emails.SendEmail(ctx, EmailMessage{
			To:      owner.Email,
			Subject: fmt.Sprintf("Your listing %q was declined", v.Title),
			Body:    fmt.Sprintf("Reason: %s", v.RejectionReason),
		})
	}
	return v, nil
}

// Resubmit returns an edited or rejected vacancy to the moderation queue.
func (s *VacancyService) Resubmit(ctx context.Context, id uint) (*domain.Vacancy, error) {
	v, err := s.vacancies.ApplyModeration(id, domain.ActionResubmit, "")
	if err != nil {
		return nil, err
	}
	observability.RecordModerationEvent(ctx, "resubmit", "success")
	return v, nil
}

// EditSave stores the owner's changes. With submit the listing re-enters the
// moderation queue; without it the vacancy stays in edit mode and drops out
// of the queue after the visibility delay.
func (s *VacancyService) EditSave(ctx context.Context, userID, id uint, in VacancyPatch, submit bool) (*domain.Vacancy, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	current, err := s.vacancies.FindByID(id)
	if err != nil {
		return nil, err
	}
	if current.CreatedByID != userID {
		return nil, ErrNotVacancyOwner
	}

	content := in.content()

	mod := domain.EditingUpdate(s.now())
	if submit {
		mod = domain.SubmitUpdate(s.now())
	}
	v, err := s.vacancies.UpdateOwnerEdit(id, content, mod)
	if err != nil {
		return nil, err
	}
	outcome := "saved"
	if submit {
		outcome = "submitted"
	}
	observability.RecordModerationEvent(ctx, "edit", outcome)
	return v, nil
}

// AttachPhoto uploads a photo for the owner's vacancy, replacing and
// deleting any previous one.
func (s *VacancyService) AttachPhoto(ctx context.Context, userID, id uint, file io.Reader, size int64, contentType string) (string, error) {
	current, err := s.vacancies.FindByID(id)
	if err != nil {
		return "", err
	}
	if current.CreatedByID != userID {
		return "", ErrNotVacancyOwner
	}

	key, err := s.storage.UploadPhoto(ctx, id, file, size, contentType)
	if err != nil {
		return "", err
	}
	if err := s.vacancies.SetPhotoKey(id, key); err != nil {
		return "", fmt.Errorf("store photo key: %w", err)
	}
	if current.PhotoKey != "" && current.PhotoKey != key {
		// Old object is unreachable once the key is replaced.
		_ = s.storage.DeletePhoto(ctx, current.PhotoKey)
	}

	url, err := s.storage.PhotoURL(ctx, key)
	if err != nil {
		return "", err
	}
	return url, nil
}
