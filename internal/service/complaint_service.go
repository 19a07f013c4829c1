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
)

var (
	ErrUnknownComplaintReason = errors.New("unknown complaint reason")
	ErrUnknownComplaintAction = errors.New("unknown complaint action")

	// ErrReporterEmailRequired rejects complaints from accounts without a
	// resolvable contact address.
	ErrReporterEmailRequired = errors.New("reporter has no email address")
)

// FileComplaintResult reports whether the support notification made it out.
// The complaint row itself is always committed first.
type FileComplaintResult struct {
	Complaint *domain.Complaint `json:"complaint"`
	// Status is "saved" or "saved_email_failed".
	Status string `json:"status"`
}

type ComplaintService struct {
	complaints repository.ComplaintRepository
	vacancies  repository.VacancyRepository
	users      repository.UserRepository
	emails     EmailSender
	// supportEmail receives a copy of every filed complaint.
	supportEmail string
	now          func() time.Time
}

func NewComplaintService(
	complaints repository.ComplaintRepository,
	vacancies repository.VacancyRepository,
	users repository.UserRepository,
	emails EmailSender,
	supportEmail string,
) *ComplaintService {
	return &ComplaintService{
		complaints:   complaints,
		vacancies:    vacancies,
		users:        users,
		emails:       emails,
		supportEmail: supportEmail,
		now:          time.Now,
	}
}

// File records a complaint against a vacancy and notifies support. Mail
// failure does not roll the complaint back; the caller learns about it from
// the result status.
func (s *ComplaintService) File(ctx context.Context, reporterID, vacancyID uint, reason, message string) (*FileComplaintResult, error) {
	if _, ok := domain.ComplaintReasons[reason]; !ok {
		return nil, ErrUnknownComplaintReason
	}
	reporter, err := s.users.FindByID(reporterID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(reporter.Email) == "" {
		return nil, ErrReporterEmailRequired
	}
	v, err := s.vacancies.FindByID(vacancyID)
	if err != nil {
		return nil, err
	}

	c := &domain.Complaint{
		VacancyID:  vacancyID,
		ReporterID: reporterID,
		Reason:     reason,
		Message:    strings.TrimSpace(message),
		Status:     domain.ComplaintStatusNew,
	}
	if err := s.complaints.Create(c); err != nil {
		return nil, fmt.Errorf("create complaint: %w", err)
	}
	observability.RecordComplaintEvent(ctx, "file", "success")

	result := &FileComplaintResult{Complaint: c, Status: "saved"}
	mailErr := s.emails.SendEmail(ctx, EmailMessage{
		To:      s.supportEmail,
		Subject: fmt.Sprintf("JobApp complaint: %s", reason),
		Body: fmt.Sprintf("Complaint #%d\nVacancy #%d %q\nReporter: #%d <%s>\nReason: %s\nMessage: %s",
			c.ID, v.ID, v.Title, reporter.ID, reporter.Email, reason, c.Message),
	})
	if mailErr != nil {
		observability.RecordComplaintEvent(ctx, "file", "email_failed")
		result.Status = "saved_email_failed"
	}
	return result, nil
}

// Overview aggregates complaints per vacancy for the moderation dashboard.
func (s *ComplaintService) Overview(ctx context.Context, filter repository.ComplaintAggregateFilter) ([]repository.VacancyComplaintAggregate, error) {
	if filter.Reason != "" {
		if _, ok := domain.ComplaintReasons[filter.Reason]; !ok {
			return nil, ErrUnknownComplaintReason
		}
	}
	return s.complaints.AggregateByVacancy(filter)
}

// ApplyAction executes a moderator's decision on the vacancy behind a
// complaint. The vacancy change, the complaint resolution and the audit row
// commit atomically.
func (s *ComplaintService) ApplyAction(ctx context.Context, actorID, complaintID uint, actionName, note, rejectionReason string, resolveAll bool) (*repository.ModerationActionResult, error) {
	action, ok := domain.ComplaintActions[actionName]
	if !ok {
		return nil, ErrUnknownComplaintAction
	}

	res, err := s.complaints.ApplyAction(repository.ModerationActionInput{
		ComplaintID:     complaintID,
		ActorID:         actorID,
		Action:          action,
		ActionName:      actionName,
		Note:            strings.TrimSpace(note),
		RejectionReason: strings.TrimSpace(rejectionReason),
		ResolveAll:      resolveAll,
		Now:             s.now(),
	})
	if err != nil {
		observability.RecordComplaintEvent(ctx, actionName, "failure")
		return nil, err
	}
	observability.RecordComplaintEvent(ctx, actionName, "success")
	return res, nil
}
