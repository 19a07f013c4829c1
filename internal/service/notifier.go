package service

import (
	"context"
	"log/slog"
)

type EmailMessage struct {
	To      string
	Subject string
	Body    string
}

// EmailSender delivers transactional mail. Implementations must not retry
// internally; callers decide whether a failed send is fatal.
type EmailSender interface {
	SendEmail(ctx context.Context, msg EmailMessage) error
}

// SMSSender delivers a short text to a phone number in E.164 form.
type SMSSender interface {
	SendSMS(ctx context.Context, phone, text string) error
}

// DevEmailSender logs outgoing mail instead of delivering it. Used in
// development and in tests.
type DevEmailSender struct {
	logger *slog.Logger
}

func NewDevEmailSender(logger *slog.Logger) *DevEmailSender {
	return &DevEmailSender{logger: logger}
}

func (s *DevEmailSender) SendEmail(ctx context.Context, msg EmailMessage) error {
	s.logger.InfoContext(ctx, "outgoing email",
		"to", msg.To,
		"subject", msg.Subject,
		"body", msg.Body,
	)
	return nil
}

// DevSMSSender logs outgoing texts instead of delivering them.
type DevSMSSender struct {
	logger *slog.Logger
}

func NewDevSMSSender(logger *slog.Logger) *DevSMSSender {
	return &DevSMSSender{logger: logger}
}

func (s *DevSMSSender) SendSMS(ctx context.Context, phone, text string) error {
	s.logger.InfoContext(ctx, "outgoing sms",
		"phone", phone,
		"text", text,
	)
	return nil
}
