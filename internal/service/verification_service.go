package service

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/Treosha1991/jobapp-backend-2026/internal/domain"
	"github.com/Treosha1991/jobapp-backend-2026/internal/observability"
	"github.com/Treosha1991/jobapp-backend-2026/internal/ratelimit"
	"github.com/Treosha1991/jobapp-backend-2026/internal/repository"
)

var (
	ErrCodeThrottled   = errors.New("verification code requested too soon")
	ErrCodeInvalid     = errors.New("verification code is invalid")
	ErrCodeExpired     = errors.New("verification code has expired")
	ErrTooManyAttempts = errors.New("too many verification attempts")
	ErrDeliveryFailed  = errors.New("verification code delivery failed")
	ErrInvalidPurpose  = errors.New("unknown verification purpose")
)

// ThrottledError carries the remaining wait before another code may be sent.
type ThrottledError struct {
	RetryAfter time.Duration
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("verification code requested too soon, retry in %s", e.RetryAfter)
}

func (e *ThrottledError) Is(target error) bool { return target == ErrCodeThrottled }

// Verifier is the code issue/check strategy. The local implementation stores
// codes in our own database; the hosted one delegates both steps to an
// external provider and keeps no local state.
type Verifier interface {
	// Start issues a code for subject (an email address or E.164 phone) and
	// hands it to the delivery channel. Delivery is attempted once.
	Start(ctx context.Context, channel, subject, purpose string) error

	// Check validates the submitted code. A correct code is consumed and
	// cannot be checked again.
	Check(ctx context.Context, channel, subject, purpose, code string) error
}

type VerificationServiceConfig struct {
	CodeTTL         time.Duration
	PhoneResendGap  time.Duration
	DeliveryTimeout time.Duration
	Debug           bool
}

// LocalVerifier issues six-digit codes backed by the verification_codes table.
type LocalVerifier struct {
	codes   repository.VerificationCodeRepository
	emails  EmailSender
	sms     SMSSender
	limiter ratelimit.Limiter
	cfg     VerificationServiceConfig
	now     func() time.Time
}

func NewLocalVerifier(
	codes repository.VerificationCodeRepository,
	emails EmailSender,
	sms SMSSender,
	limiter ratelimit.Limiter,
	cfg VerificationServiceConfig,
) *LocalVerifier {
	return &LocalVerifier{
		codes:   codes,
		emails:  emails,
		sms:     sms,
		limiter: limiter,
		cfg:     cfg,
		now:     time.Now,
	}
}

func (v *LocalVerifier) Start(ctx context.Context, channel, subject, purpose string) error {
	if !domain.VerificationPurposes[purpose] {
		return ErrInvalidPurpose
	}
	subject = strings.TrimSpace(strings.ToLower(subject))
	now := v.now()

	if channel == domain.ChannelPhone && v.cfg.PhoneResendGap > 0 {
		key := "verify:" + subject + ":" + purpose
		allowed, retryAfter, err := v.limiter.Allow(ctx, key, 1, v.cfg.PhoneResendGap)
		if err != nil {
			return fmt.Errorf("check resend gap: %w", err)
		}
		if !allowed {
			observability.RecordVerificationEvent(ctx, "start", "throttled")
			return &ThrottledError{RetryAfter: retryAfter}
		}
	}

	code := &domain.VerificationCode{
		Subject:   subject,
		Channel:   channel,
		Purpose:   purpose,
		Code:      generateNumericCode(),
		ExpiresAt: now.Add(v.cfg.CodeTTL),
	}
	if err := v.codes.IssueExclusive(code); err != nil {
		return fmt.Errorf("issue verification code: %w", err)
	}

	sendCtx, cancel := context.WithTimeout(ctx, v.cfg.DeliveryTimeout)
	defer cancel()

	var sendErr error
	switch channel {
	case domain.ChannelPhone:
		sendErr = v.sms.SendSMS(sendCtx, subject, fmt.Sprintf("Your confirmation code is %s", code.Code))
	default:
		sendErr = v.emails.SendEmail(sendCtx, EmailMessage{
			To:      subject,
			Subject: "Confirmation code",
			Body:    fmt.Sprintf("Your confirmation code is %s. It expires in %d minutes.", code.Code, int(v.cfg.CodeTTL.Minutes())),
		})
	}
	if sendErr != nil {
		observability.RecordVerificationEvent(ctx, "start", "delivery_failed")
		if v.cfg.Debug {
			// In development the code is still usable from the logs, so a
			// broken provider does not block the flow.
			return nil
		}
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, sendErr)
	}

	observability.RecordVerificationEvent(ctx, "start", "success")
	return nil
}

func (v *LocalVerifier) Check(ctx context.Context, channel, subject, purpose, code string) error {
	subject = strings.TrimSpace(strings.ToLower(subject))
	now := v.now()

	active, err := v.codes.FindActive(subject, purpose, now)
	if err != nil {
		if errors.Is(err, repository.ErrVerificationCodeNotFound) {
			observability.RecordVerificationEvent(ctx, "check", "not_found")
			return ErrCodeExpired
		}
		return fmt.Errorf("find verification code: %w", err)
	}

	if channel == domain.ChannelPhone && active.Attempts >= domain.MaxCodeAttempts {
		observability.RecordVerificationEvent(ctx, "check", "attempts_exceeded")
		return ErrTooManyAttempts
	}

	if subtleEqual(active.Code, strings.TrimSpace(code)) {
		if err := v.codes.Consume(active.ID, now); err != nil {
			if errors.Is(err, repository.ErrVerificationCodeNotFound) {
				// Lost the race against another consumer of the same code.
				return ErrCodeInvalid
			}
			return fmt.Errorf("consume verification code: %w", err)
		}
		observability.RecordVerificationEvent(ctx, "check", "success")
		return nil
	}

	if channel == domain.ChannelPhone {
		attempts, err := v.codes.IncrementAttempts(active.ID)
		if err != nil {
			return fmt.Errorf("record failed attempt: %w", err)
		}
		if attempts >= domain.MaxCodeAttempts {
			observability.RecordVerificationEvent(ctx, "check", "attempts_exceeded")
			return ErrTooManyAttempts
		}
	}
	observability.RecordVerificationEvent(ctx, "check", "mismatch")
	return ErrCodeInvalid
}

// generateNumericCode returns a six-digit zero-padded code.
func generateNumericCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		// crypto/rand only fails when the platform source is broken.
		panic(fmt.Sprintf("generate verification code: %v", err))
	}
	return fmt.Sprintf("%06d", n.Int64())
}

// subtleEqual compares codes without early exit on the first differing byte.
func subtleEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	var diff byte
	for i := 0; i < len(a); i++ {
		diff |= a[i] ^ b[i]
	}
	return diff == 0
}

// HostedVerifier delegates code issue and check to an external verification
// provider over HTTP. No codes are stored locally.
type HostedVerifier struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHostedVerifier(baseURL, apiKey string, timeout time.Duration) *HostedVerifier {
	return &HostedVerifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

type hostedVerifyRequest struct {
	Channel string `json:"channel"`
	To      string `json:"to"`
	Purpose string `json:"purpose"`
	Code    string `json:"code,omitempty"`
}

type hostedVerifyResponse struct {
	Status string `json:"status"`
}

func (v *HostedVerifier) Start(ctx context.Context, channel, subject, purpose string) error {
	if !domain.VerificationPurposes[purpose] {
		return ErrInvalidPurpose
	}
	resp, err := v.post(ctx, "/v2/verifications", hostedVerifyRequest{
		Channel: channel,
		To:      subject,
		Purpose: purpose,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	if resp.Status == "rate_limited" {
		return &ThrottledError{}
	}
	return nil
}

func (v *HostedVerifier) Check(ctx context.Context, channel, subject, purpose, code string) error {
	resp, err := v.post(ctx, "/v2/verifications/check", hostedVerifyRequest{
		Channel: channel,
		To:      subject,
		Purpose: purpose,
		Code:    code,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	switch resp.Status {
	case "approved":
		return nil
	case "expired":
		return ErrCodeExpired
	case "max_attempts_reached":
		return ErrTooManyAttempts
	default:
		return ErrCodeInvalid
	}
}

func (v *HostedVerifier) post(ctx context.Context, path string, payload hostedVerifyRequest) (*hostedVerifyResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+v.apiKey)

	httpResp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call verification provider: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("verification provider returned %d", httpResp.StatusCode)
	}

	var out hostedVerifyResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}
