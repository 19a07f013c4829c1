package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Treosha1991/jobapp-backend-2026/internal/config"
	"github.com/Treosha1991/jobapp-backend-2026/internal/database"
	"github.com/Treosha1991/jobapp-backend-2026/internal/domain"
	"github.com/Treosha1991/jobapp-backend-2026/internal/http/handler"
	"github.com/Treosha1991/jobapp-backend-2026/internal/http/router"
	"github.com/Treosha1991/jobapp-backend-2026/internal/ratelimit"
	"github.com/Treosha1991/jobapp-backend-2026/internal/repository"
	"github.com/Treosha1991/jobapp-backend-2026/internal/security"
	"github.com/Treosha1991/jobapp-backend-2026/internal/service"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type apiTestServer struct {
	baseURL string
	client  *http.Client
	db      *gorm.DB
	cfg     *config.Config
}

type apiTestServerOptions struct {
	cfgOverride func(cfg *config.Config)
}

// memoryStorage keeps uploaded photo keys in memory so the photo endpoints
// work without an object store.
type memoryStorage struct {
	objects map[string][]byte
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{objects: map[string][]byte{}}
}

func (m *memoryStorage) UploadPhoto(_ context.Context, vacancyID uint, file io.Reader, _ int64, _ string) (string, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("vacancy-photos/vacancy-%d/%d", vacancyID, len(m.objects)+1)
	m.objects[key] = data
	return key, nil
}

func (m *memoryStorage) DeletePhoto(_ context.Context, objectKey string) error {
	delete(m.objects, objectKey)
	return nil
}

func (m *memoryStorage) PhotoURL(_ context.Context, objectKey string) (string, error) {
	return "https://storage.test/" + objectKey, nil
}

func newAPITestServer(t *testing.T, opts apiTestServerOptions) *apiTestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	// Shared-cache sqlite serializes writers; a single connection avoids
	// spurious lock errors.
	sqlDB.SetMaxOpenConns(1)
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	cfg := &config.Config{
		Env:                    "test",
		JWTIssuer:              "jobapp-test",
		JWTAudience:            "jobapp-api",
		JWTAccessSecret:        "0123456789abcdef0123456789abcdef",
		JWTAccessTTL:           15 * time.Minute,
		CORSAllowedOrigins:     []string{"http://localhost:3000"},
		AuthRateLimitPerMin:    1000,
		APIRateLimitPerMin:     1000,
		UnlockTokenTTL:         120 * time.Second,
		PendingVisibilityDelay: 60 * time.Second,
		VacancyTTL:             720 * time.Hour,
		CodeTTL:                10 * time.Minute,
		PhoneCodeResendGap:     0,
		DeliveryTimeout:        time.Second,
		FromEmail:              "no-reply@jobapp.test",
		ComplaintEmail:         "support@jobapp.test",
	}
	if opts.cfgOverride != nil {
		opts.cfgOverride(cfg)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	users := repository.NewUserRepository(db)
	vacancies := repository.NewVacancyRepository(db)
	unlocks := repository.NewUnlockRepository(db)
	complaints := repository.NewComplaintRepository(db)
	codes := repository.NewVerificationCodeRepository(db)

	jwtMgr := security.NewJWTManager(cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTAccessSecret)
	emails := service.NewDevEmailSender(log)
	sms := service.NewDevSMSSender(log)
	limiter := ratelimit.NewLocalFixedWindowLimiter()
	verifier := service.NewLocalVerifier(codes, emails, sms, limiter, service.VerificationServiceConfig{
		CodeTTL:         cfg.CodeTTL,
		PhoneResendGap:  cfg.PhoneCodeResendGap,
		DeliveryTimeout: cfg.DeliveryTimeout,
	})

	authSvc := service.NewAuthService(users, jwtMgr, verifier, cfg.JWTAccessTTL)
	vacancySvc := service.NewVacancyService(vacancies, users, emails, newMemoryStorage(), service.VacancyServiceConfig{
		VacancyTTL:             cfg.VacancyTTL,
		PendingVisibilityDelay: cfg.PendingVisibilityDelay,
		FromEmail:              cfg.FromEmail,
	})
	unlockSvc := service.NewUnlockService(unlocks, vacancies, cfg.UnlockTokenTTL)
	complaintSvc := service.NewComplaintService(complaints, vacancies, users, emails, cfg.ComplaintEmail)

	h := router.New(router.Dependencies{
		Logger:            log,
		JWTManager:        jwtMgr,
		Limiter:           limiter,
		AuthHandler:       handler.NewAuthHandler(authSvc, users),
		VacancyHandler:    handler.NewVacancyHandler(vacancySvc, unlockSvc),
		ModerationHandler: handler.NewModerationHandler(vacancySvc),
		ComplaintHandler:  handler.NewComplaintHandler(complaintSvc),
		CORSOrigins:       cfg.CORSAllowedOrigins,
		AuthRateLimitRPM:  cfg.AuthRateLimitPerMin,
		APIRateLimitRPM:   cfg.APIRateLimitPerMin,
	})

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	return &apiTestServer{
		baseURL: srv.URL,
		client:  srv.Client(),
		db:      db,
		cfg:     cfg,
	}
}

func (s *apiTestServer) doJSON(t *testing.T, method, path string, payload any, token string) (*http.Response, envelope) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.baseURL+path, body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope for %s %s: %v", method, path, err)
	}
	return resp, env
}

// registerUser registers an account and returns its access token and id.
func (s *apiTestServer) registerUser(t *testing.T, email string) (string, uint) {
	t.Helper()

	resp, env := s.doJSON(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"email":    email,
		"password": "valid-password-1",
	}, "")
	if resp.StatusCode != http.StatusCreated || !env.Success {
		t.Fatalf("register %s: status=%d", email, resp.StatusCode)
	}
	var res struct {
		User struct {
			ID uint `json:"id"`
		} `json:"user"`
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(env.Data, &res); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	return res.AccessToken, res.User.ID
}

// verifyPhone walks the user through the phone code flow, reading the issued
// code straight from the database.
func (s *apiTestServer) verifyPhone(t *testing.T, token, phone string) {
	t.Helper()

	resp, _ := s.doJSON(t, http.MethodPost, "/api/v1/auth/phone", map[string]string{"phone": phone}, token)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("start phone verification: status=%d", resp.StatusCode)
	}

	var code domain.VerificationCode
	if err := s.db.Where("subject = ? AND purpose = ? AND used = ?", phone, domain.PurposeVerifyPhone, false).
		Order("id DESC").First(&code).Error; err != nil {
		t.Fatalf("load issued code: %v", err)
	}

	resp, _ = s.doJSON(t, http.MethodPost, "/api/v1/auth/phone/confirm", map[string]string{
		"phone": phone,
		"code":  code.Code,
	}, token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("confirm phone verification: status=%d", resp.StatusCode)
	}
}

// promoteToStaff flips the staff flag directly; there is no API for it.
func (s *apiTestServer) promoteToStaff(t *testing.T, userID uint) {
	t.Helper()
	if err := s.db.Model(&domain.User{}).Where("id = ?", userID).Update("is_staff", true).Error; err != nil {
		t.Fatalf("promote user %d: %v", userID, err)
	}
}

// registerStaff registers a user, promotes them, and logs in again so the
// token carries the staff claim.
func (s *apiTestServer) registerStaff(t *testing.T, email string) string {
	t.Helper()
	_, id := s.registerUser(t, email)
	s.promoteToStaff(t, id)

	resp, env := s.doJSON(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    email,
		"password": "valid-password-1",
	}, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("staff login: status=%d", resp.StatusCode)
	}
	var res struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(env.Data, &res); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	return res.AccessToken
}

func (s *apiTestServer) createVacancy(t *testing.T, token string) uint {
	t.Helper()

	resp, env := s.doJSON(t, http.MethodPost, "/api/v1/vacancies", map[string]any{
		"title":           "Line cook",
		"country":         domain.CountryPoland,
		"city":            "Krakow",
		"category":        domain.CategoryService,
		"employment_type": domain.EmploymentFull,
		"phone":           "+48500100200",
		"source":          domain.SourceDirect,
	}, token)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create vacancy: status=%d error=%+v", resp.StatusCode, env.Error)
	}
	var v struct {
		ID uint `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &v); err != nil {
		t.Fatalf("decode vacancy: %v", err)
	}
	return v.ID
}

func itoa(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
