package di

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/Treosha1991/jobapp-backend-2026/internal/app"
	"github.com/Treosha1991/jobapp-backend-2026/internal/config"
	"github.com/Treosha1991/jobapp-backend-2026/internal/database"
	"github.com/Treosha1991/jobapp-backend-2026/internal/http/handler"
	"github.com/Treosha1991/jobapp-backend-2026/internal/http/router"
	"github.com/Treosha1991/jobapp-backend-2026/internal/observability"
	"github.com/Treosha1991/jobapp-backend-2026/internal/ratelimit"
	"github.com/Treosha1991/jobapp-backend-2026/internal/repository"
	"github.com/Treosha1991/jobapp-backend-2026/internal/security"
	"github.com/Treosha1991/jobapp-backend-2026/internal/service"
)

var ConfigSet = wire.NewSet(config.Load)

var ObservabilitySet = wire.NewSet(provideLogger)

var RuntimeInfraSet = wire.NewSet(provideOpenDB, provideLimiter)

var RepositorySet = wire.NewSet(
	repository.NewUserRepository,
	repository.NewVacancyRepository,
	repository.NewUnlockRepository,
	repository.NewComplaintRepository,
	repository.NewVerificationCodeRepository,
)

var SecuritySet = wire.NewSet(provideJWTManager)

var ServiceSet = wire.NewSet(
	provideEmailSender,
	provideSMSSender,
	provideVerifier,
	provideStorageService,
	provideAuthService,
	provideVacancyService,
	provideUnlockService,
	provideComplaintService,
)

var HTTPSet = wire.NewSet(
	handler.NewAuthHandler,
	handler.NewVacancyHandler,
	handler.NewModerationHandler,
	handler.NewComplaintHandler,
	provideRouterDependencies,
	router.New,
	provideHTTPServer,
)

var AppSet = wire.NewSet(app.New)

func provideLogger(cfg *config.Config) *slog.Logger {
	logger := observability.NewLogger(cfg.Env)
	slog.SetDefault(logger)
	return logger
}

func provideOpenDB(cfg *config.Config) (*gorm.DB, error) {
	return database.Open(cfg)
}

// provideLimiter picks the Redis fixed window when REDIS_ADDR is set, else
// the in-process limiter. Single-node deployments work without Redis.
func provideLimiter(cfg *config.Config) ratelimit.Limiter {
	if cfg.RedisAddr == "" {
		return ratelimit.NewLocalFixedWindowLimiter()
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	return ratelimit.NewRedisFixedWindowLimiter(client, "jobapp:rl")
}

func provideJWTManager(cfg *config.Config) *security.JWTManager {
	return security.NewJWTManager(cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTAccessSecret)
}

func provideEmailSender(cfg *config.Config, logger *slog.Logger) service.EmailSender {
	return service.NewDevEmailSender(logger)
}

func provideSMSSender(cfg *config.Config, logger *slog.Logger) service.SMSSender {
	return service.NewDevSMSSender(logger)
}

func provideVerifier(
	cfg *config.Config,
	codes repository.VerificationCodeRepository,
	emails service.EmailSender,
	sms service.SMSSender,
	limiter ratelimit.Limiter,
) service.Verifier {
	if cfg.VerifyBackend == "hosted" {
		return service.NewHostedVerifier(cfg.HostedVerifyBaseURL, cfg.HostedVerifyAPIKey, cfg.DeliveryTimeout)
	}
	return service.NewLocalVerifier(codes, emails, sms, limiter, service.VerificationServiceConfig{
		CodeTTL:         cfg.CodeTTL,
		PhoneResendGap:  cfg.PhoneCodeResendGap,
		DeliveryTimeout: cfg.DeliveryTimeout,
		Debug:           cfg.IsDevelopment(),
	})
}

func provideStorageService(cfg *config.Config) (service.StorageService, error) {
	if cfg.StorageEndpoint == "" {
		return nil, fmt.Errorf("STORAGE_ENDPOINT is required")
	}
	return service.NewMinIOStorageService(cfg.StorageEndpoint, cfg.StorageAccessKey, cfg.StorageSecretKey, cfg.StorageBucket, cfg.StorageUseSSL)
}

func provideAuthService(users repository.UserRepository, tokens *security.JWTManager, verifier service.Verifier, cfg *config.Config) *service.AuthService {
	return service.NewAuthService(users, tokens, verifier, cfg.JWTAccessTTL)
}

func provideVacancyService(
	vacancies repository.VacancyRepository,
	users repository.UserRepository,
	emails service.EmailSender,
	storage service.StorageService,
	cfg *config.Config,
) *service.VacancyService {
	return service.NewVacancyService(vacancies, users, emails, storage, service.VacancyServiceConfig{
		VacancyTTL:             cfg.VacancyTTL,
		PendingVisibilityDelay: cfg.PendingVisibilityDelay,
		FromEmail:              cfg.FromEmail,
	})
}

func provideUnlockService(unlocks repository.UnlockRepository, vacancies repository.VacancyRepository, cfg *config.Config) *service.UnlockService {
	return service.NewUnlockService(unlocks, vacancies, cfg.UnlockTokenTTL)
}

func provideComplaintService(
	complaints repository.ComplaintRepository,
	vacancies repository.VacancyRepository,
	users repository.UserRepository,
	emails service.EmailSender,
	cfg *config.Config,
) *service.ComplaintService {
	return service.NewComplaintService(complaints, vacancies, users, emails, cfg.ComplaintEmail)
}

func provideRouterDependencies(
	logger *slog.Logger,
	jwtMgr *security.JWTManager,
	limiter ratelimit.Limiter,
	authHandler *handler.AuthHandler,
	vacancyHandler *handler.VacancyHandler,
	moderationHandler *handler.ModerationHandler,
	complaintHandler *handler.ComplaintHandler,
	cfg *config.Config,
) router.Dependencies {
	return router.Dependencies{
		Logger:            logger,
		JWTManager:        jwtMgr,
		Limiter:           limiter,
		AuthHandler:       authHandler,
		VacancyHandler:    vacancyHandler,
		ModerationHandler: moderationHandler,
		ComplaintHandler:  complaintHandler,
		CORSOrigins:       cfg.CORSAllowedOrigins,
		AuthRateLimitRPM:  cfg.AuthRateLimitPerMin,
		APIRateLimitRPM:   cfg.APIRateLimitPerMin,
	}
}

func provideHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           h,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// MigrationRunner applies schema migrations and the bootstrap seed, then
// exits. Used by the migrate subcommand.
type MigrationRunner struct {
	db  *gorm.DB
	cfg *config.Config
}

func NewMigrationRunner(db *gorm.DB, cfg *config.Config) *MigrationRunner {
	return &MigrationRunner{db: db, cfg: cfg}
}

func (m *MigrationRunner) Run() error {
	if err := database.Migrate(m.db); err != nil {
		return err
	}
	report, err := database.SeedSync(m.db, m.cfg.BootstrapAdminEmail)
	if err != nil {
		return err
	}
	slog.Info("migrations applied",
		"seed_noop", report.Noop,
		"seed_users", report.CreatedUsers,
		"seed_vacancies", report.CreatedVacancies,
	)
	return nil
}
