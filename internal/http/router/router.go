package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Treosha1991/jobapp-backend-2026/internal/http/handler"
	"github.com/Treosha1991/jobapp-backend-2026/internal/http/middleware"
	"github.com/Treosha1991/jobapp-backend-2026/internal/http/response"
	"github.com/Treosha1991/jobapp-backend-2026/internal/ratelimit"
	"github.com/Treosha1991/jobapp-backend-2026/internal/security"
)

type Dependencies struct {
	Logger            *slog.Logger
	JWTManager        *security.JWTManager
	Limiter           ratelimit.Limiter
	AuthHandler       *handler.AuthHandler
	VacancyHandler    *handler.VacancyHandler
	ModerationHandler *handler.ModerationHandler
	ComplaintHandler  *handler.ComplaintHandler
	CORSOrigins       []string
	AuthRateLimitRPM  int
	APIRateLimitRPM   int
}

func New(dep Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   dep.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	apiLimit := middleware.NewRateLimiter(dep.Limiter, dep.APIRateLimitRPM, time.Minute,
		middleware.FailOpen, "api", middleware.SubjectOrIPKeyFunc(dep.JWTManager))
	authLimit := middleware.NewRateLimiter(dep.Limiter, dep.AuthRateLimitRPM, time.Minute,
		middleware.FailClosed, "auth", nil)

	authn := middleware.Authenticator(dep.JWTManager)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		response.JSON(w, req, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(apiLimit.Middleware())

		r.Group(func(r chi.Router) {
			r.Use(authLimit.Middleware())
			r.Post("/auth/register", dep.AuthHandler.Register)
			r.Post("/auth/login", dep.AuthHandler.Login)
			r.Post("/auth/password-reset", dep.AuthHandler.StartPasswordReset)
			r.Post("/auth/password-reset/confirm", dep.AuthHandler.ConfirmPasswordReset)
		})

		r.Get("/vacancies", dep.VacancyHandler.List)
		r.Get("/vacancies/{vacancy_id}", dep.VacancyHandler.Get)

		r.Group(func(r chi.Router) {
			r.Use(authn)

			r.Get("/auth/me", dep.AuthHandler.Me)
			r.Post("/auth/phone", dep.AuthHandler.StartPhoneVerification)
			r.Post("/auth/phone/confirm", dep.AuthHandler.ConfirmPhoneVerification)

			r.Post("/vacancies", dep.VacancyHandler.Create)
			r.Get("/vacancies/mine", dep.VacancyHandler.Mine)
			r.Put("/vacancies/{vacancy_id}", dep.VacancyHandler.EditSave)
			r.Post("/vacancies/{vacancy_id}/photo", dep.VacancyHandler.UploadPhoto)

			r.Post("/vacancies/{vacancy_id}/unlock/request", dep.VacancyHandler.RequestUnlock)
			r.Post("/vacancies/{vacancy_id}/unlock/confirm", dep.VacancyHandler.ConfirmUnlock)
			r.Post("/vacancies/{vacancy_id}/unlock", dep.VacancyHandler.DirectUnlock)
			r.Get("/vacancies/{vacancy_id}/contacts", dep.VacancyHandler.Contacts)

			r.Post("/vacancies/{vacancy_id}/complaints", dep.ComplaintHandler.File)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireStaff)
				r.Get("/moderation/vacancies", dep.ModerationHandler.Pending)
				r.Post("/moderation/vacancies/{vacancy_id}/approve", dep.ModerationHandler.Approve)
				r.Post("/moderation/vacancies/{vacancy_id}/reject", dep.ModerationHandler.Reject)
				r.Post("/moderation/vacancies/{vacancy_id}/resubmit", dep.ModerationHandler.Resubmit)
				r.Get("/moderation/complaints", dep.ComplaintHandler.Overview)
				r.Post("/moderation/complaints/{complaint_id}/action", dep.ComplaintHandler.ApplyAction)
			})
		})
	})

	return r
}
