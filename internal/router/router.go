package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/parisxmas/OxiDB/OxiForms/internal/auth"
	"github.com/parisxmas/OxiDB/OxiForms/internal/handler"
	"github.com/parisxmas/OxiDB/OxiForms/internal/metrics"
	mw "github.com/parisxmas/OxiDB/OxiForms/internal/middleware"
)

type Handlers struct {
	Auth      *handler.AuthHandler
	Forms     *handler.FormHandler
	Responses *handler.ResponseHandler
	Share     *handler.ShareHandler
	Dashboard *handler.DashboardHandler
	Health    *handler.HealthHandler
}

func New(issuer *auth.Issuer, log *zap.Logger, m *metrics.Metrics, h Handlers) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(mw.Recovery(log))
	r.Use(mw.Logger(log, m))
	r.Use(mw.CORS)

	r.Get("/healthz", h.Health.Health)
	if m != nil {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	// Server-rendered form page
	r.Get("/f/{shareLink}", h.Share.Page)
	r.Post("/f/{shareLink}", h.Share.PostPage)

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/auth/login", h.Auth.Login)
		r.Post("/auth/register", h.Auth.Register)

		r.Get("/share/{shareLink}", h.Share.Get)
		r.Get("/share/{shareLink}/plan", h.Share.Plan)
		r.Post("/share/{shareLink}/responses", h.Share.Submit)
		r.Post("/forms/{formId}/responses", h.Responses.Submit)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(issuer))

			// Auth
			r.Get("/auth/me", h.Auth.Me)

			// Dashboard
			r.Get("/dashboard", h.Dashboard.Dashboard)

			// Forms
			r.Get("/forms", h.Forms.List)
			r.Post("/forms", h.Forms.Create)
			r.Get("/forms/{formId}", h.Forms.Get)
			r.Put("/forms/{formId}", h.Forms.Update)
			r.Delete("/forms/{formId}", h.Forms.Delete)

			// Responses
			r.Get("/forms/{formId}/responses", h.Responses.List)
			r.Get("/forms/{formId}/export", h.Responses.Export)
		})
	})

	return r
}
