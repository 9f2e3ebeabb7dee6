package routers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"aicruiter/internal/auth"
	"aicruiter/internal/handlers"
	"aicruiter/internal/metrics"
	"aicruiter/internal/middleware"
	"aicruiter/internal/models"
)

const defaultRequestTimeout = 60 * time.Second

type Handlers struct {
	Health    *handlers.HealthHandler
	Interview *handlers.InterviewHandler
	Feedback  *handlers.FeedbackHandler
	Session   *handlers.SessionHandler
	Auth      *handlers.AuthHandler
	Dashboard *handlers.DashboardHandler
}

type Options struct {
	AllowedOrigins    []string
	CookieName        string
	SignInPath        string
	ProtectedPrefixes []string
	RequestTimeout    time.Duration
}

// NewRouter builds the full HTTP surface. The session socket is the only route
// registered without the request timeout.
func NewRouter(opts Options, h Handlers, verifier auth.Verifier, logger *zap.Logger) *chi.Mux {
	router := chi.NewRouter()

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))
	router.Use(chimiddleware.RequestID, chimiddleware.RealIP, chimiddleware.Logger, chimiddleware.Recoverer, metrics.Middleware)
	router.Use(middleware.AccessGate(middleware.GateConfig{
		ProtectedPrefixes: opts.ProtectedPrefixes,
		SignInPath:        opts.SignInPath,
		CookieName:        opts.CookieName,
	}, verifier, logger))

	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	SessionSocketRoutes(router, h.Session)
	router.Group(func(r chi.Router) {
		r.Use(chimiddleware.Timeout(timeout))
		HealthRoutes(r, h.Health)
		AuthRoutes(r, h.Auth, opts.CookieName, verifier)
		InterviewRoutes(r, h.Interview, h.Feedback, opts.CookieName, verifier)
		SessionPageRoutes(r, h.Session)
		DashboardRoutes(r, h.Dashboard)
	})
	return router
}

func HealthRoutes(router chi.Router, healthHandler *handlers.HealthHandler) {
	router.Get("/healthz", healthHandler.HealthzHandler)
	router.Get("/readyz", healthHandler.ReadyzHandler)
	router.Handle("/metrics", metrics.Handler())
}

func AuthRoutes(router chi.Router, authHandler *handlers.AuthHandler, cookieName string, verifier auth.Verifier) {
	router.Route("/auth", func(r chi.Router) {
		r.Get("/", authHandler.PageHandler)
		r.Post("/login", authHandler.LoginHandler)
		r.Get("/google", authHandler.GoogleHandler)
		r.Get("/callback", authHandler.CallbackHandler)
		r.Post("/logout", authHandler.LogoutHandler)
		r.With(middleware.RequireUser(cookieName, verifier)).Get("/me", authHandler.MeHandler)
	})
}

// InterviewRoutes registers the recruiter API. Feedback is the one public route:
// candidates post it without signing in.
func InterviewRoutes(router chi.Router, interviewHandler *handlers.InterviewHandler, feedbackHandler *handlers.FeedbackHandler, cookieName string, verifier auth.Verifier) {
	router.Route("/interviews", func(r chi.Router) {
		r.With(middleware.ValidateRequest[*models.FeedbackRequest]()).Post("/{id}/feedback", feedbackHandler.SubmitFeedback)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUser(cookieName, verifier))
			r.With(middleware.ValidateRequest[*models.CreateInterviewRequest]()).Post("/", interviewHandler.CreateHandler)
			r.Get("/", interviewHandler.ListHandler)
			r.Get("/scheduled", interviewHandler.ScheduledHandler)
			r.Get("/export.xlsx", interviewHandler.ExportHandler)
			r.Get("/{id}", interviewHandler.GetHandler)
			r.Get("/{id}/link", interviewHandler.LinkHandler)
		})
	})
}

func SessionPageRoutes(router chi.Router, sessionHandler *handlers.SessionHandler) {
	router.Get("/interview/{id}", sessionHandler.PageHandler)
}

func SessionSocketRoutes(router chi.Router, sessionHandler *handlers.SessionHandler) {
	router.Get("/interview/{id}/ws", sessionHandler.SocketHandler)
}

func DashboardRoutes(router chi.Router, dashboardHandler *handlers.DashboardHandler) {
	router.Get("/dashboard", dashboardHandler.DashboardHandler)
	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	})
}
