package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"
	supabase "github.com/nedpals/supabase-go"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"aicruiter/internal/auth"
	"aicruiter/internal/cache"
	"aicruiter/internal/config"
	"aicruiter/internal/events"
	"aicruiter/internal/feedback"
	"aicruiter/internal/handlers"
	"aicruiter/internal/jobs"
	"aicruiter/internal/llm"
	_ "aicruiter/internal/llm/gemini"
	_ "aicruiter/internal/llm/openrouter"
	"aicruiter/internal/prompts"
	"aicruiter/internal/questions"
	"aicruiter/internal/repositories"
	"aicruiter/internal/routers"
	"aicruiter/internal/session"
	"aicruiter/internal/telemetry"
	"aicruiter/internal/utils"
	"aicruiter/internal/web"
)

const (
	serviceName     = "aicruiter"
	shutdownTimeout = 30 * time.Second
	cachePrefix     = "aicruiter:"
)

// New assembles the service from the environment.
func New() *fx.App {
	return fx.New(
		fx.Provide(config.LoadConfig),
		Module(),
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger}
		}),
	)
}

// Module is the dependency graph minus configuration.
func Module() fx.Option {
	return fx.Options(
		fx.Provide(
			newLogger,
			newSupabaseClient,
			newStore,
			newVerifier,
			newSignInProvider,
			newCache,
			newPublisher,
			newQuestionSource,
			newPromptProvider,
			questions.NewGenerator,
			web.NewRenderer,
			newHub,
			newFeedbackService,
			newHandlers,
			newRouter,
			newReaper,
			newHTTPServer,
		),
		fx.Invoke(
			registerTracer,
			func(*jobs.SessionReaper) {},
			func(*http.Server) {},
		),
	)
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return utils.NewLogger(cfg.IsDevelopment())
}

// hosted auth backs recruiter sign-in whatever the store backend is
func newSupabaseClient(cfg *config.Config) (*supabase.Client, error) {
	if cfg.SupabaseURL == "" || cfg.SupabaseKey == "" {
		return nil, errors.New("SUPABASE_URL and SUPABASE_KEY are required for recruiter sign-in")
	}
	return supabase.CreateClient(cfg.SupabaseURL, cfg.SupabaseKey), nil
}

func newStore(lc fx.Lifecycle, cfg *config.Config, client *supabase.Client, logger *zap.Logger) (repositories.InterviewStore, error) {
	if cfg.StoreBackend == config.StoreBackendSupabase {
		logger.Info("Using Supabase record store")
		return repositories.NewSupabaseStore(client), nil
	}

	// migrated on open
	db, err := repositories.OpenPostgres(cfg.PostgresDSN())
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})
	logger.Info("Using Postgres record store")
	return repositories.NewGormStore(db), nil
}

// tokens are checked locally when the signing secret is known, otherwise by the auth server
func newVerifier(cfg *config.Config, client *supabase.Client) auth.Verifier {
	if cfg.SupabaseJWTSecret != "" {
		return auth.NewJWTVerifier(cfg.SupabaseJWTSecret)
	}
	return auth.NewSupabaseAuth(client)
}

func newSignInProvider(client *supabase.Client) auth.SignInProvider {
	return auth.NewSupabaseAuth(client)
}

func newCache(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) cache.Cache {
	var c cache.Cache
	if cfg.RedisAddr != "" {
		logger.Info("Using redis cache", zap.String("addr", cfg.RedisAddr))
		c = cache.NewRedisCache(cfg.RedisAddr, cachePrefix)
	} else {
		c = cache.NewMemoryCache(time.Minute)
	}
	lc.Append(fx.Hook{OnStop: func(context.Context) error { return c.Close() }})
	return c
}

func newPublisher(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (events.Publisher, error) {
	var (
		publisher events.Publisher
		err       error
	)
	switch cfg.EventsBackend {
	case config.EventsBackendRedis:
		publisher = events.NewRedisPublisher(cfg.RedisAddr, logger)
	case config.EventsBackendNATS:
		publisher, err = events.NewNATSPublisher(cfg.NATSURL, logger)
		if err != nil {
			return nil, err
		}
	default:
		publisher = events.NewNoopPublisher()
	}
	lc.Append(fx.Hook{OnStop: func(context.Context) error { return publisher.Close() }})
	return publisher, nil
}

// a missing or misconfigured provider is not fatal: generation falls back to the template bank
func newQuestionSource(cfg *config.Config, logger *zap.Logger) llm.Provider {
	provider, err := llm.NewProvider(cfg.Provider)
	if err != nil {
		logger.Warn("Question source unavailable, fallback questions only",
			zap.String("provider", cfg.Provider),
			zap.Strings("registered", llm.RegisteredProviders()),
			zap.Error(err))
		return nil
	}
	logger.Info("Question source configured", zap.String("provider", provider.GetProviderName()))
	return provider
}

func newPromptProvider() (prompts.PromptProvider, error) {
	return prompts.NewPromptManager()
}

func newHub(lc fx.Lifecycle, publisher events.Publisher, logger *zap.Logger) *session.Hub {
	hub := session.NewHub(publisher, clockwork.NewRealClock(), logger)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			hub.CloseAll()
			return nil
		},
	})
	return hub
}

func newFeedbackService(store repositories.InterviewStore, publisher events.Publisher, logger *zap.Logger) *feedback.Service {
	return feedback.NewService(store, publisher, logger)
}

type handlerParams struct {
	fx.In

	Config    *config.Config
	Logger    *zap.Logger
	Store     repositories.InterviewStore
	Generator *questions.Generator
	Prompts   prompts.PromptProvider
	Renderer  *web.Renderer
	Hub       *session.Hub
	Feedback  *feedback.Service
	SignIn    auth.SignInProvider
	Cache     cache.Cache
}

func newHandlers(p handlerParams) routers.Handlers {
	return routers.Handlers{
		Health:    handlers.NewHealthHandler(p.Store, p.Prompts, p.Generator, p.Renderer),
		Interview: handlers.NewInterviewHandler(p.Store, p.Generator, p.Config.SiteURL, p.Logger),
		Feedback:  handlers.NewFeedbackHandler(p.Feedback, p.Logger),
		Session: handlers.NewSessionHandler(p.Store, p.Hub, p.Feedback, p.Renderer, handlers.SessionOptions{
			AssistantID:   p.Config.VapiAssistantID,
			VapiPublicKey: p.Config.VapiPublicKey,
		}, p.Logger),
		Auth: handlers.NewAuthHandler(p.SignIn, p.Cache, p.Renderer, handlers.AuthOptions{
			CookieName: p.Config.AuthCookieName,
			SignInPath: p.Config.SignInPath,
			SiteURL:    p.Config.SiteURL,
		}, p.Logger),
		Dashboard: handlers.NewDashboardHandler(p.Store, p.Renderer, p.Config.SiteURL, p.Logger),
	}
}

func newRouter(cfg *config.Config, h routers.Handlers, verifier auth.Verifier, logger *zap.Logger) *chi.Mux {
	return routers.NewRouter(routers.Options{
		AllowedOrigins:    cfg.AllowedOrigins,
		CookieName:        cfg.AuthCookieName,
		SignInPath:        cfg.SignInPath,
		ProtectedPrefixes: cfg.ProtectedPrefixes,
	}, h, verifier, logger)
}

func newReaper(lc fx.Lifecycle, cfg *config.Config, hub *session.Hub, logger *zap.Logger) *jobs.SessionReaper {
	reaper := jobs.NewSessionReaper(hub, &jobs.ReaperConfig{
		Schedule:  cfg.ReaperSchedule,
		Retention: cfg.SessionRetention,
		Enabled:   cfg.SessionRetention > 0,
	}, logger)
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error { return reaper.Start() },
		OnStop: func(context.Context) error {
			reaper.Stop()
			return nil
		},
	})
	return reaper
}

func registerTracer(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) {
	var shutdown func(context.Context) error
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			var err error
			shutdown, err = telemetry.InitTracer(ctx, serviceName, cfg.OTLPEndpoint)
			if err != nil {
				return fmt.Errorf("failed to initialise tracing: %w", err)
			}
			if cfg.OTLPEndpoint != "" {
				logger.Info("Tracing enabled", zap.String("endpoint", cfg.OTLPEndpoint))
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if shutdown == nil {
				return nil
			}
			return shutdown(ctx)
		},
	})
}

// the write timeout is left unset: candidate sessions hold their socket for the whole interview
func newHTTPServer(lc fx.Lifecycle, cfg *config.Config, router *chi.Mux, logger *zap.Logger) *http.Server {
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				logger.Info("AIcruiter service starting", zap.String("addr", server.Addr))
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Fatal("failed to start server", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("AIcruiter service shutting down...")
			ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()
			return server.Shutdown(ctx)
		},
	})
	return server
}
