package handlers

import (
	"context"
	"net/http"
	"text/template"
	"time"

	"github.com/go-chi/chi/v5"

	"aicruiter/internal/auth"
	"aicruiter/internal/middleware"
	"aicruiter/internal/models"
	"aicruiter/internal/questions"
	"aicruiter/internal/repositories"
)

type mockStore struct {
	repositories.InterviewStore
	createFn        func(ctx context.Context, interview *models.Interview) (string, error)
	getFn           func(ctx context.Context, id, ownerID string) (*models.Interview, error)
	listFn          func(ctx context.Context, ownerID string) ([]models.Interview, error)
	listScheduledFn func(ctx context.Context, ownerID string, after time.Time) ([]models.Interview, error)
	pingFn          func(ctx context.Context) error
}

func (m *mockStore) Create(ctx context.Context, interview *models.Interview) (string, error) {
	if m.createFn == nil {
		interview.ID = "generated-id"
		return interview.ID, nil
	}
	return m.createFn(ctx, interview)
}

func (m *mockStore) Get(ctx context.Context, id, ownerID string) (*models.Interview, error) {
	if m.getFn == nil {
		return &models.Interview{ID: id, OwnerID: ownerID, Role: "Engineer", Questions: []string{"Q1"}}, nil
	}
	return m.getFn(ctx, id, ownerID)
}

func (m *mockStore) ListForOwner(ctx context.Context, ownerID string) ([]models.Interview, error) {
	if m.listFn == nil {
		return []models.Interview{}, nil
	}
	return m.listFn(ctx, ownerID)
}

func (m *mockStore) ListScheduled(ctx context.Context, ownerID string, after time.Time) ([]models.Interview, error) {
	if m.listScheduledFn == nil {
		return []models.Interview{}, nil
	}
	return m.listScheduledFn(ctx, ownerID, after)
}

func (m *mockStore) Ping(ctx context.Context) error {
	if m.pingFn == nil {
		return nil
	}
	return m.pingFn(ctx)
}

type mockGenerator struct {
	generateFn func(ctx context.Context, req questions.Request) questions.Result
	hasSource  bool
	requests   []questions.Request
}

func (m *mockGenerator) Generate(ctx context.Context, req questions.Request) questions.Result {
	m.requests = append(m.requests, req)
	if m.generateFn == nil {
		return questions.Result{Questions: questions.Fallback(req.Role, req.Types, req.Count), Source: questions.SourceFallback}
	}
	return m.generateFn(ctx, req)
}

func (m *mockGenerator) HasSource() bool { return m.hasSource }

type mockPromptManager struct {
	getTemplatesFn func() map[string]map[string]*template.Template
}

func (m *mockPromptManager) BuildPrompt(mode, variant string, data interface{}) (string, error) {
	return "mock prompt", nil
}

func (m *mockPromptManager) GetTemplates() map[string]map[string]*template.Template {
	if m.getTemplatesFn == nil {
		return map[string]map[string]*template.Template{
			"questions": {"default": template.Must(template.New("test").Parse("test"))},
		}
	}
	return m.getTemplatesFn()
}

type mockSignIn struct {
	signInFn   func(ctx context.Context, email, password string) (*auth.Session, error)
	startFn    func(provider, redirectTo string) (*auth.OAuthStart, error)
	exchangeFn func(ctx context.Context, code, verifier string) (*auth.Session, error)
	signedOut  []string
}

func (m *mockSignIn) SignIn(ctx context.Context, email, password string) (*auth.Session, error) {
	if m.signInFn == nil {
		return &auth.Session{AccessToken: "access-token", ExpiresIn: 3600}, nil
	}
	return m.signInFn(ctx, email, password)
}

func (m *mockSignIn) StartOAuth(provider, redirectTo string) (*auth.OAuthStart, error) {
	if m.startFn == nil {
		return &auth.OAuthStart{URL: "https://auth.example.com/authorize?provider=" + provider, CodeVerifier: "verifier-1"}, nil
	}
	return m.startFn(provider, redirectTo)
}

func (m *mockSignIn) ExchangeCode(ctx context.Context, code, verifier string) (*auth.Session, error) {
	if m.exchangeFn == nil {
		return &auth.Session{AccessToken: "oauth-token", ExpiresIn: 3600}, nil
	}
	return m.exchangeFn(ctx, code, verifier)
}

func (m *mockSignIn) SignOut(_ context.Context, token string) error {
	m.signedOut = append(m.signedOut, token)
	return nil
}

func withUser(req *http.Request, id string) *http.Request {
	return req.WithContext(middleware.WithUser(req.Context(), &auth.User{ID: id, Email: id + "@example.com"}))
}

func addURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}
