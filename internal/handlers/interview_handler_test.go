package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"aicruiter/internal/apperr"
	"aicruiter/internal/middleware"
	"aicruiter/internal/models"
	"aicruiter/internal/questions"
	"aicruiter/internal/repositories"
	"aicruiter/internal/testhelpers"
)

func createRoute(h *InterviewHandler) http.Handler {
	return middleware.ValidateRequest[*models.CreateInterviewRequest]()(http.HandlerFunc(h.CreateHandler))
}

func TestCreateHandler_Success(t *testing.T) {
	store := &mockStore{}
	var saved *models.Interview
	store.createFn = func(_ context.Context, interview *models.Interview) (string, error) {
		saved = interview
		interview.ID = "iv-1"
		return "iv-1", nil
	}
	gen := &mockGenerator{}
	h := NewInterviewHandler(store, gen, "http://localhost:8080", zap.NewNop())

	body := `{"jobTitle":"Backend Engineer","jobDescription":"Go services","duration":45,"types":["technical","behavioral"],"numQuestions":3}`
	req := withUser(httptest.NewRequest(http.MethodPost, "/interviews", bytes.NewBufferString(body)), "owner-1")
	rec := httptest.NewRecorder()

	createRoute(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp models.CreateInterviewResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != "iv-1" || len(resp.Questions) != 3 {
		t.Fatalf("unexpected response %+v", resp)
	}
	if saved.OwnerID != "owner-1" || saved.Role != "Backend Engineer" || saved.DurationMinutes != 45 {
		t.Fatalf("unexpected saved interview %+v", saved)
	}
	if len(gen.requests) != 1 || gen.requests[0].Count != 3 || gen.requests[0].Description != "Go services" {
		t.Fatalf("unexpected generator requests %+v", gen.requests)
	}
}

func TestCreateHandler_Defaults(t *testing.T) {
	gen := &mockGenerator{}
	h := NewInterviewHandler(&mockStore{}, gen, "", zap.NewNop())

	req := withUser(httptest.NewRequest(http.MethodPost, "/interviews", bytes.NewBufferString(`{"job":"SRE","description":"on-call"}`)), "owner-1")
	rec := httptest.NewRecorder()
	createRoute(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	got := gen.requests[0]
	if got.Count != models.DefaultQuestionCount || len(got.Types) != 1 || got.Types[0] != "technical" {
		t.Fatalf("expected default count and types, got %+v", got)
	}
}

func TestCreateHandler_ValidationErrors(t *testing.T) {
	h := NewInterviewHandler(&mockStore{}, &mockGenerator{}, "", zap.NewNop())

	cases := map[string]string{
		"missing job":      `{"description":"d"}`,
		"missing desc":     `{"job":"j"}`,
		"too many":         `{"job":"j","description":"d","numQuestions":16}`,
		"zero questions":   `{"job":"j","description":"d","numQuestions":0}`,
		"empty types":      `{"job":"j","description":"d","types":[]}`,
		"negative minutes": `{"job":"j","description":"d","duration":-5}`,
		"invalid json":     `{`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			req := withUser(httptest.NewRequest(http.MethodPost, "/interviews", bytes.NewBufferString(body)), "owner-1")
			rec := httptest.NewRecorder()
			createRoute(h).ServeHTTP(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestCreateHandler_Unauthenticated(t *testing.T) {
	h := NewInterviewHandler(&mockStore{}, &mockGenerator{}, "", zap.NewNop())
	req := httptest.NewRequest(http.MethodPost, "/interviews", bytes.NewBufferString(`{"job":"j","description":"d"}`))
	rec := httptest.NewRecorder()

	createRoute(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestCreateHandler_StoreError(t *testing.T) {
	store := &mockStore{createFn: func(context.Context, *models.Interview) (string, error) {
		return "", apperr.Store("Failed to save interview", errors.New("db down"))
	}}
	h := NewInterviewHandler(store, &mockGenerator{}, "", zap.NewNop())
	req := withUser(httptest.NewRequest(http.MethodPost, "/interviews", bytes.NewBufferString(`{"job":"j","description":"d"}`)), "owner-1")
	rec := httptest.NewRecorder()

	createRoute(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var resp map[string]string
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp["error"] != "Failed to save interview" {
		t.Fatalf("unexpected error body %v", resp)
	}
}

func TestCreateThenReadBack_SQLite(t *testing.T) {
	store := repositories.NewGormStore(testhelpers.SetupTestDB(t))
	gen := &mockGenerator{generateFn: func(_ context.Context, req questions.Request) questions.Result {
		return questions.Result{Questions: []string{"Q1", "Q2"}, Source: questions.SourceLLM}
	}}
	h := NewInterviewHandler(store, gen, "https://recruit.example.com", zap.NewNop())

	req := withUser(httptest.NewRequest(http.MethodPost, "/interviews", bytes.NewBufferString(`{"job":"Backend Engineer","description":"Go","numQuestions":2}`)), "owner-1")
	rec := httptest.NewRecorder()
	createRoute(h).ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created models.CreateInterviewResponse
	json.NewDecoder(rec.Body).Decode(&created)

	req = addURLParam(withUser(httptest.NewRequest(http.MethodGet, "/interviews/"+created.ID+"/link", nil), "owner-1"), "id", created.ID)
	rec = httptest.NewRecorder()
	h.LinkHandler(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var link models.InterviewLinkResponse
	json.NewDecoder(rec.Body).Decode(&link)
	if link.Link != "https://recruit.example.com/interview/"+created.ID {
		t.Fatalf("unexpected link %q", link.Link)
	}

	// another recruiter cannot see it
	req = addURLParam(withUser(httptest.NewRequest(http.MethodGet, "/interviews/"+created.ID, nil), "owner-2"), "id", created.ID)
	rec = httptest.NewRecorder()
	h.GetHandler(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for another owner, got %d", rec.Code)
	}
}

func TestListAndScheduledHandlers(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	var scheduledAfter time.Time
	store := &mockStore{
		listFn: func(_ context.Context, ownerID string) ([]models.Interview, error) {
			return []models.Interview{{ID: "a", OwnerID: ownerID}, {ID: "b", OwnerID: ownerID}}, nil
		},
		listScheduledFn: func(_ context.Context, ownerID string, after time.Time) ([]models.Interview, error) {
			scheduledAfter = after
			return []models.Interview{{ID: "c", OwnerID: ownerID}}, nil
		},
	}
	h := NewInterviewHandler(store, &mockGenerator{}, "", zap.NewNop())
	h.now = func() time.Time { return now }

	rec := httptest.NewRecorder()
	h.ListHandler(rec, withUser(httptest.NewRequest(http.MethodGet, "/interviews", nil), "owner-1"))
	var list []models.Interview
	json.NewDecoder(rec.Body).Decode(&list)
	if rec.Code != http.StatusOK || len(list) != 2 {
		t.Fatalf("unexpected list response %d %v", rec.Code, list)
	}

	rec = httptest.NewRecorder()
	h.ScheduledHandler(rec, withUser(httptest.NewRequest(http.MethodGet, "/interviews/scheduled", nil), "owner-1"))
	if rec.Code != http.StatusOK || !scheduledAfter.Equal(now) {
		t.Fatalf("expected scheduled lookup after %s, got %s (status %d)", now, scheduledAfter, rec.Code)
	}

	store.listFn = func(context.Context, string) ([]models.Interview, error) {
		return nil, apperr.Store("Failed to load interviews", errors.New("boom"))
	}
	rec = httptest.NewRecorder()
	h.ListHandler(rec, withUser(httptest.NewRequest(http.MethodGet, "/interviews", nil), "owner-1"))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestExportHandler(t *testing.T) {
	rating := 5
	store := &mockStore{listFn: func(context.Context, string) ([]models.Interview, error) {
		return []models.Interview{{ID: "a", Role: "SRE", Questions: []string{"Q1"}, Rating: &rating, CreatedAt: time.Now()}}, nil
	}}
	h := NewInterviewHandler(store, &mockGenerator{}, "http://localhost", zap.NewNop())

	rec := httptest.NewRecorder()
	h.ExportHandler(rec, withUser(httptest.NewRequest(http.MethodGet, "/interviews/export.xlsx", nil), "owner-1"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Fatalf("unexpected content type %q", ct)
	}
	// xlsx files are zip archives
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")) {
		t.Fatal("expected a zip payload")
	}
}
