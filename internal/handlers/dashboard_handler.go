package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"aicruiter/internal/export"
	"aicruiter/internal/middleware"
	"aicruiter/internal/models"
	"aicruiter/internal/repositories"
	"aicruiter/internal/web"
)

// DashboardHandler renders the recruiter's posting overview. It sits behind the Access Gate.
type DashboardHandler struct {
	store    repositories.InterviewStore
	renderer *web.Renderer
	siteURL  string
	logger   *zap.Logger
	now      func() time.Time
}

func NewDashboardHandler(store repositories.InterviewStore, renderer *web.Renderer, siteURL string, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{store: store, renderer: renderer, siteURL: siteURL, logger: logger, now: time.Now}
}

func (h *DashboardHandler) DashboardHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "not signed in", http.StatusUnauthorized)
		return
	}

	all, err := h.store.ListForOwner(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("Failed to load dashboard", zap.Error(err), zap.String("user_id", user.ID))
		http.Error(w, "failed to load interviews", http.StatusInternalServerError)
		return
	}
	scheduled, err := h.store.ListScheduled(r.Context(), user.ID, h.now())
	if err != nil {
		h.logger.Error("Failed to load scheduled interviews", zap.Error(err), zap.String("user_id", user.ID))
		http.Error(w, "failed to load interviews", http.StatusInternalServerError)
		return
	}

	page := web.DashboardPage{
		Email:      user.Email,
		Interviews: h.rows(all),
		Scheduled:  h.rows(scheduled),
	}
	if err := h.renderer.Render(w, http.StatusOK, web.PageDashboard, page); err != nil {
		h.logger.Error("Failed to render dashboard", zap.Error(err))
	}
}

func (h *DashboardHandler) rows(interviews []models.Interview) []web.DashboardRow {
	rows := make([]web.DashboardRow, 0, len(interviews))
	for _, iv := range interviews {
		rows = append(rows, web.DashboardRow{
			ID:          iv.ID,
			Role:        iv.Role,
			Duration:    iv.DurationMinutes,
			Types:       iv.TypeTags,
			Questions:   len(iv.Questions),
			Rating:      iv.Rating,
			CreatedAt:   iv.CreatedAt,
			ScheduledAt: iv.ScheduledAt,
			Link:        export.InterviewLink(h.siteURL, iv.ID),
		})
	}
	return rows
}
