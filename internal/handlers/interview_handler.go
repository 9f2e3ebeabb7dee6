package handlers

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"aicruiter/internal/export"
	"aicruiter/internal/middleware"
	"aicruiter/internal/models"
	"aicruiter/internal/questions"
	"aicruiter/internal/repositories"
	"aicruiter/internal/utils"
)

// QuestionGenerator is satisfied by *questions.Generator.
type QuestionGenerator interface {
	Generate(ctx context.Context, req questions.Request) questions.Result
	HasSource() bool
}

type InterviewHandler struct {
	store     repositories.InterviewStore
	generator QuestionGenerator
	siteURL   string
	logger    *zap.Logger
	now       func() time.Time
}

func NewInterviewHandler(store repositories.InterviewStore, generator QuestionGenerator, siteURL string, logger *zap.Logger) *InterviewHandler {
	return &InterviewHandler{
		store:     store,
		generator: generator,
		siteURL:   siteURL,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateHandler generates the question sequence and stores the posting for the caller.
func (h *InterviewHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	req := middleware.GetValidatedRequest[*models.CreateInterviewRequest](r)
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		utils.JSONError(w, http.StatusUnauthorized, "Not signed in")
		return
	}

	result := h.generator.Generate(r.Context(), questions.Request{
		Role:        req.Job,
		Description: req.Description,
		Types:       req.Types,
		Count:       *req.NumQuestions,
	})

	interview := &models.Interview{
		OwnerID:         user.ID,
		Role:            req.Job,
		Description:     req.Description,
		DurationMinutes: *req.Duration,
		TypeTags:        req.Types,
		Questions:       result.Questions,
		ScheduledAt:     req.ScheduledAt,
	}
	id, err := h.store.Create(r.Context(), interview)
	if err != nil {
		h.logger.Error("Failed to save interview", zap.Error(err), zap.String("user_id", user.ID))
		writeError(w, err)
		return
	}

	h.logger.Info("Interview created",
		zap.String("interview_id", id),
		zap.String("source", result.Source),
		zap.Int("questions", len(result.Questions)))

	utils.JSON(w, http.StatusCreated, models.CreateInterviewResponse{ID: id, Questions: interview.Questions})
}

func (h *InterviewHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	interviews, err := h.store.ListForOwner(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("Failed to list interviews", zap.Error(err), zap.String("user_id", user.ID))
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, interviews)
}

func (h *InterviewHandler) ScheduledHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	interviews, err := h.store.ListScheduled(r.Context(), user.ID, h.now())
	if err != nil {
		h.logger.Error("Failed to list scheduled interviews", zap.Error(err), zap.String("user_id", user.ID))
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, interviews)
}

func (h *InterviewHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	interview, ok := h.ownedInterview(w, r)
	if !ok {
		return
	}
	utils.JSON(w, http.StatusOK, interview)
}

func (h *InterviewHandler) LinkHandler(w http.ResponseWriter, r *http.Request) {
	interview, ok := h.ownedInterview(w, r)
	if !ok {
		return
	}
	utils.JSON(w, http.StatusOK, models.InterviewLinkResponse{
		ID:       interview.ID,
		Link:     export.InterviewLink(h.siteURL, interview.ID),
		Duration: interview.DurationMinutes,
		Types:    interview.TypeTags,
	})
}

// ExportHandler streams the caller's postings as a spreadsheet.
func (h *InterviewHandler) ExportHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	interviews, err := h.store.ListForOwner(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("Failed to list interviews for export", zap.Error(err), zap.String("user_id", user.ID))
		writeError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteInterviews(&buf, interviews, h.siteURL); err != nil {
		h.logger.Error("Failed to build spreadsheet", zap.Error(err))
		utils.JSONError(w, http.StatusInternalServerError, "Failed to export interviews")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="interviews.xlsx"`)
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

func (h *InterviewHandler) ownedInterview(w http.ResponseWriter, r *http.Request) (*models.Interview, bool) {
	user, _ := middleware.UserFromContext(r.Context())
	id := chi.URLParam(r, "id")
	interview, err := h.store.Get(r.Context(), id, user.ID)
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return interview, true
}
