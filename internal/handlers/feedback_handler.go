package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"aicruiter/internal/apperr"
	"aicruiter/internal/middleware"
	"aicruiter/internal/models"
	"aicruiter/internal/utils"
)

// FeedbackSubmitter is satisfied by *feedback.Service.
type FeedbackSubmitter interface {
	Submit(ctx context.Context, feedback models.Feedback) error
}

type FeedbackHandler struct {
	service FeedbackSubmitter
	logger  *zap.Logger
}

func NewFeedbackHandler(service FeedbackSubmitter, logger *zap.Logger) *FeedbackHandler {
	return &FeedbackHandler{service: service, logger: logger}
}

// SubmitFeedback is public: candidates are never signed in.
func (h *FeedbackHandler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	req := middleware.GetValidatedRequest[*models.FeedbackRequest](r)
	id := chi.URLParam(r, "id")

	err := h.service.Submit(r.Context(), models.Feedback{
		PostingID:     id,
		Rating:        req.Rating,
		Comments:      req.Comments,
		CandidateName: req.CandidateName,
	})
	if err != nil {
		if apperr.HTTPStatus(err) >= http.StatusInternalServerError {
			h.logger.Error("Failed to save feedback", zap.Error(err), zap.String("interview_id", id))
		}
		utils.JSON(w, apperr.HTTPStatus(err), models.FeedbackResponse{Error: apperr.UserMessage(err)})
		return
	}

	utils.JSON(w, http.StatusOK, models.FeedbackResponse{OK: true})
}
