package feedback

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"aicruiter/internal/apperr"
	"aicruiter/internal/events"
	"aicruiter/internal/metrics"
	"aicruiter/internal/models"
	"aicruiter/internal/repositories"
	"aicruiter/internal/telemetry"
)

const (
	ResultAccepted = "accepted"
	ResultRejected = "rejected"
	ResultFailed   = "failed"
)

var tracer = telemetry.GetTracer("aicruiter/feedback")

// Service records candidate feedback. The append is the write of record; the
// rating mirror and the event are best-effort.
type Service struct {
	store     repositories.InterviewStore
	publisher events.Publisher
	logger    *zap.Logger
}

func NewService(store repositories.InterviewStore, publisher events.Publisher, logger *zap.Logger) *Service {
	if publisher == nil {
		publisher = events.NewNoopPublisher()
	}
	return &Service{store: store, publisher: publisher, logger: logger}
}

func (s *Service) Submit(ctx context.Context, feedback models.Feedback) error {
	ctx, span := tracer.Start(ctx, "feedback.Submit")
	defer span.End()
	span.SetAttributes(
		telemetry.String("interview_id", feedback.PostingID),
		telemetry.Int("rating", feedback.Rating),
	)

	if !models.ValidRating(feedback.Rating) {
		metrics.FeedbackSubmitted(ResultRejected)
		return apperr.Validation("Rating must be between 1 and 5")
	}
	feedback.Comments = strings.TrimSpace(feedback.Comments)
	feedback.CandidateName = strings.TrimSpace(feedback.CandidateName)

	if _, err := s.store.Get(ctx, feedback.PostingID, ""); err != nil {
		if !apperr.IsKind(err, apperr.KindNotFound) {
			metrics.FeedbackSubmitted(ResultFailed)
			span.RecordError(err)
		} else {
			metrics.FeedbackSubmitted(ResultRejected)
		}
		return err
	}

	if err := s.store.AppendFeedback(ctx, feedback.PostingID, feedback); err != nil {
		metrics.FeedbackSubmitted(ResultFailed)
		span.RecordError(err)
		s.logger.Error("failed to save feedback",
			zap.String("interview_id", feedback.PostingID),
			zap.Error(err))
		return err
	}

	if err := s.store.UpdateRatingMirror(ctx, feedback.PostingID, feedback.Rating); err != nil {
		s.logger.Warn("failed to mirror rating onto interview",
			zap.String("interview_id", feedback.PostingID),
			zap.Int("rating", feedback.Rating),
			zap.Error(err))
	}

	if err := s.publisher.Publish(ctx, events.Event{
		Type:          events.TypeFeedbackSubmitted,
		PostingID:     feedback.PostingID,
		CandidateName: feedback.CandidateName,
		Rating:        feedback.Rating,
	}); err != nil {
		s.logger.Warn("failed to publish feedback event",
			zap.String("interview_id", feedback.PostingID),
			zap.Error(err))
	}

	metrics.FeedbackSubmitted(ResultAccepted)
	s.logger.Info("feedback recorded",
		zap.String("interview_id", feedback.PostingID),
		zap.Int("rating", feedback.Rating))
	return nil
}
