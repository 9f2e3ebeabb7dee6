package repositories

import (
	"context"
	"errors"
	"time"

	"aicruiter/internal/apperr"
	"aicruiter/internal/models"
	"aicruiter/internal/questions"
	"aicruiter/internal/telemetry"
)

var tracer = telemetry.GetTracer("aicruiter/repositories")

var ErrInterviewNotFound = errors.New("interview not found")

// InterviewStore persists postings and their feedback. An ownerID filter on Get
// turns another owner's posting into NotFound; an empty ownerID reads without a filter.
type InterviewStore interface {
	Create(ctx context.Context, interview *models.Interview) (string, error)
	Get(ctx context.Context, id, ownerID string) (*models.Interview, error)
	ListForOwner(ctx context.Context, ownerID string) ([]models.Interview, error)
	ListScheduled(ctx context.Context, ownerID string, after time.Time) ([]models.Interview, error)
	AppendFeedback(ctx context.Context, postingID string, feedback models.Feedback) error
	UpdateRatingMirror(ctx context.Context, postingID string, rating int) error
	Ping(ctx context.Context) error
}

func notFound() error {
	return apperr.New(apperr.KindNotFound, "interview not found", ErrInterviewNotFound)
}

// toDomain is the single place stored rows become postings.
func toDomain(record models.InterviewRecord) models.Interview {
	return models.Interview{
		ID:              record.ID,
		OwnerID:         record.OwnerID,
		Role:            record.Job,
		Description:     record.Description,
		DurationMinutes: record.Duration,
		TypeTags:        record.Types,
		Questions:       questions.Normalize(record.Questions),
		Rating:          record.Rating,
		CreatedAt:       record.CreatedAt,
		ScheduledAt:     record.ScheduledAt,
	}
}

func toRecord(interview *models.Interview) models.InterviewRecord {
	return models.InterviewRecord{
		ID:          interview.ID,
		OwnerID:     interview.OwnerID,
		Job:         interview.Role,
		Description: interview.Description,
		Duration:    interview.DurationMinutes,
		Types:       interview.TypeTags,
		Questions:   questions.Encode(interview.Questions),
		Rating:      interview.Rating,
		CreatedAt:   interview.CreatedAt,
		ScheduledAt: interview.ScheduledAt,
	}
}

func prepareForCreate(interview *models.Interview, newID func() string, now time.Time) error {
	if interview.OwnerID == "" {
		return apperr.Validation("owner is required")
	}
	if len(interview.Questions) == 0 {
		return apperr.Validation("an interview needs at least one question")
	}
	if interview.ID == "" {
		interview.ID = newID()
	}
	if interview.CreatedAt.IsZero() {
		interview.CreatedAt = now
	}
	return nil
}
