package repositories

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
	supabase "github.com/nedpals/supabase-go"

	"aicruiter/internal/apperr"
	"aicruiter/internal/models"
	"aicruiter/internal/questions"
	"aicruiter/internal/telemetry"
)

const (
	interviewsTable = "interviews"
	feedbackTable   = "interview_feedback"
)

// SupabaseStore persists through the hosted PostgREST API. It is expected to run
// with a service key; owner isolation is the explicit user_id filter.
type SupabaseStore struct {
	client *supabase.Client
}

// questions is jsonb upstream but older rows hold text, so it is read raw
type supabaseInterviewRow struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Job         string          `json:"job"`
	Description string          `json:"description"`
	Duration    int             `json:"duration"`
	Types       []string        `json:"types"`
	Questions   json.RawMessage `json:"questions"`
	Rating      *int            `json:"rating,omitempty"`
	CreatedAt   *time.Time      `json:"created_at,omitempty"`
	ScheduledAt *time.Time      `json:"scheduled_at,omitempty"`
}

type supabaseFeedbackRow struct {
	InterviewID   string `json:"interview_id"`
	Rating        int    `json:"rating"`
	Comments      string `json:"comments,omitempty"`
	CandidateName string `json:"candidate_name,omitempty"`
}

func NewSupabaseStore(client *supabase.Client) *SupabaseStore {
	return &SupabaseStore{client: client}
}

func (s *SupabaseStore) Create(ctx context.Context, interview *models.Interview) (string, error) {
	_, span := tracer.Start(ctx, "SupabaseStore.Create")
	defer span.End()

	if err := prepareForCreate(interview, func() string { return uuid.New().String() }, time.Now().UTC()); err != nil {
		return "", err
	}
	span.SetAttributes(telemetry.String("interview_id", interview.ID))

	createdAt := interview.CreatedAt
	row := supabaseInterviewRow{
		ID:          interview.ID,
		UserID:      interview.OwnerID,
		Job:         interview.Role,
		Description: interview.Description,
		Duration:    interview.DurationMinutes,
		Types:       interview.TypeTags,
		Questions:   json.RawMessage(questions.Encode(interview.Questions)),
		CreatedAt:   &createdAt,
		ScheduledAt: interview.ScheduledAt,
	}

	var inserted []supabaseInterviewRow
	if err := s.client.DB.From(interviewsTable).Insert(row).Execute(&inserted); err != nil {
		span.RecordError(err)
		return "", apperr.Store("failed to save interview", err)
	}
	if len(inserted) > 0 && inserted[0].ID != "" {
		return inserted[0].ID, nil
	}
	return row.ID, nil
}

func (s *SupabaseStore) Get(ctx context.Context, id, ownerID string) (*models.Interview, error) {
	query := s.client.DB.From(interviewsTable).Select("*").Eq("id", id)
	if ownerID != "" {
		query = query.Eq("user_id", ownerID)
	}

	var rows []supabaseInterviewRow
	if err := query.Execute(&rows); err != nil {
		return nil, apperr.Store("failed to load interview", err)
	}
	if len(rows) == 0 {
		return nil, notFound()
	}
	interview := rows[0].toDomain()
	return &interview, nil
}

func (s *SupabaseStore) ListForOwner(ctx context.Context, ownerID string) ([]models.Interview, error) {
	rows, err := s.listRows(ownerID)
	if err != nil {
		return nil, apperr.Store("failed to list interviews", err)
	}

	out := make([]models.Interview, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *SupabaseStore) ListScheduled(ctx context.Context, ownerID string, after time.Time) ([]models.Interview, error) {
	rows, err := s.listRows(ownerID)
	if err != nil {
		return nil, apperr.Store("failed to list scheduled interviews", err)
	}

	out := make([]models.Interview, 0)
	for _, row := range rows {
		if row.ScheduledAt != nil && row.ScheduledAt.After(after) {
			out = append(out, row.toDomain())
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ScheduledAt.Before(*out[j].ScheduledAt) })
	return out, nil
}

func (s *SupabaseStore) AppendFeedback(ctx context.Context, postingID string, feedback models.Feedback) error {
	_, span := tracer.Start(ctx, "SupabaseStore.AppendFeedback")
	defer span.End()
	span.SetAttributes(telemetry.String("interview_id", postingID))

	row := supabaseFeedbackRow{
		InterviewID:   postingID,
		Rating:        feedback.Rating,
		Comments:      feedback.Comments,
		CandidateName: feedback.CandidateName,
	}
	var inserted []supabaseFeedbackRow
	if err := s.client.DB.From(feedbackTable).Insert(row).Execute(&inserted); err != nil {
		span.RecordError(err)
		return apperr.Store("failed to save feedback", err)
	}
	return nil
}

func (s *SupabaseStore) UpdateRatingMirror(ctx context.Context, postingID string, rating int) error {
	var updated []supabaseInterviewRow
	err := s.client.DB.From(interviewsTable).
		Update(map[string]any{"rating": rating}).
		Eq("id", postingID).
		Execute(&updated)
	if err != nil {
		return apperr.Store("failed to update interview rating", err)
	}
	if len(updated) == 0 {
		return notFound()
	}
	return nil
}

func (s *SupabaseStore) Ping(ctx context.Context) error {
	var rows []map[string]any
	return s.client.DB.From(interviewsTable).Select("id").Eq("id", uuid.Nil.String()).Execute(&rows)
}

func (s *SupabaseStore) listRows(ownerID string) ([]supabaseInterviewRow, error) {
	var rows []supabaseInterviewRow
	err := s.client.DB.From(interviewsTable).Select("*").Eq("user_id", ownerID).Execute(&rows)
	return rows, err
}

func (r supabaseInterviewRow) toDomain() models.Interview {
	interview := models.Interview{
		ID:              r.ID,
		OwnerID:         r.UserID,
		Role:            r.Job,
		Description:     r.Description,
		DurationMinutes: r.Duration,
		TypeTags:        r.Types,
		Questions:       questions.NormalizeJSON(r.Questions),
		Rating:          r.Rating,
		ScheduledAt:     r.ScheduledAt,
	}
	if r.CreatedAt != nil {
		interview.CreatedAt = *r.CreatedAt
	}
	return interview
}
