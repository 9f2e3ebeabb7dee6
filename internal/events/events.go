package events

import (
	"context"
	"encoding/json"
	"time"

	"aicruiter/internal/apperr"
	"aicruiter/internal/telemetry"
)

// Channel is the Redis channel and NATS subject session events go out on.
const Channel = "interview_sessions"

const (
	TypeSessionStarted    = "session_started"
	TypeSessionCompleted  = "session_completed"
	TypeFeedbackSubmitted = "feedback_submitted"
)

var tracer = telemetry.GetTracer("aicruiter/events")

type Event struct {
	Type           string    `json:"type"`
	SessionID      string    `json:"sessionId,omitempty"`
	PostingID      string    `json:"postingId"`
	CandidateName  string    `json:"candidateName,omitempty"`
	QuestionCount  int       `json:"questionCount,omitempty"`
	Cursor         int       `json:"cursor,omitempty"`
	ElapsedSeconds int       `json:"elapsedSeconds,omitempty"`
	Rating         int       `json:"rating,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// Publisher fans session lifecycle events out to other services. Publishing is
// fire-and-forget from the caller's point of view; failures are returned for logging.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

func marshal(event Event) ([]byte, error) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return nil, apperr.Internal("marshaling event", err)
	}
	return data, nil
}

type noopPublisher struct{}

// NewNoopPublisher drops every event.
func NewNoopPublisher() Publisher { return noopPublisher{} }

func (noopPublisher) Publish(context.Context, Event) error { return nil }
func (noopPublisher) Close() error                          { return nil }
