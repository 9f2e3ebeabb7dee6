package session

import (
	"context"
	"time"

	"aicruiter/internal/models"
)

// Phase is what the candidate page renders.
type Phase string

const (
	PhaseJoin   Phase = "join"
	PhaseInCall Phase = "call"
	PhaseDone   Phase = "done"
)

// stage is the controller's internal state. stageConnecting is the held
// re-entrancy latch: a start command is out and call-start has not arrived.
type stage int

const (
	stageIdle stage = iota
	stageConnecting
	stageInCall
	stageDone
)

func (s stage) phase() Phase {
	switch s {
	case stageInCall:
		return PhaseInCall
	case stageDone:
		return PhaseDone
	default:
		return PhaseJoin
	}
}

type EventKind string

const (
	EventCallStart  EventKind = "call-start"
	EventCallEnd    EventKind = "call-end"
	EventTranscript EventKind = "transcript"
	EventError      EventKind = "error"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Transcript struct {
	Role    string `json:"role"`
	IsFinal bool   `json:"isFinal"`
	Text    string `json:"text"`
}

// Event is one signal from the Voice Channel.
type Event struct {
	Kind       EventKind  `json:"event"`
	Transcript Transcript `json:"transcript"`
	Message    string     `json:"message,omitempty"`
}

// Subscription is a registered event handler. Release is idempotent.
type Subscription interface {
	Release()
}

// Channel is the per-session Voice Channel. Implementations must deliver events
// from their own goroutine, never from inside a command call. Commands are
// issued under the controller lock, so they must not wait on the remote peer.
type Channel interface {
	Start(ctx context.Context, assistantID string) error
	Stop(ctx context.Context) error
	SetMuted(ctx context.Context, muted bool) error
	Say(ctx context.Context, text string, endCallAfter bool) error
	Subscribe(handler func(Event)) Subscription
}

// FeedbackWriter persists a finished session's rating.
type FeedbackWriter interface {
	Submit(ctx context.Context, feedback models.Feedback) error
}

// Snapshot is a read-only copy of a session's state.
type Snapshot struct {
	ID              string    `json:"id"`
	PostingID       string    `json:"postingId"`
	Phase           Phase     `json:"phase"`
	Cursor          int       `json:"cursor"`
	ElapsedSeconds  int       `json:"elapsedSeconds"`
	CallActive      bool      `json:"callActive"`
	CurrentQuestion string    `json:"currentQuestion,omitempty"`
	QuestionCount   int       `json:"questionCount"`
	Candidate       string    `json:"candidate,omitempty"`
	Error           string    `json:"error,omitempty"`
	FeedbackSent    bool      `json:"feedbackSent"`
	CompletedAt     time.Time `json:"-"`
}

// Listener observes every state change. It runs under the controller lock and
// must neither block nor call back into the controller.
type Listener func(prev Phase, snap Snapshot)
