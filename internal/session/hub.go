package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"aicruiter/internal/events"
	"aicruiter/internal/metrics"
	"aicruiter/internal/models"
)

const publishTimeout = 5 * time.Second

// Hub tracks the live sessions of this process, one controller per candidate connection.
type Hub struct {
	mu        sync.RWMutex
	sessions  map[string]*Controller
	publisher events.Publisher
	clock     clockwork.Clock
	logger    *zap.Logger
	newID     func() string
}

func NewHub(publisher events.Publisher, clock clockwork.Clock, logger *zap.Logger) *Hub {
	if publisher == nil {
		publisher = events.NewNoopPublisher()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Hub{
		sessions:  make(map[string]*Controller),
		publisher: publisher,
		clock:     clock,
		logger:    logger,
		newID:     func() string { return uuid.New().String() },
	}
}

type OpenParams struct {
	Posting     *models.Interview
	AssistantID string
	Channel     Channel
	Feedback    FeedbackWriter
}

// Open creates and registers a controller with its own Voice Channel.
func (h *Hub) Open(p OpenParams) *Controller {
	c := NewController(Config{
		ID:          h.newID(),
		PostingID:   p.Posting.ID,
		AssistantID: p.AssistantID,
		Questions:   p.Posting.Questions,
	}, p.Channel, p.Feedback, h.clock, h.logger)
	c.OnChange(h.observe)

	h.mu.Lock()
	h.sessions[c.ID()] = c
	h.mu.Unlock()

	metrics.SessionOpened()
	return c
}

func (h *Hub) Get(id string) (*Controller, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.sessions[id]
	return c, ok
}

// Remove closes and forgets a session. Removing an unknown id is a no-op.
func (h *Hub) Remove(id string) {
	h.mu.Lock()
	c, ok := h.sessions[id]
	delete(h.sessions, id)
	h.mu.Unlock()

	if ok {
		c.Close()
		metrics.SessionClosed()
	}
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// EvictFinished removes sessions that have been Done for at least retention.
// Sessions in any other phase are left alone.
func (h *Hub) EvictFinished(retention time.Duration) []string {
	h.mu.RLock()
	controllers := make([]*Controller, 0, len(h.sessions))
	for _, c := range h.sessions {
		controllers = append(controllers, c)
	}
	h.mu.RUnlock()

	now := h.clock.Now()
	var evicted []string
	for _, c := range controllers {
		snap := c.Snapshot()
		if snap.Phase != PhaseDone || now.Sub(snap.CompletedAt) < retention {
			continue
		}
		h.Remove(snap.ID)
		evicted = append(evicted, snap.ID)
	}
	return evicted
}

// CloseAll is used on shutdown.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	ids := make([]string, 0, len(h.sessions))
	for id := range h.sessions {
		ids = append(ids, id)
	}
	h.mu.RUnlock()

	for _, id := range ids {
		h.Remove(id)
	}
}

func (h *Hub) observe(prev Phase, snap Snapshot) {
	if prev == snap.Phase {
		return
	}
	metrics.SessionTransition(string(snap.Phase))

	event := events.Event{
		SessionID:     snap.ID,
		PostingID:     snap.PostingID,
		CandidateName: snap.Candidate,
		QuestionCount: snap.QuestionCount,
		Timestamp:     h.clock.Now().UTC(),
	}
	switch snap.Phase {
	case PhaseInCall:
		event.Type = events.TypeSessionStarted
	case PhaseDone:
		event.Type = events.TypeSessionCompleted
		event.Cursor = snap.Cursor
		event.ElapsedSeconds = snap.ElapsedSeconds
	default:
		return
	}
	// listeners run under the controller lock
	go h.publish(event)
}

func (h *Hub) publish(event events.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := h.publisher.Publish(ctx, event); err != nil {
		h.logger.Warn("failed to publish session event",
			zap.String("type", event.Type),
			zap.String("session_id", event.SessionID),
			zap.Error(err))
	}
}
