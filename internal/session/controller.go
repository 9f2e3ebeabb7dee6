package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"aicruiter/internal/apperr"
	"aicruiter/internal/models"
)

const (
	ClosingLine  = "Thank you for your time. Goodbye!"
	tickInterval = time.Second
)

func Greeting(name, firstQuestion string) string {
	return fmt.Sprintf("Hello %s. Let's begin. %s", name, firstQuestion)
}

type Config struct {
	ID          string
	PostingID   string
	AssistantID string
	Questions   []string
}

// Controller drives one candidate through a posting's questions. Every state
// mutation happens under mu, so channel events, timer ticks and candidate
// actions are applied one at a time.
type Controller struct {
	id          string
	postingID   string
	assistantID string
	questions   []string
	channel     Channel
	feedback    FeedbackWriter
	clock       clockwork.Clock
	logger      *zap.Logger

	mu           sync.Mutex
	stage        stage
	generation   int
	sub          Subscription
	ticker       clockwork.Ticker
	tickStop     chan struct{}
	cursor       int
	closing      bool
	elapsed      int
	candidate    string
	lastErr      string
	feedbackSent bool
	completedAt  time.Time
	closed       bool
	listeners    []Listener
}

func NewController(cfg Config, channel Channel, feedback FeedbackWriter, clock clockwork.Clock, logger *zap.Logger) *Controller {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	questions := make([]string, len(cfg.Questions))
	copy(questions, cfg.Questions)

	return &Controller{
		id:          cfg.ID,
		postingID:   cfg.PostingID,
		assistantID: cfg.AssistantID,
		questions:   questions,
		channel:     channel,
		feedback:    feedback,
		clock:       clock,
		logger:      logger.With(zap.String("session_id", cfg.ID), zap.String("interview_id", cfg.PostingID)),
	}
}

func (c *Controller) ID() string        { return c.id }
func (c *Controller) PostingID() string { return c.postingID }

// OnChange registers a listener for every subsequent state change.
func (c *Controller) OnChange(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Join asks the Voice Channel to start a call for the named candidate. It
// returns once the start command is issued; InCall is entered on call-start.
// A Join while a call is starting or active is a no-op.
func (c *Controller) Join(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)

	c.mu.Lock()
	proceed, err := c.checkJoinLocked(name)
	if err != nil {
		c.surfaceLocked(c.stage.phase(), err)
		c.mu.Unlock()
		return err
	}
	if !proceed {
		c.mu.Unlock()
		return nil
	}

	prev := c.stage.phase()
	c.generation++
	gen := c.generation
	c.stage = stageConnecting
	c.candidate = name
	c.lastErr = ""
	c.sub = c.channel.Subscribe(func(ev Event) { c.handleEvent(gen, ev) })
	c.notifyLocked(prev)
	c.mu.Unlock()

	c.logger.Info("starting call", zap.String("candidate", name))

	if err := c.channel.Start(ctx, c.assistantID); err != nil {
		chErr := apperr.Channel("Could not start the call. Please try again.", err)
		c.mu.Lock()
		if c.generation == gen && c.stage == stageConnecting {
			prev := c.stage.phase()
			c.resetLocked()
			c.surfaceLocked(prev, chErr)
		}
		c.mu.Unlock()
		c.logger.Warn("call start failed", zap.Error(err))
		return chErr
	}
	return nil
}

func (c *Controller) checkJoinLocked(name string) (bool, error) {
	switch {
	case c.closed:
		return false, apperr.Validation("session is closed")
	case c.stage == stageDone:
		return false, apperr.Validation("interview already completed")
	case c.stage == stageConnecting || c.stage == stageInCall:
		return false, nil
	case name == "":
		return false, apperr.Validation("Please enter your name")
	case len(c.questions) == 0:
		return false, apperr.Validation("This interview has no questions")
	}
	return true, nil
}

// End asks the Voice Channel to stop. Done is still entered only on call-end.
func (c *Controller) End(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stage != stageInCall {
		return nil
	}
	if err := c.channel.Stop(ctx); err != nil {
		chErr := apperr.Channel("Could not end the call", err)
		c.surfaceLocked(c.stage.phase(), chErr)
		return chErr
	}
	return nil
}

// SubmitFeedback writes the candidate's rating. It is only accepted in Done and
// does not guard against a repeated write.
func (c *Controller) SubmitFeedback(ctx context.Context, rating int, comments string) error {
	c.mu.Lock()
	var invalid error
	switch {
	case c.stage != stageDone:
		invalid = apperr.Validation("Feedback can be submitted once the interview has ended")
	case !models.ValidRating(rating):
		invalid = apperr.Validation("Please select a rating between 1 and 5")
	}
	if invalid != nil {
		c.surfaceLocked(c.stage.phase(), invalid)
		c.mu.Unlock()
		return invalid
	}
	feedback := models.Feedback{
		PostingID:     c.postingID,
		Rating:        rating,
		Comments:      strings.TrimSpace(comments),
		CandidateName: c.candidate,
	}
	c.mu.Unlock()

	err := c.feedback.Submit(ctx, feedback)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.surfaceLocked(c.stage.phase(), err)
		return err
	}
	c.feedbackSent = true
	c.lastErr = ""
	c.notifyLocked(c.stage.phase())
	return nil
}

// Close detaches the controller from its channel. Later events are ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.generation++
	c.stopTickerLocked()
	c.releaseLocked()
}

func (c *Controller) handleEvent(gen int, ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation || c.closed {
		return
	}

	prev := c.stage.phase()
	var changed bool
	switch ev.Kind {
	case EventCallStart:
		changed = c.onCallStartLocked(gen)
	case EventTranscript:
		changed = c.onTranscriptLocked(ev.Transcript)
	case EventCallEnd:
		changed = c.onCallEndLocked()
	case EventError:
		changed = c.onErrorLocked(ev.Message)
	}
	if changed {
		c.notifyLocked(prev)
	}
}

func (c *Controller) onCallStartLocked(gen int) bool {
	if c.stage != stageConnecting {
		return false
	}

	ctx := context.Background()
	if err := c.channel.SetMuted(ctx, false); err != nil {
		c.lastErr = apperr.UserMessage(apperr.Channel("Could not unmute the call", err))
	}
	if err := c.channel.Say(ctx, Greeting(c.candidate, c.questions[0]), false); err != nil {
		c.lastErr = apperr.UserMessage(apperr.Channel("Could not speak the first question", err))
	}

	c.cursor = 0
	c.closing = false
	c.elapsed = 0
	c.stage = stageInCall
	c.startTickerLocked(gen)
	c.logger.Info("call started", zap.Int("question_count", len(c.questions)))
	return true
}

// one user final = one answered question
func (c *Controller) onTranscriptLocked(t Transcript) bool {
	if c.stage != stageInCall || c.closing || !t.IsFinal || t.Role != RoleUser {
		return false
	}

	c.cursor++
	ctx := context.Background()
	var err error
	if c.cursor < len(c.questions) {
		err = c.channel.Say(ctx, c.questions[c.cursor], false)
	} else {
		c.closing = true
		err = c.channel.Say(ctx, ClosingLine, true)
	}
	if err != nil {
		c.lastErr = apperr.UserMessage(apperr.Channel("Could not speak the next question", err))
	}
	return true
}

func (c *Controller) onCallEndLocked() bool {
	switch c.stage {
	case stageInCall:
		c.stage = stageDone
		c.stopTickerLocked()
		c.releaseLocked()
		c.completedAt = c.clock.Now()
		c.logger.Info("call ended",
			zap.Int("cursor", c.cursor),
			zap.Int("elapsed_seconds", c.elapsed))
		return true
	case stageConnecting:
		c.resetLocked()
		c.lastErr = apperr.UserMessage(apperr.Channel("The call ended before it started. Please try again.", nil))
		return true
	}
	return false
}

func (c *Controller) onErrorLocked(message string) bool {
	message = strings.TrimSpace(message)
	if message == "" {
		message = "Voice connection error"
	}
	c.logger.Warn("voice channel error", zap.String("message", message))

	c.lastErr = message
	if c.stage == stageConnecting {
		c.resetLocked()
	}
	return true
}

func (c *Controller) tick(gen int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation || c.stage != stageInCall {
		return
	}
	c.elapsed++
	c.notifyLocked(PhaseInCall)
}

func (c *Controller) startTickerLocked(gen int) {
	ticker := c.clock.NewTicker(tickInterval)
	stop := make(chan struct{})
	c.ticker = ticker
	c.tickStop = stop

	go func() {
		for {
			select {
			case <-stop:
				return
			case <-ticker.Chan():
				c.tick(gen)
			}
		}
	}()
}

func (c *Controller) stopTickerLocked() {
	if c.ticker == nil {
		return
	}
	c.ticker.Stop()
	close(c.tickStop)
	c.ticker = nil
	c.tickStop = nil
}

// resetLocked drops the latch and returns to idle Join so the candidate can retry.
func (c *Controller) resetLocked() {
	c.stage = stageIdle
	c.releaseLocked()
}

func (c *Controller) releaseLocked() {
	if c.sub != nil {
		c.sub.Release()
		c.sub = nil
	}
}

func (c *Controller) surfaceLocked(prev Phase, err error) {
	c.lastErr = apperr.UserMessage(err)
	c.notifyLocked(prev)
}

func (c *Controller) notifyLocked(prev Phase) {
	if len(c.listeners) == 0 {
		return
	}
	snap := c.snapshotLocked()
	for _, l := range c.listeners {
		l(prev, snap)
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:             c.id,
		PostingID:      c.postingID,
		Phase:          c.stage.phase(),
		Cursor:         c.cursor,
		ElapsedSeconds: c.elapsed,
		CallActive:     c.stage == stageConnecting || c.stage == stageInCall,
		QuestionCount:  len(c.questions),
		Candidate:      c.candidate,
		Error:          c.lastErr,
		FeedbackSent:   c.feedbackSent,
		CompletedAt:    c.completedAt,
	}
	if c.stage == stageInCall && c.cursor < len(c.questions) {
		snap.CurrentQuestion = c.questions[c.cursor]
	}
	return snap
}
