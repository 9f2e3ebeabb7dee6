package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"aicruiter/internal/apperr"
	"aicruiter/internal/models"
)

type harness struct {
	controller *Controller
	channel    *fakeChannel
	feedback   *fakeFeedback
	clock      *clockwork.FakeClock
}

func newHarness(t *testing.T, questions ...string) *harness {
	t.Helper()
	h := &harness{
		channel:  newFakeChannel(),
		feedback: &fakeFeedback{},
		clock:    newFakeClock(),
	}
	h.controller = NewController(Config{
		ID:          "session-1",
		PostingID:   "posting-1",
		AssistantID: "assistant-1",
		Questions:   questions,
	}, h.channel, h.feedback, h.clock, zap.NewNop())
	t.Cleanup(h.controller.Close)
	return h
}

// inCall joins as name and delivers call-start.
func (h *harness) inCall(t *testing.T, name string) {
	t.Helper()
	require.NoError(t, h.controller.Join(context.Background(), name))
	h.channel.emit(Event{Kind: EventCallStart})
	require.Equal(t, PhaseInCall, h.controller.Snapshot().Phase)
}

// tickSeconds advances the fake clock one second at a time and waits for the
// elapsed counter to catch up.
func (h *harness) tickSeconds(t *testing.T, n int) {
	t.Helper()
	start := h.controller.Snapshot().ElapsedSeconds
	for i := 1; i <= n; i++ {
		h.clock.Advance(time.Second)
		want := start + i
		require.Eventually(t, func() bool { return h.controller.Snapshot().ElapsedSeconds == want }, time.Second, time.Millisecond)
	}
}

func TestScenarioTwoQuestionInterview(t *testing.T) {
	h := newHarness(t, "Q1", "Q2")

	require.NoError(t, h.controller.Join(context.Background(), "Ana"))
	assert.Equal(t, PhaseJoin, h.controller.Snapshot().Phase)
	assert.Empty(t, h.channel.commandsNamed("say"), "nothing is spoken before call-start")

	h.channel.emit(Event{Kind: EventCallStart})
	assert.Equal(t, "Hello Ana. Let's begin. Q1", h.channel.lastSay().text)
	unmute := h.channel.commandsNamed("setMuted")
	require.Len(t, unmute, 1)
	assert.False(t, unmute[0].muted)

	snap := h.controller.Snapshot()
	assert.Equal(t, PhaseInCall, snap.Phase)
	assert.Equal(t, 0, snap.Cursor)
	assert.Equal(t, "Q1", snap.CurrentQuestion)

	h.channel.userFinal("my first answer")
	assert.Equal(t, command{name: "say", text: "Q2"}, h.channel.lastSay())
	assert.Equal(t, 1, h.controller.Snapshot().Cursor)

	h.channel.userFinal("my second answer")
	assert.Equal(t, command{name: "say", text: ClosingLine, endCallAfter: true}, h.channel.lastSay())
	assert.Equal(t, PhaseInCall, h.controller.Snapshot().Phase, "Done waits for call-end")

	h.channel.emit(Event{Kind: EventCallEnd})
	snap = h.controller.Snapshot()
	assert.Equal(t, PhaseDone, snap.Phase)
	assert.Equal(t, 2, snap.Cursor)
	assert.False(t, snap.CallActive)
	assert.Equal(t, 0, h.channel.activeSubscriptions())

	starts := h.channel.commandsNamed("start")
	require.Len(t, starts, 1)
	assert.Equal(t, "assistant-1", starts[0].assistantID)
}

func TestJoinRejectsBlankName(t *testing.T) {
	for _, name := range []string{"", "   ", "\t\n"} {
		h := newHarness(t, "Q1")

		err := h.controller.Join(context.Background(), name)
		require.True(t, apperr.IsKind(err, apperr.KindValidation), "name %q: %v", name, err)

		snap := h.controller.Snapshot()
		assert.Equal(t, PhaseJoin, snap.Phase)
		assert.False(t, snap.CallActive)
		assert.NotEmpty(t, snap.Error)
		assert.Empty(t, h.channel.commandsNamed("start"))
	}
}

func TestJoinRejectsPostingWithoutQuestions(t *testing.T) {
	h := newHarness(t)

	err := h.controller.Join(context.Background(), "Ana")
	require.True(t, apperr.IsKind(err, apperr.KindValidation))
	assert.Empty(t, h.channel.commandsNamed("start"))
	assert.Equal(t, 0, h.channel.activeSubscriptions())
}

func TestConcurrentJoinIssuesOneStart(t *testing.T) {
	h := newHarness(t, "Q1")
	entered := make(chan struct{})
	release := make(chan struct{})
	h.channel.startHook = func() {
		close(entered)
		<-release
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, h.controller.Join(context.Background(), "Ana"))
	}()

	<-entered
	assert.True(t, h.controller.Snapshot().CallActive)
	require.NoError(t, h.controller.Join(context.Background(), "Ana"))
	require.NoError(t, h.controller.Join(context.Background(), "Someone else"))
	close(release)
	wg.Wait()

	assert.Len(t, h.channel.commandsNamed("start"), 1)
	assert.Equal(t, 1, h.channel.activeSubscriptions())
	assert.Equal(t, "Ana", h.controller.Snapshot().Candidate)
}

func TestJoinWhileInCallIsNoop(t *testing.T) {
	h := newHarness(t, "Q1", "Q2")
	h.inCall(t, "Ana")

	require.NoError(t, h.controller.Join(context.Background(), "Ana"))
	assert.Len(t, h.channel.commandsNamed("start"), 1)
	assert.Equal(t, PhaseInCall, h.controller.Snapshot().Phase)
}

func TestStartFailureReleasesLatch(t *testing.T) {
	h := newHarness(t, "Q1")
	h.channel.startErr = errors.New("dial failed")

	err := h.controller.Join(context.Background(), "Ana")
	require.True(t, apperr.IsKind(err, apperr.KindChannel), "got %v", err)

	snap := h.controller.Snapshot()
	assert.Equal(t, PhaseJoin, snap.Phase)
	assert.False(t, snap.CallActive)
	assert.NotEmpty(t, snap.Error)
	assert.Equal(t, 0, h.channel.activeSubscriptions())

	h.channel.startErr = nil
	require.NoError(t, h.controller.Join(context.Background(), "Ana"))
	assert.Len(t, h.channel.commandsNamed("start"), 2)
	assert.Empty(t, h.controller.Snapshot().Error)
}

func TestErrorBeforeCallStartAllowsRetry(t *testing.T) {
	h := newHarness(t, "Q1")
	require.NoError(t, h.controller.Join(context.Background(), "Ana"))

	h.channel.emit(Event{Kind: EventError, Message: "microphone permission denied"})

	snap := h.controller.Snapshot()
	assert.Equal(t, PhaseJoin, snap.Phase)
	assert.False(t, snap.CallActive)
	assert.Equal(t, "microphone permission denied", snap.Error)
	assert.Equal(t, 0, h.channel.activeSubscriptions())

	// a late call-start from the abandoned attempt is ignored
	h.channel.emit(Event{Kind: EventCallStart})
	assert.Equal(t, PhaseJoin, h.controller.Snapshot().Phase)

	h.inCall(t, "Ana")
	assert.Len(t, h.channel.commandsNamed("start"), 2)
}

func TestCallEndWhileConnectingStaysInJoin(t *testing.T) {
	h := newHarness(t, "Q1")
	require.NoError(t, h.controller.Join(context.Background(), "Ana"))

	h.channel.emit(Event{Kind: EventCallEnd})

	snap := h.controller.Snapshot()
	assert.Equal(t, PhaseJoin, snap.Phase)
	assert.False(t, snap.CallActive)
	assert.NotEmpty(t, snap.Error)
}

func TestErrorDuringCallIsSurfacedWithoutLeavingCall(t *testing.T) {
	h := newHarness(t, "Q1", "Q2")
	h.inCall(t, "Ana")

	h.channel.emit(Event{Kind: EventError, Message: ""})

	snap := h.controller.Snapshot()
	assert.Equal(t, PhaseInCall, snap.Phase)
	assert.Equal(t, "Voice connection error", snap.Error)
}

func TestTranscriptsAdvanceCursorUpToQuestionCount(t *testing.T) {
	h := newHarness(t, "Q1", "Q2", "Q3")

	// finals before call-start do nothing
	require.NoError(t, h.controller.Join(context.Background(), "Ana"))
	h.channel.userFinal("early")
	assert.Equal(t, 0, h.controller.Snapshot().Cursor)
	h.channel.emit(Event{Kind: EventCallStart})

	h.channel.emit(Event{Kind: EventTranscript, Transcript: Transcript{Role: RoleUser, IsFinal: false, Text: "partial"}})
	h.channel.emit(Event{Kind: EventTranscript, Transcript: Transcript{Role: RoleAssistant, IsFinal: true, Text: "Q1"}})
	assert.Equal(t, 0, h.controller.Snapshot().Cursor, "only user finals advance")

	wantSays := []command{
		{name: "say", text: "Q2"},
		{name: "say", text: "Q3"},
		{name: "say", text: ClosingLine, endCallAfter: true},
	}
	for i, want := range wantSays {
		h.channel.userFinal("answer")
		assert.Equal(t, i+1, h.controller.Snapshot().Cursor)
		assert.Equal(t, want, h.channel.lastSay())
	}

	saysBefore := len(h.channel.commandsNamed("say"))
	h.channel.userFinal("one more")
	assert.Equal(t, 3, h.controller.Snapshot().Cursor)
	assert.Len(t, h.channel.commandsNamed("say"), saysBefore)
	assert.Empty(t, h.controller.Snapshot().CurrentQuestion)
}

func TestRapidDuplicateFinalsEachAdvance(t *testing.T) {
	h := newHarness(t, "Q1", "Q2", "Q3")
	h.inCall(t, "Ana")

	h.channel.userFinal("same text")
	h.channel.userFinal("same text")

	assert.Equal(t, 2, h.controller.Snapshot().Cursor)
}

func TestCallEndTransitionsOnceAndFreezesTimer(t *testing.T) {
	h := newHarness(t, "Q1", "Q2")

	var mu sync.Mutex
	doneTransitions := 0
	h.controller.OnChange(func(prev Phase, snap Snapshot) {
		if prev != PhaseDone && snap.Phase == PhaseDone {
			mu.Lock()
			doneTransitions++
			mu.Unlock()
		}
	})

	h.inCall(t, "Ana")
	h.tickSeconds(t, 2)

	endedAt := h.clock.Now()
	h.channel.emit(Event{Kind: EventCallEnd})
	h.channel.emit(Event{Kind: EventCallEnd})

	h.clock.Advance(time.Second)
	require.Never(t, func() bool { return h.controller.Snapshot().ElapsedSeconds != 2 }, 50*time.Millisecond, 5*time.Millisecond)

	mu.Lock()
	assert.Equal(t, 1, doneTransitions)
	mu.Unlock()
	assert.Equal(t, endedAt, h.controller.Snapshot().CompletedAt)
}

func TestManualEndStopsChannelButWaitsForCallEnd(t *testing.T) {
	h := newHarness(t, "Q1", "Q2", "Q3")

	require.NoError(t, h.controller.End(context.Background()))
	assert.Empty(t, h.channel.commandsNamed("stop"), "End outside a call is a no-op")

	h.inCall(t, "Ana")
	require.NoError(t, h.controller.End(context.Background()))
	assert.Len(t, h.channel.commandsNamed("stop"), 1)
	assert.Equal(t, PhaseInCall, h.controller.Snapshot().Phase)

	h.channel.emit(Event{Kind: EventCallEnd})
	snap := h.controller.Snapshot()
	assert.Equal(t, PhaseDone, snap.Phase)
	assert.Equal(t, 0, snap.Cursor)
}

func TestJoinAfterDoneIsRejected(t *testing.T) {
	h := newHarness(t, "Q1")
	h.inCall(t, "Ana")
	h.channel.emit(Event{Kind: EventCallEnd})

	err := h.controller.Join(context.Background(), "Ana")
	require.True(t, apperr.IsKind(err, apperr.KindValidation))
	assert.Equal(t, "interview already completed", apperr.UserMessage(err))
	assert.Equal(t, PhaseDone, h.controller.Snapshot().Phase)
	assert.Len(t, h.channel.commandsNamed("start"), 1)
}

func TestSubmitFeedback(t *testing.T) {
	h := newHarness(t, "Q1")

	err := h.controller.SubmitFeedback(context.Background(), 5, "")
	require.True(t, apperr.IsKind(err, apperr.KindValidation), "feedback before Done: %v", err)

	h.inCall(t, "Ana")
	h.channel.userFinal("answer")
	h.channel.emit(Event{Kind: EventCallEnd})

	err = h.controller.SubmitFeedback(context.Background(), 0, "forgot to rate")
	require.True(t, apperr.IsKind(err, apperr.KindValidation))
	assert.Equal(t, 0, h.feedback.calls(), "rating 0 never reaches the store")

	err = h.controller.SubmitFeedback(context.Background(), 6, "")
	require.True(t, apperr.IsKind(err, apperr.KindValidation))

	require.NoError(t, h.controller.SubmitFeedback(context.Background(), 4, "  Smooth  "))
	snap := h.controller.Snapshot()
	assert.True(t, snap.FeedbackSent)
	assert.Empty(t, snap.Error)
	assert.Equal(t, models.Feedback{PostingID: "posting-1", Rating: 4, Comments: "Smooth", CandidateName: "Ana"}, h.feedback.received[0])

	// a repeat is not blocked
	require.NoError(t, h.controller.SubmitFeedback(context.Background(), 4, "again"))
	assert.Equal(t, 2, h.feedback.calls())
}

func TestSubmitFeedbackStoreFailureKeepsDone(t *testing.T) {
	h := newHarness(t, "Q1")
	h.feedback.submitFn = func(context.Context, models.Feedback) error {
		return apperr.Store("failed to save feedback", errors.New("db down"))
	}
	h.inCall(t, "Ana")
	h.channel.emit(Event{Kind: EventCallEnd})

	err := h.controller.SubmitFeedback(context.Background(), 3, "")
	require.True(t, apperr.IsKind(err, apperr.KindStore))

	snap := h.controller.Snapshot()
	assert.Equal(t, PhaseDone, snap.Phase)
	assert.False(t, snap.FeedbackSent)
	assert.Equal(t, "failed to save feedback", snap.Error)
}

func TestSayFailureIsSurfaced(t *testing.T) {
	h := newHarness(t, "Q1")
	h.channel.sayErr = errors.New("socket closed")

	h.inCall(t, "Ana")
	assert.NotEmpty(t, h.controller.Snapshot().Error)
}

func TestCloseIgnoresLaterEvents(t *testing.T) {
	h := newHarness(t, "Q1", "Q2")
	h.inCall(t, "Ana")

	h.tickSeconds(t, 1)

	h.controller.Close()
	assert.Equal(t, 0, h.channel.activeSubscriptions())
	h.clock.Advance(time.Second)
	require.Never(t, func() bool { return h.controller.Snapshot().ElapsedSeconds != 1 }, 50*time.Millisecond, 5*time.Millisecond)

	h.controller.handleEvent(h.controller.generation, Event{Kind: EventCallEnd})
	assert.Equal(t, PhaseInCall, h.controller.Snapshot().Phase)

	err := h.controller.Join(context.Background(), "Ana")
	require.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestListenersSeeEveryChange(t *testing.T) {
	h := newHarness(t, "Q1")
	var phases []Phase
	h.controller.OnChange(func(_ Phase, snap Snapshot) { phases = append(phases, snap.Phase) })

	require.NoError(t, h.controller.Join(context.Background(), "Ana"))
	h.channel.emit(Event{Kind: EventCallStart})
	h.channel.userFinal("answer")
	h.channel.emit(Event{Kind: EventCallEnd})

	assert.Equal(t, []Phase{PhaseJoin, PhaseInCall, PhaseInCall, PhaseDone}, phases)
}
