package session

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"aicruiter/internal/events"
	"aicruiter/internal/models"
)

func newTestHub(t *testing.T) (*Hub, *fakePublisher, *clockwork.FakeClock) {
	t.Helper()
	publisher := newFakePublisher()
	clock := newFakeClock()
	hub := NewHub(publisher, clock, zap.NewNop())
	t.Cleanup(hub.CloseAll)
	return hub, publisher, clock
}

func openSession(hub *Hub, channel *fakeChannel) *Controller {
	return hub.Open(OpenParams{
		Posting:     &models.Interview{ID: "posting-1", Questions: []string{"Q1"}},
		AssistantID: "assistant-1",
		Channel:     channel,
		Feedback:    &fakeFeedback{},
	})
}

func waitForEvent(t *testing.T, publisher *fakePublisher) events.Event {
	t.Helper()
	select {
	case ev := <-publisher.published:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for published event")
		return events.Event{}
	}
}

func TestHubOpenGetRemove(t *testing.T) {
	hub, _, _ := newTestHub(t)
	channel := newFakeChannel()

	c := openSession(hub, channel)
	if c.ID() == "" {
		t.Fatal("expected a generated session id")
	}
	if got, ok := hub.Get(c.ID()); !ok || got != c {
		t.Fatal("expected session to be registered")
	}
	if hub.Len() != 1 {
		t.Fatalf("expected 1 session, got %d", hub.Len())
	}

	if err := c.Join(context.Background(), "Ana"); err != nil {
		t.Fatalf("Join returned error: %v", err)
	}
	hub.Remove(c.ID())
	hub.Remove(c.ID())

	if _, ok := hub.Get(c.ID()); ok {
		t.Fatal("expected session to be removed")
	}
	if channel.activeSubscriptions() != 0 {
		t.Fatal("expected subscription to be released on remove")
	}
}

func TestHubPublishesLifecycleEvents(t *testing.T) {
	hub, publisher, clock := newTestHub(t)
	channel := newFakeChannel()
	c := openSession(hub, channel)

	if err := c.Join(context.Background(), "Ana"); err != nil {
		t.Fatalf("Join returned error: %v", err)
	}
	channel.emit(Event{Kind: EventCallStart})

	started := waitForEvent(t, publisher)
	if started.Type != events.TypeSessionStarted || started.SessionID != c.ID() || started.PostingID != "posting-1" {
		t.Fatalf("unexpected started event %+v", started)
	}
	if started.CandidateName != "Ana" || started.QuestionCount != 1 {
		t.Fatalf("unexpected started event details %+v", started)
	}

	for i := 1; i <= 3; i++ {
		clock.Advance(time.Second)
		deadline := time.Now().Add(time.Second)
		for c.Snapshot().ElapsedSeconds != i {
			if time.Now().After(deadline) {
				t.Fatalf("elapsed counter stuck at %d, expected %d", c.Snapshot().ElapsedSeconds, i)
			}
			time.Sleep(time.Millisecond)
		}
	}

	channel.userFinal("answer")
	channel.emit(Event{Kind: EventCallEnd})

	completed := waitForEvent(t, publisher)
	if completed.Type != events.TypeSessionCompleted {
		t.Fatalf("expected completed event, got %+v", completed)
	}
	if completed.Cursor != 1 || completed.ElapsedSeconds != 3 {
		t.Fatalf("expected cursor 1 and 3 elapsed seconds, got %+v", completed)
	}
	if started.Cursor != 0 || started.ElapsedSeconds != 0 {
		t.Fatalf("started event should not carry progress, got %+v", started)
	}

	select {
	case ev := <-publisher.published:
		t.Fatalf("unexpected extra event %+v", ev)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestHubEvictFinishedKeepsLiveSessions(t *testing.T) {
	hub, _, clock := newTestHub(t)

	doneChannel := newFakeChannel()
	done := openSession(hub, doneChannel)
	done.Join(context.Background(), "Ana")
	doneChannel.emit(Event{Kind: EventCallStart})
	doneChannel.emit(Event{Kind: EventCallEnd})

	liveChannel := newFakeChannel()
	live := openSession(hub, liveChannel)
	live.Join(context.Background(), "Ben")
	liveChannel.emit(Event{Kind: EventCallStart})

	idle := openSession(hub, newFakeChannel())

	if evicted := hub.EvictFinished(10 * time.Minute); len(evicted) != 0 {
		t.Fatalf("nothing should be evicted before retention, got %v", evicted)
	}

	clock.Advance(11 * time.Minute)
	evicted := hub.EvictFinished(10 * time.Minute)
	if len(evicted) != 1 || evicted[0] != done.ID() {
		t.Fatalf("expected only the finished session to be evicted, got %v", evicted)
	}
	if _, ok := hub.Get(live.ID()); !ok {
		t.Fatal("in-call session must not be evicted")
	}
	if _, ok := hub.Get(idle.ID()); !ok {
		t.Fatal("idle session must not be evicted")
	}
}
