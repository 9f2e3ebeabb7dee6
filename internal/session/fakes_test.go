package session

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"aicruiter/internal/events"
	"aicruiter/internal/models"
)

type command struct {
	name         string
	assistantID  string
	muted        bool
	text         string
	endCallAfter bool
}

type fakeChannel struct {
	mu       sync.Mutex
	commands []command
	handlers map[int]func(Event)
	nextID   int
	released int

	startErr  error
	sayErr    error
	startHook func()
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{handlers: make(map[int]func(Event))}
}

func (f *fakeChannel) record(cmd command) {
	f.mu.Lock()
	f.commands = append(f.commands, cmd)
	f.mu.Unlock()
}

func (f *fakeChannel) Start(_ context.Context, assistantID string) error {
	f.record(command{name: "start", assistantID: assistantID})
	if f.startHook != nil {
		f.startHook()
	}
	return f.startErr
}

func (f *fakeChannel) Stop(context.Context) error {
	f.record(command{name: "stop"})
	return nil
}

func (f *fakeChannel) SetMuted(_ context.Context, muted bool) error {
	f.record(command{name: "setMuted", muted: muted})
	return nil
}

func (f *fakeChannel) Say(_ context.Context, text string, endCallAfter bool) error {
	f.record(command{name: "say", text: text, endCallAfter: endCallAfter})
	return f.sayErr
}

func (f *fakeChannel) Subscribe(handler func(Event)) Subscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := f.nextID
	f.handlers[id] = handler
	return &fakeSubscription{channel: f, id: id}
}

type fakeSubscription struct {
	channel *fakeChannel
	id      int
	once    sync.Once
}

func (s *fakeSubscription) Release() {
	s.once.Do(func() {
		s.channel.mu.Lock()
		delete(s.channel.handlers, s.id)
		s.channel.released++
		s.channel.mu.Unlock()
	})
}

// emit delivers an event to every live subscriber, like the real bridge's read loop.
func (f *fakeChannel) emit(ev Event) {
	f.mu.Lock()
	handlers := make([]func(Event), 0, len(f.handlers))
	for _, h := range f.handlers {
		handlers = append(handlers, h)
	}
	f.mu.Unlock()
	for _, h := range handlers {
		h(ev)
	}
}

func (f *fakeChannel) userFinal(text string) {
	f.emit(Event{Kind: EventTranscript, Transcript: Transcript{Role: RoleUser, IsFinal: true, Text: text}})
}

func (f *fakeChannel) commandsNamed(name string) []command {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []command
	for _, c := range f.commands {
		if c.name == name {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeChannel) lastSay() command {
	says := f.commandsNamed("say")
	if len(says) == 0 {
		return command{}
	}
	return says[len(says)-1]
}

func (f *fakeChannel) activeSubscriptions() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.handlers)
}

type fakeFeedback struct {
	mu       sync.Mutex
	submitFn func(ctx context.Context, feedback models.Feedback) error
	received []models.Feedback
}

func (f *fakeFeedback) Submit(ctx context.Context, feedback models.Feedback) error {
	f.mu.Lock()
	f.received = append(f.received, feedback)
	f.mu.Unlock()
	if f.submitFn != nil {
		return f.submitFn(ctx, feedback)
	}
	return nil
}

func (f *fakeFeedback) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.received)
}

func newFakeClock() *clockwork.FakeClock {
	return clockwork.NewFakeClockAt(time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))
}

type fakePublisher struct {
	published chan events.Event
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{published: make(chan events.Event, 16)}
}

func (p *fakePublisher) Publish(_ context.Context, event events.Event) error {
	p.published <- event
	return nil
}

func (p *fakePublisher) Close() error { return nil }
