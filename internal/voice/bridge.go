package voice

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"aicruiter/internal/session"
)

const (
	writeWait      = 10 * time.Second
	maxFrameSize   = 64 * 1024
	commandTimeout = 5 * time.Second
	sendBuffer     = 64
)

var (
	ErrBridgeClosed   = errors.New("voice bridge closed")
	ErrSendBufferFull = errors.New("voice bridge send buffer full")
)

// Bridge is one candidate's Voice Channel. Commands go to the page's voice
// widget as frames; widget events come back over the same socket and are
// dispatched to subscribers from the read loop. Frames are queued and written
// by a single writer goroutine, so Send never waits on the candidate's socket.
type Bridge struct {
	conn   *websocket.Conn
	logger *zap.Logger

	writeMu sync.Mutex
	hook    func(ServerFrame)
	closed  bool
	send    chan ServerFrame
	done    chan struct{}

	subsMu sync.Mutex
	subs   map[int]func(session.Event)
	nextID int
}

func NewBridge(conn *websocket.Conn, logger *zap.Logger) *Bridge {
	b := &Bridge{
		conn:   conn,
		logger: logger,
		subs:   make(map[int]func(session.Event)),
		done:   make(chan struct{}),
	}
	if conn != nil {
		conn.SetReadLimit(maxFrameSize)
		b.startWriter(b.writeFrame)
	}
	return b
}

// SetSendHook replaces the WebSocket writer (used in tests).
func (b *Bridge) SetSendHook(fn func(ServerFrame)) {
	b.writeMu.Lock()
	b.hook = fn
	b.writeMu.Unlock()
}

// Send queues frame for the writer. It fails fast with ErrSendBufferFull when
// the candidate is not draining the socket.
func (b *Bridge) Send(frame ServerFrame) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	if b.closed {
		return ErrBridgeClosed
	}
	if b.hook != nil {
		b.hook(frame)
		return nil
	}
	if b.send == nil {
		return ErrBridgeClosed
	}
	select {
	case b.send <- frame:
		return nil
	default:
		return ErrSendBufferFull
	}
}

func (b *Bridge) startWriter(write func(ServerFrame) error) {
	b.send = make(chan ServerFrame, sendBuffer)
	go b.writeLoop(b.send, write)
}

func (b *Bridge) writeLoop(frames <-chan ServerFrame, write func(ServerFrame) error) {
	for {
		select {
		case <-b.done:
			return
		case frame := <-frames:
			if err := write(frame); err != nil {
				b.logger.Debug("failed to write frame", zap.String("type", frame.Type), zap.Error(err))
				// unblocks the read loop so the session is torn down
				if b.conn != nil {
					b.conn.Close()
				}
				return
			}
		}
	}
}

func (b *Bridge) writeFrame(frame ServerFrame) error {
	b.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return b.conn.WriteJSON(frame)
}

func (b *Bridge) Start(_ context.Context, assistantID string) error {
	return b.Send(ServerFrame{Type: FrameCommand, Command: CommandStart, AssistantID: assistantID})
}

func (b *Bridge) Stop(context.Context) error {
	return b.Send(ServerFrame{Type: FrameCommand, Command: CommandStop})
}

func (b *Bridge) SetMuted(_ context.Context, muted bool) error {
	return b.Send(ServerFrame{Type: FrameCommand, Command: CommandSetMuted, Muted: &muted})
}

func (b *Bridge) Say(_ context.Context, text string, endCallAfter bool) error {
	return b.Send(ServerFrame{Type: FrameCommand, Command: CommandSay, Text: text, EndCallAfter: endCallAfter})
}

func (b *Bridge) Subscribe(handler func(session.Event)) session.Subscription {
	b.subsMu.Lock()
	defer b.subsMu.Unlock()
	b.nextID++
	id := b.nextID
	b.subs[id] = handler
	return &subscription{bridge: b, id: id}
}

type subscription struct {
	bridge *Bridge
	id     int
	once   sync.Once
}

func (s *subscription) Release() {
	s.once.Do(func() {
		s.bridge.subsMu.Lock()
		delete(s.bridge.subs, s.id)
		s.bridge.subsMu.Unlock()
	})
}

// Subscribers returns the number of live subscriptions.
func (b *Bridge) Subscribers() int {
	b.subsMu.Lock()
	defer b.subsMu.Unlock()
	return len(b.subs)
}

// Dispatch hands an event to every current subscriber. Handlers run outside subsMu
// so they may release their own subscription.
func (b *Bridge) Dispatch(ev session.Event) {
	b.subsMu.Lock()
	handlers := make([]func(session.Event), 0, len(b.subs))
	for _, h := range b.subs {
		handlers = append(handlers, h)
	}
	b.subsMu.Unlock()

	for _, h := range handlers {
		h(ev)
	}
}

// StateListener streams every session state change to the page.
func (b *Bridge) StateListener() session.Listener {
	return func(_ session.Phase, snap session.Snapshot) {
		if err := b.Send(ServerFrame{Type: FrameState, State: &snap}); err != nil && !errors.Is(err, ErrBridgeClosed) {
			b.logger.Debug("failed to send state frame", zap.Error(err))
		}
	}
}

// Close stops further writes and drops every subscription.
func (b *Bridge) Close() {
	b.writeMu.Lock()
	if !b.closed {
		b.closed = true
		close(b.done)
	}
	b.writeMu.Unlock()

	b.subsMu.Lock()
	b.subs = make(map[int]func(session.Event))
	b.subsMu.Unlock()
}
