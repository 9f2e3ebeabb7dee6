package voice

import "aicruiter/internal/session"

const (
	FrameJoin     = "join"
	FrameEnd      = "end"
	FrameFeedback = "feedback"
	FrameEvent    = "event"

	FrameCommand = "command"
	FrameState   = "state"
)

const (
	CommandStart    = "start"
	CommandStop     = "stop"
	CommandSetMuted = "setMuted"
	CommandSay      = "say"
)

// ClientFrame is sent by the candidate page: candidate actions plus the voice
// widget's events relayed as they happen.
type ClientFrame struct {
	Type       string              `json:"type"`
	Name       string              `json:"name,omitempty"`
	Rating     int                 `json:"rating,omitempty"`
	Comments   string              `json:"comments,omitempty"`
	Event      string              `json:"event,omitempty"`
	Transcript *session.Transcript `json:"transcript,omitempty"`
	Message    string              `json:"message,omitempty"`
}

// ServerFrame is either a command for the voice widget or the session state.
type ServerFrame struct {
	Type         string            `json:"type"`
	Command      string            `json:"command,omitempty"`
	AssistantID  string            `json:"assistantId,omitempty"`
	Muted        *bool             `json:"muted,omitempty"`
	Text         string            `json:"text,omitempty"`
	EndCallAfter bool              `json:"endCallAfter,omitempty"`
	State        *session.Snapshot `json:"state,omitempty"`
}

func (f ClientFrame) toEvent() (session.Event, bool) {
	ev := session.Event{Kind: session.EventKind(f.Event), Message: f.Message}
	switch ev.Kind {
	case session.EventCallStart, session.EventCallEnd, session.EventError:
	case session.EventTranscript:
		if f.Transcript == nil {
			return ev, false
		}
		ev.Transcript = *f.Transcript
	default:
		return ev, false
	}
	return ev, true
}
