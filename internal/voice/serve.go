package voice

import (
	"context"

	"go.uber.org/zap"

	"aicruiter/internal/session"
)

// Actions is what a candidate can do on the page.
type Actions interface {
	Join(ctx context.Context, name string) error
	End(ctx context.Context) error
	SubmitFeedback(ctx context.Context, rating int, comments string) error
	Snapshot() session.Snapshot
}

// Serve reads client frames until the socket closes or ctx is cancelled. Action
// errors are already reflected in the state frames, so they are only logged here.
func (b *Bridge) Serve(ctx context.Context, actions Actions) error {
	snap := actions.Snapshot()
	if err := b.Send(ServerFrame{Type: FrameState, State: &snap}); err != nil {
		b.logger.Debug("failed to send initial state frame", zap.Error(err))
		return err
	}

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var frame ClientFrame
		if err := b.conn.ReadJSON(&frame); err != nil {
			return err
		}
		b.handleFrame(ctx, actions, frame)
	}
}

func (b *Bridge) handleFrame(ctx context.Context, actions Actions, frame ClientFrame) {
	var err error
	switch frame.Type {
	case FrameJoin:
		err = actions.Join(ctx, frame.Name)
	case FrameEnd:
		endCtx, cancel := context.WithTimeout(ctx, commandTimeout)
		err = actions.End(endCtx)
		cancel()
	case FrameFeedback:
		err = actions.SubmitFeedback(ctx, frame.Rating, frame.Comments)
	case FrameEvent:
		ev, ok := frame.toEvent()
		if !ok {
			b.logger.Debug("ignoring unknown voice event", zap.String("event", frame.Event))
			return
		}
		b.Dispatch(ev)
	default:
		b.logger.Debug("unknown frame type", zap.String("type", frame.Type))
	}
	if err != nil {
		b.logger.Debug("session action failed",
			zap.String("type", frame.Type),
			zap.Error(err))
	}
}
