package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"aicruiter/internal/repositories"
	"aicruiter/internal/session"
	"aicruiter/internal/voice"
	"aicruiter/internal/web"
)

type SessionOptions struct {
	AssistantID   string
	VapiPublicKey string
}

// SessionHandler serves the candidate entry page and the per-candidate session socket.
type SessionHandler struct {
	store    repositories.InterviewStore
	hub      *session.Hub
	feedback session.FeedbackWriter
	renderer *web.Renderer
	options  SessionOptions
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

func NewSessionHandler(
	store repositories.InterviewStore,
	hub *session.Hub,
	feedback session.FeedbackWriter,
	renderer *web.Renderer,
	options SessionOptions,
	logger *zap.Logger,
) *SessionHandler {
	return &SessionHandler{
		store:    store,
		hub:      hub,
		feedback: feedback,
		renderer: renderer,
		options:  options,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		logger:   logger,
	}
}

// PageHandler renders the entry page. Postings are public to anyone holding the link.
func (h *SessionHandler) PageHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	interview, err := h.store.Get(r.Context(), id, "")
	if err != nil {
		writeError(w, err)
		return
	}

	page := web.InterviewPage{
		ID:            interview.ID,
		Role:          interview.Role,
		QuestionCount: len(interview.Questions),
		Duration:      interview.DurationMinutes,
		SocketPath:    "/interview/" + interview.ID + "/ws",
		VapiPublicKey: h.options.VapiPublicKey,
	}
	if err := h.renderer.Render(w, http.StatusOK, web.PageInterview, page); err != nil {
		h.logger.Error("Failed to render interview page", zap.Error(err), zap.String("interview_id", id))
	}
}

// SocketHandler runs one candidate session for the lifetime of the connection.
func (h *SessionHandler) SocketHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	interview, err := h.store.Get(r.Context(), id, "")
	if err != nil {
		writeError(w, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err), zap.String("interview_id", id))
		return
	}
	defer conn.Close()

	bridge := voice.NewBridge(conn, h.logger)
	controller := h.hub.Open(session.OpenParams{
		Posting:     interview,
		AssistantID: h.options.AssistantID,
		Channel:     bridge,
		Feedback:    h.feedback,
	})
	controller.OnChange(bridge.StateListener())
	defer func() {
		h.hub.Remove(controller.ID())
		bridge.Close()
	}()

	h.logger.Info("candidate session opened",
		zap.String("session_id", controller.ID()),
		zap.String("interview_id", interview.ID))

	err = bridge.Serve(r.Context(), controller)
	var closeErr *websocket.CloseError
	if err != nil && !errors.As(err, &closeErr) {
		h.logger.Debug("candidate session read loop ended", zap.Error(err), zap.String("session_id", controller.ID()))
	}
	h.logger.Info("candidate session closed",
		zap.String("session_id", controller.ID()),
		zap.String("phase", string(controller.Snapshot().Phase)))
}
