package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"clinchat/internal/config"
	"clinchat/internal/domain"
	chatmodel "clinchat/internal/domain/models/chat"
	"clinchat/internal/httputil"
	chatsvc "clinchat/internal/service/chat"
)

// Answerer is the per-turn pipeline surface the handler depends on.
// Implemented by *chat.Orchestrator.
type Answerer interface {
	Answer(ctx context.Context, history *chatmodel.History, question string) chatsvc.Reply
}

// ChatHandler serves the web chat variant: session creation, transcript
// retrieval, and one question per request.
type ChatHandler struct {
	orchestrator Answerer
	sessions     *chatsvc.SessionStore
	turnTimeout  time.Duration
	logger       *slog.Logger
}

// NewChatHandler creates the web chat handler.
func NewChatHandler(orchestrator Answerer, sessions *chatsvc.SessionStore, turnTimeout time.Duration, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{
		orchestrator: orchestrator,
		sessions:     sessions,
		turnTimeout:  turnTimeout,
		logger:       logger,
	}
}

// handleError maps domain errors to HTTP responses.
func handleError(w http.ResponseWriter, err error) {
	var httpErr domain.HTTPError
	if errors.As(err, &httpErr) {
		httputil.RespondError(w, httpErr.StatusCode(), err.Error())
		return
	}
	httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
}

type sessionResponse struct {
	ID       string           `json:"id"`
	Messages []chatmodel.Turn `json:"messages"`
}

// CreateSession handles POST /api/sessions
func (h *ChatHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Create()

	h.logger.Info("session created", "id", sess.ID)

	httputil.RespondJSON(w, http.StatusCreated, sessionResponse{
		ID:       sess.ID,
		Messages: sess.Transcript(),
	})
}

// GetTranscript handles GET /api/sessions/{id}/messages
func (h *ChatHandler) GetTranscript(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, sessionResponse{
		ID:       sess.ID,
		Messages: sess.Transcript(),
	})
}

type postMessageRequest struct {
	Message string `json:"message"`
}

func (req postMessageRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Message,
			validation.Required,
			validation.Length(1, config.MaxQuestionLength),
		),
	)
}

// PostMessage handles POST /api/sessions/{id}/messages
// One question is processed per request; turns within a session are
// serialized so overlapping requests cannot interleave history updates.
func (h *ChatHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}

	var req postMessageRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, &domain.ValidationError{Message: err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		handleError(w, &domain.ValidationError{Message: err.Error()})
		return
	}

	var reply chatsvc.Reply
	sess.WithTurn(func(s *chatsvc.Session) {
		ctx, cancel := context.WithTimeout(r.Context(), h.turnTimeout)
		defer cancel()

		reply = h.orchestrator.Answer(ctx, s.History(), req.Message)
		s.Record(req.Message, reply.Text)
	})

	httputil.RespondJSON(w, http.StatusOK, reply)
}

// HealthCheck handles GET /health
func (h *ChatHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
