// Package server exposes the orchestrator over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/toolturn/toolturn"
	"github.com/toolturn/toolturn/core"
	"github.com/toolturn/toolturn/logging"
	"github.com/toolturn/toolturn/model"
	"github.com/toolturn/toolturn/turn"
)

// RespondRequest is the body of POST /v1/respond.
type RespondRequest struct {
	ConversationID string         `json:"conversation_id,omitempty"`
	Deployment     string         `json:"deployment,omitempty"`
	Messages       []core.Message `json:"messages"`
}

// RespondResponse is the success body: the final assistant message (hidden
// state carried in its metadata) plus everything the capabilities produced.
type RespondResponse struct {
	Message     core.Message      `json:"message"`
	Attachments []core.Attachment `json:"attachments,omitempty"`
	Turns       int               `json:"turns"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server routes HTTP requests to an orchestrator.
type Server struct {
	orchestrator *toolturn.Orchestrator
	logger       logging.Logger
}

// New creates a server. A nil logger disables logging.
func New(orchestrator *toolturn.Orchestrator, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Server{orchestrator: orchestrator, logger: logger}
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/respond", s.handleRespond)
	return mux
}

// handleRespond runs one orchestration pass. Transport failures of the
// model backend map to 502; accumulation failures and an exhausted turn
// budget map to 500.
func (s *Server) handleRespond(w http.ResponseWriter, r *http.Request) {
	var req RespondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "messages must not be empty")
		return
	}

	result, err := s.orchestrator.Respond(r.Context(), turn.Request{
		Messages:       req.Messages,
		Deployment:     req.Deployment,
		APIKey:         bearerToken(r),
		ConversationID: req.ConversationID,
	})
	if err != nil {
		s.logger.Error("server.respond.failed",
			"conversation_id", req.ConversationID,
			"error", err,
		)
		writeError(w, statusFor(err), err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(RespondResponse{
		Message:     result.Message,
		Attachments: result.Attachments,
		Turns:       result.Turns,
	})
}

func statusFor(err error) int {
	var transportErr *model.TransportError
	if errors.As(err, &transportErr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// bearerToken extracts the per-request credential forwarded to capabilities.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return after
	}
	return auth
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: msg})
}
