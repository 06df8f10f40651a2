package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/justestif/mediastore/internal/channel"
)

// maxCallBytes bounds the size of one method call body.
const maxCallBytes = 1 << 20

// Handlers contains HTTP handlers for the method channels.
type Handlers struct {
	messenger *channel.Messenger
	logger    *zap.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(messenger *channel.Messenger, logger *zap.Logger) *Handlers {
	return &Handlers{
		messenger: messenger,
		logger:    logger,
	}
}

// Health reports service status (GET /health).
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "healthy",
		"service":  "mediastore",
		"channels": h.messenger.Names(),
	})
}

// Invoke dispatches one method call (POST /channels/{channel}).
func (h *Handlers) Invoke(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "channel")

	var call channel.MethodCall
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCallBytes)).Decode(&call); err != nil {
		writeJSON(w, http.StatusBadRequest, channel.Failure("", &channel.CallError{
			Code:    channel.CodeBadRequest,
			Message: "invalid method call body",
		}))
		return
	}
	if call.Method == "" {
		writeJSON(w, http.StatusBadRequest, channel.Failure(call.ID, &channel.CallError{
			Code:    channel.CodeBadRequest,
			Message: "missing method",
		}))
		return
	}

	resp, err := h.messenger.Invoke(r.Context(), name, call)
	if errors.Is(err, channel.ErrUnknownChannel) {
		writeJSON(w, http.StatusNotFound, channel.Failure(call.ID, &channel.CallError{
			Code:    "unknown_channel",
			Message: err.Error(),
		}))
		return
	}

	if resp.Status == channel.StatusError {
		h.logger.Warn("method call failed",
			zap.String("channel", name),
			zap.String("method", call.Method),
			zap.String("code", resp.Error.Code),
		)
	}
	writeJSON(w, statusCode(resp.Status), resp)
}

// statusCode maps a call outcome to its HTTP status.
func statusCode(s channel.Status) int {
	switch s {
	case channel.StatusSuccess:
		return http.StatusOK
	case channel.StatusNotImplemented:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
