package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/freema/convcom/internal/apperror"
	"github.com/freema/convcom/internal/commit"
	"github.com/freema/convcom/internal/logger"
	"github.com/freema/convcom/internal/message"
)

// ParseRequest is the body of POST /api/v1/messages/parse.
type ParseRequest struct {
	Text string `json:"text" validate:"required"`
}

// MessageHandler handles the message endpoints.
type MessageHandler struct {
	service    *message.Service
	maxMessage int
	maxBody    int64
}

// NewMessageHandler creates a message handler. maxMessageSize bounds the
// accepted message text; request bodies get some headroom for JSON framing.
func NewMessageHandler(service *message.Service, maxMessageSize int) *MessageHandler {
	return &MessageHandler{
		service:    service,
		maxMessage: maxMessageSize,
		maxBody:    int64(maxMessageSize)*2 + 1024,
	}
}

// Render handles POST /api/v1/messages/render.
func (h *MessageHandler) Render(w http.ResponseWriter, r *http.Request) {
	var c commit.ConventionalCommit
	if !h.decode(w, r, &c) {
		return
	}

	record, err := h.service.Render(r.Context(), c)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"id":         record.ID,
		"message":    record.Message,
		"created_at": record.CreatedAt,
	})
}

// Parse handles POST /api/v1/messages/parse.
func (h *MessageHandler) Parse(w http.ResponseWriter, r *http.Request) {
	var req ParseRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		writeValidationErrors(w, err)
		return
	}
	if len(req.Text) > h.maxMessage {
		writeAppError(w, apperror.Validation("message text exceeds %d bytes", h.maxMessage).
			WithField("text", "exceeds maximum length"))
		return
	}

	record, err := h.service.Parse(r.Context(), req.Text)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"id":         record.ID,
		"commit":     record.Commit,
		"message":    record.Message,
		"created_at": record.CreatedAt,
	})
}

// Get handles GET /api/v1/messages/{id}.
func (h *MessageHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "record ID is required")
		return
	}

	record, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// List handles GET /api/v1/messages?limit=N.
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	records, err := h.service.List(r.Context(), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"records": records,
		"count":   len(records),
	})
}

func (h *MessageHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if apperror.HTTPStatus(err) >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("message request failed", "path", r.URL.Path, "error", err)
	}
	writeAppError(w, err)
}

// decode reads a bounded JSON body into v. Commit construction errors raised
// while decoding become 400s carrying the offending field.
func (h *MessageHandler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)

	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	var verr *commit.ValidationError
	switch {
	case errors.As(err, &tooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
	case errors.As(err, &verr):
		writeAppError(w, message.AsValidation(err))
	default:
		writeError(w, http.StatusBadRequest, "invalid JSON body")
	}
	return false
}
