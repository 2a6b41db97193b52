package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/statusboard/internal/application"
)

type ingestionService interface {
	Ingest(ctx context.Context, msg application.InboundMessage) (application.Outcome, error)
	RegisterRooms(ctx context.Context, msg application.InboundMessage) (application.RoomRegistration, error)
	SyncDesignated(ctx context.Context, msg application.InboundMessage) (application.DesignatedResult, error)
}

// BotHandler serves the endpoints called by the chat forwarder.
type BotHandler struct {
	service   ingestionService
	responder responder
	logger    *slog.Logger
}

// NewBotHandler constructs the forwarder endpoints.
func NewBotHandler(service ingestionService, logger *slog.Logger) *BotHandler {
	base := defaultLogger(logger)
	return &BotHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *BotHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "BotHandler", operation, attrs...)
}

type outcomeResponse struct {
	Success bool `json:"success"`
	application.Outcome
}

type roomRegistrationResponse struct {
	Success bool `json:"success"`
	application.RoomRegistration
}

type designatedResponse struct {
	Success bool `json:"success"`
	application.DesignatedResult
}

// decode reads the inbound message body. It answers 400 itself and reports
// false when the body cannot be read.
func (h *BotHandler) decode(w http.ResponseWriter, r *http.Request, operation string) (application.InboundMessage, bool) {
	var msg application.InboundMessage
	if err := decodeJSON(w, r, &msg); err != nil {
		h.log(r.Context(), operation, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode bot message", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return msg, false
	}
	return msg, true
}

// Message ingests one forwarded chat message.
func (h *BotHandler) Message(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	msg, ok := h.decode(w, r, "Message")
	if !ok {
		return
	}
	logger := h.log(r.Context(), "Message", "room", msg.Room)

	outcome, err := h.service.Ingest(r.Context(), msg)
	if err != nil {
		logger.ErrorContext(r.Context(), "ingestion failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.DebugContext(r.Context(), "message handled", "outcome", outcome.Type)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, outcomeResponse{Success: true, Outcome: outcome})
}

// Room registers the rooms mentioned in a message.
func (h *BotHandler) Room(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	msg, ok := h.decode(w, r, "Room")
	if !ok {
		return
	}
	logger := h.log(r.Context(), "Room", "room", msg.Room)

	registration, err := h.service.RegisterRooms(r.Context(), msg)
	if err != nil {
		logger.ErrorContext(r.Context(), "room registration failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, roomRegistrationResponse{Success: true, RoomRegistration: registration})
}

// Designated syncs the designated notices of a shop.
func (h *BotHandler) Designated(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	msg, ok := h.decode(w, r, "Designated")
	if !ok {
		return
	}
	logger := h.log(r.Context(), "Designated", "room", msg.Room)

	result, err := h.service.SyncDesignated(r.Context(), msg)
	if err != nil {
		logger.ErrorContext(r.Context(), "designated sync failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, designatedResponse{Success: true, DesignatedResult: result})
}
