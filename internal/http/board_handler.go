package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/statusboard/internal/application"
)

type boardService interface {
	SlotBoard(ctx context.Context, slotID string) (application.BoardView, error)
}

// BoardHandler serves the read-only status board view.
type BoardHandler struct {
	service   boardService
	responder responder
	logger    *slog.Logger
}

func NewBoardHandler(service boardService, logger *slog.Logger) *BoardHandler {
	base := defaultLogger(logger)
	return &BoardHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *BoardHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	slotID, ok := SlotIDFromContext(r.Context())
	if !ok || strings.TrimSpace(slotID) == "" {
		handlerLogger(r.Context(), h.logger, "BoardHandler", "Get", "error_kind", "bad_request").WarnContext(r.Context(), "missing slot id")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSlotID)
		return
	}
	logger := handlerLogger(r.Context(), h.logger, "BoardHandler", "Get", "slot_id", slotID)

	view, err := h.service.SlotBoard(r.Context(), slotID)
	if err != nil {
		logger.WarnContext(r.Context(), "status board lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, view)
}
