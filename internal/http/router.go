package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type RouterConfig struct {
	Bot        *BotHandler
	Board      *BoardHandler
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	for _, mw := range cfg.Middleware {
		if mw != nil {
			r.Use(mw)
		}
	}

	fallback := newResponder(nil)
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		fallback.writeError(req.Context(), w, http.StatusNotFound, nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		fallback.writeError(req.Context(), w, http.StatusMethodNotAllowed, nil)
	})

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		fallback.writeJSON(req.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if cfg.Bot != nil {
		r.Post("/api/bot/message", cfg.Bot.Message)
		r.Post("/api/bot/room", cfg.Bot.Room)
		r.Post("/api/bot/designated", cfg.Bot.Designated)
	}

	if cfg.Board != nil {
		r.Get("/api/status-board/{slotID}", func(w http.ResponseWriter, req *http.Request) {
			ctx := ContextWithSlotID(req.Context(), chi.URLParam(req, "slotID"))
			cfg.Board.Get(w, req.WithContext(ctx))
		})
	}

	return r
}
