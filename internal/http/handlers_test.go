package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/example/statusboard/internal/application"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type ingestionStub struct {
	outcome      application.Outcome
	registration application.RoomRegistration
	designated   application.DesignatedResult
	err          error
	got          application.InboundMessage
}

func (s *ingestionStub) Ingest(ctx context.Context, msg application.InboundMessage) (application.Outcome, error) {
	s.got = msg
	return s.outcome, s.err
}

func (s *ingestionStub) RegisterRooms(ctx context.Context, msg application.InboundMessage) (application.RoomRegistration, error) {
	s.got = msg
	return s.registration, s.err
}

func (s *ingestionStub) SyncDesignated(ctx context.Context, msg application.InboundMessage) (application.DesignatedResult, error) {
	s.got = msg
	return s.designated, s.err
}

type boardStub struct {
	view application.BoardView
	err  error
	got  string
}

func (s *boardStub) SlotBoard(ctx context.Context, slotID string) (application.BoardView, error) {
	s.got = slotID
	return s.view, s.err
}

func newTestRouter(ingestion *ingestionStub, board *boardStub) http.Handler {
	return NewRouter(RouterConfig{
		Bot:   NewBotHandler(ingestion, discardLogger()),
		Board: NewBoardHandler(board, discardLogger()),
	})
}

func serve(t *testing.T, handler http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	payload := map[string]any{}
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("expected JSON body, got %q: %v", rec.Body.String(), err)
		}
	}
	return rec, payload
}

const messageBody = `{"room":"shop-x","sender":"manager","message":"703 도아 ㅃ2","receivedAt":"2025-03-14 18:00:00"}`

func TestHealth(t *testing.T) {
	rec, payload := serve(t, newTestRouter(&ingestionStub{}, &boardStub{}), http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK || payload["status"] != "ok" {
		t.Fatalf("expected ok health, got %d %v", rec.Code, payload)
	}
}

func TestBotHandler_Message(t *testing.T) {
	t.Run("returns the outcome", func(t *testing.T) {
		stub := &ingestionStub{outcome: application.Outcome{
			Type:         application.OutcomeProcessed,
			MessageLogID: "log-1",
			Results: []application.SubjectResult{
				{Type: application.ResultStart, SlotID: "slot-1", SubjectName: "도아", RoomNumber: "703", RecordID: "rec-1"},
			},
		}}
		rec, payload := serve(t, newTestRouter(stub, &boardStub{}), http.MethodPost, "/api/bot/message", messageBody)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if payload["success"] != true || payload["type"] != "processed" || payload["messageLogId"] != "log-1" {
			t.Fatalf("unexpected payload %v", payload)
		}
		results, _ := payload["results"].([]any)
		if len(results) != 1 {
			t.Fatalf("expected one result, got %v", payload["results"])
		}
		if first, _ := results[0].(map[string]any); first["girlName"] != "도아" || first["recordId"] != "rec-1" {
			t.Fatalf("unexpected result %v", results[0])
		}
		if stub.got.Room != "shop-x" || stub.got.ReceivedAt != "2025-03-14 18:00:00" {
			t.Fatalf("expected the body to reach the service, got %+v", stub.got)
		}
	})

	t.Run("rejects malformed bodies", func(t *testing.T) {
		rec, payload := serve(t, newTestRouter(&ingestionStub{}, &boardStub{}), http.MethodPost, "/api/bot/message", "{")
		if rec.Code != http.StatusBadRequest || payload["error_code"] != "BAD_REQUEST" {
			t.Fatalf("expected 400 BAD_REQUEST, got %d %v", rec.Code, payload)
		}
	})

	t.Run("returns localized validation errors", func(t *testing.T) {
		stub := &ingestionStub{err: &application.ValidationError{FieldErrors: map[string]string{"room": "room is required"}}}
		rec, payload := serve(t, newTestRouter(stub, &boardStub{}), http.MethodPost, "/api/bot/message", `{"sender":"a","message":"b"}`)
		if rec.Code != http.StatusBadRequest || payload["error_code"] != "VALIDATION_FAILED" {
			t.Fatalf("expected 400 VALIDATION_FAILED, got %d %v", rec.Code, payload)
		}
		details, _ := payload["errors"].(map[string]any)
		if details["room"] != "방 이름은 필수입니다." {
			t.Fatalf("expected localized room error, got %v", payload["errors"])
		}
	})

	t.Run("store failures are generic", func(t *testing.T) {
		stub := &ingestionStub{err: fmt.Errorf("record message log: %w", application.ErrStoreFailure)}
		rec, payload := serve(t, newTestRouter(stub, &boardStub{}), http.MethodPost, "/api/bot/message", messageBody)
		if rec.Code != http.StatusInternalServerError || payload["error_code"] != "INTERNAL_ERROR" {
			t.Fatalf("expected 500 INTERNAL_ERROR, got %d %v", rec.Code, payload)
		}
		if strings.Contains(rec.Body.String(), "record message log") {
			t.Fatalf("expected internal details to stay out of the response, got %s", rec.Body.String())
		}
	})
}

func TestBotHandler_RoomAndDesignated(t *testing.T) {
	stub := &ingestionStub{
		registration: application.RoomRegistration{Shop: "shop-x", Rooms: []string{"703", "802"}, Created: []string{"802"}},
		designated:   application.DesignatedResult{Processed: 2, Removed: 1},
	}
	router := newTestRouter(stub, &boardStub{})

	rec, payload := serve(t, router, http.MethodPost, "/api/bot/room", `{"room":"shop-x","message":"703 ㅌㄹㅅ 802"}`)
	if rec.Code != http.StatusOK || payload["success"] != true {
		t.Fatalf("expected 200 success, got %d %v", rec.Code, payload)
	}
	if created, _ := payload["created"].([]any); len(created) != 1 || created[0] != "802" {
		t.Fatalf("expected created [802], got %v", payload["created"])
	}

	rec, payload = serve(t, router, http.MethodPost, "/api/bot/designated", messageBody)
	if rec.Code != http.StatusOK || payload["processed"] != float64(2) || payload["removed"] != float64(1) {
		t.Fatalf("unexpected designated response %d %v", rec.Code, payload)
	}
}

func TestBoardHandler_Get(t *testing.T) {
	t.Run("reads the slot from the path", func(t *testing.T) {
		board := &boardStub{view: application.BoardView{SlotID: "slot-1", SubjectName: "도아", TotalTickets: 1.5, Footer: "1️⃣ 703번방 18:00~19:30"}}
		rec, payload := serve(t, newTestRouter(&ingestionStub{}, board), http.MethodGet, "/api/status-board/slot-1", "")
		if rec.Code != http.StatusOK || board.got != "slot-1" {
			t.Fatalf("expected 200 for slot-1, got %d (slot %q)", rec.Code, board.got)
		}
		if payload["totalTickets"] != 1.5 || payload["girlName"] != "도아" {
			t.Fatalf("unexpected payload %v", payload)
		}
	})

	t.Run("missing slot is 404", func(t *testing.T) {
		board := &boardStub{err: fmt.Errorf("load slot: %w", application.ErrNotFound)}
		rec, payload := serve(t, newTestRouter(&ingestionStub{}, board), http.MethodGet, "/api/status-board/nope", "")
		if rec.Code != http.StatusNotFound || payload["error_code"] != "NOT_FOUND" {
			t.Fatalf("expected 404, got %d %v", rec.Code, payload)
		}
	})
}

func TestRouter_Fallbacks(t *testing.T) {
	router := newTestRouter(&ingestionStub{}, &boardStub{})

	rec, payload := serve(t, router, http.MethodGet, "/api/bot/message", "")
	if rec.Code != http.StatusMethodNotAllowed || payload["error_code"] != "METHOD_NOT_ALLOWED" {
		t.Fatalf("expected 405, got %d %v", rec.Code, payload)
	}
	rec, payload = serve(t, router, http.MethodGet, "/nowhere", "")
	if rec.Code != http.StatusNotFound || payload["error_code"] != "NOT_FOUND" {
		t.Fatalf("expected 404, got %d %v", rec.Code, payload)
	}
}

func TestResponder_HandleServiceErrorConflict(t *testing.T) {
	rec := httptest.NewRecorder()
	newResponder(discardLogger()).handleServiceError(context.Background(), rec, errors.Join(errors.New("start"), application.ErrSessionInProgress))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}
