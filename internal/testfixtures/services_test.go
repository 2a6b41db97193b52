package testfixtures

import (
	"context"
	"testing"

	"github.com/example/statusboard/internal/application"
)

func TestServiceFactoryNewServices(t *testing.T) {
	harness := NewSQLiteHarness(t)
	slot := NewSlotFixture(WithSlotSubject("도아")).Persistence()
	harness.SeedSlots(t, slot)

	ids := NewIDGenerator("fx")
	factory := NewServiceFactory(WithIDGenerator(ids))
	services := factory.NewServices(harness.Repositories())

	outcome, err := services.Ingestion.Ingest(context.Background(), application.InboundMessage{
		Room:       "shop",
		Sender:     "manager",
		Message:    "703 도아",
		ReceivedAt: "2025-03-14 18:00:00",
	})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if outcome.MessageLogID != "fx-1" {
		t.Fatalf("expected message log id fx-1 from the factory generator, got %q", outcome.MessageLogID)
	}
	if len(outcome.Results) != 1 || outcome.Results[0].Type != application.ResultStart {
		t.Fatalf("expected one start result, got %+v", outcome.Results)
	}
	if ids.Issued() < 2 {
		t.Fatalf("expected the record to draw from the factory generator, issued %d", ids.Issued())
	}
}
