package application

import (
	"context"
	"testing"
	"time"

	"github.com/example/statusboard/internal/parser"
	"github.com/example/statusboard/internal/persistence"
)

func TestDesignatedService_Sync(t *testing.T) {
	ctx := context.Background()
	notices := &noticeRepoStub{notices: []persistence.DesignatedNotice{
		{ID: "n-old", SlotID: "slot-old", ShopName: "shop", SubjectName: "지안"},
		{ID: "n-keep", SlotID: "slot-2", ShopName: "shop", SubjectName: "하나"},
		{ID: "n-other", SlotID: "slot-x", ShopName: "other", SubjectName: "지안"},
	}}
	records := &recordRepoStub{records: []persistence.StatusBoardRecord{
		openRecord("rec-1", "slot-1", "703", machineBase),
	}}
	svc := NewDesignatedService(notices, records, nil, sequentialIDs("notice"), discardLogger())

	expired := testSlot("slot-3", "세라")
	expired.ExpiresAt = machineBase.Add(-time.Hour)
	slots := map[string]persistence.Slot{
		"도아": testSlot("slot-1", "도아"),
		"하나": testSlot("slot-2", "하나"),
		"세라": expired,
	}
	section := parser.DesignatedSection{Entries: []parser.DesignatedEntry{
		{ManagerName: "이승기", SubjectNames: []string{"도아", "하나"}},
		{ManagerName: "박실장", SubjectNames: []string{"세라", "모름"}},
	}}

	at := machineBase.Add(time.Minute)
	result, err := svc.Sync(ctx, "shop", section, slots, "log-1", at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := DesignatedResult{Processed: 1, Skipped: 2, Deduped: 1, Removed: 1, Flagged: 1}
	if result != want {
		t.Fatalf("expected %+v, got %+v", want, result)
	}

	if len(notices.archived) != 1 || notices.archived[0] != "n-old" {
		t.Fatalf("expected n-old to be archived, got %v", notices.archived)
	}
	listed, err := svc.ListedSlots(ctx, "shop")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, id := range []string{"slot-1", "slot-2"} {
		if _, ok := listed[id]; !ok {
			t.Fatalf("expected %s to be listed, got %v", id, listed)
		}
	}
	for _, notice := range notices.notices {
		if notice.SlotID == "slot-1" && (notice.ManagerName != "이승기" || notice.SourceLogID != "log-1") {
			t.Fatalf("expected manager and source log on new notice, got %+v", notice)
		}
	}

	record := records.get("rec-1")
	if !record.IsDesignated || !record.UpdatedAt.Equal(at) {
		t.Fatalf("expected open record to be flagged designated, got %+v", record)
	}

	again, err := svc.Sync(ctx, "shop", section, slots, "log-2", at.Add(time.Minute))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again.Processed != 0 || again.Deduped != 2 || again.Flagged != 0 || again.Removed != 0 {
		t.Fatalf("expected repeated sync to only dedupe, got %+v", again)
	}
}

func TestDesignatedService_SyncEmptySectionClearsShop(t *testing.T) {
	notices := &noticeRepoStub{notices: []persistence.DesignatedNotice{
		{ID: "n-1", SlotID: "slot-1", ShopName: "shop", SubjectName: "도아"},
	}}
	svc := NewDesignatedService(notices, &recordRepoStub{}, nil, sequentialIDs("notice"), discardLogger())

	result, err := svc.Sync(context.Background(), "shop", parser.DesignatedSection{}, nil, "log-1", machineBase)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Removed != 1 || len(notices.notices) != 0 {
		t.Fatalf("expected the notice to be archived, got %+v", result)
	}
}
