package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/example/statusboard/internal/localtime"
	"github.com/example/statusboard/internal/parser"
	"github.com/example/statusboard/internal/persistence"
)

// DesignatedService keeps each shop's designated notices in line with the
// latest designated section posted to its chat room.
type DesignatedService struct {
	notices     persistence.DesignatedNoticeRepository
	records     persistence.StatusBoardRepository
	writer      *StatusBoardWriter
	idGenerator func() string
	logger      *slog.Logger
}

// NewDesignatedService constructs a designated notice service.
func NewDesignatedService(notices persistence.DesignatedNoticeRepository, records persistence.StatusBoardRepository, writer *StatusBoardWriter, idGenerator func() string, logger *slog.Logger) *DesignatedService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if writer == nil {
		writer = NewStatusBoardWriter(records, logger)
	}
	return &DesignatedService{
		notices:     notices,
		records:     records,
		writer:      writer,
		idGenerator: idGenerator,
		logger:      defaultLogger(logger),
	}
}

func (s *DesignatedService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "DesignatedService", operation, attrs...)
}

// Sync applies section to shop. slots are the active slots of the shop,
// already resolved by subject name. Notices whose subject is no longer
// listed are archived; listed subjects without a notice get one; open
// sessions of listed slots are flagged designated.
func (s *DesignatedService) Sync(ctx context.Context, shop string, section parser.DesignatedSection, slots map[string]persistence.Slot, sourceLogID string, at localtime.Time) (result DesignatedResult, err error) {
	logger := s.loggerWith(ctx, "Sync", "shop", shop, "listed", len(section.SubjectNames()))
	defer func() {
		logResult(ctx, logger, err, "designated notices synced",
			"processed", result.Processed,
			"skipped", result.Skipped,
			"deduped", result.Deduped,
			"removed", result.Removed,
			"flagged", result.Flagged,
		)
	}()

	existing, err := s.notices.ListNotices(ctx, shop)
	if err != nil {
		return result, mapStoreError("list designated notices", err)
	}

	listed := make(map[string]struct{})
	for _, name := range section.SubjectNames() {
		listed[name] = struct{}{}
	}
	noticed := make(map[string]struct{}, len(existing))
	for _, notice := range existing {
		if _, ok := listed[notice.SubjectName]; ok {
			noticed[notice.SlotID] = struct{}{}
			continue
		}
		if err = s.notices.ArchiveNotice(ctx, notice.ID, at); err != nil {
			return result, mapStoreError("archive designated notice", err)
		}
		result.Removed++
	}

	meta := persistence.UpdateMeta{At: at, SourceLogID: sourceLogID}
	for _, name := range section.SubjectNames() {
		slot, ok := slots[name]
		if !ok || !slot.IsActive || slot.Expired(at) {
			result.Skipped++
			continue
		}

		if _, ok := noticed[slot.ID]; ok {
			result.Deduped++
		} else {
			notice := persistence.DesignatedNotice{
				ID:          s.idGenerator(),
				SlotID:      slot.ID,
				ShopName:    shop,
				ManagerName: section.ManagerOf(name),
				SubjectName: name,
				SourceLogID: sourceLogID,
				CreatedAt:   at,
			}
			err = s.notices.CreateNotice(ctx, notice)
			switch {
			case errors.Is(err, persistence.ErrDuplicate):
				// The slot is already listed through another shop.
				err = nil
				result.Deduped++
			case err != nil:
				return result, mapStoreError("create designated notice", err)
			default:
				result.Processed++
			}
			noticed[slot.ID] = struct{}{}
		}

		flagged, flagErr := s.flagInProgress(ctx, slot.ID, meta)
		if flagErr != nil {
			err = flagErr
			return result, err
		}
		result.Flagged += flagged
	}
	return result, nil
}

func (s *DesignatedService) flagInProgress(ctx context.Context, slotID string, meta persistence.UpdateMeta) (int, error) {
	inProgress := true
	records, err := s.records.ListRecords(ctx, persistence.RecordFilter{SlotID: slotID, InProgress: &inProgress})
	if err != nil {
		return 0, mapStoreError("load in-progress records", err)
	}
	flagged := 0
	designated := true
	for _, record := range records {
		if record.IsDesignated {
			continue
		}
		if err := s.writer.Apply(ctx, record.ID, meta, persistence.CorrectionUpdate{IsDesignated: &designated}); err != nil {
			return flagged, err
		}
		flagged++
	}
	return flagged, nil
}

// ListedSlots returns the ids of the slots with a notice in shop.
func (s *DesignatedService) ListedSlots(ctx context.Context, shop string) (map[string]struct{}, error) {
	notices, err := s.notices.ListNotices(ctx, shop)
	if err != nil {
		return nil, mapStoreError("list designated notices", err)
	}
	listed := make(map[string]struct{}, len(notices))
	for _, notice := range notices {
		listed[notice.SlotID] = struct{}{}
	}
	return listed, nil
}
