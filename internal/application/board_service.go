package application

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/example/statusboard/internal/localtime"
	"github.com/example/statusboard/internal/persistence"
	"github.com/example/statusboard/internal/ticket"
)

// BoardService serves the read-only status board of a slot.
type BoardService struct {
	slots   persistence.SlotRepository
	records persistence.StatusBoardRepository
	tickets *ticket.Calculator
	clock   localtime.Clock
	logger  *slog.Logger
}

// NewBoardService constructs a board service.
func NewBoardService(slots persistence.SlotRepository, records persistence.StatusBoardRepository, tickets *ticket.Calculator, clock localtime.Clock, logger *slog.Logger) *BoardService {
	if tickets == nil {
		tickets = ticket.New(nil)
	}
	return &BoardService{
		slots:   slots,
		records: records,
		tickets: tickets,
		clock:   clock,
		logger:  defaultLogger(logger),
	}
}

// SlotBoard returns the sessions of slotID that started in the current event
// day, oldest first, with the ticket footer of the ones that are not canceled.
func (s *BoardService) SlotBoard(ctx context.Context, slotID string) (view BoardView, err error) {
	logger := serviceLogger(ctx, s.logger, "BoardService", "SlotBoard", "slot_id", slotID)
	defer func() { logResult(ctx, logger, err, "status board loaded", "records", len(view.Records)) }()

	if strings.TrimSpace(slotID) == "" {
		vErr := &ValidationError{}
		vErr.add("slotId", "slot id is required")
		return view, vErr
	}
	slot, err := s.slots.GetSlot(ctx, slotID)
	if err != nil {
		return view, mapStoreError("load slot", err)
	}

	from, to := ticket.EventDay(s.clock.Now())
	records, err := s.records.ListRecords(ctx, persistence.RecordFilter{
		SlotID:      slotID,
		StartFrom:   from,
		StartBefore: to,
	})
	if err != nil {
		return view, mapStoreError("load records", err)
	}
	sort.SliceStable(records, func(i, j int) bool { return records[i].StartTime.Before(records[j].StartTime) })

	view = BoardView{
		SlotID:      slot.ID,
		SubjectName: slot.SubjectName,
		From:        from,
		To:          to,
		Records:     records,
	}
	lines := make([]ticket.SessionLine, 0, len(records))
	for _, record := range records {
		if record.Canceled() {
			continue
		}
		line := ticket.SessionLine{
			RoomNumber: record.CurrentRoom,
			Start:      record.StartTime,
			End:        record.EndTime,
			Tickets:    s.sessionTickets(record),
		}
		if record.FareTickets != nil {
			line.FareAmount = *record.FareTickets
		}
		view.TotalTickets += line.Tickets.Total()
		lines = append(lines, line)
	}
	view.Footer = s.tickets.FormatFooter(lines)
	return view, nil
}

func (s *BoardService) sessionTickets(record persistence.StatusBoardRecord) ticket.Result {
	if record.UsageExplicit && record.UsageDuration != nil {
		return s.tickets.ForMinutes(int(math.Round(*record.UsageDuration * 60)))
	}
	end := record.EndTime
	if record.IsInProgress {
		end = s.clock.Now()
	}
	return s.tickets.ForSession(record.StartTime, end)
}
