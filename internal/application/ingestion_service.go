package application

import (
	"context"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/errgroup"

	"github.com/example/statusboard/internal/localtime"
	"github.com/example/statusboard/internal/parser"
	"github.com/example/statusboard/internal/persistence"
)

// IngestionService orchestrates one inbound chat message: receipt, parse,
// room bookkeeping, session dispatch and room close re-evaluation.
type IngestionService struct {
	repos       Repositories
	parser      *parser.Parser
	clock       localtime.Clock
	registry    *RoomRegistry
	machine     *SessionMachine
	designated  *DesignatedService
	unresolved  *unresolvedCache
	idGenerator func() string
	logger      *slog.Logger
}

// NewIngestionService constructs the ingestion orchestrator.
func NewIngestionService(repos Repositories, p *parser.Parser, clock localtime.Clock, registry *RoomRegistry, machine *SessionMachine, designated *DesignatedService, idGenerator func() string, logger *slog.Logger) *IngestionService {
	if p == nil {
		p = parser.New(nil)
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	return &IngestionService{
		repos:       repos,
		parser:      p,
		clock:       clock,
		registry:    registry,
		machine:     machine,
		designated:  designated,
		unresolved:  newUnresolvedCache(0, 0, nil),
		idGenerator: idGenerator,
		logger:      defaultLogger(logger),
	}
}

func (s *IngestionService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "IngestionService", operation, attrs...)
}

// SourceLogID fingerprints an inbound message by its resolved receipt time.
// Redelivery of the same message yields the same id; the same text sent at
// another time does not.
func SourceLogID(room, sender, message string, receivedAt localtime.Time) string {
	sum := blake2b.Sum256([]byte(strings.Join([]string{room, sender, message, receivedAt.String()}, "\x1f")))
	return hex.EncodeToString(sum[:16])
}

// shopState is the per-request view of a shop loaded before parsing.
type shopState struct {
	slots  map[string]persistence.Slot
	listed map[string]struct{}
}

func (st shopState) subjectNames() []string {
	names := make([]string, 0, len(st.slots))
	for name := range st.slots {
		names = append(names, name)
	}
	return names
}

// Ingest processes one inbound message. Redelivery of a processed message
// reports OutcomeDuplicate and changes nothing.
func (s *IngestionService) Ingest(ctx context.Context, msg InboundMessage) (outcome Outcome, err error) {
	logger := s.loggerWith(ctx, "Ingest", "room", msg.Room, "sender", msg.Sender)
	defer func() {
		switch {
		case err != nil:
			logResult(ctx, logger, err, "message ingested")
		case outcome.Type == OutcomeNoSignal:
			logger.DebugContext(ctx, "message carries no signal", "message_log_id", outcome.MessageLogID)
		default:
			logger.InfoContext(ctx, "message ingested",
				"outcome", outcome.Type,
				"message_log_id", outcome.MessageLogID,
				"results", len(outcome.Results),
				"transfers", len(outcome.Transfers),
				"closed_rooms", len(outcome.ClosedRooms),
			)
		}
	}()

	receivedAt, err := s.validate(msg, true)
	if err != nil {
		return outcome, err
	}
	shop := msg.Room
	sourceLogID := SourceLogID(msg.Room, msg.Sender, msg.Message, receivedAt)
	outcome = Outcome{Type: OutcomeProcessed, SourceLogID: sourceLogID, Results: []SubjectResult{}}

	entry := persistence.MessageLog{
		ID:          s.idGenerator(),
		SourceLogID: sourceLogID,
		Room:        msg.Room,
		Sender:      msg.Sender,
		Message:     msg.Message,
		ReceivedAt:  receivedAt,
		CreatedAt:   s.clock.Now(),
	}
	if err = s.repos.MessageLogs.CreateMessageLog(ctx, entry); err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			err = nil
			outcome.Type = OutcomeDuplicate
			if existing, findErr := s.repos.MessageLogs.GetMessageLogBySource(ctx, sourceLogID); findErr == nil {
				outcome.MessageLogID = existing.ID
			}
			return outcome, nil
		}
		return outcome, mapStoreError("record message log", err)
	}
	outcome.MessageLogID = entry.ID

	state, err := s.loadShop(ctx, shop, receivedAt)
	if err != nil {
		return outcome, err
	}

	parsed := s.parser.Parse(msg.Message, parser.Context{SubjectNames: state.subjectNames(), ReceivedAt: receivedAt})
	if len(parsed.Unresolved) > 0 {
		outcome.Unresolved = parsed.Unresolved
		if fresh := s.unresolved.Fresh(shop, parsed.Unresolved); len(fresh) > 0 {
			logger.InfoContext(ctx, "unresolved subject names", "candidates", fresh)
		}
	}
	if parsed.Empty() {
		outcome.Type = OutcomeNoSignal
		return outcome, nil
	}

	meta := persistence.UpdateMeta{At: receivedAt, SourceLogID: sourceLogID}

	if parsed.Designated != nil && s.designated != nil {
		synced, syncErr := s.designated.Sync(ctx, shop, *parsed.Designated, state.slots, sourceLogID, receivedAt)
		if syncErr != nil {
			return outcome, syncErr
		}
		outcome.Designated = &synced
		if state.listed, err = s.designated.ListedSlots(ctx, shop); err != nil {
			return outcome, err
		}
	}

	touched := append([]string(nil), parsed.Rooms...)
	for _, transfer := range parsed.Transfers {
		moved, transferErr := s.registry.Transfer(ctx, shop, transfer.FromRoom, transfer.ToRoom, meta)
		if transferErr != nil {
			return outcome, transferErr
		}
		outcome.Transfers = append(outcome.Transfers, moved)
		touched = appendRoom(touched, transfer.FromRoom)
	}

	for _, room := range parsed.Rooms {
		if _, _, err = s.registry.GetOrCreateRoom(ctx, shop, room, receivedAt); err != nil {
			return outcome, err
		}
	}

	for _, subject := range parsed.Subjects {
		slot, ok := state.slots[subject.SubjectName]
		if !ok {
			continue
		}
		_, listed := state.listed[slot.ID]
		sig := Signal{
			Slot:             slot,
			Shop:             shop,
			Parsed:           subject,
			ReceivedAt:       receivedAt,
			SourceLogID:      sourceLogID,
			ListedDesignated: listed,
		}
		result, dispatchErr := s.machine.Dispatch(ctx, sig)
		if dispatchErr != nil && !errors.Is(dispatchErr, ErrSessionInProgress) {
			return outcome, dispatchErr
		}
		outcome.Results = append(outcome.Results, result)
		touched = appendRoom(touched, result.RoomNumber)
	}

	keepAlive, err := s.registry.BuildKeepAliveSet(ctx, shop, parsed.KeepAliveRooms...)
	if err != nil {
		return outcome, err
	}
	closed, err := s.registry.CloseIdleRooms(ctx, shop, touched, keepAlive, s.clock.Now())
	if err != nil {
		return outcome, err
	}
	outcome.ClosedRooms = closed

	if len(outcome.Results) == 0 && len(outcome.Transfers) == 0 && outcome.Designated == nil {
		outcome.Type = OutcomeIgnored
	}
	return outcome, nil
}

// RegisterRooms opens every room mentioned in the message, transfer
// destinations included, without touching sessions.
func (s *IngestionService) RegisterRooms(ctx context.Context, msg InboundMessage) (registration RoomRegistration, err error) {
	logger := s.loggerWith(ctx, "RegisterRooms", "room", msg.Room)
	defer func() {
		logResult(ctx, logger, err, "rooms registered", "rooms", len(registration.Rooms), "created", len(registration.Created))
	}()

	receivedAt, err := s.validate(msg, false)
	if err != nil {
		return registration, err
	}
	registration = RoomRegistration{Shop: msg.Room, Rooms: []string{}, Created: []string{}}

	parsed := s.parser.Parse(msg.Message, parser.Context{ReceivedAt: receivedAt})
	rooms := append([]string(nil), parsed.Rooms...)
	for _, transfer := range parsed.Transfers {
		rooms = appendRoom(rooms, transfer.FromRoom)
		rooms = appendRoom(rooms, transfer.ToRoom)
	}
	for _, number := range rooms {
		_, created, createErr := s.registry.GetOrCreateRoom(ctx, msg.Room, number, receivedAt)
		if createErr != nil {
			err = createErr
			return registration, err
		}
		registration.Rooms = append(registration.Rooms, number)
		if created {
			registration.Created = append(registration.Created, number)
		}
	}
	return registration, nil
}

// SyncDesignated applies the designated section of the message to the shop
// without processing session signals.
func (s *IngestionService) SyncDesignated(ctx context.Context, msg InboundMessage) (DesignatedResult, error) {
	receivedAt, err := s.validate(msg, true)
	if err != nil {
		return DesignatedResult{}, err
	}
	section, ok := parser.ParseDesignatedSection(s.parser.Normalize(msg.Message))
	if !ok {
		vErr := &ValidationError{}
		vErr.add("message", "no designated section")
		return DesignatedResult{}, vErr
	}
	state, err := s.loadShop(ctx, msg.Room, receivedAt)
	if err != nil {
		return DesignatedResult{}, err
	}
	sourceLogID := SourceLogID(msg.Room, msg.Sender, msg.Message, receivedAt)
	return s.designated.Sync(ctx, msg.Room, section, state.slots, sourceLogID, receivedAt)
}

func (s *IngestionService) validate(msg InboundMessage, requireSender bool) (localtime.Time, error) {
	vErr := &ValidationError{}
	if strings.TrimSpace(msg.Room) == "" {
		vErr.add("room", "room is required")
	}
	if requireSender && strings.TrimSpace(msg.Sender) == "" {
		vErr.add("sender", "sender is required")
	}
	if strings.TrimSpace(msg.Message) == "" {
		vErr.add("message", "message is required")
	}

	receivedAt := s.clock.Now()
	if value := strings.TrimSpace(msg.ReceivedAt); value != "" {
		parsed, err := s.clock.Parse(value)
		if err != nil {
			vErr.add("receivedAt", "receivedAt must be a local timestamp")
		} else {
			receivedAt = parsed
		}
	}
	if vErr.HasErrors() {
		return localtime.Time{}, vErr
	}
	return receivedAt, nil
}

// loadShop reads the active slots and the designated notices of shop
// concurrently.
func (s *IngestionService) loadShop(ctx context.Context, shop string, at localtime.Time) (shopState, error) {
	var (
		slots  []persistence.Slot
		listed map[string]struct{}
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		slots, err = s.repos.Slots.ListActiveSlots(gctx, shop, at)
		return mapStoreError("list active slots", err)
	})
	g.Go(func() error {
		if s.designated == nil {
			return nil
		}
		var err error
		listed, err = s.designated.ListedSlots(gctx, shop)
		return err
	})
	if err := g.Wait(); err != nil {
		return shopState{}, err
	}
	if listed == nil {
		listed = map[string]struct{}{}
	}
	return shopState{slots: indexSlots(slots, shop), listed: listed}, nil
}

// indexSlots keys slots by subject name. A slot bound to shop wins over an
// unbound slot of the same name.
func indexSlots(slots []persistence.Slot, shop string) map[string]persistence.Slot {
	index := make(map[string]persistence.Slot, len(slots))
	for _, slot := range slots {
		existing, ok := index[slot.SubjectName]
		if ok && existing.ShopName != nil && *existing.ShopName == shop {
			continue
		}
		index[slot.SubjectName] = slot
	}
	return index
}

func appendRoom(rooms []string, room string) []string {
	if room == "" {
		return rooms
	}
	for _, existing := range rooms {
		if existing == room {
			return rooms
		}
	}
	return append(rooms, room)
}
