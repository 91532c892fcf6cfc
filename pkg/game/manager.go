package game

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JoshuaCandia/custom-chess/internal/color"
	"github.com/JoshuaCandia/custom-chess/pkg/clock"
	"github.com/JoshuaCandia/custom-chess/pkg/events"
	"github.com/JoshuaCandia/custom-chess/pkg/messages"
	"github.com/JoshuaCandia/custom-chess/pkg/rules"
)

// RoomRepository stores live rooms keyed by their short code. The manager
// depends on the interface so tests can substitute an in-memory fake.
type RoomRepository interface {
	Put(room *Room)
	Get(id string) (*Room, bool)
	Delete(id string)
	List() []*Room
}

// MatchRecord is what gets archived for a finished match.
type MatchRecord struct {
	RoomID      string
	WhiteID     string
	WhiteName   string
	BlackID     string
	BlackName   string
	Winner      string // "w", "b" or empty for draws
	Reason      string
	MoveCount   int
	TimeLimitMs int64
	StartedAt   time.Time
	EndedAt     time.Time
}

// MatchRecorder archives finished matches. Failures are an operator concern:
// the in-memory room state stays authoritative for players either way.
type MatchRecorder interface {
	RecordMatch(ctx context.Context, rec MatchRecord) error
}

// RatingService adjusts skill ratings after a decisive result.
type RatingService interface {
	AdjustRatings(ctx context.Context, winnerID, loserID string) error
}

const (
	// DefaultReconnectGrace is how long an identified player may stay
	// disconnected before the match is finalized as abandoned.
	DefaultReconnectGrace = 30 * time.Second

	roomIDLength  = 6
	maxIDAttempts = 16

	storeTimeout = 5 * time.Second
)

// Codes avoid ambiguous characters so they stay shareable over voice.
const roomIDAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Manager maps room codes to rooms and processes every inbound intent,
// serialized per room through the room mutex. Rooms are independent; no
// cross-room coordination happens here.
type Manager struct {
	rooms     RoomRepository
	engine    rules.Engine
	publisher *events.Publisher
	logger    *zap.Logger

	recorder MatchRecorder // optional
	ratings  RatingService // optional

	grace      time.Duration
	reconnects *supervisor
}

// NewManager creates a session manager on top of the given room repository
// and rules engine.
func NewManager(
	rooms RoomRepository,
	engine rules.Engine,
	publisher *events.Publisher,
	logger *zap.Logger,
) *Manager {
	m := &Manager{
		rooms:      rooms,
		engine:     engine,
		publisher:  publisher,
		logger:     logger,
		grace:      DefaultReconnectGrace,
		reconnects: newSupervisor(),
	}

	m.setupEventHandlers()

	return m
}

// AttachStores wires the persistence collaborators for terminal states.
// Either may be nil.
func (m *Manager) AttachStores(recorder MatchRecorder, ratings RatingService) {
	m.recorder = recorder
	m.ratings = ratings
}

// SetReconnectGrace overrides the disconnect grace window.
func (m *Manager) SetReconnectGrace(d time.Duration) {
	m.grace = d
}

// setupEventHandlers subscribes the manager to transport-level events.
func (m *Manager) setupEventHandlers() {
	m.publisher.Subscribe(events.EventConnectionClosed, func(event events.Event) {
		payload, ok := event.Payload.(map[string]string)
		if !ok {
			m.logger.Error("invalid connection closed payload type")
			return
		}

		connID, err := uuid.Parse(payload["connection_id"])
		if err != nil {
			m.logger.Error("invalid connection id in closed event", zap.Error(err))
			return
		}

		m.HandleDisconnect(connID)
	})
}

// CreateRoom allocates a Waiting room with the caller seated as White and
// announces the shareable code back to them.
func (m *Manager) CreateRoom(
	conn Messenger,
	connID uuid.UUID,
	identity, name string,
	timeLimitMs int64,
) (*Room, error) {
	id, err := m.allocateRoomID()
	if err != nil {
		return nil, err
	}

	room := &Room{
		ID:          id,
		TimeLimitMs: timeLimitMs,
		CreatedAt:   time.Now(),
		Status:      StatusWaiting,
		Position:    m.engine.InitialPosition(),
		Players: map[color.Color]*Player{
			color.White: {
				ConnID:    connID,
				Conn:      conn,
				Side:      color.White,
				Identity:  identity,
				Name:      name,
				Connected: true,
			},
		},
	}

	if timeLimitMs > 0 {
		room.Clock = clock.New(timeLimitMs)
	}

	m.rooms.Put(room)

	m.logger.Info("room created",
		zap.String("room_id", id),
		zap.Int64("time_limit_ms", timeLimitMs),
		zap.Bool("guest", identity == ""))

	m.publisher.Publish(events.Event{Type: events.EventRoomCreated, RoomID: id})

	conn.SendJSON(messages.OutboundMessage{
		Event: messages.EvtRoomCreated,
		Payload: messages.RoomCreatedPayload{
			RoomID:      id,
			Side:        string(color.White),
			TimeLimitMs: timeLimitMs,
		},
	})

	return room, nil
}

// JoinRoom fills the empty seat of a Waiting room, starts the match and
// sends each seat its own full-state snapshot.
func (m *Manager) JoinRoom(
	conn Messenger,
	connID uuid.UUID,
	identity, name, roomID string,
) error {
	room, ok := m.rooms.Get(roomID)
	if !ok {
		return ErrRoomNotFound
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.Status != StatusWaiting {
		return ErrRoomNotJoinable
	}

	room.Players[color.Black] = &Player{
		ConnID:    connID,
		Conn:      conn,
		Side:      color.Black,
		Identity:  identity,
		Name:      name,
		Connected: true,
	}
	room.Status = StatusPlaying

	if room.Clock != nil {
		side := room.Position.Turn()
		room.Clock.Start(side)
		m.armClockTimer(room, side)
	}

	for side, p := range room.Players {
		p.Conn.SendJSON(messages.OutboundMessage{
			Event:   messages.EvtGameStart,
			Payload: room.snapshot(side),
		})
	}

	m.logger.Info("room joined, game started", zap.String("room_id", roomID))
	m.publisher.Publish(events.Event{Type: events.EventGameStarted, RoomID: roomID})

	return nil
}

// LeaveRoom discards a room that is still waiting for an opponent. Leaving
// anything later is resignation territory, not leaving.
func (m *Manager) LeaveRoom(connID uuid.UUID, roomID string) error {
	room, ok := m.rooms.Get(roomID)
	if !ok {
		return ErrRoomNotFound
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.Status != StatusWaiting {
		return ErrRoomNotJoinable
	}
	if room.playerByConn(connID) == nil {
		return ErrNotAParticipant
	}

	m.rooms.Delete(roomID)
	m.logger.Info("waiting room discarded", zap.String("room_id", roomID))
	m.publisher.Publish(events.Event{Type: events.EventRoomDiscarded, RoomID: roomID})

	return nil
}

// SubmitMove arbitrates one move: preconditions, clock settlement, legality,
// then a single state broadcast to both seats.
func (m *Manager) SubmitMove(connID uuid.UUID, roomID string, mv rules.Move) error {
	room, ok := m.rooms.Get(roomID)
	if !ok {
		return ErrRoomNotFound
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.Status != StatusPlaying {
		return ErrRoomNotActive
	}

	p := room.playerByConn(connID)
	if p == nil {
		return ErrNotAParticipant
	}

	turn := room.Position.Turn()
	if p.Side != turn {
		return ErrOutOfTurn
	}

	// Settle the clock before consulting the engine: a move that arrives
	// after the allowance ran out is a timeout, never a legal move.
	if room.Clock != nil {
		if _, expired := room.Clock.Deduct(time.Now()); expired {
			m.finishLocked(room, Result{Reason: ReasonTimeout, Winner: turn.Opp()})
			return nil
		}
	}

	next, verdict, err := m.engine.Apply(room.Position, mv)
	if err != nil {
		m.logger.Error("rules engine failure",
			zap.String("room_id", roomID), zap.Error(err))
		return err
	}

	if !verdict.Legal {
		// The true elapsed time was already charged; the failed attempt
		// costs nothing more. Same side stays on the clock.
		if room.Clock != nil {
			m.armClockTimer(room, turn)
		}
		return ErrIllegalMove
	}

	room.Position = next
	room.MoveLog = append(room.MoveLog, MoveRecord{UCI: mv.UCI(), SAN: verdict.SAN})

	newTurn := next.Turn()
	if room.Clock != nil && !verdict.Terminal() {
		room.Clock.SwitchTo(newTurn)
		m.armClockTimer(room, newTurn)
	}

	white, black := room.clockTimes()
	room.broadcast(messages.OutboundMessage{
		Event: messages.EvtMoveApplied,
		Payload: messages.MoveAppliedPayload{
			RoomID:      roomID,
			UCI:         mv.UCI(),
			SAN:         verdict.SAN,
			FEN:         next.FEN(),
			Turn:        string(newTurn),
			IsCheck:     verdict.IsCheck,
			WhiteTimeMs: white,
			BlackTimeMs: black,
		},
	})

	switch {
	case verdict.IsCheckmate:
		m.finishLocked(room, Result{Reason: ReasonCheckmate, Winner: turn})
	case verdict.IsStalemate:
		m.finishLocked(room, Result{Reason: ReasonStalemate, Winner: color.None})
	case verdict.IsDraw:
		m.finishLocked(room, Result{Reason: ReasonDraw, Winner: color.None})
	}

	return nil
}

// Resign finishes the room immediately, crediting the opposite side.
func (m *Manager) Resign(connID uuid.UUID, roomID string) error {
	room, ok := m.rooms.Get(roomID)
	if !ok {
		return ErrRoomNotFound
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.Status != StatusPlaying {
		return ErrRoomNotActive
	}

	p := room.playerByConn(connID)
	if p == nil {
		return ErrNotAParticipant
	}

	m.finishLocked(room, Result{Reason: ReasonResignation, Winner: p.Side.Opp()})
	return nil
}

// OfferDraw registers a draw offer and notifies the opponent. A second offer
// while one is pending is ignored.
func (m *Manager) OfferDraw(connID uuid.UUID, roomID string) error {
	room, ok := m.rooms.Get(roomID)
	if !ok {
		return ErrRoomNotFound
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.Status != StatusPlaying {
		return ErrRoomNotActive
	}

	p := room.playerByConn(connID)
	if p == nil {
		return ErrNotAParticipant
	}

	if room.PendingDrawOffer != color.None {
		return nil
	}

	room.PendingDrawOffer = p.Side
	room.sendTo(p.Side.Opp(), messages.OutboundMessage{
		Event: messages.EvtDrawOffered,
		Payload: messages.DrawOfferedPayload{
			RoomID: roomID,
			From:   string(p.Side),
		},
	})

	return nil
}

// RespondDraw resolves a pending offer. Accepting finishes the room as a
// draw by agreement; declining clears the offer and notifies the offerer.
// A response when nothing is pending is a no-op.
func (m *Manager) RespondDraw(connID uuid.UUID, roomID string, accept bool) error {
	room, ok := m.rooms.Get(roomID)
	if !ok {
		return ErrRoomNotFound
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.Status != StatusPlaying {
		return ErrRoomNotActive
	}

	p := room.playerByConn(connID)
	if p == nil {
		return ErrNotAParticipant
	}

	// Only the offer target may respond.
	if room.PendingDrawOffer == color.None || room.PendingDrawOffer == p.Side {
		return nil
	}

	if accept {
		m.finishLocked(room, Result{Reason: ReasonDrawAgreement, Winner: color.None})
		return nil
	}

	offerer := room.PendingDrawOffer
	room.PendingDrawOffer = color.None
	room.sendTo(offerer, messages.OutboundMessage{
		Event:   messages.EvtDrawDeclined,
		Payload: messages.DrawDeclinedPayload{RoomID: roomID},
	})

	return nil
}

// Chat broadcasts a chat line to both seats.
func (m *Manager) Chat(connID uuid.UUID, roomID, text string) error {
	room, ok := m.rooms.Get(roomID)
	if !ok {
		return ErrRoomNotFound
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	p := room.playerByConn(connID)
	if p == nil {
		return ErrNotAParticipant
	}

	room.broadcast(messages.OutboundMessage{
		Event: messages.EvtChatMessage,
		Payload: messages.ChatBroadcastPayload{
			RoomID: roomID,
			From:   p.Name,
			Text:   text,
		},
	})

	return nil
}

// Relay forwards an opaque payload verbatim to the other seat. The manager
// only resolves the address; it never interprets the blob. If no opponent is
// currently connected the payload is dropped silently.
func (m *Manager) Relay(connID uuid.UUID, roomID string, data json.RawMessage) error {
	room, ok := m.rooms.Get(roomID)
	if !ok {
		return ErrRoomNotFound
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	p := room.playerByConn(connID)
	if p == nil {
		return ErrNotAParticipant
	}

	opp := room.opponentOf(p.Side)
	if opp == nil || !opp.Connected {
		return nil
	}

	opp.Conn.SendJSON(messages.OutboundMessage{
		Event: messages.EvtSignalRelay,
		Payload: messages.SignalRelayPayload{
			RoomID: roomID,
			Data:   data,
		},
	})

	return nil
}

// HandleDisconnect reacts to a transport-level drop of a connection. It is
// wired to the hub through the connection-closed event.
func (m *Manager) HandleDisconnect(connID uuid.UUID) {
	for _, room := range m.rooms.List() {
		room.mu.Lock()
		if p := room.playerByConn(connID); p != nil {
			m.disconnectSeatLocked(room, p)
		}
		room.mu.Unlock()
	}
}

func (m *Manager) disconnectSeatLocked(room *Room, p *Player) {
	p.Connected = false

	switch {
	case room.Status == StatusFinished:
		// History stays readable; nothing to do.

	case room.Status == StatusWaiting:
		// No opponent yet, nothing to preserve.
		m.rooms.Delete(room.ID)
		m.logger.Info("waiting room discarded on disconnect", zap.String("room_id", room.ID))
		m.publisher.Publish(events.Event{Type: events.EventRoomDiscarded, RoomID: room.ID})

	case room.bothDisconnected():
		// Nobody left to play for or notify.
		room.tryFinish(Result{Reason: ReasonAbandoned, Winner: color.None})
		m.reconnects.cancelRoom(room.ID)
		m.rooms.Delete(room.ID)
		m.logger.Info("room discarded, both seats disconnected", zap.String("room_id", room.ID))
		m.publisher.Publish(events.Event{Type: events.EventRoomDiscarded, RoomID: room.ID})

	case p.Guest():
		// No identity to validate a rejoin against: immediate abandonment.
		m.finishLocked(room, Result{Reason: ReasonAbandoned, Winner: p.Side.Opp()})

	default:
		// Identified player: grace window. The clock keeps running; stalling
		// an opponent by unplugging forfeits through the normal timeout.
		room.sendTo(p.Side.Opp(), messages.OutboundMessage{
			Event: messages.EvtOpponentOffline,
			Payload: messages.OpponentOfflinePayload{
				RoomID:  room.ID,
				GraceMs: m.grace.Milliseconds(),
			},
		})

		roomID, identity, side := room.ID, p.Identity, p.Side
		m.reconnects.watch(identity, roomID, m.grace, func() {
			m.handleGraceExpiry(roomID, identity, side)
		})

		m.logger.Info("player disconnected, grace window armed",
			zap.String("room_id", room.ID),
			zap.String("side", string(p.Side)),
			zap.Duration("grace", m.grace))
	}
}

// handleGraceExpiry fires when a reconnection deadline elapses. The state
// that justified arming it may be long gone, so everything is re-checked
// under the room mutex before acting.
func (m *Manager) handleGraceExpiry(roomID, identity string, side color.Color) {
	room, ok := m.rooms.Get(roomID)
	if !ok {
		return
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.Status != StatusPlaying {
		return
	}

	p := room.playerByIdentity(identity)
	if p == nil || p.Connected {
		return
	}

	room.sendTo(side.Opp(), messages.OutboundMessage{
		Event: messages.EvtPlayerDisconnected,
		Payload: messages.PlayerDisconnectedPayload{
			RoomID: roomID,
			Side:   string(side),
		},
	})

	m.finishLocked(room, Result{Reason: ReasonAbandoned, Winner: side.Opp()})
}

// Reconnect restores an identified player's seat before the grace deadline:
// the deadline is cancelled, the connection rebound, the full state resent
// to the rejoiner and the opponent notified.
func (m *Manager) Reconnect(conn Messenger, connID uuid.UUID, identity, roomID string) error {
	if identity == "" {
		return ErrNoReconnect
	}

	room, ok := m.rooms.Get(roomID)
	if !ok {
		return ErrRoomNotFound
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.Status != StatusPlaying {
		return ErrRoomNotActive
	}

	p := room.playerByIdentity(identity)
	if p == nil {
		return ErrNotAParticipant
	}
	if p.Connected {
		return nil
	}

	if !m.reconnects.cancel(identity, roomID) {
		// The deadline already fired; its handler owns the outcome.
		return ErrNoReconnect
	}

	p.ConnID = connID
	p.Conn = conn
	p.Connected = true

	conn.SendJSON(messages.OutboundMessage{
		Event:   messages.EvtGameReconnect,
		Payload: room.snapshot(p.Side),
	})
	room.sendTo(p.Side.Opp(), messages.OutboundMessage{
		Event:   messages.EvtOpponentReconnected,
		Payload: messages.OpponentReconnectedPayload{RoomID: roomID},
	})

	m.logger.Info("player reconnected",
		zap.String("room_id", roomID),
		zap.String("side", string(p.Side)))

	return nil
}

// armClockTimer schedules the timeout for the side about to move, replacing
// any previously armed timer for this room. Callers must hold room.mu.
func (m *Manager) armClockTimer(room *Room, side color.Color) {
	remaining := room.Clock.RemainingFor(side)
	roomID := room.ID

	room.Clock.Arm(time.Duration(remaining)*time.Millisecond, func() {
		m.handleClockTimeout(roomID, side)
	})
}

// handleClockTimeout fires when an armed timeout elapses. Scheduling and
// firing are separated in time, so the room state is re-validated first; a
// timer racing an already-decided game is a no-op.
func (m *Manager) handleClockTimeout(roomID string, side color.Color) {
	room, ok := m.rooms.Get(roomID)
	if !ok {
		return
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.Status != StatusPlaying {
		return
	}
	if room.Clock == nil || room.Clock.Running() != side {
		// A move slipped in while this callback waited on the mutex.
		return
	}

	room.Clock.Deduct(time.Now())
	m.finishLocked(room, Result{Reason: ReasonTimeout, Winner: side.Opp()})
}

// finishLocked performs the terminal transition, broadcasts the outcome and
// hands the record to the persistence collaborators. Only the caller that
// wins the transition broadcasts and persists. Callers must hold room.mu.
func (m *Manager) finishLocked(room *Room, res Result) bool {
	if !room.tryFinish(res) {
		return false
	}

	m.reconnects.cancelRoom(room.ID)

	white, black := room.clockTimes()
	room.broadcast(messages.OutboundMessage{
		Event: messages.EvtGameOver,
		Payload: messages.GameOverPayload{
			RoomID:      room.ID,
			Reason:      string(res.Reason),
			Winner:      string(res.Winner),
			WhiteTimeMs: white,
			BlackTimeMs: black,
		},
	})

	m.logger.Info("room finished",
		zap.String("room_id", room.ID),
		zap.String("reason", string(res.Reason)),
		zap.String("winner", string(res.Winner)))

	m.publisher.Publish(events.Event{Type: events.EventGameFinished, RoomID: room.ID})

	// Status is already Finished; the write happens off the room lock and
	// its failure never rolls back the broadcast outcome.
	rec := m.buildRecordLocked(room, res)
	go m.persistResult(rec, res)

	return true
}

func (m *Manager) buildRecordLocked(room *Room, res Result) MatchRecord {
	rec := MatchRecord{
		RoomID:      room.ID,
		Winner:      string(res.Winner),
		Reason:      string(res.Reason),
		MoveCount:   len(room.MoveLog),
		TimeLimitMs: room.TimeLimitMs,
		StartedAt:   room.CreatedAt,
		EndedAt:     time.Now(),
	}

	if p := room.Players[color.White]; p != nil {
		rec.WhiteID, rec.WhiteName = p.Identity, p.Name
	}
	if p := room.Players[color.Black]; p != nil {
		rec.BlackID, rec.BlackName = p.Identity, p.Name
	}

	return rec
}

func (m *Manager) persistResult(rec MatchRecord, res Result) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	if m.recorder != nil {
		if err := m.recorder.RecordMatch(ctx, rec); err != nil {
			m.logger.Error("match record write failed",
				zap.String("room_id", rec.RoomID), zap.Error(err))
		}
	}

	if m.ratings == nil || res.Winner == color.None {
		return
	}

	winnerID, loserID := rec.WhiteID, rec.BlackID
	if res.Winner == color.Black {
		winnerID, loserID = rec.BlackID, rec.WhiteID
	}
	if winnerID == "" || loserID == "" {
		// Guests carry no rating.
		return
	}

	if err := m.ratings.AdjustRatings(ctx, winnerID, loserID); err != nil {
		m.logger.Error("rating adjustment failed",
			zap.String("room_id", rec.RoomID), zap.Error(err))
	}
}

// Close cancels every outstanding timer so shutdown leaves nothing orphaned.
func (m *Manager) Close() {
	m.reconnects.close()

	for _, room := range m.rooms.List() {
		room.mu.Lock()
		if room.Clock != nil {
			room.Clock.StopTimer()
		}
		room.mu.Unlock()
	}
}

// allocateRoomID draws short shareable codes until one is unused. The id
// space is large enough that exhausting the attempt budget signals something
// badly wrong rather than bad luck.
func (m *Manager) allocateRoomID() (string, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		buf := make([]byte, roomIDLength)
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for i, b := range buf {
			buf[i] = roomIDAlphabet[int(b)%len(roomIDAlphabet)]
		}

		id := string(buf)
		if _, taken := m.rooms.Get(id); !taken {
			return id, nil
		}
	}

	return "", ErrAllocationExhausted
}
