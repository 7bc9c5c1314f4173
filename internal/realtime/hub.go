// Geoboard - Location-based Announcement Board
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoboard

package realtime

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/tomtom215/geoboard/internal/geogrid"
	"github.com/tomtom215/geoboard/internal/logging"
	"github.com/tomtom215/geoboard/internal/metrics"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled is the normal graceful path (e.g., SIGTERM).
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline may indicate a hung operation during shutdown.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

var (
	// ErrHubStopped is returned when the hub loop is no longer running.
	ErrHubStopped = errors.New("realtime: hub stopped")

	// ErrDispatchQueueFull is returned when the dispatch queue has no room.
	// The event is not delivered.
	ErrDispatchQueueFull = errors.New("realtime: dispatch queue full")

	// ErrSessionClosed is returned for requests on a session the hub already dropped.
	ErrSessionClosed = errors.New("realtime: session closed")
)

// HubConfig configures fan-out behavior.
type HubConfig struct {
	// BroadcastCreates delivers created events to every session, not only
	// the nine rooms around the bulletin.
	BroadcastCreates bool

	// DispatchBuffer is the capacity of the inbound event queue.
	DispatchBuffer int

	// SendBuffer is the capacity of each session's outbound queue.
	SendBuffer int

	// JoinRate (per second) and JoinBurst limit join-location per session.
	JoinRate  float64
	JoinBurst int

	// DebugEvents enables check-rooms, which lists every occupied room.
	DebugEvents bool
}

// DefaultHubConfig returns the defaults used when no configuration is supplied.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		BroadcastCreates: true,
		DispatchBuffer:   1024,
		SendBuffer:       256,
		JoinRate:         2,
		JoinBurst:        5,
	}
}

type joinRequest struct {
	session *Session
	coord   geogrid.Coordinate
}

// Hub owns the session set and the Registry and fans out bulletin events.
//
// All mutations run on the goroutine executing RunWithContext. Each loop
// iteration handles, in priority order: shutdown, then lifecycle and join
// requests, then dispatch. A join accepted before Dispatch is called is
// therefore applied before that event computes its targets.
type Hub struct {
	cfg      HubConfig
	registry *Registry
	log      zerolog.Logger

	register   chan *Session
	unregister chan *Session
	joins      chan joinRequest
	dispatch   chan Event

	mu       sync.RWMutex
	sessions map[SessionID]*Session
	quit     chan struct{}
	stopped  atomic.Bool
}

// NewHub creates a Hub that records room membership in registry.
func NewHub(registry *Registry, cfg HubConfig) *Hub {
	def := DefaultHubConfig()
	if cfg.DispatchBuffer <= 0 {
		cfg.DispatchBuffer = def.DispatchBuffer
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = def.SendBuffer
	}
	if cfg.JoinRate <= 0 {
		cfg.JoinRate = def.JoinRate
	}
	if cfg.JoinBurst <= 0 {
		cfg.JoinBurst = def.JoinBurst
	}
	if registry == nil {
		registry = NewRegistry()
	}
	return &Hub{
		cfg:        cfg,
		registry:   registry,
		log:        logging.WithComponent("websocket-hub"),
		register:   make(chan *Session),
		unregister: make(chan *Session),
		joins:      make(chan joinRequest),
		dispatch:   make(chan Event, cfg.DispatchBuffer),
		sessions:   make(map[SessionID]*Session),
		quit:       make(chan struct{}),
	}
}

// Registry returns the hub's room registry.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// Config returns the hub configuration.
func (h *Hub) Config() HubConfig {
	return h.cfg
}

// SessionCount returns the number of registered sessions.
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Running reports whether the hub loop accepts work.
func (h *Hub) Running() bool {
	return !h.stopped.Load()
}

func (h *Hub) quitChan() chan struct{} {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.quit
}

// Register adds a session to the hub. It blocks until the loop accepts it.
func (h *Hub) Register(ctx context.Context, s *Session) error {
	select {
	case h.register <- s:
		return nil
	case <-h.quitChan():
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Join asks the hub to move s into the room for coord. It returns once the
// loop has taken the request; the room change is applied before the loop
// looks at any later dispatch.
func (h *Hub) Join(ctx context.Context, s *Session, coord geogrid.Coordinate) error {
	select {
	case h.joins <- joinRequest{session: s, coord: coord}:
		return nil
	case <-s.done:
		return ErrSessionClosed
	case <-h.quitChan():
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Unregister removes s. Unknown or already removed sessions are a no-op.
func (h *Hub) Unregister(s *Session) {
	select {
	case h.unregister <- s:
	case <-s.done:
	case <-h.quitChan():
	}
}

// Dispatch enqueues ev for fan-out without blocking. Failures are returned
// so the caller can log them; a failed dispatch is never retried.
func (h *Hub) Dispatch(ctx context.Context, ev Event) error {
	if !ev.Kind.Valid() {
		metrics.WSDispatchFailures.WithLabelValues("invalid").Inc()
		return ErrInvalidEvent
	}
	if err := ctx.Err(); err != nil {
		metrics.WSDispatchFailures.WithLabelValues("canceled").Inc()
		return err
	}
	if h.stopped.Load() {
		metrics.WSDispatchFailures.WithLabelValues("hub_stopped").Inc()
		return ErrHubStopped
	}

	select {
	case h.dispatch <- ev:
		return nil
	default:
		metrics.WSDispatchFailures.WithLabelValues("queue_full").Inc()
		return ErrDispatchQueueFull
	}
}

// RunWithContext runs the hub loop until ctx is done, then closes every
// session and returns ctx.Err(). It may be called again after it returns,
// which is how the supervisor restarts the hub.
func (h *Hub) RunWithContext(ctx context.Context) error {
	h.mu.Lock()
	select {
	case <-h.quit:
		h.quit = make(chan struct{})
	default:
	}
	h.mu.Unlock()
	h.stopped.Store(false)

	for {
		// Priority 1: shutdown
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		default:
		}

		// Priority 2: lifecycle and joins
		select {
		case s := <-h.register:
			h.addSession(s)
			continue
		case s := <-h.unregister:
			h.removeSession(s, "client disconnected")
			continue
		case req := <-h.joins:
			h.applyJoin(req)
			continue
		default:
		}

		// Priority 3: dispatch, or wait for anything
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case s := <-h.register:
			h.addSession(s)
		case s := <-h.unregister:
			h.removeSession(s, "client disconnected")
		case req := <-h.joins:
			h.applyJoin(req)
		case ev := <-h.dispatch:
			h.fanOut(ev)
		}
	}
}

func (h *Hub) addSession(s *Session) {
	h.mu.Lock()
	h.sessions[s.id] = s
	total := len(h.sessions)
	h.mu.Unlock()

	metrics.WSSessionsActive.Set(float64(total))
	h.log.Info().Uint64("session_id", uint64(s.id)).Int("total_sessions", total).Msg("websocket session connected")
}

// removeSession must only run on the hub goroutine.
func (h *Hub) removeSession(s *Session, reason string) {
	h.mu.Lock()
	if _, ok := h.sessions[s.id]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.sessions, s.id)
	total := len(h.sessions)
	h.mu.Unlock()

	room, hadRoom := h.registry.Leave(s.id)
	s.close()

	metrics.WSSessionsActive.Set(float64(total))
	metrics.WSRoomsActive.Set(float64(h.registry.RoomCount()))
	evt := h.log.Info().
		Uint64("session_id", uint64(s.id)).
		Str("reason", reason).
		Int("total_sessions", total)
	if hadRoom {
		evt = evt.Str("room", room)
	}
	evt.Msg("websocket session disconnected")
}

func (h *Hub) applyJoin(req joinRequest) {
	s := req.session
	h.mu.RLock()
	_, ok := h.sessions[s.id]
	h.mu.RUnlock()
	if !ok {
		return
	}

	room, changed := h.registry.Join(s.id, req.coord.Lat, req.coord.Lng)
	s.setState(StateRoomAssigned)

	metrics.RecordJoin(changed)
	metrics.WSRoomsActive.Set(float64(h.registry.RoomCount()))
	if changed {
		h.log.Debug().Uint64("session_id", uint64(s.id)).Str("room", room).Msg("session joined room")
	}
}

// TargetRooms returns the rooms an event is fanned out to: its own cell and
// the 8 around it.
func TargetRooms(ev Event) []string {
	cells := geogrid.TargetCells(ev.Cell())
	rooms := make([]string, len(cells))
	for i, c := range cells {
		rooms[i] = geogrid.RoomName(c)
	}
	return rooms
}

// targets returns the sessions ev is delivered to, sorted by id, each once.
func (h *Hub) targets(ev Event) []*Session {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var ids []SessionID
	if ev.Kind == EventCreated && h.cfg.BroadcastCreates {
		ids = make([]SessionID, 0, len(h.sessions))
		for id := range h.sessions {
			ids = append(ids, id)
		}
	} else {
		seen := make(map[SessionID]struct{})
		for _, room := range TargetRooms(ev) {
			for _, id := range h.registry.MembersOf(room) {
				if _, dup := seen[id]; dup {
					continue
				}
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}
	slices.Sort(ids)

	out := make([]*Session, 0, len(ids))
	for _, id := range ids {
		if s, ok := h.sessions[id]; ok {
			out = append(out, s)
		}
	}
	return out
}

func (h *Hub) fanOut(ev Event) {
	targets := h.targets(ev)
	msg := ev.Message()

	delivered := 0
	var slow []*Session
	for _, s := range targets {
		select {
		case s.send <- msg:
			delivered++
		default:
			slow = append(slow, s)
		}
	}

	for _, s := range slow {
		metrics.WSSlowSessionsDropped.Inc()
		h.removeSession(s, "send buffer full")
	}

	metrics.RecordDispatch(ev.Kind.String(), len(targets), delivered)
	h.log.Debug().
		Str("kind", ev.Kind.String()).
		Str("cell", ev.Cell().Key()).
		Int("targets", len(targets)).
		Int("dropped", len(slow)).
		Msg("event dispatched")
}

func (h *Hub) shutdown(ctx context.Context) {
	h.mu.Lock()
	sessions := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		sessions = append(sessions, s)
	}
	clear(h.sessions)
	h.stopped.Store(true)
	close(h.quit)
	h.mu.Unlock()

	slices.SortFunc(sessions, func(a, b *Session) int {
		return cmp.Compare(a.id, b.id)
	})
	for _, s := range sessions {
		h.registry.Leave(s.id)
		s.close()
	}
	metrics.WSSessionsActive.Set(0)
	metrics.WSRoomsActive.Set(float64(h.registry.RoomCount()))

	// ctx.Err() is expected here and is not logged as an error.
	h.log.Info().
		Str("reason", string(getShutdownReason(ctx))).
		Int("sessions_closed", len(sessions)).
		Msg("websocket hub stopped")
}

func getShutdownReason(ctx context.Context) ShutdownReason {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ShutdownReasonContextDeadline
	}
	return ShutdownReasonContextCanceled
}
