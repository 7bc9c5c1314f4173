// Geoboard - Location-based Announcement Board
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoboard

package realtime

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/geoboard/internal/geogrid"
	"github.com/tomtom215/geoboard/internal/logging"
	"github.com/tomtom215/geoboard/internal/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024

	// controlBuffer holds replies produced by the read pump (pong, rooms-info).
	controlBuffer = 8
)

// sessionIDCounter hands out monotonically increasing session ids.
var sessionIDCounter atomic.Uint64

// SessionState is the lifecycle state of a Session.
type SessionState int32

// Session states. Disconnected is terminal.
const (
	StateConnected SessionState = iota
	StateRoomAssigned
	StateDisconnected
)

// String implements fmt.Stringer.
func (s SessionState) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateRoomAssigned:
		return "room_assigned"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Session is one client connection. The hub owns send and done and closes
// them when the session is dropped; control belongs to the session and is
// never closed.
type Session struct {
	id      SessionID
	userID  string
	hub     *Hub
	conn    *websocket.Conn
	send    chan Message
	control chan Message
	done    chan struct{}
	state   atomic.Int32
	limiter *rate.Limiter
	log     zerolog.Logger
}

// NewSession creates a session for conn. userID is empty for anonymous connections.
func NewSession(hub *Hub, conn *websocket.Conn, userID string) *Session {
	id := SessionID(sessionIDCounter.Add(1))
	l := logging.WithComponent("websocket-session").With().Uint64("session_id", uint64(id)).Logger()
	if userID != "" {
		l = l.With().Str("user_id", userID).Logger()
	}
	return &Session{
		id:      id,
		userID:  userID,
		hub:     hub,
		conn:    conn,
		send:    make(chan Message, hub.cfg.SendBuffer),
		control: make(chan Message, controlBuffer),
		done:    make(chan struct{}),
		limiter: rate.NewLimiter(rate.Limit(hub.cfg.JoinRate), hub.cfg.JoinBurst),
		log:     l,
	}
}

// ID returns the session id.
func (s *Session) ID() SessionID {
	return s.id
}

// UserID returns the authenticated user, or "".
func (s *Session) UserID() string {
	return s.userID
}

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	return SessionState(s.state.Load())
}

// setState moves the session to next unless it is already Disconnected.
func (s *Session) setState(next SessionState) {
	for {
		cur := s.state.Load()
		if SessionState(cur) == StateDisconnected {
			return
		}
		if s.state.CompareAndSwap(cur, int32(next)) {
			return
		}
	}
}

// close is called by the hub exactly once, when it drops the session.
func (s *Session) close() {
	s.state.Store(int32(StateDisconnected))
	close(s.send)
	close(s.done)
}

// Done is closed once the hub has dropped the session.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Start runs the read and write pumps. The session must already be registered.
func (s *Session) Start() {
	go s.writePump()
	go s.readPump()
}

func (s *Session) readPump() {
	defer func() {
		s.hub.Unregister(s)
		_ = s.conn.Close() // best-effort cleanup
	}()

	s.conn.SetReadLimit(maxMessageSize)
	if err := s.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		s.log.Error().Err(err).Msg("failed to set read deadline")
		return
	}
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.log.Warn().Err(err).Msg("unexpected websocket close error")
			}
			return
		}

		var msg inboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.log.Warn().Err(err).Msg("ignoring undecodable frame")
			continue
		}
		s.handleMessage(context.Background(), msg)
	}
}

// handleMessage applies one client frame. Malformed frames are logged and
// ignored; they never close the session.
func (s *Session) handleMessage(ctx context.Context, msg inboundMessage) {
	switch msg.Type {
	case MessageTypeJoinLocation:
		s.handleJoin(ctx, msg.Data)

	case MessageTypePing:
		s.reply(Message{Type: MessageTypePong})

	case MessageTypeCheckRooms:
		if !s.hub.cfg.DebugEvents {
			return
		}
		own := []string{}
		if room, ok := s.hub.registry.RoomOf(s.id); ok {
			own = append(own, room)
		}
		s.reply(Message{
			Type: MessageTypeRoomsInfo,
			Data: RoomsInfoData{SocketRooms: own, AllRooms: s.hub.registry.Rooms()},
		})

	case MessageTypeTestConnection:
		s.reply(Message{
			Type: MessageTypeTestResponse,
			Data: map[string]string{"message": "Hello from server"},
		})

	default:
		s.log.Debug().Str("type", msg.Type).Msg("ignoring unknown message type")
	}
}

func (s *Session) handleJoin(ctx context.Context, raw json.RawMessage) {
	coord, ok := decodeJoin(raw)
	if !ok {
		metrics.WSJoinsRejected.WithLabelValues("malformed").Inc()
		s.log.Warn().RawJSON("data", safeRaw(raw)).Msg("ignoring malformed join-location")
		return
	}
	if !s.limiter.Allow() {
		metrics.WSJoinsRejected.WithLabelValues("rate_limited").Inc()
		s.log.Warn().Msg("join-location rate limit exceeded")
		return
	}
	if err := s.hub.Join(ctx, s, coord); err != nil {
		s.log.Debug().Err(err).Msg("join-location not applied")
	}
}

// decodeJoin requires both lat and lng to be finite numbers.
func decodeJoin(raw json.RawMessage) (geogrid.Coordinate, bool) {
	if len(raw) == 0 {
		return geogrid.Coordinate{}, false
	}
	var d JoinLocationData
	if err := json.Unmarshal(raw, &d); err != nil {
		return geogrid.Coordinate{}, false
	}
	if d.Lat == nil || d.Lng == nil {
		return geogrid.Coordinate{}, false
	}
	lat, lng := *d.Lat, *d.Lng
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lng) || math.IsInf(lng, 0) {
		return geogrid.Coordinate{}, false
	}
	return geogrid.Coordinate{Lat: lat, Lng: lng}, true
}

// safeRaw keeps invalid JSON out of the structured log line.
func safeRaw(raw json.RawMessage) []byte {
	if len(raw) == 0 || !json.Valid(raw) {
		return []byte("null")
	}
	return raw
}

// reply queues a direct answer to this client. Replies are dropped when the
// control queue is full.
func (s *Session) reply(msg Message) {
	select {
	case s.control <- msg:
	default:
		s.log.Debug().Str("type", msg.Type).Msg("control queue full, dropping reply")
	}
}

func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close() // best-effort cleanup
	}()

	for {
		select {
		case msg, ok := <-s.send:
			if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				s.log.Error().Err(err).Msg("failed to set write deadline")
				return
			}
			if !ok {
				// The hub dropped the session.
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.writeJSON(msg); err != nil {
				return
			}

		case msg := <-s.control:
			if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := s.writeJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Session) writeJSON(msg Message) error {
	data, err := MarshalMessage(msg)
	if err != nil {
		s.log.Error().Err(err).Str("type", msg.Type).Msg("failed to encode message")
		return nil
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		s.log.Debug().Err(err).Msg("failed to write message")
		return err
	}
	return nil
}
