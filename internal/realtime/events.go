// Geoboard - Location-based Announcement Board
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoboard

package realtime

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/tomtom215/geoboard/internal/geogrid"
	"github.com/tomtom215/geoboard/internal/models"
)

// Message types for WebSocket communication
const (
	MessageTypeNewBulletin     = "new-bulletin"
	MessageTypeBulletinUpdated = "bulletin-updated"
	MessageTypeBulletinDeleted = "bulletin-deleted"

	MessageTypeJoinLocation = "join-location"
	MessageTypePing         = "ping"
	MessageTypePong         = "pong"

	// Room listing, enabled by realtime.debug_events
	MessageTypeCheckRooms = "check-rooms"
	MessageTypeRoomsInfo  = "rooms-info"

	MessageTypeTestConnection = "test-connection"
	MessageTypeTestResponse   = "test-response"
)

// Message is an outbound WebSocket frame.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// inboundMessage is a client frame. Data is decoded per Type.
type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// MarshalMessage converts a message to JSON.
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// EventKind is the kind of bulletin mutation being fanned out.
type EventKind int

// Event kinds. The zero value is invalid.
const (
	EventCreated EventKind = iota + 1
	EventUpdated
	EventDeleted
)

// ErrInvalidEvent is returned for events with an unknown kind.
var ErrInvalidEvent = errors.New("realtime: invalid event kind")

// MessageType is the wire name of the kind.
func (k EventKind) MessageType() string {
	switch k {
	case EventCreated:
		return MessageTypeNewBulletin
	case EventUpdated:
		return MessageTypeBulletinUpdated
	case EventDeleted:
		return MessageTypeBulletinDeleted
	default:
		return ""
	}
}

// String implements fmt.Stringer.
func (k EventKind) String() string {
	if t := k.MessageType(); t != "" {
		return t
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Valid reports whether k is one of the defined kinds.
func (k EventKind) Valid() bool {
	return k.MessageType() != ""
}

// Event is one bulletin mutation to fan out around Coordinate.
type Event struct {
	Kind       EventKind
	Coordinate geogrid.Coordinate
	Payload    any
}

// NewCreatedEvent builds a new-bulletin event carrying the full bulletin.
func NewCreatedEvent(b *models.Bulletin) Event {
	return Event{Kind: EventCreated, Coordinate: b.Coordinate(), Payload: b}
}

// NewUpdatedEvent builds a bulletin-updated event carrying the full bulletin.
func NewUpdatedEvent(b *models.Bulletin) Event {
	return Event{Kind: EventUpdated, Coordinate: b.Coordinate(), Payload: b}
}

// NewDeletedEvent builds a bulletin-deleted event. The payload is only the id.
func NewDeletedEvent(id string, coord geogrid.Coordinate) Event {
	return Event{Kind: EventDeleted, Coordinate: coord, Payload: id}
}

// Cell returns the origin cell of the event.
func (e Event) Cell() geogrid.Cell {
	return geogrid.CellOfCoordinate(e.Coordinate)
}

// Message returns the frame sent to each target.
func (e Event) Message() Message {
	return Message{Type: e.Kind.MessageType(), Data: e.Payload}
}

// JoinLocationData is the payload of join-location.
type JoinLocationData struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

// RoomsInfoData is the payload of rooms-info. SocketRooms holds the
// session's location room, if any; AllRooms every occupied room, sorted.
type RoomsInfoData struct {
	SocketRooms []string `json:"socketRooms"`
	AllRooms    []string `json:"allRooms"`
}
