// Geoboard - Location-based Announcement Board
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoboard

package realtime

import (
	"slices"
	"sync"

	"github.com/tomtom215/geoboard/internal/geogrid"
)

// SessionID identifies a connection. IDs are unique and increase monotonically.
type SessionID uint64

// Registry maps sessions to their single current room and rooms to members.
//
// Both directions are updated under one lock and are always consistent:
// a session appears in members[r] iff rooms[session] == r. Empty rooms are
// removed. All mutations happen on the hub goroutine; the lock lets metrics,
// rooms-info and tests read concurrently.
type Registry struct {
	mu      sync.RWMutex
	members map[string]map[SessionID]struct{}
	rooms   map[SessionID]string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		members: make(map[string]map[SessionID]struct{}),
		rooms:   make(map[SessionID]string),
	}
}

// Join places the session in the room for (lat, lng), leaving its previous
// room if that differs. changed is false when it was already there.
func (r *Registry) Join(id SessionID, lat, lng float64) (room string, changed bool) {
	room = geogrid.RoomOf(lat, lng)

	r.mu.Lock()
	defer r.mu.Unlock()

	prev, had := r.rooms[id]
	if had && prev == room {
		return room, false
	}
	if had {
		r.removeLocked(id, prev)
	}

	set, ok := r.members[room]
	if !ok {
		set = make(map[SessionID]struct{})
		r.members[room] = set
	}
	set[id] = struct{}{}
	r.rooms[id] = room
	return room, true
}

// Leave removes the session from its room. ok is false when it had none.
func (r *Registry) Leave(id SessionID) (room string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok = r.rooms[id]
	if !ok {
		return "", false
	}
	r.removeLocked(id, room)
	return room, true
}

func (r *Registry) removeLocked(id SessionID, room string) {
	delete(r.rooms, id)
	if set, ok := r.members[room]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(r.members, room)
		}
	}
}

// MembersOf returns the sessions in room sorted by id. Unknown rooms yield nil.
func (r *Registry) MembersOf(room string) []SessionID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.members[room]
	if len(set) == 0 {
		return nil
	}
	out := make([]SessionID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// RoomOf returns the session's current room.
func (r *Registry) RoomOf(id SessionID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[id]
	return room, ok
}

// RoomCount returns the number of non-empty rooms.
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

// SessionCount returns the number of sessions that hold a room.
func (r *Registry) SessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// Rooms returns the names of all non-empty rooms, sorted.
func (r *Registry) Rooms() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.members))
	for room := range r.members {
		out = append(out, room)
	}
	slices.Sort(out)
	return out
}
