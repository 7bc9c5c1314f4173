// Geoboard - Location-based Announcement Board
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoboard

package realtime

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertConsistent checks that both directions of the registry agree.
func assertConsistent(t *testing.T, r *Registry) {
	t.Helper()
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for room, set := range r.members {
		assert.NotEmpty(t, set, "empty room %s kept", room)
		for id := range set {
			count++
			assert.Equal(t, room, r.rooms[id], "session %d filed under %s", id, room)
		}
	}
	assert.Equal(t, len(r.rooms), count, "every session must be in exactly one room")
}

func TestRegistry_JoinIdempotent(t *testing.T) {
	r := NewRegistry()

	room, changed := r.Join(1, 41.05, 29.05)
	assert.Equal(t, "location:41.0:29.0", room)
	assert.True(t, changed)

	room, changed = r.Join(1, 41.01, 29.09)
	assert.Equal(t, "location:41.0:29.0", room)
	assert.False(t, changed, "same cell must not count as a change")

	assert.Equal(t, []SessionID{1}, r.MembersOf(room))
	assert.Equal(t, 1, r.RoomCount())
	assertConsistent(t, r)
}

func TestRegistry_RoomExclusivity(t *testing.T) {
	r := NewRegistry()

	r.Join(1, 41.05, 29.05)
	room, changed := r.Join(1, 42.0, 29.0)
	require.True(t, changed)
	assert.Equal(t, "location:42.0:29.0", room)

	assert.Empty(t, r.MembersOf("location:41.0:29.0"))
	assert.Equal(t, []SessionID{1}, r.MembersOf("location:42.0:29.0"))
	assert.Equal(t, 1, r.RoomCount(), "previous room must be removed once empty")

	got, ok := r.RoomOf(1)
	require.True(t, ok)
	assert.Equal(t, room, got)
	assertConsistent(t, r)
}

func TestRegistry_Leave(t *testing.T) {
	r := NewRegistry()
	r.Join(1, 41.0, 29.0)
	r.Join(2, 41.0, 29.0)

	room, ok := r.Leave(1)
	assert.True(t, ok)
	assert.Equal(t, "location:41.0:29.0", room)
	assert.Equal(t, []SessionID{2}, r.MembersOf(room))

	_, ok = r.Leave(1)
	assert.False(t, ok, "second leave is a no-op")

	_, ok = r.Leave(99)
	assert.False(t, ok, "unknown session is a no-op")

	r.Leave(2)
	assert.Zero(t, r.RoomCount())
	assert.Zero(t, r.SessionCount())
	assertConsistent(t, r)
}

func TestRegistry_MembersSorted(t *testing.T) {
	r := NewRegistry()
	for _, id := range []SessionID{5, 3, 9, 1} {
		r.Join(id, 10.0, 10.0)
	}
	assert.Equal(t, []SessionID{1, 3, 5, 9}, r.MembersOf("location:10.0:10.0"))
	assert.Nil(t, r.MembersOf("location:0.0:0.0"))
}

func TestRegistry_Rooms(t *testing.T) {
	r := NewRegistry()
	r.Join(1, 41.0, 29.0)
	r.Join(2, -0.05, 0.0)
	assert.Equal(t, []string{"location:-0.1:0.0", "location:41.0:29.0"}, r.Rooms())
}

func TestRegistry_ConcurrentReaders(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			r.Join(SessionID(i%10), float64(i%7), float64(i%5))
		}
	}()
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				_ = r.RoomCount()
				_ = r.MembersOf("location:1.0:1.0")
				_, _ = r.RoomOf(3)
			}
		}()
	}
	wg.Wait()
	assertConsistent(t, r)
}
