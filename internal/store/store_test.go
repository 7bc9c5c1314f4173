// Geoboard - Location-based Announcement Board
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoboard

package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/geoboard/internal/geogrid"
	"github.com/tomtom215/geoboard/internal/models"
)

// testClock is a settable clock for expiry tests.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func createTestStore(t *testing.T) (*Store, *testClock) {
	t.Helper()

	clock := &testClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	s, err := Open(Options{InMemory: true, BulletinTTL: time.Hour, Now: clock.Now})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, clock
}

func newBulletin(userID, content string, lat, lng float64) *models.Bulletin {
	return &models.Bulletin{
		UserID:   userID,
		UserName: "user-" + userID,
		Content:  content,
		Location: models.NewGeoPoint(lat, lng),
	}
}

func TestStore_Ping(t *testing.T) {
	s, _ := createTestStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	if err := s.RunGC(); err != nil {
		t.Errorf("RunGC() on in-memory store error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Ping(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Ping(canceled) error = %v, want context.Canceled", err)
	}
}

func TestListOptions_Page(t *testing.T) {
	tests := []struct {
		opts   ListOptions
		n      int
		lo, hi int
	}{
		{ListOptions{}, 5, 0, 5},
		{ListOptions{Limit: 2}, 5, 0, 2},
		{ListOptions{Limit: 2, Offset: 4}, 5, 4, 5},
		{ListOptions{Offset: 9}, 5, 5, 5},
		{ListOptions{Offset: -3, Limit: 1}, 5, 0, 1},
		{ListOptions{Limit: 10}, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%+v/%d", tt.opts, tt.n), func(t *testing.T) {
			lo, hi := tt.opts.page(tt.n)
			if lo != tt.lo || hi != tt.hi {
				t.Errorf("page(%d) = [%d, %d), want [%d, %d)", tt.n, lo, hi, tt.lo, tt.hi)
			}
		})
	}
}

func TestStore_BulletinLifecycle(t *testing.T) {
	s, clock := createTestStore(t)
	ctx := context.Background()

	b := newBulletin("u1", "hello", 41.05, 29.05)
	if err := s.CreateBulletin(ctx, b); err != nil {
		t.Fatalf("CreateBulletin() error = %v", err)
	}
	if b.ID == "" {
		t.Fatal("CreateBulletin() did not assign an id")
	}
	if !b.ExpiresAt.Equal(clock.Now().Add(time.Hour)) {
		t.Errorf("ExpiresAt = %v, want created + ttl", b.ExpiresAt)
	}

	got, err := s.GetBulletin(ctx, b.ID)
	if err != nil {
		t.Fatalf("GetBulletin() error = %v", err)
	}
	if got.Content != "hello" || got.Location.Lat() != 41.05 || got.Location.Lng() != 29.05 {
		t.Errorf("GetBulletin() = %+v", got)
	}

	if err := s.CreateBulletin(ctx, &models.Bulletin{ID: b.ID, Location: b.Location}); !errors.Is(err, ErrConflict) {
		t.Errorf("CreateBulletin(duplicate id) error = %v, want ErrConflict", err)
	}

	clock.Advance(time.Minute)
	updated, err := s.UpdateBulletinContent(ctx, b.ID, "changed")
	if err != nil {
		t.Fatalf("UpdateBulletinContent() error = %v", err)
	}
	if updated.Content != "changed" || !updated.UpdatedAt.After(updated.CreatedAt) {
		t.Errorf("UpdateBulletinContent() = %+v", updated)
	}
	if updated.Location != b.Location || !updated.ExpiresAt.Equal(b.ExpiresAt) {
		t.Error("UpdateBulletinContent() changed location or expiry")
	}

	deleted, err := s.DeleteBulletin(ctx, b.ID)
	if err != nil {
		t.Fatalf("DeleteBulletin() error = %v", err)
	}
	if deleted.Content != "changed" {
		t.Errorf("DeleteBulletin() returned %+v", deleted)
	}
	if _, err := s.GetBulletin(ctx, b.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetBulletin(deleted) error = %v, want ErrNotFound", err)
	}
	if _, err := s.DeleteBulletin(ctx, b.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteBulletin(deleted) error = %v, want ErrNotFound", err)
	}
	if _, err := s.UpdateBulletinContent(ctx, b.ID, "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateBulletinContent(deleted) error = %v, want ErrNotFound", err)
	}

	byUser, err := s.ListBulletinsByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListBulletinsByUser() error = %v", err)
	}
	if len(byUser) != 0 {
		t.Errorf("ListBulletinsByUser() after delete = %d bulletins, want 0", len(byUser))
	}
}

func TestStore_ListBulletins(t *testing.T) {
	s, clock := createTestStore(t)
	ctx := context.Background()

	for i := range 5 {
		user := "u1"
		if i%2 == 1 {
			user = "u2"
		}
		if err := s.CreateBulletin(ctx, newBulletin(user, fmt.Sprintf("b%d", i), 41.0, 29.0)); err != nil {
			t.Fatalf("CreateBulletin(%d) error = %v", i, err)
		}
		clock.Advance(time.Second)
	}

	all, total, err := s.ListBulletins(ctx, ListOptions{})
	if err != nil {
		t.Fatalf("ListBulletins() error = %v", err)
	}
	if total != 5 || len(all) != 5 {
		t.Fatalf("ListBulletins() = %d of %d, want 5 of 5", len(all), total)
	}
	if all[0].Content != "b4" || all[4].Content != "b0" {
		t.Errorf("ListBulletins() order = %s..%s, want newest first", all[0].Content, all[4].Content)
	}

	page, total, err := s.ListBulletins(ctx, ListOptions{Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("ListBulletins(page) error = %v", err)
	}
	if total != 5 || len(page) != 2 || page[0].Content != "b3" || page[1].Content != "b2" {
		t.Errorf("ListBulletins(limit 2, offset 1) = %v (total %d)", page, total)
	}

	mine, err := s.ListBulletinsByUser(ctx, "u2")
	if err != nil {
		t.Fatalf("ListBulletinsByUser() error = %v", err)
	}
	if len(mine) != 2 || mine[0].Content != "b3" || mine[1].Content != "b1" {
		t.Errorf("ListBulletinsByUser(u2) = %v", mine)
	}
}

func TestStore_Nearby(t *testing.T) {
	s, _ := createTestStore(t)
	ctx := context.Background()

	center := geogrid.Coordinate{Lat: 41.0082, Lng: 28.9784}
	fixtures := []struct {
		content  string
		lat, lng float64
	}{
		{"here", 41.0082, 28.9784},
		{"close", 41.0150, 28.9784},   // ~750 m north
		{"border", 40.9990, 28.9784},  // ~1 km south, other cell
		{"far", 41.0600, 28.9784},     // ~5.7 km
		{"other", 39.9334, 32.8597},   // another city
	}
	for _, f := range fixtures {
		if err := s.CreateBulletin(ctx, newBulletin("u1", f.content, f.lat, f.lng)); err != nil {
			t.Fatalf("CreateBulletin(%s) error = %v", f.content, err)
		}
	}

	got, err := s.Nearby(ctx, center, 0)
	if err != nil {
		t.Fatalf("Nearby() error = %v", err)
	}
	want := []string{"here", "close", "border"}
	if len(got) != len(want) {
		t.Fatalf("Nearby(default radius) returned %d results, want %d", len(got), len(want))
	}
	for i, r := range got {
		if r.Content != want[i] {
			t.Errorf("Nearby()[%d] = %s, want %s", i, r.Content, want[i])
		}
		if r.DistanceMeters > DefaultNearbyRadius {
			t.Errorf("Nearby()[%d] distance %.0f exceeds radius", i, r.DistanceMeters)
		}
	}

	// A radius too large for the cell index falls back to a full scan.
	wide, err := s.Nearby(ctx, center, 500_000)
	if err != nil {
		t.Fatalf("Nearby(wide) error = %v", err)
	}
	if len(wide) != 5 || wide[4].Content != "other" {
		t.Errorf("Nearby(500 km) returned %d results", len(wide))
	}
}

func TestStore_NearbySkipsExpired(t *testing.T) {
	s, clock := createTestStore(t)
	ctx := context.Background()

	b := newBulletin("u1", "soon gone", 41.0, 29.0)
	if err := s.CreateBulletin(ctx, b); err != nil {
		t.Fatalf("CreateBulletin() error = %v", err)
	}
	clock.Advance(2 * time.Hour)

	got, err := s.Nearby(ctx, b.Coordinate(), 1000)
	if err != nil {
		t.Fatalf("Nearby() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Nearby() returned %d expired bulletins", len(got))
	}
}

func TestStore_DeleteExpired(t *testing.T) {
	s, clock := createTestStore(t)
	ctx := context.Background()

	start := clock.Now()
	for i := range 3 {
		b := newBulletin("u1", fmt.Sprintf("b%d", i), 41.0, 29.0)
		b.ExpiresAt = start.Add(time.Duration(i+1) * time.Minute)
		if err := s.CreateBulletin(ctx, b); err != nil {
			t.Fatalf("CreateBulletin(%d) error = %v", i, err)
		}
	}

	gone, err := s.DeleteExpired(ctx, start, 0)
	if err != nil {
		t.Fatalf("DeleteExpired(start) error = %v", err)
	}
	if len(gone) != 0 {
		t.Fatalf("DeleteExpired(start) removed %d bulletins, want 0", len(gone))
	}

	gone, err = s.DeleteExpired(ctx, start.Add(2*time.Minute), 0)
	if err != nil {
		t.Fatalf("DeleteExpired() error = %v", err)
	}
	if len(gone) != 2 || gone[0].Content != "b0" || gone[1].Content != "b1" {
		t.Fatalf("DeleteExpired() = %v, want b0 b1", gone)
	}

	_, total, err := s.ListBulletins(ctx, ListOptions{})
	if err != nil {
		t.Fatalf("ListBulletins() error = %v", err)
	}
	if total != 1 {
		t.Errorf("after DeleteExpired total = %d, want 1", total)
	}

	gone, err = s.DeleteExpired(ctx, start.Add(time.Hour), 1)
	if err != nil {
		t.Fatalf("DeleteExpired(limit) error = %v", err)
	}
	if len(gone) != 1 || gone[0].Content != "b2" {
		t.Errorf("DeleteExpired(limit 1) = %v, want b2", gone)
	}
}

func TestStore_Users(t *testing.T) {
	s, _ := createTestStore(t)
	ctx := context.Background()

	u := &models.User{UserName: "alice", Email: " Alice@Example.com ", PasswordHash: "hash"}
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if u.Email != "alice@example.com" {
		t.Errorf("Email = %q, want normalized", u.Email)
	}
	if !u.HasRole(models.RoleUser) || u.IsAdmin() {
		t.Errorf("Roles = %v, want default user role", u.Roles)
	}

	got, err := s.GetUserByEmail(ctx, "ALICE@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail() error = %v", err)
	}
	if got.ID != u.ID || got.PasswordHash != "hash" {
		t.Errorf("GetUserByEmail() = %+v, want stored user with hash", got)
	}

	dupes := []*models.User{
		{UserName: "alice2", Email: "alice@example.com"},
		{UserName: "ALICE", Email: "other@example.com"},
	}
	for _, d := range dupes {
		if err := s.CreateUser(ctx, d); !errors.Is(err, ErrConflict) {
			t.Errorf("CreateUser(%s, %s) error = %v, want ErrConflict", d.UserName, d.Email, err)
		}
	}

	bob := &models.User{UserName: "bob", Email: "bob@example.com", Roles: []string{models.RoleAdmin}}
	if err := s.CreateUser(ctx, bob); err != nil {
		t.Fatalf("CreateUser(bob) error = %v", err)
	}

	taken := "bob"
	if _, err := s.UpdateUser(ctx, u.ID, UserUpdate{UserName: &taken}); !errors.Is(err, ErrConflict) {
		t.Errorf("UpdateUser(taken name) error = %v, want ErrConflict", err)
	}

	name, hash := "alicia", "newhash"
	updated, err := s.UpdateUser(ctx, u.ID, UserUpdate{UserName: &name, PasswordHash: &hash})
	if err != nil {
		t.Fatalf("UpdateUser() error = %v", err)
	}
	if updated.UserName != "alicia" || updated.PasswordHash != "newhash" {
		t.Errorf("UpdateUser() = %+v", updated)
	}
	// The old name is free again.
	if err := s.CreateUser(ctx, &models.User{UserName: "alice", Email: "new@example.com"}); err != nil {
		t.Errorf("CreateUser(released name) error = %v", err)
	}

	users, total, err := s.ListUsers(ctx, ListOptions{})
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if total != 3 || len(users) != 3 {
		t.Errorf("ListUsers() = %d of %d, want 3", len(users), total)
	}

	if err := s.DeleteUser(ctx, bob.ID); err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}
	if _, err := s.GetUser(ctx, bob.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetUser(deleted) error = %v, want ErrNotFound", err)
	}
	if _, err := s.GetUserByEmail(ctx, "bob@example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetUserByEmail(deleted) error = %v, want ErrNotFound", err)
	}
	if err := s.DeleteUser(ctx, bob.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteUser(deleted) error = %v, want ErrNotFound", err)
	}
}

func TestStore_Reports(t *testing.T) {
	s, clock := createTestStore(t)
	ctx := context.Background()

	if err := s.CreateReport(ctx, &models.Report{UserID: "u1", BulletinID: "missing", Message: "spam"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("CreateReport(missing bulletin) error = %v, want ErrNotFound", err)
	}

	b := newBulletin("u1", "buy now", 41.0, 29.0)
	if err := s.CreateBulletin(ctx, b); err != nil {
		t.Fatalf("CreateBulletin() error = %v", err)
	}

	var first *models.Report
	for i := range 3 {
		r := &models.Report{UserID: "u2", BulletinID: b.ID, Message: fmt.Sprintf("r%d", i)}
		if err := s.CreateReport(ctx, r); err != nil {
			t.Fatalf("CreateReport(%d) error = %v", i, err)
		}
		if first == nil {
			first = r
		}
		clock.Advance(time.Second)
	}

	n, err := s.CountReportsForBulletin(ctx, b.ID)
	if err != nil || n != 3 {
		t.Errorf("CountReportsForBulletin() = %d, %v, want 3", n, err)
	}

	reports, total, err := s.ListReports(ctx, ListOptions{Limit: 2})
	if err != nil {
		t.Fatalf("ListReports() error = %v", err)
	}
	if total != 3 || len(reports) != 2 || reports[0].Message != "r2" {
		t.Errorf("ListReports(limit 2) = %v (total %d)", reports, total)
	}

	got, err := s.GetReport(ctx, first.ID)
	if err != nil || got.Message != "r0" {
		t.Errorf("GetReport() = %+v, %v", got, err)
	}

	if err := s.DeleteReport(ctx, first.ID); err != nil {
		t.Fatalf("DeleteReport() error = %v", err)
	}
	if _, err := s.GetReport(ctx, first.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetReport(deleted) error = %v, want ErrNotFound", err)
	}
	if n, _ := s.CountReportsForBulletin(ctx, b.ID); n != 2 {
		t.Errorf("CountReportsForBulletin() after delete = %d, want 2", n)
	}
}
