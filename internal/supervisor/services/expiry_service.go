// Geoboard - Location-based Announcement Board
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoboard

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/geoboard/internal/logging"
	"github.com/tomtom215/geoboard/internal/metrics"
	"github.com/tomtom215/geoboard/internal/models"
	"github.com/tomtom215/geoboard/internal/realtime"
)

// DefaultSweepBatch caps how many bulletins one sweep removes.
const DefaultSweepBatch = 500

// ExpiredBulletinStore is satisfied by *store.Store.
type ExpiredBulletinStore interface {
	DeleteExpired(ctx context.Context, now time.Time, limit int) ([]*models.Bulletin, error)
}

// EventDispatcher is satisfied by *realtime.Hub.
type EventDispatcher interface {
	Dispatch(ctx context.Context, ev realtime.Event) error
}

// ExpirySweeperService deletes expired bulletins on a fixed interval and
// announces each one as bulletin-deleted, exactly as if its owner had
// deleted it.
//
// A full batch triggers another sweep right away so a backlog drains
// without waiting for the next tick.
type ExpirySweeperService struct {
	store      ExpiredBulletinStore
	dispatcher EventDispatcher
	interval   time.Duration
	batch      int
	now        func() time.Time
	name       string
}

// NewExpirySweeperService creates the sweeper. interval <= 0 defaults to one minute.
func NewExpirySweeperService(store ExpiredBulletinStore, dispatcher EventDispatcher, interval time.Duration) *ExpirySweeperService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &ExpirySweeperService{
		store:      store,
		dispatcher: dispatcher,
		interval:   interval,
		batch:      DefaultSweepBatch,
		now:        time.Now,
		name:       "expiry-sweeper",
	}
}

// Serve implements suture.Service. A store error ends Serve so the
// supervisor restarts the sweeper with backoff.
func (s *ExpirySweeperService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			for {
				n, err := s.Sweep(ctx)
				if err != nil {
					return fmt.Errorf("expiry sweep failed: %w", err)
				}
				if n < s.batch || ctx.Err() != nil {
					break
				}
			}
		}
	}
}

// Sweep runs one pass and returns how many bulletins it removed.
func (s *ExpirySweeperService) Sweep(ctx context.Context) (int, error) {
	expired, err := s.store.DeleteExpired(ctx, s.now(), s.batch)
	if err != nil {
		return 0, err
	}
	if len(expired) == 0 {
		return 0, nil
	}

	log := logging.WithComponent(s.name)
	for _, b := range expired {
		if s.dispatcher == nil {
			continue
		}
		if err := s.dispatcher.Dispatch(ctx, realtime.NewDeletedEvent(b.ID, b.Coordinate())); err != nil {
			log.Warn().Err(err).Str("bulletin_id", b.ID).Msg("Failed to announce expired bulletin")
		}
	}
	metrics.BulletinsExpired.Add(float64(len(expired)))
	log.Info().Int("count", len(expired)).Msg("Removed expired bulletins")
	return len(expired), nil
}

// String implements fmt.Stringer. Suture uses it in log messages.
func (s *ExpirySweeperService) String() string {
	return s.name
}
