// Geoboard - Location-based Announcement Board
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoboard

package services

import (
	"context"
	"time"

	"github.com/tomtom215/geoboard/internal/logging"
)

// ValueLogCollector is satisfied by *store.Store.
type ValueLogCollector interface {
	RunGC() error
}

// ValueLogGCService periodically reclaims BadgerDB value log space left by
// deleted and expired bulletins.
type ValueLogGCService struct {
	collector ValueLogCollector
	interval  time.Duration
	name      string
}

// NewValueLogGCService creates the GC service. interval <= 0 defaults to ten minutes.
func NewValueLogGCService(collector ValueLogCollector, interval time.Duration) *ValueLogGCService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &ValueLogGCService{
		collector: collector,
		interval:  interval,
		name:      "badger-gc",
	}
}

// Serve implements suture.Service. GC failures are logged and retried on
// the next tick; they are never fatal.
func (s *ValueLogGCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.collector.RunGC(); err != nil {
				log := logging.WithComponent(s.name)
				log.Warn().Err(err).Msg("Value log GC failed")
			}
		}
	}
}

// String implements fmt.Stringer. Suture uses it in log messages.
func (s *ValueLogGCService) String() string {
	return s.name
}
