// Geoboard - Location-based Announcement Board
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoboard

package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/geoboard/internal/logging"
)

// lockedBuffer collects log output written from service goroutines.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// captureLogs routes the global logger into a buffer for the test's duration.
func captureLogs(t *testing.T) *lockedBuffer {
	t.Helper()
	prev, prevLevel := logging.Logger(), zerolog.GlobalLevel()
	buf := &lockedBuffer{}
	logging.SetLogger(logging.NewTestLogger(buf))
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	t.Cleanup(func() {
		logging.SetLogger(prev)
		zerolog.SetGlobalLevel(prevLevel)
	})
	return buf
}

type countingCollector struct {
	runs atomic.Int32
	err  error
}

func (c *countingCollector) RunGC() error {
	c.runs.Add(1)
	return c.err
}

func TestValueLogGCService(t *testing.T) {
	c := &countingCollector{err: errors.New("gc busy")}
	svc := NewValueLogGCService(c, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for c.runs.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() = %v, want context.Canceled", err)
	}
	if c.runs.Load() < 3 {
		t.Errorf("RunGC ran %d times; GC errors must not stop the loop", c.runs.Load())
	}
}

func TestValueLogGCService_LogsFailures(t *testing.T) {
	logs := captureLogs(t)
	c := &countingCollector{err: errors.New("gc busy")}
	svc := NewValueLogGCService(c, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for c.runs.Load() < 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-errCh

	out := logs.String()
	for _, want := range []string{`"component":"badger-gc"`, `"level":"warn"`, "Value log GC failed", "gc busy"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s:\n%s", want, out)
		}
	}
}

func TestNewValueLogGCService_Defaults(t *testing.T) {
	svc := NewValueLogGCService(&countingCollector{}, 0)
	if svc.interval != 10*time.Minute {
		t.Errorf("interval = %v, want 10m", svc.interval)
	}
	if svc.String() != "badger-gc" {
		t.Errorf("String() = %q", svc.String())
	}
}
