// Geoboard - Location-based Announcement Board
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoboard

// Package store persists bulletins, users and reports in BadgerDB.
//
// Documents are JSON values under "<collection>:<id>". Secondary indexes are
// empty-valued keys that embed the indexed value and the document id, so a
// prefix scan yields matching ids:
//
//	bulletin:<id>                       document
//	bulletin_user:<user_id>:<id>        bulletins by author
//	bulletin_cell:<cell_key>:<id>       bulletins by 0.1 degree grid cell
//	bulletin_exp:<unix_ms>:<id>         bulletins by expiry, zero padded
//	user:<id>                           document
//	user_email:<email>                  unique, value is the user id
//	user_name:<user_name>               unique, value is the user id
//	report:<id>                         document
//	report_bulletin:<bulletin_id>:<id>  reports by bulletin
//
// Document and index writes share one transaction.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/geoboard/internal/logging"
	"github.com/tomtom215/geoboard/internal/metrics"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrConflict is returned when a unique index is already taken.
	ErrConflict = errors.New("store: conflict")
)

// Options configures Open.
type Options struct {
	// Path is the BadgerDB directory. Ignored when InMemory is set.
	Path string

	// InMemory keeps all data in RAM.
	InMemory bool

	// BulletinTTL sets ExpiresAt on bulletins created without one.
	BulletinTTL time.Duration

	// Now overrides the clock. Defaults to time.Now.
	Now func() time.Time
}

// Store is the BadgerDB document store.
type Store struct {
	db  *badger.DB
	ttl time.Duration
	now func() time.Time
}

// DefaultBulletinTTL is used when Options.BulletinTTL is zero.
const DefaultBulletinTTL = 24 * time.Hour

// Open opens (or creates) the database.
func Open(opts Options) (*Store, error) {
	bopts := badger.DefaultOptions(opts.Path)
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	}
	bopts = bopts.WithLogger(newBadgerLogger())

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}
	return New(db, opts), nil
}

// New wraps an already open database.
func New(db *badger.DB, opts Options) *Store {
	ttl := opts.BulletinTTL
	if ttl <= 0 {
		ttl = DefaultBulletinTTL
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Store{db: db, ttl: ttl, now: now}
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the database can serve reads.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return errors.New("store: database closed")
	}
	return s.db.View(func(*badger.Txn) error { return nil })
}

// RunGC runs one value log garbage collection pass. badger.ErrNoRewrite
// means there was nothing to reclaim and is not reported.
func (s *Store) RunGC() error {
	if s.db.Opts().InMemory {
		return nil
	}
	err := s.db.RunValueLogGC(0.5)
	if err == nil || errors.Is(err, badger.ErrNoRewrite) {
		return nil
	}
	return fmt.Errorf("value log gc: %w", err)
}

// ListOptions pages through a listing. Limit <= 0 means no limit.
type ListOptions struct {
	Limit  int
	Offset int
}

// page applies opts to n items and returns the [lo, hi) window.
func (o ListOptions) page(n int) (lo, hi int) {
	lo = o.Offset
	if lo < 0 {
		lo = 0
	}
	if lo > n {
		lo = n
	}
	hi = n
	if o.Limit > 0 && lo+o.Limit < n {
		hi = lo + o.Limit
	}
	return lo, hi
}

// observe records the duration and outcome of a store operation.
func observe(operation, collection string, start time.Time, err *error) {
	var e error
	if err != nil {
		e = *err
	}
	if errors.Is(e, ErrNotFound) || errors.Is(e, ErrConflict) {
		e = nil
	}
	metrics.RecordStoreOperation(operation, collection, time.Since(start), e)
	if e != nil {
		logging.Warn().Err(e).Str("operation", operation).Str("collection", collection).Msg("store operation failed")
	}
}

func getJSON(txn *badger.Txn, key []byte, v any) error {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", key, err)
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

func setJSON(txn *badger.Txn, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := txn.Set(key, data); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func exists(txn *badger.Txn, key []byte) (bool, error) {
	_, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	return true, nil
}

func deleteKeys(txn *badger.Txn, keys ...[]byte) error {
	for _, k := range keys {
		if err := txn.Delete(k); err != nil {
			return fmt.Errorf("delete %s: %w", k, err)
		}
	}
	return nil
}

// scanKeys calls fn with each key under prefix. Values are not fetched.
func scanKeys(ctx context.Context, txn *badger.Txn, prefix []byte, fn func(key []byte) (bool, error)) error {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		more, err := fn(it.Item().KeyCopy(nil))
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
	return nil
}

// scanValues decodes each document under prefix with decode.
func scanValues(ctx context.Context, txn *badger.Txn, prefix []byte, decode func(val []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := it.Item().Value(decode); err != nil {
			return err
		}
	}
	return nil
}
