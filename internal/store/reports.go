// Geoboard - Location-based Announcement Board
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoboard

package store

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/geoboard/internal/models"
)

const reportCollection = "reports"

// CreateReport stores r. The reported bulletin must exist.
func (s *Store) CreateReport(ctx context.Context, r *models.Report) (err error) {
	defer observe("create", reportCollection, time.Now(), &err)
	if err := ctx.Err(); err != nil {
		return err
	}

	now := s.now().UTC()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.CreatedAt = now
	r.UpdatedAt = now

	return s.db.Update(func(txn *badger.Txn) error {
		found, err := exists(txn, bulletinKey(r.BulletinID))
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("bulletin %s: %w", r.BulletinID, ErrNotFound)
		}
		if err := setJSON(txn, reportKey(r.ID), r); err != nil {
			return err
		}
		if err := txn.Set(reportBulletinKey(r.BulletinID, r.ID), nil); err != nil {
			return fmt.Errorf("set index: %w", err)
		}
		return nil
	})
}

// GetReport returns the report with id.
func (s *Store) GetReport(ctx context.Context, id string) (r *models.Report, err error) {
	defer observe("get", reportCollection, time.Now(), &err)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r = &models.Report{}
	err = s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, reportKey(id), r)
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// ListReports returns reports newest first and the total count.
func (s *Store) ListReports(ctx context.Context, opts ListOptions) (out []*models.Report, total int, err error) {
	defer observe("list", reportCollection, time.Now(), &err)

	var all []*models.Report
	err = s.db.View(func(txn *badger.Txn) error {
		return scanValues(ctx, txn, []byte(reportKeyPrefix), func(val []byte) error {
			var r models.Report
			if err := json.Unmarshal(val, &r); err != nil {
				return fmt.Errorf("decode report: %w", err)
			}
			all = append(all, &r)
			return nil
		})
	})
	if err != nil {
		return nil, 0, err
	}

	slices.SortStableFunc(all, func(a, b *models.Report) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	lo, hi := opts.page(len(all))
	return all[lo:hi], len(all), nil
}

// CountReportsForBulletin returns how many reports name bulletinID.
func (s *Store) CountReportsForBulletin(ctx context.Context, bulletinID string) (n int, err error) {
	defer observe("count_by_bulletin", reportCollection, time.Now(), &err)
	err = s.db.View(func(txn *badger.Txn) error {
		ids, err := collectIDs(ctx, txn, []byte(reportBulletinKeyPrefix+bulletinID+":"))
		n = len(ids)
		return err
	})
	return n, err
}

// DeleteReport removes the report with id.
func (s *Store) DeleteReport(ctx context.Context, id string) (err error) {
	defer observe("delete", reportCollection, time.Now(), &err)
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		var r models.Report
		if err := getJSON(txn, reportKey(id), &r); err != nil {
			return err
		}
		return deleteKeys(txn, reportKey(id), reportBulletinKey(r.BulletinID, id))
	})
}
