// Geoboard - Location-based Announcement Board
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoboard

package store

import (
	"bytes"
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/geoboard/internal/geogrid"
	"github.com/tomtom215/geoboard/internal/models"
)

const bulletinCollection = "bulletins"

// DefaultNearbyRadius is the proximity query radius when none is given, in meters.
const DefaultNearbyRadius = 2000.0

// NearbyResult is a bulletin with its distance from the query point.
type NearbyResult struct {
	*models.Bulletin
	DistanceMeters float64 `json:"distance_meters"`
}

func bulletinIndexKeys(b *models.Bulletin) [][]byte {
	return [][]byte{
		bulletinUserKey(b.UserID, b.ID),
		bulletinCellKey(b.Cell().Key(), b.ID),
		bulletinExpKey(b.ExpiresAt, b.ID),
	}
}

// CreateBulletin stores b and its indexes. ID, CreatedAt, UpdatedAt and
// ExpiresAt are filled in when empty, and Location.Type is forced to Point.
func (s *Store) CreateBulletin(ctx context.Context, b *models.Bulletin) (err error) {
	defer observe("create", bulletinCollection, time.Now(), &err)
	if err := ctx.Err(); err != nil {
		return err
	}

	now := s.now().UTC()
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = b.CreatedAt
	if b.ExpiresAt.IsZero() {
		b.ExpiresAt = b.CreatedAt.Add(s.ttl)
	}
	b.Location.Type = models.GeoPointType

	return s.db.Update(func(txn *badger.Txn) error {
		found, err := exists(txn, bulletinKey(b.ID))
		if err != nil {
			return err
		}
		if found {
			return fmt.Errorf("bulletin %s: %w", b.ID, ErrConflict)
		}
		if err := setJSON(txn, bulletinKey(b.ID), b); err != nil {
			return err
		}
		for _, k := range bulletinIndexKeys(b) {
			if err := txn.Set(k, nil); err != nil {
				return fmt.Errorf("set index: %w", err)
			}
		}
		return nil
	})
}

// GetBulletin returns the bulletin with id.
func (s *Store) GetBulletin(ctx context.Context, id string) (b *models.Bulletin, err error) {
	defer observe("get", bulletinCollection, time.Now(), &err)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b = &models.Bulletin{}
	err = s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, bulletinKey(id), b)
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// UpdateBulletinContent replaces the content of a bulletin. Location and
// expiry are immutable, so the indexes stay as they are.
func (s *Store) UpdateBulletinContent(ctx context.Context, id, content string) (b *models.Bulletin, err error) {
	defer observe("update", bulletinCollection, time.Now(), &err)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b = &models.Bulletin{}
	err = s.db.Update(func(txn *badger.Txn) error {
		if err := getJSON(txn, bulletinKey(id), b); err != nil {
			return err
		}
		b.Content = content
		b.UpdatedAt = s.now().UTC()
		return setJSON(txn, bulletinKey(id), b)
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// DeleteBulletin removes a bulletin and its indexes and returns what was deleted.
func (s *Store) DeleteBulletin(ctx context.Context, id string) (b *models.Bulletin, err error) {
	defer observe("delete", bulletinCollection, time.Now(), &err)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b = &models.Bulletin{}
	err = s.db.Update(func(txn *badger.Txn) error {
		if err := getJSON(txn, bulletinKey(id), b); err != nil {
			return err
		}
		return deleteBulletinTxn(txn, b)
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

func deleteBulletinTxn(txn *badger.Txn, b *models.Bulletin) error {
	keys := append([][]byte{bulletinKey(b.ID)}, bulletinIndexKeys(b)...)
	return deleteKeys(txn, keys...)
}

// ListBulletins returns all bulletins, newest first, and the total count.
func (s *Store) ListBulletins(ctx context.Context, opts ListOptions) (out []*models.Bulletin, total int, err error) {
	defer observe("list", bulletinCollection, time.Now(), &err)

	var all []*models.Bulletin
	err = s.db.View(func(txn *badger.Txn) error {
		return scanValues(ctx, txn, []byte(bulletinKeyPrefix), func(val []byte) error {
			var b models.Bulletin
			if err := json.Unmarshal(val, &b); err != nil {
				return fmt.Errorf("decode bulletin: %w", err)
			}
			all = append(all, &b)
			return nil
		})
	})
	if err != nil {
		return nil, 0, err
	}

	sortNewestFirst(all)
	lo, hi := opts.page(len(all))
	return all[lo:hi], len(all), nil
}

// ListBulletinsByUser returns a user's bulletins, newest first.
func (s *Store) ListBulletinsByUser(ctx context.Context, userID string) (out []*models.Bulletin, err error) {
	defer observe("list_by_user", bulletinCollection, time.Now(), &err)

	prefix := []byte(bulletinUserKeyPrefix + userID + ":")
	err = s.db.View(func(txn *badger.Txn) error {
		ids, err := collectIDs(ctx, txn, prefix)
		if err != nil {
			return err
		}
		out, err = loadBulletins(txn, ids)
		return err
	})
	if err != nil {
		return nil, err
	}
	sortNewestFirst(out)
	return out, nil
}

// Nearby returns unexpired bulletins within radiusMeters of center, nearest
// first. Candidates come from the grid cell index and are then filtered by
// haversine distance. Radii that cover too many cells fall back to a scan.
func (s *Store) Nearby(ctx context.Context, center geogrid.Coordinate, radiusMeters float64) (out []NearbyResult, err error) {
	defer observe("nearby", bulletinCollection, time.Now(), &err)
	if radiusMeters <= 0 {
		radiusMeters = DefaultNearbyRadius
	}

	now := s.now()
	var candidates []*models.Bulletin
	err = s.db.View(func(txn *badger.Txn) error {
		cells := geogrid.CellsWithin(center, radiusMeters)
		if cells == nil {
			return scanValues(ctx, txn, []byte(bulletinKeyPrefix), func(val []byte) error {
				var b models.Bulletin
				if err := json.Unmarshal(val, &b); err != nil {
					return fmt.Errorf("decode bulletin: %w", err)
				}
				candidates = append(candidates, &b)
				return nil
			})
		}

		var ids []string
		for _, c := range cells {
			cellIDs, err := collectIDs(ctx, txn, []byte(bulletinCellKeyPrefix+c.Key()+":"))
			if err != nil {
				return err
			}
			ids = append(ids, cellIDs...)
		}
		var err error
		candidates, err = loadBulletins(txn, ids)
		return err
	})
	if err != nil {
		return nil, err
	}

	for _, b := range candidates {
		if b.Expired(now) {
			continue
		}
		d := geogrid.DistanceMeters(center, b.Coordinate())
		if d <= radiusMeters {
			out = append(out, NearbyResult{Bulletin: b, DistanceMeters: d})
		}
	}
	slices.SortFunc(out, func(a, b NearbyResult) int {
		if c := cmp.Compare(a.DistanceMeters, b.DistanceMeters); c != 0 {
			return c
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

// DeleteExpired removes up to limit bulletins whose expiry is at or before
// now and returns them, oldest expiry first. limit <= 0 means no limit.
func (s *Store) DeleteExpired(ctx context.Context, now time.Time, limit int) (out []*models.Bulletin, err error) {
	defer observe("delete_expired", bulletinCollection, time.Now(), &err)

	prefix := []byte(bulletinExpKeyPrefix)
	upper := []byte(bulletinExpKeyPrefix + expStamp(now) + ";") // ';' sorts after ':'

	err = s.db.Update(func(txn *badger.Txn) error {
		var keys [][]byte
		err := scanKeys(ctx, txn, prefix, func(key []byte) (bool, error) {
			if bytes.Compare(key, upper) > 0 {
				return false, nil
			}
			keys = append(keys, key)
			return limit <= 0 || len(keys) < limit, nil
		})
		if err != nil {
			return err
		}

		for _, key := range keys {
			b := &models.Bulletin{}
			err := getJSON(txn, bulletinKey(lastSegment(key)), b)
			if errors.Is(err, ErrNotFound) {
				// Stale index entry.
				if err := txn.Delete(key); err != nil {
					return fmt.Errorf("delete stale index: %w", err)
				}
				continue
			}
			if err != nil {
				return err
			}
			if !b.Expired(now) {
				continue
			}
			if err := deleteBulletinTxn(txn, b); err != nil {
				return err
			}
			out = append(out, b)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// collectIDs returns the ids at the end of every index key under prefix.
func collectIDs(ctx context.Context, txn *badger.Txn, prefix []byte) ([]string, error) {
	var ids []string
	err := scanKeys(ctx, txn, prefix, func(key []byte) (bool, error) {
		ids = append(ids, lastSegment(key))
		return true, nil
	})
	return ids, err
}

// loadBulletins fetches documents for ids, skipping ids whose document is gone.
func loadBulletins(txn *badger.Txn, ids []string) ([]*models.Bulletin, error) {
	out := make([]*models.Bulletin, 0, len(ids))
	for _, id := range ids {
		b := &models.Bulletin{}
		err := getJSON(txn, bulletinKey(id), b)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func sortNewestFirst(bs []*models.Bulletin) {
	slices.SortStableFunc(bs, func(a, b *models.Bulletin) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
