// Geoboard - Location-based Announcement Board
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoboard

package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/geoboard/internal/models"
)

const userCollection = "users"

// CreateUser stores u. Email and user name must both be unused
// (case-insensitive), otherwise ErrConflict is returned.
func (s *Store) CreateUser(ctx context.Context, u *models.User) (err error) {
	defer observe("create", userCollection, time.Now(), &err)
	if err := ctx.Err(); err != nil {
		return err
	}

	now := s.now().UTC()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Email = normalizeEmail(u.Email)
	if len(u.Roles) == 0 {
		u.Roles = slices.Clone(models.DefaultRoles)
	}
	u.CreatedAt = now
	u.UpdatedAt = now

	return s.db.Update(func(txn *badger.Txn) error {
		if err := claimUnique(txn, userEmailKey(u.Email), u.ID, "email"); err != nil {
			return err
		}
		if err := claimUnique(txn, userNameKey(u.UserName), u.ID, "user name"); err != nil {
			return err
		}
		return setJSON(txn, userKey(u.ID), u.Stored())
	})
}

// claimUnique sets an index key to id unless another id already holds it.
func claimUnique(txn *badger.Txn, key []byte, id, what string) error {
	item, err := txn.Get(key)
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
	case err != nil:
		return fmt.Errorf("get %s: %w", key, err)
	default:
		var owner string
		if err := item.Value(func(val []byte) error {
			owner = string(val)
			return nil
		}); err != nil {
			return err
		}
		if owner != id {
			return fmt.Errorf("%s already in use: %w", what, ErrConflict)
		}
		return nil
	}
	if err := txn.Set(key, []byte(id)); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func getUserTxn(txn *badger.Txn, id string) (*models.User, error) {
	var su models.StoredUser
	if err := getJSON(txn, userKey(id), &su); err != nil {
		return nil, err
	}
	return su.Restore(), nil
}

func lookupIndex(txn *badger.Txn, key []byte) (string, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get %s: %w", key, err)
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return "", err
	}
	return string(val), nil
}

// GetUser returns the user with id, including its password hash.
func (s *Store) GetUser(ctx context.Context, id string) (u *models.User, err error) {
	defer observe("get", userCollection, time.Now(), &err)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	err = s.db.View(func(txn *badger.Txn) error {
		u, err = getUserTxn(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetUserByEmail looks a user up by email, case-insensitively.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (u *models.User, err error) {
	defer observe("get_by_email", userCollection, time.Now(), &err)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	err = s.db.View(func(txn *badger.Txn) error {
		id, err := lookupIndex(txn, userEmailKey(email))
		if err != nil {
			return err
		}
		u, err = getUserTxn(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// ListUsers returns users ordered by creation time and the total count.
func (s *Store) ListUsers(ctx context.Context, opts ListOptions) (out []*models.User, total int, err error) {
	defer observe("list", userCollection, time.Now(), &err)

	var all []*models.User
	err = s.db.View(func(txn *badger.Txn) error {
		return scanValues(ctx, txn, []byte(userKeyPrefix), func(val []byte) error {
			var su models.StoredUser
			if err := json.Unmarshal(val, &su); err != nil {
				return fmt.Errorf("decode user: %w", err)
			}
			all = append(all, su.Restore())
			return nil
		})
	})
	if err != nil {
		return nil, 0, err
	}

	slices.SortStableFunc(all, func(a, b *models.User) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	lo, hi := opts.page(len(all))
	return all[lo:hi], len(all), nil
}

// UserUpdate lists the mutable user fields. Nil fields are left unchanged.
type UserUpdate struct {
	UserName     *string
	PasswordHash *string
	Roles        []string
}

// UpdateUser applies upd to the user with id. A new user name must be unused.
func (s *Store) UpdateUser(ctx context.Context, id string, upd UserUpdate) (u *models.User, err error) {
	defer observe("update", userCollection, time.Now(), &err)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		u, err = getUserTxn(txn, id)
		if err != nil {
			return err
		}

		if upd.UserName != nil && *upd.UserName != u.UserName {
			newKey, oldKey := userNameKey(*upd.UserName), userNameKey(u.UserName)
			if string(newKey) != string(oldKey) {
				if err := claimUnique(txn, newKey, u.ID, "user name"); err != nil {
					return err
				}
				if err := txn.Delete(oldKey); err != nil {
					return fmt.Errorf("delete %s: %w", oldKey, err)
				}
			}
			u.UserName = *upd.UserName
		}
		if upd.PasswordHash != nil {
			u.PasswordHash = *upd.PasswordHash
		}
		if upd.Roles != nil {
			u.Roles = slices.Clone(upd.Roles)
		}
		u.UpdatedAt = s.now().UTC()
		return setJSON(txn, userKey(u.ID), u.Stored())
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// DeleteUser removes the user and its unique indexes.
func (s *Store) DeleteUser(ctx context.Context, id string) (err error) {
	defer observe("delete", userCollection, time.Now(), &err)
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		u, err := getUserTxn(txn, id)
		if err != nil {
			return err
		}
		return deleteKeys(txn, userKey(u.ID), userEmailKey(u.Email), userNameKey(u.UserName))
	})
}
