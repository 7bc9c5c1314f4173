// Geoboard - Location-based Announcement Board
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoboard

package store

import (
	"fmt"
	"strings"
	"time"
)

// Key prefixes for BadgerDB storage
const (
	bulletinKeyPrefix     = "bulletin:"
	bulletinUserKeyPrefix = "bulletin_user:"
	bulletinCellKeyPrefix = "bulletin_cell:"
	bulletinExpKeyPrefix  = "bulletin_exp:"

	userKeyPrefix      = "user:"
	userEmailKeyPrefix = "user_email:"
	userNameKeyPrefix  = "user_name:"

	reportKeyPrefix         = "report:"
	reportBulletinKeyPrefix = "report_bulletin:"
)

func bulletinKey(id string) []byte { return []byte(bulletinKeyPrefix + id) }

func bulletinUserKey(userID, id string) []byte {
	return []byte(bulletinUserKeyPrefix + userID + ":" + id)
}

func bulletinCellKey(cell, id string) []byte {
	return []byte(bulletinCellKeyPrefix + cell + ":" + id)
}

func bulletinExpKey(t time.Time, id string) []byte {
	return []byte(bulletinExpKeyPrefix + expStamp(t) + ":" + id)
}

// expStamp is fixed width so lexical order equals time order.
func expStamp(t time.Time) string {
	ms := t.UnixMilli()
	if ms < 0 {
		ms = 0
	}
	return fmt.Sprintf("%020d", ms)
}

func userKey(id string) []byte { return []byte(userKeyPrefix + id) }

func userEmailKey(email string) []byte {
	return []byte(userEmailKeyPrefix + normalizeEmail(email))
}

func userNameKey(name string) []byte {
	return []byte(userNameKeyPrefix + strings.ToLower(strings.TrimSpace(name)))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func reportKey(id string) []byte { return []byte(reportKeyPrefix + id) }

func reportBulletinKey(bulletinID, id string) []byte {
	return []byte(reportBulletinKeyPrefix + bulletinID + ":" + id)
}

// lastSegment returns the id stored after the final ':' of an index key.
func lastSegment(key []byte) string {
	s := string(key)
	if i := strings.LastIndexByte(s, ':'); i >= 0 {
		return s[i+1:]
	}
	return s
}
