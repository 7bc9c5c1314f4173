// Geoboard - Location-based Announcement Board
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoboard

package models

import "time"

// Report is an abuse report against a bulletin.
type Report struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	BulletinID string    `json:"bulletin_id"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
