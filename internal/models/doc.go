// Geoboard - Location-based Announcement Board
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoboard

/*
Package models defines the persisted documents of Geoboard.

  - Bulletin: a short geotagged announcement with an expiry time
  - User: an account with bcrypt password hash and roles
  - Report: an abuse report filed against a bulletin

All documents are stored as JSON in BadgerDB (see internal/store) and are
returned as-is inside the API response envelope, except User whose
PasswordHash is never serialized.

Locations use the GeoJSON Point layout, coordinates ordered [lng, lat].
*/
package models
