// Geoboard - Location-based Announcement Board
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoboard

package models

import (
	"time"

	"github.com/tomtom215/geoboard/internal/geogrid"
)

// GeoPointType is the only supported GeoJSON geometry.
const GeoPointType = "Point"

// GeoPoint is a GeoJSON Point. Coordinates are [lng, lat].
type GeoPoint struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// NewGeoPoint builds a Point from latitude and longitude.
func NewGeoPoint(lat, lng float64) GeoPoint {
	return GeoPoint{Type: GeoPointType, Coordinates: [2]float64{lng, lat}}
}

// Lat returns the latitude.
func (p GeoPoint) Lat() float64 { return p.Coordinates[1] }

// Lng returns the longitude.
func (p GeoPoint) Lng() float64 { return p.Coordinates[0] }

// Coordinate converts to a geogrid.Coordinate.
func (p GeoPoint) Coordinate() geogrid.Coordinate {
	return geogrid.Coordinate{Lat: p.Lat(), Lng: p.Lng()}
}

// Bulletin is a geotagged announcement.
type Bulletin struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	Content   string    `json:"content"`
	Location  GeoPoint  `json:"location"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Coordinate returns the bulletin position.
func (b *Bulletin) Coordinate() geogrid.Coordinate {
	return b.Location.Coordinate()
}

// Cell returns the grid cell the bulletin belongs to.
func (b *Bulletin) Cell() geogrid.Cell {
	return geogrid.CellOfCoordinate(b.Coordinate())
}

// Expired reports whether the bulletin is past its expiry at now.
func (b *Bulletin) Expired(now time.Time) bool {
	return !b.ExpiresAt.IsZero() && !now.Before(b.ExpiresAt)
}
