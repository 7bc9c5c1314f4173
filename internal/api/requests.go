// Geoboard - Location-based Announcement Board
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoboard

package api

import (
	"net/http"
	"strconv"

	"github.com/tomtom215/geoboard/internal/geogrid"
	"github.com/tomtom215/geoboard/internal/models"
	"github.com/tomtom215/geoboard/internal/store"
)

// Paging defaults for list endpoints.
const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// RegisterRequest is the body of POST /users/register.
type RegisterRequest struct {
	UserName string `json:"user_name" validate:"required,notblank,min=3,max=50"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest is the body of POST /users/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateUserRequest is the body of PUT /users/{id}. Changing the password
// requires the current one.
type UpdateUserRequest struct {
	UserName        *string `json:"user_name" validate:"omitempty,notblank,min=3,max=50"`
	Password        *string `json:"password" validate:"omitempty,min=8,max=72"`
	CurrentPassword string  `json:"current_password" validate:"required_with=Password"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt string       `json:"expires_at"`
	User      *models.User `json:"user"`
}

// LocationInput is a GeoJSON Point as sent by clients: coordinates are [lng, lat].
type LocationInput struct {
	Type        string    `json:"type" validate:"omitempty,eq=Point"`
	Coordinates []float64 `json:"coordinates" validate:"required,len=2"`
}

// Coordinate converts the [lng, lat] pair. Call it only after validation.
func (l LocationInput) Coordinate() geogrid.Coordinate {
	return geogrid.Coordinate{Lat: l.Coordinates[1], Lng: l.Coordinates[0]}
}

// CreateBulletinRequest is the body of POST /bulletins.
type CreateBulletinRequest struct {
	Content  string        `json:"content" validate:"required,notblank,max=1000"`
	Location LocationInput `json:"location" validate:"required"`
}

// UpdateBulletinRequest is the body of PUT /bulletins/{id}. Only the content can change.
type UpdateBulletinRequest struct {
	Content string `json:"content" validate:"required,notblank,max=1000"`
}

// CreateReportRequest is the body of POST /reports.
type CreateReportRequest struct {
	BulletinID string `json:"bulletin_id" validate:"required,notblank"`
	Message    string `json:"message" validate:"required,notblank,max=1000"`
}

// coordinateInput range-checks a position.
type coordinateInput struct {
	Lat float64 `json:"lat" validate:"latitude"`
	Lng float64 `json:"lng" validate:"longitude"`
}

// nearbyQuery is the parsed query of GET /bulletins/nearby. Radius is in meters.
type nearbyQuery struct {
	Lat    float64 `json:"lat" validate:"latitude"`
	Lng    float64 `json:"lng" validate:"longitude"`
	Radius float64 `json:"radius" validate:"gt=0,lte=50000"`
}

// parseFloatParam parses a required float query parameter.
func parseFloatParam(r *http.Request, name string) (float64, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseListOptions reads limit/offset, or page/limit as older clients send.
func parseListOptions(r *http.Request) (store.ListOptions, bool) {
	q := r.URL.Query()
	opts := store.ListOptions{Limit: defaultPageLimit}

	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxPageLimit {
			return opts, false
		}
		opts.Limit = n
	}
	if raw := q.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return opts, false
		}
		opts.Offset = n
	} else if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return opts, false
		}
		opts.Offset = (n - 1) * opts.Limit
	}
	return opts, true
}

// paginationMeta describes one page of total items.
func paginationMeta(opts store.ListOptions, count, total int) *PaginationMeta {
	return &PaginationMeta{
		Total:   total,
		Count:   count,
		Offset:  opts.Offset,
		Limit:   opts.Limit,
		HasMore: opts.Offset+count < total,
	}
}
