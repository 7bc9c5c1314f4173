// Geoboard - Location-based Announcement Board
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoboard

package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/geoboard/internal/authz"
	"github.com/tomtom215/geoboard/internal/geogrid"
	"github.com/tomtom215/geoboard/internal/logging"
	"github.com/tomtom215/geoboard/internal/models"
	"github.com/tomtom215/geoboard/internal/realtime"
	"github.com/tomtom215/geoboard/internal/store"
)

// CreateBulletin stores a bulletin for the caller and announces it to the
// surrounding rooms.
//
// Method: POST
// Path: /api/v1/bulletins
func (h *Handler) CreateBulletin(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	claims, ok := h.authorize(rw, r, authz.ObjectBulletin, authz.ActionCreate, "")
	if !ok {
		return
	}

	var req CreateBulletinRequest
	if !decodeAndValidate(rw, w, r, &req) {
		return
	}
	coord := req.Location.Coordinate()
	if !validate(rw, coordinateInput{Lat: coord.Lat, Lng: coord.Lng}) {
		return
	}

	b := &models.Bulletin{
		UserID:   claims.UserID,
		UserName: claims.UserName,
		Content:  strings.TrimSpace(req.Content),
		Location: models.NewGeoPoint(coord.Lat, coord.Lng),
	}
	if err := h.store.CreateBulletin(r.Context(), b); err != nil {
		respondStoreError(rw, err, "Bulletin")
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("bulletin_id", b.ID).
		Str("cell", b.Cell().Key()).
		Msg("Bulletin created")

	h.notify(r.Context(), realtime.NewCreatedEvent(b))
	rw.Created(b)
}

// NearbyBulletins returns unexpired bulletins around a point, nearest first.
//
// Method: GET
// Path: /api/v1/bulletins/nearby?lat=&lng=&radius=
func (h *Handler) NearbyBulletins(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if _, ok := h.authorize(rw, r, authz.ObjectBulletin, authz.ActionRead, ""); !ok {
		return
	}

	lat, okLat := parseFloatParam(r, "lat")
	lng, okLng := parseFloatParam(r, "lng")
	if !okLat || !okLng {
		rw.BadRequest("lat and lng query parameters are required")
		return
	}
	q := nearbyQuery{Lat: lat, Lng: lng, Radius: store.DefaultNearbyRadius}
	if r.URL.Query().Get("radius") != "" {
		radius, ok := parseFloatParam(r, "radius")
		if !ok {
			rw.BadRequest("radius must be a number")
			return
		}
		q.Radius = radius
	}
	if !validate(rw, q) {
		return
	}

	results, err := h.store.Nearby(r.Context(), geogrid.Coordinate{Lat: q.Lat, Lng: q.Lng}, q.Radius)
	if err != nil {
		respondStoreError(rw, err, "Bulletin")
		return
	}
	rw.SuccessWithCount(results, len(results))
}

// UserBulletins returns the bulletins of one user, newest first. user_id
// defaults to the caller.
//
// Method: GET
// Path: /api/v1/bulletins/mine?user_id=
func (h *Handler) UserBulletins(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	claims, ok := h.authorize(rw, r, authz.ObjectBulletin, authz.ActionRead, "")
	if !ok {
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = claims.UserID
	}
	bulletins, err := h.store.ListBulletinsByUser(r.Context(), userID)
	if err != nil {
		respondStoreError(rw, err, "Bulletin")
		return
	}
	rw.SuccessWithCount(bulletins, len(bulletins))
}

// ListBulletins returns a page of all bulletins, newest first. Admin only.
//
// Method: GET
// Path: /api/v1/bulletins?limit=&offset=
func (h *Handler) ListBulletins(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if _, ok := h.authorize(rw, r, authz.ObjectBulletin, authz.ActionList, ""); !ok {
		return
	}

	opts, ok := parseListOptions(r)
	if !ok {
		rw.BadRequest("Invalid pagination parameters")
		return
	}
	bulletins, total, err := h.store.ListBulletins(r.Context(), opts)
	if err != nil {
		respondStoreError(rw, err, "Bulletin")
		return
	}
	rw.SuccessWithPagination(bulletins, paginationMeta(opts, len(bulletins), total))
}

// GetBulletin returns one bulletin.
//
// Method: GET
// Path: /api/v1/bulletins/{id}
func (h *Handler) GetBulletin(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if _, ok := h.authorize(rw, r, authz.ObjectBulletin, authz.ActionRead, ""); !ok {
		return
	}

	b, err := h.store.GetBulletin(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(rw, err, "Bulletin")
		return
	}
	rw.Success(b)
}

// UpdateBulletin replaces the content of a bulletin and announces the change.
//
// Method: PUT
// Path: /api/v1/bulletins/{id}
func (h *Handler) UpdateBulletin(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	existing, ok := h.loadOwnedBulletin(rw, r, authz.ActionUpdate)
	if !ok {
		return
	}

	var req UpdateBulletinRequest
	if !decodeAndValidate(rw, w, r, &req) {
		return
	}

	b, err := h.store.UpdateBulletinContent(r.Context(), existing.ID, strings.TrimSpace(req.Content))
	if err != nil {
		respondStoreError(rw, err, "Bulletin")
		return
	}

	h.notify(r.Context(), realtime.NewUpdatedEvent(b))
	rw.Success(b)
}

// DeleteBulletin removes a bulletin and announces its id to the rooms that
// could have shown it.
//
// Method: DELETE
// Path: /api/v1/bulletins/{id}
func (h *Handler) DeleteBulletin(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	existing, ok := h.loadOwnedBulletin(rw, r, authz.ActionDelete)
	if !ok {
		return
	}

	b, err := h.store.DeleteBulletin(r.Context(), existing.ID)
	if err != nil {
		respondStoreError(rw, err, "Bulletin")
		return
	}

	logging.Ctx(r.Context()).Info().Str("bulletin_id", b.ID).Msg("Bulletin deleted")
	h.notify(r.Context(), realtime.NewDeletedEvent(b.ID, b.Coordinate()))
	rw.Success(map[string]string{"id": b.ID})
}

// loadOwnedBulletin fetches the {id} bulletin and checks action against its owner.
func (h *Handler) loadOwnedBulletin(rw *ResponseWriter, r *http.Request, action string) (*models.Bulletin, bool) {
	if _, ok := h.authorize(rw, r, authz.ObjectBulletin, authz.ActionRead, ""); !ok {
		return nil, false
	}
	b, err := h.store.GetBulletin(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(rw, err, "Bulletin")
		return nil, false
	}
	if _, ok := h.authorize(rw, r, authz.ObjectBulletin, action, b.UserID); !ok {
		return nil, false
	}
	return b, true
}
