// Geoboard - Location-based Announcement Board
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoboard

package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/geoboard/internal/authz"
	"github.com/tomtom215/geoboard/internal/logging"
	"github.com/tomtom215/geoboard/internal/models"
	"github.com/tomtom215/geoboard/internal/store"
)

// RegisterUser creates an account and returns a token for it.
//
// Method: POST
// Path: /api/v1/users/register
func (h *Handler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req RegisterRequest
	if !decodeAndValidate(rw, w, r, &req) {
		return
	}

	hash, err := h.passwords.Hash(req.Password)
	if err != nil {
		rw.ValidationError(err.Error(), map[string]any{"field": "password"})
		return
	}

	user := &models.User{
		UserName:     strings.TrimSpace(req.UserName),
		Email:        req.Email,
		PasswordHash: hash,
	}
	if err := h.store.CreateUser(r.Context(), user); err != nil {
		respondStoreError(rw, err, "User")
		return
	}

	logging.Ctx(r.Context()).Info().Str("user_id", user.ID).Msg("User registered")
	h.respondWithToken(rw, user, http.StatusCreated)
}

// LoginUser exchanges email and password for a token.
//
// Method: POST
// Path: /api/v1/users/login
func (h *Handler) LoginUser(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req LoginRequest
	if !decodeAndValidate(rw, w, r, &req) {
		return
	}

	user, err := h.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			rw.Unauthorized("Invalid email or password")
			return
		}
		respondStoreError(rw, err, "User")
		return
	}
	if err := h.passwords.Verify(user.PasswordHash, req.Password); err != nil {
		logging.Ctx(r.Context()).Debug().Str("user_id", user.ID).Msg("Login rejected")
		rw.Unauthorized("Invalid email or password")
		return
	}

	h.respondWithToken(rw, user, http.StatusOK)
}

func (h *Handler) respondWithToken(rw *ResponseWriter, user *models.User, status int) {
	token, expiresAt, err := h.jwt.GenerateToken(user)
	if err != nil {
		logging.Ctx(rw.r.Context()).Error().Err(err).Msg("Failed to generate token")
		rw.InternalError("Failed to generate token")
		return
	}
	resp := AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
		User:      user,
	}
	if status == http.StatusCreated {
		rw.Created(resp)
		return
	}
	rw.Success(resp)
}

// ListUsers returns a page of users. Admin only.
//
// Method: GET
// Path: /api/v1/users?limit=&offset=
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if _, ok := h.authorize(rw, r, authz.ObjectUser, authz.ActionList, ""); !ok {
		return
	}

	opts, ok := parseListOptions(r)
	if !ok {
		rw.BadRequest("Invalid pagination parameters")
		return
	}
	users, total, err := h.store.ListUsers(r.Context(), opts)
	if err != nil {
		respondStoreError(rw, err, "User")
		return
	}
	rw.SuccessWithPagination(users, paginationMeta(opts, len(users), total))
}

// GetUser returns one user.
//
// Method: GET
// Path: /api/v1/users/{id}
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id := chi.URLParam(r, "id")
	if _, ok := h.authorize(rw, r, authz.ObjectUser, authz.ActionRead, id); !ok {
		return
	}

	user, err := h.store.GetUser(r.Context(), id)
	if err != nil {
		respondStoreError(rw, err, "User")
		return
	}
	rw.Success(user)
}

// UpdateUser changes the user name and/or password of an account. A
// password change needs the current password unless an admin is editing
// someone else's account.
//
// Method: PUT
// Path: /api/v1/users/{id}
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id := chi.URLParam(r, "id")
	claims, ok := h.authorize(rw, r, authz.ObjectUser, authz.ActionUpdate, id)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if !decodeAndValidate(rw, w, r, &req) {
		return
	}
	if req.UserName == nil && req.Password == nil {
		rw.BadRequest("Nothing to update")
		return
	}

	var upd store.UserUpdate
	if req.UserName != nil {
		name := strings.TrimSpace(*req.UserName)
		upd.UserName = &name
	}
	if req.Password != nil {
		current, err := h.store.GetUser(r.Context(), id)
		if err != nil {
			respondStoreError(rw, err, "User")
			return
		}
		if claims.UserID == id || !claims.IsAdmin() {
			if err := h.passwords.Verify(current.PasswordHash, req.CurrentPassword); err != nil {
				rw.Unauthorized("Current password is incorrect")
				return
			}
		}
		hash, err := h.passwords.Hash(*req.Password)
		if err != nil {
			rw.ValidationError(err.Error(), map[string]any{"field": "password"})
			return
		}
		upd.PasswordHash = &hash
	}

	user, err := h.store.UpdateUser(r.Context(), id, upd)
	if err != nil {
		respondStoreError(rw, err, "User")
		return
	}
	rw.Success(user)
}

// DeleteUser removes an account.
//
// Method: DELETE
// Path: /api/v1/users/{id}
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id := chi.URLParam(r, "id")
	if _, ok := h.authorize(rw, r, authz.ObjectUser, authz.ActionDelete, id); !ok {
		return
	}

	if err := h.store.DeleteUser(r.Context(), id); err != nil {
		respondStoreError(rw, err, "User")
		return
	}
	logging.Ctx(r.Context()).Info().Str("user_id", id).Msg("User deleted")
	rw.NoContent()
}
