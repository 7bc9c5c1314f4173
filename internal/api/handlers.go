// Geoboard - Location-based Announcement Board
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoboard

package api

import (
	"context"
	"time"

	"github.com/tomtom215/geoboard/internal/auth"
	"github.com/tomtom215/geoboard/internal/authz"
	"github.com/tomtom215/geoboard/internal/config"
	"github.com/tomtom215/geoboard/internal/geogrid"
	"github.com/tomtom215/geoboard/internal/logging"
	"github.com/tomtom215/geoboard/internal/models"
	"github.com/tomtom215/geoboard/internal/realtime"
	"github.com/tomtom215/geoboard/internal/store"
)

// Store is the persistence the handlers need. *store.Store implements it.
type Store interface {
	Ping(ctx context.Context) error

	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context, opts store.ListOptions) ([]*models.User, int, error)
	UpdateUser(ctx context.Context, id string, upd store.UserUpdate) (*models.User, error)
	DeleteUser(ctx context.Context, id string) error

	CreateBulletin(ctx context.Context, b *models.Bulletin) error
	GetBulletin(ctx context.Context, id string) (*models.Bulletin, error)
	UpdateBulletinContent(ctx context.Context, id, content string) (*models.Bulletin, error)
	DeleteBulletin(ctx context.Context, id string) (*models.Bulletin, error)
	ListBulletins(ctx context.Context, opts store.ListOptions) ([]*models.Bulletin, int, error)
	ListBulletinsByUser(ctx context.Context, userID string) ([]*models.Bulletin, error)
	Nearby(ctx context.Context, center geogrid.Coordinate, radiusMeters float64) ([]store.NearbyResult, error)

	CreateReport(ctx context.Context, r *models.Report) error
	GetReport(ctx context.Context, id string) (*models.Report, error)
	ListReports(ctx context.Context, opts store.ListOptions) ([]*models.Report, int, error)
	DeleteReport(ctx context.Context, id string) error
}

// Dispatcher accepts bulletin events for realtime fan-out. *realtime.Hub implements it.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev realtime.Event) error
}

// Dependencies bundles everything NewHandler needs.
type Dependencies struct {
	Store     Store
	Hub       *realtime.Hub
	JWT       *auth.JWTManager
	Passwords *auth.PasswordHasher
	Authz     *authz.Enforcer
	Config    *config.Config

	// Dispatcher defaults to Hub.
	Dispatcher Dispatcher
}

// Handler serves the REST and WebSocket endpoints.
type Handler struct {
	store      Store
	hub        *realtime.Hub
	dispatcher Dispatcher
	jwt        *auth.JWTManager
	passwords  *auth.PasswordHasher
	authz      *authz.Enforcer
	authMW     *auth.Middleware
	config     *config.Config
	startTime  time.Time
}

// NewHandler creates the API handler.
func NewHandler(deps Dependencies) *Handler {
	dispatcher := deps.Dispatcher
	if dispatcher == nil && deps.Hub != nil {
		dispatcher = deps.Hub
	}
	h := &Handler{
		store:      deps.Store,
		hub:        deps.Hub,
		dispatcher: dispatcher,
		jwt:        deps.JWT,
		passwords:  deps.Passwords,
		authz:      deps.Authz,
		config:     deps.Config,
		startTime:  time.Now(),
	}
	h.authMW = auth.NewMiddleware(deps.JWT, writeAuthError)
	return h
}

// notify hands ev to the dispatcher. The write it reports on has already
// succeeded, so failures are only logged.
func (h *Handler) notify(ctx context.Context, ev realtime.Event) {
	if h.dispatcher == nil {
		return
	}
	// The request context ends with the response; the event must not.
	if err := h.dispatcher.Dispatch(context.WithoutCancel(ctx), ev); err != nil {
		logging.Ctx(ctx).Warn().Err(err).
			Str("event", ev.Kind.String()).
			Str("cell", ev.Cell().Key()).
			Msg("Failed to dispatch bulletin event")
	}
}
