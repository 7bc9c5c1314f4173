// Geoboard - Location-based Announcement Board
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoboard

package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tomtom215/geoboard/internal/auth"
	"github.com/tomtom215/geoboard/internal/authz"
	"github.com/tomtom215/geoboard/internal/config"
	"github.com/tomtom215/geoboard/internal/logging"
	"github.com/tomtom215/geoboard/internal/models"
	"github.com/tomtom215/geoboard/internal/realtime"
	"github.com/tomtom215/geoboard/internal/store"
)

const testSecret = "test-secret-that-is-at-least-32-characters"

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

// recordingDispatcher captures events instead of fanning them out.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []realtime.Event
	err    error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, ev realtime.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.events = append(d.events, ev)
	return nil
}

func (d *recordingDispatcher) Events() []realtime.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]realtime.Event(nil), d.events...)
}

type testEnv struct {
	srv    *httptest.Server
	store  *store.Store
	hub    *realtime.Hub
	config *config.Config
}

type envOptions struct {
	hubConfig  realtime.HubConfig
	dispatcher Dispatcher
	configure  func(*config.Config)
}

func testConfig() *config.Config {
	return &config.Config{
		Security: config.SecurityConfig{
			JWTSecret:         testSecret,
			SessionTimeout:    time.Hour,
			BcryptCost:        bcrypt.MinCost,
			CORSOrigins:       []string{"*"},
			RateLimitDisabled: true,
		},
	}
}

// newTestEnv starts a full router over an in-memory store and a running hub.
func newTestEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()

	cfg := testConfig()
	if opts.configure != nil {
		opts.configure(cfg)
	}

	st, err := store.Open(store.Options{InMemory: true, BulletinTTL: time.Hour})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	hubCfg := opts.hubConfig
	if hubCfg == (realtime.HubConfig{}) {
		hubCfg = realtime.DefaultHubConfig()
	}
	hub := realtime.NewHub(realtime.NewRegistry(), hubCfg)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- hub.RunWithContext(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-errCh
	})

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	require.NoError(t, err)
	enforcer, err := authz.NewEnforcer(nil)
	require.NoError(t, err)
	t.Cleanup(enforcer.Close)

	h := NewHandler(Dependencies{
		Store:      st,
		Hub:        hub,
		Dispatcher: opts.dispatcher,
		JWT:        jwtManager,
		Passwords:  auth.NewPasswordHasher(cfg.Security.BcryptCost),
		Authz:      enforcer,
		Config:     cfg,
	})
	srv := httptest.NewServer(NewRouter(h, ChiMiddlewareConfigFrom(&cfg.Security)).SetupChi())
	t.Cleanup(srv.Close)

	return &testEnv{srv: srv, store: st, hub: hub, config: cfg}
}

// envelope mirrors APIResponse with the payload left raw.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
	Meta    *APIMeta        `json:"meta"`
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, e.srv.URL+path, reader)
	require.NoError(t, err)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	}
	return resp.StatusCode, env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

type testUser struct {
	ID    string
	Token string
}

// register creates an account named name and returns its id and token.
func (e *testEnv) register(t *testing.T, name string) testUser {
	t.Helper()
	status, env := e.do(t, http.MethodPost, "/api/v1/users/register", "", RegisterRequest{
		UserName: name,
		Email:    name + "@example.com",
		Password: "password-" + name,
	})
	require.Equal(t, http.StatusCreated, status, "register %s: %+v", name, env.Error)
	resp := decodeData[AuthResponse](t, env)
	return testUser{ID: resp.User.ID, Token: resp.Token}
}

// registerAdmin creates an account, grants it admin, and logs in again so
// the token carries the role.
func (e *testEnv) registerAdmin(t *testing.T, name string) testUser {
	t.Helper()
	u := e.register(t, name)
	_, err := e.store.UpdateUser(context.Background(), u.ID, store.UserUpdate{
		Roles: []string{models.RoleUser, models.RoleAdmin},
	})
	require.NoError(t, err)

	status, env := e.do(t, http.MethodPost, "/api/v1/users/login", "", LoginRequest{
		Email:    name + "@example.com",
		Password: "password-" + name,
	})
	require.Equal(t, http.StatusOK, status)
	u.Token = decodeData[AuthResponse](t, env).Token
	return u
}

func bulletinBody(content string, lat, lng float64) map[string]any {
	return map[string]any{
		"content": content,
		"location": map[string]any{
			"type":        "Point",
			"coordinates": []float64{lng, lat},
		},
	}
}

func (e *testEnv) createBulletin(t *testing.T, u testUser, content string, lat, lng float64) *models.Bulletin {
	t.Helper()
	status, env := e.do(t, http.MethodPost, "/api/v1/bulletins", u.Token, bulletinBody(content, lat, lng))
	require.Equal(t, http.StatusCreated, status, "create bulletin: %+v", env.Error)
	return decodeData[*models.Bulletin](t, env)
}
