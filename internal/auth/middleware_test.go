// Geoboard - Location-based Announcement Board
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoboard

package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tomtom215/geoboard/internal/models"
)

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(r *http.Request)
		want    string
		wantErr bool
	}{
		{"bearer header", func(r *http.Request) { r.Header.Set("Authorization", "Bearer abc") }, "abc", false},
		{"lowercase scheme", func(r *http.Request) { r.Header.Set("Authorization", "bearer abc") }, "abc", false},
		{"basic header", func(r *http.Request) { r.Header.Set("Authorization", "Basic abc") }, "", true},
		{"empty bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer ") }, "", true},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "token", Value: "cookie-tok"}) }, "cookie-tok", false},
		{"query", func(r *http.Request) { r.URL.RawQuery = "token=query-tok" }, "query-tok", false},
		{"missing", func(*http.Request) {}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/v1/ws", nil)
			tt.setup(r)
			got, err := ExtractToken(r)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ExtractToken() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ExtractToken() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMiddleware_Authenticate(t *testing.T) {
	m := newTestManager(t, time.Hour)
	token, _, err := m.GenerateToken(&models.User{ID: "u-1", UserName: "ayse", Roles: models.DefaultRoles})
	if err != nil {
		t.Fatal(err)
	}

	var gotErr error
	mw := NewMiddleware(m, func(w http.ResponseWriter, _ *http.Request, err error) {
		gotErr = err
		w.WriteHeader(http.StatusUnauthorized)
	})

	var seen *Claims
	handler := mw.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("valid token", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		if w.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want 204", w.Code)
		}
		if seen == nil || seen.UserID != "u-1" {
			t.Errorf("claims = %+v", seen)
		}
	})

	t.Run("missing token", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", w.Code)
		}
		if !errors.Is(gotErr, ErrMissingToken) {
			t.Errorf("error = %v, want ErrMissingToken", gotErr)
		}
	})

	t.Run("invalid token", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer nope")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", w.Code)
		}
		if !errors.Is(gotErr, ErrInvalidToken) {
			t.Errorf("error = %v, want ErrInvalidToken", gotErr)
		}
	})
}

func TestNewMiddleware_DefaultErrorHandler(t *testing.T) {
	mw := NewMiddleware(newTestManager(t, time.Hour), nil)
	w := httptest.NewRecorder()
	mw.Authenticate(http.NotFoundHandler()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}
