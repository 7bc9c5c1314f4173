// Geoboard - Location-based Announcement Board
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoboard

package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/geoboard/internal/models"
)

func TestReports(t *testing.T) {
	env := newTestEnv(t, envOptions{dispatcher: &recordingDispatcher{}})
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	admin := env.registerAdmin(t, "root")
	b := env.createBulletin(t, alice, "suspicious offer", 41.0, 29.0)

	t.Run("unknown bulletin", func(t *testing.T) {
		status, resp := env.do(t, http.MethodPost, "/api/v1/reports", bob.Token, CreateReportRequest{
			BulletinID: "missing",
			Message:    "spam",
		})
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
	})

	t.Run("missing message", func(t *testing.T) {
		status, resp := env.do(t, http.MethodPost, "/api/v1/reports", bob.Token, map[string]string{"bulletin_id": b.ID})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, ErrCodeValidationFailed, resp.Error.Code)
	})

	var report *models.Report
	t.Run("file report", func(t *testing.T) {
		status, resp := env.do(t, http.MethodPost, "/api/v1/reports", bob.Token, CreateReportRequest{
			BulletinID: b.ID,
			Message:    "looks like a scam",
		})
		require.Equal(t, http.StatusCreated, status)
		report = decodeData[*models.Report](t, resp)
		assert.Equal(t, bob.ID, report.UserID)
		assert.Equal(t, b.ID, report.BulletinID)
	})
	require.NotNil(t, report)

	t.Run("user cannot moderate", func(t *testing.T) {
		for _, req := range []struct{ method, path string }{
			{http.MethodGet, "/api/v1/reports"},
			{http.MethodGet, "/api/v1/reports/" + report.ID},
			{http.MethodDelete, "/api/v1/reports/" + report.ID},
		} {
			status, _ := env.do(t, req.method, req.path, bob.Token, nil)
			assert.Equal(t, http.StatusForbidden, status, "%s %s", req.method, req.path)
		}
	})

	t.Run("admin moderates", func(t *testing.T) {
		status, resp := env.do(t, http.MethodGet, "/api/v1/reports", admin.Token, nil)
		require.Equal(t, http.StatusOK, status)
		assert.Len(t, decodeData[[]*models.Report](t, resp), 1)

		status, resp = env.do(t, http.MethodGet, "/api/v1/reports/"+report.ID, admin.Token, nil)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "looks like a scam", decodeData[*models.Report](t, resp).Message)

		status, _ = env.do(t, http.MethodDelete, "/api/v1/reports/"+report.ID, admin.Token, nil)
		assert.Equal(t, http.StatusNoContent, status)

		status, _ = env.do(t, http.MethodGet, "/api/v1/reports/"+report.ID, admin.Token, nil)
		assert.Equal(t, http.StatusNotFound, status)
	})
}
