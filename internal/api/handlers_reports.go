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
	"github.com/tomtom215/geoboard/internal/logging"
	"github.com/tomtom215/geoboard/internal/models"
)

// CreateReport files an abuse report against a bulletin.
//
// Method: POST
// Path: /api/v1/reports
func (h *Handler) CreateReport(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	claims, ok := h.authorize(rw, r, authz.ObjectReport, authz.ActionCreate, "")
	if !ok {
		return
	}

	var req CreateReportRequest
	if !decodeAndValidate(rw, w, r, &req) {
		return
	}

	report := &models.Report{
		UserID:     claims.UserID,
		BulletinID: strings.TrimSpace(req.BulletinID),
		Message:    strings.TrimSpace(req.Message),
	}
	if err := h.store.CreateReport(r.Context(), report); err != nil {
		respondStoreError(rw, err, "Bulletin")
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("report_id", report.ID).
		Str("bulletin_id", report.BulletinID).
		Msg("Report filed")
	rw.Created(report)
}

// ListReports returns a page of reports. Admin only.
//
// Method: GET
// Path: /api/v1/reports?limit=&offset=
func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if _, ok := h.authorize(rw, r, authz.ObjectReport, authz.ActionList, ""); !ok {
		return
	}

	opts, ok := parseListOptions(r)
	if !ok {
		rw.BadRequest("Invalid pagination parameters")
		return
	}
	reports, total, err := h.store.ListReports(r.Context(), opts)
	if err != nil {
		respondStoreError(rw, err, "Report")
		return
	}
	rw.SuccessWithPagination(reports, paginationMeta(opts, len(reports), total))
}

// GetReport returns one report. Admin only.
//
// Method: GET
// Path: /api/v1/reports/{id}
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if _, ok := h.authorize(rw, r, authz.ObjectReport, authz.ActionRead, ""); !ok {
		return
	}

	report, err := h.store.GetReport(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(rw, err, "Report")
		return
	}
	rw.Success(report)
}

// DeleteReport removes a report. Admin only.
//
// Method: DELETE
// Path: /api/v1/reports/{id}
func (h *Handler) DeleteReport(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if _, ok := h.authorize(rw, r, authz.ObjectReport, authz.ActionDelete, ""); !ok {
		return
	}

	if err := h.store.DeleteReport(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondStoreError(rw, err, "Report")
		return
	}
	rw.NoContent()
}
