// Geoboard - Location-based Announcement Board
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoboard

package validation

import (
	"strings"
	"testing"
)

type bulletinRequest struct {
	Content string  `json:"content" validate:"required,notblank,max=500"`
	Lat     float64 `json:"lat" validate:"latitude"`
	Lng     float64 `json:"lng" validate:"longitude"`
	Email   string  `json:"email,omitempty" validate:"omitempty,email"`
	Secret  string  `json:"-" validate:"omitempty,min=3"`
}

func TestGetValidator_Singleton(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()

	if v1 == nil {
		t.Fatal("GetValidator() should not return nil")
	}
	if v1 != v2 {
		t.Error("GetValidator() should return the same singleton instance")
	}
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name      string
		input     bulletinRequest
		wantField string
		wantTag   string
		wantMsg   string
	}{
		{
			name:  "valid",
			input: bulletinRequest{Content: "lost cat", Lat: 41.0, Lng: 29.0},
		},
		{
			name:      "missing content",
			input:     bulletinRequest{Lat: 41.0, Lng: 29.0},
			wantField: "content",
			wantTag:   "required",
			wantMsg:   "content is required",
		},
		{
			name:      "blank content",
			input:     bulletinRequest{Content: "  \t\n", Lat: 41.0, Lng: 29.0},
			wantField: "content",
			wantTag:   "notblank",
			wantMsg:   "content must not be blank",
		},
		{
			name:      "content too long",
			input:     bulletinRequest{Content: strings.Repeat("x", 501)},
			wantField: "content",
			wantTag:   "max",
			wantMsg:   "content must be at most 500 characters",
		},
		{
			name:      "latitude out of range",
			input:     bulletinRequest{Content: "hi", Lat: 91, Lng: 29.0},
			wantField: "lat",
			wantTag:   "latitude",
			wantMsg:   "lat must be a valid latitude (-90 to 90)",
		},
		{
			name:      "longitude out of range",
			input:     bulletinRequest{Content: "hi", Lat: 41, Lng: -180.5},
			wantField: "lng",
			wantTag:   "longitude",
			wantMsg:   "lng must be a valid longitude (-180 to 180)",
		},
		{
			name:      "bad email",
			input:     bulletinRequest{Content: "hi", Email: "nope"},
			wantField: "email",
			wantTag:   "email",
			wantMsg:   "email must be a valid email address",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.input)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("ValidateStruct() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("ValidateStruct() expected an error")
			}
			errs := err.Errors()
			if len(errs) != 1 {
				t.Fatalf("got %d errors, want 1: %v", len(errs), err)
			}
			if errs[0].Field() != tt.wantField || errs[0].Tag() != tt.wantTag {
				t.Errorf("error = %s/%s, want %s/%s", errs[0].Field(), errs[0].Tag(), tt.wantField, tt.wantTag)
			}
			if errs[0].Error() != tt.wantMsg {
				t.Errorf("message = %q, want %q", errs[0].Error(), tt.wantMsg)
			}
		})
	}
}

func TestValidateStruct_UntaggedFieldName(t *testing.T) {
	err := ValidateStruct(&bulletinRequest{Content: "hi", Secret: "x"})
	if err == nil {
		t.Fatal("expected an error")
	}
	if got := err.Errors()[0].Field(); got != "Secret" {
		t.Errorf("field = %q, want Go field name for json:\"-\"", got)
	}
}

func TestToAPIError(t *testing.T) {
	t.Run("single", func(t *testing.T) {
		apiErr := ValidateStruct(&bulletinRequest{Lat: 41}).ToAPIError()
		if apiErr.Code != "VALIDATION_ERROR" {
			t.Errorf("Code = %q", apiErr.Code)
		}
		if apiErr.Details["field"] != "content" {
			t.Errorf("Details = %v", apiErr.Details)
		}
	})

	t.Run("multiple", func(t *testing.T) {
		apiErr := ValidateStruct(&bulletinRequest{Lat: 100, Lng: 200}).ToAPIError()
		fields, ok := apiErr.Details["fields"].([]map[string]any)
		if !ok || len(fields) != 3 {
			t.Fatalf("Details[fields] = %v", apiErr.Details["fields"])
		}
		if !strings.Contains(apiErr.Message, "lat:") || !strings.Contains(apiErr.Message, "lng:") {
			t.Errorf("Message = %q", apiErr.Message)
		}
	})

	t.Run("empty", func(t *testing.T) {
		apiErr := (&RequestValidationError{}).ToAPIError()
		if apiErr.Message != "Validation failed" {
			t.Errorf("Message = %q", apiErr.Message)
		}
	})
}
