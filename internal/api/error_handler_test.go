package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/supplyhub/supplier-console/internal/core/domain"
)

func TestHTTPErrorHandler(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
		wantKind string
	}{
		{"validation", domain.NewAPIError(domain.KindValidation, 422, "email is required"), 422, "email is required", "validation_error"},
		{"invalid credentials", domain.NewAPIError(domain.KindInvalidCredentials, 401, "Invalid password"), 401, "Invalid password", "invalid_credentials"},
		{"unauthorized", domain.NewAPIError(domain.KindUnauthorized, 401, "jwt expired"), 401, "jwt expired", "unauthorized"},
		{"network", domain.NewAPIError(domain.KindNetwork, 0, "Unable to reach the server"), 502, "Unable to reach the server", "network_error"},
		{"server", fmt.Errorf("list: %w", domain.NewAPIError(domain.KindServer, 500, "Product not found")), 502, "Product not found", "server_error"},
		{"not configured", domain.ErrBackendNotConfigured, 503, "NEXT_PUBLIC_API_URL is not defined", ""},
		{"echo", echo.NewHTTPError(http.StatusUnauthorized, "not signed in"), 401, "not signed in", ""},
		{"unknown", errors.New("boom"), 500, "internal server error", ""},
	}

	h := NewHTTPErrorHandler(zerolog.Nop())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/api/x", nil), rec)

			h(tt.err, c)

			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, rec.Code)
			}
			var body errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if body.Error != tt.wantMsg || body.Kind != tt.wantKind {
				t.Fatalf("unexpected body: %+v", body)
			}
		})
	}
}
