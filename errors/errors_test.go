package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		code   ErrorCode
		status int
		title  string
	}{
		{"unauthorized", Unauthorized("no session"), ErrCodeUnauthorized, http.StatusUnauthorized, "Unauthorized"},
		{"forbidden", Forbidden("admin only"), ErrCodeForbidden, http.StatusForbidden, "Forbidden"},
		{"invalid input", InvalidInput("bad payload"), ErrCodeInvalidInput, http.StatusBadRequest, "Bad Request"},
		{"conflict", Conflict("duplicate"), ErrCodeConflict, http.StatusConflict, "Conflict"},
		{"upstream failure", UpstreamFailure("detector down", nil), ErrCodeUpstreamFailure, http.StatusBadGateway, "Bad Gateway"},
		{"upstream timeout", UpstreamTimeout("detector slow", nil), ErrCodeUpstreamTimeout, http.StatusGatewayTimeout, "Gateway Timeout"},
		{"internal", Internal(errors.New("boom")), ErrCodeInternal, http.StatusInternalServerError, "Internal Server Error"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.Code != tc.code {
				t.Errorf("expected code %s, got %s", tc.code, tc.err.Code)
			}
			if tc.err.HTTPStatus != tc.status {
				t.Errorf("expected status %d, got %d", tc.status, tc.err.HTTPStatus)
			}
			resp := tc.err.ToResponse()
			if resp.Error != tc.title {
				t.Errorf("expected title %q, got %q", tc.title, resp.Error)
			}
			if resp.Status != tc.status {
				t.Errorf("expected response status %d, got %d", tc.status, resp.Status)
			}
		})
	}
}

func TestAppErrorCause(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := UpstreamFailure("detector unreachable", cause)

	if !errors.Is(err, cause) {
		t.Error("cause must be reachable through errors.Is")
	}

	got, ok := AsAppError(fmt.Errorf("wrapped: %w", err))
	if !ok {
		t.Fatal("AsAppError must unwrap nested AppErrors")
	}
	if got.Code != ErrCodeUpstreamFailure {
		t.Errorf("unexpected code %s", got.Code)
	}

	if _, ok := AsAppError(errors.New("plain")); ok {
		t.Error("plain errors are not AppErrors")
	}

	// The cause stays out of the client-facing response.
	resp := err.ToResponse()
	if resp.Message != "detector unreachable" {
		t.Errorf("unexpected message %q", resp.Message)
	}
}
