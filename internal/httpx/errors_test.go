package httpx

import (
	"net/http"
	"testing"

	"github.com/viomck/urlroulette/internal/errx"
)

func TestErrorKindToStatus(t *testing.T) {
	tests := []struct {
		kind errx.Kind
		want int
	}{
		{errx.NotFound, http.StatusNotFound},
		{errx.NoContent, http.StatusNoContent},
		{errx.Invalid, http.StatusBadRequest},
		{errx.Unauthorized, http.StatusUnauthorized},
		{errx.Unavailable, http.StatusServiceUnavailable},
		{errx.Internal, http.StatusInternalServerError},
		{errx.Unknown, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := ErrorKindToStatus(tt.kind); got != tt.want {
			t.Errorf("ErrorKindToStatus(%v) = %d, want %d", tt.kind, got, tt.want)
		}
	}
}

func TestErrorKindToCode(t *testing.T) {
	tests := []struct {
		kind errx.Kind
		want string
	}{
		{errx.NotFound, "not_found"},
		{errx.NoContent, "no_content"},
		{errx.Invalid, "invalid_input"},
		{errx.Unauthorized, "unauthorized"},
		{errx.Unavailable, "unavailable"},
		{errx.Internal, "internal_error"},
		{errx.Unknown, "internal_error"},
	}

	for _, tt := range tests {
		if got := ErrorKindToCode(tt.kind); got != tt.want {
			t.Errorf("ErrorKindToCode(%v) = %q, want %q", tt.kind, got, tt.want)
		}
	}
}
