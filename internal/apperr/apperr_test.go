package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorsIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("loading booking: %w", NotFound("error.booking.not_found", "booking not found"))

	if !errors.Is(err, ErrNotFound) {
		t.Error("wrapped not-found error should match ErrNotFound")
	}
	if errors.Is(err, ErrValidation) {
		t.Error("not-found error should not match ErrValidation")
	}
	if KeyOf(err) != "error.booking.not_found" {
		t.Errorf("Expected key error.booking.not_found, got %q", KeyOf(err))
	}
}

func TestStoreWrapsCause(t *testing.T) {
	if Store("insert failed", nil) != nil {
		t.Error("Store(nil) should be nil")
	}

	cause := errors.New("connection reset")
	err := Store("insert failed", cause)
	if !errors.Is(err, cause) {
		t.Error("store error should unwrap to its cause")
	}
	if err.Error() != "insert failed: connection reset" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{Validation("k", "bad"), http.StatusBadRequest},
		{Unauthenticated("k", "no session"), http.StatusUnauthorized},
		{Forbidden("k", "admin only"), http.StatusForbidden},
		{NotFound("k", "missing"), http.StatusNotFound},
		{Conflict("k", "decided"), http.StatusConflict},
		{Store("down", errors.New("x")), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := HTTPStatus(tt.err); got != tt.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
