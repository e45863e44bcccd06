package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindOf(t *testing.T) {
	err := New(NotFound, "application not found")
	if KindOf(err) != NotFound {
		t.Errorf("expected NotFound, got %v", KindOf(err))
	}
	if KindOf(errors.New("plain")) != Unknown {
		t.Errorf("expected Unknown for a plain error")
	}
	if KindOf(nil) != Unknown {
		t.Errorf("expected Unknown for nil")
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	inner := New(Conflict, "modified concurrently")
	wrapped := fmt.Errorf("update application: %w", inner)

	if !IsConflict(wrapped) {
		t.Error("expected conflict kind to survive fmt.Errorf wrapping")
	}
	if IsNotFound(wrapped) {
		t.Error("wrapped conflict must not match NotFound")
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("no rows")
	err := Wrap(NotFound, "doctor not found", cause)

	if !errors.Is(err, cause) {
		t.Error("expected Unwrap to expose the cause")
	}
	if got := err.Error(); got != "doctor not found: no rows" {
		t.Errorf("unexpected message: %q", got)
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{New(NotFound, "x"), http.StatusNotFound},
		{New(Unauthorized, "x"), http.StatusForbidden},
		{New(Conflict, "x"), http.StatusConflict},
		{New(Validation, "x"), http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := HTTPStatus(tc.err); got != tc.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
