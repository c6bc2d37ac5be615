package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{BadRequest("bad"), http.StatusBadRequest},
		{Unauthorized("nope"), http.StatusUnauthorized},
		{NotFound("missing"), http.StatusNotFound},
		{Unavailable("down"), http.StatusServiceUnavailable},
		{Internal(errors.New("boom")), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", NotFound("missing")), http.StatusNotFound},
	}
	for _, c := range cases {
		if got := StatusOf(c.err); got != c.want {
			t.Fatalf("StatusOf(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}

func TestMessageOf(t *testing.T) {
	if got := MessageOf(NotFound("user not found")); got != "user not found" {
		t.Fatalf("got %q", got)
	}
	if got := MessageOf(errors.New("sql: connection reset")); got != "internal error" {
		t.Fatalf("foreign errors must not leak, got %q", got)
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := Wrap(http.StatusServiceUnavailable, "cache backend unavailable", cause)
	if !errors.Is(err, cause) {
		t.Fatal("wrapped cause must survive errors.Is")
	}
	if err.Error() != "cache backend unavailable: dial tcp: refused" {
		t.Fatalf("got %q", err.Error())
	}
}
