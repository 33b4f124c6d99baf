package vkteamsbot

import (
	"errors"
	"testing"
	"time"
)

func TestErrAPIError(t *testing.T) {
	e := &ErrAPI{Status: 429, Description: "rate limited"}
	want := "api 429: rate limited"
	if got := e.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestErrValidationError(t *testing.T) {
	e := &ErrValidation{Field: "ChatID", Message: "must not be empty"}
	want := "validation: ChatID: must not be empty"
	if got := e.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestErrNetworkUnwrap(t *testing.T) {
	inner := errors.New("dial tcp: timeout")
	e := &ErrNetwork{Op: "GET /events/get", Err: inner}
	if !errors.Is(e, inner) {
		t.Error("expected errors.Is to find wrapped inner error")
	}
}

func TestErrSerializationUnwrap(t *testing.T) {
	inner := errors.New("unexpected end of JSON input")
	e := &ErrSerialization{Op: "decode", Err: inner}
	if errors.Unwrap(e) != inner {
		t.Error("expected Unwrap to return inner error")
	}
}

func TestErrAPIRetryAfterCarried(t *testing.T) {
	e := &ErrAPI{Status: 429, RetryAfter: 2 * time.Second}
	var target *ErrAPI
	if !errors.As(error(e), &target) {
		t.Fatal("expected errors.As to match ErrAPI")
	}
	if target.RetryAfter != 2*time.Second {
		t.Errorf("RetryAfter = %v, want 2s", target.RetryAfter)
	}
}

func TestAllErrorsImplementError(t *testing.T) {
	var errs []error = []error{
		&ErrValidation{}, &ErrAPI{}, &ErrNetwork{Err: errors.New("x")},
		&ErrSerialization{Err: errors.New("x")}, &ErrURLParams{},
		&ErrIO{Err: errors.New("x")}, &ErrConfig{}, &ErrSystem{},
	}
	for _, e := range errs {
		if e.Error() == "" {
			t.Errorf("%T.Error() returned empty string", e)
		}
	}
}
