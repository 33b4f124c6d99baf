package vkteamsbot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"
)

type testReq struct{ path string }

func (r testReq) method() (string, string)       { return "GET", r.path }
func (r testReq) values() (url.Values, error)    { return url.Values{}, nil }

func TestRetryableStatus(t *testing.T) {
	retryable := []int{408, 409, 423, 424, 429, 500, 503, 599}
	notRetryable := []int{200, 400, 401, 403, 404, 301}
	for _, s := range retryable {
		if !retryableStatus(s) {
			t.Errorf("retryableStatus(%d) = false, want true", s)
		}
	}
	for _, s := range notRetryable {
		if retryableStatus(s) {
			t.Errorf("retryableStatus(%d) = true, want false", s)
		}
	}
}

func TestTransportRetriesOn503ThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tr := newTransport(srv.URL, "tok", WithBaseDelay(time.Millisecond), WithMaxDelay(5*time.Millisecond))
	var out struct{ envelope }
	if err := tr.do(context.Background(), testReq{path: "/x"}, &out); err != nil {
		t.Fatalf("do: %v", err)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	if !out.OK {
		t.Error("expected ok=true")
	}
}

func TestTransportDoesNotRetryOn400(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`bad request`))
	}))
	defer srv.Close()

	tr := newTransport(srv.URL, "tok", WithBaseDelay(time.Millisecond))
	var out struct{ envelope }
	err := tr.do(context.Background(), testReq{path: "/x"}, &out)
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry on 400)", calls)
	}
}

func TestTransportExhaustsAttempts(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	tr := newTransport(srv.URL, "tok", WithMaxAttempts(3), WithBaseDelay(time.Millisecond), WithMaxDelay(2*time.Millisecond))
	var out struct{ envelope }
	err := tr.do(context.Background(), testReq{path: "/x"}, &out)
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestTransportRespectsRetryAfter(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tr := newTransport(srv.URL, "tok", WithBaseDelay(time.Millisecond))
	var out struct{ envelope }
	if err := tr.do(context.Background(), testReq{path: "/x"}, &out); err != nil {
		t.Fatalf("do: %v", err)
	}
}

func TestParseRetryAfter(t *testing.T) {
	if d := ParseRetryAfter(""); d != 0 {
		t.Errorf("empty = %v, want 0", d)
	}
	if d := ParseRetryAfter("5"); d != 5*time.Second {
		t.Errorf("5 = %v, want 5s", d)
	}
	if d := ParseRetryAfter("not-a-number"); d != 0 {
		t.Errorf("invalid = %v, want 0", d)
	}
}

func TestBackoffCapsAtMaxDelay(t *testing.T) {
	tr := newTransport("http://example.invalid", "tok", WithBaseDelay(time.Second), WithMaxDelay(2*time.Second))
	for i := 0; i < 10; i++ {
		if d := tr.backoff(i); d > 2*time.Second {
			t.Errorf("backoff(%d) = %v, exceeds max delay", i, d)
		}
	}
}
