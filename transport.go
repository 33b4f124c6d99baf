package vkteamsbot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// TransportOption configures a transport.
type TransportOption func(*transport)

// WithMaxAttempts overrides the default retry budget (3).
func WithMaxAttempts(n int) TransportOption {
	return func(t *transport) { t.maxAttempts = n }
}

// WithBaseDelay overrides the default retry base delay (100ms).
func WithBaseDelay(d time.Duration) TransportOption {
	return func(t *transport) { t.baseDelay = d }
}

// WithMaxDelay overrides the default retry delay cap (10s).
func WithMaxDelay(d time.Duration) TransportOption {
	return func(t *transport) { t.maxDelay = d }
}

// WithLogger attaches a structured logger; retries are logged at Warn.
func WithLogger(l *slog.Logger) TransportOption {
	return func(t *transport) { t.logger = l }
}

// transport owns the pooled HTTP client, retry policy, and status classification
// shared by every bot API call.
type transport struct {
	client      *http.Client
	baseURL     string
	token       string
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
	logger      *slog.Logger
}

func newTransport(baseURL, token string, opts ...TransportOption) *transport {
	t := &transport{
		baseURL:     baseURL,
		token:       token,
		maxAttempts: 3,
		baseDelay:   100 * time.Millisecond,
		maxDelay:    10 * time.Second,
		logger:      slog.Default(),
		client: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 16,
				IdleConnTimeout:     90 * time.Second,
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// retryableStatus reports whether a response status is worth retrying.
func retryableStatus(status int) bool {
	switch status {
	case 408, 409, 423, 424, 429:
		return true
	}
	return status >= 500 && status <= 599
}

// do executes req, decoding the JSON envelope into out. It retries transient
// failures (network errors and retryableStatus codes) with capped exponential
// backoff plus jitter, honoring any server-supplied Retry-After.
func (t *transport) do(ctx context.Context, req request, out interface{}) error {
	verb, path := req.method()
	values, err := req.values()
	if err != nil {
		return err
	}

	var chat ChatId
	if cs, ok := req.(chatScoped); ok {
		chat, _ = cs.chatID()
	}

	var mp *Multipart
	switch r := req.(type) {
	case SendFileRequest:
		mp = &r.File
	case SendVoiceRequest:
		mp = &r.Voice
	case ChatAvatarSetRequest:
		mp = &r.Avatar
	}

	var lastErr error
	for attempt := 0; attempt < t.maxAttempts; attempt++ {
		resp, err := t.attempt(ctx, verb, path, values, mp)
		if err == nil {
			decodeErr := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			if decodeErr != nil {
				return &ErrSerialization{Op: path, Err: decodeErr}
			}
			return nil
		}

		lastErr = err
		var apiErr *ErrAPI
		retryable := false
		if ok := errorsAsAPI(err, &apiErr); ok {
			retryable = retryableStatus(apiErr.Status)
		} else {
			retryable = true // network-level failure
		}
		if !retryable || attempt == t.maxAttempts-1 {
			break
		}

		delay := t.backoff(attempt)
		if apiErr != nil && apiErr.RetryAfter > delay {
			delay = apiErr.RetryAfter
		}
		t.logger.Warn("vkteamsbot: retrying", "path", path, "chat", chat, "attempt", attempt+1, "delay", delay, "err", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return lastErr
}

func errorsAsAPI(err error, target **ErrAPI) bool {
	if e, ok := err.(*ErrAPI); ok {
		*target = e
		return true
	}
	return false
}

func (t *transport) attempt(ctx context.Context, verb, path string, values url.Values, mp *Multipart) (*http.Response, error) {
	values.Set("token", t.token)
	fullURL := t.baseURL + path

	var httpReq *http.Request
	var err error
	if mp != nil {
		contentType, body, encErr := mp.encode()
		if encErr != nil {
			return nil, encErr
		}
		fullURL = fullURL + "?" + values.Encode()
		httpReq, err = http.NewRequestWithContext(ctx, "POST", fullURL, newReplayableReader(body))
		if err == nil {
			httpReq.Header.Set("Content-Type", contentType)
		}
	} else if verb == "GET" {
		fullURL = fullURL + "?" + values.Encode()
		httpReq, err = http.NewRequestWithContext(ctx, "GET", fullURL, nil)
	} else {
		httpReq, err = http.NewRequestWithContext(ctx, verb, fullURL, nil)
	}
	if err != nil {
		return nil, &ErrNetwork{Op: "build request", Err: err}
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, &ErrNetwork{Op: fmt.Sprintf("%s %s", verb, path), Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &ErrAPI{
			Status:      resp.StatusCode,
			Description: string(body),
			RetryAfter:  ParseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}
	return resp, nil
}

// backoff returns the delay before retry attempt i (0-indexed): base*2^i,
// capped at maxDelay, with up to ±25% random jitter applied (and the
// result capped at maxDelay again).
func (t *transport) backoff(i int) time.Duration {
	exp := t.baseDelay * time.Duration(1<<uint(i))
	if exp > t.maxDelay {
		exp = t.maxDelay
	}
	jitter := time.Duration(rand.Int63n(int64(exp)/2+1)) - exp/4
	d := exp + jitter
	if d > t.maxDelay {
		d = t.maxDelay
	}
	return d
}

// ParseRetryAfter parses a Retry-After header (seconds only — the bot API
// never sends the HTTP-date form) into a Duration, or 0 if absent/invalid.
func ParseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// newReplayableReader wraps a byte slice in a fresh reader for one request
// attempt; do re-encodes the multipart body on every attempt, so each retry
// sends the same bytes. net/http does not recognise this reader type, so the
// request carries no GetBody and an unknown ContentLength.
func newReplayableReader(b []byte) io.Reader {
	return &byteReader{data: b}
}

type byteReader struct {
	data []byte
	pos  int
}

func (r *byteReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	n := copy(p, r.data[r.pos:])
	r.pos += n
	return n, nil
}
