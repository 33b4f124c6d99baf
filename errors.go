package vkteamsbot

import (
	"fmt"
	"time"
)

// ErrValidation reports that a request failed client-side validation
// (e.g. a malformed chat ID or an attachment name that the server would reject)
// before any network call was attempted.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

// ErrAPI reports a non-2xx response from the bot API, or an envelope
// decoded with ok=false. RetryAfter is populated from the Retry-After
// header when present and is consulted by the transport's retry loop.
type ErrAPI struct {
	Status      int
	Description string
	RetryAfter  time.Duration
}

func (e *ErrAPI) Error() string {
	return fmt.Sprintf("api %d: %s", e.Status, e.Description)
}

// ErrNetwork wraps a transport-level failure (DNS, dial, TLS, connection reset)
// that occurred before a response was received.
type ErrNetwork struct {
	Op  string
	Err error
}

func (e *ErrNetwork) Error() string {
	return fmt.Sprintf("network: %s: %v", e.Op, e.Err)
}

func (e *ErrNetwork) Unwrap() error { return e.Err }

// ErrSerialization reports a JSON encode/decode failure.
type ErrSerialization struct {
	Op  string
	Err error
}

func (e *ErrSerialization) Error() string {
	return fmt.Sprintf("serialization: %s: %v", e.Op, e.Err)
}

func (e *ErrSerialization) Unwrap() error { return e.Err }

// ErrURLParams reports a failure encoding a request into a query string
// or multipart form (e.g. an unsupported value type).
type ErrURLParams struct {
	Param   string
	Message string
}

func (e *ErrURLParams) Error() string {
	return fmt.Sprintf("url params: %s: %s", e.Param, e.Message)
}

// ErrIO wraps a local filesystem failure — reading a file to upload,
// or writing the scheduler's persistence file or the daemon's PID file.
type ErrIO struct {
	Path string
	Err  error
}

func (e *ErrIO) Error() string {
	return fmt.Sprintf("io: %s: %v", e.Path, e.Err)
}

func (e *ErrIO) Unwrap() error { return e.Err }

// ErrConfig reports a configuration problem discovered at startup
// (missing token or base URL, mismatched embedding dimensions).
type ErrConfig struct {
	Key     string
	Message string
}

func (e *ErrConfig) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Key, e.Message)
}

// ErrSystem reports an unexpected internal failure that does not fit the
// other categories (a panic recovered in a goroutine, an invariant violation).
type ErrSystem struct {
	Message string
}

func (e *ErrSystem) Error() string {
	return fmt.Sprintf("system: %s", e.Message)
}
