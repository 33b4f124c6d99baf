package vkteamsbot

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	maxFilenameBytes    = 255
	maxPathLenWindows   = 260
	maxPathLenOther     = 4096
	forbiddenFilenameCh = `/\:*?"<>|`
)

var reservedWindowsNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// Multipart is a file attachment for sendFile, sendVoice, and chats/avatar/set.
// Content is buffered so the body can be replayed across retry attempts —
// a request-scoped io.Reader cannot otherwise be reused after a failed send.
type Multipart struct {
	FieldName string // "file" or "voice"
	FileName  string
	Content   []byte
}

// Validate applies the bot API's filename constraints before the request is
// ever sent, so malformed uploads fail locally with ErrValidation instead of
// round-tripping to the server first.
func (m Multipart) Validate() error {
	if len(m.Content) == 0 {
		return &ErrValidation{Field: "Content", Message: "must not be empty"}
	}
	name := m.FileName
	if name == "" {
		return &ErrValidation{Field: "FileName", Message: "must not be empty"}
	}
	if strings.IndexByte(name, 0) >= 0 {
		return &ErrValidation{Field: "FileName", Message: "must not contain a NUL byte"}
	}
	if len(name) > maxFilenameBytes {
		return &ErrValidation{Field: "FileName", Message: "exceeds 255 bytes"}
	}
	if strings.HasSuffix(name, ".") || strings.HasSuffix(name, " ") {
		return &ErrValidation{Field: "FileName", Message: "must not end with '.' or ' '"}
	}
	if strings.ContainsAny(name, forbiddenFilenameCh) {
		return &ErrValidation{Field: "FileName", Message: fmt.Sprintf("contains a forbidden character (%s)", forbiddenFilenameCh)}
	}
	base := name
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	if reservedWindowsNames[strings.ToUpper(base)] {
		return &ErrValidation{Field: "FileName", Message: "is a reserved device name"}
	}
	maxPath := maxPathLenOther
	if runtime.GOOS == "windows" {
		maxPath = maxPathLenWindows
	}
	if len(name) > maxPath {
		return &ErrValidation{Field: "FileName", Message: "exceeds the platform path length limit"}
	}
	return nil
}

// ValidatePath rejects NUL bytes and `.`/`..` path components before any
// filesystem access is attempted, so a traversal attempt never reaches
// os.Open.
func ValidatePath(path string) error {
	if path == "" {
		return &ErrValidation{Field: "path", Message: "must not be empty"}
	}
	if strings.IndexByte(path, 0) >= 0 {
		return &ErrValidation{Field: "path", Message: "must not contain a NUL byte"}
	}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." || part == "." {
			return &ErrValidation{Field: "path", Message: "must not contain '.' or '..' components"}
		}
	}
	return nil
}

// NewMultipartFromPath validates path, then reads its content into an
// in-memory retryable Multipart under the given field name ("file" or
// "voice"). The filename sent to the API is path's base name.
func NewMultipartFromPath(fieldName, path string) (Multipart, error) {
	if err := ValidatePath(path); err != nil {
		return Multipart{}, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return Multipart{}, &ErrIO{Path: path, Err: err}
	}
	return Multipart{FieldName: fieldName, FileName: filepath.Base(path), Content: content}, nil
}

// encode writes the attachment as a multipart/form-data body and returns the
// boundary content type header value.
func (m Multipart) encode() (contentType string, body []byte, err error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(m.FieldName, m.FileName)
	if err != nil {
		return "", nil, &ErrIO{Path: m.FileName, Err: err}
	}
	if _, err := io.Copy(part, bytes.NewReader(m.Content)); err != nil {
		return "", nil, &ErrIO{Path: m.FileName, Err: err}
	}
	if err := w.Close(); err != nil {
		return "", nil, &ErrIO{Path: m.FileName, Err: err}
	}
	return w.FormDataContentType(), buf.Bytes(), nil
}
