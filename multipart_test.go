package vkteamsbot

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMultipartValidateOK(t *testing.T) {
	m := Multipart{FieldName: "file", FileName: "report.pdf", Content: []byte("data")}
	if err := m.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestMultipartValidateEmptyContent(t *testing.T) {
	m := Multipart{FieldName: "file", FileName: "a.txt"}
	if err := m.Validate(); err == nil {
		t.Error("expected error for empty content")
	}
}

func TestMultipartValidateForbiddenChar(t *testing.T) {
	m := Multipart{FieldName: "file", FileName: "a:b.txt", Content: []byte("x")}
	if err := m.Validate(); err == nil {
		t.Error("expected error for forbidden character")
	}
}

func TestMultipartValidateReservedName(t *testing.T) {
	for _, name := range []string{"CON", "con.txt", "COM1", "lpt9.log"} {
		m := Multipart{FieldName: "file", FileName: name, Content: []byte("x")}
		if err := m.Validate(); err == nil {
			t.Errorf("expected error for reserved name %q", name)
		}
	}
}

func TestMultipartValidateTrailingDotOrSpace(t *testing.T) {
	for _, name := range []string{"file.", "file "} {
		m := Multipart{FieldName: "file", FileName: name, Content: []byte("x")}
		if err := m.Validate(); err == nil {
			t.Errorf("expected error for trailing char in %q", name)
		}
	}
}

func TestMultipartValidateTooLongName(t *testing.T) {
	long := make([]byte, 300)
	for i := range long {
		long[i] = 'a'
	}
	m := Multipart{FieldName: "file", FileName: string(long), Content: []byte("x")}
	if err := m.Validate(); err == nil {
		t.Error("expected error for filename exceeding 255 bytes")
	}
}

func TestValidatePathRejectsTraversal(t *testing.T) {
	for _, p := range []string{"../secret", "a/../../etc/passwd", "./a.txt", "a/./b.txt"} {
		if err := ValidatePath(p); err == nil {
			t.Errorf("ValidatePath(%q) = nil, want error", p)
		}
	}
}

func TestValidatePathRejectsNUL(t *testing.T) {
	if err := ValidatePath("a\x00b.txt"); err == nil {
		t.Error("expected error for NUL byte in path")
	}
}

func TestValidatePathAcceptsOrdinaryPath(t *testing.T) {
	if err := ValidatePath("uploads/report.pdf"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewMultipartFromPathRejectsTraversalWithoutTouchingDisk(t *testing.T) {
	_, err := NewMultipartFromPath("file", "../outside.txt")
	if err == nil {
		t.Fatal("expected a validation error")
	}
	if _, ok := err.(*ErrValidation); !ok {
		t.Errorf("got %T, want *ErrValidation", err)
	}
}

func TestNewMultipartFromPathReadsContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.pdf")
	if err := os.WriteFile(path, []byte("pdf-bytes"), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	m, err := NewMultipartFromPath("file", path)
	if err != nil {
		t.Fatalf("NewMultipartFromPath: %v", err)
	}
	if m.FileName != "report.pdf" || string(m.Content) != "pdf-bytes" {
		t.Errorf("got FileName=%q Content=%q", m.FileName, m.Content)
	}
}

func TestMultipartEncode(t *testing.T) {
	m := Multipart{FieldName: "file", FileName: "a.txt", Content: []byte("hello")}
	ct, body, err := m.encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if ct == "" {
		t.Error("expected non-empty content type")
	}
	if len(body) == 0 {
		t.Error("expected non-empty body")
	}
}
