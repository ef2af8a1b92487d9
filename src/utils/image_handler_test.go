package utils

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
)

// -----------------------------------------------------------------------------

func TestSaveBase64Image(t *testing.T) {
	dir := t.TempDir()
	payload := []byte("fake png bytes")
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(payload)

	path, err := SaveBase64Image(dir, "nabil", dataURL)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if path != "/images/NABIL.png" {
		t.Errorf("expected /images/NABIL.png, got %s", path)
	}

	written, err := os.ReadFile(filepath.Join(dir, "NABIL.png"))
	if err != nil {
		t.Fatalf("read back failed: %v", err)
	}
	if string(written) != string(payload) {
		t.Errorf("payload mismatch after round trip")
	}
}

// -----------------------------------------------------------------------------

func TestSaveBase64ImageExtensions(t *testing.T) {
	dir := t.TempDir()
	data := base64.StdEncoding.EncodeToString([]byte("x"))

	cases := []struct {
		header string
		want   string
	}{
		{"data:image/jpeg;base64,", "/images/AAA.jpg"},
		{"data:image/svg+xml;base64,", "/images/AAA.svg"},
		{"data:image/webp;base64,", "/images/AAA.webp"},
	}
	for _, c := range cases {
		path, err := SaveBase64Image(dir, "AAA", c.header+data)
		if err != nil {
			t.Fatalf("save failed for %s: %v", c.header, err)
		}
		if path != c.want {
			t.Errorf("expected %s, got %s", c.want, path)
		}
	}
}

// -----------------------------------------------------------------------------

func TestSaveBase64ImageRejectsNonDataURL(t *testing.T) {
	if _, err := SaveBase64Image(t.TempDir(), "AAA", "https://example.com/logo.png"); err == nil {
		t.Error("expected an error for a plain URL")
	}
	if _, err := SaveBase64Image(t.TempDir(), "AAA", "data:image/png;base64"); err == nil {
		t.Error("expected an error for a data URL without payload")
	}
}
