package shape

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writeTestPNG(t *testing.T, w, h int) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encoding test png: %v", err)
	}
	path := filepath.Join(t.TempDir(), "probe.png")
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatalf("writing test png: %v", err)
	}
	return path
}

func TestProbePNG(t *testing.T) {
	path := writeTestPNG(t, 96, 48)
	w, h, err := Probe(path)
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	// 96 DPI pixels to points.
	if w != 72 || h != 36 {
		t.Errorf("want 72x36pt, got %gx%g", w, h)
	}
}

func TestProbeMissingFile(t *testing.T) {
	if _, _, err := Probe(filepath.Join(t.TempDir(), "nope.png")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestProbeRejectsNonImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "text.png")
	if err := os.WriteFile(path, []byte("definitely not an image header"), 0o600); err != nil {
		t.Fatalf("writing file: %v", err)
	}
	if _, _, err := Probe(path); err == nil {
		t.Fatal("expected error for non-image content")
	}
}

func TestProbeBytes(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 32, 32))); err != nil {
		t.Fatalf("encoding test png: %v", err)
	}
	w, h, err := ProbeBytes(buf.Bytes())
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if w != 24 || h != 24 {
		t.Errorf("want 24x24pt, got %gx%g", w, h)
	}

	if _, _, err := ProbeBytes([]byte("plain text")); err == nil {
		t.Fatal("expected error for non-image bytes")
	}
}
