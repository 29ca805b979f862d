package metadata

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExtractMetadataUnknownTypesYieldEmptyMap(t *testing.T) {
	for _, mime := range []string{"application/octet-stream", "text/plain", "unknown", ""} {
		meta := ExtractMetadata("irrelevant", mime, 1024)
		if meta == nil {
			t.Fatalf("metadata map nil for %s", mime)
		}
		if len(meta) != 0 {
			t.Fatalf("expected empty map for %s, got %v", mime, meta)
		}
	}
}

func TestExtractMetadataUnreadableFile(t *testing.T) {
	for _, mime := range []string{"image/jpeg", "application/pdf"} {
		meta := ExtractMetadata("/does/not/exist", mime, 1024)
		if meta == nil || len(meta) != 0 {
			t.Fatalf("expected empty map for missing file (%s), got %v", mime, meta)
		}
	}
}

func TestExtractPDFMetadataRespectsSizeBound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.pdf")
	if err := os.WriteFile(path, make([]byte, 2048), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if meta := extractPDFMetadata(path, 1024); meta != nil {
		t.Fatalf("oversized file should be skipped, got %v", meta)
	}
}

func TestExtractImageMetadataRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "noise.jpg")
	if err := os.WriteFile(path, []byte("not an image"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if meta := extractImageMetadata(path, 0); meta != nil {
		t.Fatalf("garbage input should yield nil, got %v", meta)
	}
}
