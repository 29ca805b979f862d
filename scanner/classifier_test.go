package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"entrosift/config"
	"entrosift/entropy"
)

func classifierConfig() *config.Config {
	return &config.Config{
		EntropyLimit: 7.5,
		ChunkSize:    4096,
		SampleSize:   8192,
		ReadMode:     "stream",
	}
}

func writeScanFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	return path
}

func cyclePattern(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i % 256)
	}
	return data
}

func TestScorePicksChunkedBelowSampleThreshold(t *testing.T) {
	c := NewClassifier(classifierConfig())
	path := writeScanFile(t, "small.bin", cyclePattern(4096))

	result, err := c.Score(path, 4096)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if result.Method != entropy.MethodTrue {
		t.Fatalf("expected true entropy for small file, got %v", result.Method)
	}
	if result.Value != 8.0 {
		t.Fatalf("expected entropy 8.0 for uniform bytes, got %v", result.Value)
	}
}

func TestScorePicksSamplerAtThreshold(t *testing.T) {
	c := NewClassifier(classifierConfig())

	// Exactly at the threshold the sampler is chosen, but it still
	// covers the whole file and reports true entropy.
	path := writeScanFile(t, "edge.bin", cyclePattern(8192))
	result, err := c.Score(path, 8192)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if result.Method != entropy.MethodTrue {
		t.Fatalf("expected true entropy at threshold size, got %v", result.Method)
	}

	path = writeScanFile(t, "large.bin", cyclePattern(32768))
	result, err = c.Score(path, 32768)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if result.Method != entropy.MethodEstimated {
		t.Fatalf("expected estimated entropy above threshold, got %v", result.Method)
	}
	if result.BytesRead != 8192 {
		t.Fatalf("expected an 8192-byte window, read %d", result.BytesRead)
	}
}

func TestIsMatchIsStrictlyGreater(t *testing.T) {
	c := NewClassifier(classifierConfig())
	if c.IsMatch(7.5) {
		t.Fatal("value equal to the limit must not match")
	}
	if c.IsMatch(7.499) {
		t.Fatal("value below the limit must not match")
	}
	if !c.IsMatch(7.501) {
		t.Fatal("value above the limit must match")
	}
}
