package entropy

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"golang.org/x/exp/mmap"
)

func fixedSampler(sampleSize int64, mode string) *Sampler {
	s := NewSampler(sampleSize, mode)
	s.Rand = rand.New(rand.NewSource(42))
	return s
}

func TestSampledSmallFileIsExact(t *testing.T) {
	content := uniformCycle(4096)
	path := writeTempFile(t, "small.bin", content)

	result, err := fixedSampler(8192, "auto").Compute(path)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if result.Method != MethodTrue {
		t.Fatalf("whole-file read should report true entropy, got %v", result.Method)
	}
	if want := Shannon(content); result.Value != want {
		t.Fatalf("expected exact whole-file entropy: got %g want %g", result.Value, want)
	}
}

func TestSampledLargeFileWindow(t *testing.T) {
	rnd := rand.New(rand.NewSource(9))
	content := make([]byte, 256*1024)
	rnd.Read(content)
	path := writeTempFile(t, "large.bin", content)

	const window = 16 * 1024
	result, err := fixedSampler(window, "stream").Compute(path)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if result.Method != MethodEstimated {
		t.Fatalf("expected estimated method, got %v", result.Method)
	}
	if result.BytesRead != window {
		t.Fatalf("expected %d bytes read, got %d", window, result.BytesRead)
	}
	if result.Value < 7.0 || result.Value > 8.0 {
		t.Fatalf("unexpected entropy for random window: %g", result.Value)
	}
}

func TestSampledDeterministicWithInjectedSource(t *testing.T) {
	rnd := rand.New(rand.NewSource(11))
	content := make([]byte, 128*1024)
	rnd.Read(content)
	path := writeTempFile(t, "repeat.bin", content)

	first, err := fixedSampler(8*1024, "stream").Compute(path)
	if err != nil {
		t.Fatalf("first compute: %v", err)
	}
	second, err := fixedSampler(8*1024, "stream").Compute(path)
	if err != nil {
		t.Fatalf("second compute: %v", err)
	}
	if first.Value != second.Value {
		t.Fatalf("same seed should pick the same window: %g vs %g", first.Value, second.Value)
	}
}

func TestSampledStationarySourceStaysClose(t *testing.T) {
	rnd := rand.New(rand.NewSource(23))
	content := make([]byte, 512*1024)
	rnd.Read(content)
	path := writeTempFile(t, "stationary.bin", content)

	s := NewSampler(32*1024, "stream")
	s.Rand = rand.New(rand.NewSource(5))
	var values []float64
	for i := 0; i < 5; i++ {
		result, err := s.Compute(path)
		if err != nil {
			t.Fatalf("compute %d: %v", i, err)
		}
		values = append(values, result.Value)
	}
	for _, v := range values[1:] {
		if math.Abs(v-values[0]) > 0.3 {
			t.Fatalf("sampled values drift too far for a stationary source: %v", values)
		}
	}
}

func TestSampledMmapParity(t *testing.T) {
	content := uniformCycle(64 * 1024)
	path := writeTempFile(t, "parity.bin", content)

	stream, err := fixedSampler(4096, "stream").Compute(path)
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	mapped, err := fixedSampler(4096, "mmap").Compute(path)
	if err != nil {
		t.Fatalf("mmap: %v", err)
	}
	// Same seed, same offset, same window: identical values.
	if stream.Value != mapped.Value {
		t.Fatalf("read modes disagree: stream %g mmap %g", stream.Value, mapped.Value)
	}
}

func TestSampledAutoFallsBackWhenMmapFails(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	content := make([]byte, 64*1024)
	rnd.Read(content)
	path := writeTempFile(t, "fallback.bin", content)

	originalOpen := openMmapReader
	openMmapReader = func(string) (*mmap.ReaderAt, error) {
		return nil, errors.New("forced mmap failure")
	}
	defer func() { openMmapReader = originalOpen }()

	result, err := fixedSampler(4096, "auto").Compute(path)
	if err != nil {
		t.Fatalf("auto fallback: %v", err)
	}
	if result.Method != MethodEstimated || result.BytesRead != 4096 {
		t.Fatalf("unexpected fallback result: %+v", result)
	}
}

func TestSampledMissingFile(t *testing.T) {
	_, err := fixedSampler(4096, "auto").Compute("nonexistent-sample.bin")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}
