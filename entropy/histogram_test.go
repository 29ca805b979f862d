package entropy

import (
	"math"
	"math/rand"
	"testing"
)

func uniformCycle(n int) []byte {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = byte(i % 256)
	}
	return buf
}

func TestShannonEmpty(t *testing.T) {
	if got := Shannon(nil); got != 0 {
		t.Fatalf("expected 0 for empty input, got %g", got)
	}
	if got := Shannon([]byte{}); got != 0 {
		t.Fatalf("expected 0 for empty slice, got %g", got)
	}
}

func TestShannonSingleValue(t *testing.T) {
	buf := make([]byte, 4096)
	for i := range buf {
		buf[i] = 0x41
	}
	if got := Shannon(buf); got != 0 {
		t.Fatalf("expected 0 for constant input, got %g", got)
	}
}

func TestShannonUniformCycle(t *testing.T) {
	got := Shannon(uniformCycle(1024 * 1024))
	if math.Abs(got-8.0) > 1e-9 {
		t.Fatalf("expected 8.0 for uniform distribution, got %g", got)
	}
}

func TestShannonBounds(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		buf := make([]byte, rnd.Intn(8192)+1)
		rnd.Read(buf)
		got := Shannon(buf)
		if got < 0 || got > 8 {
			t.Fatalf("entropy %g out of [0,8] for %d bytes", got, len(buf))
		}
	}
}

func TestHistogramAccumulates(t *testing.T) {
	var h Histogram
	h.Add([]byte{0, 1})
	h.Add([]byte{2, 3})
	if h.Total() != 4 {
		t.Fatalf("expected total 4, got %d", h.Total())
	}
	if got := h.Value(); math.Abs(got-2.0) > 1e-12 {
		t.Fatalf("expected 2.0 for four distinct bytes, got %g", got)
	}
	h.Reset()
	if h.Total() != 0 || h.Value() != 0 {
		t.Fatal("reset did not clear histogram")
	}
}

func TestRound3(t *testing.T) {
	if got := Round3(7.12345); got != 7.123 {
		t.Fatalf("unexpected rounding: %g", got)
	}
	if got := Round3(7.9996); got != 8.0 {
		t.Fatalf("unexpected rounding: %g", got)
	}
}
