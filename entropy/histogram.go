package entropy

import "math"

// Histogram is a fixed 256-slot byte frequency table. Indexing by byte
// value keeps accumulation allocation-free; a Histogram is never shared
// across files or goroutines.
type Histogram struct {
	counts [256]uint64
	total  uint64
}

// Add accumulates the byte frequencies of buf.
func (h *Histogram) Add(buf []byte) {
	for _, b := range buf {
		h.counts[b]++
	}
	h.total += uint64(len(buf))
}

// Reset clears the histogram for reuse on the next chunk.
func (h *Histogram) Reset() {
	*h = Histogram{}
}

// Total returns the number of bytes accumulated so far.
func (h *Histogram) Total() uint64 {
	return h.total
}

// Value returns the Shannon entropy H = -sum(p * log2(p)) of the
// accumulated bytes, in bits per byte. An empty histogram yields 0.
func (h *Histogram) Value() float64 {
	if h.total == 0 {
		return 0
	}
	var sum float64
	n := float64(h.total)
	for _, count := range h.counts {
		if count == 0 {
			continue
		}
		p := float64(count) / n
		sum -= p * math.Log2(p)
	}
	return sum
}

// Shannon computes the entropy of a single buffer.
func Shannon(buf []byte) float64 {
	var h Histogram
	h.Add(buf)
	return h.Value()
}

// Round3 rounds an entropy value to the three decimal digits used for
// reporting. Internal combination always uses full precision.
func Round3(value float64) float64 {
	return math.Round(value*1000) / 1000
}
