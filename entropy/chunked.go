package entropy

import (
	"io"
	"os"
)

// DefaultChunkSize bounds per-file memory for whole-file entropy.
const DefaultChunkSize = 5 * 1024 * 1024

// ChunkedReader computes whole-file entropy by streaming fixed-size
// chunks and combining per-chunk values with a size-weighted average.
// Entropy is not perfectly additive across partitions; the small error
// is the price of O(ChunkSize) memory for arbitrarily large files.
type ChunkedReader struct {
	ChunkSize int64
}

func NewChunkedReader(chunkSize int64) *ChunkedReader {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &ChunkedReader{ChunkSize: chunkSize}
}

// Compute streams path and returns its entropy. Callers treat an error
// as "file skipped", never as a reason to stop a scan.
func (r *ChunkedReader) Compute(path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{Method: MethodTrue}, err
	}
	defer f.Close()
	return r.compute(f)
}

func (r *ChunkedReader) compute(reader io.Reader) (Result, error) {
	chunkSize := r.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	buf := make([]byte, chunkSize)

	var (
		hist     Histogram
		weighted float64
		total    int64
		chunks   int
		first    float64
	)
	for {
		n, err := io.ReadFull(reader, buf)
		if n > 0 {
			hist.Reset()
			hist.Add(buf[:n])
			value := hist.Value()
			if chunks == 0 {
				first = value
			}
			weighted += value * float64(n)
			total += int64(n)
			chunks++
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return Result{Method: MethodTrue}, err
		}
	}

	result := Result{Method: MethodTrue, BytesRead: total}
	switch chunks {
	case 0:
		// Empty input scores zero.
	case 1:
		// Single chunk is exact; skip the multiply/divide round trip.
		result.Value = first
	default:
		result.Value = weighted / float64(total)
	}
	return result, nil
}
