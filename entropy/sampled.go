package entropy

import (
	"io"
	"math/rand"
	"os"
	"time"

	"golang.org/x/exp/mmap"
)

// DefaultSampleSize is the window read from large files.
const DefaultSampleSize = 10 * 1024 * 1024

var openMmapReader = mmap.Open

// Sampler estimates entropy from one uniformly positioned window,
// giving O(1) work regardless of file size. Files no larger than the
// window are read whole and score exactly.
type Sampler struct {
	SampleSize int64
	// ReadMode selects how the window is read: auto, stream, or mmap.
	ReadMode string
	// Rand supplies the window offset. Tests inject a fixed source;
	// production samplers are seeded from the clock, so repeated runs
	// over the same file may legitimately differ.
	Rand *rand.Rand
}

func NewSampler(sampleSize int64, readMode string) *Sampler {
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}
	return &Sampler{
		SampleSize: sampleSize,
		ReadMode:   readMode,
		Rand:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *Sampler) Compute(path string) (Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Result{Method: MethodEstimated}, err
	}

	size := info.Size()
	if size <= s.SampleSize {
		// The window covers the whole file, so the value is exact.
		result, err := NewChunkedReader(s.SampleSize).Compute(path)
		if err != nil {
			return Result{Method: MethodEstimated}, err
		}
		return result, nil
	}

	offset := s.Rand.Int63n(size - s.SampleSize + 1)
	window, err := s.readWindow(path, offset, s.SampleSize)
	if err != nil {
		return Result{Method: MethodEstimated}, err
	}

	return Result{
		Value:     Shannon(window),
		Method:    MethodEstimated,
		BytesRead: int64(len(window)),
	}, nil
}

func (s *Sampler) readWindow(path string, offset, length int64) ([]byte, error) {
	mode := s.ReadMode
	if mode == "" {
		mode = "auto"
	}

	if mode == "mmap" || mode == "auto" {
		window, err := readWindowMmap(path, offset, length)
		if err == nil {
			return window, nil
		}
		if mode == "mmap" {
			return nil, err
		}
	}
	return readWindowStream(path, offset, length)
}

func readWindowMmap(path string, offset, length int64) ([]byte, error) {
	r, err := openMmapReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	buf := make([]byte, length)
	if _, err := r.ReadAt(buf, offset); err != nil {
		return nil, err
	}
	return buf, nil
}

func readWindowStream(path string, offset, length int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return nil, err
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(f, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
