package scanner

import (
	"entrosift/config"
	"entrosift/entropy"
)

// Classifier picks the entropy method for a file and applies the match
// cutoff. Small files get exact chunked entropy cheaply; files at or
// above the sample threshold get the O(1) sampled estimate. Classifiers
// are cheap and not safe for concurrent use; the driver builds one per
// worker.
type Classifier struct {
	SampleSize   int64
	EntropyLimit float64

	chunked *entropy.ChunkedReader
	sampler *entropy.Sampler
}

func NewClassifier(cfg *config.Config) *Classifier {
	return &Classifier{
		SampleSize:   cfg.SampleSize,
		EntropyLimit: cfg.EntropyLimit,
		chunked:      entropy.NewChunkedReader(cfg.ChunkSize),
		sampler:      entropy.NewSampler(cfg.SampleSize, cfg.ReadMode),
	}
}

// Score computes the file's entropy with the method its size calls for.
func (c *Classifier) Score(path string, size int64) (entropy.Result, error) {
	if size < c.SampleSize {
		return c.chunked.Compute(path)
	}
	return c.sampler.Compute(path)
}

// IsMatch applies the cutoff. Strictly greater than: a value equal to
// the limit is not a match.
func (c *Classifier) IsMatch(value float64) bool {
	return value > c.EntropyLimit
}
