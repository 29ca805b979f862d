package output

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"sync"

	"entrosift/config"
	"entrosift/logger"
)

// Metrics summarizes one scan run.
type Metrics struct {
	StartTime           string `json:"start_time"`
	EndTime             string `json:"end_time"`
	EstimatedTotalFiles int    `json:"estimated_total_files"`
	FilesProcessed      int64  `json:"files_processed"`
	FilesSkipped        int64  `json:"files_skipped"`
	MatchesFound        int64  `json:"matches_found"`
	BatchesFlushed      int    `json:"batches_flushed"`
}

// Sink buffers match records up to a batch limit and appends each full
// batch to the output CSV in one write, so memory stays bounded no
// matter how long the traversal runs. Finalize rewrites the file sorted
// by entropy once the scan is over; everything flushed before a crash
// stays readable, just unsorted.
type Sink struct {
	mu        sync.Mutex
	file      *os.File
	buf       *bufio.Writer
	csvw      *csv.Writer
	batch     []*MatchRecord
	batchSize int
	batches   int
	appended  int64
	path      string
	otel      *otelLogger
	closed    bool
}

func NewSink(cfg *config.Config) (*Sink, error) {
	s := &Sink{
		batchSize: cfg.BatchSize,
		batch:     make([]*MatchRecord, 0, cfg.BatchSize),
		path:      cfg.OutputFileName,
	}

	otel, err := newOtelLogger(cfg)
	if err != nil {
		logger.Warnf("OTEL export disabled: %v", err)
	} else {
		s.otel = otel
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, err
	}
	s.file = f
	s.buf = bufio.NewWriterSize(f, 256*1024)
	s.csvw = csv.NewWriter(s.buf)

	if err := s.csvw.Write(csvHeader()); err != nil {
		f.Close()
		return nil, err
	}
	s.csvw.Flush()
	if err := s.flushBuffers(); err != nil {
		f.Close()
		return nil, err
	}
	return s, nil
}

// Append adds a record to the in-memory batch and flushes the batch to
// disk when it reaches the configured limit. A write failure is fatal
// to the scan: the caller must stop rather than silently drop records.
func (s *Sink) Append(rec *MatchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("sink already closed")
	}

	s.batch = append(s.batch, rec)
	s.appended++
	if s.otel != nil {
		s.otel.EmitMatch(rec)
	}
	if len(s.batch) >= s.batchSize {
		return s.flushBatchLocked()
	}
	return nil
}

// ItemsInMemory reports how many records are currently buffered.
func (s *Sink) ItemsInMemory() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.batch)
}

// Batches reports how many batch flushes have reached the file.
func (s *Sink) Batches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batches
}

// Appended reports the total records handed to the sink.
func (s *Sink) Appended() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appended
}

func (s *Sink) flushBatchLocked() error {
	if len(s.batch) == 0 {
		return nil
	}
	for _, rec := range s.batch {
		if err := s.csvw.Write(rec.csvRow()); err != nil {
			return err
		}
	}
	s.csvw.Flush()
	if err := s.flushBuffers(); err != nil {
		return err
	}
	// Reset, never reuse stale entries.
	s.batch = s.batch[:0]
	s.batches++
	return nil
}

func (s *Sink) flushBuffers() error {
	if err := s.csvw.Error(); err != nil {
		return err
	}
	return s.buf.Flush()
}

// Close flushes any partial batch unconditionally and closes the file.
func (s *Sink) Close(metrics *Metrics) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	flushErr := s.flushBatchLocked()
	if metrics != nil {
		metrics.BatchesFlushed = s.batches
	}
	if s.otel != nil {
		if metrics != nil {
			s.otel.EmitMetrics(metrics)
		}
		s.otel.Shutdown()
	}
	if err := s.file.Sync(); err != nil && flushErr == nil {
		flushErr = err
	}
	if err := s.file.Close(); err != nil && flushErr == nil {
		flushErr = err
	}
	return flushErr
}

// Finalize loads the append-order CSV and rewrites it sorted by entropy
// descending, ties broken by path, so reruns over identical data produce
// identical artifacts. Sorting happens once, after traversal, instead of
// holding the full result set in memory during the scan.
func (s *Sink) Finalize() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		return fmt.Errorf("finalize called before close")
	}

	f, err := os.Open(s.path)
	if err != nil {
		return err
	}
	rows, err := csv.NewReader(f).ReadAll()
	f.Close()
	if err != nil {
		return err
	}
	if len(rows) <= 1 {
		return nil
	}

	header, body := rows[0], rows[1:]
	sort.SliceStable(body, func(i, j int) bool {
		ei := parseEntropyColumn(body[i])
		ej := parseEntropyColumn(body[j])
		if ei != ej {
			return ei > ej
		}
		return body[i][0] < body[j][0]
	})

	tmp := s.path + ".tmp"
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	w := csv.NewWriter(out)
	if err := w.Write(header); err != nil {
		out.Close()
		return err
	}
	if err := w.WriteAll(body); err != nil {
		out.Close()
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func parseEntropyColumn(row []string) float64 {
	if len(row) <= entropyColumn {
		return 0
	}
	value, err := strconv.ParseFloat(row[entropyColumn], 64)
	if err != nil {
		return 0
	}
	return value
}
