package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"entrosift/config"
	"entrosift/logger"
	"entrosift/output"
	"entrosift/tracing"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/time/rate"
)

type fileScanTask struct {
	path string
	info os.FileInfo
}

// progressLogInterval paces the advisory textual status line.
const progressLogInterval = 30 * time.Second

// Run drives a full scan: resolve targets, walk each volume lazily,
// score every file, enrich matches, and hand them to the sink. Per-file
// failures are skipped; only sink write failures abort the run.
func Run(ctx context.Context, cfg *config.Config, metrics *output.Metrics, sink *output.Sink) error {
	targets := ResolveTargets(cfg)
	active := 0
	for _, target := range targets {
		if !target.Excluded {
			active++
		}
	}
	if active == 0 {
		return fmt.Errorf("no volumes left to scan after exclusions")
	}

	estimate := EstimateTotalFiles(targets, cfg.FilesPerTerabyte)
	metrics.EstimatedTotalFiles = estimate
	bar := buildProgressBar(estimate, cfg.ShowProgress)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var processed, skipped, matched atomic.Int64
	var sinkErr error
	var sinkErrOnce sync.Once
	fail := func(err error) {
		sinkErrOnce.Do(func() {
			sinkErr = err
			cancel()
		})
	}

	progressCh := make(chan int, max(cfg.ConcurrencyLevel*4, 64))
	var progressWG sync.WaitGroup
	progressWG.Add(1)
	go func() {
		defer progressWG.Done()
		for delta := range progressCh {
			_ = bar.Add(delta)
		}
	}()

	statusDone := make(chan struct{})
	go logProgress(statusDone, &processed, &matched, sink, estimate)

	var ioLimiter *rate.Limiter
	if cfg.MaxIOPerSecond > 0 {
		ioLimiter = rate.NewLimiter(rate.Limit(cfg.MaxIOPerSecond), cfg.MaxIOPerSecond)
	}

	excludedExts := make(map[string]struct{}, len(cfg.ExcludedExtensions))
	for _, ext := range cfg.ExcludedExtensions {
		excludedExts[ext] = struct{}{}
	}

	filesChan := make(chan fileScanTask, cfg.ConcurrencyLevel)

	// Walk volumes in enumeration order; the walker stays lazy so a
	// many-million-entry volume never sits in memory at once.
	go func() {
		defer close(filesChan)
		for _, target := range targets {
			if target.Excluded {
				logger.Infof("Skipping excluded volume %s", target.RootPath)
				continue
			}
			err := walkTree(ctx, target.RootPath, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					logger.Debugf("Failed to access %s: %v", path, err)
					return nil
				}
				if d == nil || d.IsDir() {
					return nil
				}
				if _, ok := excludedExts[strings.ToLower(filepath.Ext(path))]; ok {
					return nil
				}
				info, err := d.Info()
				if err != nil {
					logger.Debugf("Failed to stat %s: %v", path, err)
					skipped.Add(1)
					return nil
				}
				if !info.Mode().IsRegular() {
					return nil
				}
				if cfg.MaxFileSize > 0 && info.Size() > cfg.MaxFileSize {
					logger.Debugf("Skipping oversized file %s (%d bytes)", path, info.Size())
					skipped.Add(1)
					return nil
				}
				select {
				case <-ctx.Done():
					return ctx.Err()
				case filesChan <- fileScanTask{path: path, info: info}:
					if ioLimiter != nil {
						if err := ioLimiter.Wait(ctx); err != nil {
							return err
						}
					}
				}
				return nil
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Warnf("Error walking volume %s: %v", target.RootPath, err)
			}
		}
	}()

	var wg sync.WaitGroup
	for range cfg.ConcurrencyLevel {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Classifiers hold a per-worker random source and are
			// never shared; histograms stay inside the entropy
			// readers they own.
			classifier := NewClassifier(cfg)
			modules := buildEnrichModules(cfg)
			for task := range filesChan {
				select {
				case <-ctx.Done():
					return
				default:
				}
				scanOne(ctx, task, cfg, classifier, modules, sink, &processed, &skipped, &matched, fail)
				progressCh <- 1
			}
		}()
	}

	wg.Wait()
	close(progressCh)
	progressWG.Wait()
	close(statusDone)
	_ = bar.Finish()

	metrics.FilesProcessed = processed.Load()
	metrics.FilesSkipped = skipped.Load()
	metrics.MatchesFound = matched.Load()
	metrics.BatchesFlushed = sink.Batches()
	return sinkErr
}

func scanOne(
	ctx context.Context,
	task fileScanTask,
	cfg *config.Config,
	classifier *Classifier,
	modules []enrichModule,
	sink *output.Sink,
	processed, skipped, matched *atomic.Int64,
	fail func(error),
) {
	ctx, endTask := tracing.StartTask(ctx, "scan_file")
	tracing.Log(ctx, "file", task.path)
	defer endTask()

	result, err := classifier.Score(task.path, task.info.Size())
	if err != nil {
		// Locked, vanished, or unreadable: the file is silently
		// absent from results rather than aborting the scan.
		logger.Debugf("Skipping unreadable file %s: %v", task.path, err)
		skipped.Add(1)
		return
	}
	processed.Add(1)

	if !classifier.IsMatch(result.Value) {
		return
	}
	matched.Add(1)

	rec := &output.MatchRecord{
		Path:      task.path,
		Entropy:   result.Value,
		Method:    result.Method,
		SizeBytes: task.info.Size(),
	}
	endRegion := tracing.StartRegion(ctx, "enrich_match")
	enrichRecord(task.path, task.info, cfg, rec, modules)
	endRegion()

	if err := sink.Append(rec); err != nil {
		logger.Errorf("Failed to write match batch: %v", err)
		fail(err)
	}
}

func buildProgressBar(total int, visible bool) *progressbar.ProgressBar {
	if total <= 0 {
		return progressbar.NewOptions(-1,
			progressbar.OptionSetDescription("Scanning files"),
			progressbar.OptionShowCount(),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionSetVisibility(visible),
			progressbar.OptionFullWidth(),
		)
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Scanning files"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionSetVisibility(visible),
		progressbar.OptionFullWidth(),
	)
}

// logProgress emits the advisory status line. It only reads counters,
// so it can never block or reorder the scan itself.
func logProgress(done <-chan struct{}, processed, matched *atomic.Int64, sink *output.Sink, estimate int) {
	ticker := time.NewTicker(progressLogInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			files := processed.Load()
			line := fmt.Sprintf(
				"Progress: %d files, %d matches, batch %d, %d buffered",
				files, matched.Load(), sink.Batches(), sink.ItemsInMemory(),
			)
			if estimate > 0 {
				line += fmt.Sprintf(" (~%.1f%% complete)", float64(files)/float64(estimate)*100)
			}
			logger.Info(line)
		}
	}
}
