package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"entrosift/version"
)

const (
	DefaultChunkSize   = 5 * 1024 * 1024
	DefaultSampleSize  = 10 * 1024 * 1024
	DefaultMaxFileSize = 1024 * 1024 * 1024
)

type Config struct {
	StartPaths         []string          `json:"start_paths"`
	AllDrives          bool              `json:"all_drives"`
	ExcludedDrives     []string          `json:"excluded_drive_letters"`
	ExcludedRoots      []string          `json:"excluded_root_paths"`
	ExcludedExtensions []string          `json:"excluded_extensions"`
	EntropyLimit       float64           `json:"entropy_limit"`
	ChunkSize          int64             `json:"chunk_size_bytes"`
	SampleSize         int64             `json:"sample_size_bytes"`
	BatchSize          int               `json:"batch_size_limit"`
	MaxFileSize        int64             `json:"max_file_size"`
	OutputFileName     string            `json:"output_file_name"`
	ConcurrencyLevel   int               `json:"concurrency_level"`
	MaxIOPerSecond     int               `json:"max_io_per_second"`
	HashAlgorithms     []string          `json:"hash_algorithms"`
	FuzzyHash          bool              `json:"fuzzy_hash"`
	CollectMetadata    bool              `json:"collect_metadata"`
	ReadMode           string            `json:"read_mode"`
	LogLevel           string            `json:"log_level"`
	ShowProgress       bool              `json:"show_progress"`
	FilesPerTerabyte   int               `json:"files_per_terabyte"`
	OtelEndpoint       string            `json:"otel_endpoint"`
	OtelHeaders        map[string]string `json:"otel_headers"`
	OtelServiceName    string            `json:"otel_service_name"`
	OtelTimeout        time.Duration     `json:"otel_timeout"`
	OtelExportPaths    bool              `json:"otel_export_paths"`
	ConfigFile         string            `json:"config_file"`
	ConcurrencySet     bool              `json:"-"`
}

func LoadConfig() (*Config, error) {
	now := time.Now().UTC()
	timestamp := now.Format("20060102-150405")
	cfg := &Config{
		StartPaths:         []string{"."},
		ExcludedDrives:     []string{},
		ExcludedRoots:      []string{},
		ExcludedExtensions: []string{},
		EntropyLimit:       7.5,
		ChunkSize:          DefaultChunkSize,
		SampleSize:         DefaultSampleSize,
		BatchSize:          50,
		MaxFileSize:        DefaultMaxFileSize,
		OutputFileName:     fmt.Sprintf("entrosift-%s-%d.csv", timestamp, now.Unix()),
		ConcurrencyLevel:   runtime.NumCPU(),
		MaxIOPerSecond:     0,
		HashAlgorithms:     []string{"sha256", "xxh64"},
		CollectMetadata:    true,
		ReadMode:           "auto",
		LogLevel:           "info",
		ShowProgress:       true,
		FilesPerTerabyte:   1000000,
		OtelHeaders:        map[string]string{},
		OtelServiceName:    "entrosift",
		OtelTimeout:        5 * time.Second,
	}

	startPath := flag.String("path", strings.Join(cfg.StartPaths, ","), "Comma-separated list of start paths to scan (default: current directory).")
	allDrives := flag.Bool("all-drives", cfg.AllDrives, "Scan all mounted local volumes instead of --path roots.")
	excludedDrives := flag.String("excluded-drives", "", "Comma-separated drive letters to skip with --all-drives (e.g. D,E).")
	excludedRoots := flag.String("excluded-roots", "", "Comma-separated volume root paths to skip (exact match).")
	excludedExtensions := flag.String("excluded-extensions", "", "Comma-separated file extensions to skip (e.g. .iso,.vmdk).")
	entropyLimit := flag.Float64("entropy-limit", cfg.EntropyLimit, "Entropy above which a file is reported, on a 0-8 scale (default: 7.5).")
	chunkSize := flag.Int64("chunk-size", cfg.ChunkSize, "Chunk size in bytes for whole-file entropy (default: 5 MiB).")
	sampleSize := flag.Int64("sample-size", cfg.SampleSize, "Sample window in bytes for estimated entropy of large files (default: 10 MiB).")
	batchSize := flag.Int("batch-size", cfg.BatchSize, "Match records buffered in memory before a flush to disk (default: 50).")
	maxFileSize := flag.Int64("max-file-size", cfg.MaxFileSize, "Files larger than this are skipped entirely, 0 for no limit (default: 1 GiB).")
	output := flag.String("output", cfg.OutputFileName, "Output CSV file name (default: entrosift-<timestamp>-<unix>.csv).")
	concurrency := flag.Int("concurrency", cfg.ConcurrencyLevel, "Worker count; 1 scans strictly sequentially (default: CPU count).")
	maxIO := flag.Int("max-io-per-second", cfg.MaxIOPerSecond, "Maximum file opens per second, 0 for unlimited (default: 0).")
	hashes := flag.String("hashes", strings.Join(cfg.HashAlgorithms, ","), "Comma-separated digests for matched files: md5, sha1, sha256, blake3, xxh64.")
	fuzzyHash := flag.Bool("fuzzy-hash", cfg.FuzzyHash, "Compute TLSH fuzzy hashes for matched files (default: false).")
	collectMetadata := flag.Bool("collect-metadata", cfg.CollectMetadata, "Extract document metadata (EXIF/PDF) for matched files (default: true).")
	readMode := flag.String("read-mode", cfg.ReadMode, "Sample read mode: auto, stream, or mmap (default: auto).")
	logLevel := flag.String("log-level", cfg.LogLevel, "Log level: debug, info, warn, error, fatal, or panic (default: info).")
	showProgress := flag.Bool("progress", cfg.ShowProgress, "Show a progress bar during the scan (default: true).")
	filesPerTB := flag.Int("files-per-terabyte", cfg.FilesPerTerabyte, "Assumed files per terabyte of used space for the progress estimate (default: 1000000).")
	otelEndpoint := flag.String("otel-endpoint", cfg.OtelEndpoint, "OTLP/HTTP logs endpoint for match record export (default: none).")
	otelHeaders := flag.String("otel-headers", "", "Comma-separated OTEL headers (key=value) for export (default: none).")
	otelServiceName := flag.String("otel-service-name", cfg.OtelServiceName, "OTEL service name for export (default: entrosift).")
	otelTimeout := flag.Duration("otel-timeout", cfg.OtelTimeout, "OTEL export timeout (default: 5s).")
	otelExportPaths := flag.Bool("otel-export-paths", cfg.OtelExportPaths, "Include raw file paths in OTEL payloads (default: false).")
	configFile := flag.String("config", "", "Path to JSON configuration file (default: none).")
	showVersion := flag.Bool("version", false, "Print version and exit")

	flag.Usage = displayHelp
	flag.Parse()

	if *showVersion {
		fmt.Printf("entrosift version %s\n", version.Version)
		os.Exit(0)
	}

	if *configFile != "" {
		cfg.ConfigFile = *configFile
		if err := cfg.loadFromFile(cfg.ConfigFile); err != nil {
			return nil, err
		}
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "path":
			cfg.StartPaths = parseCommaSeparated(*startPath)
		case "all-drives":
			cfg.AllDrives = *allDrives
		case "excluded-drives":
			cfg.ExcludedDrives = parseCommaSeparated(*excludedDrives)
		case "excluded-roots":
			cfg.ExcludedRoots = parseCommaSeparated(*excludedRoots)
		case "excluded-extensions":
			cfg.ExcludedExtensions = parseCommaSeparated(*excludedExtensions)
		case "entropy-limit":
			cfg.EntropyLimit = *entropyLimit
		case "chunk-size":
			cfg.ChunkSize = *chunkSize
		case "sample-size":
			cfg.SampleSize = *sampleSize
		case "batch-size":
			cfg.BatchSize = *batchSize
		case "max-file-size":
			cfg.MaxFileSize = *maxFileSize
		case "output":
			cfg.OutputFileName = *output
		case "concurrency":
			cfg.ConcurrencyLevel = *concurrency
			cfg.ConcurrencySet = true
		case "max-io-per-second":
			cfg.MaxIOPerSecond = *maxIO
		case "hashes":
			cfg.HashAlgorithms = parseCommaSeparated(*hashes)
		case "fuzzy-hash":
			cfg.FuzzyHash = *fuzzyHash
		case "collect-metadata":
			cfg.CollectMetadata = *collectMetadata
		case "read-mode":
			cfg.ReadMode = strings.ToLower(strings.TrimSpace(*readMode))
		case "log-level":
			cfg.LogLevel = *logLevel
		case "progress":
			cfg.ShowProgress = *showProgress
		case "files-per-terabyte":
			cfg.FilesPerTerabyte = *filesPerTB
		case "otel-endpoint":
			cfg.OtelEndpoint = strings.TrimSpace(*otelEndpoint)
		case "otel-headers":
			cfg.OtelHeaders = parseHeaders(*otelHeaders)
		case "otel-service-name":
			cfg.OtelServiceName = strings.TrimSpace(*otelServiceName)
		case "otel-timeout":
			cfg.OtelTimeout = *otelTimeout
		case "otel-export-paths":
			cfg.OtelExportPaths = *otelExportPaths
		}
	})

	cfg.ReadMode = strings.ToLower(strings.TrimSpace(cfg.ReadMode))
	if cfg.ReadMode == "" {
		cfg.ReadMode = "auto"
	}
	cfg.ExcludedDrives = normalizeDriveLetters(cfg.ExcludedDrives)
	cfg.ExcludedExtensions = normalizeExtensions(cfg.ExcludedExtensions)
	cfg.HashAlgorithms = normalizeAlgorithms(cfg.HashAlgorithms)
	if len(cfg.StartPaths) == 0 {
		cfg.StartPaths = []string{"."}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func displayHelp() {
	fmt.Println("entrosift - high-entropy file scanner for incident response")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  entrosift [options]")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  entrosift --path \"/srv,/home\"")
	fmt.Println("  entrosift --all-drives --excluded-drives D --entropy-limit 7.2")
	fmt.Println("  entrosift --path /data --fuzzy-hash --output findings.csv")
}

func (cfg *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read config file: %v", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid config file format: %v", err)
	}
	if _, ok := raw["concurrency_level"]; ok {
		cfg.ConcurrencySet = true
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("invalid config file format: %v", err)
	}
	return nil
}

func (cfg *Config) validate() error {
	if cfg.EntropyLimit < 0 || cfg.EntropyLimit > 8 {
		return fmt.Errorf("entropy-limit must be between 0 and 8, got %g", cfg.EntropyLimit)
	}
	if cfg.ChunkSize <= 0 {
		return fmt.Errorf("chunk-size must be positive")
	}
	if cfg.SampleSize <= 0 {
		return fmt.Errorf("sample-size must be positive")
	}
	if cfg.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be positive")
	}
	if cfg.MaxFileSize < 0 {
		return fmt.Errorf("max-file-size must be zero or positive")
	}
	if strings.TrimSpace(cfg.OutputFileName) == "" {
		return fmt.Errorf("output file name must not be empty")
	}
	if cfg.ConcurrencyLevel <= 0 {
		return fmt.Errorf("concurrency level must be positive")
	}
	if cfg.MaxIOPerSecond < 0 {
		return fmt.Errorf("max-io-per-second must be zero or positive")
	}
	if cfg.FilesPerTerabyte <= 0 {
		return fmt.Errorf("files-per-terabyte must be positive")
	}
	if len(cfg.StartPaths) == 0 && !cfg.AllDrives {
		return fmt.Errorf("either start path(s) or --all-drives must be specified")
	}
	if cfg.ReadMode != "auto" && cfg.ReadMode != "stream" && cfg.ReadMode != "mmap" {
		return fmt.Errorf("invalid read-mode value: %s", cfg.ReadMode)
	}
	for _, algo := range cfg.HashAlgorithms {
		switch algo {
		case "md5", "sha1", "sha256", "blake3", "xxh64":
		default:
			return fmt.Errorf("unsupported hash algorithm: %s", algo)
		}
	}
	if cfg.LogLevel != "debug" && cfg.LogLevel != "info" && cfg.LogLevel != "warn" &&
		cfg.LogLevel != "error" && cfg.LogLevel != "fatal" && cfg.LogLevel != "panic" {
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}
	if cfg.OtelTimeout < 0 {
		return fmt.Errorf("otel-timeout must be zero or positive")
	}
	if cfg.OtelEndpoint != "" {
		if !strings.HasPrefix(cfg.OtelEndpoint, "http://") && !strings.HasPrefix(cfg.OtelEndpoint, "https://") {
			return fmt.Errorf("otel-endpoint must include scheme (http or https)")
		}
	}
	return nil
}

func parseCommaSeparated(input string) []string {
	if input == "" {
		return []string{}
	}
	items := strings.Split(input, ",")
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseHeaders(input string) map[string]string {
	headers := make(map[string]string)
	if input == "" {
		return headers
	}
	for _, item := range strings.Split(input, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		parts := strings.SplitN(item, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		if key == "" {
			continue
		}
		headers[key] = strings.TrimSpace(parts[1])
	}
	return headers
}

// normalizeDriveLetters accepts "d", "D:" or "D:\" and keeps the bare
// upper-case letter so exclusion matching is form-insensitive.
func normalizeDriveLetters(items []string) []string {
	normalized := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.ToUpper(strings.TrimSpace(item))
		item = strings.TrimSuffix(item, `\`)
		item = strings.TrimSuffix(item, ":")
		if item != "" {
			normalized = append(normalized, item)
		}
	}
	return normalized
}

func normalizeExtensions(items []string) []string {
	normalized := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.ToLower(strings.TrimSpace(item))
		if item == "" {
			continue
		}
		if !strings.HasPrefix(item, ".") {
			item = "." + item
		}
		normalized = append(normalized, item)
	}
	return normalized
}

func normalizeAlgorithms(items []string) []string {
	normalized := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.ToLower(strings.TrimSpace(item))
		if item == "" {
			continue
		}
		normalized = append(normalized, item)
	}
	return normalized
}
