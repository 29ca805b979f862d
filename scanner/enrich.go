package scanner

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"entrosift/config"
	"entrosift/hasher"
	"entrosift/logger"
	"entrosift/metadata"
	"entrosift/output"

	"github.com/glaslos/tlsh"
	"github.com/h2non/filetype"
)

var errNotSupported = errors.New("not supported")

// metadataMaxBytes bounds how much the document metadata parsers may
// read per matched file.
const metadataMaxBytes = 16 * 1024 * 1024

// enrichModule fills one group of record fields for a matched file.
// Enrichment runs only on matches, so per-module cost is paid rarely;
// any module may fail without affecting the others.
type enrichModule interface {
	Name() string
	Enabled(cfg *config.Config) bool
	Collect(fc *fileContext, rec *output.MatchRecord) error
}

// fileContext carries per-file state shared between modules, loading
// expensive lookups at most once.
type fileContext struct {
	Path string
	Info os.FileInfo
	Cfg  *config.Config

	mimeLoaded bool
	mimeType   string
}

func (fc *fileContext) MimeType() string {
	if fc.mimeLoaded {
		return fc.mimeType
	}
	mimeType, err := sniffMimeType(fc.Path)
	if err != nil || mimeType == "" {
		mimeType = "unknown"
	}
	fc.mimeType = mimeType
	fc.mimeLoaded = true
	return fc.mimeType
}

func sniffMimeType(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	buf := make([]byte, 261)
	_, err = file.Read(buf)
	if err != nil && err != io.EOF {
		return "", err
	}

	kind, err := filetype.Match(buf)
	if err != nil {
		return "", err
	}
	if kind == filetype.Unknown || kind.MIME.Value == "" {
		return "unknown", nil
	}
	return kind.MIME.Value, nil
}

func buildEnrichModules(cfg *config.Config) []enrichModule {
	return []enrichModule{
		timesModule{},
		ownerModule{},
		mimeModule{},
		hashModule{},
		metadataModule{},
		fuzzyModule{},
		zoneModule{},
	}
}

// enrichRecord runs every enabled module against the match. A failed
// module leaves its fields empty; the sink renders them as "-".
func enrichRecord(path string, info os.FileInfo, cfg *config.Config, rec *output.MatchRecord, modules []enrichModule) {
	fc := &fileContext{Path: path, Info: info, Cfg: cfg}
	for _, module := range modules {
		if !module.Enabled(cfg) {
			continue
		}
		if err := module.Collect(fc, rec); err != nil {
			logger.Debugf("Enrichment %s failed for %s: %v", module.Name(), path, err)
		}
	}
}

type timesModule struct{}

func (m timesModule) Name() string { return "times" }

func (m timesModule) Enabled(cfg *config.Config) bool { return true }

func (m timesModule) Collect(fc *fileContext, rec *output.MatchRecord) error {
	rec.ModTime = fc.Info.ModTime().Format(time.RFC3339)
	ts, err := fileTimes(fc.Path)
	if err != nil {
		return err
	}
	rec.CreationTime = ts.CreationTime
	rec.AccessTime = ts.AccessTime
	rec.ChangeTime = ts.ChangeTime
	return nil
}

type ownerModule struct{}

func (m ownerModule) Name() string { return "owner" }

func (m ownerModule) Enabled(cfg *config.Config) bool { return true }

func (m ownerModule) Collect(fc *fileContext, rec *output.MatchRecord) error {
	owner, err := getFileOwner(fc.Path, fc.Info)
	if err != nil {
		return err
	}
	rec.Owner = owner
	return nil
}

type mimeModule struct{}

func (m mimeModule) Name() string { return "mime" }

func (m mimeModule) Enabled(cfg *config.Config) bool { return true }

func (m mimeModule) Collect(fc *fileContext, rec *output.MatchRecord) error {
	rec.MimeType = fc.MimeType()
	return nil
}

type hashModule struct{}

func (m hashModule) Name() string { return "hashes" }

func (m hashModule) Enabled(cfg *config.Config) bool { return len(cfg.HashAlgorithms) > 0 }

func (m hashModule) Collect(fc *fileContext, rec *output.MatchRecord) error {
	hashes := hasher.ComputeHashes(fc.Path, fc.Cfg.HashAlgorithms)
	if len(hashes) > 0 {
		rec.Hashes = hashes
	}
	return nil
}

type metadataModule struct{}

func (m metadataModule) Name() string { return "metadata" }

func (m metadataModule) Enabled(cfg *config.Config) bool { return cfg.CollectMetadata }

func (m metadataModule) Collect(fc *fileContext, rec *output.MatchRecord) error {
	meta := metadata.ExtractMetadata(fc.Path, fc.MimeType(), metadataMaxBytes)
	if len(meta) > 0 {
		rec.Metadata = meta
	}
	return nil
}

// fuzzyModule computes a TLSH digest so analysts can cluster related
// packed or encrypted payloads across hosts.
type fuzzyModule struct{}

func (m fuzzyModule) Name() string { return "fuzzy" }

func (m fuzzyModule) Enabled(cfg *config.Config) bool { return cfg.FuzzyHash }

func (m fuzzyModule) Collect(fc *fileContext, rec *output.MatchRecord) error {
	f, err := os.Open(fc.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	hash, err := tlsh.HashReader(bufio.NewReader(f))
	if err != nil {
		return err
	}
	rec.FuzzyHash = hash.String()
	return nil
}

type zoneModule struct{}

func (m zoneModule) Name() string { return "zone" }

func (m zoneModule) Enabled(cfg *config.Config) bool { return true }

func (m zoneModule) Collect(fc *fileContext, rec *output.MatchRecord) error {
	zone, err := getZoneProvenance(fc.Path)
	if err != nil {
		return err
	}
	rec.ZoneID = zone.ZoneID
	rec.ReferrerURL = zone.ReferrerURL
	rec.HostURL = zone.HostURL
	return nil
}

// zoneProvenance holds download-origin marks: the Zone.Identifier
// alternate stream on Windows, origin xattrs elsewhere.
type zoneProvenance struct {
	ZoneID      string
	ReferrerURL string
	HostURL     string
}

// parseZoneIdentifier reads the ini-style Zone.Identifier stream body.
func parseZoneIdentifier(content string) zoneProvenance {
	var zone zoneProvenance
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimRight(line, "\r")
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		switch strings.TrimSpace(key) {
		case "ZoneId":
			zone.ZoneID = strings.TrimSpace(value)
		case "ReferrerUrl":
			zone.ReferrerURL = strings.TrimSpace(value)
		case "HostUrl":
			zone.HostURL = strings.TrimSpace(value)
		}
	}
	return zone
}
