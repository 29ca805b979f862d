package scanner

import (
	"os"
	"testing"
	"time"

	"entrosift/config"
	"entrosift/logger"
	"entrosift/output"
)

func TestParseZoneIdentifier(t *testing.T) {
	content := "[ZoneTransfer]\r\nZoneId=3\r\nReferrerUrl=https://example.com/page\r\nHostUrl=https://cdn.example.com/payload.bin\r\n"
	zone := parseZoneIdentifier(content)
	if zone.ZoneID != "3" {
		t.Fatalf("unexpected zone id: %q", zone.ZoneID)
	}
	if zone.ReferrerURL != "https://example.com/page" {
		t.Fatalf("unexpected referrer: %q", zone.ReferrerURL)
	}
	if zone.HostURL != "https://cdn.example.com/payload.bin" {
		t.Fatalf("unexpected host url: %q", zone.HostURL)
	}

	empty := parseZoneIdentifier("[ZoneTransfer]\nComment only\n")
	if empty.ZoneID != "" || empty.ReferrerURL != "" || empty.HostURL != "" {
		t.Fatalf("expected empty provenance, got %+v", empty)
	}
}

func TestEnrichRecordFillsBasics(t *testing.T) {
	logger.Init("error")
	path := writeScanFile(t, "doc.bin", cyclePattern(512))
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}

	cfg := &config.Config{HashAlgorithms: []string{"sha256"}}
	rec := &output.MatchRecord{Path: path}
	enrichRecord(path, info, cfg, rec, buildEnrichModules(cfg))

	if rec.ModTime == "" {
		t.Fatal("mod time not set")
	}
	if _, err := time.Parse(time.RFC3339, rec.ModTime); err != nil {
		t.Fatalf("bad mod time format: %v", err)
	}
	if rec.Owner == "" {
		t.Fatal("owner not set")
	}
	if rec.MimeType == "" {
		t.Fatal("mime type not set")
	}
	if len(rec.Hashes) != 1 || len(rec.Hashes["sha256"]) != 64 {
		t.Fatalf("unexpected hashes: %v", rec.Hashes)
	}
}

func TestEnrichRecordSkipsDisabledModules(t *testing.T) {
	logger.Init("error")
	path := writeScanFile(t, "plain.bin", cyclePattern(512))
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}

	cfg := &config.Config{}
	rec := &output.MatchRecord{Path: path}
	enrichRecord(path, info, cfg, rec, buildEnrichModules(cfg))

	if rec.Hashes != nil {
		t.Fatalf("hashing should be off without algorithms, got %v", rec.Hashes)
	}
	if rec.FuzzyHash != "" {
		t.Fatalf("fuzzy hashing should be off, got %q", rec.FuzzyHash)
	}
	if rec.Metadata != nil {
		t.Fatalf("metadata collection should be off, got %v", rec.Metadata)
	}
}

func TestSniffMimeType(t *testing.T) {
	// PDF magic at offset zero is enough for the sniffer.
	pdf := append([]byte("%PDF-1.7\n"), cyclePattern(300)...)
	path := writeScanFile(t, "doc.pdf", pdf)
	mime, err := sniffMimeType(path)
	if err != nil {
		t.Fatalf("sniff: %v", err)
	}
	if mime != "application/pdf" {
		t.Fatalf("expected application/pdf, got %q", mime)
	}

	path = writeScanFile(t, "noise.bin", []byte{0x01, 0x02, 0x03})
	mime, err = sniffMimeType(path)
	if err != nil {
		t.Fatalf("sniff: %v", err)
	}
	if mime != "unknown" {
		t.Fatalf("expected unknown, got %q", mime)
	}
}
