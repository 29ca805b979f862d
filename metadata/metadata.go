package metadata

import (
	"io"
	"os"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/rwcarlsen/goexif/exif"
)

// ExtractMetadata pulls document metadata for a matched file. High
// entropy is typical of compressed media, so matches are frequently
// JPEG or PDF; anything else yields an empty map. maxBytes bounds how
// much parsers may read, 0 means unlimited.
func ExtractMetadata(path string, mimeType string, maxBytes int64) map[string]interface{} {
	switch mimeType {
	case "image/jpeg", "image/png", "image/tiff":
		if meta := extractImageMetadata(path, maxBytes); meta != nil {
			return meta
		}
	case "application/pdf":
		if meta := extractPDFMetadata(path, maxBytes); meta != nil {
			return meta
		}
	}
	return map[string]interface{}{}
}

// extractImageMetadata extracts a subset of EXIF tags from images.
func extractImageMetadata(path string, maxBytes int64) map[string]interface{} {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var reader io.Reader = f
	if maxBytes > 0 {
		reader = io.LimitReader(f, maxBytes)
	}
	x, err := exif.Decode(reader)
	if err != nil {
		return nil
	}

	meta := make(map[string]interface{})
	if tm, err := x.DateTime(); err == nil {
		meta["datetime"] = tm.Format(time.RFC3339)
	}
	if makeTag, err := x.Get(exif.Make); err == nil {
		meta["make"] = makeTag.String()
	}
	if modelTag, err := x.Get(exif.Model); err == nil {
		meta["model"] = modelTag.String()
	}
	if softwareTag, err := x.Get(exif.Software); err == nil {
		meta["software"] = softwareTag.String()
	}
	return meta
}

// extractPDFMetadata reads standard PDF document information.
func extractPDFMetadata(path string, maxBytes int64) map[string]interface{} {
	if maxBytes > 0 {
		info, err := os.Stat(path)
		if err != nil || info.Size() > maxBytes {
			return nil
		}
	}
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	info, err := api.PDFInfo(f, path, nil, false, nil)
	if err != nil || info == nil {
		return nil
	}

	meta := make(map[string]interface{})
	if info.Title != "" {
		meta["title"] = info.Title
	}
	if info.Author != "" {
		meta["author"] = info.Author
	}
	if info.Producer != "" {
		meta["producer"] = info.Producer
	}
	if info.Creator != "" {
		meta["creator"] = info.Creator
	}
	return meta
}
