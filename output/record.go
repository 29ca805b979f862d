package output

import (
	"encoding/json"
	"strconv"

	"github.com/dustin/go-humanize"

	"entrosift/entropy"
)

// MatchRecord is one high-entropy finding. Records are built by the
// scan driver, handed to the Sink, and never mutated afterwards.
type MatchRecord struct {
	Path         string                 `json:"path"`
	Entropy      float64                `json:"entropy"`
	Method       entropy.Method         `json:"-"`
	SizeBytes    int64                  `json:"size_bytes"`
	ModTime      string                 `json:"mod_time,omitempty"`
	CreationTime string                 `json:"creation_time,omitempty"`
	AccessTime   string                 `json:"access_time,omitempty"`
	ChangeTime   string                 `json:"change_time,omitempty"`
	Owner        string                 `json:"owner,omitempty"`
	MimeType     string                 `json:"mime_type,omitempty"`
	Hashes       map[string]string      `json:"hashes,omitempty"`
	FuzzyHash    string                 `json:"fuzzy_hash,omitempty"`
	ZoneID       string                 `json:"zone_id,omitempty"`
	ReferrerURL  string                 `json:"referrer_url,omitempty"`
	HostURL      string                 `json:"host_url,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// entropyColumn is the CSV index used by the final sort pass.
const entropyColumn = 1

func csvHeader() []string {
	return []string{
		"path",
		"entropy",
		"method",
		"size_bytes",
		"size",
		"owner",
		"mod_time",
		"creation_time",
		"access_time",
		"change_time",
		"mime_type",
		"hashes",
		"fuzzy_hash",
		"zone_id",
		"referrer_url",
		"host_url",
		"metadata",
	}
}

func (r *MatchRecord) csvRow() []string {
	return []string{
		r.Path,
		strconv.FormatFloat(entropy.Round3(r.Entropy), 'f', 3, 64),
		r.Method.String(),
		strconv.FormatInt(r.SizeBytes, 10),
		humanize.IBytes(uint64(r.SizeBytes)),
		orDash(r.Owner),
		orDash(r.ModTime),
		orDash(r.CreationTime),
		orDash(r.AccessTime),
		orDash(r.ChangeTime),
		orDash(r.MimeType),
		orDash(jsonString(r.Hashes)),
		orDash(r.FuzzyHash),
		orDash(r.ZoneID),
		orDash(r.ReferrerURL),
		orDash(r.HostURL),
		orDash(jsonString(r.Metadata)),
	}
}

func orDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}

func jsonString(value interface{}) string {
	switch v := value.(type) {
	case map[string]string:
		if len(v) == 0 {
			return ""
		}
	case map[string]interface{}:
		if len(v) == 0 {
			return ""
		}
	case nil:
		return ""
	}
	bytes, err := json.Marshal(value)
	if err != nil {
		return ""
	}
	return string(bytes)
}
