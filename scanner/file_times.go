package scanner

import (
	"time"

	"github.com/djherbis/times"
)

type fileTimestamps struct {
	CreationTime string
	AccessTime   string
	ChangeTime   string
}

func fileTimes(path string) (fileTimestamps, error) {
	ts, err := times.Stat(path)
	if err != nil {
		return fileTimestamps{}, err
	}
	result := fileTimestamps{
		AccessTime: ts.AccessTime().Format(time.RFC3339),
	}
	if ts.HasChangeTime() {
		result.ChangeTime = ts.ChangeTime().Format(time.RFC3339)
	}
	if ts.HasBirthTime() {
		result.CreationTime = ts.BirthTime().Format(time.RFC3339)
	}
	return result, nil
}
