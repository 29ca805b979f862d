//go:build windows
// +build windows

package scanner

import "os"

// The Zone.Identifier alternate data stream marks files downloaded
// from another security zone.
func getZoneProvenance(path string) (zoneProvenance, error) {
	data, err := os.ReadFile(path + ":Zone.Identifier")
	if err != nil {
		if os.IsNotExist(err) {
			return zoneProvenance{}, nil
		}
		return zoneProvenance{}, err
	}
	return parseZoneIdentifier(string(data)), nil
}
