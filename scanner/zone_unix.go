//go:build !windows
// +build !windows

package scanner

import (
	"errors"

	"golang.org/x/sys/unix"
)

// Download-origin xattrs written by browsers and desktop environments.
const (
	xattrOriginURL   = "user.xdg.origin.url"
	xattrReferrerURL = "user.xdg.referrer.url"
)

func getZoneProvenance(path string) (zoneProvenance, error) {
	var zone zoneProvenance
	origin, originErr := readXattrString(path, xattrOriginURL)
	if originErr == nil {
		zone.HostURL = origin
	}
	referrer, referrerErr := readXattrString(path, xattrReferrerURL)
	if referrerErr == nil {
		zone.ReferrerURL = referrer
	}
	if originErr != nil && referrerErr != nil {
		if errors.Is(originErr, unix.ENOTSUP) || errors.Is(originErr, unix.EOPNOTSUPP) {
			return zone, errNotSupported
		}
		// Missing marks are the normal case, not an error.
	}
	return zone, nil
}

func readXattrString(path, name string) (string, error) {
	size, err := unix.Getxattr(path, name, nil)
	if err != nil {
		return "", err
	}
	if size <= 0 {
		return "", nil
	}
	buf := make([]byte, size)
	n, err := unix.Getxattr(path, name, buf)
	if err != nil {
		return "", err
	}
	return string(buf[:n]), nil
}
