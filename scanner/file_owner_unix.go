//go:build !windows
// +build !windows

package scanner

import (
	"os"
	"os/user"
	"strconv"
	"syscall"
)

func getFileOwner(path string, info os.FileInfo) (string, error) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok || stat == nil {
		return "", errNotSupported
	}
	uid := strconv.FormatUint(uint64(stat.Uid), 10)
	if u, err := user.LookupId(uid); err == nil {
		return u.Username, nil
	}
	return uid, nil
}
