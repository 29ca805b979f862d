package scanner

import (
	"strings"

	"entrosift/config"
	"entrosift/logger"

	"github.com/shirou/gopsutil/v4/disk"
)

// ScanTarget is one volume root considered for traversal. Targets are
// built once at scan start and never change afterwards.
type ScanTarget struct {
	RootPath  string
	UsedBytes uint64
	Excluded  bool
}

const bytesPerTerabyte = 1024 * 1024 * 1024 * 1024

// Stubbed in tests.
var (
	listPartitions = disk.Partitions
	diskUsage      = disk.Usage
)

// ResolveTargets builds the target list: explicit start paths, or every
// mounted local volume with --all-drives, annotated with the exclusion
// decision. A volume that fails enumeration is simply absent; the scan
// proceeds with whatever remains.
func ResolveTargets(cfg *config.Config) []ScanTarget {
	if !cfg.AllDrives {
		targets := make([]ScanTarget, 0, len(cfg.StartPaths))
		for _, root := range cfg.StartPaths {
			targets = append(targets, newTarget(cfg, root))
		}
		return targets
	}

	partitions, err := listPartitions(false)
	if err != nil {
		logger.Warnf("Failed to enumerate volumes: %v", err)
		return nil
	}
	targets := make([]ScanTarget, 0, len(partitions))
	seen := make(map[string]struct{}, len(partitions))
	for _, partition := range partitions {
		mount := partition.Mountpoint
		if mount == "" {
			continue
		}
		if _, ok := seen[mount]; ok {
			continue
		}
		seen[mount] = struct{}{}
		targets = append(targets, newTarget(cfg, mount))
	}
	return targets
}

func newTarget(cfg *config.Config, root string) ScanTarget {
	target := ScanTarget{RootPath: root}
	if isExcludedRoot(cfg, root) {
		target.Excluded = true
		logger.Debugf("Volume %s excluded by policy", root)
		return target
	}
	if usage, err := diskUsage(root); err == nil {
		target.UsedBytes = usage.Used
	} else {
		logger.Debugf("Usage lookup failed for %s: %v", root, err)
	}
	return target
}

func isExcludedRoot(cfg *config.Config, root string) bool {
	for _, excluded := range cfg.ExcludedRoots {
		if root == excluded {
			return true
		}
	}
	if letter := driveLetter(root); letter != "" {
		for _, excluded := range cfg.ExcludedDrives {
			if letter == excluded {
				return true
			}
		}
	}
	return false
}

// driveLetter extracts the Windows drive letter from roots like "C:\"
// or "C:"; anything else yields an empty string.
func driveLetter(root string) string {
	if len(root) >= 2 && root[1] == ':' {
		c := root[0]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			return strings.ToUpper(root[:1])
		}
	}
	return ""
}

// EstimateTotalFiles guesses the file population from used space and an
// assumed files-per-terabyte density. The number only drives the
// progress percentage; it may be arbitrarily wrong and never gates
// termination.
func EstimateTotalFiles(targets []ScanTarget, filesPerTerabyte int) int {
	var used uint64
	for _, target := range targets {
		if target.Excluded {
			continue
		}
		used += target.UsedBytes
	}
	terabytes := float64(used) / float64(bytesPerTerabyte)
	return int(terabytes * float64(filesPerTerabyte))
}
