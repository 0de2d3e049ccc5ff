//go:build linux

package kdf

import (
	"os"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// cgroupLimitFiles are read in order: cgroup v2, then v1.
var cgroupLimitFiles = []string{
	"/sys/fs/cgroup/memory.max",
	"/sys/fs/cgroup/memory/memory.limit_in_bytes",
}

// SystemMemory returns a probe backed by sysinfo(2), lowered to the cgroup
// memory limit when the process runs inside one.
func SystemMemory() HostMemory {
	return HostMemoryFunc(func() (uint64, bool) {
		var info unix.Sysinfo_t
		if err := unix.Sysinfo(&info); err != nil {
			return 0, false
		}
		unit := uint64(info.Unit)
		if unit == 0 {
			unit = 1
		}
		total := uint64(info.Totalram) * unit

		if limit, ok := cgroupMemoryLimit(cgroupLimitFiles); ok && limit < total {
			total = limit
		}
		return total, true
	})
}

// cgroupMemoryLimit returns the first numeric limit found. "max" and
// unreadable files mean no limit.
func cgroupMemoryLimit(paths []string) (uint64, bool) {
	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		value := strings.TrimSpace(string(raw))
		if value == "max" {
			return 0, false
		}
		limit, err := strconv.ParseUint(value, 10, 64)
		if err != nil || limit == 0 {
			continue
		}
		return limit, true
	}
	return 0, false
}
