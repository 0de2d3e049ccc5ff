//go:build darwin || dragonfly || freebsd || netbsd || openbsd

package kdf

import "golang.org/x/sys/unix"

// physicalMemorySysctls lists the sysctl names that report physical memory
// across the BSDs; the first one the kernel knows wins.
var physicalMemorySysctls = []string{"hw.memsize", "hw.physmem64", "hw.physmem"}

// SystemMemory returns a probe backed by sysctl(3).
func SystemMemory() HostMemory {
	return HostMemoryFunc(func() (uint64, bool) {
		for _, name := range physicalMemorySysctls {
			if total, err := unix.SysctlUint64(name); err == nil && total > 0 {
				return total, true
			}
		}
		return 0, false
	})
}
