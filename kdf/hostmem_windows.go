//go:build windows

package kdf

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// SystemMemory returns a probe backed by GlobalMemoryStatusEx.
func SystemMemory() HostMemory {
	return HostMemoryFunc(func() (uint64, bool) {
		var status windows.MemoryStatusEx
		status.Length = uint32(unsafe.Sizeof(status))
		if err := windows.GlobalMemoryStatusEx(&status); err != nil {
			return 0, false
		}
		return status.TotalPhys, status.TotalPhys > 0
	})
}
