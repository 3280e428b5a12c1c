//go:build linux || freebsd

package hotpatch

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

func allocGranularity() uintptr {
	return uintptr(unix.Getpagesize())
}

type osMapper struct{}

// mapAt never replaces an existing mapping. A kernel that doesn't know
// _MAP_FIXED_NOREPLACE treats hint as a suggestion, which the allocator
// checks for.
func (osMapper) mapAt(hint uintptr, size int) (uintptr, error) {
	p, err := unix.MmapPtr(-1, 0, unsafe.Pointer(hint), uintptr(size),
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANON|_MAP_FIXED_NOREPLACE)
	if err != nil {
		return 0, err
	}
	return uintptr(p), nil
}

func (osMapper) unmap(addr uintptr, size int) error {
	return unix.MunmapPtr(unsafe.Pointer(addr), uintptr(size))
}
