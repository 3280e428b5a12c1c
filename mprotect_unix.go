//go:build linux || freebsd

package hotpatch

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	protRX  = unix.PROT_READ | unix.PROT_EXEC
	protRWX = unix.PROT_READ | unix.PROT_WRITE | unix.PROT_EXEC
)

// mprotect changes the protection of every page buf touches.
func mprotect(buf []byte, prot int) error {
	start, size := pageSpan(buf)
	return unix.Mprotect(unsafe.Slice((*byte)(unsafe.Pointer(start)), size), prot)
}
