//go:build windows

package hotpatch

import "golang.org/x/sys/windows"

const (
	protRX  = windows.PAGE_EXECUTE_READ
	protRWX = windows.PAGE_EXECUTE_READWRITE
)

func mprotect(buf []byte, prot int) error {
	start, size := pageSpan(buf)

	var old uint32
	return windows.VirtualProtect(start, uintptr(size), uint32(prot), &old)
}
