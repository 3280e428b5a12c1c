//go:build windows

package hotpatch

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	kernel32          = windows.NewLazySystemDLL("kernel32.dll")
	procGetSystemInfo = kernel32.NewProc("GetSystemInfo")
)

// systemInfo is SYSTEM_INFO.
type systemInfo struct {
	processorArchitecture     uint16
	reserved                  uint16
	pageSize                  uint32
	minimumApplicationAddress uintptr
	maximumApplicationAddress uintptr
	activeProcessorMask       uintptr
	numberOfProcessors        uint32
	processorType             uint32
	allocationGranularity     uint32
	processorLevel            uint16
	processorRevision         uint16
}

// allocGranularity returns the alignment of VirtualAlloc reservations,
// usually 64KiB. Hints in between round down to the same address.
func allocGranularity() uintptr {
	var si systemInfo
	procGetSystemInfo.Call(uintptr(unsafe.Pointer(&si)))
	return uintptr(si.allocationGranularity)
}

type osMapper struct{}

// VirtualAlloc fails rather than move the allocation when hint is taken.
//
// https://learn.microsoft.com/en-us/windows/win32/api/memoryapi/nf-memoryapi-virtualalloc
func (osMapper) mapAt(hint uintptr, size int) (uintptr, error) {
	return windows.VirtualAlloc(hint, uintptr(size), windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_READWRITE)
}

func (osMapper) unmap(addr uintptr, _ int) error {
	// MEM_RELEASE frees the whole reservation and requires a zero size.
	return windows.VirtualFree(addr, 0, windows.MEM_RELEASE)
}
