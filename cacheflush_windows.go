//go:build windows

package hotpatch

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"golang.org/x/sys/windows"
)

var procFlushInstructionCache = kernel32.NewProc("FlushInstructionCache")

// cacheflush asks the kernel to flush buf. Windows requires this after
// writing code even on x86.
//
// https://learn.microsoft.com/en-us/windows/win32/api/processthreadsapi/nf-processthreadsapi-flushinstructioncache
func cacheflush(buf []byte) {
	r, _, err := procFlushInstructionCache.Call(
		uintptr(windows.CurrentProcess()),
		uintptr(unsafe.Pointer(unsafe.SliceData(buf))),
		uintptr(len(buf)))
	if r == 0 {
		panic(errors.Wrap(err, "FlushInstructionCache"))
	}
}
