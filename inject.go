package hotpatch

import (
	"os"
	"sync"
	"unsafe"

	"github.com/cockroachdb/errors"
)

// codeMu serializes every write to executable memory, including restores
// that happen outside a session.
var codeMu sync.Mutex

// patchCode overwrites the code at dst with payload and flushes it from the
// instruction cache. The pages stay executable while they're writable, so
// other functions sharing them keep working.
func patchCode(dst codeAddr, payload []byte) {
	codeMu.Lock()
	defer codeMu.Unlock()

	code := dst.bytes(len(payload))
	if err := mprotect(code, protRWX); err != nil {
		panic(errors.Mark(errors.Wrapf(err, "making %#x writable", dst.pc()), ErrProtect))
	}

	copy(code, payload)
	cacheflush(code)

	if err := mprotect(code, protRX); err != nil {
		panic(errors.Mark(errors.Wrapf(err, "restoring protection at %#x", dst.pc()), ErrProtect))
	}
}

// sealTrampoline writes body to the start of a freshly mapped block and
// makes the block executable. It is never writable again.
func sealTrampoline(b *block, body []byte) {
	if len(body) > b.size {
		panic(errors.AssertionFailedf("trampoline body is %d bytes, block is %d", len(body), b.size))
	}

	codeMu.Lock()
	defer codeMu.Unlock()

	code := b.bytes()
	copy(code, body)

	if err := mprotect(code, protRX); err != nil {
		panic(errors.Mark(errors.Wrapf(err, "sealing trampoline at %#x", b.addr), ErrProtect))
	}
	cacheflush(code[:len(body)])
}

// pageSpan returns the page-aligned region covering buf.
func pageSpan(buf []byte) (uintptr, int) {
	pageSize := uintptr(os.Getpagesize())

	addr := uintptr(unsafe.Pointer(unsafe.SliceData(buf)))
	start := addr &^ (pageSize - 1)
	end := (addr + uintptr(len(buf)) + pageSize - 1) &^ (pageSize - 1)

	return start, int(end - start)
}
