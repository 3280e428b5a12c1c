package hotpatch

import (
	"runtime"
	"unsafe"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// mapper hands out anonymous read-write memory.
type mapper interface {
	// mapAt maps size bytes at hint. It fails, or maps somewhere else,
	// when hint is taken.
	mapAt(hint uintptr, size int) (uintptr, error)
	unmap(addr uintptr, size int) error
}

// block is a mapping holding one trampoline.
type block struct {
	addr uintptr
	size int
}

func (b *block) bytes() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(b.addr)), b.size)
}

// nearAllocator maps trampolines close enough to their target for the
// patch payload's branch to reach them.
type nearAllocator struct {
	m           mapper
	granularity uintptr // page size, or the reservation unit on Windows
	maxDistance uintptr
	log         *zap.Logger
}

func newNearAllocator(m mapper, log *zap.Logger) *nearAllocator {
	return &nearAllocator{
		m:           m,
		granularity: allocGranularity(),
		maxDistance: maxTrampolineDistance,
		log:         log,
	}
}

// alloc maps at least size bytes within maxDistance of ref. The search
// walks the window one allocation unit at a time from the bottom and
// panics with ErrNoMemory when it runs off the top.
func (a *nearAllocator) alloc(ref codeAddr, size int) *block {
	size = int(a.roundUp(uintptr(size)))
	lo, hi := a.window(ref.pc())

	attempts := 0
	for hint := lo; hint <= hi && hint >= lo; hint += a.granularity {
		attempts++

		addr, err := a.m.mapAt(hint, size)
		if err != nil {
			continue
		}
		if distance(addr, ref.pc()) <= a.maxDistance {
			a.log.Debug("mapped trampoline",
				hexField("ref", ref.pc()),
				hexField("addr", addr),
				zap.Int("size", size),
				zap.Int("attempts", attempts))
			return &block{addr: addr, size: size}
		}

		if err := a.m.unmap(addr, size); err != nil {
			panic(errors.Wrapf(err, "unmapping rejected block at %#x", addr))
		}
	}

	panic(errors.Wrapf(ErrNoMemory, "%s/%s: no %d bytes within %#x of %#x after %d attempts",
		runtime.GOOS, runtime.GOARCH, size, a.maxDistance, ref.pc(), attempts))
}

func (a *nearAllocator) free(b *block) {
	if err := a.m.unmap(b.addr, b.size); err != nil {
		panic(errors.Wrapf(err, "unmapping trampoline at %#x", b.addr))
	}
}

// window returns the first and last aligned hints within maxDistance of
// ref. The first allocation unit of the address space is never used.
func (a *nearAllocator) window(ref uintptr) (lo, hi uintptr) {
	lo = a.granularity
	if ref > a.maxDistance {
		lo = max(a.roundUp(ref-a.maxDistance), a.granularity)
	}

	hi = ref + a.maxDistance
	if hi < ref {
		hi = ^uintptr(0)
	}
	hi &^= a.granularity - 1

	return lo, hi
}

func (a *nearAllocator) roundUp(n uintptr) uintptr {
	return (n + a.granularity - 1) &^ (a.granularity - 1)
}

func distance(a, b uintptr) uintptr {
	if a > b {
		return a - b
	}
	return b - a
}
