// Package hotpatch replaces Go functions at runtime, for tests.
//
// A patch overwrites the first few bytes of the target function with a
// branch to a small trampoline mapped next to it. The trampoline either
// jumps to a replacement function or returns a fixed bool. Releasing the
// patch puts the original bytes back and unmaps the trampoline.
//
//	func TestRetry(t *testing.T) {
//		s := hotpatch.Test(t)
//		s.ReturnBool(isOnline, false)
//		s.Redirect(time.Sleep, func(time.Duration) {})
//		...
//	}
//
// Only one session can be active at a time. Begin, Test and With wait for
// the previous session to end.
//
// Anything that goes wrong while patching panics with an error wrapping
// one of the Err values in this package. A half-applied patch would leave
// the process running corrupt code, so there is nothing to return.
//
// Set HOTPATCH_LOG_LEVEL=debug to log every patch, and HOTPATCH_LOG_DISASM=1
// to include the generated code.
//
// Limitations:
//   - Supports amd64 and arm64 on Linux, FreeBSD and Windows. arm64 needs
//     cgo to flush the instruction cache
//   - Relies on internal Go APIs that can break at any time
//   - Inlined calls to a patched function are not affected
//   - Generic functions can't be patched reliably
//   - Other goroutines must not be running a function while it is patched
//     or restored
package hotpatch
