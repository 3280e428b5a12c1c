//go:build !arm64 && !windows

package hotpatch

// x86 snoops stores into the instruction stream, so there's nothing to do.
func cacheflush(buf []byte) {}
