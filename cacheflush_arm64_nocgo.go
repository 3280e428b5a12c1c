//go:build arm64 && !cgo && !windows

package hotpatch

// Flushing the instruction cache on arm64 needs the C compiler's builtin.
// Install a C compiler and build with CGO_ENABLED=1.
func cacheflush(buf []byte) {
	hotpatch_on_arm64_requires_cgo_to_flush_the_instruction_cache()
}
