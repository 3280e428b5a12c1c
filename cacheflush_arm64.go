//go:build !windows

package hotpatch

import "unsafe"

/*
static void clear_icache(char *start, char *end) {
	__builtin___clear_cache(start, end);
}
*/
import "C"

// cacheflush cleans buf from the data cache and invalidates it in the
// instruction cache. arm64 doesn't keep the two coherent.
func cacheflush(buf []byte) {
	start := unsafe.Pointer(unsafe.SliceData(buf))
	end := unsafe.Add(start, len(buf))
	C.clear_icache((*C.char)(start), (*C.char)(end))
}
