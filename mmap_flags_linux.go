//go:build linux

package hotpatch

import "golang.org/x/sys/unix"

// Available since Linux 4.17. Older kernels ignore it and mmap falls back to
// treating the address as a hint.
//
// https://man7.org/linux/man-pages/man2/mmap.2.html
const _MAP_FIXED_NOREPLACE = unix.MAP_FIXED_NOREPLACE
