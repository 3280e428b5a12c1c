//go:build freebsd

package hotpatch

import "golang.org/x/sys/unix"

// FreeBSD spells MAP_FIXED_NOREPLACE as MAP_FIXED|MAP_EXCL: the call fails
// instead of replacing whatever is mapped at the hint.
//
// https://man.freebsd.org/cgi/man.cgi?mmap(2)
const _MAP_FIXED_NOREPLACE = unix.MAP_FIXED | unix.MAP_EXCL
