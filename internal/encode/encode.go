// Package encode assembles the few machine instructions needed to redirect
// a function: branches, wide immediate moves and returns for arm64 and
// amd64.
//
// Every function is pure. Operands outside the range of their instruction
// field cause a panic, since they can only come from a bug in the caller.
package encode

import (
	"encoding/binary"
	"fmt"
)

// Bytes serializes instruction words in little-endian order.
func Bytes(words ...uint32) []byte {
	buf := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[4*i:], w)
	}
	return buf
}

func badOperand(format string, args ...any) {
	panic(fmt.Sprintf("encode: "+format, args...))
}
