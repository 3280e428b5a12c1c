package hotpatch

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"unsafe"

	"golang.org/x/arch/arm64/arm64asm"
)

// disassemble formats code for debug logs, one instruction per line with
// its address. Words that don't decode are shown as "?".
func disassemble(code []byte) (string, error) {
	var buf bytes.Buffer

	base := uintptr(unsafe.Pointer(unsafe.SliceData(code)))

	for i := 0; i+4 <= len(code); i += 4 {
		asm := "?"
		if inst, err := arm64asm.Decode(code[i:]); err == nil {
			asm = arm64asm.GoSyntax(inst, uint64(base+uintptr(i)), symbolAt, nil)
		}
		fmt.Fprintf(&buf, "0x%08x\t%-20s\t%s\n", base+uintptr(i), hex.EncodeToString(code[i:i+4]), asm)
	}

	return buf.String(), nil
}
