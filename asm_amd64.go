package hotpatch

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"unsafe"

	"github.com/cockroachdb/errors"
	"golang.org/x/arch/x86/x86asm"
)

// disassemble formats code for debug logs, one instruction per line with
// its address. code must be the memory the instructions run from.
func disassemble(code []byte) (string, error) {
	var buf bytes.Buffer

	base := uintptr(unsafe.Pointer(unsafe.SliceData(code)))

	for i := 0; i < len(code); {
		inst, err := x86asm.Decode(code[i:], 64)
		if err != nil {
			return buf.String(), errors.Wrapf(err, "decode error at offset %d", i)
		}
		fmt.Fprintf(&buf, "0x%08x\t%-20s\t%s\n", base+uintptr(i), hex.EncodeToString(code[i:i+inst.Len]), x86asm.GoSyntax(inst, uint64(base+uintptr(i)), symbolAt))

		i += inst.Len
	}

	return buf.String(), nil
}
