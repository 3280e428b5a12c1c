package hotpatch

import "github.com/pboyd/hotpatch/internal/encode"

const (
	instructionAlign = 1

	// patchSize is one JMP rel32 from the target to its trampoline.
	patchSize = encode.JmpRel32Size

	// The JMP is measured from its end, so the trampoline must be within
	// 2GiB of the target less the instruction.
	maxTrampolineDistance = 1<<31 - encode.JmpRel32Size

	// MOVABS RDX + JMP rel32 at worst.
	redirectTrampolineSize = 10 + encode.JmpRel32Size
	// MOV RAX, imm32 + RET
	returnBoolTrampolineSize = 7 + 1
)

type amd64Patcher struct {
	*engine
}

func newPatcher(e *engine) patcher {
	return amd64Patcher{e}
}

// redirect sends calls to target on to the replacement.
func (p amd64Patcher) redirect(target codeAddr, to replacement) *Guard {
	return p.apply(patchOp{
		name:           "redirect",
		target:         target,
		trampolineSize: redirectTrampolineSize,
		keep:           to.keep,
		body: func(addr uintptr) []byte {
			return redirectBody(addr, to)
		},
	})
}

// returnBool makes target return value without running it.
func (p amd64Patcher) returnBool(target codeAddr, value bool) *Guard {
	return p.apply(patchOp{
		name:           "returnBool",
		target:         target,
		trampolineSize: returnBoolTrampolineSize,
		body: func(uintptr) []byte {
			return returnBoolBody(value)
		},
	})
}

// redirectBody returns a trampoline placed at addr that jumps to the
// replacement. Closures expect their funcval in RDX, so it's loaded first
// and, when the code is out of rel32 range, reused for "JMP [RDX]" since a
// funcval starts with its code pointer.
func redirectBody(addr uintptr, to replacement) []byte {
	var code []byte
	if to.closure != nil {
		code = encode.MovImm64(encode.RDX, uint64(uintptr(to.closure)))
	}

	pc := addr + uintptr(len(code))
	disp := int64(to.entry.pc()) - int64(pc+encode.JmpRel32Size)
	if to.closure != nil && !encode.Rel32Reachable(disp) {
		return append(code, encode.JmpMem(encode.RDX)...)
	}
	return append(code, encode.JumpAMD64(pc, to.entry.pc(), encode.RDX)...)
}

// returnBoolBody is "MOV RAX, value; RET". Only AL is the result, the
// rest of RAX is free.
func returnBoolBody(value bool) []byte {
	var v int32
	if value {
		v = 1
	}
	return append(encode.MovAccImm32(v), encode.Ret()...)
}

// branchPayload returns the bytes written over the target's entry to jump
// to the trampoline.
func branchPayload(from, to uintptr) ([]byte, bool) {
	if !encode.Rel32Reachable(int64(to) - int64(from+encode.JmpRel32Size)) {
		return nil, false
	}
	return encode.JmpRel32(from, to), true
}

// trimPadding drops the INT3s the linker fills the gap between functions
// with.
func trimPadding(code []byte) []byte {
	end := len(code)
	for end > 0 && code[end-1] == 0xcc {
		end--
	}
	return code[:end]
}

