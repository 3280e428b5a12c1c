package hotpatch

import (
	"encoding/binary"

	"github.com/pboyd/hotpatch/internal/encode"
)

const (
	instructionAlign = encode.InstrSize

	// patchSize is a B to the trampoline padded with two NOPs.
	patchSize = 3 * encode.InstrSize

	// B reaches [-128MiB, 128MiB-4].
	maxTrampolineDistance = 1<<27 - encode.InstrSize

	// context load, then MOVZ/MOVK x4 + BR at worst.
	redirectTrampolineSize = (4 + 5) * encode.InstrSize
	// MOVZ X0 + RET
	returnBoolTrampolineSize = 2 * encode.InstrSize
)

// Registers the trampoline uses. X26 holds the closure context in the Go
// ABI. X27 is reserved for the linker and dead at function entry.
const (
	regContext = encode.X26
	regScratch = encode.X27
)

type arm64Patcher struct {
	*engine
}

func newPatcher(e *engine) patcher {
	return arm64Patcher{e}
}

// redirect sends calls to target on to the replacement.
func (p arm64Patcher) redirect(target codeAddr, to replacement) *Guard {
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
func (p arm64Patcher) returnBool(target codeAddr, value bool) *Guard {
	return p.apply(patchOp{
		name:           "returnBool",
		target:         target,
		trampolineSize: returnBoolTrampolineSize,
		body: func(uintptr) []byte {
			return returnBoolBody(value)
		},
	})
}

// redirectBody returns a trampoline placed at addr that loads the closure
// context, when there is one, and branches to the replacement.
func redirectBody(addr uintptr, to replacement) []byte {
	var words []uint32
	if to.closure != nil {
		words = encode.LoadImm64(regContext, uint64(uintptr(to.closure)))
	}

	pc := addr + uintptr(len(words))*encode.InstrSize
	words = append(words, encode.JumpARM64(pc, to.entry.pc(), regScratch)...)
	return encode.Bytes(words...)
}

// returnBoolBody is "MOVZ X0, #value; RET".
func returnBoolBody(value bool) []byte {
	var v uint16
	if value {
		v = 1
	}
	return encode.Bytes(encode.MOVZ(encode.X0, v, 0), encode.RET(encode.X30))
}

// branchPayload returns the words written over the target's entry to
// branch to the trampoline.
func branchPayload(from, to uintptr) ([]byte, bool) {
	disp := int64(to) - int64(from)
	if !encode.BranchReachable(disp) {
		return nil, false
	}
	return encode.Bytes(encode.B(disp), encode.NOP, encode.NOP), true
}

// trimPadding drops the zero words the linker fills the gap between
// functions with.
func trimPadding(code []byte) []byte {
	end := len(code) &^ (encode.InstrSize - 1)
	for end >= encode.InstrSize && binary.LittleEndian.Uint32(code[end-encode.InstrSize:end]) == 0 {
		end -= encode.InstrSize
	}
	return code[:end]
}
