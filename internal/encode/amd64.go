package encode

import (
	"encoding/binary"
	"math"
)

// amd64 general purpose registers, numbered as in ModRM/REX.
const (
	RAX = iota
	RCX
	RDX
	RBX
	RSP
	RBP
	RSI
	RDI
	R8
	R9
	R10
	R11
	R12
	R13
	R14
	R15
)

// JmpRel32Size is the length of "JMP rel32".
const JmpRel32Size = 5

const (
	opcodeJMPrel32 = 0xe9
	opcodeINT3     = 0xcc
	opcodeRET      = 0xc3
	opcodeMOVimm64 = 0xb8 // +rd
	opcodeMOVimm32 = 0xc7 // /0
	opcodeGroup5   = 0xff // /4 is JMP r/m64

	rexW = 0x48
	rexB = 0x41

	modMem = 0
	modReg = 3
)

// Rel32Reachable reports whether a rel32 displacement can hold disp.
func Rel32Reachable(disp int64) bool {
	return disp >= math.MinInt32 && disp <= math.MaxInt32
}

// JmpRel32 encodes a near jump placed at from that lands on to.
func JmpRel32(from, to uintptr) []byte {
	disp := int64(to) - int64(from+JmpRel32Size)
	if !Rel32Reachable(disp) {
		badOperand("jump displacement %#x out of range", disp)
	}
	buf := make([]byte, JmpRel32Size)
	buf[0] = opcodeJMPrel32
	binary.LittleEndian.PutUint32(buf[1:], uint32(int32(disp)))
	return buf
}

// MovImm64 encodes "MOVABS reg, v".
func MovImm64(reg uint8, v uint64) []byte {
	checkGPR(reg)
	buf := make([]byte, 10)
	buf[0] = rexW
	if reg >= R8 {
		buf[0] |= rexB
	}
	buf[1] = opcodeMOVimm64 + reg&7
	binary.LittleEndian.PutUint64(buf[2:], v)
	return buf
}

// JmpReg encodes "JMP reg".
func JmpReg(reg uint8) []byte {
	checkGPR(reg)
	modrm := byte(modReg<<6 | 4<<3 | reg&7)
	if reg >= R8 {
		return []byte{rexB, opcodeGroup5, modrm}
	}
	return []byte{opcodeGroup5, modrm}
}

// JmpMem encodes "JMP [reg]". RSP, RBP, R12 and R13 need a SIB byte or a
// displacement and are not accepted.
func JmpMem(reg uint8) []byte {
	checkGPR(reg)
	if low := reg & 7; low == RSP || low == RBP {
		badOperand("register %d cannot be a plain memory base", reg)
	}
	modrm := byte(modMem<<6 | 4<<3 | reg&7)
	if reg >= R8 {
		return []byte{rexB, opcodeGroup5, modrm}
	}
	return []byte{opcodeGroup5, modrm}
}

// MovAccImm32 encodes "MOV RAX, v" with v sign-extended to 64 bits.
func MovAccImm32(v int32) []byte {
	buf := []byte{rexW, opcodeMOVimm32, modReg<<6 | 0<<3 | RAX, 0, 0, 0, 0}
	binary.LittleEndian.PutUint32(buf[3:], uint32(v))
	return buf
}

// Ret encodes a near return.
func Ret() []byte {
	return []byte{opcodeRET}
}

// JumpAMD64 returns code placed at from that continues at to, using a rel32
// jump when possible and an absolute jump through scratch otherwise.
func JumpAMD64(from, to uintptr, scratch uint8) []byte {
	if Rel32Reachable(int64(to) - int64(from+JmpRel32Size)) {
		return JmpRel32(from, to)
	}
	return append(MovImm64(scratch, uint64(to)), JmpReg(scratch)...)
}

// Pad extends code to n bytes with INT3, as the Go linker pads functions.
func Pad(code []byte, n int) []byte {
	for len(code) < n {
		code = append(code, opcodeINT3)
	}
	return code
}

func checkGPR(reg uint8) {
	if reg > R15 {
		badOperand("register %d out of range", reg)
	}
}
