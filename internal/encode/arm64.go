package encode

// InstrSize is the width of every arm64 instruction.
const InstrSize = 4

// Registers with a fixed role in the Go arm64 ABI.
const (
	X0  = 0
	X26 = 26 // closure context
	X27 = 27 // REGTMP, free for the linker and for us
	X30 = 30 // link register
)

// NOP is the arm64 no-op (HINT #0).
const NOP uint32 = 0xd503201f

const (
	opB    = uint32(0b000101 << 26)
	opBR   = uint32(0xd61f0000)
	opRET  = uint32(0xd65f0000)
	opMOVZ = uint32(0xd2800000) // sf=1 opc=10
	opMOVK = uint32(0xf2800000) // sf=1 opc=11

	branchMax = 1<<27 - InstrSize
	branchMin = -(1 << 27)
)

// BranchReachable reports whether a B instruction can cover disp bytes.
func BranchReachable(disp int64) bool {
	return disp%InstrSize == 0 && disp >= branchMin && disp <= branchMax
}

// B encodes an unconditional branch disp bytes away from the instruction.
func B(disp int64) uint32 {
	if !BranchReachable(disp) {
		badOperand("branch displacement %#x out of range", disp)
	}
	return opB | uint32(disp/InstrSize)&(1<<26-1)
}

// BR encodes a branch to the address held in reg.
func BR(reg uint8) uint32 {
	checkXReg(reg)
	return opBR | uint32(reg)<<5
}

// RET encodes a return through reg, normally X30.
func RET(reg uint8) uint32 {
	checkXReg(reg)
	return opRET | uint32(reg)<<5
}

// MOVZ encodes "MOVZ Xreg, #imm, LSL #(hw*16)", clearing the other bits.
func MOVZ(reg uint8, imm uint16, hw uint8) uint32 {
	return moveWide(opMOVZ, reg, imm, hw)
}

// MOVK encodes "MOVK Xreg, #imm, LSL #(hw*16)", keeping the other bits.
func MOVK(reg uint8, imm uint16, hw uint8) uint32 {
	return moveWide(opMOVK, reg, imm, hw)
}

func moveWide(op uint32, reg uint8, imm uint16, hw uint8) uint32 {
	checkXReg(reg)
	if hw > 3 {
		badOperand("half-word selector %d out of range", hw)
	}
	return op | uint32(hw)<<21 | uint32(imm)<<5 | uint32(reg)
}

// LoadImm64 returns the four instructions that put v into reg. The MOVZ
// comes first since each MOVK only replaces its own 16 bits.
func LoadImm64(reg uint8, v uint64) []uint32 {
	words := make([]uint32, 0, 4)
	words = append(words, MOVZ(reg, uint16(v), 0))
	for hw := uint8(1); hw < 4; hw++ {
		words = append(words, MOVK(reg, uint16(v>>(16*hw)), hw))
	}
	return words
}

// JumpARM64 returns code placed at pc that continues at target. A single B is
// used when it can reach, otherwise target is loaded into scratch.
func JumpARM64(pc, target uintptr, scratch uint8) []uint32 {
	disp := int64(target) - int64(pc)
	if BranchReachable(disp) {
		return []uint32{B(disp)}
	}
	return append(LoadImm64(scratch, uint64(target)), BR(scratch))
}

func checkXReg(reg uint8) {
	if reg > 31 {
		badOperand("register X%d out of range", reg)
	}
}
