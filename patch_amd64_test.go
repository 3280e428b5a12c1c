package hotpatch

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/arch/x86/x86asm"
)

func decodeAll(t *testing.T, code []byte) []x86asm.Inst {
	t.Helper()

	var insts []x86asm.Inst
	for i := 0; i < len(code); {
		inst, err := x86asm.Decode(code[i:], 64)
		require.NoError(t, err, "offset %d", i)
		insts = append(insts, inst)
		i += inst.Len
	}
	return insts
}

func TestRedirectBody(t *testing.T) {
	const addr = uintptr(0x10_0000_0000)

	fv := new(uintptr)
	closure := unsafe.Pointer(fv)

	t.Run("near", func(t *testing.T) {
		entry := addr + 0x1234
		insts := decodeAll(t, redirectBody(addr, replacement{entry: fakeAddr(entry)}))

		require.Len(t, insts, 1)
		assert.Equal(t, x86asm.JMP, insts[0].Op)
		assert.Equal(t, x86asm.Rel(entry-addr-5), insts[0].Args[0])
	})

	t.Run("far", func(t *testing.T) {
		entry := addr + 1<<33
		insts := decodeAll(t, redirectBody(addr, replacement{entry: fakeAddr(entry)}))

		require.Len(t, insts, 2)
		assert.Equal(t, x86asm.MOV, insts[0].Op)
		assert.Equal(t, x86asm.RDX, insts[0].Args[0])
		assert.Equal(t, x86asm.Imm(entry), insts[0].Args[1])
		assert.Equal(t, x86asm.JMP, insts[1].Op)
		assert.Equal(t, x86asm.RDX, insts[1].Args[0])
	})

	t.Run("near closure", func(t *testing.T) {
		entry := addr + 0x1234
		insts := decodeAll(t, redirectBody(addr, replacement{entry: fakeAddr(entry), closure: closure}))

		require.Len(t, insts, 2)
		assert.Equal(t, x86asm.RDX, insts[0].Args[0])
		assert.Equal(t, x86asm.Imm(uintptr(closure)), insts[0].Args[1])
		assert.Equal(t, x86asm.JMP, insts[1].Op)
		assert.Equal(t, x86asm.Rel(entry-(addr+10+5)), insts[1].Args[0])
	})

	t.Run("far closure", func(t *testing.T) {
		insts := decodeAll(t, redirectBody(addr, replacement{entry: fakeAddr(addr + 1<<33), closure: closure}))

		require.Len(t, insts, 2)
		assert.Equal(t, x86asm.Imm(uintptr(closure)), insts[0].Args[1])
		assert.Equal(t, x86asm.JMP, insts[1].Op)
		mem, ok := insts[1].Args[0].(x86asm.Mem)
		require.True(t, ok, "%T", insts[1].Args[0])
		assert.Equal(t, x86asm.RDX, mem.Base)
		assert.Zero(t, mem.Disp)
	})

	for _, body := range [][]byte{
		redirectBody(addr, replacement{entry: fakeAddr(addr + 1<<33), closure: closure}),
		redirectBody(addr, replacement{entry: fakeAddr(addr + 1<<33)}),
	} {
		assert.LessOrEqual(t, len(body), redirectTrampolineSize)
	}
}

func TestReturnBoolBody(t *testing.T) {
	for value, imm := range map[bool]x86asm.Imm{true: 1, false: 0} {
		insts := decodeAll(t, returnBoolBody(value))
		require.Len(t, insts, 2)
		assert.Equal(t, x86asm.MOV, insts[0].Op)
		assert.Equal(t, x86asm.RAX, insts[0].Args[0])
		assert.Equal(t, imm, insts[0].Args[1])
		assert.Equal(t, x86asm.RET, insts[1].Op)
		assert.Len(t, returnBoolBody(value), returnBoolTrampolineSize)
	}
}

func TestBranchPayload(t *testing.T) {
	const from = uintptr(0x10_0000_0000)

	payload, ok := branchPayload(from, from+maxTrampolineDistance)
	require.True(t, ok)
	assert.Len(t, payload, patchSize)

	payload, ok = branchPayload(from, from-maxTrampolineDistance)
	require.True(t, ok)
	assert.Len(t, payload, patchSize)

	// rel32 counts from the end of the jump, so the forward reach is longer.
	_, ok = branchPayload(from, from+1<<31+4)
	assert.True(t, ok)
	_, ok = branchPayload(from, from+1<<31+5)
	assert.False(t, ok)
	_, ok = branchPayload(from, from-maxTrampolineDistance-1)
	assert.False(t, ok)
}

func TestTrimPadding(t *testing.T) {
	assert.Equal(t, []byte{0xc3}, trimPadding([]byte{0xc3, 0xcc, 0xcc, 0xcc}))
	assert.Equal(t, []byte{0x90, 0xc3}, trimPadding([]byte{0x90, 0xc3}))
	assert.Empty(t, trimPadding([]byte{0xcc, 0xcc}))
}

func TestRedirect_TrampolineCode(t *testing.T) {
	s := Test(t)

	g := s.Redirect(six, nine)
	code := g.tramp.bytes()

	// The block is zero filled past the body, decode just the first two.
	var insts []x86asm.Inst
	for i := 0; len(insts) < 2; {
		inst, err := x86asm.Decode(code[i:], 64)
		require.NoError(t, err)
		insts = append(insts, inst)
		i += inst.Len
	}

	// nine is a plain function, but its funcval is still loaded.
	assert.Equal(t, x86asm.MOV, insts[0].Op)
	assert.Equal(t, x86asm.RDX, insts[0].Args[0])
	assert.Equal(t, x86asm.JMP, insts[1].Op)

	entry := decodeAll(t, mustCodeAddr(pcOf(six)).bytes(patchSize))
	require.Len(t, entry, 1)
	assert.Equal(t, x86asm.JMP, entry[0].Op)
}
