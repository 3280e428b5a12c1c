package hotpatch

import (
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// patcher implements the two ways of rewriting a function for one
// architecture. newPatcher in patch_<arch>.go picks the implementation.
type patcher interface {
	redirect(target codeAddr, to replacement) *Guard
	returnBool(target codeAddr, value bool) *Guard
}

// engine is the part of patching shared by every architecture.
type engine struct {
	alloc  *nearAllocator
	log    *zap.Logger
	disasm bool
}

func newEngine(m mapper, log *zap.Logger, disasm bool) *engine {
	return &engine{
		alloc:  newNearAllocator(m, log),
		log:    log,
		disasm: disasm,
	}
}

// patchOp describes one patch for apply.
type patchOp struct {
	name   string
	target codeAddr

	// trampolineSize is the most that body can return.
	trampolineSize int

	// body returns the trampoline code for a block mapped at addr.
	body func(addr uintptr) []byte

	// keep is held by the guard until release.
	keep any
}

// apply installs op. Size checks happen before anything is allocated or
// written. Reachability can only be checked once the trampoline exists;
// if it fails the trampoline is freed before panicking and the target is
// left untouched.
func (e *engine) apply(op patchOp) *Guard {
	patchedMu.Lock()
	defer patchedMu.Unlock()

	checkTargetSize(op.target)

	original := make([]byte, patchSize)
	copy(original, op.target.bytes(patchSize))

	tramp := e.alloc.alloc(op.target, op.trampolineSize)
	body := op.body(tramp.addr)
	sealTrampoline(tramp, body)

	payload, ok := branchPayload(op.target.pc(), tramp.addr)
	if !ok {
		e.alloc.free(tramp)
		panic(errors.Wrapf(ErrOutOfRange, "%s: trampoline at %#x is out of reach of %#x", op.name, tramp.addr, op.target.pc()))
	}
	if len(payload) != patchSize {
		e.alloc.free(tramp)
		panic(errors.AssertionFailedf("%s: payload is %d bytes, want %d", op.name, len(payload), patchSize))
	}

	patchCode(op.target, payload)

	g := &Guard{
		target:   op.target,
		original: original,
		tramp:    tramp,
		alloc:    e.alloc,
		keep:     op.keep,
		log:      e.log,
	}
	patched[op.target.pc()] = append(patched[op.target.pc()], g)

	e.log.Debug("patched function",
		zap.String("op", op.name),
		zap.String("func", op.target.name()),
		hexField("target", op.target.pc()),
		hexField("trampoline", tramp.addr))
	if e.disasm {
		e.logCode("trampoline", tramp.bytes()[:len(body)])
		e.logCode("patched entry", op.target.bytes(patchSize))
	}

	return g
}

func checkTargetSize(target codeAddr) {
	size := funcSize(target)
	if size == 0 {
		panic(errors.Wrapf(ErrUnknownSize, "%#x is not the start of a Go function", target.pc()))
	}
	if size < patchSize {
		panic(errors.Wrapf(ErrTargetTooSmall, "%s at %#x is %d bytes, patching needs %d",
			target.name(), target.pc(), size, patchSize))
	}
}

func (e *engine) logCode(what string, code []byte) {
	ce := e.log.Check(zap.DebugLevel, what)
	if ce == nil {
		return
	}

	asm, err := disassemble(code)
	if err != nil {
		ce.Write(zap.Error(err))
		return
	}
	ce.Write(zap.String("code", asm))
}
