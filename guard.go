package hotpatch

import (
	"slices"
	"sync"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// patched holds the live guards of every patched function, oldest first.
// Only the newest guard's bytes are in the function's entry.
var (
	patchedMu sync.Mutex
	patched   = map[uintptr][]*Guard{}
)

// Guard undoes one patch. It is created armed and released at most once:
// the target gets its original bytes back and the trampoline is unmapped.
// Guards on the same function may be released in any order.
//
// Sessions release their guards when they end, so calling Release is only
// needed to restore a function early.
type Guard struct {
	target   codeAddr
	original []byte
	tramp    *block
	alloc    *nearAllocator
	log      *zap.Logger

	// keep holds the replacement func so its closure outlives the patch.
	keep any

	once sync.Once
}

// Release restores the original function. Calls after the first do
// nothing.
//
// No goroutine may be running the patched function while it is restored.
func (g *Guard) Release() {
	g.once.Do(g.restore)
}

func (g *Guard) restore() {
	patchedMu.Lock()
	defer patchedMu.Unlock()

	pc := g.target.pc()
	stack := patched[pc]
	i := slices.Index(stack, g)
	switch {
	case i < 0:
		panic(errors.AssertionFailedf("guard for %#x is not registered", pc))
	case i == len(stack)-1:
		patchCode(g.target, g.original)
	default:
		// The newer patch saved a branch into our trampoline, it restores
		// what we found instead.
		stack[i+1].original = g.original
	}

	if stack = slices.Delete(stack, i, i+1); len(stack) == 0 {
		delete(patched, pc)
	} else {
		patched[pc] = stack
	}

	g.alloc.free(g.tramp)

	g.log.Debug("restored function",
		zap.String("func", g.target.name()),
		hexField("target", g.target.pc()),
		hexField("trampoline", g.tramp.addr))

	g.keep = nil
	g.tramp = nil
}
