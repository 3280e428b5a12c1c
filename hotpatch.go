package hotpatch

import (
	"reflect"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Session holds the gate for a series of patches and undoes them all when
// it is released.
//
// A Session is meant to be used from one goroutine. Patches apply to the
// whole process, so code running on other goroutines sees them too.
type Session struct {
	gate *Gate
	p    patcher
	log  *zap.Logger

	mu       sync.Mutex
	guards   []*Guard
	released bool
}

// Begin waits for the gate and starts a session. The caller must call
// Release, normally with defer.
func Begin(opts ...Option) *Session {
	o := buildOptions(opts)

	o.gate.acquire()

	return &Session{
		gate: o.gate,
		p:    newPatcher(newEngine(o.mapper, o.log, o.disasm)),
		log:  o.log,
	}
}

// Test starts a session that ends when tb and its subtests complete.
func Test(tb testing.TB, opts ...Option) *Session {
	tb.Helper()

	s := Begin(opts...)
	tb.Cleanup(s.Release)
	return s
}

// With runs fn in a new session and releases it when fn returns or panics.
func With(fn func(*Session), opts ...Option) {
	s := Begin(opts...)
	defer s.Release()

	fn(s)
}

// Redirect replaces target with newFn until the session ends or the
// returned guard is released. Both must be functions with the same
// signature. newFn may be a closure.
//
// Inlined calls to target are not affected. If possible, add a noinline
// directive to the target:
//
//	//go:noinline
//	func myfunc() {
//		...
//	}
//
// Redirect panics if either argument is not a function, if the signatures
// differ or if target can't be patched.
func (s *Session) Redirect(target, newFn any) *Guard {
	s.checkActive()

	tv := funcOf(target)
	rv := funcOf(newFn)
	if diff := diffSignatures(tv.Type(), rv.Type()); diff != nil {
		panic(errors.Wrapf(ErrSignatureMismatch, "%v != %v: %v", tv.Type(), rv.Type(), diff))
	}

	return s.track(s.p.redirect(targetOf(tv), replacementOf(newFn)))
}

// ReturnBool makes target return value on every call until the session
// ends or the returned guard is released. target must be a function with a
// single bool result. Its arguments are ignored and its body never runs.
func (s *Session) ReturnBool(target any, value bool) *Guard {
	s.checkActive()

	tv := funcOf(target)
	if t := tv.Type(); t.NumOut() != 1 || t.Out(0).Kind() != reflect.Bool {
		panic(errors.Wrapf(ErrNotBool, "%v", t))
	}

	return s.track(s.p.returnBool(targetOf(tv), value))
}

// RedirectPC patches the code at target to jump to dest. Both are raw code
// addresses and nothing checks that the calling conventions agree; dest
// runs without a closure context.
func (s *Session) RedirectPC(target, dest uintptr) *Guard {
	s.checkActive()

	to := replacement{entry: mustCodeAddr(dest)}
	return s.track(s.p.redirect(mustCodeAddr(target), to))
}

// ReturnBoolPC is ReturnBool for a raw code address. The result is set in
// the register-based ABI's result register, so target must be compiled Go
// code. Assembly functions return on the stack and would see garbage.
func (s *Session) ReturnBoolPC(target uintptr, value bool) *Guard {
	s.checkActive()

	return s.track(s.p.returnBool(mustCodeAddr(target), value))
}

// Release restores every function patched in the session, newest first,
// and opens the gate for the next session. Calls after the first do
// nothing.
func (s *Session) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return
	}
	s.released = true

	// The gate opens even if a restore panics.
	defer s.gate.release()

	for i := len(s.guards) - 1; i >= 0; i-- {
		s.guards[i].Release()
	}
	s.log.Debug("session released", zap.Int("patches", len(s.guards)))
	s.guards = nil
}

func (s *Session) checkActive() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		panic(ErrSessionReleased)
	}
}

func (s *Session) track(g *Guard) *Guard {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.guards = append(s.guards, g)
	return g
}
