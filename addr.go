package hotpatch

import (
	"reflect"
	"runtime"
	"strings"
	"unsafe"

	"github.com/cockroachdb/errors"
)

// codeAddr points at machine code that may be overwritten. newCodeAddr is
// the only way to build one.
type codeAddr struct {
	p unsafe.Pointer
}

func newCodeAddr(pc uintptr) (codeAddr, error) {
	if pc == 0 {
		return codeAddr{}, ErrNullAddress
	}
	if pc%instructionAlign != 0 {
		return codeAddr{}, errors.Wrapf(ErrMisaligned, "%#x is not %d-byte aligned", pc, instructionAlign)
	}
	return codeAddr{p: unsafe.Pointer(pc)}, nil
}

func mustCodeAddr(pc uintptr) codeAddr {
	addr, err := newCodeAddr(pc)
	if err != nil {
		panic(err)
	}
	return addr
}

func (a codeAddr) pc() uintptr {
	return uintptr(a.p)
}

// bytes returns the n bytes of code starting at a.
func (a codeAddr) bytes(n int) []byte {
	return unsafe.Slice((*byte)(a.p), n)
}

// name returns the symbol of the function at a, or "" if it isn't a Go
// function.
func (a codeAddr) name() string {
	if fn := runtime.FuncForPC(a.pc()); fn != nil {
		return fn.Name()
	}
	return ""
}

// replacement is where a redirected call ends up. closure is the funcval
// the code expects in the context register, nil for raw addresses.
type replacement struct {
	entry   codeAddr
	closure unsafe.Pointer
	keep    any
}

// funcOf validates fn and returns its reflect value.
func funcOf(fn any) reflect.Value {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		panic(errors.Wrapf(ErrNotAFunction, "kind: %v", v.Kind()))
	}
	if v.IsNil() {
		panic(errors.Wrapf(ErrNullAddress, "nil %v", v.Type()))
	}
	return v
}

// targetOf returns the entry point of fn.
//
// A method value's code is a wrapper that calls the method, or for reflect
// method values a stub shared by all of them. Patching either would miss
// direct calls to the method.
func targetOf(fn reflect.Value) codeAddr {
	addr := mustCodeAddr(fn.Pointer())
	if name := addr.name(); name == "reflect.methodValueCall" || strings.HasSuffix(name, "-fm") {
		panic(errors.Wrap(ErrNotAFunction, "method values cannot be patched, use a method expression"))
	}
	return addr
}

// replacementOf returns the entry point and funcval of fn. fn must be the
// value passed in by the caller, not a copy made by reflect.
func replacementOf(fn any) replacement {
	v := funcOf(fn)

	// A func value in an interface is stored directly, as a pointer to its
	// funcval.
	fv := (*[2]unsafe.Pointer)(unsafe.Pointer(&fn))[1]

	return replacement{
		entry:   mustCodeAddr(v.Pointer()),
		closure: fv,
		keep:    fn,
	}
}
