// Package testfuncs holds assembly functions with a known size for tests.
package testfuncs

// RetOnly is a single return instruction.
func RetOnly()

// RetOnlyPC returns the address of RetOnly's assembly body. Go code calling
// RetOnly goes through an ABI wrapper, so the func value's pointer is not
// the same code.
func RetOnlyPC() uintptr
