package hotpatch

import _ "unsafe"

// The types below mirror the start of their runtime counterparts in
// runtime/runtime2.go and runtime/symtab.go. Only the leading fields that
// are read here are declared; the rest of each struct is never touched.

type funcInfo struct {
	*_func
	datap *moduledata
}

type _func struct {
	entryOff uint32 // start pc, as offset from moduledata.text
	nameOff  int32
}

// moduledata is written by the linker. Changes to the runtime's layout up
// to etext must be mirrored here.
type moduledata struct {
	pcHeader     uintptr
	funcnametab  []byte
	cutab        []uint32
	filetab      []byte
	pctab        []byte
	pclntable    []byte
	ftab         []functab
	findfunctab  uintptr
	minpc, maxpc uintptr

	text, etext uintptr
}

// functab is sorted by entryoff. The last entry marks the end of text.
type functab struct {
	entryoff uint32 // relative to moduledata.text
	funcoff  uint32
}

//go:linkname findfunc runtime.findfunc
func findfunc(pc uintptr) funcInfo
