package hotpatch

import "sort"

// funcSize returns the number of bytes of code in the Go function whose
// entry point is addr, not counting the padding the linker adds after it.
// It returns 0 when addr isn't the entry point of a function in any loaded
// module.
func funcSize(addr codeAddr) int {
	pc := addr.pc()

	info := findfunc(pc)
	if info._func == nil || info.datap == nil {
		return 0
	}

	datap := info.datap
	entry := info.entryOff
	if datap.text+uintptr(entry) != pc {
		return 0
	}

	// The function ends where the next one starts.
	end := uint32(datap.etext - datap.text)
	i := sort.Search(len(datap.ftab), func(i int) bool {
		return datap.ftab[i].entryoff > entry
	})
	if i < len(datap.ftab) {
		end = min(end, datap.ftab[i].entryoff)
	}

	return len(trimPadding(addr.bytes(int(end - entry))))
}
