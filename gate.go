package hotpatch

// Gate allows one patch session at a time. Code is shared by the whole
// process, so sessions normally use the package-level gate; tests can give
// sessions a private one with WithGate.
//
// A Gate never stays locked because a session panicked. With and Test
// release their session on every exit path and a failed patch leaves its
// session usable.
type Gate struct {
	ch chan struct{}
}

var defaultGate = NewGate()

// NewGate returns an unlocked gate.
func NewGate() *Gate {
	return &Gate{ch: make(chan struct{}, 1)}
}

func (g *Gate) acquire() {
	g.ch <- struct{}{}
}

func (g *Gate) release() {
	select {
	case <-g.ch:
	default:
		panic("hotpatch: release of unlocked gate")
	}
}

// Wait blocks until no session holds g.
func (g *Gate) Wait() {
	g.acquire()
	g.release()
}

// Wait blocks until no session holds the process-wide gate.
func Wait() {
	defaultGate.Wait()
}
