package hotpatch

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Patching one function while another goroutine keeps calling a different
// one must not disturb the caller, even when both share a page.
func TestPatchWhileOtherCodeRuns(t *testing.T) {
	cycles := 1000
	if testing.Short() {
		cycles = 100
	}

	var (
		stop  atomic.Bool
		calls atomic.Int64
		bad   atomic.Int64
		wg    sync.WaitGroup
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		for !stop.Load() {
			if fortyTwo() != 42 {
				bad.Add(1)
			}
			calls.Add(1)
		}
	}()

	for i := 0; i < cycles; i++ {
		With(func(s *Session) {
			s.Redirect(six, nine)
			if six() != 9 {
				t.Errorf("cycle %d: patch not applied", i)
			}
		})
		if six() != 6 {
			t.Fatalf("cycle %d: patch not restored", i)
		}
	}

	stop.Store(true)
	wg.Wait()

	assert.Zero(t, bad.Load())
	assert.Positive(t, calls.Load())
}

// Sessions on the shared gate patching from many goroutines never overlap.
func TestConcurrentSessions(t *testing.T) {
	var (
		wg     sync.WaitGroup
		active atomic.Int32
	)

	for iter := 0; iter < 8; iter++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for iter := 0; iter < 20; iter++ {
				With(func(s *Session) {
					if n := active.Add(1); n != 1 {
						t.Errorf("%d sessions active", n)
					}
					defer active.Add(-1)

					s.ReturnBool(isReady, true)
					if !isReady() {
						t.Error("patch not applied")
					}
				})
			}
		}()
	}

	wg.Wait()
	assert.False(t, isReady())
}
