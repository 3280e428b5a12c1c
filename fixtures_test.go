package hotpatch

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

// The functions patched in tests call out to other packages so they are
// never too small to patch and never inlined.

//go:noinline
func six() int {
	n, _ := strconv.Atoi("6")
	return n
}

func nine() int {
	return 9
}

//go:noinline
func fortyTwo() int {
	n, _ := strconv.Atoi("42")
	return n
}

//go:noinline
func isReady() bool {
	return strings.Contains(strconv.Itoa(os.Getpid()), "-")
}

//go:noinline
func greet(name string) string {
	return fmt.Sprintf("hello %s", name)
}

//go:noinline
func multipleReturns(x int) (int, string, error) {
	return x * 2, "original" + strconv.Itoa(x), nil
}

type counter struct {
	history []string
	n       int
}

//go:noinline
func (c *counter) Add(delta int) int {
	c.n += delta
	c.history = append(c.history, strconv.Itoa(delta))
	return c.n
}

// entryBytes copies the first patchSize bytes of fn.
func entryBytes(fn any) []byte {
	code := targetOf(reflect.ValueOf(fn)).bytes(patchSize)
	return append([]byte(nil), code...)
}

func pcOf(fn any) uintptr {
	return reflect.ValueOf(fn).Pointer()
}

// requirePanicIs runs fn and requires it to panic with an error matching
// target.
func requirePanicIs(t *testing.T, target error, fn func()) error {
	t.Helper()

	var recovered any
	func() {
		defer func() { recovered = recover() }()
		fn()
	}()

	require.NotNil(t, recovered, "expected a panic")
	err, ok := recovered.(error)
	require.True(t, ok, "panic value %T is not an error: %v", recovered, recovered)
	require.True(t, errors.Is(err, target), "%q is not %q", err, target)
	return err
}

// countingMapper records what the allocator maps and unmaps.
type countingMapper struct {
	mapper

	mu       sync.Mutex
	mapped   []uintptr
	unmapped map[uintptr]int
}

func newCountingMapper(m mapper) *countingMapper {
	return &countingMapper{mapper: m, unmapped: map[uintptr]int{}}
}

func (c *countingMapper) mapAt(hint uintptr, size int) (uintptr, error) {
	addr, err := c.mapper.mapAt(hint, size)
	if err == nil {
		c.mu.Lock()
		c.mapped = append(c.mapped, addr)
		c.mu.Unlock()
	}
	return addr, err
}

func (c *countingMapper) unmap(addr uintptr, size int) error {
	c.mu.Lock()
	c.unmapped[addr]++
	c.mu.Unlock()
	return c.mapper.unmap(addr, size)
}

func (c *countingMapper) unmapCount(addr uintptr) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unmapped[addr]
}
