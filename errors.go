package hotpatch

import "github.com/cockroachdb/errors"

// Patching failures are not returned. They panic with an error wrapping one
// of these values, so a recovered panic can be checked with errors.Is.
var (
	ErrNotAFunction      = errors.New("not a function")
	ErrNullAddress       = errors.New("null function address")
	ErrMisaligned        = errors.New("misaligned function address")
	ErrSignatureMismatch = errors.New("function signatures do not match")
	ErrNotBool           = errors.New("function does not return a single bool")

	// ErrUnknownSize means the target isn't the entry point of a function
	// the runtime knows about.
	ErrUnknownSize    = errors.New("unable to determine function size")
	ErrTargetTooSmall = errors.New("function is too small to patch")

	ErrNoMemory   = errors.New("no executable memory within branch range")
	ErrOutOfRange = errors.New("trampoline out of branch range")
	ErrProtect    = errors.New("unable to change memory protection")

	ErrSessionReleased = errors.New("patch session already released")
)
