package hotpatch

import "go.uber.org/zap"

// Option configures a Session.
type Option func(*options)

type options struct {
	gate   *Gate
	log    *zap.Logger
	disasm bool
	mapper mapper
}

// WithGate makes the session wait on g instead of the process-wide gate.
// Sessions on different gates can patch at the same time, so each must
// only touch functions the others leave alone.
func WithGate(g *Gate) Option {
	return func(o *options) {
		o.gate = g
	}
}

// WithLogger sends the session's debug logs to log.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithDisassembly adds the disassembled trampoline and patched entry point
// to debug logs.
func WithDisassembly(enabled bool) Option {
	return func(o *options) {
		o.disasm = enabled
	}
}

// withMapper replaces the allocator's memory source. Used by tests.
func withMapper(m mapper) Option {
	return func(o *options) {
		o.mapper = m
	}
}

func buildOptions(opts []Option) options {
	log, disasm := defaultLogging()
	o := options{
		gate:   defaultGate,
		log:    log,
		disasm: disasm,
		mapper: osMapper{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
