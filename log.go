package hotpatch

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

var defaultLogging = sync.OnceValues(func() (*zap.Logger, bool) {
	cfg := loadConfig()
	log, err := newLogger(cfg)
	if err != nil {
		panic(err)
	}
	return log, cfg.LogDisasm
})

// newLogger builds the logger used by sessions that don't set one.
func newLogger(cfg config) (*zap.Logger, error) {
	if cfg.LogLevel == "" {
		return zap.NewNop(), nil
	}

	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, errors.Wrap(err, "HOTPATCH_LOG_LEVEL")
	}

	zc := zap.NewDevelopmentConfig()
	zc.Level = level
	log, err := zc.Build()
	if err != nil {
		return nil, err
	}
	return log.Named("hotpatch"), nil
}

func hexField(key string, addr uintptr) zap.Field {
	return zap.String(key, fmt.Sprintf("%#x", addr))
}

// symbolAt resolves addresses in disassembly to Go function names.
func symbolAt(addr uint64) (string, uint64) {
	fn := runtime.FuncForPC(uintptr(addr))
	if fn == nil {
		return "", 0
	}
	return fn.Name(), uint64(fn.Entry())
}
