// Package mplog hands out named loggers in the style of the teacher's
// repologging.Logger(name) helper, rebuilt on go.uber.org/zap. Callers
// declare one package-level logger per package that needs to log; the
// allocator core (package pool) deliberately has none.
package mplog

import (
	"sync"

	"go.uber.org/zap"
)

var (
	mu      sync.Mutex
	base    *zap.SugaredLogger
	loggers = map[string]*zap.SugaredLogger{}
)

func root() *zap.SugaredLogger {
	mu.Lock()
	defer mu.Unlock()

	if base == nil {
		l, err := zap.NewProduction()
		if err != nil {
			l = zap.NewNop()
		}

		base = l.Sugar()
	}

	return base
}

// Logger returns a cached logger named name, e.g. "mempool/registry".
func Logger(name string) *zap.SugaredLogger {
	mu.Lock()
	if l, ok := loggers[name]; ok {
		mu.Unlock()
		return l
	}
	mu.Unlock()

	l := root().Named(name)

	mu.Lock()
	loggers[name] = l
	mu.Unlock()

	return l
}

// SetForTesting swaps the root logger, returning a restore function.
// Tests use this to silence or capture log output. Only loggers
// obtained from Logger after the swap use the new root; a logger
// handed out earlier (such as a package-level var) keeps the old one.
func SetForTesting(l *zap.SugaredLogger) func() {
	mu.Lock()
	prev := base
	prevLoggers := loggers
	base = l
	loggers = map[string]*zap.SugaredLogger{}
	mu.Unlock()

	return func() {
		mu.Lock()
		base = prev
		loggers = prevLoggers
		mu.Unlock()
	}
}
