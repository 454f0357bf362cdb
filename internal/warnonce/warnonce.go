// Package warnonce provides a deduplicating warning logger, grounded on the
// `re_log::warn_once!` call sites in
// original_source/crates/store/re_chunk_store/src/writes.rs and
// original_source/crates/store/re_log_encoding/src/rrd/decoder/state_machine.rs.
// A message template is logged the first time it is seen and silently
// dropped on every subsequent call, so a stream of duplicate-ChunkId
// reinsertions or legacy-message drops does not spam the log.
package warnonce

import (
	"sync"

	"go.uber.org/zap"
)

var (
	logger *zap.Logger
	once   sync.Once

	seenMu sync.Mutex
	seen   = map[string]struct{}{}
)

func lazyLogger() *zap.Logger {
	once.Do(func() {
		l, err := zap.NewProduction()
		if err != nil {
			l = zap.NewNop()
		}
		logger = l
	})
	return logger
}

// Warn logs msg with the given zap fields, but only the first time msg is
// seen. msg is used verbatim as the dedup key, so callers should pass a
// static template (not one already interpolated with per-call data) unless
// they genuinely want every distinct value to warn once on its own.
func Warn(msg string, fields ...zap.Field) {
	seenMu.Lock()
	_, already := seen[msg]
	if !already {
		seen[msg] = struct{}{}
	}
	seenMu.Unlock()

	if already {
		return
	}
	lazyLogger().Warn(msg, fields...)
}

// SetLogger overrides the package logger, used by tests that want to
// assert on emitted warnings without touching global zap state.
func SetLogger(l *zap.Logger) {
	once.Do(func() {})
	logger = l
}
