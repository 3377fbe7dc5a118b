package openlime

import (
	"log"
)

// globalDebug gates diagnostic logging. openlime is a hot-path rendering
// library, not an instrumented service: logging is a debug escape hatch at
// cache eviction / fetch-failure / shader-recompile boundaries, never on
// the per-frame draw path. No structured logger is used (matching the
// teacher's own stance: see the "no sync.Once — willow is single-threaded"
// comments throughout atlas.go/filter.go for the same zero-ceremony style).
var globalDebug bool

// SetDebug enables or disables diagnostic logging to stderr via the
// standard [log] package.
func SetDebug(enabled bool) {
	globalDebug = enabled
}

// debugf logs a formatted diagnostic message when debug logging is enabled.
func debugf(format string, args ...any) {
	if globalDebug {
		log.Printf("openlime: "+format, args...)
	}
}
