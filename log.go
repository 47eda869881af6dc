package sailfish

import (
	"github.com/juju/loggo"
)

// logger replaces pongo2's stdlib log.Logger (pongo2_options.go) with
// juju/loggo, matching the rest of the package's error/logging stack.
var logger = loggo.GetLogger("sailfish")

var debugEnabled bool

// SetDebug toggles compile-time trace logging, the same switch the
// teacher's SetDebug controlled, now routed through loggo's level instead
// of a homegrown bool-guarded logger.
func SetDebug(b bool) {
	debugEnabled = b
	if b {
		logger.SetLogLevel(loggo.TRACE)
	} else {
		logger.SetLogLevel(loggo.WARNING)
	}
}

// logf emits a package-internal trace line, a no-op unless SetDebug(true)
// was called.
func logf(format string, args ...interface{}) {
	if debugEnabled {
		logger.Tracef(format, args...)
	}
}

// Logf emits a tagged trace line identifying the compiler stage (parser,
// translator, resolver, optimizer) that produced it.
func Logf(stage string, format string, args ...interface{}) {
	if debugEnabled {
		logger.Tracef("[%s] "+format, append([]interface{}{stage}, args...)...)
	}
}
