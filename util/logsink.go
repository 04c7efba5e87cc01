package util

import (
	"fmt"
	"strings"

	"github.com/go-logr/logr"
)

// Logr exposes the Logger through the logr interface the protocol core
// is written against.  logr V-levels map onto verbosity: V(0) is
// [LogVerbose], V(1) and above are [LogDebug].  Errors always print.
func (l *Logger) Logr() logr.Logger {
	return logr.New(&logSink{l: l})
}

type logSink struct {
	l      *Logger
	values []interface{}
}

var _ logr.LogSink = (*logSink)(nil)

func (s *logSink) Init(logr.RuntimeInfo) {}

func (s *logSink) Enabled(level int) bool {
	return s.l.level >= sinkLevel(level)
}

func (s *logSink) Info(level int, msg string, keysAndValues ...interface{}) {
	line := msg + formatPairs(s.values, keysAndValues)
	if sinkLevel(level) == LogVerbose {
		s.l.Verbose("%s", line)
	} else {
		s.l.Debug("%s", line)
	}
}

func (s *logSink) Error(err error, msg string, keysAndValues ...interface{}) {
	s.l.Error("%s: %v%s", msg, err, formatPairs(s.values, keysAndValues))
}

func (s *logSink) WithValues(keysAndValues ...interface{}) logr.LogSink {
	values := make([]interface{}, 0, len(s.values)+len(keysAndValues))
	values = append(values, s.values...)
	values = append(values, keysAndValues...)
	return &logSink{l: s.l, values: values}
}

func (s *logSink) WithName(name string) logr.LogSink {
	return &logSink{l: s.l.Named(name), values: s.values}
}

func sinkLevel(v int) LogLevel {
	if v <= 0 {
		return LogVerbose
	}
	return LogDebug
}

// formatPairs renders key/value pairs as " k=v k=v".
func formatPairs(lists ...[]interface{}) string {
	var b strings.Builder
	for _, kv := range lists {
		for i := 0; i < len(kv); i += 2 {
			b.WriteByte(' ')
			if i+1 < len(kv) {
				fmt.Fprintf(&b, "%v=%v", kv[i], kv[i+1])
			} else {
				fmt.Fprintf(&b, "%v=<missing>", kv[i])
			}
		}
	}
	return b.String()
}
