// Package archlog is the conventional (non-realtime-safe) logging sink for
// archtone. It wraps charmbracelet/log the way application code on any
// thread other than the audio thread is expected to log; the audio thread
// itself only ever calls (*rt.Logger).Push on its own wait-free ring. A
// single background goroutine started with DrainRealtime owns draining
// that ring into this package's sink, converting each rt.LogRecord into
// a Record and routing it to For(record.Target).
package archlog

import (
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/archtone/archtone/rt"
)

// Level mirrors rt.LogLevel without making this package's exported
// surface depend on the realtime ring's internal representation.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Record is one forwarded log line: the level, the originating
// subsystem ("target"), the message text, and structured key/value
// annotations appended the way charmbracelet/log's variadic
// With/Info/Error arguments are (e.g. []any{"error", err}).
type Record struct {
	Level       Level
	Target      string
	Message     string
	Annotations []any
}

// Emit routes r to the scoped logger for r.Target — the same sink For
// returns — picking the charmbracelet/log method matching r.Level.
func Emit(r Record) {
	l := For(r.Target)
	switch r.Level {
	case LevelDebug:
		l.Debug(r.Message, r.Annotations...)
	case LevelWarn:
		l.Warn(r.Message, r.Annotations...)
	case LevelError:
		l.Error(r.Message, r.Annotations...)
	default:
		l.Info(r.Message, r.Annotations...)
	}
}

// DrainRealtime runs ring's drain loop until stop is closed, converting
// every record the audio thread pushed into a Record and Emit-ing it.
// It blocks, so callers run it on its own goroutine; it finishes
// draining whatever is already queued before returning, matching
// rt.Logger.RunDrain's own shutdown guarantee.
func DrainRealtime(ring *rt.Logger, stop <-chan struct{}) {
	ring.RunDrain(stop, func(rec rt.LogRecord) {
		Emit(recordFromRT(rec))
	})
}

func recordFromRT(rec rt.LogRecord) Record {
	var annotations []any
	if rec.DroppedSince > 0 {
		annotations = []any{"dropped_since", rec.DroppedSince}
	}
	return Record{
		Level:       levelFromRT(rec.Level),
		Target:      rec.Target,
		Message:     rec.Message,
		Annotations: annotations,
	}
}

func levelFromRT(l rt.LogLevel) Level {
	switch l {
	case rt.LogDebug:
		return LevelDebug
	case rt.LogWarn:
		return LevelWarn
	case rt.LogError:
		return LevelError
	default:
		return LevelInfo
	}
}

var (
	once    sync.Once
	root    *log.Logger
	rootMux sync.Mutex
)

func base() *log.Logger {
	once.Do(func() {
		root = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			ReportCaller:    false,
		})
	})
	return root
}

// For returns a logger scoped to target (a subsystem module path, e.g.
// "archtone/media" or "archtone/driver"), matching the "target" field the
// spec's log sink interface requires.
func For(target string) *log.Logger {
	rootMux.Lock()
	defer rootMux.Unlock()
	return base().With("target", target)
}

// SetOutput redirects the root logger, used by tests that want to assert
// on log content instead of writing to stderr.
func SetOutput(w io.Writer) {
	rootMux.Lock()
	defer rootMux.Unlock()
	once.Do(func() {})
	root = log.NewWithOptions(w, log.Options{ReportTimestamp: true})
}
