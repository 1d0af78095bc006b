package paywall

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// AccessLogSink persists audit entries. Implementations live in the
// infrastructure layer; the core only ever hands entries off.
type AccessLogSink interface {
	Record(ctx context.Context, entry AccessLogEntry) error
}

const defaultLogBuffer = 256

// AccessLogger records grant/deny decisions fire-and-forget. Record never
// blocks the request path: entries are dropped if the buffer is full, and
// sink failures are swallowed after a warn-level log. Ordering across
// entries is not guaranteed.
type AccessLogger struct {
	sink    AccessLogSink
	entries chan AccessLogEntry
	done    chan struct{}
	once    sync.Once
	log     zerolog.Logger
}

func NewAccessLogger(sink AccessLogSink, buffer int, log zerolog.Logger) *AccessLogger {
	if buffer <= 0 {
		buffer = defaultLogBuffer
	}
	l := &AccessLogger{
		sink:    sink,
		entries: make(chan AccessLogEntry, buffer),
		done:    make(chan struct{}),
		log:     log.With().Str("component", "access-logger").Logger(),
	}
	go l.run()
	return l
}

// Record enqueues an entry without waiting for delivery.
func (l *AccessLogger) Record(entry AccessLogEntry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	select {
	case l.entries <- entry:
	default:
		l.log.Debug().
			Str("content_id", entry.ContentID).
			Msg("access log buffer full, entry dropped")
	}
}

// Close stops intake and drains buffered entries. Call once at shutdown.
func (l *AccessLogger) Close() {
	l.once.Do(func() {
		close(l.entries)
	})
	<-l.done
}

func (l *AccessLogger) run() {
	defer close(l.done)
	for entry := range l.entries {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := l.sink.Record(ctx, entry); err != nil {
			l.log.Warn().Err(err).
				Str("user_id", entry.UserID).
				Str("content_id", entry.ContentID).
				Str("decision", string(entry.Decision)).
				Msg("access log write failed, entry dropped")
		}
		cancel()
	}
}
