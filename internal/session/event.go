package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/alnah/vidsub/internal/logging"
)

// Stage names a step of the pipeline.
type Stage string

// Pipeline stages.
const (
	StageUpload     Stage = "upload"
	StageExtract    Stage = "extract"
	StageTranscribe Stage = "transcribe"
	StageFormat     Stage = "format"
	StageClear      Stage = "clear"
)

// Level is the severity of a user-facing message.
type Level string

// Message levels.
const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Event is a progress message shown to the user.
type Event struct {
	RequestID string    `json:"request_id,omitempty"`
	Stage     Stage     `json:"stage"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	Time      time.Time `json:"time"`
}

// Reporter receives events as the pipeline runs. Implementations must be
// safe for concurrent use.
type Reporter interface {
	Report(Event)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(Event)

// Report calls f(e).
func (f ReporterFunc) Report(e Event) { f(e) }

// Collector keeps every event in order.
type Collector struct {
	mu     sync.Mutex
	events []Event
}

// Report appends e.
func (c *Collector) Report(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

// Events returns a copy of the collected events.
func (c *Collector) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

// Count returns how many events have the given level.
func (c *Collector) Count(level Level) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.events {
		if e.Level == level {
			n++
		}
	}
	return n
}

// Multi fans events out to every non-nil reporter.
func Multi(reporters ...Reporter) Reporter {
	var rs []Reporter
	for _, r := range reporters {
		if r != nil {
			rs = append(rs, r)
		}
	}
	return ReporterFunc(func(e Event) {
		for _, r := range rs {
			r.Report(e)
		}
	})
}

// LogReporter writes events to logger.
func LogReporter(logger *slog.Logger) Reporter {
	if logger == nil {
		logger = logging.NewNop()
	}
	return ReporterFunc(func(e Event) {
		level := slog.LevelInfo
		switch e.Level {
		case LevelWarning:
			level = slog.LevelWarn
		case LevelError:
			level = slog.LevelError
		}
		logger.Log(context.Background(), level, e.Message,
			slog.String(logging.FieldRequestID, e.RequestID),
			slog.String(logging.FieldStage, string(e.Stage)),
		)
	})
}
