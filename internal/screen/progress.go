package screen

import (
	"log/slog"
	"sync"
)

// ProgressEvent is one entry in the append-only progress stream emitted
// after each record reaches a terminal state. The core never reads these
// back; presentation layers consume them.
type ProgressEvent struct {
	Completed int                   `json:"records_completed"`
	Total     int                   `json:"records_total"`
	Failed    int                   `json:"records_failed"`
	Counts    map[DecisionClass]int `json:"counts"`
}

// ProgressSink receives progress events. Implementations must tolerate
// concurrent publishes.
type ProgressSink interface {
	Publish(ev ProgressEvent)
}

// NopSink discards all progress events.
type NopSink struct{}

func (NopSink) Publish(ProgressEvent) {}

// LogSink writes progress events to a structured logger.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Publish(ev ProgressEvent) {
	s.Logger.Info("progress",
		"completed", ev.Completed,
		"total", ev.Total,
		"failed", ev.Failed,
		"include", ev.Counts[DecideInclude],
		"exclude", ev.Counts[DecideExclude],
		"human_review", ev.Counts[DecideHumanReview],
	)
}

// CollectSink appends every event to an in-memory log, for tests and for
// the MCP session's get_progress tool.
type CollectSink struct {
	mu     sync.Mutex
	events []ProgressEvent
}

func (s *CollectSink) Publish(ev ProgressEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

// Events returns a copy of the collected stream.
func (s *CollectSink) Events() []ProgressEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ProgressEvent, len(s.events))
	copy(out, s.events)
	return out
}

// Latest returns the most recent event, or a zero event when none exist.
func (s *CollectSink) Latest() ProgressEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.events) == 0 {
		return ProgressEvent{}
	}
	return s.events[len(s.events)-1]
}
