// Package metrics defines the observation sink the orchestrator and undo
// manager report into.
package metrics

import (
	"log/slog"
	"time"
)

// Recorder accepts duration and count observations keyed by operation type
type Recorder interface {
	ObserveDuration(operation string, d time.Duration)
	AddCount(operation string, n int)
}

// SlogRecorder logs observations through slog at debug level
type SlogRecorder struct{}

// ObserveDuration implements Recorder
func (SlogRecorder) ObserveDuration(operation string, d time.Duration) {
	slog.Debug("metric", "op", operation, "duration_ms", d.Milliseconds())
}

// AddCount implements Recorder
func (SlogRecorder) AddCount(operation string, n int) {
	slog.Debug("metric", "op", operation, "count", n)
}

// Nop discards all observations
type Nop struct{}

// ObserveDuration implements Recorder
func (Nop) ObserveDuration(string, time.Duration) {}

// AddCount implements Recorder
func (Nop) AddCount(string, int) {}
