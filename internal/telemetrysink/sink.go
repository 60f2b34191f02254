// Package telemetrysink is the rate-limited facade tool execution emits
// events through. The real analytics backend is an external collaborator
// reached through the Sink interface; this package owns only the
// emission contract and its non-blocking, non-fatal-on-drop behavior.
package telemetrysink

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// EventKind enumerates the telemetry events the core emits.
type EventKind string

const (
	EventToolCompleted EventKind = "ToolCompleted"
	EventToolFailed    EventKind = "ToolFailed"
	EventServerStarted EventKind = "ServerStarted"
	EventError         EventKind = "Error"
)

// Event is one emitted telemetry record.
type Event struct {
	Kind        EventKind
	Tool        string
	DurationMs  int64
	ProfileHash string
	Error       string
	Timestamp   time.Time
}

// Sink receives emitted events. A real implementation forwards them to an
// analytics backend; the zero-value use case is the NoopSink.
type Sink interface {
	Emit(Event)
}

// NoopSink discards every event. It is the default sink when no
// collaborator is wired in.
type NoopSink struct{}

func (NoopSink) Emit(Event) {}

// Facade wraps a Sink with a rate limiter so that a burst of tool calls
// cannot overwhelm the downstream collaborator; events dropped by the
// limiter are silently discarded; emission never blocks or fails the
// caller.
type Facade struct {
	sink    Sink
	limiter *rateLimiter
	now     func() time.Time
}

// NewFacade wraps sink with a token-bucket limiter of the given
// rate (events/sec) and burst capacity. A nil sink defaults to NoopSink.
func NewFacade(sink Sink, rate float64, capacity int) *Facade {
	if sink == nil {
		sink = NoopSink{}
	}
	if rate <= 0 {
		rate = 50
	}
	if capacity <= 0 {
		capacity = 100
	}
	return &Facade{sink: sink, limiter: newRateLimiter(rate, capacity), now: time.Now}
}

// ProfileHash returns the 16-character truncated sha256 hex digest of a
// profile name, the identifier telemetry events carry instead of the raw
// name.
func ProfileHash(profileName string) string {
	sum := sha256.Sum256([]byte(profileName))
	return hex.EncodeToString(sum[:])[:16]
}

// ToolCompleted emits a success event for one tool execution. Failure to
// emit (rate-limited or otherwise) is non-fatal and never observed by
// the caller.
func (f *Facade) ToolCompleted(tool, profileName string, durationMs int64) {
	f.emit(Event{Kind: EventToolCompleted, Tool: tool, DurationMs: durationMs, ProfileHash: ProfileHash(profileName), Timestamp: f.now()})
}

// ToolFailed emits a failure event plus a companion Error event carrying
// the failure message, per the one-ToolFailed-plus-one-Error contract.
func (f *Facade) ToolFailed(tool, profileName string, durationMs int64, err error) {
	hash := ProfileHash(profileName)
	now := f.now()
	f.emit(Event{Kind: EventToolFailed, Tool: tool, DurationMs: durationMs, ProfileHash: hash, Timestamp: now})
	if err != nil {
		f.emit(Event{Kind: EventError, Tool: tool, ProfileHash: hash, Error: err.Error(), Timestamp: now})
	}
}

// ServerStarted emits a one-time startup event.
func (f *Facade) ServerStarted() {
	f.emit(Event{Kind: EventServerStarted, Timestamp: f.now()})
}

func (f *Facade) emit(e Event) {
	if !f.limiter.Allow() {
		return
	}
	f.sink.Emit(e)
}
