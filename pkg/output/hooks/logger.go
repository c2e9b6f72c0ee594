// Package hooks provides dispatcher hooks that observe the event
// stream for cross-cutting concerns. Hooks run before writers and
// never produce report output themselves.
package hooks

import (
	"github.com/charmbracelet/log"

	"github.com/segmatrix/segmatrix/pkg/output/dispatcher"
	"github.com/segmatrix/segmatrix/pkg/output/events"
)

// Compile-time interface check.
var _ dispatcher.Hook = (*LoggerHook)(nil)

// LoggerHook writes one debug line for every event crossing the
// dispatcher. It is the diagnostic tap behind -verbose: writers stay
// silent about individual events, the hook narrates them.
type LoggerHook struct {
	logger *log.Logger
}

// LoggerHookOptions configures the logger hook.
type LoggerHookOptions struct {
	// Logger for leveled logging (default: log.Default()).
	Logger *log.Logger
}

// NewLoggerHook creates a new logger hook.
func NewLoggerHook(opts LoggerHookOptions) *LoggerHook {
	return &LoggerHook{
		logger: orDefault(opts.Logger),
	}
}

// orDefault returns l if non-nil, otherwise log.Default().
func orDefault(l *log.Logger) *log.Logger {
	if l != nil {
		return l
	}
	return log.Default()
}

// OnEvent logs one debug line describing the event.
func (h *LoggerHook) OnEvent(event events.Event) error {
	switch e := event.(type) {
	case *events.SegmentEvent:
		h.logger.Debug("segment loaded",
			"name", e.Segment.Name,
			"type", e.Segment.Type,
			"hosts", e.Segment.HostCount,
			"source", e.Segment.Source)
	case *events.HostEvent:
		h.logger.Debug("host classified",
			"address", e.Host.Address,
			"tier", e.Host.Tier,
			"segments", len(e.Host.Segments))
	case *events.MatrixEvent:
		h.logger.Debug("matrix complete",
			"segments", e.Totals.Segments,
			"hosts", e.Totals.Hosts,
			"elevated", e.Totals.ElevatedHosts,
			"critical", e.Totals.CriticalHosts,
			"concerns", len(e.Concerns),
			"fingerprint", e.Fingerprint,
			"duration_sec", e.Timing.DurationSec)
	default:
		h.logger.Debug("event", "type", event.EventType())
	}
	return nil
}

// EventTypes returns nil: the hook observes every event.
func (h *LoggerHook) EventTypes() []events.EventType {
	return nil
}
