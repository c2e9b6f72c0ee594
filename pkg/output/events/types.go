// Package events defines the event types flowing from the analysis
// pipeline to the output writers. All events are designed for JSON
// serialization.
//
// BaseEvent is embedded in every concrete event type; writers switch
// on the concrete type and use SupportsEvent to opt out of types they
// do not render.
package events

import (
	"time"

	"github.com/segmatrix/segmatrix/pkg/tier"
)

// EventType represents the type of output event.
type EventType string

const (
	// EventTypeSegment describes one loaded segment.
	EventTypeSegment EventType = "segment"
	// EventTypeHost carries one classified host row.
	EventTypeHost EventType = "host"
	// EventTypeMatrix carries run totals, concerns, and timing; it is
	// always the last event of a run.
	EventTypeMatrix EventType = "matrix"
)

// Tier is the host classification carried on host events.
// Type alias so writers compare against tier constants directly.
type Tier = tier.Tier

const (
	// TierNormal marks a host reached by exactly one segment.
	TierNormal = tier.Normal
	// TierElevated marks a host reached by multiple same-side segments.
	TierElevated = tier.Elevated
	// TierCritical marks a host reached across the PCI boundary.
	TierCritical = tier.Critical
)

// Event is the base interface for all events.
type Event interface {
	EventType() EventType
	Timestamp() time.Time
	RunID() string
}

// BaseEvent contains common fields for all events.
// It is designed to be embedded in specific event types.
type BaseEvent struct {
	Type EventType `json:"type"`
	Time time.Time `json:"timestamp"`
	Run  string    `json:"run_id"`
}

// EventType returns the type of this event.
func (e BaseEvent) EventType() EventType { return e.Type }

// Timestamp returns when this event occurred.
func (e BaseEvent) Timestamp() time.Time { return e.Time }

// RunID returns the unique identifier for the run that produced this
// event.
func (e BaseEvent) RunID() string { return e.Run }
