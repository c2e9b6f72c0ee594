// Package dispatcher provides the central event routing for output.
// It receives events from the analysis pipeline and routes them to
// registered writers and hooks. Writers produce the report formats
// (terminal, HTML, JSON, ...), while hooks observe the stream for
// cross-cutting concerns such as diagnostic logging.
//
// Unlike a streaming scanner, a matrix run is all-or-nothing: any
// writer or hook failure aborts the run, so Dispatch and Close
// propagate errors instead of swallowing them.
package dispatcher

import (
	"errors"
	"fmt"
	"sync"

	"github.com/segmatrix/segmatrix/pkg/output/events"
)

// Writer is the interface for all output writers.
// Writers are responsible for rendering events into an output format
// such as the terminal table, HTML, JSON, CSV, or PDF.
type Writer interface {
	// Write writes an event to the output.
	Write(event events.Event) error

	// Flush ensures all buffered events are written.
	Flush() error

	// Close closes the writer and releases any resources. Buffering
	// writers render their complete document here.
	Close() error

	// SupportsEvent returns true if the writer handles this event type.
	SupportsEvent(eventType events.EventType) bool
}

// Hook observes events before they reach the writers.
// Return nil or an empty slice from EventTypes to receive all events.
type Hook interface {
	// OnEvent is called for each matching event.
	OnEvent(event events.Event) error

	// EventTypes returns the event types this hook handles.
	EventTypes() []events.EventType
}

// Dispatcher routes events to writers and hooks.
// It is safe for concurrent use, though a matrix run drives it from a
// single goroutine.
type Dispatcher struct {
	writers []Writer
	hooks   []Hook
	mu      sync.RWMutex
}

// New creates an empty dispatcher.
func New() *Dispatcher {
	return &Dispatcher{}
}

// RegisterWriter adds a writer to the dispatcher.
// Writers receive events that match their SupportsEvent filter.
func (d *Dispatcher) RegisterWriter(w Writer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.writers = append(d.writers, w)
}

// RegisterHook adds a hook to the dispatcher.
// Hooks receive events that match their EventTypes filter, before any
// writer sees them.
func (d *Dispatcher) RegisterHook(h Hook) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hooks = append(d.hooks, h)
}

// Dispatch sends an event to all registered hooks and writers. The
// first failure aborts the dispatch and is returned to the caller.
func (d *Dispatcher) Dispatch(event events.Event) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, h := range d.hooks {
		if !hookSupportsEvent(h, event.EventType()) {
			continue
		}
		if err := h.OnEvent(event); err != nil {
			return fmt.Errorf("dispatcher: hook: %w", err)
		}
	}

	for _, w := range d.writers {
		if !w.SupportsEvent(event.EventType()) {
			continue
		}
		if err := w.Write(event); err != nil {
			return fmt.Errorf("dispatcher: write %s event: %w", event.EventType(), err)
		}
	}

	return nil
}

// Flush flushes all registered writers, collecting every failure.
func (d *Dispatcher) Flush() error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var errs []error
	for _, w := range d.writers {
		if err := w.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close flushes and closes all writers in registration order,
// collecting every failure. Buffering writers render their documents
// here, so Close errors are real output failures, not cleanup noise.
// After Close the dispatcher must not be used.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []error
	for _, w := range d.writers {
		if err := w.Flush(); err != nil {
			errs = append(errs, err)
		}
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// hookSupportsEvent checks if a hook handles the given event type.
func hookSupportsEvent(h Hook, eventType events.EventType) bool {
	types := h.EventTypes()
	if len(types) == 0 {
		return true
	}
	for _, et := range types {
		if et == eventType {
			return true
		}
	}
	return false
}
