package writers

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/segmatrix/segmatrix/pkg/jsonutil"
	"github.com/segmatrix/segmatrix/pkg/output/dispatcher"
	"github.com/segmatrix/segmatrix/pkg/output/events"
)

// Compile-time interface check.
var _ dispatcher.Writer = (*JSONWriter)(nil)

// JSONWriter writes the run as a single JSON document.
// Unlike JSONLWriter which streams events one per line, this writer
// buffers the run and writes one object on Close: segments, hosts,
// totals, concerns, fingerprint, and timing. This is the shape meant
// for downstream tooling that wants the whole matrix at once.
type JSONWriter struct {
	w    io.Writer
	mu   sync.Mutex
	opts JSONOptions

	segments []*events.SegmentEvent
	hosts    []*events.HostEvent
	matrix   *events.MatrixEvent
}

// JSONOptions configures the JSON writer behavior.
type JSONOptions struct {
	// Pretty enables indented JSON output.
	Pretty bool

	// IndentSize sets the number of spaces for indentation (default 2).
	IndentSize int
}

// jsonDocument is the exported run shape. Field order matches the
// reading order of the other reports: classification first, then
// rows, then the aggregate view.
type jsonDocument struct {
	Version     string               `json:"version"`
	RunID       string               `json:"run_id"`
	Directory   string               `json:"directory"`
	Segments    []events.SegmentInfo `json:"segments"`
	Hosts       []events.HostInfo    `json:"hosts"`
	Totals      events.MatrixTotals  `json:"totals"`
	Concerns    []events.ConcernInfo `json:"concerns"`
	Fingerprint string               `json:"fingerprint"`
	Timing      events.MatrixTiming  `json:"timing"`
}

// NewJSONWriter creates a new JSON document writer that writes to w.
// The writer buffers all events and writes the document on Close.
// The writer is safe for concurrent use.
func NewJSONWriter(w io.Writer, opts JSONOptions) *JSONWriter {
	if opts.IndentSize == 0 {
		opts.IndentSize = 2
	}
	return &JSONWriter{
		w:    w,
		opts: opts,
	}
}

// Write buffers an event for the document written on Close.
func (jw *JSONWriter) Write(event events.Event) error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	switch e := event.(type) {
	case *events.SegmentEvent:
		jw.segments = append(jw.segments, e)
	case *events.HostEvent:
		jw.hosts = append(jw.hosts, e)
	case *events.MatrixEvent:
		jw.matrix = e
	}
	return nil
}

// Flush is a no-op for JSON writer.
// The document is written once on Close.
func (jw *JSONWriter) Flush() error {
	return nil
}

// Close writes the buffered run as one JSON document.
// If the underlying writer implements io.Closer, it will be closed.
func (jw *JSONWriter) Close() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	doc := jsonDocument{
		Segments: make([]events.SegmentInfo, 0, len(jw.segments)),
		Hosts:    make([]events.HostInfo, 0, len(jw.hosts)),
		Concerns: []events.ConcernInfo{},
	}
	for _, s := range jw.segments {
		doc.Segments = append(doc.Segments, s.Segment)
	}
	for _, h := range jw.hosts {
		doc.Hosts = append(doc.Hosts, h.Host)
	}
	if m := jw.matrix; m != nil {
		doc.Version = m.Version
		doc.RunID = m.RunID()
		doc.Directory = m.Directory
		doc.Totals = m.Totals
		if m.Concerns != nil {
			doc.Concerns = m.Concerns
		}
		doc.Fingerprint = m.Fingerprint
		doc.Timing = m.Timing
	}

	encoder := jsonutil.NewStreamEncoder(jw.w)
	if jw.opts.Pretty {
		indent := strings.Repeat(" ", jw.opts.IndentSize)
		encoder.SetIndent("", indent)
	}

	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("json: encode: %w", err)
	}

	if closer, ok := jw.w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// SupportsEvent returns true for segment, host, and matrix events.
func (jw *JSONWriter) SupportsEvent(eventType events.EventType) bool {
	switch eventType {
	case events.EventTypeSegment, events.EventTypeHost, events.EventTypeMatrix:
		return true
	default:
		return false
	}
}
