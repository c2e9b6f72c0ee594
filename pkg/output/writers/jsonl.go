package writers

import (
	"io"
	"sync"

	"github.com/segmatrix/segmatrix/pkg/jsonutil"
	"github.com/segmatrix/segmatrix/pkg/output/dispatcher"
	"github.com/segmatrix/segmatrix/pkg/output/events"
)

// Compile-time interface check.
var _ dispatcher.Writer = (*JSONLWriter)(nil)

// JSONLWriter writes events as newline-delimited JSON (JSONL).
// Each event is serialized as a complete JSON object on a single line,
// making the stream greppable and jq-friendly while a run is still in
// progress.
type JSONLWriter struct {
	w       io.Writer
	mu      sync.Mutex
	opts    JSONLOptions
	encoder *jsonutil.Encoder
}

// JSONLOptions configures the JSONL writer behavior.
type JSONLOptions struct {
	// Pretty enables indented JSON output.
	// Note: This is not JSONL compliant but useful for debugging.
	Pretty bool
}

// NewJSONLWriter creates a new JSONL writer that writes to w.
// The writer is safe for concurrent use.
func NewJSONLWriter(w io.Writer, opts JSONLOptions) *JSONLWriter {
	encoder := jsonutil.NewStreamEncoder(w)
	if opts.Pretty {
		encoder.SetIndent("", "  ")
	}
	return &JSONLWriter{
		w:       w,
		opts:    opts,
		encoder: encoder,
	}
}

// Write writes an event as a single JSON line.
func (jw *JSONLWriter) Write(event events.Event) error {
	jw.mu.Lock()
	defer jw.mu.Unlock()
	return jw.encoder.Encode(event)
}

// Flush flushes any buffered data.
// JSONL writes immediately, so this is a no-op.
func (jw *JSONLWriter) Flush() error {
	return nil
}

// Close closes the writer and releases any resources.
// If the underlying writer implements io.Closer, it will be closed.
func (jw *JSONLWriter) Close() error {
	if closer, ok := jw.w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// SupportsEvent returns true for all event types.
// JSONL can serialize any event type.
func (jw *JSONLWriter) SupportsEvent(_ events.EventType) bool {
	return true
}
