package writers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/segmatrix/segmatrix/pkg/output/dispatcher"
	"github.com/segmatrix/segmatrix/pkg/output/events"
)

// Compile-time interface check.
var _ dispatcher.Writer = (*CSVWriter)(nil)

// UTF-8 BOM for Excel compatibility.
const utf8BOM = "\xEF\xBB\xBF"

// CSVWriter writes the matrix as CSV rows, one per reachable
// (host, segment) pair. The long format suits pivot tables, pandas,
// and database imports better than the wide terminal grid.
//
// Features:
//   - Excel compatibility with UTF-8 BOM
//   - CSV injection prevention (formula sanitization)
//   - Summary block with run totals and fingerprint
type CSVWriter struct {
	w             io.Writer
	csvWriter     *csv.Writer
	mu            sync.Mutex
	opts          CSVOptions
	headerWritten bool
	segments      map[string]events.SegmentInfo
	matrix        *events.MatrixEvent // Stored for Close()
}

// CSVOptions configures the CSV writer behavior.
type CSVOptions struct {
	// IncludeHeader includes a header row with column names.
	IncludeHeader bool

	// Delimiter sets the field delimiter character.
	// Default is comma when zero value.
	Delimiter rune

	// ExcelCompatible adds UTF-8 BOM for Excel compatibility.
	// This ensures proper display of Unicode characters in Excel.
	ExcelCompatible bool

	// SanitizeFormulas prevents CSV injection by prefixing dangerous
	// characters. Dangerous characters: = + - @ TAB CR
	SanitizeFormulas bool

	// TruncateAt limits field length (0 = no limit).
	TruncateAt int
}

// csvColumns defines the CSV column headers. One row per reachable
// (host, segment) pair keeps the format long rather than wide.
var csvColumns = []string{
	"host",         // Host address
	"tier",         // normal/elevated/critical
	"segment",      // Reaching segment name
	"segment_type", // pci/non_pci/unknown
	"source_file",  // Scan file the segment came from
}

// sanitizeForCSV prevents CSV injection by prefixing dangerous characters.
// Host addresses and segment names come from scan files and end up in
// spreadsheets, so formula execution is a real hazard.
func sanitizeForCSV(s string) string {
	if len(s) == 0 {
		return s
	}
	// Characters that can trigger formula execution in spreadsheets
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s // Prefix with single quote
	}
	return s
}

// truncateField truncates a field to the specified length.
func truncateField(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen > 3 {
		return string(runes[:maxLen-3]) + "..."
	}
	return string(runes[:maxLen])
}

// NewCSVWriter creates a new CSV writer.
// If IncludeHeader is true, a header row is written immediately.
// If ExcelCompatible is true, a UTF-8 BOM is written for proper Excel display.
// The writer is safe for concurrent use.
func NewCSVWriter(w io.Writer, opts CSVOptions) *CSVWriter {
	// Write UTF-8 BOM for Excel compatibility
	if opts.ExcelCompatible {
		_, _ = w.Write([]byte(utf8BOM))
	}

	csvWriter := csv.NewWriter(w)
	if opts.Delimiter != 0 {
		csvWriter.Comma = opts.Delimiter
	}

	cw := &CSVWriter{
		w:         w,
		csvWriter: csvWriter,
		opts:      opts,
		segments:  make(map[string]events.SegmentInfo),
	}

	// Write header by default
	if opts.IncludeHeader {
		_ = csvWriter.Write(csvColumns)
		csvWriter.Flush()
		cw.headerWritten = true
	}

	return cw
}

// Write writes host events as CSV rows, one per reaching segment.
// Segment events populate the metadata columns; the matrix event is
// captured for the summary block on Close().
func (cw *CSVWriter) Write(event events.Event) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	switch e := event.(type) {
	case *events.SegmentEvent:
		cw.segments[e.Segment.Name] = e.Segment
		return nil
	case *events.HostEvent:
		return cw.writeHost(e)
	case *events.MatrixEvent:
		cw.matrix = e
		return nil
	default:
		return nil // Skip other event types
	}
}

// writeHost writes one row per segment reaching the host. Segment
// events precede host events in the stream, so the metadata lookup is
// already populated.
func (cw *CSVWriter) writeHost(he *events.HostEvent) error {
	for _, name := range he.Host.Segments {
		info := cw.segments[name]
		row := []string{
			he.Host.Address,      // host
			string(he.Host.Tier), // tier
			name,                 // segment
			info.Type.String(),   // segment_type
			info.Source,          // source_file
		}

		// Apply sanitization and truncation
		for i, field := range row {
			if cw.opts.SanitizeFormulas {
				field = sanitizeForCSV(field)
			}
			if cw.opts.TruncateAt > 0 {
				field = truncateField(field, cw.opts.TruncateAt)
			}
			row[i] = field
		}

		if err := cw.csvWriter.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the CSV writer's internal buffer.
func (cw *CSVWriter) Flush() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	cw.csvWriter.Flush()
	return cw.csvWriter.Error()
}

// Close flushes the CSV writer and appends the summary block.
// If the underlying writer implements io.Closer, it will be closed.
func (cw *CSVWriter) Close() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.matrix != nil {
		cw.writeSummaryLocked()
	}

	cw.csvWriter.Flush()
	if err := cw.csvWriter.Error(); err != nil {
		return fmt.Errorf("csv: flush: %w", err)
	}

	if closer, ok := cw.w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// writeSummaryLocked appends the run totals after a blank separator
// row. Must be called with mu held.
func (cw *CSVWriter) writeSummaryLocked() {
	totals := cw.matrix.Totals

	// Blank row separates data from the summary block
	_ = cw.csvWriter.Write([]string{})

	_ = cw.csvWriter.Write([]string{"# SUMMARY"})
	_ = cw.csvWriter.Write([]string{"Segments", strconv.Itoa(totals.Segments)})
	_ = cw.csvWriter.Write([]string{"PCI Segments", strconv.Itoa(totals.PCISegments)})
	_ = cw.csvWriter.Write([]string{"Non-PCI Segments", strconv.Itoa(totals.NonPCISegments)})
	_ = cw.csvWriter.Write([]string{"Unknown Segments", strconv.Itoa(totals.UnknownSegments)})
	_ = cw.csvWriter.Write([]string{"Hosts", strconv.Itoa(totals.Hosts)})
	_ = cw.csvWriter.Write([]string{"Normal Hosts", strconv.Itoa(totals.NormalHosts)})
	_ = cw.csvWriter.Write([]string{"Elevated Hosts", strconv.Itoa(totals.ElevatedHosts)})
	_ = cw.csvWriter.Write([]string{"Critical Hosts", strconv.Itoa(totals.CriticalHosts)})
	_ = cw.csvWriter.Write([]string{"Fingerprint", cw.matrix.Fingerprint})
}

// SupportsEvent returns true for segment, host, and matrix events.
func (cw *CSVWriter) SupportsEvent(eventType events.EventType) bool {
	switch eventType {
	case events.EventTypeSegment, events.EventTypeHost, events.EventTypeMatrix:
		return true
	default:
		return false
	}
}
