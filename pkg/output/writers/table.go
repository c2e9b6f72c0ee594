// Package writers provides output writers for various formats.
package writers

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/term"

	"github.com/segmatrix/segmatrix/pkg/output/dispatcher"
	"github.com/segmatrix/segmatrix/pkg/output/events"
	"github.com/segmatrix/segmatrix/pkg/segment"
)

// Compile-time interface check.
var _ dispatcher.Writer = (*TableWriter)(nil)

// ANSI color constants for terminal output.
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[91m"
	colorGreen  = "\033[92m"
	colorYellow = "\033[93m"
	colorCyan   = "\033[96m"
	colorBold   = "\033[1m"
)

// colorEnabled controls whether ANSI color codes are emitted.
var colorEnabled = true

// ansiSprint wraps text in an ANSI escape code, respecting colorEnabled.
func ansiSprint(code string, a ...interface{}) string {
	s := fmt.Sprint(a...)
	if !colorEnabled {
		return s
	}
	return code + s + colorReset
}

// Color functions using ANSI escape codes for terminal colorization.
var (
	fmtRed    = func(a ...interface{}) string { return ansiSprint(colorRed, a...) }
	fmtGreen  = func(a ...interface{}) string { return ansiSprint(colorGreen, a...) }
	fmtYellow = func(a ...interface{}) string { return ansiSprint(colorYellow, a...) }
	fmtBold   = func(a ...interface{}) string { return ansiSprint(colorBold, a...) }
)

// tierColor returns the colorizer for a host tier. The X in a matrix
// cell is colored by the host's tier, not the segment's type.
func tierColor(t events.Tier) func(a ...interface{}) string {
	switch t {
	case events.TierCritical:
		return fmtRed
	case events.TierElevated:
		return fmtYellow
	default:
		return fmtGreen
	}
}

// ansiPattern matches SGR escape sequences for visible-width math.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// stripANSI removes ANSI escape sequences from a string.
func stripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

// minColumnWidth is the narrowest host or segment column.
const minColumnWidth = 15

// TableConfig configures the terminal matrix writer.
type TableConfig struct {
	// ColorEnabled forces ANSI color output on. When neither it nor
	// ColorDisabled is set, support is auto-detected from the
	// destination (NO_COLOR, FORCE_COLOR, then terminal check).
	ColorEnabled bool

	// ColorDisabled forces ANSI color output off. Wins over
	// ColorEnabled.
	ColorDisabled bool
}

// TableWriter renders the communication matrix for a terminal: segment
// classification, key, the host-by-segment grid, areas of concern, and
// the client-facing breakdown. Events are buffered and the document is
// written once on Close. The writer is safe for concurrent use.
type TableWriter struct {
	w      io.Writer
	mu     sync.Mutex
	config TableConfig

	segments []*events.SegmentEvent
	hosts    []*events.HostEvent
	matrix   *events.MatrixEvent
}

// NewTableWriter creates a table writer with the specified
// configuration. When no explicit color choice is configured, support
// is auto-detected from the destination.
func NewTableWriter(w io.Writer, config TableConfig) *TableWriter {
	switch {
	case config.ColorDisabled:
		config.ColorEnabled = false
	case !config.ColorEnabled:
		config.ColorEnabled = detectColorSupport(w)
	}

	// Configure color output based on our color resolution
	colorEnabled = config.ColorEnabled

	return &TableWriter{
		w:      w,
		config: config,
	}
}

// detectColorSupport checks if the writer supports ANSI colors.
func detectColorSupport(w io.Writer) bool {
	// Check for NO_COLOR environment variable
	if os.Getenv("NO_COLOR") != "" {
		return false
	}

	// Check for FORCE_COLOR environment variable
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}

	// Check if output is a terminal
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}

	return false
}

// Write buffers an event for rendering on Close.
func (tw *TableWriter) Write(event events.Event) error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	switch e := event.(type) {
	case *events.SegmentEvent:
		tw.segments = append(tw.segments, e)
	case *events.HostEvent:
		tw.hosts = append(tw.hosts, e)
	case *events.MatrixEvent:
		tw.matrix = e
	}
	return nil
}

// Flush is a no-op; the document renders once on Close.
func (tw *TableWriter) Flush() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	return nil
}

// Close renders and writes the complete matrix output.
func (tw *TableWriter) Close() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	var sb strings.Builder
	hostW, segW := tw.columnWidths()
	separator := strings.Repeat("-", hostW+segW*len(tw.segments))

	tw.writeClassification(&sb, separator)
	tw.writeKey(&sb, separator)
	tw.writeMatrix(&sb, hostW, segW)
	tw.writeConcerns(&sb)
	tw.writeBreakdown(&sb)

	if _, err := fmt.Fprint(tw.w, sb.String()); err != nil {
		return fmt.Errorf("table: write: %w", err)
	}

	// The destination stays open: the builder hands this writer
	// os.Stdout, and the report line still prints after dispatch.
	return nil
}

// SupportsEvent returns true for segment, host, and matrix events.
func (tw *TableWriter) SupportsEvent(eventType events.EventType) bool {
	switch eventType {
	case events.EventTypeSegment, events.EventTypeHost, events.EventTypeMatrix:
		return true
	}
	return false
}

// columnWidths computes the host and segment column widths from the
// buffered events. Both have a floor of minColumnWidth so an empty
// matrix still renders a header.
func (tw *TableWriter) columnWidths() (hostW, segW int) {
	hostW, segW = minColumnWidth, minColumnWidth
	for _, h := range tw.hosts {
		if n := len(h.Host.Address) + 2; n > hostW {
			hostW = n
		}
	}
	for _, s := range tw.segments {
		if n := len(s.Segment.Name) + 2; n > segW {
			segW = n
		}
	}
	return hostW, segW
}

// writeClassification lists the loaded segments by zone.
func (tw *TableWriter) writeClassification(sb *strings.Builder, separator string) {
	sb.WriteString(fmtBold("Segment Classification:") + "\n")
	sb.WriteString(fmtGreen("PCI Segments:") + " " + joinOrNone(tw.segmentNames(segment.PCI)) + "\n")
	sb.WriteString(fmtYellow("NON PCI Segments:") + " " + joinOrNone(tw.segmentNames(segment.NonPCI)) + "\n")
	sb.WriteString(separator + "\n")
}

// writeKey explains the cell colors.
func (tw *TableWriter) writeKey(sb *strings.Builder, separator string) {
	sb.WriteString(fmtBold("Key:") + "\n")
	sb.WriteString(fmtGreen("X") + " = Host is reachable from this segment (at least one open port found)\n")
	sb.WriteString(fmtYellow("X") + " = Host is reachable from multiple segments (potential segmentation issue)\n")
	sb.WriteString(fmtRed("X") + " = Host is reachable from both PCI and non-PCI segments (critical concern)\n")
	sb.WriteString(separator + "\n")
}

// writeMatrix renders the host-by-segment grid. Header and rows share
// one layout: cells padded to their column width, joined by single
// spaces.
func (tw *TableWriter) writeMatrix(sb *strings.Builder, hostW, segW int) {
	sb.WriteString(fmtBold("Communication Matrix:") + " (see key above)\n\n")

	headerCells := make([]string, 0, len(tw.segments))
	for _, s := range tw.segments {
		headerCells = append(headerCells, padCell(s.Segment.Name, segW))
	}
	header := padCell("Host", hostW) + " " + strings.Join(headerCells, " ")
	sb.WriteString(header + "\n")
	sb.WriteString(strings.Repeat("-", len(header)) + "\n")

	for _, h := range tw.hosts {
		reaching := make(map[string]bool, len(h.Host.Segments))
		for _, name := range h.Host.Segments {
			reaching[name] = true
		}

		cells := make([]string, 0, len(tw.segments))
		for _, s := range tw.segments {
			cell := "-"
			if reaching[s.Segment.Name] {
				cell = tierColor(h.Host.Tier)("X")
			}
			cells = append(cells, padCell(cell, segW))
		}
		sb.WriteString(padCell(h.Host.Address, hostW) + " " + strings.Join(cells, " ") + "\n")
	}
}

// writeConcerns lists the triggered areas-of-concern rules.
func (tw *TableWriter) writeConcerns(sb *strings.Builder) {
	sb.WriteString("\n" + fmtBold("Areas of Concern:") + "\n")

	var concerns []events.ConcernInfo
	if tw.matrix != nil {
		concerns = tw.matrix.Concerns
	}
	if len(concerns) == 0 {
		sb.WriteString("No areas of concern detected based on current matrix.\n")
		return
	}
	for _, c := range concerns {
		if c.Kind == events.ConcernCrossZone {
			sb.WriteString(fmtRed(c.Message) + "\n")
		} else {
			sb.WriteString(fmtYellow(c.Message) + "\n")
		}
	}
}

// writeBreakdown prints the client-facing explanation of the matrix.
func (tw *TableWriter) writeBreakdown(sb *strings.Builder) {
	sb.WriteString("\n" + fmtBold("Client Breakdown:") + "\n")
	sb.WriteString("This matrix shows which network segments can communicate with which hosts. Each 'X' means that the host was reachable from that segment during testing.\n")
	sb.WriteString(fmtYellow("Yellow X") + ": Indicates a host is reachable from more than one segment, which may suggest insufficient network segmentation.\n")
	sb.WriteString(fmtRed("Red X") + ": Indicates a host is reachable from both PCI and non-PCI segments, which is a critical concern for compliance and security.\n")
	sb.WriteString("We recommend reviewing any yellow or red entries to ensure your segmentation controls meet your policy and compliance requirements.\n")
}

// segmentNames returns the buffered segment names of one type, in
// arrival (canonical) order.
func (tw *TableWriter) segmentNames(t segment.Type) []string {
	var names []string
	for _, s := range tw.segments {
		if s.Segment.Type == t {
			names = append(names, s.Segment.Name)
		}
	}
	return names
}

// joinOrNone joins names with commas, or returns "None" for an empty
// list.
func joinOrNone(names []string) string {
	if len(names) == 0 {
		return "None"
	}
	return strings.Join(names, ", ")
}

// padCell pads s with spaces to the given visible width. ANSI escape
// sequences do not count toward the width.
func padCell(s string, width int) string {
	if n := width - len(stripANSI(s)); n > 0 {
		return s + strings.Repeat(" ", n)
	}
	return s
}
