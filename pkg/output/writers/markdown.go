package writers

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/segmatrix/segmatrix/pkg/output/dispatcher"
	"github.com/segmatrix/segmatrix/pkg/output/events"
	"github.com/segmatrix/segmatrix/pkg/report"
	"github.com/segmatrix/segmatrix/pkg/segment"
	"github.com/segmatrix/segmatrix/pkg/ui"
)

// Compile-time interface check.
var _ dispatcher.Writer = (*MarkdownWriter)(nil)

// MarkdownConfig configures the Markdown report writer.
type MarkdownConfig struct {
	// Title is the report title. Empty falls back to the branding
	// title, then to "Network Segmentation Matrix".
	Title string

	// Report carries branding and section toggles; nil uses defaults.
	Report *report.TemplateConfig
}

// MarkdownWriter writes the matrix as a GitHub-flavored Markdown
// report, for pasting into engagement reports, wikis, and tickets.
// It buffers all events and renders the complete document on Close.
// The writer is safe for concurrent use.
type MarkdownWriter struct {
	w      io.Writer
	mu     sync.Mutex
	title  string
	report *report.TemplateConfig

	segments []*events.SegmentEvent
	hosts    []*events.HostEvent
	matrix   *events.MatrixEvent
}

// NewMarkdownWriter creates a new Markdown report writer.
// The writer buffers all events and writes the report on Close.
func NewMarkdownWriter(w io.Writer, config MarkdownConfig) *MarkdownWriter {
	rep := config.Report
	if rep == nil {
		rep = report.DefaultTemplateConfig()
	}
	title := config.Title
	if title == "" {
		title = rep.Branding.Title
	}
	if title == "" {
		title = "Network Segmentation Matrix"
	}
	return &MarkdownWriter{
		w:      w,
		title:  title,
		report: rep,
	}
}

// Write buffers an event for later Markdown output.
func (mw *MarkdownWriter) Write(event events.Event) error {
	mw.mu.Lock()
	defer mw.mu.Unlock()

	switch e := event.(type) {
	case *events.SegmentEvent:
		mw.segments = append(mw.segments, e)
	case *events.HostEvent:
		mw.hosts = append(mw.hosts, e)
	case *events.MatrixEvent:
		mw.matrix = e
	}
	return nil
}

// Flush is a no-op for Markdown writer.
// All events are written as a single document on Close.
func (mw *MarkdownWriter) Flush() error {
	return nil
}

// Close renders and writes the complete Markdown report.
func (mw *MarkdownWriter) Close() error {
	mw.mu.Lock()
	defer mw.mu.Unlock()

	sb := &strings.Builder{}
	mw.renderMarkdown(sb)

	if _, err := io.WriteString(mw.w, sb.String()); err != nil {
		return fmt.Errorf("markdown: write: %w", err)
	}

	if closer, ok := mw.w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// SupportsEvent returns true for segment, host, and matrix events.
func (mw *MarkdownWriter) SupportsEvent(eventType events.EventType) bool {
	switch eventType {
	case events.EventTypeSegment, events.EventTypeHost, events.EventTypeMatrix:
		return true
	default:
		return false
	}
}

func (mw *MarkdownWriter) renderMarkdown(sb *strings.Builder) {
	sb.WriteString(fmt.Sprintf("# %s\n\n", mw.title))
	if org := mw.report.Branding.Organization; org != "" {
		sb.WriteString(fmt.Sprintf("*Prepared for %s*\n\n", org))
	}
	if mw.matrix != nil {
		sb.WriteString(fmt.Sprintf("*Generated: %s*\n\n",
			mw.matrix.Timing.CompletedAt.Format("2006-01-02 15:04:05 MST")))
	}

	mw.renderSummary(sb)
	mw.renderClassification(sb)
	mw.renderMatrix(sb)
	if mw.report.Sections.Concerns {
		mw.renderConcerns(sb)
	}
	if mw.report.Sections.Breakdown {
		mw.renderBreakdown(sb)
	}
}

func (mw *MarkdownWriter) renderSummary(sb *strings.Builder) {
	if mw.matrix == nil {
		return
	}
	t := mw.matrix.Totals

	sb.WriteString("## Summary\n\n")
	if mw.matrix.Directory != "" {
		sb.WriteString(fmt.Sprintf("- **Directory:** %s\n", mw.matrix.Directory))
	}
	sb.WriteString(fmt.Sprintf("- **Segments:** %d (%d PCI, %d non-PCI, %d unknown)\n",
		t.Segments, t.PCISegments, t.NonPCISegments, t.UnknownSegments))
	sb.WriteString(fmt.Sprintf("- **Hosts:** %d (%d normal, %d elevated, %d critical)\n",
		t.Hosts, t.NormalHosts, t.ElevatedHosts, t.CriticalHosts))
	if mw.matrix.Fingerprint != "" {
		sb.WriteString(fmt.Sprintf("- **Fingerprint:** `%s`\n", mw.matrix.Fingerprint))
	}
	sb.WriteString(fmt.Sprintf("- **Duration:** %.2fs\n", mw.matrix.Timing.DurationSec))
	sb.WriteString("\n")
}

func (mw *MarkdownWriter) renderClassification(sb *strings.Builder) {
	sb.WriteString("## Segment Classification\n\n")
	sb.WriteString(fmt.Sprintf("- **PCI Segments:** %s\n", joinOrNone(mw.segmentNames(segment.PCI))))
	sb.WriteString(fmt.Sprintf("- **NON PCI Segments:** %s\n", joinOrNone(mw.segmentNames(segment.NonPCI))))
	sb.WriteString("\n")
}

func (mw *MarkdownWriter) segmentNames(t segment.Type) []string {
	var names []string
	for _, s := range mw.segments {
		if s.Segment.Type == t {
			names = append(names, s.Segment.Name)
		}
	}
	return names
}

func (mw *MarkdownWriter) renderMatrix(sb *strings.Builder) {
	sb.WriteString("## Communication Matrix\n\n")

	// Column widths keep the raw table readable; GFM does not need
	// the padding but reviewers reading the source do.
	hostW := len("Host")
	for _, h := range mw.hosts {
		if l := len(h.Host.Address); l > hostW {
			hostW = l
		}
	}
	tierW := len("critical")

	sb.WriteString("| " + ui.PadRight("Host", hostW))
	for _, s := range mw.segments {
		sb.WriteString(" | " + s.Segment.Name)
	}
	sb.WriteString(" | " + ui.PadRight("Tier", tierW) + " |\n")

	sb.WriteString("|" + strings.Repeat("-", hostW+2))
	for _, s := range mw.segments {
		sb.WriteString("|" + strings.Repeat("-", len(s.Segment.Name)+2))
	}
	sb.WriteString("|" + strings.Repeat("-", tierW+2) + "|\n")

	for _, h := range mw.hosts {
		reaching := make(map[string]bool, len(h.Host.Segments))
		for _, name := range h.Host.Segments {
			reaching[name] = true
		}
		sb.WriteString("| " + ui.PadRight(h.Host.Address, hostW))
		for _, s := range mw.segments {
			cell := "-"
			if reaching[s.Segment.Name] {
				cell = "X"
			}
			sb.WriteString(" | " + ui.PadRight(cell, len(s.Segment.Name)))
		}
		sb.WriteString(" | " + ui.PadRight(string(h.Host.Tier), tierW) + " |\n")
	}
	sb.WriteString("\n")
}

func (mw *MarkdownWriter) renderConcerns(sb *strings.Builder) {
	sb.WriteString("## Areas of Concern\n\n")

	var concerns []events.ConcernInfo
	if mw.matrix != nil {
		concerns = mw.matrix.Concerns
	}
	if len(concerns) == 0 {
		sb.WriteString("*No areas of concern detected based on current matrix.*\n\n")
		return
	}

	for _, c := range concerns {
		if c.Kind == events.ConcernCrossZone {
			// Cross-zone messages carry the [!] marker; bold the
			// whole line so it stands out in rendered output.
			sb.WriteString(fmt.Sprintf("- **%s**\n", c.Message))
		} else {
			// Multi-segment messages already lead with "- " and
			// render as list items verbatim.
			sb.WriteString(c.Message + "\n")
		}
	}
	sb.WriteString("\n")
}

func (mw *MarkdownWriter) renderBreakdown(sb *strings.Builder) {
	sb.WriteString("## Reading This Matrix\n\n")
	sb.WriteString("This matrix shows which network segments can communicate with which hosts. " +
		"Each `X` means that the host was reachable from that segment during testing. " +
		"An **elevated** tier means a host is reachable from more than one segment, " +
		"which may suggest insufficient network segmentation. " +
		"A **critical** tier means a host is reachable from both PCI and non-PCI segments, " +
		"which is a critical concern for compliance and security. " +
		"We recommend reviewing any elevated or critical entries to ensure your " +
		"segmentation controls meet your policy and compliance requirements.\n")
}
