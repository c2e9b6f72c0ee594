package writers

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"sync"
	"time"

	"github.com/segmatrix/segmatrix/pkg/output/dispatcher"
	"github.com/segmatrix/segmatrix/pkg/output/events"
	"github.com/segmatrix/segmatrix/pkg/report"
	"github.com/segmatrix/segmatrix/pkg/segment"
)

// Compile-time interface check.
var _ dispatcher.Writer = (*HTMLWriter)(nil)

// htmlTemplate is the report document. Its default rendering matches
// the classic single-file report layout: inline styles, no external
// assets, single-quoted attributes.
const htmlTemplate = `<html>{{if .Title}}<head><title>{{.Title}}</title></head>{{end}}<body>
{{if .Title}}<h1>{{.Title}}</h1>
{{end}}{{if .Organization}}<p>Prepared for {{.Organization}}</p>
{{end}}<h2>Segment Classification</h2>
<ul><li><b style='color:green;'>PCI Segments:</b> {{.PCINames}}</li><li><b style='color:orange;'>NON PCI Segments:</b> {{.NonPCINames}}</li></ul><h2>Communication Matrix</h2>
<table border='1' cellpadding='5' style='border-collapse:collapse;'>
<tr><th>Host</th>{{range .Segments}}{{if eq .Zone "pci"}}<th style='background:{{$.Palette.PCIHeaderBackground}};color:{{$.Palette.PCIHeaderText}};'>{{.Name}}</th>{{else if eq .Zone "non_pci"}}<th style='background:{{$.Palette.NonPCIHeaderBackground}};color:{{$.Palette.NonPCIHeaderText}};'>{{.Name}}</th>{{else}}<th>{{.Name}}</th>{{end}}{{end}}</tr>
{{range .Rows}}<tr><td>{{.Host}}</td>{{range .Cells}}{{if .Reachable}}<td style='background:{{.Background}};text-align:center;'>X</td>{{else}}<td style='text-align:center;'>-</td>{{end}}{{end}}</tr>
{{end}}</table>
{{if .ShowLegend}}<p><b>Key:</b><br><span style='background:{{.Palette.NormalCell}};'>Green</span>: Host is reachable from this segment only.<br><span style='background:{{.Palette.ElevatedCell}};'>Yellow</span>: Host is reachable from multiple segments.<br><span style='background:{{.Palette.CriticalCell}};'>Red</span>: Host is reachable from both PCI and non-PCI segments.<br></p>
{{end}}{{if .ShowConcerns}}<h2>Areas of Concern</h2>
{{range .Concerns}}{{if .CrossZone}}<div style='color:#b20000;font-weight:bold;'>{{.Message}}</div>
{{else}}<div style='color:#b59b00;'>{{.Message}}</div>
{{end}}{{end}}{{if not .Concerns}}<div>No areas of concern detected based on current matrix.</div>
{{end}}{{end}}{{if .ShowFooter}}<hr><p style='color:#6b7280;font-size:12px;'>{{if .FooterText}}{{.FooterText}}{{if .ShowGenerator}} &middot; {{end}}{{end}}{{if .ShowGenerator}}Generated by {{.Generator}}{{if .Fingerprint}} &middot; run {{.Fingerprint}}{{end}}{{if .GeneratedAt}} &middot; {{.GeneratedAt}}{{end}}{{end}}</p>
{{end}}</body></html>
`

var htmlTmpl = template.Must(template.New("matrix").Parse(htmlTemplate))

// HTMLConfig configures the HTML report writer.
type HTMLConfig struct {
	// Report is the branding configuration. Nil uses the defaults,
	// which reproduce the classic document.
	Report *report.TemplateConfig
}

// HTMLWriter renders the matrix as a self-contained HTML document.
// Events are buffered and the document is written once on Close.
// Host addresses and segment names come from scan files, so they pass
// through html/template's contextual escaping.
type HTMLWriter struct {
	w      io.Writer
	mu     sync.Mutex
	report *report.TemplateConfig

	segments []*events.SegmentEvent
	hosts    []*events.HostEvent
	matrix   *events.MatrixEvent
}

// NewHTMLWriter creates an HTML writer with the specified
// configuration.
func NewHTMLWriter(w io.Writer, config HTMLConfig) *HTMLWriter {
	cfg := config.Report
	if cfg == nil {
		cfg = report.DefaultTemplateConfig()
	}
	return &HTMLWriter{
		w:      w,
		report: cfg,
	}
}

// Write buffers an event for rendering on Close.
func (hw *HTMLWriter) Write(event events.Event) error {
	hw.mu.Lock()
	defer hw.mu.Unlock()

	switch e := event.(type) {
	case *events.SegmentEvent:
		hw.segments = append(hw.segments, e)
	case *events.HostEvent:
		hw.hosts = append(hw.hosts, e)
	case *events.MatrixEvent:
		hw.matrix = e
	}
	return nil
}

// Flush is a no-op; the document renders once on Close.
func (hw *HTMLWriter) Flush() error {
	hw.mu.Lock()
	defer hw.mu.Unlock()
	return nil
}

// Close renders the document and writes it out.
func (hw *HTMLWriter) Close() error {
	hw.mu.Lock()
	defer hw.mu.Unlock()

	var buf bytes.Buffer
	if err := htmlTmpl.Execute(&buf, hw.templateData()); err != nil {
		return fmt.Errorf("html: render: %w", err)
	}
	if _, err := hw.w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("html: write: %w", err)
	}

	if closer, ok := hw.w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// SupportsEvent returns true for segment, host, and matrix events.
func (hw *HTMLWriter) SupportsEvent(eventType events.EventType) bool {
	switch eventType {
	case events.EventTypeSegment, events.EventTypeHost, events.EventTypeMatrix:
		return true
	}
	return false
}

// htmlData is the flattened template input.
type htmlData struct {
	Title         string
	Organization  string
	PCINames      string
	NonPCINames   string
	Palette       report.PaletteConfig
	Segments      []htmlSegment
	Rows          []htmlRow
	ShowLegend    bool
	ShowConcerns  bool
	Concerns      []htmlConcern
	ShowFooter    bool
	ShowGenerator bool
	FooterText    string
	Generator     string
	Fingerprint   string
	GeneratedAt   string
}

type htmlSegment struct {
	Name string
	Zone string
}

type htmlRow struct {
	Host  string
	Cells []htmlCell
}

type htmlCell struct {
	Reachable  bool
	Background string
}

type htmlConcern struct {
	Message   string
	CrossZone bool
}

// templateData flattens the buffered events and branding config into
// the template input.
func (hw *HTMLWriter) templateData() htmlData {
	cfg := hw.report

	data := htmlData{
		Title:         cfg.Branding.Title,
		Organization:  cfg.Branding.Organization,
		Palette:       cfg.Palette,
		ShowLegend:    cfg.Sections.Legend,
		ShowConcerns:  cfg.Sections.Concerns,
		ShowGenerator: cfg.Branding.ShowGenerator,
		FooterText:    cfg.Branding.FooterText,
		Generator:     "segmatrix",
	}
	data.ShowFooter = cfg.Sections.Footer && (data.FooterText != "" || data.ShowGenerator)

	var pci, nonPCI []string
	for _, s := range hw.segments {
		name := s.Segment.Name
		switch s.Segment.Type {
		case segment.PCI:
			pci = append(pci, name)
		case segment.NonPCI:
			nonPCI = append(nonPCI, name)
		}
		data.Segments = append(data.Segments, htmlSegment{Name: name, Zone: s.Segment.Type.String()})
	}
	data.PCINames = joinOrNone(pci)
	data.NonPCINames = joinOrNone(nonPCI)

	for _, h := range hw.hosts {
		reaching := make(map[string]bool, len(h.Host.Segments))
		for _, name := range h.Host.Segments {
			reaching[name] = true
		}
		row := htmlRow{Host: h.Host.Address}
		for _, s := range hw.segments {
			cell := htmlCell{}
			if reaching[s.Segment.Name] {
				cell.Reachable = true
				cell.Background = hw.tierBackground(h.Host.Tier)
			}
			row.Cells = append(row.Cells, cell)
		}
		data.Rows = append(data.Rows, row)
	}

	if m := hw.matrix; m != nil {
		data.Concerns = make([]htmlConcern, 0, len(m.Concerns))
		for _, c := range m.Concerns {
			data.Concerns = append(data.Concerns, htmlConcern{
				Message:   c.Message,
				CrossZone: c.Kind == events.ConcernCrossZone,
			})
		}
		if m.Version != "" {
			data.Generator = "segmatrix v" + m.Version
		}
		data.Fingerprint = m.Fingerprint
		data.GeneratedAt = m.Timing.CompletedAt.Format(time.RFC3339)
	}

	return data
}

// tierBackground maps a host tier to its cell background color.
func (hw *HTMLWriter) tierBackground(t events.Tier) string {
	switch t {
	case events.TierCritical:
		return hw.report.Palette.CriticalCell
	case events.TierElevated:
		return hw.report.Palette.ElevatedCell
	default:
		return hw.report.Palette.NormalCell
	}
}
