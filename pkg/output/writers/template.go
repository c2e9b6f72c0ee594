// Package writers provides output writers for various formats.
package writers

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"

	"github.com/segmatrix/segmatrix/pkg/jsonutil"
	"github.com/segmatrix/segmatrix/pkg/output/dispatcher"
	"github.com/segmatrix/segmatrix/pkg/output/events"
	"github.com/segmatrix/segmatrix/pkg/segment"
	"github.com/segmatrix/segmatrix/pkg/tier"
)

// Compile-time interface check.
var _ dispatcher.Writer = (*TemplateWriter)(nil)

// TemplateConfig configures the template writer.
type TemplateConfig struct {
	// TemplatePath is the path to a custom template file.
	TemplatePath string

	// TemplateString is an inline template string (alternative to TemplatePath).
	TemplateString string

	// BuiltIn is the name of a built-in template: "hosts-csv", "summary".
	BuiltIn string
}

// builtInTemplates contains pre-defined templates for common output formats.
var builtInTemplates = map[string]string{
	"hosts-csv": `host,tier,segments
{{- range .Hosts }}
{{ .Address }},{{ .Tier }},{{ escapeCSV (join ";" .Segments) }}
{{- end }}`,

	"summary": `Network Segmentation Summary
============================
Directory: {{ .Directory }}
Generated: {{ .Timestamp }}
Duration: {{ printf "%.2f" .Duration }}s

Segments: {{ .TotalSegments }}
  PCI: {{ join ", " .PCISegments | default "(none)" }}
  Non-PCI: {{ join ", " .NonPCISegments | default "(none)" }}
  Unknown: {{ join ", " .UnknownSegments | default "(none)" }}

Hosts: {{ .TotalHosts }} ({{ .NormalHosts }} normal, {{ .ElevatedHosts }} elevated, {{ .CriticalHosts }} critical)
{{- range .Hosts }}
  {{ tierIcon .Tier }} {{ .Address }} [{{ .Tier }}] reachable from: {{ join ", " .Segments }}
{{- end }}
{{ if gt (len .Concerns) 0 }}
Areas of Concern:
{{- range .Concerns }}
{{ .Message }}
{{- end }}
{{ end }}`,
}

// IsBuiltInTemplate reports whether name is a built-in template name.
// The CLI uses it to decide whether -template names a built-in or a
// file on disk.
func IsBuiltInTemplate(name string) bool {
	_, ok := builtInTemplates[name]
	return ok
}

// TemplateWriter renders a run using Go templates.
// It buffers all events in memory and renders the template on Close.
// The writer supports custom templates, inline templates, and built-in
// templates. Sprig functions and matrix-specific functions are
// available in templates.
type TemplateWriter struct {
	w      io.Writer
	mu     sync.Mutex
	config TemplateConfig
	tmpl   *template.Template
	runID  string

	segments []*events.SegmentEvent
	hosts    []*events.HostEvent
	matrix   *events.MatrixEvent
}

// NewTemplateWriter creates a new template writer.
// It parses the template immediately and returns an error if the template is invalid.
// The writer buffers all events and writes the rendered template on Close.
func NewTemplateWriter(w io.Writer, config TemplateConfig) (*TemplateWriter, error) {
	tw := &TemplateWriter{
		w:      w,
		config: config,
	}

	if err := tw.parseTemplate(); err != nil {
		return nil, fmt.Errorf("template parse error: %w", err)
	}

	return tw, nil
}

// parseTemplate parses the template from config (path, string, or built-in).
func (tw *TemplateWriter) parseTemplate() error {
	var templateContent string

	switch {
	case tw.config.TemplatePath != "":
		content, err := os.ReadFile(tw.config.TemplatePath)
		if err != nil {
			return fmt.Errorf("failed to read template file: %w", err)
		}
		templateContent = string(content)

	case tw.config.TemplateString != "":
		templateContent = tw.config.TemplateString

	case tw.config.BuiltIn != "":
		content, ok := builtInTemplates[tw.config.BuiltIn]
		if !ok {
			return fmt.Errorf("unknown built-in template: %s (available: hosts-csv, summary)", tw.config.BuiltIn)
		}
		templateContent = content

	default:
		return fmt.Errorf("no template specified: set TemplatePath, TemplateString, or BuiltIn")
	}

	// Sprig plus matrix-specific helpers.
	funcMap := sprig.TxtFuncMap()
	funcMap["escapeCSV"] = tmplEscapeCSV
	funcMap["tierIcon"] = tmplTierIcon
	funcMap["tierScore"] = tmplTierScore
	funcMap["json"] = tmplToJSON
	funcMap["prettyJSON"] = tmplPrettyJSON

	tmpl, err := template.New("segmatrix").Funcs(funcMap).Parse(templateContent)
	if err != nil {
		return fmt.Errorf("parse output template: %w", err)
	}

	tw.tmpl = tmpl
	return nil
}

// Write buffers an event for later template rendering.
func (tw *TemplateWriter) Write(event events.Event) error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if tw.runID == "" {
		tw.runID = event.RunID()
	}

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

// Flush is a no-op for template writer.
// All events are rendered as a single document on Close.
func (tw *TemplateWriter) Flush() error {
	return nil
}

// Close renders the template with all buffered events and writes to the output.
func (tw *TemplateWriter) Close() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	data := tw.buildTemplateData()

	var buf bytes.Buffer
	if err := tw.tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("template execution error: %w", err)
	}

	if _, err := tw.w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write error: %w", err)
	}

	if closer, ok := tw.w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// SupportsEvent returns true for segment, host, and matrix events.
func (tw *TemplateWriter) SupportsEvent(eventType events.EventType) bool {
	switch eventType {
	case events.EventTypeSegment, events.EventTypeHost, events.EventTypeMatrix:
		return true
	default:
		return false
	}
}

// tmplData holds all data available to templates.
type tmplData struct {
	// Run info
	RunID       string
	Version     string
	Directory   string
	Timestamp   string
	Duration    float64
	Fingerprint string

	// Loaded segments in emission order
	Segments []events.SegmentInfo

	// Segment names by zone
	PCISegments     []string
	NonPCISegments  []string
	UnknownSegments []string

	// Classified hosts in emission order
	Hosts []*tmplHostData

	// Totals
	TotalSegments int
	TotalHosts    int
	NormalHosts   int
	ElevatedHosts int
	CriticalHosts int

	// Concerns from the matrix event
	Concerns []events.ConcernInfo
}

// tmplHostData is a flattened view of a host row for easier template access.
type tmplHostData struct {
	Address  string
	Tier     string
	Segments []string

	// Reaches maps segment name to reachability so custom templates
	// can render grid cells.
	Reaches map[string]bool
}

// buildTemplateData constructs the data object for template rendering.
func (tw *TemplateWriter) buildTemplateData() *tmplData {
	data := &tmplData{
		RunID:     tw.runID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Segments:  make([]events.SegmentInfo, 0, len(tw.segments)),
		Hosts:     make([]*tmplHostData, 0, len(tw.hosts)),
	}

	for _, s := range tw.segments {
		data.Segments = append(data.Segments, s.Segment)
		switch s.Segment.Type {
		case segment.PCI:
			data.PCISegments = append(data.PCISegments, s.Segment.Name)
		case segment.NonPCI:
			data.NonPCISegments = append(data.NonPCISegments, s.Segment.Name)
		default:
			data.UnknownSegments = append(data.UnknownSegments, s.Segment.Name)
		}
	}
	data.TotalSegments = len(tw.segments)

	for _, h := range tw.hosts {
		hd := &tmplHostData{
			Address:  h.Host.Address,
			Tier:     string(h.Host.Tier),
			Segments: h.Host.Segments,
			Reaches:  make(map[string]bool, len(h.Host.Segments)),
		}
		for _, name := range h.Host.Segments {
			hd.Reaches[name] = true
		}
		data.Hosts = append(data.Hosts, hd)

		switch h.Host.Tier {
		case events.TierCritical:
			data.CriticalHosts++
		case events.TierElevated:
			data.ElevatedHosts++
		default:
			data.NormalHosts++
		}
	}
	data.TotalHosts = len(tw.hosts)

	// The matrix event carries authoritative run metadata.
	if m := tw.matrix; m != nil {
		data.Version = m.Version
		data.Directory = m.Directory
		data.Duration = m.Timing.DurationSec
		data.Fingerprint = m.Fingerprint
		data.Concerns = m.Concerns
		if !m.Timing.CompletedAt.IsZero() {
			data.Timestamp = m.Timing.CompletedAt.UTC().Format(time.RFC3339)
		}
	}

	return data
}

// Template helper functions

// tmplEscapeCSV escapes a string for CSV output.
// It wraps the value in quotes if it contains commas, quotes, or newlines.
func tmplEscapeCSV(s string) string {
	if s == "" {
		return ""
	}
	needsQuote := strings.ContainsAny(s, ",\"\n\r")
	if needsQuote {
		escaped := strings.ReplaceAll(s, "\"", "\"\"")
		return "\"" + escaped + "\""
	}
	return s
}

// tmplTierIcon returns an emoji icon for a host tier.
func tmplTierIcon(t string) string {
	switch strings.ToLower(t) {
	case "critical":
		return "🔴"
	case "elevated":
		return "🟡"
	case "normal":
		return "🟢"
	default:
		return "⚪"
	}
}

// tmplTierScore returns the numeric severity of a tier name
// (critical=3, elevated=2, normal=1, anything else=0) so custom
// templates can filter or sort hosts.
func tmplTierScore(t string) int {
	tr, err := tier.Parse(strings.ToLower(t))
	if err != nil {
		return 0
	}
	return tr.Score()
}

// tmplToJSON converts a value to a JSON string.
func tmplToJSON(v interface{}) string {
	b, err := jsonutil.Marshal(v)
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return string(b)
}

// tmplPrettyJSON converts a value to a formatted JSON string.
func tmplPrettyJSON(v interface{}) string {
	b, err := jsonutil.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return string(b)
}
