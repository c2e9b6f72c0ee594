package output

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/segmatrix/segmatrix/pkg/output/dispatcher"
	"github.com/segmatrix/segmatrix/pkg/output/events"
	"github.com/segmatrix/segmatrix/pkg/segment"
)

var builderTime = time.Date(2026, 8, 11, 14, 30, 0, 0, time.UTC)

// fixtureRun returns a small but complete event stream: two segments,
// two hosts, and the closing matrix event.
func fixtureRun() []events.Event {
	base := func(t events.EventType) events.BaseEvent {
		return events.BaseEvent{Type: t, Time: builderTime, Run: "run-builder-test"}
	}

	return []events.Event{
		&events.SegmentEvent{
			BaseEvent: base(events.EventTypeSegment),
			Segment: events.SegmentInfo{
				Name:      "Cardholder",
				Type:      segment.PCI,
				Source:    "PCI - Cardholder.gnmap",
				HostCount: 1,
			},
		},
		&events.SegmentEvent{
			BaseEvent: base(events.EventTypeSegment),
			Segment: events.SegmentInfo{
				Name:      "Corp",
				Type:      segment.NonPCI,
				Source:    "NON PCI - Corp.gnmap",
				HostCount: 2,
			},
		},
		&events.HostEvent{
			BaseEvent: base(events.EventTypeHost),
			Host: events.HostInfo{
				Address:  "10.0.0.5",
				Tier:     events.TierCritical,
				Segments: []string{"Cardholder", "Corp"},
			},
		},
		&events.HostEvent{
			BaseEvent: base(events.EventTypeHost),
			Host: events.HostInfo{
				Address:  "192.168.1.4",
				Tier:     events.TierNormal,
				Segments: []string{"Corp"},
			},
		},
		&events.MatrixEvent{
			BaseEvent: base(events.EventTypeMatrix),
			Version:   "1.2.0",
			Directory: "testdata/scans",
			Totals: events.MatrixTotals{
				Segments:       2,
				PCISegments:    1,
				NonPCISegments: 1,
				Hosts:          2,
				NormalHosts:    1,
				CriticalHosts:  1,
			},
			Concerns: []events.ConcernInfo{
				{
					Host:     "10.0.0.5",
					Kind:     events.ConcernCrossZone,
					Segments: []string{"Cardholder", "Corp"},
					Message:  "[!] Host 10.0.0.5 is reachable from both PCI and non-PCI segments: Cardholder, Corp",
				},
			},
			Fingerprint: "9c1f03ab",
			Timing: events.MatrixTiming{
				StartedAt:   builderTime,
				CompletedAt: builderTime.Add(420 * time.Millisecond),
				DurationSec: 0.42,
			},
		},
	}
}

// runDispatcher dispatches the fixture run and closes the dispatcher.
func runDispatcher(t *testing.T, d *dispatcher.Dispatcher, cleanup func()) {
	t.Helper()
	for _, ev := range fixtureRun() {
		if err := d.Dispatch(ev); err != nil {
			t.Fatalf("Dispatch: %v", err)
		}
	}
	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	cleanup()
}

func readOutput(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}

func TestBuildDispatcherAllExports(t *testing.T) {
	tmp := t.TempDir()
	cfg := Config{
		HTMLPath:       filepath.Join(tmp, "matrix.html"),
		JSONExport:     filepath.Join(tmp, "matrix.json"),
		JSONLExport:    filepath.Join(tmp, "matrix.jsonl"),
		CSVExport:      filepath.Join(tmp, "matrix.csv"),
		MarkdownExport: filepath.Join(tmp, "matrix.md"),
		PDFExport:      filepath.Join(tmp, "matrix.pdf"),
		Silent:         true,
	}

	d, cleanup, err := BuildDispatcher(cfg)
	if err != nil {
		t.Fatalf("BuildDispatcher: %v", err)
	}
	runDispatcher(t, d, cleanup)

	html := readOutput(t, cfg.HTMLPath)
	if !strings.Contains(html, "<html>") || !strings.Contains(html, "Communication Matrix") {
		t.Errorf("HTML output missing document markers:\n%.200s", html)
	}

	jsonOut := readOutput(t, cfg.JSONExport)
	for _, want := range []string{`"run_id"`, `"fingerprint"`, "10.0.0.5"} {
		if !strings.Contains(jsonOut, want) {
			t.Errorf("JSON output missing %q", want)
		}
	}

	jsonl := strings.TrimRight(readOutput(t, cfg.JSONLExport), "\n")
	lines := strings.Split(jsonl, "\n")
	if len(lines) != 5 {
		t.Errorf("expected 5 JSONL lines, got %d", len(lines))
	}
	for i, line := range lines {
		if !strings.HasPrefix(line, "{") {
			t.Errorf("JSONL line %d is not an object: %q", i, line)
		}
	}

	csvOut := readOutput(t, cfg.CSVExport)
	if !strings.HasPrefix(csvOut, "host,tier,segment,segment_type,source_file") {
		t.Errorf("CSV output missing header:\n%.120s", csvOut)
	}

	md := readOutput(t, cfg.MarkdownExport)
	if !strings.Contains(md, "Network Segmentation Matrix") {
		t.Errorf("Markdown output missing title:\n%.200s", md)
	}

	pdf := readOutput(t, cfg.PDFExport)
	if !strings.HasPrefix(pdf, "%PDF-") {
		t.Errorf("PDF output missing %%PDF- header")
	}
}

func TestBuildDispatcherHTMLOnly(t *testing.T) {
	tmp := t.TempDir()
	cfg := Config{
		HTMLPath: filepath.Join(tmp, "matrix.html"),
		Silent:   true,
	}

	d, cleanup, err := BuildDispatcher(cfg)
	if err != nil {
		t.Fatalf("BuildDispatcher: %v", err)
	}
	runDispatcher(t, d, cleanup)

	if _, err := os.Stat(cfg.HTMLPath); err != nil {
		t.Errorf("expected HTML file: %v", err)
	}

	entries, err := os.ReadDir(tmp)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected a single output file, got %d", len(entries))
	}
}

func TestBuildDispatcherNoHTML(t *testing.T) {
	tmp := t.TempDir()
	cfg := Config{
		HTMLPath: filepath.Join(tmp, "matrix.html"),
		NoHTML:   true,
		Silent:   true,
	}

	d, cleanup, err := BuildDispatcher(cfg)
	if err != nil {
		t.Fatalf("BuildDispatcher: %v", err)
	}
	runDispatcher(t, d, cleanup)

	if _, err := os.Stat(cfg.HTMLPath); !os.IsNotExist(err) {
		t.Errorf("expected no HTML file, stat returned %v", err)
	}
}

func TestBuildDispatcherOpenFailure(t *testing.T) {
	tmp := t.TempDir()
	cfg := Config{
		HTMLPath:   filepath.Join(tmp, "matrix.html"),
		JSONExport: filepath.Join(tmp, "missing", "matrix.json"),
		Silent:     true,
	}

	d, cleanup, err := BuildDispatcher(cfg)
	if err == nil {
		t.Fatal("expected error for unwritable export path")
	}
	if d != nil {
		t.Error("expected nil dispatcher on failure")
	}
	if !strings.Contains(err.Error(), "failed to create output file") {
		t.Errorf("unexpected error: %v", err)
	}
	if cleanup == nil {
		t.Fatal("cleanup must not be nil after partial failure")
	}

	// Closes the already-opened HTML file; calling twice must be safe.
	cleanup()
	cleanup()
}

func TestBuildDispatcherTemplateBuiltIn(t *testing.T) {
	tmp := t.TempDir()
	cfg := Config{
		TemplatePath:   "summary",
		TemplateOutput: filepath.Join(tmp, "summary.txt"),
		Silent:         true,
	}

	d, cleanup, err := BuildDispatcher(cfg)
	if err != nil {
		t.Fatalf("BuildDispatcher: %v", err)
	}
	runDispatcher(t, d, cleanup)

	out := readOutput(t, cfg.TemplateOutput)
	for _, want := range []string{"Network Segmentation Summary", "Hosts: 2", "10.0.0.5"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary output missing %q:\n%s", want, out)
		}
	}
}

func TestBuildDispatcherTemplateFromFile(t *testing.T) {
	tmp := t.TempDir()
	tmplPath := filepath.Join(tmp, "custom.tmpl")
	if err := os.WriteFile(tmplPath, []byte("{{ .TotalHosts }} hosts in {{ .Directory }}"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg := Config{
		TemplatePath:   tmplPath,
		TemplateOutput: filepath.Join(tmp, "custom.txt"),
		Silent:         true,
	}

	d, cleanup, err := BuildDispatcher(cfg)
	if err != nil {
		t.Fatalf("BuildDispatcher: %v", err)
	}
	runDispatcher(t, d, cleanup)

	out := readOutput(t, cfg.TemplateOutput)
	if out != "2 hosts in testdata/scans" {
		t.Errorf("unexpected template output: %q", out)
	}
}

func TestBuildDispatcherTemplateMissingFile(t *testing.T) {
	tmp := t.TempDir()
	cfg := Config{
		TemplatePath:   filepath.Join(tmp, "nope.tmpl"),
		TemplateOutput: filepath.Join(tmp, "out.txt"),
		Silent:         true,
	}

	d, cleanup, err := BuildDispatcher(cfg)
	if err == nil {
		t.Fatal("expected error for missing template file")
	}
	if d != nil {
		t.Error("expected nil dispatcher on failure")
	}
	if !strings.Contains(err.Error(), "template") {
		t.Errorf("unexpected error: %v", err)
	}
	cleanup()
}

func TestBuildDispatcherSilentNoExports(t *testing.T) {
	tmp := t.TempDir()

	d, cleanup, err := BuildDispatcher(Config{Silent: true})
	if err != nil {
		t.Fatalf("BuildDispatcher: %v", err)
	}
	runDispatcher(t, d, cleanup)

	entries, err := os.ReadDir(tmp)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no output files, got %d", len(entries))
	}
}
