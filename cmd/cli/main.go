// Command segmatrix renders a PCI network segmentation matrix from a
// directory of nmap greppable (.gnmap) scan exports.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/segmatrix/segmatrix/pkg/config"
	"github.com/segmatrix/segmatrix/pkg/gnmap"
	"github.com/segmatrix/segmatrix/pkg/matrix"
	"github.com/segmatrix/segmatrix/pkg/output"
	"github.com/segmatrix/segmatrix/pkg/output/dispatcher"
	"github.com/segmatrix/segmatrix/pkg/output/events"
	"github.com/segmatrix/segmatrix/pkg/output/exitcode"
	"github.com/segmatrix/segmatrix/pkg/output/hooks"
	"github.com/segmatrix/segmatrix/pkg/report"
	"github.com/segmatrix/segmatrix/pkg/segment"
	"github.com/segmatrix/segmatrix/pkg/tier"
	"github.com/segmatrix/segmatrix/pkg/ui"
)

func main() {
	flag.Usage = printUsage

	cfg, err := config.Parse()
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(int(exitcode.Success))
		}
		// Flag-level errors already printed usage; validation
		// problems have not.
		if errors.Is(err, config.ErrInvalidValue) || errors.Is(err, config.ErrMissingRequired) {
			flag.Usage()
		}
		ui.PrintError(err.Error())
		os.Exit(int(exitcode.Configuration))
	}

	if cfg.ShowVersion {
		fmt.Printf("segmatrix v%s (built %s, commit %s)\n", ui.Version, ui.BuildDate, ui.Commit)
		os.Exit(int(exitcode.Success))
	}

	os.Exit(run(cfg))
}

// run executes the whole pipeline and returns the process exit code.
// Fatal paths return instead of calling os.Exit directly so the
// deferred cleanup still closes every opened output file.
func run(cfg *config.Config) int {
	ui.SetSilent(cfg.Silent)
	ui.SetNoColor(cfg.NoColor)

	if cfg.Verbose {
		log.SetLevel(log.DebugLevel)
		log.SetReportTimestamp(true)
	}

	if !cfg.Silent {
		ui.PrintBanner()
	}
	ui.PrintConfigBanner(bannerOptions(cfg))

	// === BRANDING ===
	var reportCfg *report.TemplateConfig
	if cfg.ReportConfigPath != "" {
		var err error
		reportCfg, err = report.LoadTemplateConfig(cfg.ReportConfigPath)
		if err == nil {
			err = report.ValidateConfig(reportCfg)
		}
		if err != nil {
			ui.PrintError(fmt.Sprintf("report config: %v", err))
			return int(exitcode.Configuration)
		}
	}

	// === LOAD ===
	started := time.Now()
	segments, dups, err := gnmap.Load(cfg.Dir)
	if err != nil {
		ui.PrintError(err.Error())
		return int(exitcode.Fatal)
	}
	for _, d := range dups {
		if cfg.Strict {
			ui.PrintError("duplicate " + d.String())
		} else {
			ui.PrintWarning("duplicate " + d.String())
		}
	}
	if cfg.Strict && len(dups) > 0 {
		ui.PrintError(gnmap.ErrDuplicateSegment.Error() + " in strict mode")
		return int(exitcode.Fatal)
	}

	// === AGGREGATE ===
	m := matrix.Build(segments)

	// === OUTPUTS ===
	d, cleanup, err := output.BuildDispatcher(output.Config{
		HTMLPath:       cfg.HTMLOutput,
		JSONExport:     cfg.JSONExport,
		JSONLExport:    cfg.JSONLExport,
		CSVExport:      cfg.CSVExport,
		MarkdownExport: cfg.MarkdownExport,
		PDFExport:      cfg.PDFExport,
		TemplatePath:   cfg.TemplatePath,
		TemplateOutput: cfg.TemplateOutput,
		NoHTML:         cfg.NoHTML,
		Silent:         cfg.Silent,
		ColorMode:      cfg.ColorMode(),
		ReportConfig:   reportCfg,
	})
	defer cleanup()
	if err != nil {
		ui.PrintError(err.Error())
		return int(exitcode.Fatal)
	}
	d.RegisterHook(hooks.NewLoggerHook(hooks.LoggerHookOptions{}))

	// === EMIT ===
	totals := matrixTotals(m)
	if err := emitRun(d, cfg.Dir, m, totals, started); err != nil {
		_ = d.Close()
		ui.PrintError(err.Error())
		return int(exitcode.Fatal)
	}
	if err := d.Close(); err != nil {
		ui.PrintError(fmt.Sprintf("write outputs: %v", err))
		return int(exitcode.Fatal)
	}

	if !cfg.Silent {
		for _, exp := range []struct{ label, path string }{
			{"JSON", cfg.JSONExport},
			{"JSONL", cfg.JSONLExport},
			{"CSV", cfg.CSVExport},
			{"Markdown", cfg.MarkdownExport},
			{"PDF", cfg.PDFExport},
			{"Template", cfg.TemplateOutput},
		} {
			if exp.path != "" {
				ui.PrintSuccess(fmt.Sprintf("%s export written to %s", exp.label, exp.path))
			}
		}
	}
	if !cfg.NoHTML && !cfg.Silent {
		fmt.Println(ui.ReportStyle.Render("HTML report generated: " + cfg.HTMLOutput))
	}

	// === TIER GATE ===
	mgr := exitcode.New(exitcode.Config{Threshold: cfg.FailOn})
	mgr.RecordTotals(totals)
	code, reason := mgr.ExitCode()
	if code == exitcode.TierGate {
		ui.PrintWarning(reason)
	}
	return int(code)
}

// emitRun dispatches the run's event stream in canonical order: every
// segment, then every host, then the closing matrix event.
func emitRun(d *dispatcher.Dispatcher, dir string, m matrix.Matrix, totals events.MatrixTotals, started time.Time) error {
	runID := uuid.NewString()

	for _, s := range m.Segments() {
		ev := &events.SegmentEvent{
			BaseEvent: baseEvent(events.EventTypeSegment, runID),
			Segment: events.SegmentInfo{
				Name:      s.Name,
				Type:      s.Type,
				Source:    s.Source,
				HostCount: len(s.Hosts),
			},
		}
		if err := d.Dispatch(ev); err != nil {
			return err
		}
	}

	for _, h := range m.Hosts() {
		ev := &events.HostEvent{
			BaseEvent: baseEvent(events.EventTypeHost, runID),
			Host: events.HostInfo{
				Address:  h,
				Tier:     m.TierOf(h),
				Segments: m.Reaching(h),
			},
		}
		if err := d.Dispatch(ev); err != nil {
			return err
		}
	}

	completed := time.Now()
	ev := &events.MatrixEvent{
		BaseEvent:   baseEvent(events.EventTypeMatrix, runID),
		Version:     ui.Version,
		Directory:   dir,
		Totals:      totals,
		Concerns:    matrixConcerns(m),
		Fingerprint: m.Fingerprint(),
		Timing: events.MatrixTiming{
			StartedAt:   started,
			CompletedAt: completed,
			DurationSec: completed.Sub(started).Seconds(),
		},
	}
	return d.Dispatch(ev)
}

func baseEvent(t events.EventType, runID string) events.BaseEvent {
	return events.BaseEvent{Type: t, Time: time.Now(), Run: runID}
}

// matrixTotals folds the matrix's type and tier counts into the
// totals carried on the closing event.
func matrixTotals(m matrix.Matrix) events.MatrixTotals {
	tiers := m.TierCounts()
	types := m.TypeCounts()
	return events.MatrixTotals{
		Segments:        len(m.Segments()),
		PCISegments:     types[segment.PCI],
		NonPCISegments:  types[segment.NonPCI],
		UnknownSegments: types[segment.Unknown],
		Hosts:           len(m.Hosts()),
		NormalHosts:     tiers[tier.Normal],
		ElevatedHosts:   tiers[tier.Elevated],
		CriticalHosts:   tiers[tier.Critical],
	}
}

// matrixConcerns converts derived concerns into their event form,
// message included so every writer prints the same sentence.
func matrixConcerns(m matrix.Matrix) []events.ConcernInfo {
	concerns := m.Concerns()
	infos := make([]events.ConcernInfo, 0, len(concerns))
	for _, c := range concerns {
		infos = append(infos, events.ConcernInfo{
			Host:     c.Host,
			Kind:     string(c.Kind),
			Segments: c.Segments,
			Message:  c.Message(),
		})
	}
	return infos
}

// bannerOptions resolves the config into the banner's display map.
// Empty values are dropped by the banner printer.
func bannerOptions(cfg *config.Config) map[string]string {
	opts := map[string]string{
		"Directory":     cfg.Dir,
		"JSON":          cfg.JSONExport,
		"JSONL":         cfg.JSONLExport,
		"CSV":           cfg.CSVExport,
		"Markdown":      cfg.MarkdownExport,
		"PDF":           cfg.PDFExport,
		"Report Config": cfg.ReportConfigPath,
	}
	if cfg.NoHTML {
		opts["HTML Report"] = "disabled"
	} else {
		opts["HTML Report"] = cfg.HTMLOutput
	}
	if cfg.TemplatePath != "" {
		opts["Template"] = fmt.Sprintf("%s -> %s", cfg.TemplatePath, cfg.TemplateOutput)
	}
	// The zero value of Threshold is "", which also means the gate
	// is disabled.
	if cfg.FailOn != exitcode.ThresholdNone && cfg.FailOn != "" {
		opts["Fail On"] = string(cfg.FailOn)
	}
	if cfg.Strict {
		opts["Strict"] = "enabled"
	}
	return opts
}

func printUsage() {
	w := flag.CommandLine.Output()
	fmt.Fprintf(w, "segmatrix v%s - PCI network segmentation matrix from nmap scans\n\n", ui.Version)
	fmt.Fprintf(w, "Usage:\n  segmatrix [flags]\n\n")
	fmt.Fprintf(w, "Scans a directory for .gnmap exports, derives one segment per file\n")
	fmt.Fprintf(w, "(PCI - / NON PCI - filename prefixes), and renders the host-by-segment\n")
	fmt.Fprintf(w, "communication matrix to the terminal and a self-contained HTML report.\n\n")
	fmt.Fprintf(w, "Flags:\n")
	flag.PrintDefaults()
	fmt.Fprintf(w, "\nExamples:\n")
	fmt.Fprintf(w, "  segmatrix                              scan . and write %s\n", config.DefaultHTMLName)
	fmt.Fprintf(w, "  segmatrix -dir scans -json run.json    scan ./scans with a JSON export\n")
	fmt.Fprintf(w, "  segmatrix -fail-on critical -silent    CI gate: exports only, exit 2 on critical hosts\n")
	fmt.Fprintf(w, "\nExit codes:\n")
	fmt.Fprintf(w, "  0 success  1 fatal error  2 tier gate tripped  3 invalid configuration\n")
}
