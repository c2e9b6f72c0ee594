// Package output provides the CLI builder for wiring up output dispatching.
package output

import (
	"fmt"
	"os"

	"github.com/segmatrix/segmatrix/pkg/output/dispatcher"
	"github.com/segmatrix/segmatrix/pkg/output/writers"
	"github.com/segmatrix/segmatrix/pkg/report"
)

// Color modes accepted by Config.ColorMode.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Config configures the output dispatcher based on CLI flags.
type Config struct {
	// HTMLPath is where the HTML report document goes. NoHTML
	// suppresses the document regardless of path.
	HTMLPath string
	NoHTML   bool

	// File exports
	JSONExport     string
	JSONLExport    string
	CSVExport      string
	MarkdownExport string
	PDFExport      string

	// Custom template export. TemplatePath is a built-in template
	// name or a file path; TemplateOutput is where the rendering
	// goes.
	TemplatePath   string
	TemplateOutput string

	// Console
	Silent    bool
	ColorMode string

	// ReportConfig carries branding shared by the document writers.
	// Nil uses the classic defaults.
	ReportConfig *report.TemplateConfig
}

// BuildDispatcher creates a dispatcher configured with writers based on
// the config. It opens all requested output files and registers the
// matching writers. The returned cleanup closes every opened file; it
// is never nil and is safe to call after a partial failure. Run it
// after dispatcher Close so the buffered documents reach disk first.
func BuildDispatcher(cfg Config) (*dispatcher.Dispatcher, func(), error) {
	d := dispatcher.New()

	// Track opened files for cleanup
	var openedFiles []*os.File
	cleanup := func() {
		for _, f := range openedFiles {
			f.Close()
		}
	}

	// Helper to open a file for writing
	openFile := func(path string) (*os.File, error) {
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create output file %s: %w", path, err)
		}
		openedFiles = append(openedFiles, f)
		return f, nil
	}

	// === CONSOLE OUTPUT ===

	// Table writer for the terminal matrix (unless silent)
	if !cfg.Silent {
		d.RegisterWriter(writers.NewTableWriter(os.Stdout, writers.TableConfig{
			ColorEnabled:  cfg.ColorMode == ColorAlways,
			ColorDisabled: cfg.ColorMode == ColorNever,
		}))
	}

	// === DOCUMENT WRITERS ===

	// HTML report (written by default, -no-html suppresses it)
	if cfg.HTMLPath != "" && !cfg.NoHTML {
		f, err := openFile(cfg.HTMLPath)
		if err != nil {
			return nil, cleanup, err
		}
		d.RegisterWriter(writers.NewHTMLWriter(f, writers.HTMLConfig{
			Report: cfg.ReportConfig,
		}))
	}

	// JSON export
	if cfg.JSONExport != "" {
		f, err := openFile(cfg.JSONExport)
		if err != nil {
			return nil, cleanup, err
		}
		d.RegisterWriter(writers.NewJSONWriter(f, writers.JSONOptions{
			Pretty: true,
		}))
	}

	// JSONL export (streaming)
	if cfg.JSONLExport != "" {
		f, err := openFile(cfg.JSONLExport)
		if err != nil {
			return nil, cleanup, err
		}
		d.RegisterWriter(writers.NewJSONLWriter(f, writers.JSONLOptions{}))
	}

	// CSV export
	if cfg.CSVExport != "" {
		f, err := openFile(cfg.CSVExport)
		if err != nil {
			return nil, cleanup, err
		}
		// Host addresses and segment names come straight from scan
		// files, so exports always get formula sanitization.
		d.RegisterWriter(writers.NewCSVWriter(f, writers.CSVOptions{
			IncludeHeader:    true,
			SanitizeFormulas: true,
		}))
	}

	// Markdown export
	if cfg.MarkdownExport != "" {
		f, err := openFile(cfg.MarkdownExport)
		if err != nil {
			return nil, cleanup, err
		}
		d.RegisterWriter(writers.NewMarkdownWriter(f, writers.MarkdownConfig{
			Report: cfg.ReportConfig,
		}))
	}

	// PDF export
	if cfg.PDFExport != "" {
		f, err := openFile(cfg.PDFExport)
		if err != nil {
			return nil, cleanup, err
		}
		d.RegisterWriter(writers.NewPDFWriter(f, writers.PDFConfig{
			PageSize:    "A4",
			Orientation: "P",
			Report:      cfg.ReportConfig,
		}))
	}

	// Custom template export. A value matching a built-in name selects
	// it; anything else is read from disk.
	if cfg.TemplatePath != "" {
		f, err := openFile(cfg.TemplateOutput)
		if err != nil {
			return nil, cleanup, err
		}
		tmplCfg := writers.TemplateConfig{}
		if writers.IsBuiltInTemplate(cfg.TemplatePath) {
			tmplCfg.BuiltIn = cfg.TemplatePath
		} else {
			tmplCfg.TemplatePath = cfg.TemplatePath
		}
		w, err := writers.NewTemplateWriter(f, tmplCfg)
		if err != nil {
			return nil, cleanup, err
		}
		d.RegisterWriter(w)
	}

	return d, cleanup, nil
}
