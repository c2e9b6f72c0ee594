package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/segmatrix/segmatrix/pkg/output/exitcode"
)

// DefaultHTMLName is the HTML report filename written next to the
// scans when -o is not given.
const DefaultHTMLName = "segmentation_matrix.html"

// Config holds all CLI configuration options
type Config struct {
	// Input settings
	Dir string // Directory scanned for .gnmap files (default: ".")

	// HTML report
	HTMLOutput string // HTML report path (default: segmentation_matrix.html under -dir)
	NoHTML     bool   // Suppress the HTML report

	// Export settings
	JSONExport     string // JSON document export path
	JSONLExport    string // JSONL event stream export path
	CSVExport      string // CSV export path
	MarkdownExport string // Markdown export path
	PDFExport      string // PDF export path

	// Template export
	TemplatePath   string // Built-in template name or template file path
	TemplateOutput string // Rendered template destination

	// Report branding
	ReportConfigPath string // YAML branding file

	// Console settings
	ForceColor bool // Force ANSI color on
	NoColor    bool // Disable ANSI color
	Silent     bool // Suppress banner and terminal matrix (exports only)
	Verbose    bool // Debug logging (per-file parse diagnostics)

	// Run behavior
	Strict      bool               // Duplicate segment names become fatal
	FailOn      exitcode.Threshold // CI tier gate: none, elevated, critical
	ShowVersion bool               // Print version and exit
}

// ColorMode resolves the color flags into the mode the output builder
// expects: "never" when color is disabled, "always" when forced,
// otherwise "auto".
func (c *Config) ColorMode() string {
	switch {
	case c.NoColor:
		return "never"
	case c.ForceColor:
		return "always"
	}
	return "auto"
}

// Parse parses command line arguments and returns Config.
// Validation problems are collected and returned as one joined error
// so a broken invocation can be fixed in a single pass. Flag-level
// parse errors (including flag.ErrHelp) pass through unwrapped;
// callers can tell them from validation problems via the package
// sentinels.
func Parse() (*Config, error) {
	cfg := &Config{}

	// === INPUT ===
	flag.StringVar(&cfg.Dir, "dir", ".", "Directory containing .gnmap scan files")
	flag.StringVar(&cfg.Dir, "d", ".", "Scan directory (alias)")

	// === HTML REPORT ===
	flag.StringVar(&cfg.HTMLOutput, "o", "", "HTML report path (default: segmentation_matrix.html under -dir)")
	flag.StringVar(&cfg.HTMLOutput, "output", "", "HTML report path (alias)")
	flag.BoolVar(&cfg.NoHTML, "no-html", false, "Skip the HTML report")

	// === EXPORTS ===
	flag.StringVar(&cfg.JSONExport, "json", "", "Write the run as a JSON document")
	flag.StringVar(&cfg.JSONLExport, "jsonl", "", "Write the event stream as JSON Lines")
	flag.StringVar(&cfg.CSVExport, "csv", "", "Write host/segment rows as CSV")
	flag.StringVar(&cfg.MarkdownExport, "md", "", "Write the report as Markdown")
	flag.StringVar(&cfg.PDFExport, "pdf", "", "Write the report as PDF")
	flag.StringVar(&cfg.TemplatePath, "template", "", "Custom export template: built-in name or file path")
	flag.StringVar(&cfg.TemplateOutput, "template-out", "", "Destination for the rendered template")

	// === BRANDING ===
	flag.StringVar(&cfg.ReportConfigPath, "report-config", "", "YAML report branding file")

	// === CONSOLE ===
	flag.BoolVar(&cfg.ForceColor, "color", false, "Force colored output")
	flag.BoolVar(&cfg.NoColor, "no-color", false, "Disable colored output")
	flag.BoolVar(&cfg.NoColor, "nc", false, "No color (alias)")
	flag.BoolVar(&cfg.Silent, "silent", false, "Silent mode - no banner, no terminal matrix")
	flag.BoolVar(&cfg.Silent, "s", false, "Silent (alias)")
	flag.BoolVar(&cfg.Verbose, "verbose", false, "Verbose output")
	flag.BoolVar(&cfg.Verbose, "v", false, "Verbose (alias)")

	// === RUN BEHAVIOR ===
	flag.BoolVar(&cfg.Strict, "strict", false, "Treat duplicate segment names as fatal")
	failOn := flag.String("fail-on", "none", "Exit 2 when a host reaches this tier: none, elevated, critical")
	flag.BoolVar(&cfg.ShowVersion, "version", false, "Print version and exit")

	// Parse with ContinueOnError so a bad flag surfaces as an error
	// instead of the flag package's own os.Exit(2); exit 2 is reserved
	// for the tier gate.
	flag.CommandLine.Init("segmatrix", flag.ContinueOnError)
	if err := flag.CommandLine.Parse(os.Args[1:]); err != nil {
		return nil, err
	}

	// Collect every validation problem before reporting
	var problems []error

	threshold, err := exitcode.ParseThreshold(*failOn)
	if err != nil {
		problems = append(problems, fmt.Errorf("%w: %v", ErrInvalidValue, err))
	}
	cfg.FailOn = threshold

	if cfg.Dir == "" {
		problems = append(problems, fmt.Errorf("%w: -dir must not be empty", ErrInvalidValue))
	}

	if cfg.TemplatePath != "" && cfg.TemplateOutput == "" {
		problems = append(problems, fmt.Errorf("%w: -template-out is required when -template is set", ErrMissingRequired))
	}
	if cfg.TemplateOutput != "" && cfg.TemplatePath == "" {
		problems = append(problems, fmt.Errorf("%w: -template is required when -template-out is set", ErrMissingRequired))
	}

	if cfg.ForceColor && cfg.NoColor {
		problems = append(problems, fmt.Errorf("%w: -color and -no-color are mutually exclusive", ErrInvalidValue))
	}

	if len(problems) > 0 {
		return nil, errors.Join(problems...)
	}

	// The default HTML report lives next to the scans
	if cfg.HTMLOutput == "" {
		cfg.HTMLOutput = filepath.Join(cfg.Dir, DefaultHTMLName)
	}

	return cfg, nil
}
