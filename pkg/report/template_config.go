// Package report provides branding configuration for the generated
// documents (HTML, PDF, Markdown).
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/segmatrix/segmatrix/internal/hexutil"
)

// TemplateConfig defines customizable report settings.
// Configuration is loaded from YAML files to allow per-organization
// branding, palette overrides, and section visibility.
type TemplateConfig struct {
	// Name is the configuration identifier (e.g., "classic", "acme")
	Name string `yaml:"name" json:"name"`

	// Version is the config version for compatibility
	Version string `yaml:"version" json:"version"`

	// Branding customizes titles and footer text
	Branding BrandingConfig `yaml:"branding" json:"branding"`

	// Palette overrides the document colors
	Palette PaletteConfig `yaml:"palette" json:"palette"`

	// Sections defines which report sections to include
	Sections SectionConfig `yaml:"sections" json:"sections"`
}

// BrandingConfig holds organization branding information.
type BrandingConfig struct {
	// Title is the report heading. Empty keeps the classic headerless
	// document layout.
	Title string `yaml:"title" json:"title"`

	// Organization appears next to the title and in the PDF cover block
	Organization string `yaml:"organization" json:"organization"`

	// FooterText appears in the document footer before the generator line
	FooterText string `yaml:"footer_text" json:"footer_text"`

	// ShowGenerator shows the "Generated by segmatrix" footer line
	ShowGenerator bool `yaml:"show_generator" json:"show_generator"`
}

// PaletteConfig holds the document colors. Values are hex colors in
// #rgb or #rrggbb form. Tier cells are backgrounds for the matrix X
// cells; header colors style the segment column headers by type.
type PaletteConfig struct {
	// CriticalCell is the background for hosts reachable from both zones
	CriticalCell string `yaml:"critical_cell" json:"critical_cell"`

	// ElevatedCell is the background for hosts reachable from multiple segments
	ElevatedCell string `yaml:"elevated_cell" json:"elevated_cell"`

	// NormalCell is the background for single-segment hosts
	NormalCell string `yaml:"normal_cell" json:"normal_cell"`

	// PCIHeaderBackground / PCIHeaderText style PCI segment columns
	PCIHeaderBackground string `yaml:"pci_header_background" json:"pci_header_background"`
	PCIHeaderText       string `yaml:"pci_header_text" json:"pci_header_text"`

	// NonPCIHeaderBackground / NonPCIHeaderText style non-PCI segment columns
	NonPCIHeaderBackground string `yaml:"non_pci_header_background" json:"non_pci_header_background"`
	NonPCIHeaderText       string `yaml:"non_pci_header_text" json:"non_pci_header_text"`
}

// SectionConfig enables or disables specific report sections.
type SectionConfig struct {
	// Legend shows the colored key explaining the X cells
	Legend bool `yaml:"legend" json:"legend"`

	// Concerns shows the areas-of-concern section
	Concerns bool `yaml:"concerns" json:"concerns"`

	// Breakdown shows the client-facing explanatory paragraph
	// (Markdown and PDF reports)
	Breakdown bool `yaml:"breakdown" json:"breakdown"`

	// Footer shows the footer line (generator, version, fingerprint)
	Footer bool `yaml:"footer" json:"footer"`
}

// DefaultTemplateConfig returns the default configuration. The palette
// matches the classic document colors so an unconfigured run renders
// the report assessors already know.
func DefaultTemplateConfig() *TemplateConfig {
	return &TemplateConfig{
		Name:    "classic",
		Version: "1.0",
		Branding: BrandingConfig{
			ShowGenerator: true,
		},
		Palette: PaletteConfig{
			CriticalCell:           "#ffcccc",
			ElevatedCell:           "#ffff99",
			NormalCell:             "#ccffcc",
			PCIHeaderBackground:    "#b3d1ff",
			PCIHeaderText:          "#003366",
			NonPCIHeaderBackground: "#fff2cc",
			NonPCIHeaderText:       "#7f6000",
		},
		Sections: SectionConfig{
			Legend:    true,
			Concerns:  true,
			Breakdown: true,
			Footer:    true,
		},
	}
}

// LoadTemplateConfig loads a configuration from a YAML file. Keys not
// present in the file keep their default values, so a partial override
// (say, just an organization name) is a two-line file.
func LoadTemplateConfig(path string) (*TemplateConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultTemplateConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SaveTemplateConfig writes a configuration to a YAML file.
func SaveTemplateConfig(cfg *TemplateConfig, path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ValidateConfig checks configuration for errors and returns descriptive
// validation errors instead of silently correcting values.
func ValidateConfig(cfg *TemplateConfig) error {
	var errs []string

	colors := []struct {
		field string
		value string
	}{
		{"palette.critical_cell", cfg.Palette.CriticalCell},
		{"palette.elevated_cell", cfg.Palette.ElevatedCell},
		{"palette.normal_cell", cfg.Palette.NormalCell},
		{"palette.pci_header_background", cfg.Palette.PCIHeaderBackground},
		{"palette.pci_header_text", cfg.Palette.PCIHeaderText},
		{"palette.non_pci_header_background", cfg.Palette.NonPCIHeaderBackground},
		{"palette.non_pci_header_text", cfg.Palette.NonPCIHeaderText},
	}
	for _, c := range colors {
		if !hexutil.IsColor(c.value) {
			errs = append(errs, fmt.Sprintf("invalid %s %q: must be #rgb or #rrggbb hex", c.field, c.value))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidColor, strings.Join(errs, "; "))
	}

	return nil
}
