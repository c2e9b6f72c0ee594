package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTemplateConfig(t *testing.T) {
	t.Parallel()
	cfg := DefaultTemplateConfig()

	// Classic palette
	assert.Equal(t, "#ffcccc", cfg.Palette.CriticalCell)
	assert.Equal(t, "#ffff99", cfg.Palette.ElevatedCell)
	assert.Equal(t, "#ccffcc", cfg.Palette.NormalCell)
	assert.Equal(t, "#b3d1ff", cfg.Palette.PCIHeaderBackground)
	assert.Equal(t, "#003366", cfg.Palette.PCIHeaderText)
	assert.Equal(t, "#fff2cc", cfg.Palette.NonPCIHeaderBackground)
	assert.Equal(t, "#7f6000", cfg.Palette.NonPCIHeaderText)

	// Classic document has no title block
	assert.Empty(t, cfg.Branding.Title)
	assert.True(t, cfg.Branding.ShowGenerator)

	// All sections on
	assert.True(t, cfg.Sections.Legend)
	assert.True(t, cfg.Sections.Concerns)
	assert.True(t, cfg.Sections.Breakdown)
	assert.True(t, cfg.Sections.Footer)

	// Defaults must pass their own validation
	require.NoError(t, ValidateConfig(cfg))
}

func TestLoadTemplateConfig(t *testing.T) {
	t.Parallel()

	t.Run("partial override keeps defaults", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "branding.yaml")
		yaml := `
branding:
  title: "Q3 Segmentation Assessment"
  organization: "Acme Payments"
palette:
  critical_cell: "#ff8080"
`
		require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

		cfg, err := LoadTemplateConfig(path)
		require.NoError(t, err)

		assert.Equal(t, "Q3 Segmentation Assessment", cfg.Branding.Title)
		assert.Equal(t, "Acme Payments", cfg.Branding.Organization)
		assert.Equal(t, "#ff8080", cfg.Palette.CriticalCell)
		// Untouched keys keep default values
		assert.Equal(t, "#ffff99", cfg.Palette.ElevatedCell)
		assert.True(t, cfg.Sections.Concerns)
	})

	t.Run("section toggles", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "branding.yaml")
		yaml := `
sections:
  legend: false
  footer: false
`
		require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

		cfg, err := LoadTemplateConfig(path)
		require.NoError(t, err)

		assert.False(t, cfg.Sections.Legend)
		assert.False(t, cfg.Sections.Footer)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := LoadTemplateConfig(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "broken.yaml")
		require.NoError(t, os.WriteFile(path, []byte("branding: [unclosed"), 0644))

		_, err := LoadTemplateConfig(path)
		assert.Error(t, err)
	})
}

func TestSaveTemplateConfigRoundTrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nested", "branding.yaml")

	cfg := DefaultTemplateConfig()
	cfg.Branding.Organization = "Acme Payments"
	cfg.Palette.NormalCell = "#e0ffe0"
	require.NoError(t, SaveTemplateConfig(cfg, path))

	loaded, err := LoadTemplateConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "Acme Payments", loaded.Branding.Organization)
	assert.Equal(t, "#e0ffe0", loaded.Palette.NormalCell)
}

func TestValidateConfig(t *testing.T) {
	t.Parallel()

	t.Run("bad colors collected", func(t *testing.T) {
		t.Parallel()
		cfg := DefaultTemplateConfig()
		cfg.Palette.CriticalCell = "red"
		cfg.Palette.PCIHeaderText = "#12345"

		err := ValidateConfig(cfg)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidColor)
		// Both problems surface in one error
		assert.Contains(t, err.Error(), "palette.critical_cell")
		assert.Contains(t, err.Error(), "palette.pci_header_text")
		assert.Contains(t, err.Error(), "; ")
	})

	t.Run("shorthand hex accepted", func(t *testing.T) {
		t.Parallel()
		cfg := DefaultTemplateConfig()
		cfg.Palette.NormalCell = "#0f0"
		assert.NoError(t, ValidateConfig(cfg))
	})
}
