package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

// TestVersion checks version constants
func TestVersion(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if BuildDate == "" {
		t.Error("BuildDate should not be empty")
	}
	if Author == "" {
		t.Error("Author should not be empty")
	}
}

// TestPadRight verifies padding measures printable width, not byte length.
func TestPadRight(t *testing.T) {
	t.Run("plain text", func(t *testing.T) {
		got := PadRight("pci_cde", 10)
		if got != "pci_cde   " {
			t.Errorf("PadRight() = %q, want %q", got, "pci_cde   ")
		}
	})

	t.Run("ansi colored text", func(t *testing.T) {
		colored := Red + "X" + Reset
		got := PadRight(colored, 4)
		if lipgloss.Width(got) != 4 {
			t.Errorf("printable width = %d, want 4", lipgloss.Width(got))
		}
		if !strings.HasSuffix(got, "   ") {
			t.Errorf("PadRight() = %q, want three trailing spaces", got)
		}
	})

	t.Run("already wide enough", func(t *testing.T) {
		got := PadRight("corp_lan", 3)
		if got != "corp_lan" {
			t.Errorf("PadRight() = %q, want unchanged input", got)
		}
	})
}

// TestTierStyle verifies each tier maps to a distinct style.
func TestTierStyle(t *testing.T) {
	for _, tier := range []string{"critical", "elevated", "normal", "bogus"} {
		style := TierStyle(tier)
		// Rendering must not panic and must preserve the text.
		out := style.Render(tier)
		if !strings.Contains(stripStyle(out), tier) {
			t.Errorf("TierStyle(%q).Render lost its text: %q", tier, out)
		}
	}
}

func stripStyle(s string) string {
	var b strings.Builder
	inEscape := false
	for _, r := range s {
		switch {
		case inEscape:
			if r == 'm' {
				inEscape = false
			}
		case r == '\x1b':
			inEscape = true
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// TestSilentMode verifies the silent flag round-trips.
func TestSilentMode(t *testing.T) {
	defer SetSilent(false)

	SetSilent(true)
	if !IsSilent() {
		t.Error("IsSilent() = false after SetSilent(true)")
	}
	SetSilent(false)
	if IsSilent() {
		t.Error("IsSilent() = true after SetSilent(false)")
	}
}
