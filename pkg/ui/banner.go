package ui

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Version information - these can be overridden at build time via ldflags:
// go build -ldflags "-X github.com/segmatrix/segmatrix/pkg/ui.Version=1.0.0"
var (
	Version   = "1.2.0"
	BuildDate = "2026-08-11"
	Commit    = "dev"
)

const (
	Author  = "Segmatrix Team"
	Website = "https://github.com/segmatrix/segmatrix"
)

// Global UI state
var (
	silentMode  bool
	noColorMode bool
	uiMu        sync.RWMutex
)

// SetSilent enables or disables silent mode (suppresses most output)
func SetSilent(silent bool) {
	uiMu.Lock()
	defer uiMu.Unlock()
	silentMode = silent
}

// IsSilent returns whether silent mode is enabled
func IsSilent() bool {
	uiMu.RLock()
	defer uiMu.RUnlock()
	return silentMode
}

// SetNoColor disables colored output
func SetNoColor(noColor bool) {
	uiMu.Lock()
	defer uiMu.Unlock()
	noColorMode = noColor
	if noColor {
		// Use ASCII profile to disable colors
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// IsNoColor returns whether color is disabled
func IsNoColor() bool {
	uiMu.RLock()
	defer uiMu.RUnlock()
	return noColorMode
}

// ASCII art banner
const bannerArt = `
   ________  ____ _____ ___  ____ _/ /______(_)  __
  / ___/ _ \/ __ '/ __ '__ \/ __ '/ __/ ___/ / |/_/
 (__  )  __/ /_/ / / / / / / /_/ / /_/ /  / />  <
/____/\___/\__, /_/ /_/ /_/\__,_/\__/_/  /_/_/|_|
          /____/
`

// Separator line
const bannerSeparator = "________________________________________________"

// PrintBanner prints the application banner with version info to stderr.
func PrintBanner() {
	lines := strings.Split(bannerArt, "\n")
	for _, line := range lines {
		if line != "" {
			fmt.Fprintln(os.Stderr, BannerStyle.Render(line))
		}
	}

	fmt.Fprintf(os.Stderr, "                  v%s\n", VersionStyle.Render(Version))
	fmt.Fprintf(os.Stderr, "\n\t\t%s\n\n", Website)
}

// printOption prints a configuration option in ffuf/nuclei style
// Format:  :: Option              : Value
func printOption(name, value string) {
	fmt.Fprintf(os.Stderr, " :: %-20s : %s\n", ConfigLabelStyle.Render(name), ConfigValueStyle.Render(value))
}

// PrintConfigBanner prints the resolved run configuration before the
// scan directory is read. Uses ordered keys for consistent display.
func PrintConfigBanner(options map[string]string) {
	if IsSilent() {
		return
	}

	order := []string{
		"Directory", "HTML Report", "JSON", "JSONL", "CSV",
		"Markdown", "PDF", "Template", "Report Config",
		"Fail On", "Strict",
	}

	// Print in defined order first
	printed := make(map[string]bool)
	for _, name := range order {
		if value, ok := options[name]; ok && value != "" {
			printOption(name, value)
			printed[name] = true
		}
	}

	// Print any remaining options not in the order list
	for name, value := range options {
		if !printed[name] && value != "" {
			printOption(name, value)
		}
	}

	fmt.Fprintf(os.Stderr, "%s\n\n", DividerStyle.Render(bannerSeparator))
}

// PrintDivider prints a stylized divider (to stderr)
func PrintDivider() {
	divider := strings.Repeat("-", 75)
	fmt.Fprintln(os.Stderr, DividerStyle.Render(divider))
}

// PrintSection prints a section header (to stderr)
func PrintSection(title string) {
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, SectionStyle.Render("> "+title))
	PrintDivider()
}

// PrintHelp prints contextual help (to stderr)
func PrintHelp(text string) {
	fmt.Fprintln(os.Stderr, HelpStyle.Render("  [i] "+text))
}

// PrintSuccess prints a success message (to stderr)
func PrintSuccess(message string) {
	fmt.Fprintln(os.Stderr, PassStyle.Render("  [+] "+message))
}

// PrintError prints an error message (to stderr)
func PrintError(message string) {
	fmt.Fprintln(os.Stderr, FailStyle.Render("  [X] "+message))
}

// PrintWarning prints a warning message (to stderr)
func PrintWarning(message string) {
	fmt.Fprintln(os.Stderr, WarnStyle.Render("  [!] "+message))
}

// PrintInfo prints an info message (to stderr)
func PrintInfo(message string) {
	fmt.Fprintf(os.Stderr, "  %s %s\n", InfoStyle.Render("*"), message)
}
