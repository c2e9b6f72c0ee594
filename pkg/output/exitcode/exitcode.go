// Package exitcode provides semantic exit codes for CI/CD integration.
// Exit codes communicate run outcomes to automation pipelines.
//
// Exit codes:
//   - 0: Success (matrix generated, tier gate clear)
//   - 1: Fatal error (unreadable scans, malformed records, write failures)
//   - 2: Tier gate tripped (-fail-on threshold reached)
//   - 3: Invalid configuration
package exitcode

import (
	"fmt"
	"strings"
	"sync"

	"github.com/segmatrix/segmatrix/pkg/output/events"
)

// Code represents a semantic exit code for CI/CD pipelines.
type Code int

const (
	// Success indicates the run completed and the tier gate is clear.
	Success Code = 0
	// Fatal indicates the run aborted on an unrecoverable error.
	Fatal Code = 1
	// TierGate indicates a host reached the configured -fail-on tier.
	TierGate Code = 2
	// Configuration indicates invalid configuration was provided.
	Configuration Code = 3
)

// codeStrings maps exit codes to human-readable descriptions.
var codeStrings = map[Code]string{
	Success:       "success",
	Fatal:         "fatal_error",
	TierGate:      "tier_gate_tripped",
	Configuration: "invalid_configuration",
}

// codeDescriptions provides detailed descriptions for exit codes.
var codeDescriptions = map[Code]string{
	Success:       "Run completed successfully with the tier gate clear",
	Fatal:         "Run aborted on an unrecoverable error",
	TierGate:      "One or more hosts reached the configured failure tier",
	Configuration: "Invalid configuration provided",
}

// Threshold is a -fail-on gate setting. A host at or above the
// threshold tier trips the gate.
type Threshold string

const (
	// ThresholdNone disables the tier gate.
	ThresholdNone Threshold = "none"
	// ThresholdElevated trips the gate on elevated or critical hosts.
	ThresholdElevated Threshold = "elevated"
	// ThresholdCritical trips the gate on critical hosts only.
	ThresholdCritical Threshold = "critical"
)

// ParseThreshold parses a -fail-on flag value. The empty string maps
// to ThresholdNone.
func ParseThreshold(s string) (Threshold, error) {
	switch Threshold(strings.ToLower(s)) {
	case ThresholdNone, "":
		return ThresholdNone, nil
	case ThresholdElevated:
		return ThresholdElevated, nil
	case ThresholdCritical:
		return ThresholdCritical, nil
	}
	return "", fmt.Errorf("invalid -fail-on value %q (valid: none, elevated, critical)", s)
}

// Config holds configuration for the exit code manager.
type Config struct {
	// Threshold is the -fail-on tier gate setting.
	// Default: ThresholdNone
	Threshold Threshold
}

// DefaultConfig returns the default exit code configuration.
func DefaultConfig() Config {
	return Config{
		Threshold: ThresholdNone,
	}
}

// Manager tracks run outcomes and determines the appropriate exit code.
type Manager struct {
	cfg      Config
	elevated int
	critical int
	mu       sync.Mutex

	// Special state flags
	fatal       bool
	configError bool
}

// New creates a new exit code manager with the given configuration.
func New(cfg Config) *Manager {
	// Apply defaults for zero values
	if cfg.Threshold == "" {
		cfg.Threshold = ThresholdNone
	}

	return &Manager{
		cfg: cfg,
	}
}

// Record records a classified host tier.
func (m *Manager) Record(t events.Tier) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch t {
	case events.TierElevated:
		m.elevated++
	case events.TierCritical:
		m.critical++
	}
}

// RecordTotals records the tier counters from a completed matrix.
func (m *Manager) RecordTotals(totals events.MatrixTotals) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.elevated += totals.ElevatedHosts
	m.critical += totals.CriticalHosts
}

// SetFatal marks that an unrecoverable error occurred.
func (m *Manager) SetFatal() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fatal = true
}

// SetConfigError marks that a configuration error occurred.
func (m *Manager) SetConfigError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configError = true
}

// ExitCode returns the appropriate exit code based on recorded outcomes.
// The returned string provides a human-readable reason for the code.
//
// Priority order (highest to lowest):
//  1. Configuration error
//  2. Fatal error
//  3. Tier gate
//  4. Success
func (m *Manager) ExitCode() (Code, string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Check special states in priority order
	if m.configError {
		return Configuration, codeDescriptions[Configuration]
	}

	if m.fatal {
		return Fatal, codeDescriptions[Fatal]
	}

	// Check the tier gate: a host at or above the threshold trips it.
	switch m.cfg.Threshold {
	case ThresholdElevated:
		if m.elevated+m.critical > 0 {
			return TierGate, fmt.Sprintf("%s (threshold: %s, elevated: %d, critical: %d)",
				codeDescriptions[TierGate], m.cfg.Threshold, m.elevated, m.critical)
		}
	case ThresholdCritical:
		if m.critical > 0 {
			return TierGate, fmt.Sprintf("%s (threshold: %s, critical: %d)",
				codeDescriptions[TierGate], m.cfg.Threshold, m.critical)
		}
	}

	return Success, codeDescriptions[Success]
}

// String returns the string representation of an exit code.
func (m *Manager) String(code Code) string {
	if s, ok := codeStrings[code]; ok {
		return s
	}
	return fmt.Sprintf("unknown_code_%d", code)
}

// Stats returns the current elevated and critical host counts.
func (m *Manager) Stats() (elevated, critical int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.elevated, m.critical
}

// Reset clears all recorded outcomes and state flags.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.elevated = 0
	m.critical = 0
	m.fatal = false
	m.configError = false
}

// CodeString returns the string representation of any exit code.
// This is a package-level function for convenience.
func CodeString(code Code) string {
	if s, ok := codeStrings[code]; ok {
		return s
	}
	return fmt.Sprintf("unknown_code_%d", code)
}

// CodeDescription returns a detailed description of an exit code.
func CodeDescription(code Code) string {
	if s, ok := codeDescriptions[code]; ok {
		return s
	}
	return fmt.Sprintf("Unknown exit code: %d", code)
}
