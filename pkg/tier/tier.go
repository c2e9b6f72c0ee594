// Package tier classifies hosts by segmentation exposure.
// A host's tier is derived from the set of segments that can reach it;
// the rules are color-free so renderers decide presentation.
package tier

import (
	"errors"
	"fmt"
)

// ErrInvalidTier indicates a string does not name a known tier.
// Callers should use errors.Is() to check for it.
var ErrInvalidTier = errors.New("tier: invalid tier")

// Tier represents the segmentation-exposure classification of a host.
// All values are lowercase strings.
type Tier string

const (
	// Normal represents a host reachable from exactly one segment.
	Normal Tier = "normal"

	// Elevated represents a host reachable from more than one segment,
	// all on the same side of the PCI boundary.
	Elevated Tier = "elevated"

	// Critical represents a host reachable from both a PCI and a
	// non-PCI segment, a segmentation-control failure.
	Critical Tier = "critical"
)

// Classify derives a tier from reachability facts about one host.
// segments is the number of segments reaching the host; hasPCI and
// hasNonPCI report whether any of them is PCI- or non-PCI-typed.
// Precedence: crossing the PCI boundary always wins, then multiple
// segments, then normal. A host reached by exactly one segment is
// never elevated or critical.
func Classify(segments int, hasPCI, hasNonPCI bool) Tier {
	switch {
	case hasPCI && hasNonPCI:
		return Critical
	case segments > 1:
		return Elevated
	default:
		return Normal
	}
}

// Parse converts a string into a Tier, accepting only exact lowercase
// tier names. Returns ErrInvalidTier for anything else.
func Parse(s string) (Tier, error) {
	t := Tier(s)
	if !t.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidTier, s)
	}
	return t, nil
}

// IsValid reports whether t is a recognized tier.
func (t Tier) IsValid() bool {
	switch t {
	case Normal, Elevated, Critical:
		return true
	}
	return false
}

// Score returns a numeric score for sorting and threshold comparison.
// Critical=3, Elevated=2, Normal=1, unknown=0.
func (t Tier) Score() int {
	switch t {
	case Critical:
		return 3
	case Elevated:
		return 2
	case Normal:
		return 1
	default:
		return 0
	}
}

// String returns the tier as a string.
func (t Tier) String() string {
	return string(t)
}
