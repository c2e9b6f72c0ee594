// Package segment defines network segments and their PCI classification.
// A segment corresponds to one scan-result file; its type is derived
// from the filename convention and decides which side of the PCI
// boundary the segment sits on.
package segment

// Type represents the compliance classification of a segment.
// All values are lowercase strings.
type Type string

const (
	// PCI represents a segment in scope for payment-card-data
	// compliance.
	PCI Type = "pci"

	// NonPCI represents a segment explicitly outside PCI scope.
	NonPCI Type = "non_pci"

	// Unknown represents a segment whose filename carried no
	// classification prefix.
	Unknown Type = "unknown"
)

// IsValid reports whether t is a recognized segment type.
func (t Type) IsValid() bool {
	switch t {
	case PCI, NonPCI, Unknown:
		return true
	}
	return false
}

// Rank returns the display ordering of the type: PCI columns come
// first, then non-PCI, then unknown.
func (t Type) Rank() int {
	switch t {
	case PCI:
		return 0
	case NonPCI:
		return 1
	default:
		return 2
	}
}

// String returns the type as a string.
func (t Type) String() string {
	return string(t)
}

// Segment is one network zone as seen by a single scan file.
// Built once by the loader and immutable afterwards.
type Segment struct {
	// Name is the segment name derived from the filename.
	Name string

	// Type is the compliance classification derived from the filename
	// prefix.
	Type Type

	// Source is the filename the segment was loaded from.
	Source string

	// Hosts is the set of host addresses with at least one open port
	// in this segment's scan.
	Hosts map[string]struct{}
}

// Reaches reports whether the segment's scan recorded host as
// reachable.
func (s Segment) Reaches(host string) bool {
	_, ok := s.Hosts[host]
	return ok
}
