// Package matrix aggregates loaded segments into a host-by-segment
// reachability table, classifies every host, and derives the
// areas-of-concern list shared by all renderers.
package matrix

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spaolacci/murmur3"

	"github.com/segmatrix/segmatrix/pkg/segment"
	"github.com/segmatrix/segmatrix/pkg/tier"
)

// ConcernKind names the rule that triggered an area-of-concern entry.
type ConcernKind string

const (
	// KindMultiSegment flags a host reachable from more than one
	// segment.
	KindMultiSegment ConcernKind = "multi_segment"

	// KindCrossZone flags a host reachable from both a PCI and a
	// non-PCI segment.
	KindCrossZone ConcernKind = "cross_zone"
)

// Concern is one triggered rule for one host. A critical host
// triggers both rules and therefore appears twice, multi-segment
// entry first.
type Concern struct {
	Host     string
	Kind     ConcernKind
	Segments []string
}

// Message renders the concern as the fixed report sentence used by
// every output format.
func (c Concern) Message() string {
	list := strings.Join(c.Segments, ", ")
	if c.Kind == KindCrossZone {
		return fmt.Sprintf("[!] Host %s is reachable from both PCI and non-PCI segments: %s", c.Host, list)
	}
	return fmt.Sprintf("- Host %s is reachable from multiple segments: %s", c.Host, list)
}

// Matrix is the aggregated reachability table. Segments hold their
// canonical column order (PCI, then non-PCI, then unknown, each group
// sorted by name); hosts are sorted lexicographically. Built once and
// never mutated.
type Matrix struct {
	segments []segment.Segment
	hosts    []string
	byName   map[string]int
}

// Build aggregates segments into a Matrix. The input slice is not
// modified; segment names are assumed unique (the loader resolves
// collisions before aggregation).
func Build(segments []segment.Segment) Matrix {
	segs := make([]segment.Segment, len(segments))
	copy(segs, segments)
	sort.SliceStable(segs, func(i, j int) bool {
		if segs[i].Type.Rank() != segs[j].Type.Rank() {
			return segs[i].Type.Rank() < segs[j].Type.Rank()
		}
		return segs[i].Name < segs[j].Name
	})

	seen := make(map[string]struct{})
	for _, s := range segs {
		for h := range s.Hosts {
			seen[h] = struct{}{}
		}
	}
	hosts := make([]string, 0, len(seen))
	for h := range seen {
		hosts = append(hosts, h)
	}
	sort.Strings(hosts)

	byName := make(map[string]int, len(segs))
	for i, s := range segs {
		byName[s.Name] = i
	}

	return Matrix{segments: segs, hosts: hosts, byName: byName}
}

// Segments returns the segments in canonical column order. The slice
// is shared; callers must not modify it.
func (m Matrix) Segments() []segment.Segment {
	return m.segments
}

// Hosts returns all hosts in lexicographic row order. The slice is
// shared; callers must not modify it.
func (m Matrix) Hosts() []string {
	return m.hosts
}

// NamesByType returns the names of all segments of the given type, in
// canonical order.
func (m Matrix) NamesByType(t segment.Type) []string {
	var names []string
	for _, s := range m.segments {
		if s.Type == t {
			names = append(names, s.Name)
		}
	}
	return names
}

// Reach reports whether the named segment recorded host as reachable.
// Unknown segment names reach nothing.
func (m Matrix) Reach(host, segmentName string) bool {
	i, ok := m.byName[segmentName]
	if !ok {
		return false
	}
	return m.segments[i].Reaches(host)
}

// Reaching returns the names of all segments reaching host, in
// canonical order.
func (m Matrix) Reaching(host string) []string {
	var names []string
	for _, s := range m.segments {
		if s.Reaches(host) {
			names = append(names, s.Name)
		}
	}
	return names
}

// TierOf classifies host from the segments reaching it.
func (m Matrix) TierOf(host string) tier.Tier {
	count := 0
	hasPCI, hasNonPCI := false, false
	for _, s := range m.segments {
		if !s.Reaches(host) {
			continue
		}
		count++
		switch s.Type {
		case segment.PCI:
			hasPCI = true
		case segment.NonPCI:
			hasNonPCI = true
		}
	}
	return tier.Classify(count, hasPCI, hasNonPCI)
}

// TierCounts returns how many hosts fall into each tier.
func (m Matrix) TierCounts() map[tier.Tier]int {
	counts := make(map[tier.Tier]int, 3)
	for _, h := range m.hosts {
		counts[m.TierOf(h)]++
	}
	return counts
}

// TypeCounts returns how many segments carry each type.
func (m Matrix) TypeCounts() map[segment.Type]int {
	counts := make(map[segment.Type]int, 3)
	for _, s := range m.segments {
		counts[s.Type]++
	}
	return counts
}

// Concerns derives the areas-of-concern list: hosts ordered
// lexicographically, and for each host the multi-segment entry before
// the cross-zone entry when both rules fire.
func (m Matrix) Concerns() []Concern {
	var concerns []Concern
	for _, h := range m.hosts {
		reaching := m.Reaching(h)
		t := m.TierOf(h)

		if len(reaching) > 1 {
			concerns = append(concerns, Concern{Host: h, Kind: KindMultiSegment, Segments: reaching})
		}
		if t == tier.Critical {
			concerns = append(concerns, Concern{Host: h, Kind: KindCrossZone, Segments: reaching})
		}
	}
	return concerns
}

// Fingerprint hashes the canonical cell content into a stable
// 8-hex-digit string, letting two runs over the same inputs be
// compared at a glance. Any changed cell, host, segment name, or
// segment type changes the fingerprint.
func (m Matrix) Fingerprint() string {
	var b strings.Builder
	for _, s := range m.segments {
		b.WriteString(s.Name)
		b.WriteByte('|')
		b.WriteString(string(s.Type))
		b.WriteByte('\n')
	}
	for _, h := range m.hosts {
		b.WriteString(h)
		b.WriteByte('|')
		for _, s := range m.segments {
			if s.Reaches(h) {
				b.WriteByte('X')
			} else {
				b.WriteByte('-')
			}
		}
		b.WriteByte('\n')
	}
	return fmt.Sprintf("%08x", murmur3.Sum32([]byte(b.String())))
}
