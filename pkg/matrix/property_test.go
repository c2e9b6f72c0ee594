package matrix

import (
	"sort"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/segmatrix/segmatrix/pkg/segment"
	"github.com/segmatrix/segmatrix/pkg/tier"
)

// typeFor derives a segment type from a name so generated inputs stay
// deterministic without a second generator.
func typeFor(name string) segment.Type {
	switch len(name) % 3 {
	case 0:
		return segment.PCI
	case 1:
		return segment.NonPCI
	default:
		return segment.Unknown
	}
}

// TestMatrixProperties verifies the classification invariants over
// generated inputs. These must hold for any segment mix.
func TestMatrixProperties(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	// A host reached by exactly one segment is always normal,
	// whatever the segment's type.
	properties.Property("single-segment hosts are normal", prop.ForAll(
		func(host, segName string, typeIdx int) bool {
			segType := []segment.Type{segment.PCI, segment.NonPCI, segment.Unknown}[typeIdx]
			m := Build([]segment.Segment{mkSegment(segName, segType, host)})
			return m.TierOf(host) == tier.Normal
		},
		gen.Identifier(),
		gen.Identifier(),
		gen.IntRange(0, 2),
	))

	// Hosts shared by two or more segments of the same type are
	// elevated, never critical.
	properties.Property("same-type multi-segment hosts are elevated", prop.ForAll(
		func(host string, names []string, typeIdx int) bool {
			names = dedupe(names)
			if len(names) < 2 {
				return true // not enough distinct segments, skip
			}
			segType := []segment.Type{segment.PCI, segment.NonPCI, segment.Unknown}[typeIdx]
			segs := make([]segment.Segment, len(names))
			for i, n := range names {
				segs[i] = mkSegment(n, segType, host)
			}
			return Build(segs).TierOf(host) == tier.Elevated
		},
		gen.Identifier(),
		gen.SliceOf(gen.Identifier()),
		gen.IntRange(0, 2),
	))

	// A host reached from both sides of the PCI boundary is critical
	// no matter how many extra segments also reach it.
	properties.Property("cross-boundary hosts are critical", prop.ForAll(
		func(host string, extras []string) bool {
			segs := []segment.Segment{
				mkSegment("p0", segment.PCI, host),
				mkSegment("n0", segment.NonPCI, host),
			}
			for _, n := range dedupe(extras) {
				segs = append(segs, mkSegment("x"+n, segment.Unknown, host))
			}
			return Build(segs).TierOf(host) == tier.Critical
		},
		gen.Identifier(),
		gen.SliceOf(gen.Identifier()),
	))

	// Column order is monotone in type rank and by name inside each
	// rank, regardless of input order.
	properties.Property("columns are canonically ordered", prop.ForAll(
		func(names []string) bool {
			names = dedupe(names)
			segs := make([]segment.Segment, len(names))
			for i, n := range names {
				segs[i] = mkSegment(n, typeFor(n))
			}
			cols := Build(segs).Segments()
			for i := 1; i < len(cols); i++ {
				prev, cur := cols[i-1], cols[i]
				if prev.Type.Rank() > cur.Type.Rank() {
					return false
				}
				if prev.Type.Rank() == cur.Type.Rank() && prev.Name > cur.Name {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Identifier()),
	))

	// Host rows are always sorted ascending.
	properties.Property("host rows are sorted", prop.ForAll(
		func(hosts []string) bool {
			m := Build([]segment.Segment{mkSegment("s", segment.Unknown, hosts...)})
			return sort.StringsAreSorted(m.Hosts())
		},
		gen.SliceOf(gen.Identifier()),
	))

	properties.TestingRun(t)
}

// dedupe removes duplicate names, preserving first occurrence order.
func dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := names[:0]
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
