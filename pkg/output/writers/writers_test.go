package writers

import (
	"testing"
	"time"

	"github.com/segmatrix/segmatrix/pkg/output/events"
	"github.com/segmatrix/segmatrix/pkg/segment"
	"github.com/segmatrix/segmatrix/pkg/tier"
)

// Shared fixture: three segments (one per zone), three hosts (one per
// tier), and the closing matrix event. Host and segment order matches
// the canonical emission order.
var fixtureTime = time.Date(2026, 8, 11, 14, 30, 0, 0, time.UTC)

const fixtureRunID = "4f6c2dd8-aa11-4c57-9c30-8f1f0a9b0c77"

func makeSegmentEvent(name string, typ segment.Type, hostCount int) *events.SegmentEvent {
	var source string
	switch typ {
	case segment.PCI:
		source = "PCI - " + name + ".gnmap"
	case segment.NonPCI:
		source = "NON PCI - " + name + ".gnmap"
	default:
		source = name + ".gnmap"
	}
	return &events.SegmentEvent{
		BaseEvent: events.BaseEvent{Type: events.EventTypeSegment, Time: fixtureTime, Run: fixtureRunID},
		Segment: events.SegmentInfo{
			Name:      name,
			Type:      typ,
			Source:    source,
			HostCount: hostCount,
		},
	}
}

func makeHostEvent(address string, t tier.Tier, reaching ...string) *events.HostEvent {
	return &events.HostEvent{
		BaseEvent: events.BaseEvent{Type: events.EventTypeHost, Time: fixtureTime, Run: fixtureRunID},
		Host: events.HostInfo{
			Address:  address,
			Tier:     t,
			Segments: reaching,
		},
	}
}

func makeMatrixEvent() *events.MatrixEvent {
	return &events.MatrixEvent{
		BaseEvent: events.BaseEvent{Type: events.EventTypeMatrix, Time: fixtureTime, Run: fixtureRunID},
		Version:   "1.2.0",
		Directory: "testdata/scans",
		Totals: events.MatrixTotals{
			Segments:        3,
			PCISegments:     1,
			NonPCISegments:  1,
			UnknownSegments: 1,
			Hosts:           3,
			NormalHosts:     1,
			ElevatedHosts:   1,
			CriticalHosts:   1,
		},
		Concerns: []events.ConcernInfo{
			{
				Host:     "10.0.0.5",
				Kind:     events.ConcernMultiSegment,
				Segments: []string{"Cardholder", "Corp"},
				Message:  "- Host 10.0.0.5 is reachable from multiple segments: Cardholder, Corp",
			},
			{
				Host:     "10.0.0.5",
				Kind:     events.ConcernCrossZone,
				Segments: []string{"Cardholder", "Corp"},
				Message:  "[!] Host 10.0.0.5 is reachable from both PCI and non-PCI segments: Cardholder, Corp",
			},
			{
				Host:     "10.0.0.9",
				Kind:     events.ConcernMultiSegment,
				Segments: []string{"Corp", "Mgmt"},
				Message:  "- Host 10.0.0.9 is reachable from multiple segments: Corp, Mgmt",
			},
		},
		Fingerprint: "9c1f03ab",
		Timing: events.MatrixTiming{
			StartedAt:   fixtureTime,
			CompletedAt: fixtureTime.Add(420 * time.Millisecond),
			DurationSec: 0.42,
		},
	}
}

// fixtureEvents returns the full event stream of a small run in
// canonical order: segments (pci, non-pci, unknown), hosts
// (lexicographic), then the matrix event.
func fixtureEvents() []events.Event {
	return []events.Event{
		makeSegmentEvent("Cardholder", segment.PCI, 1),
		makeSegmentEvent("Corp", segment.NonPCI, 3),
		makeSegmentEvent("Mgmt", segment.Unknown, 1),
		makeHostEvent("10.0.0.5", tier.Critical, "Cardholder", "Corp"),
		makeHostEvent("10.0.0.9", tier.Elevated, "Corp", "Mgmt"),
		makeHostEvent("192.168.1.4", tier.Normal, "Corp"),
		makeMatrixEvent(),
	}
}

// writeAll feeds every event through the writer's SupportsEvent filter
// the way the dispatcher would.
func writeAll(t *testing.T, w interface {
	Write(events.Event) error
	SupportsEvent(events.EventType) bool
}, evs []events.Event) {
	t.Helper()
	for _, e := range evs {
		if !w.SupportsEvent(e.EventType()) {
			continue
		}
		if err := w.Write(e); err != nil {
			t.Fatalf("write %s event failed: %v", e.EventType(), err)
		}
	}
}
