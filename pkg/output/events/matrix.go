package events

import "time"

// MatrixEvent is the closing event of a run. It carries segment and
// host totals, the derived areas of concern, the matrix fingerprint,
// and timing. Buffering writers render their documents when it
// arrives.
type MatrixEvent struct {
	BaseEvent
	Version     string        `json:"version"`
	Directory   string        `json:"directory"`
	Totals      MatrixTotals  `json:"totals"`
	Concerns    []ConcernInfo `json:"concerns"`
	Fingerprint string        `json:"fingerprint"`
	Timing      MatrixTiming  `json:"timing"`
}

// MatrixTotals contains aggregate counts for the run.
type MatrixTotals struct {
	Segments        int `json:"segments"`
	PCISegments     int `json:"pci_segments"`
	NonPCISegments  int `json:"non_pci_segments"`
	UnknownSegments int `json:"unknown_segments"`
	Hosts           int `json:"hosts"`
	NormalHosts     int `json:"normal_hosts"`
	ElevatedHosts   int `json:"elevated_hosts"`
	CriticalHosts   int `json:"critical_hosts"`
}

// Concern kinds carried on ConcernInfo.
const (
	// ConcernMultiSegment flags a host reachable from more than one
	// segment.
	ConcernMultiSegment = "multi_segment"
	// ConcernCrossZone flags a host reachable from both sides of the
	// PCI boundary.
	ConcernCrossZone = "cross_zone"
)

// ConcernInfo is one triggered areas-of-concern rule for one host.
// Message is the fixed report sentence shared by all formats.
type ConcernInfo struct {
	Host     string   `json:"host"`
	Kind     string   `json:"kind"`
	Segments []string `json:"segments"`
	Message  string   `json:"message"`
}

// MatrixTiming contains timing information for the run.
type MatrixTiming struct {
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	DurationSec float64   `json:"duration_sec"`
}
