package events

import "github.com/segmatrix/segmatrix/pkg/segment"

// SegmentEvent describes one segment derived from a scan file.
// Emitted once per loaded segment, in canonical column order.
type SegmentEvent struct {
	BaseEvent
	Segment SegmentInfo `json:"segment"`
}

// SegmentInfo contains segment identification and sizing.
type SegmentInfo struct {
	Name      string       `json:"name"`
	Type      segment.Type `json:"segment_type"`
	Source    string       `json:"source_file"`
	HostCount int          `json:"host_count"`
}
