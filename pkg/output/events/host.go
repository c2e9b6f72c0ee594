package events

// HostEvent carries one classified host row of the matrix.
// Emitted once per host, in lexicographic row order.
type HostEvent struct {
	BaseEvent
	Host HostInfo `json:"host"`
}

// HostInfo contains the host address, its derived tier, and the
// names of the segments reaching it in canonical column order.
type HostInfo struct {
	Address  string   `json:"address"`
	Tier     Tier     `json:"tier"`
	Segments []string `json:"segments"`
}
