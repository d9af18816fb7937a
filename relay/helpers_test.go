package relay

import "time"

// staticPositions is a fixed-position PositionSource for tests.
type staticPositions struct {
	nodes  map[string]Vec3
	ground Vec3
}

func (s staticPositions) NodePosition(id string) (Vec3, bool) {
	p, ok := s.nodes[id]
	return p, ok
}

func (s staticPositions) GroundStationPosition() Vec3 { return s.ground }

// newTestModule builds a module with the parameter set most tests use:
// nominal range 1,500,000 m, power factor 8, data factor 4.
func newTestModule(id, nodeID string) *RelayModule {
	return NewRelayModule(id, nodeID, 1_500_000, 8, 4, 300, 12.5)
}

// countingMetrics records PassMetrics calls for assertions.
type countingMetrics struct {
	passes       int
	brokenChains int
	cycles       int
	lastNone     int
	lastSub      int
	lastOpt      int
	nodes        int
	modules      int
}

func (c *countingMetrics) ObservePass(_ time.Duration, none, sub, opt int) {
	c.passes++
	c.lastNone, c.lastSub, c.lastOpt = none, sub, opt
}

func (c *countingMetrics) RecordBrokenChain() { c.brokenChains++ }
func (c *countingMetrics) RecordCycle()       { c.cycles++ }

func (c *countingMetrics) SetRegistrySize(nodes, modules int) {
	c.nodes, c.modules = nodes, modules
}
