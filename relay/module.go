package relay

import "math"

// LinkStatus classifies a module's current path to the ground station.
// The ordering matters: a chain's aggregate status is the minimum over
// its hops, so None < Suboptimal < Optimal.
type LinkStatus int

const (
	StatusNone       LinkStatus = iota // no usable path
	StatusSuboptimal                   // reachable, but beyond nominal range on some hop
	StatusOptimal                      // every hop within nominal range
)

func (s LinkStatus) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusSuboptimal:
		return "suboptimal"
	default:
		return "none"
	}
}

// minStatus returns the weaker of two statuses. Any None anywhere in a
// chain propagates to None for every downstream querier.
func minStatus(a, b LinkStatus) LinkStatus {
	if a < b {
		return a
	}
	return b
}

// TargetKind describes what a module forwards its traffic to.
type TargetKind int

const (
	// TargetUnresolved means no forward target is configured (or the
	// configured one could not be resolved at load time).
	TargetUnresolved TargetKind = iota
	// TargetGroundStation terminates the chain at the fixed ground station.
	TargetGroundStation
	// TargetModule forwards through another relay module.
	TargetModule
)

// ForwardTarget is a module's configured next hop.
type ForwardTarget struct {
	Kind TargetKind `json:"Kind"`
	// ModuleID references the target module when Kind == TargetModule.
	ModuleID string `json:"ModuleID,omitempty"`
}

// RelayModule is one relay-capable transmission module owned by a node.
// Nominal range and the power/data factors come from the module's static
// definition and are immutable after load; the base packet size/cost may
// be reassigned through the setters below (host-side overrides), with the
// effective values always recomputed from current distance.
type RelayModule struct {
	ID     string `json:"ID"`
	NodeID string `json:"NodeID"`

	// NominalRange is the distance (metres) at which the module performs
	// at its rated bandwidth and cost.
	NominalRange float64 `json:"NominalRange"`

	// MaxPowerFactor bounds how far beyond nominal range the module can
	// push a transmission: maxTransmitDistance = sqrt(MaxPowerFactor) * NominalRange.
	MaxPowerFactor float64 `json:"MaxPowerFactor"`

	// MaxDataFactor caps the bandwidth gain at short range to
	// MaxDataFactor times the base packet size.
	MaxDataFactor float64 `json:"MaxDataFactor"`

	basePacketSize float64
	basePacketCost float64

	Target ForwardTarget `json:"Target"`
}

// NewRelayModule constructs a module from its static definition.
func NewRelayModule(id, nodeID string, nominalRange, maxPowerFactor, maxDataFactor, basePacketSize, basePacketCost float64) *RelayModule {
	return &RelayModule{
		ID:             id,
		NodeID:         nodeID,
		NominalRange:   nominalRange,
		MaxPowerFactor: maxPowerFactor,
		MaxDataFactor:  maxDataFactor,
		basePacketSize: basePacketSize,
		basePacketCost: basePacketCost,
	}
}

// MaxTransmitDistance is the absolute distance beyond which the module
// cannot transmit at all, derived as sqrt(MaxPowerFactor) * NominalRange.
func (m *RelayModule) MaxTransmitDistance() float64 {
	return math.Sqrt(m.MaxPowerFactor) * m.NominalRange
}

// BasePacketSize returns the current base bandwidth (packet size per
// transmission at nominal range).
func (m *RelayModule) BasePacketSize() float64 { return m.basePacketSize }

// BasePacketCost returns the current base power draw per packet at
// nominal range.
func (m *RelayModule) BasePacketCost() float64 { return m.basePacketCost }

// SetBasePacketSize reassigns the base packet size. This is the explicit
// override path for hosts that rescale a module at runtime; non-positive
// values are ignored.
func (m *RelayModule) SetBasePacketSize(size float64) {
	if size > 0 {
		m.basePacketSize = size
	}
}

// SetBasePacketCost reassigns the base packet cost. Non-positive values
// are ignored.
func (m *RelayModule) SetBasePacketCost(cost float64) {
	if cost > 0 {
		m.basePacketCost = cost
	}
}
