package relay

// Transmission scaling: pure functions mapping current true distance to
// the ground station and a module's configured parameters onto effective
// bandwidth, effective cost, and a transmit-feasibility flag. Both curves
// are continuous at d == NominalRange, where they equal the base values.

// CanTransmit reports whether the module can transmit at all over the
// given true distance.
func CanTransmit(m *RelayModule, distance float64) bool {
	return distance <= m.MaxTransmitDistance()
}

// EffectiveBandwidth returns the packet size the module achieves at the
// given distance. Below nominal range bandwidth rises quadratically as
// distance shrinks, capped at MaxDataFactor times the base packet size;
// at or beyond nominal range it is exactly the base packet size.
func EffectiveBandwidth(m *RelayModule, distance float64) float64 {
	s0 := m.BasePacketSize()
	if distance >= m.NominalRange {
		return s0
	}
	ratio := m.NominalRange / distance
	boosted := s0 * ratio * ratio
	if limit := s0 * m.MaxDataFactor; boosted > limit {
		return limit
	}
	return boosted
}

// EffectiveCost returns the power draw per packet at the given distance.
// Within nominal range it is exactly the base packet cost; beyond it the
// cost rises quadratically. The curve is implicitly bounded by the
// CanTransmit cutoff, since a feasible transmission never exceeds the
// maximum transmit distance.
func EffectiveCost(m *RelayModule, distance float64) float64 {
	c0 := m.BasePacketCost()
	if distance <= m.NominalRange {
		return c0
	}
	ratio := distance / m.NominalRange
	return c0 * ratio * ratio
}

// CheckTransmit validates an explicit transmit attempt over the given
// distance. Beyond the maximum transmit distance it returns an
// *OutOfRangeError rather than silently clamping or proceeding.
func CheckTransmit(m *RelayModule, distance float64) error {
	if CanTransmit(m, distance) {
		return nil
	}
	return &OutOfRangeError{
		ModuleID:    m.ID,
		Distance:    distance,
		MaxDistance: m.MaxTransmitDistance(),
	}
}
