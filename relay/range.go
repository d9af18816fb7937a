package relay

// Config is the single immutable range-policy configuration, constructed
// once at process start and passed explicitly into the range model and
// resolver. It is never read from ambient global state.
type Config struct {
	// CombinedRanges selects the combined composition policy: the
	// combined maximum squared range between two endpoints is the
	// product of both endpoints' maximum transmit distances. When off,
	// only the querying module's own maximum transmit distance counts.
	CombinedRanges bool `json:"CombinedRanges"`

	// GroundStationRange (metres) stands in for the ground station's
	// missing module range under the combined policy; the station has
	// no module of its own.
	GroundStationRange float64 `json:"GroundStationRange"`
}

// MaxSqrRange returns the combined maximum squared range between the
// querying module and a partner module.
//
// The two composition formulas are deliberately asymmetric between the
// module-to-module and ground-station cases; they are kept literally as
// configured rather than unified.
func (c Config) MaxSqrRange(own, partner *RelayModule) float64 {
	if c.CombinedRanges {
		return own.MaxTransmitDistance() * partner.MaxTransmitDistance()
	}
	d := own.MaxTransmitDistance()
	return d * d
}

// MaxSqrRangeToGround returns the combined maximum squared range between
// the querying module and the ground station, substituting the configured
// ground-station range constant under the combined policy.
func (c Config) MaxSqrRangeToGround(own *RelayModule) float64 {
	if c.CombinedRanges {
		return own.MaxTransmitDistance() * c.GroundStationRange
	}
	d := own.MaxTransmitDistance()
	return d * d
}

// IsInRange reports whether a squared distance is within a combined
// maximum squared range.
func IsInRange(actualSqrDistance, maxSqrRange float64) bool {
	return actualSqrDistance <= maxSqrRange
}
