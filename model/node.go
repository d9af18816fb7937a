package model

// MotionSource indicates how a node's motion is determined.
type MotionSource int

const (
	MotionSourceStatic     MotionSource = iota // fixed position
	MotionSourceSpacetrack                     // TLE-based orbit propagation
)

// Motion represents a position in ECEF metres.
type Motion struct {
	X float64
	Y float64
	Z float64
}

// Node is a mobile entity (vessel, aircraft, satellite) that may own
// zero or more relay modules. Identity and motion live here; the relay
// registry holds non-owning lookup entries keyed by the node ID and is
// invalidated when the node is destroyed.
type Node struct {
	ID   string
	Name string
	Kind string // e.g. "SATELLITE", "AIRCRAFT"

	Coordinates  Motion
	MotionSource MotionSource

	NoradID uint32 // optional; useful when MotionSourceSpacetrack
}
