package motion

import (
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/signalsfoundry/relaymesh/model"
)

// Model updates a node's position for a given simulation time.
type Model interface {
	UpdatePosition(simTime time.Time, n *model.Node)
}

// Static leaves the node's position unchanged. Ground-adjacent assets
// and parked vessels use this.
type Static struct{}

// UpdatePosition for static motion does nothing.
func (Static) UpdatePosition(simTime time.Time, n *model.Node) {}

// OrbitalSGP4 uses a TLE and SGP4 propagation to update node position.
type OrbitalSGP4 struct {
	sat satellite.Satellite
}

// NewOrbitalFromTLE constructs an orbital model from TLE lines.
func NewOrbitalFromTLE(line1, line2 string) *OrbitalSGP4 {
	sat := satellite.TLEToSat(line1, line2, satellite.GravityWGS72)
	return &OrbitalSGP4{sat: sat}
}

// UpdatePosition propagates the satellite to the given simulation time
// and updates n.Coordinates. go-satellite works in kilometres; the model
// stores metres.
func (m *OrbitalSGP4) UpdatePosition(simTime time.Time, n *model.Node) {
	year, month, day := simTime.Date()
	hour, min, sec := simTime.Clock()

	posECI, _ := satellite.Propagate(m.sat, year, int(month), day, hour, min, sec)
	jd := satellite.JDay(year, int(month), day, hour, min, sec)
	gmst := satellite.ThetaG_JD(jd)
	posECEF := satellite.ECIToECEF(posECI, gmst)

	const kmToM = 1000.0
	n.Coordinates = model.Motion{
		X: posECEF.X * kmToM,
		Y: posECEF.Y * kmToM,
		Z: posECEF.Z * kmToM,
	}
}

// NewModel chooses an appropriate Model for the node: Spacetrack-sourced
// nodes with a TLE get SGP4, everything else stays static.
func NewModel(n *model.Node, tle1, tle2 string) Model {
	if n.MotionSource == model.MotionSourceSpacetrack && tle1 != "" && tle2 != "" {
		return NewOrbitalFromTLE(tle1, tle2)
	}
	return Static{}
}
