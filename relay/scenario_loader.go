package relay

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Scenario summarises what was loaded from a JSON scenario document.
// The caller pushes Positions and GroundStation into its position store;
// modules are registered directly into the registry.
type Scenario struct {
	Config        Config
	GroundStation Vec3
	Positions     map[string]Vec3
	ModuleIDs     []string
	NodeIDs       []string
}

// internal JSON shapes – kept unexported so the format can evolve.
type scenarioJSON struct {
	Config        scenarioConfigJSON      `json:"config"`
	GroundStation positionJSON            `json:"ground_station"`
	Positions     map[string]positionJSON `json:"positions"`
	Modules       []relayModuleJSON       `json:"modules"`
}

type scenarioConfigJSON struct {
	CombinedRanges     bool    `json:"combined_ranges"`
	GroundStationRange float64 `json:"ground_station_range"`
}

type relayModuleJSON struct {
	ID             string  `json:"id"`
	NodeID         string  `json:"node_id"`
	NominalRange   float64 `json:"nominal_range"`
	MaxPowerFactor float64 `json:"max_power_factor"`
	MaxDataFactor  float64 `json:"max_data_factor"`
	BasePacketSize float64 `json:"base_packet_size"`
	BasePacketCost float64 `json:"base_packet_cost"`
	// Target is "ground" for direct-to-ground-station modules, another
	// module's ID for forwarding modules, or empty for unresolved.
	Target string `json:"target"`
}

// LoadScenario reads a JSON scenario from r, registers every relay
// module into the registry, and returns the parsed range-policy config
// and node positions.
//
// It fails only on JSON / structural errors; semantic problems such as a
// forward target naming an unknown module are deliberately left to the
// resolver, which classifies them as broken chains at pass time.
func LoadScenario(reg *Registry, r io.Reader) (*Scenario, error) {
	if reg == nil {
		return nil, fmt.Errorf("LoadScenario: registry is nil")
	}

	var payload scenarioJSON
	dec := json.NewDecoder(r)
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("LoadScenario: decode failed: %w", err)
	}

	result := &Scenario{
		Config: Config{
			CombinedRanges:     payload.Config.CombinedRanges,
			GroundStationRange: payload.Config.GroundStationRange,
		},
		GroundStation: payload.GroundStation.vec(),
		Positions:     make(map[string]Vec3, len(payload.Positions)),
		ModuleIDs:     make([]string, 0, len(payload.Modules)),
		NodeIDs:       make([]string, 0, len(payload.Positions)),
	}

	for nodeID, pos := range payload.Positions {
		result.Positions[nodeID] = pos.vec()
		result.NodeIDs = append(result.NodeIDs, nodeID)
	}

	for _, jsM := range payload.Modules {
		if jsM.ID == "" {
			return nil, fmt.Errorf("LoadScenario: module with empty id")
		}
		if jsM.NodeID == "" {
			return nil, fmt.Errorf("LoadScenario: module %q with empty node_id", jsM.ID)
		}

		m := NewRelayModule(jsM.ID, jsM.NodeID,
			jsM.NominalRange, jsM.MaxPowerFactor, jsM.MaxDataFactor,
			jsM.BasePacketSize, jsM.BasePacketCost)
		m.Target = targetFromString(jsM.Target)

		if err := reg.Register(m); err != nil {
			return nil, fmt.Errorf("LoadScenario: register module %q: %w", jsM.ID, err)
		}
		result.ModuleIDs = append(result.ModuleIDs, jsM.ID)
	}

	return result, nil
}

type positionJSON struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (p positionJSON) vec() Vec3 {
	return Vec3{X: p.X, Y: p.Y, Z: p.Z}
}

// targetFromString maps the JSON "target" field onto a ForwardTarget.
// "ground" (plus a few aliases) terminates at the ground station, an
// empty value stays unresolved, and anything else references a module.
func targetFromString(s string) ForwardTarget {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "ground", "ground_station", "groundstation", "direct":
		return ForwardTarget{Kind: TargetGroundStation}
	case "", "none", "unresolved":
		return ForwardTarget{Kind: TargetUnresolved}
	default:
		return ForwardTarget{Kind: TargetModule, ModuleID: strings.TrimSpace(s)}
	}
}
