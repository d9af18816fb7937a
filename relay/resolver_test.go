package relay

import (
	"context"
	"testing"
)

// Direct-to-ground scenarios: one module, varying distance against a
// nominal range of 1,500,000 m and max power factor 8
// (maxTransmitDistance ≈ 4,242,641 m).

func TestDirectToGroundWithinNominalRangeIsOptimal(t *testing.T) {
	reg := NewRegistry()
	m := newTestModule("m1", "node-a")
	m.Target = ForwardTarget{Kind: TargetGroundStation}
	if err := reg.Register(m); err != nil {
		t.Fatalf("Register: %v", err)
	}

	pos := staticPositions{
		nodes:  map[string]Vec3{"node-a": {X: 1_000_000}},
		ground: Vec3{},
	}
	r := NewResolver(reg, Config{}, pos)
	r.RunPass(context.Background())

	if got := r.Status("m1"); got != StatusOptimal {
		t.Fatalf("Status = %v, want optimal", got)
	}
	if !r.CanTransmit("m1") {
		t.Fatalf("expected canTransmit at 1,000,000 m")
	}
}

func TestDirectToGroundBeyondNominalRangeIsSuboptimal(t *testing.T) {
	reg := NewRegistry()
	m := newTestModule("m1", "node-a")
	m.Target = ForwardTarget{Kind: TargetGroundStation}
	if err := reg.Register(m); err != nil {
		t.Fatalf("Register: %v", err)
	}

	pos := staticPositions{
		nodes:  map[string]Vec3{"node-a": {X: 2_000_000}},
		ground: Vec3{},
	}
	r := NewResolver(reg, Config{}, pos)
	r.RunPass(context.Background())

	if got := r.Status("m1"); got != StatusSuboptimal {
		t.Fatalf("Status = %v, want suboptimal", got)
	}
	if !r.CanTransmit("m1") {
		t.Fatalf("expected canTransmit at 2,000,000 m (max ≈ 4,242,641 m)")
	}
}

func TestDirectToGroundBeyondMaxRangeIsNone(t *testing.T) {
	reg := NewRegistry()
	m := newTestModule("m1", "node-a")
	m.Target = ForwardTarget{Kind: TargetGroundStation}
	if err := reg.Register(m); err != nil {
		t.Fatalf("Register: %v", err)
	}

	pos := staticPositions{
		nodes:  map[string]Vec3{"node-a": {X: 5_000_000}},
		ground: Vec3{},
	}
	r := NewResolver(reg, Config{}, pos)
	r.RunPass(context.Background())

	if got := r.Status("m1"); got != StatusNone {
		t.Fatalf("Status = %v, want none", got)
	}
	if r.CanTransmit("m1") {
		t.Fatalf("expected canTransmit=false at 5,000,000 m")
	}
	if r.HasConnection("node-a") {
		t.Fatalf("expected node-a to have no connection")
	}
}

// Two-hop chain: X forwards to Y, Y is direct-to-ground. The X–Y hop is
// within X's nominal range (optimal); the Y–ground hop is in range but
// beyond Y's nominal range (suboptimal). The chain takes the minimum.
func TestChainQualityIsMinimumOverHops(t *testing.T) {
	reg := NewRegistry()

	y := newTestModule("relay-y", "node-y")
	y.Target = ForwardTarget{Kind: TargetGroundStation}
	x := newTestModule("relay-x", "node-x")
	x.Target = ForwardTarget{Kind: TargetModule, ModuleID: "relay-y"}

	for _, m := range []*RelayModule{y, x} {
		if err := reg.Register(m); err != nil {
			t.Fatalf("Register(%s): %v", m.ID, err)
		}
	}

	pos := staticPositions{
		nodes: map[string]Vec3{
			"node-y": {X: 2_000_000}, // 2,000,000 m to ground: suboptimal
			"node-x": {X: 3_000_000}, // 1,000,000 m to Y: optimal hop
		},
		ground: Vec3{},
	}
	r := NewResolver(reg, Config{}, pos)
	r.RunPass(context.Background())

	if got := r.Status("relay-y"); got != StatusSuboptimal {
		t.Fatalf("Status(relay-y) = %v, want suboptimal", got)
	}
	if got := r.Status("relay-x"); got != StatusSuboptimal {
		t.Fatalf("Status(relay-x) = %v, want suboptimal (min over hops)", got)
	}
	if got := r.ConnectionStatus("node-x"); got != StatusSuboptimal {
		t.Fatalf("ConnectionStatus(node-x) = %v, want suboptimal", got)
	}
}

// Upstream None propagates: if the terminal hop is out of range, every
// downstream querier degrades to None regardless of its own hop quality.
func TestUpstreamNonePropagatesDownChain(t *testing.T) {
	reg := NewRegistry()

	y := newTestModule("relay-y", "node-y")
	y.Target = ForwardTarget{Kind: TargetGroundStation}
	x := newTestModule("relay-x", "node-x")
	x.Target = ForwardTarget{Kind: TargetModule, ModuleID: "relay-y"}

	for _, m := range []*RelayModule{y, x} {
		if err := reg.Register(m); err != nil {
			t.Fatalf("Register(%s): %v", m.ID, err)
		}
	}

	pos := staticPositions{
		nodes: map[string]Vec3{
			"node-y": {X: 6_000_000}, // beyond Y's max transmit distance
			"node-x": {X: 6_500_000}, // 500,000 m to Y: optimal hop on its own
		},
		ground: Vec3{},
	}
	r := NewResolver(reg, Config{}, pos)
	r.RunPass(context.Background())

	if got := r.Status("relay-y"); got != StatusNone {
		t.Fatalf("Status(relay-y) = %v, want none", got)
	}
	if got := r.Status("relay-x"); got != StatusNone {
		t.Fatalf("Status(relay-x) = %v, want none (propagated)", got)
	}
}

func TestPassReplacesPreviousCache(t *testing.T) {
	reg := NewRegistry()
	m := newTestModule("m1", "node-a")
	m.Target = ForwardTarget{Kind: TargetGroundStation}
	if err := reg.Register(m); err != nil {
		t.Fatalf("Register: %v", err)
	}

	nodes := map[string]Vec3{"node-a": {X: 1_000_000}}
	r := NewResolver(reg, Config{}, staticPositions{nodes: nodes})

	first := r.RunPass(context.Background())
	if first.Statuses["m1"] != StatusOptimal {
		t.Fatalf("first pass = %v, want optimal", first.Statuses["m1"])
	}

	// Node moved out of range between ticks; the next pass must reflect
	// it rather than reuse the previous cache.
	nodes["node-a"] = Vec3{X: 5_000_000}
	second := r.RunPass(context.Background())
	if second.Statuses["m1"] != StatusNone {
		t.Fatalf("second pass = %v, want none", second.Statuses["m1"])
	}
	if got := r.Status("m1"); got != StatusNone {
		t.Fatalf("Status after second pass = %v, want none", got)
	}
}

func TestStatusBeforeFirstPassIsNone(t *testing.T) {
	reg := NewRegistry()
	r := NewResolver(reg, Config{}, staticPositions{})

	if got := r.Status("anything"); got != StatusNone {
		t.Fatalf("Status before first pass = %v, want none", got)
	}
	if r.LastPass() != nil {
		t.Fatalf("LastPass before first pass must be nil")
	}
}
