package relay

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/signalsfoundry/relaymesh/internal/logging"
)

// PositionSource supplies current positions from the host. The ground
// station is fixed; node positions move between ticks.
type PositionSource interface {
	NodePosition(nodeID string) (Vec3, bool)
	GroundStationPosition() Vec3
}

// PassMetrics receives resolution-pass observations. Implemented by the
// observability collector; a nil recorder disables reporting.
type PassMetrics interface {
	ObservePass(duration time.Duration, none, suboptimal, optimal int)
	RecordBrokenChain()
	RecordCycle()
	SetRegistrySize(nodes, modules int)
}

// PassResult is the per-tick status cache produced by one resolution
// pass. It is never reused across ticks: RunPass builds a fresh one and
// replaces the previous result wholesale.
type PassResult struct {
	At          time.Time
	Statuses    map[string]LinkStatus
	Diagnostics []Diagnostic
}

// Resolver walks every registered module's forwarding chain once per
// tick, computing aggregate reachability and quality against the fixed
// ground station. Cycle detection uses an explicit visited set carried
// through the resolution call, and shared sub-chains are computed once
// per pass via a memo table scoped to that pass.
type Resolver struct {
	reg     *Registry
	cfg     Config
	pos     PositionSource
	log     logging.Logger
	metrics PassMetrics

	last *PassResult
}

// ResolverOption customises a Resolver.
type ResolverOption func(*Resolver)

// WithLogger attaches a structured logger for pass diagnostics.
func WithLogger(l logging.Logger) ResolverOption {
	return func(r *Resolver) {
		if l != nil {
			r.log = l
		}
	}
}

// WithPassMetrics attaches a metrics recorder for pass observations.
func WithPassMetrics(m PassMetrics) ResolverOption {
	return func(r *Resolver) { r.metrics = m }
}

// NewResolver constructs a resolver over the given registry, range
// policy, and position source.
func NewResolver(reg *Registry, cfg Config, pos PositionSource, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		reg: reg,
		cfg: cfg,
		pos: pos,
		log: logging.Noop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var tracer = otel.Tracer("github.com/signalsfoundry/relaymesh/relay")

// RunPass resolves every registered module and replaces the current
// status cache. The host invokes it once per tick from its update
// callback; lifecycle mutations must not happen mid-pass, which holds
// automatically on a single-threaded tick loop. A broken or cyclic
// module degrades in isolation; the pass always runs to completion.
func (r *Resolver) RunPass(ctx context.Context) *PassResult {
	ctx, span := tracer.Start(ctx, "relay.resolution_pass")
	defer span.End()

	start := time.Now()
	p := &pass{
		r:      r,
		ground: r.pos.GroundStationPosition(),
		memo:   make(map[string]LinkStatus),
	}

	for _, nodeID := range r.reg.NodeIDs() {
		for _, m := range r.reg.ModulesOf(nodeID) {
			p.resolve(ctx, m, make(map[string]struct{}))
		}
	}

	result := &PassResult{
		At:          start,
		Statuses:    p.memo,
		Diagnostics: p.diags,
	}
	r.last = result

	var none, sub, opt int
	for _, s := range result.Statuses {
		switch s {
		case StatusOptimal:
			opt++
		case StatusSuboptimal:
			sub++
		default:
			none++
		}
	}
	if r.metrics != nil {
		r.metrics.ObservePass(time.Since(start), none, sub, opt)
		r.metrics.SetRegistrySize(r.reg.NodeCount(), r.reg.TotalModules())
	}
	span.SetAttributes(
		attribute.Int("relay.modules", len(result.Statuses)),
		attribute.Int("relay.status.none", none),
		attribute.Int("relay.status.suboptimal", sub),
		attribute.Int("relay.status.optimal", opt),
		attribute.Int("relay.diagnostics", len(result.Diagnostics)),
	)
	return result
}

// LastPass returns the most recent pass result, or nil before the first
// pass. Consumers read it; none may mutate it.
func (r *Resolver) LastPass() *PassResult {
	return r.last
}

// Status returns a module's status from the current pass. Modules
// unknown to the pass report StatusNone.
func (r *Resolver) Status(moduleID string) LinkStatus {
	if r.last == nil {
		return StatusNone
	}
	return r.last.Statuses[moduleID]
}

// ConnectionStatus aggregates a node's modules: the best status any of
// them achieved in the current pass. An unknown node reports StatusNone.
func (r *Resolver) ConnectionStatus(nodeID string) LinkStatus {
	best := StatusNone
	for _, m := range r.reg.ModulesOf(nodeID) {
		if s := r.Status(m.ID); s > best {
			best = s
		}
	}
	return best
}

// HasConnection reports whether any of the node's modules resolved to a
// status above StatusNone in the current pass.
func (r *Resolver) HasConnection(nodeID string) bool {
	return r.ConnectionStatus(nodeID) > StatusNone
}

// BestModule selects the node's preferred relay by (status descending,
// distance to the ground station ascending, registration order
// ascending), or nil when the node has no modules.
func (r *Resolver) BestModule(nodeID string) *RelayModule {
	mods := r.reg.ModulesOf(nodeID)
	if len(mods) == 0 {
		return nil
	}

	var best *RelayModule
	bestStatus := StatusNone
	bestDist := math.Inf(1)
	for _, m := range mods {
		status := r.Status(m.ID)
		dist := math.Inf(1)
		if d, err := r.GroundDistance(m.ID); err == nil {
			dist = d
		}
		if best == nil || status > bestStatus || (status == bestStatus && dist < bestDist) {
			best, bestStatus, bestDist = m, status, dist
		}
	}
	return best
}

// GroundDistance returns the module's current true distance to the
// ground station. It is always recomputed from current positions, never
// cached across ticks.
func (r *Resolver) GroundDistance(moduleID string) (float64, error) {
	m := r.reg.Module(moduleID)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrUnknownModule, moduleID)
	}
	pos, ok := r.pos.NodePosition(m.NodeID)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownNode, m.NodeID)
	}
	return pos.DistanceTo(r.pos.GroundStationPosition()), nil
}

// CanTransmit reports transmit feasibility at the module's current
// distance to the ground station.
func (r *Resolver) CanTransmit(moduleID string) bool {
	m := r.reg.Module(moduleID)
	if m == nil {
		return false
	}
	d, err := r.GroundDistance(moduleID)
	if err != nil {
		return false
	}
	return CanTransmit(m, d)
}

// EffectiveBandwidth returns the module's bandwidth at its current
// distance to the ground station.
func (r *Resolver) EffectiveBandwidth(moduleID string) (float64, error) {
	m := r.reg.Module(moduleID)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrUnknownModule, moduleID)
	}
	d, err := r.GroundDistance(moduleID)
	if err != nil {
		return 0, err
	}
	return EffectiveBandwidth(m, d), nil
}

// EffectiveCost returns the module's power draw per packet at its
// current distance to the ground station.
func (r *Resolver) EffectiveCost(moduleID string) (float64, error) {
	m := r.reg.Module(moduleID)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrUnknownModule, moduleID)
	}
	d, err := r.GroundDistance(moduleID)
	if err != nil {
		return 0, err
	}
	return EffectiveCost(m, d), nil
}

// Transmit validates an explicit transmit action at the module's current
// distance. Out-of-range attempts are rejected with an *OutOfRangeError
// for the host to surface; they never abort the tick or touch cached
// state for other modules.
func (r *Resolver) Transmit(moduleID string) error {
	m := r.reg.Module(moduleID)
	if m == nil {
		return fmt.Errorf("%w: %q", ErrUnknownModule, moduleID)
	}
	d, err := r.GroundDistance(moduleID)
	if err != nil {
		return err
	}
	return CheckTransmit(m, d)
}

// pass holds the state of one resolution pass: the memo table created
// empty at pass start and discarded with the pass, plus collected
// diagnostics. It is local to one RunPass call.
type pass struct {
	r      *Resolver
	ground Vec3
	memo   map[string]LinkStatus
	diags  []Diagnostic
}

// resolve computes a module's chain status with memoisation. The visited
// set belongs to the current top-level resolution and guarantees
// termination within totalRegisteredModules hops even for misconfigured
// cyclic chains; it is mandatory, not an optimisation.
func (p *pass) resolve(ctx context.Context, m *RelayModule, visited map[string]struct{}) LinkStatus {
	if s, ok := p.memo[m.ID]; ok {
		return s
	}
	visited[m.ID] = struct{}{}
	status := p.resolveChain(ctx, m, visited)
	p.memo[m.ID] = status
	return status
}

func (p *pass) resolveChain(ctx context.Context, m *RelayModule, visited map[string]struct{}) LinkStatus {
	pos, ok := p.r.pos.NodePosition(m.NodeID)
	if !ok {
		p.record(ctx, m.ID, DiagUnknownNode, fmt.Sprintf("no position for node %q", m.NodeID))
		return StatusNone
	}

	switch m.Target.Kind {
	case TargetGroundStation:
		return p.hopStatus(m, pos, p.ground, nil)

	case TargetModule:
		target := p.r.reg.Module(m.Target.ModuleID)
		if target == nil {
			p.record(ctx, m.ID, DiagBrokenChain, fmt.Sprintf("target module %q not registered", m.Target.ModuleID))
			return StatusNone
		}
		if _, seen := visited[target.ID]; seen {
			p.record(ctx, m.ID, DiagCycle, fmt.Sprintf("target module %q already visited", target.ID))
			return StatusNone
		}
		targetPos, ok := p.r.pos.NodePosition(target.NodeID)
		if !ok {
			p.record(ctx, m.ID, DiagBrokenChain, fmt.Sprintf("no position for target node %q", target.NodeID))
			return StatusNone
		}
		// A chain's quality is bounded by its weakest hop.
		ownHop := p.hopStatus(m, pos, targetPos, target)
		targetStatus := p.resolve(ctx, target, visited)
		return minStatus(ownHop, targetStatus)

	default: // TargetUnresolved
		p.record(ctx, m.ID, DiagBrokenChain, "forward target unresolved")
		return StatusNone
	}
}

// hopStatus classifies one hop from the querying module to a target
// position. A nil partner means the target is the ground station.
func (p *pass) hopStatus(m *RelayModule, from, to Vec3, partner *RelayModule) LinkStatus {
	var maxSqr float64
	if partner == nil {
		maxSqr = p.r.cfg.MaxSqrRangeToGround(m)
	} else {
		maxSqr = p.r.cfg.MaxSqrRange(m, partner)
	}

	sqrDist := from.SqrDistanceTo(to)
	if !IsInRange(sqrDist, maxSqr) {
		return StatusNone
	}
	// The Optimal/Suboptimal split needs the true distance against the
	// module's own nominal range, since it drives nonlinear scaling.
	if math.Sqrt(sqrDist) <= m.NominalRange {
		return StatusOptimal
	}
	return StatusSuboptimal
}

func (p *pass) record(ctx context.Context, moduleID string, kind DiagnosticKind, detail string) {
	p.diags = append(p.diags, Diagnostic{ModuleID: moduleID, Kind: kind, Detail: detail})
	p.r.log.Debug(ctx, "relay chain degraded",
		logging.String("module", moduleID),
		logging.String("kind", string(kind)),
		logging.String("detail", detail),
	)
	if p.r.metrics != nil {
		switch kind {
		case DiagCycle:
			p.r.metrics.RecordCycle()
		case DiagBrokenChain, DiagUnknownNode:
			p.r.metrics.RecordBrokenChain()
		}
	}
}
