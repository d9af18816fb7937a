package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RelayCollector bundles Prometheus metrics for the relay engine and
// implements relay.PassMetrics so the resolver can drive them directly.
type RelayCollector struct {
	gatherer prometheus.Gatherer

	PassDurations prometheus.Histogram
	Passes        prometheus.Counter
	ChainBreaks   prometheus.Counter
	Cycles        prometheus.Counter

	RegisteredNodes   prometheus.Gauge
	RegisteredModules prometheus.Gauge
	ModulesByStatus   *prometheus.GaugeVec
}

// NewRelayCollector registers relay Prometheus metrics against the
// provided registerer, defaulting to the global Prometheus registry when
// nil.
func NewRelayCollector(reg prometheus.Registerer) (*RelayCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	durations, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "relay_pass_duration_seconds",
		Help:    "Resolution pass latency in seconds.",
		Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
	}), "relay_pass_duration_seconds")
	if err != nil {
		return nil, err
	}

	passes, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relay_passes_total",
		Help: "Total number of completed resolution passes.",
	}), "relay_passes_total")
	if err != nil {
		return nil, err
	}

	breaks, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relay_chain_breaks_total",
		Help: "Total broken-chain degradations (unresolved or missing forward targets).",
	}), "relay_chain_breaks_total")
	if err != nil {
		return nil, err
	}

	cycles, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relay_chain_cycles_total",
		Help: "Total cycle degradations detected in forward-target chains.",
	}), "relay_chain_cycles_total")
	if err != nil {
		return nil, err
	}

	nodes, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "relay_registered_nodes",
		Help: "Current number of nodes with registered relay modules.",
	}), "relay_registered_nodes")
	if err != nil {
		return nil, err
	}

	modules, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "relay_registered_modules",
		Help: "Current number of registered relay modules.",
	}), "relay_registered_modules")
	if err != nil {
		return nil, err
	}

	byStatus := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "relay_modules_by_status",
		Help: "Modules per link status as of the latest resolution pass.",
	}, []string{"status"})
	byStatus, err = registerGaugeVec(reg, byStatus, "relay_modules_by_status")
	if err != nil {
		return nil, err
	}

	return &RelayCollector{
		gatherer:          gatherer,
		PassDurations:     durations,
		Passes:            passes,
		ChainBreaks:       breaks,
		Cycles:            cycles,
		RegisteredNodes:   nodes,
		RegisteredModules: modules,
		ModulesByStatus:   byStatus,
	}, nil
}

// ObservePass records one completed resolution pass. Implements
// relay.PassMetrics.
func (c *RelayCollector) ObservePass(duration time.Duration, none, suboptimal, optimal int) {
	if c == nil {
		return
	}
	if c.PassDurations != nil {
		c.PassDurations.Observe(duration.Seconds())
	}
	if c.Passes != nil {
		c.Passes.Inc()
	}
	if c.ModulesByStatus != nil {
		c.ModulesByStatus.WithLabelValues("none").Set(float64(none))
		c.ModulesByStatus.WithLabelValues("suboptimal").Set(float64(suboptimal))
		c.ModulesByStatus.WithLabelValues("optimal").Set(float64(optimal))
	}
}

// RecordBrokenChain counts a broken-chain degradation. Implements
// relay.PassMetrics.
func (c *RelayCollector) RecordBrokenChain() {
	if c != nil && c.ChainBreaks != nil {
		c.ChainBreaks.Inc()
	}
}

// RecordCycle counts a cycle degradation. Implements relay.PassMetrics.
func (c *RelayCollector) RecordCycle() {
	if c != nil && c.Cycles != nil {
		c.Cycles.Inc()
	}
}

// SetRegistrySize updates the registry gauges. Implements
// relay.PassMetrics.
func (c *RelayCollector) SetRegistrySize(nodes, modules int) {
	if c == nil {
		return
	}
	if c.RegisteredNodes != nil {
		c.RegisteredNodes.Set(float64(nodes))
	}
	if c.RegisteredModules != nil {
		c.RegisteredModules.Set(float64(modules))
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *RelayCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
