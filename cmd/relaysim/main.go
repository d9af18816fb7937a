package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/signalsfoundry/relaymesh/internal/logging"
	"github.com/signalsfoundry/relaymesh/internal/observability"
	"github.com/signalsfoundry/relaymesh/kb"
	"github.com/signalsfoundry/relaymesh/model"
	"github.com/signalsfoundry/relaymesh/motion"
	"github.com/signalsfoundry/relaymesh/relay"
	"github.com/signalsfoundry/relaymesh/timectrl"
)

func main() {
	duration := flag.Duration("duration", 60*time.Second, "total simulation duration")
	tick := flag.Duration("tick", 1*time.Second, "tick interval")
	accelerated := flag.Bool("accelerated", false, "run in accelerated mode (vs real-time)")
	scenarioPath := flag.String("scenario", "configs/relay_scenario.json", "relay scenario JSON")
	metricsAddr := flag.String("metrics-addr", "", "listen address for /metrics (empty = disabled)")

	flag.Parse()

	ctx := context.Background()
	log := logging.NewFromEnv()

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tracing init failed: %v\n", err)
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(ctx, shutdownTracing, log)

	collector, err := observability.NewRelayCollector(nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "metrics init failed: %v\n", err)
		os.Exit(1)
	}
	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", collector.Handler())
		go func() {
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				log.Error(ctx, "metrics server failed", logging.String("error", err.Error()))
			}
		}()
		log.Info(ctx, "metrics exposed", logging.String("addr", *metricsAddr))
	}

	// ==== Scenario: range policy, ground station, nodes, modules ====

	reg := relay.NewRegistry()

	f, err := os.Open(*scenarioPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open relay scenario %q: %v\n", *scenarioPath, err)
		os.Exit(1)
	}
	scenario, err := relay.LoadScenario(reg, f)
	f.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load relay scenario: %v\n", err)
		os.Exit(1)
	}

	store := kb.NewKnowledgeBase(scenario.GroundStation)

	// Registry entries never outlive their node.
	store.Subscribe(func(ev kb.Event) {
		if ev.Type == kb.EventNodeRemoved {
			reg.RemoveNode(ev.Node.ID)
		}
	})

	for nodeID, pos := range scenario.Positions {
		if err := store.AddNode(&model.Node{
			ID:          nodeID,
			Name:        nodeID,
			Kind:        "AIRCRAFT",
			Coordinates: model.Motion{X: pos.X, Y: pos.Y, Z: pos.Z},
		}); err != nil {
			fmt.Fprintf(os.Stderr, "failed to add node %q: %v\n", nodeID, err)
			os.Exit(1)
		}
	}

	// One TLE-driven satellite on top of the scenario so the topology
	// actually moves between ticks.
	sat := &model.Node{
		ID:           "sat1",
		Name:         "LEO-Sat-1",
		Kind:         "SATELLITE",
		MotionSource: model.MotionSourceSpacetrack,
	}
	if err := store.AddNode(sat); err != nil {
		fmt.Fprintf(os.Stderr, "failed to add satellite node: %v\n", err)
		os.Exit(1)
	}
	tle1 := "1 25544U 98067A   21275.59097222  .00000204  00000-0  10270-4 0  9990"
	tle2 := "2 25544  51.6459 115.9059 0001817  61.3028  35.9198 15.49370953257760"
	satMotion := motion.NewModel(sat, tle1, tle2)

	satRelay := relay.NewRelayModule("sat1-relay", "sat1", 3_000_000, 8, 4, 300, 12.5)
	satRelay.Target = relay.ForwardTarget{Kind: relay.TargetGroundStation}
	if err := reg.Register(satRelay); err != nil {
		fmt.Fprintf(os.Stderr, "failed to register satellite relay: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Loaded relay scenario: %d modules, %d positioned nodes, combined_ranges=%v\n",
		len(scenario.ModuleIDs), len(scenario.NodeIDs), scenario.Config.CombinedRanges)

	resolver := relay.NewResolver(reg, scenario.Config, store,
		relay.WithLogger(log),
		relay.WithPassMetrics(collector),
	)

	// ==== Tick loop: one resolution pass per tick ====

	mode := timectrl.RealTime
	if *accelerated {
		mode = timectrl.Accelerated
	}
	start := time.Now().UTC()
	tc := timectrl.NewTimeController(start, *tick, mode)

	tc.AddListener(func(simTime time.Time) {
		satMotion.UpdatePosition(simTime, sat)
		if err := store.UpdateNodePosition(sat.ID, sat.Coordinates); err != nil {
			fmt.Printf("update satellite position error: %v\n", err)
		}

		result := resolver.RunPass(ctx)

		fmt.Printf("[%s] pass: %d modules, %d diagnostics\n",
			simTime.Format(time.RFC3339), len(result.Statuses), len(result.Diagnostics))

		for _, nodeID := range reg.NodeIDs() {
			status := resolver.ConnectionStatus(nodeID)
			bestID := "-"
			if best := resolver.BestModule(nodeID); best != nil {
				bestID = best.ID
			}
			fmt.Printf("↳ Node %-10s status=%-10s best=%s\n", nodeID, status, bestID)

			for _, m := range reg.ModulesOf(nodeID) {
				bw, _ := resolver.EffectiveBandwidth(m.ID)
				cost, _ := resolver.EffectiveCost(m.ID)
				fmt.Printf("    %-14s status=%-10s canTransmit=%-5v bandwidth=%8.1f cost=%8.2f\n",
					m.ID, resolver.Status(m.ID), resolver.CanTransmit(m.ID), bw, cost)
			}
		}
	})

	fmt.Printf("Starting relay simulation: duration=%s, tick=%s, mode=%v\n", *duration, *tick, mode)
	done := tc.Start(*duration)
	<-done
	fmt.Println("Simulation complete.")
}
