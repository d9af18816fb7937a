package relay

import (
	"errors"
	"math"
	"testing"
)

func TestScalingContinuousAtNominalRange(t *testing.T) {
	m := NewRelayModule("m", "n1", 1000, 4, 4, 100, 10)

	// Exactly at d == R both curves must equal the base values.
	if got := EffectiveBandwidth(m, 1000); got != 100 {
		t.Fatalf("EffectiveBandwidth(d=R) = %v, want 100", got)
	}
	if got := EffectiveCost(m, 1000); got != 10 {
		t.Fatalf("EffectiveCost(d=R) = %v, want 10", got)
	}
}

func TestBandwidthRisesQuadraticallyBelowNominal(t *testing.T) {
	m := NewRelayModule("m", "n1", 1000, 4, 4, 100, 10)

	if got := EffectiveBandwidth(m, 800); got != 100*(1000.0/800.0)*(1000.0/800.0) {
		t.Fatalf("EffectiveBandwidth(800) = %v", got)
	}
	// At short range the quadratic gain is capped at Fd * S0.
	if got := EffectiveBandwidth(m, 250); got != 400 {
		t.Fatalf("EffectiveBandwidth(250) = %v, want cap 400", got)
	}
	// Beyond nominal range bandwidth stays at the base value.
	if got := EffectiveBandwidth(m, 1500); got != 100 {
		t.Fatalf("EffectiveBandwidth(1500) = %v, want 100", got)
	}
}

func TestCostRisesQuadraticallyBeyondNominal(t *testing.T) {
	m := NewRelayModule("m", "n1", 1000, 4, 4, 100, 10)

	if got := EffectiveCost(m, 500); got != 10 {
		t.Fatalf("EffectiveCost(500) = %v, want base 10", got)
	}
	if got := EffectiveCost(m, 2000); got != 40 {
		t.Fatalf("EffectiveCost(2000) = %v, want 40", got)
	}
}

func TestCanTransmitCutoff(t *testing.T) {
	m := NewRelayModule("m", "n1", 1000, 4, 4, 100, 10)
	maxDist := m.MaxTransmitDistance() // sqrt(4) * 1000 = 2000

	if maxDist != 2000 {
		t.Fatalf("MaxTransmitDistance = %v, want 2000", maxDist)
	}
	if !CanTransmit(m, 2000) {
		t.Fatalf("expected d == maxTransmitDistance to be transmittable")
	}
	if CanTransmit(m, math.Nextafter(2000, 3000)) {
		t.Fatalf("expected d just above maxTransmitDistance to be rejected")
	}
}

func TestCheckTransmitRejectsOutOfRange(t *testing.T) {
	m := NewRelayModule("m", "n1", 1000, 4, 4, 100, 10)

	if err := CheckTransmit(m, 1999); err != nil {
		t.Fatalf("CheckTransmit in range: %v", err)
	}

	err := CheckTransmit(m, 2500)
	if err == nil {
		t.Fatalf("expected out-of-range transmit to be rejected")
	}
	if !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected errors.Is(err, ErrOutOfRange), got %v", err)
	}

	var oor *OutOfRangeError
	if !errors.As(err, &oor) {
		t.Fatalf("expected *OutOfRangeError, got %T", err)
	}
	if oor.ModuleID != "m" || oor.Distance != 2500 || oor.MaxDistance != 2000 {
		t.Fatalf("unexpected rejection detail: %+v", oor)
	}
}

func TestBaseOverridesFeedScaling(t *testing.T) {
	m := NewRelayModule("m", "n1", 1000, 4, 4, 100, 10)

	m.SetBasePacketSize(200)
	m.SetBasePacketCost(20)
	if got := EffectiveBandwidth(m, 1000); got != 200 {
		t.Fatalf("EffectiveBandwidth after override = %v, want 200", got)
	}
	if got := EffectiveCost(m, 2000); got != 80 {
		t.Fatalf("EffectiveCost after override = %v, want 80", got)
	}

	// Non-positive overrides are ignored.
	m.SetBasePacketSize(0)
	m.SetBasePacketCost(-1)
	if m.BasePacketSize() != 200 || m.BasePacketCost() != 20 {
		t.Fatalf("non-positive overrides must be ignored, got %v/%v",
			m.BasePacketSize(), m.BasePacketCost())
	}
}
