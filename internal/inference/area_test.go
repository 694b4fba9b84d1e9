package inference

import (
	"context"
	"math"
	"testing"
	"time"
)

func testArea(name string, purpose AreaPurpose, entities []*Entity) *Area {
	provider := &stubPriorProvider{global: 0.3, timePriors: map[SlotKey]float64{}}
	return NewArea(AreaConfig{Name: name, Purpose: purpose}, entities, provider, nil)
}

func TestAreaBaseProbabilitySkipsEnvironmentalBlend(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 9, 14, 0, 0, 0, time.UTC)

	motion := testEntity("motion.living", InputMotion, 0.85)
	motion.State = EvidenceActive

	area := testArea("living", PurposeSocial, []*Entity{motion})

	base := area.BaseProbability(ctx, now)
	prior := area.Prior().Value(ctx, now)
	presence := PresenceProbability(prior, area.Entities, nil, now)

	if base != presence {
		t.Errorf("without environmental sensors base = %v, want presence %v", base, presence)
	}
}

func TestAreaBaseProbabilityBlendsEnvironmental(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 9, 14, 0, 0, 0, time.UTC)

	motion := testEntity("motion.living", InputMotion, 0.85)
	motion.State = EvidenceActive
	co2 := testEntity("co2.living", InputCO2, 0.5)
	co2.State = EvidenceActive

	area := testArea("living", PurposeSocial, []*Entity{motion, co2})

	base := area.BaseProbability(ctx, now)
	prior := area.Prior().Value(ctx, now)
	presence := PresenceProbability(prior, area.Entities, nil, now)

	if base == presence {
		t.Error("active environmental sensor should change the blended probability")
	}
}

func TestAreaApplyEvidenceDecayEdges(t *testing.T) {
	now := time.Date(2026, 3, 9, 14, 0, 0, 0, time.UTC)

	motion := testEntity("motion.living", InputMotion, 0.85)
	area := testArea("living", PurposeSocial, []*Entity{motion})

	if !area.ApplyEvidence("motion.living", EvidenceActive, nil, now) {
		t.Fatal("known entity should be found")
	}
	if motion.Decay.IsDecaying {
		t.Error("rising edge should not start decay")
	}

	area.ApplyEvidence("motion.living", EvidenceInactive, nil, now.Add(time.Minute))
	if !motion.Decay.IsDecaying {
		t.Error("falling edge should start decay")
	}
	startedAt := motion.Decay.DecayStart

	// Repeated inactive reports must not restart the decay
	area.ApplyEvidence("motion.living", EvidenceInactive, nil, now.Add(2*time.Minute))
	if !motion.Decay.DecayStart.Equal(startedAt) {
		t.Error("repeated falling state should keep the original decay start")
	}

	area.ApplyEvidence("motion.living", EvidenceActive, nil, now.Add(3*time.Minute))
	if motion.Decay.IsDecaying {
		t.Error("rising edge should stop decay")
	}

	if area.ApplyEvidence("motion.unknown", EvidenceActive, nil, now) {
		t.Error("unknown entity should not be found")
	}
}

func TestAreaActivityCacheInvalidation(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 9, 21, 0, 0, 0, time.UTC)

	sleep := testEntity("sleep.bed", InputSleep, 1.0)
	sleep.Decay = NewDecay(NewPurpose(PurposeSleeping), nil, nil)
	area := testArea("bedroom", PurposeSleeping, []*Entity{sleep})

	area.ApplyEvidence("sleep.bed", EvidenceActive, nil, now)
	first := area.DetectedActivity(ctx, now)
	if first.Activity != ActivitySleeping {
		t.Fatalf("activity = %v, want %v", first.Activity, ActivitySleeping)
	}

	// State changed underneath, but the memo still answers until invalidated
	sleep.State = EvidenceInactive
	cached := area.DetectedActivity(ctx, now)
	if cached.Activity != first.Activity || cached.Confidence != first.Confidence {
		t.Error("memoized detection should be returned until invalidated")
	}

	area.InvalidateActivityCache()
	fresh := area.DetectedActivity(ctx, now)
	if fresh.Activity == ActivitySleeping && fresh.Confidence == first.Confidence {
		t.Error("invalidation should force recomputation")
	}
}

func TestAreaProbabilityBoostedByActivity(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 9, 23, 0, 0, 0, time.UTC)

	sleep := testEntity("sleep.bed", InputSleep, 1.0)
	sleep.Decay = NewDecay(NewPurpose(PurposeSleeping), nil, nil)
	area := testArea("bedroom", PurposeSleeping, []*Entity{sleep})
	area.ApplyEvidence("sleep.bed", EvidenceActive, nil, now)

	base := area.BaseProbability(ctx, now)
	final := area.Probability(ctx, now)

	if final <= base {
		t.Errorf("detected sleeping should boost probability: base=%v final=%v", base, final)
	}
}

func TestAreaTickDecay(t *testing.T) {
	now := time.Date(2026, 3, 9, 14, 0, 0, 0, time.UTC)

	motion := testEntity("motion.hall", InputMotion, 0.85)
	motion.Decay = NewDecay(NewPurpose(PurposePassageway), nil, nil)
	area := testArea("hallway", PurposePassageway, []*Entity{motion})

	area.ApplyEvidence("motion.hall", EvidenceActive, nil, now)
	area.ApplyEvidence("motion.hall", EvidenceInactive, nil, now.Add(time.Second))

	if !area.TickDecay(now.Add(30 * time.Second)) {
		t.Error("decay should still be running after 30s")
	}
	if area.TickDecay(now.Add(time.Hour)) {
		t.Error("decay should be finished after an hour")
	}
	if motion.Decay.IsDecaying {
		t.Error("finished decay should be cleared")
	}
}

func TestAreaDecayFactorMean(t *testing.T) {
	now := time.Date(2026, 3, 9, 14, 0, 0, 0, time.UTC)

	// A quiet sensor that is not decaying is fully fresh
	active := testEntity("motion.a", InputMotion, 1.0)
	active.State = EvidenceActive
	idle := testEntity("motion.b", InputMotion, 1.0)
	idle.State = EvidenceInactive

	area := testArea("living", PurposeSocial, []*Entity{active, idle})
	if got := area.DecayFactor(now); got != 1.0 {
		t.Errorf("mean decay factor without decay = %v, want 1.0", got)
	}

	// One half-life into a decay the fading sensor sits at 0.5
	fading := testEntity("motion.c", InputMotion, 1.0)
	fading.State = EvidenceInactive
	fading.Decay.StartDecay(now.Add(-720 * time.Second))

	area = testArea("living", PurposeSocial, []*Entity{active, fading})
	if got := area.DecayFactor(now); math.Abs(got-0.75) > 1e-9 {
		t.Errorf("mean decay factor = %v, want 0.75", got)
	}
}

func TestAreaThresholdDefaults(t *testing.T) {
	provider := &stubPriorProvider{global: 0.3}

	area := NewArea(AreaConfig{Name: "a", Purpose: PurposeSocial, Threshold: 0.7}, nil, provider, nil)
	if got := area.Threshold(); got != 0.7 {
		t.Errorf("threshold = %v, want 0.7", got)
	}

	area = NewArea(AreaConfig{Name: "b", Purpose: PurposeSocial}, nil, provider, nil)
	if got := area.Threshold(); got != DefaultThreshold {
		t.Errorf("unset threshold = %v, want default %v", got, DefaultThreshold)
	}
}
