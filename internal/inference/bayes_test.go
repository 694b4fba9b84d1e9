package inference

import (
	"math"
	"testing"
	"time"
)

func TestBayesianProbabilityNoEntities(t *testing.T) {
	now := time.Now()
	if got := BayesianProbability(0.35, nil, now); got != 0.35 {
		t.Errorf("no entities should return the prior, got %v", got)
	}
}

func TestBayesianProbabilityZeroWeightFallback(t *testing.T) {
	now := time.Now()
	motion := testEntity("motion.living", InputMotion, 0.85)
	motion.State = EvidenceActive
	motion.SetEffectiveWeight(0)

	if got := BayesianProbability(0.35, []*Entity{motion}, now); got != 0.35 {
		t.Errorf("all-zero weights should return the prior, got %v", got)
	}
}

func TestBayesianProbabilityInvalidLikelihoodsSkipped(t *testing.T) {
	now := time.Now()
	decay := NewDecay(NewPurpose(PurposeSocial), nil, nil)
	broken := NewEntity("motion.broken", InputMotion, 1.0, 0.0, 0.85, decay)
	broken.State = EvidenceActive

	if got := BayesianProbability(0.35, []*Entity{broken}, now); got != 0.35 {
		t.Errorf("degenerate likelihoods should be skipped, got %v", got)
	}
}

func TestBayesianProbabilityActiveRaises(t *testing.T) {
	now := time.Now()
	motion := testEntity("motion.living", InputMotion, 1.0)
	motion.State = EvidenceActive

	got := BayesianProbability(0.3, []*Entity{motion}, now)

	// Classic Bayes at unit weight: P = 0.8*0.3 / (0.8*0.3 + 0.1*0.7) ≈ 0.774
	want := (0.8 * 0.3) / (0.8*0.3 + 0.1*0.7)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("BayesianProbability = %v, want %v", got, want)
	}
}

func TestBayesianProbabilityInactiveLowers(t *testing.T) {
	now := time.Now()
	motion := testEntity("motion.living", InputMotion, 1.0)
	motion.State = EvidenceInactive

	got := BayesianProbability(0.3, []*Entity{motion}, now)

	// Complements: P = 0.2*0.3 / (0.2*0.3 + 0.9*0.7) ≈ 0.0870
	want := (0.2 * 0.3) / (0.2*0.3 + 0.9*0.7)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("BayesianProbability = %v, want %v", got, want)
	}
}

func TestBayesianProbabilityWeightScalesContribution(t *testing.T) {
	now := time.Now()

	strong := testEntity("motion.living", InputMotion, 1.0)
	strong.State = EvidenceActive
	weak := testEntity("motion.hall", InputMotion, 0.4)
	weak.State = EvidenceActive

	full := BayesianProbability(0.3, []*Entity{strong}, now)
	partial := BayesianProbability(0.3, []*Entity{weak}, now)

	if partial <= 0.3 {
		t.Errorf("down-weighted evidence should still raise the prior, got %v", partial)
	}
	if partial >= full {
		t.Errorf("weight 0.4 posterior %v should be below weight 1.0 posterior %v", partial, full)
	}

	// Weighted update: P = 0.3*0.8^0.4 / (0.3*0.8^0.4 + 0.7*0.1^0.4)
	num := 0.3 * math.Pow(0.8, 0.4)
	want := num / (num + 0.7*math.Pow(0.1, 0.4))
	if math.Abs(partial-want) > 1e-9 {
		t.Errorf("weighted posterior = %v, want %v", partial, want)
	}
}

func TestBayesianProbabilityDecayInterpolates(t *testing.T) {
	start := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

	motion := testEntity("motion.living", InputMotion, 1.0)
	motion.State = EvidenceInactive
	motion.Decay.StartDecay(start)

	fresh := BayesianProbability(0.3, []*Entity{motion}, start)
	aged := BayesianProbability(0.3, []*Entity{motion}, start.Add(720*time.Second))

	active := (0.8 * 0.3) / (0.8*0.3 + 0.1*0.7)
	if math.Abs(fresh-active) > 1e-9 {
		t.Errorf("freshly decaying evidence = %v, want full strength %v", fresh, active)
	}

	if aged >= fresh {
		t.Errorf("aged evidence %v should be weaker than fresh %v", aged, fresh)
	}
	if aged <= 0.3 {
		t.Errorf("half-decayed evidence %v should still exceed the prior", aged)
	}
}

func TestBayesianProbabilityContinuous(t *testing.T) {
	now := time.Now()
	decay := NewDecay(NewPurpose(PurposeBathroom), nil, nil)
	humidity := NewEntity("humidity.bath", InputHumidity, 0, 0, 1.0, decay)
	humidity.SetGaussianParams(GaussianParams{
		MeanOccupied: 75, StdOccupied: 8,
		MeanUnoccupied: 45, StdUnoccupied: 5,
	})
	humidity.State = EvidenceActive

	high := 78.0
	humidity.Value = &high
	raised := BayesianProbability(0.3, []*Entity{humidity}, now)
	if raised <= 0.3 {
		t.Errorf("reading near occupied mean should raise probability, got %v", raised)
	}

	low := 44.0
	humidity.Value = &low
	lowered := BayesianProbability(0.3, []*Entity{humidity}, now)
	if lowered >= 0.3 {
		t.Errorf("reading near unoccupied mean should lower probability, got %v", lowered)
	}
}

func TestBayesianProbabilityUnavailableSkipped(t *testing.T) {
	now := time.Now()
	motion := testEntity("motion.living", InputMotion, 1.0)
	motion.State = EvidenceUnavailable

	// An unreachable sensor is not evidence of absence
	if got := BayesianProbability(0.5, []*Entity{motion}, now); got != 0.5 {
		t.Errorf("unavailable sensor moved the posterior to %v, want prior 0.5", got)
	}
}

func TestBayesianProbabilityInactiveContinuousContributes(t *testing.T) {
	now := time.Now()
	decay := NewDecay(NewPurpose(PurposeBathroom), nil, nil)
	co2 := NewEntity("co2.bed", InputCO2, 0, 0, 1.0, decay)
	co2.SetGaussianParams(GaussianParams{
		MeanOccupied: 900, StdOccupied: 150,
		MeanUnoccupied: 420, StdUnoccupied: 60,
	})
	co2.State = EvidenceInactive

	// The reading keeps carrying information even without binary evidence
	high := 900.0
	co2.Value = &high
	if got := BayesianProbability(0.5, []*Entity{co2}, now); got <= 0.5 {
		t.Errorf("reading at the occupied mean should raise the posterior, got %v", got)
	}

	low := 420.0
	co2.Value = &low
	if got := BayesianProbability(0.5, []*Entity{co2}, now); got >= 0.5 {
		t.Errorf("reading at the unoccupied mean should lower the posterior, got %v", got)
	}
}

func TestBayesianProbabilityManySensorsStable(t *testing.T) {
	now := time.Now()
	var entities []*Entity
	for i := 0; i < 50; i++ {
		e := testEntity("motion.n", InputMotion, 0.85)
		e.State = EvidenceInactive
		entities = append(entities, e)
	}

	got := BayesianProbability(0.3, entities, now)
	if math.IsNaN(got) || got < MinProbability || got > MaxProbability {
		t.Errorf("long product produced unstable result %v", got)
	}
}
