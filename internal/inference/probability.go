package inference

import (
	"log/slog"
	"math"
	"time"
)

// ClampProbability normalizes any float into a safe probability. NaN maps to
// the maximum: an undefined probability in a presence system must fail
// occupied so automations keep lights on rather than plunging a room into
// darkness.
func ClampProbability(p float64) float64 {
	if math.IsNaN(p) {
		slog.Warn("Probability is NaN, clamping to maximum", "value", p)
		return MaxProbability
	}
	if math.IsInf(p, 1) {
		return MaxProbability
	}
	if math.IsInf(p, -1) {
		return MinProbability
	}
	if p > MaxProbability {
		return MaxProbability
	}
	if p < MinProbability {
		return MinProbability
	}
	return p
}

// Sigmoid maps a log-odds value back to a probability. Branching on sign
// keeps exp() operating on non-positive inputs so large |z| never overflows.
func Sigmoid(z float64) float64 {
	if z >= 0 {
		return 1.0 / (1.0 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1.0 + e)
}

// Logit maps a probability to log-odds. The input is clamped first so the
// result is always finite.
func Logit(p float64) float64 {
	p = ClampProbability(p)
	return math.Log(p / (1.0 - p))
}

// SigmoidProbability fuses a set of entities on top of a prior in log-odds
// space. Each entity contributes its effective weight, scaled by its current
// evidence contribution, an optional learned correlation discount, and its
// static strength (probGivenTrue, a reliable sensor pulls harder than a
// noisy one) times the per-type strength multiplier.
func SigmoidProbability(prior float64, entities []*Entity, correlations map[string]float64, now time.Time) float64 {
	z := Logit(prior)

	for _, entity := range entities {
		contribution := entity.Evidence(now).Contribution()
		if contribution == 0.0 {
			continue
		}

		correlation := 1.0
		if correlations != nil {
			if c, ok := correlations[entity.ID]; ok {
				correlation = c
			}
		}

		strength, _ := entity.StaticLikelihoods()
		z += entity.EffectiveWeight * contribution * correlation * (strength * entity.Type.StrengthMultiplier())
	}

	return ClampProbability(Sigmoid(z))
}

// PresenceProbability fuses only the presence-category entities. With no
// presence sensors at all the area can only fall back to a discounted prior.
func PresenceProbability(prior float64, entities []*Entity, correlations map[string]float64, now time.Time) float64 {
	presence := make([]*Entity, 0, len(entities))
	for _, entity := range entities {
		if entity.Type.IsPresence() {
			presence = append(presence, entity)
		}
	}

	if len(presence) == 0 {
		return ClampProbability(prior * 0.5)
	}

	return SigmoidProbability(prior, presence, correlations, now)
}

// EnvironmentalConfidence fuses only the environmental-category entities
// around a neutral prior. Exactly 0.5 is the sentinel for "no environmental
// sensors"; callers skip the blend when they see it.
func EnvironmentalConfidence(entities []*Entity, correlations map[string]float64, now time.Time) float64 {
	environmental := make([]*Entity, 0, len(entities))
	for _, entity := range entities {
		if entity.Type.IsEnvironmental() {
			environmental = append(environmental, entity)
		}
	}

	if len(environmental) == 0 {
		return 0.5
	}

	return SigmoidProbability(0.5, environmental, correlations, now)
}

// CombinedProbability blends presence and environmental signals in log-odds
// space with fixed weights favoring presence evidence
func CombinedProbability(presence, environmental float64) float64 {
	z := PresenceBlendWeight*Logit(presence) + EnvironmentalBlendWeight*Logit(environmental)
	return ClampProbability(Sigmoid(z))
}

// ApplyActivityBoost raises a base probability by a detected activity's
// boost, attenuated by the detection confidence. A non-positive effective
// boost leaves the base unchanged: activity detection can only add evidence
// of occupancy, never subtract it.
func ApplyActivityBoost(base, boost, confidence float64) float64 {
	effective := boost * confidence
	if effective <= 0 {
		return ClampProbability(base)
	}
	return ClampProbability(Sigmoid(Logit(base) + effective))
}
