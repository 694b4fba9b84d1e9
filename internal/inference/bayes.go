package inference

import (
	"math"
	"time"
)

// BayesianProbability combines entity likelihoods with a prior using a
// naive-Bayes update in log space. It is the slower, better-calibrated
// counterpart to logit fusion, used for diagnostics and snapshots.
//
// Unavailable entities and entities with zero effective weight or unusable
// likelihoods are skipped; each surviving log-contribution is scaled by the
// entity's effective weight, so down-weighted sensors pull the posterior
// less. Quiet binary entities contribute the complements of their
// likelihoods; quiet continuous entities contribute the densities of their
// current reading; decaying entities interpolate their likelihoods toward
// the neutral 0.5 by the decay factor. If nothing contributes, the prior is
// returned unchanged.
func BayesianProbability(prior float64, entities []*Entity, now time.Time) float64 {
	prior = ClampProbability(prior)

	logOccupied := math.Log(prior)
	logUnoccupied := math.Log(1.0 - prior)
	contributed := false

	for _, entity := range entities {
		if entity.EffectiveWeight <= 0 {
			continue
		}

		pTrue, pFalse := entity.Likelihoods()
		if entity.IsContinuous() {
			// Densities are unnormalized; only guard the log domain
			if pTrue < densityFloor {
				pTrue = densityFloor
			}
			if pFalse < densityFloor {
				pFalse = densityFloor
			}
		} else {
			if pTrue <= 0 || pTrue >= 1 || pFalse <= 0 || pFalse >= 1 {
				continue
			}
		}

		evidence := entity.Evidence(now)

		switch evidence.Kind {
		case KindActive:
			// Likelihoods apply as-is
		case KindDecaying:
			// Fade the evidence toward neutral as it ages
			pTrue = 0.5 + (pTrue-0.5)*evidence.Factor
			pFalse = 0.5 + (pFalse-0.5)*evidence.Factor
		case KindInactive:
			if !entity.IsContinuous() {
				// A quiet binary sensor is evidence of absence
				pTrue = 1.0 - pTrue
				pFalse = 1.0 - pFalse
			}
			// A quiet continuous sensor keeps speaking through its
			// current reading's densities
		default:
			// An unreachable sensor says nothing either way
			continue
		}

		logOccupied += entity.EffectiveWeight * math.Log(pTrue)
		logUnoccupied += entity.EffectiveWeight * math.Log(pFalse)
		contributed = true
	}

	if !contributed {
		return prior
	}

	// Normalize via log-sum-exp so long products never underflow
	maxLog := math.Max(logOccupied, logUnoccupied)
	numerator := math.Exp(logOccupied - maxLog)
	denominator := numerator + math.Exp(logUnoccupied-maxLog)

	if denominator == 0 {
		return prior
	}

	return ClampProbability(numerator / denominator)
}
