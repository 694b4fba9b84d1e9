package inference

// Probability bounds used everywhere a value is treated as a probability.
// Strictly inside (0,1) so logit never sees a singularity.
const (
	MinProbability = 0.01
	MaxProbability = 0.99
)

// Prior bounds. The learned baseline is never allowed to claim certainty.
const (
	MinPrior = 0.10
	MaxPrior = 0.95
)

// Time prior table constants
const (
	DefaultTimePrior  = 0.50
	TimePriorMinBound = 0.05
	TimePriorMaxBound = 0.95
	TimePriorWeight   = 0.4
	SlotMinutes       = 60
	SlotsPerDay       = 24 * 60 / SlotMinutes
)

// PriorFactor rewards areas with learned occupancy patterns
const PriorFactor = 1.0

// DecayCutoff is the practical zero for the decay factor: below 5% the
// evidence is treated as fully decayed
const DecayCutoff = 0.05

// Blend weights for combining presence and environmental probabilities in
// logit space. Binary presence evidence is far more discriminative than
// slow environmental drift.
const (
	PresenceBlendWeight      = 0.8
	EnvironmentalBlendWeight = 0.2
)

// Activity occupancy boosts, expressed in logit units
const (
	ActivityBoostMild     = 0.3
	ActivityBoostModerate = 0.5
	ActivityBoostStrong   = 0.8
	ActivityBoostHigh     = 1.0
)

// ConfidencePrecision is the number of decimals activity confidences and
// cache keys are rounded to
const ConfidencePrecision = 4
