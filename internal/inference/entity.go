package inference

import (
	"math"
	"time"
)

// InputType is the semantic type of a sensor's contribution to inference
type InputType string

const (
	InputMotion      InputType = "motion"
	InputDoor        InputType = "door"
	InputWindow      InputType = "window"
	InputCover       InputType = "cover"
	InputMedia       InputType = "media"
	InputAppliance   InputType = "appliance"
	InputPower       InputType = "power"
	InputTemperature InputType = "temperature"
	InputHumidity    InputType = "humidity"
	InputPressure    InputType = "pressure"
	InputCO2         InputType = "co2"
	InputVOC         InputType = "voc"
	InputSound       InputType = "sound"
	InputIlluminance InputType = "illuminance"
	InputSleep       InputType = "sleep"
)

// presenceInputTypes are strong binary indicators of a person being present
var presenceInputTypes = map[InputType]bool{
	InputMotion:    true,
	InputDoor:      true,
	InputWindow:    true,
	InputCover:     true,
	InputMedia:     true,
	InputAppliance: true,
	InputPower:     true,
	InputSleep:     true,
}

// environmentalInputTypes are slow continuous signals that drift with occupancy
var environmentalInputTypes = map[InputType]bool{
	InputTemperature: true,
	InputHumidity:    true,
	InputPressure:    true,
	InputCO2:         true,
	InputVOC:         true,
	InputSound:       true,
	InputIlluminance: true,
}

// IsPresence reports whether the input type belongs to the presence category
func (t InputType) IsPresence() bool {
	return presenceInputTypes[t]
}

// IsEnvironmental reports whether the input type belongs to the environmental category
func (t InputType) IsEnvironmental() bool {
	return environmentalInputTypes[t]
}

// StrengthMultiplier scales the logit-space contribution per sensor type.
// Ground-truth motion sensors get a stronger pull than everything else.
func (t InputType) StrengthMultiplier() float64 {
	if t == InputMotion {
		return 3.0
	}
	return 2.0
}

// EvidenceState is the tri-state raw reading of a sensor
type EvidenceState int

const (
	EvidenceUnavailable EvidenceState = iota
	EvidenceInactive
	EvidenceActive
)

// EvidenceKind classifies a sensor's effective evidence at a point in time
type EvidenceKind int

const (
	KindUnavailable EvidenceKind = iota
	KindInactive
	KindDecaying
	KindActive
)

// Evidence is the canonical snapshot of one sensor's evidence: its kind and,
// when decaying, the current freshness factor. Both fusion and the Bayesian
// combiner map from this one representation instead of re-deriving the
// branches locally.
type Evidence struct {
	Kind   EvidenceKind
	Factor float64
}

// Contribution is the fusion engine's mapping: full weight while active, the
// decay factor while fading, zero otherwise (never negative).
func (e Evidence) Contribution() float64 {
	switch e.Kind {
	case KindActive:
		return 1.0
	case KindDecaying:
		return e.Factor
	default:
		return 0.0
	}
}

// Effective is the Bayesian combiner's mapping: evidence counts while active
// or still decaying.
func (e Evidence) Effective() bool {
	return e.Kind == KindActive || e.Kind == KindDecaying
}

// GaussianParams are learned Gaussian distribution parameters for a numeric
// sensor's likelihoods under occupied and unoccupied conditions
type GaussianParams struct {
	MeanOccupied   float64
	StdOccupied    float64
	MeanUnoccupied float64
	StdUnoccupied  float64
}

// densityFloor keeps continuous likelihoods strictly positive for log()
const densityFloor = 1e-9

// Density evaluates the Gaussian density at x for the given mean and std,
// floored to a small positive value
func gaussianDensity(x, mean, std float64) float64 {
	if std <= 0 {
		std = densityFloor
	}
	z := (x - mean) / std
	d := math.Exp(-0.5*z*z) / (std * math.Sqrt(2*math.Pi))
	if d < densityFloor || math.IsNaN(d) {
		return densityFloor
	}
	return d
}

// likelihoodModel is resolved once at entity construction: a sensor either
// carries static likelihoods or evaluates learned Gaussian densities against
// its current numeric state.
type likelihoodModel interface {
	values(e *Entity) (pTrue, pFalse float64)
	continuous() bool
}

type staticLikelihood struct {
	probGivenTrue  float64
	probGivenFalse float64
}

func (s staticLikelihood) values(*Entity) (float64, float64) {
	return s.probGivenTrue, s.probGivenFalse
}

func (s staticLikelihood) continuous() bool { return false }

type gaussianLikelihood struct {
	params GaussianParams
}

func (g gaussianLikelihood) values(e *Entity) (float64, float64) {
	if e.Value == nil {
		// No reading to evaluate; neutral
		return 0.5, 0.5
	}
	pTrue := gaussianDensity(*e.Value, g.params.MeanOccupied, g.params.StdOccupied)
	pFalse := gaussianDensity(*e.Value, g.params.MeanUnoccupied, g.params.StdUnoccupied)
	return pTrue, pFalse
}

func (g gaussianLikelihood) continuous() bool { return true }

// Entity represents one sensor's contribution to occupancy inference
type Entity struct {
	ID          string
	Type        InputType
	DeviceClass string

	// State is the current tri-state evidence reading
	State EvidenceState

	// Value is the current numeric state for continuous sensors, nil when
	// unavailable or not numeric
	Value *float64

	// Weight is the configured contribution multiplier; EffectiveWeight is
	// weight discounted by a learned information-gain factor
	Weight          float64
	EffectiveWeight float64

	// Decay tracks freshness of the last active edge
	Decay *Decay

	// GaussianParams are the learned environmental statistics, nil until
	// materialized from history. Setting them switches the likelihood model
	// to continuous densities.
	GaussianParams *GaussianParams

	probGivenTrue  float64
	probGivenFalse float64
	likelihood     likelihoodModel
}

// NewEntity creates an entity with static likelihoods. Binary likelihoods
// must lie strictly in (0,1); out-of-band values are accepted here and
// filtered by the Bayesian combiner.
func NewEntity(id string, inputType InputType, probGivenTrue, probGivenFalse, weight float64, decay *Decay) *Entity {
	return &Entity{
		ID:              id,
		Type:            inputType,
		State:           EvidenceUnavailable,
		Weight:          weight,
		EffectiveWeight: weight,
		Decay:           decay,
		probGivenTrue:   probGivenTrue,
		probGivenFalse:  probGivenFalse,
		likelihood:      staticLikelihood{probGivenTrue: probGivenTrue, probGivenFalse: probGivenFalse},
	}
}

// SetGaussianParams attaches learned Gaussian parameters and switches the
// entity to the continuous likelihood model
func (e *Entity) SetGaussianParams(params GaussianParams) {
	p := params
	e.GaussianParams = &p
	e.likelihood = gaussianLikelihood{params: p}
}

// SetEffectiveWeight applies the externally learned information-gain discount
func (e *Entity) SetEffectiveWeight(weight float64) {
	if weight < 0 {
		weight = 0
	}
	e.EffectiveWeight = weight
}

// IsContinuous reports whether the entity's likelihoods are densities
func (e *Entity) IsContinuous() bool {
	return e.likelihood.continuous()
}

// StaticLikelihoods returns the configured static likelihood pair
func (e *Entity) StaticLikelihoods() (pTrue, pFalse float64) {
	return e.probGivenTrue, e.probGivenFalse
}

// Likelihoods returns the current likelihood pair from the entity's model
func (e *Entity) Likelihoods() (pTrue, pFalse float64) {
	return e.likelihood.values(e)
}

// DecayFactor returns the current freshness factor: 1.0 while active,
// the decay factor while fading
func (e *Entity) DecayFactor(now time.Time) float64 {
	if e.State == EvidenceActive {
		return 1.0
	}
	return e.Decay.Factor(now)
}

// Evidence returns the canonical evidence snapshot at the given time
func (e *Entity) Evidence(now time.Time) Evidence {
	switch {
	case e.State == EvidenceActive:
		return Evidence{Kind: KindActive, Factor: 1.0}
	case e.Decay.IsDecaying:
		return Evidence{Kind: KindDecaying, Factor: e.Decay.Factor(now)}
	case e.State == EvidenceInactive:
		return Evidence{Kind: KindInactive}
	default:
		return Evidence{Kind: KindUnavailable}
	}
}
