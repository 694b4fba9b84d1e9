package inference

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// AreaConfig carries the static configuration an area is built from
type AreaConfig struct {
	Name      string
	Purpose   AreaPurpose
	Threshold float64

	// MinPriorOverride, when positive, raises the prior floor above the
	// purpose's own floor
	MinPriorOverride float64

	// SleepWindow applies to sleeping-purpose areas
	SleepWindow *SleepWindow

	FloorID   string
	FloorName string

	// ExcludeFromAllAreas removes the area from whole-home aggregation
	ExcludeFromAllAreas bool
}

// DefaultThreshold is the occupancy decision boundary when an area does not
// configure one
const DefaultThreshold = 0.5

// Area is the inference unit: one physical space with its sensors, prior,
// decay state, and activity classification
type Area struct {
	Name      string
	Purpose   *Purpose
	Entities  []*Entity
	FloorID   string
	FloorName string

	ExcludeFromAllAreas bool

	prior        *Prior
	threshold    float64
	correlations map[string]float64
	logger       *slog.Logger

	mu             sync.Mutex
	activityCached bool
	activity       Detection
}

// NewArea builds an area from its configuration, entities, and learned
// prior provider
func NewArea(cfg AreaConfig, entities []*Entity, provider TimePriorProvider, logger *slog.Logger) *Area {
	if logger == nil {
		logger = slog.Default()
	}

	purpose := NewPurpose(cfg.Purpose)

	threshold := cfg.Threshold
	if threshold <= 0 || threshold >= 1 {
		threshold = DefaultThreshold
	}

	return &Area{
		Name:                cfg.Name,
		Purpose:             purpose,
		Entities:            entities,
		FloorID:             cfg.FloorID,
		FloorName:           cfg.FloorName,
		ExcludeFromAllAreas: cfg.ExcludeFromAllAreas,
		prior:               NewPrior(cfg.Name, purpose, cfg.MinPriorOverride, provider, logger),
		threshold:           threshold,
		logger:              logger,
	}
}

// Threshold returns the occupancy decision boundary
func (a *Area) Threshold() float64 {
	return a.threshold
}

// Prior returns the area's prior model
func (a *Area) Prior() *Prior {
	return a.prior
}

// SetCorrelations installs learned inter-sensor correlation discounts,
// keyed by entity ID
func (a *Area) SetCorrelations(correlations map[string]float64) {
	a.correlations = correlations
}

// Entity returns the entity with the given ID, or nil
func (a *Area) Entity(id string) *Entity {
	for _, entity := range a.Entities {
		if entity.ID == id {
			return entity
		}
	}
	return nil
}

// BaseProbability fuses presence and environmental evidence on top of the
// learned prior. The environmental blend is skipped entirely when the area
// has no environmental sensors.
func (a *Area) BaseProbability(ctx context.Context, now time.Time) float64 {
	prior := a.prior.Value(ctx, now)

	presence := PresenceProbability(prior, a.Entities, a.correlations, now)
	environmental := EnvironmentalConfidence(a.Entities, a.correlations, now)

	if environmental == 0.5 {
		return presence
	}
	return CombinedProbability(presence, environmental)
}

// Probability is the area's final occupancy probability: the base fused
// probability raised by any detected activity
func (a *Area) Probability(ctx context.Context, now time.Time) float64 {
	base := a.BaseProbability(ctx, now)
	detection := a.DetectedActivity(ctx, now)
	return ApplyActivityBoost(base, detection.Boost, detection.Confidence)
}

// Occupied reports whether the final probability clears the threshold
func (a *Area) Occupied(ctx context.Context, now time.Time) bool {
	return a.Probability(ctx, now) >= a.threshold
}

// DetectedActivity classifies the area's current activity. The result is
// memoized until InvalidateActivityCache is called; evidence updates and
// decay ticks invalidate it.
func (a *Area) DetectedActivity(ctx context.Context, now time.Time) Detection {
	a.mu.Lock()
	if a.activityCached {
		cached := a.activity
		a.mu.Unlock()
		return cached
	}
	a.mu.Unlock()

	base := a.BaseProbability(ctx, now)
	occupied := base >= a.threshold
	detection := DetectActivity(a.Purpose.Purpose, a.Entities, base, occupied, now)

	a.mu.Lock()
	a.activity = detection
	a.activityCached = true
	a.mu.Unlock()

	return detection
}

// InvalidateActivityCache drops the memoized activity detection so the next
// read recomputes it
func (a *Area) InvalidateActivityCache() {
	a.mu.Lock()
	a.activityCached = false
	a.activity = Detection{}
	a.mu.Unlock()
}

// DecayFactor returns the mean freshness of the area's entities: active
// entities count as fully fresh, decaying ones at their current factor.
// An area without entities has nothing decaying and reports full freshness.
func (a *Area) DecayFactor(now time.Time) float64 {
	if len(a.Entities) == 0 {
		return 1.0
	}
	sum := 0.0
	for _, entity := range a.Entities {
		sum += entity.DecayFactor(now)
	}
	return sum / float64(len(a.Entities))
}

// TickDecay advances every entity's decay state and reports whether any
// entity is still decaying. Finished decays clear themselves.
func (a *Area) TickDecay(now time.Time) bool {
	decaying := false
	for _, entity := range a.Entities {
		entity.Decay.Tick(now)
		if entity.Decay.IsDecaying {
			decaying = true
		}
	}
	a.InvalidateActivityCache()
	return decaying
}

// ApplyEvidence updates one entity's tri-state reading and numeric value,
// managing decay edges: a falling edge from active starts decay, a rising
// edge stops it. Returns true when the entity was found.
func (a *Area) ApplyEvidence(id string, state EvidenceState, value *float64, now time.Time) bool {
	entity := a.Entity(id)
	if entity == nil {
		return false
	}

	previous := entity.State
	entity.State = state
	if value != nil {
		entity.Value = value
	}

	switch {
	case state == EvidenceActive:
		entity.Decay.StopDecay()
	case previous == EvidenceActive && state != EvidenceActive:
		entity.Decay.StartDecay(now)
	}

	a.InvalidateActivityCache()
	return true
}
