package inference

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"
)

// SlotKey addresses one cell of the weekly time-prior table: day of week
// (Monday=0) and slot index within the day
type SlotKey struct {
	Day  int
	Slot int
}

// DayOfWeek converts Go's Sunday-based weekday to a Monday=0 index
func DayOfWeek(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// TimeSlot returns the slot index within the day for the given time
func TimeSlot(t time.Time) int {
	return (t.Hour()*60 + t.Minute()) / SlotMinutes
}

// TimePriorProvider supplies learned prior data for an area. Implementations
// read from the history store.
type TimePriorProvider interface {
	// GlobalPrior returns the overall learned occupancy ratio for the area.
	// learned is false when no prior has ever been computed for it.
	GlobalPrior(ctx context.Context, area string) (prior float64, learned bool, err error)

	// TimePriors returns the learned per-slot occupancy ratios. Missing
	// slots fall back to the default time prior.
	TimePriors(ctx context.Context, area string) (map[SlotKey]float64, error)
}

// Prior computes the occupancy baseline for an area from a learned global
// prior and a weekly time-of-day table. Learned data is loaded lazily on
// first use and cached until explicitly invalidated.
type Prior struct {
	area     string
	purpose  *Purpose
	override float64
	provider TimePriorProvider
	logger   *slog.Logger

	mu         sync.Mutex
	loaded     bool
	global     float64
	learned    bool
	timePriors map[SlotKey]float64
}

// NewPrior creates a prior for an area. override, when positive, is a
// user-configured floor applied after the purpose floor.
func NewPrior(area string, purpose *Purpose, override float64, provider TimePriorProvider, logger *slog.Logger) *Prior {
	if logger == nil {
		logger = slog.Default()
	}
	return &Prior{
		area:     area,
		purpose:  purpose,
		override: override,
		provider: provider,
		logger:   logger,
	}
}

// Invalidate drops the cached learned data so the next Value reloads it.
// Called when the learning pipeline publishes fresh statistics.
func (p *Prior) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loaded = false
	p.global = 0
	p.learned = false
	p.timePriors = nil
}

func (p *Prior) load(ctx context.Context) error {
	if p.loaded {
		return nil
	}
	if p.provider == nil {
		p.global = MinPrior
		p.learned = false
		p.timePriors = map[SlotKey]float64{}
		p.loaded = true
		return nil
	}

	global, learned, err := p.provider.GlobalPrior(ctx, p.area)
	if err != nil {
		return fmt.Errorf("failed to load global prior for %s: %w", p.area, err)
	}
	timePriors, err := p.provider.TimePriors(ctx, p.area)
	if err != nil {
		return fmt.Errorf("failed to load time priors for %s: %w", p.area, err)
	}

	p.global = global
	p.learned = learned
	p.timePriors = timePriors
	p.loaded = true
	return nil
}

// TimePrior returns the learned prior for the slot containing t, bounded to
// the time-prior range. Slots without learned data return the neutral default.
func (p *Prior) TimePrior(ctx context.Context, t time.Time) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.load(ctx); err != nil {
		p.logger.Warn("Failed to load time priors, using default",
			"area", p.area, "error", err)
		return DefaultTimePrior
	}

	key := SlotKey{Day: DayOfWeek(t), Slot: TimeSlot(t)}
	prior, ok := p.timePriors[key]
	if !ok {
		return DefaultTimePrior
	}

	if prior < TimePriorMinBound {
		return TimePriorMinBound
	}
	if prior > TimePriorMaxBound {
		return TimePriorMaxBound
	}
	return prior
}

// GlobalPrior returns the learned global prior, clamped to the prior bounds.
// The second return is false when the area has no learned prior at all.
func (p *Prior) GlobalPrior(ctx context.Context) (float64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.load(ctx); err != nil {
		p.logger.Warn("Failed to load global prior, using minimum",
			"area", p.area, "error", err)
		return MinPrior, false
	}
	if !p.learned {
		return MinPrior, false
	}
	return clampPrior(p.global), true
}

// Value computes the effective prior at time t: global and time priors
// combined in log-odds space, scaled by the prior factor, clamped to the
// prior bounds, then floored by the purpose and any user override. An area
// with no learned prior starts from the minimum; the floors still apply.
func (p *Prior) Value(ctx context.Context, t time.Time) float64 {
	global, learned := p.GlobalPrior(ctx)

	var value float64
	if !learned {
		value = MinPrior
	} else {
		timePrior := p.TimePrior(ctx, t)
		combined := CombinePriors(global, timePrior, TimePriorWeight)
		value = clampPrior(combined * PriorFactor)
	}

	if p.purpose != nil && value < p.purpose.MinPrior {
		value = p.purpose.MinPrior
	}
	if p.override > 0 && value < p.override {
		value = clampPrior(p.override)
	}
	return value
}

// CombinePriors blends two priors in log-odds space. weight is the share of
// the time prior: 0 returns the global prior, 1 returns the time prior.
func CombinePriors(global, timePrior, weight float64) float64 {
	if weight <= 0 {
		return global
	}
	if weight >= 1 {
		return timePrior
	}
	if math.Abs(global-timePrior) < 1e-10 {
		return global
	}

	g := substituteExtreme(global)
	t := substituteExtreme(timePrior)

	z := (1.0-weight)*Logit(g) + weight*Logit(t)
	return Sigmoid(z)
}

// substituteExtreme replaces exact 0 and 1 with the probability bounds so
// logit stays finite without distorting interior values
func substituteExtreme(p float64) float64 {
	if p <= 0 {
		return MinProbability
	}
	if p >= 1 {
		return MaxProbability
	}
	return p
}

func clampPrior(p float64) float64 {
	if math.IsNaN(p) {
		return MinPrior
	}
	if p < MinPrior {
		return MinPrior
	}
	if p > MaxPrior {
		return MaxPrior
	}
	return p
}
