package inference

import (
	"fmt"
	"log/slog"
	"math"
	"time"
)

// SleepWindow is a daily time window during which a sleeping-purpose area
// keeps its long half-life. Outside the window the shorter awake half-life
// applies. Times are "HH:MM:SS" wall-clock strings.
type SleepWindow struct {
	Start string
	End   string
}

// Decay models exponential evidence decay after a sensor's last active edge.
// The factor halves every half-life and is cut to zero below DecayCutoff.
type Decay struct {
	// DecayStart is the timestamp of the falling edge that started the decay
	DecayStart time.Time

	// IsDecaying is true between the falling edge and full decay
	IsDecaying bool

	purpose *Purpose
	window  *SleepWindow
	logger  *slog.Logger
}

// NewDecay creates a decay tracker parameterized by the area's purpose and
// optional sleep window
func NewDecay(purpose *Purpose, window *SleepWindow, logger *slog.Logger) *Decay {
	if logger == nil {
		logger = slog.Default()
	}
	return &Decay{
		purpose: purpose,
		window:  window,
		logger:  logger,
	}
}

// StartDecay marks the falling edge. Calling it while already decaying keeps
// the original start time.
func (d *Decay) StartDecay(now time.Time) {
	if d.IsDecaying {
		return
	}
	d.IsDecaying = true
	d.DecayStart = now
}

// StopDecay clears decay state, typically on a rising edge
func (d *Decay) StopDecay() {
	d.IsDecaying = false
	d.DecayStart = time.Time{}
}

// HalfLife returns the half-life in effect at the given time. Sleeping areas
// switch to the awake half-life outside their sleep window.
func (d *Decay) HalfLife(now time.Time) float64 {
	if d.purpose == nil {
		return NewPurpose(DefaultPurpose).HalfLife
	}
	if d.purpose.AwakeHalfLife <= 0 || d.window == nil {
		return d.purpose.HalfLife
	}

	start, err := parseClock(d.window.Start)
	if err != nil {
		d.logger.Warn("Invalid sleep window start, using base half-life",
			"value", d.window.Start, "error", err)
		return d.purpose.HalfLife
	}
	end, err := parseClock(d.window.End)
	if err != nil {
		d.logger.Warn("Invalid sleep window end, using base half-life",
			"value", d.window.End, "error", err)
		return d.purpose.HalfLife
	}

	cur := now.Hour()*3600 + now.Minute()*60 + now.Second()

	var inWindow bool
	if start <= end {
		inWindow = cur >= start && cur < end
	} else {
		// Overnight window, e.g. 22:00:00 to 08:00:00
		inWindow = cur >= start || cur < end
	}

	if inWindow {
		return d.purpose.HalfLife
	}
	return d.purpose.AwakeHalfLife
}

// Factor returns the current decay factor in [0,1]: 1.0 while not decaying
// (evidence is fully fresh), halving every half-life after the falling edge,
// zero once below the cutoff.
func (d *Decay) Factor(now time.Time) float64 {
	if !d.IsDecaying {
		return 1.0
	}

	age := now.Sub(d.DecayStart).Seconds()
	if age < 0 {
		// Clock skew put the edge in the future; no decay has happened yet
		return 1.0
	}

	halfLife := d.HalfLife(now)
	if halfLife <= 0 {
		d.logger.Warn("Non-positive half-life, treating evidence as fully decayed",
			"half_life", halfLife)
		return 0.0
	}

	factor := math.Pow(0.5, age/halfLife)
	if factor < DecayCutoff {
		return 0.0
	}
	return factor
}

// Tick advances the decay state: once the factor reaches zero the decay is
// finished and the state is cleared. Returns the factor in effect.
func (d *Decay) Tick(now time.Time) float64 {
	factor := d.Factor(now)
	if d.IsDecaying && factor == 0.0 {
		d.StopDecay()
	}
	return factor
}

// parseClock parses "HH:MM:SS" into seconds since midnight
func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04:05", s)
	if err != nil {
		return 0, fmt.Errorf("failed to parse clock time %q: %w", s, err)
	}
	return t.Hour()*3600 + t.Minute()*60 + t.Second(), nil
}
