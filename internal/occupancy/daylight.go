package occupancy

import (
	"log/slog"
	"time"

	"github.com/sixdouglas/suncalc"

	"github.com/saaga0h/presence-platform/internal/inference"
)

// Default sleep window when solar times cannot be computed, e.g. polar
// summer nights at high latitudes
const (
	defaultSleepStart = "22:00:00"
	defaultSleepEnd   = "08:00:00"
)

// SolarSleepWindow derives a sleep window for sleeping-purpose areas without
// a configured one: dusk to dawn at the home's coordinates. Sleeping areas
// keep their long half-life through the solar night and switch to the awake
// half-life in daylight.
func SolarSleepWindow(lat, lon float64, t time.Time, logger *slog.Logger) *inference.SleepWindow {
	if logger == nil {
		logger = slog.Default()
	}

	times := suncalc.GetTimes(t, lat, lon)

	dusk := times[suncalc.Dusk].Value
	dawn := times[suncalc.Dawn].Value

	if dusk.IsZero() || dawn.IsZero() {
		logger.Debug("Solar times unavailable, using default sleep window",
			"latitude", lat, "longitude", lon)
		return &inference.SleepWindow{Start: defaultSleepStart, End: defaultSleepEnd}
	}

	return &inference.SleepWindow{
		Start: dusk.Local().Format("15:04:05"),
		End:   dawn.Local().Format("15:04:05"),
	}
}
