package occupancy

import (
	"fmt"
	"log/slog"

	"github.com/saaga0h/presence-platform/internal/inference"
	"github.com/saaga0h/presence-platform/pkg/config"
)

// sensorDefaults carry per-type fallbacks for sensors that do not configure
// their own likelihoods or weight
type sensorDefaults struct {
	probGivenTrue  float64
	probGivenFalse float64
	weight         float64
}

var typeDefaults = map[inference.InputType]sensorDefaults{
	inference.InputMotion:      {probGivenTrue: 0.85, probGivenFalse: 0.05, weight: 0.85},
	inference.InputDoor:        {probGivenTrue: 0.70, probGivenFalse: 0.30, weight: 0.30},
	inference.InputWindow:      {probGivenTrue: 0.60, probGivenFalse: 0.40, weight: 0.20},
	inference.InputCover:       {probGivenTrue: 0.60, probGivenFalse: 0.40, weight: 0.20},
	inference.InputMedia:       {probGivenTrue: 0.75, probGivenFalse: 0.25, weight: 0.70},
	inference.InputAppliance:   {probGivenTrue: 0.70, probGivenFalse: 0.20, weight: 0.40},
	inference.InputPower:       {probGivenTrue: 0.80, probGivenFalse: 0.10, weight: 0.60},
	inference.InputSleep:       {probGivenTrue: 0.90, probGivenFalse: 0.05, weight: 0.90},
	inference.InputTemperature: {probGivenTrue: 0.50, probGivenFalse: 0.50, weight: 0.30},
	inference.InputHumidity:    {probGivenTrue: 0.50, probGivenFalse: 0.50, weight: 0.30},
	inference.InputPressure:    {probGivenTrue: 0.50, probGivenFalse: 0.50, weight: 0.20},
	inference.InputCO2:         {probGivenTrue: 0.50, probGivenFalse: 0.50, weight: 0.30},
	inference.InputVOC:         {probGivenTrue: 0.50, probGivenFalse: 0.50, weight: 0.20},
	inference.InputSound:       {probGivenTrue: 0.50, probGivenFalse: 0.50, weight: 0.25},
	inference.InputIlluminance: {probGivenTrue: 0.50, probGivenFalse: 0.50, weight: 0.20},
}

// BuildAreas constructs the inference areas from the YAML definitions.
// solarWindow, when non-nil, is the fallback sleep window for
// sleeping-purpose areas that do not configure one.
func BuildAreas(file *config.AreasFile, provider inference.TimePriorProvider, solarWindow *inference.SleepWindow, logger *slog.Logger) ([]*inference.Area, error) {
	if logger == nil {
		logger = slog.Default()
	}

	areas := make([]*inference.Area, 0, len(file.Areas))
	for _, def := range file.Areas {
		area, err := buildArea(def, provider, solarWindow, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to build area %s: %w", def.Name, err)
		}
		areas = append(areas, area)
	}
	return areas, nil
}

func buildArea(def config.AreaDefinition, provider inference.TimePriorProvider, solarWindow *inference.SleepWindow, logger *slog.Logger) (*inference.Area, error) {
	purposeLabel := inference.AreaPurpose(def.Purpose)
	purpose := inference.NewPurpose(purposeLabel)
	if def.Purpose != "" && purpose.Purpose != purposeLabel {
		logger.Warn("Unknown area purpose, using default",
			"area", def.Name, "purpose", def.Purpose, "default", purpose.Purpose)
	}

	window := sleepWindowFor(def, purpose, solarWindow)

	entities := make([]*inference.Entity, 0, len(def.Sensors))
	for _, sensor := range def.Sensors {
		entity, err := buildEntity(sensor, purpose, window, logger)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}

	cfg := inference.AreaConfig{
		Name:                def.Name,
		Purpose:             purpose.Purpose,
		Threshold:           def.Threshold,
		MinPriorOverride:    def.MinPriorOverride,
		SleepWindow:         window,
		FloorID:             def.FloorID,
		FloorName:           def.FloorName,
		ExcludeFromAllAreas: def.ExcludeFromAllAreas,
	}

	return inference.NewArea(cfg, entities, provider, logger), nil
}

func sleepWindowFor(def config.AreaDefinition, purpose *inference.Purpose, solarWindow *inference.SleepWindow) *inference.SleepWindow {
	if def.SleepStart != "" && def.SleepEnd != "" {
		return &inference.SleepWindow{Start: def.SleepStart, End: def.SleepEnd}
	}
	if purpose.Purpose == inference.PurposeSleeping {
		return solarWindow
	}
	return nil
}

func buildEntity(sensor config.SensorDefinition, purpose *inference.Purpose, window *inference.SleepWindow, logger *slog.Logger) (*inference.Entity, error) {
	inputType := inference.InputType(sensor.Type)
	defaults, ok := typeDefaults[inputType]
	if !ok {
		return nil, fmt.Errorf("sensor %s has unknown type %q", sensor.EntityID, sensor.Type)
	}

	probGivenTrue := sensor.ProbGivenTrue
	probGivenFalse := sensor.ProbGivenFalse
	if probGivenTrue == 0 && probGivenFalse == 0 {
		probGivenTrue = defaults.probGivenTrue
		probGivenFalse = defaults.probGivenFalse
	}

	weight := sensor.Weight
	if weight == 0 {
		weight = defaults.weight
	}

	decayPurpose := purpose
	if sensor.HalfLife > 0 {
		// Per-sensor half-life override replaces the purpose default
		p := *purpose
		p.HalfLife = sensor.HalfLife
		p.AwakeHalfLife = 0
		decayPurpose = &p
	}

	decay := inference.NewDecay(decayPurpose, window, logger)
	entity := inference.NewEntity(sensor.EntityID, inputType, probGivenTrue, probGivenFalse, weight, decay)
	entity.DeviceClass = sensor.DeviceClass

	return entity, nil
}
