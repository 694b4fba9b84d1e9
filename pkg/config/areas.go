package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AreasFile is the root of the YAML area definition file
type AreasFile struct {
	Areas []AreaDefinition `yaml:"areas"`
}

// AreaDefinition describes one sensed area and its sensors
type AreaDefinition struct {
	Name                string             `yaml:"name"`
	Purpose             string             `yaml:"purpose"`
	Threshold           float64            `yaml:"threshold"`
	MinPriorOverride    float64            `yaml:"min_prior_override"`
	ExcludeFromAllAreas bool               `yaml:"exclude_from_all_areas"`
	FloorID             string             `yaml:"floor_id"`
	FloorName           string             `yaml:"floor_name"`
	SleepStart          string             `yaml:"sleep_start"` // HH:MM:SS
	SleepEnd            string             `yaml:"sleep_end"`   // HH:MM:SS
	Sensors             []SensorDefinition `yaml:"sensors"`
}

// SensorDefinition describes one sensor contributing evidence to an area
type SensorDefinition struct {
	EntityID       string   `yaml:"entity_id"`
	Type           string   `yaml:"type"`
	DeviceClass    string   `yaml:"device_class"`
	Weight         float64  `yaml:"weight"`
	ProbGivenTrue  float64  `yaml:"prob_given_true"`
	ProbGivenFalse float64  `yaml:"prob_given_false"`
	ActiveStates   []string `yaml:"active_states"`
	HalfLife       float64  `yaml:"half_life"` // seconds, 0 = purpose default
}

// DefaultThreshold is applied to areas that do not configure one
const DefaultThreshold = 0.5

// LoadAreas reads and validates the YAML area definition file
func LoadAreas(path string) (*AreasFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read areas file %s: %w", path, err)
	}

	var file AreasFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse areas file %s: %w", path, err)
	}

	if len(file.Areas) == 0 {
		return nil, fmt.Errorf("areas file %s defines no areas", path)
	}

	seen := make(map[string]bool)
	for i := range file.Areas {
		area := &file.Areas[i]
		if area.Name == "" {
			return nil, fmt.Errorf("area %d has no name", i)
		}
		if seen[area.Name] {
			return nil, fmt.Errorf("duplicate area name: %s", area.Name)
		}
		seen[area.Name] = true

		if area.Threshold <= 0 || area.Threshold >= 1 {
			area.Threshold = DefaultThreshold
		}

		for j := range area.Sensors {
			sensor := &area.Sensors[j]
			if sensor.EntityID == "" {
				return nil, fmt.Errorf("area %s: sensor %d has no entity_id", area.Name, j)
			}
			if sensor.Type == "" {
				return nil, fmt.Errorf("area %s: sensor %s has no type", area.Name, sensor.EntityID)
			}
			if sensor.Weight < 0 {
				return nil, fmt.Errorf("area %s: sensor %s has negative weight", area.Name, sensor.EntityID)
			}
		}
	}

	return &file, nil
}
