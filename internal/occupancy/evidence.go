package occupancy

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/saaga0h/presence-platform/internal/inference"
)

// RawEvidence is the payload published on automation/raw/{sensor_type}/{area}
type RawEvidence struct {
	EntityID  string   `json:"entity_id"`
	State     string   `json:"state"`
	Value     *float64 `json:"value,omitempty"`
	Timestamp string   `json:"timestamp,omitempty"`
}

// ParseEvidenceTopic splits a raw sensor topic into its sensor type and area
// segments. Pattern: automation/raw/{sensor_type}/{area}
func ParseEvidenceTopic(topic string) (sensorType, area string, err error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 || parts[0] != "automation" || parts[1] != "raw" {
		return "", "", fmt.Errorf("unexpected raw sensor topic: %s", topic)
	}
	if parts[2] == "" || parts[3] == "" {
		return "", "", fmt.Errorf("empty segment in raw sensor topic: %s", topic)
	}
	return parts[2], parts[3], nil
}

// ParseEvidencePayload decodes a raw sensor payload
func ParseEvidencePayload(payload []byte) (*RawEvidence, error) {
	var evidence RawEvidence
	if err := json.Unmarshal(payload, &evidence); err != nil {
		return nil, fmt.Errorf("failed to parse evidence payload: %w", err)
	}
	if evidence.EntityID == "" {
		return nil, fmt.Errorf("evidence payload has no entity_id")
	}
	return &evidence, nil
}

// Time returns the evidence timestamp, falling back to the provided default
// when absent or unparseable
func (e *RawEvidence) Time(fallback time.Time) time.Time {
	if e.Timestamp == "" {
		return fallback
	}
	t, err := time.Parse(time.RFC3339, e.Timestamp)
	if err != nil {
		return fallback
	}
	return t
}

// unavailableStates are readings that mean the sensor cannot report
var unavailableStates = map[string]bool{
	"unavailable": true,
	"unknown":     true,
	"none":        true,
	"":            true,
}

// defaultActiveStates map a state string to "evidence of presence" when an
// area's sensor does not configure its own active states
var defaultActiveStates = map[string]bool{
	"on":       true,
	"open":     true,
	"detected": true,
	"playing":  true,
	"running":  true,
	"home":     true,
	"true":     true,
	"active":   true,
	"asleep":   true,
}

// MapState converts a raw state string to the tri-state evidence reading.
// activeStates, when non-empty, overrides the default active set.
func MapState(state string, activeStates []string) inference.EvidenceState {
	normalized := strings.ToLower(strings.TrimSpace(state))

	if unavailableStates[normalized] {
		return inference.EvidenceUnavailable
	}

	if len(activeStates) > 0 {
		for _, s := range activeStates {
			if normalized == strings.ToLower(s) {
				return inference.EvidenceActive
			}
		}
		return inference.EvidenceInactive
	}

	if defaultActiveStates[normalized] {
		return inference.EvidenceActive
	}
	return inference.EvidenceInactive
}
