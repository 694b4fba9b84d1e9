package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeAreasFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "areas.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadAreas(t *testing.T) {
	path := writeAreasFile(t, `
areas:
  - name: living_room
    purpose: social
    threshold: 0.6
    floor_id: floor_0
    floor_name: Ground floor
    sensors:
      - entity_id: motion.living
        type: motion
        weight: 0.85
      - entity_id: media.tv
        type: media
        device_class: tv
        active_states: ["playing", "paused"]
  - name: bedroom
    purpose: sleeping
    sleep_start: "22:00:00"
    sleep_end: "08:00:00"
    exclude_from_all_areas: true
    sensors:
      - entity_id: motion.bedroom
        type: motion
        half_life: 180
`)

	file, err := LoadAreas(path)
	require.NoError(t, err)
	require.Len(t, file.Areas, 2)

	living := file.Areas[0]
	assert.Equal(t, "living_room", living.Name)
	assert.Equal(t, "social", living.Purpose)
	assert.Equal(t, 0.6, living.Threshold)
	assert.Equal(t, "floor_0", living.FloorID)
	require.Len(t, living.Sensors, 2)
	assert.Equal(t, []string{"playing", "paused"}, living.Sensors[1].ActiveStates)

	bedroom := file.Areas[1]
	assert.True(t, bedroom.ExcludeFromAllAreas)
	assert.Equal(t, "22:00:00", bedroom.SleepStart)
	assert.Equal(t, 180.0, bedroom.Sensors[0].HalfLife)
}

func TestLoadAreasDefaultsThreshold(t *testing.T) {
	path := writeAreasFile(t, `
areas:
  - name: hallway
    purpose: passageway
    sensors:
      - entity_id: motion.hall
        type: motion
`)

	file, err := LoadAreas(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultThreshold, file.Areas[0].Threshold)
}

func TestLoadAreasValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing file",
			content: "",
			wantErr: "",
		},
		{
			name: "no areas",
			content: `
areas: []
`,
			wantErr: "defines no areas",
		},
		{
			name: "duplicate names",
			content: `
areas:
  - name: living
    sensors:
      - entity_id: motion.a
        type: motion
  - name: living
    sensors:
      - entity_id: motion.b
        type: motion
`,
			wantErr: "duplicate area name",
		},
		{
			name: "sensor without entity_id",
			content: `
areas:
  - name: living
    sensors:
      - type: motion
`,
			wantErr: "has no entity_id",
		},
		{
			name: "sensor without type",
			content: `
areas:
  - name: living
    sensors:
      - entity_id: motion.a
`,
			wantErr: "has no type",
		},
		{
			name: "negative weight",
			content: `
areas:
  - name: living
    sensors:
      - entity_id: motion.a
        type: motion
        weight: -1
`,
			wantErr: "negative weight",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var path string
			if tt.content == "" {
				path = filepath.Join(t.TempDir(), "missing.yaml")
			} else {
				path = writeAreasFile(t, tt.content)
			}

			_, err := LoadAreas(path)
			require.Error(t, err)
			if tt.wantErr != "" {
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
