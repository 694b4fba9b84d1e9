package mqtt

import "fmt"

// Topic constants for the occupancy pipeline
const (
	// Raw sensor evidence topics (input)
	TopicRawSensors = "automation/raw/+/+"
	TopicRawMotion  = "automation/raw/motion/+"

	// Occupancy output topics
	TopicOccupancyBase = "automation/occupancy"
	TopicActivityBase  = "automation/activity"
)

// RawSensorTopic constructs a raw sensor topic for a specific sensor type and area
// Pattern: automation/raw/{sensor_type}/{area}
func RawSensorTopic(sensorType, area string) string {
	return fmt.Sprintf("automation/raw/%s/%s", sensorType, area)
}

// OccupancyTopic constructs the occupancy snapshot topic for an area
// Pattern: automation/occupancy/{area}
func OccupancyTopic(area string) string {
	return fmt.Sprintf("automation/occupancy/%s", area)
}

// ActivityTopic constructs the detected-activity topic for an area
// Pattern: automation/activity/{area}
func ActivityTopic(area string) string {
	return fmt.Sprintf("automation/activity/%s", area)
}
