package redis

import "fmt"

// Key construction helpers for occupancy state

// OccupancyStateKey returns the key for the latest occupancy snapshot (hash)
// Pattern: occupancy:{area}
func OccupancyStateKey(area string) string {
	return fmt.Sprintf("occupancy:%s", area)
}

// OccupancyHistoryKey returns the key for probability history (sorted set by unix milliseconds)
// Pattern: occupancy:history:{area}
func OccupancyHistoryKey(area string) string {
	return fmt.Sprintf("occupancy:history:%s", area)
}
