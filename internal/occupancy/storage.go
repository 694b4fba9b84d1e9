package occupancy

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/saaga0h/presence-platform/internal/inference"
	"github.com/saaga0h/presence-platform/pkg/redis"
)

// Snapshot is the published occupancy state of one area at a point in time
type Snapshot struct {
	Area        string                 `json:"area"`
	Probability float64                `json:"probability"`
	Occupied    bool                   `json:"occupied"`
	Threshold   float64                `json:"threshold"`
	DecayFactor float64                `json:"decay_factor"`
	Activity    inference.ActivityType `json:"activity"`
	Confidence  float64                `json:"confidence"`
	RunID       string                 `json:"run_id"`
	Timestamp   time.Time              `json:"timestamp"`
}

// historyPoint is the compact form kept in the probability history
type historyPoint struct {
	Probability float64 `json:"p"`
	Occupied    bool    `json:"o"`
	Timestamp   int64   `json:"ts"`
}

// Store persists occupancy snapshots and probability history in Redis
type Store struct {
	redis     redis.Client
	retention time.Duration
	logger    *slog.Logger
}

// NewStore creates a snapshot store. retention bounds how far back the
// probability history reaches.
func NewStore(redisClient redis.Client, retention time.Duration, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		redis:     redisClient,
		retention: retention,
		logger:    logger,
	}
}

// SaveSnapshot writes the latest snapshot hash and appends a history point,
// trimming history older than the retention window
func (s *Store) SaveSnapshot(ctx context.Context, snapshot *Snapshot) error {
	stateKey := redis.OccupancyStateKey(snapshot.Area)

	fields := map[string]string{
		"probability":  fmt.Sprintf("%.6f", snapshot.Probability),
		"occupied":     fmt.Sprintf("%t", snapshot.Occupied),
		"threshold":    fmt.Sprintf("%.4f", snapshot.Threshold),
		"decay_factor": fmt.Sprintf("%.6f", snapshot.DecayFactor),
		"activity":     string(snapshot.Activity),
		"confidence":   fmt.Sprintf("%.4f", snapshot.Confidence),
		"run_id":       snapshot.RunID,
		"timestamp":    snapshot.Timestamp.UTC().Format(time.RFC3339Nano),
	}
	for field, value := range fields {
		if err := s.redis.HSet(ctx, stateKey, field, value); err != nil {
			return fmt.Errorf("failed to write snapshot field %s for %s: %w",
				field, snapshot.Area, err)
		}
	}

	if err := s.redis.Expire(ctx, stateKey, s.retention); err != nil {
		s.logger.Warn("Failed to set snapshot TTL", "area", snapshot.Area, "error", err)
	}

	return s.appendHistory(ctx, snapshot)
}

func (s *Store) appendHistory(ctx context.Context, snapshot *Snapshot) error {
	historyKey := redis.OccupancyHistoryKey(snapshot.Area)
	ts := snapshot.Timestamp.UnixMilli()

	point, err := json.Marshal(historyPoint{
		Probability: snapshot.Probability,
		Occupied:    snapshot.Occupied,
		Timestamp:   ts,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal history point: %w", err)
	}

	if err := s.redis.ZAdd(ctx, historyKey, float64(ts), string(point)); err != nil {
		return fmt.Errorf("failed to append history for %s: %w", snapshot.Area, err)
	}

	cutoff := snapshot.Timestamp.Add(-s.retention).UnixMilli()
	if err := s.redis.ZRemRangeByScore(ctx, historyKey, "-inf", fmt.Sprintf("%d", cutoff)); err != nil {
		s.logger.Warn("Failed to trim history", "area", snapshot.Area, "error", err)
	}

	if err := s.redis.Expire(ctx, historyKey, s.retention); err != nil {
		s.logger.Warn("Failed to set history TTL", "area", snapshot.Area, "error", err)
	}

	return nil
}

// History returns the probability history for an area between two times,
// oldest first
func (s *Store) History(ctx context.Context, area string, from, to time.Time) ([]Snapshot, error) {
	historyKey := redis.OccupancyHistoryKey(area)

	members, err := s.redis.ZRangeByScoreWithScores(ctx, historyKey,
		float64(from.UnixMilli()), float64(to.UnixMilli()))
	if err != nil {
		return nil, fmt.Errorf("failed to read history for %s: %w", area, err)
	}

	snapshots := make([]Snapshot, 0, len(members))
	for _, member := range members {
		var point historyPoint
		if err := json.Unmarshal([]byte(member.Member), &point); err != nil {
			s.logger.Warn("Skipping unreadable history point", "area", area, "error", err)
			continue
		}
		snapshots = append(snapshots, Snapshot{
			Area:        area,
			Probability: point.Probability,
			Occupied:    point.Occupied,
			Timestamp:   time.UnixMilli(point.Timestamp).UTC(),
		})
	}

	return snapshots, nil
}
