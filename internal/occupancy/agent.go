package occupancy

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/saaga0h/presence-platform/internal/inference"
	"github.com/saaga0h/presence-platform/pkg/config"
	"github.com/saaga0h/presence-platform/pkg/mqtt"
	"github.com/saaga0h/presence-platform/pkg/postgres"
	"github.com/saaga0h/presence-platform/pkg/redis"
)

// learnedRefreshInterval is how often cached learned statistics are
// invalidated and reloaded from Postgres
const learnedRefreshInterval = time.Hour

// AllAreasName is the pseudo-area the whole-home aggregate publishes under
const AllAreasName = "all_areas"

// Agent consumes raw sensor evidence, runs occupancy inference per area, and
// publishes probability snapshots and detected activities
type Agent struct {
	mqtt     mqtt.Client
	redis    redis.Client
	postgres postgres.Client
	store    *Store
	history  *HistoryStore
	cfg      *config.Config
	logger   *slog.Logger
	runID    string

	mu           sync.Mutex
	areas        []*inference.Area
	byName       map[string]*inference.Area
	entityArea   map[string]*inference.Area
	activeStates map[string][]string
	all          *inference.AllAreas
	floors       []*inference.FloorAreas
}

// NewAgent creates a new occupancy agent with the given dependencies
func NewAgent(mqttClient mqtt.Client, redisClient redis.Client, pgClient postgres.Client, cfg *config.Config, logger *slog.Logger) *Agent {
	retention := time.Duration(cfg.SnapshotRetentionHrs * float64(time.Hour))
	return &Agent{
		mqtt:     mqttClient,
		redis:    redisClient,
		postgres: pgClient,
		store:    NewStore(redisClient, retention, logger),
		history:  NewHistoryStore(pgClient, logger),
		cfg:      cfg,
		logger:   logger,
		runID:    uuid.NewString(),
	}
}

// Start starts the occupancy agent: connects to its backends, builds the
// area models, subscribes to raw evidence, and runs the decay tick loop
// until the context is cancelled
func (a *Agent) Start(ctx context.Context) error {
	a.logger.Info("Starting occupancy agent",
		"service_name", a.cfg.ServiceName,
		"mqtt_broker", a.cfg.MQTTAddress(),
		"areas_file", a.cfg.AreasFile,
		"run_id", a.runID)

	if err := a.mqtt.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to MQTT: %w", err)
	}
	if err := a.redis.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	if err := a.postgres.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	if err := a.buildAreas(ctx); err != nil {
		return err
	}
	a.refreshLearned(ctx)

	if err := a.mqtt.Subscribe(mqtt.TopicRawSensors, 1, a.handleEvidence); err != nil {
		return fmt.Errorf("failed to subscribe to raw sensors: %w", err)
	}

	a.logger.Info("Occupancy agent started",
		"areas", len(a.areas),
		"tick_interval_sec", a.cfg.TickIntervalSec)

	a.run(ctx)

	a.logger.Info("Occupancy agent stopping")
	return nil
}

// Stop gracefully stops the occupancy agent
func (a *Agent) Stop() error {
	a.logger.Info("Stopping occupancy agent")

	a.mqtt.Disconnect()

	if err := a.redis.Close(); err != nil {
		a.logger.Error("Error closing Redis connection", "error", err)
		return err
	}
	if err := a.postgres.Disconnect(); err != nil {
		a.logger.Error("Error closing Postgres connection", "error", err)
		return err
	}

	a.logger.Info("Occupancy agent stopped")
	return nil
}

// buildAreas loads the area definitions and constructs the inference models
func (a *Agent) buildAreas(ctx context.Context) error {
	file, err := config.LoadAreas(a.cfg.AreasFile)
	if err != nil {
		return fmt.Errorf("failed to load areas: %w", err)
	}

	solarWindow := SolarSleepWindow(a.cfg.Latitude, a.cfg.Longitude, time.Now(), a.logger)

	areas, err := BuildAreas(file, a.history, solarWindow, a.logger)
	if err != nil {
		return err
	}

	byName := make(map[string]*inference.Area, len(areas))
	entityArea := make(map[string]*inference.Area)
	activeStates := make(map[string][]string)

	for i, area := range areas {
		byName[area.Name] = area
		for _, entity := range area.Entities {
			entityArea[entity.ID] = area
		}
		for _, sensor := range file.Areas[i].Sensors {
			if len(sensor.ActiveStates) > 0 {
				activeStates[sensor.EntityID] = sensor.ActiveStates
			}
		}
	}

	a.mu.Lock()
	a.areas = areas
	a.byName = byName
	a.entityArea = entityArea
	a.activeStates = activeStates
	a.all = inference.NewAllAreas(areas)
	a.floors = inference.NewFloorAreas(areas)
	a.mu.Unlock()

	return nil
}

// refreshLearned loads learned statistics from Postgres into the area models
// and invalidates the derived caches
func (a *Agent) refreshLearned(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, area := range a.areas {
		if params, err := a.history.GaussianParams(ctx, area.Name); err != nil {
			a.logger.Warn("Failed to load sensor distributions", "area", area.Name, "error", err)
		} else {
			for entityID, p := range params {
				if entity := area.Entity(entityID); entity != nil {
					entity.SetGaussianParams(p)
				}
			}
		}

		if correlations, err := a.history.Correlations(ctx, area.Name); err != nil {
			a.logger.Warn("Failed to load sensor correlations", "area", area.Name, "error", err)
		} else if len(correlations) > 0 {
			area.SetCorrelations(correlations)
		}

		if weights, err := a.history.EffectiveWeights(ctx, area.Name); err != nil {
			a.logger.Warn("Failed to load sensor weights", "area", area.Name, "error", err)
		} else {
			for entityID, weight := range weights {
				if entity := area.Entity(entityID); entity != nil {
					entity.SetEffectiveWeight(weight)
				}
			}
		}

		area.Prior().Invalidate()
		area.InvalidateActivityCache()
	}
}

// run is the agent's main loop: decay ticks, periodic publishes, and
// learned-statistics refreshes
func (a *Agent) run(ctx context.Context) {
	ticker := time.NewTicker(time.Duration(a.cfg.TickIntervalSec) * time.Second)
	defer ticker.Stop()

	refresh := time.NewTicker(learnedRefreshInterval)
	defer refresh.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			a.tick(ctx, now)
		case <-refresh.C:
			a.refreshLearned(ctx)
		}
	}
}

// tick advances decay for every area and publishes fresh snapshots
func (a *Agent) tick(ctx context.Context, now time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, area := range a.areas {
		area.TickDecay(now)
		a.publishArea(ctx, area, now)
	}
	a.publishAggregates(ctx, now)
}

// handleEvidence processes one raw sensor message
func (a *Agent) handleEvidence(msg mqtt.Message) {
	defer msg.Ack()

	ctx := context.Background()
	now := time.Now()

	_, areaName, err := ParseEvidenceTopic(msg.Topic())
	if err != nil {
		a.logger.Warn("Ignoring malformed raw sensor topic", "topic", msg.Topic(), "error", err)
		return
	}

	evidence, err := ParseEvidencePayload(msg.Payload())
	if err != nil {
		a.logger.Warn("Ignoring malformed evidence payload",
			"topic", msg.Topic(), "error", err)
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	area, ok := a.byName[areaName]
	if !ok {
		// Sensors can also be routed by entity ID when the topic area
		// doesn't match a configured area
		area, ok = a.entityArea[evidence.EntityID]
		if !ok {
			a.logger.Debug("Evidence for unknown area", "area", areaName, "entity", evidence.EntityID)
			return
		}
	}

	state := MapState(evidence.State, a.activeStates[evidence.EntityID])
	at := evidence.Time(now)

	if !area.ApplyEvidence(evidence.EntityID, state, evidence.Value, at) {
		a.logger.Debug("Evidence for unknown entity",
			"area", area.Name, "entity", evidence.EntityID)
		return
	}

	a.logger.Debug("Applied evidence",
		"area", area.Name,
		"entity", evidence.EntityID,
		"state", evidence.State)

	a.publishArea(ctx, area, now)
	a.publishAggregates(ctx, now)
}

// publishArea publishes the occupancy snapshot and detected activity for one
// area and persists the snapshot. Caller holds the lock.
func (a *Agent) publishArea(ctx context.Context, area *inference.Area, now time.Time) {
	probability := area.Probability(ctx, now)
	detection := area.DetectedActivity(ctx, now)

	snapshot := &Snapshot{
		Area:        area.Name,
		Probability: probability,
		Occupied:    probability >= area.Threshold(),
		Threshold:   area.Threshold(),
		DecayFactor: area.DecayFactor(now),
		Activity:    detection.Activity,
		Confidence:  detection.Confidence,
		RunID:       a.runID,
		Timestamp:   now.UTC(),
	}

	a.publishSnapshot(mqtt.OccupancyTopic(area.Name), snapshot)

	activityPayload, err := json.Marshal(map[string]interface{}{
		"area":       area.Name,
		"activity":   detection.Activity,
		"confidence": detection.Confidence,
		"evidence":   detection.Evidence,
		"run_id":     a.runID,
		"timestamp":  now.UTC().Format(time.RFC3339Nano),
	})
	if err == nil {
		if err := a.mqtt.Publish(mqtt.ActivityTopic(area.Name), 1, true, activityPayload); err != nil {
			a.logger.Error("Failed to publish activity", "area", area.Name, "error", err)
		}
	}

	if err := a.store.SaveSnapshot(ctx, snapshot); err != nil {
		a.logger.Error("Failed to persist snapshot", "area", area.Name, "error", err)
	}
}

// publishAggregates publishes the whole-home and per-floor views. Caller
// holds the lock.
func (a *Agent) publishAggregates(ctx context.Context, now time.Time) {
	probability := a.all.Probability(ctx, now)
	snapshot := &Snapshot{
		Area:        AllAreasName,
		Probability: probability,
		Occupied:    a.all.Occupied(ctx, now),
		Threshold:   inference.DefaultThreshold,
		DecayFactor: a.all.DecayFactor(now),
		Activity:    inference.ActivityIdle,
		RunID:       a.runID,
		Timestamp:   now.UTC(),
	}
	a.publishSnapshot(mqtt.OccupancyTopic(AllAreasName), snapshot)
	if err := a.store.SaveSnapshot(ctx, snapshot); err != nil {
		a.logger.Error("Failed to persist aggregate snapshot", "error", err)
	}

	for _, floor := range a.floors {
		name := fmt.Sprintf("floor:%s", floor.FloorID)
		floorSnapshot := &Snapshot{
			Area:        name,
			Probability: floor.Probability(ctx, now),
			Occupied:    floor.Occupied(ctx, now),
			Threshold:   inference.DefaultThreshold,
			DecayFactor: floor.DecayFactor(now),
			Activity:    inference.ActivityIdle,
			RunID:       a.runID,
			Timestamp:   now.UTC(),
		}
		a.publishSnapshot(mqtt.OccupancyTopic(name), floorSnapshot)
		if err := a.store.SaveSnapshot(ctx, floorSnapshot); err != nil {
			a.logger.Error("Failed to persist floor snapshot", "floor", floor.FloorID, "error", err)
		}
	}
}

func (a *Agent) publishSnapshot(topic string, snapshot *Snapshot) {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		a.logger.Error("Failed to marshal snapshot", "area", snapshot.Area, "error", err)
		return
	}
	if err := a.mqtt.Publish(topic, 1, true, payload); err != nil {
		a.logger.Error("Failed to publish snapshot", "area", snapshot.Area, "error", err)
	}
}
