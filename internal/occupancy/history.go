package occupancy

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/saaga0h/presence-platform/internal/inference"
	"github.com/saaga0h/presence-platform/pkg/postgres"
)

// HistoryStore reads learned occupancy statistics from Postgres. The learning
// pipeline writes these tables offline; the agent only queries them.
type HistoryStore struct {
	postgres postgres.Client
	logger   *slog.Logger
}

// NewHistoryStore creates a history store backed by the given Postgres client
func NewHistoryStore(pgClient postgres.Client, logger *slog.Logger) *HistoryStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &HistoryStore{
		postgres: pgClient,
		logger:   logger,
	}
}

// GlobalPrior returns the learned overall occupancy ratio for an area.
// An area the learning pipeline has never processed reports not-learned.
func (h *HistoryStore) GlobalPrior(ctx context.Context, area string) (float64, bool, error) {
	var prior float64
	err := h.postgres.QueryRow(ctx,
		`SELECT prior FROM area_priors WHERE area = $1`, area).Scan(&prior)
	if err == sql.ErrNoRows {
		h.logger.Debug("No learned prior for area", "area", area)
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to query global prior for %s: %w", area, err)
	}
	return prior, true, nil
}

// TimePriors returns the learned weekly time-of-day priors for an area,
// keyed by Monday-based day and hourly slot
func (h *HistoryStore) TimePriors(ctx context.Context, area string) (map[inference.SlotKey]float64, error) {
	rows, err := h.postgres.Query(ctx,
		`SELECT day_of_week, time_slot, prior
		 FROM area_time_priors
		 WHERE area = $1`, area)
	if err != nil {
		return nil, fmt.Errorf("failed to query time priors for %s: %w", area, err)
	}
	defer rows.Close()

	priors := make(map[inference.SlotKey]float64)
	for rows.Next() {
		var day, slot int
		var prior float64
		if err := rows.Scan(&day, &slot, &prior); err != nil {
			return nil, fmt.Errorf("failed to scan time prior row: %w", err)
		}
		if day < 0 || day > 6 || slot < 0 || slot >= inference.SlotsPerDay {
			h.logger.Warn("Ignoring out-of-range time prior slot",
				"area", area, "day", day, "slot", slot)
			continue
		}
		priors[inference.SlotKey{Day: day, Slot: slot}] = prior
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate time prior rows: %w", err)
	}

	return priors, nil
}

// GaussianParams returns the learned occupied/unoccupied distributions for
// an area's numeric sensors, keyed by entity ID
func (h *HistoryStore) GaussianParams(ctx context.Context, area string) (map[string]inference.GaussianParams, error) {
	rows, err := h.postgres.Query(ctx,
		`SELECT entity_id, mean_occupied, std_occupied, mean_unoccupied, std_unoccupied
		 FROM sensor_distributions
		 WHERE area = $1`, area)
	if err != nil {
		return nil, fmt.Errorf("failed to query sensor distributions for %s: %w", area, err)
	}
	defer rows.Close()

	params := make(map[string]inference.GaussianParams)
	for rows.Next() {
		var entityID string
		var p inference.GaussianParams
		if err := rows.Scan(&entityID, &p.MeanOccupied, &p.StdOccupied,
			&p.MeanUnoccupied, &p.StdUnoccupied); err != nil {
			return nil, fmt.Errorf("failed to scan sensor distribution row: %w", err)
		}
		params[entityID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sensor distribution rows: %w", err)
	}

	return params, nil
}

// Correlations returns learned inter-sensor correlation discounts for an
// area, keyed by entity ID. A discount below 1.0 means the sensor largely
// repeats what another sensor already said.
func (h *HistoryStore) Correlations(ctx context.Context, area string) (map[string]float64, error) {
	rows, err := h.postgres.Query(ctx,
		`SELECT entity_id, correlation_factor
		 FROM sensor_correlations
		 WHERE area = $1`, area)
	if err != nil {
		return nil, fmt.Errorf("failed to query sensor correlations for %s: %w", area, err)
	}
	defer rows.Close()

	correlations := make(map[string]float64)
	for rows.Next() {
		var entityID string
		var factor float64
		if err := rows.Scan(&entityID, &factor); err != nil {
			return nil, fmt.Errorf("failed to scan sensor correlation row: %w", err)
		}
		if factor < 0 {
			factor = 0
		}
		if factor > 1 {
			factor = 1
		}
		correlations[entityID] = factor
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sensor correlation rows: %w", err)
	}

	return correlations, nil
}

// EffectiveWeights returns learned information-gain weights for an area's
// sensors, keyed by entity ID. Sensors without learned weights keep their
// configured weight.
func (h *HistoryStore) EffectiveWeights(ctx context.Context, area string) (map[string]float64, error) {
	rows, err := h.postgres.Query(ctx,
		`SELECT entity_id, effective_weight
		 FROM sensor_weights
		 WHERE area = $1`, area)
	if err != nil {
		return nil, fmt.Errorf("failed to query sensor weights for %s: %w", area, err)
	}
	defer rows.Close()

	weights := make(map[string]float64)
	for rows.Next() {
		var entityID string
		var weight float64
		if err := rows.Scan(&entityID, &weight); err != nil {
			return nil, fmt.Errorf("failed to scan sensor weight row: %w", err)
		}
		weights[entityID] = weight
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sensor weight rows: %w", err)
	}

	return weights, nil
}
