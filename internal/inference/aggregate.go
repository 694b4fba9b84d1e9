package inference

import (
	"context"
	"time"
)

// AllAreas aggregates every non-excluded area into a whole-home view
type AllAreas struct {
	areas []*Area
}

// NewAllAreas builds the whole-home aggregate, skipping areas marked as
// excluded
func NewAllAreas(areas []*Area) *AllAreas {
	members := make([]*Area, 0, len(areas))
	for _, area := range areas {
		if area.ExcludeFromAllAreas {
			continue
		}
		members = append(members, area)
	}
	return &AllAreas{areas: members}
}

// Areas returns the member areas
func (a *AllAreas) Areas() []*Area {
	return a.areas
}

// Probability is the clamped mean of the member probabilities
func (a *AllAreas) Probability(ctx context.Context, now time.Time) float64 {
	if len(a.areas) == 0 {
		return MinProbability
	}
	return ClampProbability(avgOver(a.areas, func(area *Area) float64 {
		return area.Probability(ctx, now)
	}))
}

// Occupied reports whether any member area is occupied
func (a *AllAreas) Occupied(ctx context.Context, now time.Time) bool {
	for _, area := range a.areas {
		if area.Occupied(ctx, now) {
			return true
		}
	}
	return false
}

// DecayFactor is the mean of the member areas' decay factors. An empty
// aggregate has nothing decaying and reports full freshness.
func (a *AllAreas) DecayFactor(now time.Time) float64 {
	if len(a.areas) == 0 {
		return 1.0
	}
	return avgOver(a.areas, func(area *Area) float64 {
		return area.DecayFactor(now)
	})
}

// FloorAreas aggregates the areas of one floor
type FloorAreas struct {
	FloorID   string
	FloorName string
	areas     []*Area
}

// NewFloorAreas groups areas by floor ID. Areas without a floor are skipped.
func NewFloorAreas(areas []*Area) []*FloorAreas {
	byFloor := make(map[string]*FloorAreas)
	var order []string

	for _, area := range areas {
		if area.FloorID == "" {
			continue
		}
		floor, ok := byFloor[area.FloorID]
		if !ok {
			floor = &FloorAreas{FloorID: area.FloorID, FloorName: area.FloorName}
			byFloor[area.FloorID] = floor
			order = append(order, area.FloorID)
		}
		floor.areas = append(floor.areas, area)
	}

	floors := make([]*FloorAreas, 0, len(order))
	for _, id := range order {
		floors = append(floors, byFloor[id])
	}
	return floors
}

// Areas returns the floor's member areas
func (f *FloorAreas) Areas() []*Area {
	return f.areas
}

// Probability is the clamped mean of the floor's area probabilities
func (f *FloorAreas) Probability(ctx context.Context, now time.Time) float64 {
	if len(f.areas) == 0 {
		return MinProbability
	}
	return ClampProbability(avgOver(f.areas, func(area *Area) float64 {
		return area.Probability(ctx, now)
	}))
}

// Occupied reports whether any area on the floor is occupied
func (f *FloorAreas) Occupied(ctx context.Context, now time.Time) bool {
	for _, area := range f.areas {
		if area.Occupied(ctx, now) {
			return true
		}
	}
	return false
}

// DecayFactor is the mean of the floor's area decay factors
func (f *FloorAreas) DecayFactor(now time.Time) float64 {
	if len(f.areas) == 0 {
		return 1.0
	}
	return avgOver(f.areas, func(area *Area) float64 {
		return area.DecayFactor(now)
	})
}

func avgOver(areas []*Area, f func(*Area) float64) float64 {
	if len(areas) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, area := range areas {
		sum += f(area)
	}
	return sum / float64(len(areas))
}
