package inference

import (
	"context"
	"testing"
	"time"
)

func TestAllAreasExcludes(t *testing.T) {
	living := testArea("living", PurposeSocial, nil)
	storage := testArea("storage", PurposeUtility, nil)
	storage.ExcludeFromAllAreas = true

	// Exclusion is set at construction time
	all := NewAllAreas([]*Area{living, storage})
	if len(all.Areas()) != 1 || all.Areas()[0].Name != "living" {
		t.Errorf("aggregate members = %v, want only living", len(all.Areas()))
	}
}

func TestAllAreasOccupiedWhenAnyMemberIs(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 9, 14, 0, 0, 0, time.UTC)

	motion := testEntity("motion.living", InputMotion, 0.85)
	living := testArea("living", PurposeSocial, []*Entity{motion})
	kitchen := testArea("kitchen", PurposeFoodPrep, nil)

	all := NewAllAreas([]*Area{living, kitchen})

	if all.Occupied(ctx, now) {
		t.Error("home should be unoccupied with no evidence")
	}

	living.ApplyEvidence("motion.living", EvidenceActive, nil, now)
	if !all.Occupied(ctx, now) {
		t.Error("home should be occupied when any area is")
	}

	// Averaging: the home probability sits between the two areas
	got := all.Probability(ctx, now)
	if got >= living.Probability(ctx, now) || got <= kitchen.Probability(ctx, now) {
		t.Errorf("home probability %v should lie between %v and %v",
			got, kitchen.Probability(ctx, now), living.Probability(ctx, now))
	}
}

func TestAllAreasEmpty(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	all := NewAllAreas(nil)
	if got := all.Probability(ctx, now); got != MinProbability {
		t.Errorf("empty aggregate probability = %v, want %v", got, MinProbability)
	}
	if all.Occupied(ctx, now) {
		t.Error("empty aggregate should not be occupied")
	}
	if got := all.DecayFactor(now); got != 1.0 {
		t.Errorf("empty aggregate decay = %v, want 1.0", got)
	}
}

func TestFloorAreasGrouping(t *testing.T) {
	upstairs1 := testArea("bedroom", PurposeSleeping, nil)
	upstairs1.FloorID = "floor_1"
	upstairs1.FloorName = "Upstairs"
	upstairs2 := testArea("office", PurposeWorking, nil)
	upstairs2.FloorID = "floor_1"
	downstairs := testArea("living", PurposeSocial, nil)
	downstairs.FloorID = "floor_0"
	downstairs.FloorName = "Downstairs"
	unassigned := testArea("garage", PurposeUtility, nil)

	floors := NewFloorAreas([]*Area{upstairs1, upstairs2, downstairs, unassigned})

	if len(floors) != 2 {
		t.Fatalf("floors = %d, want 2", len(floors))
	}
	if floors[0].FloorID != "floor_1" || len(floors[0].Areas()) != 2 {
		t.Errorf("first floor = %s with %d areas, want floor_1 with 2",
			floors[0].FloorID, len(floors[0].Areas()))
	}
	if floors[1].FloorID != "floor_0" || len(floors[1].Areas()) != 1 {
		t.Errorf("second floor = %s with %d areas, want floor_0 with 1",
			floors[1].FloorID, len(floors[1].Areas()))
	}
}

func TestFloorAreasOccupancy(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 9, 14, 0, 0, 0, time.UTC)

	motion := testEntity("motion.bedroom", InputMotion, 0.85)
	bedroom := testArea("bedroom", PurposeSleeping, []*Entity{motion})
	bedroom.FloorID = "floor_1"
	living := testArea("living", PurposeSocial, nil)
	living.FloorID = "floor_0"

	floors := NewFloorAreas([]*Area{bedroom, living})
	bedroom.ApplyEvidence("motion.bedroom", EvidenceActive, nil, now)

	var upstairs, downstairs *FloorAreas
	for _, f := range floors {
		switch f.FloorID {
		case "floor_1":
			upstairs = f
		case "floor_0":
			downstairs = f
		}
	}

	if !upstairs.Occupied(ctx, now) {
		t.Error("floor with active motion should be occupied")
	}
	if downstairs.Occupied(ctx, now) {
		t.Error("floor without evidence should be unoccupied")
	}
}
