package inference

import (
	"testing"
	"time"
)

func gaussianEntity(id string, inputType InputType, value float64, params GaussianParams) *Entity {
	decay := NewDecay(NewPurpose(PurposeBathroom), nil, nil)
	e := NewEntity(id, inputType, 0, 0, 1.0, decay)
	e.SetGaussianParams(params)
	v := value
	e.Value = &v
	e.State = EvidenceActive
	return e
}

func TestDetectActivityUnoccupiedFallback(t *testing.T) {
	got := DetectActivity(PurposeSocial, nil, 0.2, false, time.Now())

	if got.Activity != ActivityUnoccupied {
		t.Errorf("activity = %v, want %v", got.Activity, ActivityUnoccupied)
	}
	if got.Confidence != 0.8 {
		t.Errorf("confidence = %v, want 0.8", got.Confidence)
	}
	if got.Boost != 0 {
		t.Errorf("unoccupied fallback should carry no boost, got %v", got.Boost)
	}
}

func TestDetectActivityIdleFallback(t *testing.T) {
	now := time.Now()
	motion := testEntity("motion.hall", InputMotion, 1.0)
	motion.State = EvidenceInactive

	got := DetectActivity(PurposePassageway, []*Entity{motion}, 0.65, true, now)

	if got.Activity != ActivityIdle {
		t.Errorf("activity = %v, want %v", got.Activity, ActivityIdle)
	}
	if got.Confidence != 0.65 {
		t.Errorf("confidence = %v, want 0.65", got.Confidence)
	}
}

func TestDetectActivityShowering(t *testing.T) {
	now := time.Now()

	humidity := gaussianEntity("humidity.bath", InputHumidity, 75, GaussianParams{
		MeanOccupied: 75, StdOccupied: 8,
		MeanUnoccupied: 45, StdUnoccupied: 5,
	})
	motion := testEntity("motion.bath", InputMotion, 0.85)
	motion.State = EvidenceActive
	door := testEntity("door.bath", InputDoor, 0.3)
	door.State = EvidenceInactive

	got := DetectActivity(PurposeBathroom, []*Entity{humidity, motion, door}, 0.9, true, now)

	if got.Activity != ActivityShowering {
		t.Errorf("activity = %v, want %v", got.Activity, ActivityShowering)
	}
	// Humidity at the occupied mean (0.50) plus active motion (0.15); the
	// quiet door and absent temperature sensor score 0 but stay in the
	// total: matched 0.65 of 1.0
	if got.Confidence != 0.65 {
		t.Errorf("confidence = %v, want 0.65", got.Confidence)
	}
	if got.Boost != ActivityBoostHigh {
		t.Errorf("boost = %v, want %v", got.Boost, ActivityBoostHigh)
	}
	if len(got.Evidence) != 2 {
		t.Errorf("evidence = %v, want humidity and motion", got.Evidence)
	}
}

func TestDetectActivityPurposeFiltering(t *testing.T) {
	now := time.Now()

	// Strong cooking evidence, but the area is a bathroom
	stove := testEntity("appliance.stove", InputAppliance, 1.0)
	stove.State = EvidenceActive
	motion := testEntity("motion.x", InputMotion, 1.0)
	motion.State = EvidenceActive

	got := DetectActivity(PurposeBathroom, []*Entity{stove, motion}, 0.9, true, now)

	if got.Activity == ActivityCooking {
		t.Error("cooking should not be detected in a bathroom")
	}
}

func TestDetectActivityDeviceClassFilter(t *testing.T) {
	now := time.Now()

	tv := testEntity("media.tv", InputMedia, 1.0)
	tv.DeviceClass = "tv"
	tv.State = EvidenceActive
	motion := testEntity("motion.living", InputMotion, 1.0)
	motion.State = EvidenceActive

	got := DetectActivity(PurposeSocial, []*Entity{tv, motion}, 0.9, true, now)

	if got.Activity != ActivityWatchingTV {
		t.Errorf("activity = %v, want %v", got.Activity, ActivityWatchingTV)
	}
}

func TestDetectActivitySpeakerNotTV(t *testing.T) {
	now := time.Now()

	speaker := testEntity("media.speaker", InputMedia, 1.0)
	speaker.DeviceClass = "speaker"
	speaker.State = EvidenceActive
	motion := testEntity("motion.living", InputMotion, 1.0)
	motion.State = EvidenceActive

	got := DetectActivity(PurposeSocial, []*Entity{speaker, motion}, 0.9, true, now)

	if got.Activity != ActivityListeningToMusic {
		t.Errorf("activity = %v, want %v", got.Activity, ActivityListeningToMusic)
	}
}

func TestDetectActivityReceiverMatchesMedia(t *testing.T) {
	now := time.Now()

	receiver := testEntity("media.receiver", InputMedia, 1.0)
	receiver.DeviceClass = "receiver"
	receiver.State = EvidenceActive

	// A receiver satisfies the TV definition's device-class set; with no
	// other evidence it outscores the music definition (0.6 vs 0.5)
	got := DetectActivity(PurposeRelaxing, []*Entity{receiver}, 0.9, true, now)
	if got.Activity != ActivityWatchingTV {
		t.Errorf("activity = %v, want %v", got.Activity, ActivityWatchingTV)
	}
	if len(got.Evidence) != 1 || got.Evidence[0] != "media.receiver" {
		t.Errorf("evidence = %v, want the receiver", got.Evidence)
	}

	// Watching TV is also a bedroom activity
	bedroom := DetectActivity(PurposeSleeping, []*Entity{receiver}, 0.9, true, now)
	if bedroom.Activity != ActivityWatchingTV {
		t.Errorf("sleeping-purpose activity = %v, want %v", bedroom.Activity, ActivityWatchingTV)
	}
}

func TestDetectActivitySuppressedBaselineScoresZero(t *testing.T) {
	now := time.Now()

	tv := testEntity("media.tv", InputMedia, 1.0)
	tv.DeviceClass = "tv"
	tv.State = EvidenceActive

	lux := gaussianEntity("illuminance.living", InputIlluminance, 120, GaussianParams{
		MeanOccupied: 30, StdOccupied: 10,
		MeanUnoccupied: 120, StdUnoccupied: 20,
	})

	// Lux sitting exactly at the unoccupied baseline carries no suppressed
	// signal: only the TV matches (0.6 of 1.0)
	got := DetectActivity(PurposeSocial, []*Entity{tv, lux}, 0.9, true, now)
	if got.Activity != ActivityWatchingTV {
		t.Fatalf("activity = %v, want %v", got.Activity, ActivityWatchingTV)
	}
	if got.Confidence != 0.6 {
		t.Errorf("confidence = %v, want 0.6 without the baseline lux", got.Confidence)
	}
	for _, id := range got.Evidence {
		if id == "illuminance.living" {
			t.Error("baseline lux reading should not appear as evidence")
		}
	}

	// Fully dimmed room adds the whole illuminance weight
	dim := 30.0
	lux.Value = &dim
	dimmed := DetectActivity(PurposeSocial, []*Entity{tv, lux}, 0.9, true, now)
	if dimmed.Confidence != 0.75 {
		t.Errorf("confidence with dimmed room = %v, want 0.75", dimmed.Confidence)
	}
}

func TestDetectActivityIndiscriminateSensorIgnored(t *testing.T) {
	now := time.Now()

	// Occupied and unoccupied distributions nearly identical
	humidity := gaussianEntity("humidity.bath", InputHumidity, 50, GaussianParams{
		MeanOccupied: 50, StdOccupied: 10,
		MeanUnoccupied: 49, StdUnoccupied: 10,
	})
	motion := testEntity("motion.bath", InputMotion, 1.0)
	motion.State = EvidenceInactive

	got := DetectActivity(PurposeBathroom, []*Entity{humidity, motion}, 0.7, true, now)

	if got.Activity != ActivityIdle {
		t.Errorf("activity = %v, want idle when no sensor discriminates", got.Activity)
	}
}

func TestDetectActivityDecayingEvidence(t *testing.T) {
	start := time.Date(2026, 3, 10, 7, 0, 0, 0, time.UTC)

	sleep := testEntity("sleep.bed", InputSleep, 1.0)
	sleep.State = EvidenceInactive
	sleep.Decay = NewDecay(NewPurpose(PurposeSleeping), nil, nil)
	sleep.Decay.StartDecay(start)

	fresh := DetectActivity(PurposeSleeping, []*Entity{sleep}, 0.8, true, start)
	if fresh.Activity != ActivitySleeping {
		t.Fatalf("activity = %v, want %v", fresh.Activity, ActivitySleeping)
	}

	aged := DetectActivity(PurposeSleeping, []*Entity{sleep}, 0.8, true, start.Add(720*time.Second))
	if aged.Activity == ActivitySleeping && aged.Confidence >= fresh.Confidence {
		t.Errorf("decaying evidence should lower confidence: fresh=%v aged=%v",
			fresh.Confidence, aged.Confidence)
	}
}

func TestDetectActivityConfidenceRounded(t *testing.T) {
	now := time.Now()

	humidity := gaussianEntity("humidity.bath", InputHumidity, 64, GaussianParams{
		MeanOccupied: 75, StdOccupied: 8,
		MeanUnoccupied: 45, StdUnoccupied: 5,
	})
	motion := testEntity("motion.bath", InputMotion, 1.0)
	motion.State = EvidenceActive

	got := DetectActivity(PurposeBathroom, []*Entity{humidity, motion}, 0.9, true, now)

	shifted := got.Confidence * 10000
	if shifted != float64(int64(shifted+0.5)) && shifted != float64(int64(shifted)) {
		t.Errorf("confidence %v not rounded to 4 decimals", got.Confidence)
	}
}
