package inference

import (
	"math"
	"sort"
	"time"
)

// ActivityType labels what is most likely happening in an occupied area
type ActivityType string

const (
	ActivityShowering        ActivityType = "showering"
	ActivityBathing          ActivityType = "bathing"
	ActivityCooking          ActivityType = "cooking"
	ActivityWatchingTV       ActivityType = "watching_tv"
	ActivityListeningToMusic ActivityType = "listening_to_music"
	ActivityWorking          ActivityType = "working"
	ActivitySleeping         ActivityType = "sleeping"
	ActivityEating           ActivityType = "eating"

	// Fallbacks when no definition matches
	ActivityIdle       ActivityType = "idle"
	ActivityUnoccupied ActivityType = "unoccupied"
)

// IndicatorDirection says how an environmental signal shifts during the
// activity relative to its unoccupied baseline
type IndicatorDirection int

const (
	DirectionElevated IndicatorDirection = iota
	DirectionSuppressed
)

// Indicator is one piece of evidence an activity definition looks for
type Indicator struct {
	Type InputType

	// DeviceClasses, when non-empty, restricts the indicator to entities
	// carrying one of the listed device classes
	DeviceClasses []string

	// Weight is the indicator's share of the definition's total
	Weight float64

	// Direction applies to environmental indicators only
	Direction IndicatorDirection
}

func (ind Indicator) matchesDeviceClass(class string) bool {
	if len(ind.DeviceClasses) == 0 {
		return true
	}
	for _, c := range ind.DeviceClasses {
		if c == class {
			return true
		}
	}
	return false
}

// ActivityDefinition describes how to recognize one activity
type ActivityDefinition struct {
	Activity ActivityType

	// Purposes lists the area purposes this activity can occur in. Empty
	// means any purpose.
	Purposes []AreaPurpose

	Indicators []Indicator

	// MinMatchWeight is the score floor, applied to both the raw matched
	// weight and the normalized confidence
	MinMatchWeight float64

	// Boost is the logit-space occupancy boost applied when this activity
	// is detected
	Boost float64
}

// spanGuard avoids a division by zero when an entity's occupied and
// unoccupied means coincide
const spanGuard = 1e-9

var activityCatalog = []ActivityDefinition{
	{
		Activity: ActivityShowering,
		Purposes: []AreaPurpose{PurposeBathroom},
		Indicators: []Indicator{
			{Type: InputHumidity, Weight: 0.50, Direction: DirectionElevated},
			{Type: InputTemperature, Weight: 0.20, Direction: DirectionElevated},
			{Type: InputMotion, Weight: 0.15},
			{Type: InputDoor, Weight: 0.15},
		},
		MinMatchWeight: 0.30,
		Boost:          ActivityBoostHigh,
	},
	{
		Activity: ActivityBathing,
		Purposes: []AreaPurpose{PurposeBathroom},
		Indicators: []Indicator{
			{Type: InputHumidity, Weight: 0.40, Direction: DirectionElevated},
			{Type: InputDoor, Weight: 0.30},
			{Type: InputTemperature, Weight: 0.20, Direction: DirectionElevated},
			{Type: InputMotion, Weight: 0.10},
		},
		MinMatchWeight: 0.30,
		Boost:          ActivityBoostHigh,
	},
	{
		Activity: ActivityCooking,
		Purposes: []AreaPurpose{PurposeFoodPrep},
		Indicators: []Indicator{
			{Type: InputAppliance, Weight: 0.35},
			{Type: InputTemperature, Weight: 0.20, Direction: DirectionElevated},
			{Type: InputHumidity, Weight: 0.15, Direction: DirectionElevated},
			{Type: InputCO2, Weight: 0.10, Direction: DirectionElevated},
			{Type: InputVOC, Weight: 0.10, Direction: DirectionElevated},
			{Type: InputMotion, Weight: 0.10},
		},
		MinMatchWeight: 0.30,
		Boost:          ActivityBoostModerate,
	},
	{
		Activity: ActivityWatchingTV,
		Purposes: []AreaPurpose{PurposeSocial, PurposeRelaxing, PurposeSleeping},
		Indicators: []Indicator{
			{Type: InputMedia, DeviceClasses: []string{"tv", "receiver"}, Weight: 0.60},
			{Type: InputIlluminance, Weight: 0.15, Direction: DirectionSuppressed},
			{Type: InputMotion, Weight: 0.10},
			{Type: InputSound, Weight: 0.15, Direction: DirectionElevated},
		},
		MinMatchWeight: 0.30,
		Boost:          ActivityBoostStrong,
	},
	{
		Activity: ActivityListeningToMusic,
		Purposes: []AreaPurpose{PurposeSocial, PurposeRelaxing, PurposeWorking},
		Indicators: []Indicator{
			{Type: InputMedia, DeviceClasses: []string{"speaker", "receiver"}, Weight: 0.50},
			{Type: InputSound, Weight: 0.30, Direction: DirectionElevated},
			{Type: InputMotion, Weight: 0.20},
		},
		MinMatchWeight: 0.30,
		Boost:          ActivityBoostMild,
	},
	{
		Activity: ActivityWorking,
		Purposes: []AreaPurpose{PurposeWorking},
		Indicators: []Indicator{
			{Type: InputAppliance, Weight: 0.40},
			{Type: InputPower, Weight: 0.25},
			{Type: InputMotion, Weight: 0.15},
			{Type: InputCO2, Weight: 0.10, Direction: DirectionElevated},
			{Type: InputIlluminance, Weight: 0.10, Direction: DirectionElevated},
		},
		MinMatchWeight: 0.30,
		Boost:          ActivityBoostModerate,
	},
	{
		Activity: ActivitySleeping,
		Purposes: []AreaPurpose{PurposeSleeping},
		Indicators: []Indicator{
			{Type: InputSleep, Weight: 0.50},
			{Type: InputIlluminance, Weight: 0.20, Direction: DirectionSuppressed},
			{Type: InputCO2, Weight: 0.15, Direction: DirectionElevated},
			{Type: InputSound, Weight: 0.15, Direction: DirectionSuppressed},
		},
		MinMatchWeight: 0.30,
		Boost:          ActivityBoostHigh,
	},
	{
		Activity: ActivityEating,
		Purposes: []AreaPurpose{PurposeEating},
		Indicators: []Indicator{
			{Type: InputMotion, Weight: 0.30},
			{Type: InputIlluminance, Weight: 0.25, Direction: DirectionElevated},
			{Type: InputCO2, Weight: 0.20, Direction: DirectionElevated},
			{Type: InputTemperature, Weight: 0.15, Direction: DirectionElevated},
			{Type: InputMedia, Weight: 0.10},
		},
		MinMatchWeight: 0.30,
		Boost:          ActivityBoostMild,
	},
}

// ActivityCatalog returns the full set of activity definitions
func ActivityCatalog() []ActivityDefinition {
	return activityCatalog
}

// Detection is the result of activity classification
type Detection struct {
	Activity   ActivityType
	Confidence float64
	Boost      float64

	// Evidence lists the entity IDs that contributed to the detection
	Evidence []string
}

func (d ActivityDefinition) eligible(purpose AreaPurpose) bool {
	if len(d.Purposes) == 0 {
		return true
	}
	for _, p := range d.Purposes {
		if p == purpose {
			return true
		}
	}
	return false
}

// purposeSpecific reports whether the definition names the purpose
// explicitly rather than matching any area
func (d ActivityDefinition) purposeSpecific(purpose AreaPurpose) bool {
	if len(d.Purposes) == 0 {
		return false
	}
	return d.eligible(purpose)
}

// scoreBinary scores a binary indicator against the entities of its type:
// full score while active, the decay factor while fading. The strongest
// entity wins; equally strong entities are all recorded as evidence.
func scoreBinary(ind Indicator, entities []*Entity, now time.Time) (float64, []string) {
	best := 0.0
	var evidence []string

	for _, entity := range entities {
		if entity.Type != ind.Type {
			continue
		}
		if !ind.matchesDeviceClass(entity.DeviceClass) {
			continue
		}

		score := entity.Evidence(now).Contribution()
		if score <= 0 {
			continue
		}
		if score > best {
			best = score
			evidence = []string{entity.ID}
		} else if score == best {
			evidence = append(evidence, entity.ID)
		}
	}

	return best, evidence
}

// scoreEnvironmental scores an environmental indicator from the entity's
// learned Gaussian statistics. The position of the current reading between
// the unoccupied and occupied means, oriented by direction, is the score.
// Sensors whose learned distributions barely separate are skipped.
func scoreEnvironmental(ind Indicator, entities []*Entity) (float64, []string) {
	best := 0.0
	var evidence []string

	for _, entity := range entities {
		if entity.Type != ind.Type {
			continue
		}
		if !ind.matchesDeviceClass(entity.DeviceClass) {
			continue
		}
		if entity.GaussianParams == nil || entity.Value == nil {
			continue
		}
		params := *entity.GaussianParams

		span := params.MeanOccupied - params.MeanUnoccupied
		if math.Abs(span) < spanGuard {
			continue
		}
		avgStd := (params.StdOccupied + params.StdUnoccupied) / 2.0
		if avgStd > 0 && math.Abs(span) < avgStd*0.5 {
			// Distributions overlap too much to discriminate
			continue
		}

		// Elevated measures how far the reading moved from the unoccupied
		// baseline toward the occupied mean; suppressed mirrors it, zero at
		// the baseline and growing as the reading drops below it
		var position float64
		if ind.Direction == DirectionSuppressed {
			position = (params.MeanUnoccupied - *entity.Value) / math.Abs(span)
		} else {
			position = (*entity.Value - params.MeanUnoccupied) / span
		}
		if position < 0 {
			position = 0
		}
		if position > 1 {
			position = 1
		}
		if position == 0 {
			continue
		}

		if position > best {
			best = position
			evidence = []string{entity.ID}
		} else if position == best {
			evidence = append(evidence, entity.ID)
		}
	}

	return best, evidence
}

type candidate struct {
	definition ActivityDefinition
	confidence float64
	matched    float64
	specific   bool
	evidence   []string
}

// DetectActivity classifies the most likely activity in an area given its
// entities and occupancy probability. Unoccupied areas report the
// unoccupied fallback; occupied areas with no matching definition report
// idle.
func DetectActivity(purpose AreaPurpose, entities []*Entity, probability float64, occupied bool, now time.Time) Detection {
	if !occupied {
		return Detection{
			Activity:   ActivityUnoccupied,
			Confidence: roundConfidence(1.0 - probability),
		}
	}

	var candidates []candidate

	for _, def := range activityCatalog {
		if !def.eligible(purpose) {
			continue
		}

		// Total weight sums every configured indicator regardless of
		// sensor availability: missing hardware lowers the achievable
		// confidence instead of inflating it
		matched := 0.0
		total := 0.0
		var evidence []string

		for _, ind := range def.Indicators {
			total += ind.Weight

			var score float64
			var contributors []string
			if ind.Type.IsEnvironmental() {
				score, contributors = scoreEnvironmental(ind, entities)
			} else {
				score, contributors = scoreBinary(ind, entities, now)
			}

			matched += ind.Weight * score
			evidence = append(evidence, contributors...)
		}

		if total == 0 || matched < def.MinMatchWeight {
			continue
		}

		confidence := matched / total
		if confidence < def.MinMatchWeight {
			continue
		}
		if confidence > 1.0 {
			confidence = 1.0
		}

		candidates = append(candidates, candidate{
			definition: def,
			confidence: confidence,
			matched:    matched,
			specific:   def.purposeSpecific(purpose),
			evidence:   evidence,
		})
	}

	if len(candidates) == 0 {
		return Detection{
			Activity:   ActivityIdle,
			Confidence: roundConfidence(probability),
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].confidence != candidates[j].confidence {
			return candidates[i].confidence > candidates[j].confidence
		}
		if candidates[i].specific != candidates[j].specific {
			return candidates[i].specific
		}
		return candidates[i].matched > candidates[j].matched
	})

	best := candidates[0]
	return Detection{
		Activity:   best.definition.Activity,
		Confidence: roundConfidence(best.confidence),
		Boost:      best.definition.Boost,
		Evidence:   best.evidence,
	}
}

func roundConfidence(c float64) float64 {
	shift := math.Pow(10, ConfidencePrecision)
	return math.Round(c*shift) / shift
}
