package inference

// AreaPurpose is a categorical label for what an area is used for. It
// parameterizes decay half-life, prior floors, and activity eligibility.
type AreaPurpose string

const (
	PurposePassageway AreaPurpose = "passageway"
	PurposeUtility    AreaPurpose = "utility"
	PurposeFoodPrep   AreaPurpose = "food_prep"
	PurposeEating     AreaPurpose = "eating"
	PurposeWorking    AreaPurpose = "working"
	PurposeSocial     AreaPurpose = "social"
	PurposeRelaxing   AreaPurpose = "relaxing"
	PurposeSleeping   AreaPurpose = "sleeping"
	PurposeBathroom   AreaPurpose = "bathroom"
)

// Purpose carries the decay and prior parameters attached to an area purpose
type Purpose struct {
	Purpose AreaPurpose

	// HalfLife is the base evidence half-life in seconds
	HalfLife float64

	// AwakeHalfLife, when positive, substitutes a shorter half-life outside
	// the configured sleep window. Only the sleeping purpose defines one.
	AwakeHalfLife float64

	// MinPrior is a floor applied to the learned prior. Transit spaces have
	// duration-biased learned priors that come out unrealistically low
	// because people don't linger.
	MinPrior float64
}

var purposeTable = map[AreaPurpose]Purpose{
	PurposePassageway: {Purpose: PurposePassageway, HalfLife: 60, MinPrior: 0.15},
	PurposeUtility:    {Purpose: PurposeUtility, HalfLife: 120},
	PurposeFoodPrep:   {Purpose: PurposeFoodPrep, HalfLife: 300},
	PurposeEating:     {Purpose: PurposeEating, HalfLife: 600},
	PurposeWorking:    {Purpose: PurposeWorking, HalfLife: 600},
	PurposeSocial:     {Purpose: PurposeSocial, HalfLife: 720},
	PurposeRelaxing:   {Purpose: PurposeRelaxing, HalfLife: 900},
	PurposeSleeping:   {Purpose: PurposeSleeping, HalfLife: 3600, AwakeHalfLife: 720},
	PurposeBathroom:   {Purpose: PurposeBathroom, HalfLife: 600, MinPrior: 0.05},
}

// DefaultPurpose is used when an area does not configure a purpose
const DefaultPurpose = PurposeSocial

// NewPurpose resolves a purpose label to its parameters. Unknown labels
// fall back to the default purpose.
func NewPurpose(purpose AreaPurpose) *Purpose {
	if p, ok := purposeTable[purpose]; ok {
		return &p
	}
	p := purposeTable[DefaultPurpose]
	return &p
}
