package domain

type Rank string

type Location string

type AgeBracket string

const (
	LocationLow      Location = "Low Cost"
	LocationStandard Location = "Standard Cost"
	LocationHigh     Location = "High Cost"
)

const (
	AgeInfant    AgeBracket = "Infant (0-12 months)"
	AgeToddler   AgeBracket = "Toddler (13-24 months)"
	AgePreschool AgeBracket = "Preschool (25-60 months)"
	AgeSchool    AgeBracket = "School-age (6-13 years)"
)

// AllowanceRequest is a validated calculation input.
type AllowanceRequest struct {
	Rank             Rank
	Location         Location
	CostSharePercent float64
	Children         []ChildInput
}

type ChildInput struct {
	Age AgeBracket
}

type Breakdown struct {
	BaseAllowance    float64
	GeoMultiplier    float64
	AgeMultiplier    float64
	CostShareDecimal float64
	BeforeCostShare  float64
}

type ChildResult struct {
	Age       AgeBracket
	Amount    float64
	Breakdown Breakdown
}

type CalculationResult struct {
	PerChild     []ChildResult
	TotalMonthly float64
	TotalAnnual  float64
}
