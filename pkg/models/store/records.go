package store

import "time"

// CalculationRecord is one persisted allowance calculation. Records are
// append-only and identified by their position in the collection.
type CalculationRecord struct {
	Timestamp        time.Time     `json:"timestamp"`
	Date             string        `json:"date"`
	Time             string        `json:"time"`
	Rank             string        `json:"rank"`
	Location         string        `json:"location"`
	CostShare        float64       `json:"costShare"`
	NumberOfChildren int           `json:"numberOfChildren"`
	Children         []ChildEntry  `json:"children"`
	TotalMonthly     float64       `json:"totalMonthly"`
	TotalAnnual      float64       `json:"totalAnnual"`
	PerChildResults  []ChildResult `json:"perChildResults"`
}

type ChildEntry struct {
	ChildNumber int    `json:"childNumber"`
	Age         string `json:"age"`
}

type ChildResult struct {
	Age       string         `json:"age"`
	Amount    float64        `json:"amount"`
	Breakdown ChildBreakdown `json:"breakdown"`
}

type ChildBreakdown struct {
	BaseAllowance    float64 `json:"baseAllowance"`
	GeoMultiplier    float64 `json:"geoMultiplier"`
	AgeMultiplier    float64 `json:"ageMultiplier"`
	CostShareDecimal float64 `json:"costShareDecimal"`
	BeforeCostShare  float64 `json:"beforeCostShare"`
}

// SurveyRecord is one persisted survey submission.
type SurveyRecord struct {
	ID          string  `json:"id"`
	SubmittedAt string  `json:"submittedAt"`
	Date        string  `json:"date"`
	Time        string  `json:"time"`
	Responses   Answers `json:"responses"`
}
