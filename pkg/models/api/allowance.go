package api

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Percent accepts either a JSON number or a numeric string.
type Percent float64

func (p *Percent) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		raw = s
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("costShare must be a number: %q", raw)
	}
	*p = Percent(v)
	return nil
}

type CalculateRequest struct {
	Rank      string            `json:"rank"`
	Location  string            `json:"location"`
	CostShare Percent           `json:"costShare"`
	Children  []json.RawMessage `json:"children"`
}

type ChildInput struct {
	Age string `json:"age"`
}

type Breakdown struct {
	BaseAllowance    float64 `json:"baseAllowance"`
	GeoMultiplier    float64 `json:"geoMultiplier"`
	AgeMultiplier    float64 `json:"ageMultiplier"`
	CostShareDecimal float64 `json:"costShareDecimal"`
	BeforeCostShare  float64 `json:"beforeCostShare"`
}

type ChildResult struct {
	Age       string    `json:"age"`
	Amount    float64   `json:"amount"`
	Breakdown Breakdown `json:"breakdown"`
}

type CalculationResult struct {
	PerChild     []ChildResult `json:"perChild"`
	TotalMonthly float64       `json:"totalMonthly"`
	TotalAnnual  float64       `json:"totalAnnual"`
}

type Options struct {
	Ranks     []string `json:"ranks"`
	Locations []string `json:"locations"`
	Ages      []string `json:"ages"`
}
