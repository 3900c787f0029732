package allowance

import (
	"errors"
	"fmt"
	"math"

	"github.com/de-tools/bacc-research/pkg/models/domain"
)

var (
	ErrUnknownRank      = errors.New("unknown rank")
	ErrUnknownLocation  = errors.New("unknown location")
	ErrInvalidCostShare = errors.New("cost share must be between 0 and 100")
)

type Calculator interface {
	Calculate(req domain.AllowanceRequest) (*domain.CalculationResult, error)
	Tables() Tables
}

type calculator struct {
	tables Tables
}

func NewCalculator(tables Tables) Calculator {
	return &calculator{tables: tables}
}

func (c *calculator) Tables() Tables {
	return c.tables
}

// Calculate prices every child whose age bracket is known. Children with an
// unrecognised age are left out of the result.
func (c *calculator) Calculate(req domain.AllowanceRequest) (*domain.CalculationResult, error) {
	base, ok := c.tables.BaseAllowance(req.Rank)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRank, req.Rank)
	}
	geo, ok := c.tables.GeoMultiplier(req.Location)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLocation, req.Location)
	}
	if req.CostSharePercent < 0 || req.CostSharePercent > 100 || math.IsNaN(req.CostSharePercent) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCostShare, req.CostSharePercent)
	}

	costShare := req.CostSharePercent / 100
	result := &domain.CalculationResult{
		PerChild: make([]domain.ChildResult, 0, len(req.Children)),
	}

	var total float64
	for _, child := range req.Children {
		ageMult, ok := c.tables.AgeMultiplier(child.Age)
		if !ok {
			continue
		}

		beforeCostShare := base * geo * ageMult
		amount := Round2(beforeCostShare * (1 - costShare))
		total += amount

		result.PerChild = append(result.PerChild, domain.ChildResult{
			Age:    child.Age,
			Amount: amount,
			Breakdown: domain.Breakdown{
				BaseAllowance:    base,
				GeoMultiplier:    geo,
				AgeMultiplier:    ageMult,
				CostShareDecimal: costShare,
				BeforeCostShare:  Round2(beforeCostShare),
			},
		})
	}

	result.TotalMonthly = Round2(total)
	result.TotalAnnual = Round2(result.TotalMonthly * 12)
	return result, nil
}

// Round2 rounds half up on the value scaled to cents.
func Round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}
