package adapters

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/de-tools/bacc-research/pkg/models/api"
	"github.com/de-tools/bacc-research/pkg/models/domain"
	"github.com/de-tools/bacc-research/pkg/models/store"
)

const (
	DateLayout = "1/2/2006"
	TimeLayout = "3:04:05 PM"
)

// MapApiRequestToDomainRequest keeps one entry per submitted child. Entries
// that are not objects with a string age map to an empty age and are dropped
// by the calculator.
func MapApiRequestToDomainRequest(req api.CalculateRequest) domain.AllowanceRequest {
	children := make([]domain.ChildInput, 0, len(req.Children))
	for _, raw := range req.Children {
		var child api.ChildInput
		if err := json.Unmarshal(raw, &child); err != nil {
			children = append(children, domain.ChildInput{})
			continue
		}
		children = append(children, domain.ChildInput{Age: domain.AgeBracket(child.Age)})
	}

	return domain.AllowanceRequest{
		Rank:             domain.Rank(req.Rank),
		Location:         domain.Location(req.Location),
		CostSharePercent: float64(req.CostShare),
		Children:         children,
	}
}

func MapDomainResultToApiResult(res domain.CalculationResult) api.CalculationResult {
	perChild := make([]api.ChildResult, 0, len(res.PerChild))
	for _, c := range res.PerChild {
		perChild = append(perChild, api.ChildResult{
			Age:    string(c.Age),
			Amount: c.Amount,
			Breakdown: api.Breakdown{
				BaseAllowance:    c.Breakdown.BaseAllowance,
				GeoMultiplier:    c.Breakdown.GeoMultiplier,
				AgeMultiplier:    c.Breakdown.AgeMultiplier,
				CostShareDecimal: c.Breakdown.CostShareDecimal,
				BeforeCostShare:  c.Breakdown.BeforeCostShare,
			},
		})
	}

	return api.CalculationResult{
		PerChild:     perChild,
		TotalMonthly: res.TotalMonthly,
		TotalAnnual:  res.TotalAnnual,
	}
}

func MapDomainToCalculationRecord(
	req domain.AllowanceRequest,
	res domain.CalculationResult,
	now time.Time,
) store.CalculationRecord {
	children := make([]store.ChildEntry, 0, len(req.Children))
	for i, c := range req.Children {
		children = append(children, store.ChildEntry{ChildNumber: i + 1, Age: string(c.Age)})
	}

	results := make([]store.ChildResult, 0, len(res.PerChild))
	for _, c := range res.PerChild {
		results = append(results, store.ChildResult{
			Age:    string(c.Age),
			Amount: c.Amount,
			Breakdown: store.ChildBreakdown{
				BaseAllowance:    c.Breakdown.BaseAllowance,
				GeoMultiplier:    c.Breakdown.GeoMultiplier,
				AgeMultiplier:    c.Breakdown.AgeMultiplier,
				CostShareDecimal: c.Breakdown.CostShareDecimal,
				BeforeCostShare:  c.Breakdown.BeforeCostShare,
			},
		})
	}

	return store.CalculationRecord{
		Timestamp:        now,
		Date:             now.Format(DateLayout),
		Time:             now.Format(TimeLayout),
		Rank:             string(req.Rank),
		Location:         string(req.Location),
		CostShare:        req.CostSharePercent,
		NumberOfChildren: len(req.Children),
		Children:         children,
		TotalMonthly:     res.TotalMonthly,
		TotalAnnual:      res.TotalAnnual,
		PerChildResults:  results,
	}
}

func MapApiResearchToStoreUpdate(req api.ResearchDataRequest) store.ResearchUpdate {
	return store.ResearchUpdate{
		SessionID:        req.SessionID,
		CalculatorData:   req.CalculatorData,
		SurveyData:       req.SurveyData,
		Metadata:         req.Metadata,
		CompletionStatus: req.CompletionStatus,
	}
}

func MapDomainTablesToApiOptions(ranks []domain.Rank, locations []domain.Location, ages []domain.AgeBracket) api.Options {
	opts := api.Options{
		Ranks:     make([]string, 0, len(ranks)),
		Locations: make([]string, 0, len(locations)),
		Ages:      make([]string, 0, len(ages)),
	}
	for _, r := range ranks {
		opts.Ranks = append(opts.Ranks, string(r))
	}
	for _, l := range locations {
		opts.Locations = append(opts.Locations, string(l))
	}
	for _, a := range ages {
		opts.Ages = append(opts.Ages, string(a))
	}
	return opts
}

// MapDomainResultToReport renders a calculation as a terminal report with one
// section per priced child.
func MapDomainResultToReport(req domain.AllowanceRequest, res domain.CalculationResult) *domain.Report {
	report := &domain.Report{
		Title:        "Child Care Allowance",
		Rank:         req.Rank,
		Location:     req.Location,
		CostShare:    req.CostSharePercent,
		TotalMonthly: res.TotalMonthly,
		TotalAnnual:  res.TotalAnnual,
		Currency:     "USD",
	}

	for i, c := range res.PerChild {
		report.Sections = append(report.Sections, domain.ReportSection{
			Title: fmt.Sprintf("Child %d: %s", i+1, c.Age),
			Summary: map[string]interface{}{
				"Monthly Amount": fmt.Sprintf("%.2f", c.Amount),
			},
			Details: []domain.ReportDetail{
				{Name: "Base Allowance", Value: c.Breakdown.BaseAllowance, Unit: "USD", Description: "Monthly base for rank " + string(req.Rank)},
				{Name: "Geographic Multiplier", Value: c.Breakdown.GeoMultiplier, Description: string(req.Location)},
				{Name: "Age Multiplier", Value: c.Breakdown.AgeMultiplier, Description: string(c.Age)},
				{Name: "Before Cost Share", Value: c.Breakdown.BeforeCostShare, Unit: "USD"},
				{Name: "Cost Share", Value: c.Breakdown.CostShareDecimal, Description: "Portion paid by the member"},
			},
		})
	}
	return report
}
