package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/bacc-research/pkg/models/domain"
)

func TestReporter_Handle(t *testing.T) {
	report := &domain.Report{
		Title:        "Child Care Allowance",
		Rank:         "E-5",
		Location:     domain.LocationStandard,
		CostShare:    25,
		TotalMonthly: 1050,
		TotalAnnual:  12600,
		Currency:     "USD",
		Sections: []domain.ReportSection{{
			Title:   "Child 1: Infant (0-12 months)",
			Summary: map[string]interface{}{"Monthly Amount": "1050.00"},
			Details: []domain.ReportDetail{
				{Name: "Base Allowance", Value: 1000.0, Unit: "USD"},
				{Name: "Age Multiplier", Value: 1.4},
			},
		}},
	}

	var buf bytes.Buffer
	require.NoError(t, NewReporter(&buf).Handle(report))
	out := buf.String()

	assert.Contains(t, out, "Rank: E-5   Location: Standard Cost   Cost Share: 25%")
	assert.Contains(t, out, "Total Monthly: USD 1050.00")
	assert.Contains(t, out, "Monthly Amount: 1050.00")
	assert.Contains(t, out, "|          1.4 |")
	assert.Contains(t, out, "|         1000 | USD    |")
	assert.NotContains(t, out, "No children")
}

func TestReporter_HandleNoChildren(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewReporter(&buf).Handle(&domain.Report{Currency: "USD"}))

	assert.Contains(t, buf.String(), "No children matched a known age bracket.")
	assert.Contains(t, buf.String(), "Total Annual:  USD 0.00")
}
