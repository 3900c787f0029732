package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/de-tools/bacc-research/pkg/models/store"
)

var (
	CalculationHeader = []string{
		"Date", "Time", "Rank", "Location", "Cost Share %", "Number of Children",
		"Total Monthly", "Total Annual", "Child Details",
	}
	SurveyHeader = []string{
		"ID", "Date", "Time", "Current Programs", "Program Preference", "Quality Care Impact",
		"Mission Readiness Impact", "Marital Status", "Spouse Impact", "Career Impact",
		"Current Hurdles", "Follow-up Comments",
	}
	ResearchHeader = []string{
		"SessionID", "RecordCreated", "DataType", "Field", "Value", "QuestionText", "Result", "Timestamp",
	}
)

// Survey response keys mapped to the fixed export columns.
var surveyColumns = []string{
	"current_programs",
	"program_preference",
	"quality_care_impact",
	"mission_readiness_impact",
	"marital_status",
	"spouse_impact",
	"career_impact",
}

const (
	hurdlesKey     = "current_hurdles"
	followupMarker = "_followup"

	DataTypeCalculator = "Calculator"
	DataTypeSurvey     = "Survey"
)

// WriteCalculations writes one row per stored calculation.
func WriteCalculations(w io.Writer, records []store.CalculationRecord) error {
	return writeRows(w, CalculationHeader, len(records), func(i int) [][]string {
		r := records[i]
		details := make([]string, 0, len(r.Children))
		for _, c := range r.Children {
			details = append(details, fmt.Sprintf("%d:%s", c.ChildNumber, c.Age))
		}
		return [][]string{{
			r.Date,
			r.Time,
			r.Rank,
			r.Location,
			formatNumber(r.CostShare),
			strconv.Itoa(r.NumberOfChildren),
			formatMoney(r.TotalMonthly),
			formatMoney(r.TotalAnnual),
			strings.Join(details, ";"),
		}}
	})
}

// WriteSurveys writes one row per stored survey submission.
func WriteSurveys(w io.Writer, records []store.SurveyRecord) error {
	return writeRows(w, SurveyHeader, len(records), func(i int) [][]string {
		r := records[i]
		row := make([]string, 0, len(SurveyHeader))
		row = append(row, r.ID, r.Date, r.Time)
		for _, key := range surveyColumns {
			row = append(row, r.Responses.Text(key, ", "))
		}
		row = append(row, r.Responses.Text(hurdlesKey, "; "), followups(r.Responses))
		return [][]string{row}
	})
}

// WriteResearch writes one row per calculator field and survey answer of every
// record, calculator rows first.
func WriteResearch(w io.Writer, records []store.ResearchRecord) error {
	return writeRows(w, ResearchHeader, len(records), func(i int) [][]string {
		r := records[i]
		created := r.CreatedAt.UTC().Format(time.RFC3339)
		rows := make([][]string, 0, r.ItemCount())

		for _, field := range slices.Sorted(maps.Keys(r.CalculatorData)) {
			entry := r.CalculatorData[field]
			rows = append(rows, []string{
				r.SessionID, created, DataTypeCalculator, field,
				store.FormatValue(entry.Input, "; "), "",
				store.FormatValue(entry.Result, "; "), entry.Timestamp,
			})
		}
		for _, question := range slices.Sorted(maps.Keys(r.SurveyData)) {
			entry := r.SurveyData[question]
			rows = append(rows, []string{
				r.SessionID, created, DataTypeSurvey, question,
				store.FormatValue(entry.Response, "; "), entry.QuestionText,
				"", entry.Timestamp,
			})
		}
		return rows
	})
}

func writeRows(w io.Writer, header []string, n int, rowsAt func(i int) [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i := 0; i < n; i++ {
		if err := cw.WriteAll(rowsAt(i)); err != nil {
			return fmt.Errorf("write csv row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func followups(responses store.Answers) string {
	parts := make([]string, 0)
	for _, key := range responses.Keys() {
		if !strings.Contains(key, followupMarker) {
			continue
		}
		text := responses.Text(key, "; ")
		if text == "" {
			continue
		}
		parts = append(parts, key+": "+text)
	}
	return strings.Join(parts, " | ")
}

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
