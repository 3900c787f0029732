package domain

// Report represents a rendered allowance summary for terminal output
type Report struct {
	Title        string
	Rank         Rank
	Location     Location
	CostShare    float64
	Sections     []ReportSection
	TotalMonthly float64
	TotalAnnual  float64
	Currency     string
}

// ReportSection represents a logical section in the report
type ReportSection struct {
	Title   string
	Summary map[string]interface{}
	Details []ReportDetail
}

// ReportDetail represents detailed information within a section
type ReportDetail struct {
	Name        string
	Value       interface{}
	Unit        string
	Description string
}
