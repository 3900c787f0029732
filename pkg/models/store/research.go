package store

import (
	"maps"
	"time"
)

// CalculatorEntry is one calculator step captured for a research session.
type CalculatorEntry struct {
	Input     interface{} `json:"input" bson:"input"`
	Result    interface{} `json:"result" bson:"result"`
	Timestamp string      `json:"timestamp" bson:"timestamp"`
}

// SurveyEntry is one survey answer captured for a research session.
type SurveyEntry struct {
	Response     interface{} `json:"response" bson:"response"`
	QuestionText string      `json:"questionText" bson:"questionText"`
	Timestamp    string      `json:"timestamp" bson:"timestamp"`
}

// ResearchRecord is the unified per-session document.
type ResearchRecord struct {
	SessionID        string                     `json:"sessionId" bson:"sessionId"`
	CalculatorData   map[string]CalculatorEntry `json:"calculatorData" bson:"calculatorData"`
	SurveyData       map[string]SurveyEntry     `json:"surveyData" bson:"surveyData"`
	Metadata         Answers                    `json:"metadata" bson:"metadata"`
	CompletionStatus Answers                    `json:"completionStatus" bson:"completionStatus"`
	CreatedAt        time.Time                  `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time                  `json:"updatedAt" bson:"updatedAt"`
}

// ResearchUpdate carries one upsert request for a session.
type ResearchUpdate struct {
	SessionID        string
	CalculatorData   map[string]CalculatorEntry
	SurveyData       map[string]SurveyEntry
	Metadata         Answers
	CompletionStatus Answers
}

// NewResearchRecord builds the record created by the first write of a session.
func NewResearchRecord(u ResearchUpdate, now time.Time) ResearchRecord {
	rec := ResearchRecord{
		SessionID: u.SessionID,
		Metadata:  Answers{},
		CreatedAt: now,
	}
	rec.Apply(u, now)
	return rec
}

// Apply merges u into r: calculator and survey data are replaced wholesale,
// metadata and completion status are shallow-merged.
func (r *ResearchRecord) Apply(u ResearchUpdate, now time.Time) {
	r.CalculatorData = maps.Clone(u.CalculatorData)
	if r.CalculatorData == nil {
		r.CalculatorData = map[string]CalculatorEntry{}
	}
	r.SurveyData = maps.Clone(u.SurveyData)
	if r.SurveyData == nil {
		r.SurveyData = map[string]SurveyEntry{}
	}
	if r.Metadata == nil {
		r.Metadata = Answers{}
	}
	maps.Copy(r.Metadata, u.Metadata)
	if r.CompletionStatus == nil {
		r.CompletionStatus = Answers{}
	}
	maps.Copy(r.CompletionStatus, u.CompletionStatus)
	r.UpdatedAt = now
}

// ItemCount is the number of calculator and survey items held by the record.
func (r *ResearchRecord) ItemCount() int {
	return len(r.CalculatorData) + len(r.SurveyData)
}
