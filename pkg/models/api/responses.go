package api

import "github.com/de-tools/bacc-research/pkg/models/store"

type Message struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// DataResponse wraps a full collection dump.
type DataResponse[T any] struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
	Data    []T    `json:"data"`
}

type SubmitSurveyRequest struct {
	Timestamp string        `json:"timestamp"`
	Responses store.Answers `json:"responses"`
}

type SubmitSurveyResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}

type ResearchDataRequest struct {
	SessionID        string                           `json:"sessionId"`
	CalculatorData   map[string]store.CalculatorEntry `json:"calculatorData"`
	SurveyData       map[string]store.SurveyEntry     `json:"surveyData"`
	Metadata         store.Answers                    `json:"metadata"`
	CompletionStatus store.Answers                    `json:"completionStatus"`
}

type ResearchDataResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	SessionID string `json:"sessionId,omitempty"`
}
