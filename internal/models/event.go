package models

import "time"

// EvaluationRequestedEvent asks the worker to evaluate a completed test.
// Published by the portal backend once a test window closes.
type EvaluationRequestedEvent struct {
	TestID      string `json:"test_id"`
	RequestedBy string `json:"requested_by,omitempty"`
	Timestamp   int64  `json:"timestamp"`
}

type EvaluationCompletedEvent struct {
	TestID         string    `json:"test_id"`
	ResultID       string    `json:"result_id"`
	TotalFlagged   int       `json:"total_flagged"`
	FlaggedCenters int       `json:"flagged_centers"`
	CompletedAt    time.Time `json:"completed_at"`
}

type EvaluationFailedEvent struct {
	TestID   string    `json:"test_id"`
	Error    string    `json:"error"`
	FailedAt time.Time `json:"failed_at"`
}
