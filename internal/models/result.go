package models

import "time"

// EvaluationResult is the persisted outcome of one evaluation run. A re-run
// for the same test inserts a new row; reads take the newest.
type EvaluationResult struct {
	ID             string    `json:"id" db:"id"`
	TestID         string    `json:"test_id" db:"test_id"`
	FlaggedUsers   []string  `json:"flagged_users" db:"flagged_users"`
	FlaggedCenters []string  `json:"flagged_centers" db:"flagged_centers"`
	Summary        Summary   `json:"summary"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

type Summary struct {
	TotalRegistered int `json:"total_registered" db:"total_registered"`
	TotalGiven      int `json:"total_given" db:"total_given"`
	TotalNotGiven   int `json:"total_not_given" db:"total_not_given"`
	TotalFlagged    int `json:"total_flagged" db:"total_flagged"`
}

// CenterStats is the per-center tally built while deriving flagged centers.
// Ephemeral; never persisted.
type CenterStats struct {
	Submitted int
	Flagged   int
}
