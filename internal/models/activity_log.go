package models

import (
	"encoding/json"
	"time"
)

// ActivityLog is the behavioral record of one candidate's attempt at one
// test. It is created by the submission path and read-only here.
type ActivityLog struct {
	ID        string     `json:"id" db:"id"`
	UserID    string     `json:"user_id" db:"user_id"`
	TestID    string     `json:"test_id" db:"test_id"`
	CenterID  *string    `json:"center_id,omitempty" db:"center_id"`
	Events    []LogEvent `json:"events" db:"events"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// LogEvent is one discrete browser event. The timestamp is kept raw: the
// capture side emits both ISO-8601 strings and epoch numbers, and malformed
// or missing values are passed through to the classifier unmodified.
type LogEvent struct {
	Timestamp    json.RawMessage `json:"timestamp,omitempty"`
	ActivityText string          `json:"activity_text"`
	// Location identifies the question the event happened on; nil for
	// tab-level events ("switched away", "returned").
	Location *string `json:"location"`
}
