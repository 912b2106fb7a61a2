package models

// Request/response contract of the external prediction service. Field names
// are fixed by that service and must not change.

type ClassifierRequest struct {
	AllUserLogs   []UserLogEntry `json:"all_user_logs"`
	QuestionsData []Question     `json:"questions_data"`
}

type UserLogEntry struct {
	UserID           string     `json:"userId"`
	SessionLogEvents []LogEvent `json:"session_log_events"`
}

// Prediction is one per-candidate verdict. Label 1 means "classified as
// cheating"; every other value means not flagged.
type Prediction struct {
	UserID          string `json:"userId"`
	PredictionLabel int    `json:"prediction_label"`
}

const PredictionLabelCheating = 1
