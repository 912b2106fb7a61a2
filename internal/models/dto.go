package models

import "time"

// Data Transfer Objects

type EvaluateTestRequest struct {
	TestID string `json:"test_id"`
}

type FlaggedUser struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
}

type EvaluateTestResponse struct {
	Message        string        `json:"message"`
	TestID         string        `json:"test_id"`
	FlaggedUsers   []FlaggedUser `json:"flagged_users"`
	FlaggedCenters []string      `json:"flagged_centers"`
	Summary        Summary       `json:"summary"`
}

type HealthCheckResponse struct {
	Status        string    `json:"status"`
	Database      bool      `json:"database"`
	RabbitMQ      bool      `json:"rabbitmq"`
	ActiveWorkers int       `json:"active_workers"`
	QueueLength   int       `json:"queue_length"`
	Timestamp     time.Time `json:"timestamp"`
}
