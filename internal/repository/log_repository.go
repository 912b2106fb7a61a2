package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Ansh212/Onlineportal/internal/models"
)

type LogRepository interface {
	// GetByTestID returns every activity log recorded for the test. An
	// empty result is a valid outcome, not an error.
	GetByTestID(ctx context.Context, testID string) ([]models.ActivityLog, error)
}

type logRepository struct {
	*PostgresRepository
}

func NewLogRepository(db *sql.DB, logger zerolog.Logger) LogRepository {
	return &logRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *logRepository) GetByTestID(ctx context.Context, testID string) ([]models.ActivityLog, error) {
	query := `
		SELECT id, user_id, test_id, center_id, events, created_at
		FROM activity_logs
		WHERE test_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, testID)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity logs: %w", err)
	}
	defer rows.Close()

	var logs []models.ActivityLog
	for rows.Next() {
		var (
			log      models.ActivityLog
			centerID sql.NullString
			events   []byte
		)

		if err := rows.Scan(&log.ID, &log.UserID, &log.TestID, &centerID, &events, &log.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity log: %w", err)
		}

		if centerID.Valid {
			log.CenterID = &centerID.String
		}

		if len(events) > 0 {
			if err := json.Unmarshal(events, &log.Events); err != nil {
				return nil, fmt.Errorf("failed to decode events for log %s: %w", log.ID, err)
			}
		}

		logs = append(logs, log)
	}

	return logs, rows.Err()
}
