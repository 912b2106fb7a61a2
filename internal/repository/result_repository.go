package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Ansh212/Onlineportal/internal/models"
)

type ResultRepository interface {
	// Create inserts a new result row. Each evaluation run produces its
	// own row; earlier runs for the same test are kept as history.
	Create(ctx context.Context, result *models.EvaluationResult) error
	GetLatestByTestID(ctx context.Context, testID string) (*models.EvaluationResult, error)
	ListByTestID(ctx context.Context, testID string) ([]models.EvaluationResult, error)
	Ping(ctx context.Context) error
}

type resultRepository struct {
	*PostgresRepository
}

func NewResultRepository(db *sql.DB, logger zerolog.Logger) ResultRepository {
	return &resultRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *resultRepository) Create(ctx context.Context, result *models.EvaluationResult) error {
	flaggedUsers, err := json.Marshal(result.FlaggedUsers)
	if err != nil {
		return fmt.Errorf("failed to encode flagged users: %w", err)
	}

	flaggedCenters, err := json.Marshal(result.FlaggedCenters)
	if err != nil {
		return fmt.Errorf("failed to encode flagged centers: %w", err)
	}

	query := `
		INSERT INTO evaluation_results (
			id, test_id, flagged_users, flagged_centers,
			total_registered, total_given, total_not_given, total_flagged,
			created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = r.db.ExecContext(ctx, query,
		result.ID,
		result.TestID,
		flaggedUsers,
		flaggedCenters,
		result.Summary.TotalRegistered,
		result.Summary.TotalGiven,
		result.Summary.TotalNotGiven,
		result.Summary.TotalFlagged,
		result.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert evaluation result: %w", err)
	}

	return nil
}

func (r *resultRepository) GetLatestByTestID(ctx context.Context, testID string) (*models.EvaluationResult, error) {
	query := `
		SELECT id, test_id, flagged_users, flagged_centers,
			total_registered, total_given, total_not_given, total_flagged,
			created_at
		FROM evaluation_results
		WHERE test_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	result, err := r.scanResult(r.db.QueryRowContext(ctx, query, testID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return result, nil
}

func (r *resultRepository) ListByTestID(ctx context.Context, testID string) ([]models.EvaluationResult, error) {
	query := `
		SELECT id, test_id, flagged_users, flagged_centers,
			total_registered, total_given, total_not_given, total_flagged,
			created_at
		FROM evaluation_results
		WHERE test_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, testID)
	if err != nil {
		return nil, fmt.Errorf("failed to query evaluation results: %w", err)
	}
	defer rows.Close()

	var results []models.EvaluationResult
	for rows.Next() {
		result, err := r.scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *result)
	}

	return results, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *resultRepository) scanResult(row rowScanner) (*models.EvaluationResult, error) {
	result := &models.EvaluationResult{}
	var flaggedUsers, flaggedCenters []byte

	err := row.Scan(
		&result.ID,
		&result.TestID,
		&flaggedUsers,
		&flaggedCenters,
		&result.Summary.TotalRegistered,
		&result.Summary.TotalGiven,
		&result.Summary.TotalNotGiven,
		&result.Summary.TotalFlagged,
		&result.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(flaggedUsers, &result.FlaggedUsers); err != nil {
		return nil, fmt.Errorf("failed to decode flagged users: %w", err)
	}
	if err := json.Unmarshal(flaggedCenters, &result.FlaggedCenters); err != nil {
		return nil, fmt.Errorf("failed to decode flagged centers: %w", err)
	}

	return result, nil
}
