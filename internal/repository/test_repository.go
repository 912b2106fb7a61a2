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

type TestRepository interface {
	// GetWithQuestions returns the test and its question set, or nil when
	// no such test exists.
	GetWithQuestions(ctx context.Context, testID string) (*models.Test, error)
}

type testRepository struct {
	*PostgresRepository
}

func NewTestRepository(db *sql.DB, logger zerolog.Logger) TestRepository {
	return &testRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *testRepository) GetWithQuestions(ctx context.Context, testID string) (*models.Test, error) {
	test := &models.Test{}

	query := `SELECT id, title, created_at FROM tests WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, testID).Scan(&test.ID, &test.Title, &test.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query test: %w", err)
	}

	questionsQuery := `
		SELECT id, question_text, options, correct_answer
		FROM questions
		WHERE test_id = $1
		ORDER BY position
	`

	rows, err := r.db.QueryContext(ctx, questionsQuery, testID)
	if err != nil {
		return nil, fmt.Errorf("failed to query questions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			q       models.Question
			options []byte
		)

		if err := rows.Scan(&q.ID, &q.Text, &options, &q.CorrectAnswer); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}

		if err := json.Unmarshal(options, &q.Options); err != nil {
			return nil, fmt.Errorf("failed to decode options for question %s: %w", q.ID, err)
		}

		test.Questions = append(test.Questions, q)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read question rows: %w", err)
	}

	return test, nil
}
