package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/Ansh212/Onlineportal/internal/models"
)

type UserRepository interface {
	// ListWithTestRefs loads the full roster: every user together with
	// their registered-test and given-test references.
	ListWithTestRefs(ctx context.Context) ([]models.User, error)
	GetUsernames(ctx context.Context, userIDs []string) (map[string]string, error)
	Ping(ctx context.Context) error
}

type userRepository struct {
	*PostgresRepository
}

func NewUserRepository(db *sql.DB, logger zerolog.Logger) UserRepository {
	return &userRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *userRepository) ListWithTestRefs(ctx context.Context) ([]models.User, error) {
	query := `
		SELECT
			u.id,
			u.username,
			t.test_id,
			t.kind,
			t.center_id,
			t.score,
			t.city,
			t.state,
			t.test_name
		FROM users u
		LEFT JOIN user_test_refs t ON t.user_id = u.id
		ORDER BY u.id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query roster: %w", err)
	}
	defer rows.Close()

	var users []models.User
	index := make(map[string]int)

	for rows.Next() {
		var (
			userID, username               string
			testID, kind                   sql.NullString
			centerID, city, state, tstName sql.NullString
			score                          sql.NullInt64
		)

		if err := rows.Scan(&userID, &username, &testID, &kind, &centerID, &score, &city, &state, &tstName); err != nil {
			return nil, fmt.Errorf("failed to scan roster row: %w", err)
		}

		i, ok := index[userID]
		if !ok {
			users = append(users, models.User{ID: userID, Username: username})
			i = len(users) - 1
			index[userID] = i
		}

		if !testID.Valid {
			continue
		}

		switch kind.String {
		case "registered":
			users[i].RegisteredTests = append(users[i].RegisteredTests, models.RegisteredTest{
				TestID:   testID.String,
				CenterID: centerID.String,
				City:     city.String,
				State:    state.String,
				TestName: tstName.String,
			})
		case "given":
			users[i].GivenTests = append(users[i].GivenTests, models.GivenTest{
				TestID: testID.String,
				Score:  int(score.Int64),
				City:   city.String,
				State:  state.String,
			})
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read roster rows: %w", err)
	}

	return users, nil
}

func (r *userRepository) GetUsernames(ctx context.Context, userIDs []string) (map[string]string, error) {
	if len(userIDs) == 0 {
		return map[string]string{}, nil
	}

	query := `SELECT id, username FROM users WHERE id = ANY($1)`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(userIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query usernames: %w", err)
	}
	defer rows.Close()

	usernames := make(map[string]string, len(userIDs))
	for rows.Next() {
		var id, username string
		if err := rows.Scan(&id, &username); err != nil {
			return nil, fmt.Errorf("failed to scan username row: %w", err)
		}
		usernames[id] = username
	}

	return usernames, rows.Err()
}
