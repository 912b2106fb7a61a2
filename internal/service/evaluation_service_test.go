package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ansh212/Onlineportal/internal/models"
	"github.com/Ansh212/Onlineportal/internal/service/integration"
)

const evalTestID = "9a4a1d2b-6c3e-4f5a-8b7c-0d1e2f3a4b5c"

// --- fakes -----------------------------------------------------------------

type fakeTestRepo struct {
	test *models.Test
	err  error
}

func (f *fakeTestRepo) GetWithQuestions(ctx context.Context, testID string) (*models.Test, error) {
	return f.test, f.err
}

type fakeUserRepo struct {
	users     []models.User
	usernames map[string]string
	namesErr  error
}

func (f *fakeUserRepo) ListWithTestRefs(ctx context.Context) ([]models.User, error) {
	return f.users, nil
}

func (f *fakeUserRepo) GetUsernames(ctx context.Context, userIDs []string) (map[string]string, error) {
	if f.namesErr != nil {
		return nil, f.namesErr
	}
	return f.usernames, nil
}

func (f *fakeUserRepo) Ping(ctx context.Context) error { return nil }

type fakeLogRepo struct {
	logs []models.ActivityLog
	err  error
}

func (f *fakeLogRepo) GetByTestID(ctx context.Context, testID string) ([]models.ActivityLog, error) {
	return f.logs, f.err
}

type fakeResultRepo struct {
	created   []*models.EvaluationResult
	createErr error
}

func (f *fakeResultRepo) Create(ctx context.Context, result *models.EvaluationResult) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, result)
	return nil
}

func (f *fakeResultRepo) GetLatestByTestID(ctx context.Context, testID string) (*models.EvaluationResult, error) {
	if len(f.created) == 0 {
		return nil, nil
	}
	return f.created[len(f.created)-1], nil
}

func (f *fakeResultRepo) ListByTestID(ctx context.Context, testID string) ([]models.EvaluationResult, error) {
	results := make([]models.EvaluationResult, 0, len(f.created))
	for i := len(f.created) - 1; i >= 0; i-- {
		results = append(results, *f.created[i])
	}
	return results, nil
}

func (f *fakeResultRepo) Ping(ctx context.Context) error { return nil }

type fakeClassifier struct {
	predict func(req models.ClassifierRequest) ([]models.Prediction, error)
	calls   int
}

func (f *fakeClassifier) PredictBatch(ctx context.Context, req models.ClassifierRequest) ([]models.Prediction, error) {
	f.calls++
	return f.predict(req)
}

type fakePublisher struct {
	completed []models.EvaluationCompletedEvent
}

func (f *fakePublisher) PublishEvaluationCompleted(ctx context.Context, event models.EvaluationCompletedEvent) error {
	f.completed = append(f.completed, event)
	return nil
}

func (f *fakePublisher) PublishEvaluationFailed(ctx context.Context, event models.EvaluationFailedEvent) error {
	return nil
}

type fakeBroker struct {
	closed bool
}

func (f *fakeBroker) IsClosed() bool { return f.closed }

// --- fixtures --------------------------------------------------------------

type evalFixture struct {
	testRepo   *fakeTestRepo
	userRepo   *fakeUserRepo
	logRepo    *fakeLogRepo
	resultRepo *fakeResultRepo
	classifier *fakeClassifier
	publisher  *fakePublisher
	broker     *fakeBroker
	svc        EvaluationService
}

func newEvalFixture() *evalFixture {
	f := &evalFixture{
		testRepo: &fakeTestRepo{
			test: &models.Test{
				ID:    evalTestID,
				Title: "Physics Mock Exam",
				Questions: []models.Question{
					{ID: "q1", Text: "Q1", Options: []string{"a", "b"}, CorrectAnswer: 0},
				},
			},
		},
		userRepo:   &fakeUserRepo{},
		logRepo:    &fakeLogRepo{},
		resultRepo: &fakeResultRepo{},
		classifier: &fakeClassifier{
			predict: func(req models.ClassifierRequest) ([]models.Prediction, error) {
				return nil, nil
			},
		},
		publisher: &fakePublisher{},
		broker:    &fakeBroker{},
	}

	f.svc = NewEvaluationService(
		f.testRepo,
		f.userRepo,
		f.logRepo,
		f.resultRepo,
		f.classifier,
		f.publisher,
		f.broker,
		zerolog.Nop(),
		EvaluationServiceConfig{FlagRatioThreshold: 0.10},
	)

	return f
}

func submittedLog(userID string, centerID *string) models.ActivityLog {
	return models.ActivityLog{
		ID:       "log-" + userID,
		UserID:   userID,
		TestID:   evalTestID,
		CenterID: centerID,
	}
}

// --- tests -----------------------------------------------------------------

func TestEvaluateTest_InvalidTestID(t *testing.T) {
	f := newEvalFixture()

	_, err := f.svc.EvaluateTest(context.Background(), "not-a-uuid")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidTestID)
	assert.Empty(t, f.resultRepo.created)
}

func TestEvaluateTest_TestNotFound(t *testing.T) {
	f := newEvalFixture()
	f.testRepo.test = nil

	_, err := f.svc.EvaluateTest(context.Background(), evalTestID)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTestNotFound)
	assert.Empty(t, f.resultRepo.created)
}

func TestEvaluateTest_NoLogs(t *testing.T) {
	f := newEvalFixture()
	f.userRepo.users = []models.User{
		registeredUser("u1", evalTestID),
		givenUser("u2", evalTestID),
	}

	resp, err := f.svc.EvaluateTest(context.Background(), evalTestID)

	require.NoError(t, err)
	assert.Equal(t, "evaluation complete (no logs found for this test)", resp.Message)
	assert.Empty(t, resp.FlaggedUsers)
	assert.Empty(t, resp.FlaggedCenters)
	assert.Equal(t, models.Summary{
		TotalRegistered: 2,
		TotalGiven:      1,
		TotalNotGiven:   1,
		TotalFlagged:    0,
	}, resp.Summary)

	// The zero-flag result is still persisted.
	require.Len(t, f.resultRepo.created, 1)
	assert.Equal(t, 0, f.resultRepo.created[0].Summary.TotalFlagged)
	assert.Equal(t, []string{}, f.resultRepo.created[0].FlaggedUsers)
	assert.Equal(t, 0, f.classifier.calls, "classifier must not be called without logs")
	assert.Len(t, f.publisher.completed, 1)
}

func TestEvaluateTest_ClassifierFailureAbortsWithoutPersistence(t *testing.T) {
	f := newEvalFixture()
	f.logRepo.logs = []models.ActivityLog{submittedLog("u1", strptr("center-x"))}
	f.classifier.predict = func(req models.ClassifierRequest) ([]models.Prediction, error) {
		return nil, errors.New("connection refused")
	}

	_, err := f.svc.EvaluateTest(context.Background(), evalTestID)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrClassifierUnavailable)
	assert.Empty(t, f.resultRepo.created, "nothing may be persisted after a classifier failure")
	assert.Empty(t, f.publisher.completed)
}

func TestEvaluateTest_ClassifierBadShape(t *testing.T) {
	f := newEvalFixture()
	f.logRepo.logs = []models.ActivityLog{submittedLog("u1", strptr("center-x"))}
	f.classifier.predict = func(req models.ClassifierRequest) ([]models.Prediction, error) {
		return nil, &integration.ErrBadResponseShape{Detail: "top-level value is not an array"}
	}

	_, err := f.svc.EvaluateTest(context.Background(), evalTestID)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrClassifierBadResponse)
	assert.Empty(t, f.resultRepo.created)
}

func TestEvaluateTest_PersistenceFailureIsFatal(t *testing.T) {
	f := newEvalFixture()
	f.logRepo.logs = []models.ActivityLog{submittedLog("u1", strptr("center-x"))}
	f.resultRepo.createErr = errors.New("connection reset")

	_, err := f.svc.EvaluateTest(context.Background(), evalTestID)

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrClassifierUnavailable)
	assert.Empty(t, f.publisher.completed)
}

func TestEvaluateTest_EnrichmentFailureDegradesToIDs(t *testing.T) {
	f := newEvalFixture()
	f.logRepo.logs = []models.ActivityLog{submittedLog("u1", strptr("center-x"))}
	f.userRepo.namesErr = errors.New("roster unavailable")
	f.classifier.predict = func(req models.ClassifierRequest) ([]models.Prediction, error) {
		return []models.Prediction{{UserID: "u1", PredictionLabel: 1}}, nil
	}

	resp, err := f.svc.EvaluateTest(context.Background(), evalTestID)

	require.NoError(t, err, "username enrichment is best effort")
	require.Len(t, resp.FlaggedUsers, 1)
	assert.Equal(t, "u1", resp.FlaggedUsers[0].ID)
	assert.Empty(t, resp.FlaggedUsers[0].Username)
	assert.Len(t, f.resultRepo.created, 1)
}

func TestEvaluateTest_EndToEndScenario(t *testing.T) {
	f := newEvalFixture()

	// 20 registered, 15 of them gave the test.
	for i := 0; i < 20; i++ {
		id := fmt.Sprintf("u%02d", i)
		if i < 15 {
			f.userRepo.users = append(f.userRepo.users, givenUser(id, evalTestID))
		} else {
			f.userRepo.users = append(f.userRepo.users, registeredUser(id, evalTestID))
		}
	}

	// Logs for all 15: 5 from center X, 8 from center Y, 2 without a center.
	centerX, centerY := strptr("center-x"), strptr("center-y")
	for i := 0; i < 15; i++ {
		var center *string
		switch {
		case i < 5:
			center = centerX
		case i < 13:
			center = centerY
		}
		f.logRepo.logs = append(f.logRepo.logs, submittedLog(fmt.Sprintf("u%02d", i), center))
	}

	// Flag u00, u01 (center X: 2/5) and u05 (center Y: 1/8).
	f.classifier.predict = func(req models.ClassifierRequest) ([]models.Prediction, error) {
		var preds []models.Prediction
		for _, entry := range req.AllUserLogs {
			label := 0
			if entry.UserID == "u00" || entry.UserID == "u01" || entry.UserID == "u05" {
				label = 1
			}
			preds = append(preds, models.Prediction{UserID: entry.UserID, PredictionLabel: label})
		}
		return preds, nil
	}
	f.userRepo.usernames = map[string]string{"u00": "alice", "u01": "bob", "u05": "carol"}

	resp, err := f.svc.EvaluateTest(context.Background(), evalTestID)

	require.NoError(t, err)
	assert.Equal(t, "evaluation complete", resp.Message)
	assert.Equal(t, []models.FlaggedUser{
		{ID: "u00", Username: "alice"},
		{ID: "u01", Username: "bob"},
		{ID: "u05", Username: "carol"},
	}, resp.FlaggedUsers)
	assert.Equal(t, []string{"center-x", "center-y"}, resp.FlaggedCenters)
	assert.Equal(t, models.Summary{
		TotalRegistered: 20,
		TotalGiven:      15,
		TotalNotGiven:   5,
		TotalFlagged:    3,
	}, resp.Summary)

	require.Len(t, f.resultRepo.created, 1)
	persisted := f.resultRepo.created[0]
	assert.Equal(t, []string{"u00", "u01", "u05"}, persisted.FlaggedUsers)
	assert.Equal(t, []string{"center-x", "center-y"}, persisted.FlaggedCenters)

	require.Len(t, f.publisher.completed, 1)
	assert.Equal(t, 3, f.publisher.completed[0].TotalFlagged)
}

func TestEvaluateTest_RerunIsDeterministic(t *testing.T) {
	f := newEvalFixture()
	f.userRepo.users = []models.User{givenUser("u1", evalTestID), givenUser("u2", evalTestID)}
	f.logRepo.logs = []models.ActivityLog{
		submittedLog("u1", strptr("center-x")),
		submittedLog("u2", strptr("center-x")),
	}
	f.classifier.predict = func(req models.ClassifierRequest) ([]models.Prediction, error) {
		return []models.Prediction{
			{UserID: "u1", PredictionLabel: 1},
			{UserID: "u2", PredictionLabel: 0},
		}, nil
	}

	first, err := f.svc.EvaluateTest(context.Background(), evalTestID)
	require.NoError(t, err)

	second, err := f.svc.EvaluateTest(context.Background(), evalTestID)
	require.NoError(t, err)

	assert.Equal(t, first.FlaggedUsers, second.FlaggedUsers)
	assert.Equal(t, first.FlaggedCenters, second.FlaggedCenters)
	assert.Equal(t, first.Summary, second.Summary)

	// Each run keeps its own row.
	require.Len(t, f.resultRepo.created, 2)
	assert.NotEqual(t, f.resultRepo.created[0].ID, f.resultRepo.created[1].ID)
}

func TestGetServiceStatus_ReportsBrokerHealth(t *testing.T) {
	f := newEvalFixture()

	status, err := f.svc.GetServiceStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", status.Status)
	assert.True(t, status.Database)
	assert.True(t, status.RabbitMQ)

	f.broker.closed = true

	status, err = f.svc.GetServiceStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "degraded", status.Status)
	assert.False(t, status.RabbitMQ, "a closed AMQP connection must show up as unhealthy")
	assert.True(t, status.Database)
}

func TestGetLatestResult(t *testing.T) {
	f := newEvalFixture()

	_, err := f.svc.GetLatestResult(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrInvalidTestID)

	_, err = f.svc.GetLatestResult(context.Background(), evalTestID)
	assert.ErrorIs(t, err, ErrResultNotFound)

	f.userRepo.users = []models.User{givenUser("u1", evalTestID)}
	_, err = f.svc.EvaluateTest(context.Background(), evalTestID)
	require.NoError(t, err)

	result, err := f.svc.GetLatestResult(context.Background(), evalTestID)
	require.NoError(t, err)
	assert.Equal(t, evalTestID, result.TestID)
}
