package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Ansh212/Onlineportal/internal/models"
	"github.com/Ansh212/Onlineportal/internal/repository"
	"github.com/Ansh212/Onlineportal/internal/service/integration"
	"github.com/Ansh212/Onlineportal/internal/worker/queue"
)

const (
	msgEvaluated = "evaluation complete"
	msgNoLogs    = "evaluation complete (no logs found for this test)"
)

type EvaluationService interface {
	EvaluateTest(ctx context.Context, testID string) (*models.EvaluateTestResponse, error)
	GetLatestResult(ctx context.Context, testID string) (*models.EvaluationResult, error)
	GetResultHistory(ctx context.Context, testID string) ([]models.EvaluationResult, error)
	GetServiceStatus(ctx context.Context) (*models.HealthCheckResponse, error)
}

type EvaluationServiceConfig struct {
	FlagRatioThreshold float64
}

// BrokerStatus reports message-broker connection health for the status
// endpoint.
type BrokerStatus interface {
	IsClosed() bool
}

type evaluationService struct {
	testRepo   repository.TestRepository
	userRepo   repository.UserRepository
	logRepo    repository.LogRepository
	resultRepo repository.ResultRepository
	classifier integration.ClassifierClient
	publisher  queue.EventPublisher
	broker     BrokerStatus
	logger     zerolog.Logger
	config     EvaluationServiceConfig
}

func NewEvaluationService(
	testRepo repository.TestRepository,
	userRepo repository.UserRepository,
	logRepo repository.LogRepository,
	resultRepo repository.ResultRepository,
	classifier integration.ClassifierClient,
	publisher queue.EventPublisher,
	broker BrokerStatus,
	logger zerolog.Logger,
	config EvaluationServiceConfig,
) EvaluationService {
	return &evaluationService{
		testRepo:   testRepo,
		userRepo:   userRepo,
		logRepo:    logRepo,
		resultRepo: resultRepo,
		classifier: classifier,
		publisher:  publisher,
		broker:     broker,
		logger:     logger,
		config:     config,
	}
}

// EvaluateTest runs the whole pipeline for one completed test: roster
// statistics, log fetch, batch classification, center aggregation and
// result persistence. A classifier or persistence failure aborts the run
// with nothing written.
func (s *evaluationService) EvaluateTest(ctx context.Context, testID string) (*models.EvaluateTestResponse, error) {
	startTime := time.Now()

	if _, err := uuid.Parse(testID); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTestID, testID)
	}

	test, err := s.testRepo.GetWithQuestions(ctx, testID)
	if err != nil {
		return nil, fmt.Errorf("failed to load test: %w", err)
	}
	if test == nil {
		return nil, fmt.Errorf("%w: %s", ErrTestNotFound, testID)
	}

	roster, err := s.userRepo.ListWithTestRefs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}

	stats := ComputeParticipation(roster, testID)

	logs, err := s.logRepo.GetByTestID(ctx, testID)
	if err != nil {
		return nil, fmt.Errorf("failed to load activity logs: %w", err)
	}

	if len(logs) == 0 {
		// Nobody to classify. Still a successful run with a persisted
		// zero-flag result.
		result := s.newResult(testID, nil, nil, stats)
		if err := s.resultRepo.Create(ctx, result); err != nil {
			return nil, fmt.Errorf("failed to persist evaluation result: %w", err)
		}

		s.notifyCompleted(ctx, result)

		s.logger.Info().
			Str("test_id", testID).
			Int("registered", stats.Registered).
			Msg("Evaluation complete, no logs found")

		return buildResponse(msgNoLogs, result, nil), nil
	}

	predictions, err := s.classify(ctx, test, logs)
	if err != nil {
		return nil, err
	}

	flaggedSet := make(map[string]struct{})
	for _, p := range predictions {
		if p.PredictionLabel == models.PredictionLabelCheating {
			flaggedSet[p.UserID] = struct{}{}
		}
	}

	flaggedUsers := make([]string, 0, len(flaggedSet))
	for id := range flaggedSet {
		flaggedUsers = append(flaggedUsers, id)
	}
	sort.Strings(flaggedUsers)

	centerStats := ComputeCenterStats(logs, flaggedSet)
	flaggedCenters := FlagCenters(centerStats, s.config.FlagRatioThreshold)

	// Display names are best-effort enrichment; a lookup failure degrades
	// the response to bare ids instead of failing the run.
	usernames, err := s.userRepo.GetUsernames(ctx, flaggedUsers)
	if err != nil {
		s.logger.Warn().Err(err).Str("test_id", testID).Msg("Failed to resolve flagged usernames")
		usernames = nil
	}

	result := s.newResult(testID, flaggedUsers, flaggedCenters, stats)
	if err := s.resultRepo.Create(ctx, result); err != nil {
		return nil, fmt.Errorf("failed to persist evaluation result: %w", err)
	}

	s.notifyCompleted(ctx, result)

	s.logger.Info().
		Str("test_id", testID).
		Int("logs", len(logs)).
		Int("flagged_users", len(flaggedUsers)).
		Int("flagged_centers", len(flaggedCenters)).
		Dur("duration", time.Since(startTime)).
		Msg("Evaluation complete")

	return buildResponse(msgEvaluated, result, usernames), nil
}

func (s *evaluationService) classify(ctx context.Context, test *models.Test, logs []models.ActivityLog) ([]models.Prediction, error) {
	req := models.ClassifierRequest{
		AllUserLogs:   make([]models.UserLogEntry, 0, len(logs)),
		QuestionsData: test.Questions,
	}

	for i := range logs {
		req.AllUserLogs = append(req.AllUserLogs, models.UserLogEntry{
			UserID:           logs[i].UserID,
			SessionLogEvents: logs[i].Events,
		})
	}

	predictions, err := s.classifier.PredictBatch(ctx, req)
	if err != nil {
		var shapeErr *integration.ErrBadResponseShape
		if errors.As(err, &shapeErr) {
			return nil, fmt.Errorf("%w: %v", ErrClassifierBadResponse, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrClassifierUnavailable, err)
	}

	return predictions, nil
}

func (s *evaluationService) newResult(testID string, flaggedUsers, flaggedCenters []string, stats ParticipationStats) *models.EvaluationResult {
	if flaggedUsers == nil {
		flaggedUsers = []string{}
	}
	if flaggedCenters == nil {
		flaggedCenters = []string{}
	}

	return &models.EvaluationResult{
		ID:             uuid.New().String(),
		TestID:         testID,
		FlaggedUsers:   flaggedUsers,
		FlaggedCenters: flaggedCenters,
		Summary: models.Summary{
			TotalRegistered: stats.Registered,
			TotalGiven:      stats.Given,
			TotalNotGiven:   stats.NotGiven,
			TotalFlagged:    len(flaggedUsers),
		},
		CreatedAt: time.Now().UTC(),
	}
}

func (s *evaluationService) notifyCompleted(ctx context.Context, result *models.EvaluationResult) {
	if s.publisher == nil {
		return
	}

	event := models.EvaluationCompletedEvent{
		TestID:         result.TestID,
		ResultID:       result.ID,
		TotalFlagged:   result.Summary.TotalFlagged,
		FlaggedCenters: len(result.FlaggedCenters),
		CompletedAt:    result.CreatedAt,
	}

	if err := s.publisher.PublishEvaluationCompleted(ctx, event); err != nil {
		s.logger.Error().Err(err).Str("test_id", result.TestID).Msg("Failed to publish evaluation.completed event")
	}
}

func buildResponse(message string, result *models.EvaluationResult, usernames map[string]string) *models.EvaluateTestResponse {
	flagged := make([]models.FlaggedUser, 0, len(result.FlaggedUsers))
	for _, id := range result.FlaggedUsers {
		flagged = append(flagged, models.FlaggedUser{
			ID:       id,
			Username: usernames[id],
		})
	}

	return &models.EvaluateTestResponse{
		Message:        message,
		TestID:         result.TestID,
		FlaggedUsers:   flagged,
		FlaggedCenters: result.FlaggedCenters,
		Summary:        result.Summary,
	}
}

func (s *evaluationService) GetLatestResult(ctx context.Context, testID string) (*models.EvaluationResult, error) {
	if _, err := uuid.Parse(testID); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTestID, testID)
	}

	result, err := s.resultRepo.GetLatestByTestID(ctx, testID)
	if err != nil {
		return nil, fmt.Errorf("failed to load evaluation result: %w", err)
	}
	if result == nil {
		return nil, fmt.Errorf("%w: %s", ErrResultNotFound, testID)
	}

	return result, nil
}

func (s *evaluationService) GetResultHistory(ctx context.Context, testID string) ([]models.EvaluationResult, error) {
	if _, err := uuid.Parse(testID); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTestID, testID)
	}

	results, err := s.resultRepo.ListByTestID(ctx, testID)
	if err != nil {
		return nil, fmt.Errorf("failed to load evaluation history: %w", err)
	}

	return results, nil
}

func (s *evaluationService) GetServiceStatus(ctx context.Context) (*models.HealthCheckResponse, error) {
	dbOK := true
	if err := s.resultRepo.Ping(ctx); err != nil {
		dbOK = false
		s.logger.Error().Err(err).Msg("Database health check failed")
	}

	rabbitOK := s.broker != nil && !s.broker.IsClosed()
	if !rabbitOK {
		s.logger.Error().Msg("RabbitMQ health check failed")
	}

	response := &models.HealthCheckResponse{
		Status:    "healthy",
		Database:  dbOK,
		RabbitMQ:  rabbitOK,
		Timestamp: time.Now(),
	}

	if !dbOK || !rabbitOK {
		response.Status = "degraded"
	}

	return response, nil
}
