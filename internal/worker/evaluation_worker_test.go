package worker

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ansh212/Onlineportal/internal/models"
	"github.com/Ansh212/Onlineportal/internal/service"
	"github.com/Ansh212/Onlineportal/internal/worker/queue"
)

type stubEvaluationService struct {
	err   error
	calls []string
}

func (s *stubEvaluationService) EvaluateTest(ctx context.Context, testID string) (*models.EvaluateTestResponse, error) {
	s.calls = append(s.calls, testID)
	if s.err != nil {
		return nil, s.err
	}
	return &models.EvaluateTestResponse{TestID: testID}, nil
}

func (s *stubEvaluationService) GetLatestResult(ctx context.Context, testID string) (*models.EvaluationResult, error) {
	return nil, nil
}

func (s *stubEvaluationService) GetResultHistory(ctx context.Context, testID string) ([]models.EvaluationResult, error) {
	return nil, nil
}

func (s *stubEvaluationService) GetServiceStatus(ctx context.Context) (*models.HealthCheckResponse, error) {
	return nil, nil
}

type capturingPublisher struct {
	failed []models.EvaluationFailedEvent
}

func (p *capturingPublisher) PublishEvaluationCompleted(ctx context.Context, event models.EvaluationCompletedEvent) error {
	return nil
}

func (p *capturingPublisher) PublishEvaluationFailed(ctx context.Context, event models.EvaluationFailedEvent) error {
	p.failed = append(p.failed, event)
	return nil
}

type recordedOutcome struct {
	acked    bool
	nacked   bool
	requeued bool
}

func message(body []byte, outcome *recordedOutcome) queue.RabbitMQMessage {
	return queue.RabbitMQMessage{
		Body: body,
		Ack: func(multiple bool) error {
			outcome.acked = true
			return nil
		},
		Nack: func(multiple bool, requeue bool) error {
			outcome.nacked = true
			outcome.requeued = requeue
			return nil
		},
	}
}

func newTestWorker(svc service.EvaluationService) (*evaluationWorker, *capturingPublisher) {
	pub := &capturingPublisher{}
	w := NewEvaluationWorker(
		NewWorkerPool(1, zerolog.Nop()),
		nil, // consumer not needed for direct message processing
		svc,
		pub,
		zerolog.Nop(),
	)
	return w.(*evaluationWorker), pub
}

func TestProcessMessage_AckOnSuccess(t *testing.T) {
	svc := &stubEvaluationService{}
	w, pub := newTestWorker(svc)

	var outcome recordedOutcome
	body := []byte(`{"test_id":"9a4a1d2b-6c3e-4f5a-8b7c-0d1e2f3a4b5c"}`)

	err := w.processMessage(context.Background(), message(body, &outcome))

	require.NoError(t, err)
	assert.True(t, outcome.acked)
	assert.Equal(t, []string{"9a4a1d2b-6c3e-4f5a-8b7c-0d1e2f3a4b5c"}, svc.calls)
	assert.Equal(t, 1, w.GetStats().TotalProcessed)
	assert.Empty(t, pub.failed)
}

func TestProcessMessage_DropsUnparseableBody(t *testing.T) {
	svc := &stubEvaluationService{}
	w, _ := newTestWorker(svc)

	var outcome recordedOutcome
	err := w.processMessage(context.Background(), message([]byte(`not json`), &outcome))

	require.Error(t, err)
	assert.True(t, outcome.nacked)
	assert.False(t, outcome.requeued, "a bad payload must not loop forever")
	assert.Empty(t, svc.calls)
}

func TestProcessMessage_ValidationErrorIsPermanent(t *testing.T) {
	svc := &stubEvaluationService{
		err: fmt.Errorf("%w: gone", service.ErrTestNotFound),
	}
	w, pub := newTestWorker(svc)

	var outcome recordedOutcome
	body := []byte(`{"test_id":"9a4a1d2b-6c3e-4f5a-8b7c-0d1e2f3a4b5c"}`)

	err := w.processMessage(context.Background(), message(body, &outcome))

	require.Error(t, err)
	assert.True(t, outcome.nacked)
	assert.False(t, outcome.requeued)

	// A dead run is announced so the portal stops waiting for a result.
	require.Len(t, pub.failed, 1)
	assert.Equal(t, "9a4a1d2b-6c3e-4f5a-8b7c-0d1e2f3a4b5c", pub.failed[0].TestID)
	assert.Contains(t, pub.failed[0].Error, "test not found")
	assert.False(t, pub.failed[0].FailedAt.IsZero())
}

func TestProcessMessage_TransientErrorIsRequeued(t *testing.T) {
	svc := &stubEvaluationService{
		err: fmt.Errorf("%w: %v", service.ErrClassifierUnavailable, errors.New("timeout")),
	}
	w, pub := newTestWorker(svc)

	var outcome recordedOutcome
	body := []byte(`{"test_id":"9a4a1d2b-6c3e-4f5a-8b7c-0d1e2f3a4b5c"}`)

	err := w.processMessage(context.Background(), message(body, &outcome))

	require.Error(t, err)
	assert.True(t, outcome.nacked)
	assert.True(t, outcome.requeued)
	assert.Empty(t, pub.failed, "a requeued run is not dead yet")
}
