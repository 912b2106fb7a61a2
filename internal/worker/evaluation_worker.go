package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Ansh212/Onlineportal/internal/models"
	"github.com/Ansh212/Onlineportal/internal/service"
	"github.com/Ansh212/Onlineportal/internal/worker/queue"
)

// EvaluationWorker drives evaluations requested over the message queue.
// Each evaluation.requested event runs the same pipeline as the HTTP path.
type EvaluationWorker interface {
	Start(ctx context.Context) error
	Stop() error
	GetStats() WorkerStats
}

type WorkerStats struct {
	ActiveWorkers  int `json:"active_workers"`
	TotalProcessed int `json:"total_processed"`
	FailedJobs     int `json:"failed_jobs"`
	QueueLength    int `json:"queue_length"`
}

type evaluationWorker struct {
	workerPool        *WorkerPool
	queueConsumer     queue.RabbitMQConsumer
	evaluationService service.EvaluationService
	publisher         queue.EventPublisher
	logger            zerolog.Logger
	stats             WorkerStats
	statsMutex        sync.RWMutex
	startTime         time.Time
}

func NewEvaluationWorker(
	workerPool *WorkerPool,
	queueConsumer queue.RabbitMQConsumer,
	evaluationService service.EvaluationService,
	publisher queue.EventPublisher,
	logger zerolog.Logger,
) EvaluationWorker {
	return &evaluationWorker{
		workerPool:        workerPool,
		queueConsumer:     queueConsumer,
		evaluationService: evaluationService,
		publisher:         publisher,
		logger:            logger,
		startTime:         time.Now(),
	}
}

func (w *evaluationWorker) Start(ctx context.Context) error {
	w.logger.Info().Msg("Starting evaluation worker...")

	if err := w.workerPool.Start(ctx); err != nil {
		return fmt.Errorf("failed to start worker pool: %w", err)
	}

	msgs, err := w.queueConsumer.Consume(ctx)
	if err != nil {
		return fmt.Errorf("failed to start consuming messages: %w", err)
	}

	go w.processMessages(ctx, msgs)

	w.logger.Info().Msg("Evaluation worker started")
	return nil
}

func (w *evaluationWorker) Stop() error {
	w.logger.Info().Msg("Stopping evaluation worker...")

	if err := w.queueConsumer.Close(); err != nil {
		w.logger.Error().Err(err).Msg("Failed to close queue consumer")
	}

	if err := w.workerPool.Stop(); err != nil {
		w.logger.Error().Err(err).Msg("Failed to stop worker pool")
	}

	w.statsMutex.RLock()
	defer w.statsMutex.RUnlock()

	w.logger.Info().
		Int("total_processed", w.stats.TotalProcessed).
		Int("failed_jobs", w.stats.FailedJobs).
		Dur("uptime", time.Since(w.startTime)).
		Msg("Evaluation worker stopped")

	return nil
}

func (w *evaluationWorker) processMessages(ctx context.Context, msgs <-chan queue.RabbitMQMessage) {
	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("Stopping message processing")
			return
		case msg, ok := <-msgs:
			if !ok {
				w.logger.Warn().Msg("Message channel closed")
				return
			}

			w.workerPool.Submit(func() {
				if err := w.processMessage(ctx, msg); err != nil {
					w.logger.Error().Err(err).Msg("Failed to process message")

					w.statsMutex.Lock()
					w.stats.FailedJobs++
					w.statsMutex.Unlock()
				}
			})
		}
	}
}

func (w *evaluationWorker) processMessage(ctx context.Context, msg queue.RabbitMQMessage) error {
	var event models.EvaluationRequestedEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		// Unparseable message; drop it so it does not loop forever.
		_ = msg.Nack(false, false)
		return fmt.Errorf("failed to decode evaluation.requested event: %w", err)
	}

	w.logger.Info().Str("test_id", event.TestID).Msg("Handling evaluation.requested event")

	_, err := w.evaluationService.EvaluateTest(ctx, event.TestID)
	if err != nil {
		// Validation errors are permanent, do not requeue. Nobody will
		// retry this test id, so tell the portal the run is dead.
		if errors.Is(err, service.ErrInvalidTestID) || errors.Is(err, service.ErrTestNotFound) {
			w.notifyFailed(ctx, event.TestID, err)
			_ = msg.Nack(false, false)
			return err
		}

		// Transient failure (classifier, database). Requeue for a retry.
		_ = msg.Nack(false, true)
		return err
	}

	w.statsMutex.Lock()
	w.stats.TotalProcessed++
	w.statsMutex.Unlock()

	return msg.Ack(false)
}

func (w *evaluationWorker) notifyFailed(ctx context.Context, testID string, cause error) {
	if w.publisher == nil {
		return
	}

	event := models.EvaluationFailedEvent{
		TestID:   testID,
		Error:    cause.Error(),
		FailedAt: time.Now().UTC(),
	}

	if err := w.publisher.PublishEvaluationFailed(ctx, event); err != nil {
		w.logger.Error().Err(err).Str("test_id", testID).Msg("Failed to publish evaluation.failed event")
	}
}

func (w *evaluationWorker) GetStats() WorkerStats {
	w.statsMutex.RLock()
	stats := w.stats
	w.statsMutex.RUnlock()

	stats.ActiveWorkers = w.workerPool.GetActiveWorkers()
	stats.QueueLength = w.workerPool.GetQueueLength()
	return stats
}
