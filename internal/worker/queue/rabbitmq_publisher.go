package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/Ansh212/Onlineportal/internal/models"
)

// EventPublisher notifies the rest of the portal about finished evaluations.
type EventPublisher interface {
	PublishEvaluationCompleted(ctx context.Context, event models.EvaluationCompletedEvent) error
	PublishEvaluationFailed(ctx context.Context, event models.EvaluationFailedEvent) error
}

type rabbitMQPublisher struct {
	channel  *amqp.Channel
	exchange string
	logger   zerolog.Logger
}

func NewRabbitMQPublisher(channel *amqp.Channel, exchange string, logger zerolog.Logger) EventPublisher {
	return &rabbitMQPublisher{
		channel:  channel,
		exchange: exchange,
		logger:   logger,
	}
}

func (p *rabbitMQPublisher) PublishEvaluationCompleted(ctx context.Context, event models.EvaluationCompletedEvent) error {
	return p.publish(ctx, "evaluation.completed", event)
}

func (p *rabbitMQPublisher) PublishEvaluationFailed(ctx context.Context, event models.EvaluationFailedEvent) error {
	return p.publish(ctx, "evaluation.failed", event)
}

func (p *rabbitMQPublisher) publish(ctx context.Context, routingKey string, event interface{}) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	err = p.channel.PublishWithContext(
		ctx,
		p.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish %s event: %w", routingKey, err)
	}

	p.logger.Debug().Str("routing_key", routingKey).Msg("Event published")
	return nil
}
