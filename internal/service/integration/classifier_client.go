package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/Ansh212/Onlineportal/internal/models"
)

// ClassifierClient is the gateway to the external prediction service. One
// batch call per evaluated test; the service internals are opaque here.
type ClassifierClient interface {
	PredictBatch(ctx context.Context, req models.ClassifierRequest) ([]models.Prediction, error)
}

// ErrBadResponseShape marks a contract violation: the service answered, but
// not with the JSON array of predictions the contract promises.
type ErrBadResponseShape struct {
	Detail string
}

func (e *ErrBadResponseShape) Error() string {
	return fmt.Sprintf("unexpected response shape from prediction service: %s", e.Detail)
}

type classifierClient struct {
	url        string
	retryCount int
	retryDelay time.Duration
	client     *http.Client
	logger     zerolog.Logger
}

func NewClassifierClient(url string, timeout time.Duration, retryCount int, retryDelay time.Duration, logger zerolog.Logger) ClassifierClient {
	return &classifierClient{
		url:        url,
		retryCount: retryCount,
		retryDelay: retryDelay,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

func (c *classifierClient) PredictBatch(ctx context.Context, req models.ClassifierRequest) ([]models.Prediction, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode prediction request: %w", err)
	}

	var lastErr error

	for i := 0; i <= c.retryCount; i++ {
		if i > 0 {
			c.logger.Warn().Int("attempt", i).Msg("Retrying prediction request")
			select {
			case <-time.After(c.retryDelay * time.Duration(i)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("failed to create prediction request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(httpReq)
		if err != nil {
			lastErr = fmt.Errorf("failed to call prediction service: %w", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read prediction response: %w", err)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("prediction service returned status %d: %s", resp.StatusCode, string(body))
			if resp.StatusCode < http.StatusInternalServerError {
				// 4xx will not get better on retry.
				return nil, lastErr
			}
			continue
		}

		return decodePredictions(body)
	}

	return nil, fmt.Errorf("prediction request failed after %d attempts: %w", c.retryCount+1, lastErr)
}

// decodePredictions enforces the contract: the top-level value must be a
// JSON array of {userId, prediction_label} objects. Anything else is a
// contract violation, not something to retry.
func decodePredictions(body []byte) ([]models.Prediction, error) {
	var raw json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &ErrBadResponseShape{Detail: "not valid JSON"}
	}

	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &ErrBadResponseShape{Detail: "top-level value is not an array"}
	}

	var predictions []models.Prediction
	if err := json.Unmarshal(raw, &predictions); err != nil {
		return nil, &ErrBadResponseShape{Detail: err.Error()}
	}

	return predictions, nil
}
