/**
 * Redis-backed extraction status cache.
 *
 * The front-end polls the status of a queued extraction while the worker
 * runs the pipeline. Results are transient: once the user merges the
 * extracted record into the form and submits, the cache entry expires.
 */

package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/goldengeneration/signup-service/internal/apperrors"
	"github.com/goldengeneration/signup-service/internal/pipeline"
)

// Extraction states.
const (
	ExtractionQueued     = "queued"
	ExtractionProcessing = "processing"
	ExtractionDone       = "done"
	ExtractionFailed     = "failed"
)

const extractionTTL = 30 * time.Minute

// ExtractionStatus is what the polling endpoint returns.
type ExtractionStatus struct {
	State     string                      `json:"state"`
	Identity  *pipeline.ExtractedIdentity `json:"identity,omitempty"`
	Error     string                      `json:"error,omitempty"`
	UpdatedAt time.Time                   `json:"updatedAt"`
}

// ExtractionCache stores per-registration extraction status in Redis.
type ExtractionCache struct {
	client *redis.Client
}

// NewExtractionCache connects to Redis.
func NewExtractionCache(redisURL string) (*ExtractionCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &ExtractionCache{client: client}, nil
}

func extractionKey(registrationID string) string {
	return "signup:extraction:" + registrationID
}

// SetStatus writes the current status for a registration's extraction.
func (c *ExtractionCache) SetStatus(ctx context.Context, registrationID string, status *ExtractionStatus) error {
	status.UpdatedAt = time.Now().UTC()
	payload, err := json.Marshal(status)
	if err != nil {
		return apperrors.NewStorageError("encode extraction status", err)
	}
	if err := c.client.Set(ctx, extractionKey(registrationID), payload, extractionTTL).Err(); err != nil {
		return apperrors.NewStorageError("set extraction status", err)
	}
	return nil
}

// GetStatus reads the current status, or a not-found error when no
// extraction has been queued (or the entry expired).
func (c *ExtractionCache) GetStatus(ctx context.Context, registrationID string) (*ExtractionStatus, error) {
	payload, err := c.client.Get(ctx, extractionKey(registrationID)).Bytes()
	if err == redis.Nil {
		return nil, apperrors.NewNotFoundError("extraction", registrationID)
	}
	if err != nil {
		return nil, apperrors.NewStorageError("get extraction status", err)
	}

	var status ExtractionStatus
	if err := json.Unmarshal(payload, &status); err != nil {
		return nil, apperrors.NewStorageError("decode extraction status", err)
	}
	return &status, nil
}

// Close releases the Redis connection.
func (c *ExtractionCache) Close() error {
	return c.client.Close()
}
