/**
 * Extraction task queue.
 *
 * The upload handler enqueues one extraction task per submitted image; the
 * worker dequeues, runs the pipeline and publishes the result to the status
 * cache. Concurrency defaults to 1 so pipeline runs stay serialized even if
 * several uploads land at once.
 */

package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/goldengeneration/signup-service/internal/apperrors"
	"github.com/goldengeneration/signup-service/internal/logging"
	"github.com/goldengeneration/signup-service/internal/pipeline"
	"github.com/goldengeneration/signup-service/internal/storage"
)

// TypeExtractIdentity is the task type for ID-document extraction.
const TypeExtractIdentity = "id-document:extract"

const signupQueue = "signup"

// ExtractTask is the payload of one extraction task.
type ExtractTask struct {
	RegistrationID string               `json:"registrationId"`
	Filename       string               `json:"filename"`
	MimeType       string               `json:"mimeType"`
	Source         pipeline.ImageSource `json:"source"`
	Image          []byte               `json:"image"`
}

// Enqueuer submits extraction tasks.
type Enqueuer struct {
	client *asynq.Client
}

// NewEnqueuer creates a task submitter for the given Redis URL.
func NewEnqueuer(redisURL string) (*Enqueuer, error) {
	redisOpt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	return &Enqueuer{client: asynq.NewClient(redisOpt)}, nil
}

// EnqueueExtraction queues one extraction task.
func (e *Enqueuer) EnqueueExtraction(ctx context.Context, task *ExtractTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to encode extraction task: %w", err)
	}

	_, err = e.client.EnqueueContext(ctx,
		asynq.NewTask(TypeExtractIdentity, payload),
		asynq.Queue(signupQueue),
		asynq.MaxRetry(2),
		asynq.Timeout(2*time.Minute),
	)
	if err != nil {
		return apperrors.NewStorageError("enqueue extraction", err)
	}
	return nil
}

// Close releases the client connection.
func (e *Enqueuer) Close() error {
	return e.client.Close()
}

// Worker consumes extraction tasks and runs the pipeline.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	pipe   *pipeline.Pipeline
	cache  *storage.ExtractionCache
	log    *logging.Logger
}

// WorkerConfig holds worker configuration.
type WorkerConfig struct {
	RedisURL    string
	Concurrency int
	Pipeline    *pipeline.Pipeline
	Cache       *storage.ExtractionCache
	Logger      *logging.Logger
}

// NewWorker creates the task worker.
func NewWorker(cfg *WorkerConfig) (*Worker, error) {
	if cfg.Pipeline == nil {
		return nil, fmt.Errorf("pipeline is required")
	}
	if cfg.Cache == nil {
		return nil, fmt.Errorf("extraction cache is required")
	}

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	w := &Worker{
		pipe:  cfg.Pipeline,
		cache: cfg.Cache,
		log:   cfg.Logger,
	}

	w.server = asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			signupQueue: 10,
			"default":   1,
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			w.log.Error("task processing error", "type", task.Type(), "error", err)
		}),
	})

	w.mux = asynq.NewServeMux()
	w.mux.HandleFunc(TypeExtractIdentity, w.handleExtract)
	return w, nil
}

// handleExtract runs one pipeline invocation and publishes the outcome.
// A recognition failure is a terminal, user-visible outcome (the user
// retries or fills the form manually), so the task is not retried for it.
func (w *Worker) handleExtract(ctx context.Context, task *asynq.Task) error {
	var t ExtractTask
	if err := json.Unmarshal(task.Payload(), &t); err != nil {
		return fmt.Errorf("failed to decode extraction task: %w", err)
	}

	w.log.Info("extraction task started", "registration", t.RegistrationID, "source", t.Source, "bytes", len(t.Image))

	if err := w.cache.SetStatus(ctx, t.RegistrationID, &storage.ExtractionStatus{
		State: storage.ExtractionProcessing,
	}); err != nil {
		return err
	}

	identity, err := w.pipe.Run(ctx, &pipeline.RawImage{
		Data:     t.Image,
		MimeType: t.MimeType,
		Source:   t.Source,
	})
	if err != nil {
		if code := apperrors.CodeOf(err); code == apperrors.CodeRecognitionFailed {
			w.log.Warn("recognition failed", "registration", t.RegistrationID, "error", err)
			return w.cache.SetStatus(ctx, t.RegistrationID, &storage.ExtractionStatus{
				State: storage.ExtractionFailed,
				Error: "text extraction failed; please fill the fields manually",
			})
		}
		return err
	}

	return w.cache.SetStatus(ctx, t.RegistrationID, &storage.ExtractionStatus{
		State:    storage.ExtractionDone,
		Identity: identity,
	})
}

// Start begins consuming tasks.
func (w *Worker) Start() error {
	return w.server.Start(w.mux)
}

// Stop drains in-flight tasks and shuts the worker down.
func (w *Worker) Stop() {
	w.server.Stop()
	w.server.Shutdown()
}
