// Package jobs runs benchmark loads in the background through Asynq.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/tpcbench/tpcbench/internal/bench"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeBenchRun is the task type for asynchronous load runs.
	TaskTypeBenchRun = "bench:run"
)

// BenchRunPayload describes one queued load run.
type BenchRunPayload struct {
	RunID           string   `json:"run_id"`
	Mix             []string `json:"mix"`
	Concurrency     int      `json:"concurrency"`
	DurationSeconds int      `json:"duration_seconds"`
}

// NewBenchRunTask constructs an Asynq task.
func NewBenchRunTask(payload BenchRunPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeBenchRun, data), nil
}

// NewBenchRunHandler processes TaskTypeBenchRun tasks: it executes the
// run and persists the report under the payload's run id.
func NewBenchRunHandler(runner *bench.Runner, store *bench.ReportStore, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload BenchRunPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("jobs: bad bench run payload: %w", asynq.SkipRetry)
		}

		report, err := runner.Run(ctx, bench.RunSpec{
			Mix:         payload.Mix,
			Concurrency: payload.Concurrency,
			Duration:    time.Duration(payload.DurationSeconds) * time.Second,
		})
		if err != nil {
			// A malformed spec will not heal on retry.
			logger.Error("bench run task failed", slog.String("run_id", payload.RunID), slog.Any("error", err))
			return fmt.Errorf("jobs: run %s: %v: %w", payload.RunID, err, asynq.SkipRetry)
		}
		report.RunID = payload.RunID

		if err := store.Save(ctx, report); err != nil {
			logger.Error("bench report save failed", slog.String("run_id", payload.RunID), slog.Any("error", err))
			return err
		}

		logger.Info("bench run completed",
			slog.String("run_id", payload.RunID),
			slog.Int("total", report.Summary.Total),
			slog.Float64("throughput", report.Summary.Throughput))
		return nil
	}
}

// Client submits jobs to the queue. It satisfies the gateway's enqueuer
// contract.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpts)}
}

// EnqueueRun queues an asynchronous load run.
func (c *Client) EnqueueRun(ctx context.Context, runID string, spec bench.RunSpec) error {
	task, err := NewBenchRunTask(BenchRunPayload{
		RunID:           runID,
		Mix:             spec.Mix,
		Concurrency:     spec.Concurrency,
		DurationSeconds: int(spec.Duration / time.Second),
	})
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
	return err
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
