// Package bench contains the concurrent load-generation harness: it
// dispatches rounds of transaction invocations against an engine for a
// bounded duration and reduces the raw outcomes into a summary.
package bench

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrInvalidRunSpec indicates a malformed run specification.
var ErrInvalidRunSpec = errors.New("invalid run spec")

// Invoker executes one invocation of the given kind and reports its
// outcome. Implementations must never panic and must fold failures into
// the outcome record; one invocation's failure never affects siblings.
type Invoker interface {
	Invoke(ctx context.Context, kind string, round int) Outcome
}

// RunSpec describes one load run.
type RunSpec struct {
	// Mix is the ordered, non-empty list of invocation kinds. Slot i of a
	// round executes Mix[i mod len(Mix)].
	Mix []string
	// Concurrency is the number of invocations launched per round.
	Concurrency int
	// Duration is the wall-clock budget; once exceeded no new round starts.
	Duration time.Duration
}

func (s RunSpec) validate() error {
	if len(s.Mix) == 0 {
		return fmt.Errorf("%w: empty mix", ErrInvalidRunSpec)
	}
	if s.Concurrency <= 0 {
		return fmt.Errorf("%w: concurrency must be positive", ErrInvalidRunSpec)
	}
	if s.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive", ErrInvalidRunSpec)
	}
	return nil
}

// Report is the full result of a run: the reduced summary plus every raw
// outcome record.
type Report struct {
	RunID     string    `json:"run_id,omitempty"`
	StartedAt time.Time `json:"started_at"`
	Summary   Summary   `json:"summary"`
	Results   []Outcome `json:"results"`
}

// Runner drives synchronous rounds of concurrent invocations.
type Runner struct {
	invoker Invoker
	logger  *slog.Logger
	pause   time.Duration
}

// NewRunner builds a harness over the given invoker. pause is the fixed
// yield between rounds; it bounds the issue rate and is not part of any
// transaction's latency.
func NewRunner(invoker Invoker, logger *slog.Logger, pause time.Duration) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if pause <= 0 {
		pause = 100 * time.Millisecond
	}
	return &Runner{invoker: invoker, logger: logger, pause: pause}
}

// Run executes rounds until the wall-clock budget is spent or ctx is
// cancelled. In-flight invocations of the final round are always awaited
// before the summary is produced.
func (r *Runner) Run(ctx context.Context, spec RunSpec) (*Report, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	deadline := start.Add(spec.Duration)
	outcomes := make([]Outcome, 0, spec.Concurrency*16)
	round := 0

	r.logger.Info("load run started",
		slog.Any("mix", spec.Mix),
		slog.Int("concurrency", spec.Concurrency),
		slog.Duration("duration", spec.Duration))

	for time.Now().Before(deadline) && ctx.Err() == nil {
		batch := make([]Outcome, spec.Concurrency)
		g := new(errgroup.Group)
		for i := 0; i < spec.Concurrency; i++ {
			slot := i
			kind := spec.Mix[i%len(spec.Mix)]
			g.Go(func() error {
				batch[slot] = r.invoker.Invoke(ctx, kind, round)
				return nil
			})
		}
		_ = g.Wait()
		outcomes = append(outcomes, batch...)
		round++

		select {
		case <-ctx.Done():
		case <-time.After(r.pause):
		}
	}

	elapsed := time.Since(start)
	summary := Summarize(outcomes, elapsed)

	r.logger.Info("load run finished",
		slog.Int("rounds", round),
		slog.Int("total", summary.Total),
		slog.Float64("throughput", summary.Throughput),
		slog.Float64("error_rate", summary.ErrorRate))

	return &Report{StartedAt: start, Summary: summary, Results: outcomes}, nil
}
