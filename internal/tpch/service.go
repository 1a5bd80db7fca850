package tpch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tpcbench/tpcbench/internal/bench"
	"github.com/tpcbench/tpcbench/internal/tpcc"
)

// QueryResult carries the outcome of one catalog query execution.
// Execution failures are folded into the result rather than returned:
// a slow or failing warehouse query is a measurement, not a fault.
type QueryResult struct {
	QueryID         string           `json:"query_id"`
	Name            string           `json:"name"`
	Success         bool             `json:"success"`
	RowCount        int              `json:"row_count"`
	ExecutionTimeMS float64          `json:"execution_time_ms"`
	Timestamp       time.Time        `json:"timestamp"`
	Rows            []map[string]any `json:"data,omitempty"`
	Error           string           `json:"error,omitempty"`
}

// Service runs catalog queries against the analytical schema.
type Service struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
	now    func() time.Time
}

func NewService(pool *pgxpool.Pool, logger *slog.Logger) *Service {
	return &Service{pool: pool, logger: logger, now: time.Now}
}

// Run executes one catalog query with the given named parameter
// overrides. An unknown query id is a validation error; anything that
// happens after dispatch lands in the result record.
func (s *Service) Run(ctx context.Context, queryID string, overrides map[string]string) (*QueryResult, error) {
	q, ok := Lookup(queryID)
	if !ok {
		return nil, fmt.Errorf("%w: unknown query %q", tpcc.ErrValidation, queryID)
	}

	result := &QueryResult{QueryID: q.ID, Name: q.Name, Timestamp: s.now()}
	params := ResolveParams(q, overrides)

	start := time.Now()
	rows, err := s.pool.Query(ctx, q.SQL, params...)
	if err != nil {
		result.ExecutionTimeMS = float64(time.Since(start).Microseconds()) / 1000.0
		result.Error = err.Error()
		s.logger.Warn("analytical query failed", "query_id", q.ID, "error", err)
		return result, nil
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, fd := range fields {
		columns[i] = fd.Name
	}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			result.ExecutionTimeMS = float64(time.Since(start).Microseconds()) / 1000.0
			result.Error = err.Error()
			return result, nil
		}
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		result.Rows = append(result.Rows, row)
	}
	result.ExecutionTimeMS = float64(time.Since(start).Microseconds()) / 1000.0

	if err := rows.Err(); err != nil {
		result.Error = err.Error()
		result.Rows = nil
		s.logger.Warn("analytical query failed", "query_id", q.ID, "error", err)
		return result, nil
	}

	result.Success = true
	result.RowCount = len(result.Rows)
	return result, nil
}

// Invoker drives catalog queries through the load harness. The kind of
// each invocation is a catalog query id; parameter overrides are fixed
// per run.
type Invoker struct {
	service   *Service
	overrides map[string]string
	recorder  bench.TxRecorder
}

func NewInvoker(service *Service, overrides map[string]string, recorder bench.TxRecorder) *Invoker {
	return &Invoker{service: service, overrides: overrides, recorder: recorder}
}

func (inv *Invoker) Invoke(ctx context.Context, kind string, _ int) bench.Outcome {
	outcome := bench.Outcome{Kind: kind, Timestamp: time.Now()}

	result, err := inv.service.Run(ctx, kind, inv.overrides)
	if err != nil {
		outcome.Error = err.Error()
		outcome.Class = tpcc.FailureClass(err)
		inv.record(kind, outcome.Class, 0)
		return outcome
	}

	outcome.LatencyMS = result.ExecutionTimeMS
	if result.Error != "" {
		outcome.Error = result.Error
		outcome.Class = tpcc.ClassStorage
		inv.record(kind, outcome.Class, result.ExecutionTimeMS/1000.0)
		return outcome
	}

	outcome.Success = true
	outcome.Class = tpcc.ClassOK
	// Row payloads are dropped from harness records; a concurrent run
	// measures latency, not result sets.
	outcome.Data = map[string]any{"row_count": result.RowCount}
	inv.record(kind, tpcc.ClassOK, result.ExecutionTimeMS/1000.0)
	return outcome
}

func (inv *Invoker) record(kind, class string, seconds float64) {
	if inv.recorder != nil {
		inv.recorder.RecordTransaction(kind, class, seconds)
	}
}
