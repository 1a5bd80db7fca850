package bench

import (
	"context"
	"errors"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
)

// ErrReportNotFound indicates no stored report exists under the run id.
var ErrReportNotFound = errors.New("report not found")

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const reportKeyPrefix = "bench:report:"

// ReportStore keeps finished run reports in Redis so asynchronous runs
// can be fetched after the fact. Reports expire after the configured TTL.
type ReportStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewReportStore builds a store; ttl must be positive.
func NewReportStore(client *redis.Client, ttl time.Duration) *ReportStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &ReportStore{client: client, ttl: ttl}
}

// Save stores the report under its run id.
func (s *ReportStore) Save(ctx context.Context, report *Report) error {
	if report == nil || report.RunID == "" {
		return fmt.Errorf("bench: report must carry a run id")
	}
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("bench: marshal report: %w", err)
	}
	if err := s.client.Set(ctx, reportKeyPrefix+report.RunID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("bench: save report: %w", err)
	}
	return nil
}

// Get fetches the report stored under the run id.
func (s *ReportStore) Get(ctx context.Context, runID string) (*Report, error) {
	data, err := s.client.Get(ctx, reportKeyPrefix+runID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: run %s", ErrReportNotFound, runID)
		}
		return nil, fmt.Errorf("bench: get report: %w", err)
	}
	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("bench: unmarshal report: %w", err)
	}
	return &report, nil
}
