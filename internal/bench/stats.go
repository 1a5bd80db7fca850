package bench

import "time"

// Outcome is one raw record produced by a single invocation.
type Outcome struct {
	Kind      string    `json:"transaction_type"`
	Success   bool      `json:"success"`
	LatencyMS float64   `json:"execution_time_ms"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
	Error     string    `json:"error,omitempty"`
	Class     string    `json:"error_class,omitempty"`
}

// Summary reduces the raw outcome records of one run.
type Summary struct {
	Total        int     `json:"total_transactions"`
	Successful   int     `json:"successful_transactions"`
	Failed       int     `json:"failed_transactions"`
	Throughput   float64 `json:"throughput"`
	ErrorRate    float64 `json:"error_rate"`
	AvgLatencyMS float64 `json:"avg_response_time_ms"`
	Duration     float64 `json:"duration_seconds"`
}

// Summarize computes throughput over successful records and wall time,
// error rate as a percentage of all records, and mean latency over
// successful records only.
func Summarize(outcomes []Outcome, elapsed time.Duration) Summary {
	s := Summary{Total: len(outcomes), Duration: elapsed.Seconds()}

	var latencySum float64
	for _, o := range outcomes {
		if o.Success {
			s.Successful++
			latencySum += o.LatencyMS
		}
	}
	s.Failed = s.Total - s.Successful

	if s.Duration > 0 {
		s.Throughput = float64(s.Successful) / s.Duration
	}
	if s.Total > 0 {
		s.ErrorRate = float64(s.Failed) / float64(s.Total) * 100
	}
	if s.Successful > 0 {
		s.AvgLatencyMS = latencySum / float64(s.Successful)
	}

	return s
}
