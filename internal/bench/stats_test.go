package bench

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil, 0)
	require.Zero(t, s.Total)
	require.Zero(t, s.Throughput)
	require.Zero(t, s.ErrorRate)
	require.Zero(t, s.AvgLatencyMS)
}

func TestSummarize(t *testing.T) {
	outcomes := []Outcome{
		{Success: true, LatencyMS: 10},
		{Success: true, LatencyMS: 30},
		{Success: false, LatencyMS: 500},
		{Success: false},
	}
	s := Summarize(outcomes, 2*time.Second)

	require.Equal(t, 4, s.Total)
	require.Equal(t, 2, s.Successful)
	require.Equal(t, 2, s.Failed)
	require.InDelta(t, 1.0, s.Throughput, 0.0001)
	require.InDelta(t, 50.0, s.ErrorRate, 0.0001)
	// failed latencies are excluded from the mean
	require.InDelta(t, 20.0, s.AvgLatencyMS, 0.0001)
	require.InDelta(t, 2.0, s.Duration, 0.0001)
}

func TestSummarizeAllFailed(t *testing.T) {
	outcomes := []Outcome{{Success: false}, {Success: false}}
	s := Summarize(outcomes, time.Second)

	require.Equal(t, 2, s.Failed)
	require.Zero(t, s.Throughput)
	require.InDelta(t, 100.0, s.ErrorRate, 0.0001)
	require.Zero(t, s.AvgLatencyMS)
}
