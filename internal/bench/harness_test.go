package bench

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tpcbench/tpcbench/internal/tpcc"
)

type recordingInvoker struct {
	mu       sync.Mutex
	perRound map[int]map[string]int
	failKind string
}

func newRecordingInvoker(failKind string) *recordingInvoker {
	return &recordingInvoker{perRound: make(map[int]map[string]int), failKind: failKind}
}

func (inv *recordingInvoker) Invoke(_ context.Context, kind string, round int) Outcome {
	inv.mu.Lock()
	if inv.perRound[round] == nil {
		inv.perRound[round] = make(map[string]int)
	}
	inv.perRound[round][kind]++
	inv.mu.Unlock()

	if kind == inv.failKind {
		return Outcome{Kind: kind, Success: false, Error: "boom", Timestamp: time.Now()}
	}
	return Outcome{Kind: kind, Success: true, LatencyMS: 1, Timestamp: time.Now()}
}

func TestRunnerInvalidSpec(t *testing.T) {
	r := NewRunner(newRecordingInvoker(""), nil, time.Millisecond)
	ctx := context.Background()

	_, err := r.Run(ctx, RunSpec{Concurrency: 1, Duration: time.Second})
	require.ErrorIs(t, err, ErrInvalidRunSpec)

	_, err = r.Run(ctx, RunSpec{Mix: []string{"A"}, Duration: time.Second})
	require.ErrorIs(t, err, ErrInvalidRunSpec)

	_, err = r.Run(ctx, RunSpec{Mix: []string{"A"}, Concurrency: 1})
	require.ErrorIs(t, err, ErrInvalidRunSpec)
}

func TestRunnerSummaryInvariants(t *testing.T) {
	inv := newRecordingInvoker("B")
	r := NewRunner(inv, nil, 5*time.Millisecond)

	report, err := r.Run(context.Background(), RunSpec{
		Mix:         []string{"A", "B"},
		Concurrency: 4,
		Duration:    50 * time.Millisecond,
	})
	require.NoError(t, err)

	s := report.Summary
	require.Equal(t, len(report.Results), s.Total)
	require.Equal(t, s.Total, s.Successful+s.Failed)
	require.GreaterOrEqual(t, s.ErrorRate, 0.0)
	require.LessOrEqual(t, s.ErrorRate, 100.0)
	require.GreaterOrEqual(t, s.Throughput, 0.0)
	require.Positive(t, s.Total)
	// half of each round targets the failing kind
	require.Equal(t, s.Successful, s.Failed)
}

func TestRunnerRoundRobinMix(t *testing.T) {
	inv := newRecordingInvoker("")
	r := NewRunner(inv, nil, 20*time.Millisecond)

	report, err := r.Run(context.Background(), RunSpec{
		Mix:         []string{"A", "B", "C"},
		Concurrency: 5,
		Duration:    10 * time.Millisecond,
	})
	require.NoError(t, err)
	require.NotEmpty(t, report.Results)

	// slots 0..4 over mix [A B C] give A,B,C,A,B in every round
	inv.mu.Lock()
	defer inv.mu.Unlock()
	for round, kinds := range inv.perRound {
		require.Equal(t, 2, kinds["A"], "round %d", round)
		require.Equal(t, 2, kinds["B"], "round %d", round)
		require.Equal(t, 1, kinds["C"], "round %d", round)
	}
}

func TestRunnerFailureIsolation(t *testing.T) {
	inv := newRecordingInvoker("B")
	r := NewRunner(inv, nil, 5*time.Millisecond)

	report, err := r.Run(context.Background(), RunSpec{
		Mix:         []string{"A", "B"},
		Concurrency: 2,
		Duration:    30 * time.Millisecond,
	})
	require.NoError(t, err)
	require.Positive(t, report.Summary.Successful, "failures in one slot must not abort siblings")
	require.Positive(t, report.Summary.Failed)
}

func TestRunnerAwaitsFinalRound(t *testing.T) {
	inv := newRecordingInvoker("")
	r := NewRunner(inv, nil, 5*time.Millisecond)

	report, err := r.Run(context.Background(), RunSpec{
		Mix:         []string{"A"},
		Concurrency: 3,
		Duration:    20 * time.Millisecond,
	})
	require.NoError(t, err)
	// every launched invocation is awaited and recorded
	require.Zero(t, report.Summary.Total%3)
	require.GreaterOrEqual(t, report.Summary.Duration, 0.02)
}

func TestRunnerContextCancel(t *testing.T) {
	inv := newRecordingInvoker("")
	r := NewRunner(inv, nil, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := r.Run(ctx, RunSpec{
		Mix:         []string{"A"},
		Concurrency: 2,
		Duration:    time.Minute,
	})
	require.NoError(t, err)
	require.NotNil(t, report)
}

func TestEngineInvokerRejectsUnknownKind(t *testing.T) {
	inv := NewEngineInvoker(nil, nil, nil)

	outcome := inv.Invoke(context.Background(), "BOGUS", 0)
	require.False(t, outcome.Success)
	require.Equal(t, tpcc.ClassValidation, outcome.Class)
}

func TestDefaultParamSourceOrderIDsAreUnique(t *testing.T) {
	src := &DefaultParamSource{
		WarehouseID: 1, DistrictID: 1, CustomerID: 1,
		OrderItems: []tpcc.NewOrderItem{{ItemID: 1, Quantity: 1}},
	}

	seen := make(map[int]bool)
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req, err := src.Params(context.Background(), tpcc.TxNewOrder, 0)
			require.NoError(t, err)
			id := req.(tpcc.NewOrderRequest).OrderID
			mu.Lock()
			require.False(t, seen[id], "order id %d issued twice", id)
			seen[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
}

func TestDefaultParamSourceCoversAllTypes(t *testing.T) {
	src := &DefaultParamSource{
		WarehouseID: 1, DistrictID: 1, CustomerID: 1,
		PaymentAmount: 100, DeliveryOrder: 1, CarrierID: 1, Threshold: 10,
	}
	ctx := context.Background()

	for _, txType := range []tpcc.TxType{
		tpcc.TxNewOrder, tpcc.TxPayment, tpcc.TxOrderStatus, tpcc.TxDelivery, tpcc.TxStockLevel,
	} {
		req, err := src.Params(ctx, txType, 0)
		require.NoError(t, err)
		require.Equal(t, txType, req.TxType())
	}

	_, err := src.Params(ctx, tpcc.TxType("NOPE"), 0)
	require.ErrorIs(t, err, tpcc.ErrValidation)
}
