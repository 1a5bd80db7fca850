package bench

import (
	"context"
	"time"

	"github.com/tpcbench/tpcbench/internal/tpcc"
)

// TxRecorder receives one measurement per finished invocation.
type TxRecorder interface {
	RecordTransaction(kind, class string, seconds float64)
}

// EngineInvoker adapts the transaction engine and a parameter source to
// the harness. Failures are folded into the outcome record, never
// propagated: error rate is a run result, not a run failure.
type EngineInvoker struct {
	engine   *tpcc.Service
	params   ParamSource
	recorder TxRecorder
}

// NewEngineInvoker builds an invoker; recorder may be nil.
func NewEngineInvoker(engine *tpcc.Service, params ParamSource, recorder TxRecorder) *EngineInvoker {
	return &EngineInvoker{engine: engine, params: params, recorder: recorder}
}

// Invoke obtains parameters for the transaction type, executes it and
// records the outcome. Latency covers the engine call only.
func (inv *EngineInvoker) Invoke(ctx context.Context, kind string, round int) Outcome {
	outcome := Outcome{Kind: kind, Timestamp: time.Now()}

	txType, err := tpcc.ParseTxType(kind)
	if err != nil {
		return inv.fail(outcome, err, 0)
	}
	req, err := inv.params.Params(ctx, txType, round)
	if err != nil {
		return inv.fail(outcome, err, 0)
	}

	start := time.Now()
	data, err := inv.engine.Execute(ctx, req)
	latency := time.Since(start)
	outcome.LatencyMS = float64(latency.Microseconds()) / 1000.0

	if err != nil {
		return inv.fail(outcome, err, latency.Seconds())
	}

	outcome.Success = true
	outcome.Data = data
	outcome.Class = tpcc.ClassOK
	if inv.recorder != nil {
		inv.recorder.RecordTransaction(kind, tpcc.ClassOK, latency.Seconds())
	}
	return outcome
}

func (inv *EngineInvoker) fail(outcome Outcome, err error, seconds float64) Outcome {
	outcome.Success = false
	outcome.Error = err.Error()
	outcome.Class = tpcc.FailureClass(err)
	if inv.recorder != nil {
		inv.recorder.RecordTransaction(outcome.Kind, outcome.Class, seconds)
	}
	return outcome
}
