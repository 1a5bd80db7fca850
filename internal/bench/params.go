package bench

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/tpcbench/tpcbench/internal/tpcc"
)

// ParamSource supplies per-transaction-type input parameters. Round
// indexes let implementations vary parameters deterministically; the
// harness itself never inspects the returned request.
type ParamSource interface {
	Params(ctx context.Context, txType tpcc.TxType, round int) (tpcc.Request, error)
}

// DefaultParamSource produces the fixed default workload: every request
// targets one warehouse/district/customer. New-Order ids start above the
// district's current maximum and increment atomically so concurrent
// invocations do not collide on the uniqueness guard.
type DefaultParamSource struct {
	WarehouseID   int
	DistrictID    int
	CustomerID    int
	PaymentAmount float64
	OrderItems    []tpcc.NewOrderItem
	DeliveryOrder int
	CarrierID     int
	Threshold     int

	nextOrderID atomic.Int64
}

// NewDefaultParamSource seeds the order id counter from the backend.
func NewDefaultParamSource(ctx context.Context, engine *tpcc.Service) (*DefaultParamSource, error) {
	s := &DefaultParamSource{
		WarehouseID:   1,
		DistrictID:    1,
		CustomerID:    1,
		PaymentAmount: 100.0,
		OrderItems:    []tpcc.NewOrderItem{{ItemID: 1, Quantity: 1}},
		DeliveryOrder: 1,
		CarrierID:     1,
		Threshold:     10,
	}
	max, err := engine.MaxOrderID(ctx, s.WarehouseID, s.DistrictID)
	if err != nil {
		return nil, fmt.Errorf("bench: seed order id: %w", err)
	}
	s.nextOrderID.Store(int64(max))
	return s, nil
}

// Params returns the typed request for one invocation.
func (s *DefaultParamSource) Params(_ context.Context, txType tpcc.TxType, _ int) (tpcc.Request, error) {
	switch txType {
	case tpcc.TxNewOrder:
		return tpcc.NewOrderRequest{
			WarehouseID: s.WarehouseID,
			DistrictID:  s.DistrictID,
			CustomerID:  s.CustomerID,
			OrderID:     int(s.nextOrderID.Add(1)),
			Items:       s.OrderItems,
		}, nil
	case tpcc.TxPayment:
		return tpcc.PaymentRequest{
			WarehouseID: s.WarehouseID,
			DistrictID:  s.DistrictID,
			CustomerID:  s.CustomerID,
			Amount:      s.PaymentAmount,
		}, nil
	case tpcc.TxOrderStatus:
		return tpcc.OrderStatusRequest{
			WarehouseID: s.WarehouseID,
			DistrictID:  s.DistrictID,
			CustomerID:  s.CustomerID,
		}, nil
	case tpcc.TxDelivery:
		return tpcc.DeliveryRequest{
			WarehouseID: s.WarehouseID,
			DistrictID:  s.DistrictID,
			OrderID:     s.DeliveryOrder,
			CarrierID:   s.CarrierID,
		}, nil
	case tpcc.TxStockLevel:
		return tpcc.StockLevelRequest{
			WarehouseID: s.WarehouseID,
			DistrictID:  s.DistrictID,
			Threshold:   s.Threshold,
		}, nil
	default:
		return nil, fmt.Errorf("%w: no parameters for type %q", tpcc.ErrValidation, txType)
	}
}
