package tpcc

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Service is the transaction engine. Every profile re-reads the state it
// needs on each invocation; no entity state is cached across calls.
type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewService builds the transaction engine on the given repository.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// Execute dispatches a typed request to the matching profile. It is the
// single entry point used by the load harness.
func (s *Service) Execute(ctx context.Context, req Request) (any, error) {
	switch r := req.(type) {
	case NewOrderRequest:
		return s.NewOrder(ctx, r)
	case PaymentRequest:
		return s.Payment(ctx, r)
	case OrderStatusRequest:
		return s.OrderStatus(ctx, r)
	case DeliveryRequest:
		return s.Delivery(ctx, r)
	case StockLevelRequest:
		return s.StockLevel(ctx, r)
	default:
		return nil, fmt.Errorf("%w: unsupported request type %T", ErrValidation, req)
	}
}

// NewOrder inserts one order header plus its lines as a single atomic
// unit: a failure partway leaves no partial order visible.
func (s *Service) NewOrder(ctx context.Context, req NewOrderRequest) (*NewOrderResult, error) {
	var result *NewOrderResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		customer, err := tx.GetCustomer(ctx, req.WarehouseID, req.DistrictID, req.CustomerID)
		if err != nil {
			return err
		}

		exists, err := tx.OrderExists(ctx, req.WarehouseID, req.DistrictID, req.OrderID)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: order %d already exists", ErrConflict, req.OrderID)
		}

		if err := tx.InsertOrder(ctx, Order{
			WarehouseID: req.WarehouseID,
			DistrictID:  req.DistrictID,
			ID:          req.OrderID,
			CustomerID:  req.CustomerID,
			LineCount:   len(req.Items),
			EntryDate:   s.now(),
		}); err != nil {
			return err
		}

		var total float64
		for i, item := range req.Items {
			price, err := tx.GetItemPrice(ctx, item.ItemID)
			if err != nil {
				return err
			}
			amount := price * float64(item.Quantity)
			total += amount

			if err := tx.InsertOrderLine(ctx, OrderLine{
				WarehouseID:       req.WarehouseID,
				DistrictID:        req.DistrictID,
				OrderID:           req.OrderID,
				Number:            i + 1,
				ItemID:            item.ItemID,
				SupplyWarehouseID: req.WarehouseID,
				Quantity:          item.Quantity,
				Amount:            amount,
				DistInfo:          fmt.Sprintf("DIST_%d", req.DistrictID),
			}); err != nil {
				return err
			}
		}

		result = &NewOrderResult{
			OrderID:      req.OrderID,
			CustomerID:   req.CustomerID,
			CustomerName: customerName(customer),
			WarehouseID:  req.WarehouseID,
			DistrictID:   req.DistrictID,
			Items:        req.Items,
			LineCount:    len(req.Items),
			TotalAmount:  total,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Payment updates customer balance, warehouse and district year-to-date
// revenue, and appends one history row, all in one atomic unit. The
// customer row is locked first, then warehouse and district in that fixed
// order, so concurrent payments against the same warehouse cannot form a
// deadlock cycle.
func (s *Service) Payment(ctx context.Context, req PaymentRequest) (*PaymentResult, error) {
	var result *PaymentResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		customer, err := tx.GetCustomerForUpdate(ctx, req.WarehouseID, req.DistrictID, req.CustomerID)
		if err != nil {
			return err
		}

		newBalance := customer.Balance - req.Amount
		newYTD := customer.YTDPayment + req.Amount
		newCnt := customer.PaymentCnt + 1

		if err := tx.UpdateCustomerPayment(ctx, req.WarehouseID, req.DistrictID, req.CustomerID, newBalance, newYTD, newCnt); err != nil {
			return err
		}
		if err := tx.AddWarehouseYTD(ctx, req.WarehouseID, req.Amount); err != nil {
			return err
		}
		if err := tx.AddDistrictYTD(ctx, req.WarehouseID, req.DistrictID, req.Amount); err != nil {
			return err
		}

		now := s.now()
		note := "Payment " + now.Format("20060102150405")
		if len(note) > 24 {
			note = note[:24]
		}
		if err := tx.InsertHistory(ctx, HistoryEntry{
			CustomerID:          req.CustomerID,
			CustomerDistrictID:  req.DistrictID,
			CustomerWarehouseID: req.WarehouseID,
			DistrictID:          req.DistrictID,
			WarehouseID:         req.WarehouseID,
			Date:                now,
			Amount:              req.Amount,
			Data:                note,
		}); err != nil {
			return err
		}

		result = &PaymentResult{
			Customer: CustomerSnapshot{
				ID:         req.CustomerID,
				Balance:    newBalance,
				YTDPayment: newYTD,
				PaymentCnt: newCnt,
			},
			Amount: req.Amount,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// OrderStatus returns the customer snapshot plus up to 10 most recent
// orders expanded with their ordered lines. Read-only; a customer with no
// orders yields an empty order list.
func (s *Service) OrderStatus(ctx context.Context, req OrderStatusRequest) (*OrderStatusResult, error) {
	customer, err := s.repo.GetCustomer(ctx, req.WarehouseID, req.DistrictID, req.CustomerID)
	if err != nil {
		return nil, err
	}

	orders, err := s.repo.RecentOrdersByCustomer(ctx, req.WarehouseID, req.DistrictID, req.CustomerID, 10)
	if err != nil {
		return nil, err
	}

	result := &OrderStatusResult{
		Customer: CustomerSnapshot{
			ID:      req.CustomerID,
			Name:    customerName(customer),
			Balance: customer.Balance,
		},
		Orders: make([]OrderStatusOrder, 0, len(orders)),
	}

	for _, order := range orders {
		lines, err := s.repo.OrderLines(ctx, req.WarehouseID, req.DistrictID, order.ID)
		if err != nil {
			return nil, err
		}
		items := make([]OrderStatusLine, 0, len(lines))
		for _, l := range lines {
			items = append(items, OrderStatusLine{
				Number:            l.Number,
				ItemID:            l.ItemID,
				SupplyWarehouseID: l.SupplyWarehouseID,
				Quantity:          l.Quantity,
				Amount:            l.Amount,
				DeliveryDate:      l.DeliveryDate,
			})
		}
		result.Orders = append(result.Orders, OrderStatusOrder{
			OrderID:   order.ID,
			EntryDate: order.EntryDate,
			CarrierID: order.CarrierID,
			Items:     items,
		})
	}

	return result, nil
}

// Delivery assigns a carrier to an undelivered order, stamps every line
// with the delivery time and increments the owning customer's delivery
// count, atomically. A second call on the same order fails the guard and
// changes nothing.
func (s *Service) Delivery(ctx context.Context, req DeliveryRequest) (*DeliveryResult, error) {
	var result *DeliveryResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.GetOrderForUpdate(ctx, req.WarehouseID, req.DistrictID, req.OrderID)
		if err != nil {
			return err
		}
		if order.CarrierID != nil {
			return fmt.Errorf("%w: order %d already delivered", ErrConflict, req.OrderID)
		}

		deliveredAt := s.now()
		if err := tx.AssignCarrier(ctx, req.WarehouseID, req.DistrictID, req.OrderID, req.CarrierID); err != nil {
			return err
		}
		if err := tx.MarkLinesDelivered(ctx, req.WarehouseID, req.DistrictID, req.OrderID, deliveredAt); err != nil {
			return err
		}
		if err := tx.IncCustomerDeliveryCnt(ctx, req.WarehouseID, req.DistrictID, order.CustomerID); err != nil {
			return err
		}

		result = &DeliveryResult{
			WarehouseID:  req.WarehouseID,
			DistrictID:   req.DistrictID,
			OrderID:      req.OrderID,
			CarrierID:    req.CarrierID,
			CustomerID:   order.CustomerID,
			DeliveryDate: deliveredAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// StockLevel reports the items referenced by the district's 20 most
// recent orders whose warehouse-local stock quantity is strictly below
// the threshold. Read-only; no recent orders yields an empty report.
func (s *Service) StockLevel(ctx context.Context, req StockLevelRequest) (*StockLevelResult, error) {
	result := &StockLevelResult{
		WarehouseID: req.WarehouseID,
		DistrictID:  req.DistrictID,
		Threshold:   req.Threshold,
		Items:       []StockLevelItem{},
	}

	itemIDs, err := s.repo.RecentOrderItemIDs(ctx, req.WarehouseID, req.DistrictID, 20)
	if err != nil {
		return nil, err
	}
	if len(itemIDs) == 0 {
		return result, nil
	}

	stocks, err := s.repo.StocksForItems(ctx, req.WarehouseID, itemIDs)
	if err != nil {
		return nil, err
	}

	for _, stock := range stocks {
		low := stock.Quantity < req.Threshold
		if low {
			result.LowStockCount++
		}
		result.Items = append(result.Items, StockLevelItem{
			ItemID:     stock.ItemID,
			Name:       stock.Name,
			Quantity:   stock.Quantity,
			YTD:        stock.YTD,
			OrderCount: stock.OrderCnt,
			IsLowStock: low,
		})
	}

	return result, nil
}

// MaxOrderID returns the highest order id for a district, 0 when none.
func (s *Service) MaxOrderID(ctx context.Context, warehouseID, districtID int) (int, error) {
	return s.repo.MaxOrderID(ctx, warehouseID, districtID)
}

func customerName(c Customer) string {
	return strings.TrimSpace(c.First + " " + c.Middle + " " + c.Last)
}
