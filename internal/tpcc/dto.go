package tpcc

import (
	"fmt"
	"time"
)

// TxType identifies one of the five transaction profiles.
type TxType string

const (
	TxNewOrder    TxType = "NEW_ORDER"
	TxPayment     TxType = "PAYMENT"
	TxOrderStatus TxType = "ORDER_STATUS"
	TxDelivery    TxType = "DELIVERY"
	TxStockLevel  TxType = "STOCK_LEVEL"
)

// ParseTxType validates a transaction type identifier.
func ParseTxType(s string) (TxType, error) {
	switch t := TxType(s); t {
	case TxNewOrder, TxPayment, TxOrderStatus, TxDelivery, TxStockLevel:
		return t, nil
	default:
		return "", fmt.Errorf("%w: unknown transaction type %q", ErrValidation, s)
	}
}

// Request is implemented by the typed parameter struct of each profile.
type Request interface {
	TxType() TxType
}

// NewOrderItem is one line item of a New-Order request, in input order.
type NewOrderItem struct {
	ItemID   int `json:"i_id" validate:"required,gt=0"`
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

// NewOrderRequest creates one order with zero or more lines. An empty item
// list is a degenerate but legal order with line_count = 0.
type NewOrderRequest struct {
	WarehouseID int            `json:"w_id" validate:"required,gt=0"`
	DistrictID  int            `json:"d_id" validate:"required,gt=0"`
	CustomerID  int            `json:"c_id" validate:"required,gt=0"`
	OrderID     int            `json:"o_id" validate:"required,gt=0"`
	Items       []NewOrderItem `json:"items" validate:"dive"`
}

func (NewOrderRequest) TxType() TxType { return TxNewOrder }

// PaymentRequest applies a payment to one customer.
type PaymentRequest struct {
	WarehouseID int     `json:"w_id" validate:"required,gt=0"`
	DistrictID  int     `json:"d_id" validate:"required,gt=0"`
	CustomerID  int     `json:"c_id" validate:"required,gt=0"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
}

func (PaymentRequest) TxType() TxType { return TxPayment }

// OrderStatusRequest reads a customer snapshot with recent orders.
type OrderStatusRequest struct {
	WarehouseID int `json:"w_id" validate:"required,gt=0"`
	DistrictID  int `json:"d_id" validate:"required,gt=0"`
	CustomerID  int `json:"c_id" validate:"required,gt=0"`
}

func (OrderStatusRequest) TxType() TxType { return TxOrderStatus }

// DeliveryRequest assigns a carrier to one undelivered order.
type DeliveryRequest struct {
	WarehouseID int `json:"w_id" validate:"required,gt=0"`
	DistrictID  int `json:"d_id" validate:"required,gt=0"`
	OrderID     int `json:"o_id" validate:"required,gt=0"`
	CarrierID   int `json:"carrier_id" validate:"required,gt=0"`
}

func (DeliveryRequest) TxType() TxType { return TxDelivery }

// StockLevelRequest reports items from the district's recent orders whose
// stock quantity is strictly below the threshold.
type StockLevelRequest struct {
	WarehouseID int `json:"w_id" validate:"required,gt=0"`
	DistrictID  int `json:"d_id" validate:"required,gt=0"`
	Threshold   int `json:"threshold" validate:"gte=0"`
}

func (StockLevelRequest) TxType() TxType { return TxStockLevel }

// NewOrderResult summarizes a created order.
type NewOrderResult struct {
	OrderID      int            `json:"order_id"`
	CustomerID   int            `json:"customer_id"`
	CustomerName string         `json:"customer_name"`
	WarehouseID  int            `json:"warehouse_id"`
	DistrictID   int            `json:"district_id"`
	Items        []NewOrderItem `json:"items"`
	LineCount    int            `json:"line_count"`
	TotalAmount  float64        `json:"total_amount"`
}

// CustomerSnapshot is the customer state returned by Payment and Order-Status.
type CustomerSnapshot struct {
	ID         int     `json:"id"`
	Name       string  `json:"name,omitempty"`
	Balance    float64 `json:"balance"`
	YTDPayment float64 `json:"ytd_payment,omitempty"`
	PaymentCnt int     `json:"payment_cnt,omitempty"`
}

// PaymentResult is the updated customer balance snapshot.
type PaymentResult struct {
	Customer CustomerSnapshot `json:"customer"`
	Amount   float64          `json:"amount"`
}

// OrderStatusLine is one line of an order in an Order-Status result.
type OrderStatusLine struct {
	Number            int        `json:"number"`
	ItemID            int        `json:"item_id"`
	SupplyWarehouseID int        `json:"supply_w_id"`
	Quantity          int        `json:"quantity"`
	Amount            float64    `json:"amount"`
	DeliveryDate      *time.Time `json:"delivery_date"`
}

// OrderStatusOrder is one recent order expanded with its ordered lines.
type OrderStatusOrder struct {
	OrderID   int               `json:"order_id"`
	EntryDate time.Time         `json:"entry_date"`
	CarrierID *int              `json:"carrier_id"`
	Items     []OrderStatusLine `json:"items"`
}

// OrderStatusResult holds the customer snapshot and up to 10 most recent
// orders by descending order id.
type OrderStatusResult struct {
	Customer CustomerSnapshot   `json:"customer"`
	Orders   []OrderStatusOrder `json:"orders"`
}

// DeliveryResult confirms a carrier assignment.
type DeliveryResult struct {
	WarehouseID  int       `json:"warehouse_id"`
	DistrictID   int       `json:"district_id"`
	OrderID      int       `json:"order_id"`
	CarrierID    int       `json:"carrier_id"`
	CustomerID   int       `json:"customer_id"`
	DeliveryDate time.Time `json:"delivery_date"`
}

// StockLevelItem is the per-item detail of a low-stock report.
type StockLevelItem struct {
	ItemID     int     `json:"item_id"`
	Name       string  `json:"item_name"`
	Quantity   int     `json:"quantity"`
	YTD        float64 `json:"ytd"`
	OrderCount int     `json:"order_count"`
	IsLowStock bool    `json:"is_low_stock"`
}

// StockLevelResult is the low-stock report for one district.
type StockLevelResult struct {
	WarehouseID   int              `json:"warehouse_id"`
	DistrictID    int              `json:"district_id"`
	Threshold     int              `json:"threshold"`
	LowStockCount int              `json:"low_stock_count"`
	Items         []StockLevelItem `json:"items"`
}

// Response is the gateway-facing envelope: one of Data or Error is set.
type Response struct {
	Success bool    `json:"success"`
	Data    any     `json:"data"`
	Error   *string `json:"error"`
}

// OK wraps a success payload.
func OK(data any) Response {
	return Response{Success: true, Data: data}
}

// Fail wraps a failure message.
func Fail(err error) Response {
	msg := err.Error()
	return Response{Success: false, Error: &msg}
}
