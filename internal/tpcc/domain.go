// Package tpcc implements the five canonical TPC-C transaction profiles
// against a PostgreSQL backend.
package tpcc

import "time"

// Warehouse is the root of the warehouse/district/customer hierarchy.
type Warehouse struct {
	ID   int     `json:"w_id"`
	Name string  `json:"name"`
	YTD  float64 `json:"ytd"`
}

// District belongs to one warehouse.
type District struct {
	WarehouseID int     `json:"w_id"`
	ID          int     `json:"d_id"`
	YTD         float64 `json:"ytd"`
	NextOrderID int     `json:"next_o_id"`
}

// Customer is scoped to one warehouse+district pair. Balance is mutated
// only by Payment, DeliveryCnt only by Delivery.
type Customer struct {
	WarehouseID int     `json:"w_id"`
	DistrictID  int     `json:"d_id"`
	ID          int     `json:"c_id"`
	First       string  `json:"first"`
	Middle      string  `json:"middle"`
	Last        string  `json:"last"`
	Balance     float64 `json:"balance"`
	YTDPayment  float64 `json:"ytd_payment"`
	PaymentCnt  int     `json:"payment_cnt"`
	DeliveryCnt int     `json:"delivery_cnt"`
}

// Item is part of the global, warehouse-independent catalog.
type Item struct {
	ID    int     `json:"i_id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// Stock tracks per-warehouse inventory for one item. Quantity is never
// mutated by the profiles implemented here; replenishment is external.
type Stock struct {
	WarehouseID int     `json:"w_id"`
	ItemID      int     `json:"i_id"`
	Quantity    int     `json:"quantity"`
	YTD         float64 `json:"ytd"`
	OrderCnt    int     `json:"order_cnt"`
	RemoteCnt   int     `json:"remote_cnt"`
}

// Order is created by New-Order. CarrierID transitions nil → assigned
// exactly once, by Delivery.
type Order struct {
	WarehouseID int       `json:"w_id"`
	DistrictID  int       `json:"d_id"`
	ID          int       `json:"o_id"`
	CustomerID  int       `json:"c_id"`
	CarrierID   *int      `json:"carrier_id"`
	LineCount   int       `json:"line_count"`
	EntryDate   time.Time `json:"entry_date"`
}

// OrderLine amount is item price × quantity captured at insertion time.
// DeliveryDate is set for all lines of an order in the same atomic unit
// that assigns the order's carrier.
type OrderLine struct {
	WarehouseID       int        `json:"w_id"`
	DistrictID        int        `json:"d_id"`
	OrderID           int        `json:"o_id"`
	Number            int        `json:"number"`
	ItemID            int        `json:"i_id"`
	SupplyWarehouseID int        `json:"supply_w_id"`
	Quantity          int        `json:"quantity"`
	Amount            float64    `json:"amount"`
	DistInfo          string     `json:"-"`
	DeliveryDate      *time.Time `json:"delivery_date"`
}

// HistoryEntry is an append-only audit row; exactly one per successful
// Payment.
type HistoryEntry struct {
	CustomerID          int       `json:"c_id"`
	CustomerDistrictID  int       `json:"c_d_id"`
	CustomerWarehouseID int       `json:"c_w_id"`
	DistrictID          int       `json:"d_id"`
	WarehouseID         int       `json:"w_id"`
	Date                time.Time `json:"date"`
	Amount              float64   `json:"amount"`
	Data                string    `json:"data"`
}

// StockInfo is the per-item detail returned by Stock-Level, joined with
// the item catalog.
type StockInfo struct {
	ItemID   int     `json:"item_id"`
	Name     string  `json:"item_name"`
	Quantity int     `json:"quantity"`
	YTD      float64 `json:"ytd"`
	OrderCnt int     `json:"order_count"`
}
