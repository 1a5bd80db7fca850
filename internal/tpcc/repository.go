package tpcc

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tpcbench/tpcbench/internal/platform/db"
)

// Repository exposes the statement-level reads the profiles need outside
// an atomic unit. Read-committed visibility is sufficient for these.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetCustomer(ctx context.Context, warehouseID, districtID, customerID int) (Customer, error)
	RecentOrdersByCustomer(ctx context.Context, warehouseID, districtID, customerID, limit int) ([]Order, error)
	OrderLines(ctx context.Context, warehouseID, districtID, orderID int) ([]OrderLine, error)
	RecentOrderItemIDs(ctx context.Context, warehouseID, districtID, orderLimit int) ([]int, error)
	StocksForItems(ctx context.Context, warehouseID int, itemIDs []int) ([]StockInfo, error)
	MaxOrderID(ctx context.Context, warehouseID, districtID int) (int, error)
}

// TxRepository is the statement set available inside one atomic unit. All
// statements issued through it commit or roll back together.
type TxRepository interface {
	GetCustomer(ctx context.Context, warehouseID, districtID, customerID int) (Customer, error)
	GetCustomerForUpdate(ctx context.Context, warehouseID, districtID, customerID int) (Customer, error)
	OrderExists(ctx context.Context, warehouseID, districtID, orderID int) (bool, error)
	GetItemPrice(ctx context.Context, itemID int) (float64, error)
	InsertOrder(ctx context.Context, order Order) error
	InsertOrderLine(ctx context.Context, line OrderLine) error
	UpdateCustomerPayment(ctx context.Context, warehouseID, districtID, customerID int, balance, ytdPayment float64, paymentCnt int) error
	AddWarehouseYTD(ctx context.Context, warehouseID int, amount float64) error
	AddDistrictYTD(ctx context.Context, warehouseID, districtID int, amount float64) error
	InsertHistory(ctx context.Context, entry HistoryEntry) error
	GetOrderForUpdate(ctx context.Context, warehouseID, districtID, orderID int) (Order, error)
	AssignCarrier(ctx context.Context, warehouseID, districtID, orderID, carrierID int) error
	MarkLinesDelivered(ctx context.Context, warehouseID, districtID, orderID int, deliveredAt time.Time) error
	IncCustomerDeliveryCnt(ctx context.Context, warehouseID, districtID, customerID int) error
}

type dbtx interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

// NewRepository builds the PostgreSQL repository on the shared pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}
