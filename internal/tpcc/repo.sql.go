package tpcc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

func (r *repository) GetCustomer(ctx context.Context, warehouseID, districtID, customerID int) (Customer, error) {
	const query = `
		SELECT c_w_id, c_d_id, c_id, c_first, c_middle, c_last,
		       c_balance, c_ytd_payment, c_payment_cnt, c_delivery_cnt
		FROM tpcc_customer
		WHERE c_w_id = $1 AND c_d_id = $2 AND c_id = $3`
	return r.scanCustomer(ctx, query, warehouseID, districtID, customerID)
}

func (r *repository) GetCustomerForUpdate(ctx context.Context, warehouseID, districtID, customerID int) (Customer, error) {
	const query = `
		SELECT c_w_id, c_d_id, c_id, c_first, c_middle, c_last,
		       c_balance, c_ytd_payment, c_payment_cnt, c_delivery_cnt
		FROM tpcc_customer
		WHERE c_w_id = $1 AND c_d_id = $2 AND c_id = $3
		FOR UPDATE`
	return r.scanCustomer(ctx, query, warehouseID, districtID, customerID)
}

func (r *repository) scanCustomer(ctx context.Context, query string, args ...any) (Customer, error) {
	var c Customer
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&c.WarehouseID, &c.DistrictID, &c.ID, &c.First, &c.Middle, &c.Last,
		&c.Balance, &c.YTDPayment, &c.PaymentCnt, &c.DeliveryCnt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, fmt.Errorf("%w: customer %d", ErrNotFound, args[len(args)-1])
		}
		return Customer{}, fmt.Errorf("tpcc: get customer: %w", err)
	}
	return c, nil
}

func (r *repository) OrderExists(ctx context.Context, warehouseID, districtID, orderID int) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM tpcc_orders
			WHERE o_w_id = $1 AND o_d_id = $2 AND o_id = $3
		)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, warehouseID, districtID, orderID).Scan(&exists); err != nil {
		return false, fmt.Errorf("tpcc: order exists: %w", err)
	}
	return exists, nil
}

func (r *repository) GetItemPrice(ctx context.Context, itemID int) (float64, error) {
	const query = `SELECT i_price FROM tpcc_item WHERE i_id = $1`
	var price float64
	if err := r.db.QueryRow(ctx, query, itemID).Scan(&price); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("%w: item %d", ErrNotFound, itemID)
		}
		return 0, fmt.Errorf("tpcc: get item price: %w", err)
	}
	return price, nil
}

func (r *repository) InsertOrder(ctx context.Context, order Order) error {
	const query = `
		INSERT INTO tpcc_orders (o_w_id, o_d_id, o_id, o_c_id, o_carrier_id, o_ol_cnt, o_all_local, o_entry_d)
		VALUES ($1, $2, $3, $4, NULL, $5, 1, $6)`
	_, err := r.db.Exec(ctx, query,
		order.WarehouseID, order.DistrictID, order.ID, order.CustomerID, order.LineCount, order.EntryDate)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: order %d already exists", ErrConflict, order.ID)
		}
		return fmt.Errorf("tpcc: insert order: %w", err)
	}
	return nil
}

func (r *repository) InsertOrderLine(ctx context.Context, line OrderLine) error {
	const query = `
		INSERT INTO tpcc_order_line (ol_w_id, ol_d_id, ol_o_id, ol_number,
			ol_i_id, ol_supply_w_id, ol_quantity, ol_amount, ol_dist_info)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.Exec(ctx, query,
		line.WarehouseID, line.DistrictID, line.OrderID, line.Number,
		line.ItemID, line.SupplyWarehouseID, line.Quantity, line.Amount, line.DistInfo)
	if err != nil {
		return fmt.Errorf("tpcc: insert order line: %w", err)
	}
	return nil
}

func (r *repository) UpdateCustomerPayment(ctx context.Context, warehouseID, districtID, customerID int, balance, ytdPayment float64, paymentCnt int) error {
	const query = `
		UPDATE tpcc_customer
		SET c_balance = $1, c_ytd_payment = $2, c_payment_cnt = $3
		WHERE c_w_id = $4 AND c_d_id = $5 AND c_id = $6`
	_, err := r.db.Exec(ctx, query, balance, ytdPayment, paymentCnt, warehouseID, districtID, customerID)
	if err != nil {
		return fmt.Errorf("tpcc: update customer payment: %w", err)
	}
	return nil
}

func (r *repository) AddWarehouseYTD(ctx context.Context, warehouseID int, amount float64) error {
	const query = `UPDATE tpcc_warehouse SET w_ytd = w_ytd + $1 WHERE w_id = $2`
	_, err := r.db.Exec(ctx, query, amount, warehouseID)
	if err != nil {
		return fmt.Errorf("tpcc: add warehouse ytd: %w", err)
	}
	return nil
}

func (r *repository) AddDistrictYTD(ctx context.Context, warehouseID, districtID int, amount float64) error {
	const query = `UPDATE tpcc_district SET d_ytd = d_ytd + $1 WHERE d_w_id = $2 AND d_id = $3`
	_, err := r.db.Exec(ctx, query, amount, warehouseID, districtID)
	if err != nil {
		return fmt.Errorf("tpcc: add district ytd: %w", err)
	}
	return nil
}

func (r *repository) InsertHistory(ctx context.Context, entry HistoryEntry) error {
	const query = `
		INSERT INTO tpcc_history (h_c_id, h_c_d_id, h_c_w_id, h_d_id, h_w_id, h_date, h_amount, h_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.Exec(ctx, query,
		entry.CustomerID, entry.CustomerDistrictID, entry.CustomerWarehouseID,
		entry.DistrictID, entry.WarehouseID, entry.Date, entry.Amount, entry.Data)
	if err != nil {
		return fmt.Errorf("tpcc: insert history: %w", err)
	}
	return nil
}

func (r *repository) GetOrderForUpdate(ctx context.Context, warehouseID, districtID, orderID int) (Order, error) {
	const query = `
		SELECT o_w_id, o_d_id, o_id, o_c_id, o_carrier_id, o_ol_cnt, o_entry_d
		FROM tpcc_orders
		WHERE o_w_id = $1 AND o_d_id = $2 AND o_id = $3
		FOR UPDATE`
	var o Order
	err := r.db.QueryRow(ctx, query, warehouseID, districtID, orderID).Scan(
		&o.WarehouseID, &o.DistrictID, &o.ID, &o.CustomerID, &o.CarrierID, &o.LineCount, &o.EntryDate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
		}
		return Order{}, fmt.Errorf("tpcc: get order: %w", err)
	}
	return o, nil
}

func (r *repository) AssignCarrier(ctx context.Context, warehouseID, districtID, orderID, carrierID int) error {
	const query = `
		UPDATE tpcc_orders SET o_carrier_id = $1
		WHERE o_w_id = $2 AND o_d_id = $3 AND o_id = $4`
	_, err := r.db.Exec(ctx, query, carrierID, warehouseID, districtID, orderID)
	if err != nil {
		return fmt.Errorf("tpcc: assign carrier: %w", err)
	}
	return nil
}

func (r *repository) MarkLinesDelivered(ctx context.Context, warehouseID, districtID, orderID int, deliveredAt time.Time) error {
	const query = `
		UPDATE tpcc_order_line SET ol_delivery_d = $1
		WHERE ol_w_id = $2 AND ol_d_id = $3 AND ol_o_id = $4`
	_, err := r.db.Exec(ctx, query, deliveredAt, warehouseID, districtID, orderID)
	if err != nil {
		return fmt.Errorf("tpcc: mark lines delivered: %w", err)
	}
	return nil
}

func (r *repository) IncCustomerDeliveryCnt(ctx context.Context, warehouseID, districtID, customerID int) error {
	const query = `
		UPDATE tpcc_customer SET c_delivery_cnt = c_delivery_cnt + 1
		WHERE c_w_id = $1 AND c_d_id = $2 AND c_id = $3`
	_, err := r.db.Exec(ctx, query, warehouseID, districtID, customerID)
	if err != nil {
		return fmt.Errorf("tpcc: inc delivery cnt: %w", err)
	}
	return nil
}

func (r *repository) RecentOrdersByCustomer(ctx context.Context, warehouseID, districtID, customerID, limit int) ([]Order, error) {
	const query = `
		SELECT o_w_id, o_d_id, o_id, o_c_id, o_carrier_id, o_ol_cnt, o_entry_d
		FROM tpcc_orders
		WHERE o_w_id = $1 AND o_d_id = $2 AND o_c_id = $3
		ORDER BY o_id DESC
		LIMIT $4`
	rows, err := r.db.Query(ctx, query, warehouseID, districtID, customerID, limit)
	if err != nil {
		return nil, fmt.Errorf("tpcc: recent orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.WarehouseID, &o.DistrictID, &o.ID, &o.CustomerID, &o.CarrierID, &o.LineCount, &o.EntryDate); err != nil {
			return nil, fmt.Errorf("tpcc: scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("tpcc: recent orders: %w", err)
	}
	return orders, nil
}

func (r *repository) OrderLines(ctx context.Context, warehouseID, districtID, orderID int) ([]OrderLine, error) {
	const query = `
		SELECT ol_w_id, ol_d_id, ol_o_id, ol_number, ol_i_id, ol_supply_w_id,
		       ol_quantity, ol_amount, ol_delivery_d
		FROM tpcc_order_line
		WHERE ol_w_id = $1 AND ol_d_id = $2 AND ol_o_id = $3
		ORDER BY ol_number`
	rows, err := r.db.Query(ctx, query, warehouseID, districtID, orderID)
	if err != nil {
		return nil, fmt.Errorf("tpcc: order lines: %w", err)
	}
	defer rows.Close()

	var lines []OrderLine
	for rows.Next() {
		var l OrderLine
		if err := rows.Scan(&l.WarehouseID, &l.DistrictID, &l.OrderID, &l.Number, &l.ItemID,
			&l.SupplyWarehouseID, &l.Quantity, &l.Amount, &l.DeliveryDate); err != nil {
			return nil, fmt.Errorf("tpcc: scan order line: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("tpcc: order lines: %w", err)
	}
	return lines, nil
}

// RecentOrderItemIDs returns the distinct item ids referenced by order lines
// of the district's most recent orderLimit orders, by descending order id.
func (r *repository) RecentOrderItemIDs(ctx context.Context, warehouseID, districtID, orderLimit int) ([]int, error) {
	const query = `
		SELECT DISTINCT ol.ol_i_id
		FROM tpcc_order_line ol
		WHERE ol.ol_w_id = $1 AND ol.ol_d_id = $2
		  AND ol.ol_o_id IN (
			SELECT o_id FROM tpcc_orders
			WHERE o_w_id = $1 AND o_d_id = $2
			ORDER BY o_id DESC
			LIMIT $3
		  )
		ORDER BY ol.ol_i_id`
	rows, err := r.db.Query(ctx, query, warehouseID, districtID, orderLimit)
	if err != nil {
		return nil, fmt.Errorf("tpcc: recent order item ids: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("tpcc: scan item id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("tpcc: recent order item ids: %w", err)
	}
	return ids, nil
}

func (r *repository) StocksForItems(ctx context.Context, warehouseID int, itemIDs []int) ([]StockInfo, error) {
	const query = `
		SELECT s.s_i_id, i.i_name, s.s_quantity, s.s_ytd, s.s_order_cnt
		FROM tpcc_stock s
		JOIN tpcc_item i ON i.i_id = s.s_i_id
		WHERE s.s_w_id = $1 AND s.s_i_id = ANY($2)
		ORDER BY s.s_i_id`
	rows, err := r.db.Query(ctx, query, warehouseID, itemIDs)
	if err != nil {
		return nil, fmt.Errorf("tpcc: stocks for items: %w", err)
	}
	defer rows.Close()

	var stocks []StockInfo
	for rows.Next() {
		var s StockInfo
		if err := rows.Scan(&s.ItemID, &s.Name, &s.Quantity, &s.YTD, &s.OrderCnt); err != nil {
			return nil, fmt.Errorf("tpcc: scan stock: %w", err)
		}
		stocks = append(stocks, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("tpcc: stocks for items: %w", err)
	}
	return stocks, nil
}

func (r *repository) MaxOrderID(ctx context.Context, warehouseID, districtID int) (int, error) {
	const query = `
		SELECT COALESCE(MAX(o_id), 0) FROM tpcc_orders
		WHERE o_w_id = $1 AND o_d_id = $2`
	var max int
	if err := r.db.QueryRow(ctx, query, warehouseID, districtID).Scan(&max); err != nil {
		return 0, fmt.Errorf("tpcc: max order id: %w", err)
	}
	return max, nil
}
