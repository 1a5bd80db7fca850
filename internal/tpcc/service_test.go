package tpcc

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// memoryRepo backs the engine with maps. Writes inside WithTx are staged
// and applied only when the block succeeds, so rollback behavior is
// observable in tests.
type memoryRepo struct {
	customers map[string]Customer
	items     map[int]Item
	stocks    map[string]Stock
	orders    map[string]Order
	lines     map[string][]OrderLine
	history   []HistoryEntry
	warehouse map[int]float64
	district  map[string]float64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		customers: make(map[string]Customer),
		items:     make(map[int]Item),
		stocks:    make(map[string]Stock),
		orders:    make(map[string]Order),
		lines:     make(map[string][]OrderLine),
		warehouse: make(map[int]float64),
		district:  make(map[string]float64),
	}
}

func ckey(w, d, c int) string  { return fmt.Sprintf("%d:%d:%d", w, d, c) }
func okey(w, d, o int) string  { return fmt.Sprintf("%d:%d:%d", w, d, o) }
func skey(w, item int) string  { return fmt.Sprintf("%d:%d", w, item) }
func dkey(w, d int) string     { return fmt.Sprintf("%d:%d", w, d) }

type memoryTx struct {
	repo    *memoryRepo
	pending []func()
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx := &memoryTx{repo: r}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	for _, apply := range tx.pending {
		apply()
	}
	return nil
}

func (r *memoryRepo) GetCustomer(_ context.Context, w, d, c int) (Customer, error) {
	cust, ok := r.customers[ckey(w, d, c)]
	if !ok {
		return Customer{}, fmt.Errorf("%w: customer %d", ErrNotFound, c)
	}
	return cust, nil
}

func (r *memoryRepo) RecentOrdersByCustomer(_ context.Context, w, d, c, limit int) ([]Order, error) {
	var orders []Order
	for _, o := range r.orders {
		if o.WarehouseID == w && o.DistrictID == d && o.CustomerID == c {
			orders = append(orders, o)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID > orders[j].ID })
	if len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}

func (r *memoryRepo) OrderLines(_ context.Context, w, d, o int) ([]OrderLine, error) {
	lines := make([]OrderLine, len(r.lines[okey(w, d, o)]))
	copy(lines, r.lines[okey(w, d, o)])
	return lines, nil
}

func (r *memoryRepo) RecentOrderItemIDs(_ context.Context, w, d, orderLimit int) ([]int, error) {
	var orders []Order
	for _, o := range r.orders {
		if o.WarehouseID == w && o.DistrictID == d {
			orders = append(orders, o)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID > orders[j].ID })
	if len(orders) > orderLimit {
		orders = orders[:orderLimit]
	}
	seen := make(map[int]bool)
	for _, o := range orders {
		for _, l := range r.lines[okey(w, d, o.ID)] {
			seen[l.ItemID] = true
		}
	}
	ids := make([]int, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}

func (r *memoryRepo) StocksForItems(_ context.Context, w int, itemIDs []int) ([]StockInfo, error) {
	var infos []StockInfo
	for _, id := range itemIDs {
		if s, ok := r.stocks[skey(w, id)]; ok {
			infos = append(infos, StockInfo{
				ItemID:   id,
				Name:     r.items[id].Name,
				Quantity: s.Quantity,
				YTD:      s.YTD,
				OrderCnt: s.OrderCnt,
			})
		}
	}
	return infos, nil
}

func (r *memoryRepo) MaxOrderID(_ context.Context, w, d int) (int, error) {
	max := 0
	for _, o := range r.orders {
		if o.WarehouseID == w && o.DistrictID == d && o.ID > max {
			max = o.ID
		}
	}
	return max, nil
}

func (tx *memoryTx) GetCustomer(ctx context.Context, w, d, c int) (Customer, error) {
	return tx.repo.GetCustomer(ctx, w, d, c)
}

func (tx *memoryTx) GetCustomerForUpdate(ctx context.Context, w, d, c int) (Customer, error) {
	return tx.repo.GetCustomer(ctx, w, d, c)
}

func (tx *memoryTx) OrderExists(_ context.Context, w, d, o int) (bool, error) {
	_, ok := tx.repo.orders[okey(w, d, o)]
	return ok, nil
}

func (tx *memoryTx) GetItemPrice(_ context.Context, itemID int) (float64, error) {
	item, ok := tx.repo.items[itemID]
	if !ok {
		return 0, fmt.Errorf("%w: item %d", ErrNotFound, itemID)
	}
	return item.Price, nil
}

func (tx *memoryTx) InsertOrder(_ context.Context, order Order) error {
	tx.pending = append(tx.pending, func() {
		tx.repo.orders[okey(order.WarehouseID, order.DistrictID, order.ID)] = order
	})
	return nil
}

func (tx *memoryTx) InsertOrderLine(_ context.Context, line OrderLine) error {
	tx.pending = append(tx.pending, func() {
		key := okey(line.WarehouseID, line.DistrictID, line.OrderID)
		tx.repo.lines[key] = append(tx.repo.lines[key], line)
	})
	return nil
}

func (tx *memoryTx) UpdateCustomerPayment(_ context.Context, w, d, c int, balance, ytd float64, cnt int) error {
	tx.pending = append(tx.pending, func() {
		cust := tx.repo.customers[ckey(w, d, c)]
		cust.Balance = balance
		cust.YTDPayment = ytd
		cust.PaymentCnt = cnt
		tx.repo.customers[ckey(w, d, c)] = cust
	})
	return nil
}

func (tx *memoryTx) AddWarehouseYTD(_ context.Context, w int, amount float64) error {
	tx.pending = append(tx.pending, func() { tx.repo.warehouse[w] += amount })
	return nil
}

func (tx *memoryTx) AddDistrictYTD(_ context.Context, w, d int, amount float64) error {
	tx.pending = append(tx.pending, func() { tx.repo.district[dkey(w, d)] += amount })
	return nil
}

func (tx *memoryTx) InsertHistory(_ context.Context, entry HistoryEntry) error {
	tx.pending = append(tx.pending, func() { tx.repo.history = append(tx.repo.history, entry) })
	return nil
}

func (tx *memoryTx) GetOrderForUpdate(_ context.Context, w, d, o int) (Order, error) {
	order, ok := tx.repo.orders[okey(w, d, o)]
	if !ok {
		return Order{}, fmt.Errorf("%w: order %d", ErrNotFound, o)
	}
	return order, nil
}

func (tx *memoryTx) AssignCarrier(_ context.Context, w, d, o, carrier int) error {
	tx.pending = append(tx.pending, func() {
		order := tx.repo.orders[okey(w, d, o)]
		order.CarrierID = &carrier
		tx.repo.orders[okey(w, d, o)] = order
	})
	return nil
}

func (tx *memoryTx) MarkLinesDelivered(_ context.Context, w, d, o int, at time.Time) error {
	tx.pending = append(tx.pending, func() {
		key := okey(w, d, o)
		for i := range tx.repo.lines[key] {
			t := at
			tx.repo.lines[key][i].DeliveryDate = &t
		}
	})
	return nil
}

func (tx *memoryTx) IncCustomerDeliveryCnt(_ context.Context, w, d, c int) error {
	tx.pending = append(tx.pending, func() {
		cust := tx.repo.customers[ckey(w, d, c)]
		cust.DeliveryCnt++
		tx.repo.customers[ckey(w, d, c)] = cust
	})
	return nil
}

func seedRepo() *memoryRepo {
	repo := newMemoryRepo()
	repo.customers[ckey(1, 1, 1)] = Customer{
		WarehouseID: 1, DistrictID: 1, ID: 1,
		First: "First1", Middle: "OE", Last: "Last1",
		Balance: 500.00,
	}
	repo.items[1] = Item{ID: 1, Name: "ITEM1", Price: 10.00}
	repo.items[2] = Item{ID: 2, Name: "ITEM2", Price: 2.50}
	repo.stocks[skey(1, 1)] = Stock{WarehouseID: 1, ItemID: 1, Quantity: 5, YTD: 100, OrderCnt: 3}
	repo.stocks[skey(1, 2)] = Stock{WarehouseID: 1, ItemID: 2, Quantity: 50, YTD: 10, OrderCnt: 1}
	return repo
}

func TestNewOrderTotals(t *testing.T) {
	repo := seedRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	result, err := svc.NewOrder(ctx, NewOrderRequest{
		WarehouseID: 1, DistrictID: 1, CustomerID: 1, OrderID: 100,
		Items: []NewOrderItem{{ItemID: 1, Quantity: 2}, {ItemID: 2, Quantity: 4}},
	})
	require.NoError(t, err)
	require.InDelta(t, 30.00, result.TotalAmount, 0.0001)
	require.Equal(t, 2, result.LineCount)

	lines := repo.lines[okey(1, 1, 100)]
	require.Len(t, lines, 2)
	require.Equal(t, 1, lines[0].Number)
	require.Equal(t, 2, lines[1].Number)
	require.InDelta(t, 20.00, lines[0].Amount, 0.0001)
	require.InDelta(t, 10.00, lines[1].Amount, 0.0001)
	require.Equal(t, 2, repo.orders[okey(1, 1, 100)].LineCount)
}

func TestNewOrderEmptyItems(t *testing.T) {
	repo := seedRepo()
	svc := NewService(repo, nil)

	result, err := svc.NewOrder(context.Background(), NewOrderRequest{
		WarehouseID: 1, DistrictID: 1, CustomerID: 1, OrderID: 101,
	})
	require.NoError(t, err)
	require.Zero(t, result.TotalAmount)
	require.Zero(t, result.LineCount)
	require.Equal(t, 0, repo.orders[okey(1, 1, 101)].LineCount)
}

func TestNewOrderUnknownItemLeavesNoPartialOrder(t *testing.T) {
	repo := seedRepo()
	svc := NewService(repo, nil)

	_, err := svc.NewOrder(context.Background(), NewOrderRequest{
		WarehouseID: 1, DistrictID: 1, CustomerID: 1, OrderID: 102,
		Items: []NewOrderItem{{ItemID: 1, Quantity: 1}, {ItemID: 999, Quantity: 1}},
	})
	require.ErrorIs(t, err, ErrNotFound)

	_, exists := repo.orders[okey(1, 1, 102)]
	require.False(t, exists, "order header must not survive a failed line insert")
	require.Empty(t, repo.lines[okey(1, 1, 102)])
}

func TestNewOrderDuplicateID(t *testing.T) {
	repo := seedRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	_, err := svc.NewOrder(ctx, NewOrderRequest{
		WarehouseID: 1, DistrictID: 1, CustomerID: 1, OrderID: 103,
		Items: []NewOrderItem{{ItemID: 1, Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = svc.NewOrder(ctx, NewOrderRequest{
		WarehouseID: 1, DistrictID: 1, CustomerID: 1, OrderID: 103,
		Items: []NewOrderItem{{ItemID: 1, Quantity: 1}},
	})
	require.ErrorIs(t, err, ErrConflict)
	require.Len(t, repo.lines[okey(1, 1, 103)], 1)
}

func TestNewOrderUnknownCustomer(t *testing.T) {
	repo := seedRepo()
	svc := NewService(repo, nil)

	_, err := svc.NewOrder(context.Background(), NewOrderRequest{
		WarehouseID: 1, DistrictID: 1, CustomerID: 42, OrderID: 104,
	})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPayment(t *testing.T) {
	repo := seedRepo()
	svc := NewService(repo, nil)

	result, err := svc.Payment(context.Background(), PaymentRequest{
		WarehouseID: 1, DistrictID: 1, CustomerID: 1, Amount: 50.00,
	})
	require.NoError(t, err)
	require.InDelta(t, 450.00, result.Customer.Balance, 0.0001)
	require.InDelta(t, 50.00, result.Customer.YTDPayment, 0.0001)
	require.Equal(t, 1, result.Customer.PaymentCnt)

	cust := repo.customers[ckey(1, 1, 1)]
	require.InDelta(t, 450.00, cust.Balance, 0.0001)
	require.Equal(t, 1, cust.PaymentCnt)
	require.InDelta(t, 50.00, repo.warehouse[1], 0.0001)
	require.InDelta(t, 50.00, repo.district[dkey(1, 1)], 0.0001)

	require.Len(t, repo.history, 1)
	entry := repo.history[0]
	require.Equal(t, 1, entry.CustomerID)
	require.Equal(t, 1, entry.DistrictID)
	require.Equal(t, 1, entry.WarehouseID)
	require.InDelta(t, 50.00, entry.Amount, 0.0001)
}

func TestPaymentUnknownCustomer(t *testing.T) {
	repo := seedRepo()
	svc := NewService(repo, nil)

	_, err := svc.Payment(context.Background(), PaymentRequest{
		WarehouseID: 1, DistrictID: 1, CustomerID: 42, Amount: 50.00,
	})
	require.ErrorIs(t, err, ErrNotFound)
	require.Empty(t, repo.history)
	require.Zero(t, repo.warehouse[1])
}

func TestOrderStatus(t *testing.T) {
	repo := seedRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	for _, id := range []int{10, 11, 12} {
		_, err := svc.NewOrder(ctx, NewOrderRequest{
			WarehouseID: 1, DistrictID: 1, CustomerID: 1, OrderID: id,
			Items: []NewOrderItem{{ItemID: 1, Quantity: 1}},
		})
		require.NoError(t, err)
	}

	result, err := svc.OrderStatus(ctx, OrderStatusRequest{WarehouseID: 1, DistrictID: 1, CustomerID: 1})
	require.NoError(t, err)
	require.Equal(t, "First1 OE Last1", result.Customer.Name)
	require.Len(t, result.Orders, 3)
	require.Equal(t, 12, result.Orders[0].OrderID)
	require.Equal(t, 10, result.Orders[2].OrderID)
	require.Len(t, result.Orders[0].Items, 1)
}

func TestOrderStatusNoOrders(t *testing.T) {
	repo := seedRepo()
	svc := NewService(repo, nil)

	result, err := svc.OrderStatus(context.Background(), OrderStatusRequest{WarehouseID: 1, DistrictID: 1, CustomerID: 1})
	require.NoError(t, err)
	require.Empty(t, result.Orders)
}

func TestDeliveryGuardedAgainstDoubleCall(t *testing.T) {
	repo := seedRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	_, err := svc.NewOrder(ctx, NewOrderRequest{
		WarehouseID: 1, DistrictID: 1, CustomerID: 1, OrderID: 200,
		Items: []NewOrderItem{{ItemID: 1, Quantity: 1}},
	})
	require.NoError(t, err)

	result, err := svc.Delivery(ctx, DeliveryRequest{WarehouseID: 1, DistrictID: 1, OrderID: 200, CarrierID: 3})
	require.NoError(t, err)
	require.Equal(t, 3, result.CarrierID)
	require.Equal(t, 1, result.CustomerID)

	order := repo.orders[okey(1, 1, 200)]
	require.NotNil(t, order.CarrierID)
	require.Equal(t, 3, *order.CarrierID)
	for _, line := range repo.lines[okey(1, 1, 200)] {
		require.NotNil(t, line.DeliveryDate)
	}
	require.Equal(t, 1, repo.customers[ckey(1, 1, 1)].DeliveryCnt)

	_, err = svc.Delivery(ctx, DeliveryRequest{WarehouseID: 1, DistrictID: 1, OrderID: 200, CarrierID: 7})
	require.ErrorIs(t, err, ErrConflict)
	require.Equal(t, 3, *repo.orders[okey(1, 1, 200)].CarrierID)
	require.Equal(t, 1, repo.customers[ckey(1, 1, 1)].DeliveryCnt, "delivery count must not double-increment")
}

func TestDeliveryUnknownOrder(t *testing.T) {
	repo := seedRepo()
	svc := NewService(repo, nil)

	_, err := svc.Delivery(context.Background(), DeliveryRequest{WarehouseID: 1, DistrictID: 1, OrderID: 999, CarrierID: 1})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStockLevel(t *testing.T) {
	repo := seedRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	_, err := svc.NewOrder(ctx, NewOrderRequest{
		WarehouseID: 1, DistrictID: 1, CustomerID: 1, OrderID: 300,
		Items: []NewOrderItem{{ItemID: 1, Quantity: 1}, {ItemID: 2, Quantity: 1}},
	})
	require.NoError(t, err)

	// item 1 has quantity 5, item 2 has quantity 50
	result, err := svc.StockLevel(ctx, StockLevelRequest{WarehouseID: 1, DistrictID: 1, Threshold: 10})
	require.NoError(t, err)
	require.Equal(t, 1, result.LowStockCount)
	require.Len(t, result.Items, 2)
	require.True(t, result.Items[0].IsLowStock)
	require.False(t, result.Items[1].IsLowStock)

	// strict comparison: threshold equal to quantity is not low stock
	result, err = svc.StockLevel(ctx, StockLevelRequest{WarehouseID: 1, DistrictID: 1, Threshold: 5})
	require.NoError(t, err)
	require.Equal(t, 0, result.LowStockCount)
}

func TestStockLevelNoRecentOrders(t *testing.T) {
	repo := seedRepo()
	svc := NewService(repo, nil)

	result, err := svc.StockLevel(context.Background(), StockLevelRequest{WarehouseID: 1, DistrictID: 1, Threshold: 10})
	require.NoError(t, err)
	require.Zero(t, result.LowStockCount)
	require.Empty(t, result.Items)
}

func TestEndToEndScenario(t *testing.T) {
	repo := seedRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	order, err := svc.NewOrder(ctx, NewOrderRequest{
		WarehouseID: 1, DistrictID: 1, CustomerID: 1, OrderID: 5001,
		Items: []NewOrderItem{{ItemID: 1, Quantity: 2}},
	})
	require.NoError(t, err)
	require.InDelta(t, 20.00, order.TotalAmount, 0.0001)
	require.Len(t, repo.lines[okey(1, 1, 5001)], 1)

	payment, err := svc.Payment(ctx, PaymentRequest{WarehouseID: 1, DistrictID: 1, CustomerID: 1, Amount: 50.00})
	require.NoError(t, err)
	require.InDelta(t, 450.00, payment.Customer.Balance, 0.0001)

	delivery, err := svc.Delivery(ctx, DeliveryRequest{WarehouseID: 1, DistrictID: 1, OrderID: 5001, CarrierID: 3})
	require.NoError(t, err)
	require.Equal(t, 3, delivery.CarrierID)
	require.Equal(t, 3, *repo.orders[okey(1, 1, 5001)].CarrierID)

	_, err = svc.Delivery(ctx, DeliveryRequest{WarehouseID: 1, DistrictID: 1, OrderID: 5001, CarrierID: 7})
	require.ErrorIs(t, err, ErrConflict)
}

func TestFailureClass(t *testing.T) {
	require.Equal(t, ClassOK, FailureClass(nil))
	require.Equal(t, ClassNotFound, FailureClass(fmt.Errorf("%w: customer 9", ErrNotFound)))
	require.Equal(t, ClassConflict, FailureClass(fmt.Errorf("%w: order 9", ErrConflict)))
	require.Equal(t, ClassValidation, FailureClass(fmt.Errorf("%w: bad", ErrValidation)))
	require.Equal(t, ClassStorage, FailureClass(fmt.Errorf("connection refused")))
}
