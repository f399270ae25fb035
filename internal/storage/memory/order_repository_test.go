package memory_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/nikitaegorov/storefront/internal/domain"
	"github.com/nikitaegorov/storefront/internal/storage/memory"
)

const tenantID = "tenant-memory"

type repoFixture struct {
	store     *memory.Store
	orders    domain.OrderRepository
	customers domain.CustomerRepository
	products  domain.ProductRepository
}

func newRepoFixture(t *testing.T, stock int32) *repoFixture {
	t.Helper()

	store := memory.NewStore()
	f := &repoFixture{
		store:     store,
		orders:    memory.NewOrderRepository(store),
		customers: memory.NewCustomerRepository(store),
		products:  memory.NewProductRepository(store),
	}

	if _, err := f.customers.Create(domain.Customer{
		ID:       "customer-1",
		TenantID: tenantID,
		Email:    "buyer@example.com",
	}); err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	if _, err := f.products.Create(domain.Product{
		ID:             "product-1",
		TenantID:       tenantID,
		Title:          "Widget",
		SKU:            "WID-1",
		Status:         domain.ProductStatusActive,
		PriceMinor:     1000,
		TrackInventory: true,
		InventoryQty:   stock,
	}); err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return f
}

func (f *repoFixture) newOrder(id string, qty int32) domain.Order {
	now := time.Now().UTC()
	order := domain.Order{
		ID:         id,
		TenantID:   tenantID,
		CustomerID: "customer-1",
		Currency:   "USD",
		Status:     domain.OrderStatusPending,
		Items: []domain.OrderItem{
			{ID: id + "-item-1", OrderID: id, ProductID: "product-1", SKU: "WID-1", Qty: qty, PriceMinor: 1000, CreatedAt: now},
		},
		SubtotalMinor: int64(qty) * 1000,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	order.RecomputeTotal()
	return order
}

func (f *repoFixture) inventory(t *testing.T) int32 {
	t.Helper()
	product, err := f.products.Get(tenantID, "product-1")
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	return product.InventoryQty
}

func TestOrderRepository_CreateAssignsNumbersAndDecrementsStock(t *testing.T) {
	f := newRepoFixture(t, 10)

	first, err := f.orders.Create(f.newOrder("order-1", 2), nil)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	second, err := f.orders.Create(f.newOrder("order-2", 3), nil)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if first.OrderNumber != 1 || second.OrderNumber != 2 {
		t.Fatalf("expected numbers 1 and 2, got %d and %d", first.OrderNumber, second.OrderNumber)
	}
	if got := f.inventory(t); got != 5 {
		t.Fatalf("expected inventory 5, got %d", got)
	}

	customer, err := f.customers.Get(tenantID, "customer-1")
	if err != nil {
		t.Fatalf("get customer: %v", err)
	}
	if customer.TotalOrders != 2 || customer.TotalSpentMinor != 5000 {
		t.Fatalf("unexpected aggregates: %d orders, %d spent", customer.TotalOrders, customer.TotalSpentMinor)
	}
}

func TestOrderRepository_ConcurrentCreatesKeepNumbersUnique(t *testing.T) {
	const workers = 10
	f := newRepoFixture(t, workers)

	var wg sync.WaitGroup
	numbers := make(chan int64, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			order, err := f.orders.Create(f.newOrder(fmt.Sprintf("order-%d", i), 1), nil)
			if err != nil {
				t.Errorf("create failed: %v", err)
				return
			}
			numbers <- order.OrderNumber
		}(i)
	}
	wg.Wait()
	close(numbers)

	seen := make(map[int64]bool, workers)
	for number := range numbers {
		if seen[number] {
			t.Fatalf("duplicate order number %d", number)
		}
		seen[number] = true
	}
	if len(seen) != workers {
		t.Fatalf("expected %d numbers, got %d", workers, len(seen))
	}
	if got := f.inventory(t); got != 0 {
		t.Fatalf("expected inventory 0, got %d", got)
	}

	if _, err := f.orders.Create(f.newOrder("order-over", 1), nil); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
}

func TestOrderRepository_InsufficientStockLeavesStateUntouched(t *testing.T) {
	f := newRepoFixture(t, 1)

	if _, err := f.orders.Create(f.newOrder("order-1", 5), nil); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if got := f.inventory(t); got != 1 {
		t.Fatalf("expected inventory 1, got %d", got)
	}
	if _, err := f.orders.Get(tenantID, "order-1"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestOrderRepository_GetIsTenantScoped(t *testing.T) {
	f := newRepoFixture(t, 10)
	if _, err := f.orders.Create(f.newOrder("order-1", 1), nil); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := f.orders.Get("tenant-other", "order-1"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound for foreign tenant, got %v", err)
	}
}

func TestOrderRepository_SaveVersionConflict(t *testing.T) {
	f := newRepoFixture(t, 10)
	order, err := f.orders.Create(f.newOrder("order-1", 1), nil)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	order.Status = domain.OrderStatusConfirmed
	if err := f.orders.Save(order); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	stored, err := f.orders.Get(tenantID, order.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if stored.Version != order.Version+1 {
		t.Fatalf("expected version %d, got %d", order.Version+1, stored.Version)
	}

	// Повторное сохранение устаревшей версии.
	if err := f.orders.Save(order); !errors.Is(err, domain.ErrOrderVersionConflict) {
		t.Fatalf("expected ErrOrderVersionConflict, got %v", err)
	}
}

func TestOrderRepository_CancelRestoresInventoryAndAggregates(t *testing.T) {
	f := newRepoFixture(t, 10)
	order, err := f.orders.Create(f.newOrder("order-1", 4), nil)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if got := f.inventory(t); got != 6 {
		t.Fatalf("expected inventory 6, got %d", got)
	}

	cancelled, err := f.orders.Cancel(order, time.Now().UTC())
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != domain.OrderStatusCancelled || cancelled.CancelledAt == nil {
		t.Fatalf("unexpected cancelled order: %+v", cancelled)
	}
	if got := f.inventory(t); got != 10 {
		t.Fatalf("expected inventory 10 after cancel, got %d", got)
	}

	customer, err := f.customers.Get(tenantID, "customer-1")
	if err != nil {
		t.Fatalf("get customer: %v", err)
	}
	if customer.TotalOrders != 0 || customer.TotalSpentMinor != 0 {
		t.Fatalf("aggregates not rolled back: %+v", customer)
	}
}

func TestOrderRepository_FulfillItems(t *testing.T) {
	f := newRepoFixture(t, 10)
	order := f.newOrder("order-1", 1)
	order.Items = append(order.Items, domain.OrderItem{
		ID: "order-1-item-2", OrderID: "order-1", ProductID: "product-1", SKU: "WID-1",
		Qty: 1, PriceMinor: 1000, CreatedAt: order.CreatedAt,
	})
	order.SubtotalMinor = 2000
	order.RecomputeTotal()
	if _, err := f.orders.Create(order, nil); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	partial, err := f.orders.FulfillItems(tenantID, order.ID, []string{"order-1-item-1"})
	if err != nil {
		t.Fatalf("fulfill failed: %v", err)
	}
	if partial.FulfillmentStatus != domain.FulfillmentStatusPartial {
		t.Fatalf("expected partial, got %s", partial.FulfillmentStatus)
	}

	full, err := f.orders.FulfillItems(tenantID, order.ID, []string{"order-1-item-2"})
	if err != nil {
		t.Fatalf("fulfill failed: %v", err)
	}
	if full.FulfillmentStatus != domain.FulfillmentStatusFulfilled {
		t.Fatalf("expected fulfilled, got %s", full.FulfillmentStatus)
	}

	if _, err := f.orders.FulfillItems(tenantID, order.ID, []string{"order-1-item-1"}); !errors.Is(err, domain.ErrNoItemsToFulfill) {
		t.Fatalf("expected ErrNoItemsToFulfill, got %v", err)
	}
}

func TestOrderRepository_ListFiltersAndPagination(t *testing.T) {
	f := newRepoFixture(t, 100)
	for i := 1; i <= 3; i++ {
		if _, err := f.orders.Create(f.newOrder(fmt.Sprintf("order-%d", i), 1), nil); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}
	cancelled, err := f.orders.Get(tenantID, "order-2")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if _, err := f.orders.Cancel(cancelled, time.Now().UTC()); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	byStatus, total, err := f.orders.List(tenantID, domain.OrderFilter{Status: domain.OrderStatusCancelled})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 || len(byStatus) != 1 || byStatus[0].ID != "order-2" {
		t.Fatalf("unexpected status filter result: total=%d orders=%+v", total, byStatus)
	}

	page, total, err := f.orders.List(tenantID, domain.OrderFilter{Limit: 2})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 3 || len(page) != 2 {
		t.Fatalf("unexpected page: total=%d len=%d", total, len(page))
	}

	bySearch, total, err := f.orders.List(tenantID, domain.OrderFilter{Search: "3"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 || bySearch[0].OrderNumber != 3 {
		t.Fatalf("unexpected search result: total=%d orders=%+v", total, bySearch)
	}

	foreign, total, err := f.orders.List("tenant-other", domain.OrderFilter{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 0 || len(foreign) != 0 {
		t.Fatalf("foreign tenant must see nothing, got total=%d", total)
	}
}
