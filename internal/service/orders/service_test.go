package orders

import (
	"encoding/json"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/nikitaegorov/storefront/internal/domain"
	"github.com/nikitaegorov/storefront/internal/messaging/kafka"
	"github.com/nikitaegorov/storefront/internal/storage/memory"
)

const testTenant = "tenant-orders"

type serviceFixture struct {
	service   Service
	orders    domain.OrderRepository
	customers domain.CustomerRepository
	products  domain.ProductRepository
	outbox    *outboxRecorder
	timeline  domain.TimelineRepository
}

// outboxRecorder запоминает поставленные в очередь события.
type outboxRecorder struct {
	inner  domain.OutboxRepository
	events []domain.OutboxMessage
}

func (r *outboxRecorder) Enqueue(msg domain.OutboxMessage) (domain.OutboxMessage, error) {
	saved, err := r.inner.Enqueue(msg)
	if err == nil {
		r.events = append(r.events, saved)
	}
	return saved, err
}

func (r *outboxRecorder) PullPending(limit int) ([]domain.OutboxMessage, error) {
	return r.inner.PullPending(limit)
}

func (r *outboxRecorder) Stats() (domain.OutboxStats, error) { return r.inner.Stats() }
func (r *outboxRecorder) MarkSent(id string) error           { return r.inner.MarkSent(id) }
func (r *outboxRecorder) MarkFailed(id string) error         { return r.inner.MarkFailed(id) }

func (r *outboxRecorder) eventTypes() []string {
	types := make([]string, 0, len(r.events))
	for _, event := range r.events {
		types = append(types, event.EventType)
	}
	return types
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	baseLogger := log.New()
	baseLogger.SetLevel(log.WarnLevel)
	logger := baseLogger.WithField("component", "orders-test")

	store := memory.NewStore()
	fixture := &serviceFixture{
		orders:    memory.NewOrderRepository(store),
		customers: memory.NewCustomerRepository(store),
		products:  memory.NewProductRepository(store),
		outbox:    &outboxRecorder{inner: memory.NewOutboxRepository()},
		timeline:  memory.NewTimelineRepository(),
	}
	fixture.service = NewServiceWithoutMetrics(
		fixture.orders,
		fixture.customers,
		fixture.products,
		fixture.outbox,
		fixture.timeline,
		logger,
	)
	return fixture
}

func (f *serviceFixture) seedCustomer(t *testing.T) domain.Customer {
	t.Helper()
	customer, err := f.customers.Create(domain.Customer{
		ID:       "customer-1",
		TenantID: testTenant,
		Email:    "buyer@example.com",
	})
	require.NoError(t, err)
	return customer
}

func (f *serviceFixture) seedProduct(t *testing.T, product domain.Product) domain.Product {
	t.Helper()
	if product.TenantID == "" {
		product.TenantID = testTenant
	}
	if product.Status == "" {
		product.Status = domain.ProductStatusActive
	}
	saved, err := f.products.Create(product)
	require.NoError(t, err)
	return saved
}

func TestServiceCreate_SnapsPricesFromCatalog(t *testing.T) {
	f := newServiceFixture(t)
	customer := f.seedCustomer(t)
	product := f.seedProduct(t, domain.Product{
		ID:             "prod-1",
		Title:          "Keyboard",
		SKU:            "KB-1",
		PriceMinor:     4500,
		TrackInventory: true,
		InventoryQty:   10,
	})

	order, err := f.service.Create(CreateOrderInput{
		TenantID:   testTenant,
		CustomerID: customer.ID,
		Items: []CreateItemInput{
			{ProductID: product.ID, Qty: 2},
		},
		TaxMinor: 500,
	})
	require.NoError(t, err)

	require.Equal(t, domain.OrderStatusPending, order.Status)
	require.Equal(t, domain.PaymentStatusPending, order.PaymentStatus)
	require.Equal(t, domain.FulfillmentStatusUnfulfilled, order.FulfillmentStatus)
	require.Equal(t, "USD", order.Currency) // валюта по умолчанию
	require.Equal(t, int64(9000), order.SubtotalMinor)
	require.Equal(t, int64(9500), order.TotalMinor)
	require.Equal(t, int64(1), order.OrderNumber)

	require.Len(t, order.Items, 1)
	require.Equal(t, "KB-1", order.Items[0].SKU)
	require.Equal(t, "Keyboard", order.Items[0].Title)
	require.Equal(t, int64(4500), order.Items[0].PriceMinor)

	// Остаток списан в той же транзакции.
	updated, err := f.products.Get(testTenant, product.ID)
	require.NoError(t, err)
	require.Equal(t, int32(8), updated.InventoryQty)

	require.Equal(t, []string{"order.created"}, f.outbox.eventTypes())
	events, err := f.timeline.List(order.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "order.created", events[0].Type)
}

func TestServiceCreate_OutboxPayloadIsOrderEvent(t *testing.T) {
	f := newServiceFixture(t)
	customer := f.seedCustomer(t)
	product := f.seedProduct(t, domain.Product{
		ID:             "prod-env",
		Title:          "Mouse",
		SKU:            "MS-1",
		PriceMinor:     2000,
		TrackInventory: true,
		InventoryQty:   5,
	})

	order, err := f.service.Create(CreateOrderInput{
		TenantID:   testTenant,
		CustomerID: customer.ID,
		Items:      []CreateItemInput{{ProductID: product.ID, Qty: 1}},
	})
	require.NoError(t, err)

	// Payload в outbox — конверт OrderEvent, который разбирает consumer.
	require.Len(t, f.outbox.events, 1)
	var event kafka.OrderEvent
	require.NoError(t, json.Unmarshal(f.outbox.events[0].Payload, &event))
	require.Equal(t, kafka.EventTypeOrderCreated, event.EventType)
	require.Equal(t, testTenant, event.TenantID)
	require.Equal(t, order.ID, event.OrderID)
	require.Equal(t, customer.ID, event.CustomerID)
	require.Equal(t, string(domain.OrderStatusPending), event.Status)
	require.EqualValues(t, 1, event.Metadata["order_number"])
	require.False(t, event.Timestamp.IsZero())
}

func TestServiceCreate_VariantPricing(t *testing.T) {
	f := newServiceFixture(t)
	customer := f.seedCustomer(t)
	product := f.seedProduct(t, domain.Product{
		ID:             "prod-var",
		Title:          "T-Shirt",
		SKU:            "TS",
		PriceMinor:     1000,
		TrackInventory: true,
		Variants: []domain.ProductVariant{
			{ID: "v-s", ProductID: "prod-var", Title: "Small", SKU: "TS-S", PriceMinor: 1100, InventoryQty: 5, Available: true},
			{ID: "v-l", ProductID: "prod-var", Title: "Large", SKU: "TS-L", PriceMinor: 1200, InventoryQty: 0, Available: false},
		},
	})

	order, err := f.service.Create(CreateOrderInput{
		TenantID:   testTenant,
		CustomerID: customer.ID,
		Items: []CreateItemInput{
			{ProductID: product.ID, VariantID: "v-s", Qty: 3},
		},
	})
	require.NoError(t, err)
	require.Equal(t, int64(3300), order.SubtotalMinor)
	require.Equal(t, "TS-S", order.Items[0].SKU)
	require.Equal(t, "Small", order.Items[0].VariantTitle)

	// Вариант обязателен, если товар с вариантами.
	_, err = f.service.Create(CreateOrderInput{
		TenantID:   testTenant,
		CustomerID: customer.ID,
		Items:      []CreateItemInput{{ProductID: product.ID, Qty: 1}},
	})
	require.ErrorIs(t, err, domain.ErrVariantNotFound)

	// Снятый с продажи вариант недоступен.
	_, err = f.service.Create(CreateOrderInput{
		TenantID:   testTenant,
		CustomerID: customer.ID,
		Items:      []CreateItemInput{{ProductID: product.ID, VariantID: "v-l", Qty: 1}},
	})
	require.ErrorIs(t, err, domain.ErrVariantUnavailable)
}

func TestServiceCreate_Rejections(t *testing.T) {
	f := newServiceFixture(t)
	customer := f.seedCustomer(t)
	inactive := f.seedProduct(t, domain.Product{ID: "prod-draft", Status: domain.ProductStatusDraft, PriceMinor: 100})
	scarce := f.seedProduct(t, domain.Product{ID: "prod-scarce", PriceMinor: 100, TrackInventory: true, InventoryQty: 1})

	_, err := f.service.Create(CreateOrderInput{
		TenantID:   testTenant,
		CustomerID: "missing-customer",
		Items:      []CreateItemInput{{ProductID: scarce.ID, Qty: 1}},
	})
	require.ErrorIs(t, err, domain.ErrCustomerNotFound)

	_, err = f.service.Create(CreateOrderInput{
		TenantID:   testTenant,
		CustomerID: customer.ID,
		Items:      []CreateItemInput{{ProductID: "missing-product", Qty: 1}},
	})
	require.ErrorIs(t, err, domain.ErrProductNotFound)

	_, err = f.service.Create(CreateOrderInput{
		TenantID:   testTenant,
		CustomerID: customer.ID,
		Items:      []CreateItemInput{{ProductID: inactive.ID, Qty: 1}},
	})
	require.ErrorIs(t, err, domain.ErrProductInactive)

	_, err = f.service.Create(CreateOrderInput{
		TenantID:   testTenant,
		CustomerID: customer.ID,
		Items:      []CreateItemInput{{ProductID: scarce.ID, Qty: 5}},
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	_, err = f.service.Create(CreateOrderInput{
		TenantID:   testTenant,
		CustomerID: customer.ID,
	})
	require.ErrorIs(t, err, domain.ErrItemsRequired)

	_, err = f.service.Create(CreateOrderInput{
		TenantID:   testTenant,
		CustomerID: customer.ID,
		Items:      []CreateItemInput{{ProductID: scarce.ID, Qty: 0}},
	})
	require.ErrorIs(t, err, domain.ErrItemQtyInvalid)

	// Ни одна из неудач не тронула остаток и не породила событий.
	current, err := f.products.Get(testTenant, scarce.ID)
	require.NoError(t, err)
	require.Equal(t, int32(1), current.InventoryQty)
	require.Empty(t, f.outbox.events)
}

func (f *serviceFixture) createOrder(t *testing.T, qty int32) domain.Order {
	t.Helper()
	customer := f.seedCustomer(t)
	product := f.seedProduct(t, domain.Product{
		ID:             "prod-flow",
		Title:          "Widget",
		PriceMinor:     1000,
		TrackInventory: true,
		InventoryQty:   10,
	})
	order, err := f.service.Create(CreateOrderInput{
		TenantID:   testTenant,
		CustomerID: customer.ID,
		Items:      []CreateItemInput{{ProductID: product.ID, Qty: qty}},
	})
	require.NoError(t, err)
	return order
}

func TestServiceUpdate_StatusTransitions(t *testing.T) {
	f := newServiceFixture(t)
	order := f.createOrder(t, 1)

	confirmed := domain.OrderStatusConfirmed
	updated, err := f.service.Update(testTenant, order.ID, UpdateOrderInput{Status: &confirmed})
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusConfirmed, updated.Status)
	require.Nil(t, updated.CompletedAt)

	// Обратный переход запрещён.
	pending := domain.OrderStatusPending
	_, err = f.service.Update(testTenant, order.ID, UpdateOrderInput{Status: &pending})
	require.ErrorIs(t, err, domain.ErrInvalidStatusTransition)

	// Доставка ставит отметку завершения.
	delivered := domain.OrderStatusDelivered
	final, err := f.service.Update(testTenant, order.ID, UpdateOrderInput{Status: &delivered})
	require.NoError(t, err)
	require.NotNil(t, final.CompletedAt)

	require.Contains(t, f.outbox.eventTypes(), "order.updated")
}

func TestServiceUpdate_MoneyAndDetails(t *testing.T) {
	f := newServiceFixture(t)
	order := f.createOrder(t, 2) // subtotal 2000

	tax := int64(300)
	shipping := int64(200)
	tracking := "TRACK-42"
	updated, err := f.service.Update(testTenant, order.ID, UpdateOrderInput{
		TaxMinor:       &tax,
		ShippingMinor:  &shipping,
		TrackingNumber: &tracking,
	})
	require.NoError(t, err)
	require.Equal(t, int64(2500), updated.TotalMinor)
	require.Equal(t, "TRACK-42", updated.TrackingNumber)

	negative := int64(-1)
	_, err = f.service.Update(testTenant, order.ID, UpdateOrderInput{DiscountMinor: &negative})
	require.ErrorIs(t, err, domain.ErrChargeNegative)
}

// conflictingOrderRepo подсовывает version conflict первым попыткам Save.
type conflictingOrderRepo struct {
	domain.OrderRepository
	failures int
}

func (r *conflictingOrderRepo) Save(order domain.Order) error {
	if r.failures > 0 {
		r.failures--
		return domain.ErrOrderVersionConflict
	}
	return r.OrderRepository.Save(order)
}

func TestServiceUpdate_RetriesOnVersionConflict(t *testing.T) {
	f := newServiceFixture(t)
	order := f.createOrder(t, 1)

	conflicting := &conflictingOrderRepo{OrderRepository: f.orders, failures: 2}
	service := NewServiceWithoutMetrics(conflicting, f.customers, f.products, f.outbox, f.timeline, nil)

	confirmed := domain.OrderStatusConfirmed
	updated, err := service.Update(testTenant, order.ID, UpdateOrderInput{Status: &confirmed})
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusConfirmed, updated.Status)

	// Конфликт на каждой попытке исчерпывает retry.
	exhausted := &conflictingOrderRepo{OrderRepository: f.orders, failures: 100}
	service = NewServiceWithoutMetrics(exhausted, f.customers, f.products, f.outbox, f.timeline, nil)
	processing := domain.OrderStatusProcessing
	_, err = service.Update(testTenant, order.ID, UpdateOrderInput{Status: &processing})
	require.ErrorIs(t, err, domain.ErrOrderVersionConflict)
}

func TestServiceUpdate_CancelledStatusDelegatesToCancel(t *testing.T) {
	f := newServiceFixture(t)
	order := f.createOrder(t, 3)

	cancelled := domain.OrderStatusCancelled
	updated, err := f.service.Update(testTenant, order.ID, UpdateOrderInput{
		Status:       &cancelled,
		CancelReason: "changed mind",
	})
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusCancelled, updated.Status)

	// Компенсация вернула остаток.
	product, err := f.products.Get(testTenant, "prod-flow")
	require.NoError(t, err)
	require.Equal(t, int32(10), product.InventoryQty)

	require.Contains(t, f.outbox.eventTypes(), "order.cancelled")
}

func TestServiceCancel_Preconditions(t *testing.T) {
	f := newServiceFixture(t)
	order := f.createOrder(t, 1)

	_, err := f.service.Cancel(testTenant, order.ID, "first")
	require.NoError(t, err)

	_, err = f.service.Cancel(testTenant, order.ID, "second")
	require.ErrorIs(t, err, domain.ErrOrderAlreadyCancelled)

	// Доставленный заказ отменить нельзя.
	second := f.createSecondOrder(t)
	delivered := domain.OrderStatusDelivered
	_, err = f.service.Update(testTenant, second.ID, UpdateOrderInput{Status: &delivered})
	require.NoError(t, err)

	_, err = f.service.Cancel(testTenant, second.ID, "")
	require.ErrorIs(t, err, domain.ErrOrderDelivered)
}

func (f *serviceFixture) createSecondOrder(t *testing.T) domain.Order {
	t.Helper()
	order, err := f.service.Create(CreateOrderInput{
		TenantID:   testTenant,
		CustomerID: "customer-1",
		Items:      []CreateItemInput{{ProductID: "prod-flow", Qty: 1}},
	})
	require.NoError(t, err)
	return order
}

func TestServiceFulfillItems(t *testing.T) {
	f := newServiceFixture(t)
	customer := f.seedCustomer(t)
	product := f.seedProduct(t, domain.Product{ID: "prod-ff", PriceMinor: 500})

	order, err := f.service.Create(CreateOrderInput{
		TenantID:   testTenant,
		CustomerID: customer.ID,
		Items: []CreateItemInput{
			{ProductID: product.ID, Qty: 1},
			{ProductID: product.ID, Qty: 2},
		},
	})
	require.NoError(t, err)
	require.Len(t, order.Items, 2)

	partial, err := f.service.FulfillItems(testTenant, order.ID, []string{order.Items[0].ID})
	require.NoError(t, err)
	require.Equal(t, domain.FulfillmentStatusPartial, partial.FulfillmentStatus)

	full, err := f.service.FulfillItems(testTenant, order.ID, []string{order.Items[1].ID})
	require.NoError(t, err)
	require.Equal(t, domain.FulfillmentStatusFulfilled, full.FulfillmentStatus)

	_, err = f.service.FulfillItems(testTenant, order.ID, []string{order.Items[0].ID})
	require.ErrorIs(t, err, domain.ErrNoItemsToFulfill)

	require.Contains(t, f.outbox.eventTypes(), "order.items_fulfilled")
}

func TestServiceFulfillItems_CancelledOrder(t *testing.T) {
	f := newServiceFixture(t)
	order := f.createOrder(t, 1)

	_, err := f.service.Cancel(testTenant, order.ID, "")
	require.NoError(t, err)

	_, err = f.service.FulfillItems(testTenant, order.ID, []string{order.Items[0].ID})
	require.ErrorIs(t, err, domain.ErrOrderAlreadyCancelled)
}

func TestServiceTimeline_RequiresOrder(t *testing.T) {
	f := newServiceFixture(t)
	order := f.createOrder(t, 1)

	events, err := f.service.Timeline(testTenant, order.ID)
	require.NoError(t, err)
	require.NotEmpty(t, events)

	_, err = f.service.Timeline(testTenant, "missing-order")
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestServiceList_ClampsPagination(t *testing.T) {
	f := newServiceFixture(t)
	f.createOrder(t, 1)

	_, total, err := f.service.List(testTenant, domain.OrderFilter{Limit: -5, Offset: -3})
	require.NoError(t, err)
	require.Equal(t, 1, total)

	orders, _, err := f.service.List(testTenant, domain.OrderFilter{Limit: 1000})
	require.NoError(t, err)
	require.Len(t, orders, 1)
}
