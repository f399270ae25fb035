package orders

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/nikitaegorov/storefront/internal/domain"
	"github.com/nikitaegorov/storefront/internal/messaging/kafka"
	"github.com/nikitaegorov/storefront/internal/metrics"
)

// Service описывает операции жизненного цикла заказа.
type Service interface {
	Create(input CreateOrderInput) (domain.Order, error)
	Get(tenantID, orderID string) (domain.Order, error)
	List(tenantID string, filter domain.OrderFilter) ([]domain.Order, int, error)
	Update(tenantID, orderID string, input UpdateOrderInput) (domain.Order, error)
	Cancel(tenantID, orderID, reason string) (domain.Order, error)
	FulfillItems(tenantID, orderID string, itemIDs []string) (domain.Order, error)
	Timeline(tenantID, orderID string) ([]domain.TimelineEvent, error)
}

// AddressInput — адрес из запроса создания заказа.
type AddressInput struct {
	Line1      string
	Line2      string
	City       string
	Region     string
	PostalCode string
	Country    string
}

// CreateItemInput — позиция из запроса создания заказа.
// Цена не принимается: она снимается с товара или варианта каталога.
type CreateItemInput struct {
	ProductID string
	VariantID string
	Qty       int32
}

// CreateOrderInput — параметры создания заказа.
type CreateOrderInput struct {
	TenantID   string
	CustomerID string
	Currency   string
	Items      []CreateItemInput

	TaxMinor      int64
	ShippingMinor int64
	DiscountMinor int64

	PaymentMethod  string
	ShippingMethod string
	Notes          string

	ShippingAddress *AddressInput
	BillingAddress  *AddressInput
}

// UpdateOrderInput — частичное обновление заказа; nil-поля не трогаются.
type UpdateOrderInput struct {
	Status        *domain.OrderStatus
	PaymentStatus *domain.PaymentStatus

	PaymentMethod  *string
	TransactionID  *string
	ShippingMethod *string
	TrackingNumber *string
	Notes          *string

	TaxMinor      *int64
	ShippingMinor *int64
	DiscountMinor *int64

	CancelReason string
}

// service реализует операции над заказами поверх репозиториев хранилища.
// Многошаговые эффекты (остатки, агрегаты клиента, номер заказа) выполняет
// репозиторий в одной транзакции; здесь остаются проверки каталога,
// снятие цен и публикация событий.
type service struct {
	orders    domain.OrderRepository
	customers domain.CustomerRepository
	products  domain.ProductRepository
	outbox    domain.OutboxRepository
	timeline  domain.TimelineRepository
	logger    *log.Entry
	metrics   *metrics.OrderMetrics
}

// NewService создаёт рабочий экземпляр сервиса заказов.
func NewService(
	orders domain.OrderRepository,
	customers domain.CustomerRepository,
	products domain.ProductRepository,
	outbox domain.OutboxRepository,
	timeline domain.TimelineRepository,
	logger *log.Entry,
) Service {
	if logger == nil {
		logger = log.New().WithField("component", "orders")
	}
	return &service{
		orders:    orders,
		customers: customers,
		products:  products,
		outbox:    outbox,
		timeline:  timeline,
		logger:    logger,
		metrics:   metrics.NewOrderMetrics(),
	}
}

// NewServiceWithoutMetrics создаёт сервис без метрик (для тестов).
func NewServiceWithoutMetrics(
	orders domain.OrderRepository,
	customers domain.CustomerRepository,
	products domain.ProductRepository,
	outbox domain.OutboxRepository,
	timeline domain.TimelineRepository,
	logger *log.Entry,
) Service {
	if logger == nil {
		logger = log.New().WithField("component", "orders")
	}
	return &service{
		orders:    orders,
		customers: customers,
		products:  products,
		outbox:    outbox,
		timeline:  timeline,
		logger:    logger,
		metrics:   nil, // Отключаем метрики для тестов
	}
}

// Create собирает заказ из каталога и сохраняет его одной транзакцией.
// Цены позиций снимаются с варианта, если он указан, иначе с товара.
func (s *service) Create(input CreateOrderInput) (domain.Order, error) {
	start := time.Now()

	customer, err := s.customers.Get(input.TenantID, input.CustomerID)
	if err != nil {
		s.recordFailure("create")
		return domain.Order{}, err
	}

	now := time.Now().UTC()
	orderID := uuid.NewString()

	items, err := s.resolveItems(input, orderID, now)
	if err != nil {
		s.recordFailure("create")
		return domain.Order{}, err
	}

	currency := input.Currency
	if currency == "" {
		currency = "USD"
	}

	order := domain.Order{
		ID:                orderID,
		TenantID:          input.TenantID,
		CustomerID:        customer.ID,
		Currency:          currency,
		TaxMinor:          input.TaxMinor,
		ShippingMinor:     input.ShippingMinor,
		DiscountMinor:     input.DiscountMinor,
		Status:            domain.OrderStatusPending,
		PaymentStatus:     domain.PaymentStatusPending,
		FulfillmentStatus: domain.FulfillmentStatusUnfulfilled,
		PaymentMethod:     input.PaymentMethod,
		ShippingMethod:    input.ShippingMethod,
		Notes:             input.Notes,
		Items:             items,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	for _, item := range items {
		order.SubtotalMinor += int64(item.Qty) * item.PriceMinor
	}
	order.RecomputeTotal()

	if errs := order.ValidateInvariants(); len(errs) > 0 {
		s.recordFailure("create")
		return domain.Order{}, errs[0]
	}

	addresses := make([]domain.CustomerAddress, 0, 2)
	if input.ShippingAddress != nil {
		addr := materializeAddress(customer.ID, domain.AddressKindShipping, *input.ShippingAddress, now)
		order.ShippingAddressID = addr.ID
		addresses = append(addresses, addr)
	}
	if input.BillingAddress != nil {
		addr := materializeAddress(customer.ID, domain.AddressKindBilling, *input.BillingAddress, now)
		order.BillingAddressID = addr.ID
		addresses = append(addresses, addr)
	}

	saved, err := s.orders.Create(order, addresses)
	if err != nil {
		s.recordFailure("create")
		s.logger.WithError(err).WithFields(log.Fields{
			"tenant_id":   input.TenantID,
			"customer_id": input.CustomerID,
		}).Warn("order create failed")
		return domain.Order{}, err
	}

	if s.metrics != nil {
		s.metrics.RecordOrderCreated()
		s.metrics.RecordCreateDuration(time.Since(start))
	}

	s.emitEvent(&saved, kafka.EventTypeOrderCreated, map[string]interface{}{
		"order_number": saved.OrderNumber,
		"total_minor":  saved.TotalMinor,
		"currency":     saved.Currency,
		"items_count":  len(saved.Items),
	})

	s.logger.WithFields(log.Fields{
		"tenant_id":    saved.TenantID,
		"order_id":     saved.ID,
		"order_number": saved.OrderNumber,
		"total_minor":  saved.TotalMinor,
	}).Info("order created")

	return saved, nil
}

// resolveItems превращает позиции запроса в позиции заказа, проверяя
// доступность товара и остаток по правилу допуска каталога.
func (s *service) resolveItems(input CreateOrderInput, orderID string, now time.Time) ([]domain.OrderItem, error) {
	if len(input.Items) == 0 {
		return nil, domain.ErrItemsRequired
	}

	items := make([]domain.OrderItem, 0, len(input.Items))
	for _, in := range input.Items {
		if in.Qty <= 0 {
			return nil, domain.ErrItemQtyInvalid
		}

		product, err := s.products.Get(input.TenantID, in.ProductID)
		if err != nil {
			return nil, err
		}
		if product.Status != domain.ProductStatusActive {
			return nil, domain.ErrProductInactive
		}

		item := domain.OrderItem{
			ID:         uuid.NewString(),
			OrderID:    orderID,
			ProductID:  product.ID,
			SKU:        product.SKU,
			Title:      product.Title,
			PriceMinor: product.PriceMinor,
			Qty:        in.Qty,
			CreatedAt:  now,
		}

		if in.VariantID != "" {
			variant, err := product.Variant(in.VariantID)
			if err != nil {
				return nil, err
			}
			if !variant.Available {
				return nil, domain.ErrVariantUnavailable
			}
			if err := domain.CheckStock(product.TrackInventory, product.AllowBackorder, variant.InventoryQty, in.Qty); err != nil {
				return nil, err
			}
			item.VariantID = variant.ID
			item.VariantTitle = variant.Title
			item.PriceMinor = variant.PriceMinor
			if variant.SKU != "" {
				item.SKU = variant.SKU
			}
		} else {
			if product.HasVariants() {
				return nil, domain.ErrVariantNotFound
			}
			if err := domain.CheckStock(product.TrackInventory, product.AllowBackorder, product.InventoryQty, in.Qty); err != nil {
				return nil, err
			}
		}

		items = append(items, item)
	}

	return items, nil
}

// Get возвращает заказ тенанта с позициями.
func (s *service) Get(tenantID, orderID string) (domain.Order, error) {
	return s.orders.Get(tenantID, orderID)
}

// List возвращает страницу заказов и общее число записей под фильтром.
func (s *service) List(tenantID string, filter domain.OrderFilter) ([]domain.Order, int, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Limit > 200 {
		filter.Limit = 200
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.orders.List(tenantID, filter)
}

// Update применяет частичное обновление заказа. Перевод в cancelled идёт
// через Cancel с компенсациями, а не через прямую смену статуса.
// Реализует retry с exponential backoff при version conflict.
func (s *service) Update(tenantID, orderID string, input UpdateOrderInput) (domain.Order, error) {
	if input.Status != nil && *input.Status == domain.OrderStatusCancelled {
		return s.Cancel(tenantID, orderID, input.CancelReason)
	}

	const maxRetries = 3
	const baseDelay = 10 * time.Millisecond

	for attempt := 0; attempt < maxRetries; attempt++ {
		order, err := s.orders.Get(tenantID, orderID)
		if err != nil {
			s.recordFailure("update")
			return domain.Order{}, err
		}

		updated, err := applyUpdate(order, input)
		if err != nil {
			s.recordFailure("update")
			return domain.Order{}, err
		}

		if err := s.orders.Save(updated); err != nil {
			if domain.IsVersionConflict(err) && attempt < maxRetries-1 {
				s.logger.WithFields(log.Fields{
					"order_id": orderID,
					"attempt":  attempt + 1,
					"version":  updated.Version,
				}).Warn("version conflict detected, retrying")
				time.Sleep(baseDelay * time.Duration(1<<uint(attempt)))
				continue
			}
			s.recordFailure("update")
			return domain.Order{}, err
		}
		updated.Version++

		if s.metrics != nil {
			s.metrics.RecordOrderUpdated()
		}
		s.emitEvent(&updated, kafka.EventTypeOrderUpdated, map[string]interface{}{
			"payment_status": string(updated.PaymentStatus),
		})
		return updated, nil
	}

	s.recordFailure("update")
	return domain.Order{}, domain.ErrOrderVersionConflict
}

// applyUpdate накладывает input на свежую копию заказа с валидацией переходов.
func applyUpdate(order domain.Order, input UpdateOrderInput) (domain.Order, error) {
	if order.Status == domain.OrderStatusCancelled {
		return domain.Order{}, domain.ErrOrderAlreadyCancelled
	}

	now := time.Now().UTC()

	if input.Status != nil {
		next := *input.Status
		if !next.Valid() {
			return domain.Order{}, domain.ErrInvalidStatusTransition
		}
		if !order.Status.CanTransitionTo(next) {
			return domain.Order{}, domain.ErrInvalidStatusTransition
		}
		if next == domain.OrderStatusDelivered && order.Status != domain.OrderStatusDelivered {
			order.CompletedAt = &now
		}
		order.Status = next
	}

	if input.PaymentStatus != nil {
		if !input.PaymentStatus.Valid() {
			return domain.Order{}, domain.ErrInvalidStatusTransition
		}
		order.PaymentStatus = *input.PaymentStatus
	}

	if input.PaymentMethod != nil {
		order.PaymentMethod = *input.PaymentMethod
	}
	if input.TransactionID != nil {
		order.TransactionID = *input.TransactionID
	}
	if input.ShippingMethod != nil {
		order.ShippingMethod = *input.ShippingMethod
	}
	if input.TrackingNumber != nil {
		order.TrackingNumber = *input.TrackingNumber
	}
	if input.Notes != nil {
		order.Notes = *input.Notes
	}

	moneyChanged := false
	if input.TaxMinor != nil {
		order.TaxMinor = *input.TaxMinor
		moneyChanged = true
	}
	if input.ShippingMinor != nil {
		order.ShippingMinor = *input.ShippingMinor
		moneyChanged = true
	}
	if input.DiscountMinor != nil {
		order.DiscountMinor = *input.DiscountMinor
		moneyChanged = true
	}
	if moneyChanged {
		if order.TaxMinor < 0 || order.ShippingMinor < 0 || order.DiscountMinor < 0 {
			return domain.Order{}, domain.ErrChargeNegative
		}
		order.RecomputeTotal()
	}

	order.UpdatedAt = now
	return order, nil
}

// Cancel отменяет заказ: возвращает остатки и откатывает агрегаты клиента
// одной транзакцией хранилища.
func (s *service) Cancel(tenantID, orderID, reason string) (domain.Order, error) {
	order, err := s.orders.Get(tenantID, orderID)
	if err != nil {
		s.recordFailure("cancel")
		return domain.Order{}, err
	}
	if order.Status == domain.OrderStatusCancelled {
		s.recordFailure("cancel")
		return domain.Order{}, domain.ErrOrderAlreadyCancelled
	}
	if order.Status == domain.OrderStatusDelivered {
		s.recordFailure("cancel")
		return domain.Order{}, domain.ErrOrderDelivered
	}

	cancelled, err := s.orders.Cancel(order, time.Now().UTC())
	if err != nil {
		s.recordFailure("cancel")
		s.logger.WithError(err).WithField("order_id", orderID).Warn("order cancel failed")
		return domain.Order{}, err
	}

	if s.metrics != nil {
		s.metrics.RecordOrderCancelled()
	}

	metadata := map[string]interface{}{"reason": reason}
	if reason == "" {
		delete(metadata, "reason")
	}
	s.emitEvent(&cancelled, kafka.EventTypeOrderCancelled, metadata)

	s.logger.WithFields(log.Fields{
		"tenant_id": cancelled.TenantID,
		"order_id":  cancelled.ID,
		"reason":    reason,
	}).Info("order cancelled")

	return cancelled, nil
}

// FulfillItems помечает позиции отгруженными и пересчитывает статус отгрузки.
func (s *service) FulfillItems(tenantID, orderID string, itemIDs []string) (domain.Order, error) {
	order, err := s.orders.Get(tenantID, orderID)
	if err != nil {
		s.recordFailure("fulfill")
		return domain.Order{}, err
	}
	if order.Status == domain.OrderStatusCancelled {
		s.recordFailure("fulfill")
		return domain.Order{}, domain.ErrOrderAlreadyCancelled
	}

	updated, err := s.orders.FulfillItems(tenantID, orderID, itemIDs)
	if err != nil {
		s.recordFailure("fulfill")
		return domain.Order{}, err
	}

	fulfilled := 0
	for _, item := range updated.Items {
		if item.Fulfilled {
			fulfilled++
		}
	}
	if s.metrics != nil {
		s.metrics.RecordItemsFulfilled(len(itemIDs))
	}

	s.emitEvent(&updated, kafka.EventTypeOrderItemsFulfilled, map[string]interface{}{
		"fulfillment_status": string(updated.FulfillmentStatus),
		"fulfilled_count":    fulfilled,
		"items_count":        len(updated.Items),
	})

	return updated, nil
}

// Timeline возвращает события жизненного цикла заказа тенанта.
func (s *service) Timeline(tenantID, orderID string) ([]domain.TimelineEvent, error) {
	if _, err := s.orders.Get(tenantID, orderID); err != nil {
		return nil, err
	}
	return s.timeline.List(orderID)
}

// emitEvent кладёт событие в transactional outbox и таймлайн заказа.
// Payload — конверт kafka.OrderEvent, его же разбирает consumer.
// Ошибки публикации не прерывают основную операцию.
func (s *service) emitEvent(order *domain.Order, eventType kafka.EventType, metadata map[string]interface{}) {
	event := kafka.NewOrderEvent(eventType, order.TenantID, order.ID, order.CustomerID, string(order.Status), metadata)

	data, err := json.Marshal(event)
	if err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"order_id": order.ID,
			"event":    eventType,
		}).Error("marshal event failed")
		return
	}

	msg := domain.OutboxMessage{
		AggregateType: "order",
		AggregateID:   order.ID,
		EventType:     string(eventType),
		Payload:       data,
	}
	if _, err := s.outbox.Enqueue(msg); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"order_id": order.ID,
			"event":    eventType,
		}).Error("enqueue event failed")
	} else if s.metrics != nil {
		s.metrics.RecordOutboxEvent()
	}

	if s.timeline == nil {
		return
	}

	var reason string
	if r, ok := metadata["reason"].(string); ok {
		reason = r
	}
	timelineEvent := domain.TimelineEvent{
		OrderID:  order.ID,
		Type:     string(eventType),
		Reason:   reason,
		Occurred: event.Timestamp.UTC(),
	}
	if err := s.timeline.Append(timelineEvent); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"order_id": order.ID,
			"event":    eventType,
		}).Warn("append timeline event failed")
	} else if s.metrics != nil {
		s.metrics.RecordTimelineEvent()
	}
}

func (s *service) recordFailure(operation string) {
	if s.metrics != nil {
		s.metrics.RecordOperationFailed(operation)
	}
}

// materializeAddress сохраняет адрес из запроса как адрес клиента.
func materializeAddress(customerID string, kind domain.AddressKind, in AddressInput, now time.Time) domain.CustomerAddress {
	return domain.CustomerAddress{
		ID:         uuid.NewString(),
		CustomerID: customerID,
		Kind:       kind,
		Line1:      in.Line1,
		Line2:      in.Line2,
		City:       in.City,
		Region:     in.Region,
		PostalCode: in.PostalCode,
		Country:    in.Country,
		CreatedAt:  now,
	}
}

var _ Service = (*service)(nil)
