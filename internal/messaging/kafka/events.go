package kafka

import "time"

// EventType определяет тип доменного события витрины.
type EventType string

const (
	// События жизненного цикла заказа
	EventTypeOrderCreated        EventType = "order.created"
	EventTypeOrderUpdated        EventType = "order.updated"
	EventTypeOrderCancelled      EventType = "order.cancelled"
	EventTypeOrderItemsFulfilled EventType = "order.items_fulfilled"

	// События клиентов
	EventTypeCustomerCreated EventType = "customer.created"
)

// Topics для Kafka
const (
	TopicOrderEvents     = "storefront.order.events"
	TopicDeadLetterQueue = "storefront.dlq" // Dead Letter Queue для failed messages
)

// Kafka headers для retry логики
const (
	HeaderRetryCount    = "x-retry-count"
	HeaderOriginalTopic = "x-original-topic"
	HeaderErrorMessage  = "x-error-message"
	HeaderFailedAt      = "x-failed-at"
)

// OrderEvent представляет событие заказа
type OrderEvent struct {
	EventType  EventType              `json:"event_type"`
	TenantID   string                 `json:"tenant_id"`
	OrderID    string                 `json:"order_id"`
	CustomerID string                 `json:"customer_id"`
	Status     string                 `json:"status"`
	Timestamp  time.Time              `json:"timestamp"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// NewOrderEvent создает новое событие заказа
func NewOrderEvent(eventType EventType, tenantID, orderID, customerID, status string, metadata map[string]interface{}) *OrderEvent {
	return &OrderEvent{
		EventType:  eventType,
		TenantID:   tenantID,
		OrderID:    orderID,
		CustomerID: customerID,
		Status:     status,
		Timestamp:  time.Now(),
		Metadata:   metadata,
	}
}
