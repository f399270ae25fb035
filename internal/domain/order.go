package domain

import "time"

// OrderStatus описывает жизненный цикл заказа витрины.
type OrderStatus string

const (
	// OrderStatusPending — заказ создан, ещё не подтверждён мерчантом.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusConfirmed — мерчант подтвердил заказ.
	OrderStatusConfirmed OrderStatus = "confirmed"
	// OrderStatusProcessing — заказ собирается.
	OrderStatusProcessing OrderStatus = "processing"
	// OrderStatusShipped — заказ передан в доставку.
	OrderStatusShipped OrderStatus = "shipped"
	// OrderStatusDelivered — заказ доставлен; терминальный статус.
	OrderStatusDelivered OrderStatus = "delivered"
	// OrderStatusCancelled — заказ отменён; терминальный статус.
	OrderStatusCancelled OrderStatus = "cancelled"
)

// PaymentStatus описывает состояние оплаты заказа.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// FulfillmentStatus показывает, какая доля позиций заказа отгружена.
type FulfillmentStatus string

const (
	FulfillmentStatusUnfulfilled FulfillmentStatus = "unfulfilled"
	FulfillmentStatusPartial     FulfillmentStatus = "partial"
	FulfillmentStatusFulfilled   FulfillmentStatus = "fulfilled"
)

// OrderItem представляет одну позицию заказа.
// Цена и количество фиксируются в момент создания заказа и далее
// не меняются; после создания мутирует только флаг Fulfilled.
type OrderItem struct {
	ID           string
	OrderID      string
	ProductID    string
	VariantID    string // пустой, если позиция без варианта
	SKU          string
	Title        string
	VariantTitle string
	PriceMinor   int64
	Qty          int32
	Fulfilled    bool
	CreatedAt    time.Time
}

// Order агрегирует состояние заказа, его позиции и денежные поля.
// Все денежные суммы хранятся в минимальных единицах валюты.
type Order struct {
	ID          string
	TenantID    string
	OrderNumber int64
	CustomerID  string
	Currency    string

	SubtotalMinor int64
	TaxMinor      int64
	ShippingMinor int64
	DiscountMinor int64
	TotalMinor    int64

	Status            OrderStatus
	PaymentStatus     PaymentStatus
	FulfillmentStatus FulfillmentStatus

	PaymentMethod  string
	TransactionID  string
	ShippingMethod string
	TrackingNumber string
	Notes          string

	ShippingAddressID string
	BillingAddressID  string

	CompletedAt *time.Time
	CancelledAt *time.Time

	Items     []OrderItem
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RecomputeTotal пересчитывает итог из текущих денежных полей.
func (o *Order) RecomputeTotal() {
	o.TotalMinor = o.SubtotalMinor + o.TaxMinor + o.ShippingMinor - o.DiscountMinor
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.TenantID == "" {
		errs = append(errs, ErrTenantRequired)
	}
	if o.CustomerID == "" {
		errs = append(errs, ErrCustomerRequired)
	}
	if o.Currency == "" {
		errs = append(errs, ErrCurrencyRequired)
	}
	if len(o.Items) == 0 {
		errs = append(errs, ErrItemsRequired)
	}
	if o.TaxMinor < 0 || o.ShippingMinor < 0 || o.DiscountMinor < 0 {
		errs = append(errs, ErrChargeNegative)
	}

	// Сверяем subtotal с суммой позиций: qty * price.
	var calc int64
	for _, item := range o.Items {
		if item.Qty <= 0 {
			errs = append(errs, ErrItemQtyInvalid)
		}
		if item.PriceMinor < 0 {
			errs = append(errs, ErrItemPriceInvalid)
		}
		calc += int64(item.Qty) * item.PriceMinor
	}
	if calc != o.SubtotalMinor {
		errs = append(errs, ErrSubtotalMismatch)
	}
	// Инвариант: total == subtotal + tax + shipping - discount.
	if o.TotalMinor != o.SubtotalMinor+o.TaxMinor+o.ShippingMinor-o.DiscountMinor {
		errs = append(errs, ErrTotalMismatch)
	}

	return errs
}

// orderTransitions задаёт допустимые переходы линейного жизненного цикла.
// Отмена идёт отдельным путём с компенсациями и здесь не перечислена.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusConfirmed, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered},
	OrderStatusConfirmed:  {OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusDelivered},
	OrderStatusShipped:    {OrderStatusDelivered},
	OrderStatusDelivered:  {},
	OrderStatusCancelled:  {},
}

// Valid проверяет, что статус относится к поддерживаемым значениям.
func (s OrderStatus) Valid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// Terminal сообщает, завершён ли жизненный цикл заказа.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransitionTo проверяет допустимость перехода статуса по линейной цепочке.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Valid проверяет, что статус оплаты относится к поддерживаемым значениям.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	default:
		return false
	}
}

// Valid проверяет, что статус отгрузки относится к поддерживаемым значениям.
func (s FulfillmentStatus) Valid() bool {
	switch s {
	case FulfillmentStatusUnfulfilled, FulfillmentStatusPartial, FulfillmentStatusFulfilled:
		return true
	default:
		return false
	}
}

// DeriveFulfillmentStatus выводит агрегатный статус отгрузки из набора позиций:
// fulfilled — отгружены все, partial — часть, unfulfilled — ни одной.
func DeriveFulfillmentStatus(items []OrderItem) FulfillmentStatus {
	if len(items) == 0 {
		return FulfillmentStatusUnfulfilled
	}

	fulfilled := 0
	for _, item := range items {
		if item.Fulfilled {
			fulfilled++
		}
	}

	switch fulfilled {
	case 0:
		return FulfillmentStatusUnfulfilled
	case len(items):
		return FulfillmentStatusFulfilled
	default:
		return FulfillmentStatusPartial
	}
}
