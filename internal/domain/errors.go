package domain

import "errors"

var (
	// Ошибка отсутствующего идентификатора тенанта.
	ErrTenantRequired = errors.New("tenant_id is required")
	// Ошибка отсутствующего идентификатора клиента.
	ErrCustomerRequired = errors.New("customer_id is required")
	// Ошибка отсутствующего кода валюты.
	ErrCurrencyRequired = errors.New("currency is required")
	// Ошибка отсутствия хотя бы одной позиции в заказе.
	ErrItemsRequired = errors.New("order must contain at least one item")
	// Ошибка при некорректном количестве товара (<= 0).
	ErrItemQtyInvalid = errors.New("item qty must be greater than zero")
	// Ошибка, если цена позиции отрицательная.
	ErrItemPriceInvalid = errors.New("item price must be non-negative")
	// Ошибка отрицательного налога, доставки или скидки.
	ErrChargeNegative = errors.New("tax, shipping and discount must be non-negative")
	// Ошибка несоответствия subtotal и суммы позиций.
	ErrSubtotalMismatch = errors.New("order subtotal does not match items sum")
	// Ошибка нарушения инварианта total = subtotal + tax + shipping - discount.
	ErrTotalMismatch = errors.New("order total does not match subtotal and charges")

	// ErrOrderNotFound возвращается, если заказ не найден в рамках тенанта.
	ErrOrderNotFound = errors.New("order not found")
	// ErrCustomerNotFound возвращается, если клиент не найден в рамках тенанта.
	ErrCustomerNotFound = errors.New("customer not found")
	// ErrProductNotFound возвращается, если товар не найден в рамках тенанта.
	ErrProductNotFound = errors.New("product not found")
	// ErrVariantNotFound возвращается, если вариант не принадлежит товару.
	ErrVariantNotFound = errors.New("product variant not found")

	// ErrProductInactive — товар существует, но недоступен для заказа.
	ErrProductInactive = errors.New("product is not active")
	// ErrVariantUnavailable — вариант снят с продажи.
	ErrVariantUnavailable = errors.New("product variant is unavailable")
	// ErrInsufficientStock — остатка не хватает и backorder запрещён.
	ErrInsufficientStock = errors.New("insufficient inventory")
	// ErrOrderAlreadyCancelled — повторная отмена запрещена.
	ErrOrderAlreadyCancelled = errors.New("order is already cancelled")
	// ErrOrderDelivered — доставленный заказ отменить нельзя.
	ErrOrderDelivered = errors.New("delivered order cannot be cancelled")
	// ErrNoItemsToFulfill — в запросе отгрузки не осталось подходящих позиций.
	ErrNoItemsToFulfill = errors.New("no valid items to fulfill")
	// ErrInvalidStatusTransition — запрошенный переход статуса не разрешён.
	ErrInvalidStatusTransition = errors.New("invalid order status transition")

	// Ошибка отсутствующего email клиента.
	ErrCustomerEmailRequired = errors.New("customer email is required")

	// ErrCustomerEmailTaken — email уже занят другим клиентом тенанта.
	ErrCustomerEmailTaken = errors.New("customer email is already taken")
	// ErrProductSKUTaken — SKU уже занят другим товаром тенанта.
	ErrProductSKUTaken = errors.New("product sku is already taken")
	// ErrOrderVersionConflict сигнализирует о конфликте версий при сохранении.
	ErrOrderVersionConflict = errors.New("order version conflict")

	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// IsNotFound проверяет, относится ли ошибка к классу "сущность не найдена".
func IsNotFound(err error) bool {
	return errors.Is(err, ErrOrderNotFound) ||
		errors.Is(err, ErrCustomerNotFound) ||
		errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrVariantNotFound)
}

// IsConflict проверяет, относится ли ошибка к классу конфликтов уникальности/версий.
func IsConflict(err error) bool {
	return errors.Is(err, ErrCustomerEmailTaken) ||
		errors.Is(err, ErrProductSKUTaken) ||
		errors.Is(err, ErrOrderVersionConflict)
}

// IsValidation проверяет, относится ли ошибка к нарушению бизнес-правил запроса.
func IsValidation(err error) bool {
	switch {
	case errors.Is(err, ErrProductInactive),
		errors.Is(err, ErrVariantUnavailable),
		errors.Is(err, ErrInsufficientStock),
		errors.Is(err, ErrOrderAlreadyCancelled),
		errors.Is(err, ErrOrderDelivered),
		errors.Is(err, ErrNoItemsToFulfill),
		errors.Is(err, ErrInvalidStatusTransition),
		errors.Is(err, ErrTenantRequired),
		errors.Is(err, ErrCustomerRequired),
		errors.Is(err, ErrCurrencyRequired),
		errors.Is(err, ErrItemsRequired),
		errors.Is(err, ErrItemQtyInvalid),
		errors.Is(err, ErrItemPriceInvalid),
		errors.Is(err, ErrChargeNegative),
		errors.Is(err, ErrSubtotalMismatch),
		errors.Is(err, ErrTotalMismatch):
		return true
	default:
		return false
	}
}

// IsVersionConflict проверяет, является ли ошибка конфликтом версий.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrOrderVersionConflict)
}
