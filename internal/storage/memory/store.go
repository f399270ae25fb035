package memory

import (
	"sync"

	"github.com/nikitaegorov/storefront/internal/domain"
)

// Store — общее in-memory состояние всех агрегатов тенантов.
// Один mutex на всё состояние делает многошаговые операции
// (создание заказа, отмена) атомарными, как транзакция в PostgreSQL.
type Store struct {
	mu        sync.RWMutex
	orders    map[string]domain.Order
	customers map[string]domain.Customer
	addresses map[string]domain.CustomerAddress
	products  map[string]domain.Product
	// counters хранит последний выданный номер заказа по тенанту.
	counters map[string]int64
}

// NewStore создаёт пустое in-memory хранилище для локальной разработки и тестов.
func NewStore() *Store {
	return &Store{
		orders:    make(map[string]domain.Order),
		customers: make(map[string]domain.Customer),
		addresses: make(map[string]domain.CustomerAddress),
		products:  make(map[string]domain.Product),
		counters:  make(map[string]int64),
	}
}

// nextOrderNumber выделяет следующий номер заказа тенанта.
// Вызывается только под записывающей блокировкой.
func (s *Store) nextOrderNumber(tenantID string) int64 {
	s.counters[tenantID]++
	return s.counters[tenantID]
}

func cloneOrder(order domain.Order) domain.Order {
	clone := order
	clone.Items = make([]domain.OrderItem, len(order.Items))
	copy(clone.Items, order.Items)
	if order.CompletedAt != nil {
		t := *order.CompletedAt
		clone.CompletedAt = &t
	}
	if order.CancelledAt != nil {
		t := *order.CancelledAt
		clone.CancelledAt = &t
	}
	return clone
}

func cloneProduct(product domain.Product) domain.Product {
	clone := product
	clone.Variants = make([]domain.ProductVariant, len(product.Variants))
	copy(clone.Variants, product.Variants)
	return clone
}
