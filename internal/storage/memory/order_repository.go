package memory

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/nikitaegorov/storefront/internal/domain"
)

// orderRepositoryInMemory — in-memory реализация OrderRepository поверх общего Store.
type orderRepositoryInMemory struct {
	store *Store
}

// NewOrderRepository возвращает in-memory репозиторий заказов.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepositoryInMemory{store: store}
}

// Create выполняет все эффекты создания заказа под одной блокировкой:
// номер заказа, запись заказа с позициями, адреса, списание остатков,
// агрегаты клиента. При любой ошибке состояние не меняется.
func (r *orderRepositoryInMemory) Create(order domain.Order, addresses []domain.CustomerAddress) (domain.Order, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[order.ID]; exists {
		return domain.Order{}, domain.ErrOrderVersionConflict
	}

	customer, ok := s.customers[order.CustomerID]
	if !ok || customer.TenantID != order.TenantID {
		return domain.Order{}, domain.ErrCustomerNotFound
	}

	// Сначала считаем все изменения остатков на копиях, чтобы отказ
	// по любой позиции не оставил частично списанного состояния.
	adjusted := make(map[string]domain.Product)
	for _, item := range order.Items {
		product, ok := adjusted[item.ProductID]
		if !ok {
			stored, exists := s.products[item.ProductID]
			if !exists || stored.TenantID != order.TenantID {
				return domain.Order{}, domain.ErrProductNotFound
			}
			product = cloneProduct(stored)
		}

		if err := applyDecrement(&product, item.VariantID, item.Qty); err != nil {
			return domain.Order{}, err
		}
		adjusted[item.ProductID] = product
	}

	order.OrderNumber = s.nextOrderNumber(order.TenantID)

	for id, product := range adjusted {
		s.products[id] = product
	}
	for _, addr := range addresses {
		s.addresses[addr.ID] = addr
	}

	customer.TotalOrders++
	customer.TotalSpentMinor += order.TotalMinor
	customer.UpdatedAt = order.CreatedAt
	s.customers[customer.ID] = customer

	s.orders[order.ID] = cloneOrder(order)
	return order, nil
}

// applyDecrement списывает остаток позиции: у варианта, если он указан,
// иначе у товара без вариантов. Проверка остатка повторяется на уровне
// хранилища, чтобы закрыть гонку конкурентных созданий.
func applyDecrement(product *domain.Product, variantID string, qty int32) error {
	if variantID != "" {
		for i := range product.Variants {
			if product.Variants[i].ID != variantID {
				continue
			}
			if err := domain.CheckStock(product.TrackInventory, product.AllowBackorder, product.Variants[i].InventoryQty, qty); err != nil {
				return err
			}
			if product.TrackInventory {
				product.Variants[i].InventoryQty -= qty
			}
			return nil
		}
		return domain.ErrVariantNotFound
	}

	if product.HasVariants() {
		// Товар с вариантами без указанного варианта: остаток товара не трогаем.
		return nil
	}
	if err := domain.CheckStock(product.TrackInventory, product.AllowBackorder, product.InventoryQty, qty); err != nil {
		return err
	}
	if product.TrackInventory {
		product.InventoryQty -= qty
	}
	return nil
}

// applyIncrement возвращает остаток симметрично applyDecrement.
func applyIncrement(product *domain.Product, variantID string, qty int32) {
	if variantID != "" {
		for i := range product.Variants {
			if product.Variants[i].ID == variantID {
				if product.TrackInventory {
					product.Variants[i].InventoryQty += qty
				}
				return
			}
		}
		return
	}
	if product.HasVariants() {
		return
	}
	if product.TrackInventory {
		product.InventoryQty += qty
	}
}

// Get возвращает заказ тенанта или ErrOrderNotFound.
func (r *orderRepositoryInMemory) Get(tenantID, id string) (domain.Order, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[id]
	if !ok || order.TenantID != tenantID {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

// List применяет фильтры и пагинацию, total считается до среза страницы.
func (r *orderRepositoryInMemory) List(tenantID string, filter domain.OrderFilter) ([]domain.Order, int, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]domain.Order, 0)
	for _, order := range s.orders {
		if order.TenantID != tenantID {
			continue
		}
		if !r.matches(order, filter) {
			continue
		}
		matched = append(matched, cloneOrder(order))
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].OrderNumber > matched[j].OrderNumber
	})

	total := len(matched)

	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return []domain.Order{}, total, nil
	}
	matched = matched[offset:]
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}

	return matched, total, nil
}

func (r *orderRepositoryInMemory) matches(order domain.Order, filter domain.OrderFilter) bool {
	if filter.Status != "" && order.Status != filter.Status {
		return false
	}
	if filter.PaymentStatus != "" && order.PaymentStatus != filter.PaymentStatus {
		return false
	}
	if filter.FulfillmentStatus != "" && order.FulfillmentStatus != filter.FulfillmentStatus {
		return false
	}
	if filter.CustomerID != "" && order.CustomerID != filter.CustomerID {
		return false
	}
	if !filter.CreatedFrom.IsZero() && order.CreatedAt.Before(filter.CreatedFrom) {
		return false
	}
	if !filter.CreatedTo.IsZero() && order.CreatedAt.After(filter.CreatedTo) {
		return false
	}
	if filter.Search != "" {
		if number, err := strconv.ParseInt(filter.Search, 10, 64); err == nil {
			return order.OrderNumber == number
		}
		customer, ok := r.store.customers[order.CustomerID]
		if !ok {
			return false
		}
		return strings.Contains(strings.ToLower(customer.Email), strings.ToLower(filter.Search))
	}
	return true
}

// Save перезаписывает мутабельные поля заказа, проверяя версию (optimistic locking).
// Позиции заказа иммутабельны и из сохранённого состояния не затираются.
func (r *orderRepositoryInMemory) Save(order domain.Order) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.orders[order.ID]
	if !ok || current.TenantID != order.TenantID {
		return domain.ErrOrderNotFound
	}
	if current.Version != order.Version {
		return domain.ErrOrderVersionConflict
	}

	order.Items = current.Items
	order.OrderNumber = current.OrderNumber
	order.CreatedAt = current.CreatedAt
	order.Version++
	s.orders[order.ID] = cloneOrder(order)
	return nil
}

// Cancel атомарно возвращает остатки, откатывает агрегаты клиента
// и переводит заказ в cancelled.
func (r *orderRepositoryInMemory) Cancel(order domain.Order, cancelledAt time.Time) (domain.Order, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.orders[order.ID]
	if !ok || current.TenantID != order.TenantID {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	if current.Version != order.Version {
		return domain.Order{}, domain.ErrOrderVersionConflict
	}

	for _, item := range current.Items {
		product, exists := s.products[item.ProductID]
		if !exists {
			continue
		}
		clone := cloneProduct(product)
		applyIncrement(&clone, item.VariantID, item.Qty)
		s.products[item.ProductID] = clone
	}

	if customer, exists := s.customers[current.CustomerID]; exists {
		customer.TotalOrders--
		customer.TotalSpentMinor -= current.TotalMinor
		customer.UpdatedAt = cancelledAt
		s.customers[customer.ID] = customer
	}

	current.Status = domain.OrderStatusCancelled
	current.CancelledAt = &cancelledAt
	current.UpdatedAt = cancelledAt
	current.Version++
	s.orders[current.ID] = current

	return cloneOrder(current), nil
}

// FulfillItems помечает позиции из списка отгруженными и пересчитывает
// агрегатный статус отгрузки по всем позициям заказа.
func (r *orderRepositoryInMemory) FulfillItems(tenantID, orderID string, itemIDs []string) (domain.Order, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.orders[orderID]
	if !ok || current.TenantID != tenantID {
		return domain.Order{}, domain.ErrOrderNotFound
	}

	requested := make(map[string]bool, len(itemIDs))
	for _, id := range itemIDs {
		requested[id] = true
	}

	order := cloneOrder(current)
	matched := 0
	for i := range order.Items {
		if requested[order.Items[i].ID] && !order.Items[i].Fulfilled {
			order.Items[i].Fulfilled = true
			matched++
		}
	}
	if matched == 0 {
		return domain.Order{}, domain.ErrNoItemsToFulfill
	}

	order.FulfillmentStatus = domain.DeriveFulfillmentStatus(order.Items)
	order.UpdatedAt = time.Now().UTC()
	order.Version++
	s.orders[order.ID] = cloneOrder(order)

	return order, nil
}

var _ domain.OrderRepository = (*orderRepositoryInMemory)(nil)
