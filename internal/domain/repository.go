package domain

import "time"

// OrderFilter описывает фильтры листинга заказов.
// Search матчит email клиента без учёта регистра либо точный номер заказа.
type OrderFilter struct {
	Status            OrderStatus
	PaymentStatus     PaymentStatus
	FulfillmentStatus FulfillmentStatus
	CustomerID        string
	Search            string
	CreatedFrom       time.Time
	CreatedTo         time.Time
	Limit             int
	Offset            int
}

// OrderRepository описывает требования к хранилищу заказов.
// Многошаговые операции (создание, отмена, отгрузка) выполняются
// в одной транзакции хранилища: либо применяются все эффекты, либо никакие.
type OrderRepository interface {
	// Create атомарно выделяет номер заказа из счётчика тенанта, сохраняет
	// заказ с позициями, материализует переданные адреса, списывает остатки
	// (вариант — если указан, иначе товар без вариантов) и инкрементирует
	// агрегаты клиента. Возвращает сохранённый заказ с присвоенным номером.
	Create(order Order, addresses []CustomerAddress) (Order, error)
	// Get возвращает заказ тенанта по идентификатору или ErrOrderNotFound.
	Get(tenantID, id string) (Order, error)
	// List возвращает страницу заказов и общее число записей под фильтром
	// без учёта пагинации.
	List(tenantID string, filter OrderFilter) ([]Order, int, error)
	// Save применяет обновления мутабельных полей заказа с учётом
	// optimistic locking; позиции не трогает.
	Save(order Order) error
	// Cancel атомарно возвращает остатки по каждой позиции, декрементирует
	// агрегаты клиента и переводит заказ в cancelled.
	Cancel(order Order, cancelledAt time.Time) (Order, error)
	// FulfillItems помечает позиции заказа из списка отгруженными и в той же
	// транзакции пересчитывает агрегатный статус отгрузки по всем позициям.
	// Возвращает ErrNoItemsToFulfill, если ни одна позиция не подошла.
	FulfillItems(tenantID, orderID string, itemIDs []string) (Order, error)
}

// CustomerRepository описывает тенантно-скоупленное хранилище клиентов.
type CustomerRepository interface {
	// Create сохраняет клиента; ErrCustomerEmailTaken при дубликате email.
	Create(customer Customer) (Customer, error)
	// Get возвращает клиента или ErrCustomerNotFound.
	Get(tenantID, id string) (Customer, error)
	// GetByEmail возвращает клиента по email без учёта регистра.
	GetByEmail(tenantID, email string) (Customer, error)
}

// ProductRepository описывает тенантно-скоупленное хранилище каталога.
type ProductRepository interface {
	// Create сохраняет товар вместе с вариантами; ErrProductSKUTaken при дубликате SKU.
	Create(product Product) (Product, error)
	// Get возвращает товар с вариантами или ErrProductNotFound.
	Get(tenantID, id string) (Product, error)
}

// TimelineRepository хранит события жизненного цикла заказа.
type TimelineRepository interface {
	Append(event TimelineEvent) error
	List(orderID string) ([]TimelineEvent, error)
}

// IdempotencyRepository хранит состояние обработки запросов по Idempotency-Key.
type IdempotencyRepository interface {
	CreateProcessing(key, requestHash string, ttlAt time.Time) (IdempotencyRecord, error)
	Get(key string) (IdempotencyRecord, error)
	MarkDone(key string, responseBody []byte, httpStatus int) error
	MarkFailed(key string, responseBody []byte, httpStatus int) error
	DeleteExpired(before time.Time, limit int) (int, error)
}
