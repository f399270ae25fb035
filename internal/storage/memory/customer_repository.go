package memory

import (
	"strings"

	"github.com/nikitaegorov/storefront/internal/domain"
)

// customerRepositoryInMemory — in-memory реализация CustomerRepository.
type customerRepositoryInMemory struct {
	store *Store
}

// NewCustomerRepository возвращает in-memory репозиторий клиентов.
func NewCustomerRepository(store *Store) domain.CustomerRepository {
	return &customerRepositoryInMemory{store: store}
}

// Create сохраняет клиента, проверяя уникальность email в рамках тенанта.
func (r *customerRepositoryInMemory) Create(customer domain.Customer) (domain.Customer, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.customers {
		if existing.TenantID == customer.TenantID && strings.EqualFold(existing.Email, customer.Email) {
			return domain.Customer{}, domain.ErrCustomerEmailTaken
		}
	}

	s.customers[customer.ID] = customer
	return customer, nil
}

// Get возвращает клиента тенанта или ErrCustomerNotFound.
func (r *customerRepositoryInMemory) Get(tenantID, id string) (domain.Customer, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	customer, ok := s.customers[id]
	if !ok || customer.TenantID != tenantID {
		return domain.Customer{}, domain.ErrCustomerNotFound
	}
	return customer, nil
}

// GetByEmail ищет клиента по email без учёта регистра.
func (r *customerRepositoryInMemory) GetByEmail(tenantID, email string) (domain.Customer, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, customer := range s.customers {
		if customer.TenantID == tenantID && strings.EqualFold(customer.Email, email) {
			return customer, nil
		}
	}
	return domain.Customer{}, domain.ErrCustomerNotFound
}

var _ domain.CustomerRepository = (*customerRepositoryInMemory)(nil)
