package memory

import (
	"strings"

	"github.com/nikitaegorov/storefront/internal/domain"
)

// productRepositoryInMemory — in-memory реализация ProductRepository.
type productRepositoryInMemory struct {
	store *Store
}

// NewProductRepository возвращает in-memory репозиторий каталога.
func NewProductRepository(store *Store) domain.ProductRepository {
	return &productRepositoryInMemory{store: store}
}

// Create сохраняет товар с вариантами, проверяя уникальность SKU в рамках тенанта.
func (r *productRepositoryInMemory) Create(product domain.Product) (domain.Product, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.SKU != "" {
		for _, existing := range s.products {
			if existing.TenantID == product.TenantID && strings.EqualFold(existing.SKU, product.SKU) {
				return domain.Product{}, domain.ErrProductSKUTaken
			}
		}
	}

	s.products[product.ID] = cloneProduct(product)
	return product, nil
}

// Get возвращает товар тенанта с вариантами или ErrProductNotFound.
func (r *productRepositoryInMemory) Get(tenantID, id string) (domain.Product, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, ok := s.products[id]
	if !ok || product.TenantID != tenantID {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return cloneProduct(product), nil
}

var _ domain.ProductRepository = (*productRepositoryInMemory)(nil)
