package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nikitaegorov/storefront/internal/domain"
)

type customerRepository struct {
	db *sql.DB
}

// NewCustomerRepository создаёт PostgreSQL-реализацию CustomerRepository.
func NewCustomerRepository(store *Store) domain.CustomerRepository {
	return &customerRepository{db: store.DB()}
}

func (r *customerRepository) Create(customer domain.Customer) (domain.Customer, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO customers (
			id, tenant_id, email, first_name, last_name,
			total_orders, total_spent_minor, created_at, updated_at
		) VALUES ($1,$2,LOWER($3),$4,$5,$6,$7,$8,$9)
	`,
		customer.ID, customer.TenantID, customer.Email, customer.FirstName, customer.LastName,
		customer.TotalOrders, customer.TotalSpentMinor, customer.CreatedAt, customer.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Customer{}, domain.ErrCustomerEmailTaken
		}
		return domain.Customer{}, fmt.Errorf("insert customer: %w", err)
	}

	return customer, nil
}

func (r *customerRepository) Get(tenantID, id string) (domain.Customer, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	return r.scanCustomer(r.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, email, first_name, last_name,
		       total_orders, total_spent_minor, created_at, updated_at
		FROM customers
		WHERE id = $1 AND tenant_id = $2
	`, id, tenantID))
}

func (r *customerRepository) GetByEmail(tenantID, email string) (domain.Customer, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	return r.scanCustomer(r.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, email, first_name, last_name,
		       total_orders, total_spent_minor, created_at, updated_at
		FROM customers
		WHERE tenant_id = $1 AND email = LOWER($2)
	`, tenantID, email))
}

func (r *customerRepository) scanCustomer(row *sql.Row) (domain.Customer, error) {
	var customer domain.Customer
	err := row.Scan(
		&customer.ID, &customer.TenantID, &customer.Email,
		&customer.FirstName, &customer.LastName,
		&customer.TotalOrders, &customer.TotalSpentMinor,
		&customer.CreatedAt, &customer.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Customer{}, domain.ErrCustomerNotFound
		}
		return domain.Customer{}, fmt.Errorf("select customer: %w", err)
	}
	return customer, nil
}

var _ domain.CustomerRepository = (*customerRepository)(nil)
