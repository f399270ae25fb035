package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nikitaegorov/storefront/internal/domain"
)

type productRepository struct {
	db *sql.DB
}

// NewProductRepository создаёт PostgreSQL-реализацию ProductRepository.
func NewProductRepository(store *Store) domain.ProductRepository {
	return &productRepository{db: store.DB()}
}

// Create сохраняет товар вместе с вариантами в одной транзакции.
func (r *productRepository) Create(product domain.Product) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Product{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO products (
			id, tenant_id, title, sku, status, price_minor,
			track_inventory, allow_backorder, inventory_qty, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		product.ID, product.TenantID, product.Title, product.SKU, string(product.Status),
		product.PriceMinor, product.TrackInventory, product.AllowBackorder,
		product.InventoryQty, product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			err = domain.ErrProductSKUTaken
			return domain.Product{}, err
		}
		return domain.Product{}, fmt.Errorf("insert product: %w", err)
	}

	for _, v := range product.Variants {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO product_variants (
				id, product_id, title, sku, price_minor, inventory_qty, available, created_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		`,
			v.ID, product.ID, v.Title, v.SKU, v.PriceMinor, v.InventoryQty, v.Available, v.CreatedAt,
		); err != nil {
			if isUniqueViolation(err) {
				err = domain.ErrProductSKUTaken
				return domain.Product{}, err
			}
			return domain.Product{}, fmt.Errorf("insert product variant: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return domain.Product{}, fmt.Errorf("commit create product: %w", err)
	}

	return product, nil
}

func (r *productRepository) Get(tenantID, id string) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var (
		product domain.Product
		status  string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, title, sku, status, price_minor,
		       track_inventory, allow_backorder, inventory_qty, created_at, updated_at
		FROM products
		WHERE id = $1 AND tenant_id = $2
	`, id, tenantID).Scan(
		&product.ID, &product.TenantID, &product.Title, &product.SKU, &status,
		&product.PriceMinor, &product.TrackInventory, &product.AllowBackorder,
		&product.InventoryQty, &product.CreatedAt, &product.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("select product: %w", err)
	}
	product.Status = domain.ProductStatus(status)

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, product_id, title, sku, price_minor, inventory_qty, available, created_at
		FROM product_variants
		WHERE product_id = $1
		ORDER BY created_at ASC, id ASC
	`, product.ID)
	if err != nil {
		return domain.Product{}, fmt.Errorf("load product variants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var v domain.ProductVariant
		if err := rows.Scan(
			&v.ID, &v.ProductID, &v.Title, &v.SKU,
			&v.PriceMinor, &v.InventoryQty, &v.Available, &v.CreatedAt,
		); err != nil {
			return domain.Product{}, fmt.Errorf("scan product variant: %w", err)
		}
		product.Variants = append(product.Variants, v)
	}
	if err := rows.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("iterate product variants: %w", err)
	}

	return product, nil
}

var _ domain.ProductRepository = (*productRepository)(nil)
