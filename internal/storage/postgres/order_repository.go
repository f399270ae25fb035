package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nikitaegorov/storefront/internal/domain"
)

const (
	opTimeout = 5 * time.Second
)

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт PostgreSQL-реализацию OrderRepository.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepository{db: store.DB()}
}

// Create выполняет создание заказа в одной транзакции: номер из счётчика
// тенанта, запись заказа с позициями, адреса, списание остатков и агрегаты
// клиента. Откат любой части откатывает всё.
func (r *orderRepository) Create(order domain.Order, addresses []domain.CustomerAddress) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var customerID string
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM customers WHERE id = $1 AND tenant_id = $2
	`, order.CustomerID, order.TenantID).Scan(&customerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = domain.ErrCustomerNotFound
			return domain.Order{}, err
		}
		return domain.Order{}, fmt.Errorf("check customer: %w", err)
	}

	// Счётчик тенанта выдаёт следующий номер заказа атомарно.
	err = tx.QueryRowContext(ctx, `
		INSERT INTO tenant_counters (tenant_id, order_number)
		VALUES ($1, 1)
		ON CONFLICT (tenant_id)
		DO UPDATE SET order_number = tenant_counters.order_number + 1
		RETURNING order_number
	`, order.TenantID).Scan(&order.OrderNumber)
	if err != nil {
		return domain.Order{}, fmt.Errorf("allocate order number: %w", err)
	}

	for _, addr := range addresses {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO customer_addresses (
				id, customer_id, kind, line1, line2, city, region, postal_code, country, created_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		`,
			addr.ID, addr.CustomerID, string(addr.Kind), addr.Line1, addr.Line2,
			addr.City, addr.Region, addr.PostalCode, addr.Country, addr.CreatedAt,
		); err != nil {
			return domain.Order{}, fmt.Errorf("insert customer address: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (
			id, tenant_id, order_number, customer_id, currency,
			subtotal_minor, tax_minor, shipping_minor, discount_minor, total_minor,
			status, payment_status, fulfillment_status,
			payment_method, transaction_id, shipping_method, tracking_number, notes,
			shipping_address_id, billing_address_id,
			version, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23)
	`,
		order.ID, order.TenantID, order.OrderNumber, order.CustomerID, order.Currency,
		order.SubtotalMinor, order.TaxMinor, order.ShippingMinor, order.DiscountMinor, order.TotalMinor,
		string(order.Status), string(order.PaymentStatus), string(order.FulfillmentStatus),
		order.PaymentMethod, order.TransactionID, order.ShippingMethod, order.TrackingNumber, order.Notes,
		order.ShippingAddressID, order.BillingAddressID,
		order.Version, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			err = domain.ErrOrderVersionConflict
			return domain.Order{}, err
		}
		return domain.Order{}, fmt.Errorf("insert order: %w", err)
	}

	for _, item := range order.Items {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (
				id, order_id, product_id, variant_id, sku, title, variant_title,
				price_minor, qty, fulfilled, created_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		`,
			item.ID, order.ID, item.ProductID, item.VariantID, item.SKU, item.Title,
			item.VariantTitle, item.PriceMinor, item.Qty, item.Fulfilled, item.CreatedAt,
		); err != nil {
			return domain.Order{}, fmt.Errorf("insert order item: %w", err)
		}

		if err = r.decrementInventoryTx(ctx, tx, order.TenantID, item); err != nil {
			return domain.Order{}, err
		}
	}

	if _, err = tx.ExecContext(ctx, `
		UPDATE customers
		SET total_orders = total_orders + 1,
		    total_spent_minor = total_spent_minor + $1,
		    updated_at = $2
		WHERE id = $3 AND tenant_id = $4
	`, order.TotalMinor, order.CreatedAt, order.CustomerID, order.TenantID); err != nil {
		return domain.Order{}, fmt.Errorf("update customer aggregates: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return domain.Order{}, fmt.Errorf("commit create order: %w", err)
	}

	return order, nil
}

// decrementInventoryTx списывает остаток позиции защищённым относительным
// обновлением: условие на остаток входит в сам UPDATE и закрывает гонку
// конкурентных созданий.
func (r *orderRepository) decrementInventoryTx(ctx context.Context, tx *sql.Tx, tenantID string, item domain.OrderItem) error {
	if item.VariantID != "" {
		res, err := tx.ExecContext(ctx, `
			UPDATE product_variants v
			SET inventory_qty = CASE WHEN p.track_inventory THEN v.inventory_qty - $1 ELSE v.inventory_qty END
			FROM products p
			WHERE v.id = $2
			  AND v.product_id = p.id
			  AND p.tenant_id = $3
			  AND (NOT p.track_inventory OR p.allow_backorder OR v.inventory_qty >= $1)
		`, item.Qty, item.VariantID, tenantID)
		if err != nil {
			return fmt.Errorf("decrement variant inventory: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("variant inventory rows affected: %w", err)
		}
		if affected == 0 {
			return r.classifyVariantFailure(ctx, tx, tenantID, item.VariantID)
		}
		return nil
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE products
		SET inventory_qty = CASE WHEN track_inventory THEN inventory_qty - $1 ELSE inventory_qty END
		WHERE id = $2
		  AND tenant_id = $3
		  AND (NOT track_inventory OR allow_backorder OR inventory_qty >= $1)
	`, item.Qty, item.ProductID, tenantID)
	if err != nil {
		return fmt.Errorf("decrement product inventory: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("product inventory rows affected: %w", err)
	}
	if affected == 0 {
		var id string
		scanErr := tx.QueryRowContext(ctx, `
			SELECT id FROM products WHERE id = $1 AND tenant_id = $2
		`, item.ProductID, tenantID).Scan(&id)
		if errors.Is(scanErr, sql.ErrNoRows) {
			return domain.ErrProductNotFound
		}
		if scanErr != nil {
			return fmt.Errorf("check product exists: %w", scanErr)
		}
		return domain.ErrInsufficientStock
	}
	return nil
}

func (r *orderRepository) classifyVariantFailure(ctx context.Context, tx *sql.Tx, tenantID, variantID string) error {
	var id string
	err := tx.QueryRowContext(ctx, `
		SELECT v.id
		FROM product_variants v
		JOIN products p ON p.id = v.product_id
		WHERE v.id = $1 AND p.tenant_id = $2
	`, variantID, tenantID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrVariantNotFound
	}
	if err != nil {
		return fmt.Errorf("check variant exists: %w", err)
	}
	return domain.ErrInsufficientStock
}

const orderColumns = `
	id, tenant_id, order_number, customer_id, currency,
	subtotal_minor, tax_minor, shipping_minor, discount_minor, total_minor,
	status, payment_status, fulfillment_status,
	payment_method, transaction_id, shipping_method, tracking_number, notes,
	shipping_address_id, billing_address_id,
	completed_at, cancelled_at, version, created_at, updated_at
`

func scanOrder(row interface{ Scan(...interface{}) error }) (domain.Order, error) {
	var (
		order                                    domain.Order
		status, paymentStatus, fulfillmentStatus string
		completedAt, cancelledAt                 sql.NullTime
	)
	if err := row.Scan(
		&order.ID, &order.TenantID, &order.OrderNumber, &order.CustomerID, &order.Currency,
		&order.SubtotalMinor, &order.TaxMinor, &order.ShippingMinor, &order.DiscountMinor, &order.TotalMinor,
		&status, &paymentStatus, &fulfillmentStatus,
		&order.PaymentMethod, &order.TransactionID, &order.ShippingMethod, &order.TrackingNumber, &order.Notes,
		&order.ShippingAddressID, &order.BillingAddressID,
		&completedAt, &cancelledAt, &order.Version, &order.CreatedAt, &order.UpdatedAt,
	); err != nil {
		return domain.Order{}, err
	}
	order.Status = domain.OrderStatus(status)
	order.PaymentStatus = domain.PaymentStatus(paymentStatus)
	order.FulfillmentStatus = domain.FulfillmentStatus(fulfillmentStatus)
	if completedAt.Valid {
		ts := completedAt.Time.UTC()
		order.CompletedAt = &ts
	}
	if cancelledAt.Valid {
		ts := cancelledAt.Time.UTC()
		order.CancelledAt = &ts
	}
	return order, nil
}

func (r *orderRepository) Get(tenantID, id string) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE id = $1 AND tenant_id = $2
	`, id, tenantID)

	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("select order: %w", err)
	}

	items, err := r.loadItems(ctx, order.ID)
	if err != nil {
		return domain.Order{}, err
	}
	order.Items = items

	return order, nil
}

// List строит WHERE из фильтра и возвращает страницу вместе с общим числом
// записей под фильтром.
func (r *orderRepository) List(tenantID string, filter domain.OrderFilter) ([]domain.Order, int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	where := []string{"o.tenant_id = $1"}
	args := []interface{}{tenantID}

	addArg := func(condition string, value interface{}) {
		args = append(args, value)
		where = append(where, strings.Replace(condition, "?", "$"+strconv.Itoa(len(args)), 1))
	}

	if filter.Status != "" {
		addArg("o.status = ?", string(filter.Status))
	}
	if filter.PaymentStatus != "" {
		addArg("o.payment_status = ?", string(filter.PaymentStatus))
	}
	if filter.FulfillmentStatus != "" {
		addArg("o.fulfillment_status = ?", string(filter.FulfillmentStatus))
	}
	if filter.CustomerID != "" {
		addArg("o.customer_id = ?", filter.CustomerID)
	}
	if !filter.CreatedFrom.IsZero() {
		addArg("o.created_at >= ?", filter.CreatedFrom)
	}
	if !filter.CreatedTo.IsZero() {
		addArg("o.created_at <= ?", filter.CreatedTo)
	}
	if filter.Search != "" {
		if number, err := strconv.ParseInt(filter.Search, 10, 64); err == nil {
			addArg("o.order_number = ?", number)
		} else {
			addArg("c.email ILIKE ?", "%"+filter.Search+"%")
		}
	}

	baseQuery := `
		FROM orders o
		JOIN customers c ON c.id = o.customer_id
		WHERE ` + strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) "+baseQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	query := "SELECT " + prefixOrderColumns("o") + baseQuery +
		" ORDER BY o.created_at DESC, o.order_number DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += " OFFSET $" + strconv.Itoa(len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan order row: %w", err)
		}
		items, err := r.loadItems(ctx, order.ID)
		if err != nil {
			return nil, 0, err
		}
		order.Items = items
		result = append(result, order)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate order rows: %w", err)
	}

	return result, total, nil
}

func prefixOrderColumns(alias string) string {
	parts := strings.Split(orderColumns, ",")
	for i, part := range parts {
		parts[i] = alias + "." + strings.TrimSpace(part)
	}
	return strings.Join(parts, ", ")
}

// Save обновляет мутабельные поля заказа с optimistic locking.
// Позиции заказа не трогает.
func (r *orderRepository) Save(order domain.Order) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $1,
		    payment_status = $2,
		    fulfillment_status = $3,
		    payment_method = $4,
		    transaction_id = $5,
		    shipping_method = $6,
		    tracking_number = $7,
		    notes = $8,
		    tax_minor = $9,
		    shipping_minor = $10,
		    discount_minor = $11,
		    total_minor = $12,
		    completed_at = $13,
		    version = version + 1,
		    updated_at = $14
		WHERE id = $15
		  AND tenant_id = $16
		  AND version = $17
	`,
		string(order.Status), string(order.PaymentStatus), string(order.FulfillmentStatus),
		order.PaymentMethod, order.TransactionID, order.ShippingMethod, order.TrackingNumber, order.Notes,
		order.TaxMinor, order.ShippingMinor, order.DiscountMinor, order.TotalMinor,
		order.CompletedAt, order.UpdatedAt,
		order.ID, order.TenantID, order.Version,
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		exists, err := r.orderExists(ctx, order.TenantID, order.ID)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrOrderNotFound
		}
		return domain.ErrOrderVersionConflict
	}

	return nil
}

// Cancel в одной транзакции возвращает остатки по позициям, откатывает
// агрегаты клиента и переводит заказ в cancelled.
func (r *orderRepository) Cancel(order domain.Order, cancelledAt time.Time) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET status = $1,
		    cancelled_at = $2,
		    version = version + 1,
		    updated_at = $2
		WHERE id = $3
		  AND tenant_id = $4
		  AND version = $5
	`, string(domain.OrderStatusCancelled), cancelledAt, order.ID, order.TenantID, order.Version)
	if err != nil {
		return domain.Order{}, fmt.Errorf("cancel order: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Order{}, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		exists, checkErr := r.orderExists(ctx, order.TenantID, order.ID)
		if checkErr != nil {
			err = checkErr
			return domain.Order{}, err
		}
		if !exists {
			err = domain.ErrOrderNotFound
			return domain.Order{}, err
		}
		err = domain.ErrOrderVersionConflict
		return domain.Order{}, err
	}

	items, err := r.loadItemsTx(ctx, tx, order.ID)
	if err != nil {
		return domain.Order{}, err
	}
	for _, item := range items {
		if err = r.incrementInventoryTx(ctx, tx, order.TenantID, item); err != nil {
			return domain.Order{}, err
		}
	}

	if _, err = tx.ExecContext(ctx, `
		UPDATE customers
		SET total_orders = total_orders - 1,
		    total_spent_minor = total_spent_minor - $1,
		    updated_at = $2
		WHERE id = $3 AND tenant_id = $4
	`, order.TotalMinor, cancelledAt, order.CustomerID, order.TenantID); err != nil {
		return domain.Order{}, fmt.Errorf("rollback customer aggregates: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return domain.Order{}, fmt.Errorf("commit cancel order: %w", err)
	}

	return r.Get(order.TenantID, order.ID)
}

// incrementInventoryTx возвращает остаток симметрично списанию при создании.
func (r *orderRepository) incrementInventoryTx(ctx context.Context, tx *sql.Tx, tenantID string, item domain.OrderItem) error {
	if item.VariantID != "" {
		if _, err := tx.ExecContext(ctx, `
			UPDATE product_variants v
			SET inventory_qty = v.inventory_qty + $1
			FROM products p
			WHERE v.id = $2
			  AND v.product_id = p.id
			  AND p.tenant_id = $3
			  AND p.track_inventory
		`, item.Qty, item.VariantID, tenantID); err != nil {
			return fmt.Errorf("restore variant inventory: %w", err)
		}
		return nil
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE products
		SET inventory_qty = inventory_qty + $1
		WHERE id = $2
		  AND tenant_id = $3
		  AND track_inventory
	`, item.Qty, item.ProductID, tenantID); err != nil {
		return fmt.Errorf("restore product inventory: %w", err)
	}
	return nil
}

// FulfillItems помечает позиции отгруженными и в той же транзакции
// пересчитывает агрегатный статус отгрузки заказа.
func (r *orderRepository) FulfillItems(tenantID, orderID string, itemIDs []string) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var exists string
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM orders WHERE id = $1 AND tenant_id = $2 FOR UPDATE
	`, orderID, tenantID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = domain.ErrOrderNotFound
			return domain.Order{}, err
		}
		return domain.Order{}, fmt.Errorf("lock order: %w", err)
	}

	if len(itemIDs) > 0 {
		placeholders := make([]string, 0, len(itemIDs))
		args := []interface{}{orderID}
		for _, id := range itemIDs {
			args = append(args, id)
			placeholders = append(placeholders, "$"+strconv.Itoa(len(args)))
		}

		// Уже отгруженные позиции не считаются кандидатами: повторная
		// отгрузка того же набора должна вернуть ErrNoItemsToFulfill.
		res, execErr := tx.ExecContext(ctx, `
			UPDATE order_items
			SET fulfilled = TRUE
			WHERE order_id = $1 AND NOT fulfilled AND id IN (`+strings.Join(placeholders, ",")+`)
		`, args...)
		if execErr != nil {
			err = fmt.Errorf("fulfill order items: %w", execErr)
			return domain.Order{}, err
		}
		affected, affErr := res.RowsAffected()
		if affErr != nil {
			err = fmt.Errorf("fulfilled rows affected: %w", affErr)
			return domain.Order{}, err
		}
		if affected == 0 {
			err = domain.ErrNoItemsToFulfill
			return domain.Order{}, err
		}
	} else {
		err = domain.ErrNoItemsToFulfill
		return domain.Order{}, err
	}

	var totalItems, fulfilledItems int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE fulfilled)
		FROM order_items
		WHERE order_id = $1
	`, orderID).Scan(&totalItems, &fulfilledItems)
	if err != nil {
		return domain.Order{}, fmt.Errorf("count fulfilled items: %w", err)
	}

	status := domain.FulfillmentStatusPartial
	switch fulfilledItems {
	case 0:
		status = domain.FulfillmentStatusUnfulfilled
	case totalItems:
		status = domain.FulfillmentStatusFulfilled
	}

	if _, err = tx.ExecContext(ctx, `
		UPDATE orders
		SET fulfillment_status = $1,
		    version = version + 1,
		    updated_at = $2
		WHERE id = $3 AND tenant_id = $4
	`, string(status), time.Now().UTC(), orderID, tenantID); err != nil {
		return domain.Order{}, fmt.Errorf("update fulfillment status: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return domain.Order{}, fmt.Errorf("commit fulfill items: %w", err)
	}

	return r.Get(tenantID, orderID)
}

func (r *orderRepository) loadItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, variant_id, sku, title, variant_title,
		       price_minor, qty, fulfilled, created_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY created_at ASC, id ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

func (r *orderRepository) loadItemsTx(ctx context.Context, tx *sql.Tx, orderID string) ([]domain.OrderItem, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, order_id, product_id, variant_id, sku, title, variant_title,
		       price_minor, qty, fulfilled, created_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY created_at ASC, id ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

func scanItems(rows *sql.Rows) ([]domain.OrderItem, error) {
	items := make([]domain.OrderItem, 0)
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID, &item.VariantID, &item.SKU,
			&item.Title, &item.VariantTitle, &item.PriceMinor, &item.Qty,
			&item.Fulfilled, &item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}
	return items, nil
}

func (r *orderRepository) orderExists(ctx context.Context, tenantID, orderID string) (bool, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `
		SELECT id FROM orders WHERE id = $1 AND tenant_id = $2
	`, orderID, tenantID).Scan(&id)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("check order exists: %w", err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

var _ domain.OrderRepository = (*orderRepository)(nil)
