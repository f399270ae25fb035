package domain

import "time"

// ProductStatus описывает доступность товара для заказа.
type ProductStatus string

const (
	// ProductStatusActive — товар можно заказывать.
	ProductStatusActive ProductStatus = "active"
	// ProductStatusDraft — товар ещё не опубликован.
	ProductStatusDraft ProductStatus = "draft"
	// ProductStatusArchived — товар снят с продажи.
	ProductStatusArchived ProductStatus = "archived"
)

// Product описывает товар каталога тенанта.
// Остаток меняется только через создание заказа (списание)
// и его отмену (возврат); других путей изменения остатка нет.
type Product struct {
	ID             string
	TenantID       string
	Title          string
	SKU            string
	Status         ProductStatus
	PriceMinor     int64
	TrackInventory bool
	AllowBackorder bool
	InventoryQty   int32
	Variants       []ProductVariant
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ProductVariant — конкретная покупаемая конфигурация товара
// со своей ценой и своим остатком.
type ProductVariant struct {
	ID           string
	ProductID    string
	Title        string
	SKU          string
	PriceMinor   int64
	InventoryQty int32
	Available    bool
	CreatedAt    time.Time
}

// HasVariants сообщает, ведётся ли учёт остатков на уровне вариантов.
func (p *Product) HasVariants() bool {
	return len(p.Variants) > 0
}

// Variant возвращает вариант по идентификатору или ErrVariantNotFound.
func (p *Product) Variant(variantID string) (ProductVariant, error) {
	for _, v := range p.Variants {
		if v.ID == variantID {
			return v, nil
		}
	}
	return ProductVariant{}, ErrVariantNotFound
}

// CheckStock применяет правило допуска по остатку: при включённом учёте
// запрошенное количество не должно превышать остаток, если backorder запрещён.
func CheckStock(trackInventory, allowBackorder bool, available, requested int32) error {
	if !trackInventory {
		return nil
	}
	if requested <= available {
		return nil
	}
	if allowBackorder {
		return nil
	}
	return ErrInsufficientStock
}

// Validate проверяет корректность ключевых полей товара.
func (p *Product) Validate() []error {
	var errs []error

	if p.TenantID == "" {
		errs = append(errs, ErrTenantRequired)
	}
	if p.PriceMinor < 0 {
		errs = append(errs, ErrItemPriceInvalid)
	}
	for _, v := range p.Variants {
		if v.PriceMinor < 0 {
			errs = append(errs, ErrItemPriceInvalid)
		}
	}

	return errs
}
