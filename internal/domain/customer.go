package domain

import "time"

// Customer — покупатель в рамках тенанта. TotalOrders и TotalSpentMinor —
// бегущие агрегаты: они инкрементируются при создании заказа и
// декрементируются при его отмене, а не пересчитываются заново.
type Customer struct {
	ID              string
	TenantID        string
	Email           string
	FirstName       string
	LastName        string
	TotalOrders     int64
	TotalSpentMinor int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AddressKind различает адрес доставки и платёжный адрес.
type AddressKind string

const (
	AddressKindShipping AddressKind = "shipping"
	AddressKindBilling  AddressKind = "billing"
)

// CustomerAddress — сохранённый адрес клиента. Материализуется при
// создании заказа, если адрес передан в запросе.
type CustomerAddress struct {
	ID         string
	CustomerID string
	Kind       AddressKind
	Line1      string
	Line2      string
	City       string
	Region     string
	PostalCode string
	Country    string
	CreatedAt  time.Time
}

// Validate проверяет корректность ключевых полей клиента.
func (c *Customer) Validate() []error {
	var errs []error

	if c.TenantID == "" {
		errs = append(errs, ErrTenantRequired)
	}
	if c.Email == "" {
		errs = append(errs, ErrCustomerEmailRequired)
	}

	return errs
}
