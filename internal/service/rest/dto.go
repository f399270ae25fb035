package rest

import (
	"time"

	"github.com/nikitaegorov/storefront/internal/domain"
	"github.com/nikitaegorov/storefront/internal/service/orders"
)

type addressRequest struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	Region     string `json:"region,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country"`
}

type createOrderItemRequest struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id,omitempty"`
	Qty       int32  `json:"qty"`
}

type createOrderRequest struct {
	CustomerID      string                   `json:"customer_id"`
	Currency        string                   `json:"currency,omitempty"`
	Items           []createOrderItemRequest `json:"items"`
	TaxMinor        int64                    `json:"tax_minor,omitempty"`
	ShippingMinor   int64                    `json:"shipping_minor,omitempty"`
	DiscountMinor   int64                    `json:"discount_minor,omitempty"`
	PaymentMethod   string                   `json:"payment_method,omitempty"`
	ShippingMethod  string                   `json:"shipping_method,omitempty"`
	Notes           string                   `json:"notes,omitempty"`
	ShippingAddress *addressRequest          `json:"shipping_address,omitempty"`
	BillingAddress  *addressRequest          `json:"billing_address,omitempty"`
}

type updateOrderRequest struct {
	Status         *string `json:"status,omitempty"`
	PaymentStatus  *string `json:"payment_status,omitempty"`
	PaymentMethod  *string `json:"payment_method,omitempty"`
	TransactionID  *string `json:"transaction_id,omitempty"`
	ShippingMethod *string `json:"shipping_method,omitempty"`
	TrackingNumber *string `json:"tracking_number,omitempty"`
	Notes          *string `json:"notes,omitempty"`
	TaxMinor       *int64  `json:"tax_minor,omitempty"`
	ShippingMinor  *int64  `json:"shipping_minor,omitempty"`
	DiscountMinor  *int64  `json:"discount_minor,omitempty"`
	CancelReason   string  `json:"cancel_reason,omitempty"`
}

type cancelOrderRequest struct {
	Reason string `json:"reason,omitempty"`
}

type fulfillItemsRequest struct {
	ItemIDs []string `json:"item_ids"`
}

type orderItemResponse struct {
	ID           string `json:"id"`
	ProductID    string `json:"product_id"`
	VariantID    string `json:"variant_id,omitempty"`
	SKU          string `json:"sku,omitempty"`
	Title        string `json:"title"`
	VariantTitle string `json:"variant_title,omitempty"`
	PriceMinor   int64  `json:"price_minor"`
	Qty          int32  `json:"qty"`
	Fulfilled    bool   `json:"fulfilled"`
}

type orderResponse struct {
	ID                string              `json:"id"`
	TenantID          string              `json:"tenant_id"`
	OrderNumber       int64               `json:"order_number"`
	CustomerID        string              `json:"customer_id"`
	Currency          string              `json:"currency"`
	SubtotalMinor     int64               `json:"subtotal_minor"`
	TaxMinor          int64               `json:"tax_minor"`
	ShippingMinor     int64               `json:"shipping_minor"`
	DiscountMinor     int64               `json:"discount_minor"`
	TotalMinor        int64               `json:"total_minor"`
	Status            string              `json:"status"`
	PaymentStatus     string              `json:"payment_status"`
	FulfillmentStatus string              `json:"fulfillment_status"`
	PaymentMethod     string              `json:"payment_method,omitempty"`
	TransactionID     string              `json:"transaction_id,omitempty"`
	ShippingMethod    string              `json:"shipping_method,omitempty"`
	TrackingNumber    string              `json:"tracking_number,omitempty"`
	Notes             string              `json:"notes,omitempty"`
	ShippingAddressID string              `json:"shipping_address_id,omitempty"`
	BillingAddressID  string              `json:"billing_address_id,omitempty"`
	CompletedAt       *time.Time          `json:"completed_at,omitempty"`
	CancelledAt       *time.Time          `json:"cancelled_at,omitempty"`
	Items             []orderItemResponse `json:"items"`
	Version           int64               `json:"version"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

type orderListResponse struct {
	Orders []orderResponse `json:"orders"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

type timelineEventResponse struct {
	Type     string    `json:"type"`
	Reason   string    `json:"reason,omitempty"`
	Occurred time.Time `json:"occurred_at"`
}

type createCustomerRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

type customerResponse struct {
	ID              string    `json:"id"`
	TenantID        string    `json:"tenant_id"`
	Email           string    `json:"email"`
	FirstName       string    `json:"first_name,omitempty"`
	LastName        string    `json:"last_name,omitempty"`
	TotalOrders     int64     `json:"total_orders"`
	TotalSpentMinor int64     `json:"total_spent_minor"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type createVariantRequest struct {
	Title        string `json:"title"`
	SKU          string `json:"sku,omitempty"`
	PriceMinor   int64  `json:"price_minor"`
	InventoryQty int32  `json:"inventory_qty"`
	Available    bool   `json:"available"`
}

type createProductRequest struct {
	Title          string                 `json:"title"`
	SKU            string                 `json:"sku,omitempty"`
	Status         string                 `json:"status,omitempty"`
	PriceMinor     int64                  `json:"price_minor"`
	TrackInventory bool                   `json:"track_inventory"`
	AllowBackorder bool                   `json:"allow_backorder"`
	InventoryQty   int32                  `json:"inventory_qty"`
	Variants       []createVariantRequest `json:"variants,omitempty"`
}

type variantResponse struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	SKU          string `json:"sku,omitempty"`
	PriceMinor   int64  `json:"price_minor"`
	InventoryQty int32  `json:"inventory_qty"`
	Available    bool   `json:"available"`
}

type productResponse struct {
	ID             string            `json:"id"`
	TenantID       string            `json:"tenant_id"`
	Title          string            `json:"title"`
	SKU            string            `json:"sku,omitempty"`
	Status         string            `json:"status"`
	PriceMinor     int64             `json:"price_minor"`
	TrackInventory bool              `json:"track_inventory"`
	AllowBackorder bool              `json:"allow_backorder"`
	InventoryQty   int32             `json:"inventory_qty"`
	Variants       []variantResponse `json:"variants,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

func toOrderResponse(order domain.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemResponse{
			ID:           item.ID,
			ProductID:    item.ProductID,
			VariantID:    item.VariantID,
			SKU:          item.SKU,
			Title:        item.Title,
			VariantTitle: item.VariantTitle,
			PriceMinor:   item.PriceMinor,
			Qty:          item.Qty,
			Fulfilled:    item.Fulfilled,
		})
	}
	return orderResponse{
		ID:                order.ID,
		TenantID:          order.TenantID,
		OrderNumber:       order.OrderNumber,
		CustomerID:        order.CustomerID,
		Currency:          order.Currency,
		SubtotalMinor:     order.SubtotalMinor,
		TaxMinor:          order.TaxMinor,
		ShippingMinor:     order.ShippingMinor,
		DiscountMinor:     order.DiscountMinor,
		TotalMinor:        order.TotalMinor,
		Status:            string(order.Status),
		PaymentStatus:     string(order.PaymentStatus),
		FulfillmentStatus: string(order.FulfillmentStatus),
		PaymentMethod:     order.PaymentMethod,
		TransactionID:     order.TransactionID,
		ShippingMethod:    order.ShippingMethod,
		TrackingNumber:    order.TrackingNumber,
		Notes:             order.Notes,
		ShippingAddressID: order.ShippingAddressID,
		BillingAddressID:  order.BillingAddressID,
		CompletedAt:       order.CompletedAt,
		CancelledAt:       order.CancelledAt,
		Items:             items,
		Version:           order.Version,
		CreatedAt:         order.CreatedAt,
		UpdatedAt:         order.UpdatedAt,
	}
}

func toCustomerResponse(customer domain.Customer) customerResponse {
	return customerResponse{
		ID:              customer.ID,
		TenantID:        customer.TenantID,
		Email:           customer.Email,
		FirstName:       customer.FirstName,
		LastName:        customer.LastName,
		TotalOrders:     customer.TotalOrders,
		TotalSpentMinor: customer.TotalSpentMinor,
		CreatedAt:       customer.CreatedAt,
		UpdatedAt:       customer.UpdatedAt,
	}
}

func toProductResponse(product domain.Product) productResponse {
	variants := make([]variantResponse, 0, len(product.Variants))
	for _, v := range product.Variants {
		variants = append(variants, variantResponse{
			ID:           v.ID,
			Title:        v.Title,
			SKU:          v.SKU,
			PriceMinor:   v.PriceMinor,
			InventoryQty: v.InventoryQty,
			Available:    v.Available,
		})
	}
	return productResponse{
		ID:             product.ID,
		TenantID:       product.TenantID,
		Title:          product.Title,
		SKU:            product.SKU,
		Status:         string(product.Status),
		PriceMinor:     product.PriceMinor,
		TrackInventory: product.TrackInventory,
		AllowBackorder: product.AllowBackorder,
		InventoryQty:   product.InventoryQty,
		Variants:       variants,
		CreatedAt:      product.CreatedAt,
		UpdatedAt:      product.UpdatedAt,
	}
}

func (req createOrderRequest) toInput(tenantID string) orders.CreateOrderInput {
	items := make([]orders.CreateItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, orders.CreateItemInput{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Qty:       item.Qty,
		})
	}
	input := orders.CreateOrderInput{
		TenantID:       tenantID,
		CustomerID:     req.CustomerID,
		Currency:       req.Currency,
		Items:          items,
		TaxMinor:       req.TaxMinor,
		ShippingMinor:  req.ShippingMinor,
		DiscountMinor:  req.DiscountMinor,
		PaymentMethod:  req.PaymentMethod,
		ShippingMethod: req.ShippingMethod,
		Notes:          req.Notes,
	}
	if req.ShippingAddress != nil {
		addr := toAddressInput(*req.ShippingAddress)
		input.ShippingAddress = &addr
	}
	if req.BillingAddress != nil {
		addr := toAddressInput(*req.BillingAddress)
		input.BillingAddress = &addr
	}
	return input
}

func toAddressInput(req addressRequest) orders.AddressInput {
	return orders.AddressInput{
		Line1:      req.Line1,
		Line2:      req.Line2,
		City:       req.City,
		Region:     req.Region,
		PostalCode: req.PostalCode,
		Country:    req.Country,
	}
}
