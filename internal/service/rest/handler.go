package rest

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/nikitaegorov/storefront/internal/domain"
	"github.com/nikitaegorov/storefront/internal/messaging/kafka"
	"github.com/nikitaegorov/storefront/internal/service/orders"
)

// Handler объединяет HTTP-обработчики витрины.
type Handler struct {
	orders      orders.Service
	customers   domain.CustomerRepository
	products    domain.ProductRepository
	outbox      domain.OutboxRepository
	idempotency domain.IdempotencyRepository
	logger      *log.Entry
}

// NewHandler создаёт HTTP-обработчики поверх сервиса заказов и репозиториев.
// outbox может быть nil, тогда события клиентов не публикуются;
// idempotency может быть nil, тогда Idempotency-Key игнорируется.
func NewHandler(
	orderService orders.Service,
	customers domain.CustomerRepository,
	products domain.ProductRepository,
	outbox domain.OutboxRepository,
	idempotency domain.IdempotencyRepository,
	logger *log.Entry,
) *Handler {
	if logger == nil {
		logger = log.New().WithField("component", "rest")
	}
	return &Handler{
		orders:      orderService,
		customers:   customers,
		products:    products,
		outbox:      outbox,
		idempotency: idempotency,
		logger:      logger,
	}
}

// Router собирает chi-маршрутизатор со всеми эндпоинтами API.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1/tenants/{tenantID}", func(r chi.Router) {
		r.Route("/orders", func(r chi.Router) {
			r.With(h.idempotent).Post("/", h.createOrder)
			r.Get("/", h.listOrders)
			r.Get("/{orderID}", h.getOrder)
			r.Patch("/{orderID}", h.updateOrder)
			r.Post("/{orderID}/cancel", h.cancelOrder)
			r.Post("/{orderID}/fulfill", h.fulfillItems)
			r.Get("/{orderID}/timeline", h.orderTimeline)
		})
		r.Route("/customers", func(r chi.Router) {
			r.Post("/", h.createCustomer)
			r.Get("/", h.findCustomer)
			r.Get("/{customerID}", h.getCustomer)
		})
		r.Route("/products", func(r chi.Router) {
			r.Post("/", h.createProduct)
			r.Get("/{productID}", h.getProduct)
		})
	})

	return r
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	order, err := h.orders.Create(req.toInput(tenantID))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResponse(order))
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.Get(chi.URLParam(r, "tenantID"), chi.URLParam(r, "orderID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")
	filter := parseOrderFilter(r)

	list, total, err := h.orders.List(tenantID, filter)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	resp := orderListResponse{
		Orders: make([]orderResponse, 0, len(list)),
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}
	for _, order := range list {
		resp.Orders = append(resp.Orders, toOrderResponse(order))
	}
	writeJSON(w, http.StatusOK, resp)
}

// parseOrderFilter читает фильтры листинга из query-параметров.
func parseOrderFilter(r *http.Request) domain.OrderFilter {
	q := r.URL.Query()
	filter := domain.OrderFilter{
		Status:            domain.OrderStatus(q.Get("status")),
		PaymentStatus:     domain.PaymentStatus(q.Get("payment_status")),
		FulfillmentStatus: domain.FulfillmentStatus(q.Get("fulfillment_status")),
		CustomerID:        q.Get("customer_id"),
		Search:            q.Get("search"),
	}
	if v := q.Get("created_from"); v != "" {
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			filter.CreatedFrom = ts
		}
	}
	if v := q.Get("created_to"); v != "" {
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			filter.CreatedTo = ts
		}
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil {
		filter.Limit = v
	}
	if v, err := strconv.Atoi(q.Get("offset")); err == nil {
		filter.Offset = v
	}
	return filter
}

func (h *Handler) updateOrder(w http.ResponseWriter, r *http.Request) {
	var req updateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	input := orders.UpdateOrderInput{
		PaymentMethod:  req.PaymentMethod,
		TransactionID:  req.TransactionID,
		ShippingMethod: req.ShippingMethod,
		TrackingNumber: req.TrackingNumber,
		Notes:          req.Notes,
		TaxMinor:       req.TaxMinor,
		ShippingMinor:  req.ShippingMinor,
		DiscountMinor:  req.DiscountMinor,
		CancelReason:   req.CancelReason,
	}
	if req.Status != nil {
		status := domain.OrderStatus(*req.Status)
		input.Status = &status
	}
	if req.PaymentStatus != nil {
		status := domain.PaymentStatus(*req.PaymentStatus)
		input.PaymentStatus = &status
	}

	order, err := h.orders.Update(chi.URLParam(r, "tenantID"), chi.URLParam(r, "orderID"), input)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	var req cancelOrderRequest
	if r.Body != nil {
		// Тело опционально, ошибки декодирования пустого тела игнорируем.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	order, err := h.orders.Cancel(chi.URLParam(r, "tenantID"), chi.URLParam(r, "orderID"), req.Reason)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *Handler) fulfillItems(w http.ResponseWriter, r *http.Request) {
	var req fulfillItemsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	order, err := h.orders.FulfillItems(chi.URLParam(r, "tenantID"), chi.URLParam(r, "orderID"), req.ItemIDs)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *Handler) orderTimeline(w http.ResponseWriter, r *http.Request) {
	events, err := h.orders.Timeline(chi.URLParam(r, "tenantID"), chi.URLParam(r, "orderID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	resp := make([]timelineEventResponse, 0, len(events))
	for _, event := range events {
		resp = append(resp, timelineEventResponse{
			Type:     event.Type,
			Reason:   event.Reason,
			Occurred: event.Occurred,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")

	var req createCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	now := time.Now().UTC()
	customer := domain.Customer{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if errs := customer.Validate(); len(errs) > 0 {
		writeError(w, h.logger, errs[0])
		return
	}

	saved, err := h.customers.Create(customer)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.emitCustomerCreated(saved)
	writeJSON(w, http.StatusCreated, toCustomerResponse(saved))
}

// emitCustomerCreated кладёт событие customer.created в transactional outbox.
// Ошибка публикации не отменяет уже сохранённого клиента.
func (h *Handler) emitCustomerCreated(customer domain.Customer) {
	if h.outbox == nil {
		return
	}

	payload, err := json.Marshal(map[string]interface{}{
		"customer_id": customer.ID,
		"tenant_id":   customer.TenantID,
		"email":       customer.Email,
		"created_at":  customer.CreatedAt.Format(time.RFC3339Nano),
	})
	if err != nil {
		h.logger.WithError(err).WithField("customer_id", customer.ID).Error("marshal customer event failed")
		return
	}

	msg := domain.OutboxMessage{
		AggregateType: "customer",
		AggregateID:   customer.ID,
		EventType:     string(kafka.EventTypeCustomerCreated),
		Payload:       payload,
	}
	if _, err := h.outbox.Enqueue(msg); err != nil {
		h.logger.WithError(err).WithField("customer_id", customer.ID).Error("enqueue customer event failed")
	}
}

// findCustomer ищет клиента тенанта по email (без учёта регистра).
func (h *Handler) findCustomer(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "email query parameter is required"})
		return
	}

	customer, err := h.customers.GetByEmail(chi.URLParam(r, "tenantID"), email)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toCustomerResponse(customer))
}

func (h *Handler) getCustomer(w http.ResponseWriter, r *http.Request) {
	customer, err := h.customers.Get(chi.URLParam(r, "tenantID"), chi.URLParam(r, "customerID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toCustomerResponse(customer))
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")

	var req createProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	now := time.Now().UTC()
	status := domain.ProductStatus(req.Status)
	if status == "" {
		status = domain.ProductStatusActive
	}

	product := domain.Product{
		ID:             uuid.NewString(),
		TenantID:       tenantID,
		Title:          req.Title,
		SKU:            req.SKU,
		Status:         status,
		PriceMinor:     req.PriceMinor,
		TrackInventory: req.TrackInventory,
		AllowBackorder: req.AllowBackorder,
		InventoryQty:   req.InventoryQty,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	for _, v := range req.Variants {
		product.Variants = append(product.Variants, domain.ProductVariant{
			ID:           uuid.NewString(),
			ProductID:    product.ID,
			Title:        v.Title,
			SKU:          v.SKU,
			PriceMinor:   v.PriceMinor,
			InventoryQty: v.InventoryQty,
			Available:    v.Available,
			CreatedAt:    now,
		})
	}
	if errs := product.Validate(); len(errs) > 0 {
		writeError(w, h.logger, errs[0])
		return
	}

	saved, err := h.products.Create(product)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductResponse(saved))
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.products.Get(chi.URLParam(r, "tenantID"), chi.URLParam(r, "productID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(product))
}
