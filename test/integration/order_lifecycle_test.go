package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/nikitaegorov/storefront/internal/domain"
	"github.com/nikitaegorov/storefront/internal/service/orders"
	"github.com/nikitaegorov/storefront/internal/service/rest"
	"github.com/nikitaegorov/storefront/internal/storage/memory"
)

const lifecycleTenant = "tenant-lifecycle"

// OrderLifecycleTestSuite гоняет полный жизненный цикл заказа через HTTP API
// поверх in-memory хранилища.
type OrderLifecycleTestSuite struct {
	suite.Suite
	server   *httptest.Server
	products domain.ProductRepository
	timeline domain.TimelineRepository
	outbox   domain.OutboxRepository
}

func (suite *OrderLifecycleTestSuite) SetupTest() {
	baseLogger := log.New()
	baseLogger.SetLevel(log.WarnLevel) // Уменьшаем шум в тестах
	logger := baseLogger.WithField("component", "integration-test")

	store := memory.NewStore()
	orderRepo := memory.NewOrderRepository(store)
	customerRepo := memory.NewCustomerRepository(store)
	suite.products = memory.NewProductRepository(store)
	suite.outbox = memory.NewOutboxRepository()
	suite.timeline = memory.NewTimelineRepository()
	idempotencyRepo := memory.NewIdempotencyRepository()

	orderService := orders.NewServiceWithoutMetrics(
		orderRepo,
		customerRepo,
		suite.products,
		suite.outbox,
		suite.timeline,
		logger,
	)

	handler := rest.NewHandler(orderService, customerRepo, suite.products, suite.outbox, idempotencyRepo, logger)
	suite.server = httptest.NewServer(handler.Router())
}

func (suite *OrderLifecycleTestSuite) TearDownTest() {
	suite.server.Close()
}

func (suite *OrderLifecycleTestSuite) doJSON(method, path string, payload any, headers map[string]string) (*http.Response, map[string]any) {
	suite.T().Helper()

	var body *bytes.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		require.NoError(suite.T(), err)
		body = bytes.NewReader(encoded)
	} else {
		body = bytes.NewReader(nil)
	}

	url := suite.server.URL + "/api/v1/tenants/" + lifecycleTenant + path
	req, err := http.NewRequest(method, url, body)
	require.NoError(suite.T(), err)
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := suite.server.Client().Do(req)
	require.NoError(suite.T(), err)
	defer resp.Body.Close()

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func (suite *OrderLifecycleTestSuite) seedCustomer(email string) string {
	resp, body := suite.doJSON(http.MethodPost, "/customers", map[string]any{
		"email":      email,
		"first_name": "Test",
	}, nil)
	require.Equal(suite.T(), http.StatusCreated, resp.StatusCode)
	return body["id"].(string)
}

func (suite *OrderLifecycleTestSuite) seedProduct(sku string, priceMinor int64, qty int32) string {
	resp, body := suite.doJSON(http.MethodPost, "/products", map[string]any{
		"title":           "Product " + sku,
		"sku":             sku,
		"price_minor":     priceMinor,
		"track_inventory": true,
		"inventory_qty":   qty,
	}, nil)
	require.Equal(suite.T(), http.StatusCreated, resp.StatusCode)
	return body["id"].(string)
}

func (suite *OrderLifecycleTestSuite) productQty(productID string) int32 {
	product, err := suite.products.Get(lifecycleTenant, productID)
	require.NoError(suite.T(), err)
	return product.InventoryQty
}

func (suite *OrderLifecycleTestSuite) TestSuccessfulOrderLifecycle() {
	customerID := suite.seedCustomer("lifecycle@example.com")
	laptopID := suite.seedProduct("laptop-pro", 199900, 5)
	mouseID := suite.seedProduct("mouse-wireless", 4999, 10)

	// 1. Создаём заказ на два товара.
	resp, order := suite.doJSON(http.MethodPost, "/orders", map[string]any{
		"customer_id": customerID,
		"currency":    "USD",
		"items": []map[string]any{
			{"product_id": laptopID, "qty": 1},
			{"product_id": mouseID, "qty": 2},
		},
	}, map[string]string{"Idempotency-Key": "lifecycle-create-1"})
	require.Equal(suite.T(), http.StatusCreated, resp.StatusCode)
	require.Equal(suite.T(), "pending", order["status"])
	require.Equal(suite.T(), float64(199900+2*4999), order["total_minor"]) // $1999 + 2*$49.99
	require.Equal(suite.T(), float64(1), order["order_number"])

	orderID := order["id"].(string)

	// Остатки списаны.
	require.Equal(suite.T(), int32(4), suite.productQty(laptopID))
	require.Equal(suite.T(), int32(8), suite.productQty(mouseID))

	// 2. Ведём заказ по линейному циклу до delivered.
	for _, status := range []string{"confirmed", "processing", "shipped", "delivered"} {
		resp, updated := suite.doJSON(http.MethodPatch, "/orders/"+orderID, map[string]any{
			"status": status,
		}, nil)
		require.Equal(suite.T(), http.StatusOK, resp.StatusCode)
		require.Equal(suite.T(), status, updated["status"])
	}

	// 3. Доставленный заказ получает отметку завершения.
	resp, final := suite.doJSON(http.MethodGet, "/orders/"+orderID, nil, nil)
	require.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	require.NotNil(suite.T(), final["completed_at"])

	// 4. Timeline хранит создание и каждое обновление.
	events, err := suite.timeline.List(orderID)
	require.NoError(suite.T(), err)
	require.GreaterOrEqual(suite.T(), len(events), 5)
	require.Equal(suite.T(), "order.created", events[0].Type)

	// 5. События ушли в outbox.
	pending, err := suite.outbox.PullPending(100)
	require.NoError(suite.T(), err)
	require.GreaterOrEqual(suite.T(), len(pending), 5)
}

func (suite *OrderLifecycleTestSuite) TestOrderCancellationRestoresInventory() {
	customerID := suite.seedCustomer("cancel@example.com")
	productID := suite.seedProduct("restock-item", 10000, 10)

	resp, order := suite.doJSON(http.MethodPost, "/orders", map[string]any{
		"customer_id": customerID,
		"items": []map[string]any{
			{"product_id": productID, "qty": 3},
		},
	}, map[string]string{"Idempotency-Key": "lifecycle-cancel-1"})
	require.Equal(suite.T(), http.StatusCreated, resp.StatusCode)
	require.Equal(suite.T(), int32(7), suite.productQty(productID))

	orderID := order["id"].(string)

	resp, cancelled := suite.doJSON(http.MethodPost, "/orders/"+orderID+"/cancel", map[string]any{
		"reason": "customer changed mind",
	}, nil)
	require.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	require.Equal(suite.T(), "cancelled", cancelled["status"])
	require.NotNil(suite.T(), cancelled["cancelled_at"])

	// Остаток вернулся.
	require.Equal(suite.T(), int32(10), suite.productQty(productID))

	// Повторная отмена запрещена.
	resp, _ = suite.doJSON(http.MethodPost, "/orders/"+orderID+"/cancel", nil, nil)
	require.Equal(suite.T(), http.StatusBadRequest, resp.StatusCode)

	// Отменённый заказ нельзя двигать по статусам.
	resp, _ = suite.doJSON(http.MethodPatch, "/orders/"+orderID, map[string]any{
		"status": "confirmed",
	}, nil)
	require.Equal(suite.T(), http.StatusBadRequest, resp.StatusCode)

	// Timeline содержит отмену с причиной.
	events, err := suite.timeline.List(orderID)
	require.NoError(suite.T(), err)
	hasCancel := false
	for _, event := range events {
		if event.Type == "order.cancelled" {
			hasCancel = true
			require.Equal(suite.T(), "customer changed mind", event.Reason)
		}
	}
	require.True(suite.T(), hasCancel, "timeline should contain order.cancelled event")
}

func (suite *OrderLifecycleTestSuite) TestInsufficientStockRejectsOrder() {
	customerID := suite.seedCustomer("nostock@example.com")
	productID := suite.seedProduct("scarce-item", 5000, 1)

	resp, _ := suite.doJSON(http.MethodPost, "/orders", map[string]any{
		"customer_id": customerID,
		"items": []map[string]any{
			{"product_id": productID, "qty": 2},
		},
	}, map[string]string{"Idempotency-Key": "lifecycle-nostock-1"})
	require.Equal(suite.T(), http.StatusBadRequest, resp.StatusCode)

	// Остаток не изменился.
	require.Equal(suite.T(), int32(1), suite.productQty(productID))
}

func (suite *OrderLifecycleTestSuite) TestPartialFulfillment() {
	customerID := suite.seedCustomer("fulfill@example.com")
	firstID := suite.seedProduct("fulfill-a", 1000, 10)
	secondID := suite.seedProduct("fulfill-b", 2000, 10)

	resp, order := suite.doJSON(http.MethodPost, "/orders", map[string]any{
		"customer_id": customerID,
		"items": []map[string]any{
			{"product_id": firstID, "qty": 1},
			{"product_id": secondID, "qty": 1},
		},
	}, map[string]string{"Idempotency-Key": "lifecycle-fulfill-1"})
	require.Equal(suite.T(), http.StatusCreated, resp.StatusCode)

	orderID := order["id"].(string)
	items := order["items"].([]any)
	require.Len(suite.T(), items, 2)
	firstItemID := items[0].(map[string]any)["id"].(string)
	secondItemID := items[1].(map[string]any)["id"].(string)

	resp, partial := suite.doJSON(http.MethodPost, "/orders/"+orderID+"/fulfill", map[string]any{
		"item_ids": []string{firstItemID},
	}, nil)
	require.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	require.Equal(suite.T(), "partial", partial["fulfillment_status"])

	resp, full := suite.doJSON(http.MethodPost, "/orders/"+orderID+"/fulfill", map[string]any{
		"item_ids": []string{secondItemID},
	}, nil)
	require.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	require.Equal(suite.T(), "fulfilled", full["fulfillment_status"])

	// Повторная отгрузка тех же позиций не находит кандидатов.
	resp, _ = suite.doJSON(http.MethodPost, "/orders/"+orderID+"/fulfill", map[string]any{
		"item_ids": []string{firstItemID},
	}, nil)
	require.Equal(suite.T(), http.StatusBadRequest, resp.StatusCode)
}

func (suite *OrderLifecycleTestSuite) TestIdempotentCreateReplays() {
	customerID := suite.seedCustomer("idem@example.com")
	productID := suite.seedProduct("idem-item", 3000, 10)

	payload := map[string]any{
		"customer_id": customerID,
		"items": []map[string]any{
			{"product_id": productID, "qty": 1},
		},
	}
	headers := map[string]string{"Idempotency-Key": "lifecycle-idem-1"}

	resp, first := suite.doJSON(http.MethodPost, "/orders", payload, headers)
	require.Equal(suite.T(), http.StatusCreated, resp.StatusCode)

	// Повтор с тем же ключом возвращает сохранённый ответ без второго заказа.
	resp, replay := suite.doJSON(http.MethodPost, "/orders", payload, headers)
	require.Equal(suite.T(), http.StatusCreated, resp.StatusCode)
	require.Equal(suite.T(), first["id"], replay["id"])
	require.Equal(suite.T(), int32(9), suite.productQty(productID))

	// Тот же ключ с другим телом — конфликт.
	other := map[string]any{
		"customer_id": customerID,
		"items": []map[string]any{
			{"product_id": productID, "qty": 2},
		},
	}
	resp, _ = suite.doJSON(http.MethodPost, "/orders", other, headers)
	require.Equal(suite.T(), http.StatusConflict, resp.StatusCode)
}

func (suite *OrderLifecycleTestSuite) TestListFilters() {
	customerID := suite.seedCustomer("list@example.com")
	productID := suite.seedProduct("list-item", 1000, 100)

	var orderIDs []string
	for i := 0; i < 3; i++ {
		resp, order := suite.doJSON(http.MethodPost, "/orders", map[string]any{
			"customer_id": customerID,
			"items": []map[string]any{
				{"product_id": productID, "qty": 1},
			},
		}, map[string]string{"Idempotency-Key": fmt.Sprintf("lifecycle-list-%d", i)})
		require.Equal(suite.T(), http.StatusCreated, resp.StatusCode)
		orderIDs = append(orderIDs, order["id"].(string))
	}

	// Один заказ отменяем и фильтруем по статусу.
	resp, _ := suite.doJSON(http.MethodPost, "/orders/"+orderIDs[0]+"/cancel", nil, nil)
	require.Equal(suite.T(), http.StatusOK, resp.StatusCode)

	resp, listing := suite.doJSON(http.MethodGet, "/orders?status=cancelled", nil, nil)
	require.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	require.Equal(suite.T(), float64(1), listing["total"])

	resp, page := suite.doJSON(http.MethodGet, "/orders?limit=2", nil, nil)
	require.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	require.Equal(suite.T(), float64(3), page["total"])
	require.Len(suite.T(), page["orders"].([]any), 2)
}

func TestOrderLifecycle(t *testing.T) {
	suite.Run(t, new(OrderLifecycleTestSuite))
}
