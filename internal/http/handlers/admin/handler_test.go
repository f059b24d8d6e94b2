package admin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/yenflowers/api/internal/config"
	"github.com/yenflowers/api/internal/constants"
	"github.com/yenflowers/api/internal/models"
	"github.com/yenflowers/api/internal/provider"
	"github.com/yenflowers/api/internal/queue"
	"github.com/yenflowers/api/internal/repository"
	"github.com/yenflowers/api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAdminHandlerTest(t *testing.T, name string) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Order{}, &models.OrderItem{}, &models.DiscountCode{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	cfg := &config.Config{}
	queueClient, err := queue.NewClient(nil)
	if err != nil {
		t.Fatalf("create queue client failed: %v", err)
	}

	productRepo := repository.NewProductRepository(db)
	discountRepo := repository.NewDiscountCodeRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	discountSvc := service.NewDiscountService(discountRepo)

	container := &provider.Container{
		Config:           cfg,
		QueueClient:      queueClient,
		ProductRepo:      productRepo,
		DiscountCodeRepo: discountRepo,
		OrderRepo:        orderRepo,
		DiscountService:  discountSvc,
		OrderService:     service.NewOrderService(orderRepo, productRepo, discountSvc, service.NewShippingCalculator(nil, 0), queueClient),
	}

	handler := New(container)
	r := gin.New()
	r.GET("/admin/orders", handler.ListOrders)
	r.GET("/admin/orders/:id", handler.GetOrder)
	r.PATCH("/admin/orders/:id/status", handler.UpdateOrderStatus)
	r.GET("/admin/discount-codes", handler.ListDiscountCodes)
	r.POST("/admin/discount-codes", handler.CreateDiscountCode)
	return r, db
}

func seedOrder(t *testing.T, db *gorm.DB, orderNumber, district, orderStatus string) *models.Order {
	t.Helper()
	order := &models.Order{
		OrderNumber:   orderNumber,
		FullName:      "Tran Thi B",
		Phone:         "0907654321",
		AddressLine:   "5 Nguyen Hue",
		District:      district,
		City:          "Ho Chi Minh",
		Subtotal:      450000,
		ShippingFee:   25000,
		Total:         475000,
		OrderStatus:   orderStatus,
		PaymentStatus: constants.PaymentStatusPending,
		PaymentMethod: constants.PaymentMethodCOD,
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

func adminDoJSON(t *testing.T, r *gin.Engine, method, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			t.Fatalf("encode payload failed: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestListOrdersFiltersByStatus(t *testing.T) {
	r, db := setupAdminHandlerTest(t, "admin_list")
	seedOrder(t, db, "YF-20260829-201", "1", constants.OrderStatusPending)
	seedOrder(t, db, "YF-20260829-202", "7", constants.OrderStatusConfirmed)

	w := adminDoJSON(t, r, http.MethodGet, "/admin/orders?order_status=pending", nil)
	var resp struct {
		StatusCode int                      `json:"status_code"`
		Data       []map[string]interface{} `json:"data"`
		Pagination struct {
			Total     int64 `json:"total"`
			TotalPage int64 `json:"total_page"`
		} `json:"pagination"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v, body: %s", err, w.Body.String())
	}
	if resp.StatusCode != 0 {
		t.Fatalf("status_code want 0 got %d", resp.StatusCode)
	}
	if resp.Pagination.Total != 1 || len(resp.Data) != 1 {
		t.Fatalf("want exactly one pending order, got total=%d len=%d", resp.Pagination.Total, len(resp.Data))
	}
	if resp.Data[0]["order_number"] != "YF-20260829-201" {
		t.Fatalf("unexpected order in filter result: %v", resp.Data[0]["order_number"])
	}
}

func TestGetOrderEndpoint(t *testing.T) {
	r, db := setupAdminHandlerTest(t, "admin_get")
	order := seedOrder(t, db, "YF-20260829-203", "3", constants.OrderStatusPending)

	w := adminDoJSON(t, r, http.MethodGet, fmt.Sprintf("/admin/orders/%d", order.ID), nil)
	var resp struct {
		StatusCode int                    `json:"status_code"`
		Data       map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp.StatusCode != 0 || resp.Data["order_number"] != "YF-20260829-203" {
		t.Fatalf("unexpected response: %s", w.Body.String())
	}

	w2 := adminDoJSON(t, r, http.MethodGet, "/admin/orders/9999", nil)
	var missing struct {
		StatusCode int `json:"status_code"`
	}
	if err := json.Unmarshal(w2.Body.Bytes(), &missing); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if missing.StatusCode != 404 {
		t.Fatalf("status_code want 404 got %d", missing.StatusCode)
	}
}

func TestUpdateOrderStatusEndpoint(t *testing.T) {
	r, db := setupAdminHandlerTest(t, "admin_update")
	order := seedOrder(t, db, "YF-20260829-204", "5", constants.OrderStatusPending)
	path := fmt.Sprintf("/admin/orders/%d/status", order.ID)

	w := adminDoJSON(t, r, http.MethodPatch, path, map[string]string{"order_status": constants.OrderStatusConfirmed})
	var resp struct {
		StatusCode int                    `json:"status_code"`
		Data       map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp.StatusCode != 0 || resp.Data["order_status"] != constants.OrderStatusConfirmed {
		t.Fatalf("unexpected response: %s", w.Body.String())
	}

	// confirmed 不能直接跳到 delivered
	w2 := adminDoJSON(t, r, http.MethodPatch, path, map[string]string{"order_status": constants.OrderStatusDelivered})
	var rejected struct {
		StatusCode int `json:"status_code"`
	}
	if err := json.Unmarshal(w2.Body.Bytes(), &rejected); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if rejected.StatusCode != 400 {
		t.Fatalf("invalid transition want 400 got %d", rejected.StatusCode)
	}

	// 空更新
	w3 := adminDoJSON(t, r, http.MethodPatch, path, map[string]string{})
	var empty struct {
		StatusCode int `json:"status_code"`
	}
	if err := json.Unmarshal(w3.Body.Bytes(), &empty); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if empty.StatusCode != 400 {
		t.Fatalf("empty update want 400 got %d", empty.StatusCode)
	}
}
