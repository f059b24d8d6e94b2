package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/yenflowers/api/internal/config"
	"github.com/yenflowers/api/internal/constants"
	"github.com/yenflowers/api/internal/models"
	"github.com/yenflowers/api/internal/queue"
	"github.com/yenflowers/api/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupPaymentServiceTest(t *testing.T, name string, stripeCfg config.StripeConfig, paypalCfg config.PaypalConfig) (*PaymentService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Order{}, &models.OrderItem{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	queueClient, err := queue.NewClient(nil)
	if err != nil {
		t.Fatalf("create queue client failed: %v", err)
	}
	svc := NewPaymentService(repository.NewOrderRepository(db), queueClient, stripeCfg, paypalCfg, "VND")
	return svc, db
}

func createPendingOrder(t *testing.T, db *gorm.DB, orderNumber string) *models.Order {
	t.Helper()
	order := &models.Order{
		OrderNumber:   orderNumber,
		FullName:      "Nguyen Van A",
		Phone:         "0901234567",
		AddressLine:   "12 Ly Tu Trong",
		District:      "1",
		City:          "Ho Chi Minh",
		Subtotal:      450000,
		ShippingFee:   25000,
		Total:         475000,
		OrderStatus:   constants.OrderStatusPending,
		PaymentStatus: constants.PaymentStatusPending,
		PaymentMethod: constants.PaymentMethodStripe,
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

func testStripeConfig(apiBaseURL string) config.StripeConfig {
	return config.StripeConfig{
		SecretKey:  "sk_test_123",
		SuccessURL: "https://yenflowers.vn/checkout/success",
		CancelURL:  "https://yenflowers.vn/checkout/cancel",
		APIBaseURL: apiBaseURL,
	}
}

func TestCreateStripeCheckoutStoresSessionID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cs_test_abc","url":"https://checkout.stripe.com/pay/cs_test_abc","status":"open"}`))
	}))
	defer server.Close()

	svc, db := setupPaymentServiceTest(t, "stripe_checkout", testStripeConfig(server.URL), config.PaypalConfig{})
	order := createPendingOrder(t, db, "YF-20260829-101")

	result, err := svc.CreateStripeCheckout(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("create stripe checkout failed: %v", err)
	}
	if result.SessionID != "cs_test_abc" || result.CheckoutURL == "" {
		t.Fatalf("unexpected checkout result: %+v", result)
	}

	stored, err := svc.GetOrder(order.ID)
	if err != nil {
		t.Fatalf("load order failed: %v", err)
	}
	if stored.PaymentIntentID == nil || *stored.PaymentIntentID != "cs_test_abc" {
		t.Fatalf("session id should persist on order: %+v", stored.PaymentIntentID)
	}
	if stored.PaymentStatus != constants.PaymentStatusPending {
		t.Fatalf("creating a session must not mark paid, got %s", stored.PaymentStatus)
	}
}

func TestCreateStripeCheckoutNotConfigured(t *testing.T) {
	svc, db := setupPaymentServiceTest(t, "stripe_unconfigured", config.StripeConfig{}, config.PaypalConfig{})
	order := createPendingOrder(t, db, "YF-20260829-102")
	if _, err := svc.CreateStripeCheckout(context.Background(), order.ID); !errors.Is(err, ErrPaymentNotConfigured) {
		t.Fatalf("expected not configured error, got: %v", err)
	}
}

func TestCreateStripeCheckoutStoresSessionWithoutStateChange(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cs_test_keep","url":"https://checkout.stripe.com/pay/cs_test_keep","status":"open"}`))
	}))
	defer server.Close()

	svc, db := setupPaymentServiceTest(t, "stripe_checkout_state", testStripeConfig(server.URL), config.PaypalConfig{})
	order := createPendingOrder(t, db, "YF-20260829-113")
	if err := db.Model(order).Update("payment_method", constants.PaymentMethodPaypal).Error; err != nil {
		t.Fatalf("set payment method failed: %v", err)
	}

	if _, err := svc.CreateStripeCheckout(context.Background(), order.ID); err != nil {
		t.Fatalf("create stripe checkout failed: %v", err)
	}

	stored, err := svc.GetOrder(order.ID)
	if err != nil {
		t.Fatalf("load order failed: %v", err)
	}
	// 会话创建只保存会话引用，不改动订单的支付方式与状态
	if stored.PaymentMethod != constants.PaymentMethodPaypal {
		t.Fatalf("payment method must not change on session create, got %s", stored.PaymentMethod)
	}
	if stored.PaymentStatus != constants.PaymentStatusPending || stored.OrderStatus != constants.OrderStatusPending {
		t.Fatalf("order state must not change: %s/%s", stored.OrderStatus, stored.PaymentStatus)
	}
}

func TestCreateStripeCheckoutCODOrderRejected(t *testing.T) {
	svc, db := setupPaymentServiceTest(t, "stripe_cod_order", testStripeConfig("https://api.stripe.com"), config.PaypalConfig{})
	order := createPendingOrder(t, db, "YF-20260829-114")
	if err := db.Model(order).Update("payment_method", constants.PaymentMethodCOD).Error; err != nil {
		t.Fatalf("set payment method failed: %v", err)
	}
	if _, err := svc.CreateStripeCheckout(context.Background(), order.ID); !errors.Is(err, ErrPaymentMethodMismatch) {
		t.Fatalf("expected payment method mismatch, got: %v", err)
	}
}

func TestCreateStripeCheckoutPaidOrderRejected(t *testing.T) {
	svc, db := setupPaymentServiceTest(t, "stripe_paid_order", testStripeConfig("https://api.stripe.com"), config.PaypalConfig{})
	order := createPendingOrder(t, db, "YF-20260829-103")
	if err := db.Model(order).Update("payment_status", constants.PaymentStatusPaid).Error; err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	if _, err := svc.CreateStripeCheckout(context.Background(), order.ID); !errors.Is(err, ErrOrderNotPayable) {
		t.Fatalf("expected not payable error, got: %v", err)
	}
}

func stripeWebhookBody(t *testing.T, orderID uint, eventType string) []byte {
	t.Helper()
	payload := map[string]interface{}{
		"id":      "evt_test_1",
		"type":    eventType,
		"created": time.Now().Unix(),
		"data": map[string]interface{}{
			"object": map[string]interface{}{
				"id":             "cs_test_abc",
				"payment_intent": "pi_test_xyz",
				"metadata": map[string]interface{}{
					"order_id": fmt.Sprintf("%d", orderID),
				},
			},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal webhook body failed: %v", err)
	}
	return body
}

func TestHandleStripeWebhookMarksOrderPaid(t *testing.T) {
	svc, db := setupPaymentServiceTest(t, "stripe_webhook", testStripeConfig("https://api.stripe.com"), config.PaypalConfig{})
	order := createPendingOrder(t, db, "YF-20260829-104")

	body := stripeWebhookBody(t, order.ID, "checkout.session.completed")
	if err := svc.HandleStripeWebhook(nil, body); err != nil {
		t.Fatalf("handle webhook failed: %v", err)
	}

	stored, err := svc.GetOrder(order.ID)
	if err != nil {
		t.Fatalf("load order failed: %v", err)
	}
	if stored.PaymentStatus != constants.PaymentStatusPaid {
		t.Fatalf("payment status want paid got %s", stored.PaymentStatus)
	}
	if stored.OrderStatus != constants.OrderStatusConfirmed {
		t.Fatalf("order status want confirmed got %s", stored.OrderStatus)
	}
	if stored.PaidAt == nil {
		t.Fatalf("paid_at should be set")
	}
	if stored.PaymentIntentID == nil || *stored.PaymentIntentID != "pi_test_xyz" {
		t.Fatalf("payment intent id should persist: %+v", stored.PaymentIntentID)
	}
}

func TestHandleStripeWebhookReplayIsNoop(t *testing.T) {
	svc, db := setupPaymentServiceTest(t, "stripe_webhook_replay", testStripeConfig("https://api.stripe.com"), config.PaypalConfig{})
	order := createPendingOrder(t, db, "YF-20260829-105")

	body := stripeWebhookBody(t, order.ID, "checkout.session.completed")
	if err := svc.HandleStripeWebhook(nil, body); err != nil {
		t.Fatalf("first webhook failed: %v", err)
	}
	first, err := svc.GetOrder(order.ID)
	if err != nil {
		t.Fatalf("load order failed: %v", err)
	}

	if err := svc.HandleStripeWebhook(nil, body); err != nil {
		t.Fatalf("replayed webhook should be a no-op: %v", err)
	}
	second, err := svc.GetOrder(order.ID)
	if err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if !second.PaidAt.Equal(*first.PaidAt) {
		t.Fatalf("replay must not rewrite paid_at: %v vs %v", second.PaidAt, first.PaidAt)
	}
}

func TestHandleStripeWebhookIgnoresOtherEvents(t *testing.T) {
	svc, db := setupPaymentServiceTest(t, "stripe_webhook_other", testStripeConfig("https://api.stripe.com"), config.PaypalConfig{})
	order := createPendingOrder(t, db, "YF-20260829-106")

	body := stripeWebhookBody(t, order.ID, "payment_intent.created")
	if err := svc.HandleStripeWebhook(nil, body); err != nil {
		t.Fatalf("other events should be ignored: %v", err)
	}
	stored, err := svc.GetOrder(order.ID)
	if err != nil {
		t.Fatalf("load order failed: %v", err)
	}
	if stored.PaymentStatus != constants.PaymentStatusPending {
		t.Fatalf("order should stay pending, got %s", stored.PaymentStatus)
	}
}

func TestHandleStripeWebhookUnknownOrderIsNoop(t *testing.T) {
	svc, _ := setupPaymentServiceTest(t, "stripe_webhook_unknown", testStripeConfig("https://api.stripe.com"), config.PaypalConfig{})
	body := stripeWebhookBody(t, 9999, "checkout.session.completed")
	if err := svc.HandleStripeWebhook(nil, body); err != nil {
		t.Fatalf("unknown order should be a no-op: %v", err)
	}
}

func newPayPalStubServer(t *testing.T, captureStatus string, captureHTTPStatus int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"token-abc"}`))
	})
	mux.HandleFunc("/v2/checkout/orders/", func(w http.ResponseWriter, r *http.Request) {
		if captureHTTPStatus != http.StatusOK {
			w.WriteHeader(captureHTTPStatus)
			_, _ = w.Write([]byte(`{"name":"UNPROCESSABLE_ENTITY"}`))
			return
		}
		payload := map[string]interface{}{
			"id":     "PP-ORDER-1",
			"status": captureStatus,
			"purchase_units": []interface{}{
				map[string]interface{}{
					"payments": map[string]interface{}{
						"captures": []interface{}{
							map[string]interface{}{
								"id":          "CAP-1",
								"status":      captureStatus,
								"create_time": "2026-08-29T10:00:00Z",
							},
						},
					},
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(payload)
	})
	return httptest.NewServer(mux)
}

func TestCapturePayPalMarksOrderPaid(t *testing.T) {
	server := newPayPalStubServer(t, "COMPLETED", http.StatusOK)
	defer server.Close()

	paypalCfg := config.PaypalConfig{ClientID: "cid", ClientSecret: "secret", BaseURL: server.URL}
	svc, db := setupPaymentServiceTest(t, "paypal_capture", config.StripeConfig{}, paypalCfg)
	order := createPendingOrder(t, db, "YF-20260829-107")

	captured, err := svc.CapturePayPal(context.Background(), order.ID, "PP-ORDER-1")
	if err != nil {
		t.Fatalf("capture failed: %v", err)
	}
	if captured.PaymentStatus != constants.PaymentStatusPaid {
		t.Fatalf("payment status want paid got %s", captured.PaymentStatus)
	}
	if captured.OrderStatus != constants.OrderStatusConfirmed {
		t.Fatalf("order status want confirmed got %s", captured.OrderStatus)
	}
	if captured.PaymentIntentID == nil || *captured.PaymentIntentID != "CAP-1" {
		t.Fatalf("capture id should persist: %+v", captured.PaymentIntentID)
	}
	if captured.PaymentMethod != constants.PaymentMethodPaypal {
		t.Fatalf("payment method want paypal got %s", captured.PaymentMethod)
	}
}

func TestCapturePayPalIncompleteRejected(t *testing.T) {
	server := newPayPalStubServer(t, "PENDING", http.StatusOK)
	defer server.Close()

	paypalCfg := config.PaypalConfig{ClientID: "cid", ClientSecret: "secret", BaseURL: server.URL}
	svc, db := setupPaymentServiceTest(t, "paypal_incomplete", config.StripeConfig{}, paypalCfg)
	order := createPendingOrder(t, db, "YF-20260829-108")

	_, err := svc.CapturePayPal(context.Background(), order.ID, "PP-ORDER-1")
	var incomplete *PaymentNotCompletedError
	if !errors.As(err, &incomplete) {
		t.Fatalf("expected payment not completed error, got: %v", err)
	}
	if incomplete.Status != "PENDING" {
		t.Fatalf("unexpected gateway status: %s", incomplete.Status)
	}

	stored, err := svc.GetOrder(order.ID)
	if err != nil {
		t.Fatalf("load order failed: %v", err)
	}
	if stored.PaymentStatus != constants.PaymentStatusPending {
		t.Fatalf("order should stay pending, got %s", stored.PaymentStatus)
	}
}

func TestCapturePayPalAlreadyPaidIdempotent(t *testing.T) {
	paypalCfg := config.PaypalConfig{ClientID: "cid", ClientSecret: "secret"}
	svc, db := setupPaymentServiceTest(t, "paypal_idempotent", config.StripeConfig{}, paypalCfg)
	order := createPendingOrder(t, db, "YF-20260829-109")
	if err := db.Model(order).Update("payment_status", constants.PaymentStatusPaid).Error; err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}

	captured, err := svc.CapturePayPal(context.Background(), order.ID, "PP-ORDER-1")
	if err != nil {
		t.Fatalf("already paid capture should return order: %v", err)
	}
	if captured.PaymentStatus != constants.PaymentStatusPaid {
		t.Fatalf("unexpected payment status: %s", captured.PaymentStatus)
	}
}

func TestCapturePayPalValidation(t *testing.T) {
	paypalCfg := config.PaypalConfig{ClientID: "cid", ClientSecret: "secret"}
	svc, db := setupPaymentServiceTest(t, "paypal_validation", config.StripeConfig{}, paypalCfg)
	order := createPendingOrder(t, db, "YF-20260829-110")

	if _, err := svc.CapturePayPal(context.Background(), order.ID, "  "); !errors.Is(err, ErrPaypalOrderIDRequired) {
		t.Fatalf("expected paypal order id required, got: %v", err)
	}

	unconfigured, db2 := setupPaymentServiceTest(t, "paypal_unconfigured", config.StripeConfig{}, config.PaypalConfig{})
	order2 := createPendingOrder(t, db2, "YF-20260829-111")
	if _, err := unconfigured.CapturePayPal(context.Background(), order2.ID, "PP-ORDER-1"); !errors.Is(err, ErrPaymentNotConfigured) {
		t.Fatalf("expected not configured error, got: %v", err)
	}
}

func TestCapturePayPalCODOrderRejected(t *testing.T) {
	paypalCfg := config.PaypalConfig{ClientID: "cid", ClientSecret: "secret"}
	svc, db := setupPaymentServiceTest(t, "paypal_cod_order", config.StripeConfig{}, paypalCfg)
	order := createPendingOrder(t, db, "YF-20260829-115")
	if err := db.Model(order).Update("payment_method", constants.PaymentMethodCOD).Error; err != nil {
		t.Fatalf("set payment method failed: %v", err)
	}
	if _, err := svc.CapturePayPal(context.Background(), order.ID, "PP-ORDER-1"); !errors.Is(err, ErrPaymentMethodMismatch) {
		t.Fatalf("expected payment method mismatch, got: %v", err)
	}
}

func TestCapturePayPalRecoversViaGetOrder(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"token-abc"}`))
	})
	mux.HandleFunc("/v2/checkout/orders/PP-ORDER-1/capture", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"name":"ORDER_ALREADY_CAPTURED"}`))
	})
	mux.HandleFunc("/v2/checkout/orders/PP-ORDER-1", func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]interface{}{
			"id":     "PP-ORDER-1",
			"status": "COMPLETED",
			"purchase_units": []interface{}{
				map[string]interface{}{
					"payments": map[string]interface{}{
						"captures": []interface{}{
							map[string]interface{}{"id": "CAP-2", "create_time": "2026-08-29T10:00:00Z"},
						},
					},
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(payload)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	paypalCfg := config.PaypalConfig{ClientID: "cid", ClientSecret: "secret", BaseURL: server.URL}
	svc, db := setupPaymentServiceTest(t, "paypal_recover", config.StripeConfig{}, paypalCfg)
	order := createPendingOrder(t, db, "YF-20260829-112")

	captured, err := svc.CapturePayPal(context.Background(), order.ID, "PP-ORDER-1")
	if err != nil {
		t.Fatalf("capture should recover via order lookup: %v", err)
	}
	if captured.PaymentStatus != constants.PaymentStatusPaid {
		t.Fatalf("payment status want paid got %s", captured.PaymentStatus)
	}
	if captured.PaymentIntentID == nil || *captured.PaymentIntentID != "CAP-2" {
		t.Fatalf("recovered capture id should persist: %+v", captured.PaymentIntentID)
	}
}
