package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/yenflowers/api/internal/constants"
	"github.com/yenflowers/api/internal/models"
	"github.com/yenflowers/api/internal/provider"
	"github.com/yenflowers/api/internal/queue"
	"github.com/yenflowers/api/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

func strPtr(s string) *string { return &s }

func TestBuildDeliverySummaryNilOrder(t *testing.T) {
	if got := buildDeliverySummary(nil); got != "" {
		t.Fatalf("expected empty summary for nil order, got %q", got)
	}
	if got := buildDeliverySummary(&models.Order{}); got != "" {
		t.Fatalf("expected empty summary for order without items, got %q", got)
	}
}

func TestBuildDeliverySummaryJoinsItems(t *testing.T) {
	order := &models.Order{
		Items: []models.OrderItem{
			{ProductName: "Red Rose Bouquet", Quantity: 2},
			{ProductName: "Sunflower Basket", VariantName: strPtr("Large"), Quantity: 1},
			{ProductName: "   ", Quantity: 3},
		},
	}

	got := buildDeliverySummary(order)
	want := "Red Rose Bouquet x2, Sunflower Basket (Large) x1"
	if got != want {
		t.Fatalf("unexpected summary, want %q, got %q", want, got)
	}
}

func setupConsumerTest(t *testing.T, name string) (*Consumer, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Order{}, &models.OrderItem{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	consumer := NewConsumer(&provider.Container{
		OrderRepo: repository.NewOrderRepository(db),
	})
	return consumer, db
}

func reminderTask(t *testing.T, payload queue.OrderDeliveryReminderPayload) *asynq.Task {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload failed: %v", err)
	}
	return asynq.NewTask(queue.TaskOrderDeliveryReminder, body)
}

func TestHandleOrderDeliveryReminder(t *testing.T) {
	consumer, db := setupConsumerTest(t, "worker_reminder")
	order := &models.Order{
		OrderNumber:   "YF-20260829-301",
		FullName:      "Le Van C",
		Phone:         "0911222333",
		AddressLine:   "12 Le Loi",
		District:      "1",
		City:          "Ho Chi Minh",
		Total:         475000,
		OrderStatus:   constants.OrderStatusConfirmed,
		PaymentStatus: constants.PaymentStatusPaid,
		PaymentMethod: constants.PaymentMethodStripe,
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	task := reminderTask(t, queue.OrderDeliveryReminderPayload{
		OrderID:      order.ID,
		OrderNumber:  order.OrderNumber,
		DeliveryDate: "2026-09-01",
	})
	if err := consumer.handleOrderDeliveryReminder(context.Background(), task); err != nil {
		t.Fatalf("reminder for active order should succeed: %v", err)
	}
}

func TestHandleOrderDeliveryReminderSkipsTerminalOrder(t *testing.T) {
	consumer, db := setupConsumerTest(t, "worker_reminder_terminal")
	order := &models.Order{
		OrderNumber:   "YF-20260829-302",
		FullName:      "Pham Thi D",
		Phone:         "0933444555",
		AddressLine:   "8 Hai Ba Trung",
		District:      "3",
		City:          "Ho Chi Minh",
		Total:         520000,
		OrderStatus:   constants.OrderStatusCancelled,
		PaymentStatus: constants.PaymentStatusFailed,
		PaymentMethod: constants.PaymentMethodCOD,
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	task := reminderTask(t, queue.OrderDeliveryReminderPayload{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
	})
	if err := consumer.handleOrderDeliveryReminder(context.Background(), task); err != nil {
		t.Fatalf("cancelled order should be skipped without error: %v", err)
	}

	// 不存在的订单同样静默跳过
	missing := reminderTask(t, queue.OrderDeliveryReminderPayload{OrderID: 9999})
	if err := consumer.handleOrderDeliveryReminder(context.Background(), missing); err != nil {
		t.Fatalf("missing order should be skipped without error: %v", err)
	}
}

func TestBuildDeliverySummaryBlankVariant(t *testing.T) {
	order := &models.Order{
		Items: []models.OrderItem{
			{ProductName: "Orchid Pot", VariantName: strPtr("   "), Quantity: 1},
		},
	}

	if got := buildDeliverySummary(order); got != "Orchid Pot x1" {
		t.Fatalf("blank variant should be ignored, got %q", got)
	}
}
