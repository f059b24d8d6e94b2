package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yenflowers/api/internal/constants"
	"github.com/yenflowers/api/internal/logger"
	"github.com/yenflowers/api/internal/models"
	"github.com/yenflowers/api/internal/provider"
	"github.com/yenflowers/api/internal/queue"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderCreated, c.handleOrderCreated)
	mux.HandleFunc(queue.TaskOrderPaid, c.handleOrderPaid)
	mux.HandleFunc(queue.TaskOrderDeliveryReminder, c.handleOrderDeliveryReminder)
}

// handleOrderCreated 新订单通知花坊备货
func (c *Consumer) handleOrderCreated(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_created_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderCreatedPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_created_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_order_created_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	order, err := c.OrderRepo.GetByID(payload.OrderID)
	if err != nil {
		logger.Warnw("worker_order_created_fetch_order_failed", "order_id", payload.OrderID, "error", err)
		return err
	}
	if order == nil {
		logger.Debugw("worker_order_created_skip_order_not_found", "order_id", payload.OrderID)
		return nil
	}
	logger.Infow("worker_order_created_notify",
		"order_id", order.ID,
		"order_number", order.OrderNumber,
		"district", order.District,
		"delivery_summary", buildDeliverySummary(order),
		"total", order.Total,
	)
	return nil
}

// handleOrderPaid 支付完成通知配送排单
func (c *Consumer) handleOrderPaid(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_paid_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderPaidPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_paid_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_order_paid_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	order, err := c.OrderRepo.GetByID(payload.OrderID)
	if err != nil {
		logger.Warnw("worker_order_paid_fetch_order_failed", "order_id", payload.OrderID, "error", err)
		return err
	}
	if order == nil {
		logger.Debugw("worker_order_paid_skip_order_not_found", "order_id", payload.OrderID)
		return nil
	}
	logger.Infow("worker_order_paid_notify",
		"order_id", order.ID,
		"order_number", order.OrderNumber,
		"payment_method", payload.PaymentMethod,
		"delivery_summary", buildDeliverySummary(order),
		"total", order.Total,
	)
	return nil
}

// handleOrderDeliveryReminder 配送日前提醒花坊排单，已取消或已送达的订单跳过
func (c *Consumer) handleOrderDeliveryReminder(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_delivery_reminder_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderDeliveryReminderPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_delivery_reminder_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_delivery_reminder_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	order, err := c.OrderRepo.GetByID(payload.OrderID)
	if err != nil {
		logger.Warnw("worker_delivery_reminder_fetch_order_failed", "order_id", payload.OrderID, "error", err)
		return err
	}
	if order == nil {
		logger.Debugw("worker_delivery_reminder_skip_order_not_found", "order_id", payload.OrderID)
		return nil
	}
	if order.OrderStatus == constants.OrderStatusCancelled || order.OrderStatus == constants.OrderStatusDelivered {
		logger.Debugw("worker_delivery_reminder_skip_terminal_order",
			"order_id", order.ID,
			"order_status", order.OrderStatus,
		)
		return nil
	}
	logger.Infow("worker_delivery_reminder_notify",
		"order_id", order.ID,
		"order_number", order.OrderNumber,
		"delivery_date", payload.DeliveryDate,
		"delivery_time_slot", order.DeliveryTimeSlot,
		"district", order.District,
		"delivery_summary", buildDeliverySummary(order),
	)
	return nil
}

// buildDeliverySummary 拼接订单项摘要，供备货/配送通知使用
func buildDeliverySummary(order *models.Order) string {
	if order == nil || len(order.Items) == 0 {
		return ""
	}
	parts := make([]string, 0, len(order.Items))
	for _, item := range order.Items {
		name := strings.TrimSpace(item.ProductName)
		if name == "" {
			continue
		}
		if item.VariantName != nil {
			if variant := strings.TrimSpace(*item.VariantName); variant != "" {
				name = fmt.Sprintf("%s (%s)", name, variant)
			}
		}
		parts = append(parts, fmt.Sprintf("%s x%d", name, item.Quantity))
	}
	return strings.Join(parts, ", ")
}
