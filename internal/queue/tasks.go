package queue

import (
	"encoding/json"

	"github.com/yenflowers/api/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderCreated 新订单通知任务
	TaskOrderCreated = constants.TaskOrderCreated
	// TaskOrderPaid 支付成功通知任务
	TaskOrderPaid = constants.TaskOrderPaid
	// TaskOrderDeliveryReminder 配送前提醒任务
	TaskOrderDeliveryReminder = constants.TaskOrderDeliveryReminder
)

// OrderCreatedPayload 新订单通知任务载荷
type OrderCreatedPayload struct {
	OrderID     uint   `json:"order_id"`
	OrderNumber string `json:"order_number"`
	Total       int64  `json:"total"`
}

// OrderPaidPayload 支付成功通知任务载荷
type OrderPaidPayload struct {
	OrderID       uint   `json:"order_id"`
	OrderNumber   string `json:"order_number"`
	PaymentMethod string `json:"payment_method"`
}

// NewOrderCreatedTask 创建新订单通知任务
func NewOrderCreatedTask(payload OrderCreatedPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderCreated, body), nil
}

// NewOrderPaidTask 创建支付成功通知任务
func NewOrderPaidTask(payload OrderPaidPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderPaid, body), nil
}

// OrderDeliveryReminderPayload 配送前提醒任务载荷
type OrderDeliveryReminderPayload struct {
	OrderID      uint   `json:"order_id"`
	OrderNumber  string `json:"order_number"`
	DeliveryDate string `json:"delivery_date"` // YYYY-MM-DD
}

// NewOrderDeliveryReminderTask 创建配送前提醒任务
func NewOrderDeliveryReminderTask(payload OrderDeliveryReminderPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderDeliveryReminder, body), nil
}
