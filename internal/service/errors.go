package service

import (
	"errors"
	"fmt"
)

var (
	ErrCheckoutInvalid       = errors.New("checkout request invalid")
	ErrOrderNotFound         = errors.New("order not found")
	ErrOrderEmpty            = errors.New("order has no items")
	ErrOrderNumberExhausted  = errors.New("order number generation exhausted")
	ErrProductNotFound       = errors.New("product not found")
	ErrProductUnavailable    = errors.New("product unavailable")
	ErrVariantNotFound       = errors.New("product variant not found")
	ErrQuantityInvalid       = errors.New("quantity invalid")
	ErrStatusTransition      = errors.New("status transition not allowed")
	ErrStatusUpdateEmpty     = errors.New("status update is empty")
	ErrPaymentNotConfigured  = errors.New("payment provider not configured")
	ErrPaymentMethodMismatch = errors.New("payment method mismatch")
	ErrOrderNotPayable       = errors.New("order is not payable")
	ErrPaypalOrderIDRequired = errors.New("paypal order id required")
)

// InsufficientStockError 库存不足错误，携带商品与数量上下文
type InsufficientStockError struct {
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d", e.ProductName, e.Requested, e.Available)
}

// PaymentNotCompletedError 网关侧支付未完成错误
type PaymentNotCompletedError struct {
	Status string
}

func (e *PaymentNotCompletedError) Error() string {
	return fmt.Sprintf("payment not completed: gateway status %s", e.Status)
}
