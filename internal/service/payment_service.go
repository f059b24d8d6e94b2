package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/yenflowers/api/internal/config"
	"github.com/yenflowers/api/internal/constants"
	"github.com/yenflowers/api/internal/logger"
	"github.com/yenflowers/api/internal/models"
	"github.com/yenflowers/api/internal/payment/paypal"
	"github.com/yenflowers/api/internal/payment/stripe"
	"github.com/yenflowers/api/internal/queue"
	"github.com/yenflowers/api/internal/repository"
)

// PaymentService 在线支付服务
type PaymentService struct {
	orderRepo   repository.OrderRepository
	queueClient *queue.Client
	stripeCfg   config.StripeConfig
	paypalCfg   config.PaypalConfig
	currency    string
}

// NewPaymentService 创建支付服务
func NewPaymentService(
	orderRepo repository.OrderRepository,
	queueClient *queue.Client,
	stripeCfg config.StripeConfig,
	paypalCfg config.PaypalConfig,
	currency string,
) *PaymentService {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = constants.SiteCurrencyDefault
	}
	return &PaymentService{
		orderRepo:   orderRepo,
		queueClient: queueClient,
		stripeCfg:   stripeCfg,
		paypalCfg:   paypalCfg,
		currency:    currency,
	}
}

// StripeCheckoutResult Stripe 结算会话创建结果
type StripeCheckoutResult struct {
	SessionID   string
	CheckoutURL string
}

// CreateStripeCheckout 为待支付订单创建 Stripe Checkout Session
func (s *PaymentService) CreateStripeCheckout(ctx context.Context, orderID uint) (*StripeCheckoutResult, error) {
	if strings.TrimSpace(s.stripeCfg.SecretKey) == "" {
		return nil, ErrPaymentNotConfigured
	}
	order, err := s.payableOrder(orderID)
	if err != nil {
		return nil, err
	}

	cfg := s.stripeAdapterConfig()
	result, err := stripe.CreateCheckoutSession(ctx, cfg, stripe.CheckoutInput{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Amount:      order.Total,
		Currency:    s.currency,
		Description: "YenFlowers Order #" + order.OrderNumber,
	})
	if err != nil {
		return nil, err
	}

	// 只记录会话引用，支付方式与状态等确认回调落账
	updates := map[string]interface{}{
		"payment_intent_id": result.SessionID,
		"updated_at":        time.Now(),
	}
	if err := s.orderRepo.UpdateStatus(order.ID, updates); err != nil {
		return nil, err
	}
	return &StripeCheckoutResult{SessionID: result.SessionID, CheckoutURL: result.URL}, nil
}

// HandleStripeWebhook 处理 Stripe webhook 回调。
// 未知订单、重复事件均按幂等 no-op 处理。
func (s *PaymentService) HandleStripeWebhook(headers map[string]string, body []byte) error {
	if strings.TrimSpace(s.stripeCfg.SecretKey) == "" {
		return ErrPaymentNotConfigured
	}
	cfg := s.stripeAdapterConfig()
	event, err := stripe.ParseWebhookEvent(cfg, headers, body, time.Now())
	if err != nil {
		return err
	}
	if event.EventType != stripe.EventCheckoutSessionCompleted {
		logger.Debugw("ignore stripe event", "event_type", event.EventType, "event_id", event.EventID)
		return nil
	}

	order, err := s.lookupWebhookOrder(event)
	if err != nil {
		return err
	}
	if order == nil {
		logger.Warnw("stripe webhook order not found",
			"event_id", event.EventID,
			"order_id", event.OrderID,
			"order_number", event.OrderNumber,
		)
		return nil
	}
	if order.PaymentStatus != constants.PaymentStatusPending {
		logger.Infow("stripe webhook replay ignored",
			"event_id", event.EventID,
			"order_number", order.OrderNumber,
			"payment_status", order.PaymentStatus,
		)
		return nil
	}

	intentID := event.PaymentIntentID
	if intentID == "" {
		intentID = event.SessionID
	}
	return s.markPaid(order, constants.PaymentMethodStripe, intentID, event.PaidAt)
}

// CapturePayPal 捕获前端已批准的 PayPal 订单并落账
func (s *PaymentService) CapturePayPal(ctx context.Context, orderID uint, paypalOrderID string) (*models.Order, error) {
	if strings.TrimSpace(s.paypalCfg.ClientID) == "" || strings.TrimSpace(s.paypalCfg.ClientSecret) == "" {
		return nil, ErrPaymentNotConfigured
	}
	paypalOrderID = strings.TrimSpace(paypalOrderID)
	if paypalOrderID == "" {
		return nil, ErrPaypalOrderIDRequired
	}

	order, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus == constants.PaymentStatusPaid {
		return order, nil
	}
	if order.PaymentStatus != constants.PaymentStatusPending {
		return nil, ErrOrderNotPayable
	}
	if order.PaymentMethod == constants.PaymentMethodCOD {
		return nil, ErrPaymentMethodMismatch
	}

	cfg := s.paypalAdapterConfig()
	status := ""
	captureRef := ""
	var paidAt *time.Time

	capture, captureErr := paypal.CaptureOrder(ctx, cfg, paypalOrderID)
	if captureErr != nil {
		if !errors.Is(captureErr, paypal.ErrResponseInvalid) {
			return nil, captureErr
		}
		// 捕获被网关拒绝（例如重复捕获），回查订单状态恢复
		detail, getErr := paypal.GetOrder(ctx, cfg, paypalOrderID)
		if getErr != nil {
			return nil, captureErr
		}
		status = detail.Status
		captureRef = detail.CaptureID
		paidAt = detail.PaidAt
	} else {
		status = capture.Status
		captureRef = capture.CaptureID
		paidAt = capture.PaidAt
	}

	if status != paypal.OrderStatusCompleted {
		return nil, &PaymentNotCompletedError{Status: status}
	}
	if captureRef == "" {
		captureRef = paypalOrderID
	}
	if err := s.markPaid(order, constants.PaymentMethodPaypal, captureRef, paidAt); err != nil {
		return nil, err
	}
	return s.GetOrder(order.ID)
}

// GetOrder 查询订单，不存在返回 ErrOrderNotFound
func (s *PaymentService) GetOrder(orderID uint) (*models.Order, error) {
	if orderID == 0 {
		return nil, ErrOrderNotFound
	}
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *PaymentService) payableOrder(orderID uint) (*models.Order, error) {
	order, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus != constants.PaymentStatusPending {
		return nil, ErrOrderNotPayable
	}
	if order.OrderStatus == constants.OrderStatusCancelled {
		return nil, ErrOrderNotPayable
	}
	// 货到付款订单线下结算，不进在线网关
	if order.PaymentMethod == constants.PaymentMethodCOD {
		return nil, ErrPaymentMethodMismatch
	}
	return order, nil
}

func (s *PaymentService) lookupWebhookOrder(event *stripe.WebhookEvent) (*models.Order, error) {
	if event.OrderID != 0 {
		order, err := s.orderRepo.GetByID(event.OrderID)
		if err != nil {
			return nil, err
		}
		if order != nil {
			return order, nil
		}
	}
	if event.OrderNumber != "" {
		return s.orderRepo.GetByOrderNumber(event.OrderNumber)
	}
	return nil, nil
}

func (s *PaymentService) markPaid(order *models.Order, method, intentID string, paidAt *time.Time) error {
	now := time.Now()
	if paidAt == nil {
		paidAt = &now
	}
	updates := map[string]interface{}{
		"payment_status": constants.PaymentStatusPaid,
		"payment_method": method,
		"paid_at":        *paidAt,
		"updated_at":     now,
	}
	if intentID != "" {
		updates["payment_intent_id"] = intentID
	}
	if isOrderTransitionAllowed(order.OrderStatus, constants.OrderStatusConfirmed) &&
		order.OrderStatus == constants.OrderStatusPending {
		updates["order_status"] = constants.OrderStatusConfirmed
	}
	if err := s.orderRepo.UpdateStatus(order.ID, updates); err != nil {
		return err
	}

	if err := s.queueClient.EnqueueOrderPaid(queue.OrderPaidPayload{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		PaymentMethod: method,
	}); err != nil {
		logger.Warnw("enqueue order paid failed", "order_number", order.OrderNumber, "error", err)
	}
	return nil
}

func (s *PaymentService) stripeAdapterConfig() *stripe.Config {
	cfg := &stripe.Config{
		SecretKey:               s.stripeCfg.SecretKey,
		WebhookSecret:           s.stripeCfg.WebhookSecret,
		SuccessURL:              s.stripeCfg.SuccessURL,
		CancelURL:               s.stripeCfg.CancelURL,
		APIBaseURL:              s.stripeCfg.APIBaseURL,
		WebhookToleranceSeconds: s.stripeCfg.WebhookToleranceSeconds,
	}
	cfg.Normalize()
	return cfg
}

func (s *PaymentService) paypalAdapterConfig() *paypal.Config {
	cfg := &paypal.Config{
		ClientID:     s.paypalCfg.ClientID,
		ClientSecret: s.paypalCfg.ClientSecret,
		BaseURL:      s.paypalCfg.BaseURL,
	}
	cfg.Normalize()
	return cfg
}
