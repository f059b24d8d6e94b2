package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/yenflowers/api/internal/constants"
	"github.com/yenflowers/api/internal/logger"
	"github.com/yenflowers/api/internal/models"
	"github.com/yenflowers/api/internal/queue"
	"github.com/yenflowers/api/internal/repository"

	"github.com/hibiken/asynq"
)

const (
	orderNumberMaxAttempts = 10
	deliveryReminderLead   = 24 * time.Hour
)

// OrderService 订单服务
type OrderService struct {
	orderRepo    repository.OrderRepository
	productRepo  repository.ProductRepository
	discountSvc  *DiscountService
	shippingCalc *ShippingCalculator
	queueClient  *queue.Client
}

// NewOrderService 创建订单服务
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	discountSvc *DiscountService,
	shippingCalc *ShippingCalculator,
	queueClient *queue.Client,
) *OrderService {
	return &OrderService{
		orderRepo:    orderRepo,
		productRepo:  productRepo,
		discountSvc:  discountSvc,
		shippingCalc: shippingCalc,
		queueClient:  queueClient,
	}
}

// CheckoutItemInput 结算商品行
type CheckoutItemInput struct {
	ProductID uint
	VariantID *uint
	Quantity  int
}

// CheckoutInput 结算请求
type CheckoutInput struct {
	FullName         string
	Phone            string
	AddressLine      string
	Ward             string
	District         string
	City             string
	Items            []CheckoutItemInput
	DiscountCode     string
	PaymentMethod    string
	CustomerNote     string
	DeliveryDate     *time.Time
	DeliveryTimeSlot string
}

type resolvedLine struct {
	product *models.Product
	variant *models.ProductVariant
	input   CheckoutItemInput
}

// Checkout 创建订单：校验库存、计算金额、占用折扣、扣减库存
func (s *OrderService) Checkout(input CheckoutInput) (*models.Order, error) {
	if err := validateCheckoutInput(input); err != nil {
		return nil, err
	}

	lines, subtotal, err := s.resolveLines(input.Items)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	shippingFee := s.shippingCalc.FeeFor(input.District)

	discountAmount, discount, err := s.discountSvc.Resolve(input.DiscountCode, subtotal, now)
	if err != nil {
		return nil, err
	}
	appliedCode := ""
	if discount != nil && discountAmount > 0 {
		ok, err := s.discountSvc.Consume(discount.ID)
		if err != nil {
			return nil, err
		}
		if ok {
			appliedCode = discount.Code
		} else {
			// 并发用尽额度，按无折扣重新计价
			discountAmount = 0
		}
	}

	quote := buildQuote(subtotal, shippingFee, discountAmount)

	orderNumber, err := s.generateOrderNumber(now)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		OrderNumber:      orderNumber,
		FullName:         strings.TrimSpace(input.FullName),
		Phone:            strings.TrimSpace(input.Phone),
		AddressLine:      strings.TrimSpace(input.AddressLine),
		Ward:             strings.TrimSpace(input.Ward),
		District:         strings.TrimSpace(input.District),
		City:             strings.TrimSpace(input.City),
		Subtotal:         quote.Subtotal,
		ShippingFee:      quote.ShippingFee,
		DiscountAmount:   quote.DiscountAmount,
		Total:            quote.Total,
		OrderStatus:      constants.OrderStatusPending,
		PaymentStatus:    constants.PaymentStatusPending,
		PaymentMethod:    strings.ToLower(strings.TrimSpace(input.PaymentMethod)),
		CustomerNote:     strings.TrimSpace(input.CustomerNote),
		DiscountCode:     appliedCode,
		DeliveryDate:     input.DeliveryDate,
		DeliveryTimeSlot: strings.TrimSpace(input.DeliveryTimeSlot),
	}

	items := make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		unitPrice := line.product.EffectiveUnitPrice(line.variant)
		item := models.OrderItem{
			ProductID:   line.product.ID,
			VariantID:   line.input.VariantID,
			ProductName: line.product.Name,
			Quantity:    line.input.Quantity,
			UnitPrice:   unitPrice,
			TotalPrice:  unitPrice * int64(line.input.Quantity),
		}
		if line.variant != nil {
			variantName := line.variant.Name
			item.VariantName = &variantName
		}
		items = append(items, item)
	}

	if err := s.orderRepo.Create(order, items); err != nil {
		return nil, err
	}
	order.Items = items

	for _, line := range lines {
		ok, err := s.productRepo.DecrementStock(line.product.ID, line.input.Quantity)
		if err != nil {
			logger.Errorw("decrement stock failed",
				"order_number", order.OrderNumber,
				"product_id", line.product.ID,
				"error", err,
			)
			continue
		}
		if !ok {
			logger.Warnw("stock raced below requested quantity",
				"order_number", order.OrderNumber,
				"product_id", line.product.ID,
				"quantity", line.input.Quantity,
			)
		}
	}

	if err := s.queueClient.EnqueueOrderCreated(queue.OrderCreatedPayload{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Total:       order.Total,
	}); err != nil {
		logger.Warnw("enqueue order created failed", "order_number", order.OrderNumber, "error", err)
	}

	s.scheduleDeliveryReminder(order)

	return order, nil
}

// scheduleDeliveryReminder 在配送日前一天推送提醒任务，过近的日期跳过
func (s *OrderService) scheduleDeliveryReminder(order *models.Order) {
	if order.DeliveryDate == nil {
		return
	}
	remindAt := order.DeliveryDate.Add(-deliveryReminderLead)
	delay := time.Until(remindAt)
	if delay <= 0 {
		return
	}
	if err := s.queueClient.EnqueueOrderDeliveryReminder(queue.OrderDeliveryReminderPayload{
		OrderID:      order.ID,
		OrderNumber:  order.OrderNumber,
		DeliveryDate: order.DeliveryDate.Format("2006-01-02"),
	}, asynq.ProcessIn(delay)); err != nil {
		logger.Warnw("enqueue delivery reminder failed", "order_number", order.OrderNumber, "error", err)
	}
}

// GetByOrderNumber 根据订单号查询订单
func (s *OrderService) GetByOrderNumber(orderNumber string) (*models.Order, error) {
	trimmed := strings.TrimSpace(orderNumber)
	if trimmed == "" {
		return nil, ErrOrderNotFound
	}
	order, err := s.orderRepo.GetByOrderNumber(trimmed)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetByID 根据 ID 查询订单
func (s *OrderService) GetByID(id uint) (*models.Order, error) {
	if id == 0 {
		return nil, ErrOrderNotFound
	}
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// List 订单列表查询
func (s *OrderService) List(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.List(filter)
}

// UpdateStatusInput 管理端状态更新请求
type UpdateStatusInput struct {
	OrderStatus   string
	PaymentStatus string
}

// UpdateStatus 管理端更新订单/支付状态，校验状态机
func (s *OrderService) UpdateStatus(id uint, input UpdateStatusInput) (*models.Order, error) {
	order, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	targetOrderStatus := strings.ToLower(strings.TrimSpace(input.OrderStatus))
	targetPaymentStatus := strings.ToLower(strings.TrimSpace(input.PaymentStatus))
	if targetOrderStatus == "" && targetPaymentStatus == "" {
		return nil, ErrStatusUpdateEmpty
	}

	updates := map[string]interface{}{}
	if targetOrderStatus != "" && targetOrderStatus != order.OrderStatus {
		if !isOrderTransitionAllowed(order.OrderStatus, targetOrderStatus) {
			return nil, ErrStatusTransition
		}
		updates["order_status"] = targetOrderStatus
	}
	if targetPaymentStatus != "" && targetPaymentStatus != order.PaymentStatus {
		if !isPaymentTransitionAllowed(order.PaymentStatus, targetPaymentStatus) {
			return nil, ErrStatusTransition
		}
		updates["payment_status"] = targetPaymentStatus
		if targetPaymentStatus == constants.PaymentStatusPaid && order.PaidAt == nil {
			updates["paid_at"] = time.Now()
		}
	}
	if len(updates) == 0 {
		return order, nil
	}
	updates["updated_at"] = time.Now()

	if err := s.orderRepo.UpdateStatus(order.ID, updates); err != nil {
		return nil, err
	}
	return s.GetByID(order.ID)
}

func (s *OrderService) resolveLines(items []CheckoutItemInput) ([]resolvedLine, int64, error) {
	lines := make([]resolvedLine, 0, len(items))
	var subtotal int64
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, 0, ErrQuantityInvalid
		}
		product, err := s.productRepo.GetByID(item.ProductID)
		if err != nil {
			return nil, 0, err
		}
		if product == nil {
			return nil, 0, ErrProductNotFound
		}
		if !product.IsPublished {
			return nil, 0, ErrProductUnavailable
		}
		if product.StockQuantity < item.Quantity {
			return nil, 0, &InsufficientStockError{
				ProductName: product.Name,
				Requested:   item.Quantity,
				Available:   product.StockQuantity,
			}
		}

		var variant *models.ProductVariant
		if item.VariantID != nil && *item.VariantID != 0 {
			variant, err = s.productRepo.GetVariant(product.ID, *item.VariantID)
			if err != nil {
				return nil, 0, err
			}
			if variant == nil {
				return nil, 0, ErrVariantNotFound
			}
		}

		unitPrice := product.EffectiveUnitPrice(variant)
		subtotal += unitPrice * int64(item.Quantity)
		lines = append(lines, resolvedLine{product: product, variant: variant, input: item})
	}
	return lines, subtotal, nil
}

func (s *OrderService) generateOrderNumber(now time.Time) (string, error) {
	for attempt := 0; attempt < orderNumberMaxAttempts; attempt++ {
		candidate := fmt.Sprintf("%s-%s-%s",
			constants.OrderNumberPrefix,
			now.Format(constants.OrderNumberDateLayout),
			randNumericInRange(100, 999),
		)
		exists, err := s.orderRepo.ExistsByOrderNumber(candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", ErrOrderNumberExhausted
}

func randNumericInRange(min, max int64) string {
	span := max - min + 1
	n, err := rand.Int(rand.Reader, big.NewInt(span))
	if err != nil {
		return fmt.Sprintf("%d", min)
	}
	return fmt.Sprintf("%d", min+n.Int64())
}

func validateCheckoutInput(input CheckoutInput) error {
	if len(input.Items) == 0 {
		return ErrOrderEmpty
	}
	if strings.TrimSpace(input.FullName) == "" ||
		strings.TrimSpace(input.Phone) == "" ||
		strings.TrimSpace(input.AddressLine) == "" ||
		strings.TrimSpace(input.District) == "" ||
		strings.TrimSpace(input.City) == "" {
		return fmt.Errorf("%w: missing delivery fields", ErrCheckoutInvalid)
	}
	switch strings.ToLower(strings.TrimSpace(input.PaymentMethod)) {
	case constants.PaymentMethodCOD, constants.PaymentMethodStripe, constants.PaymentMethodPaypal:
		return nil
	default:
		return fmt.Errorf("%w: unsupported payment method", ErrCheckoutInvalid)
	}
}
