package public

import (
	"errors"
	"strings"
	"time"

	"github.com/yenflowers/api/internal/http/response"
	"github.com/yenflowers/api/internal/service"

	"github.com/gin-gonic/gin"
)

// CheckoutItemRequest 结算商品行请求
type CheckoutItemRequest struct {
	ProductID uint  `json:"product_id" binding:"required"`
	VariantID *uint `json:"variant_id"`
	Quantity  int   `json:"quantity" binding:"required"`
}

// CheckoutRequest 结算请求
type CheckoutRequest struct {
	FullName         string                `json:"full_name" binding:"required"`
	Phone            string                `json:"phone" binding:"required"`
	AddressLine      string                `json:"address_line" binding:"required"`
	Ward             string                `json:"ward"`
	District         string                `json:"district" binding:"required"`
	City             string                `json:"city" binding:"required"`
	Items            []CheckoutItemRequest `json:"items" binding:"required"`
	DiscountCode     string                `json:"discount_code"`
	PaymentMethod    string                `json:"payment_method" binding:"required"`
	CustomerNote     string                `json:"customer_note"`
	DeliveryDate     string                `json:"delivery_date"` // YYYY-MM-DD
	DeliveryTimeSlot string                `json:"delivery_time_slot"`
}

// Checkout 创建订单
func (h *Handler) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "request body invalid", err)
		return
	}

	var deliveryDate *time.Time
	if trimmed := strings.TrimSpace(req.DeliveryDate); trimmed != "" {
		parsed, err := time.Parse("2006-01-02", trimmed)
		if err != nil {
			respondError(c, response.CodeBadRequest, "delivery_date must be YYYY-MM-DD", nil)
			return
		}
		deliveryDate = &parsed
	}

	items := make([]service.CheckoutItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, service.CheckoutItemInput{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
		})
	}

	order, err := h.OrderService.Checkout(service.CheckoutInput{
		FullName:         req.FullName,
		Phone:            req.Phone,
		AddressLine:      req.AddressLine,
		Ward:             req.Ward,
		District:         req.District,
		City:             req.City,
		Items:            items,
		DiscountCode:     req.DiscountCode,
		PaymentMethod:    req.PaymentMethod,
		CustomerNote:     req.CustomerNote,
		DeliveryDate:     deliveryDate,
		DeliveryTimeSlot: req.DeliveryTimeSlot,
	})
	if err != nil {
		respondCheckoutError(c, err)
		return
	}

	response.Success(c, order)
}

// GetOrderByNumber 根据订单号查询订单
func (h *Handler) GetOrderByNumber(c *gin.Context) {
	orderNumber := strings.TrimSpace(c.Param("order_number"))
	order, err := h.OrderService.GetByOrderNumber(orderNumber)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "order not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "order lookup failed", err)
		return
	}
	response.Success(c, order)
}
