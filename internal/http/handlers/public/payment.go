package public

import (
	"strconv"

	"github.com/yenflowers/api/internal/http/response"

	"github.com/gin-gonic/gin"
)

// CreateStripePayment 为订单创建 Stripe Checkout Session
func (h *Handler) CreateStripePayment(c *gin.Context) {
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "order id invalid", nil)
		return
	}

	result, err := h.PaymentService.CreateStripeCheckout(c.Request.Context(), uint(orderID))
	if err != nil {
		respondPaymentError(c, err)
		return
	}
	response.Success(c, gin.H{
		"session_id":   result.SessionID,
		"checkout_url": result.CheckoutURL,
	})
}

// CapturePaypalPaymentRequest PayPal 捕获请求
type CapturePaypalPaymentRequest struct {
	PaypalOrderID string `json:"paypal_order_id"`
}

// CapturePaypalPayment 捕获前端已批准的 PayPal 订单
func (h *Handler) CapturePaypalPayment(c *gin.Context) {
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "order id invalid", nil)
		return
	}

	var req CapturePaypalPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "request body invalid", err)
		return
	}

	order, err := h.PaymentService.CapturePayPal(c.Request.Context(), uint(orderID), req.PaypalOrderID)
	if err != nil {
		respondPaymentError(c, err)
		return
	}
	response.Success(c, order)
}
