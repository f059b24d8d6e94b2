package public

import (
	"errors"
	"io"

	"github.com/yenflowers/api/internal/http/handlers/shared"
	"github.com/yenflowers/api/internal/http/response"
	"github.com/yenflowers/api/internal/payment/stripe"

	"github.com/gin-gonic/gin"
)

// StripeWebhook 处理 Stripe 异步回调。
// 签名校验失败返回 400 让 Stripe 重试；业务处理失败只记录日志并确认接收，
// 避免网关反复投递已知无法恢复的事件。
func (h *Handler) StripeWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondError(c, response.CodeBadRequest, "read webhook body failed", err)
		return
	}

	headers := make(map[string]string, len(c.Request.Header))
	for key := range c.Request.Header {
		headers[key] = c.GetHeader(key)
	}

	if err := h.PaymentService.HandleStripeWebhook(headers, body); err != nil {
		if errors.Is(err, stripe.ErrSignatureInvalid) {
			respondError(c, response.CodeBadRequest, "webhook signature invalid", nil)
			return
		}
		shared.RequestLog(c).Errorw("stripe_webhook_failed", "error", err)
	}

	response.Success(c, gin.H{"received": true})
}
