package public

import (
	"errors"

	"github.com/yenflowers/api/internal/http/response"
	"github.com/yenflowers/api/internal/payment/paypal"
	"github.com/yenflowers/api/internal/payment/stripe"
	"github.com/yenflowers/api/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

var checkoutErrorRules = []mappedHandlerError{
	{target: service.ErrCheckoutInvalid, code: response.CodeBadRequest, msg: "checkout request invalid"},
	{target: service.ErrOrderEmpty, code: response.CodeBadRequest, msg: "order must contain at least one item"},
	{target: service.ErrQuantityInvalid, code: response.CodeBadRequest, msg: "item quantity must be positive"},
	{target: service.ErrProductNotFound, code: response.CodeBadRequest, msg: "product not found"},
	{target: service.ErrProductUnavailable, code: response.CodeBadRequest, msg: "product is not available"},
	{target: service.ErrVariantNotFound, code: response.CodeBadRequest, msg: "product variant not found"},
	{target: service.ErrOrderNumberExhausted, code: response.CodeInternal, msg: "order number generation failed"},
}

var paymentErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, msg: "order not found"},
	{target: service.ErrOrderNotPayable, code: response.CodeBadRequest, msg: "order is not payable"},
	{target: service.ErrPaymentMethodMismatch, code: response.CodeBadRequest, msg: "order is settled by cash on delivery"},
	{target: service.ErrPaymentNotConfigured, code: response.CodeInternal, msg: "payment provider not configured"},
	{target: service.ErrPaypalOrderIDRequired, code: response.CodeBadRequest, msg: "paypal_order_id is required"},
	{target: stripe.ErrConfigInvalid, code: response.CodeInternal, msg: "payment provider config invalid"},
	{target: stripe.ErrRequestFailed, code: response.CodeInternal, msg: "payment gateway request failed"},
	{target: stripe.ErrResponseInvalid, code: response.CodeInternal, msg: "payment gateway response invalid"},
	{target: paypal.ErrConfigInvalid, code: response.CodeInternal, msg: "payment provider config invalid"},
	{target: paypal.ErrAuthFailed, code: response.CodeInternal, msg: "payment gateway auth failed"},
	{target: paypal.ErrRequestFailed, code: response.CodeInternal, msg: "payment gateway request failed"},
	{target: paypal.ErrResponseInvalid, code: response.CodeInternal, msg: "payment gateway response invalid"},
}

func respondCheckoutError(c *gin.Context, err error) {
	var stockErr *service.InsufficientStockError
	if errors.As(err, &stockErr) {
		respondError(c, response.CodeBadRequest, stockErr.Error(), nil)
		return
	}
	respondWithMappedError(c, err, checkoutErrorRules, response.CodeInternal, "order creation failed")
}

func respondPaymentError(c *gin.Context, err error) {
	var incompleteErr *service.PaymentNotCompletedError
	if errors.As(err, &incompleteErr) {
		respondError(c, response.CodeBadRequest, incompleteErr.Error(), nil)
		return
	}
	respondWithMappedError(c, err, paymentErrorRules, response.CodeInternal, "payment processing failed")
}
