package public

import (
	"time"

	"github.com/yenflowers/api/internal/cache"
	"github.com/yenflowers/api/internal/constants"
	"github.com/yenflowers/api/internal/http/response"
	"github.com/yenflowers/api/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	publicConfigCacheKey = "public:config"
	publicConfigCacheTTL = 60 * time.Second
)

// GetConfig 获取站点公开配置（站点信息、配送费率、可用支付方式）
func (h *Handler) GetConfig(c *gin.Context) {
	var cached map[string]interface{}
	if hit, err := cache.GetJSON(c.Request.Context(), publicConfigCacheKey, &cached); err == nil && hit {
		response.Success(c, cached)
		return
	}

	paymentMethods := []string{constants.PaymentMethodCOD}
	if h.Config.Stripe.SecretKey != "" {
		paymentMethods = append(paymentMethods, constants.PaymentMethodStripe)
	}
	if h.Config.Paypal.ClientID != "" && h.Config.Paypal.ClientSecret != "" {
		paymentMethods = append(paymentMethods, constants.PaymentMethodPaypal)
	}

	calc := service.NewShippingCalculator(h.Config.Shipping.DistrictFees, h.Config.Shipping.DefaultFee)
	data := map[string]interface{}{
		"site_name":            h.Config.Site.Name,
		"currency":             h.Config.Site.Currency,
		"payment_methods":      paymentMethods,
		"district_fees":        calc.DistrictFees(),
		"default_shipping_fee": calc.DefaultFee(),
	}

	_ = cache.SetJSON(c.Request.Context(), publicConfigCacheKey, data, publicConfigCacheTTL)
	response.Success(c, data)
}
