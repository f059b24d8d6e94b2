package service

// PriceQuote 订单金额明细（VND 基础单位）
type PriceQuote struct {
	Subtotal       int64
	ShippingFee    int64
	DiscountAmount int64
	Total          int64
}

// buildQuote 汇总金额：折扣不超过商品小计，总额不为负
func buildQuote(subtotal, shippingFee, discountAmount int64) PriceQuote {
	if subtotal < 0 {
		subtotal = 0
	}
	if shippingFee < 0 {
		shippingFee = 0
	}
	if discountAmount < 0 {
		discountAmount = 0
	}
	if discountAmount > subtotal {
		discountAmount = subtotal
	}
	total := subtotal - discountAmount + shippingFee
	if total < 0 {
		total = 0
	}
	return PriceQuote{
		Subtotal:       subtotal,
		ShippingFee:    shippingFee,
		DiscountAmount: discountAmount,
		Total:          total,
	}
}
