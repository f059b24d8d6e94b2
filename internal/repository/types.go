package repository

import "time"

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page          int
	PageSize      int
	OrderStatus   string
	PaymentStatus string
	OrderNumber   string
	District      string
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
}

// DiscountCodeListFilter 查询折扣码列表的过滤条件
type DiscountCodeListFilter struct {
	Page     int
	PageSize int
	Code     string
	IsActive *bool
}
