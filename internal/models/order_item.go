package models

import "time"

// OrderItem 订单项表（下单时快照，创建后不可变）
type OrderItem struct {
	ID          uint    `gorm:"primarykey" json:"id"`              // 主键
	OrderID     uint    `gorm:"not null;index" json:"order_id"`    // 订单ID
	ProductID   uint    `gorm:"not null;index" json:"product_id"`  // 商品ID
	VariantID   *uint   `json:"variant_id"`                        // 规格ID（可空）
	ProductName string  `gorm:"not null" json:"product_name"`      // 商品名称快照
	VariantName *string `json:"variant_name"`                      // 规格名称快照（可空）
	Quantity    int     `gorm:"not null" json:"quantity"`          // 数量
	UnitPrice   int64   `gorm:"not null" json:"unit_price"`        // 单价快照（VND）
	TotalPrice  int64   `gorm:"not null" json:"total_price"`       // 小计（单价×数量）

	CreatedAt time.Time `json:"created_at"` // 创建时间
	UpdatedAt time.Time `json:"updated_at"` // 更新时间
}

// TableName 指定表名
func (OrderItem) TableName() string {
	return "order_items"
}
