package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表
type Order struct {
	ID          uint   `gorm:"primarykey" json:"id"`                     // 主键
	OrderNumber string `gorm:"uniqueIndex;not null" json:"order_number"` // 订单号（YF-YYYYMMDD-XXX）

	// 收货信息
	FullName    string `gorm:"not null" json:"full_name"`      // 收货人姓名
	Phone       string `gorm:"not null" json:"phone"`          // 收货人电话
	AddressLine string `gorm:"not null" json:"address_line"`   // 详细地址
	Ward        string `json:"ward"`                           // 坊
	District    string `gorm:"not null;index" json:"district"` // 郡（决定运费）
	City        string `gorm:"not null" json:"city"`           // 城市

	// 金额（VND，服务端计算，不信任客户端）
	Subtotal       int64 `gorm:"not null;default:0" json:"subtotal"`        // 商品小计
	ShippingFee    int64 `gorm:"not null;default:0" json:"shipping_fee"`    // 运费
	DiscountAmount int64 `gorm:"not null;default:0" json:"discount_amount"` // 折扣金额
	Total          int64 `gorm:"not null;default:0" json:"total"`           // 应付总额

	// 状态
	OrderStatus     string     `gorm:"not null;default:'pending';index" json:"order_status"`   // 订单状态
	PaymentStatus   string     `gorm:"not null;default:'pending';index" json:"payment_status"` // 支付状态
	PaymentMethod   string     `gorm:"not null" json:"payment_method"`                         // 支付方式（cod/stripe/paypal）
	PaymentIntentID *string    `gorm:"index" json:"payment_intent_id"`                         // 支付平台单号（可空）
	PaidAt          *time.Time `json:"paid_at"`                                                // 支付时间

	// 配送
	CustomerNote     string     `gorm:"type:text" json:"customer_note"` // 客户备注
	DiscountCode     string     `json:"discount_code"`                  // 下单时使用的折扣码（快照）
	DeliveryDate     *time.Time `gorm:"type:date" json:"delivery_date"` // 期望配送日期
	DeliveryTimeSlot string     `json:"delivery_time_slot"`             // 期望配送时段

	CreatedAt time.Time      `gorm:"index" json:"created_at"` // 创建时间
	UpdatedAt time.Time      `json:"updated_at"`              // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`          // 软删除时间

	// 关联
	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"` // 订单项列表
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
