package models

import (
	"time"

	"gorm.io/gorm"
)

// DiscountCode 折扣码
type DiscountCode struct {
	ID            uint           `gorm:"primarykey" json:"id"`                       // 主键
	Code          string         `gorm:"uniqueIndex;not null" json:"code"`           // 折扣码（大小写不敏感匹配）
	DiscountType  string         `gorm:"not null" json:"discount_type"`              // 类型（percentage/fixed）
	DiscountValue int64          `gorm:"not null" json:"discount_value"`             // 数值（百分比或固定金额）
	MinOrderValue int64          `gorm:"not null;default:0" json:"min_order_value"`  // 使用门槛（VND）
	MaxUses       int            `gorm:"not null;default:0" json:"max_uses"`         // 总使用上限
	UsedCount     int            `gorm:"not null;default:0" json:"used_count"`       // 已使用次数
	StartsAt      *time.Time     `gorm:"index" json:"starts_at"`                     // 生效时间
	ExpiresAt     *time.Time     `gorm:"index" json:"expires_at"`                    // 失效时间
	IsActive      bool           `gorm:"not null;default:true" json:"is_active"`     // 是否启用
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`                    // 创建时间
	UpdatedAt     time.Time      `json:"updated_at"`                                 // 更新时间
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`                             // 软删除时间
}

// TableName 指定表名
func (DiscountCode) TableName() string {
	return "discount_codes"
}
