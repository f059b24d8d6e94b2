package models

import (
	"time"

	"gorm.io/gorm"
)

// ProductVariant 商品规格（尺寸/包装）
type ProductVariant struct {
	ID              uint           `gorm:"primarykey" json:"id"`                      // 主键
	ProductID       uint           `gorm:"not null;index" json:"product_id"`          // 商品ID
	Name            string         `gorm:"not null" json:"name"`                      // 规格名称
	PriceAdjustment int64          `gorm:"not null;default:0" json:"price_adjustment"` // 加价（VND，可为负）
	SortOrder       int            `gorm:"default:0" json:"sort_order"`               // 排序权重
	CreatedAt       time.Time      `json:"created_at"`                                // 创建时间
	UpdatedAt       time.Time      `json:"updated_at"`                                // 更新时间
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                            // 软删除时间
}

// TableName 指定表名
func (ProductVariant) TableName() string {
	return "product_variants"
}
