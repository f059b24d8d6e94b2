package models

import (
	"time"

	"gorm.io/gorm"
)

// Product 商品表（花束）
type Product struct {
	ID            uint           `gorm:"primarykey" json:"id"`                         // 主键
	Slug          string         `gorm:"uniqueIndex;not null" json:"slug"`             // 唯一标识
	Name          string         `gorm:"not null" json:"name"`                         // 商品名称
	Price         int64          `gorm:"not null;default:0" json:"price"`              // 价格（VND）
	SalePrice     *int64         `json:"sale_price"`                                   // 促销价（VND，可空）
	StockQuantity int            `gorm:"not null;default:0" json:"stock_quantity"`     // 库存数量
	IsPublished   bool           `gorm:"not null;default:false;index" json:"is_published"` // 是否上架
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`                      // 创建时间
	UpdatedAt     time.Time      `json:"updated_at"`                                   // 更新时间
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`                               // 软删除时间

	// 关联
	Variants []ProductVariant `gorm:"foreignKey:ProductID" json:"variants,omitempty"` // 规格列表
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}

// EffectiveUnitPrice 计算单价（促销价优先，叠加规格加价）
func (p *Product) EffectiveUnitPrice(variant *ProductVariant) int64 {
	price := p.Price
	if p.SalePrice != nil {
		price = *p.SalePrice
	}
	if variant != nil {
		price += variant.PriceAdjustment
	}
	return price
}
