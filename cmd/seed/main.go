package main

import (
	"time"

	"github.com/yenflowers/api/internal/config"
	"github.com/yenflowers/api/internal/constants"
	"github.com/yenflowers/api/internal/logger"
	"github.com/yenflowers/api/internal/models"
	"github.com/yenflowers/api/internal/repository"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	productRepo := repository.NewProductRepository(models.DB)
	discountRepo := repository.NewDiscountCodeRepository(models.DB)

	salePrice := func(v int64) *int64 { return &v }

	// 添加商品（花束）
	products := []struct {
		product  models.Product
		variants []models.ProductVariant
	}{
		{
			product: models.Product{
				Slug:          "red-rose-bouquet",
				Name:          "Bó hoa hồng đỏ",
				Price:         450000,
				StockQuantity: 20,
				IsPublished:   true,
			},
			variants: []models.ProductVariant{
				{Name: "12 bông", PriceAdjustment: 0, SortOrder: 1},
				{Name: "24 bông", PriceAdjustment: 250000, SortOrder: 2},
			},
		},
		{
			product: models.Product{
				Slug:          "sunflower-basket",
				Name:          "Giỏ hoa hướng dương",
				Price:         520000,
				SalePrice:     salePrice(480000),
				StockQuantity: 12,
				IsPublished:   true,
			},
			variants: []models.ProductVariant{
				{Name: "Nhỏ", PriceAdjustment: -80000, SortOrder: 1},
				{Name: "Lớn", PriceAdjustment: 120000, SortOrder: 2},
			},
		},
		{
			product: models.Product{
				Slug:          "white-orchid-pot",
				Name:          "Chậu lan hồ điệp trắng",
				Price:         1200000,
				StockQuantity: 6,
				IsPublished:   true,
			},
		},
		{
			product: models.Product{
				Slug:          "mixed-tulip-bouquet",
				Name:          "Bó hoa tulip mix",
				Price:         680000,
				StockQuantity: 0,
				IsPublished:   false,
			},
		},
	}

	for _, entry := range products {
		existing, err := productRepo.GetBySlug(entry.product.Slug)
		if err != nil {
			stdLog.Printf("Failed to look up product %s: %v", entry.product.Slug, err)
			continue
		}
		if existing != nil {
			stdLog.Printf("Product already exists: %s", entry.product.Slug)
			continue
		}
		product := entry.product
		if err := models.DB.Create(&product).Error; err != nil {
			stdLog.Printf("Failed to create product %s: %v", product.Slug, err)
			continue
		}
		for _, variant := range entry.variants {
			variant.ProductID = product.ID
			if err := models.DB.Create(&variant).Error; err != nil {
				stdLog.Printf("Failed to create variant %s/%s: %v", product.Slug, variant.Name, err)
			}
		}
		stdLog.Printf("Created product: %s", product.Slug)
	}

	// 添加折扣码
	now := time.Now()
	monthEnd := now.AddDate(0, 1, 0)
	discounts := []models.DiscountCode{
		{
			Code:          "WELCOME10",
			DiscountType:  constants.DiscountTypePercentage,
			DiscountValue: 10,
			MinOrderValue: 300000,
			MaxUses:       100,
			StartsAt:      &now,
			ExpiresAt:     &monthEnd,
			IsActive:      true,
		},
		{
			Code:          "FREESHIP",
			DiscountType:  constants.DiscountTypeFixed,
			DiscountValue: 35000,
			MinOrderValue: 500000,
			MaxUses:       50,
			StartsAt:      &now,
			ExpiresAt:     &monthEnd,
			IsActive:      true,
		},
	}

	for _, discount := range discounts {
		existing, err := discountRepo.GetByCode(discount.Code)
		if err != nil {
			stdLog.Printf("Failed to look up discount code %s: %v", discount.Code, err)
			continue
		}
		if existing != nil {
			stdLog.Printf("Discount code already exists: %s", discount.Code)
			continue
		}
		if err := discountRepo.Create(&discount); err != nil {
			stdLog.Printf("Failed to create discount code %s: %v", discount.Code, err)
			continue
		}
		stdLog.Printf("Created discount code: %s", discount.Code)
	}

	stdLog.Printf("Seed completed")
}
