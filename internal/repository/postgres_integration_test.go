//go:build integration
// +build integration

package repository

import (
	"os"
	"strings"
	"testing"

	"github.com/yenflowers/api/internal/constants"
	"github.com/yenflowers/api/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgresIntegrationDB 初始化 PostgreSQL 集成测试数据库。
func setupPostgresIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: TEST_POSTGRES_DSN is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}

	cleanupModels := []interface{}{
		&models.OrderItem{},
		&models.Order{},
		&models.ProductVariant{},
		&models.Product{},
		&models.DiscountCode{},
	}
	_ = db.Migrator().DropTable(cleanupModels...)

	if err := db.AutoMigrate(
		&models.Product{},
		&models.ProductVariant{},
		&models.DiscountCode{},
		&models.Order{},
		&models.OrderItem{},
	); err != nil {
		t.Fatalf("migrate postgres models failed: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Migrator().DropTable(cleanupModels...)
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

func TestPostgresOrderCreateAndLookup(t *testing.T) {
	db := setupPostgresIntegrationDB(t)

	productRepo := NewProductRepository(db)
	orderRepo := NewOrderRepository(db)

	product := &models.Product{
		Slug:          "pg-rose-bouquet",
		Name:          "Bó hoa hồng",
		Price:         450000,
		StockQuantity: 5,
		IsPublished:   true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}

	order := &models.Order{
		OrderNumber:   "YF-20260101-123",
		FullName:      "Nguyen Van A",
		Phone:         "0900000000",
		AddressLine:   "12 Ly Tu Trong",
		District:      "1",
		City:          "Ho Chi Minh",
		Subtotal:      450000,
		ShippingFee:   25000,
		Total:         475000,
		OrderStatus:   constants.OrderStatusPending,
		PaymentStatus: constants.PaymentStatusPending,
		PaymentMethod: constants.PaymentMethodCOD,
	}
	items := []models.OrderItem{{
		ProductID:   product.ID,
		ProductName: product.Name,
		Quantity:    1,
		UnitPrice:   450000,
		TotalPrice:  450000,
	}}
	if err := orderRepo.Create(order, items); err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	got, err := orderRepo.GetByOrderNumber("YF-20260101-123")
	if err != nil {
		t.Fatalf("get order by number failed: %v", err)
	}
	if got == nil || len(got.Items) != 1 {
		t.Fatalf("order lookup want 1 item, got %+v", got)
	}

	ok, err := productRepo.DecrementStock(product.ID, 1)
	if err != nil {
		t.Fatalf("decrement stock failed: %v", err)
	}
	if !ok {
		t.Fatalf("decrement stock should succeed")
	}

	rows, total, err := orderRepo.List(OrderListFilter{Page: 1, PageSize: 10, OrderNumber: "yf-20260101"})
	if err != nil {
		t.Fatalf("list orders failed: %v", err)
	}
	if total != 1 || len(rows) != 1 {
		t.Fatalf("order list ILIKE search want 1 got total=%d len=%d", total, len(rows))
	}
}

func TestPostgresDiscountConsumeCap(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewDiscountCodeRepository(db)

	code := &models.DiscountCode{
		Code:          "PGSALE",
		DiscountType:  constants.DiscountTypePercentage,
		DiscountValue: 10,
		MaxUses:       1,
		IsActive:      true,
	}
	if err := repo.Create(code); err != nil {
		t.Fatalf("create discount code failed: %v", err)
	}

	ok, err := repo.ConsumeUse(code.ID)
	if err != nil {
		t.Fatalf("first consume failed: %v", err)
	}
	if !ok {
		t.Fatalf("first consume should succeed")
	}

	ok, err = repo.ConsumeUse(code.ID)
	if err != nil {
		t.Fatalf("second consume failed: %v", err)
	}
	if ok {
		t.Fatalf("second consume should be rejected at max_uses")
	}
}
