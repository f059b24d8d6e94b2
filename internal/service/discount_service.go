package service

import (
	"strings"
	"time"

	"github.com/yenflowers/api/internal/constants"
	"github.com/yenflowers/api/internal/models"
	"github.com/yenflowers/api/internal/repository"
)

// DiscountService 折扣码服务
type DiscountService struct {
	discountRepo repository.DiscountCodeRepository
}

// NewDiscountService 创建折扣码服务
func NewDiscountService(discountRepo repository.DiscountCodeRepository) *DiscountService {
	return &DiscountService{discountRepo: discountRepo}
}

// Resolve 按折扣码计算折扣金额。
// 无效折扣码（不存在、停用、未开始、已过期、用尽、未达门槛）静默返回零折扣。
func (s *DiscountService) Resolve(code string, subtotal int64, now time.Time) (int64, *models.DiscountCode, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return 0, nil, nil
	}

	discount, err := s.discountRepo.GetByCode(trimmed)
	if err != nil {
		return 0, nil, err
	}
	if discount == nil || !discount.IsActive {
		return 0, nil, nil
	}
	if discount.StartsAt != nil && now.Before(*discount.StartsAt) {
		return 0, nil, nil
	}
	if discount.ExpiresAt != nil && now.After(*discount.ExpiresAt) {
		return 0, nil, nil
	}
	if discount.MaxUses > 0 && discount.UsedCount >= discount.MaxUses {
		return 0, nil, nil
	}
	if discount.MinOrderValue > 0 && subtotal < discount.MinOrderValue {
		return 0, nil, nil
	}

	amount := calculateDiscountAmount(discount, subtotal)
	if amount <= 0 {
		return 0, nil, nil
	}
	return amount, discount, nil
}

// Consume 原子占用一次使用额度，返回是否成功
func (s *DiscountService) Consume(discountID uint) (bool, error) {
	return s.discountRepo.ConsumeUse(discountID)
}

func calculateDiscountAmount(discount *models.DiscountCode, subtotal int64) int64 {
	if discount.DiscountValue <= 0 {
		return 0
	}
	switch strings.ToLower(strings.TrimSpace(discount.DiscountType)) {
	case constants.DiscountTypePercentage:
		amount := subtotal * discount.DiscountValue / 100
		if amount > subtotal {
			amount = subtotal
		}
		return amount
	case constants.DiscountTypeFixed:
		if discount.DiscountValue > subtotal {
			return subtotal
		}
		return discount.DiscountValue
	default:
		return 0
	}
}
