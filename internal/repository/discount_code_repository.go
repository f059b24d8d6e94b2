package repository

import (
	"errors"
	"strings"

	"github.com/yenflowers/api/internal/models"

	"gorm.io/gorm"
)

// DiscountCodeRepository 折扣码数据访问接口
type DiscountCodeRepository interface {
	GetByCode(code string) (*models.DiscountCode, error)
	Create(code *models.DiscountCode) error
	List(filter DiscountCodeListFilter) ([]models.DiscountCode, int64, error)
	ConsumeUse(id uint) (bool, error)
	WithTx(tx *gorm.DB) *GormDiscountCodeRepository
}

// GormDiscountCodeRepository GORM 实现
type GormDiscountCodeRepository struct {
	db *gorm.DB
}

// NewDiscountCodeRepository 创建折扣码仓库
func NewDiscountCodeRepository(db *gorm.DB) *GormDiscountCodeRepository {
	return &GormDiscountCodeRepository{db: db}
}

// WithTx 绑定事务
func (r *GormDiscountCodeRepository) WithTx(tx *gorm.DB) *GormDiscountCodeRepository {
	if tx == nil {
		return r
	}
	return &GormDiscountCodeRepository{db: tx}
}

// GetByCode 根据折扣码获取记录（大小写不敏感）
func (r *GormDiscountCodeRepository) GetByCode(code string) (*models.DiscountCode, error) {
	var record models.DiscountCode
	normalized := strings.TrimSpace(code)
	if normalized == "" {
		return nil, nil
	}
	if err := r.db.Where("LOWER(code) = LOWER(?)", normalized).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// Create 创建折扣码
func (r *GormDiscountCodeRepository) Create(code *models.DiscountCode) error {
	return r.db.Create(code).Error
}

// List 获取折扣码列表
func (r *GormDiscountCodeRepository) List(filter DiscountCodeListFilter) ([]models.DiscountCode, int64, error) {
	var codes []models.DiscountCode
	query := r.db.Model(&models.DiscountCode{})

	if filter.Code != "" {
		query = query.Where("LOWER(code) = LOWER(?)", filter.Code)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	if err := query.Order("id desc").Find(&codes).Error; err != nil {
		return nil, 0, err
	}
	return codes, total, nil
}

// ConsumeUse 条件占用一次使用额度，返回是否占用成功。
// 条件更新保证 used_count 不会超过 max_uses；max_uses 为 0 表示不限次数。
func (r *GormDiscountCodeRepository) ConsumeUse(id uint) (bool, error) {
	result := r.db.Model(&models.DiscountCode{}).
		Where("id = ?", id).
		Where("max_uses = 0 OR used_count < max_uses").
		UpdateColumn("used_count", gorm.Expr("used_count + ?", 1))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
