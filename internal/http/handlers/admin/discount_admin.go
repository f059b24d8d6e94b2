package admin

import (
	"strconv"
	"strings"
	"time"

	"github.com/yenflowers/api/internal/constants"
	"github.com/yenflowers/api/internal/http/handlers/shared"
	"github.com/yenflowers/api/internal/http/response"
	"github.com/yenflowers/api/internal/models"
	"github.com/yenflowers/api/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListDiscountCodes 折扣码列表
func (h *Handler) ListDiscountCodes(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = shared.NormalizePagination(page, pageSize)

	filter := repository.DiscountCodeListFilter{
		Page:     page,
		PageSize: pageSize,
		Code:     c.Query("code"),
	}
	if raw := strings.TrimSpace(c.Query("is_active")); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(c, response.CodeBadRequest, "is_active must be a boolean", nil)
			return
		}
		filter.IsActive = &active
	}

	codes, total, err := h.DiscountCodeRepo.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "list discount codes failed", err)
		return
	}

	response.SuccessWithPage(c, codes, response.NewPagination(page, pageSize, total))
}

// CreateDiscountCodeRequest 折扣码创建请求
type CreateDiscountCodeRequest struct {
	Code          string `json:"code" binding:"required"`
	DiscountType  string `json:"discount_type" binding:"required"`
	DiscountValue int64  `json:"discount_value" binding:"required"`
	MinOrderValue int64  `json:"min_order_value"`
	MaxUses       int    `json:"max_uses"`
	StartsAt      string `json:"starts_at"` // RFC3339，可空
	ExpiresAt     string `json:"expires_at"`
	IsActive      *bool  `json:"is_active"`
}

// CreateDiscountCode 创建折扣码
func (h *Handler) CreateDiscountCode(c *gin.Context) {
	var req CreateDiscountCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "request body invalid", err)
		return
	}

	discountType := strings.ToLower(strings.TrimSpace(req.DiscountType))
	if discountType != constants.DiscountTypePercentage && discountType != constants.DiscountTypeFixed {
		respondError(c, response.CodeBadRequest, "discount_type must be percentage or fixed", nil)
		return
	}
	if req.DiscountValue <= 0 || (discountType == constants.DiscountTypePercentage && req.DiscountValue > 100) {
		respondError(c, response.CodeBadRequest, "discount_value out of range", nil)
		return
	}

	startsAt, err := parseOptionalTime(req.StartsAt)
	if err != nil {
		respondError(c, response.CodeBadRequest, "starts_at must be RFC3339", nil)
		return
	}
	expiresAt, err := parseOptionalTime(req.ExpiresAt)
	if err != nil {
		respondError(c, response.CodeBadRequest, "expires_at must be RFC3339", nil)
		return
	}

	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if existing, err := h.DiscountCodeRepo.GetByCode(code); err != nil {
		respondError(c, response.CodeInternal, "discount code lookup failed", err)
		return
	} else if existing != nil {
		respondError(c, response.CodeConflict, "discount code already exists", nil)
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	discount := &models.DiscountCode{
		Code:          code,
		DiscountType:  discountType,
		DiscountValue: req.DiscountValue,
		MinOrderValue: req.MinOrderValue,
		MaxUses:       req.MaxUses,
		StartsAt:      startsAt,
		ExpiresAt:     expiresAt,
		IsActive:      isActive,
	}
	if err := h.DiscountCodeRepo.Create(discount); err != nil {
		respondError(c, response.CodeInternal, "create discount code failed", err)
		return
	}
	response.Success(c, discount)
}

func parseOptionalTime(raw string) (*time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, trimmed)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
