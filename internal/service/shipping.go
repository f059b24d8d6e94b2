package service

import "strings"

// defaultDistrictFees 胡志明市各区默认配送费（VND）
var defaultDistrictFees = map[string]int64{
	"1":        25000,
	"3":        25000,
	"5":        30000,
	"7":        35000,
	"tan_binh": 35000,
	"go_vap":   40000,
}

const defaultShippingFee int64 = 35000

// ShippingCalculator 按区计算配送费
type ShippingCalculator struct {
	districtFees map[string]int64
	defaultFee   int64
}

// NewShippingCalculator 创建配送费计算器，fees 为空时使用内置费率表
func NewShippingCalculator(fees map[string]int64, defaultFee int64) *ShippingCalculator {
	if len(fees) == 0 {
		fees = defaultDistrictFees
	}
	if defaultFee <= 0 {
		defaultFee = defaultShippingFee
	}
	normalized := make(map[string]int64, len(fees))
	for district, fee := range fees {
		key := normalizeDistrict(district)
		if key == "" || fee < 0 {
			continue
		}
		normalized[key] = fee
	}
	return &ShippingCalculator{districtFees: normalized, defaultFee: defaultFee}
}

// DistrictFees 返回规整后的费率表副本
func (c *ShippingCalculator) DistrictFees() map[string]int64 {
	fees := make(map[string]int64, len(c.districtFees))
	for district, fee := range c.districtFees {
		fees[district] = fee
	}
	return fees
}

// DefaultFee 返回默认配送费
func (c *ShippingCalculator) DefaultFee() int64 {
	return c.defaultFee
}

// FeeFor 获取指定区的配送费，未知区返回默认费
func (c *ShippingCalculator) FeeFor(district string) int64 {
	key := normalizeDistrict(district)
	if key == "" {
		return c.defaultFee
	}
	if fee, ok := c.districtFees[key]; ok {
		return fee
	}
	return c.defaultFee
}

// normalizeDistrict 规整区名：小写、空格转下划线、去掉“quận/quan”前缀
func normalizeDistrict(district string) string {
	key := strings.ToLower(strings.TrimSpace(district))
	if key == "" {
		return ""
	}
	key = strings.TrimPrefix(key, "quận ")
	key = strings.TrimPrefix(key, "quan ")
	key = strings.ReplaceAll(key, " ", "_")
	return key
}
