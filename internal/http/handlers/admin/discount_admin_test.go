package admin

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/yenflowers/api/internal/constants"
)

func TestCreateDiscountCodeEndpoint(t *testing.T) {
	r, _ := setupAdminHandlerTest(t, "admin_discount_create")

	payload := map[string]interface{}{
		"code":            "tet2027",
		"discount_type":   constants.DiscountTypePercentage,
		"discount_value":  15,
		"min_order_value": 300000,
		"max_uses":        100,
	}
	w := adminDoJSON(t, r, http.MethodPost, "/admin/discount-codes", payload)
	var resp struct {
		StatusCode int                    `json:"status_code"`
		Data       map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp.StatusCode != 0 {
		t.Fatalf("status_code want 0 got %d, body: %s", resp.StatusCode, w.Body.String())
	}
	if resp.Data["code"] != "TET2027" {
		t.Fatalf("code should be stored uppercase, got %v", resp.Data["code"])
	}

	// 同一折扣码不可重复创建（匹配大小写不敏感）
	w2 := adminDoJSON(t, r, http.MethodPost, "/admin/discount-codes", payload)
	var dup struct {
		StatusCode int `json:"status_code"`
	}
	if err := json.Unmarshal(w2.Body.Bytes(), &dup); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if dup.StatusCode != 409 {
		t.Fatalf("duplicate code want 409 got %d", dup.StatusCode)
	}
}

func TestCreateDiscountCodeValidation(t *testing.T) {
	r, _ := setupAdminHandlerTest(t, "admin_discount_validation")

	cases := []map[string]interface{}{
		{"code": "BAD1", "discount_type": "bogus", "discount_value": 10},
		{"code": "BAD2", "discount_type": constants.DiscountTypePercentage, "discount_value": 120},
		{"code": "BAD3", "discount_type": constants.DiscountTypeFixed, "discount_value": 50000, "starts_at": "not-a-time"},
	}
	for _, payload := range cases {
		w := adminDoJSON(t, r, http.MethodPost, "/admin/discount-codes", payload)
		var resp struct {
			StatusCode int `json:"status_code"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal response failed: %v", err)
		}
		if resp.StatusCode != 400 {
			t.Fatalf("payload %v want 400 got %d", payload, resp.StatusCode)
		}
	}
}

func TestListDiscountCodesEndpoint(t *testing.T) {
	r, _ := setupAdminHandlerTest(t, "admin_discount_list")

	for _, payload := range []map[string]interface{}{
		{"code": "SPRING10", "discount_type": constants.DiscountTypePercentage, "discount_value": 10},
		{"code": "SHIPFREE", "discount_type": constants.DiscountTypeFixed, "discount_value": 35000, "is_active": false},
	} {
		w := adminDoJSON(t, r, http.MethodPost, "/admin/discount-codes", payload)
		var resp struct {
			StatusCode int `json:"status_code"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal response failed: %v", err)
		}
		if resp.StatusCode != 0 {
			t.Fatalf("seed discount failed: %s", w.Body.String())
		}
	}

	w := adminDoJSON(t, r, http.MethodGet, "/admin/discount-codes?is_active=true", nil)
	var resp struct {
		StatusCode int                      `json:"status_code"`
		Data       []map[string]interface{} `json:"data"`
		Pagination struct {
			Total int64 `json:"total"`
		} `json:"pagination"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp.StatusCode != 0 || resp.Pagination.Total != 1 || len(resp.Data) != 1 {
		t.Fatalf("want one active code, body: %s", w.Body.String())
	}
	if resp.Data[0]["code"] != "SPRING10" {
		t.Fatalf("unexpected code in result: %v", resp.Data[0]["code"])
	}
}
