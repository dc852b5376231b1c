package upstream

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// CatalogDiscount 折扣目录条目
type CatalogDiscount struct {
	Code        string          `json:"code"`
	Description string          `json:"description"`
	Percentage  decimal.Decimal `json:"percentage"`
	VoucherType string          `json:"voucher_type"`
	ExpiresAt   *time.Time      `json:"expires_at,omitempty"`
}

// MyDiscount 用户已领取的折扣
type MyDiscount struct {
	DiscountCode string          `json:"discount_code"`
	Description  string          `json:"description"`
	Percentage   decimal.Decimal `json:"percentage"`
	AssignedAt   *time.Time      `json:"assigned_at,omitempty"`
	IsUsed       bool            `json:"is_used"`
	UsedAt       *time.Time      `json:"used_at,omitempty"`
	ExpiresAt    *time.Time      `json:"expires_at,omitempty"`
	IsExpired    bool            `json:"is_expired"`
	VoucherType  string          `json:"voucher_type"`
	Notes        string          `json:"notes"`
}

// ApplyDiscountRequest 折扣应用请求
type ApplyDiscountRequest struct {
	Code        string          `json:"code"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// DiscountOutcome 折扣应用成功的响应
// 金额字段以服务端为准，客户端不重新计算
// FinalAmount 用指针区分"字段缺失"和"显式返回 0"
type DiscountOutcome struct {
	DiscountCode       string           `json:"discount_code"`
	DiscountPercentage decimal.Decimal  `json:"discount_percentage"`
	DiscountAmount     decimal.Decimal  `json:"discount_amount"`
	OriginalAmount     decimal.Decimal  `json:"original_amount"`
	FinalAmount        *decimal.Decimal `json:"final_amount"`
	Description        string           `json:"description"`
}

// Voucher 可领取的优惠券
type Voucher struct {
	ID          string          `json:"id"`
	Code        string          `json:"code"`
	Percentage  decimal.Decimal `json:"percentage"`
	Description string          `json:"description"`
	VoucherType string          `json:"voucher_type"`
	ExpiresAt   *time.Time      `json:"expires_at,omitempty"`
}

// AvailableVouchers 按类型分组的可领优惠券
type AvailableVouchers struct {
	ClothesVouchers  []Voucher `json:"clothes_vouchers"`
	ShippingVouchers []Voucher `json:"shipping_vouchers"`
}

type myDiscountsBody struct {
	Discounts []MyDiscount `json:"discounts"`
}

type collectVoucherRequest struct {
	VoucherID string `json:"voucher_id"`
}

type collectAllRequest struct {
	VoucherType string `json:"voucher_type,omitempty"`
}

type collectAllBody struct {
	CollectedCount int `json:"collected_count"`
}

// ListDiscounts 拉取折扣目录
func (c *Client) ListDiscounts(ctx context.Context, token string) ([]CatalogDiscount, error) {
	var out []CatalogDiscount
	if err := c.get(ctx, token, "/discounts/discounts", &out, "list_discounts", "Failed to load discounts"); err != nil {
		return nil, err
	}
	return out, nil
}

// ListMyDiscounts 拉取用户已领折扣
func (c *Client) ListMyDiscounts(ctx context.Context, token string) ([]MyDiscount, error) {
	var body myDiscountsBody
	if err := c.get(ctx, token, "/discounts/my-discounts", &body, "list_my_discounts", "Failed to load your discounts"); err != nil {
		return nil, err
	}
	return body.Discounts, nil
}

// ApplyDiscount 按通用码应用折扣
func (c *Client) ApplyDiscount(ctx context.Context, token string, req ApplyDiscountRequest) (*DiscountOutcome, error) {
	var out DiscountOutcome
	if err := c.post(ctx, token, "/discounts/apply-discount", req, &out, "apply_discount", "Failed to apply discount code"); err != nil {
		return nil, err
	}
	return &out, nil
}

// ApplyAssignedDiscount 按用户专属码应用折扣
func (c *Client) ApplyAssignedDiscount(ctx context.Context, token string, req ApplyDiscountRequest) (*DiscountOutcome, error) {
	var out DiscountOutcome
	if err := c.post(ctx, token, "/discounts/apply-assigned-discount", req, &out, "apply_assigned_discount", "Failed to apply discount code"); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListAvailableVouchers 拉取可领优惠券，缺失的数组补为空
func (c *Client) ListAvailableVouchers(ctx context.Context, token string) (*AvailableVouchers, error) {
	var out AvailableVouchers
	if err := c.get(ctx, token, "/discounts/available-vouchers", &out, "list_available_vouchers", "Failed to load vouchers"); err != nil {
		return nil, err
	}
	if out.ClothesVouchers == nil {
		out.ClothesVouchers = []Voucher{}
	}
	if out.ShippingVouchers == nil {
		out.ShippingVouchers = []Voucher{}
	}
	return &out, nil
}

// CollectVoucher 领取单张优惠券
func (c *Client) CollectVoucher(ctx context.Context, token, voucherID string) error {
	return c.post(ctx, token, "/discounts/collect-voucher", collectVoucherRequest{VoucherID: voucherID}, nil, "collect_voucher", "Failed to collect voucher")
}

// CollectAllVouchers 一键领取，voucherType 为空表示全部类型
func (c *Client) CollectAllVouchers(ctx context.Context, token, voucherType string) (int, error) {
	var body collectAllBody
	req := collectAllRequest{VoucherType: voucherType}
	if err := c.post(ctx, token, "/discounts/collect-all-vouchers", req, &body, "collect_all_vouchers", "Failed to collect vouchers"); err != nil {
		return 0, err
	}
	return body.CollectedCount, nil
}
