package model

import (
	"time"
	"storefront_bff/internal/pkg/upstream"

	"github.com/shopspring/decimal"
)

// 优惠券类型
const (
	TypeClothes  = "clothes"
	TypeShipping = "shipping"
)

// Status 已领优惠券的派生状态
type Status string

const (
	StatusUsed    Status = "used"
	StatusExpired Status = "expired"
	StatusActive  Status = "active"
)

// DeriveStatus 派生状态的唯一实现，全站复用
// 优先级：used > expired > active，互斥
func DeriveStatus(isUsed, isExpired bool) Status {
	if isUsed {
		return StatusUsed
	}
	if isExpired {
		return StatusExpired
	}
	return StatusActive
}

// CollectedVoucher 用户已领取的优惠券视图
// is_used 为 true 后展示层不再提供任何操作
type CollectedVoucher struct {
	Code        string          `json:"code"`
	Description string          `json:"description"`
	Percentage  decimal.Decimal `json:"percentage"`
	VoucherType string          `json:"voucherType"`
	CollectedAt *time.Time      `json:"collectedAt,omitempty"`
	UsedAt      *time.Time      `json:"usedAt,omitempty"`
	ExpiresAt   *time.Time      `json:"expiresAt,omitempty"`
	Status      Status          `json:"status"`
	Actionable  bool            `json:"actionable"`
	Notes       string          `json:"notes,omitempty"`
}

// FromMyDiscount 把上游的 my-discounts 条目转成已领优惠券视图
func FromMyDiscount(d upstream.MyDiscount) CollectedVoucher {
	status := DeriveStatus(d.IsUsed, d.IsExpired)
	return CollectedVoucher{
		Code:        d.DiscountCode,
		Description: d.Description,
		Percentage:  d.Percentage,
		VoucherType: d.VoucherType,
		CollectedAt: d.AssignedAt,
		UsedAt:      d.UsedAt,
		ExpiresAt:   d.ExpiresAt,
		Status:      status,
		Actionable:  status == StatusActive,
		Notes:       d.Notes,
	}
}

// VoucherLists 可领列表 + 已领列表，领取动作后两者一起刷新返回
type VoucherLists struct {
	ClothesVouchers  []upstream.Voucher `json:"clothesVouchers"`
	ShippingVouchers []upstream.Voucher `json:"shippingVouchers"`
	MyVouchers       []CollectedVoucher `json:"myVouchers"`
}

// CollectResult 领取动作的结果：计数 + 刷新后的双列表
type CollectResult struct {
	CollectedCount int `json:"collectedCount"`
	VoucherLists
}
