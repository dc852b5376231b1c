package model

import (
	"storefront_bff/internal/pkg/upstream"

	"github.com/shopspring/decimal"
)

// DiscountResult 当前已应用折扣的规范形态
// 金额全部来自服务端响应，客户端只做字段重命名
type DiscountResult struct {
	Code           string          `json:"code"`
	Percentage     decimal.Decimal `json:"percentage"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	OriginalAmount decimal.Decimal `json:"originalAmount"`
	FinalAmount    decimal.Decimal `json:"finalAmount"`
	Description    string          `json:"description"`
}

// FromOutcome 把上游响应规范化为 DiscountResult
// 仅当响应缺失 final_amount 时才按 original - discount 兜底推导一次
// 显式返回的 0 原样保留，金额以服务端为准
func FromOutcome(o *upstream.DiscountOutcome) *DiscountResult {
	var final decimal.Decimal
	if o.FinalAmount != nil {
		final = *o.FinalAmount
	} else {
		final = o.OriginalAmount.Sub(o.DiscountAmount)
	}
	return &DiscountResult{
		Code:           o.DiscountCode,
		Percentage:     o.DiscountPercentage,
		DiscountAmount: o.DiscountAmount,
		OriginalAmount: o.OriginalAmount,
		FinalAmount:    final,
		Description:    o.Description,
	}
}
