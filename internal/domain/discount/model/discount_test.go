package model

import (
	"testing"

	"storefront_bff/internal/pkg/upstream"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(f float64) *decimal.Decimal {
	d := decimal.NewFromFloat(f)
	return &d
}

func TestFromOutcome(t *testing.T) {
	t.Run("Server final amount passed through verbatim", func(t *testing.T) {
		result := FromOutcome(&upstream.DiscountOutcome{
			DiscountCode:       "SAVE10",
			DiscountPercentage: decimal.NewFromInt(10),
			DiscountAmount:     decimal.NewFromInt(10),
			OriginalAmount:     decimal.NewFromInt(100),
			FinalAmount:        dec(90),
			Description:        "10% off",
		})

		assert.Equal(t, "SAVE10", result.Code)
		assert.True(t, decimal.NewFromInt(90).Equal(result.FinalAmount))
		assert.Equal(t, "10% off", result.Description)
	})

	t.Run("Missing final amount derived as original minus discount", func(t *testing.T) {
		result := FromOutcome(&upstream.DiscountOutcome{
			DiscountCode:   "SAVE10",
			DiscountAmount: decimal.NewFromInt(10),
			OriginalAmount: decimal.NewFromInt(100),
		})

		assert.True(t, decimal.NewFromInt(90).Equal(result.FinalAmount))
	})

	t.Run("Explicit zero final amount kept as is", func(t *testing.T) {
		// 服务端明确给了 0 (如全额抵扣) 时原样保留，即使和其他金额字段算不平
		result := FromOutcome(&upstream.DiscountOutcome{
			DiscountCode:   "FREE100",
			DiscountAmount: decimal.NewFromInt(10),
			OriginalAmount: decimal.NewFromInt(100),
			FinalAmount:    dec(0),
		})

		assert.True(t, result.FinalAmount.IsZero())
	})
}
