package model

import (
	"testing"

	discountModel "storefront_bff/internal/domain/discount/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func completeBilling() BillingInfo {
	return BillingInfo{
		FullName: "Juan Dela Cruz",
		Email:    "juan@example.com",
		Address:  "123 Rizal St",
		City:     "Manila",
		State:    "NCR",
		ZipCode:  "1000",
		Country:  "PH",
	}
}

func completeCard() PaymentDetails {
	return PaymentDetails{
		Method:         MethodCreditCard,
		CardNumber:     "4111111111111111",
		ExpiryDate:     "12/27",
		CVV:            "123",
		CardholderName: "Juan Dela Cruz",
	}
}

func TestBillingInfoValidate(t *testing.T) {
	t.Run("All fields filled passes", func(t *testing.T) {
		assert.NoError(t, completeBilling().Validate())
	})

	t.Run("Each missing field fails", func(t *testing.T) {
		cases := []func(*BillingInfo){
			func(b *BillingInfo) { b.FullName = "" },
			func(b *BillingInfo) { b.Email = "" },
			func(b *BillingInfo) { b.Address = "" },
			func(b *BillingInfo) { b.City = "" },
			func(b *BillingInfo) { b.State = "" },
			func(b *BillingInfo) { b.ZipCode = "" },
		}
		for _, clear := range cases {
			b := completeBilling()
			clear(&b)
			assert.ErrorIs(t, b.Validate(), ErrBillingIncomplete)
		}
	})

	t.Run("Whitespace only counts as empty", func(t *testing.T) {
		b := completeBilling()
		b.City = "   "
		assert.ErrorIs(t, b.Validate(), ErrBillingIncomplete)
	})
}

func TestPaymentDetailsValidate(t *testing.T) {
	t.Run("Card methods require all card fields", func(t *testing.T) {
		for _, method := range []string{MethodCreditCard, MethodDebitCard} {
			p := completeCard()
			p.Method = method
			assert.NoError(t, p.Validate())

			p.CVV = ""
			assert.ErrorIs(t, p.Validate(), ErrCardIncomplete)
		}
	})

	t.Run("Wallet methods need no card fields", func(t *testing.T) {
		for _, method := range []string{MethodPaypal, MethodGCash, MethodBankTransfer} {
			p := PaymentDetails{Method: method}
			assert.NoError(t, p.Validate())
		}
	})

	t.Run("Unknown method rejected", func(t *testing.T) {
		p := PaymentDetails{Method: "bitcoin"}
		assert.ErrorIs(t, p.Validate(), ErrUnknownMethod)
	})
}

func TestStateTransitions(t *testing.T) {
	cart := CartSnapshot{Total: decimal.NewFromInt(100)}

	t.Run("Starts at billing step", func(t *testing.T) {
		st := NewState(cart)
		assert.Equal(t, StepBillingInfo, st.Step)
	})

	t.Run("Cannot advance with incomplete billing", func(t *testing.T) {
		st := NewState(cart)
		assert.ErrorIs(t, st.Next(), ErrBillingIncomplete)
		assert.Equal(t, StepBillingInfo, st.Step)
	})

	t.Run("Walks billing to review one step at a time", func(t *testing.T) {
		st := NewState(cart)
		st.Billing = completeBilling()
		assert.NoError(t, st.Next())
		assert.Equal(t, StepPaymentMethod, st.Step)

		st.Payment = completeCard()
		assert.NoError(t, st.Next())
		assert.Equal(t, StepReviewOrder, st.Step)

		// review 之后不能再 Next
		assert.ErrorIs(t, st.Next(), ErrCannotAdvance)
	})

	t.Run("Cannot go back from first step", func(t *testing.T) {
		st := NewState(cart)
		assert.ErrorIs(t, st.Back(), ErrCannotGoBack)
	})

	t.Run("Back preserves entered data", func(t *testing.T) {
		st := NewState(cart)
		st.Billing = completeBilling()
		assert.NoError(t, st.Next())

		assert.NoError(t, st.Back())
		assert.Equal(t, StepBillingInfo, st.Step)
		assert.Equal(t, "Juan Dela Cruz", st.Billing.FullName)
	})

	t.Run("Terminal states reject transitions", func(t *testing.T) {
		st := NewState(cart)
		st.Step = StepCompleted
		assert.ErrorIs(t, st.Next(), ErrTerminalState)
		assert.ErrorIs(t, st.Back(), ErrTerminalState)
	})

	t.Run("Submittable only on review or after failure", func(t *testing.T) {
		st := NewState(cart)
		assert.False(t, st.Submittable())

		st.Step = StepReviewOrder
		assert.True(t, st.Submittable())

		st.Step = StepFailed
		assert.True(t, st.Submittable())

		st.Step = StepCompleted
		assert.False(t, st.Submittable())
	})
}

func TestDisplayTotal(t *testing.T) {
	cart := CartSnapshot{Total: decimal.NewFromInt(100)}

	t.Run("Without validated code uses cart total", func(t *testing.T) {
		st := NewState(cart)
		assert.True(t, decimal.NewFromInt(100).Equal(st.DisplayTotal()))
	})

	t.Run("Validated code overrides with server final amount", func(t *testing.T) {
		st := NewState(cart)
		st.Discount = &discountModel.DiscountResult{
			Code:        "SAVE10",
			FinalAmount: decimal.NewFromInt(90),
		}
		assert.True(t, decimal.NewFromInt(90).Equal(st.DisplayTotal()))
	})
}
