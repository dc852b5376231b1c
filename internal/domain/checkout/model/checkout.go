package model

import (
	"errors"
	"strings"

	discountModel "storefront_bff/internal/domain/discount/model"

	"github.com/shopspring/decimal"
)

// Step 结算向导步骤
type Step string

const (
	StepBillingInfo   Step = "billing_info"
	StepPaymentMethod Step = "payment_method"
	StepReviewOrder   Step = "review_order"
	StepCompleted     Step = "completed"
	StepFailed        Step = "failed"
)

// 支付方式
const (
	MethodCreditCard   = "credit_card"
	MethodDebitCard    = "debit_card"
	MethodPaypal       = "paypal"
	MethodGCash        = "gcash"
	MethodBankTransfer = "bank_transfer"
)

var (
	ErrBillingIncomplete = errors.New("please fill in all billing fields")
	ErrCardIncomplete    = errors.New("please fill in all card fields")
	ErrUnknownMethod     = errors.New("unsupported payment method")
	ErrCannotGoBack      = errors.New("already at the first step")
	ErrCannotAdvance     = errors.New("cannot advance from the current step")
	ErrTerminalState     = errors.New("checkout has already finished")
)

// CartItem 购物车条目，由上层购物车传入，只读消费
type CartItem struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
}

// CartSnapshot 进入结算时的购物车快照
type CartSnapshot struct {
	Items    []CartItem      `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

// BillingInfo 账单信息
type BillingInfo struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Address  string `json:"address"`
	City     string `json:"city"`
	State    string `json:"state"`
	ZipCode  string `json:"zipCode"`
	Country  string `json:"country"`
}

// Validate 六个必填字段全部非空才能离开账单步骤
func (b BillingInfo) Validate() error {
	required := []string{b.FullName, b.Email, b.Address, b.City, b.State, b.ZipCode}
	for _, v := range required {
		if strings.TrimSpace(v) == "" {
			return ErrBillingIncomplete
		}
	}
	return nil
}

// PaymentDetails 支付方式及卡信息
type PaymentDetails struct {
	Method         string `json:"method"`
	CardNumber     string `json:"cardNumber,omitempty"`
	ExpiryDate     string `json:"expiryDate,omitempty"`
	CVV            string `json:"cvv,omitempty"`
	CardholderName string `json:"cardholderName,omitempty"`
}

// Validate 卡类支付要求四个卡字段非空，电子钱包/转账无额外要求
func (p PaymentDetails) Validate() error {
	switch p.Method {
	case MethodCreditCard, MethodDebitCard:
		required := []string{p.CardNumber, p.ExpiryDate, p.CVV, p.CardholderName}
		for _, v := range required {
			if strings.TrimSpace(v) == "" {
				return ErrCardIncomplete
			}
		}
		return nil
	case MethodPaypal, MethodGCash, MethodBankTransfer:
		return nil
	default:
		return ErrUnknownMethod
	}
}

// State 结算向导状态，按会话持久化
type State struct {
	Step           Step                          `json:"step"`
	Cart           CartSnapshot                  `json:"cart"`
	Billing        BillingInfo                   `json:"billing"`
	Payment        PaymentDetails                `json:"payment"`
	Discount       *discountModel.DiscountResult `json:"discount,omitempty"`
	OrderNumber    string                        `json:"orderNumber,omitempty"`
	FailureMessage string                        `json:"failureMessage,omitempty"`
}

// NewState 从购物车快照开始结算
func NewState(cart CartSnapshot) *State {
	return &State{
		Step: StepBillingInfo,
		Cart: cart,
	}
}

// GuardSatisfied 当前步骤的完整性校验
func (st *State) GuardSatisfied() error {
	switch st.Step {
	case StepBillingInfo:
		return st.Billing.Validate()
	case StepPaymentMethod:
		return st.Payment.Validate()
	case StepReviewOrder:
		// 最后确认页，总是满足
		return nil
	default:
		return ErrTerminalState
	}
}

// Next 显式前进一步，不允许跳步
func (st *State) Next() error {
	if err := st.GuardSatisfied(); err != nil {
		return err
	}
	switch st.Step {
	case StepBillingInfo:
		st.Step = StepPaymentMethod
	case StepPaymentMethod:
		st.Step = StepReviewOrder
	default:
		// review 之后只能走提交，不能 Next
		return ErrCannotAdvance
	}
	return nil
}

// Back 显式后退一步，第一步不可后退
func (st *State) Back() error {
	switch st.Step {
	case StepBillingInfo:
		return ErrCannotGoBack
	case StepPaymentMethod:
		st.Step = StepBillingInfo
	case StepReviewOrder:
		st.Step = StepPaymentMethod
	default:
		return ErrTerminalState
	}
	return nil
}

// Submittable 只有确认页 (或失败后重试) 允许提交
func (st *State) Submittable() bool {
	return st.Step == StepReviewOrder || st.Step == StepFailed
}

// DisplayTotal 展示用总价：结算内校验过折扣码就用它的 finalAmount，否则用快照总价
func (st *State) DisplayTotal() decimal.Decimal {
	if st.Discount != nil {
		return st.Discount.FinalAmount
	}
	return st.Cart.Total
}
