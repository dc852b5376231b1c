package service

import (
	"context"
	"errors"
	"storefront_bff/internal/domain/checkout/model"
	discountModel "storefront_bff/internal/domain/discount/model"
	"storefront_bff/internal/pkg/session"
	"storefront_bff/internal/pkg/upstream"
	"storefront_bff/pkg/logger"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrNoCheckout     = errors.New("no active checkout")
	ErrProcessing     = errors.New("payment is already being processed")
	ErrNotSubmittable = errors.New("checkout is not ready for submission")
)

// PaymentAPI 上游支付接口
type PaymentAPI interface {
	CreatePayment(ctx context.Context, token string, req upstream.CreatePaymentRequest) (string, error)
	ProcessPayment(ctx context.Context, token, paymentID string) (*upstream.ProcessPaymentResult, error)
}

// CodeResolver 结算内折扣码校验，复用折扣服务的两级回退
type CodeResolver interface {
	ResolveCode(ctx context.Context, sess *session.Session, code string, amount decimal.Decimal) (*discountModel.DiscountResult, error)
}

// SessionStore 会话状态依赖
type SessionStore interface {
	SetJSON(ctx context.Context, sessionID, field string, v interface{}) error
	GetJSON(ctx context.Context, sessionID, field string, out interface{}) (bool, error)
	Delete(ctx context.Context, sessionID, field string) error
	AcquireLock(ctx context.Context, sessionID, action string) (bool, error)
	ReleaseLock(ctx context.Context, sessionID, action string) error
}

type CheckoutService interface {
	Start(ctx context.Context, sess *session.Session, cart model.CartSnapshot) (*model.State, error)
	Get(ctx context.Context, sess *session.Session) (*model.State, error)
	SetBilling(ctx context.Context, sess *session.Session, billing model.BillingInfo) (*model.State, error)
	SetPaymentMethod(ctx context.Context, sess *session.Session, payment model.PaymentDetails) (*model.State, error)
	Next(ctx context.Context, sess *session.Session) (*model.State, error)
	Back(ctx context.Context, sess *session.Session) (*model.State, error)
	ValidateCode(ctx context.Context, sess *session.Session, code string) (*model.State, error)
	Submit(ctx context.Context, sess *session.Session) (*model.State, error)
	Cancel(ctx context.Context, sess *session.Session) error
}

type checkoutService struct {
	payments       PaymentAPI
	resolver       CodeResolver
	sessions       SessionStore
	currency       string
	defaultCountry string
}

func NewCheckoutService(payments PaymentAPI, resolver CodeResolver, sessions SessionStore, currency, defaultCountry string) CheckoutService {
	return &checkoutService{
		payments:       payments,
		resolver:       resolver,
		sessions:       sessions,
		currency:       currency,
		defaultCountry: defaultCountry,
	}
}

// Start 用购物车快照开启新的结算，覆盖旧的
func (s *checkoutService) Start(ctx context.Context, sess *session.Session, cart model.CartSnapshot) (*model.State, error) {
	st := model.NewState(cart)
	if err := s.save(ctx, sess, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *checkoutService) Get(ctx context.Context, sess *session.Session) (*model.State, error) {
	return s.load(ctx, sess)
}

// SetBilling 保存账单信息，不推进步骤
func (s *checkoutService) SetBilling(ctx context.Context, sess *session.Session, billing model.BillingInfo) (*model.State, error) {
	st, err := s.load(ctx, sess)
	if err != nil {
		return nil, err
	}
	st.Billing = billing
	if err := s.save(ctx, sess, st); err != nil {
		return nil, err
	}
	return st, nil
}

// SetPaymentMethod 保存支付方式，不推进步骤
func (s *checkoutService) SetPaymentMethod(ctx context.Context, sess *session.Session, payment model.PaymentDetails) (*model.State, error) {
	st, err := s.load(ctx, sess)
	if err != nil {
		return nil, err
	}
	st.Payment = payment
	if err := s.save(ctx, sess, st); err != nil {
		return nil, err
	}
	return st, nil
}

// Next 校验当前步骤后前进
func (s *checkoutService) Next(ctx context.Context, sess *session.Session) (*model.State, error) {
	st, err := s.load(ctx, sess)
	if err != nil {
		return nil, err
	}
	if err := st.Next(); err != nil {
		return st, err
	}
	if err := s.save(ctx, sess, st); err != nil {
		return nil, err
	}
	return st, nil
}

// Back 后退一步
func (s *checkoutService) Back(ctx context.Context, sess *session.Session) (*model.State, error) {
	st, err := s.load(ctx, sess)
	if err != nil {
		return nil, err
	}
	if err := st.Back(); err != nil {
		return st, err
	}
	if err := s.save(ctx, sess, st); err != nil {
		return nil, err
	}
	return st, nil
}

// ValidateCode 结算内校验折扣码
// 成功后只更新结算页的折扣明细，不动购物车快照，也不动会话级已应用折扣
func (s *checkoutService) ValidateCode(ctx context.Context, sess *session.Session, code string) (*model.State, error) {
	st, err := s.load(ctx, sess)
	if err != nil {
		return nil, err
	}

	result, err := s.resolver.ResolveCode(ctx, sess, code, st.Cart.Total)
	if err != nil {
		return st, err
	}

	st.Discount = result
	if err := s.save(ctx, sess, st); err != nil {
		return nil, err
	}
	return st, nil
}

// Submit 从确认页提交：先创建支付再处理支付
// 任何一步失败都转入 failed 且保留重试能力 (processing 锁在返回前释放)
func (s *checkoutService) Submit(ctx context.Context, sess *session.Session) (*model.State, error) {
	st, err := s.load(ctx, sess)
	if err != nil {
		return nil, err
	}
	if !st.Submittable() {
		return st, ErrNotSubmittable
	}

	ok, err := s.sessions.AcquireLock(ctx, sess.ID, session.LockProcessing)
	if err != nil {
		return nil, err
	}
	if !ok {
		return st, ErrProcessing
	}
	defer func() {
		_ = s.sessions.ReleaseLock(ctx, sess.ID, session.LockProcessing)
	}()

	paymentID, err := s.payments.CreatePayment(ctx, sess.Token, s.buildRequest(st))
	if err != nil {
		return s.fail(ctx, sess, st, err.Error())
	}

	result, err := s.payments.ProcessPayment(ctx, sess.Token, paymentID)
	if err != nil {
		return s.fail(ctx, sess, st, err.Error())
	}

	if result.Status != upstream.PaymentStatusCompleted {
		msg := result.Message
		if msg == "" {
			msg = "Payment failed"
		}
		return s.fail(ctx, sess, st, msg)
	}

	st.Step = model.StepCompleted
	st.FailureMessage = ""
	st.OrderNumber = result.TransactionID
	if st.OrderNumber == "" {
		// 服务端没给交易号时退回支付单号
		st.OrderNumber = paymentID
	}
	if err := s.save(ctx, sess, st); err != nil {
		return nil, err
	}
	return st, nil
}

// Cancel 丢弃结算状态
func (s *checkoutService) Cancel(ctx context.Context, sess *session.Session) error {
	return s.sessions.Delete(ctx, sess.ID, session.FieldCheckout)
}

func (s *checkoutService) fail(ctx context.Context, sess *session.Session, st *model.State, msg string) (*model.State, error) {
	st.Step = model.StepFailed
	st.FailureMessage = msg
	if err := s.save(ctx, sess, st); err != nil {
		return nil, err
	}
	logger.Log.Info("checkout submission failed",
		zap.String("session", sess.ID),
		zap.String("message", msg),
	)
	return st, nil
}

func (s *checkoutService) buildRequest(st *model.State) upstream.CreatePaymentRequest {
	items := lo.Map(st.Cart.Items, func(it model.CartItem, _ int) upstream.PaymentItem {
		return upstream.PaymentItem{
			ProductID:   it.ID,
			ProductName: it.Name,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			TotalPrice:  it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))),
		}
	})

	country := st.Billing.Country
	if country == "" {
		country = s.defaultCountry
	}

	discountCode := ""
	if st.Discount != nil {
		discountCode = st.Discount.Code
	}

	return upstream.CreatePaymentRequest{
		Items:         items,
		PaymentMethod: st.Payment.Method,
		BillingAddress: upstream.BillingAddress{
			FullName:     st.Billing.FullName,
			AddressLine1: st.Billing.Address,
			City:         st.Billing.City,
			State:        st.Billing.State,
			PostalCode:   st.Billing.ZipCode,
			Country:      country,
		},
		DiscountCode: discountCode,
		Currency:     s.currency,
	}
}

func (s *checkoutService) load(ctx context.Context, sess *session.Session) (*model.State, error) {
	var st model.State
	found, err := s.sessions.GetJSON(ctx, sess.ID, session.FieldCheckout, &st)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNoCheckout
	}
	return &st, nil
}

func (s *checkoutService) save(ctx context.Context, sess *session.Session, st *model.State) error {
	return s.sessions.SetJSON(ctx, sess.ID, session.FieldCheckout, st)
}
