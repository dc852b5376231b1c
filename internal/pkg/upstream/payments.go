package upstream

import (
	"context"

	"github.com/shopspring/decimal"
)

// 支付状态
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
)

// PaymentItem 支付明细行
type PaymentItem struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

// BillingAddress 账单地址
type BillingAddress struct {
	FullName     string `json:"full_name"`
	AddressLine1 string `json:"address_line1"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
}

// CreatePaymentRequest 创建支付请求
type CreatePaymentRequest struct {
	Items          []PaymentItem  `json:"items"`
	PaymentMethod  string         `json:"payment_method"`
	BillingAddress BillingAddress `json:"billing_address"`
	DiscountCode   string         `json:"discount_code,omitempty"`
	Currency       string         `json:"currency"`
	Notes          string         `json:"notes,omitempty"`
}

type createPaymentBody struct {
	PaymentID string `json:"payment_id"`
}

// ProcessPaymentResult 支付处理结果
type ProcessPaymentResult struct {
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id"`
	Message       string `json:"message"`
}

// CreatePayment 创建支付，返回支付单号
func (c *Client) CreatePayment(ctx context.Context, token string, req CreatePaymentRequest) (string, error) {
	var body createPaymentBody
	if err := c.post(ctx, token, "/payments/create-payment", req, &body, "create_payment", "Failed to create payment"); err != nil {
		return "", err
	}
	return body.PaymentID, nil
}

// ProcessPayment 处理指定支付单
func (c *Client) ProcessPayment(ctx context.Context, token, paymentID string) (*ProcessPaymentResult, error) {
	var out ProcessPaymentResult
	if err := c.post(ctx, token, "/payments/process-payment/"+paymentID, nil, &out, "process_payment", "Payment failed"); err != nil {
		return nil, err
	}
	return &out, nil
}
