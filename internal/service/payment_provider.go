package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/toolshelf/internal/constants"
	"github.com/toolshelf/internal/payment/paypal"
	"github.com/toolshelf/internal/payment/razorpay"
)

// PaymentProvider 第三方支付适配，金额均为最小货币单位
type PaymentProvider interface {
	Name() string
	CreateOrder(ctx context.Context, input ProviderOrderInput) (*ProviderOrder, error)
	CapturePayment(ctx context.Context, input ProviderCaptureInput) (*ProviderCapture, error)
	VerifySignature(orderID, paymentID, signature string) bool
}

// ProviderOrderInput 第三方下单输入
type ProviderOrderInput struct {
	Reference   string
	Amount      int64
	Currency    string
	Description string
}

// ProviderOrder 第三方订单
type ProviderOrder struct {
	ID         string
	ApproveURL string
	Status     string
	Raw        map[string]interface{}
}

// ProviderCaptureInput 捕获输入，PaymentID 仅签名类渠道使用
type ProviderCaptureInput struct {
	OrderID   string
	PaymentID string
	Amount    int64
	Currency  string
}

// ProviderCapture 捕获结果
type ProviderCapture struct {
	Success   bool
	CaptureID string
	Amount    int64
	Currency  string
	Raw       map[string]interface{}
}

// PaypalProvider PayPal 适配
type PaypalProvider struct {
	cfg *paypal.Config
}

// NewPaypalProvider 创建 PayPal 适配
func NewPaypalProvider(cfg paypal.Config) *PaypalProvider {
	cfg.Normalize()
	return &PaypalProvider{cfg: &cfg}
}

// Name 渠道名
func (p *PaypalProvider) Name() string {
	return constants.PaymentProviderPaypal
}

// CreateOrder 创建 PayPal 订单
func (p *PaypalProvider) CreateOrder(ctx context.Context, input ProviderOrderInput) (*ProviderOrder, error) {
	order, err := paypal.CreateOrder(ctx, p.cfg, paypal.OrderInput{
		Reference:   input.Reference,
		AmountMinor: input.Amount,
		Currency:    input.Currency,
		Description: input.Description,
	})
	if err != nil {
		return nil, mapGatewayError(err)
	}
	return &ProviderOrder{ID: order.ID, ApproveURL: order.ApproveURL, Status: order.Status}, nil
}

// CapturePayment 捕获 PayPal 订单
func (p *PaypalProvider) CapturePayment(ctx context.Context, input ProviderCaptureInput) (*ProviderCapture, error) {
	capture, err := paypal.CaptureOrder(ctx, p.cfg, input.OrderID)
	if err != nil {
		return nil, mapGatewayError(err)
	}
	return &ProviderCapture{
		Success:   capture.Completed(),
		CaptureID: capture.CaptureID,
		Amount:    capture.AmountMinor,
		Currency:  capture.Currency,
		Raw:       capture.Raw,
	}, nil
}

// VerifySignature PayPal 以服务端捕获确认支付，不使用客户端签名
func (p *PaypalProvider) VerifySignature(string, string, string) bool {
	return false
}

// RazorpayProvider Razorpay 适配
type RazorpayProvider struct {
	cfg *razorpay.Config
}

// NewRazorpayProvider 创建 Razorpay 适配
func NewRazorpayProvider(cfg razorpay.Config) *RazorpayProvider {
	cfg.Normalize()
	return &RazorpayProvider{cfg: &cfg}
}

// Name 渠道名
func (p *RazorpayProvider) Name() string {
	return constants.PaymentProviderRazorpay
}

// CreateOrder 创建 Razorpay 订单，买家在前端 checkout 中完成支付
func (p *RazorpayProvider) CreateOrder(ctx context.Context, input ProviderOrderInput) (*ProviderOrder, error) {
	order, err := razorpay.CreateOrder(ctx, p.cfg, razorpay.OrderInput{
		Receipt:     input.Reference,
		AmountMinor: input.Amount,
		Currency:    input.Currency,
		Notes:       map[string]string{"order_no": input.Reference},
	})
	if err != nil {
		return nil, mapGatewayError(err)
	}
	return &ProviderOrder{ID: order.ID, Status: order.Status}, nil
}

// CapturePayment 查询支付，已授权未捕获时补做捕获
func (p *RazorpayProvider) CapturePayment(ctx context.Context, input ProviderCaptureInput) (*ProviderCapture, error) {
	payment, err := razorpay.FetchPayment(ctx, p.cfg, input.PaymentID)
	if err != nil {
		return nil, mapGatewayError(err)
	}
	if payment.OrderID != input.OrderID {
		return nil, fmt.Errorf("%w: payment belongs to another order", ErrPaymentGatewayResponseInvalid)
	}
	if payment.Status == razorpay.PaymentStatusAuthorized {
		payment, err = razorpay.CapturePayment(ctx, p.cfg, payment.ID, payment.Amount, payment.Currency)
		if err != nil {
			return nil, mapGatewayError(err)
		}
	}
	return &ProviderCapture{
		Success:   payment.IsCaptured(),
		CaptureID: payment.ID,
		Amount:    payment.Amount,
		Currency:  payment.Currency,
		Raw: map[string]interface{}{
			"payment_id": payment.ID,
			"order_id":   payment.OrderID,
			"status":     payment.Status,
			"method":     payment.Method,
		},
	}, nil
}

// VerifySignature 校验 checkout 回传签名
func (p *RazorpayProvider) VerifySignature(orderID, paymentID, signature string) bool {
	return razorpay.VerifySignature(p.cfg, orderID, paymentID, signature) == nil
}

func mapGatewayError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, paypal.ErrConfigInvalid), errors.Is(err, razorpay.ErrConfigInvalid):
		return fmt.Errorf("%w: %v", ErrPaymentProviderNotSupported, err)
	case errors.Is(err, paypal.ErrResponseInvalid), errors.Is(err, razorpay.ErrResponseInvalid):
		return fmt.Errorf("%w: %v", ErrPaymentGatewayResponseInvalid, err)
	default:
		return fmt.Errorf("%w: %v", ErrPaymentGatewayRequestFailed, err)
	}
}
