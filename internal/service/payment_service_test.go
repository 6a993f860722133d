package service

import (
	"context"
	"errors"
	"testing"

	"github.com/toolshelf/internal/constants"
	"github.com/toolshelf/internal/models"
	"github.com/toolshelf/internal/repository"
)

type fakePaymentProvider struct {
	name        string
	createErr   error
	capture     *ProviderCapture
	captureErr  error
	captures    int
	validSig    string
	lastCapture ProviderCaptureInput
}

func (p *fakePaymentProvider) Name() string { return p.name }

func (p *fakePaymentProvider) CreateOrder(_ context.Context, input ProviderOrderInput) (*ProviderOrder, error) {
	if p.createErr != nil {
		return nil, p.createErr
	}
	return &ProviderOrder{
		ID:         p.name + "-order-" + input.Reference,
		ApproveURL: "https://pay.example/approve/" + input.Reference,
		Status:     "CREATED",
	}, nil
}

func (p *fakePaymentProvider) CapturePayment(_ context.Context, input ProviderCaptureInput) (*ProviderCapture, error) {
	p.captures++
	p.lastCapture = input
	if p.captureErr != nil {
		return nil, p.captureErr
	}
	return p.capture, nil
}

func (p *fakePaymentProvider) VerifySignature(_, _, signature string) bool {
	return p.validSig != "" && signature == p.validSig
}

type checkoutFixture struct {
	*settlementFixture
	paymentSvc *PaymentService
	paypal     *fakePaymentProvider
	razorpay   *fakePaymentProvider
	buyer      *models.User
	resource   *models.Resource
}

func setupCheckoutTest(t *testing.T) *checkoutFixture {
	t.Helper()
	f := setupSettlementServiceTest(t)
	creator := createSettlementTestUser(t, f.db, "creator@example.com")
	buyer := createSettlementTestUser(t, f.db, "buyer@example.com")
	resource := createSettlementTestResource(t, f.db, creator.ID, "checkout-tool", 2500, 80)

	paypalProvider := &fakePaymentProvider{
		name:    constants.PaymentProviderPaypal,
		capture: &ProviderCapture{Success: true, CaptureID: "CAP-1", Amount: 2500, Currency: "USD"},
	}
	razorpayProvider := &fakePaymentProvider{
		name:     constants.PaymentProviderRazorpay,
		capture:  &ProviderCapture{Success: true, CaptureID: "pay_1", Amount: 2500, Currency: "USD"},
		validSig: "good-signature",
	}
	paymentSvc := NewPaymentService(
		repository.NewPaymentOrderRepository(f.db),
		repository.NewResourceRepository(f.db),
		f.purchaseSvc,
		paypalProvider,
		razorpayProvider,
	)
	return &checkoutFixture{
		settlementFixture: f,
		paymentSvc:        paymentSvc,
		paypal:            paypalProvider,
		razorpay:          razorpayProvider,
		buyer:             buyer,
		resource:          resource,
	}
}

func TestPaymentServiceCreateOrderUsesResourcePricing(t *testing.T) {
	f := setupCheckoutTest(t)

	order, err := f.paymentSvc.CreateOrder(context.Background(), CreateOrderInput{
		BuyerID:    f.buyer.ID,
		ResourceID: f.resource.ID,
		Provider:   "PayPal",
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if order.Amount != 2500 || order.Currency != "USD" || order.CreatorPercent != 80 {
		t.Fatalf("unexpected order pricing: %+v", order)
	}
	if order.Status != constants.PaymentOrderStatusPending || order.ApproveURL == "" || order.ProviderOrderID == "" {
		t.Fatalf("unexpected order state: %+v", order)
	}
}

func TestPaymentServiceCreateOrderRejectsUnknownProviderAndOwnResource(t *testing.T) {
	f := setupCheckoutTest(t)

	_, err := f.paymentSvc.CreateOrder(context.Background(), CreateOrderInput{BuyerID: f.buyer.ID, ResourceID: f.resource.ID, Provider: "stripe"})
	if !errors.Is(err, ErrPaymentProviderNotSupported) {
		t.Fatalf("expected ErrPaymentProviderNotSupported, got: %v", err)
	}
	_, err = f.paymentSvc.CreateOrder(context.Background(), CreateOrderInput{BuyerID: f.resource.AuthorID, ResourceID: f.resource.ID, Provider: "paypal"})
	if !errors.Is(err, ErrResourceNotPurchasable) {
		t.Fatalf("expected ErrResourceNotPurchasable, got: %v", err)
	}
	_, err = f.paymentSvc.CreateOrder(context.Background(), CreateOrderInput{BuyerID: f.buyer.ID, ResourceID: 9999, Provider: "paypal"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestPaymentServiceCreateOrderMarksFailedOnGatewayError(t *testing.T) {
	f := setupCheckoutTest(t)
	f.paypal.createErr = ErrPaymentGatewayRequestFailed

	_, err := f.paymentSvc.CreateOrder(context.Background(), CreateOrderInput{BuyerID: f.buyer.ID, ResourceID: f.resource.ID, Provider: "paypal"})
	if !errors.Is(err, ErrPaymentGatewayRequestFailed) {
		t.Fatalf("expected gateway error, got: %v", err)
	}
	var failed int64
	f.db.Model(&models.PaymentOrder{}).Where("status = ?", constants.PaymentOrderStatusFailed).Count(&failed)
	if failed != 1 {
		t.Fatalf("expected one failed order, got %d", failed)
	}
}

func TestPaymentServiceCapturePaypalSettlesOnce(t *testing.T) {
	f := setupCheckoutTest(t)
	order, err := f.paymentSvc.CreateOrder(context.Background(), CreateOrderInput{BuyerID: f.buyer.ID, ResourceID: f.resource.ID, Provider: "paypal"})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	purchase, err := f.paymentSvc.CapturePaypal(context.Background(), f.buyer.ID, order.OrderNo)
	if err != nil {
		t.Fatalf("capture failed: %v", err)
	}
	if purchase.CreatorEarnings != 2000 || purchase.PlatformEarnings != 500 {
		t.Fatalf("unexpected split: %+v", purchase)
	}
	if purchase.PaymentRef == nil || *purchase.PaymentRef != "paypal:CAP-1" {
		t.Fatalf("unexpected payment ref: %v", purchase.PaymentRef)
	}
	if f.paypal.lastCapture.OrderID != order.ProviderOrderID {
		t.Fatalf("capture called with wrong order id: %+v", f.paypal.lastCapture)
	}

	again, err := f.paymentSvc.CapturePaypal(context.Background(), f.buyer.ID, order.OrderNo)
	if err != nil {
		t.Fatalf("second capture failed: %v", err)
	}
	if again.ID != purchase.ID || f.paypal.captures != 1 {
		t.Fatalf("expected idempotent capture, got purchase %d captures %d", again.ID, f.paypal.captures)
	}
	if got := reloadResource(t, f.db, f.resource.ID).SalesCount; got != 1 {
		t.Fatalf("expected sales count 1, got %d", got)
	}

	stored, err := f.paymentSvc.GetOrder(f.buyer.ID, order.OrderNo)
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if stored.Status != constants.PaymentOrderStatusCaptured || stored.PurchaseID == nil || *stored.PurchaseID != purchase.ID {
		t.Fatalf("unexpected stored order: %+v", stored)
	}
}

func TestPaymentServiceCaptureRejectsOtherBuyer(t *testing.T) {
	f := setupCheckoutTest(t)
	order, err := f.paymentSvc.CreateOrder(context.Background(), CreateOrderInput{BuyerID: f.buyer.ID, ResourceID: f.resource.ID, Provider: "paypal"})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	stranger := createSettlementTestUser(t, f.db, "stranger@example.com")

	if _, err := f.paymentSvc.CapturePaypal(context.Background(), stranger.ID, order.OrderNo); !errors.Is(err, ErrPaymentOrderNotFound) {
		t.Fatalf("expected ErrPaymentOrderNotFound, got: %v", err)
	}
	if f.paypal.captures != 0 {
		t.Fatalf("capture should not be attempted")
	}
}

func TestPaymentServiceCaptureNotCompleted(t *testing.T) {
	f := setupCheckoutTest(t)
	f.paypal.capture = &ProviderCapture{Success: false, CaptureID: "CAP-2", Amount: 2500, Currency: "USD"}
	order, err := f.paymentSvc.CreateOrder(context.Background(), CreateOrderInput{BuyerID: f.buyer.ID, ResourceID: f.resource.ID, Provider: "paypal"})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	if _, err := f.paymentSvc.CapturePaypal(context.Background(), f.buyer.ID, order.OrderNo); !errors.Is(err, ErrPaymentNotCaptured) {
		t.Fatalf("expected ErrPaymentNotCaptured, got: %v", err)
	}
	var purchases int64
	f.db.Model(&models.Purchase{}).Count(&purchases)
	if purchases != 0 {
		t.Fatalf("no purchase should be recorded, got %d", purchases)
	}
}

func TestPaymentServiceCaptureAmountMismatchFailsOrder(t *testing.T) {
	f := setupCheckoutTest(t)
	f.paypal.capture = &ProviderCapture{Success: true, CaptureID: "CAP-3", Amount: 100, Currency: "USD"}
	order, err := f.paymentSvc.CreateOrder(context.Background(), CreateOrderInput{BuyerID: f.buyer.ID, ResourceID: f.resource.ID, Provider: "paypal"})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	if _, err := f.paymentSvc.CapturePaypal(context.Background(), f.buyer.ID, order.OrderNo); !errors.Is(err, ErrPaymentAmountMismatch) {
		t.Fatalf("expected ErrPaymentAmountMismatch, got: %v", err)
	}
	stored, _ := f.paymentSvc.GetOrder(f.buyer.ID, order.OrderNo)
	if stored.Status != constants.PaymentOrderStatusFailed {
		t.Fatalf("expected failed order, got %s", stored.Status)
	}
	if _, err := f.paymentSvc.CapturePaypal(context.Background(), f.buyer.ID, order.OrderNo); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition on failed order, got: %v", err)
	}
}

func TestPaymentServiceConfirmRazorpay(t *testing.T) {
	f := setupCheckoutTest(t)
	order, err := f.paymentSvc.CreateOrder(context.Background(), CreateOrderInput{BuyerID: f.buyer.ID, ResourceID: f.resource.ID, Provider: "razorpay"})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	_, err = f.paymentSvc.ConfirmRazorpay(context.Background(), ConfirmRazorpayInput{
		BuyerID:         f.buyer.ID,
		OrderNo:         order.OrderNo,
		ProviderOrderID: order.ProviderOrderID,
		PaymentID:       "pay_1",
		Signature:       "forged",
	})
	if !errors.Is(err, ErrPaymentSignatureInvalid) {
		t.Fatalf("expected ErrPaymentSignatureInvalid, got: %v", err)
	}
	if f.razorpay.captures != 0 {
		t.Fatalf("capture should not run before signature check")
	}

	purchase, err := f.paymentSvc.ConfirmRazorpay(context.Background(), ConfirmRazorpayInput{
		BuyerID:         f.buyer.ID,
		OrderNo:         order.OrderNo,
		ProviderOrderID: order.ProviderOrderID,
		PaymentID:       "pay_1",
		Signature:       "good-signature",
	})
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if purchase.PaymentProvider != constants.PaymentProviderRazorpay || f.razorpay.lastCapture.PaymentID != "pay_1" {
		t.Fatalf("unexpected purchase: %+v", purchase)
	}

	// PayPal 捕获接口不能结算 Razorpay 支付单
	if _, err := f.paymentSvc.CapturePaypal(context.Background(), f.buyer.ID, order.OrderNo); !errors.Is(err, ErrPaymentProviderNotSupported) {
		t.Fatalf("expected ErrPaymentProviderNotSupported, got: %v", err)
	}
}
