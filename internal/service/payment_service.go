package service

import (
	"context"
	"strings"
	"time"

	"github.com/toolshelf/internal/constants"
	"github.com/toolshelf/internal/logger"
	"github.com/toolshelf/internal/models"
	"github.com/toolshelf/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PaymentService 结账服务：创建支付单，捕获成功后交由 PurchaseService 结算
type PaymentService struct {
	orderRepo    repository.PaymentOrderRepository
	resourceRepo repository.ResourceRepository
	purchaseSvc  *PurchaseService
	providers    map[string]PaymentProvider
}

// NewPaymentService 创建结账服务，未传入的渠道视为未启用
func NewPaymentService(
	orderRepo repository.PaymentOrderRepository,
	resourceRepo repository.ResourceRepository,
	purchaseSvc *PurchaseService,
	providers ...PaymentProvider,
) *PaymentService {
	registry := make(map[string]PaymentProvider, len(providers))
	for _, provider := range providers {
		if provider == nil {
			continue
		}
		registry[provider.Name()] = provider
	}
	return &PaymentService{
		orderRepo:    orderRepo,
		resourceRepo: resourceRepo,
		purchaseSvc:  purchaseSvc,
		providers:    registry,
	}
}

// CreateOrderInput 下单输入
type CreateOrderInput struct {
	BuyerID    uint
	ResourceID uint
	Provider   string
}

// ConfirmRazorpayInput Razorpay checkout 回传参数
type ConfirmRazorpayInput struct {
	BuyerID         uint
	OrderNo         string
	ProviderOrderID string
	PaymentID       string
	Signature       string
}

func paymentLogger(kv ...interface{}) *zap.SugaredLogger {
	if len(kv) == 0 {
		return logger.S()
	}
	return logger.SW(kv...)
}

// CreateOrder 按资源定价创建支付单，分成比例取资源配置
func (s *PaymentService) CreateOrder(ctx context.Context, input CreateOrderInput) (*models.PaymentOrder, error) {
	providerName := strings.ToLower(strings.TrimSpace(input.Provider))
	provider, ok := s.providers[providerName]
	if !ok {
		return nil, ErrPaymentProviderNotSupported
	}
	resource, err := s.resourceRepo.GetByID(input.ResourceID)
	if err != nil {
		return nil, wrapPersistence(err)
	}
	if resource == nil {
		return nil, ErrResourceNotFound
	}
	if resource.Status != constants.ResourceStatusPublished || resource.Price <= 0 || resource.AuthorID == input.BuyerID {
		return nil, ErrResourceNotPurchasable
	}

	order := &models.PaymentOrder{
		OrderNo:        generateOrderNo(),
		BuyerID:        input.BuyerID,
		ResourceID:     resource.ID,
		Provider:       providerName,
		Amount:         resource.Price,
		Currency:       models.NormalizeCurrency(resource.Currency),
		CreatorPercent: resource.CommissionPercent,
		Status:         constants.PaymentOrderStatusPending,
	}
	if err := s.orderRepo.Create(order); err != nil {
		return nil, wrapPersistence(err)
	}

	log := paymentLogger("order_no", order.OrderNo, "provider", providerName, "resource_id", resource.ID)
	providerOrder, err := provider.CreateOrder(ctx, ProviderOrderInput{
		Reference:   order.OrderNo,
		Amount:      order.Amount,
		Currency:    order.Currency,
		Description: resource.Title,
	})
	if err != nil {
		log.Warnw("payment_provider_create_failed", "error", err)
		order.Status = constants.PaymentOrderStatusFailed
		if updateErr := s.orderRepo.Update(order); updateErr != nil {
			log.Errorw("payment_order_mark_failed_error", "error", updateErr)
		}
		return nil, err
	}

	order.ProviderOrderID = providerOrder.ID
	order.ApproveURL = providerOrder.ApproveURL
	order.ProviderPayload = models.JSON(providerOrder.Raw)
	if err := s.orderRepo.Update(order); err != nil {
		return nil, wrapPersistence(err)
	}
	log.Infow("payment_order_created", "provider_order_id", providerOrder.ID, "amount", order.Amount, "currency", order.Currency)
	return order, nil
}

// GetOrder 买家查询自己的支付单
func (s *PaymentService) GetOrder(buyerID uint, orderNo string) (*models.PaymentOrder, error) {
	order, err := s.orderRepo.GetByOrderNo(orderNo)
	if err != nil {
		return nil, wrapPersistence(err)
	}
	if order == nil || order.BuyerID != buyerID {
		return nil, ErrPaymentOrderNotFound
	}
	return order, nil
}

// CapturePaypal 买家授权后由服务端捕获 PayPal 订单并结算
func (s *PaymentService) CapturePaypal(ctx context.Context, buyerID uint, orderNo string) (*models.Purchase, error) {
	return s.settle(buyerID, orderNo, constants.PaymentProviderPaypal, func(provider PaymentProvider, order *models.PaymentOrder) (*ProviderCapture, error) {
		return provider.CapturePayment(ctx, ProviderCaptureInput{
			OrderID:  order.ProviderOrderID,
			Amount:   order.Amount,
			Currency: order.Currency,
		})
	})
}

// ConfirmRazorpay 校验 checkout 签名后确认支付并结算
func (s *PaymentService) ConfirmRazorpay(ctx context.Context, input ConfirmRazorpayInput) (*models.Purchase, error) {
	return s.settle(input.BuyerID, input.OrderNo, constants.PaymentProviderRazorpay, func(provider PaymentProvider, order *models.PaymentOrder) (*ProviderCapture, error) {
		if strings.TrimSpace(input.ProviderOrderID) != order.ProviderOrderID {
			return nil, ErrPaymentSignatureInvalid
		}
		if !provider.VerifySignature(order.ProviderOrderID, input.PaymentID, input.Signature) {
			return nil, ErrPaymentSignatureInvalid
		}
		return provider.CapturePayment(ctx, ProviderCaptureInput{
			OrderID:   order.ProviderOrderID,
			PaymentID: strings.TrimSpace(input.PaymentID),
			Amount:    order.Amount,
			Currency:  order.Currency,
		})
	})
}

type captureFunc func(provider PaymentProvider, order *models.PaymentOrder) (*ProviderCapture, error)

// settle 捕获成功且金额币种一致后写入成交记录，已结算的支付单直接返回原成交
func (s *PaymentService) settle(buyerID uint, orderNo, providerName string, capture captureFunc) (*models.Purchase, error) {
	order, err := s.GetOrder(buyerID, strings.TrimSpace(orderNo))
	if err != nil {
		return nil, err
	}
	if order.Provider != providerName {
		return nil, ErrPaymentProviderNotSupported
	}
	provider, ok := s.providers[providerName]
	if !ok {
		return nil, ErrPaymentProviderNotSupported
	}
	switch order.Status {
	case constants.PaymentOrderStatusCaptured:
		if order.PurchaseID != nil {
			return s.purchaseSvc.GetPurchase(*order.PurchaseID)
		}
	case constants.PaymentOrderStatusFailed:
		return nil, ErrInvalidStateTransition
	}

	log := paymentLogger("order_no", order.OrderNo, "provider", providerName)
	result, err := capture(provider, order)
	if err != nil {
		log.Warnw("payment_capture_failed", "error", err)
		return nil, err
	}
	if !result.Success {
		log.Warnw("payment_not_captured", "capture_id", result.CaptureID)
		return nil, ErrPaymentNotCaptured
	}
	if result.Amount != order.Amount || !strings.EqualFold(result.Currency, order.Currency) {
		log.Errorw("payment_amount_mismatch",
			"expected_amount", order.Amount,
			"expected_currency", order.Currency,
			"captured_amount", result.Amount,
			"captured_currency", result.Currency,
		)
		if err := s.markFailed(order.OrderNo); err != nil {
			log.Errorw("payment_order_mark_failed_error", "error", err)
		}
		return nil, ErrPaymentAmountMismatch
	}

	// 分成比例由 RecordPurchase 读取资源当前配置，支付单上的比例仅供展示
	purchase, err := s.purchaseSvc.RecordPurchase(RecordPurchaseInput{
		ResourceID:      order.ResourceID,
		BuyerID:         order.BuyerID,
		AmountTotal:     order.Amount,
		Currency:        order.Currency,
		PaymentProvider: providerName,
		PaymentRef:      providerName + ":" + result.CaptureID,
	})
	if err != nil {
		log.Errorw("payment_settlement_failed", "capture_id", result.CaptureID, "error", err)
		return nil, err
	}

	err = s.orderRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.orderRepo.WithTx(tx)
		locked, err := repo.GetByOrderNoForUpdate(order.OrderNo)
		if err != nil {
			return err
		}
		if locked == nil {
			return ErrPaymentOrderNotFound
		}
		if locked.Status == constants.PaymentOrderStatusCaptured {
			return nil
		}
		now := time.Now()
		locked.Status = constants.PaymentOrderStatusCaptured
		locked.PurchaseID = &purchase.ID
		locked.CapturedAt = &now
		if result.Raw != nil {
			locked.ProviderPayload = models.JSON(result.Raw)
		}
		return repo.Update(locked)
	})
	if err != nil {
		// 成交已写入，支付单状态滞后不影响结算结果
		log.Errorw("payment_order_mark_captured_failed", "purchase_id", purchase.ID, "error", err)
		return purchase, nil
	}
	log.Infow("payment_order_captured", "purchase_id", purchase.ID, "capture_id", result.CaptureID)
	return purchase, nil
}

func (s *PaymentService) markFailed(orderNo string) error {
	return s.orderRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.orderRepo.WithTx(tx)
		order, err := repo.GetByOrderNoForUpdate(orderNo)
		if err != nil || order == nil {
			return err
		}
		if order.Status != constants.PaymentOrderStatusPending {
			return nil
		}
		order.Status = constants.PaymentOrderStatusFailed
		return repo.Update(order)
	})
}

func generateOrderNo() string {
	return "TS" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}
