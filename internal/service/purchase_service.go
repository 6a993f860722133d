package service

import (
	"strings"
	"time"

	"github.com/toolshelf/internal/constants"
	"github.com/toolshelf/internal/logger"
	"github.com/toolshelf/internal/models"
	"github.com/toolshelf/internal/repository"

	"gorm.io/gorm"
)

// PurchaseService 成交结算服务
type PurchaseService struct {
	purchaseRepo repository.PurchaseRepository
	resourceRepo repository.ResourceRepository
	userRepo     repository.UserRepository
	notifier     Notifier
}

// NewPurchaseService 创建成交结算服务
func NewPurchaseService(
	purchaseRepo repository.PurchaseRepository,
	resourceRepo repository.ResourceRepository,
	userRepo repository.UserRepository,
	notifier Notifier,
) *PurchaseService {
	return &PurchaseService{
		purchaseRepo: purchaseRepo,
		resourceRepo: resourceRepo,
		userRepo:     userRepo,
		notifier:     notifier,
	}
}

// RecordPurchaseInput 成交结算输入
type RecordPurchaseInput struct {
	ResourceID  uint
	BuyerID     uint
	AmountTotal int64
	Currency    string
	// CreatorPercent 为空时使用资源配置的分成比例；非空时必须与资源配置一致
	CreatorPercent  *int
	PaymentProvider string
	PaymentRef      string
}

// RecordPurchase 支付捕获成功后写入成交记录，并在同一事务内累加资源销量
func (s *PurchaseService) RecordPurchase(input RecordPurchaseInput) (*models.Purchase, error) {
	if input.AmountTotal <= 0 {
		return nil, ErrInvalidAmount
	}
	if input.CreatorPercent != nil && (*input.CreatorPercent < 0 || *input.CreatorPercent > 100) {
		return nil, ErrInvalidCommission
	}
	paymentRef := strings.TrimSpace(input.PaymentRef)
	if paymentRef != "" {
		existing, err := s.purchaseRepo.GetByPaymentRef(paymentRef)
		if err != nil {
			return nil, wrapPersistence(err)
		}
		if existing != nil {
			return existing, nil
		}
	}

	var created models.Purchase
	var authorID uint
	err := s.purchaseRepo.Transaction(func(tx *gorm.DB) error {
		resource, err := s.resourceRepo.WithTx(tx).GetByID(input.ResourceID)
		if err != nil {
			return err
		}
		if resource == nil {
			return ErrResourceNotFound
		}
		buyer, err := s.userRepo.WithTx(tx).GetByID(input.BuyerID)
		if err != nil {
			return err
		}
		if buyer == nil {
			return ErrBuyerNotFound
		}

		percent := resource.CommissionPercent
		if input.CreatorPercent != nil && *input.CreatorPercent != percent {
			return ErrInvalidCommission
		}
		creatorEarnings, platformEarnings, err := SplitCommission(input.AmountTotal, percent)
		if err != nil {
			return err
		}
		currency := models.NormalizeCurrency(input.Currency)
		if currency == "" {
			currency = models.NormalizeCurrency(resource.Currency)
		}

		created = models.Purchase{
			ResourceID:       resource.ID,
			BuyerID:          buyer.ID,
			AmountTotal:      input.AmountTotal,
			Currency:         currency,
			CreatorPercent:   percent,
			PlatformPercent:  100 - percent,
			CreatorEarnings:  creatorEarnings,
			PlatformEarnings: platformEarnings,
			PaymentProvider:  strings.TrimSpace(input.PaymentProvider),
			CreatedAt:        time.Now(),
		}
		if paymentRef != "" {
			created.PaymentRef = &paymentRef
		}
		if err := s.purchaseRepo.WithTx(tx).Create(&created); err != nil {
			return err
		}
		authorID = resource.AuthorID
		return s.resourceRepo.WithTx(tx).AdjustSalesCount(resource.ID, 1)
	})
	if err != nil {
		// 并发重复结算同一支付流水时，唯一索引拒绝第二次写入，返回已存在的记录
		if paymentRef != "" {
			if existing, lookupErr := s.purchaseRepo.GetByPaymentRef(paymentRef); lookupErr == nil && existing != nil {
				return existing, nil
			}
		}
		return nil, wrapPersistence(err)
	}

	logger.Infow("purchase_recorded",
		"purchase_id", created.ID,
		"resource_id", created.ResourceID,
		"buyer_id", created.BuyerID,
		"amount_total", created.AmountTotal,
		"currency", created.Currency,
		"creator_earnings", created.CreatorEarnings,
	)
	invalidateCreatorEarnings(authorID)
	dispatchNotify(s.notifier, constants.NotifyEventPurchaseRecorded, map[string]interface{}{
		"purchase_id":      created.ID,
		"resource_id":      created.ResourceID,
		"buyer_id":         created.BuyerID,
		"creator_id":       authorID,
		"amount_total":     created.AmountTotal,
		"currency":         created.Currency,
		"creator_earnings": created.CreatorEarnings,
	})
	return &created, nil
}

// GetPurchase 获取成交记录
func (s *PurchaseService) GetPurchase(id uint) (*models.Purchase, error) {
	purchase, err := s.purchaseRepo.GetByID(id)
	if err != nil {
		return nil, wrapPersistence(err)
	}
	if purchase == nil {
		return nil, ErrPurchaseNotFound
	}
	return purchase, nil
}

// ReversePurchase 管理员冲正成交：写入冲正记录并扣减资源销量，原成交记录保持不变
func (s *PurchaseService) ReversePurchase(actor Actor, purchaseID uint, reason string) (*models.Purchase, error) {
	if err := actor.requireAdmin(); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}

	var authorID uint
	var reversal models.PurchaseReversal
	err := s.purchaseRepo.Transaction(func(tx *gorm.DB) error {
		purchaseRepo := s.purchaseRepo.WithTx(tx)
		purchase, err := purchaseRepo.GetByIDForUpdate(purchaseID)
		if err != nil {
			return err
		}
		if purchase == nil {
			return ErrPurchaseNotFound
		}
		resource, err := s.resourceRepo.WithTx(tx).GetByID(purchase.ResourceID)
		if err != nil {
			return err
		}
		if resource == nil {
			return ErrResourceNotFound
		}
		// 与提现审批共用创作者行锁，保证余额校验看到冲正结果
		if _, err := s.userRepo.WithTx(tx).GetByIDForUpdate(resource.AuthorID); err != nil {
			return err
		}
		existing, err := purchaseRepo.GetReversalByPurchaseID(purchase.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrInvalidStateTransition
		}

		reversal = models.PurchaseReversal{
			PurchaseID: purchase.ID,
			AdminID:    actor.UserID,
			Reason:     reason,
			CreatedAt:  time.Now(),
		}
		if err := purchaseRepo.CreateReversal(&reversal); err != nil {
			return err
		}
		authorID = resource.AuthorID
		return s.resourceRepo.WithTx(tx).AdjustSalesCount(resource.ID, -1)
	})
	if err != nil {
		return nil, wrapPersistence(err)
	}

	logger.Infow("purchase_reversed", "purchase_id", purchaseID, "admin_id", actor.UserID)
	invalidateCreatorEarnings(authorID)
	dispatchNotify(s.notifier, constants.NotifyEventPurchaseReversed, map[string]interface{}{
		"purchase_id": purchaseID,
		"creator_id":  authorID,
		"admin_id":    actor.UserID,
		"reason":      reason,
	})
	return s.GetPurchase(purchaseID)
}
