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

// reservedPayoutStatuses 已占用余额的提现状态
var reservedPayoutStatuses = []string{constants.PayoutStatusApproved, constants.PayoutStatusPaid}

// PayoutService 创作者提现服务
type PayoutService struct {
	payoutRepo      repository.PayoutRepository
	purchaseRepo    repository.PurchaseRepository
	userRepo        repository.UserRepository
	notifier        Notifier
	defaultCurrency string
}

// NewPayoutService 创建提现服务
func NewPayoutService(
	payoutRepo repository.PayoutRepository,
	purchaseRepo repository.PurchaseRepository,
	userRepo repository.UserRepository,
	notifier Notifier,
	defaultCurrency string,
) *PayoutService {
	currency := models.NormalizeCurrency(defaultCurrency)
	if currency == "" {
		currency = "USD"
	}
	return &PayoutService{
		payoutRepo:      payoutRepo,
		purchaseRepo:    purchaseRepo,
		userRepo:        userRepo,
		notifier:        notifier,
		defaultCurrency: currency,
	}
}

// SubmitPayoutInput 提现申请输入
type SubmitPayoutInput struct {
	Amount   int64
	Currency string
}

// ReviewPayoutInput 提现审核输入
type ReviewPayoutInput struct {
	Decision string
	Reason   string
}

// AvailableBalance 可提现余额 = 未冲正成交的创作者收益 - 已批准/已打款的提现
func (s *PayoutService) AvailableBalance(creatorID uint, currency string) (int64, error) {
	balance, err := availableBalance(s.purchaseRepo, s.payoutRepo, creatorID, s.resolveCurrency(currency))
	if err != nil {
		return 0, wrapPersistence(err)
	}
	return balance, nil
}

func availableBalance(purchaseRepo repository.PurchaseRepository, payoutRepo repository.PayoutRepository, creatorID uint, currency string) (int64, error) {
	earnings, err := purchaseRepo.SumCreatorEarnings(creatorID, currency)
	if err != nil {
		return 0, err
	}
	reserved, err := payoutRepo.SumAmountByStatuses(creatorID, currency, reservedPayoutStatuses)
	if err != nil {
		return 0, err
	}
	return earnings - reserved, nil
}

// SubmitPayoutRequest 创作者提交提现申请
func (s *PayoutService) SubmitPayoutRequest(creatorID uint, input SubmitPayoutInput) (*models.PayoutRequest, error) {
	if input.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	currency := s.resolveCurrency(input.Currency)

	var created models.PayoutRequest
	err := s.payoutRepo.Transaction(func(tx *gorm.DB) error {
		creator, err := s.userRepo.WithTx(tx).GetByIDForUpdate(creatorID)
		if err != nil {
			return err
		}
		if creator == nil {
			return ErrCreatorNotFound
		}
		balance, err := availableBalance(s.purchaseRepo.WithTx(tx), s.payoutRepo.WithTx(tx), creator.ID, currency)
		if err != nil {
			return err
		}
		if input.Amount > balance {
			return ErrInsufficientBalance
		}
		now := time.Now()
		created = models.PayoutRequest{
			CreatorID: creator.ID,
			Amount:    input.Amount,
			Currency:  currency,
			Status:    constants.PayoutStatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return s.payoutRepo.WithTx(tx).Create(&created)
	})
	if err != nil {
		return nil, wrapPersistence(err)
	}

	logger.Infow("payout_submitted", "payout_id", created.ID, "creator_id", creatorID, "amount", created.Amount, "currency", currency)
	s.afterTransition(constants.NotifyEventPayoutSubmitted, &created)
	return &created, nil
}

// ReviewPayoutRequest 管理员审核提现申请（仅 PENDING 可审核），批准时重新校验余额
func (s *PayoutService) ReviewPayoutRequest(actor Actor, requestID uint, input ReviewPayoutInput) (*models.PayoutRequest, error) {
	if err := actor.requireAdmin(); err != nil {
		return nil, err
	}
	decision := strings.ToUpper(strings.TrimSpace(input.Decision))
	if decision != constants.PayoutDecisionApprove && decision != constants.PayoutDecisionReject {
		return nil, ErrInvalidDecision
	}
	reason := strings.TrimSpace(input.Reason)
	if decision == constants.PayoutDecisionReject && reason == "" {
		return nil, ErrReasonRequired
	}

	var reviewed *models.PayoutRequest
	err := s.payoutRepo.Transaction(func(tx *gorm.DB) error {
		payoutRepo := s.payoutRepo.WithTx(tx)
		req, err := payoutRepo.GetByIDForUpdate(requestID)
		if err != nil {
			return err
		}
		if req == nil {
			return ErrPayoutNotFound
		}
		if req.Status != constants.PayoutStatusPending {
			return ErrInvalidStateTransition
		}

		now := time.Now()
		if decision == constants.PayoutDecisionApprove {
			// 同一创作者的批准操作在创作者行锁上串行，余额以此刻为准
			if _, err := s.userRepo.WithTx(tx).GetByIDForUpdate(req.CreatorID); err != nil {
				return err
			}
			balance, err := availableBalance(s.purchaseRepo.WithTx(tx), payoutRepo, req.CreatorID, req.Currency)
			if err != nil {
				return err
			}
			if req.Amount > balance {
				return ErrInsufficientBalance
			}
			req.Status = constants.PayoutStatusApproved
			req.RejectionReason = ""
		} else {
			req.Status = constants.PayoutStatusRejected
			req.RejectionReason = reason
		}
		adminID := actor.UserID
		req.AdminID = &adminID
		req.ReviewedAt = &now
		req.UpdatedAt = now
		reviewed = req
		return payoutRepo.Update(req)
	})
	if err != nil {
		return nil, wrapPersistence(err)
	}

	event := constants.NotifyEventPayoutApproved
	if reviewed.Status == constants.PayoutStatusRejected {
		event = constants.NotifyEventPayoutRejected
	}
	logger.Infow("payout_reviewed", "payout_id", requestID, "admin_id", actor.UserID, "status", reviewed.Status)
	s.afterTransition(event, reviewed)
	return s.GetPayoutRequest(requestID)
}

// MarkPaid 记录已线下打款（仅 APPROVED 可标记），打款本身由外部完成
func (s *PayoutService) MarkPaid(actor Actor, requestID uint) (*models.PayoutRequest, error) {
	if err := actor.requireAdmin(); err != nil {
		return nil, err
	}

	var paid *models.PayoutRequest
	err := s.payoutRepo.Transaction(func(tx *gorm.DB) error {
		payoutRepo := s.payoutRepo.WithTx(tx)
		req, err := payoutRepo.GetByIDForUpdate(requestID)
		if err != nil {
			return err
		}
		if req == nil {
			return ErrPayoutNotFound
		}
		if req.Status != constants.PayoutStatusApproved {
			return ErrInvalidStateTransition
		}
		now := time.Now()
		req.Status = constants.PayoutStatusPaid
		req.PaidAt = &now
		req.UpdatedAt = now
		paid = req
		return payoutRepo.Update(req)
	})
	if err != nil {
		return nil, wrapPersistence(err)
	}

	logger.Infow("payout_paid", "payout_id", requestID, "admin_id", actor.UserID)
	s.afterTransition(constants.NotifyEventPayoutPaid, paid)
	return s.GetPayoutRequest(requestID)
}

// GetPayoutRequest 获取提现申请
func (s *PayoutService) GetPayoutRequest(id uint) (*models.PayoutRequest, error) {
	req, err := s.payoutRepo.GetByID(id)
	if err != nil {
		return nil, wrapPersistence(err)
	}
	if req == nil {
		return nil, ErrPayoutNotFound
	}
	return req, nil
}

// ListCreatorPayouts 创作者查询自己的提现申请
func (s *PayoutService) ListCreatorPayouts(creatorID uint, filter repository.PayoutListFilter) ([]models.PayoutRequest, int64, error) {
	if creatorID == 0 {
		return []models.PayoutRequest{}, 0, nil
	}
	filter.CreatorID = creatorID
	rows, total, err := s.payoutRepo.List(filter)
	if err != nil {
		return nil, 0, wrapPersistence(err)
	}
	return rows, total, nil
}

// ListPayouts 管理员查询提现申请
func (s *PayoutService) ListPayouts(actor Actor, filter repository.PayoutListFilter) ([]models.PayoutRequest, int64, error) {
	if err := actor.requireAdmin(); err != nil {
		return nil, 0, err
	}
	rows, total, err := s.payoutRepo.List(filter)
	if err != nil {
		return nil, 0, wrapPersistence(err)
	}
	return rows, total, nil
}

func (s *PayoutService) resolveCurrency(currency string) string {
	normalized := models.NormalizeCurrency(currency)
	if normalized == "" {
		return s.defaultCurrency
	}
	return normalized
}

func (s *PayoutService) afterTransition(event string, req *models.PayoutRequest) {
	if req == nil {
		return
	}
	invalidateCreatorEarnings(req.CreatorID)
	payload := map[string]interface{}{
		"payout_id":  req.ID,
		"creator_id": req.CreatorID,
		"amount":     req.Amount,
		"currency":   req.Currency,
		"status":     req.Status,
	}
	if req.AdminID != nil {
		payload["admin_id"] = *req.AdminID
	}
	if req.RejectionReason != "" {
		payload["reason"] = req.RejectionReason
	}
	dispatchNotify(s.notifier, event, payload)
}
