package shared

import (
	"time"

	"github.com/toolshelf/internal/models"
)

// PurchaseView 成交记录响应结构
type PurchaseView struct {
	ID              uint               `json:"id"`
	ResourceID      uint               `json:"resource_id"`
	BuyerID         uint               `json:"buyer_id"`
	AmountTotal     models.MinorAmount `json:"amount_total"`
	CreatorPercent  int                `json:"creator_percent"`
	CreatorEarnings models.MinorAmount `json:"creator_earnings"`
	PaymentProvider string             `json:"payment_provider"`
	PaymentRef      *string            `json:"payment_ref"`
	Reversed        bool               `json:"reversed"`
	CreatedAt       string             `json:"created_at"`
}

// ToPurchaseView 成交记录转换为响应结构
func ToPurchaseView(purchase *models.Purchase) PurchaseView {
	return PurchaseView{
		ID:              purchase.ID,
		ResourceID:      purchase.ResourceID,
		BuyerID:         purchase.BuyerID,
		AmountTotal:     models.MinorAmount{Minor: purchase.AmountTotal, Currency: purchase.Currency},
		CreatorPercent:  purchase.CreatorPercent,
		CreatorEarnings: models.MinorAmount{Minor: purchase.CreatorEarnings, Currency: purchase.Currency},
		PaymentProvider: purchase.PaymentProvider,
		PaymentRef:      purchase.PaymentRef,
		Reversed:        purchase.Reversal != nil,
		CreatedAt:       purchase.CreatedAt.Format(time.RFC3339),
	}
}

// PayoutView 提现申请响应结构
type PayoutView struct {
	ID              uint               `json:"id"`
	CreatorID       uint               `json:"creator_id"`
	Amount          models.MinorAmount `json:"amount"`
	Status          string             `json:"status"`
	AdminID         *uint              `json:"admin_id,omitempty"`
	RejectionReason string             `json:"rejection_reason,omitempty"`
	ReviewedAt      *time.Time         `json:"reviewed_at,omitempty"`
	PaidAt          *time.Time         `json:"paid_at,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
}

// ToPayoutView 提现申请转换为响应结构
func ToPayoutView(req *models.PayoutRequest) PayoutView {
	return PayoutView{
		ID:              req.ID,
		CreatorID:       req.CreatorID,
		Amount:          models.MinorAmount{Minor: req.Amount, Currency: req.Currency},
		Status:          req.Status,
		AdminID:         req.AdminID,
		RejectionReason: req.RejectionReason,
		ReviewedAt:      req.ReviewedAt,
		PaidAt:          req.PaidAt,
		CreatedAt:       req.CreatedAt,
	}
}

// ToPayoutViews 批量转换提现申请
func ToPayoutViews(requests []models.PayoutRequest) []PayoutView {
	views := make([]PayoutView, 0, len(requests))
	for i := range requests {
		views = append(views, ToPayoutView(&requests[i]))
	}
	return views
}
