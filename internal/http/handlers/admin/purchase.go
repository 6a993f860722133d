package admin

import (
	"strings"

	"github.com/toolshelf/internal/constants"
	"github.com/toolshelf/internal/http/handlers/shared"
	"github.com/toolshelf/internal/http/response"
	"github.com/toolshelf/internal/service"

	"github.com/gin-gonic/gin"
)

// ReversePurchaseRequest 冲正请求
type ReversePurchaseRequest struct {
	Reason string `json:"reason"`
}

// ManualPurchaseRequest 手工结算请求（线下收款补录）
type ManualPurchaseRequest struct {
	ResourceID     uint   `json:"resource_id" binding:"required"`
	BuyerID        uint   `json:"buyer_id" binding:"required"`
	AmountTotal    int64  `json:"amount_total"`
	Currency       string `json:"currency" binding:"required,currency"`
	CreatorPercent *int   `json:"creator_percent"`
	PaymentRef     string `json:"payment_ref" binding:"required"`
}

// ReversePurchase 冲正成交
func (h *Handler) ReversePurchase(c *gin.Context) {
	actor, ok := h.resolveActor(c)
	if !ok {
		return
	}
	id, ok := shared.ParseUintParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "invalid purchase id", nil)
		return
	}
	var req ReversePurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	purchase, err := h.PurchaseService.ReversePurchase(actor, id, req.Reason)
	if err != nil {
		respondServiceError(c, err, "purchase reverse failed")
		return
	}
	response.Success(c, shared.ToPurchaseView(purchase))
}

// CreateManualPurchase 手工补录成交，payment_ref 相同的重复提交返回原成交
func (h *Handler) CreateManualPurchase(c *gin.Context) {
	actor, ok := h.resolveActor(c)
	if !ok {
		return
	}
	if !actor.Admin {
		respondServiceError(c, service.ErrAuthorization, "manual purchase failed")
		return
	}
	var req ManualPurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	purchase, err := h.PurchaseService.RecordPurchase(service.RecordPurchaseInput{
		ResourceID:      req.ResourceID,
		BuyerID:         req.BuyerID,
		AmountTotal:     req.AmountTotal,
		Currency:        req.Currency,
		CreatorPercent:  req.CreatorPercent,
		PaymentProvider: constants.PaymentProviderManual,
		PaymentRef:      constants.PaymentProviderManual + ":" + strings.TrimSpace(req.PaymentRef),
	})
	if err != nil {
		respondServiceError(c, err, "manual purchase failed")
		return
	}
	shared.RequestLog(c).Infow("admin_manual_purchase_recorded",
		"admin_id", actor.UserID,
		"purchase_id", purchase.ID,
	)
	response.Success(c, shared.ToPurchaseView(purchase))
}
