package admin

import (
	"strconv"
	"strings"

	"github.com/toolshelf/internal/http/handlers/shared"
	"github.com/toolshelf/internal/http/response"
	"github.com/toolshelf/internal/repository"
	"github.com/toolshelf/internal/service"

	"github.com/gin-gonic/gin"
)

// ReviewPayoutRequest 提现审核请求
type ReviewPayoutRequest struct {
	Decision string `json:"decision" binding:"required"`
	Reason   string `json:"reason"`
}

// GetPayouts 提现申请列表，可按状态、创作者、币种过滤
func (h *Handler) GetPayouts(c *gin.Context) {
	actor, ok := h.resolveActor(c)
	if !ok {
		return
	}
	page, pageSize := shared.ParsePagination(c)

	filter := repository.PayoutListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   strings.TrimSpace(c.Query("status")),
		Currency: strings.TrimSpace(c.Query("currency")),
	}
	if raw := strings.TrimSpace(c.Query("creator_id")); raw != "" {
		creatorID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondError(c, response.CodeBadRequest, "invalid creator_id", nil)
			return
		}
		filter.CreatorID = uint(creatorID)
	}

	requests, total, err := h.PayoutService.ListPayouts(actor, filter)
	if err != nil {
		respondServiceError(c, err, "payout fetch failed")
		return
	}
	response.SuccessWithPage(c, shared.ToPayoutViews(requests), response.BuildPagination(page, pageSize, total))
}

// ReviewPayout 审核提现申请（APPROVE / REJECT）
func (h *Handler) ReviewPayout(c *gin.Context) {
	actor, ok := h.resolveActor(c)
	if !ok {
		return
	}
	id, ok := shared.ParseUintParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "invalid payout id", nil)
		return
	}
	var req ReviewPayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	payout, err := h.PayoutService.ReviewPayoutRequest(actor, id, service.ReviewPayoutInput{
		Decision: req.Decision,
		Reason:   req.Reason,
	})
	if err != nil {
		respondServiceError(c, err, "payout review failed")
		return
	}
	response.Success(c, shared.ToPayoutView(payout))
}

// MarkPayoutPaid 标记已批准的提现为已打款
func (h *Handler) MarkPayoutPaid(c *gin.Context) {
	actor, ok := h.resolveActor(c)
	if !ok {
		return
	}
	id, ok := shared.ParseUintParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "invalid payout id", nil)
		return
	}

	payout, err := h.PayoutService.MarkPaid(actor, id)
	if err != nil {
		respondServiceError(c, err, "payout mark paid failed")
		return
	}
	response.Success(c, shared.ToPayoutView(payout))
}
