package public

import (
	"strings"

	"github.com/toolshelf/internal/http/handlers/shared"
	"github.com/toolshelf/internal/http/response"
	"github.com/toolshelf/internal/models"
	"github.com/toolshelf/internal/repository"
	"github.com/toolshelf/internal/service"

	"github.com/gin-gonic/gin"
)

// SubmitPayoutRequest 提现申请请求，金额为最小货币单位
type SubmitPayoutRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency" binding:"omitempty,currency"`
}

// CreatorSaleView 销售记录响应结构
type CreatorSaleView struct {
	repository.CreatorSaleRow
	AmountDisplay   string `json:"amount_display"`
	EarningsDisplay string `json:"earnings_display"`
}

// GetCreatorSales 创作者销售记录，按成交时间倒序
func (h *Handler) GetCreatorSales(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	page, pageSize := shared.ParsePagination(c)

	rows, total, err := h.SalesService.ListCreatorSales(userID, page, pageSize)
	if err != nil {
		respondServiceError(c, err, "sales fetch failed")
		return
	}
	items := make([]CreatorSaleView, 0, len(rows))
	for _, row := range rows {
		items = append(items, CreatorSaleView{
			CreatorSaleRow:  row,
			AmountDisplay:   models.FormatMinor(row.AmountTotal, row.Currency),
			EarningsDisplay: models.FormatMinor(row.CreatorEarnings, row.Currency),
		})
	}
	response.SuccessWithPage(c, items, response.BuildPagination(page, pageSize, total))
}

// GetCreatorEarnings 创作者收益与可提现余额汇总
func (h *Handler) GetCreatorEarnings(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	earnings, err := h.SalesService.GetCreatorEarnings(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err, "earnings fetch failed")
		return
	}
	response.Success(c, earnings)
}

// SubmitPayout 提交提现申请
func (h *Handler) SubmitPayout(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var req SubmitPayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	payout, err := h.PayoutService.SubmitPayoutRequest(userID, service.SubmitPayoutInput{
		Amount:   req.Amount,
		Currency: req.Currency,
	})
	if err != nil {
		respondServiceError(c, err, "payout submit failed")
		return
	}
	response.Success(c, shared.ToPayoutView(payout))
}

// GetCreatorPayouts 创作者查看自己的提现申请
func (h *Handler) GetCreatorPayouts(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	page, pageSize := shared.ParsePagination(c)

	requests, total, err := h.PayoutService.ListCreatorPayouts(userID, repository.PayoutListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   strings.ToUpper(strings.TrimSpace(c.Query("status"))),
		Currency: c.Query("currency"),
	})
	if err != nil {
		respondServiceError(c, err, "payout fetch failed")
		return
	}
	response.SuccessWithPage(c, shared.ToPayoutViews(requests), response.BuildPagination(page, pageSize, total))
}
