package public

import (
	"github.com/toolshelf/internal/http/handlers/shared"
	"github.com/toolshelf/internal/http/response"
	"github.com/toolshelf/internal/models"
	"github.com/toolshelf/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateCheckoutOrderRequest 下单请求
type CreateCheckoutOrderRequest struct {
	ResourceID uint   `json:"resource_id" binding:"required"`
	Provider   string `json:"provider" binding:"required"`
}

// ConfirmRazorpayRequest Razorpay checkout 成功回调参数
type ConfirmRazorpayRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id" binding:"required"`
	RazorpayPaymentID string `json:"razorpay_payment_id" binding:"required"`
	RazorpaySignature string `json:"razorpay_signature" binding:"required"`
}

// CheckoutOrderView 支付单响应结构
type CheckoutOrderView struct {
	OrderNo         string             `json:"order_no"`
	ResourceID      uint               `json:"resource_id"`
	Provider        string             `json:"provider"`
	ProviderOrderID string             `json:"provider_order_id"`
	Amount          models.MinorAmount `json:"amount"`
	Status          string             `json:"status"`
	ApproveURL      string             `json:"approve_url,omitempty"`
	PurchaseID      *uint              `json:"purchase_id,omitempty"`
}

func toCheckoutOrderView(order *models.PaymentOrder) CheckoutOrderView {
	return CheckoutOrderView{
		OrderNo:         order.OrderNo,
		ResourceID:      order.ResourceID,
		Provider:        order.Provider,
		ProviderOrderID: order.ProviderOrderID,
		Amount:          models.MinorAmount{Minor: order.Amount, Currency: order.Currency},
		Status:          order.Status,
		ApproveURL:      order.ApproveURL,
		PurchaseID:      order.PurchaseID,
	}
}

// CreateCheckoutOrder 创建支付单并返回第三方支付信息
func (h *Handler) CreateCheckoutOrder(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var req CreateCheckoutOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	order, err := h.PaymentService.CreateOrder(c.Request.Context(), service.CreateOrderInput{
		BuyerID:    userID,
		ResourceID: req.ResourceID,
		Provider:   req.Provider,
	})
	if err != nil {
		respondServiceError(c, err, "checkout order create failed")
		return
	}
	response.Success(c, toCheckoutOrderView(order))
}

// GetCheckoutOrder 查询自己的支付单
func (h *Handler) GetCheckoutOrder(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	order, err := h.PaymentService.GetOrder(userID, c.Param("order_no"))
	if err != nil {
		respondServiceError(c, err, "checkout order fetch failed")
		return
	}
	response.Success(c, toCheckoutOrderView(order))
}

// CapturePaypalOrder 买家在 PayPal 授权后捕获支付并结算
func (h *Handler) CapturePaypalOrder(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	purchase, err := h.PaymentService.CapturePaypal(c.Request.Context(), userID, c.Param("order_no"))
	if err != nil {
		respondServiceError(c, err, "payment capture failed")
		return
	}
	response.Success(c, shared.ToPurchaseView(purchase))
}

// ConfirmRazorpayOrder 校验 Razorpay 签名后确认支付并结算
func (h *Handler) ConfirmRazorpayOrder(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var req ConfirmRazorpayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	purchase, err := h.PaymentService.ConfirmRazorpay(c.Request.Context(), service.ConfirmRazorpayInput{
		BuyerID:         userID,
		OrderNo:         c.Param("order_no"),
		ProviderOrderID: req.RazorpayOrderID,
		PaymentID:       req.RazorpayPaymentID,
		Signature:       req.RazorpaySignature,
	})
	if err != nil {
		respondServiceError(c, err, "payment confirm failed")
		return
	}
	response.Success(c, shared.ToPurchaseView(purchase))
}
