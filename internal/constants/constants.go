package constants

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 资源类型常量
const (
	ResourceTypePrompt    = "prompt"
	ResourceTypeMCPServer = "mcp_server"
	ResourceTypeRule      = "rule"
)

// 资源审核状态常量
const (
	ResourceStatusPending   = "pending"
	ResourceStatusPublished = "published"
	ResourceStatusRejected  = "rejected"
)

// 提现申请状态常量
const (
	PayoutStatusPending  = "PENDING"
	PayoutStatusApproved = "APPROVED"
	PayoutStatusRejected = "REJECTED"
	PayoutStatusPaid     = "PAID"
)

// 提现审核动作常量
const (
	PayoutDecisionApprove = "APPROVE"
	PayoutDecisionReject  = "REJECT"
)

// 支付单状态常量
const (
	PaymentOrderStatusPending  = "pending"
	PaymentOrderStatusCaptured = "captured"
	PaymentOrderStatusFailed   = "failed"
)

// 支付提供方常量
const (
	PaymentProviderPaypal   = "paypal"
	PaymentProviderRazorpay = "razorpay"
	PaymentProviderManual   = "manual"
)

// 通知事件常量
const (
	NotifyEventPurchaseRecorded = "purchase.recorded"
	NotifyEventPurchaseReversed = "purchase.reversed"
	NotifyEventPayoutSubmitted  = "payout.submitted"
	NotifyEventPayoutApproved   = "payout.approved"
	NotifyEventPayoutRejected   = "payout.rejected"
	NotifyEventPayoutPaid       = "payout.paid"
)

// 异步任务类型
const (
	TaskNotificationDispatch = "notification:dispatch"
)

// 权限角色常量
const (
	RoleAdmin = "admin"
)
