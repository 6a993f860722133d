package models

import (
	"time"
)

// PayoutRequest 创作者提现申请
type PayoutRequest struct {
	ID              uint       `gorm:"primarykey" json:"id"`                                  // 主键
	CreatorID       uint       `gorm:"index;not null" json:"creator_id"`                      // 创作者 ID
	Amount          int64      `gorm:"not null" json:"amount"`                                // 提现金额（最小货币单位）
	Currency        string     `gorm:"type:varchar(8);not null" json:"currency"`              // 币种
	Status          string     `gorm:"index;type:varchar(16);not null" json:"status"`         // 状态
	AdminID         *uint      `gorm:"index" json:"admin_id"`                                 // 审核管理员
	RejectionReason string     `gorm:"type:text;not null;default:''" json:"rejection_reason"` // 驳回原因
	ReviewedAt      *time.Time `json:"reviewed_at"`                                           // 审核时间
	PaidAt          *time.Time `json:"paid_at"`                                               // 打款时间
	CreatedAt       time.Time  `gorm:"index" json:"created_at"`                               // 创建时间
	UpdatedAt       time.Time  `json:"updated_at"`                                            // 更新时间

	Creator User `gorm:"foreignKey:CreatorID" json:"creator,omitempty"` // 创作者
}

// TableName 指定表名
func (PayoutRequest) TableName() string {
	return "payout_requests"
}
