package models

import (
	"time"
)

// Purchase 成交记录，创建后不可修改，更正通过冲正记录完成
type Purchase struct {
	ID               uint      `gorm:"primarykey" json:"id"`                                         // 主键
	ResourceID       uint      `gorm:"index;not null" json:"resource_id"`                            // 资源 ID
	BuyerID          uint      `gorm:"index;not null" json:"buyer_id"`                               // 买家 ID
	AmountTotal      int64     `gorm:"not null" json:"amount_total"`                                 // 实付金额（最小货币单位）
	Currency         string    `gorm:"type:varchar(8);not null" json:"currency"`                     // 币种
	CreatorPercent   int       `gorm:"not null" json:"creator_percent"`                              // 创作者分成比例
	PlatformPercent  int       `gorm:"not null" json:"platform_percent"`                             // 平台分成比例
	CreatorEarnings  int64     `gorm:"not null" json:"creator_earnings"`                             // 创作者收益
	PlatformEarnings int64     `gorm:"not null" json:"platform_earnings"`                            // 平台收益
	PaymentProvider  string    `gorm:"type:varchar(32);not null;default:''" json:"payment_provider"` // 支付提供方
	PaymentRef       *string   `gorm:"type:varchar(128);uniqueIndex" json:"payment_ref"`             // 支付流水号（幂等键）
	CreatedAt        time.Time `gorm:"index" json:"created_at"`                                      // 成交时间

	Resource *Resource         `gorm:"foreignKey:ResourceID" json:"resource,omitempty"` // 资源
	Reversal *PurchaseReversal `gorm:"foreignKey:PurchaseID" json:"reversal,omitempty"` // 冲正记录
}

// TableName 指定表名
func (Purchase) TableName() string {
	return "purchases"
}

// PurchaseReversal 成交冲正记录，每笔成交至多一条
type PurchaseReversal struct {
	ID         uint      `gorm:"primarykey" json:"id"`                    // 主键
	PurchaseID uint      `gorm:"uniqueIndex;not null" json:"purchase_id"` // 成交 ID
	AdminID    uint      `gorm:"not null" json:"admin_id"`                // 操作管理员
	Reason     string    `gorm:"type:text;not null" json:"reason"`        // 冲正原因
	CreatedAt  time.Time `json:"created_at"`                              // 创建时间
}

// TableName 指定表名
func (PurchaseReversal) TableName() string {
	return "purchase_reversals"
}
