package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// JSON 通用 JSON 字段
type JSON map[string]interface{}

// Value 实现 driver.Valuer
func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan 实现 sql.Scanner
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("failed to scan json value")
	}
	return json.Unmarshal(raw, j)
}

// PaymentOrder 结算前的支付单，捕获成功后关联成交记录
type PaymentOrder struct {
	ID              uint       `gorm:"primarykey" json:"id"`                                                 // 主键
	OrderNo         string     `gorm:"uniqueIndex;type:varchar(64);not null" json:"order_no"`                // 支付单号
	BuyerID         uint       `gorm:"index;not null" json:"buyer_id"`                                       // 买家 ID
	ResourceID      uint       `gorm:"index;not null" json:"resource_id"`                                    // 资源 ID
	Provider        string     `gorm:"type:varchar(32);not null" json:"provider"`                            // 支付提供方
	ProviderOrderID string     `gorm:"index;type:varchar(128);not null;default:''" json:"provider_order_id"` // 第三方订单号
	Amount          int64      `gorm:"not null" json:"amount"`                                               // 金额（最小货币单位）
	Currency        string     `gorm:"type:varchar(8);not null" json:"currency"`                             // 币种
	CreatorPercent  int        `gorm:"not null" json:"creator_percent"`                                      // 下单时的分成比例
	Status          string     `gorm:"index;type:varchar(16);not null" json:"status"`                        // 状态
	ApproveURL      string     `gorm:"type:text;not null;default:''" json:"approve_url"`                     // 支付跳转地址
	PurchaseID      *uint      `gorm:"index" json:"purchase_id"`                                             // 关联成交记录
	ProviderPayload JSON       `gorm:"type:json" json:"-"`                                                   // 第三方原始响应
	CapturedAt      *time.Time `json:"captured_at"`                                                          // 捕获时间
	CreatedAt       time.Time  `gorm:"index" json:"created_at"`                                              // 创建时间
	UpdatedAt       time.Time  `json:"updated_at"`                                                           // 更新时间
}

// TableName 指定表名
func (PaymentOrder) TableName() string {
	return "payment_orders"
}
