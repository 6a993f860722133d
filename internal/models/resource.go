package models

import (
	"time"

	"gorm.io/gorm"
)

// Resource 上架资源（提示词、MCP 服务、规则）
type Resource struct {
	ID                uint           `gorm:"primarykey" json:"id"`                                   // 主键
	AuthorID          uint           `gorm:"index;not null" json:"author_id"`                        // 创作者 ID
	CategoryID        uint           `gorm:"index;not null" json:"category_id"`                      // 分类 ID
	Slug              string         `gorm:"uniqueIndex;not null" json:"slug"`                       // 资源标识
	Title             string         `gorm:"not null" json:"title"`                                  // 标题
	Type              string         `gorm:"not null;default:'prompt'" json:"type"`                  // 资源类型
	Price             int64          `gorm:"not null;default:0" json:"price"`                        // 售价（最小货币单位）
	Currency          string         `gorm:"type:varchar(8);not null;default:'USD'" json:"currency"` // 币种
	CommissionPercent int            `gorm:"not null;default:80" json:"commission_percent"`          // 创作者分成比例（0-100）
	SalesCount        int64          `gorm:"not null;default:0" json:"sales_count"`                  // 有效销量
	Status            string         `gorm:"index;not null;default:'pending'" json:"status"`         // 审核状态
	CreatedAt         time.Time      `gorm:"index" json:"created_at"`                                // 创建时间
	UpdatedAt         time.Time      `json:"updated_at"`                                             // 更新时间
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`                                         // 软删除时间

	Author   User     `gorm:"foreignKey:AuthorID" json:"author,omitempty"`     // 创作者
	Category Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"` // 分类
}

// TableName 指定表名
func (Resource) TableName() string {
	return "resources"
}
